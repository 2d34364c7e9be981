// Copyright 2018 Bull S.A.S. Atos Technologies - Bull, Rue Jean Jaures, B.P.68, 78340, Les Clayes-sous-Bois, France.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package gpu probes the NVIDIA driver through nvidia-smi to inventory the
// GPU devices visible on the local node.
package gpu

import (
	"bytes"
	"context"
	"math"
	"os/exec"
	"strconv"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/pkg/errors"

	"github.com/ystia/gpucheck/helper/executil"
	"github.com/ystia/gpucheck/log"
)

const smiBinary = "nvidia-smi"

var smiQueryArgs = []string{
	"--query-gpu=index,name,uuid,memory.total,compute_cap,driver_version",
	"--format=csv,noheader,nounits",
}

// A Device describes one GPU as reported by the driver
type Device struct {
	Index             int     `json:"index"`
	Name              string  `json:"name"`
	UUID              string  `json:"uuid"`
	MemoryGB          float64 `json:"memory_gb"`
	ComputeCapability string  `json:"compute_capability"`
	DriverVersion     string  `json:"driver_version"`
}

// QueryDevices runs nvidia-smi and returns the visible GPU devices.
//
// An error is returned if the binary is missing, exits with a non-zero code,
// produces unparsable output or reports no device at all.
func QueryDevices(ctx context.Context) ([]Device, error) {
	if _, err := exec.LookPath(smiBinary); err != nil {
		return nil, errors.Wrapf(err, "%q not found in PATH, is the NVIDIA driver installed on this node?", smiBinary)
	}
	cmd := executil.Command(ctx, smiBinary, smiQueryArgs...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	out, err := cmd.Output()
	if err != nil {
		return nil, errors.Wrapf(err, "failed to query GPU devices with %q (output: %q)", smiBinary, strings.TrimSpace(stderr.String()))
	}
	devices, err := parseQueryOutput(string(out))
	if err != nil {
		return nil, err
	}
	for _, d := range devices {
		log.Debugf("Found GPU %d: %s (%.2fGB, compute capability %s, driver %s)", d.Index, d.Name, d.MemoryGB, d.ComputeCapability, d.DriverVersion)
	}
	return devices, nil
}

// parseQueryOutput parses the CSV output of an nvidia-smi GPU query.
//
// Sample output:
//
//	0, NVIDIA A100-SXM4-80GB, GPU-3a4e5f6a-1b2c-3d4e-5f6a-7b8c9d0e1f2a, 81920, 8.0, 535.129.03
//	1, NVIDIA A100-SXM4-80GB, GPU-4b5f6a7b-2c3d-4e5f-6a7b-8c9d0e1f2a3b, 81920, 8.0, 535.129.03
func parseQueryOutput(out string) ([]Device, error) {
	devices := make([]Device, 0)
	for _, line := range strings.Split(out, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		fields := strings.Split(line, ",")
		if len(fields) != 6 {
			return nil, errors.Errorf("unexpected %q output line: %q", smiBinary, line)
		}
		for i := range fields {
			fields[i] = strings.TrimSpace(fields[i])
		}
		index, err := strconv.Atoi(fields[0])
		if err != nil {
			return nil, errors.Wrapf(err, "invalid GPU index in %q output line: %q", smiBinary, line)
		}
		memMiB, err := strconv.ParseFloat(fields[3], 64)
		if err != nil {
			return nil, errors.Wrapf(err, "invalid GPU memory in %q output line: %q", smiBinary, line)
		}
		devices = append(devices, Device{
			Index:             index,
			Name:              fields[1],
			UUID:              fields[2],
			MemoryGB:          toGB(memMiB),
			ComputeCapability: normalizeNA(fields[4]),
			DriverVersion:     fields[5],
		})
	}
	if len(devices) == 0 {
		return nil, errors.Errorf("%q reported no GPU device on this node", smiBinary)
	}
	return devices, nil
}

// toGB converts a MiB count to decimal gigabytes rounded to 2 digits,
// matching the memory figures reported by the framework probe.
func toGB(mib float64) float64 {
	return math.Round(mib*humanize.MiByte/humanize.GByte*100) / 100
}

// normalizeNA maps the bracketed not-available marker printed by nvidia-smi
// to the plain form used everywhere else in records.
func normalizeNA(s string) string {
	if s == "[N/A]" || s == "" {
		return "N/A"
	}
	return s
}
