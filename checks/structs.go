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

package checks

import (
	"github.com/ystia/gpucheck/gpu"
	"github.com/ystia/gpucheck/harness"
)

// Check names, used as keys of the tests map in result records
const (
	CheckEnvironment  = "environment"
	CheckDriver       = "driver"
	CheckFramework    = "pytorch"
	CheckLibrary      = "cellpose"
	CheckModelLoading = "model_loading"
	CheckInference    = "inference"
)

// Names lists every check in execution order
var Names = []string{CheckEnvironment, CheckDriver, CheckFramework, CheckLibrary, CheckModelLoading, CheckInference}

// titles are the human readable banners logged when a check starts
var titles = map[string]string{
	CheckEnvironment:  "Environment capture",
	CheckDriver:       "NVIDIA driver and GPU inventory",
	CheckFramework:    "PyTorch and CUDA availability",
	CheckLibrary:      "Cellpose import",
	CheckModelLoading: "CellposeSAM model loading",
	CheckInference:    "Dummy inference",
}

// A Failure is the recorded output of a check that did not complete
type Failure struct {
	Error string `json:"error"`
	Stack string `json:"stack,omitempty"`
}

// A Skipped marks the output of a check excluded by the skip list
type Skipped struct {
	Skipped bool `json:"skipped"`
}

// An EnvironmentReport captures ambient process and scheduler information.
// Scheduler variables absent from the environment are reported as "N/A".
type EnvironmentReport struct {
	Executable         string `json:"executable"`
	ToolVersion        string `json:"tool_version"`
	GoVersion          string `json:"go_version"`
	OS                 string `json:"os"`
	Arch               string `json:"arch"`
	SlurmJobID         string `json:"slurm_job_id"`
	SlurmNodelist      string `json:"slurm_nodelist"`
	SlurmJobPartition  string `json:"slurm_job_partition"`
	CUDAVisibleDevices string `json:"cuda_visible_devices"`
	WorkingDirectory   string `json:"working_directory"`
}

// A DriverReport is the output of the NVIDIA driver check
type DriverReport struct {
	DriverVersion string       `json:"driver_version"`
	Devices       []gpu.Device `json:"devices"`
}

// A FrameworkReport is the output of the PyTorch check, the harness probe
// report plus the interpreter identity received during the worker handshake
type FrameworkReport struct {
	harness.FrameworkInfo
	Interpreter        string `json:"python_executable"`
	InterpreterVersion string `json:"python_version"`
}

// A ModelLoadingReport is the output of the model loading check, the
// harness report plus an optional CPU fallback warning
type ModelLoadingReport struct {
	harness.ModelInfo
	Warning string `json:"warning,omitempty"`
}
