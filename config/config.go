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

// Package config defines configuration structures
package config

import (
	"strings"
	"time"

	"github.com/spf13/cast"
)

// DefaultModel is the default pretrained model loaded by the model checks
const DefaultModel = "cpsam"

// DefaultImageSize is the default edge size of the square dummy image used by the inference check
const DefaultImageSize = 256

// DefaultWorkingDirectory is the default directory used to materialize the harness worker and temporary files
const DefaultWorkingDirectory = "work"

// DefaultDriverQueryTimeout is the default timeout for an nvidia-smi invocation
const DefaultDriverQueryTimeout = 30 * time.Second

// DefaultHarnessStartupTimeout is the default timeout for the harness worker handshake
const DefaultHarnessStartupTimeout = 2 * time.Minute

// DefaultHarnessOperationTimeout is the default timeout for a single harness operation.
//
// Model loading may download pretrained weights on first use so this is deliberately long.
const DefaultHarnessOperationTimeout = 15 * time.Minute

// Configuration holds config information filled by Cobra and Viper (see commands package for more information)
type Configuration struct {
	WorkingDirectory   string
	Model              string
	ImageSize          int
	SkipChecks         []string
	DriverQueryTimeout time.Duration
	Harness            HarnessConfig
}

// HarnessConfig holds free-form parameters for the ML harness worker.
//
// It has methods to automatically cast data to the desired type.
type HarnessConfig map[string]interface{}

// Get returns the raw value of a given configuration key
func (hc HarnessConfig) Get(name string) interface{} {
	return hc[name]
}

// GetString returns the value of the given key casted into a string.
// An empty string is returned if not found.
func (hc HarnessConfig) GetString(name string) string {
	return cast.ToString(hc[name])
}

// GetStringOrDefault returns the value of the given key casted into a string.
// The given default value is returned if not found.
func (hc HarnessConfig) GetStringOrDefault(name, defaultValue string) string {
	if res := hc.GetString(name); res != "" {
		return res
	}
	return defaultValue
}

// GetBool returns the value of the given key casted into a boolean.
// False is returned if not found.
func (hc HarnessConfig) GetBool(name string) bool {
	return cast.ToBool(hc[name])
}

// GetDurationOrDefault returns the value of the given key casted into a duration.
// The given default value is returned if not found or not parsable.
func (hc HarnessConfig) GetDurationOrDefault(name string, defaultValue time.Duration) time.Duration {
	val, ok := hc[name]
	if !ok {
		return defaultValue
	}
	d, err := cast.ToDurationE(val)
	if err != nil {
		return defaultValue
	}
	return d
}

// GetStringSlice returns the value of the given key casted into a slice of string.
// If the corresponding raw value is a string, it is split on commas.
// A nil or empty slice is returned if not found.
func (hc HarnessConfig) GetStringSlice(name string) []string {
	val := hc[name]
	switch v := val.(type) {
	case string:
		if v == "" {
			return nil
		}
		return strings.Split(v, ",")
	default:
		return cast.ToStringSlice(val)
	}
}
