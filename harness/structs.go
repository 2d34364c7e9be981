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

// Package harness is the only coupling point with the ML stack.
//
// A Session talks to a worker process owning the Python interpreter, the
// framework and the Cellpose library. The worker speaks newline-delimited
// JSON on its standard streams: one request object per line in, one response
// object per line out. Model state lives in the worker between the load and
// infer operations.
package harness

import (
	"context"
)

// A HelloInfo carries the handshake data emitted by the worker on startup
type HelloInfo struct {
	Ready              bool   `json:"ready"`
	Protocol           string `json:"protocol"`
	Interpreter        string `json:"interpreter"`
	InterpreterVersion string `json:"interpreter_version"`
}

// A FrameworkInfo reports the framework and CUDA state of the worker
type FrameworkInfo struct {
	Version             string            `json:"version"`
	CUDACompiledVersion string            `json:"cuda_compiled_version"`
	CUDAAvailable       bool              `json:"cuda_available"`
	DeviceCount         int               `json:"device_count"`
	Devices             []FrameworkDevice `json:"devices,omitempty"`
}

// A FrameworkDevice describes one CUDA device as seen by the framework
type FrameworkDevice struct {
	Index             int     `json:"index"`
	Name              string  `json:"name"`
	MemoryGB          float64 `json:"memory_gb"`
	ComputeCapability string  `json:"compute_capability"`
}

// A LibraryInfo reports the Cellpose import outcome
type LibraryInfo struct {
	Version  string `json:"version"`
	Imported bool   `json:"imported"`
}

// A ModelInfo reports where a loaded model landed
type ModelInfo struct {
	Device          string `json:"device"`
	GPUFlag         bool   `json:"gpu_flag"`
	NetworkDevice   string `json:"network_device,omitempty"`
	ParameterDevice string `json:"parameter_device,omitempty"`
}

// An InferenceRequest describes the dummy image submitted to the loaded model
type InferenceRequest struct {
	ImageSize int `json:"image_size"`
}

// An InferenceInfo reports the outcome of a dummy inference
type InferenceInfo struct {
	MaskCount   int    `json:"num_masks_found"`
	OutputShape string `json:"output_shape"`
	Duration    string `json:"duration,omitempty"`
}

// A Session drives one worker process through its lifecycle.
//
// Operations are synchronous and must not be called concurrently. The
// given context may cancel an in-flight operation, which kills the worker.
type Session interface {
	// Hello returns the handshake data received when the session started
	Hello() HelloInfo
	// Probe reports the framework version and CUDA availability
	Probe(ctx context.Context) (*FrameworkInfo, error)
	// Import reports the Cellpose library version
	Import(ctx context.Context) (*LibraryInfo, error)
	// Load loads the named pretrained model in the worker
	Load(ctx context.Context, model string) (*ModelInfo, error)
	// Infer runs the loaded model on a random dummy image
	Infer(ctx context.Context, req InferenceRequest) (*InferenceInfo, error)
	// Close shuts the worker down
	Close() error
}
