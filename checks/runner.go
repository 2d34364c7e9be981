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

// Package checks runs the per-node diagnostic sequence and records every
// outcome into a result record.
//
// Checks are independent: a failure is converted into error strings on the
// record and the run proceeds with the next check. The only state carried
// between checks is the harness session and whether the model loaded, as
// inference needs a loaded model.
package checks

import (
	"context"
	"fmt"
	"os"
	"runtime"
	"strings"

	"github.com/pkg/errors"

	"github.com/ystia/gpucheck/config"
	"github.com/ystia/gpucheck/gpu"
	"github.com/ystia/gpucheck/harness"
	"github.com/ystia/gpucheck/helper/collections"
	"github.com/ystia/gpucheck/helper/stringutil"
	"github.com/ystia/gpucheck/log"
	"github.com/ystia/gpucheck/result"
)

// ValidateSkipList verifies that a skip list only names known, skippable
// checks. The environment check always runs.
func ValidateSkipList(skip []string) error {
	for _, name := range skip {
		if name == CheckEnvironment {
			return errors.Errorf("check %q cannot be skipped", name)
		}
		if !collections.ContainsString(Names, name) {
			return errors.Errorf("unknown check name %q, expected one of %v", name, Names[1:])
		}
	}
	return nil
}

// A Runner drives the diagnostic sequence for one node
type Runner struct {
	cfg         config.Configuration
	toolVersion string

	// indirections over the probed subsystems, swapped in tests
	newSession   func(ctx context.Context, cfg config.Configuration) (harness.Session, error)
	queryDevices func(ctx context.Context) ([]gpu.Device, error)

	session    harness.Session
	sessionErr error
	framework  *harness.FrameworkInfo
	modelInfo  *harness.ModelInfo
}

// NewRunner creates a Runner for the given configuration
func NewRunner(cfg config.Configuration, toolVersion string) *Runner {
	return &Runner{
		cfg:          cfg,
		toolVersion:  toolVersion,
		newSession:   harness.NewSession,
		queryDevices: gpu.QueryDevices,
	}
}

// Run executes every check in order and records outputs and errors into the
// given record. The harness session shared by the framework, library, model
// and inference checks is started lazily and closed before returning.
func (r *Runner) Run(ctx context.Context, rec *result.Record) {
	defer func() {
		if r.session != nil {
			r.session.Close()
		}
	}()

	sequence := []struct {
		name string
		run  func(ctx context.Context) (interface{}, []string)
	}{
		{CheckEnvironment, r.checkEnvironment},
		{CheckDriver, r.checkDriver},
		{CheckFramework, r.checkFramework},
		{CheckLibrary, r.checkLibrary},
		{CheckModelLoading, r.checkModelLoading},
		{CheckInference, r.checkInference},
	}

	for i, check := range sequence {
		if check.name != CheckEnvironment && collections.ContainsString(r.cfg.SkipChecks, check.name) {
			log.Printf("[TEST %d] %s: skipped", i+1, titles[check.name])
			if err := rec.AddResult(check.name, Skipped{Skipped: true}); err != nil {
				rec.AddErrors(err.Error())
			}
			continue
		}
		log.Printf("[TEST %d] %s", i+1, titles[check.name])
		output, errs := check.run(ctx)
		if err := rec.AddResult(check.name, output); err != nil {
			errs = append(errs, err.Error())
		}
		for _, e := range errs {
			log.Printf("%s: %s", titles[check.name], e)
		}
		rec.AddErrors(errs...)
	}
}

func (r *Runner) checkEnvironment(ctx context.Context) (interface{}, []string) {
	// informational only, this check never fails
	executable, _ := os.Executable()
	workingDirectory, _ := os.Getwd()
	return EnvironmentReport{
		Executable:         executable,
		ToolVersion:        r.toolVersion,
		GoVersion:          runtime.Version(),
		OS:                 runtime.GOOS,
		Arch:               runtime.GOARCH,
		SlurmJobID:         envOr("SLURM_JOB_ID"),
		SlurmNodelist:      envOr("SLURM_NODELIST"),
		SlurmJobPartition:  envOr("SLURM_JOB_PARTITION"),
		CUDAVisibleDevices: envOr("CUDA_VISIBLE_DEVICES"),
		WorkingDirectory:   workingDirectory,
	}, nil
}

func (r *Runner) checkDriver(ctx context.Context) (interface{}, []string) {
	ctx, cancel := context.WithTimeout(ctx, r.cfg.DriverQueryTimeout)
	defer cancel()
	devices, err := r.queryDevices(ctx)
	if err != nil {
		return failureOutput(err), []string{"Driver error: " + errMessage(err)}
	}
	log.Printf("Found %d GPU device(s), driver %s", len(devices), devices[0].DriverVersion)
	return DriverReport{DriverVersion: devices[0].DriverVersion, Devices: devices}, nil
}

func (r *Runner) checkFramework(ctx context.Context) (interface{}, []string) {
	s, err := r.getSession(ctx)
	if err != nil {
		return failureOutput(err), []string{"PyTorch error: " + errMessage(err)}
	}
	info, err := s.Probe(ctx)
	if err != nil {
		return failureOutput(err), []string{"PyTorch error: " + errMessage(err)}
	}
	r.framework = info
	hello := s.Hello()
	report := FrameworkReport{
		FrameworkInfo:      *info,
		Interpreter:        hello.Interpreter,
		InterpreterVersion: hello.InterpreterVersion,
	}
	log.Printf("Python: %s (%s)", hello.Interpreter, hello.InterpreterVersion)
	if !info.CUDAAvailable {
		return report, []string{"CUDA not available despite GPU partition"}
	}
	for _, d := range info.Devices {
		log.Printf("GPU %d: %s (%.2fGB)", d.Index, d.Name, d.MemoryGB)
	}
	return report, nil
}

func (r *Runner) checkLibrary(ctx context.Context) (interface{}, []string) {
	s, err := r.getSession(ctx)
	if err != nil {
		return failureOutput(err), []string{"Cellpose import error: " + errMessage(err)}
	}
	info, err := s.Import(ctx)
	if err != nil {
		return failureOutput(err), []string{"Cellpose import error: " + errMessage(err)}
	}
	log.Printf("Cellpose version: %s", info.Version)
	return info, nil
}

func (r *Runner) checkModelLoading(ctx context.Context) (interface{}, []string) {
	s, err := r.getSession(ctx)
	if err != nil {
		return failureOutput(err), []string{"Model loading error: " + errMessage(err)}
	}
	info, err := s.Load(ctx, r.cfg.Model)
	if err != nil {
		return failureOutput(err), []string{"Model loading error: " + errMessage(err)}
	}
	r.modelInfo = info
	report := ModelLoadingReport{ModelInfo: *info}
	if strings.HasPrefix(info.Device, "cpu") && r.framework != nil && r.framework.CUDAAvailable {
		report.Warning = "Model loaded on CPU despite CUDA being available!"
		return report, []string{report.Warning}
	}
	log.Printf("Model %q loaded on %s", r.cfg.Model, info.Device)
	return report, nil
}

func (r *Runner) checkInference(ctx context.Context) (interface{}, []string) {
	if r.modelInfo == nil {
		return Failure{Error: "Model not loaded, skipping inference"}, nil
	}
	s, err := r.getSession(ctx)
	if err != nil {
		return failureOutput(err), []string{"Inference error: " + errMessage(err)}
	}
	log.Printf("Running inference on a %dx%d dummy image...", r.cfg.ImageSize, r.cfg.ImageSize)
	info, err := s.Infer(ctx, harness.InferenceRequest{ImageSize: r.cfg.ImageSize})
	if err != nil {
		return failureOutput(err), []string{"Inference error: " + errMessage(err)}
	}
	log.Printf("Found %d masks in %s", info.MaskCount, info.Duration)
	return info, nil
}

func (r *Runner) getSession(ctx context.Context) (harness.Session, error) {
	if r.session != nil || r.sessionErr != nil {
		return r.session, r.sessionErr
	}
	r.session, r.sessionErr = r.newSession(ctx, r.cfg)
	return r.session, r.sessionErr
}

// errMessage keeps the short worker-side message for failures reported by
// the harness itself and falls back to the full error text otherwise.
// Error strings are grouped by literal value in summary reports, so they
// must stay single-line.
func errMessage(err error) string {
	if msg := harness.OperationMessage(err); msg != "" {
		return stringutil.FirstLine(msg)
	}
	return err.Error()
}

// failureOutput converts an error into the recorded output of a failed
// check. The stack is the worker traceback when the worker reported the
// failure, the wrapped Go stack otherwise.
func failureOutput(err error) Failure {
	f := Failure{Error: errMessage(err)}
	if tb := harness.OperationTraceback(err); tb != "" {
		f.Stack = tb
	} else {
		f.Stack = fmt.Sprintf("%+v", err)
	}
	return f
}

func envOr(key string) string {
	if v, ok := os.LookupEnv(key); ok {
		return v
	}
	return "N/A"
}
