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

// Package result defines the per-node validation record written by the test
// command and consumed by the summary command.
package result

//go:generate go-enum -f=structs.go --lower

import (
	"bytes"
	"encoding/json"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
)

// FileSuffix is the fixed suffix of result files looked up by the summary command
const FileSuffix = "_result.json"

// Status x ENUM(
// unknown,
// success,
// failed
// )
type Status int

// MarshalJSON is used to represent this enumeration as a string instead of an int
//
// The wire representation is upper-case ("SUCCESS", "FAILED").
func (s Status) MarshalJSON() ([]byte, error) {
	buffer := bytes.NewBufferString(`"`)
	buffer.WriteString(strings.ToUpper(s.String()))
	buffer.WriteString(`"`)
	return buffer.Bytes(), nil
}

// UnmarshalJSON is used to read this enumeration from a string
func (s *Status) UnmarshalJSON(b []byte) error {
	var str string
	err := json.Unmarshal(b, &str)
	if err != nil {
		return errors.Wrap(err, "failed to unmarshal Status as string")
	}
	*s, err = ParseStatus(strings.ToLower(str))
	return errors.Wrap(err, "failed to parse Status from JSON input")
}

// A Record summarizes the outcome of every check ran on a single node
type Record struct {
	Node      string                     `json:"node"`
	Hostname  string                     `json:"hostname"`
	RunID     string                     `json:"run_id"`
	Status    Status                     `json:"status"`
	StartedAt time.Time                  `json:"started_at"`
	Duration  string                     `json:"duration,omitempty"`
	Tests     map[string]json.RawMessage `json:"tests"`
	Errors    []string                   `json:"errors"`
}

// NewRecord creates a Record for the given node with a fresh run identifier
func NewRecord(node string) (*Record, error) {
	hostname, err := os.Hostname()
	if err != nil {
		return nil, errors.Wrap(err, "failed to retrieve the local hostname")
	}
	return &Record{
		Node:      node,
		Hostname:  hostname,
		RunID:     uuid.New().String(),
		Status:    StatusUnknown,
		StartedAt: time.Now(),
		Tests:     make(map[string]json.RawMessage),
		Errors:    make([]string, 0),
	}, nil
}

// AddResult stores the output of a named check into the record
func (r *Record) AddResult(check string, output interface{}) error {
	b, err := json.Marshal(output)
	if err != nil {
		return errors.Wrapf(err, "failed to serialize the output of check %q", check)
	}
	r.Tests[check] = b
	return nil
}

// AddErrors appends error strings to the record
func (r *Record) AddErrors(errs ...string) {
	r.Errors = append(r.Errors, errs...)
}

// Result deserializes the output of a named check into the given value.
//
// It returns false without touching the value if the check has no recorded output.
func (r *Record) Result(check string, output interface{}) (bool, error) {
	raw, ok := r.Tests[check]
	if !ok {
		return false, nil
	}
	if err := json.Unmarshal(raw, output); err != nil {
		return true, errors.Wrapf(err, "failed to deserialize the output of check %q", check)
	}
	return true, nil
}

// Finalize computes the total run duration and the final status.
//
// The status is SUCCESS if and only if no error was recorded. Finalize is
// called exactly once, after the last check completed.
func (r *Record) Finalize() {
	r.Duration = time.Since(r.StartedAt).Round(time.Millisecond).String()
	if len(r.Errors) == 0 {
		r.Status = StatusSuccess
	} else {
		r.Status = StatusFailed
	}
}
