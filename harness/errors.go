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

package harness

import (
	"fmt"

	"github.com/pkg/errors"
)

type sessionClosedError struct{}

func (e sessionClosedError) Error() string {
	return "harness session closed"
}

// IsSessionClosedError checks if an error is due to the worker process being gone
func IsSessionClosedError(err error) bool {
	_, ok := errors.Cause(err).(sessionClosedError)
	return ok
}

type protocolError struct {
	msg string
}

func (e protocolError) Error() string {
	return e.msg
}

// IsProtocolError checks if an error is due to the worker speaking an unexpected dialect
func IsProtocolError(err error) bool {
	_, ok := errors.Cause(err).(protocolError)
	return ok
}

type operationFailedError struct {
	op        string
	message   string
	traceback string
}

func (e operationFailedError) Error() string {
	return fmt.Sprintf("harness operation %q failed: %s", e.op, e.message)
}

// NewOperationFailedError creates an error representing a failure reported
// by the worker for the given operation
func NewOperationFailedError(op, message, traceback string) error {
	return errors.WithStack(operationFailedError{op: op, message: message, traceback: traceback})
}

// IsOperationFailedError checks if an error is a failure reported by the worker itself
func IsOperationFailedError(err error) bool {
	_, ok := errors.Cause(err).(operationFailedError)
	return ok
}

// OperationMessage returns the raw failure message reported by the worker.
// An empty string is returned for any other kind of error.
func OperationMessage(err error) string {
	if e, ok := errors.Cause(err).(operationFailedError); ok {
		return e.message
	}
	return ""
}

// OperationTraceback returns the worker-side traceback of a failed operation.
// An empty string is returned for any other kind of error.
func OperationTraceback(err error) string {
	if e, ok := errors.Cause(err).(operationFailedError); ok {
		return e.traceback
	}
	return ""
}
