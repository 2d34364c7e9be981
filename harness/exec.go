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
	"bufio"
	"context"
	"encoding/json"
	"io"
	"time"

	"github.com/blang/semver"
	"github.com/pkg/errors"

	"github.com/ystia/gpucheck/config"
	"github.com/ystia/gpucheck/helper/executil"
	"github.com/ystia/gpucheck/helper/stringutil"
	"github.com/ystia/gpucheck/log"
)

// supportedProtocol is the range of worker protocol versions this client understands
var supportedProtocol = semver.MustParseRange(">=1.0.0 <2.0.0")

// maxLineSize bounds a single protocol line; tracebacks can get large
const maxLineSize = 10 * 1024 * 1024

type request struct {
	ID   int64       `json:"id"`
	Op   string      `json:"op"`
	Args interface{} `json:"args,omitempty"`
}

type response struct {
	ID        int64           `json:"id"`
	OK        bool            `json:"ok"`
	Result    json.RawMessage `json:"result,omitempty"`
	Error     string          `json:"error,omitempty"`
	Traceback string          `json:"traceback,omitempty"`
}

type execSession struct {
	cancel    context.CancelFunc
	cmd       *executil.Cmd
	stdin     io.WriteCloser
	lines     chan string
	hello     HelloInfo
	opTimeout time.Duration
	nextID    int64
	closed    bool
}

// NewSession starts a worker process and performs the protocol handshake.
//
// The worker command comes from the harness configuration ("command" key,
// taking over entirely when set); otherwise the embedded Cellpose worker is
// materialized under the working directory and ran with the configured
// interpreter ("interpreter" key, "python3" when unset).
func NewSession(ctx context.Context, cfg config.Configuration) (Session, error) {
	command := cfg.Harness.GetStringSlice("command")
	if len(command) == 0 {
		payloadPath, err := MaterializePayload(cfg.WorkingDirectory)
		if err != nil {
			return nil, err
		}
		interpreter := cfg.Harness.GetStringOrDefault("interpreter", "python3")
		command = []string{interpreter, "-u", payloadPath}
	}
	log.Debugf("Starting harness worker: %q", command)

	ctx, cancel := context.WithCancel(ctx)
	cmd := executil.Command(ctx, command[0], command[1:]...)
	stdin, err := cmd.StdinPipe()
	if err != nil {
		cancel()
		return nil, errors.Wrap(err, "failed to open the harness worker stdin")
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		cancel()
		return nil, errors.Wrap(err, "failed to open the harness worker stdout")
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		cancel()
		return nil, errors.Wrap(err, "failed to open the harness worker stderr")
	}
	if err = cmd.Start(); err != nil {
		cancel()
		return nil, errors.Wrapf(err, "failed to start the harness worker %q", command[0])
	}
	go logStderr(stderr)

	s := newSession(stdin, stdout, cfg.Harness.GetDurationOrDefault("operation_timeout", config.DefaultHarnessOperationTimeout))
	s.cancel = cancel
	s.cmd = cmd
	if err = s.handshake(ctx, cfg.Harness.GetDurationOrDefault("startup_timeout", config.DefaultHarnessStartupTimeout)); err != nil {
		s.Close()
		return nil, err
	}
	log.Debugf("Harness worker ready: protocol %s, interpreter %s (%s)", s.hello.Protocol, s.hello.Interpreter, s.hello.InterpreterVersion)
	return s, nil
}

// newSession wires a session over raw streams. Split from NewSession so the
// protocol can be tested without spawning a real worker.
func newSession(stdin io.WriteCloser, stdout io.Reader, opTimeout time.Duration) *execSession {
	s := &execSession{
		stdin:     stdin,
		lines:     make(chan string),
		opTimeout: opTimeout,
	}
	go func() {
		scanner := bufio.NewScanner(stdout)
		scanner.Buffer(make([]byte, 0, 64*1024), maxLineSize)
		for scanner.Scan() {
			s.lines <- scanner.Text()
		}
		close(s.lines)
	}()
	return s
}

func logStderr(stderr io.Reader) {
	scanner := bufio.NewScanner(stderr)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineSize)
	for scanner.Scan() {
		log.Debugf("harness: %s", scanner.Text())
	}
}

func (s *execSession) handshake(ctx context.Context, timeout time.Duration) error {
	line, err := s.readLine(ctx, timeout)
	if err != nil {
		return errors.Wrap(err, "harness worker did not announce itself")
	}
	if err = json.Unmarshal([]byte(line), &s.hello); err != nil || !s.hello.Ready {
		return errors.Wrapf(protocolError{msg: "unexpected harness handshake line"}, "%q", line)
	}
	v, err := semver.Parse(s.hello.Protocol)
	if err != nil {
		return errors.Wrapf(protocolError{msg: "unparsable harness protocol version"}, "%q", s.hello.Protocol)
	}
	if !supportedProtocol(v) {
		return errors.Wrapf(protocolError{msg: "unsupported harness protocol version"}, "%q", s.hello.Protocol)
	}
	return nil
}

func (s *execSession) readLine(ctx context.Context, timeout time.Duration) (string, error) {
	timer := time.NewTimer(timeout)
	defer timer.Stop()
	select {
	case line, ok := <-s.lines:
		if !ok {
			return "", errors.WithStack(sessionClosedError{})
		}
		return line, nil
	case <-ctx.Done():
		return "", errors.Wrap(ctx.Err(), "harness operation cancelled")
	case <-timer.C:
		return "", errors.Errorf("harness worker did not answer within %s", timeout)
	}
}

func (s *execSession) call(ctx context.Context, op string, args, result interface{}) error {
	if s.closed {
		return errors.WithStack(sessionClosedError{})
	}
	s.nextID++
	req := request{ID: s.nextID, Op: op, Args: args}
	b, err := json.Marshal(req)
	if err != nil {
		return errors.Wrapf(err, "failed to serialize the %q request", op)
	}
	if _, err = s.stdin.Write(append(b, '\n')); err != nil {
		return errors.Wrapf(sessionClosedError{}, "failed to send the %q request: %v", op, err)
	}
	line, err := s.readLine(ctx, s.opTimeout)
	if err != nil {
		return errors.Wrapf(err, "no answer to the %q request", op)
	}
	log.Debugf("Harness answered: %s", stringutil.Truncate(line, 200))
	var resp response
	if err = json.Unmarshal([]byte(line), &resp); err != nil {
		return errors.Wrapf(protocolError{msg: "unparsable harness answer"}, "%q", line)
	}
	if resp.ID != req.ID {
		return errors.Wrapf(protocolError{msg: "out of sequence harness answer"}, "sent id %d, got id %d", req.ID, resp.ID)
	}
	if !resp.OK {
		return NewOperationFailedError(op, resp.Error, resp.Traceback)
	}
	if result != nil {
		if err = json.Unmarshal(resp.Result, result); err != nil {
			return errors.Wrapf(protocolError{msg: "unparsable harness result"}, "op %q: %v", op, err)
		}
	}
	return nil
}

func (s *execSession) Hello() HelloInfo {
	return s.hello
}

func (s *execSession) Probe(ctx context.Context) (*FrameworkInfo, error) {
	info := new(FrameworkInfo)
	if err := s.call(ctx, "probe", nil, info); err != nil {
		return nil, err
	}
	return info, nil
}

func (s *execSession) Import(ctx context.Context) (*LibraryInfo, error) {
	info := new(LibraryInfo)
	if err := s.call(ctx, "import", nil, info); err != nil {
		return nil, err
	}
	return info, nil
}

func (s *execSession) Load(ctx context.Context, model string) (*ModelInfo, error) {
	info := new(ModelInfo)
	if err := s.call(ctx, "load", map[string]string{"model": model}, info); err != nil {
		return nil, err
	}
	return info, nil
}

func (s *execSession) Infer(ctx context.Context, req InferenceRequest) (*InferenceInfo, error) {
	info := new(InferenceInfo)
	start := time.Now()
	if err := s.call(ctx, "infer", req, info); err != nil {
		return nil, err
	}
	info.Duration = time.Since(start).Round(time.Millisecond).String()
	return info, nil
}

func (s *execSession) Close() error {
	if s.closed {
		return nil
	}
	s.closed = true
	// best effort shutdown request, the worker exits on EOF anyway
	if b, err := json.Marshal(request{ID: s.nextID + 1, Op: "shutdown"}); err == nil {
		s.stdin.Write(append(b, '\n'))
	}
	s.stdin.Close()
	// the session no longer reads, drain pending output so the stdout
	// reader can reach EOF and terminate
	go func() {
		for range s.lines {
		}
	}()
	if s.cmd == nil {
		return nil
	}
	done := make(chan error, 1)
	go func() {
		done <- s.cmd.Wait()
	}()
	select {
	case err := <-done:
		s.cancel()
		if err != nil {
			log.Debugf("Harness worker exited with: %v", err)
		}
		return nil
	case <-time.After(10 * time.Second):
		log.Debug("Harness worker did not exit, killing its process group")
		s.cancel()
		<-done
		return nil
	}
}
