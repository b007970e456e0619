// Package command runs external helper programs with an explicit argument
// vector and a bounded run time.
package command

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"time"

	"go.uber.org/zap"
)

// DefaultTimeout bounds a single external command.
const DefaultTimeout = 5 * time.Second

var (
	// ErrNotFound is returned when the program is not on PATH.
	ErrNotFound = errors.New("command: program not found")
	// ErrTimeout is returned when the program outlived its deadline.
	ErrTimeout = errors.New("command: timed out")
)

// Request describes one program invocation.
type Request struct {
	Name    string
	Args    []string
	Stdin   []byte
	Timeout time.Duration // Zero means the runner default
}

// Result is what a finished program produced. A non-zero exit is reported
// here rather than as an error.
type Result struct {
	Stdout   []byte
	ExitCode int
}

// OK reports a zero exit status.
func (r Result) OK() bool { return r.ExitCode == 0 }

// Runner starts external programs.
type Runner interface {
	Run(req Request) (Result, error)
	LookPath(name string) (string, error)
}

// ExecRunner is the os/exec backed Runner.
type ExecRunner struct {
	Timeout time.Duration
	Logger  *zap.SugaredLogger
}

// NewExecRunner returns a runner applying timeout to every request that does
// not carry its own.
func NewExecRunner(timeout time.Duration, logger *zap.SugaredLogger) *ExecRunner {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	return &ExecRunner{Timeout: timeout, Logger: logger}
}

// LookPath resolves name on PATH.
func (r *ExecRunner) LookPath(name string) (string, error) {
	path, err := exec.LookPath(name)
	if err != nil {
		return "", fmt.Errorf("%w: %s", ErrNotFound, name)
	}
	return path, nil
}

// Run executes req and waits for it to exit or time out.
func (r *ExecRunner) Run(req Request) (Result, error) {
	timeout := req.Timeout
	if timeout <= 0 {
		timeout = r.Timeout
	}

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, req.Name, req.Args...)
	if req.Stdin != nil {
		cmd.Stdin = bytes.NewReader(req.Stdin)
	}
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	start := time.Now()
	out, err := cmd.Output()
	r.Logger.Debugw("command finished",
		"argv", strings.Join(append([]string{req.Name}, req.Args...), " "),
		"elapsed", time.Since(start),
		"err", err)

	if ctx.Err() == context.DeadlineExceeded {
		return Result{Stdout: out}, fmt.Errorf("%w: %s after %s", ErrTimeout, req.Name, timeout)
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		if s := strings.TrimSpace(stderr.String()); s != "" {
			r.Logger.Debugw("command stderr", "name", req.Name, "stderr", s)
		}
		return Result{Stdout: out, ExitCode: exitErr.ExitCode()}, nil
	}
	if err != nil {
		if errors.Is(err, exec.ErrNotFound) {
			return Result{}, fmt.Errorf("%w: %s", ErrNotFound, req.Name)
		}
		return Result{}, fmt.Errorf("failed to run %s: %w", req.Name, err)
	}

	return Result{Stdout: out}, nil
}
