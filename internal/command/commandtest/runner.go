// Package commandtest provides a scripted command.Runner for tests.
package commandtest

import (
	"fmt"
	"strings"
	"sync"

	"displayctl/internal/command"
)

// Response is the canned outcome of one argv.
type Response struct {
	Stdout   string
	ExitCode int
	Err      error
}

// Runner answers requests from a table keyed by the space-joined argv.
// Unknown argv fail with command.ErrNotFound.
type Runner struct {
	mu        sync.Mutex
	responses map[string]Response
	programs  map[string]bool
	Calls     []command.Request
}

// New returns an empty Runner.
func New() *Runner {
	return &Runner{
		responses: make(map[string]Response),
		programs:  make(map[string]bool),
	}
}

// On registers the response for argv and marks argv[0] as installed.
func (r *Runner) On(argv string, resp Response) *Runner {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.responses[argv] = resp
	r.programs[strings.Fields(argv)[0]] = true
	return r
}

// Install marks a program as present on PATH without scripting a call.
func (r *Runner) Install(name string) *Runner {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.programs[name] = true
	return r
}

// LookPath succeeds for installed programs.
func (r *Runner) LookPath(name string) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.programs[name] {
		return "/usr/bin/" + name, nil
	}
	return "", fmt.Errorf("%w: %s", command.ErrNotFound, name)
}

// Run records req and returns its scripted response.
func (r *Runner) Run(req command.Request) (command.Result, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Calls = append(r.Calls, req)

	key := strings.Join(append([]string{req.Name}, req.Args...), " ")
	resp, ok := r.responses[key]
	if !ok {
		return command.Result{}, fmt.Errorf("%w: %s", command.ErrNotFound, key)
	}
	if resp.Err != nil {
		return command.Result{}, resp.Err
	}
	return command.Result{Stdout: []byte(resp.Stdout), ExitCode: resp.ExitCode}, nil
}

// Argv returns every recorded call as a space-joined string.
func (r *Runner) Argv() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, 0, len(r.Calls))
	for _, c := range r.Calls {
		out = append(out, strings.Join(append([]string{c.Name}, c.Args...), " "))
	}
	return out
}
