package sysexec

import (
	"context"
	"os/exec"
	"strings"
	"sync"
)

// Call records one invocation seen by FakeRunner.
type Call struct {
	Name     string
	Args     []string
	Env      []string
	Detached bool
}

// String renders the call as a shell-like command line.
func (c Call) String() string {
	return strings.TrimSpace(c.Name + " " + strings.Join(c.Args, " "))
}

// FakeRunner is a scripted Runner for tests.
type FakeRunner struct {
	mu sync.Mutex

	// Paths lists the binaries LookPath resolves. Missing names fail.
	Paths map[string]string

	// Handler answers Run and RunEnv. A nil Handler succeeds with no output.
	Handler func(call Call) ([]byte, error)

	calls []Call
}

// NewFakeRunner creates a FakeRunner where each listed tool resolves to /usr/bin/<name>.
func NewFakeRunner(tools ...string) *FakeRunner {
	f := &FakeRunner{Paths: make(map[string]string)}
	for _, t := range tools {
		f.Paths[t] = "/usr/bin/" + t
	}
	return f
}

func (f *FakeRunner) Run(ctx context.Context, name string, args ...string) ([]byte, error) {
	return f.RunEnv(ctx, nil, name, args...)
}

func (f *FakeRunner) RunEnv(ctx context.Context, env []string, name string, args ...string) ([]byte, error) {
	call := Call{Name: name, Args: append([]string(nil), args...), Env: env}

	f.mu.Lock()
	f.calls = append(f.calls, call)
	handler := f.Handler
	f.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return nil, &ToolError{Tool: name, Args: args, Err: err}
	}
	if handler == nil {
		return nil, nil
	}
	return handler(call)
}

func (f *FakeRunner) Start(name string, args ...string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, Call{Name: name, Args: append([]string(nil), args...), Detached: true})
	return nil
}

func (f *FakeRunner) LookPath(name string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if p, ok := f.Paths[name]; ok {
		return p, nil
	}
	return "", exec.ErrNotFound
}

// Calls returns a copy of the recorded calls.
func (f *FakeRunner) Calls() []Call {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]Call(nil), f.calls...)
}

// CallsTo returns the recorded calls to name.
func (f *FakeRunner) CallsTo(name string) []Call {
	var out []Call
	for _, c := range f.Calls() {
		if c.Name == name {
			out = append(out, c)
		}
	}
	return out
}
