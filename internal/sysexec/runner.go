// Package sysexec runs the external desktop tools loom drives.
package sysexec

import (
	"bytes"
	"context"
	"errors"
	"os"
	"os/exec"
	"strings"
	"syscall"
)

// ErrToolMissing is returned when a required binary is not on PATH.
var ErrToolMissing = errors.New("tool not found")

// Runner executes external commands.
type Runner interface {
	// Run executes name with args and returns its stdout.
	Run(ctx context.Context, name string, args ...string) ([]byte, error)

	// RunEnv is Run with extra KEY=VALUE pairs appended to the environment.
	RunEnv(ctx context.Context, env []string, name string, args ...string) ([]byte, error)

	// Start launches name detached from the current process and does not wait.
	Start(name string, args ...string) error

	// LookPath resolves name against PATH.
	LookPath(name string) (string, error)
}

// ToolError describes a failed subprocess.
type ToolError struct {
	Tool   string
	Args   []string
	Output string
	Err    error
}

func (e *ToolError) Error() string {
	msg := e.Tool + " failed"
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	if e.Output != "" {
		msg += ": " + e.Output
	}
	return msg
}

func (e *ToolError) Unwrap() error {
	return e.Err
}

// ExecRunner is the os/exec backed Runner.
type ExecRunner struct{}

// NewExecRunner creates a new ExecRunner.
func NewExecRunner() *ExecRunner {
	return &ExecRunner{}
}

// Run executes name with args.
func (r *ExecRunner) Run(ctx context.Context, name string, args ...string) ([]byte, error) {
	return r.RunEnv(ctx, nil, name, args...)
}

// RunEnv executes name with args and extra environment.
func (r *ExecRunner) RunEnv(ctx context.Context, env []string, name string, args ...string) ([]byte, error) {
	if _, err := exec.LookPath(name); err != nil {
		return nil, &ToolError{Tool: name, Args: args, Err: ErrToolMissing}
	}

	cmd := exec.CommandContext(ctx, name, args...)
	if len(env) > 0 {
		cmd.Env = append(os.Environ(), env...)
	}
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		out := strings.TrimSpace(stderr.String())
		if out == "" {
			out = strings.TrimSpace(stdout.String())
		}
		if ctx.Err() != nil {
			err = ctx.Err()
		}
		return stdout.Bytes(), &ToolError{Tool: name, Args: args, Output: out, Err: err}
	}
	return stdout.Bytes(), nil
}

// Start launches name in its own session with no stdio attached.
func (r *ExecRunner) Start(name string, args ...string) error {
	if _, err := exec.LookPath(name); err != nil {
		return &ToolError{Tool: name, Args: args, Err: ErrToolMissing}
	}

	cmd := exec.Command(name, args...)
	cmd.SysProcAttr = &syscall.SysProcAttr{Setsid: true}
	if err := cmd.Start(); err != nil {
		return &ToolError{Tool: name, Args: args, Err: err}
	}
	// Reap in the background so the child never lingers as a zombie.
	go func() { _ = cmd.Wait() }()
	return nil
}

// LookPath resolves name against PATH.
func (r *ExecRunner) LookPath(name string) (string, error) {
	return exec.LookPath(name)
}

// Output returns the trimmed output of a failed command, if it carries any.
func Output(err error) string {
	var te *ToolError
	if errors.As(err, &te) {
		return te.Output
	}
	return ""
}
