package system

import (
	"bytes"
	"context"
	"errors"
	"os/exec"
	"strings"

	"spectrum-keeper/internal/logger"
)

/**
 * Runner abstracts external command execution so installer components can be
 * driven against a fake package manager / init system in tests.
 */
type Runner interface {
	// Run executes name with args and returns combined output.
	Run(ctx context.Context, name string, args ...string) (string, error)
	// LookPath reports the absolute path of an executable, or an error.
	LookPath(name string) (string, error)
}

// ExecRunner runs commands on the real host.
type ExecRunner struct{}

func NewExecRunner() *ExecRunner {
	return &ExecRunner{}
}

func (r *ExecRunner) Run(ctx context.Context, name string, args ...string) (string, error) {
	logger.Debugf("exec: %s %s", name, strings.Join(args, " "))
	cmd := exec.CommandContext(ctx, name, args...)
	var buf bytes.Buffer
	cmd.Stdout = &buf
	cmd.Stderr = &buf
	err := cmd.Run()
	return buf.String(), err
}

func (r *ExecRunner) LookPath(name string) (string, error) {
	return exec.LookPath(name)
}

// ExitCode extracts the process exit code from a Run error.
// Returns 0 for nil and -1 when the command never ran.
func ExitCode(err error) int {
	if err == nil {
		return 0
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return exitErr.ExitCode()
	}
	return -1
}
