package display

import (
	"bytes"
	"errors"
	"fmt"
	"os/exec"
	"strings"

	"github.com/bnema/wayrot/internal/logger"
)

// Runner runs an external tool to completion and returns its stdout.
type Runner interface {
	Run(name string, args ...string) ([]byte, error)
}

// ToolError describes an external tool that could not be started or
// exited unsuccessfully.
type ToolError struct {
	Command  string
	Args     []string
	ExitCode int
	Stderr   string
	Err      error
}

func (e *ToolError) Error() string {
	cmdline := strings.Join(append([]string{e.Command}, e.Args...), " ")
	if e.Stderr != "" {
		return fmt.Sprintf("%s: %v: %s", cmdline, e.Err, e.Stderr)
	}
	return fmt.Sprintf("%s: %v", cmdline, e.Err)
}

func (e *ToolError) Unwrap() error {
	return e.Err
}

// ExecRunner runs tools with os/exec.
type ExecRunner struct{}

// Run runs name with args and waits for it to exit.
func (ExecRunner) Run(name string, args ...string) ([]byte, error) {
	logger.Debugf("Running %s %s", name, strings.Join(args, " "))

	cmd := exec.Command(name, args...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	out, err := cmd.Output()
	if err != nil {
		toolErr := &ToolError{
			Command:  name,
			Args:     args,
			ExitCode: -1,
			Stderr:   strings.TrimSpace(stderr.String()),
			Err:      err,
		}
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			toolErr.ExitCode = exitErr.ExitCode()
		}
		return out, toolErr
	}
	return out, nil
}
