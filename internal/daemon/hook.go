package daemon

import (
	"bytes"
	"context"
	"errors"
	"os"
	"os/exec"
	"strings"

	"github.com/bnema/wayrot/internal/display"
)

// Hook runs a user command around a rotation.
type Hook interface {
	Run(ctx context.Context, command string, env []string) error
}

// ShellHook runs commands with sh -c, adding env to the daemon's
// environment. Failures are reported as *display.ToolError.
type ShellHook struct{}

// Run runs command and waits for it to exit.
func (ShellHook) Run(ctx context.Context, command string, env []string) error {
	cmd := exec.CommandContext(ctx, "sh", "-c", command)
	cmd.Env = append(os.Environ(), env...)
	cmd.Stdout = os.Stdout
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		toolErr := &display.ToolError{
			Command:  "sh",
			Args:     []string{"-c", command},
			ExitCode: -1,
			Stderr:   strings.TrimSpace(stderr.String()),
			Err:      err,
		}
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			toolErr.ExitCode = exitErr.ExitCode()
		}
		return toolErr
	}
	return nil
}
