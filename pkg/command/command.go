// pkg/command/command.go - checked external command execution.
//
// Every mutating operation in the setup core goes through a Runner. The
// exec-backed implementation hides the console window, captures output, and
// logs target, arguments, and outcome around each invocation. Callers that
// tolerate specific exit codes use Run and interpret the code themselves;
// everything else goes through RunChecked.

package command

import (
	"bytes"
	"errors"
	"fmt"
	"os/exec"
	"runtime"
	"strings"
	"syscall"

	"github.com/learningequality/kolibri-setup/pkg/logging"
)

// Result is the classified outcome of a single command invocation.
// ExitCode is only meaningful when Launched is true.
type Result struct {
	Launched bool
	ExitCode int
}

// ErrLaunch marks an OS-level spawn failure: the command never started.
// This class is always fatal to the installer run.
var ErrLaunch = errors.New("command could not be started")

// ExitError is returned by RunChecked when a command launched but exited
// with an unexpected non-zero code.
type ExitError struct {
	Path        string
	Description string
	Code        int
}

func (e *ExitError) Error() string {
	return fmt.Sprintf("%s failed: %s exited with code %d", e.Description, e.Path, e.Code)
}

// Runner launches an external process and blocks until it exits.
type Runner interface {
	Run(path string, args []string, workingDir string) (Result, error)
}

// ExecRunner is the production Runner backed by os/exec.
type ExecRunner struct{}

// Run executes the command synchronously. A non-zero exit code is data, not
// an error: the returned error is non-nil only when the process could not be
// started at all.
func (ExecRunner) Run(path string, args []string, workingDir string) (Result, error) {
	logging.Info("Executing command", "path", path, "args", strings.Join(args, " "), "dir", workingDir)

	cmd := exec.Command(path, args...)
	cmd.Dir = workingDir
	hideConsoleWindow(cmd)

	var out bytes.Buffer
	var stderr bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &stderr

	err := cmd.Run()
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			code := exitErr.ExitCode()
			logging.Info("Command exited non-zero", "path", path, "exit_code", code, "stderr", strings.TrimSpace(stderr.String()))
			return Result{Launched: true, ExitCode: code}, nil
		}
		logging.Error("Command failed to start", "path", path, "error", err)
		return Result{}, fmt.Errorf("%w: %s: %v", ErrLaunch, path, err)
	}

	logging.Info("Command completed", "path", path, "exit_code", 0)
	if trimmed := strings.TrimSpace(out.String()); trimmed != "" {
		logging.Debug("Command output", "path", path, "output", trimmed)
	}
	return Result{Launched: true, ExitCode: 0}, nil
}

// hideConsoleWindow keeps spawned tools from flashing a console window.
func hideConsoleWindow(cmd *exec.Cmd) {
	if runtime.GOOS == "windows" {
		cmd.SysProcAttr = &syscall.SysProcAttr{
			HideWindow: true,
		}
	}
}

// RunChecked runs the command and classifies any non-zero exit code as a
// failure. The description names the operation in logs and error messages.
func RunChecked(r Runner, path string, args []string, workingDir, description string) error {
	res, err := r.Run(path, args, workingDir)
	if err != nil {
		return fmt.Errorf("%s: %w", description, err)
	}
	if res.ExitCode != 0 {
		err := &ExitError{Path: path, Description: description, Code: res.ExitCode}
		logging.Error("Checked command failed", "operation", description, "path", path, "exit_code", res.ExitCode)
		return err
	}
	return nil
}
