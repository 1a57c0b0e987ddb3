// pkg/preflight/preflight.go - best-effort cleanup before file staging.
//
// Runs after the install decision has passed and immediately before the host
// installer overwrites files. Both steps are best-effort: "not running" is an
// expected outcome that cannot be distinguished up front from "failed to
// stop", so no exit code here ever aborts the run. Only a spawn failure of
// the system tools themselves is fatal.

package preflight

import (
	"strings"

	"github.com/shirou/gopsutil/v3/process"

	"github.com/learningequality/kolibri-setup/pkg/command"
	"github.com/learningequality/kolibri-setup/pkg/logging"
)

// taskkill exits with 128 when no process matches the image name.
const taskkillNoProcess = 128

// Cleanup stops any running instance of the Kolibri service and UI before
// files are overwritten.
type Cleanup struct {
	Runner      command.Runner
	ServiceName string
	UIImageName string // e.g. "Kolibri.exe"
}

// Run performs both cleanup steps in order. The returned error is non-nil
// only when a tool could not be launched at all.
func (c *Cleanup) Run() error {
	if err := c.stopService(); err != nil {
		return err
	}
	return c.killUI()
}

// stopService asks the service manager to stop the service. Any exit code is
// informational: on a fresh machine the service does not exist yet.
func (c *Cleanup) stopService() error {
	res, err := c.Runner.Run(command.ScPath, []string{"stop", c.ServiceName}, "")
	if err != nil {
		return err
	}
	if res.ExitCode == 0 {
		logging.Info("Stopped service before staging", "service", c.ServiceName)
	} else {
		logging.Info("Service stop request returned non-zero, continuing", "service", c.ServiceName, "exit_code", res.ExitCode)
	}
	return nil
}

// killUI forcibly terminates any running instance of the UI executable by
// image name. Exit 0 (killed something) and 128 (nothing matched) are both
// expected outcomes.
func (c *Cleanup) killUI() error {
	if isImageRunning(c.UIImageName) {
		logging.Info("UI process is running, terminating before staging", "image", c.UIImageName)
	} else {
		logging.Debug("UI process not detected, issuing kill anyway", "image", c.UIImageName)
	}

	res, err := c.Runner.Run(command.TaskkillPath, []string{"/F", "/IM", c.UIImageName}, "")
	if err != nil {
		return err
	}
	switch res.ExitCode {
	case 0:
		logging.Info("Terminated UI process", "image", c.UIImageName)
	case taskkillNoProcess:
		logging.Info("No running UI process to terminate", "image", c.UIImageName)
	default:
		logging.Warn("Unexpected exit code from taskkill, continuing", "image", c.UIImageName, "exit_code", res.ExitCode)
	}
	return nil
}

// isImageRunning checks the process list for the given executable name.
func isImageRunning(imageName string) bool {
	processes, err := process.Processes()
	if err != nil {
		logging.Error("Failed to get process list", "error", err)
		return false
	}

	want := strings.ToLower(imageName)
	for _, proc := range processes {
		name, err := proc.Name()
		if err != nil {
			continue
		}
		if strings.ToLower(name) == want {
			return true
		}
	}
	return false
}
