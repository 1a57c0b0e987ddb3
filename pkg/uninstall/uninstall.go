// pkg/uninstall/uninstall.go - service teardown and data-retention handling
// on uninstall.
//
// The retention choice is captured once at uninstall start and threaded
// through to the final cleanup step as an explicit value. The default before
// any prompt is to keep data: a crash or forced termination before the
// prompt must never destroy a user's content.

package uninstall

import (
	"os"

	"github.com/learningequality/kolibri-setup/pkg/command"
	"github.com/learningequality/kolibri-setup/pkg/config"
	"github.com/learningequality/kolibri-setup/pkg/dialog"
	"github.com/learningequality/kolibri-setup/pkg/logging"
	"github.com/learningequality/kolibri-setup/pkg/store"
)

// RetentionChoice is the user's decision about persisted data.
type RetentionChoice int

const (
	KeepData RetentionChoice = iota
	DeleteData
)

// Exit codes tolerated as "already absent" outcomes.
const (
	serviceDoesNotExist = 1060 // sc delete: ERROR_SERVICE_DOES_NOT_EXIST
	taskkillNoProcess   = 128  // taskkill: no process matched the image name
)

// removeAll is abstracted for testing
var removeAll = os.RemoveAll

// Orchestrator reverses the installed state: stops and removes the service,
// kills the UI, clears the recorded version and autostart entries, and
// optionally destroys the data directory.
type Orchestrator struct {
	Runner      command.Runner
	Prompter    dialog.Prompter
	Setup       store.Store // installed version record
	Autostart   store.Store // tray Run entry
	Unattended  bool
	ServiceName string
	UIImageName string
	DataDir     string
}

// PromptRetention asks the user once whether to delete persisted data.
// Unattended runs never prompt and always keep data.
func (o *Orchestrator) PromptRetention() RetentionChoice {
	if o.Unattended {
		logging.Info("Unattended uninstall, keeping user data")
		return KeepData
	}
	msg := "Do you want to delete all Kolibri data (channels, content, and user accounts)?\n\nSelect No to keep the data for a future installation."
	if o.Prompter.Confirm("Uninstall Kolibri", msg) {
		logging.Info("User chose to delete Kolibri data")
		return DeleteData
	}
	logging.Info("User chose to keep Kolibri data")
	return KeepData
}

// Run executes the fixed uninstall command sequence: stop service, remove
// service definition, kill UI process, clear persisted entries. The stop is
// informational; removal and kill tolerate only "already absent" outcomes.
func (o *Orchestrator) Run() error {
	if err := o.stopService(); err != nil {
		return err
	}
	if err := o.removeService(); err != nil {
		return err
	}
	if err := o.killUI(); err != nil {
		return err
	}

	if err := o.Setup.Delete(config.VersionValueName); err != nil {
		return err
	}
	if err := o.Autostart.Delete(config.TrayRunValueName); err != nil {
		return err
	}
	logging.Info("Cleared recorded version and autostart entries")
	return nil
}

func (o *Orchestrator) stopService() error {
	res, err := o.Runner.Run(command.ScPath, []string{"stop", o.ServiceName}, "")
	if err != nil {
		return err
	}
	if res.ExitCode != 0 {
		logging.Info("Service stop returned non-zero, continuing", "service", o.ServiceName, "exit_code", res.ExitCode)
	}
	return nil
}

func (o *Orchestrator) removeService() error {
	res, err := o.Runner.Run(command.ScPath, []string{"delete", o.ServiceName}, "")
	if err != nil {
		return err
	}
	switch res.ExitCode {
	case 0:
		logging.Info("Removed service definition", "service", o.ServiceName)
	case serviceDoesNotExist:
		logging.Info("Service already absent", "service", o.ServiceName)
	default:
		logging.Error("Failed to remove service", "service", o.ServiceName, "exit_code", res.ExitCode)
		return &command.ExitError{Path: command.ScPath, Description: "remove service", Code: res.ExitCode}
	}
	return nil
}

func (o *Orchestrator) killUI() error {
	res, err := o.Runner.Run(command.TaskkillPath, []string{"/F", "/IM", o.UIImageName}, "")
	if err != nil {
		return err
	}
	switch res.ExitCode {
	case 0:
		logging.Info("Terminated UI process", "image", o.UIImageName)
	case taskkillNoProcess:
		logging.Info("No running UI process", "image", o.UIImageName)
	default:
		logging.Error("Failed to terminate UI process", "image", o.UIImageName, "exit_code", res.ExitCode)
		return &command.ExitError{Path: command.TaskkillPath, Description: "terminate UI process", Code: res.ExitCode}
	}
	return nil
}

// CleanupData runs at the final uninstall phase, after installed files are
// gone. Deletion failure is a warning only: a locked directory is a
// recoverable, user-fixable condition, and uninstallation still reports
// success.
func (o *Orchestrator) CleanupData(choice RetentionChoice) {
	if choice != DeleteData {
		logging.Info("Keeping Kolibri data directory", "path", o.DataDir)
		return
	}
	if err := removeAll(o.DataDir); err != nil {
		logging.Warn("Failed to fully delete data directory, it may be in use", "path", o.DataDir, "error", err)
		return
	}
	logging.Info("Deleted Kolibri data directory", "path", o.DataDir)
}
