// pkg/service/service.go - idempotent lifecycle management of the Kolibri
// background service.
//
// The service is managed through nssm.exe, which the installer stages next
// to the application binaries. There is no durable record of "already
// configured by us": Apply probes the live OS state and then pushes the full
// desired Spec every time, so re-running with the same Spec converges to the
// same end state whether the service was absent, stale, or already correct.

package service

import (
	"fmt"
	"strings"

	"github.com/learningequality/kolibri-setup/pkg/command"
	"github.com/learningequality/kolibri-setup/pkg/config"
	"github.com/learningequality/kolibri-setup/pkg/logging"
	"github.com/learningequality/kolibri-setup/pkg/store"
)

// Builtin Users group by SID, so ACL grants work on localized systems.
const usersGroupSID = "*S-1-5-32-545"

// Spec is the desired end state of the background service. It is recomputed
// fresh from configuration each run and never read back from the OS.
type Spec struct {
	Name             string
	ExecutablePath   string
	Arguments        []string
	WorkingDirectory string
	Account          string
	Description      string
	DataDir          string
}

// Manager creates or updates the service definition and keeps the tray
// autostart registration in step with it.
type Manager struct {
	Runner      command.Runner
	Autostart   store.Store // registry Run key
	NssmPath    string
	TrayCommand string
}

// Exists asks the service manager whether the named service is registered.
// sc query exits 0 when the service exists, in any state.
func (m *Manager) Exists(name string) (bool, error) {
	res, err := m.Runner.Run(command.ScPath, []string{"query", name}, "")
	if err != nil {
		return false, err
	}
	return res.ExitCode == 0, nil
}

// Apply converges the OS service definition to the given Spec. When enabled,
// the service is set to start automatically and started now; when disabled,
// it is stopped (best-effort) and set to disabled. Every step is a fatal
// abort on failure except the best-effort stop.
func (m *Manager) Apply(spec Spec, enabled bool) error {
	exists, err := m.Exists(spec.Name)
	if err != nil {
		return err
	}

	if exists {
		logging.Info("Service exists, updating definition", "service", spec.Name)
		if err := m.update(spec); err != nil {
			return err
		}
	} else {
		logging.Info("Service not found, installing", "service", spec.Name)
		if err := m.install(spec); err != nil {
			return err
		}
	}

	if err := m.configure(spec); err != nil {
		return err
	}

	if enabled {
		if err := m.enable(spec); err != nil {
			return err
		}
	} else {
		if err := m.disable(spec); err != nil {
			return err
		}
	}

	return m.applyAutostart(enabled)
}

// install registers a new service with path and arguments in a single call.
func (m *Manager) install(spec Spec) error {
	args := append([]string{"install", spec.Name, spec.ExecutablePath}, spec.Arguments...)
	return m.nssm(args, "install service")
}

// update pushes executable path, arguments, and working directory onto an
// existing definition, preserving any service metadata not managed here.
func (m *Manager) update(spec Spec) error {
	if err := m.nssm([]string{"set", spec.Name, "Application", spec.ExecutablePath}, "set service executable"); err != nil {
		return err
	}
	if err := m.nssm([]string{"set", spec.Name, "AppParameters", strings.Join(spec.Arguments, " ")}, "set service arguments"); err != nil {
		return err
	}
	return m.nssm([]string{"set", spec.Name, "AppDirectory", spec.WorkingDirectory}, "set service working directory")
}

// configure applies the common settings unconditionally, in a fixed order:
// run-as account, data directory grants for the service account, grants for
// general users, description.
func (m *Manager) configure(spec Spec) error {
	if err := m.nssm([]string{"set", spec.Name, "ObjectName", spec.Account}, "set service account"); err != nil {
		return err
	}

	if err := m.grantModify(spec.DataDir, spec.Account); err != nil {
		return err
	}
	if err := m.grantModify(spec.DataDir, usersGroupSID); err != nil {
		return err
	}

	return m.nssm([]string{"set", spec.Name, "Description", spec.Description}, "set service description")
}

func (m *Manager) enable(spec Spec) error {
	if err := m.nssm([]string{"set", spec.Name, "Start", "SERVICE_AUTO_START"}, "set automatic start"); err != nil {
		return err
	}
	return m.nssm([]string{"start", spec.Name}, "start service")
}

// disable first attempts a best-effort stop in case the service is still
// running from a previous configuration, then applies the disabled start
// type. The stop outcome is diagnostic only.
func (m *Manager) disable(spec Spec) error {
	res, err := m.Runner.Run(m.NssmPath, []string{"stop", spec.Name}, "")
	if err != nil {
		return err
	}
	if res.ExitCode != 0 {
		logging.Info("Service stop before disable returned non-zero", "service", spec.Name, "exit_code", res.ExitCode)
	}
	return m.nssm([]string{"set", spec.Name, "Start", "SERVICE_DISABLED"}, "set disabled start")
}

// applyAutostart sets or clears the tray autostart registration to match the
// service selection. Set and delete are both idempotent.
func (m *Manager) applyAutostart(enabled bool) error {
	if enabled {
		if err := m.Autostart.Set(config.TrayRunValueName, m.TrayCommand); err != nil {
			return fmt.Errorf("failed to register tray autostart: %w", err)
		}
		logging.Info("Registered tray autostart", "command", m.TrayCommand)
		return nil
	}
	if err := m.Autostart.Delete(config.TrayRunValueName); err != nil {
		return fmt.Errorf("failed to remove tray autostart: %w", err)
	}
	logging.Info("Removed tray autostart registration")
	return nil
}

// grantModify grants recursive modify permission on a directory tree.
func (m *Manager) grantModify(dir, account string) error {
	grant := fmt.Sprintf("%s:(OI)(CI)M", account)
	desc := fmt.Sprintf("grant modify on %s to %s", dir, account)
	return command.RunChecked(m.Runner, command.IcaclsPath, []string{dir, "/grant", grant, "/T"}, "", desc)
}

func (m *Manager) nssm(args []string, description string) error {
	return command.RunChecked(m.Runner, m.NssmPath, args, "", description)
}
