// pkg/decision/decision.go - the single gate deciding whether installation
// may proceed.
//
// The engine compares the incoming package version against the version
// recorded by a previous run. A downgrade is always refused; a repair or
// upgrade asks for confirmation in interactive mode and proceeds by default
// in unattended mode. No mutation happens anywhere in the installer until
// this gate has passed.

package decision

import (
	"errors"
	"fmt"

	"github.com/learningequality/kolibri-setup/pkg/config"
	"github.com/learningequality/kolibri-setup/pkg/dialog"
	"github.com/learningequality/kolibri-setup/pkg/logging"
	"github.com/learningequality/kolibri-setup/pkg/store"
	"github.com/learningequality/kolibri-setup/pkg/version"
)

// Action is the install path chosen for this run.
type Action int

const (
	Fresh Action = iota
	Repair
	Upgrade
	RejectDowngrade
)

func (a Action) String() string {
	switch a {
	case Fresh:
		return "fresh"
	case Repair:
		return "repair"
	case Upgrade:
		return "upgrade"
	case RejectDowngrade:
		return "reject-downgrade"
	default:
		return "unknown"
	}
}

// Decision is computed once per installer run and never mutated.
type Decision struct {
	Action    Action
	Installed string // recorded version, empty for a fresh install
	Incoming  string
}

// ErrDowngrade is returned when the recorded version is newer than the
// incoming package. This is fatal by design and never offered as a choice.
var ErrDowngrade = errors.New("installed version is newer than the incoming package")

// ErrDeclined is returned when the user answers no to a repair or upgrade
// confirmation.
var ErrDeclined = errors.New("installation declined by user")

// Engine decides whether the installer run may proceed.
type Engine struct {
	Store      store.Store
	Prompter   dialog.Prompter
	Unattended bool
}

// Evaluate classifies the run without prompting. Both version strings must
// parse; a parse failure on either side is a hard error, not a fallback to
// string comparison.
func (e *Engine) Evaluate(incoming string) (Decision, error) {
	installed, ok, err := e.Store.Get(config.VersionValueName)
	if err != nil {
		return Decision{}, fmt.Errorf("failed to read recorded version: %w", err)
	}
	if !ok || installed == "" {
		logging.Info("No recorded version, treating as fresh install", "incoming", incoming)
		if _, err := version.Parse(incoming); err != nil {
			return Decision{}, err
		}
		return Decision{Action: Fresh, Incoming: incoming}, nil
	}

	cmp, err := version.CompareStrings(incoming, installed)
	if err != nil {
		return Decision{}, err
	}

	d := Decision{Installed: installed, Incoming: incoming}
	switch {
	case cmp < 0:
		d.Action = RejectDowngrade
	case cmp == 0:
		d.Action = Repair
	default:
		d.Action = Upgrade
	}
	logging.Info("Install decision computed", "action", d.Action, "installed", installed, "incoming", incoming)
	return d, nil
}

// Authorize enforces the decision's confirmation rules. RejectDowngrade
// always refuses; Repair and Upgrade ask in interactive mode and proceed in
// unattended mode; Fresh proceeds silently.
func (e *Engine) Authorize(d Decision) error {
	switch d.Action {
	case RejectDowngrade:
		msg := fmt.Sprintf("A newer version of Kolibri (%s) is already installed. Setup cannot downgrade to %s.", d.Installed, d.Incoming)
		logging.Error("Refusing downgrade", "installed", d.Installed, "incoming", d.Incoming)
		if !e.Unattended {
			e.Prompter.Alert("Kolibri Setup", msg)
		}
		return fmt.Errorf("%w: %s -> %s", ErrDowngrade, d.Installed, d.Incoming)

	case Repair:
		if e.Unattended {
			return nil
		}
		msg := fmt.Sprintf("Kolibri %s is already installed. Do you want to repair this installation?", d.Installed)
		if !e.Prompter.Confirm("Kolibri Setup", msg) {
			return ErrDeclined
		}
		return nil

	case Upgrade:
		if e.Unattended {
			return nil
		}
		msg := fmt.Sprintf("Kolibri %s is installed. Do you want to upgrade to %s?", d.Installed, d.Incoming)
		if !e.Prompter.Confirm("Kolibri Setup", msg) {
			return ErrDeclined
		}
		return nil

	default: // Fresh
		return nil
	}
}

// Decide evaluates and authorizes in one step.
func (e *Engine) Decide(incoming string) (Decision, error) {
	d, err := e.Evaluate(incoming)
	if err != nil {
		return Decision{}, err
	}
	if err := e.Authorize(d); err != nil {
		return d, err
	}
	return d, nil
}
