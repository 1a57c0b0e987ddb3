package uninstall

import (
	"errors"
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/learningequality/kolibri-setup/pkg/command"
	"github.com/learningequality/kolibri-setup/pkg/config"
	"github.com/learningequality/kolibri-setup/pkg/store"
)

type fakePrompter struct {
	answer   bool
	confirms int
}

func (f *fakePrompter) Confirm(title, message string) bool {
	f.confirms++
	return f.answer
}

func (f *fakePrompter) Alert(title, message string) {}

type fakeRunner struct {
	scStopExit   int
	scDeleteExit int
	taskkillExit int
	calls        []string
}

func (f *fakeRunner) Run(path string, args []string, workingDir string) (command.Result, error) {
	f.calls = append(f.calls, strings.Join(args, " "))
	switch {
	case path == command.ScPath && args[0] == "stop":
		return command.Result{Launched: true, ExitCode: f.scStopExit}, nil
	case path == command.ScPath && args[0] == "delete":
		return command.Result{Launched: true, ExitCode: f.scDeleteExit}, nil
	case path == command.TaskkillPath:
		return command.Result{Launched: true, ExitCode: f.taskkillExit}, nil
	}
	return command.Result{Launched: true, ExitCode: 0}, nil
}

func newOrchestrator(r command.Runner, p *fakePrompter, unattended bool) (*Orchestrator, *store.MemStore, *store.MemStore) {
	setup := store.NewMemStore()
	autostart := store.NewMemStore()
	o := &Orchestrator{
		Runner:      r,
		Prompter:    p,
		Setup:       setup,
		Autostart:   autostart,
		Unattended:  unattended,
		ServiceName: "Kolibri",
		UIImageName: "Kolibri.exe",
		DataDir:     `C:\ProgramData\Kolibri`,
	}
	return o, setup, autostart
}

func TestPromptRetentionDefaultsToKeep(t *testing.T) {
	p := &fakePrompter{answer: false}
	o, _, _ := newOrchestrator(&fakeRunner{}, p, false)
	assert.Equal(t, KeepData, o.PromptRetention())
	assert.Equal(t, 1, p.confirms, "the retention question is asked exactly once")
}

func TestPromptRetentionUnattendedNeverPrompts(t *testing.T) {
	p := &fakePrompter{answer: true}
	o, _, _ := newOrchestrator(&fakeRunner{}, p, true)
	assert.Equal(t, KeepData, o.PromptRetention(), "unattended uninstall keeps data")
	assert.Zero(t, p.confirms)
}

func TestRunToleratesAbsentServiceAndProcess(t *testing.T) {
	f := &fakeRunner{scStopExit: 1060, scDeleteExit: 1060, taskkillExit: 128}
	o, setup, autostart := newOrchestrator(f, &fakePrompter{}, true)
	require.NoError(t, setup.Set(config.VersionValueName, "1.0.0"))
	require.NoError(t, autostart.Set(config.TrayRunValueName, "cmd"))

	require.NoError(t, o.Run())

	_, ok, _ := setup.Get(config.VersionValueName)
	assert.False(t, ok, "recorded version must be cleared")
	_, ok, _ = autostart.Get(config.TrayRunValueName)
	assert.False(t, ok, "autostart entry must be cleared")
}

func TestRunFailsOnUnexpectedRemoveCode(t *testing.T) {
	f := &fakeRunner{scDeleteExit: 5}
	o, _, _ := newOrchestrator(f, &fakePrompter{}, true)
	err := o.Run()
	require.Error(t, err)
	var exitErr *command.ExitError
	assert.ErrorAs(t, err, &exitErr)
}

func TestRunFailsOnUnexpectedKillCode(t *testing.T) {
	f := &fakeRunner{taskkillExit: 1}
	o, _, _ := newOrchestrator(f, &fakePrompter{}, true)
	assert.Error(t, o.Run())
}

func TestCleanupDataKeepLeavesDirectoryAlone(t *testing.T) {
	removed := false
	orig := removeAll
	removeAll = func(path string) error {
		removed = true
		return nil
	}
	defer func() { removeAll = orig }()

	o, _, _ := newOrchestrator(&fakeRunner{}, &fakePrompter{}, true)
	o.CleanupData(KeepData)
	assert.False(t, removed, "keep choice must leave the data directory untouched")
}

func TestCleanupDataDeleteRemovesDirectory(t *testing.T) {
	var removedPath string
	orig := removeAll
	removeAll = func(path string) error {
		removedPath = path
		return nil
	}
	defer func() { removeAll = orig }()

	o, _, _ := newOrchestrator(&fakeRunner{}, &fakePrompter{}, true)
	o.CleanupData(DeleteData)
	assert.Equal(t, o.DataDir, removedPath)
}

func TestCleanupDataFailureIsWarningOnly(t *testing.T) {
	orig := removeAll
	removeAll = func(path string) error {
		return &os.PathError{Op: "remove", Path: path, Err: errors.New("file in use")}
	}
	defer func() { removeAll = orig }()

	o, _, _ := newOrchestrator(&fakeRunner{}, &fakePrompter{}, true)
	// CleanupData never returns an error: a locked directory is user-fixable
	// and must not fail the uninstall.
	o.CleanupData(DeleteData)
}
