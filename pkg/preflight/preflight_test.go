package preflight

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/learningequality/kolibri-setup/pkg/command"
)

// fakeRunner returns scripted exit codes per tool.
type fakeRunner struct {
	scExit       int
	taskkillExit int
	launchFail   bool
	calls        []string
}

func (f *fakeRunner) Run(path string, args []string, workingDir string) (command.Result, error) {
	f.calls = append(f.calls, strings.Join(args, " "))
	if f.launchFail {
		return command.Result{}, fmt.Errorf("%w: %s", command.ErrLaunch, path)
	}
	switch path {
	case command.ScPath:
		return command.Result{Launched: true, ExitCode: f.scExit}, nil
	case command.TaskkillPath:
		return command.Result{Launched: true, ExitCode: f.taskkillExit}, nil
	}
	return command.Result{Launched: true, ExitCode: 0}, nil
}

func newCleanup(f *fakeRunner) *Cleanup {
	return &Cleanup{Runner: f, ServiceName: "Kolibri", UIImageName: "Kolibri.exe"}
}

func TestRunContinuesWhenServiceNotRunning(t *testing.T) {
	f := &fakeRunner{scExit: 1062, taskkillExit: 0} // ERROR_SERVICE_NOT_ACTIVE
	require.NoError(t, newCleanup(f).Run())
	assert.Len(t, f.calls, 2, "both cleanup steps must run")
}

func TestRunContinuesWhenNoProcessMatches(t *testing.T) {
	f := &fakeRunner{scExit: 0, taskkillExit: 128}
	require.NoError(t, newCleanup(f).Run())
}

func TestRunContinuesOnUnexpectedKillCode(t *testing.T) {
	f := &fakeRunner{scExit: 0, taskkillExit: 1}
	require.NoError(t, newCleanup(f).Run(), "unexpected taskkill exit codes are logged, not fatal")
}

func TestRunOrdersStopBeforeKill(t *testing.T) {
	f := &fakeRunner{}
	require.NoError(t, newCleanup(f).Run())
	require.Len(t, f.calls, 2)
	assert.Equal(t, "stop Kolibri", f.calls[0])
	assert.Equal(t, "/F /IM Kolibri.exe", f.calls[1])
}

func TestRunAbortsOnLaunchFailure(t *testing.T) {
	f := &fakeRunner{launchFail: true}
	err := newCleanup(f).Run()
	assert.ErrorIs(t, err, command.ErrLaunch)
}
