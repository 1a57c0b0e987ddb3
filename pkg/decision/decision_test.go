package decision

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/learningequality/kolibri-setup/pkg/config"
	"github.com/learningequality/kolibri-setup/pkg/store"
	"github.com/learningequality/kolibri-setup/pkg/version"
)

// fakePrompter answers every confirmation with a fixed reply and records
// that it was asked.
type fakePrompter struct {
	answer    bool
	confirms  int
	alerts    int
	lastAlert string
}

func (f *fakePrompter) Confirm(title, message string) bool {
	f.confirms++
	return f.answer
}

func (f *fakePrompter) Alert(title, message string) {
	f.alerts++
	f.lastAlert = message
}

func engineWith(t *testing.T, installed string, answer bool, unattended bool) (*Engine, *fakePrompter, *store.MemStore) {
	t.Helper()
	s := store.NewMemStore()
	if installed != "" {
		require.NoError(t, s.Set(config.VersionValueName, installed))
	}
	p := &fakePrompter{answer: answer}
	return &Engine{Store: s, Prompter: p, Unattended: unattended}, p, s
}

func TestFreshInstallProceedsSilently(t *testing.T) {
	e, p, _ := engineWith(t, "", false, false)
	d, err := e.Decide("2.0.0")
	require.NoError(t, err)
	assert.Equal(t, Fresh, d.Action)
	assert.Zero(t, p.confirms, "fresh install must not prompt")
}

func TestDowngradeIsAlwaysRefused(t *testing.T) {
	e, p, _ := engineWith(t, "2.0.0", true, false)
	_, err := e.Decide("1.9.0")
	require.ErrorIs(t, err, ErrDowngrade)
	assert.Zero(t, p.confirms, "downgrade is never offered as a choice")
	assert.Equal(t, 1, p.alerts)
}

func TestDowngradeRefusedUnattendedWithoutDialog(t *testing.T) {
	e, p, _ := engineWith(t, "2.0.0", true, true)
	_, err := e.Decide("1.9.0")
	require.ErrorIs(t, err, ErrDowngrade)
	assert.Zero(t, p.alerts, "unattended mode suppresses dialogs")
}

func TestRepairRequiresConfirmation(t *testing.T) {
	e, p, _ := engineWith(t, "2.0.0", true, false)
	d, err := e.Decide("2.0.0")
	require.NoError(t, err)
	assert.Equal(t, Repair, d.Action)
	assert.Equal(t, 1, p.confirms)
}

func TestRepairDeclinedAborts(t *testing.T) {
	e, _, _ := engineWith(t, "2.0.0", false, false)
	_, err := e.Decide("2.0.0")
	assert.ErrorIs(t, err, ErrDeclined)
}

func TestRepairProceedsUnattended(t *testing.T) {
	e, p, _ := engineWith(t, "2.0.0", false, true)
	d, err := e.Decide("2.0.0")
	require.NoError(t, err)
	assert.Equal(t, Repair, d.Action)
	assert.Zero(t, p.confirms)
}

func TestUpgradeRequiresConfirmation(t *testing.T) {
	e, p, _ := engineWith(t, "1.0.0", true, false)
	d, err := e.Decide("2.0.0")
	require.NoError(t, err)
	assert.Equal(t, Upgrade, d.Action)
	assert.Equal(t, 1, p.confirms)
	assert.Equal(t, "1.0.0", d.Installed)
	assert.Equal(t, "2.0.0", d.Incoming)
}

func TestUpgradeProceedsUnattended(t *testing.T) {
	e, _, _ := engineWith(t, "1.0.0", false, true)
	d, err := e.Decide("2.0.0")
	require.NoError(t, err)
	assert.Equal(t, Upgrade, d.Action)
}

func TestRecordedVersionParseFailureIsFatal(t *testing.T) {
	e, _, _ := engineWith(t, "garbage", true, false)
	_, err := e.Decide("2.0.0")
	require.Error(t, err)
	var perr *version.ParseError
	assert.ErrorAs(t, err, &perr)
}

func TestIncomingVersionParseFailureIsFatal(t *testing.T) {
	e, _, _ := engineWith(t, "", true, false)
	_, err := e.Decide("1.x")
	require.Error(t, err)
	var perr *version.ParseError
	assert.ErrorAs(t, err, &perr)
}
