package webview2

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsModernWindows(t *testing.T) {
	cases := map[string]bool{
		"10.0.19045": true,
		"10.0.22631": true,
		"11.0.1":     true,
		"6.1.7601":   false, // Windows 7
		"6.3.9600":   false, // Windows 8.1
	}
	for osVersion, want := range cases {
		assert.Equal(t, want, isModernWindows(osVersion), "version %s", osVersion)
	}
}

func TestIsModernWindowsUnparsableDefaultsToTrue(t *testing.T) {
	assert.True(t, isModernWindows("unknown"))
}
