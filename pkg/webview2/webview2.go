// pkg/webview2/webview2.go - probe for the Microsoft Edge WebView2 runtime.
//
// The setup core only answers two questions: is the runtime already present,
// and does this OS generation support installing it at all. Actually running
// the Evergreen bootstrapper is the host installer's job, gated on
// !IsPresent() && ShouldInstall().

package webview2

import (
	"strconv"
	"strings"

	"github.com/yusufpapurcu/wmi"
	"golang.org/x/sys/windows/registry"

	"github.com/learningequality/kolibri-setup/pkg/logging"
)

// Microsoft's official identifier for the WebView2 Runtime, used for
// registry checks.
// https://learn.microsoft.com/en-us/microsoft-edge/webview2/concepts/distribution
const runtimeGUID = "{F3017226-FE2A-4295-8BDF-00C3A9A7E4C5}"

const (
	machineKeyPath = `SOFTWARE\WOW6432Node\Microsoft\EdgeUpdate\Clients\` + runtimeGUID
	userKeyPath    = `Software\Microsoft\EdgeUpdate\Clients\` + runtimeGUID
)

// IsPresent reports whether the WebView2 runtime is installed, checking the
// machine-wide location first and the per-user location second. Presence in
// either is sufficient.
func IsPresent() bool {
	checks := []struct {
		root registry.Key
		path string
	}{
		{registry.LOCAL_MACHINE, machineKeyPath},
		{registry.CURRENT_USER, userKeyPath},
	}

	for _, c := range checks {
		if hasRuntimeVersion(c.root, c.path) {
			logging.Debug("WebView2 runtime found", "path", c.path)
			return true
		}
	}
	logging.Info("WebView2 runtime not found")
	return false
}

func hasRuntimeVersion(root registry.Key, path string) bool {
	k, err := registry.OpenKey(root, path, registry.QUERY_VALUE)
	if err != nil {
		return false
	}
	defer k.Close()

	pv, _, err := k.GetStringValue("pv")
	if err != nil {
		return false
	}
	// A zero version value is written by broken uninstalls and does not
	// count as installed.
	return pv != "" && pv != "0.0.0.0"
}

// Win32_OperatingSystem is the WMI class carrying the OS version string.
type Win32_OperatingSystem struct {
	Version string
}

// ShouldInstall reports whether the WebView2 Evergreen installer supports
// this OS generation. The bootstrapper requires Windows 10 or newer; on
// anything older the host installer skips the runtime entirely.
func ShouldInstall() bool {
	var oss []Win32_OperatingSystem
	if err := wmi.Query("SELECT Version FROM Win32_OperatingSystem", &oss); err != nil || len(oss) == 0 {
		logging.Warn("Failed to query OS version, assuming modern Windows", "error", err)
		return true
	}
	return isModernWindows(oss[0].Version)
}

// isModernWindows reports whether a Win32_OperatingSystem version string
// (e.g. "10.0.19045") denotes Windows 10 or newer.
func isModernWindows(osVersion string) bool {
	parts := strings.SplitN(osVersion, ".", 2)
	major, err := strconv.Atoi(parts[0])
	if err != nil {
		return true
	}
	return major >= 10
}
