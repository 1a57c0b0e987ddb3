// pkg/command/tools.go - paths of the Windows system tools the core invokes.

package command

import (
	"os"
	"path/filepath"
)

var (
	ScPath       = filepath.Join(windir(), "system32", "sc.exe")
	TaskkillPath = filepath.Join(windir(), "system32", "taskkill.exe")
	IcaclsPath   = filepath.Join(windir(), "system32", "icacls.exe")
)

func windir() string {
	if dir := os.Getenv("WINDIR"); dir != "" {
		return dir
	}
	return `C:\Windows`
}
