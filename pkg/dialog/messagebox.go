// pkg/dialog/messagebox.go - MessageBox-backed prompts.

package dialog

import (
	"github.com/gonutz/w32"
)

// MessageBoxPrompter shows native Windows message boxes. This is the default
// Prompter when the installer drives the setup core interactively.
type MessageBoxPrompter struct{}

func (MessageBoxPrompter) Confirm(title, message string) bool {
	ret := w32.MessageBox(0, message, title, w32.MB_YESNO|w32.MB_ICONQUESTION)
	return ret == w32.IDYES
}

func (MessageBoxPrompter) Alert(title, message string) {
	w32.MessageBox(0, message, title, w32.MB_OK|w32.MB_ICONERROR)
}
