// pkg/dialog/dialog.go - user-facing prompts for interactive installer runs.
//
// Prompts only ever appear in interactive mode; unattended runs bypass the
// Prompter entirely and apply the documented defaults at each decision point.

package dialog

import (
	"bufio"
	"fmt"
	"os"
	"strings"
)

// Prompter asks the user blocking yes/no questions and shows acknowledged
// messages.
type Prompter interface {
	// Confirm returns true when the user answers yes.
	Confirm(title, message string) bool
	// Alert shows a message and waits for acknowledgement.
	Alert(title, message string)
}

// ConsolePrompter asks on stdin/stdout, for runs driven from a terminal.
type ConsolePrompter struct{}

func (ConsolePrompter) Confirm(title, message string) bool {
	fmt.Printf("%s\n%s [y/N]: ", title, message)
	reader := bufio.NewReader(os.Stdin)
	answer, err := reader.ReadString('\n')
	if err != nil {
		return false
	}
	answer = strings.ToLower(strings.TrimSpace(answer))
	return answer == "y" || answer == "yes"
}

func (ConsolePrompter) Alert(title, message string) {
	fmt.Printf("%s\n%s\n", title, message)
}
