package km3db

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"golang.org/x/term"
)

// PromptFunc asks the user for a username/password pair.
type PromptFunc func() (username, password string, err error)

// TerminalPrompt reads the username from stdin and the password with
// terminal echo disabled. It is the last-resort credential source.
func TerminalPrompt() (string, string, error) {
	fmt.Fprint(os.Stderr, "Please enter your KM3NeT DB username: ")
	line, err := bufio.NewReader(os.Stdin).ReadString('\n')
	if err != nil {
		return "", "", fmt.Errorf("read username: %w", err)
	}
	username := strings.TrimSpace(line)

	fmt.Fprint(os.Stderr, "Password: ")
	password, err := term.ReadPassword(int(os.Stdin.Fd()))
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return "", "", fmt.Errorf("read password: %w", err)
	}
	return username, string(password), nil
}
