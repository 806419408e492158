package cli

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/term"
)

var ErrNotConfirmed = errors.New("not confirmed")

// isTerminal is replaced in tests.
var isTerminal = func(in io.Reader) bool {
	f, ok := in.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

// Confirm asks a yes/no question on an interactive terminal. Without a
// terminal it refuses, so destructive commands need an explicit flag there.
func Confirm(in io.Reader, out io.Writer, prompt string) error {
	if !isTerminal(in) {
		return fmt.Errorf("%w: no terminal to confirm on, pass --yes", ErrNotConfirmed)
	}
	fmt.Fprintf(out, "%s [y/N]: ", prompt)

	line, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && !(errors.Is(err, io.EOF) && line != "") {
		return fmt.Errorf("%w: %v", ErrNotConfirmed, err)
	}
	switch strings.ToLower(strings.TrimSpace(line)) {
	case "y", "yes":
		return nil
	default:
		return ErrNotConfirmed
	}
}
