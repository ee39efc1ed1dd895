package ui

import (
	"bufio"
	"fmt"
	"io"
	"strings"
)

// Confirm writes prompt to out and reads one line from in. Only y or yes
// (any case) counts as consent.
func Confirm(in io.Reader, out io.Writer, prompt string) bool {
	fmt.Fprintf(out, "%s [y/N]: ", StyleWarning.Render(prompt))
	return readYes(in)
}

// ConfirmDanger is Confirm styled for irreversible actions such as signing.
func ConfirmDanger(in io.Reader, out io.Writer, prompt string) bool {
	fmt.Fprintf(out, "%s [y/N]: ", StyleError.Render("⚠ "+prompt))
	return readYes(in)
}

func readYes(in io.Reader) bool {
	line, _ := bufio.NewReader(in).ReadString('\n')
	line = strings.TrimSpace(strings.ToLower(line))
	return line == "y" || line == "yes"
}
