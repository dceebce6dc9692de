// Package interactive provides interactive prompts for user confirmation.
package interactive

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/term"
)

// Response represents the user's response to a prompt.
type Response int

const (
	ResponseYes  Response = iota // Accept
	ResponseNo                   // Decline
	ResponseQuit                 // Abort the install
)

// String returns the string representation of the Response.
func (r Response) String() string {
	switch r {
	case ResponseYes:
		return "yes"
	case ResponseNo:
		return "no"
	case ResponseQuit:
		return "quit"
	default:
		return fmt.Sprintf("Response(%d)", int(r))
	}
}

// Prompter handles interactive prompts.
type Prompter struct {
	out     io.Writer
	scanner *bufio.Scanner
}

// NewPrompter creates a prompter with stdin/stdout.
func NewPrompter() *Prompter {
	return NewPrompterWithIO(os.Stdin, os.Stdout)
}

// NewPrompterWithIO creates a prompter with custom input/output (for testing).
func NewPrompterWithIO(in io.Reader, out io.Writer) *Prompter {
	return &Prompter{
		out:     out,
		scanner: bufio.NewScanner(in),
	}
}

// IsTerminal checks if stdin is a terminal (TTY).
func IsTerminal() bool {
	return term.IsTerminal(int(os.Stdin.Fd()))
}

// IsOutputTerminal checks if stdout is a terminal.
func IsOutputTerminal() bool {
	return term.IsTerminal(int(os.Stdout.Fd()))
}

// prompt displays a question and reads the response. Empty input selects
// def; end of input quits.
func (p *Prompter) prompt(def Response, format string, args ...any) Response {
	_, _ = fmt.Fprintf(p.out, format, args...)
	if def == ResponseYes {
		_, _ = fmt.Fprint(p.out, " [Y/n/q] ")
	} else {
		_, _ = fmt.Fprint(p.out, " [y/N/q] ")
	}

	if !p.scanner.Scan() {
		return ResponseQuit
	}

	input := strings.ToLower(strings.TrimSpace(p.scanner.Text()))
	switch input {
	case "":
		return def
	case "y", "yes":
		return ResponseYes
	case "n", "no":
		return ResponseNo
	case "q", "quit":
		return ResponseQuit
	default:
		_, _ = fmt.Fprintln(p.out, "Invalid response, assuming no.")
		return ResponseNo
	}
}

// OfferBundle asks whether the optional bundled application should be
// installed as well.
func (p *Prompter) OfferBundle(name string) Response {
	_, _ = fmt.Fprintf(p.out, "\n%s can be installed alongside the launcher.\n", name)
	return p.prompt(ResponseNo, "Install %s?", name)
}

// Confirm asks a yes/no question. Anything but yes is treated as no.
func (p *Prompter) Confirm(question string) bool {
	return p.prompt(ResponseNo, "%s", question) == ResponseYes
}
