package ui

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"
)

// Prompter asks questions on a terminal. The zero value is not usable; use
// NewPrompter or Stdio.
type Prompter struct {
	in  *bufio.Reader
	out io.Writer
}

// NewPrompter reads answers from in and writes questions to out.
func NewPrompter(in io.Reader, out io.Writer) *Prompter {
	return &Prompter{in: bufio.NewReader(in), out: out}
}

// Stdio is a prompter on the process's terminal.
func Stdio() *Prompter { return NewPrompter(os.Stdin, os.Stderr) }

// Confirm asks a yes/no question. Anything but y/yes is no.
func (p *Prompter) Confirm(prompt string) bool {
	fmt.Fprintf(p.out, "%s [y/N]: ", StyleWarning.Render(prompt))
	return yes(p.line())
}

// ConfirmDanger is like Confirm but styled with the error color (for
// ownership actions and anything that moves the reserve).
func (p *Prompter) ConfirmDanger(prompt string) bool {
	fmt.Fprintf(p.out, "%s [y/N]: ", StyleError.Render("⚠ "+prompt))
	return yes(p.line())
}

// Ask reads one trimmed line. An empty answer yields def.
func (p *Prompter) Ask(prompt, def string) string {
	if def != "" {
		fmt.Fprintf(p.out, "%s %s: ", StyleValue.Render(prompt), StyleMeta.Render("["+def+"]"))
	} else {
		fmt.Fprintf(p.out, "%s: ", StyleValue.Render(prompt))
	}
	if line := p.line(); line != "" {
		return line
	}
	return def
}

func (p *Prompter) line() string {
	line, _ := p.in.ReadString('\n')
	return strings.TrimSpace(line)
}

func yes(s string) bool {
	s = strings.ToLower(s)
	return s == "y" || s == "yes"
}

// DangerBox frames a warning block in the error color.
func DangerBox(content string) string {
	return StyleBorder.BorderForeground(ColorError).Render(content)
}
