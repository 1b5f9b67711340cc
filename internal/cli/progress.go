package cli

import (
	"io"
	"os"
	"time"

	"github.com/briandowns/spinner"
	"github.com/jedib0t/go-pretty/v6/text"
	"golang.org/x/term"
)

// isTerminal is swapped out in tests.
var isTerminal = func(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}

// Progress is a spinner on stderr. It is inert when quiet is set or the
// writer is not a terminal, so inventory output stays clean under Ansible.
type Progress struct {
	s *spinner.Spinner
}

// StartProgress starts a spinner with message on out. Only an *os.File
// attached to a terminal gets a spinner.
func StartProgress(out io.Writer, message string, quiet bool) *Progress {
	if quiet {
		return &Progress{}
	}
	f, ok := out.(*os.File)
	if !ok || f == nil || !isTerminal(f) {
		return &Progress{}
	}

	s := spinner.New(spinner.CharSets[14], 100*time.Millisecond, spinner.WithWriter(f))
	s.Suffix = " " + message
	s.Start()
	return &Progress{s: s}
}

// Active reports whether a spinner is running.
func (p *Progress) Active() bool {
	return p.s != nil
}

// Stop clears the spinner.
func (p *Progress) Stop() {
	if !p.Active() {
		return
	}
	p.s.Stop()
	p.s = nil
}

// Fail replaces the spinner with a red failure line.
func (p *Progress) Fail(message string) {
	if !p.Active() {
		return
	}
	p.s.FinalMSG = text.FgRed.Sprint(message) + "\n"
	p.Stop()
}
