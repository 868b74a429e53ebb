// ABOUTME: Line prompters used by the setup wizard
// ABOUTME: liner-backed prompter for terminals, buffered reader prompter for pipes

package setup

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/peterh/liner"
	"golang.org/x/term"
)

// ErrAborted is returned by a Prompter when the operator cancels (Ctrl+C).
var ErrAborted = errors.New("setup aborted")

// Prompter asks one question at a time. Prompt returns io.EOF when input
// is exhausted and ErrAborted when the operator cancels.
type Prompter interface {
	Prompt(question string) (string, error)
	Close() error
}

// LinePrompter reads answers with line editing from an interactive terminal.
type LinePrompter struct {
	state *liner.State
}

// NewLinePrompter takes over the terminal until Close is called.
func NewLinePrompter() *LinePrompter {
	state := liner.NewLiner()
	state.SetCtrlCAborts(true)
	return &LinePrompter{state: state}
}

// Interactive reports whether in can drive a LinePrompter: it must be a
// TTY and $TERM must be one liner can edit on. Pipes and redirected files
// are not interactive.
func Interactive(in *os.File) bool {
	return term.IsTerminal(int(in.Fd())) && liner.TerminalSupported()
}

func (p *LinePrompter) Prompt(question string) (string, error) {
	answer, err := p.state.Prompt(question)
	if err != nil {
		if errors.Is(err, liner.ErrPromptAborted) {
			return "", ErrAborted
		}
		return "", err
	}
	return strings.TrimSpace(answer), nil
}

// Close restores the terminal mode.
func (p *LinePrompter) Close() error {
	return p.state.Close()
}

// ReaderPrompter reads newline-terminated answers from any reader, for
// piped input where no terminal is attached.
type ReaderPrompter struct {
	in  *bufio.Reader
	out io.Writer
}

// NewReaderPrompter writes questions to out and reads answers from in.
func NewReaderPrompter(in io.Reader, out io.Writer) *ReaderPrompter {
	return &ReaderPrompter{in: bufio.NewReader(in), out: out}
}

func (p *ReaderPrompter) Prompt(question string) (string, error) {
	fmt.Fprint(p.out, question)
	line, err := p.in.ReadString('\n')
	if err != nil {
		if errors.Is(err, io.EOF) && line != "" {
			return strings.TrimSpace(line), nil
		}
		fmt.Fprintln(p.out)
		return "", err
	}
	return strings.TrimSpace(line), nil
}

func (p *ReaderPrompter) Close() error {
	return nil
}
