// =============================================================================
// lineeditor.go - Line Editor with Dual-Mode Operation
// =============================================================================
//
// The REPL reads input through a LineEditor that picks one of two modes:
//
//   - Interactive mode: ergochat/readline with Emacs keybindings, persistent
//     history and Ctrl-R search. Used when input is a terminal.
//   - Non-interactive mode: a bufio.Scanner over the input, printing the
//     prompt to the output. Used for piped input and under Emacs comint.
//
// History is stored at ~/.ampd_history with a 500-entry limit.
//
// =============================================================================

package main

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/ergochat/readline"
	"golang.org/x/term"
)

const (
	// historyFileName is the history file in the user's home directory.
	historyFileName = ".ampd_history"

	// historySize is the maximum number of history entries to retain.
	historySize = 500
)

// LineEditor reads REPL input in interactive or non-interactive mode.
type LineEditor struct {
	interactive bool

	// rl is set in interactive mode only.
	rl *readline.Instance

	// scanner and out are set in non-interactive mode only.
	scanner *bufio.Scanner
	out     io.Writer
}

// NewLineEditor creates a LineEditor reading from in and echoing prompts to
// out. Readline is used only when in is a terminal and INSIDE_EMACS is unset.
func NewLineEditor(in io.Reader, out io.Writer) *LineEditor {
	if !isTerminal(in) || os.Getenv("INSIDE_EMACS") != "" {
		return newBasicEditor(in, out)
	}

	rl, err := readline.NewFromConfig(&readline.Config{
		HistoryFile:  filepath.Join(homeDir(), historyFileName),
		HistoryLimit: historySize,
		// Lines are saved manually so that blank input stays out of history.
		DisableAutoSaveHistory: true,
		Stdout:                 out,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: readline init failed (%v), using basic input\n", err)
		return newBasicEditor(in, out)
	}

	return &LineEditor{
		interactive: true,
		rl:          rl,
	}
}

func newBasicEditor(in io.Reader, out io.Writer) *LineEditor {
	return &LineEditor{
		scanner: bufio.NewScanner(in),
		out:     out,
	}
}

// isTerminal reports whether r is a file connected to a terminal.
func isTerminal(r io.Reader) bool {
	f, ok := r.(*os.File)
	if !ok {
		return false
	}
	return term.IsTerminal(int(f.Fd()))
}

// GetLine reads one line after showing prompt. It returns io.EOF at the end
// of input, on Ctrl-D, and on Ctrl-C.
func (le *LineEditor) GetLine(prompt string) (string, error) {
	if le.interactive {
		return le.getInteractiveLine(prompt)
	}
	return le.getNonInteractiveLine(prompt)
}

func (le *LineEditor) getInteractiveLine(prompt string) (string, error) {
	le.rl.SetPrompt(prompt)

	line, err := le.rl.Readline()
	if err != nil {
		if err == readline.ErrInterrupt {
			return "", io.EOF
		}
		return "", err
	}

	if trimmed := strings.TrimSpace(line); trimmed != "" {
		le.rl.SaveToHistory(trimmed)
	}
	return line, nil
}

func (le *LineEditor) getNonInteractiveLine(prompt string) (string, error) {
	// The prompt still matters under comint, which matches on it.
	fmt.Fprint(le.out, prompt)

	if !le.scanner.Scan() {
		if err := le.scanner.Err(); err != nil {
			return "", err
		}
		return "", io.EOF
	}
	return le.scanner.Text(), nil
}

// Close saves history and releases the terminal. It is safe to call more
// than once.
func (le *LineEditor) Close() {
	if le.rl != nil {
		le.rl.Close()
		le.rl = nil
	}
}

// IsInteractive reports whether readline is in use.
func (le *LineEditor) IsInteractive() bool {
	return le.interactive
}

// Output returns the writer for asynchronous output. In interactive mode it
// redraws the prompt after each write.
func (le *LineEditor) Output() io.Writer {
	if le.interactive {
		return le.rl
	}
	return le.out
}
