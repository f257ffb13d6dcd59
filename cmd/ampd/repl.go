// =============================================================================
// repl.go - Interactive REPL
// =============================================================================
//
// The REPL reads lines, translates them into protocol commands and prints the
// responses. Lines starting with '.' are handled locally.
//
// While the REPL waits for input the client sits in idle, so change
// notifications arrive asynchronously. They are printed through a mutex-
// protected writer so that they never interleave with a response.
//
// =============================================================================

package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/spf13/cobra"

	"github.com/PierreRust/ampdclient/internal/logging"
	"github.com/PierreRust/ampdclient/mpdprotocol"
)

const prompt = "mpd> "

// syncWriter serializes writes from the REPL and the change handler.
type syncWriter struct {
	mu sync.Mutex
	w  io.Writer
}

func (s *syncWriter) Write(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.w.Write(p)
}

// repl holds the state of one interactive session.
type repl struct {
	client  *mpdprotocol.Client
	editor  *LineEditor
	out     io.Writer
	errOut  io.Writer
	timeout time.Duration

	watching atomic.Bool
}

func newREPL(client *mpdprotocol.Client, editor *LineEditor, errOut io.Writer, timeout time.Duration) *repl {
	r := &repl{
		client:  client,
		editor:  editor,
		out:     &syncWriter{w: editor.Output()},
		errOut:  errOut,
		timeout: timeout,
	}
	r.watching.Store(true)

	client.SetChangeHandler(func(changes mpdprotocol.Changes) {
		if r.watching.Load() {
			printChanges(r.out, changes)
		}
	})
	client.SetDisconnectHandler(func(err error) {
		if err != nil {
			fmt.Fprintf(r.errOut, "\nConnection lost: %v\n", err)
		}
	})
	return r
}

// run reads and executes lines until end of input, .quit, ctx ending, or a
// lost connection. Only the last returns an error.
func (r *repl) run(ctx context.Context) error {
	for {
		line, err := r.editor.GetLine(prompt)
		if err != nil {
			if errors.Is(err, io.EOF) {
				fmt.Fprintln(r.out)
				return nil
			}
			return err
		}
		if ctx.Err() != nil {
			return nil
		}

		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		if strings.HasPrefix(line, ".") {
			if quit := r.dotCommand(ctx, line); quit {
				return nil
			}
		} else {
			r.execute(ctx, line)
		}

		select {
		case <-r.client.Done():
			return r.client.Err()
		default:
		}
	}
}

// dotCommand handles a local command. It returns true when the REPL should
// exit.
func (r *repl) dotCommand(ctx context.Context, line string) bool {
	keyword, arg, _ := strings.Cut(line, " ")
	arg = strings.TrimSpace(arg)

	switch strings.ToLower(keyword) {
	case ".quit", ".exit":
		return true

	case ".help":
		printHelp(r.out, r.errOut, arg)

	case ".version":
		fmt.Fprintf(r.out, "%s, server protocol %s\n", fullTitle(), r.client.ProtocolVersion())

	case ".watch":
		switch strings.ToLower(arg) {
		case "", "on":
			r.watching.Store(true)
			fmt.Fprintln(r.out, "Watching for changes")
		case "off":
			r.watching.Store(false)
			fmt.Fprintln(r.out, "Not watching for changes")
		default:
			fmt.Fprintln(r.errOut, "Usage: .watch on|off")
		}

	case ".status":
		ctx, cancel := context.WithTimeout(ctx, r.timeout)
		defer cancel()
		if err := showStatus(ctx, r.out, r.client); err != nil {
			printError(r.errOut, err)
		}

	default:
		fmt.Fprintf(r.errOut, "Error: Unknown command '%s'. Type .help to see available commands.\n", keyword)
	}
	return false
}

// execute translates and sends one line. A failing command stops the
// remaining commands of a macro.
func (r *repl) execute(ctx context.Context, line string) {
	cmds, err := translateLine(line)
	if err != nil {
		printError(r.errOut, err)
		return
	}

	for _, cmd := range cmds {
		cctx, cancel := context.WithTimeout(ctx, r.timeout)
		lines, err := r.client.Send(cctx, cmd)
		cancel()
		if err != nil {
			logging.CLI().Debug("command failed", "command", cmd.Name, "error", err)
			printError(r.errOut, err)
			return
		}
		renderResponse(r.out, cmd, lines)
	}
}

// showStatus prints the player status and the current song.
func showStatus(ctx context.Context, w io.Writer, client *mpdprotocol.Client) error {
	status, err := client.Status(ctx)
	if err != nil {
		return err
	}
	song, err := client.CurrentSong(ctx)
	if err != nil {
		return err
	}
	printStatus(w, status, song)
	return nil
}

// =============================================================================
// Cobra Wiring
// =============================================================================

func newREPLCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "repl",
		Short: "Start the interactive REPL (the default)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.runREPLCommand(cmd)
		},
	}
}

// runREPLCommand connects and runs the REPL on the command's input and
// output streams.
func (a *app) runREPLCommand(cmd *cobra.Command) error {
	ctx := cmd.Context()

	dialCtx, cancel := context.WithTimeout(ctx, a.cfg.DialTimeout)
	client, err := a.connect(dialCtx)
	cancel()
	if err != nil {
		return err
	}
	defer closeClient(client)

	editor := NewLineEditor(cmd.InOrStdin(), cmd.OutOrStdout())
	defer editor.Close()

	if editor.IsInteractive() {
		fmt.Fprint(editor.Output(), welcomeBanner(client.Addr(), client.ProtocolVersion()))
	}

	r := newREPL(client, editor, cmd.ErrOrStderr(), a.cfg.CommandTimeout)
	return r.run(ctx)
}
