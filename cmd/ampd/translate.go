// =============================================================================
// translate.go - REPL Input to Protocol Commands
// =============================================================================
//
// A line typed at the REPL becomes one or more protocol commands:
//
//   - Shorthand aliases are expanded ("prev" -> "previous", "vol 40" ->
//     "setvol 40", "resume" -> "pause 0").
//   - Macros expand to several commands ("playfile x" -> clear, add x, play).
//   - Everything else is passed to mpdprotocol.ParseCommandLine, which
//     handles quoting and validates arguments of known commands.
//
// =============================================================================

package main

import (
	"errors"
	"strings"

	"github.com/google/shlex"

	"github.com/PierreRust/ampdclient/mpdprotocol"
)

var errPlayFileUsage = errors.New("playfile requires exactly one URI")

// alias maps a shorthand keyword to a protocol command. Fixed arguments are
// placed before the user's arguments.
type alias struct {
	target string
	args   []string
}

var aliases = map[string]alias{
	"prev":   {target: "previous"},
	"vol":    {target: "setvol"},
	"volume": {target: "setvol"},
	"ls":     {target: "lsinfo"},
	"queue":  {target: "playlistinfo"},
	"q":      {target: "playlistinfo"},
	"del":    {target: "delete"},
	"rm":     {target: "delete"},
	"resume": {target: "pause", args: []string{"0"}},
	"toggle": {target: "pause"},
	"st":     {target: "status"},
	"cur":    {target: "currentsong"},
}

// translateLine converts one REPL line into the commands to send, in order.
// A blank line yields no commands.
func translateLine(line string) ([]mpdprotocol.Command, error) {
	fields, err := shlex.Split(line)
	if err != nil {
		// Let the protocol parser report the quoting error.
		_, perr := mpdprotocol.ParseCommandLine(line)
		return nil, perr
	}
	if len(fields) == 0 {
		return nil, nil
	}

	keyword := strings.ToLower(fields[0])
	args := fields[1:]

	if keyword == "playfile" {
		return translatePlayFile(args)
	}

	if a, ok := aliases[keyword]; ok {
		keyword = a.target
		args = append(append([]string{}, a.args...), args...)
	}

	text := mpdprotocol.NewCommand(keyword, args...).Format()
	cmd, err := mpdprotocol.ParseCommandLine(text)
	if err != nil {
		return nil, err
	}
	return []mpdprotocol.Command{cmd}, nil
}

// translatePlayFile replaces the queue with one URI and plays it.
func translatePlayFile(args []string) ([]mpdprotocol.Command, error) {
	if len(args) != 1 {
		return nil, errPlayFileUsage
	}
	return []mpdprotocol.Command{
		mpdprotocol.NewClearCommand(),
		mpdprotocol.NewAddCommand(args[0]),
		mpdprotocol.NewPlayCommand(-1),
	}, nil
}
