package mpdprotocol

import (
	"strconv"
	"strings"

	"github.com/google/shlex"
)

// argKind describes the shape of one command argument.
type argKind int

const (
	argString argKind = iota
	argInt
	argBool
	argPosOrRange // "N" or "START:END"
)

// argSpec lists the argument kinds of a known command and how many of them
// are required.
type argSpec struct {
	kinds    []argKind
	required int
}

// knownCommands validates the commands this package has typed helpers for.
// Other commands are passed through unchecked.
var knownCommands = map[string]argSpec{
	"status":       {},
	"stats":        {},
	"currentsong":  {},
	"clearerror":   {},
	"ping":         {},
	"clear":        {},
	"next":         {},
	"previous":     {},
	"stop":         {},
	"password":     {kinds: []argKind{argString}, required: 1},
	"lsinfo":       {kinds: []argKind{argString}},
	"add":          {kinds: []argKind{argString}, required: 1},
	"addid":        {kinds: []argKind{argString, argInt}, required: 1},
	"load":         {kinds: []argKind{argString}, required: 1},
	"delete":       {kinds: []argKind{argPosOrRange}, required: 1},
	"deleteid":     {kinds: []argKind{argInt}, required: 1},
	"pause":        {kinds: []argKind{argBool}},
	"play":         {kinds: []argKind{argInt}},
	"playid":       {kinds: []argKind{argInt}},
	"playlistinfo": {kinds: []argKind{argPosOrRange}},
	"playlistid":   {kinds: []argKind{argInt}},
	"consume":      {kinds: []argKind{argBool}, required: 1},
	"random":       {kinds: []argKind{argBool}, required: 1},
	"repeat":       {kinds: []argKind{argBool}, required: 1},
	"single":       {kinds: []argKind{argBool}, required: 1},
	"crossfade":    {kinds: []argKind{argInt}, required: 1},
	"setvol":       {kinds: []argKind{argInt}, required: 1},
}

// ParseCommandLine tokenizes a command typed by a user, with shell-style
// quoting, and validates the arguments of known commands. The command name
// is lowercased. Reserved commands (idle, noidle, close, command lists) are
// rejected because the client manages them itself.
func ParseCommandLine(text string) (Command, error) {
	fields, err := shlex.Split(text)
	if err != nil {
		return Command{}, newInvalidValueError(text, err.Error())
	}
	if len(fields) == 0 {
		return Command{}, newInvalidCommandError(text)
	}

	cmd := Command{Name: strings.ToLower(fields[0]), Args: fields[1:]}
	if reservedCommands[cmd.Name] {
		return Command{}, newInvalidCommandError(cmd.Name)
	}

	rule, ok := knownCommands[cmd.Name]
	if !ok {
		return cmd, nil
	}
	if len(cmd.Args) < rule.required {
		return Command{}, newMissingArgumentError(cmd.Name + " requires " + strconv.Itoa(rule.required) + " argument(s)")
	}
	if len(cmd.Args) > len(rule.kinds) {
		return Command{}, newTooManyArgumentsError(cmd.Name + " accepts at most " + strconv.Itoa(len(rule.kinds)) + " argument(s)")
	}
	for i, arg := range cmd.Args {
		normalized, err := checkArg(rule.kinds[i], arg)
		if err != nil {
			return Command{}, err
		}
		cmd.Args[i] = normalized
	}
	return cmd, nil
}

// checkArg validates arg. Boolean arguments also accept on/off and
// true/false and are normalized to 1/0.
func checkArg(kind argKind, arg string) (string, error) {
	switch kind {
	case argInt:
		if _, err := strconv.Atoi(arg); err != nil {
			return "", newInvalidValueError(arg, "expected an integer")
		}
	case argBool:
		switch strings.ToLower(arg) {
		case "1", "on", "true":
			return "1", nil
		case "0", "off", "false":
			return "0", nil
		default:
			return "", newInvalidValueError(arg, "expected 0 or 1")
		}
	case argPosOrRange:
		start, end, isRange := strings.Cut(arg, ":")
		if _, err := strconv.Atoi(start); err != nil {
			return "", newInvalidValueError(arg, "expected a position or START:END")
		}
		if isRange && end != "" {
			if _, err := strconv.Atoi(end); err != nil {
				return "", newInvalidValueError(arg, "expected a position or START:END")
			}
		}
	}
	return arg, nil
}
