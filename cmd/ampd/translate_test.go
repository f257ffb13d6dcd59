// =============================================================================
// translate_test.go - Tests for REPL Input Translation
// =============================================================================

package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/PierreRust/ampdclient/mpdprotocol"
)

// formatAll returns the wire form of each command.
func formatAll(cmds []mpdprotocol.Command) []string {
	out := make([]string, len(cmds))
	for i, c := range cmds {
		out[i] = c.Format()
	}
	return out
}

func TestTranslateLine(t *testing.T) {
	tests := []struct {
		input string
		want  []string
	}{
		// Aliases
		{"prev", []string{"previous"}},
		{"vol 40", []string{"setvol 40"}},
		{"volume 5", []string{"setvol 5"}},
		{"ls", []string{"lsinfo"}},
		{"ls jazz", []string{"lsinfo jazz"}},
		{"q", []string{"playlistinfo"}},
		{"queue 0:5", []string{"playlistinfo 0:5"}},
		{"del 3", []string{"delete 3"}},
		{"rm 2:4", []string{"delete 2:4"}},
		{"resume", []string{"pause 0"}},
		{"toggle", []string{"pause"}},
		{"st", []string{"status"}},
		{"cur", []string{"currentsong"}},

		// Case and argument normalization
		{"STATUS", []string{"status"}},
		{"Random on", []string{"random 1"}},
		{"repeat OFF", []string{"repeat 0"}},
		{"pause true", []string{"pause 1"}},

		// Quoting
		{`add "Jazz Classics"`, []string{`add "Jazz Classics"`}},
		{`find title "say \"hi\""`, []string{`find title "say \"hi\""`}},

		// Macros
		{"playfile jazz/a.flac", []string{"clear", "add jazz/a.flac", "play"}},
		{`PlayFile "My Song.mp3"`, []string{"clear", `add "My Song.mp3"`, "play"}},

		// Unknown commands pass through
		{"outputs", []string{"outputs"}},
		{"find artist Coltrane", []string{"find artist Coltrane"}},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			cmds, err := translateLine(tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.want, formatAll(cmds))
		})
	}
}

func TestTranslateBlankLine(t *testing.T) {
	cmds, err := translateLine("   ")
	require.NoError(t, err)
	assert.Empty(t, cmds)
}

func TestTranslateErrors(t *testing.T) {
	tests := []struct {
		input string
		kind  mpdprotocol.ParseErrorKind
	}{
		{"idle", mpdprotocol.ErrKindInvalidCommand},
		{"noidle", mpdprotocol.ErrKindInvalidCommand},
		{"vol loud", mpdprotocol.ErrKindInvalidValue},
		{"del", mpdprotocol.ErrKindMissingArgument},
		{"queue 1 2", mpdprotocol.ErrKindTooManyArguments},
		{"random maybe", mpdprotocol.ErrKindInvalidValue},
		{`add "open`, mpdprotocol.ErrKindInvalidValue},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			_, err := translateLine(tt.input)
			var pe *mpdprotocol.ParseError
			require.ErrorAs(t, err, &pe)
			assert.Equal(t, tt.kind, pe.Kind)
		})
	}
}

func TestTranslatePlayFileUsage(t *testing.T) {
	_, err := translateLine("playfile")
	assert.ErrorIs(t, err, errPlayFileUsage)

	_, err = translateLine("playfile a b")
	assert.ErrorIs(t, err, errPlayFileUsage)
}

func TestAliasesDoNotTargetReservedCommands(t *testing.T) {
	for name, a := range aliases {
		_, err := mpdprotocol.ParseCommandLine(a.target)
		var pe *mpdprotocol.ParseError
		if err != nil && assert.ErrorAs(t, err, &pe, name) {
			assert.NotEqual(t, mpdprotocol.ErrKindInvalidCommand, pe.Kind, name)
		}
	}
}
