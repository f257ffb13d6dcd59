package mpdprotocol

import (
	"strconv"
	"strings"
)

// Command is a protocol command with its arguments. Use the constructor
// functions (NewStatusCommand, NewAddCommand, etc.) or NewCommand for
// commands without a dedicated constructor.
type Command struct {
	Name string
	Args []string
}

// NewCommand creates a command with arbitrary arguments.
func NewCommand(name string, args ...string) Command {
	return Command{Name: name, Args: args}
}

// Format returns the command line without terminator. Arguments that are
// empty or contain characters outside a conservative safe set are quoted,
// with '"' and '\' escaped.
func (c Command) Format() string {
	var b strings.Builder
	b.WriteString(c.Name)
	for _, arg := range c.Args {
		b.WriteByte(' ')
		b.WriteString(QuoteArg(arg))
	}
	return b.String()
}

// FormatLine returns the command formatted for transmission.
func (c Command) FormatLine() string {
	return c.Format() + "\n"
}

// String implements fmt.Stringer.
func (c Command) String() string {
	return c.Format()
}

// QuoteArg quotes a command argument when needed.
func QuoteArg(arg string) string {
	if arg != "" && isSafeArg(arg) {
		return arg
	}
	var b strings.Builder
	b.Grow(len(arg) + 2)
	b.WriteByte('"')
	for _, r := range arg {
		if r == '"' || r == '\\' {
			b.WriteByte('\\')
		}
		b.WriteRune(r)
	}
	b.WriteByte('"')
	return b.String()
}

func isSafeArg(arg string) bool {
	for _, r := range arg {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
		case strings.ContainsRune("_-+.:/", r):
		default:
			return false
		}
	}
	return true
}

func boolArg(on bool) string {
	if on {
		return "1"
	}
	return "0"
}

func rangeArg(start, end int) string {
	return strconv.Itoa(start) + ":" + strconv.Itoa(end)
}

// Command constructors.

// NewStatusCommand creates a status command.
func NewStatusCommand() Command { return Command{Name: "status"} }

// NewStatsCommand creates a stats command.
func NewStatsCommand() Command { return Command{Name: "stats"} }

// NewCurrentSongCommand creates a currentsong command.
func NewCurrentSongCommand() Command { return Command{Name: "currentsong"} }

// NewClearErrorCommand creates a clearerror command.
func NewClearErrorCommand() Command { return Command{Name: "clearerror"} }

// NewPingCommand creates a ping command.
func NewPingCommand() Command { return Command{Name: "ping"} }

// NewPasswordCommand creates a password command.
func NewPasswordCommand(password string) Command {
	return NewCommand("password", password)
}

// NewListInfoCommand lists the directory at path. An empty path is the
// root of the music directory.
func NewListInfoCommand(path string) Command {
	return NewCommand("lsinfo", path)
}

// NewAddCommand adds a file or, recursively, a directory to the play queue.
func NewAddCommand(uri string) Command {
	return NewCommand("add", uri)
}

// NewAddIDCommand adds a single file to the play queue. A negative position
// appends at the end.
func NewAddIDCommand(uri string, position int) Command {
	if position < 0 {
		return NewCommand("addid", uri)
	}
	return NewCommand("addid", uri, strconv.Itoa(position))
}

// NewLoadCommand loads a stored playlist into the play queue.
func NewLoadCommand(name string) Command {
	return NewCommand("load", name)
}

// NewClearCommand empties the play queue.
func NewClearCommand() Command { return Command{Name: "clear"} }

// NewDeleteCommand removes the song at position from the play queue.
func NewDeleteCommand(position int) Command {
	return NewCommand("delete", strconv.Itoa(position))
}

// NewDeleteRangeCommand removes positions start (inclusive) to end
// (exclusive) from the play queue.
func NewDeleteRangeCommand(start, end int) Command {
	return NewCommand("delete", rangeArg(start, end))
}

// NewDeleteIDCommand removes the song with the given id from the play queue.
func NewDeleteIDCommand(id int) Command {
	return NewCommand("deleteid", strconv.Itoa(id))
}

// NewPauseCommand pauses (true) or resumes (false) playback.
func NewPauseCommand(pause bool) Command {
	return NewCommand("pause", boolArg(pause))
}

// NewNextCommand skips to the next song.
func NewNextCommand() Command { return Command{Name: "next"} }

// NewPreviousCommand goes back to the previous song.
func NewPreviousCommand() Command { return Command{Name: "previous"} }

// NewStopCommand stops playback.
func NewStopCommand() Command { return Command{Name: "stop"} }

// NewPlayCommand starts playback at position, or at the current song when
// position is negative.
func NewPlayCommand(position int) Command {
	if position < 0 {
		return Command{Name: "play"}
	}
	return NewCommand("play", strconv.Itoa(position))
}

// NewPlayIDCommand starts playback at the song with the given id.
func NewPlayIDCommand(id int) Command {
	return NewCommand("playid", strconv.Itoa(id))
}

// NewPlaylistInfoCommand describes the play queue entry at position.
func NewPlaylistInfoCommand(position int) Command {
	if position < 0 {
		return Command{Name: "playlistinfo"}
	}
	return NewCommand("playlistinfo", strconv.Itoa(position))
}

// NewPlaylistRangeCommand describes play queue positions start to end.
func NewPlaylistRangeCommand(start, end int) Command {
	return NewCommand("playlistinfo", rangeArg(start, end))
}

// NewPlaylistIDCommand describes the play queue entry with the given id.
func NewPlaylistIDCommand(id int) Command {
	return NewCommand("playlistid", strconv.Itoa(id))
}

// NewConsumeCommand toggles consume mode.
func NewConsumeCommand(on bool) Command { return NewCommand("consume", boolArg(on)) }

// NewRandomCommand toggles random mode.
func NewRandomCommand(on bool) Command { return NewCommand("random", boolArg(on)) }

// NewRepeatCommand toggles repeat mode.
func NewRepeatCommand(on bool) Command { return NewCommand("repeat", boolArg(on)) }

// NewSingleCommand toggles single mode.
func NewSingleCommand(on bool) Command { return NewCommand("single", boolArg(on)) }

// NewCrossfadeCommand sets the crossfade duration in seconds.
func NewCrossfadeCommand(seconds int) Command {
	return NewCommand("crossfade", strconv.Itoa(seconds))
}

// NewSetVolumeCommand sets the volume (0-100).
func NewSetVolumeCommand(volume int) Command {
	return NewCommand("setvol", strconv.Itoa(volume))
}
