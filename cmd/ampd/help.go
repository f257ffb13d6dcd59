// =============================================================================
// help.go - REPL Help System
// =============================================================================
//
//   - ".help"         lists dot-commands and the common MPD commands
//   - ".help <topic>" shows detailed help for one command or alias
//
// Help text lives in two tables: replHelp for the local dot-commands and
// mpdHelp for server commands and the REPL's shorthand aliases.
//
// =============================================================================

package main

import (
	"fmt"
	"io"
	"strings"
)

// printHelp writes the overview when topic is empty, or the detailed entry
// for topic. Unknown topics are reported on errOut.
func printHelp(out, errOut io.Writer, topic string) {
	if topic == "" {
		fmt.Fprint(out, helpOverview)
		return
	}

	key := strings.ToLower(strings.TrimPrefix(strings.TrimSpace(topic), "."))
	if text, ok := replHelp[key]; ok {
		fmt.Fprintln(out, text)
		return
	}
	if alias, ok := aliases[key]; ok {
		key = alias.target
	}
	if text, ok := mpdHelp[key]; ok {
		fmt.Fprintln(out, text)
		return
	}

	fmt.Fprintf(errOut, "Error: No help for '%s'. Type .help to see available commands.\n", topic)
}

const helpOverview = `REPL Commands:
  .help [cmd]       Show help (or help for a specific command)
  .status           Show the player status
  .watch on|off     Print change notifications as they arrive
  .version          Show client and server versions
  .quit             Close the connection and exit

Playback:
  play [pos]        Start playing (at queue position pos)
  pause / resume    Pause or resume playback
  toggle            Toggle between play and pause
  next / prev       Skip to the next or previous song
  stop              Stop playback
  vol <0-100>       Set the volume

Queue:
  queue [s:e]       List the play queue (alias: q)
  add <uri>         Append a song or directory to the queue
  addid <uri> [p]   Add a song, printing its id
  del <pos|s:e>     Remove songs from the queue (alias: rm)
  clear             Empty the queue
  load <name>       Append a stored playlist
  playfile <uri>    Replace the queue with uri and play it

Modes:
  random|repeat|single|consume <on|off>
  crossfade <sec>

Database:
  ls [path]         List a database directory

Any other input is sent to the server as a raw MPD command, for example
'find artist "Miles Davis"'. Quote arguments containing spaces.
`

var replHelp = map[string]string{
	"help": `  .help [command]
    Show the command overview, or detailed help for one command.
    Examples:
      .help
      .help queue
      .help .watch`,

	"status": `  .status
    Show the current song, the player state and the playback modes.
    Equivalent to the 'status' subcommand.`,

	"watch": `  .watch on|off
    Turn printing of change notifications on or off. Notifications
    arrive while the REPL waits for input and are printed as
    "changed: player, mixer". Watching is on by default.`,

	"version": `  .version
    Show the client version and the protocol version announced by
    the server in its greeting.`,

	"quit": `  .quit
    Close the connection politely and exit. Ctrl-D does the same.
    Alias: .exit`,

	"exit": `  .exit
    Same as .quit.`,
}

var mpdHelp = map[string]string{
	"play": `  play [pos]
    Start playback. With a position, play the song at that index
    of the queue (0-based).
    Examples:
      play
      play 3`,

	"pause": `  pause [on|off]
    Pause playback. 'pause off' (or 'resume') resumes.`,

	"toggle": `  toggle
    Pause when playing, resume when paused. Sent as 'pause' without
    an argument.`,

	"next": `  next
    Play the next song in the queue.`,

	"previous": `  prev
    Play the previous song in the queue.`,

	"stop": `  stop
    Stop playback.`,

	"setvol": `  vol <0-100>
    Set the volume in percent. Fails when the output has no mixer.
    Example:
      vol 40`,

	"playlistinfo": `  queue [pos|s:e]
    List the play queue, or the songs in a position or range.
    Examples:
      queue
      queue 0:10`,

	"add": `  add <uri>
    Append a song or a whole directory (recursively) to the queue.
    Example:
      add "Jazz/Kind of Blue"`,

	"addid": `  addid <uri> [pos]
    Add one song, optionally at a queue position, and print the id
    the server assigned to it.`,

	"delete": `  del <pos|s:e>
    Remove the song at a position, or a range of songs.
    Examples:
      del 0
      del 2:5`,

	"clear": `  clear
    Remove every song from the queue.`,

	"load": `  load <name>
    Append a stored playlist to the queue.`,

	"playfile": `  playfile <uri>
    Clear the queue, add uri and start playing. Sent as three
    commands: clear, add, play.`,

	"lsinfo": `  ls [path]
    List the directories, playlists and songs at a database path.
    Without a path the root is listed.`,

	"random": `  random <on|off>
    Play the queue in random order.`,

	"repeat": `  repeat <on|off>
    Start over when the end of the queue is reached.`,

	"single": `  single <on|off>
    Stop after the current song, or repeat it when repeat is on.`,

	"consume": `  consume <on|off>
    Remove each song from the queue once it has been played.`,

	"crossfade": `  crossfade <seconds>
    Overlap consecutive songs by the given number of seconds.`,
}
