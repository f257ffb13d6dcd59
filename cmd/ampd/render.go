// =============================================================================
// render.go - Output Formatting
// =============================================================================
//
// Responses are printed in a compact human form. Color is applied with
// fatih/color, which disables itself when output is not a terminal or when
// --no-color is given.
//
// =============================================================================

package main

import (
	"errors"
	"fmt"
	"io"
	"maps"
	"slices"
	"strings"

	"github.com/fatih/color"

	"github.com/PierreRust/ampdclient/mpdprotocol"
)

var (
	errorColor     = color.New(color.FgRed, color.Bold)
	playingColor   = color.New(color.FgGreen, color.Bold)
	pausedColor    = color.New(color.FgYellow, color.Bold)
	stoppedColor   = color.New(color.FgRed)
	directoryColor = color.New(color.FgBlue, color.Bold)
	playlistColor  = color.New(color.FgMagenta)
	changeColor    = color.New(color.FgCyan)
	dimColor       = color.New(color.Faint)
)

// printError writes err to w. Server failures show the server's message and
// error code.
func printError(w io.Writer, err error) {
	var pe *mpdprotocol.ProtocolError
	if errors.As(err, &pe) {
		errorColor.Fprint(w, "Error: ")
		fmt.Fprintf(w, "%s (%s)\n", pe.Message, pe.Code)
		return
	}
	errorColor.Fprint(w, "Error: ")
	fmt.Fprintln(w, err)
}

func isProtocolError(err error) bool {
	return errors.Is(err, mpdprotocol.ErrProtocol)
}

// printLines writes raw response lines.
func printLines(w io.Writer, lines []string) {
	for _, line := range lines {
		fmt.Fprintln(w, line)
	}
}

// printAttrs writes a flat response sorted by key.
func printAttrs(w io.Writer, attrs mpdprotocol.Attrs) {
	for _, key := range slices.Sorted(maps.Keys(attrs)) {
		fmt.Fprintf(w, "%s: %s\n", key, attrs[key])
	}
}

// songTitle returns "Artist - Title" when tags are present, or the file.
func songTitle(key string, attrs mpdprotocol.Attrs) string {
	title := attrs["Title"]
	if title == "" {
		if key != "" {
			return key
		}
		return attrs["file"]
	}
	if artist := attrs["Artist"]; artist != "" {
		return artist + " - " + title
	}
	return title
}

// printStatus writes the current song and the player state.
func printStatus(w io.Writer, status, song mpdprotocol.Attrs) {
	if len(song) > 0 {
		fmt.Fprintln(w, songTitle("", song))
	}

	state := status["state"]
	switch state {
	case "play":
		playingColor.Fprint(w, "[playing]")
	case "pause":
		pausedColor.Fprint(w, "[paused]")
	default:
		stoppedColor.Fprint(w, "[stopped]")
	}
	if pos, err := status.Int("song"); err == nil && state != "stop" {
		length, _ := status.Int("playlistlength")
		fmt.Fprintf(w, " #%d/%d", pos+1, length)
	}
	if elapsed := status["elapsed"]; elapsed != "" && state != "stop" {
		fmt.Fprintf(w, " %s", formatSeconds(elapsed))
		if duration := status["duration"]; duration != "" {
			fmt.Fprintf(w, "/%s", formatSeconds(duration))
		}
	}
	fmt.Fprintln(w)

	volume := status["volume"]
	if volume == "" || volume == "-1" {
		volume = "n/a"
	} else {
		volume += "%"
	}
	fmt.Fprintf(w, "volume: %s  repeat: %s  random: %s  single: %s  consume: %s\n",
		volume,
		onOff(status.Bool("repeat")),
		onOff(status.Bool("random")),
		onOff(status["single"] == "1" || status["single"] == "oneshot"),
		onOff(status.Bool("consume")),
	)
	if msg := status["error"]; msg != "" {
		errorColor.Fprint(w, "error: ")
		fmt.Fprintln(w, msg)
	}
}

// formatSeconds renders a duration given in (fractional) seconds as m:ss.
func formatSeconds(value string) string {
	whole, _, _ := strings.Cut(value, ".")
	var seconds int
	if _, err := fmt.Sscanf(whole, "%d", &seconds); err != nil {
		return value
	}
	return fmt.Sprintf("%d:%02d", seconds/60, seconds%60)
}

func onOff(on bool) string {
	if on {
		return "on"
	}
	return "off"
}

// printListInfo writes directories, playlists and files of a listing.
func printListInfo(w io.Writer, info mpdprotocol.ListInfo) {
	for _, d := range info.Directories {
		directoryColor.Fprintf(w, "%s/\n", d.Key)
	}
	for _, p := range info.Playlists {
		playlistColor.Fprintf(w, "%s (playlist)\n", p.Key)
	}
	for _, f := range info.Files {
		fmt.Fprintln(w, f.Key)
	}
}

// printSongs writes play queue entries as "pos  id  title".
func printSongs(w io.Writer, songs []mpdprotocol.Song) {
	for _, s := range songs {
		dimColor.Fprintf(w, "%4s %5s  ", s.Attrs["Pos"], s.Attrs["Id"])
		fmt.Fprintln(w, songTitle(s.Key, s.Attrs))
	}
}

// printChanges writes one idle notification.
func printChanges(w io.Writer, changes mpdprotocol.Changes) {
	changeColor.Fprintf(w, "changed: %s\n", strings.Join(changes, ", "))
}

// renderResponse prints the response to cmd in the form that suits it.
func renderResponse(w io.Writer, cmd mpdprotocol.Command, lines []string) {
	switch cmd.Name {
	case "lsinfo":
		printListInfo(w, mpdprotocol.ParseListInfo(lines))
	case "playlistinfo", "playlistid":
		printSongs(w, mpdprotocol.ParseSongs(lines))
	default:
		printLines(w, lines)
	}
}
