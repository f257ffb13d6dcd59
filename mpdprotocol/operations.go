package mpdprotocol

import (
	"context"
	"fmt"
)

// exec sends cmd and discards the payload.
func (c *Client) exec(ctx context.Context, cmd Command) error {
	_, err := c.Send(ctx, cmd)
	return err
}

// flat sends cmd and parses the payload as key/value pairs.
func (c *Client) flat(ctx context.Context, cmd Command) (Attrs, error) {
	lines, err := c.Send(ctx, cmd)
	if err != nil {
		return nil, err
	}
	return ParseFlat(lines), nil
}

// songs sends cmd and parses the payload as a list of songs.
func (c *Client) songs(ctx context.Context, cmd Command) ([]Song, error) {
	lines, err := c.Send(ctx, cmd)
	if err != nil {
		return nil, err
	}
	return ParseSongs(lines), nil
}

// Status returns the player status (state, volume, song, elapsed...).
func (c *Client) Status(ctx context.Context) (Attrs, error) {
	return c.flat(ctx, NewStatusCommand())
}

// Stats returns database and uptime statistics.
func (c *Client) Stats(ctx context.Context) (Attrs, error) {
	return c.flat(ctx, NewStatsCommand())
}

// CurrentSong describes the current song. The result is empty when the
// play queue is empty.
func (c *Client) CurrentSong(ctx context.Context) (Attrs, error) {
	return c.flat(ctx, NewCurrentSongCommand())
}

// ClearError clears the error message shown in the status.
func (c *Client) ClearError(ctx context.Context) error {
	return c.exec(ctx, NewClearErrorCommand())
}

// Ping checks that the server is responsive.
func (c *Client) Ping(ctx context.Context) error {
	return c.exec(ctx, NewPingCommand())
}

// Password authenticates the connection.
func (c *Client) Password(ctx context.Context, password string) error {
	return c.exec(ctx, NewPasswordCommand(password))
}

// ListInfo lists the content of the directory at path.
func (c *Client) ListInfo(ctx context.Context, path string) (ListInfo, error) {
	lines, err := c.Send(ctx, NewListInfoCommand(path))
	if err != nil {
		return ListInfo{}, err
	}
	return ParseListInfo(lines), nil
}

// Add appends a file or directory to the play queue.
func (c *Client) Add(ctx context.Context, uri string) error {
	return c.exec(ctx, NewAddCommand(uri))
}

// AddID adds a file to the play queue and returns its song id. A negative
// position appends.
func (c *Client) AddID(ctx context.Context, uri string, position int) (int, error) {
	attrs, err := c.flat(ctx, NewAddIDCommand(uri, position))
	if err != nil {
		return 0, err
	}
	id, err := attrs.Int("Id")
	if err != nil {
		return 0, fmt.Errorf("addid %q: %w", uri, err)
	}
	return id, nil
}

// Load appends a stored playlist to the play queue.
func (c *Client) Load(ctx context.Context, name string) error {
	return c.exec(ctx, NewLoadCommand(name))
}

// Clear empties the play queue.
func (c *Client) Clear(ctx context.Context) error {
	return c.exec(ctx, NewClearCommand())
}

// Delete removes the song at position.
func (c *Client) Delete(ctx context.Context, position int) error {
	return c.exec(ctx, NewDeleteCommand(position))
}

// DeleteRange removes the songs from start up to but not including end.
func (c *Client) DeleteRange(ctx context.Context, start, end int) error {
	return c.exec(ctx, NewDeleteRangeCommand(start, end))
}

// DeleteID removes the song with the given id.
func (c *Client) DeleteID(ctx context.Context, id int) error {
	return c.exec(ctx, NewDeleteIDCommand(id))
}

// Pause pauses playback when pause is true and resumes it otherwise.
func (c *Client) Pause(ctx context.Context, pause bool) error {
	return c.exec(ctx, NewPauseCommand(pause))
}

// Next plays the next song in the play queue.
func (c *Client) Next(ctx context.Context) error {
	return c.exec(ctx, NewNextCommand())
}

// Previous plays the previous song in the play queue.
func (c *Client) Previous(ctx context.Context) error {
	return c.exec(ctx, NewPreviousCommand())
}

// Stop stops playback.
func (c *Client) Stop(ctx context.Context) error {
	return c.exec(ctx, NewStopCommand())
}

// Play starts playback at position. A negative position resumes the
// current song.
func (c *Client) Play(ctx context.Context, position int) error {
	return c.exec(ctx, NewPlayCommand(position))
}

// PlayID starts playback at the song with the given id.
func (c *Client) PlayID(ctx context.Context, id int) error {
	return c.exec(ctx, NewPlayIDCommand(id))
}

// PlaylistInfo describes the play queue entry at position, or the whole
// play queue when position is negative.
func (c *Client) PlaylistInfo(ctx context.Context, position int) ([]Song, error) {
	return c.songs(ctx, NewPlaylistInfoCommand(position))
}

// PlaylistID describes the play queue entry with the given id.
func (c *Client) PlaylistID(ctx context.Context, id int) ([]Song, error) {
	return c.songs(ctx, NewPlaylistIDCommand(id))
}

// PlaylistRange describes the play queue entries from start up to but not
// including end.
func (c *Client) PlaylistRange(ctx context.Context, start, end int) ([]Song, error) {
	return c.songs(ctx, NewPlaylistRangeCommand(start, end))
}

// Consume toggles consume mode.
func (c *Client) Consume(ctx context.Context, on bool) error {
	return c.exec(ctx, NewConsumeCommand(on))
}

// Random toggles random mode.
func (c *Client) Random(ctx context.Context, on bool) error {
	return c.exec(ctx, NewRandomCommand(on))
}

// Repeat toggles repeat mode.
func (c *Client) Repeat(ctx context.Context, on bool) error {
	return c.exec(ctx, NewRepeatCommand(on))
}

// Single toggles single mode.
func (c *Client) Single(ctx context.Context, on bool) error {
	return c.exec(ctx, NewSingleCommand(on))
}

// Crossfade sets the crossfade between songs in seconds.
func (c *Client) Crossfade(ctx context.Context, seconds int) error {
	return c.exec(ctx, NewCrossfadeCommand(seconds))
}

// SetVolume sets the volume (0-100).
func (c *Client) SetVolume(ctx context.Context, volume int) error {
	return c.exec(ctx, NewSetVolumeCommand(volume))
}
