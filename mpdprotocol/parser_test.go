package mpdprotocol

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseFlat(t *testing.T) {
	attrs := ParseFlat([]string{
		"volume: 80",
		"state: play",
		"song: 3",
	})

	assert.Equal(t, Attrs{"volume": "80", "state": "play", "song": "3"}, attrs)
}

func TestParseFlatSplitsOnFirstColon(t *testing.T) {
	attrs := ParseFlat([]string{
		"time: 12:34",
		"Title:  Live: 1975  ",
		"noseparator",
	})

	assert.Equal(t, "12:34", attrs["time"])
	assert.Equal(t, "Live: 1975", attrs["Title"])
	v, ok := attrs["noseparator"]
	assert.True(t, ok)
	assert.Empty(t, v)
}

func TestParseFlatLastWriteWins(t *testing.T) {
	attrs := ParseFlat([]string{"Artist: A", "Artist: B"})
	assert.Equal(t, "B", attrs["Artist"])
}

func TestParseFlatEmpty(t *testing.T) {
	attrs := ParseFlat([]string{})
	assert.NotNil(t, attrs)
	assert.Empty(t, attrs)
}

func TestAttrsAccessors(t *testing.T) {
	attrs := Attrs{"Id": "42", "random": "1", "repeat": "0", "bad": "x"}

	id, err := attrs.Int("Id")
	require.NoError(t, err)
	assert.Equal(t, 42, id)

	_, err = attrs.Int("missing")
	var pe *ParseError
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, ErrKindUnexpectedResponse, pe.Kind)

	_, err = attrs.Int("bad")
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, ErrKindInvalidValue, pe.Kind)

	assert.True(t, attrs.Bool("random"))
	assert.False(t, attrs.Bool("repeat"))
	assert.False(t, attrs.Bool("missing"))
}

func TestParseForestEmpty(t *testing.T) {
	forest := ParseForest(nil, BoundaryDirectory, BoundaryFile, BoundaryPlaylist)

	require.Len(t, forest, 3)
	for _, b := range []string{BoundaryDirectory, BoundaryFile, BoundaryPlaylist} {
		records, ok := forest[b]
		assert.True(t, ok, b)
		assert.NotNil(t, records, b)
		assert.Empty(t, records, b)
	}
}

func TestParseForestGroupsAttributes(t *testing.T) {
	lines := []string{
		"directory: Rock",
		"Last-Modified: 2020-01-01T00:00:00Z",
		"file: Rock/one.flac",
		"Title: One",
		"Time: 200",
		"file: Rock/two.flac",
		"Title: Two",
		"playlist: Favourites",
	}

	forest := ParseForest(lines, BoundaryDirectory, BoundaryFile, BoundaryPlaylist)

	require.Len(t, forest[BoundaryDirectory], 1)
	require.Len(t, forest[BoundaryFile], 2)
	require.Len(t, forest[BoundaryPlaylist], 1)

	dir := forest[BoundaryDirectory][0]
	assert.Equal(t, "Rock", dir.Key)
	assert.Equal(t, Attrs{"Last-Modified": "2020-01-01T00:00:00Z"}, dir.Attrs)

	assert.Equal(t, "Rock/one.flac", forest[BoundaryFile][0].Key)
	assert.Equal(t, Attrs{"Title": "One", "Time": "200"}, forest[BoundaryFile][0].Attrs)
	assert.Equal(t, Attrs{"Title": "Two"}, forest[BoundaryFile][1].Attrs)

	assert.Equal(t, "Favourites", forest[BoundaryPlaylist][0].Key)
	assert.Empty(t, forest[BoundaryPlaylist][0].Attrs)
}

func TestParseForestIgnoresLeadingAttributes(t *testing.T) {
	forest := ParseForest([]string{"stray: value", "file: a.mp3"}, BoundaryFile)

	require.Len(t, forest[BoundaryFile], 1)
	assert.Empty(t, forest[BoundaryFile][0].Attrs)
}

func TestParseListInfoDirectories(t *testing.T) {
	var lines []string
	for i := 1; i <= 9; i++ {
		lines = append(lines, fmt.Sprintf("directory: Album %d", i))
	}

	info := ParseListInfo(lines)

	require.Len(t, info.Directories, 9)
	assert.Empty(t, info.Files)
	assert.Empty(t, info.Playlists)
	assert.Equal(t, 9, info.Len())
	assert.Equal(t, "Album 1", info.Directories[0].Key)
	assert.Equal(t, "Album 9", info.Directories[8].Key)
}

func TestParseSongs(t *testing.T) {
	songs := ParseSongs([]string{
		"file: a.mp3",
		"Pos: 0",
		"Id: 10",
		"file: b.mp3",
		"Pos: 1",
		"Id: 11",
	})

	require.Len(t, songs, 2)
	id, err := songs[1].Attrs.Int("Id")
	require.NoError(t, err)
	assert.Equal(t, 11, id)
}

func TestParseSingleValue(t *testing.T) {
	v, err := ParseSingleValue([]string{"Id: 7"}, "Id")
	require.NoError(t, err)
	assert.Equal(t, "7", v)

	_, err = ParseSingleValue([]string{}, "Id")
	assert.Error(t, err)
}

func TestParseChanges(t *testing.T) {
	changes := ParseChanges([]string{"changed: player", "changed: mixer", "other: x"})

	assert.Equal(t, Changes{"player", "mixer"}, changes)
	assert.True(t, changes.Contains("mixer"))
	assert.False(t, changes.Contains("options"))
	assert.Empty(t, ParseChanges(nil))
}

func TestParseAck(t *testing.T) {
	pe, err := ParseAck("ACK [50@0] {play} song doesn't exist: \"10240\"")
	require.NoError(t, err)

	assert.Equal(t, AckNoExist, pe.Code)
	assert.Equal(t, 0, pe.Index)
	assert.Equal(t, "play", pe.Command)
	assert.Equal(t, `song doesn't exist: "10240"`, pe.Message)
	assert.ErrorIs(t, pe, ErrProtocol)
	assert.Contains(t, pe.Error(), "ACK_ERROR_NO_EXIST")
}

func TestParseAckMessageTrimming(t *testing.T) {
	line := "ACK [2@1] {add}   padded message  "
	pe, err := ParseAck(line)
	require.NoError(t, err)

	assert.Equal(t, AckArg, pe.Code)
	assert.Equal(t, 1, pe.Index)
	assert.Equal(t, "add", pe.Command)
	assert.Equal(t, "padded message", pe.Message)
	assert.Equal(t, "   padded message  ", pe.RawMessage())
	assert.Equal(t, line, pe.Line)
}

func TestParseAckEmptyCommand(t *testing.T) {
	pe, err := ParseAck("ACK [5@0] {} unknown command \"foo\"")
	require.NoError(t, err)
	assert.Equal(t, AckUnknown, pe.Code)
	assert.Empty(t, pe.Command)
}

func TestParseAckMalformed(t *testing.T) {
	tests := []struct {
		name string
		line string
	}{
		{"no brackets", "ACK something went wrong"},
		{"missing at", "ACK [50] {play} x"},
		{"missing close bracket", "ACK [50@0 {play} x"},
		{"missing braces", "ACK [50@0] play x"},
		{"missing close brace", "ACK [50@0] {play x"},
		{"non-numeric code", "ACK [x@0] {play} x"},
		{"non-numeric index", "ACK [50@y] {play} x"},
		{"not a failure line", "OK"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseAck(tt.line)
			assert.ErrorIs(t, err, ErrMalformedResponse)
		})
	}
}

func TestClassify(t *testing.T) {
	t.Run("empty success", func(t *testing.T) {
		lines, err := responseBlock{}.classify()
		require.NoError(t, err)
		assert.NotNil(t, lines)
		assert.Empty(t, lines)
	})

	t.Run("payload", func(t *testing.T) {
		lines, err := responseBlock{lines: []string{"volume: 10"}}.classify()
		require.NoError(t, err)
		assert.Equal(t, []string{"volume: 10"}, lines)
	})

	t.Run("single failure line", func(t *testing.T) {
		_, err := responseBlock{lines: []string{"ACK [2@0] {x} bad"}, failed: true}.classify()
		var pe *ProtocolError
		require.ErrorAs(t, err, &pe)
		assert.Equal(t, AckArg, pe.Code)
	})

	t.Run("malformed failure line", func(t *testing.T) {
		_, err := responseBlock{lines: []string{"ACK nonsense"}, failed: true}.classify()
		assert.ErrorIs(t, err, ErrMalformedResponse)
	})

	t.Run("failure after payload is payload", func(t *testing.T) {
		block := responseBlock{lines: []string{"file: a.mp3", "ACK [2@0] {x} bad"}, failed: true}
		lines, err := block.classify()
		require.NoError(t, err)
		assert.Len(t, lines, 2)
	})
}
