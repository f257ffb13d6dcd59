package mpdprotocol

import (
	"strings"
)

// splitPair splits a response line on its first colon. The value is
// trimmed; the key is kept verbatim. A line without a colon is treated as a
// key with an empty value.
func splitPair(line string) (key, value string) {
	key, value, found := strings.Cut(line, ":")
	if !found {
		return line, ""
	}
	return key, strings.TrimSpace(value)
}

// ParseFlat parses "name: value" lines into a map. Later duplicates
// overwrite earlier ones.
func ParseFlat(lines []string) Attrs {
	attrs := make(Attrs, len(lines))
	for _, line := range lines {
		key, value := splitPair(line)
		attrs[key] = value
	}
	return attrs
}

// ParseForest groups lines into records. Each line whose key is one of
// boundaries starts a new record identified by that line's value; other
// lines become attributes of the current record. Lines seen before the
// first boundary are ignored. Every boundary is present in the result, with
// an empty slice when it has no records.
func ParseForest(lines []string, boundaries ...string) Forest {
	forest := make(Forest, len(boundaries))
	for _, b := range boundaries {
		forest[b] = []Record{}
	}

	var (
		kind    string
		current *Record
	)
	flush := func() {
		if current != nil {
			forest[kind] = append(forest[kind], *current)
		}
	}

	for _, line := range lines {
		key, value := splitPair(line)
		if _, isBoundary := forest[key]; isBoundary {
			flush()
			kind = key
			current = &Record{Key: value, Attrs: Attrs{}}
			continue
		}
		if current != nil {
			current.Attrs[key] = value
		}
	}
	flush()

	return forest
}

// ParseListInfo parses an lsinfo response.
func ParseListInfo(lines []string) ListInfo {
	forest := ParseForest(lines, BoundaryDirectory, BoundaryFile, BoundaryPlaylist)
	return ListInfo{
		Directories: forest[BoundaryDirectory],
		Files:       forest[BoundaryFile],
		Playlists:   forest[BoundaryPlaylist],
	}
}

// ParseSongs parses play queue listings where each entry starts at a file
// line.
func ParseSongs(lines []string) []Song {
	return ParseForest(lines, BoundaryFile)[BoundaryFile]
}

// ParseSingleValue extracts the value of key from a flat response.
func ParseSingleValue(lines []string, key string) (string, error) {
	attrs := ParseFlat(lines)
	v, ok := attrs[key]
	if !ok {
		return "", newUnexpectedResponseError("missing field '" + key + "'")
	}
	return v, nil
}

// ParseChanges returns the subsystems named by "changed:" lines.
func ParseChanges(lines []string) Changes {
	var changes Changes
	for _, line := range lines {
		key, value := splitPair(line)
		if key == ChangedKey {
			changes = append(changes, value)
		}
	}
	return changes
}

// responseBlock is the raw content of one response: payload lines and, when
// the response ended with a failure line, that line as the last element.
type responseBlock struct {
	lines  []string
	failed bool
}

// classify turns a block into payload lines or an error. Only a block that
// consists of exactly one failure line is an error. A failure line that does
// not follow the grammar is malformed.
func (b responseBlock) classify() ([]string, error) {
	if b.failed && len(b.lines) == 1 {
		pe, err := ParseAck(b.lines[0])
		if err != nil {
			return nil, err
		}
		return nil, pe
	}
	if b.lines == nil {
		return []string{}, nil
	}
	return b.lines, nil
}
