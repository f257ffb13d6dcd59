package mpdprotocol

import (
	"strconv"
)

// Attrs maps response keys to trimmed values.
type Attrs map[string]string

// Int returns the value of key parsed as a decimal integer.
func (a Attrs) Int(key string) (int, error) {
	v, ok := a[key]
	if !ok {
		return 0, newUnexpectedResponseError("missing field '" + key + "'")
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, newInvalidValueError(v, "field '"+key+"' is not an integer")
	}
	return n, nil
}

// Bool reports whether key is present with the value "1".
func (a Attrs) Bool(key string) bool {
	return a[key] == "1"
}

// Record is one entry of a listing response: the value of its boundary
// field plus every attribute that followed it.
type Record struct {
	Key   string
	Attrs Attrs
}

// Forest holds the records of a listing response grouped by boundary field.
type Forest map[string][]Record

// ListInfo is the content of a directory as returned by lsinfo.
type ListInfo struct {
	Directories []Record
	Files       []Record
	Playlists   []Record
}

// Len returns the total number of entries.
func (l ListInfo) Len() int {
	return len(l.Directories) + len(l.Files) + len(l.Playlists)
}

// Song is a play queue entry.
type Song = Record

// Changes is the list of subsystems reported by one idle notification, in
// the order the server sent them.
type Changes []string

// Contains reports whether subsystem is part of the notification.
func (c Changes) Contains(subsystem string) bool {
	for _, s := range c {
		if s == subsystem {
			return true
		}
	}
	return false
}
