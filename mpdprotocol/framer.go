package mpdprotocol

import (
	"bufio"
	"errors"
	"io"
	"strings"
	"unicode/utf8"
)

// LineReader exposes a byte stream as newline-terminated text lines.
type LineReader struct {
	r *bufio.Reader
}

// NewLineReader wraps r.
func NewLineReader(r io.Reader) *LineReader {
	return &LineReader{r: bufio.NewReader(r)}
}

// NextLine returns the next line without its terminator. A trailing '\r' is
// also stripped. ErrEndOfStream is returned once the stream ends, including
// when it ends in the middle of a line. A line with invalid UTF-8 is
// returned sanitised together with a *DecodeError.
func (lr *LineReader) NextLine() (string, error) {
	raw, err := lr.r.ReadString('\n')
	if err != nil {
		if errors.Is(err, io.EOF) {
			return "", ErrEndOfStream
		}
		return "", err
	}

	line := strings.TrimSuffix(raw[:len(raw)-1], "\r")
	if !utf8.ValidString(line) {
		return strings.ToValidUTF8(line, "\uFFFD"), &DecodeError{Raw: []byte(line)}
	}
	return line, nil
}
