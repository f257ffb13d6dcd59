package mpdprotocol

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// Sentinel errors for the MPD protocol.
var (
	// ErrConnectionClosed is matched by every error delivered to commands
	// that could not complete because the connection went away.
	ErrConnectionClosed = errors.New("connection closed")

	// ErrEndOfStream indicates the server closed the stream.
	ErrEndOfStream = errors.New("end of stream")

	// ErrMalformedResponse indicates a response that violates the framing
	// rules. The connection cannot recover from it.
	ErrMalformedResponse = errors.New("malformed response")

	// ErrInvalidCommand indicates command text the client refuses to send.
	ErrInvalidCommand = errors.New("invalid command")

	// ErrProtocol is matched by every *ProtocolError.
	ErrProtocol = errors.New("protocol error")

	// errQueueClosed is returned by the command queue after teardown.
	errQueueClosed = errors.New("command queue closed")
)

// ProtocolError is a failure line returned by the server for one command.
// It affects only the command that provoked it.
type ProtocolError struct {
	Code    AckCode
	Index   int    // position of the failing command inside a command list
	Command string // name of the failing command as reported by the server
	Message string // trimmed free text
	Line    string // the complete failure line

	raw string // text after the closing brace, untrimmed
}

// Error implements the error interface.
func (e *ProtocolError) Error() string {
	return fmt.Sprintf("mpd: %s (%d@%d) {%s}: %s", e.Code, int(e.Code), e.Index, e.Command, e.Message)
}

// Is reports whether target is ErrProtocol.
func (e *ProtocolError) Is(target error) bool {
	return target == ErrProtocol
}

// RawMessage returns the exact text after the closing brace, including
// leading whitespace.
func (e *ProtocolError) RawMessage() string {
	return e.raw
}

// ParseAck decomposes a failure line of the form
//
//	ACK [code@index] {command} message
//
// Delimiters are located left to right: '@', ']', '{' and '}'. Anything that
// does not follow this grammar yields an error wrapping ErrMalformedResponse.
func ParseAck(line string) (*ProtocolError, error) {
	if !strings.HasPrefix(line, FailureMarker) {
		return nil, newMalformedError(line)
	}
	rest := line[len(FailureMarker):]

	at := strings.IndexByte(rest, '@')
	if at < 0 {
		return nil, newMalformedError(line)
	}
	closeBracket := indexFrom(rest, ']', at+1)
	if closeBracket < 0 {
		return nil, newMalformedError(line)
	}
	openBrace := indexFrom(rest, '{', closeBracket+1)
	if openBrace < 0 {
		return nil, newMalformedError(line)
	}
	closeBrace := indexFrom(rest, '}', openBrace+1)
	if closeBrace < 0 {
		return nil, newMalformedError(line)
	}

	codeField := strings.TrimSpace(rest[:at])
	if !strings.HasPrefix(codeField, "[") {
		return nil, newMalformedError(line)
	}
	code, err := strconv.Atoi(codeField[1:])
	if err != nil {
		return nil, newMalformedError(line)
	}
	index, err := strconv.Atoi(rest[at+1 : closeBracket])
	if err != nil {
		return nil, newMalformedError(line)
	}

	raw := rest[closeBrace+1:]
	return &ProtocolError{
		Code:    AckCode(code),
		Index:   index,
		Command: rest[openBrace+1 : closeBrace],
		Message: strings.TrimSpace(raw),
		Line:    line,
		raw:     raw,
	}, nil
}

func indexFrom(s string, c byte, from int) int {
	if from > len(s) {
		return -1
	}
	i := strings.IndexByte(s[from:], c)
	if i < 0 {
		return -1
	}
	return from + i
}

func newMalformedError(line string) error {
	return fmt.Errorf("%w: %q", ErrMalformedResponse, line)
}

// DecodeError reports a line that is not valid UTF-8. The line is still
// delivered, with invalid sequences replaced by U+FFFD.
type DecodeError struct {
	Raw []byte
}

// Error implements the error interface.
func (e *DecodeError) Error() string {
	return fmt.Sprintf("invalid UTF-8 in line %q", e.Raw)
}

// ParseError represents an error found while parsing command text typed by
// a user or a value extracted from a response.
type ParseError struct {
	Kind    ParseErrorKind
	Value   string // The invalid value that caused the error
	Message string // Additional context
}

// ParseErrorKind categorizes parsing errors.
type ParseErrorKind int

const (
	// ErrKindInvalidCommand indicates an empty or reserved command.
	ErrKindInvalidCommand ParseErrorKind = iota
	// ErrKindInvalidValue indicates an argument of the wrong shape.
	ErrKindInvalidValue
	// ErrKindMissingArgument indicates a required argument was not provided.
	ErrKindMissingArgument
	// ErrKindTooManyArguments indicates surplus arguments.
	ErrKindTooManyArguments
	// ErrKindUnexpectedResponse indicates a response lacking an expected field.
	ErrKindUnexpectedResponse
)

// Error implements the error interface.
func (e *ParseError) Error() string {
	switch e.Kind {
	case ErrKindInvalidCommand:
		return fmt.Sprintf("invalid command '%s'", e.Value)
	case ErrKindInvalidValue:
		return fmt.Sprintf("invalid value '%s': %s", e.Value, e.Message)
	case ErrKindMissingArgument, ErrKindTooManyArguments:
		return e.Message
	case ErrKindUnexpectedResponse:
		return fmt.Sprintf("unexpected response: %s", e.Value)
	default:
		return fmt.Sprintf("parse error: %s", e.Value)
	}
}

func newInvalidCommandError(cmd string) error {
	return &ParseError{Kind: ErrKindInvalidCommand, Value: cmd}
}

func newInvalidValueError(val, msg string) error {
	return &ParseError{Kind: ErrKindInvalidValue, Value: val, Message: msg}
}

func newMissingArgumentError(msg string) error {
	return &ParseError{Kind: ErrKindMissingArgument, Message: msg}
}

func newTooManyArgumentsError(msg string) error {
	return &ParseError{Kind: ErrKindTooManyArguments, Message: msg}
}

func newUnexpectedResponseError(resp string) error {
	return &ParseError{Kind: ErrKindUnexpectedResponse, Value: resp}
}

// ConnectionError represents a connection-related error.
type ConnectionError struct {
	Message string
	Cause   error
}

// Error implements the error interface.
func (e *ConnectionError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("mpd connection: %s: %v", e.Message, e.Cause)
	}
	return fmt.Sprintf("mpd connection: %s", e.Message)
}

// Unwrap returns the underlying cause for errors.Is/As support.
func (e *ConnectionError) Unwrap() error {
	return e.Cause
}

// NewConnectionError creates a new connection error.
func NewConnectionError(message string, cause error) error {
	return &ConnectionError{Message: message, Cause: cause}
}

// newClosedError builds the error delivered to commands when the
// connection is torn down. It always matches ErrConnectionClosed.
func newClosedError(cause error) error {
	if cause == nil || errors.Is(cause, ErrConnectionClosed) {
		return &ConnectionError{Message: "closed", Cause: ErrConnectionClosed}
	}
	return &ConnectionError{Message: "closed", Cause: errors.Join(ErrConnectionClosed, cause)}
}
