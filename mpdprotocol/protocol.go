package mpdprotocol

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Protocol constants.
const (
	// GreetingPrefix starts the first line sent by the server. The protocol
	// version follows it.
	GreetingPrefix = "OK MPD "

	// SuccessMarker starts the line that terminates a successful response.
	SuccessMarker = "OK"

	// FailureMarker starts a failure line.
	FailureMarker = "ACK"

	// IdleCommand subscribes to change notifications.
	IdleCommand = "idle"

	// NoIdleCommand cancels a pending idle subscription.
	NoIdleCommand = "noidle"

	// CloseCommand asks the server to close the connection.
	CloseCommand = "close"

	// ChangedKey is the key of notification lines in an idle response.
	ChangedKey = "changed"

	// DefaultPort is the port MPD listens on unless configured otherwise.
	DefaultPort = 6600

	// DefaultHost is used by Dial when the address has no host part.
	DefaultHost = "localhost"

	// DialTimeout bounds connecting and reading the greeting.
	DialTimeout = 5 * time.Second
)

// Boundary fields used by listing-style responses.
const (
	BoundaryDirectory = "directory"
	BoundaryFile      = "file"
	BoundaryPlaylist  = "playlist"
)

// AckCode is the numeric error code carried by a failure line.
type AckCode int

// Error codes defined by the server.
const (
	AckNotList       AckCode = 1
	AckArg           AckCode = 2
	AckPassword      AckCode = 3
	AckPermission    AckCode = 4
	AckUnknown       AckCode = 5
	AckNoExist       AckCode = 50
	AckPlaylistMax   AckCode = 51
	AckSystem        AckCode = 52
	AckPlaylistLoad  AckCode = 53
	AckUpdateAlready AckCode = 54
	AckPlayerSync    AckCode = 55
	AckExist         AckCode = 56
)

var ackCodeNames = map[AckCode]string{
	AckNotList:       "ACK_ERROR_NOT_LIST",
	AckArg:           "ACK_ERROR_ARG",
	AckPassword:      "ACK_ERROR_PASSWORD",
	AckPermission:    "ACK_ERROR_PERMISSION",
	AckUnknown:       "ACK_ERROR_UNKNOWN",
	AckNoExist:       "ACK_ERROR_NO_EXIST",
	AckPlaylistMax:   "ACK_ERROR_PLAYLIST_MAX",
	AckSystem:        "ACK_ERROR_SYSTEM",
	AckPlaylistLoad:  "ACK_ERROR_PLAYLIST_LOAD",
	AckUpdateAlready: "ACK_ERROR_UPDATE_ALREADY",
	AckPlayerSync:    "ACK_ERROR_PLAYER_SYNC",
	AckExist:         "ACK_ERROR_EXIST",
}

// String returns the server's symbolic name for the code.
func (c AckCode) String() string {
	if name, ok := ackCodeNames[c]; ok {
		return name
	}
	return "ACK_ERROR_" + strconv.Itoa(int(c))
}

// reservedCommands are owned by the multiplexer. Sending them through
// Client.Command would desynchronise the idle state machine.
var reservedCommands = map[string]bool{
	IdleCommand:             true,
	NoIdleCommand:           true,
	CloseCommand:            true,
	"command_list_begin":    true,
	"command_list_ok_begin": true,
	"command_list_end":      true,
}

// normalizeCommand returns text terminated by exactly one newline. Text
// spanning several lines or naming a reserved command is rejected.
func normalizeCommand(text string) (string, error) {
	trimmed := strings.TrimRight(text, "\r\n")
	if strings.TrimSpace(trimmed) == "" {
		return "", fmt.Errorf("%w: empty command", ErrInvalidCommand)
	}
	if strings.ContainsAny(trimmed, "\r\n") {
		return "", fmt.Errorf("%w: command spans several lines", ErrInvalidCommand)
	}
	name := commandName(trimmed)
	if reservedCommands[name] {
		return "", fmt.Errorf("%w: %q is managed by the client", ErrInvalidCommand, name)
	}
	return trimmed + "\n", nil
}

// commandName returns the lowercased first word of a command line.
func commandName(text string) string {
	fields := strings.Fields(text)
	if len(fields) == 0 {
		return ""
	}
	return strings.ToLower(fields[0])
}

// idleLine formats the idle subscription, optionally restricted to subsystems.
func idleLine(subsystems []string) string {
	if len(subsystems) == 0 {
		return IdleCommand + "\n"
	}
	return IdleCommand + " " + strings.Join(subsystems, " ") + "\n"
}
