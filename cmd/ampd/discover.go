// =============================================================================
// discover.go - Local MPD Socket Discovery
// =============================================================================
//
// MPD usually listens on a Unix socket in addition to TCP. When the socket
// setting is "auto", ampd looks for the socket in the locations used by the
// common MPD packages and falls back to TCP when none exists.
//
// The reconnect helper used by "ampd watch" also lives here: it polls the
// server until a connection succeeds, the same way a freshly started MPD is
// waited for.
//
// =============================================================================

package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/PierreRust/ampdclient/internal/logging"
	"github.com/PierreRust/ampdclient/mpdprotocol"
)

const (
	// autoSocket is the socket setting that enables discovery.
	autoSocket = "auto"

	// reconnectPollInterval is the delay between connection attempts.
	reconnectPollInterval = time.Second
)

// defaultSocketCandidates returns the socket paths to try, most specific
// first.
func defaultSocketCandidates() []string {
	var candidates []string
	if runtime := os.Getenv("XDG_RUNTIME_DIR"); runtime != "" {
		candidates = append(candidates, filepath.Join(runtime, "mpd", "socket"))
	}
	candidates = append(candidates, "/run/mpd/socket", "/var/run/mpd/socket")
	if home := homeDir(); home != "" {
		candidates = append(candidates,
			filepath.Join(home, ".mpd", "socket"),
			filepath.Join(home, ".config", "mpd", "socket"),
		)
	}
	return candidates
}

// discoverSocket returns the first candidate that is a Unix socket, or "".
func discoverSocket(candidates []string) string {
	for _, path := range candidates {
		if isSocket(path) {
			return path
		}
	}
	return ""
}

// isSocket checks if path exists and is a Unix domain socket.
func isSocket(path string) bool {
	info, err := os.Stat(path)
	if err != nil {
		return false
	}
	return info.Mode()&os.ModeSocket != 0
}

// homeDir returns the current user's home directory, or "" if unknown.
func homeDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return home
}

// waitForConnection calls connect until it succeeds or ctx ends. Protocol
// errors (for example a rejected password) are returned at once because
// retrying cannot fix them.
func waitForConnection(ctx context.Context, interval time.Duration, connect func(context.Context) (*mpdprotocol.Client, error)) (*mpdprotocol.Client, error) {
	logger := logging.CLI()
	for attempt := 1; ; attempt++ {
		client, err := connect(ctx)
		if err == nil {
			return client, nil
		}
		if isProtocolError(err) {
			return nil, err
		}
		logger.Info("connection attempt failed", "attempt", attempt, "error", err)

		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("gave up after %d attempts: %w", attempt, err)
		case <-time.After(interval):
		}
	}
}
