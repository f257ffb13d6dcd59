// =============================================================================
// mockserver_test.go - Mock MPD Server for CLI Tests
// =============================================================================
//
// mockServer listens on a Unix socket and speaks enough of the MPD protocol
// for the CLI: it sends the greeting, parks idle requests until notify is
// called, answers noidle, and passes every other command to a handler.
//
// =============================================================================

package main

import (
	"bufio"
	"net"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

// mockServer is a multi-connection MPD mock.
type mockServer struct {
	listener   net.Listener
	socketPath string

	// handler returns the response to one command, including the final OK
	// or ACK line.
	handler func(cmd string) []string

	mu       sync.Mutex
	conns    map[net.Conn]bool // value is true while the connection is idle
	commands []string
	lastIdle string

	wg sync.WaitGroup
}

// startMockServer starts a mock on a fresh socket. A nil handler selects
// defaultMockHandler.
func startMockServer(t *testing.T, handler func(cmd string) []string) *mockServer {
	t.Helper()

	// Socket paths are limited to ~100 bytes, so avoid the long t.TempDir.
	tmpDir, err := os.MkdirTemp("/tmp", "ampd-test-")
	require.NoError(t, err)
	t.Cleanup(func() { os.RemoveAll(tmpDir) })
	socketPath := filepath.Join(tmpDir, "mpd.sock")

	listener, err := net.Listen("unix", socketPath)
	require.NoError(t, err)

	if handler == nil {
		handler = defaultMockHandler
	}
	ms := &mockServer{
		listener:   listener,
		socketPath: socketPath,
		handler:    handler,
		conns:      make(map[net.Conn]bool),
	}

	ms.wg.Add(1)
	go ms.acceptLoop()
	t.Cleanup(ms.stop)
	return ms
}

func (ms *mockServer) acceptLoop() {
	defer ms.wg.Done()
	for {
		conn, err := ms.listener.Accept()
		if err != nil {
			return
		}
		ms.mu.Lock()
		ms.conns[conn] = false
		ms.mu.Unlock()

		ms.wg.Add(1)
		go ms.handleConnection(conn)
	}
}

func (ms *mockServer) handleConnection(conn net.Conn) {
	defer ms.wg.Done()
	defer func() {
		ms.mu.Lock()
		delete(ms.conns, conn)
		ms.mu.Unlock()
		conn.Close()
	}()

	ms.write(conn, []string{"OK MPD 0.23.5"})

	scanner := bufio.NewScanner(conn)
	for scanner.Scan() {
		line := scanner.Text()
		name, _, _ := strings.Cut(line, " ")

		switch name {
		case "idle":
			ms.mu.Lock()
			ms.conns[conn] = true
			ms.lastIdle = line
			ms.mu.Unlock()
			continue
		case "noidle":
			ms.mu.Lock()
			wasIdle := ms.conns[conn]
			ms.conns[conn] = false
			ms.mu.Unlock()
			if wasIdle {
				ms.write(conn, []string{"OK"})
			}
			continue
		case "close":
			return
		}

		ms.mu.Lock()
		ms.commands = append(ms.commands, line)
		ms.mu.Unlock()
		ms.write(conn, ms.handler(line))
	}
}

func (ms *mockServer) write(conn net.Conn, lines []string) {
	_, _ = conn.Write([]byte(strings.Join(lines, "\n") + "\n"))
}

// notify sends a change notification to every idle connection. It returns
// the number of connections notified.
func (ms *mockServer) notify(subsystems ...string) int {
	lines := make([]string, 0, len(subsystems)+1)
	for _, s := range subsystems {
		lines = append(lines, "changed: "+s)
	}
	lines = append(lines, "OK")

	ms.mu.Lock()
	defer ms.mu.Unlock()
	n := 0
	for conn, idle := range ms.conns {
		if idle {
			ms.conns[conn] = false
			ms.write(conn, lines)
			n++
		}
	}
	return n
}

// idleCount returns the number of connections waiting in idle.
func (ms *mockServer) idleCount() int {
	ms.mu.Lock()
	defer ms.mu.Unlock()
	n := 0
	for _, idle := range ms.conns {
		if idle {
			n++
		}
	}
	return n
}

// dropAll closes every client connection from the server side.
func (ms *mockServer) dropAll() {
	ms.mu.Lock()
	defer ms.mu.Unlock()
	for conn := range ms.conns {
		conn.Close()
	}
}

// lastIdleLine returns the most recent idle request.
func (ms *mockServer) lastIdleLine() string {
	ms.mu.Lock()
	defer ms.mu.Unlock()
	return ms.lastIdle
}

// received returns the non-idle commands seen so far.
func (ms *mockServer) received() []string {
	ms.mu.Lock()
	defer ms.mu.Unlock()
	return append([]string(nil), ms.commands...)
}

func (ms *mockServer) stop() {
	ms.listener.Close()
	ms.dropAll()
	ms.wg.Wait()
	os.Remove(ms.socketPath)
}

// defaultMockHandler answers the commands used by the CLI with canned data.
func defaultMockHandler(cmd string) []string {
	name, args, _ := strings.Cut(cmd, " ")
	switch name {
	case "status":
		return []string{
			"volume: 50",
			"repeat: 1",
			"random: 0",
			"single: 0",
			"consume: 0",
			"playlistlength: 3",
			"song: 1",
			"state: play",
			"elapsed: 65.250",
			"duration: 200.500",
			"OK",
		}
	case "currentsong":
		return []string{
			"file: jazz/so_what.flac",
			"Artist: Miles Davis",
			"Title: So What",
			"Pos: 1",
			"Id: 7",
			"OK",
		}
	case "playlistinfo":
		return []string{
			"file: jazz/so_what.flac",
			"Artist: Miles Davis",
			"Title: So What",
			"Pos: 0",
			"Id: 7",
			"file: jazz/blue_in_green.flac",
			"Pos: 1",
			"Id: 8",
			"OK",
		}
	case "lsinfo":
		return []string{
			"directory: jazz",
			"Last-Modified: 2024-01-01T00:00:00Z",
			"playlist: favourites",
			"file: intro.mp3",
			"Title: Intro",
			"OK",
		}
	case "stats":
		return []string{"artists: 3", "albums: 4", "songs: 12", "OK"}
	case "addid":
		return []string{"Id: 42", "OK"}
	case "password":
		if args != "secret" {
			return []string{"ACK [3@0] {password} incorrect password"}
		}
		return []string{"OK"}
	case "setvol":
		return []string{"ACK [52@0] {setvol} problems setting volume"}
	case "bogus":
		return []string{`ACK [5@0] {} unknown command "bogus"`}
	default:
		return []string{"OK"}
	}
}
