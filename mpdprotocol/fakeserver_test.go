package mpdprotocol

import (
	"bufio"
	"net"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// fakeHandler answers one command line with response lines, including the
// terminating OK or ACK line.
type fakeHandler func(line string) []string

// fakeMPD is a single-connection MPD server over loopback TCP. It follows
// the idle rules of the real server: noidle is ignored when not idle, and
// any other command during idle closes the connection.
type fakeMPD struct {
	t        *testing.T
	listener net.Listener
	greeting string

	mu        sync.Mutex
	conn      net.Conn
	idle      bool
	pending   []string // changes reported on the next idle
	onNoidle  []string // changes reported when idle is cancelled
	handlers  map[string]fakeHandler
	violation bool

	received chan string
}

func newFakeMPD(t *testing.T) *fakeMPD {
	t.Helper()

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	s := &fakeMPD{
		t:        t,
		listener: ln,
		greeting: "OK MPD 0.23.5",
		handlers: make(map[string]fakeHandler),
		received: make(chan string, 4096),
	}
	t.Cleanup(func() {
		ln.Close()
		s.mu.Lock()
		if s.conn != nil {
			s.conn.Close()
		}
		s.mu.Unlock()
	})
	return s
}

// start accepts one connection and serves it in the background.
func (s *fakeMPD) start() *fakeMPD {
	go s.serve()
	return s
}

func (s *fakeMPD) addr() string {
	return s.listener.Addr().String()
}

// handle installs the handler for a command name.
func (s *fakeMPD) handle(name string, h fakeHandler) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.handlers[name] = h
}

// reply installs a handler answering with fixed lines followed by OK.
func (s *fakeMPD) reply(name string, lines ...string) {
	s.handle(name, func(string) []string {
		return append(append([]string{}, lines...), "OK")
	})
}

// notify reports changes now if the client is idle, or on its next idle.
func (s *fakeMPD) notify(subsystems ...string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.idle && s.conn != nil {
		s.idle = false
		s.writeLocked(changeLines(subsystems))
		return
	}
	s.pending = append(s.pending, subsystems...)
}

// reportOnNoidle makes the next noidle answer with these changes.
func (s *fakeMPD) reportOnNoidle(subsystems ...string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onNoidle = append(s.onNoidle, subsystems...)
}

// isIdle reports whether the client currently waits in idle.
func (s *fakeMPD) isIdle() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.idle
}

// sawViolation reports whether a command arrived during idle.
func (s *fakeMPD) sawViolation() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.violation
}

// dropConnection closes the connection from the server side.
func (s *fakeMPD) dropConnection() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.conn != nil {
		s.conn.Close()
	}
}

// expect waits for the next line received from the client.
func (s *fakeMPD) expect(want string) {
	s.t.Helper()
	select {
	case got := <-s.received:
		require.Equal(s.t, want, got)
	case <-time.After(2 * time.Second):
		s.t.Fatalf("timed out waiting for %q", want)
	}
}

// expectNothing checks that no line arrives for a short while.
func (s *fakeMPD) expectNothing() {
	s.t.Helper()
	select {
	case got := <-s.received:
		s.t.Fatalf("unexpected line %q", got)
	case <-time.After(50 * time.Millisecond):
	}
}

func (s *fakeMPD) serve() {
	conn, err := s.listener.Accept()
	if err != nil {
		return
	}
	s.mu.Lock()
	s.conn = conn
	if s.greeting != "" {
		s.writeLocked([]string{s.greeting})
	}
	s.mu.Unlock()

	scanner := bufio.NewScanner(conn)
	for scanner.Scan() {
		line := scanner.Text()
		select {
		case s.received <- line:
		default:
		}
		if !s.dispatch(line) {
			conn.Close()
			return
		}
	}
}

// dispatch answers one line. It returns false when the connection must be
// closed.
func (s *fakeMPD) dispatch(line string) bool {
	name := commandName(line)

	s.mu.Lock()
	switch name {
	case IdleCommand:
		if len(s.pending) > 0 {
			s.writeLocked(changeLines(s.pending))
			s.pending = nil
		} else {
			s.idle = true
		}
		s.mu.Unlock()
		return true

	case NoIdleCommand:
		if s.idle {
			s.idle = false
			s.writeLocked(changeLines(s.onNoidle))
			s.onNoidle = nil
		}
		s.mu.Unlock()
		return true

	case CloseCommand:
		s.mu.Unlock()
		return false
	}

	if s.idle {
		s.violation = true
		s.mu.Unlock()
		return false
	}
	h := s.handlers[name]
	s.mu.Unlock()

	// Handlers may block, so they run without the lock.
	resp := []string{"OK"}
	if h != nil {
		resp = h(line)
	}

	s.mu.Lock()
	s.writeLocked(resp)
	s.mu.Unlock()
	return true
}

// writeLocked sends lines in a single write. mu must be held.
func (s *fakeMPD) writeLocked(lines []string) {
	if len(lines) == 0 {
		return
	}
	_, _ = s.conn.Write([]byte(strings.Join(lines, "\n") + "\n"))
}

func changeLines(subsystems []string) []string {
	lines := make([]string, 0, len(subsystems)+1)
	for _, sub := range subsystems {
		lines = append(lines, ChangedKey+": "+sub)
	}
	return append(lines, SuccessMarker)
}
