package mpdprotocol

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"sync"
	"sync/atomic"
)

// The following states describe the lifecycle of the goroutine that owns a
// connection. Only that goroutine writes to the transport.
const (
	muxAwaitingGreeting muxState = iota // can progress to muxIdleSubscribed or muxClosed
	muxIdleSubscribed                   // can progress to muxInterrupting or muxClosed
	muxInterrupting                     // noidle sent, draining the idle response
	muxServicing                        // one caller command on the wire
	muxClosed                           // terminal
)

type muxState int32

func (s muxState) String() string {
	switch s {
	case muxAwaitingGreeting:
		return "awaiting-greeting"
	case muxIdleSubscribed:
		return "idle"
	case muxInterrupting:
		return "interrupting"
	case muxServicing:
		return "servicing"
	case muxClosed:
		return "closed"
	default:
		return "unknown"
	}
}

type closeMode int

const (
	closeGraceful closeMode = iota // send close, then tear down
	closeForced                    // tear down without further I/O
)

// inbound is one result of the reader goroutine.
type inbound struct {
	line string
	err  error
}

// multiplexer alternates a connection between idle subscription and caller
// command servicing. One goroutine runs the state machine, a second one
// reads lines; callers reach it only through the command queue.
type multiplexer struct {
	conn       io.ReadWriteCloser
	framer     *LineReader
	queue      *commandQueue
	logger     *slog.Logger
	metrics    *Metrics
	notify     func(Changes)
	subsystems []string

	lines    chan inbound
	closeReq chan closeMode
	stopped  chan struct{} // closed when teardown starts, releases the reader
	done     chan struct{} // closed when teardown is complete

	state     atomic.Int32
	closing   atomic.Bool
	connOnce  sync.Once
	current   *pendingCommand
	exitCause error
}

func newMultiplexer(conn io.ReadWriteCloser, framer *LineReader, queue *commandQueue, logger *slog.Logger) *multiplexer {
	return &multiplexer{
		conn:     conn,
		framer:   framer,
		queue:    queue,
		logger:   logger,
		notify:   func(Changes) {},
		lines:    make(chan inbound),
		closeReq: make(chan closeMode, 1),
		stopped:  make(chan struct{}),
		done:     make(chan struct{}),
	}
}

// readGreeting consumes lines until the greeting and returns the protocol
// version. It runs before the goroutines start.
func (m *multiplexer) readGreeting() (string, error) {
	for {
		line, err := m.framer.NextLine()
		if err != nil {
			var de *DecodeError
			if !errors.As(err, &de) {
				return "", err
			}
		}
		m.logger.Debug("recv", "line", line)
		if strings.HasPrefix(line, GreetingPrefix) {
			return strings.TrimSpace(line[len(GreetingPrefix):]), nil
		}
		if strings.HasPrefix(line, FailureMarker) {
			if pe, perr := ParseAck(line); perr == nil {
				return "", pe
			}
			return "", newMalformedError(line)
		}
	}
}

func (m *multiplexer) start() {
	m.metrics.setConnected(true)
	go m.readLoop()
	go m.run()
}

func (m *multiplexer) run() {
	cause := m.loop()
	if cause != nil && m.closing.Load() {
		// The transport error is a consequence of the requested close.
		m.logger.Debug("error during close", "error", cause)
		cause = nil
	}
	m.teardown(cause)
}

// loop runs the idle/command state machine until the connection closes. A
// nil return means the close was requested by the caller.
func (m *multiplexer) loop() error {
	subscribed := false
	idleEnabled := true

	for {
		// A requested close wins over re-subscribing and queued commands.
		if m.closing.Load() {
			m.shutdown(<-m.closeReq, subscribed)
			return nil
		}
		if !subscribed && idleEnabled {
			if err := m.send(idleLine(m.subsystems)); err != nil {
				return err
			}
			subscribed = true
			m.setState(muxIdleSubscribed)
		}

		select {
		case mode := <-m.closeReq:
			m.shutdown(mode, subscribed)
			return nil

		case in := <-m.lines:
			if in.err != nil {
				return in.err
			}
			if !subscribed {
				return newMalformedError(in.line)
			}
			subscribed = false
			block, err := m.collectBlock(in.line)
			if err != nil {
				return err
			}
			rejected, err := m.deliverIdle(block, false)
			if err != nil {
				return err
			}
			if rejected {
				idleEnabled = false
			}

		case <-m.queue.ready():
			if m.closing.Load() {
				m.shutdown(<-m.closeReq, subscribed)
				return nil
			}
			pc, ok := m.queue.take()
			if !ok {
				continue
			}
			if subscribed {
				m.setState(muxInterrupting)
				if err := m.send(NoIdleCommand + "\n"); err != nil {
					m.current = pc
					return err
				}
				block, err := m.readBlock()
				if err != nil {
					m.current = pc
					return err
				}
				if _, err := m.deliverIdle(block, true); err != nil {
					m.current = pc
					return err
				}
				subscribed = false
			}
			if err := m.service(pc); err != nil {
				return err
			}
			idleEnabled = true
		}
	}
}

// deliverIdle hands the terminating response of an idle subscription to
// the change handler. A failure line is logged and discarded; it reports
// rejected when the server refused the subscription itself.
func (m *multiplexer) deliverIdle(block responseBlock, interrupted bool) (rejected bool, err error) {
	lines, err := block.classify()
	if err != nil {
		var pe *ProtocolError
		if errors.As(err, &pe) {
			m.logger.Warn("discarding failure that ended idle", "error", pe.Error(), "interrupted", interrupted)
			return !interrupted, nil
		}
		return false, err
	}

	changes := ParseChanges(lines)
	if len(changes) == 0 {
		return false, nil
	}
	m.logger.Debug("change notification", "subsystems", []string(changes))
	m.metrics.observeChanges(changes)
	m.notify(changes)
	return false, nil
}

// service writes one caller command and resolves it with its response.
func (m *multiplexer) service(pc *pendingCommand) error {
	m.current = pc
	m.setState(muxServicing)

	if err := m.send(pc.text); err != nil {
		return err
	}
	block, err := m.readBlock()
	if err != nil {
		return err
	}
	lines, err := block.classify()
	if errors.Is(err, ErrMalformedResponse) {
		return err
	}

	m.current = nil
	m.metrics.observeCommand(commandName(pc.text), pc.enqueued, err)
	pc.resolve(lines, err)
	return nil
}

// shutdown performs the polite part of a requested close. A pending idle
// subscription is cancelled first so the server does not see a command
// during idle. No response is awaited.
func (m *multiplexer) shutdown(mode closeMode, subscribed bool) {
	if mode != closeGraceful {
		return
	}
	msg := CloseCommand + "\n"
	if subscribed {
		msg = NoIdleCommand + "\n" + msg
	}
	if err := m.send(msg); err != nil {
		m.logger.Debug("close command not sent", "error", err)
	}
}

// teardown closes the transport and resolves every outstanding command.
func (m *multiplexer) teardown(cause error) {
	m.setState(muxClosed)
	close(m.stopped)
	m.closeConn()

	closedErr := newClosedError(cause)
	if m.current != nil {
		m.metrics.observeCommand(commandName(m.current.text), m.current.enqueued, closedErr)
		m.current.resolve(nil, closedErr)
		m.current = nil
	}
	drained := m.queue.close()
	for _, pc := range drained {
		pc.resolve(nil, closedErr)
	}
	m.metrics.setConnected(false)

	if cause != nil {
		m.logger.Warn("connection lost", "error", cause, "failed_commands", len(drained))
	} else {
		m.logger.Info("connection closed", "failed_commands", len(drained))
	}
	m.exitCause = cause
	close(m.done)
}

// requestClose asks the state machine to stop. A forced close also closes
// the transport so blocked reads and writes return at once. closing is set
// before the mode is queued, so a loop that observes closing always finds
// a mode in closeReq.
func (m *multiplexer) requestClose(mode closeMode) {
	m.closing.Store(true)
	select {
	case m.closeReq <- mode:
	default:
	}
	if mode == closeForced {
		m.closeConn()
	}
}

func (m *multiplexer) closeConn() {
	m.connOnce.Do(func() {
		if err := m.conn.Close(); err != nil {
			m.logger.Debug("transport close", "error", err)
		}
	})
}

// readLoop is the only reader of the transport after the greeting.
func (m *multiplexer) readLoop() {
	for {
		line, err := m.framer.NextLine()
		var de *DecodeError
		if errors.As(err, &de) {
			m.logger.Warn("response line is not valid UTF-8", "error", de)
			err = nil
		}

		select {
		case m.lines <- inbound{line: line, err: err}:
		case <-m.stopped:
			return
		}
		if err != nil {
			return
		}
	}
}

func (m *multiplexer) readBlock() (responseBlock, error) {
	in := <-m.lines
	if in.err != nil {
		return responseBlock{}, in.err
	}
	return m.collectBlock(in.line)
}

// collectBlock gathers lines, starting with line, up to the success marker
// or a failure line.
func (m *multiplexer) collectBlock(line string) (responseBlock, error) {
	var block responseBlock
	for {
		m.logger.Debug("recv", "line", line)
		switch {
		case strings.HasPrefix(line, SuccessMarker):
			return block, nil
		case strings.HasPrefix(line, FailureMarker):
			block.lines = append(block.lines, line)
			block.failed = true
			return block, nil
		}
		block.lines = append(block.lines, line)

		in := <-m.lines
		if in.err != nil {
			return responseBlock{}, in.err
		}
		line = in.line
	}
}

func (m *multiplexer) send(text string) error {
	if m.logger.Enabled(context.Background(), slog.LevelDebug) {
		for _, l := range strings.Split(strings.TrimSuffix(text, "\n"), "\n") {
			m.logger.Debug("send", "line", redact(l))
		}
	}
	_, err := io.WriteString(m.conn, text)
	return err
}

func (m *multiplexer) setState(s muxState) {
	m.state.Store(int32(s))
}

func (m *multiplexer) currentState() muxState {
	return muxState(m.state.Load())
}

// redact hides the argument of password commands in logs.
func redact(line string) string {
	if commandName(line) == "password" {
		return "password ******"
	}
	return line
}
