package mpdprotocol

import (
	"context"
	"io"
	"log/slog"
	"net"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// ChangeHandler receives the subsystems named by one idle notification.
//
// It runs on the goroutine that owns the connection: it must return
// quickly and must not wait for the result of a command on the same Client,
// which would deadlock. Start a goroutine for follow-up commands.
type ChangeHandler func(changes Changes)

// DisconnectHandler is called once when the connection is lost. It is not
// called after Close or Disconnect.
type DisconnectHandler func(err error)

// State describes the lifecycle of a Client.
type State int

const (
	// StateOpen accepts commands.
	StateOpen State = iota
	// StateClosing is entered when Close or Disconnect has been called.
	StateClosing
	// StateClosed is terminal.
	StateClosed
)

// String returns the state name.
func (s State) String() string {
	switch s {
	case StateOpen:
		return "open"
	case StateClosing:
		return "closing"
	case StateClosed:
		return "closed"
	default:
		return "unknown"
	}
}

// Client is a connection to an MPD server.
//
// A background goroutine owns the connection. While no command is pending
// it keeps the server in idle mode and forwards change notifications to the
// ChangeHandler; commands are serviced one at a time in submission order.
//
// Thread Safety:
// All methods are safe for concurrent use from multiple goroutines.
type Client struct {
	id      string
	addr    string
	version string
	logger  *slog.Logger

	queue *commandQueue
	mux   *multiplexer

	mu                sync.Mutex
	changeHandler     ChangeHandler
	disconnectHandler DisconnectHandler
}

type clientOptions struct {
	logger      *slog.Logger
	metrics     *Metrics
	subsystems  []string
	dialTimeout time.Duration
	password    string
}

// Option configures a Client.
type Option func(*clientOptions)

// WithLogger sets the logger. By default nothing is logged.
func WithLogger(logger *slog.Logger) Option {
	return func(o *clientOptions) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// WithMetrics records command and notification metrics.
func WithMetrics(m *Metrics) Option {
	return func(o *clientOptions) { o.metrics = m }
}

// WithIdleSubsystems restricts notifications to the given subsystems
// (for example "player", "mixer", "playlist").
func WithIdleSubsystems(subsystems ...string) Option {
	return func(o *clientOptions) { o.subsystems = subsystems }
}

// WithDialTimeout bounds connecting and reading the greeting.
func WithDialTimeout(d time.Duration) Option {
	return func(o *clientOptions) {
		if d > 0 {
			o.dialTimeout = d
		}
	}
}

// WithPassword authenticates right after connecting.
func WithPassword(password string) Option {
	return func(o *clientOptions) { o.password = password }
}

func buildOptions(opts []Option) clientOptions {
	o := clientOptions{
		logger:      slog.New(slog.DiscardHandler),
		dialTimeout: DialTimeout,
	}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// Dial connects to the server at addr. An address starting with '/' or '@'
// is a Unix socket; otherwise it is host[:port] with DefaultPort assumed.
func Dial(ctx context.Context, addr string, opts ...Option) (*Client, error) {
	o := buildOptions(opts)
	network, address := resolveAddress(addr)

	dialCtx, cancel := context.WithTimeout(ctx, o.dialTimeout)
	defer cancel()

	var d net.Dialer
	conn, err := d.DialContext(dialCtx, network, address)
	if err != nil {
		return nil, NewConnectionError("failed to connect to "+address, err)
	}

	return newClient(ctx, dialCtx, conn, address, o)
}

// NewClient runs the protocol over an established transport. It reads the
// greeting before returning. The client takes ownership of conn.
func NewClient(ctx context.Context, conn io.ReadWriteCloser, opts ...Option) (*Client, error) {
	o := buildOptions(opts)
	greetCtx, cancel := context.WithTimeout(ctx, o.dialTimeout)
	defer cancel()
	return newClient(ctx, greetCtx, conn, remoteAddr(conn), o)
}

func newClient(ctx, greetCtx context.Context, conn io.ReadWriteCloser, addr string, o clientOptions) (*Client, error) {
	id := uuid.NewString()
	logger := o.logger.With("conn", id, "addr", addr)

	queue := newCommandQueue()
	mux := newMultiplexer(conn, NewLineReader(conn), queue, logger)
	mux.metrics = o.metrics
	mux.subsystems = o.subsystems

	// Closing the transport is the only way to interrupt the blocking read.
	stop := context.AfterFunc(greetCtx, mux.closeConn)
	version, err := mux.readGreeting()
	if !stop() {
		if err == nil {
			err = greetCtx.Err()
		}
	}
	if err != nil {
		mux.closeConn()
		if ctxErr := greetCtx.Err(); ctxErr != nil {
			err = ctxErr
		}
		return nil, NewConnectionError("no greeting from server", err)
	}

	c := &Client{
		id:      id,
		addr:    addr,
		version: version,
		logger:  logger,
		queue:   queue,
		mux:     mux,
	}
	mux.notify = c.dispatchChanges
	mux.start()
	go c.watchDisconnect()

	logger.Info("connected", "protocol_version", version)

	if o.password != "" {
		if err := c.Password(ctx, o.password); err != nil {
			c.Disconnect()
			return nil, err
		}
	}
	return c, nil
}

func resolveAddress(addr string) (network, address string) {
	if strings.HasPrefix(addr, "/") || strings.HasPrefix(addr, "@") {
		return "unix", addr
	}
	if addr == "" {
		return "tcp", net.JoinHostPort(DefaultHost, strconv.Itoa(DefaultPort))
	}
	if _, _, err := net.SplitHostPort(addr); err != nil {
		return "tcp", net.JoinHostPort(addr, strconv.Itoa(DefaultPort))
	}
	return "tcp", addr
}

func remoteAddr(conn io.ReadWriteCloser) string {
	if nc, ok := conn.(net.Conn); ok && nc.RemoteAddr() != nil {
		return nc.RemoteAddr().String()
	}
	return ""
}

// ID returns the identifier used in this client's log records.
func (c *Client) ID() string {
	return c.id
}

// Addr returns the address the client is connected to.
func (c *Client) Addr() string {
	return c.addr
}

// ProtocolVersion returns the version announced in the server greeting.
func (c *Client) ProtocolVersion() string {
	return c.version
}

// State returns the current lifecycle state.
func (c *Client) State() State {
	select {
	case <-c.mux.done:
		return StateClosed
	default:
	}
	if c.mux.closing.Load() {
		return StateClosing
	}
	return StateOpen
}

// Done is closed once the connection is closed and every command has been
// resolved.
func (c *Client) Done() <-chan struct{} {
	return c.mux.done
}

// Err returns the transport error that closed the connection, or nil while
// open or after a requested close.
func (c *Client) Err() error {
	select {
	case <-c.mux.done:
		return c.mux.exitCause
	default:
		return nil
	}
}

// SetChangeHandler replaces the change handler. nil removes it.
func (c *Client) SetChangeHandler(handler ChangeHandler) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.changeHandler = handler
}

// SetDisconnectHandler sets the callback for unexpected disconnection.
func (c *Client) SetDisconnectHandler(handler DisconnectHandler) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.disconnectHandler = handler
}

func (c *Client) dispatchChanges(changes Changes) {
	c.mu.Lock()
	handler := c.changeHandler
	c.mu.Unlock()

	if handler != nil {
		handler(changes)
	}
}

func (c *Client) watchDisconnect() {
	<-c.mux.done
	if c.mux.exitCause == nil {
		return
	}

	c.mu.Lock()
	handler := c.disconnectHandler
	c.mu.Unlock()

	if handler != nil {
		handler(c.mux.exitCause)
	}
}

// Command sends one raw command line and returns the response payload. The
// line terminator is optional. A failure response is returned as a
// *ProtocolError; a lost connection as an error matching
// ErrConnectionClosed.
//
// If ctx ends before the command reaches the server the command is
// withdrawn; once sent, its response is discarded.
func (c *Client) Command(ctx context.Context, text string) ([]string, error) {
	line, err := normalizeCommand(text)
	if err != nil {
		return nil, err
	}

	pc, err := c.queue.enqueue(line)
	if err != nil {
		<-c.mux.done
		return nil, newClosedError(c.mux.exitCause)
	}

	select {
	case r := <-pc.result:
		return r.lines, r.err
	case <-ctx.Done():
		if c.queue.remove(pc) {
			c.logger.Debug("command withdrawn", "command", commandName(line))
		}
		return nil, ctx.Err()
	}
}

// Send formats cmd and sends it with Command.
func (c *Client) Send(ctx context.Context, cmd Command) ([]string, error) {
	return c.Command(ctx, cmd.Format())
}

// Close asks the server to close the connection and waits until every
// pending command has been resolved. A command already on the wire still
// receives its response; queued commands fail with ErrConnectionClosed.
// Because that response is awaited, a server that stalls mid-response
// keeps Close waiting until ctx ends, at which point the connection is
// dropped without further I/O. Pass a ctx with a deadline, or use
// Disconnect, when the server may be unresponsive.
func (c *Client) Close(ctx context.Context) error {
	c.mux.requestClose(closeGraceful)
	select {
	case <-c.mux.done:
		return nil
	case <-ctx.Done():
		c.mux.requestClose(closeForced)
		<-c.mux.done
		return ctx.Err()
	}
}

// Disconnect drops the connection immediately. Pending commands fail with
// ErrConnectionClosed.
func (c *Client) Disconnect() {
	c.mux.requestClose(closeForced)
	<-c.mux.done
}
