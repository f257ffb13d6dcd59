// =============================================================================
// main.go - ampd Entry Point
// =============================================================================
//
// ampd is a command-line client for the Music Player Daemon. Without a
// subcommand it starts an interactive REPL; subcommands run one operation
// and exit.
//
// Configuration is resolved in this order (later wins):
//   1. Built-in defaults
//   2. The YAML config file (--config, $AMPD_CONFIG or
//      $XDG_CONFIG_HOME/ampd/config.yaml)
//   3. MPD_HOST / MPD_PORT
//   4. Command-line flags
//
// =============================================================================

package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/fatih/color"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/PierreRust/ampdclient/internal/config"
	"github.com/PierreRust/ampdclient/internal/logging"
	"github.com/PierreRust/ampdclient/mpdprotocol"
)

const (
	// version is the ampd release.
	version = "0.3.0"

	// appName is shown in the banner and in --version.
	appName = "ampd"

	// metricsNamespace prefixes every exported metric.
	metricsNamespace = "ampd"

	// closeTimeout bounds the polite close before the connection is dropped.
	closeTimeout = 2 * time.Second
)

func fullTitle() string {
	return fmt.Sprintf("%s v%s", appName, version)
}

func welcomeBanner(addr, protocolVersion string) string {
	return fmt.Sprintf(`%s - Music Player Daemon client
Connected to %s (protocol %s)

Type '.help' for available commands.
Type '.quit' to exit.
`, fullTitle(), addr, protocolVersion)
}

// =============================================================================
// Application State
// =============================================================================

// flagValues holds the persistent flags that override the config file.
type flagValues struct {
	configPath string
	host       string
	port       int
	socket     string
	password   string
	logLevel   string
	logFile    string
	jsonLogs   bool
	noColor    bool
}

// app carries the resolved configuration between cobra commands.
type app struct {
	flags   flagValues
	cfg     *config.Config
	metrics *mpdprotocol.Metrics
	getenv  func(string) string
}

func newApp() *app {
	return &app{getenv: os.Getenv}
}

// resolveConfig loads the config file and applies the environment and the
// flags that were set explicitly.
func (a *app) resolveConfig(cmd *cobra.Command) (*config.Config, error) {
	path := a.flags.configPath
	if path == "" {
		path = config.DefaultConfigPath()
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}
	if err := cfg.ApplyEnv(a.getenv); err != nil {
		return nil, err
	}

	flags := cmd.Flags()
	if flags.Changed("host") {
		cfg.Host = a.flags.host
		cfg.Socket = ""
	}
	if flags.Changed("port") {
		cfg.Port = a.flags.port
	}
	if flags.Changed("socket") {
		cfg.Socket = a.flags.socket
	}
	if flags.Changed("password") {
		cfg.Password = a.flags.password
	}
	if flags.Changed("log-level") {
		cfg.Log.Level = a.flags.logLevel
	}
	if flags.Changed("log-file") {
		cfg.Log.File = a.flags.logFile
	}
	if flags.Changed("json-logs") {
		cfg.Log.JSON = a.flags.jsonLogs
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// address returns the dial address, resolving "socket: auto".
func (a *app) address() string {
	if a.cfg.Socket == autoSocket {
		if path := discoverSocket(defaultSocketCandidates()); path != "" {
			return path
		}
		fallback := *a.cfg
		fallback.Socket = ""
		return fallback.Address()
	}
	return a.cfg.Address()
}

// connect dials the configured server.
func (a *app) connect(ctx context.Context) (*mpdprotocol.Client, error) {
	opts := []mpdprotocol.Option{
		mpdprotocol.WithLogger(logging.Client()),
		mpdprotocol.WithDialTimeout(a.cfg.DialTimeout),
		mpdprotocol.WithIdleSubsystems(a.cfg.IdleSubsystems...),
	}
	if a.cfg.Password != "" {
		opts = append(opts, mpdprotocol.WithPassword(a.cfg.Password))
	}
	if a.metrics != nil {
		opts = append(opts, mpdprotocol.WithMetrics(a.metrics))
	}

	addr := a.address()
	logging.CLI().Debug("connecting", "addr", addr)
	client, err := mpdprotocol.Dial(ctx, addr, opts...)
	if err != nil {
		return nil, err
	}
	return client, nil
}

// withClient connects, runs fn with a per-command timeout and closes the
// connection.
func (a *app) withClient(cmd *cobra.Command, fn func(ctx context.Context, c *mpdprotocol.Client) error) error {
	ctx, cancel := context.WithTimeout(cmd.Context(), a.cfg.CommandTimeout)
	defer cancel()

	client, err := a.connect(ctx)
	if err != nil {
		return err
	}
	defer closeClient(client)

	return fn(ctx, client)
}

// closeClient closes politely, falling back to a forced disconnect.
func closeClient(client *mpdprotocol.Client) {
	ctx, cancel := context.WithTimeout(context.Background(), closeTimeout)
	defer cancel()
	if err := client.Close(ctx); err != nil {
		logging.CLI().Debug("close", "error", err)
	}
}

// =============================================================================
// Root Command
// =============================================================================

func newRootCommand(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:           appName,
		Short:         "Command-line client for the Music Player Daemon",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          cobra.NoArgs,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := a.resolveConfig(cmd)
			if err != nil {
				return err
			}
			a.cfg = cfg

			if a.flags.noColor {
				color.NoColor = true
			}

			return logging.Initialize(logging.Config{
				Level:      cfg.Log.Level,
				File:       cfg.Log.File,
				MaxSizeMB:  cfg.Log.MaxSizeMB,
				MaxBackups: cfg.Log.MaxBackups,
				JSON:       cfg.Log.JSON,
				Console:    cmd.ErrOrStderr(),
			})
		},
		PersistentPostRunE: func(*cobra.Command, []string) error {
			return logging.Close()
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.runREPLCommand(cmd)
		},
	}
	root.SetVersionTemplate(fullTitle() + "\n")

	pf := root.PersistentFlags()
	pf.StringVarP(&a.flags.configPath, "config", "c", "", "config file (default $XDG_CONFIG_HOME/ampd/config.yaml)")
	pf.StringVarP(&a.flags.host, "host", "H", mpdprotocol.DefaultHost, "MPD host")
	pf.IntVarP(&a.flags.port, "port", "p", mpdprotocol.DefaultPort, "MPD port")
	pf.StringVar(&a.flags.socket, "socket", "", "MPD Unix socket path, or \"auto\" to search the usual locations")
	pf.StringVar(&a.flags.password, "password", "", "MPD password")
	pf.StringVar(&a.flags.logLevel, "log-level", "warn", "log level (debug, info, warn, error)")
	pf.StringVar(&a.flags.logFile, "log-file", "", "write logs to a rotated file")
	pf.BoolVar(&a.flags.jsonLogs, "json-logs", false, "log in JSON format")
	pf.BoolVar(&a.flags.noColor, "no-color", false, "disable colored output")

	root.AddCommand(newREPLCommand(a))
	addPlaybackCommands(root, a)
	addQueueCommands(root, a)
	addDatabaseCommands(root, a)
	root.AddCommand(newRawCommand(a))
	root.AddCommand(newWatchCommand(a))

	return root
}

// =============================================================================
// Signal Handling
// =============================================================================

// signalContext returns a context cancelled on SIGINT or SIGTERM so that
// long-running commands (watch, the REPL) close the connection cleanly.
func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
}

// =============================================================================
// Main Entry Point
// =============================================================================

func main() {
	ctx, stop := signalContext()
	defer stop()

	a := newApp()
	a.metrics = mpdprotocol.NewMetrics(metricsNamespace)
	if err := a.metrics.Register(prometheus.DefaultRegisterer); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: metrics disabled: %v\n", err)
		a.metrics = nil
	}

	if err := newRootCommand(a).ExecuteContext(ctx); err != nil {
		printError(os.Stderr, err)
		os.Exit(exitCode(err))
	}
}

// exitCode maps errors to process exit codes: 2 for server failures, 1 for
// everything else.
func exitCode(err error) int {
	if err == nil {
		return 0
	}
	if isProtocolError(err) {
		return 2
	}
	return 1
}
