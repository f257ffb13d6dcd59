// =============================================================================
// watch.go - Change Notification Monitor
// =============================================================================
//
// "ampd watch" prints every change notification until interrupted. With
// --metrics-addr it also serves the client's Prometheus metrics, and with
// --reconnect it waits for the server to come back after a lost connection.
//
// =============================================================================

package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/PierreRust/ampdclient/internal/logging"
	"github.com/PierreRust/ampdclient/mpdprotocol"
)

// metricsShutdownTimeout bounds the graceful stop of the metrics server.
const metricsShutdownTimeout = 2 * time.Second

type watchOptions struct {
	metricsAddr string
	reconnect   bool
	timestamps  bool
	subsystems  []string
}

func newWatchCommand(a *app) *cobra.Command {
	var opts watchOptions

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Print change notifications as they arrive",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if len(opts.subsystems) > 0 {
				a.cfg.IdleSubsystems = opts.subsystems
			}
			if cmd.Flags().Changed("metrics-addr") {
				a.cfg.MetricsAddr = opts.metricsAddr
			}
			return a.runWatch(cmd.Context(), cmd.OutOrStdout(), opts)
		},
	}

	f := cmd.Flags()
	f.StringVar(&opts.metricsAddr, "metrics-addr", "", "serve Prometheus metrics on this address (e.g. :9101)")
	f.BoolVar(&opts.reconnect, "reconnect", false, "wait for the server after a lost connection")
	f.BoolVar(&opts.timestamps, "timestamps", false, "prefix each notification with the time")
	f.StringSliceVar(&opts.subsystems, "subsystem", nil, "only report these subsystems (repeatable)")
	return cmd
}

// runWatch prints notifications until ctx ends. Without --reconnect a lost
// connection is returned as an error.
func (a *app) runWatch(ctx context.Context, out io.Writer, opts watchOptions) error {
	if a.cfg.MetricsAddr != "" {
		stop, err := serveMetrics(a.cfg.MetricsAddr)
		if err != nil {
			return err
		}
		defer stop()
	}

	w := &syncWriter{w: out}
	for {
		client, err := a.connect(ctx)
		if err != nil && opts.reconnect && !isProtocolError(err) {
			client, err = waitForConnection(ctx, reconnectPollInterval, a.connect)
		}
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return err
		}

		err = watchClient(ctx, w, client, opts.timestamps)
		if err == nil || !opts.reconnect {
			return err
		}
		logging.CLI().Warn("connection lost, reconnecting", "error", err)
		fmt.Fprintf(w, "connection lost: %v\n", err)
	}
}

// watchClient prints notifications from client until ctx ends (returning
// nil after a polite close) or the connection drops (returning the cause).
func watchClient(ctx context.Context, w io.Writer, client *mpdprotocol.Client, timestamps bool) error {
	client.SetChangeHandler(func(changes mpdprotocol.Changes) {
		if timestamps {
			dimColor.Fprintf(w, "%s ", time.Now().Format(time.TimeOnly))
		}
		printChanges(w, changes)
	})

	select {
	case <-ctx.Done():
		closeClient(client)
		return nil
	case <-client.Done():
		if err := client.Err(); err != nil {
			return err
		}
		return mpdprotocol.ErrConnectionClosed
	}
}

// serveMetrics starts an HTTP server exposing /metrics. The returned func
// stops it.
func serveMetrics(addr string) (func(), error) {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("metrics listener: %w", err)
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	srv := &http.Server{
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	logger := logging.Metrics()
	go func() {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("metrics server", "error", err)
		}
	}()
	logger.Info("serving metrics", "addr", ln.Addr().String())

	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), metricsShutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(ctx); err != nil {
			logger.Debug("metrics server shutdown", "error", err)
		}
	}, nil
}
