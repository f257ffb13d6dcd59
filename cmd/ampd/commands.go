// =============================================================================
// commands.go - One-Shot Subcommands
// =============================================================================
//
// Each subcommand connects, runs one typed operation, prints the result and
// closes the connection. They share the persistent flags of the root command.
//
// =============================================================================

package main

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/PierreRust/ampdclient/mpdprotocol"
)

// clientFunc is the body of a subcommand once connected.
type clientFunc func(ctx context.Context, cmd *cobra.Command, c *mpdprotocol.Client, args []string) error

// simpleCommand builds a subcommand that runs fn against a fresh connection.
func simpleCommand(a *app, use, short string, args cobra.PositionalArgs, fn clientFunc) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  args,
		RunE: func(cmd *cobra.Command, argv []string) error {
			return a.withClient(cmd, func(ctx context.Context, c *mpdprotocol.Client) error {
				return fn(ctx, cmd, c, argv)
			})
		},
	}
}

// =============================================================================
// Playback
// =============================================================================

func addPlaybackCommands(root *cobra.Command, a *app) {
	root.AddCommand(
		simpleCommand(a, "status", "Show the player status and current song", cobra.NoArgs,
			func(ctx context.Context, cmd *cobra.Command, c *mpdprotocol.Client, _ []string) error {
				return showStatus(ctx, cmd.OutOrStdout(), c)
			}),

		simpleCommand(a, "play [pos]", "Start playback, optionally at a queue position", cobra.MaximumNArgs(1),
			func(ctx context.Context, _ *cobra.Command, c *mpdprotocol.Client, args []string) error {
				pos := -1
				if len(args) == 1 {
					var err error
					if pos, err = parseNonNegative("position", args[0]); err != nil {
						return err
					}
				}
				return c.Play(ctx, pos)
			}),

		simpleCommand(a, "pause", "Pause playback", cobra.NoArgs,
			func(ctx context.Context, _ *cobra.Command, c *mpdprotocol.Client, _ []string) error {
				return c.Pause(ctx, true)
			}),

		simpleCommand(a, "resume", "Resume paused playback", cobra.NoArgs,
			func(ctx context.Context, _ *cobra.Command, c *mpdprotocol.Client, _ []string) error {
				return c.Pause(ctx, false)
			}),

		simpleCommand(a, "next", "Play the next song", cobra.NoArgs,
			func(ctx context.Context, _ *cobra.Command, c *mpdprotocol.Client, _ []string) error {
				return c.Next(ctx)
			}),

		simpleCommand(a, "prev", "Play the previous song", cobra.NoArgs,
			func(ctx context.Context, _ *cobra.Command, c *mpdprotocol.Client, _ []string) error {
				return c.Previous(ctx)
			}),

		simpleCommand(a, "stop", "Stop playback", cobra.NoArgs,
			func(ctx context.Context, _ *cobra.Command, c *mpdprotocol.Client, _ []string) error {
				return c.Stop(ctx)
			}),

		simpleCommand(a, "volume <0-100>", "Set the volume", cobra.ExactArgs(1),
			func(ctx context.Context, _ *cobra.Command, c *mpdprotocol.Client, args []string) error {
				vol, err := parseNonNegative("volume", args[0])
				if err != nil {
					return err
				}
				if vol > 100 {
					return fmt.Errorf("volume %d out of range 0-100", vol)
				}
				return c.SetVolume(ctx, vol)
			}),

		simpleCommand(a, "crossfade <seconds>", "Set the crossfade duration", cobra.ExactArgs(1),
			func(ctx context.Context, _ *cobra.Command, c *mpdprotocol.Client, args []string) error {
				secs, err := parseNonNegative("seconds", args[0])
				if err != nil {
					return err
				}
				return c.Crossfade(ctx, secs)
			}),
	)

	modes := []struct {
		name  string
		short string
		set   func(*mpdprotocol.Client, context.Context, bool) error
	}{
		{"random", "Play the queue in random order", (*mpdprotocol.Client).Random},
		{"repeat", "Repeat the queue", (*mpdprotocol.Client).Repeat},
		{"single", "Stop or repeat after the current song", (*mpdprotocol.Client).Single},
		{"consume", "Remove songs from the queue once played", (*mpdprotocol.Client).Consume},
	}
	for _, m := range modes {
		root.AddCommand(simpleCommand(a, m.name+" <on|off>", m.short, cobra.ExactArgs(1),
			func(ctx context.Context, _ *cobra.Command, c *mpdprotocol.Client, args []string) error {
				on, err := parseOnOff(args[0])
				if err != nil {
					return err
				}
				return m.set(c, ctx, on)
			}))
	}
}

// =============================================================================
// Queue
// =============================================================================

func addQueueCommands(root *cobra.Command, a *app) {
	root.AddCommand(
		simpleCommand(a, "queue [pos|start:end]", "List the play queue", cobra.MaximumNArgs(1),
			func(ctx context.Context, cmd *cobra.Command, c *mpdprotocol.Client, args []string) error {
				var (
					songs []mpdprotocol.Song
					err   error
				)
				if len(args) == 0 {
					songs, err = c.PlaylistInfo(ctx, -1)
				} else {
					start, end, isRange, perr := parseRange(args[0])
					if perr != nil {
						return perr
					}
					if isRange {
						songs, err = c.PlaylistRange(ctx, start, end)
					} else {
						songs, err = c.PlaylistInfo(ctx, start)
					}
				}
				if err != nil {
					return err
				}
				printSongs(cmd.OutOrStdout(), songs)
				return nil
			}),

		simpleCommand(a, "add <uri>...", "Append songs or directories to the queue", cobra.MinimumNArgs(1),
			func(ctx context.Context, _ *cobra.Command, c *mpdprotocol.Client, args []string) error {
				for _, uri := range args {
					if err := c.Add(ctx, uri); err != nil {
						return err
					}
				}
				return nil
			}),

		simpleCommand(a, "addid <uri> [pos]", "Add one song and print its id", cobra.RangeArgs(1, 2),
			func(ctx context.Context, cmd *cobra.Command, c *mpdprotocol.Client, args []string) error {
				pos := -1
				if len(args) == 2 {
					var err error
					if pos, err = parseNonNegative("position", args[1]); err != nil {
						return err
					}
				}
				id, err := c.AddID(ctx, args[0], pos)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Id: %d\n", id)
				return nil
			}),

		simpleCommand(a, "del <pos|start:end>", "Remove songs from the queue", cobra.ExactArgs(1),
			func(ctx context.Context, _ *cobra.Command, c *mpdprotocol.Client, args []string) error {
				start, end, isRange, err := parseRange(args[0])
				if err != nil {
					return err
				}
				if isRange {
					return c.DeleteRange(ctx, start, end)
				}
				return c.Delete(ctx, start)
			}),

		simpleCommand(a, "clear", "Remove every song from the queue", cobra.NoArgs,
			func(ctx context.Context, _ *cobra.Command, c *mpdprotocol.Client, _ []string) error {
				return c.Clear(ctx)
			}),

		simpleCommand(a, "load <playlist>", "Append a stored playlist to the queue", cobra.ExactArgs(1),
			func(ctx context.Context, _ *cobra.Command, c *mpdprotocol.Client, args []string) error {
				return c.Load(ctx, args[0])
			}),
	)
}

// =============================================================================
// Database and Raw Access
// =============================================================================

func addDatabaseCommands(root *cobra.Command, a *app) {
	root.AddCommand(
		simpleCommand(a, "ls [path]", "List a database directory", cobra.MaximumNArgs(1),
			func(ctx context.Context, cmd *cobra.Command, c *mpdprotocol.Client, args []string) error {
				path := ""
				if len(args) == 1 {
					path = args[0]
				}
				info, err := c.ListInfo(ctx, path)
				if err != nil {
					return err
				}
				printListInfo(cmd.OutOrStdout(), info)
				return nil
			}),

		simpleCommand(a, "stats", "Show database and uptime statistics", cobra.NoArgs,
			func(ctx context.Context, cmd *cobra.Command, c *mpdprotocol.Client, _ []string) error {
				stats, err := c.Stats(ctx)
				if err != nil {
					return err
				}
				printAttrs(cmd.OutOrStdout(), stats)
				return nil
			}),
	)
}

func newRawCommand(a *app) *cobra.Command {
	return simpleCommand(a, "raw <command> [args...]", "Send one protocol command and print the response", cobra.MinimumNArgs(1),
		func(ctx context.Context, cmd *cobra.Command, c *mpdprotocol.Client, args []string) error {
			lines, err := c.Send(ctx, mpdprotocol.NewCommand(strings.ToLower(args[0]), args[1:]...))
			if err != nil {
				return err
			}
			printLines(cmd.OutOrStdout(), lines)
			return nil
		})
}

// =============================================================================
// Argument Parsing
// =============================================================================

func parseNonNegative(what, s string) (int, error) {
	n, err := strconv.Atoi(s)
	if err != nil || n < 0 {
		return 0, fmt.Errorf("invalid %s '%s': expected a non-negative integer", what, s)
	}
	return n, nil
}

// parseRange parses "N" or "START:END".
func parseRange(s string) (start, end int, isRange bool, err error) {
	first, second, isRange := strings.Cut(s, ":")
	if start, err = parseNonNegative("position", first); err != nil {
		return 0, 0, false, err
	}
	if !isRange {
		return start, 0, false, nil
	}
	if end, err = parseNonNegative("position", second); err != nil {
		return 0, 0, false, err
	}
	if end <= start {
		return 0, 0, false, fmt.Errorf("invalid range '%s': end must be greater than start", s)
	}
	return start, end, true, nil
}

func parseOnOff(s string) (bool, error) {
	switch strings.ToLower(s) {
	case "on", "1", "true", "yes":
		return true, nil
	case "off", "0", "false", "no":
		return false, nil
	}
	return false, fmt.Errorf("invalid value '%s': expected on or off", s)
}
