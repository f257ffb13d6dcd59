// Package mpdprotocol implements the client side of the MPD (Music Player
// Daemon) line protocol.
//
// One connection is shared between caller commands and idle change
// notifications. A background goroutine keeps the server in idle mode while
// no command is pending, interrupts it with noidle when a command arrives,
// services queued commands one at a time in submission order and then
// subscribes again.
//
// # Protocol Overview
//
//	Greeting (server):   OK MPD <version>\n
//	Request (client):    <command> [arguments...]\n
//	Response payload:    <key>: <value>\n (zero or more)
//	Success terminator:  OK\n
//	Failure line:        ACK [<code>@<index>] {<command>} <message>\n
//
// An idle subscription ends with a response of "changed: <subsystem>" lines:
//
//	CLI: idle
//	CLI: noidle
//	SRV: changed: player
//	SRV: OK
//	CLI: status
//	SRV: volume: 80
//	SRV: state: play
//	SRV: OK
//	CLI: play 99
//	SRV: ACK [2@0] {play} Bad song index
//
// # Basic Usage
//
//	client, err := mpdprotocol.Dial(ctx, "localhost:6600",
//	    mpdprotocol.WithLogger(logger))
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer client.Close(context.Background())
//
//	status, err := client.Status(ctx)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println(status["state"])
//
// # Change Notifications
//
//	client.SetChangeHandler(func(changes mpdprotocol.Changes) {
//	    if changes.Contains("mixer") {
//	        go refreshVolume()
//	    }
//	})
//
// The handler runs on the goroutine that owns the connection. It must not
// wait for commands on the same client.
//
// # Errors
//
// A failure line is returned as a *ProtocolError to the caller whose
// command caused it; the connection stays usable. Transport failures and
// malformed responses close the connection, and every pending command then
// fails with an error matching ErrConnectionClosed.
//
// # Commands
//
// Typed methods cover the status, database listing, play queue, playback
// and mode commands. Client.Command sends any other command line, and
// ParseCommandLine turns user input into a validated Command.
//
// # Thread Safety
//
// The Client type is safe for concurrent use from multiple goroutines.
package mpdprotocol
