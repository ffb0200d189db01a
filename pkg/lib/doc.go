// Package lib provides a Go SDK to run shell commands the way the invk CLI does.
//
// Commands are run through a shell, their output is echoed live (unless
// hidden) and captured at the same time, then decoded into text.
//
// # Quick Start
//
//	client, err := lib.New(ctx, lib.Config{})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer client.Close()
//
//	res, err := client.Run(ctx, "uname -s", &lib.RunOptions{Hide: lib.HideBoth})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println(strings.TrimSpace(res.Stdout))
//
// # Options
//
//   - Hide: keeps streams off the terminal, capture is never affected.
//   - Warn: a nonzero exit is returned as a [Result] instead of an error.
//   - Pty: runs the command attached to a pseudo-terminal, stdout and stderr
//     are merged into [Result].Stdout.
//   - Encoding: how the output bytes are decoded. Invalid sequences are
//     replaced with U+FFFD, decoding never fails.
//
// # Error Handling
//
// All methods return errors that can be inspected with [errors.Is]:
//
//   - [ErrNonZeroExit]: The command exited with a nonzero code (and Warn was not set).
//     Use [errors.As] with [*ExitError] to get the [Result].
//   - [ErrSpawn]: The command could not be started (e.g. the shell is missing).
//   - [ErrPtyUnsupported]: Pty was requested on a platform without pseudo-terminals.
//   - [ErrNotValid]: Invalid input (e.g. empty command, unknown encoding).
//   - [ErrNotFound]: Resource does not exist.
//
// # History
//
// When [Config].HistoryDBPath is set every run is recorded on a SQLite
// database, use [Client.History] to list them.
//
// # Cancellation
//
// Cancelling the context passed to [Client.Run] interrupts the command. The
// returned [Result] keeps the output captured until then.
//
// # Thread Safety
//
// A [Client] is safe for concurrent use from multiple goroutines. Every run
// owns its own processes and descriptors.
package lib
