//go:build !windows

package lib_test

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/slok/invk/pkg/lib"
)

// This example shows how to run a command capturing its output without echoing it.
func Example_capture() {
	ctx := context.Background()

	client, err := lib.New(ctx, lib.Config{Stdout: io.Discard, Stderr: io.Discard})
	if err != nil {
		panic(err)
	}
	defer client.Close()

	res, err := client.Run(ctx, "echo hello; echo world >&2", &lib.RunOptions{Hide: lib.HideBoth})
	if err != nil {
		panic(err)
	}

	fmt.Printf("stdout: %q\n", res.Stdout)
	fmt.Printf("stderr: %q\n", res.Stderr)

	// Output:
	// stdout: "hello\n"
	// stderr: "world\n"
}

// This example shows how to handle failed commands.
func Example_errors() {
	ctx := context.Background()

	client, err := lib.New(ctx, lib.Config{Stdout: io.Discard, Stderr: io.Discard})
	if err != nil {
		panic(err)
	}
	defer client.Close()

	_, err = client.Run(ctx, "exit 3", nil)
	var exitErr *lib.ExitError
	if errors.As(err, &exitErr) {
		fmt.Printf("failed with code %d\n", exitErr.Result.Exited)
	}

	// With warn the failure is data.
	res, err := client.Run(ctx, "exit 3", &lib.RunOptions{Warn: true})
	if err != nil {
		panic(err)
	}
	fmt.Printf("warned with code %d (failed: %t)\n", res.Exited, res.Failed())

	// Output:
	// failed with code 3
	// warned with code 3 (failed: true)
}

// This example shows how pty runs merge both streams.
func Example_pty() {
	ctx := context.Background()

	client, err := lib.New(ctx, lib.Config{Stdout: io.Discard, Stderr: io.Discard})
	if err != nil {
		panic(err)
	}
	defer client.Close()

	res, err := client.Run(ctx, "echo out; echo err >&2", &lib.RunOptions{Pty: true})
	if err != nil {
		panic(err)
	}

	fmt.Printf("stdout: %q\n", res.Stdout)
	fmt.Printf("stderr: %q\n", res.Stderr)

	// Output:
	// stdout: "out\r\nerr\r\n"
	// stderr: ""
}
