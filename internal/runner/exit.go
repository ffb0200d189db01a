package runner

import (
	"os"
	osexec "os/exec"
	"syscall"
)

// waitExitCode waits for cmd and returns the real exit code of the process.
// A Wait error only matters when there is no process state to read the code
// from, cancellation errors come with a valid state.
func waitExitCode(cmd *osexec.Cmd) (int, error) {
	err := cmd.Wait()
	if cmd.ProcessState == nil {
		return -1, err
	}
	return exitCode(cmd.ProcessState), nil
}

// exitCode follows the shell convention for signaled processes (128 + signal).
func exitCode(state *os.ProcessState) int {
	if ws, ok := state.Sys().(syscall.WaitStatus); ok && ws.Signaled() {
		return 128 + int(ws.Signal())
	}
	return state.ExitCode()
}
