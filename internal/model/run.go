package model

import "time"

// RunRecord is the history entry of a finished command run.
// Captured output is not stored, only its size.
type RunRecord struct {
	ID          string
	Command     string
	Exited      int
	Hide        Hide
	Warn        bool
	Pty         bool
	Encoding    string
	StdoutBytes int
	StderrBytes int
	StartedAt   time.Time
	FinishedAt  time.Time
}

// Duration returns how long the run took.
func (r RunRecord) Duration() time.Duration {
	if r.FinishedAt.Before(r.StartedAt) {
		return 0
	}
	return r.FinishedAt.Sub(r.StartedAt)
}
