package model

// CheckStatus is the status of a doctor check.
type CheckStatus string

const (
	CheckStatusOK      CheckStatus = "ok"
	CheckStatusWarning CheckStatus = "warning"
	CheckStatusError   CheckStatus = "error"
)

// CheckResult is the result of a single doctor check.
type CheckResult struct {
	ID      string // Stable identifier, e.g. "shell_available".
	Message string
	Status  CheckStatus
}

// CheckSummary aggregates a set of check results by status.
type CheckSummary struct {
	OK       int
	Warnings int
	Errors   int
}

// Failed returns true when at least one check errored.
func (s CheckSummary) Failed() bool { return s.Errors > 0 }

// SummarizeChecks counts the check results by status. Unknown statuses are ignored.
func SummarizeChecks(results []CheckResult) CheckSummary {
	var s CheckSummary
	for _, r := range results {
		switch r.Status {
		case CheckStatusOK:
			s.OK++
		case CheckStatusWarning:
			s.Warnings++
		case CheckStatusError:
			s.Errors++
		}
	}
	return s
}
