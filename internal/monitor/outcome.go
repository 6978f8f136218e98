package monitor

import "fmt"

// Outcome classifies the result of a terminate command.
type Outcome int

const (
	// OutcomeTerminated means the server accepted the termination.
	OutcomeTerminated Outcome = iota
	// OutcomeRejected means the index is not in the current table, either
	// because it never existed or because a later poll replaced the table.
	OutcomeRejected
	// OutcomeDenied means the server answered but refused to terminate.
	OutcomeDenied
	// OutcomeFailed means the request itself failed.
	OutcomeFailed
)

func (o Outcome) String() string {
	switch o {
	case OutcomeTerminated:
		return "terminated"
	case OutcomeRejected:
		return "rejected"
	case OutcomeDenied:
		return "denied"
	default:
		return "failed"
	}
}

// Message renders the user-facing reply for this outcome.
func (o Outcome) Message(index int) string {
	switch o {
	case OutcomeTerminated:
		return fmt.Sprintf("Stream %d was stopped.", index)
	case OutcomeRejected:
		return "Invalid stream number."
	case OutcomeDenied:
		return fmt.Sprintf("Stream %d could not be stopped.", index)
	default:
		return "Something went wrong."
	}
}
