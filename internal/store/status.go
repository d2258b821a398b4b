package store

import "fmt"

// ValidTransition reports whether a job status move is allowed. Status is
// monotonic: pending -> processing -> {completed, failed}, no backward edges.
func ValidTransition(from, to Status) bool {
	if from == to {
		return true
	}
	switch from {
	case StatusPending:
		return to == StatusProcessing || to == StatusFailed
	case StatusProcessing:
		return to == StatusCompleted || to == StatusFailed
	case StatusCompleted, StatusFailed:
		return false
	default:
		return false
	}
}

// checkTransition converts an illegal status move into an error.
func checkTransition(from, to Status) error {
	if !ValidTransition(from, to) {
		return fmt.Errorf("invalid status transition: %s -> %s", from, to)
	}
	return nil
}
