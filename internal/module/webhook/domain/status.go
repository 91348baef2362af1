package domain

// Status represents the processing state of a webhook event.
type Status string

const (
	StatusReceived          Status = "received"
	StatusSucceeded         Status = "succeeded"
	StatusFailedPermanent   Status = "failed_permanent"
	StatusNeedsReprocessing Status = "needs_reprocessing"
)

// Statuses lists every event status.
var Statuses = []Status{StatusReceived, StatusSucceeded, StatusFailedPermanent, StatusNeedsReprocessing}

// IsTerminal returns true if the status is a terminal state. Terminal rows
// are never selected by reconciliation and never mutated again.
func (s Status) IsTerminal() bool {
	return s == StatusSucceeded || s == StatusFailedPermanent
}

// CanTransitionTo returns true if the status can transition to the target status.
func (s Status) CanTransitionTo(target Status) bool {
	switch s {
	case StatusReceived, StatusNeedsReprocessing:
		return target == StatusSucceeded || target == StatusFailedPermanent || target == StatusNeedsReprocessing
	default:
		return false // Terminal states
	}
}

// EventType is the category of a webhook notification.
type EventType string

const (
	// EventTypePayment is a payment state-change notification.
	EventTypePayment EventType = "payment"
)
