// Package domain holds the webhook event aggregate and its processing
// outcome.
package domain

import (
	"time"

	"github.com/google/uuid"
)

// WebhookEvent is one durably recorded webhook occurrence. There is at most
// one event per (provider payment id, event type); gateway re-delivery maps
// onto the existing row. Rows are mutated in place by processing attempts
// and never deleted.
type WebhookEvent struct {
	ID                uuid.UUID
	ProviderPaymentID string
	EventType         EventType
	RawPayload        string
	Status            Status
	Outcome           Outcome
	AttemptCount      int
	LastAttemptAt     *time.Time
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// NewWebhookEvent creates an event for a first-time delivery.
func NewWebhookEvent(providerPaymentID string, eventType EventType, rawPayload string) *WebhookEvent {
	now := time.Now()
	return &WebhookEvent{
		ID:                uuid.New(),
		ProviderPaymentID: providerPaymentID,
		EventType:         eventType,
		RawPayload:        rawPayload,
		Status:            StatusReceived,
		Outcome:           Outcome{Status: StatusReceived},
		CreatedAt:         now,
		UpdatedAt:         now,
	}
}

// Outcome is the structured result of one processing attempt. The Status
// field is the variant tag; the remaining fields belong to the variant
// that set them.
type Outcome struct {
	Status       Status
	ContractID   *int64
	TenantID     *int64
	EnrollmentID *uuid.UUID
	Reason       string
}

// Succeeded builds the outcome of a fully applied payment.
func Succeeded(contractID, tenantID int64, enrollmentID uuid.UUID) Outcome {
	return Outcome{
		Status:       StatusSucceeded,
		ContractID:   &contractID,
		TenantID:     &tenantID,
		EnrollmentID: &enrollmentID,
	}
}

// NeedsReprocessing builds a retryable outcome; the next reconciliation
// pass re-drives the event.
func NeedsReprocessing(reason string) Outcome {
	return Outcome{Status: StatusNeedsReprocessing, Reason: reason}
}

// PermanentFailure builds a terminal failure outcome that is never retried.
func PermanentFailure(reason string) Outcome {
	return Outcome{Status: StatusFailedPermanent, Reason: reason}
}
