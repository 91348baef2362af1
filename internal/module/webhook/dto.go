package webhook

import (
	"time"

	"github.com/google/uuid"
	"github.com/packfit/server/internal/module/webhook/domain"
)

// notification is the body Mercado Pago posts on a payment state change.
type notification struct {
	Type string `json:"type"`
	Data struct {
		ID string `json:"id"`
	} `json:"data"`
}

// EventResponse is the JSON shape of a stored webhook event.
type EventResponse struct {
	ID                uuid.UUID  `json:"id"`
	ProviderPaymentID string     `json:"provider_payment_id"`
	EventType         string     `json:"event_type"`
	Status            string     `json:"status"`
	ContractID        *int64     `json:"contract_id,omitempty"`
	TenantID          *int64     `json:"tenant_id,omitempty"`
	EnrollmentID      *uuid.UUID `json:"enrollment_id,omitempty"`
	Reason            string     `json:"reason,omitempty"`
	AttemptCount      int        `json:"attempt_count"`
	LastAttemptAt     *time.Time `json:"last_attempt_at,omitempty"`
	CreatedAt         time.Time  `json:"created_at"`
}

// toEventResponse maps a domain event to its response shape.
func toEventResponse(ev *domain.WebhookEvent) EventResponse {
	return EventResponse{
		ID:                ev.ID,
		ProviderPaymentID: ev.ProviderPaymentID,
		EventType:         string(ev.EventType),
		Status:            string(ev.Status),
		ContractID:        ev.Outcome.ContractID,
		TenantID:          ev.Outcome.TenantID,
		EnrollmentID:      ev.Outcome.EnrollmentID,
		Reason:            ev.Outcome.Reason,
		AttemptCount:      ev.AttemptCount,
		LastAttemptAt:     ev.LastAttemptAt,
		CreatedAt:         ev.CreatedAt,
	}
}
