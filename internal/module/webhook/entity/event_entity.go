package entity

import (
	"time"

	"github.com/google/uuid"
	"github.com/packfit/server/internal/module/webhook/domain"
)

// WebhookEventEntity is the GORM entity for WebhookEvent. The composite
// unique index is the dedup key: gateway re-delivery must never create a
// second row.
type WebhookEventEntity struct {
	ID                  uuid.UUID `gorm:"type:uuid;primaryKey"`
	ProviderPaymentID   string    `gorm:"not null;uniqueIndex:idx_webhook_events_dedup"`
	EventType           string    `gorm:"not null;uniqueIndex:idx_webhook_events_dedup"`
	RawPayload          string    `gorm:"type:text"`
	Status              string    `gorm:"not null;default:received;index"`
	OutcomeContractID   *int64
	OutcomeTenantID     *int64
	OutcomeEnrollmentID *uuid.UUID `gorm:"type:uuid"`
	OutcomeReason       string
	AttemptCount        int `gorm:"not null;default:0"`
	LastAttemptAt       *time.Time
	CreatedAt           time.Time
	UpdatedAt           time.Time
}

// TableName returns the database table name.
func (WebhookEventEntity) TableName() string {
	return "webhook_events"
}

// ToDomain converts entity to domain WebhookEvent.
func (e *WebhookEventEntity) ToDomain() *domain.WebhookEvent {
	return &domain.WebhookEvent{
		ID:                e.ID,
		ProviderPaymentID: e.ProviderPaymentID,
		EventType:         domain.EventType(e.EventType),
		RawPayload:        e.RawPayload,
		Status:            domain.Status(e.Status),
		Outcome: domain.Outcome{
			Status:       domain.Status(e.Status),
			ContractID:   e.OutcomeContractID,
			TenantID:     e.OutcomeTenantID,
			EnrollmentID: e.OutcomeEnrollmentID,
			Reason:       e.OutcomeReason,
		},
		AttemptCount:  e.AttemptCount,
		LastAttemptAt: e.LastAttemptAt,
		CreatedAt:     e.CreatedAt,
		UpdatedAt:     e.UpdatedAt,
	}
}

// FromDomainEvent converts domain WebhookEvent to entity.
func FromDomainEvent(ev *domain.WebhookEvent) *WebhookEventEntity {
	return &WebhookEventEntity{
		ID:                  ev.ID,
		ProviderPaymentID:   ev.ProviderPaymentID,
		EventType:           string(ev.EventType),
		RawPayload:          ev.RawPayload,
		Status:              string(ev.Status),
		OutcomeContractID:   ev.Outcome.ContractID,
		OutcomeTenantID:     ev.Outcome.TenantID,
		OutcomeEnrollmentID: ev.Outcome.EnrollmentID,
		OutcomeReason:       ev.Outcome.Reason,
		AttemptCount:        ev.AttemptCount,
		LastAttemptAt:       ev.LastAttemptAt,
		CreatedAt:           ev.CreatedAt,
		UpdatedAt:           ev.UpdatedAt,
	}
}
