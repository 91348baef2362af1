package webhook

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/packfit/server/internal/module/webhook/domain"
	"github.com/packfit/server/internal/module/webhook/entity"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Repository is the event store. It exclusively owns webhook event rows;
// the processor and reconciler only read and write through it.
type Repository interface {
	// Upsert records a delivery idempotently. An existing row for the
	// (providerPaymentID, eventType) key is returned unchanged; only a
	// genuinely new key creates a row. The second return value reports
	// whether a row was created.
	Upsert(ctx context.Context, providerPaymentID string, eventType domain.EventType, rawPayload string) (*domain.WebhookEvent, bool, error)

	// Get returns one event by id.
	Get(ctx context.Context, id uuid.UUID) (*domain.WebhookEvent, error)

	// RecordOutcome persists the result of one processing attempt: a
	// single-row atomic update that increments attempt_count in SQL,
	// stamps last_attempt_at and overwrites status and outcome.
	RecordOutcome(ctx context.Context, eventID uuid.UUID, outcome domain.Outcome) error

	// ListIncomplete returns up to limit events awaiting reprocessing,
	// newest first. Each call is a fresh snapshot read.
	ListIncomplete(ctx context.Context, limit int) ([]*domain.WebhookEvent, error)

	// ListByStatus returns up to limit events in the given status, newest
	// first.
	ListByStatus(ctx context.Context, status domain.Status, limit int) ([]*domain.WebhookEvent, error)
}

// ErrEventNotFound is returned when no event exists for an id.
var ErrEventNotFound = errors.New("webhook event not found")

type repository struct {
	db *gorm.DB
}

// NewRepository creates a new webhook event repository.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) Upsert(ctx context.Context, providerPaymentID string, eventType domain.EventType, rawPayload string) (*domain.WebhookEvent, bool, error) {
	ent := entity.FromDomainEvent(domain.NewWebhookEvent(providerPaymentID, eventType, rawPayload))

	res := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "provider_payment_id"}, {Name: "event_type"}},
			DoNothing: true,
		}).
		Create(ent)
	if res.Error != nil {
		return nil, false, fmt.Errorf("upsert webhook event: %w", res.Error)
	}
	created := res.RowsAffected > 0

	// Read back through the dedup key so a lost conflict returns the
	// pre-existing row untouched.
	var stored entity.WebhookEventEntity
	err := r.db.WithContext(ctx).
		First(&stored, "provider_payment_id = ? AND event_type = ?", providerPaymentID, string(eventType)).Error
	if err != nil {
		return nil, false, fmt.Errorf("load webhook event: %w", err)
	}

	return stored.ToDomain(), created, nil
}

func (r *repository) Get(ctx context.Context, id uuid.UUID) (*domain.WebhookEvent, error) {
	var ent entity.WebhookEventEntity
	err := r.db.WithContext(ctx).First(&ent, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrEventNotFound
		}
		return nil, fmt.Errorf("get webhook event: %w", err)
	}
	return ent.ToDomain(), nil
}

func (r *repository) RecordOutcome(ctx context.Context, eventID uuid.UUID, outcome domain.Outcome) error {
	updates := map[string]interface{}{
		"status":                string(outcome.Status),
		"outcome_contract_id":   outcome.ContractID,
		"outcome_tenant_id":     outcome.TenantID,
		"outcome_enrollment_id": outcome.EnrollmentID,
		"outcome_reason":        outcome.Reason,
		"attempt_count":         gorm.Expr("attempt_count + 1"),
		"last_attempt_at":       time.Now(),
	}
	// The update only lands on rows whose status machine admits the
	// transition, so a writer racing a terminal outcome loses silently
	// instead of resurrecting the row.
	err := r.db.WithContext(ctx).
		Model(&entity.WebhookEventEntity{}).
		Where("id = ? AND status IN ?", eventID, transitionSources(outcome.Status)).
		Updates(updates).Error
	if err != nil {
		return fmt.Errorf("record outcome: %w", err)
	}
	return nil
}

// transitionSources lists the statuses allowed to move to target.
func transitionSources(target domain.Status) []string {
	var from []string
	for _, s := range domain.Statuses {
		if s.CanTransitionTo(target) {
			from = append(from, string(s))
		}
	}
	return from
}

func (r *repository) ListIncomplete(ctx context.Context, limit int) ([]*domain.WebhookEvent, error) {
	return r.ListByStatus(ctx, domain.StatusNeedsReprocessing, limit)
}

func (r *repository) ListByStatus(ctx context.Context, status domain.Status, limit int) ([]*domain.WebhookEvent, error) {
	var entities []*entity.WebhookEventEntity
	err := r.db.WithContext(ctx).
		Where("status = ?", string(status)).
		Order("created_at DESC").
		Limit(limit).
		Find(&entities).Error
	if err != nil {
		return nil, fmt.Errorf("list webhook events by status: %w", err)
	}

	events := make([]*domain.WebhookEvent, len(entities))
	for i, ent := range entities {
		events[i] = ent.ToDomain()
	}
	return events, nil
}
