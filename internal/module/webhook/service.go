package webhook

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/packfit/server/internal/module/webhook/domain"
	"github.com/packfit/server/internal/shared/metrics"
	"go.uber.org/zap"
)

// IngestResult is what the receipt path hands back to the transport.
// Outcome is nil when the synchronous attempt did not finish within the
// wait budget; processing then completes in the background and the caller
// answers "accepted, will reconcile".
type IngestResult struct {
	Event   *domain.WebhookEvent
	Outcome *domain.Outcome
}

// Service is the ingestion entry point behind the HTTP boundary.
type Service struct {
	repo      Repository
	processor *Processor
	syncWait  time.Duration
	metrics   *metrics.Metrics
	logger    *zap.Logger
}

// NewService creates the ingestion service.
func NewService(repo Repository, processor *Processor, syncWait time.Duration, m *metrics.Metrics, logger *zap.Logger) *Service {
	if syncWait <= 0 {
		syncWait = 5 * time.Second
	}
	return &Service{
		repo:      repo,
		processor: processor,
		syncWait:  syncWait,
		metrics:   m,
		logger:    logger,
	}
}

// Ingest durably records a delivery and attempts to process it in-line,
// bounded by the sync wait. The upsert is idempotent; a re-delivered
// terminal event is acknowledged without reprocessing.
func (s *Service) Ingest(ctx context.Context, providerPaymentID string, eventType domain.EventType, rawPayload string) (*IngestResult, error) {
	event, created, err := s.repo.Upsert(ctx, providerPaymentID, eventType, rawPayload)
	if err != nil {
		return nil, fmt.Errorf("ingest webhook: %w", err)
	}

	if s.metrics != nil {
		result := "duplicate"
		if created {
			result = "new"
		}
		s.metrics.WebhookEventsIngested.WithLabelValues(result).Inc()
	}

	if event.Status.IsTerminal() {
		outcome := event.Outcome
		return &IngestResult{Event: event, Outcome: &outcome}, nil
	}

	// Processing must not hold the HTTP response open indefinitely. The
	// attempt runs on a detached context so an early 202 response does not
	// cancel the in-flight gateway call; the outcome is persisted either
	// way.
	done := make(chan domain.Outcome, 1)
	go func() {
		done <- s.processor.Process(context.WithoutCancel(ctx), event)
	}()

	timer := time.NewTimer(s.syncWait)
	defer timer.Stop()

	select {
	case outcome := <-done:
		return &IngestResult{Event: event, Outcome: &outcome}, nil
	case <-timer.C:
		s.logger.Info("webhook processing deferred to reconciliation",
			zap.String("event_id", event.ID.String()),
			zap.String("payment_id", providerPaymentID),
			zap.Duration("waited", s.syncWait),
		)
		return &IngestResult{Event: event}, nil
	}
}

// GetEvent returns one stored event by id.
func (s *Service) GetEvent(ctx context.Context, id uuid.UUID) (*domain.WebhookEvent, error) {
	return s.repo.Get(ctx, id)
}

// ListEvents exposes stored events for operational inspection.
func (s *Service) ListEvents(ctx context.Context, status domain.Status, limit int) ([]*domain.WebhookEvent, error) {
	return s.repo.ListByStatus(ctx, status, limit)
}
