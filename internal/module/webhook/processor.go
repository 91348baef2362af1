package webhook

import (
	"context"
	"errors"
	"fmt"

	"github.com/packfit/server/internal/module/contract"
	contractdomain "github.com/packfit/server/internal/module/contract/domain"
	"github.com/packfit/server/internal/module/gateway"
	"github.com/packfit/server/internal/module/webhook/domain"
	"github.com/packfit/server/internal/shared/metrics"
	"go.uber.org/zap"
)

// Processor orchestrates one processing attempt for a webhook event:
// enrich from the gateway, correlate, apply the business effect, record
// the outcome. Both the synchronous receipt path and the reconciler drive
// it; racing on the same row is tolerated through the store's per-row
// atomicity and the activator's idempotency.
type Processor struct {
	repo        Repository
	gateway     gateway.Client
	resolver    *contract.Resolver
	activator   *contract.Activator
	maxAttempts int
	metrics     *metrics.Metrics
	logger      *zap.Logger
}

// NewProcessor creates a processor. maxAttempts <= 0 disables the retry
// cap.
func NewProcessor(
	repo Repository,
	gw gateway.Client,
	resolver *contract.Resolver,
	activator *contract.Activator,
	maxAttempts int,
	m *metrics.Metrics,
	logger *zap.Logger,
) *Processor {
	return &Processor{
		repo:        repo,
		gateway:     gw,
		resolver:    resolver,
		activator:   activator,
		maxAttempts: maxAttempts,
		metrics:     m,
		logger:      logger,
	}
}

// Process runs one attempt and persists its outcome exactly once. Events
// already in a terminal state are returned as-is without any mutation or
// side effect, so replays and overlapping reconciler passes are harmless.
// No failure below this method escapes it; every path ends in a recorded
// outcome.
func (p *Processor) Process(ctx context.Context, event *domain.WebhookEvent) domain.Outcome {
	if event.Status.IsTerminal() {
		return event.Outcome
	}

	outcome := p.attempt(ctx, event)

	if outcome.Status == domain.StatusNeedsReprocessing && p.maxAttempts > 0 && event.AttemptCount+1 >= p.maxAttempts {
		outcome = domain.PermanentFailure(fmt.Sprintf(
			"abandoned after %d attempts, last: %s", event.AttemptCount+1, outcome.Reason))
		p.logger.Error("webhook event abandoned",
			zap.String("event_id", event.ID.String()),
			zap.String("payment_id", event.ProviderPaymentID),
			zap.Int("attempts", event.AttemptCount+1),
			zap.String("reason", outcome.Reason),
		)
	}

	if err := p.repo.RecordOutcome(ctx, event.ID, outcome); err != nil {
		// The attempt itself is lost only as bookkeeping; the row stays in
		// its previous non-terminal state and will be reconciled again.
		p.logger.Error("failed to record outcome",
			zap.String("event_id", event.ID.String()),
			zap.Error(err),
		)
	}

	if p.metrics != nil {
		p.metrics.ProcessingOutcomes.WithLabelValues(string(outcome.Status)).Inc()
	}

	p.logger.Info("webhook event processed",
		zap.String("event_id", event.ID.String()),
		zap.String("payment_id", event.ProviderPaymentID),
		zap.String("status", string(outcome.Status)),
		zap.String("reason", outcome.Reason),
	)

	return outcome
}

// attempt classifies one pass through the pipeline. A panic in any
// collaborator is contained here and classified as retryable.
func (p *Processor) attempt(ctx context.Context, event *domain.WebhookEvent) (outcome domain.Outcome) {
	defer func() {
		if r := recover(); r != nil {
			p.logger.Error("panic while processing webhook event",
				zap.String("event_id", event.ID.String()),
				zap.Any("panic", r),
			)
			outcome = domain.NeedsReprocessing(fmt.Sprintf("panic: %v", r))
		}
	}()

	record, err := p.gateway.FetchPayment(ctx, event.ProviderPaymentID)
	if err != nil {
		return domain.NeedsReprocessing(fmt.Sprintf("gateway unavailable: %v", err))
	}

	// The provider's verdict gates the business effect. Collected payments
	// are applied; refused ones are dead; everything else may still move.
	switch {
	case record.Approved():
	case record.Status == "rejected" || record.Status == "cancelled":
		return domain.PermanentFailure("payment " + record.Status)
	default:
		return domain.NeedsReprocessing("payment not approved yet: " + record.Status)
	}

	corr, outcome, ok := p.correlate(ctx, record)
	if !ok {
		return outcome
	}

	enrollmentID, err := p.activator.Apply(ctx, corr, record)
	if err != nil {
		if errors.Is(err, contract.ErrContractInactive) {
			return domain.PermanentFailure(err.Error())
		}
		return domain.NeedsReprocessing(fmt.Sprintf("activation failed: %v", err))
	}

	return domain.Succeeded(corr.ContractID, corr.TenantID, enrollmentID)
}

// correlate derives the correlation key. Structured metadata is
// authoritative and never overridden by extraction.
func (p *Processor) correlate(ctx context.Context, record *gateway.PaymentRecord) (contractdomain.Correlation, domain.Outcome, bool) {
	if contractID, tenantID, ok := record.MetadataCorrelation(); ok {
		return contractdomain.Correlation{ContractID: contractID, TenantID: tenantID}, domain.Outcome{}, true
	}

	corr, err := p.resolver.Resolve(ctx, record.ExternalReference)
	if err != nil {
		return contractdomain.Correlation{}, domain.NeedsReprocessing(fmt.Sprintf("correlation lookup failed: %v", err)), false
	}
	if corr == nil {
		return contractdomain.Correlation{}, domain.NeedsReprocessing(
			"correlation unresolved for reference " + record.ExternalReference), false
	}
	return *corr, domain.Outcome{}, true
}
