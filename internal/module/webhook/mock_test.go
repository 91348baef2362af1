package webhook

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/packfit/server/internal/module/contract"
	contractdomain "github.com/packfit/server/internal/module/contract/domain"
	"github.com/packfit/server/internal/module/gateway"
	"github.com/packfit/server/internal/module/webhook/domain"
	"go.uber.org/zap"
)

// memStore implements Repository in memory with the same semantics as the
// database-backed store: idempotent upsert, serialized attempt counting.
type memStore struct {
	mu          sync.Mutex
	events      map[string]*domain.WebhookEvent
	recordCalls int
	listErr     error
	recordErr   error
}

func newMemStore() *memStore {
	return &memStore{events: make(map[string]*domain.WebhookEvent)}
}

func storeKey(providerPaymentID string, eventType domain.EventType) string {
	return providerPaymentID + "|" + string(eventType)
}

func (s *memStore) Upsert(_ context.Context, providerPaymentID string, eventType domain.EventType, rawPayload string) (*domain.WebhookEvent, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := storeKey(providerPaymentID, eventType)
	if existing, ok := s.events[key]; ok {
		cp := *existing
		return &cp, false, nil
	}

	ev := domain.NewWebhookEvent(providerPaymentID, eventType, rawPayload)
	s.events[key] = ev
	cp := *ev
	return &cp, true, nil
}

func (s *memStore) Get(_ context.Context, id uuid.UUID) (*domain.WebhookEvent, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, ev := range s.events {
		if ev.ID == id {
			cp := *ev
			return &cp, nil
		}
	}
	return nil, ErrEventNotFound
}

func (s *memStore) RecordOutcome(_ context.Context, eventID uuid.UUID, outcome domain.Outcome) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.recordCalls++
	if s.recordErr != nil {
		return s.recordErr
	}
	for _, ev := range s.events {
		if ev.ID == eventID {
			if !ev.Status.CanTransitionTo(outcome.Status) {
				return nil
			}
			now := time.Now()
			ev.Status = outcome.Status
			ev.Outcome = outcome
			ev.AttemptCount++
			ev.LastAttemptAt = &now
			ev.UpdatedAt = now
			return nil
		}
	}
	return ErrEventNotFound
}

func (s *memStore) ListIncomplete(ctx context.Context, limit int) ([]*domain.WebhookEvent, error) {
	return s.ListByStatus(ctx, domain.StatusNeedsReprocessing, limit)
}

func (s *memStore) ListByStatus(_ context.Context, status domain.Status, limit int) ([]*domain.WebhookEvent, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.listErr != nil {
		return nil, s.listErr
	}
	var out []*domain.WebhookEvent
	for _, ev := range s.events {
		if ev.Status == status && len(out) < limit {
			cp := *ev
			out = append(out, &cp)
		}
	}
	return out, nil
}

// lookup returns the stored row for assertions.
func (s *memStore) lookup(providerPaymentID string) *domain.WebhookEvent {
	s.mu.Lock()
	defer s.mu.Unlock()
	ev, ok := s.events[storeKey(providerPaymentID, domain.EventTypePayment)]
	if !ok {
		return nil
	}
	cp := *ev
	return &cp
}

// fakeGateway implements gateway.Client.
type fakeGateway struct {
	mu       sync.Mutex
	payments map[string]*gateway.PaymentRecord
	err      error
	delay    time.Duration
	panicMsg string
	calls    int
}

func newFakeGateway() *fakeGateway {
	return &fakeGateway{payments: make(map[string]*gateway.PaymentRecord)}
}

func (g *fakeGateway) FetchPayment(ctx context.Context, providerPaymentID string) (*gateway.PaymentRecord, error) {
	g.mu.Lock()
	g.calls++
	delay, err, panicMsg := g.delay, g.err, g.panicMsg
	rec := g.payments[providerPaymentID]
	g.mu.Unlock()

	if delay > 0 {
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return nil, gateway.ErrGatewayUnavailable
		}
	}
	if panicMsg != "" {
		panic(panicMsg)
	}
	if err != nil {
		return nil, err
	}
	if rec == nil {
		return nil, gateway.ErrGatewayUnavailable
	}
	return rec, nil
}

// fakeContracts implements contract.Repository.
type fakeContracts struct {
	mu          sync.Mutex
	contracts   map[int64]*contractdomain.Contract
	enrollments map[string]*contractdomain.Enrollment
	err         error
}

func newFakeContracts() *fakeContracts {
	return &fakeContracts{
		contracts:   make(map[int64]*contractdomain.Contract),
		enrollments: make(map[string]*contractdomain.Enrollment),
	}
}

func (f *fakeContracts) add(c *contractdomain.Contract) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.contracts[c.ID] = c
}

func (f *fakeContracts) enrollmentCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.enrollments)
}

func (f *fakeContracts) GetContract(_ context.Context, id int64) (*contractdomain.Contract, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	c, ok := f.contracts[id]
	if !ok {
		return nil, contract.ErrContractNotFound
	}
	return c, nil
}

func (f *fakeContracts) TenantOf(_ context.Context, contractID int64) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return 0, f.err
	}
	c, ok := f.contracts[contractID]
	if !ok {
		return 0, contract.ErrContractNotFound
	}
	return c.TenantID, nil
}

func (f *fakeContracts) CreateEnrollment(_ context.Context, enrollment *contractdomain.Enrollment) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	if _, ok := f.enrollments[enrollment.ProviderPaymentID]; ok {
		return contract.ErrEnrollmentExists
	}
	f.enrollments[enrollment.ProviderPaymentID] = enrollment
	return nil
}

func (f *fakeContracts) GetEnrollmentByPaymentID(_ context.Context, providerPaymentID string) (*contractdomain.Enrollment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	en, ok := f.enrollments[providerPaymentID]
	if !ok {
		return nil, contract.ErrEnrollmentNotFound
	}
	return en, nil
}

// fixture wires a full pipeline over in-memory collaborators.
type fixture struct {
	store     *memStore
	gateway   *fakeGateway
	contracts *fakeContracts
	processor *Processor
}

func newFixture(maxAttempts int) *fixture {
	store := newMemStore()
	gw := newFakeGateway()
	contracts := newFakeContracts()
	logger := zap.NewNop()

	resolver := contract.NewResolver(contracts, nil, logger)
	activator := contract.NewActivator(contracts, logger)
	processor := NewProcessor(store, gw, resolver, activator, maxAttempts, nil, logger)

	return &fixture{
		store:     store,
		gateway:   gw,
		contracts: contracts,
		processor: processor,
	}
}

func approvedRecord(id, externalReference string, metadata map[string]any) *gateway.PaymentRecord {
	return &gateway.PaymentRecord{
		ID:                id,
		Status:            "approved",
		Amount:            2500,
		Currency:          "ARS",
		PayerEmail:        "member@example.com",
		ExternalReference: externalReference,
		Metadata:          metadata,
	}
}
