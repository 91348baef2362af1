package webhook

import (
	"context"
	"testing"
	"time"

	contractdomain "github.com/packfit/server/internal/module/contract/domain"
	"github.com/packfit/server/internal/module/webhook/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newService(f *fixture, syncWait time.Duration) *Service {
	return NewService(f.store, f.processor, syncWait, nil, zap.NewNop())
}

func TestIngestProcessesInline(t *testing.T) {
	f := newFixture(0)
	f.contracts.add(&contractdomain.Contract{ID: 42, TenantID: 7, Status: contractdomain.ContractActive})
	f.gateway.payments["P1"] = approvedRecord("P1", "PAC-42", nil)
	svc := newService(f, time.Second)

	res, err := svc.Ingest(context.Background(), "P1", domain.EventTypePayment, `{"data":{"id":"P1"}}`)

	require.NoError(t, err)
	require.NotNil(t, res.Outcome)
	assert.Equal(t, domain.StatusSucceeded, res.Outcome.Status)
	assert.Equal(t, domain.StatusSucceeded, f.store.lookup("P1").Status)
}

func TestIngestDefersSlowProcessing(t *testing.T) {
	f := newFixture(0)
	f.contracts.add(&contractdomain.Contract{ID: 42, TenantID: 7, Status: contractdomain.ContractActive})
	f.gateway.payments["P1"] = approvedRecord("P1", "PAC-42", nil)
	f.gateway.delay = 200 * time.Millisecond
	svc := newService(f, 20*time.Millisecond)

	res, err := svc.Ingest(context.Background(), "P1", domain.EventTypePayment, `{}`)

	require.NoError(t, err)
	assert.Nil(t, res.Outcome)
	require.NotNil(t, res.Event)
	assert.Equal(t, domain.StatusReceived, res.Event.Status)

	// The detached attempt still lands.
	require.Eventually(t, func() bool {
		return f.store.lookup("P1").Status == domain.StatusSucceeded
	}, 2*time.Second, 10*time.Millisecond)
}

func TestIngestDetachedFromCallerCancellation(t *testing.T) {
	f := newFixture(0)
	f.contracts.add(&contractdomain.Contract{ID: 42, TenantID: 7, Status: contractdomain.ContractActive})
	f.gateway.payments["P1"] = approvedRecord("P1", "PAC-42", nil)
	f.gateway.delay = 100 * time.Millisecond
	svc := newService(f, 10*time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	res, err := svc.Ingest(ctx, "P1", domain.EventTypePayment, `{}`)
	cancel()

	require.NoError(t, err)
	assert.Nil(t, res.Outcome)
	require.Eventually(t, func() bool {
		return f.store.lookup("P1").Status == domain.StatusSucceeded
	}, 2*time.Second, 10*time.Millisecond)
}

func TestIngestDuplicateDeliveryReusesRow(t *testing.T) {
	f := newFixture(0)
	// The payment never resolves, so the row stays retryable.
	svc := newService(f, 50*time.Millisecond)

	first, err := svc.Ingest(context.Background(), "P1", domain.EventTypePayment, `{"n":1}`)
	require.NoError(t, err)
	second, err := svc.Ingest(context.Background(), "P1", domain.EventTypePayment, `{"n":2}`)
	require.NoError(t, err)

	assert.Equal(t, first.Event.ID, second.Event.ID)
	assert.Equal(t, `{"n":1}`, f.store.lookup("P1").RawPayload)
}

func TestIngestTerminalReplayShortCircuits(t *testing.T) {
	f := newFixture(0)
	f.contracts.add(&contractdomain.Contract{ID: 42, TenantID: 7, Status: contractdomain.ContractActive})
	f.gateway.payments["P1"] = approvedRecord("P1", "PAC-42", nil)
	svc := newService(f, time.Second)

	_, err := svc.Ingest(context.Background(), "P1", domain.EventTypePayment, `{}`)
	require.NoError(t, err)
	gatewayCalls := f.gateway.calls

	res, err := svc.Ingest(context.Background(), "P1", domain.EventTypePayment, `{}`)

	require.NoError(t, err)
	require.NotNil(t, res.Outcome)
	assert.Equal(t, domain.StatusSucceeded, res.Outcome.Status)
	assert.Equal(t, gatewayCalls, f.gateway.calls)
	assert.Equal(t, 1, f.contracts.enrollmentCount())
}

func TestListEvents(t *testing.T) {
	f := newFixture(0)
	markIncomplete(t, f, "P1")
	svc := newService(f, time.Second)

	events, err := svc.ListEvents(context.Background(), domain.StatusNeedsReprocessing, 10)

	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, "P1", events[0].ProviderPaymentID)
}
