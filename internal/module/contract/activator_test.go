package contract

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/packfit/server/internal/module/contract/domain"
	"github.com/packfit/server/internal/module/gateway"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func approvedPayment(id string) *gateway.PaymentRecord {
	return &gateway.PaymentRecord{
		ID:         id,
		Status:     "approved",
		Amount:     4999.90,
		Currency:   "ARS",
		PayerEmail: "member@example.com",
	}
}

func TestApplyActivatesContract(t *testing.T) {
	repo := NewMockRepository()
	repo.AddContract(&domain.Contract{ID: 42, TenantID: 7, Status: domain.ContractActive})
	a := NewActivator(repo, testLogger())

	id, err := a.Apply(context.Background(), domain.Correlation{ContractID: 42, TenantID: 7}, approvedPayment("P1"))
	require.NoError(t, err)
	assert.NotEqual(t, uuid.Nil, id)

	en, err := repo.GetEnrollmentByPaymentID(context.Background(), "P1")
	require.NoError(t, err)
	assert.Equal(t, int64(42), en.ContractID)
	assert.Equal(t, int64(7), en.TenantID)
}

func TestApplyIsIdempotentPerPayment(t *testing.T) {
	repo := NewMockRepository()
	repo.AddContract(&domain.Contract{ID: 42, TenantID: 7, Status: domain.ContractActive})
	a := NewActivator(repo, testLogger())
	corr := domain.Correlation{ContractID: 42, TenantID: 7}

	first, err := a.Apply(context.Background(), corr, approvedPayment("P1"))
	require.NoError(t, err)

	second, err := a.Apply(context.Background(), corr, approvedPayment("P1"))
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Len(t, repo.enrollments, 1)
}

func TestApplyCancelledContractIsPermanent(t *testing.T) {
	repo := NewMockRepository()
	repo.AddContract(&domain.Contract{ID: 42, TenantID: 7, Status: domain.ContractCancelled})
	a := NewActivator(repo, testLogger())

	_, err := a.Apply(context.Background(), domain.Correlation{ContractID: 42, TenantID: 7}, approvedPayment("P1"))
	assert.ErrorIs(t, err, ErrContractInactive)
}

func TestApplyMissingContractIsTransient(t *testing.T) {
	repo := NewMockRepository()
	a := NewActivator(repo, testLogger())

	_, err := a.Apply(context.Background(), domain.Correlation{ContractID: 42, TenantID: 7}, approvedPayment("P1"))
	assert.ErrorIs(t, err, ErrContractNotFound)
	assert.NotErrorIs(t, err, ErrContractInactive)
}

func TestApplyTenantMismatch(t *testing.T) {
	repo := NewMockRepository()
	repo.AddContract(&domain.Contract{ID: 42, TenantID: 8, Status: domain.ContractActive})
	a := NewActivator(repo, testLogger())

	_, err := a.Apply(context.Background(), domain.Correlation{ContractID: 42, TenantID: 7}, approvedPayment("P1"))
	assert.ErrorIs(t, err, ErrContractNotFound)
	assert.Empty(t, repo.enrollments)
}
