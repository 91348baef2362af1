package contract

import (
	"context"
	"testing"

	"github.com/packfit/server/internal/module/contract/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolveRecognizedReference(t *testing.T) {
	repo := NewMockRepository()
	repo.AddContract(&domain.Contract{ID: 42, TenantID: 7, Status: domain.ContractActive})
	r := NewResolver(repo, nil, testLogger())

	corr, err := r.Resolve(context.Background(), "PAC-42-xyz")
	require.NoError(t, err)
	require.NotNil(t, corr)
	assert.Equal(t, int64(42), corr.ContractID)
	assert.Equal(t, int64(7), corr.TenantID)
}

func TestResolveBareReference(t *testing.T) {
	repo := NewMockRepository()
	repo.AddContract(&domain.Contract{ID: 9, TenantID: 3, Status: domain.ContractActive})
	r := NewResolver(repo, nil, testLogger())

	corr, err := r.Resolve(context.Background(), "PAC-9")
	require.NoError(t, err)
	require.NotNil(t, corr)
	assert.Equal(t, int64(9), corr.ContractID)
}

func TestResolveUnrecognizedPattern(t *testing.T) {
	repo := NewMockRepository()
	r := NewResolver(repo, nil, testLogger())

	for _, ref := range []string{"", "order-1234", "pac-42", "PAC-", "XPAC-42"} {
		corr, err := r.Resolve(context.Background(), ref)
		require.NoError(t, err, "reference %q", ref)
		assert.Nil(t, corr, "reference %q", ref)
	}
	assert.Zero(t, repo.tenantLookups)
}

func TestResolveUnknownContract(t *testing.T) {
	repo := NewMockRepository()
	r := NewResolver(repo, nil, testLogger())

	// The contract may be created by a concurrent process; absence is not
	// an error, the event is left for reconciliation.
	corr, err := r.Resolve(context.Background(), "PAC-42-xyz")
	require.NoError(t, err)
	assert.Nil(t, corr)
}

func TestResolvePropagatesLookupFailure(t *testing.T) {
	repo := NewMockRepository()
	repo.err = assert.AnError
	r := NewResolver(repo, nil, testLogger())

	_, err := r.Resolve(context.Background(), "PAC-42-xyz")
	assert.Error(t, err)
}
