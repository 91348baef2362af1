package contract

import (
	"context"

	"github.com/packfit/server/internal/module/contract/domain"
	"go.uber.org/zap"
)

// MockRepository implements Repository for testing.
type MockRepository struct {
	contracts   map[int64]*domain.Contract
	enrollments map[string]*domain.Enrollment
	err         error

	tenantLookups int
}

func NewMockRepository() *MockRepository {
	return &MockRepository{
		contracts:   make(map[int64]*domain.Contract),
		enrollments: make(map[string]*domain.Enrollment),
	}
}

func (m *MockRepository) AddContract(c *domain.Contract) {
	m.contracts[c.ID] = c
}

func (m *MockRepository) GetContract(_ context.Context, id int64) (*domain.Contract, error) {
	if m.err != nil {
		return nil, m.err
	}
	c, ok := m.contracts[id]
	if !ok {
		return nil, ErrContractNotFound
	}
	return c, nil
}

func (m *MockRepository) TenantOf(_ context.Context, contractID int64) (int64, error) {
	m.tenantLookups++
	if m.err != nil {
		return 0, m.err
	}
	c, ok := m.contracts[contractID]
	if !ok {
		return 0, ErrContractNotFound
	}
	return c.TenantID, nil
}

func (m *MockRepository) CreateEnrollment(_ context.Context, enrollment *domain.Enrollment) error {
	if m.err != nil {
		return m.err
	}
	if _, ok := m.enrollments[enrollment.ProviderPaymentID]; ok {
		return ErrEnrollmentExists
	}
	m.enrollments[enrollment.ProviderPaymentID] = enrollment
	return nil
}

func (m *MockRepository) GetEnrollmentByPaymentID(_ context.Context, providerPaymentID string) (*domain.Enrollment, error) {
	if m.err != nil {
		return nil, m.err
	}
	en, ok := m.enrollments[providerPaymentID]
	if !ok {
		return nil, ErrEnrollmentNotFound
	}
	return en, nil
}

func testLogger() *zap.Logger {
	return zap.NewNop()
}
