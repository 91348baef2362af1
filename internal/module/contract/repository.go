package contract

import (
	"context"
	"errors"
	"fmt"

	"github.com/packfit/server/internal/module/contract/domain"
	"github.com/packfit/server/internal/module/contract/entity"
	"gorm.io/gorm"
)

// Repository defines the interface for contract and enrollment data access.
type Repository interface {
	// Contract operations
	GetContract(ctx context.Context, id int64) (*domain.Contract, error)
	TenantOf(ctx context.Context, contractID int64) (int64, error)

	// Enrollment operations
	CreateEnrollment(ctx context.Context, enrollment *domain.Enrollment) error
	GetEnrollmentByPaymentID(ctx context.Context, providerPaymentID string) (*domain.Enrollment, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository creates a new contract repository.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) GetContract(ctx context.Context, id int64) (*domain.Contract, error) {
	var ent entity.ContractEntity
	err := r.db.WithContext(ctx).First(&ent, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrContractNotFound
		}
		return nil, fmt.Errorf("get contract: %w", err)
	}
	return ent.ToDomain(), nil
}

func (r *repository) TenantOf(ctx context.Context, contractID int64) (int64, error) {
	var tenantID int64
	err := r.db.WithContext(ctx).
		Model(&entity.ContractEntity{}).
		Select("tenant_id").
		Where("id = ?", contractID).
		Take(&tenantID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return 0, ErrContractNotFound
		}
		return 0, fmt.Errorf("tenant of contract: %w", err)
	}
	return tenantID, nil
}

func (r *repository) CreateEnrollment(ctx context.Context, enrollment *domain.Enrollment) error {
	ent := entity.FromDomainEnrollment(enrollment)
	if err := r.db.WithContext(ctx).Create(ent).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return ErrEnrollmentExists
		}
		return fmt.Errorf("create enrollment: %w", err)
	}
	return nil
}

func (r *repository) GetEnrollmentByPaymentID(ctx context.Context, providerPaymentID string) (*domain.Enrollment, error) {
	var ent entity.EnrollmentEntity
	err := r.db.WithContext(ctx).First(&ent, "provider_payment_id = ?", providerPaymentID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrEnrollmentNotFound
		}
		return nil, fmt.Errorf("get enrollment by payment id: %w", err)
	}
	return ent.ToDomain(), nil
}
