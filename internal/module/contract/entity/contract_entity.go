package entity

import (
	"time"

	"github.com/google/uuid"
	"github.com/packfit/server/internal/module/contract/domain"
)

// ContractEntity is the GORM entity for Contract.
type ContractEntity struct {
	ID          int64  `gorm:"primaryKey"`
	TenantID    int64  `gorm:"not null;index"`
	PackageName string
	MemberEmail string
	Status      string `gorm:"not null;default:active"`
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// TableName returns the database table name.
func (ContractEntity) TableName() string {
	return "contracts"
}

// ToDomain converts entity to domain Contract.
func (e *ContractEntity) ToDomain() *domain.Contract {
	return &domain.Contract{
		ID:          e.ID,
		TenantID:    e.TenantID,
		PackageName: e.PackageName,
		MemberEmail: e.MemberEmail,
		Status:      domain.ContractStatus(e.Status),
		CreatedAt:   e.CreatedAt,
		UpdatedAt:   e.UpdatedAt,
	}
}

// FromDomainContract converts domain Contract to entity.
func FromDomainContract(c *domain.Contract) *ContractEntity {
	return &ContractEntity{
		ID:          c.ID,
		TenantID:    c.TenantID,
		PackageName: c.PackageName,
		MemberEmail: c.MemberEmail,
		Status:      string(c.Status),
		CreatedAt:   c.CreatedAt,
		UpdatedAt:   c.UpdatedAt,
	}
}

// EnrollmentEntity is the GORM entity for Enrollment. The unique index on
// provider_payment_id is what makes activation idempotent under replay.
type EnrollmentEntity struct {
	ID                uuid.UUID `gorm:"type:uuid;primaryKey"`
	ContractID        int64     `gorm:"not null;index"`
	TenantID          int64     `gorm:"not null;index"`
	ProviderPaymentID string    `gorm:"not null;uniqueIndex"`
	Amount            float64
	Currency          string
	PayerEmail        string
	ActivatedAt       time.Time
	CreatedAt         time.Time
}

// TableName returns the database table name.
func (EnrollmentEntity) TableName() string {
	return "enrollments"
}

// ToDomain converts entity to domain Enrollment.
func (e *EnrollmentEntity) ToDomain() *domain.Enrollment {
	return &domain.Enrollment{
		ID:                e.ID,
		ContractID:        e.ContractID,
		TenantID:          e.TenantID,
		ProviderPaymentID: e.ProviderPaymentID,
		Amount:            e.Amount,
		Currency:          e.Currency,
		PayerEmail:        e.PayerEmail,
		ActivatedAt:       e.ActivatedAt,
	}
}

// FromDomainEnrollment converts domain Enrollment to entity.
func FromDomainEnrollment(en *domain.Enrollment) *EnrollmentEntity {
	return &EnrollmentEntity{
		ID:                en.ID,
		ContractID:        en.ContractID,
		TenantID:          en.TenantID,
		ProviderPaymentID: en.ProviderPaymentID,
		Amount:            en.Amount,
		Currency:          en.Currency,
		PayerEmail:        en.PayerEmail,
		ActivatedAt:       en.ActivatedAt,
	}
}
