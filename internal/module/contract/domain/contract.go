// Package domain holds the contract and enrollment records.
package domain

import (
	"time"

	"github.com/google/uuid"
)

// ContractStatus represents the lifecycle state of a contract.
type ContractStatus string

const (
	ContractActive    ContractStatus = "active"
	ContractCancelled ContractStatus = "cancelled"
	ContractExpired   ContractStatus = "expired"
)

// Accepting reports whether the contract can still receive payments.
func (s ContractStatus) Accepting() bool {
	return s == ContractActive
}

// Contract is a member's purchased package within a tenant gym.
type Contract struct {
	ID          int64
	TenantID    int64
	PackageName string
	MemberEmail string
	Status      ContractStatus
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Correlation is the minimum information required to apply a payment's
// business effect.
type Correlation struct {
	ContractID int64
	TenantID   int64
}

// Enrollment is the applied business effect of one collected payment:
// the activation of a contract. At most one enrollment exists per
// provider payment id.
type Enrollment struct {
	ID                uuid.UUID
	ContractID        int64
	TenantID          int64
	ProviderPaymentID string
	Amount            float64
	Currency          string
	PayerEmail        string
	ActivatedAt       time.Time
}

// NewEnrollment creates an enrollment for a collected payment.
func NewEnrollment(corr Correlation, providerPaymentID string, amount float64, currency, payerEmail string) *Enrollment {
	return &Enrollment{
		ID:                uuid.New(),
		ContractID:        corr.ContractID,
		TenantID:          corr.TenantID,
		ProviderPaymentID: providerPaymentID,
		Amount:            amount,
		Currency:          currency,
		PayerEmail:        payerEmail,
		ActivatedAt:       time.Now(),
	}
}
