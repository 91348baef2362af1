package contract

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/packfit/server/internal/module/contract/domain"
	"github.com/packfit/server/internal/module/gateway"
	"go.uber.org/zap"
)

// Activator applies a collected payment to its contract, producing an
// enrollment. Application is idempotent per provider payment id: replaying
// the same payment returns the enrollment created by the first apply.
type Activator struct {
	repo   Repository
	logger *zap.Logger
}

// NewActivator creates an activator.
func NewActivator(repo Repository, logger *zap.Logger) *Activator {
	return &Activator{repo: repo, logger: logger}
}

// Apply activates contract corr.ContractID for tenant corr.TenantID with
// the given payment. It returns ErrContractInactive for contracts that can
// no longer accept payments; that failure is permanent and must not be
// retried. Any other failure is transient.
func (a *Activator) Apply(ctx context.Context, corr domain.Correlation, payment *gateway.PaymentRecord) (uuid.UUID, error) {
	contract, err := a.repo.GetContract(ctx, corr.ContractID)
	if err != nil {
		return uuid.Nil, fmt.Errorf("load contract %d: %w", corr.ContractID, err)
	}
	if contract.TenantID != corr.TenantID {
		return uuid.Nil, fmt.Errorf("contract %d belongs to tenant %d, not %d: %w",
			corr.ContractID, contract.TenantID, corr.TenantID, ErrContractNotFound)
	}
	if !contract.Status.Accepting() {
		return uuid.Nil, fmt.Errorf("contract %d is %s: %w", contract.ID, contract.Status, ErrContractInactive)
	}

	enrollment := domain.NewEnrollment(corr, payment.ID, payment.Amount, payment.Currency, payment.PayerEmail)
	err = a.repo.CreateEnrollment(ctx, enrollment)
	if err == nil {
		a.logger.Info("contract activated",
			zap.Int64("contract_id", corr.ContractID),
			zap.Int64("tenant_id", corr.TenantID),
			zap.String("payment_id", payment.ID),
			zap.String("enrollment_id", enrollment.ID.String()),
		)
		return enrollment.ID, nil
	}

	if errors.Is(err, ErrEnrollmentExists) {
		existing, lookupErr := a.repo.GetEnrollmentByPaymentID(ctx, payment.ID)
		if lookupErr != nil {
			return uuid.Nil, fmt.Errorf("load existing enrollment: %w", lookupErr)
		}
		a.logger.Info("payment already applied",
			zap.String("payment_id", payment.ID),
			zap.String("enrollment_id", existing.ID.String()),
		)
		return existing.ID, nil
	}

	return uuid.Nil, err
}
