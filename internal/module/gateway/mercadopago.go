package gateway

import (
	"context"
	"fmt"
	"strconv"
	"time"

	mpconfig "github.com/mercadopago/sdk-go/pkg/config"
	"github.com/mercadopago/sdk-go/pkg/payment"
	"github.com/sony/gobreaker/v2"
	"go.uber.org/zap"
)

// MercadoPagoClient implements Client against the Mercado Pago API.
type MercadoPagoClient struct {
	payments payment.Client
	timeout  time.Duration
	breaker  *gobreaker.CircuitBreaker[*PaymentRecord]
	logger   *zap.Logger
}

// NewMercadoPagoClient creates a client authenticated with the given access
// token. Every call carries a hard timeout; transport trust stays on the
// SDK's default HTTP client (TLS verification enabled).
func NewMercadoPagoClient(accessToken string, timeout time.Duration, logger *zap.Logger) (*MercadoPagoClient, error) {
	cfg, err := mpconfig.New(accessToken)
	if err != nil {
		return nil, fmt.Errorf("mercadopago config: %w", err)
	}
	return newClient(payment.NewClient(cfg), timeout, logger), nil
}

func newClient(payments payment.Client, timeout time.Duration, logger *zap.Logger) *MercadoPagoClient {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	breaker := gobreaker.NewCircuitBreaker[*PaymentRecord](gobreaker.Settings{
		Name:    "mercadopago",
		Timeout: timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("gateway breaker state change",
				zap.String("breaker", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()),
			)
		},
	})

	return &MercadoPagoClient{
		payments: payments,
		timeout:  timeout,
		breaker:  breaker,
		logger:   logger,
	}
}

// FetchPayment reads a payment from Mercado Pago. All failure modes,
// including an open breaker, surface as ErrGatewayUnavailable.
func (c *MercadoPagoClient) FetchPayment(ctx context.Context, providerPaymentID string) (*PaymentRecord, error) {
	id, err := strconv.Atoi(providerPaymentID)
	if err != nil {
		return nil, fmt.Errorf("%w: malformed payment id %q", ErrGatewayUnavailable, providerPaymentID)
	}

	record, err := c.breaker.Execute(func() (*PaymentRecord, error) {
		callCtx, cancel := context.WithTimeout(ctx, c.timeout)
		defer cancel()
		return c.fetch(callCtx, id)
	})
	if err != nil {
		c.logger.Warn("payment fetch failed",
			zap.String("payment_id", providerPaymentID),
			zap.Error(err),
		)
		return nil, fmt.Errorf("%w: %v", ErrGatewayUnavailable, err)
	}
	return record, nil
}

func (c *MercadoPagoClient) fetch(ctx context.Context, id int) (*PaymentRecord, error) {
	result, err := c.payments.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	return &PaymentRecord{
		ID:                strconv.Itoa(result.ID),
		Status:            result.Status,
		StatusDetail:      result.StatusDetail,
		Amount:            result.TransactionAmount,
		Currency:          result.CurrencyID,
		PayerEmail:        result.Payer.Email,
		ExternalReference: result.ExternalReference,
		Metadata:          result.Metadata,
		DateApproved:      result.DateApproved,
	}, nil
}
