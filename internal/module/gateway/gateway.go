// Package gateway talks to the Mercado Pago payment API.
package gateway

import (
	"context"
	"errors"
	"time"
)

// ErrGatewayUnavailable is returned for any transport failure, timeout or
// non-success response from the provider. It is never retried inside the
// client; callers defer the whole unit of work to reconciliation instead.
var ErrGatewayUnavailable = errors.New("payment gateway unavailable")

// Metadata keys carrying structured correlation data on a payment.
const (
	MetadataContractKey = "contract_id"
	MetadataTenantKey   = "tenant_id"
)

// PaymentRecord is the gateway's current truth for a payment.
type PaymentRecord struct {
	ID                string
	Status            string
	StatusDetail      string
	Amount            float64
	Currency          string
	PayerEmail        string
	ExternalReference string
	Metadata          map[string]any
	DateApproved      time.Time
}

// Approved reports whether the provider considers the payment collected.
func (r *PaymentRecord) Approved() bool {
	return r.Status == "approved"
}

// MetadataCorrelation returns the structured correlation identifiers when
// both are present in the payment metadata. Metadata is authoritative and
// takes precedence over anything derivable from the external reference.
func (r *PaymentRecord) MetadataCorrelation() (contractID, tenantID int64, ok bool) {
	contractID, ok = metadataInt(r.Metadata, MetadataContractKey)
	if !ok {
		return 0, 0, false
	}
	tenantID, ok = metadataInt(r.Metadata, MetadataTenantKey)
	if !ok {
		return 0, 0, false
	}
	return contractID, tenantID, true
}

// metadataInt reads an integer metadata value. Mercado Pago round-trips
// metadata through JSON, so numbers arrive as float64.
func metadataInt(md map[string]any, key string) (int64, bool) {
	v, ok := md[key]
	if !ok {
		return 0, false
	}
	switch n := v.(type) {
	case float64:
		return int64(n), true
	case int64:
		return n, true
	case int:
		return int64(n), true
	default:
		return 0, false
	}
}

// Client fetches authoritative payment details from the provider.
type Client interface {
	FetchPayment(ctx context.Context, providerPaymentID string) (*PaymentRecord, error)
}
