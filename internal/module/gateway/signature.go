package gateway

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// SignatureVerifier checks the x-signature header Mercado Pago attaches to
// webhook deliveries. The header carries "ts=<unix>,v1=<hex hmac>" and the
// signature covers the manifest "id:<data.id>;request-id:<x-request-id>;ts:<ts>;".
type SignatureVerifier struct {
	secret string
}

// NewSignatureVerifier creates a verifier for the given webhook secret.
func NewSignatureVerifier(secret string) *SignatureVerifier {
	return &SignatureVerifier{secret: secret}
}

// Verify reports whether the signature matches the delivery. An empty
// secret rejects everything.
func (v *SignatureVerifier) Verify(xSignature, xRequestID, dataID string) bool {
	if v.secret == "" || xSignature == "" {
		return false
	}

	ts, hash := splitSignature(xSignature)
	if ts == "" || hash == "" {
		return false
	}

	mac := hmac.New(sha256.New, []byte(v.secret))
	mac.Write([]byte(manifest(dataID, xRequestID, ts)))
	expected := hex.EncodeToString(mac.Sum(nil))

	return hmac.Equal([]byte(hash), []byte(expected))
}

// splitSignature extracts the ts and v1 fields from the header.
func splitSignature(header string) (ts, hash string) {
	for _, part := range strings.Split(header, ",") {
		key, value, found := strings.Cut(strings.TrimSpace(part), "=")
		if !found {
			continue
		}
		switch key {
		case "ts":
			ts = value
		case "v1":
			hash = value
		}
	}
	return ts, hash
}

// manifest builds the signed string. Empty components are omitted, matching
// the provider's construction.
func manifest(dataID, requestID, ts string) string {
	var parts []string
	if dataID != "" {
		parts = append(parts, "id:"+dataID)
	}
	if requestID != "" {
		parts = append(parts, "request-id:"+requestID)
	}
	if ts != "" {
		parts = append(parts, "ts:"+ts)
	}
	return strings.Join(parts, ";") + ";"
}
