// Package payment wraps the payment provider: intent creation for a
// checkout attempt and verification of provider-issued payment signatures.
package payment

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"
	razorpay "github.com/razorpay/razorpay-go"

	"storefront-service/errs"
)

// providerOrders is the slice of the provider SDK the gateway calls.
// Kept as an interface so tests can substitute a fake.
type providerOrders interface {
	Create(data map[string]interface{}, extraHeaders map[string]string) (map[string]interface{}, error)
}

// Intent is a provider-side authorization to collect a specific amount.
// It is ephemeral and never persisted locally.
type Intent struct {
	ID       string `json:"id"`
	Amount   int64  `json:"amount"` // minor currency units
	Currency string `json:"currency"`
	Receipt  string `json:"receipt"`
}

// Gateway is constructed once at process start and passed by reference.
// With no provider credentials it still verifies nothing and reports
// itself unconfigured instead of crashing.
type Gateway struct {
	orders   providerOrders
	secret   string
	currency string
}

func NewGateway(keyID, keySecret, currency string) *Gateway {
	g := &Gateway{secret: keySecret, currency: currency}
	if keyID != "" && keySecret != "" {
		client := razorpay.NewClient(keyID, keySecret)
		g.orders = client.Order
	}
	return g
}

func (g *Gateway) Configured() bool {
	return g.orders != nil
}

// CreateIntent creates a provider order for the given amount in major
// currency units. The receipt is unique per attempt.
func (g *Gateway) CreateIntent(amount float64) (*Intent, error) {
	if g.orders == nil {
		return nil, errs.ErrGatewayUnconfigured
	}

	minor := int64(math.Round(amount * 100))
	receipt := fmt.Sprintf("rcpt_%d_%s", time.Now().Unix(), uuid.NewString()[:8])

	body, err := g.orders.Create(map[string]interface{}{
		"amount":   minor,
		"currency": g.currency,
		"receipt":  receipt,
	}, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", errs.ErrGatewayError, err)
	}

	intent := &Intent{Amount: minor, Currency: g.currency, Receipt: receipt}
	if id, ok := body["id"].(string); ok {
		intent.ID = id
	}
	return intent, nil
}

// VerifySignature recomputes the provider signature over
// orderRef + "|" + paymentRef and compares in constant time.
// A mismatch is a normal negative result, not an error, and neither the
// secret nor the expected digest ever leaves this function.
// Without a provider secret nothing can verify: an empty key would make
// the expected digest computable by anyone.
func (g *Gateway) VerifySignature(orderRef, paymentRef, signature string) bool {
	if g.secret == "" {
		return false
	}
	mac := hmac.New(sha256.New, []byte(g.secret))
	mac.Write([]byte(orderRef + "|" + paymentRef))
	expected := hex.EncodeToString(mac.Sum(nil))
	return hmac.Equal([]byte(expected), []byte(signature))
}
