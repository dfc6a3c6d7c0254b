package checkout

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"storefront-service/errs"
	"storefront-service/models"
	"storefront-service/payment"
)

const testSecret = "gateway-test-secret"

type fakeLedger struct {
	nextID int64
	orders []*models.Order
	byKey  map[string]*models.Order
	err    error
}

func (f *fakeLedger) Create(_ context.Context, order *models.Order) (*models.Order, error) {
	if f.err != nil {
		return nil, f.err
	}
	if order.IdempotencyKey != "" {
		if existing, ok := f.byKey[order.IdempotencyKey]; ok {
			return existing, nil
		}
	}
	f.nextID++
	stored := *order
	stored.ID = f.nextID
	stored.Revision = 1
	stored.CreatedAt = time.Now()
	f.orders = append(f.orders, &stored)
	if order.IdempotencyKey != "" {
		if f.byKey == nil {
			f.byKey = make(map[string]*models.Order)
		}
		f.byKey[order.IdempotencyKey] = &stored
	}
	return &stored, nil
}

func newTestOrchestrator(ledger *fakeLedger) *Orchestrator {
	gateway := payment.NewGateway("", testSecret, "INR")
	return NewOrchestrator(ledger, gateway, DefaultPricing())
}

func completeAddress() models.ShippingAddress {
	return models.ShippingAddress{
		FullName:   "Asha Rao",
		Phone:      "9999999999",
		Address:    "12 MG Road",
		City:       "Bengaluru",
		State:      "Karnataka",
		PostalCode: "560001",
		Country:    "India",
	}
}

func sign(orderRef, paymentRef string) string {
	mac := hmac.New(sha256.New, []byte(testSecret))
	mac.Write([]byte(orderRef + "|" + paymentRef))
	return hex.EncodeToString(mac.Sum(nil))
}

func TestPlaceOrderCOD(t *testing.T) {
	ledger := &fakeLedger{}
	orch := newTestOrchestrator(ledger)

	order, err := orch.PlaceOrder(context.Background(), 1, &Request{
		Items:           items(500, 2),
		ShippingAddress: completeAddress(),
		PaymentMethod:   models.MethodCOD,
	})
	require.NoError(t, err)
	assert.Equal(t, 1000.0, order.TotalPrice) // subtotal over threshold, free delivery
	assert.Equal(t, models.StatusPlaced, order.Status)
	assert.False(t, order.IsPaid)
	assert.Equal(t, int64(1), order.UserID)
	assert.Len(t, ledger.orders, 1)
}

func TestPlaceOrderEmptyCart(t *testing.T) {
	orch := newTestOrchestrator(&fakeLedger{})
	_, err := orch.PlaceOrder(context.Background(), 1, &Request{
		ShippingAddress: completeAddress(),
	})
	assert.ErrorIs(t, err, errs.ErrEmptyCart)
}

func TestPlaceOrderIncompleteAddress(t *testing.T) {
	orch := newTestOrchestrator(&fakeLedger{})
	address := completeAddress()
	address.State = ""
	_, err := orch.PlaceOrder(context.Background(), 1, &Request{
		Items:           items(100, 1),
		ShippingAddress: address,
	})
	assert.ErrorIs(t, err, errs.ErrIncompleteAddress)
}

func TestPlaceOrderRejectsZeroQuantity(t *testing.T) {
	orch := newTestOrchestrator(&fakeLedger{})
	_, err := orch.PlaceOrder(context.Background(), 1, &Request{
		Items:           items(100, 0),
		ShippingAddress: completeAddress(),
	})
	assert.ErrorIs(t, err, errs.ErrInvalidItem)
}

func TestPlaceOrderDefaultsToCOD(t *testing.T) {
	ledger := &fakeLedger{}
	orch := newTestOrchestrator(ledger)
	order, err := orch.PlaceOrder(context.Background(), 1, &Request{
		Items:           items(100, 1),
		ShippingAddress: completeAddress(),
	})
	require.NoError(t, err)
	assert.Equal(t, models.MethodCOD, order.PaymentMethod)
	assert.False(t, order.IsPaid)
}

func TestPlaceOrderUnknownMethod(t *testing.T) {
	orch := newTestOrchestrator(&fakeLedger{})
	_, err := orch.PlaceOrder(context.Background(), 1, &Request{
		Items:           items(100, 1),
		ShippingAddress: completeAddress(),
		PaymentMethod:   "cheque",
	})
	assert.ErrorIs(t, err, errs.ErrInvalidPaymentMethod)
}

func TestPlaceOrderPaymentDetailsRequired(t *testing.T) {
	orch := newTestOrchestrator(&fakeLedger{})

	cases := map[string]*Request{
		"upi without id":  {PaymentMethod: models.MethodUPI},
		"card incomplete": {PaymentMethod: models.MethodCard, Card: CardDetails{Number: "4111111111111111", Name: "Asha Rao", Expiry: "12/27"}},
		"wallet unset":    {PaymentMethod: models.MethodWallet},
	}
	for name, req := range cases {
		req.Items = items(100, 1)
		req.ShippingAddress = completeAddress()
		_, err := orch.PlaceOrder(context.Background(), 1, req)
		assert.ErrorIs(t, err, errs.ErrPaymentDetailsIncomplete, name)
	}
}

func TestPlaceOrderOnlineRequiresVerifiedSignature(t *testing.T) {
	ledger := &fakeLedger{}
	orch := newTestOrchestrator(ledger)

	req := &Request{
		Items:           items(100, 1),
		ShippingAddress: completeAddress(),
		PaymentMethod:   models.MethodUPI,
		UPIID:           "asha@upi",
		Payment: &PaymentProof{
			OrderRef:   "order_1",
			PaymentRef: "pay_1",
			Signature:  "deadbeef",
		},
	}
	_, err := orch.PlaceOrder(context.Background(), 1, req)
	assert.ErrorIs(t, err, errs.ErrPaymentVerificationFailed)
	assert.Empty(t, ledger.orders, "no partial order may be written")

	// Missing proof entirely is the same failure.
	req.Payment = nil
	_, err = orch.PlaceOrder(context.Background(), 1, req)
	assert.ErrorIs(t, err, errs.ErrPaymentVerificationFailed)
}

func TestPlaceOrderUnconfiguredGatewayRejectsOnlinePayment(t *testing.T) {
	ledger := &fakeLedger{}
	gateway := payment.NewGateway("", "", "INR")
	orch := NewOrchestrator(ledger, gateway, DefaultPricing())

	// Proof signed over the empty key, as an attacker could compute it.
	mac := hmac.New(sha256.New, []byte(""))
	mac.Write([]byte("order_1" + "|" + "pay_1"))
	forged := hex.EncodeToString(mac.Sum(nil))

	_, err := orch.PlaceOrder(context.Background(), 1, &Request{
		Items:           items(100, 1),
		ShippingAddress: completeAddress(),
		PaymentMethod:   models.MethodUPI,
		UPIID:           "asha@upi",
		Payment: &PaymentProof{
			OrderRef:   "order_1",
			PaymentRef: "pay_1",
			Signature:  forged,
		},
	})
	assert.ErrorIs(t, err, errs.ErrPaymentVerificationFailed)
	assert.Empty(t, ledger.orders, "no paid order may exist without a configured gateway")
}

func TestPlaceOrderOnlineVerified(t *testing.T) {
	ledger := &fakeLedger{}
	orch := newTestOrchestrator(ledger)

	order, err := orch.PlaceOrder(context.Background(), 1, &Request{
		Items:           items(100, 1),
		ShippingAddress: completeAddress(),
		PaymentMethod:   models.MethodCard,
		Card:            CardDetails{Number: "4111111111111111", Name: "Asha Rao", Expiry: "12/27", CVV: "123"},
		Payment: &PaymentProof{
			OrderRef:   "order_1",
			PaymentRef: "pay_1",
			Signature:  sign("order_1", "pay_1"),
		},
	})
	require.NoError(t, err)
	assert.True(t, order.IsPaid)
	assert.Equal(t, models.StatusPlaced, order.Status)
}

func TestPlaceOrderIgnoresClientPaidFlag(t *testing.T) {
	ledger := &fakeLedger{}
	orch := newTestOrchestrator(ledger)

	order, err := orch.PlaceOrder(context.Background(), 1, &Request{
		Items:           items(100, 1),
		ShippingAddress: completeAddress(),
		PaymentMethod:   models.MethodCOD,
		IsPaid:          true,
		TotalPrice:      1, // also ignored, totals are recomputed
	})
	require.NoError(t, err)
	assert.False(t, order.IsPaid)
	assert.Equal(t, 150.0, order.TotalPrice)
}

func TestPlaceOrderAppliesPromo(t *testing.T) {
	orch := newTestOrchestrator(&fakeLedger{})
	order, err := orch.PlaceOrder(context.Background(), 1, &Request{
		Items:           items(500, 2),
		ShippingAddress: completeAddress(),
		PromoCode:       "SAVE10",
	})
	require.NoError(t, err)
	assert.Equal(t, 900.0, order.TotalPrice)
}

func TestPlaceOrderIdempotencyKeyReplay(t *testing.T) {
	ledger := &fakeLedger{}
	orch := newTestOrchestrator(ledger)

	req := &Request{
		Items:           items(100, 1),
		ShippingAddress: completeAddress(),
		IdempotencyKey:  "attempt-1",
	}
	first, err := orch.PlaceOrder(context.Background(), 1, req)
	require.NoError(t, err)
	second, err := orch.PlaceOrder(context.Background(), 1, req)
	require.NoError(t, err)

	assert.Equal(t, first.ID, second.ID)
	assert.Len(t, ledger.orders, 1)
}

func TestPlaceOrderLedgerFailure(t *testing.T) {
	orch := newTestOrchestrator(&fakeLedger{err: errors.New("connection refused")})
	_, err := orch.PlaceOrder(context.Background(), 1, &Request{
		Items:           items(100, 1),
		ShippingAddress: completeAddress(),
	})
	assert.ErrorIs(t, err, errs.ErrOrderPersistenceFailed)
}
