// Package checkout coordinates a single checkout attempt: it validates
// the cart and shipping address, derives pricing, branches on the payment
// method and commits the resulting order to the ledger. It holds no
// persistent state of its own.
package checkout

import (
	"context"
	"fmt"
	"strings"

	"storefront-service/errs"
	"storefront-service/models"
)

// Ledger is the slice of the order store the orchestrator commits to.
type Ledger interface {
	Create(ctx context.Context, order *models.Order) (*models.Order, error)
}

// SignatureVerifier checks a provider payment signature. Success is a
// precondition for marking any online-method order as paid; a
// client-asserted paid flag is never trusted.
type SignatureVerifier interface {
	VerifySignature(orderRef, paymentRef, signature string) bool
}

type CardDetails struct {
	Number string `json:"number"`
	Name   string `json:"name"`
	Expiry string `json:"expiry"`
	CVV    string `json:"cvv"`
}

// PaymentProof carries the provider references and signature issued after
// the client completed an online payment.
type PaymentProof struct {
	OrderRef   string `json:"order_ref"`
	PaymentRef string `json:"payment_ref"`
	Signature  string `json:"signature"`
}

type Request struct {
	Items           []models.OrderItem     `json:"orderItems"`
	ShippingAddress models.ShippingAddress `json:"shippingAddress"`
	PaymentMethod   string                 `json:"paymentMethod"`
	PromoCode       string                 `json:"promoCode"`
	UPIID           string                 `json:"upiId"`
	Card            CardDetails            `json:"card"`
	Wallet          string                 `json:"wallet"`
	Payment         *PaymentProof          `json:"payment"`
	IdempotencyKey  string                 `json:"idempotencyKey"`

	// Sent by the storefront client but ignored: the total is recomputed
	// server-side and the paid flag is derived from payment verification.
	TotalPrice float64 `json:"totalPrice"`
	IsPaid     bool    `json:"isPaid"`
}

type Orchestrator struct {
	ledger   Ledger
	verifier SignatureVerifier
	pricing  Pricing
}

func NewOrchestrator(ledger Ledger, verifier SignatureVerifier, pricing Pricing) *Orchestrator {
	return &Orchestrator{ledger: ledger, verifier: verifier, pricing: pricing}
}

// PlaceOrder runs the checkout stages in order. Any failure before the
// commit leaves no persisted state; a commit failure is reported as
// ErrOrderPersistenceFailed and is safe for the caller to retry.
func (o *Orchestrator) PlaceOrder(ctx context.Context, userID int64, req *Request) (*models.Order, error) {
	if len(req.Items) == 0 {
		return nil, errs.ErrEmptyCart
	}
	for _, item := range req.Items {
		if item.Quantity < 1 {
			return nil, errs.ErrInvalidItem
		}
	}
	if !req.ShippingAddress.Complete() {
		return nil, errs.ErrIncompleteAddress
	}

	method := req.PaymentMethod
	if method == "" {
		method = models.MethodCOD
	}
	if !models.ValidPaymentMethod(method) {
		return nil, errs.ErrInvalidPaymentMethod
	}

	quote := o.pricing.Quote(req.Items, req.PromoCode)

	paid := false
	if method != models.MethodCOD {
		if err := validatePaymentDetails(method, req); err != nil {
			return nil, err
		}
		if req.Payment == nil || !o.verifier.VerifySignature(req.Payment.OrderRef, req.Payment.PaymentRef, req.Payment.Signature) {
			return nil, errs.ErrPaymentVerificationFailed
		}
		paid = true
	}

	order := &models.Order{
		UserID:          userID,
		Items:           req.Items,
		ShippingAddress: req.ShippingAddress,
		TotalPrice:      quote.Total,
		PaymentMethod:   method,
		IsPaid:          paid,
		Status:          models.StatusPlaced,
		IdempotencyKey:  req.IdempotencyKey,
	}

	created, err := o.ledger.Create(ctx, order)
	if err != nil {
		if errs.HTTPStatus(err) < 500 {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %v", errs.ErrOrderPersistenceFailed, err)
	}
	return created, nil
}

func validatePaymentDetails(method string, req *Request) error {
	switch method {
	case models.MethodUPI:
		if strings.TrimSpace(req.UPIID) == "" {
			return errs.ErrPaymentDetailsIncomplete
		}
	case models.MethodCard:
		card := req.Card
		if card.Number == "" || card.Name == "" || card.Expiry == "" || card.CVV == "" {
			return errs.ErrPaymentDetailsIncomplete
		}
	case models.MethodWallet:
		if req.Wallet == "" {
			return errs.ErrPaymentDetailsIncomplete
		}
	default:
		return errs.ErrInvalidPaymentMethod
	}
	return nil
}

// Quote exposes the pricing rules for callers that want to show a
// breakdown before committing.
func (o *Orchestrator) Quote(items []models.OrderItem, promo string) Quote {
	return o.pricing.Quote(items, promo)
}
