// Package errs defines the error taxonomy shared by the order ledger,
// the checkout orchestrator and the HTTP layer, together with the
// mapping from errors to HTTP status codes.
package errs

import (
	"errors"
	"net/http"
)

var (
	ErrUnauthenticated           = errors.New("not authenticated")
	ErrForbidden                 = errors.New("not authorized for this resource")
	ErrNotFound                  = errors.New("not found")
	ErrEmptyCart                 = errors.New("order must contain at least one item")
	ErrInvalidItem               = errors.New("item quantity must be at least 1")
	ErrIncompleteAddress         = errors.New("incomplete shipping address")
	ErrInvalidPaymentMethod      = errors.New("unknown payment method")
	ErrPaymentDetailsIncomplete  = errors.New("payment details incomplete")
	ErrPaymentVerificationFailed = errors.New("payment verification failed")
	ErrGatewayUnconfigured       = errors.New("payment gateway is not configured")
	ErrGatewayError              = errors.New("payment gateway request failed")
	ErrOrderPersistenceFailed    = errors.New("failed to persist order")
	ErrConflict                  = errors.New("conflicting concurrent update")
	ErrInvalidStatus             = errors.New("unknown order status")
)

// InvalidTransitionError rejects a status change not allowed from the
// order's current status. The message names the current status.
type InvalidTransitionError struct {
	Current string
}

func (e *InvalidTransitionError) Error() string {
	return "cannot cancel an order with status: " + e.Current
}

// HTTPStatus maps a taxonomy error to the status code reported at the
// HTTP boundary. Unknown errors are treated as internal.
func HTTPStatus(err error) int {
	var transition *InvalidTransitionError
	switch {
	case errors.Is(err, ErrUnauthenticated):
		return http.StatusUnauthorized
	case errors.Is(err, ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrConflict):
		return http.StatusConflict
	case errors.Is(err, ErrGatewayError):
		return http.StatusBadGateway
	case errors.Is(err, ErrGatewayUnconfigured), errors.Is(err, ErrOrderPersistenceFailed):
		return http.StatusInternalServerError
	case errors.Is(err, ErrEmptyCart),
		errors.Is(err, ErrInvalidItem),
		errors.Is(err, ErrIncompleteAddress),
		errors.Is(err, ErrInvalidPaymentMethod),
		errors.Is(err, ErrPaymentDetailsIncomplete),
		errors.Is(err, ErrPaymentVerificationFailed),
		errors.Is(err, ErrInvalidStatus):
		return http.StatusBadRequest
	case errors.As(err, &transition):
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}
