package models

import (
	"strings"
	"time"
)

// Order status values. Transitions are Placed -> Shipped -> Delivered,
// with Cancelled reachable only from Placed.
const (
	StatusPlaced    = "Placed"
	StatusShipped   = "Shipped"
	StatusDelivered = "Delivered"
	StatusCancelled = "Cancelled"
)

const (
	MethodUPI    = "upi"
	MethodCard   = "card"
	MethodWallet = "wallet"
	MethodCOD    = "cod"
)

func ValidStatus(s string) bool {
	switch s {
	case StatusPlaced, StatusShipped, StatusDelivered, StatusCancelled:
		return true
	}
	return false
}

func ValidPaymentMethod(m string) bool {
	switch m {
	case MethodUPI, MethodCard, MethodWallet, MethodCOD:
		return true
	}
	return false
}

// OrderItem is a snapshot of a catalog product at purchase time.
// Name and price are copied, not referenced, so later catalog edits
// do not rewrite order history.
type OrderItem struct {
	ProductID string  `json:"product"`
	Name      string  `json:"name"`
	Quantity  int     `json:"qty"`
	Price     float64 `json:"price"`
	Image     string  `json:"image"`
}

type ShippingAddress struct {
	FullName   string `json:"fullName"`
	Phone      string `json:"phone"`
	Address    string `json:"address"`
	City       string `json:"city"`
	State      string `json:"state"`
	PostalCode string `json:"postalCode"`
	Country    string `json:"country"`
}

// Complete reports whether every required address field is non-empty.
func (a ShippingAddress) Complete() bool {
	for _, f := range []string{a.FullName, a.Phone, a.Address, a.City, a.State, a.PostalCode, a.Country} {
		if strings.TrimSpace(f) == "" {
			return false
		}
	}
	return true
}

type Order struct {
	ID              int64           `json:"id"`
	UserID          int64           `json:"user_id"`
	Items           []OrderItem     `json:"orderItems"`
	ShippingAddress ShippingAddress `json:"shippingAddress"`
	TotalPrice      float64         `json:"totalPrice"`
	PaymentMethod   string          `json:"paymentMethod"`
	IsPaid          bool            `json:"isPaid"`
	Status          string          `json:"status"`
	Revision        int64           `json:"revision"`
	IdempotencyKey  string          `json:"-"`
	CreatedAt       time.Time       `json:"created_at"`
}

// AdminOrder is an order with owner identity joined in, for admin listings.
type AdminOrder struct {
	Order
	UserName  string `json:"userName"`
	UserEmail string `json:"userEmail"`
}

type OrderEvent struct {
	OrderID  int64     `json:"order_id"`
	UserID   int64     `json:"user_id"`
	Type     string    `json:"type"` // created, cancelled, status_updated, payment_check
	Status   string    `json:"status"`
	Total    float64   `json:"total"`
	Occurred time.Time `json:"occurred"`
}
