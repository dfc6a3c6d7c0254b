package checkout

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"storefront-service/models"
)

func items(price float64, qty int) []models.OrderItem {
	return []models.OrderItem{{ProductID: "p1", Name: "Shoes", Quantity: qty, Price: price}}
}

func TestQuoteFreeDeliveryOverThreshold(t *testing.T) {
	q := DefaultPricing().Quote(items(600, 1), "")
	assert.Equal(t, 600.0, q.Subtotal)
	assert.Equal(t, 0.0, q.Delivery)
	assert.Equal(t, 600.0, q.Total)
}

func TestQuoteDeliveryChargedBelowThreshold(t *testing.T) {
	q := DefaultPricing().Quote(items(400, 1), "")
	assert.Equal(t, 50.0, q.Delivery)
	assert.Equal(t, 450.0, q.Total)
}

func TestQuoteThresholdIsStrict(t *testing.T) {
	// Exactly at the threshold still pays for delivery.
	q := DefaultPricing().Quote(items(500, 1), "")
	assert.Equal(t, 50.0, q.Delivery)
}

func TestQuotePromoCode(t *testing.T) {
	q := DefaultPricing().Quote(items(500, 2), "SAVE10")
	assert.Equal(t, 1000.0, q.Subtotal)
	assert.Equal(t, 0.0, q.Delivery)
	assert.Equal(t, 100.0, q.Discount)
	assert.Equal(t, 900.0, q.Total)
}

func TestQuoteUnknownPromoIgnored(t *testing.T) {
	q := DefaultPricing().Quote(items(500, 2), "SAVE99")
	assert.Equal(t, 0.0, q.Discount)
	assert.Equal(t, 1000.0, q.Total)
}

func TestQuoteEmptyPromoNeverMatches(t *testing.T) {
	p := DefaultPricing()
	p.PromoCode = ""
	q := p.Quote(items(500, 2), "")
	assert.Equal(t, 0.0, q.Discount)
}

func TestQuoteTotalClampedAtZero(t *testing.T) {
	p := Pricing{FreeDeliveryOver: 500, DeliveryCharge: 50, PromoCode: "ALL", PromoRate: 2.0}
	q := p.Quote(items(100, 1), "ALL")
	assert.Equal(t, 0.0, q.Total)
}

func TestQuoteSumsMultipleLines(t *testing.T) {
	cart := []models.OrderItem{
		{ProductID: "p1", Name: "Shoes", Quantity: 2, Price: 150},
		{ProductID: "p2", Name: "Socks", Quantity: 3, Price: 40},
	}
	q := DefaultPricing().Quote(cart, "")
	assert.Equal(t, 420.0, q.Subtotal)
	assert.Equal(t, 470.0, q.Total)
}
