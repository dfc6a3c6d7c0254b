package checkout

import "storefront-service/models"

// Pricing holds the storefront pricing rules applied at checkout.
type Pricing struct {
	FreeDeliveryOver float64 // delivery is free when subtotal exceeds this
	DeliveryCharge   float64
	PromoCode        string
	PromoRate        float64 // fraction of subtotal discounted by the promo
}

func DefaultPricing() Pricing {
	return Pricing{
		FreeDeliveryOver: 500,
		DeliveryCharge:   50,
		PromoCode:        "SAVE10",
		PromoRate:        0.10,
	}
}

type Quote struct {
	Subtotal float64 `json:"subtotal"`
	Delivery float64 `json:"delivery"`
	Discount float64 `json:"discount"`
	Total    float64 `json:"total"`
}

// Quote derives the order total from the item snapshots. The total is
// clamped at zero so a discount can never drive it negative.
func (p Pricing) Quote(items []models.OrderItem, promo string) Quote {
	var subtotal float64
	for _, item := range items {
		subtotal += item.Price * float64(item.Quantity)
	}

	delivery := p.DeliveryCharge
	if subtotal > p.FreeDeliveryOver {
		delivery = 0
	}

	var discount float64
	if promo != "" && promo == p.PromoCode {
		discount = subtotal * p.PromoRate
	}

	total := subtotal + delivery - discount
	if total < 0 {
		total = 0
	}
	return Quote{Subtotal: subtotal, Delivery: delivery, Discount: discount, Total: total}
}
