// Package pricing turns a cart snapshot plus an optional points redemption
// into the amounts shown at checkout. All computation here is deterministic
// and advisory: the order service re-validates everything on submission.
package pricing

import (
	"github.com/zainab220/Coffee-Shop-Management-System/internal/cart"
	"github.com/zainab220/Coffee-Shop-Management-System/internal/loyalty"
)

// DeliveryFee is flat per order, in currency units.
const DeliveryFee = 150.0

// RedemptionRequest is the customer's points-redemption toggle at checkout.
type RedemptionRequest struct {
	Enabled bool `json:"enabled"`
	Points  int  `json:"points"`
}

// Quote is the pricing breakdown for one cart snapshot. Derived, never stored.
type Quote struct {
	Subtotal       float64        `json:"subtotal"`
	DeliveryFee    float64        `json:"deliveryFee"`
	Discount       float64        `json:"discount"`
	Total          float64        `json:"total"`
	PointsToRedeem int            `json:"pointsToRedeem"`
	Bounds         loyalty.Bounds `json:"redemption"`
}

// Subtotal sums extended line prices.
func Subtotal(lines []cart.Line) float64 {
	var total float64
	for _, ln := range lines {
		total += ln.Extended()
	}
	return total
}

// PriceOrder computes the chargeable total for the cart. The redemption is
// clamped against bounds recomputed from the inputs, so a stale request that
// exceeds the current maximum, or fell below the eligibility threshold after
// a cart edit, is corrected before it influences the total.
func PriceOrder(lines []cart.Line, redemption RedemptionRequest, availablePoints int) Quote {
	subtotal := Subtotal(lines)
	bounds := loyalty.RedemptionBounds(subtotal, DeliveryFee, availablePoints)

	q := Quote{
		Subtotal:    subtotal,
		DeliveryFee: DeliveryFee,
		Bounds:      bounds,
	}

	if redemption.Enabled && bounds.Eligible {
		q.PointsToRedeem = loyalty.ClampRedemption(redemption.Points, bounds)
		q.Discount = float64(q.PointsToRedeem) * loyalty.PointValue
	}

	total := subtotal + DeliveryFee - q.Discount
	if total < 0 {
		total = 0
	}
	q.Total = total

	return q
}
