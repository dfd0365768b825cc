package loyalty

import "math"

const (
	// MinimumRedemption is the smallest number of points a customer may
	// redeem in one order.
	MinimumRedemption = 100

	// PointValue is the currency value of one point.
	PointValue = 1.0
)

// Bounds is the legal redemption range for one pricing snapshot.
type Bounds struct {
	MinRedeemable int  `json:"minRedeemable"`
	MaxRedeemable int  `json:"maxRedeemable"`
	Eligible      bool `json:"eligible"`
}

// RedemptionBounds computes the legal range of points redeemable against the
// given cart snapshot. The maximum is capped both by the available balance
// and by the payable amount, so a redemption can never discount below zero.
// The delivery fee is fixed and known at computation time.
func RedemptionBounds(subtotal, deliveryFee float64, availablePoints int) Bounds {
	max := int(math.Floor(subtotal + deliveryFee))
	if availablePoints < max {
		max = availablePoints
	}
	if max < 0 {
		max = 0
	}

	b := Bounds{MaxRedeemable: max}
	if max >= MinimumRedemption {
		b.Eligible = true
		b.MinRedeemable = MinimumRedemption
	}
	return b
}

// ClampRedemption corrects a requested point amount into the bounds. When the
// bounds are ineligible it returns 0 and the caller must disable redemption
// entirely. Idempotent: clamping a clamped value with the same bounds returns
// it unchanged. Must be re-applied whenever subtotal, delivery fee, or the
// available balance change while a redemption is active.
func ClampRedemption(requested int, b Bounds) int {
	if !b.Eligible {
		return 0
	}
	if requested < b.MinRedeemable {
		return b.MinRedeemable
	}
	if requested > b.MaxRedeemable {
		return b.MaxRedeemable
	}
	return requested
}
