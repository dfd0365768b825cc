package pricing

import (
	"testing"

	"github.com/zainab220/Coffee-Shop-Management-System/internal/cart"
)

func TestPriceOrderWithoutRedemption(t *testing.T) {
	lines := []cart.Line{
		{ProductID: 1, Name: "Latte", UnitPrice: 550, Quantity: 2},
		{ProductID: 2, Name: "Croissant", UnitPrice: 300, Quantity: 1},
	}

	q := PriceOrder(lines, RedemptionRequest{}, 500)

	if q.Subtotal != 1400 {
		t.Fatalf("expected subtotal 1400, got %v", q.Subtotal)
	}
	if q.Discount != 0 || q.PointsToRedeem != 0 {
		t.Fatalf("expected no discount, got %v / %d", q.Discount, q.PointsToRedeem)
	}
	if q.Total != 1550 {
		t.Fatalf("expected total 1550, got %v", q.Total)
	}
}

func TestPriceOrderClampsActiveRedemption(t *testing.T) {
	lines := []cart.Line{{ProductID: 1, Name: "Latte", UnitPrice: 550, Quantity: 1}}

	// max redeemable = min(120, floor(550+150)) = 120
	q := PriceOrder(lines, RedemptionRequest{Enabled: true, Points: 150}, 120)
	if q.PointsToRedeem != 120 {
		t.Fatalf("expected redemption capped at 120, got %d", q.PointsToRedeem)
	}
	if q.Total != 580 {
		t.Fatalf("expected total 580, got %v", q.Total)
	}

	// under the 100-point floor, the request is raised to the minimum
	q = PriceOrder(lines, RedemptionRequest{Enabled: true, Points: 50}, 120)
	if q.PointsToRedeem != 100 {
		t.Fatalf("expected redemption floored to 100, got %d", q.PointsToRedeem)
	}
}

func TestPriceOrderForcesRedemptionOffWhenIneligible(t *testing.T) {
	lines := []cart.Line{{ProductID: 1, Name: "Latte", UnitPrice: 550, Quantity: 1}}

	q := PriceOrder(lines, RedemptionRequest{Enabled: true, Points: 200}, 50)

	if q.Bounds.Eligible {
		t.Fatal("expected ineligible bounds with 50 available points")
	}
	if q.Discount != 0 || q.PointsToRedeem != 0 {
		t.Fatalf("expected redemption forced off, got discount %v / points %d", q.Discount, q.PointsToRedeem)
	}
	if q.Total != 750 {
		t.Fatalf("expected undiscounted total 750, got %v", q.Total)
	}
}

func TestPriceOrderTotalNeverNegative(t *testing.T) {
	// a 200-point discount against 50+150 payable: clamp already prevents it,
	// but the total computation must floor at zero regardless
	lines := []cart.Line{{ProductID: 1, Name: "Espresso", UnitPrice: 50, Quantity: 1}}

	q := PriceOrder(lines, RedemptionRequest{Enabled: true, Points: 200}, 200)

	if q.Total < 0 {
		t.Fatalf("total went negative: %v", q.Total)
	}
	if q.PointsToRedeem > 200 {
		t.Fatalf("redeemed more than payable: %d", q.PointsToRedeem)
	}
}

func TestPriceOrderEmptyCart(t *testing.T) {
	q := PriceOrder(nil, RedemptionRequest{Enabled: true, Points: 500}, 500)

	if q.Subtotal != 0 {
		t.Fatalf("expected zero subtotal, got %v", q.Subtotal)
	}
	// only the delivery fee is payable: redemption stays eligible (150 >= 100)
	// but is capped at the fee
	if q.PointsToRedeem != 150 {
		t.Fatalf("expected redemption capped at payable 150, got %d", q.PointsToRedeem)
	}
	if q.Total != 0 {
		t.Fatalf("expected total 0, got %v", q.Total)
	}
}

func TestPriceOrderDeterministic(t *testing.T) {
	lines := []cart.Line{{ProductID: 1, Name: "Latte", UnitPrice: 550, Quantity: 1}}
	req := RedemptionRequest{Enabled: true, Points: 110}

	first := PriceOrder(lines, req, 120)
	second := PriceOrder(lines, req, 120)

	if first != second {
		t.Fatalf("expected identical quotes, got %+v and %+v", first, second)
	}
}
