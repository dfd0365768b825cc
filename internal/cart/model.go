package cart

// Product is the catalog's view of an item, carried into the cart at add-time.
// Prices are not re-validated against the catalog after that point.
type Product struct {
	ID        int64   `json:"id"`
	Name      string  `json:"name"`
	UnitPrice float64 `json:"unitPrice"`
	ImageRef  string  `json:"imageRef,omitempty"`
}

// Line is one product entry in the customer's pending order. Lines are keyed
// by product name while the cart is being edited; the product id is what the
// order service requires at submission time.
type Line struct {
	ProductID int64   `json:"productId"`
	Name      string  `json:"name"`
	UnitPrice float64 `json:"unitPrice"`
	Quantity  int     `json:"quantity"`
}

// Extended returns the line's extended price (unit price times quantity).
func (l Line) Extended() float64 {
	return l.UnitPrice * float64(l.Quantity)
}
