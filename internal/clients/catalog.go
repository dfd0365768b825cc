package clients

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/zainab220/Coffee-Shop-Management-System/internal/cart"
)

type CatalogClient struct{ c *Client }

func NewCatalogClient(c *Client) *CatalogClient { return &CatalogClient{c: c} }

// ListProducts fetches the menu. The returned products are read-only input to
// cart line creation; prices are captured at add-time and not re-validated.
func (cc *CatalogClient) ListProducts(ctx context.Context) ([]cart.Product, error) {
	resp, err := cc.c.Do(ctx, http.MethodGet, "/api/products", "", nil, nil)
	if err != nil {
		return nil, fmt.Errorf("catalog request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("catalog responded %d", resp.StatusCode)
	}

	var out struct {
		Products []cart.Product `json:"products"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("decode products: %w", err)
	}

	return out.Products, nil
}
