package clients

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/zainab220/Coffee-Shop-Management-System/internal/checkout"
	"github.com/zainab220/Coffee-Shop-Management-System/internal/middleware"
)

// OrderClient submits orders to the authoritative order-processing service
// and translates its failure modes into the checkout error taxonomy:
// unreachable service, service-rejected order, and everything else.
type OrderClient struct{ c *Client }

func NewOrderClient(c *Client) *OrderClient { return &OrderClient{c: c} }

func (oc *OrderClient) PlaceOrder(ctx context.Context, userID string, sub checkout.Submission) (*checkout.Settlement, error) {
	body, err := json.Marshal(sub)
	if err != nil {
		return nil, &checkout.UnexpectedError{Err: fmt.Errorf("marshal submission: %w", err)}
	}

	headers := http.Header{}
	headers.Set(middleware.HeaderUserID, userID)

	resp, err := oc.c.Do(ctx, http.MethodPost, "/api/orders", "", bytes.NewReader(body), headers)
	if err != nil {
		return nil, &checkout.TransportError{Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 && resp.StatusCode < 500 {
		return nil, &checkout.RejectedError{
			Status: resp.StatusCode,
			Reason: decodeErrorReason(resp),
		}
	}
	if resp.StatusCode >= 500 {
		return nil, &checkout.UnexpectedError{
			Err: fmt.Errorf("order service responded %d: %s", resp.StatusCode, decodeErrorReason(resp)),
		}
	}

	var out struct {
		Order struct {
			OrderID     int64   `json:"order_id"`
			TotalAmount float64 `json:"total_amount"`
		} `json:"order"`
		OrderID        int64   `json:"order_id"`
		PointsEarned   int     `json:"points_earned"`
		PointsRedeemed int     `json:"points_redeemed"`
		DiscountAmount float64 `json:"discount_amount"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, &checkout.UnexpectedError{Err: fmt.Errorf("decode order response: %w", err)}
	}

	orderID := out.Order.OrderID
	if orderID == 0 {
		orderID = out.OrderID
	}

	return &checkout.Settlement{
		OrderID:        orderID,
		Total:          out.Order.TotalAmount,
		PointsEarned:   out.PointsEarned,
		PointsRedeemed: out.PointsRedeemed,
		DiscountAmount: out.DiscountAmount,
	}, nil
}

func decodeErrorReason(resp *http.Response) string {
	var e struct {
		Error   string `json:"error"`
		Message string `json:"message"`
	}
	_ = json.NewDecoder(resp.Body).Decode(&e)
	if e.Error != "" {
		return e.Error
	}
	if e.Message != "" {
		return e.Message
	}
	return resp.Status
}
