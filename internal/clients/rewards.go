package clients

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/zainab220/Coffee-Shop-Management-System/internal/middleware"
)

// RewardsClient reads the authoritative reward-point balance. It implements
// loyalty.BalanceSource; failures are handled by the caller's cache fallback.
type RewardsClient struct{ c *Client }

func NewRewardsClient(c *Client) *RewardsClient { return &RewardsClient{c: c} }

func (rc *RewardsClient) Balance(ctx context.Context, userID string) (int, error) {
	headers := http.Header{}
	headers.Set(middleware.HeaderUserID, userID)

	resp, err := rc.c.Do(ctx, http.MethodGet, "/api/rewards", "", nil, headers)
	if err != nil {
		return 0, fmt.Errorf("rewards request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return 0, fmt.Errorf("rewards service responded %d", resp.StatusCode)
	}

	var out struct {
		RewardPoints int `json:"reward_points"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return 0, fmt.Errorf("decode rewards response: %w", err)
	}

	return out.RewardPoints, nil
}
