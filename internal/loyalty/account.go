package loyalty

import (
	"context"
	"sync"
)

// BalanceSource is the authoritative reward-balance collaborator.
type BalanceSource interface {
	Balance(ctx context.Context, userID string) (int, error)
}

// Account is a read-mostly cache of reward-point balances. The balance is
// only ever mutated server-side; this cache is refreshed from the source and
// falls back to the last-known value when a refresh fails, so checkout is
// never blocked on the rewards service.
type Account struct {
	source BalanceSource

	mu     sync.Mutex
	points map[string]int
}

func NewAccount(source BalanceSource) *Account {
	return &Account{source: source, points: make(map[string]int)}
}

// Available returns the cached balance, zero for an unknown user.
func (a *Account) Available(userID string) int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.points[userID]
}

// Refresh re-reads the balance from the source. On failure it returns the
// last-known cached value along with the error; callers treat the error as
// non-fatal.
func (a *Account) Refresh(ctx context.Context, userID string) (int, error) {
	balance, err := a.source.Balance(ctx, userID)
	if err != nil {
		return a.Available(userID), err
	}
	if balance < 0 {
		balance = 0
	}

	a.mu.Lock()
	a.points[userID] = balance
	a.mu.Unlock()
	return balance, nil
}

// ApplyEarned credits points reported by a settlement response. Used only
// when the settlement involved no redemption; a redemption triggers an
// authoritative Refresh instead, so the cache never drifts from the server
// ledger by local arithmetic.
func (a *Account) ApplyEarned(userID string, earned int) {
	if earned <= 0 {
		return
	}
	a.mu.Lock()
	a.points[userID] += earned
	a.mu.Unlock()
}

// Forget drops the cached balance for a user, e.g. on logout.
func (a *Account) Forget(userID string) {
	a.mu.Lock()
	delete(a.points, userID)
	a.mu.Unlock()
}
