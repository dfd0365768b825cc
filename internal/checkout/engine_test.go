package checkout

import (
	"context"
	"errors"
	"io"
	"log"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zainab220/Coffee-Shop-Management-System/internal/cart"
	"github.com/zainab220/Coffee-Shop-Management-System/internal/loyalty"
	"github.com/zainab220/Coffee-Shop-Management-System/internal/pricing"
)

type fakeStore struct {
	mu      sync.Mutex
	lines   map[string][]cart.Line
	cleared int
}

func newFakeStore() *fakeStore {
	return &fakeStore{lines: make(map[string][]cart.Line)}
}

func (f *fakeStore) Load(ctx context.Context, sessionID string) ([]cart.Line, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.lines[sessionID], nil
}

func (f *fakeStore) Save(ctx context.Context, sessionID string, lines []cart.Line) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lines[sessionID] = lines
	return nil
}

func (f *fakeStore) Clear(ctx context.Context, sessionID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.lines, sessionID)
	f.cleared++
	return nil
}

type fakeOrders struct {
	mu        sync.Mutex
	calls     int
	lastSub   Submission
	placeFunc func(ctx context.Context, userID string, sub Submission) (*Settlement, error)
}

func (f *fakeOrders) PlaceOrder(ctx context.Context, userID string, sub Submission) (*Settlement, error) {
	f.mu.Lock()
	f.calls++
	f.lastSub = sub
	fn := f.placeFunc
	f.mu.Unlock()
	if fn != nil {
		return fn(ctx, userID, sub)
	}
	return &Settlement{OrderID: 1}, nil
}

func (f *fakeOrders) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

type fakeBalance struct {
	mu      sync.Mutex
	calls   int
	balance int
	err     error
}

func (f *fakeBalance) Balance(ctx context.Context, userID string) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	return f.balance, f.err
}

type fakePublisher struct {
	mu    sync.Mutex
	calls int
}

func (f *fakePublisher) PublishOrderPlaced(ctx context.Context, sessionID, userID string, settlement *Settlement, sub Submission) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	return nil
}

func testLogger() *log.Logger {
	return log.New(io.Discard, "", 0)
}

func seedCart(t *testing.T, store cart.Store, sessionID string, lines ...cart.Line) {
	t.Helper()
	require.NoError(t, store.Save(context.Background(), sessionID, lines))
}

func TestSubmitEmptyCart(t *testing.T) {
	orders := &fakeOrders{}
	engine := NewEngine(orders, newFakeStore(), loyalty.NewAccount(&fakeBalance{}), nil, testLogger())

	_, err := engine.Submit(context.Background(), "s1", "u1", pricing.RedemptionRequest{}, PaymentCash)

	require.ErrorIs(t, err, ErrEmptyCart)
	assert.Equal(t, 0, orders.callCount(), "validation failure must not reach the order service")
	assert.Equal(t, StateIdle, engine.State("s1"))
}

func TestSubmitInvalidLineItemNamesProduct(t *testing.T) {
	store := newFakeStore()
	seedCart(t, store, "s1",
		cart.Line{ProductID: 1, Name: "Latte", UnitPrice: 550, Quantity: 1},
		cart.Line{ProductID: 0, Name: "Mystery Brew", UnitPrice: 400, Quantity: 2},
	)
	orders := &fakeOrders{}
	engine := NewEngine(orders, store, loyalty.NewAccount(&fakeBalance{}), nil, testLogger())

	_, err := engine.Submit(context.Background(), "s1", "u1", pricing.RedemptionRequest{}, PaymentCash)

	var invalid *InvalidLineItemError
	require.ErrorAs(t, err, &invalid)
	assert.Equal(t, "Mystery Brew", invalid.Name)
	assert.Equal(t, 0, orders.callCount())

	// the offending line is never dropped: the cart still holds both lines
	lines, _ := store.Load(context.Background(), "s1")
	assert.Len(t, lines, 2)
}

func TestSubmitUnknownPaymentMethod(t *testing.T) {
	store := newFakeStore()
	seedCart(t, store, "s1", cart.Line{ProductID: 1, Name: "Latte", UnitPrice: 550, Quantity: 1})
	orders := &fakeOrders{}
	engine := NewEngine(orders, store, loyalty.NewAccount(&fakeBalance{}), nil, testLogger())

	_, err := engine.Submit(context.Background(), "s1", "u1", pricing.RedemptionRequest{}, "Barter")

	require.ErrorIs(t, err, ErrUnknownPaymentMethod)
	assert.Equal(t, 0, orders.callCount())
}

func TestSubmitSuccessClearsCartAndCreditsPoints(t *testing.T) {
	store := newFakeStore()
	seedCart(t, store, "s1", cart.Line{ProductID: 1, Name: "Latte", UnitPrice: 550, Quantity: 2})
	orders := &fakeOrders{placeFunc: func(ctx context.Context, userID string, sub Submission) (*Settlement, error) {
		return &Settlement{OrderID: 42, Total: 1250, PointsEarned: 12}, nil
	}}
	account := loyalty.NewAccount(&fakeBalance{balance: 30})
	publisher := &fakePublisher{}
	engine := NewEngine(orders, store, account, publisher, testLogger())

	settlement, err := engine.Submit(context.Background(), "s1", "u1", pricing.RedemptionRequest{}, PaymentCash)

	require.NoError(t, err)
	assert.EqualValues(t, 42, settlement.OrderID)
	assert.Equal(t, StateSucceeded, engine.State("s1"))
	assert.Equal(t, 1, store.cleared, "cart must be cleared on confirmed success")
	assert.Equal(t, 30+12, account.Available("u1"), "earned points credited to the cache")
	assert.Equal(t, 1, publisher.calls)

	// submission carries the fixed fee and the order service's item shape
	assert.Equal(t, pricing.DeliveryFee, orders.lastSub.DeliveryFee)
	require.Len(t, orders.lastSub.Items, 1)
	assert.EqualValues(t, 1, orders.lastSub.Items[0].ProductID)
}

func TestSubmitReclampsStaleRedemption(t *testing.T) {
	store := newFakeStore()
	seedCart(t, store, "s1", cart.Line{ProductID: 1, Name: "Latte", UnitPrice: 550, Quantity: 1})
	orders := &fakeOrders{}
	// only 120 points available although the customer asked for 150
	engine := NewEngine(orders, store, loyalty.NewAccount(&fakeBalance{balance: 120}), nil, testLogger())

	_, err := engine.Submit(context.Background(), "s1", "u1", pricing.RedemptionRequest{Enabled: true, Points: 150}, PaymentCash)

	require.NoError(t, err)
	assert.Equal(t, 120, orders.lastSub.PointsToRedeem, "stale request must be clamped before submission")
}

func TestSubmitRedemptionRefreshesBalanceAuthoritatively(t *testing.T) {
	store := newFakeStore()
	seedCart(t, store, "s1", cart.Line{ProductID: 1, Name: "Latte", UnitPrice: 550, Quantity: 1})
	source := &fakeBalance{balance: 120}
	orders := &fakeOrders{placeFunc: func(ctx context.Context, userID string, sub Submission) (*Settlement, error) {
		return &Settlement{OrderID: 7, PointsRedeemed: 120, PointsEarned: 5, DiscountAmount: 120}, nil
	}}
	engine := NewEngine(orders, store, loyalty.NewAccount(source), nil, testLogger())

	_, err := engine.Submit(context.Background(), "s1", "u1", pricing.RedemptionRequest{Enabled: true, Points: 120}, PaymentCash)

	require.NoError(t, err)
	// one refresh before pricing, one after the redeeming settlement
	assert.Equal(t, 2, source.calls)
}

func TestSubmitBalanceRefreshFailureIsNonFatal(t *testing.T) {
	store := newFakeStore()
	seedCart(t, store, "s1", cart.Line{ProductID: 1, Name: "Latte", UnitPrice: 550, Quantity: 1})
	orders := &fakeOrders{}
	engine := NewEngine(orders, store, loyalty.NewAccount(&fakeBalance{err: errors.New("rewards down")}), nil, testLogger())

	_, err := engine.Submit(context.Background(), "s1", "u1", pricing.RedemptionRequest{}, PaymentCash)

	require.NoError(t, err, "checkout must not block on a failed balance refresh")
	assert.Equal(t, 1, orders.callCount())
}

func TestSubmitTransportErrorPreservesCart(t *testing.T) {
	store := newFakeStore()
	seedCart(t, store, "s1", cart.Line{ProductID: 1, Name: "Latte", UnitPrice: 550, Quantity: 1})
	orders := &fakeOrders{placeFunc: func(ctx context.Context, userID string, sub Submission) (*Settlement, error) {
		return nil, &TransportError{Err: errors.New("connection refused")}
	}}
	engine := NewEngine(orders, store, loyalty.NewAccount(&fakeBalance{}), nil, testLogger())

	_, err := engine.Submit(context.Background(), "s1", "u1", pricing.RedemptionRequest{}, PaymentCash)

	var transport *TransportError
	require.ErrorAs(t, err, &transport)
	assert.Equal(t, StateFailed, engine.State("s1"))
	assert.Equal(t, 0, store.cleared)
	assert.Equal(t, 1, orders.callCount(), "no automatic retry")

	// Failed is recoverable: a corrected resubmission goes through
	orders.placeFunc = nil
	_, err = engine.Submit(context.Background(), "s1", "u1", pricing.RedemptionRequest{}, PaymentCash)
	require.NoError(t, err)
	assert.Equal(t, StateSucceeded, engine.State("s1"))
}

func TestSubmitDoubleSubmitGuard(t *testing.T) {
	store := newFakeStore()
	seedCart(t, store, "s1", cart.Line{ProductID: 1, Name: "Latte", UnitPrice: 550, Quantity: 1})

	entered := make(chan struct{})
	release := make(chan struct{})
	orders := &fakeOrders{placeFunc: func(ctx context.Context, userID string, sub Submission) (*Settlement, error) {
		close(entered)
		<-release
		return &Settlement{OrderID: 1}, nil
	}}
	engine := NewEngine(orders, store, loyalty.NewAccount(&fakeBalance{}), nil, testLogger())

	done := make(chan error, 1)
	go func() {
		_, err := engine.Submit(context.Background(), "s1", "u1", pricing.RedemptionRequest{}, PaymentCash)
		done <- err
	}()

	select {
	case <-entered:
	case <-time.After(2 * time.Second):
		t.Fatal("first submission never reached the order service")
	}

	_, err := engine.Submit(context.Background(), "s1", "u1", pricing.RedemptionRequest{}, PaymentCash)
	require.ErrorIs(t, err, ErrSubmissionInFlight)

	close(release)
	require.NoError(t, <-done)
	assert.Equal(t, 1, orders.callCount(), "exactly one order request despite the double click")
}

func TestSubmitIgnoresResponseForRevokedSession(t *testing.T) {
	store := newFakeStore()
	seedCart(t, store, "s1", cart.Line{ProductID: 1, Name: "Latte", UnitPrice: 550, Quantity: 1})

	engine := (*Engine)(nil)
	orders := &fakeOrders{placeFunc: func(ctx context.Context, userID string, sub Submission) (*Settlement, error) {
		// user logs out in another tab while the request is in flight
		engine.RevokeSession("s1")
		return &Settlement{OrderID: 9, PointsEarned: 10}, nil
	}}
	account := loyalty.NewAccount(&fakeBalance{})
	engine = NewEngine(orders, store, account, nil, testLogger())

	_, err := engine.Submit(context.Background(), "s1", "u1", pricing.RedemptionRequest{}, PaymentCash)

	require.ErrorIs(t, err, ErrSessionSuperseded)
	assert.Equal(t, 0, store.cleared, "superseded settlement must not touch local state")
	assert.Equal(t, 0, account.Available("u1"))
}

func TestClassify(t *testing.T) {
	cases := map[string]struct {
		err  error
		want string
	}{
		"nil":          {nil, "none"},
		"empty cart":   {ErrEmptyCart, "validation"},
		"in flight":    {ErrSubmissionInFlight, "validation"},
		"invalid line": {&InvalidLineItemError{Name: "Latte"}, "validation"},
		"transport":    {&TransportError{Err: errors.New("refused")}, "transport"},
		"rejected":     {&RejectedError{Status: 400, Reason: "stock"}, "rejected"},
		"unexpected":   {errors.New("boom"), "unexpected"},
	}

	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			assert.Equal(t, tc.want, Classify(tc.err))
		})
	}
}
