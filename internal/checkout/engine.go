package checkout

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/zainab220/Coffee-Shop-Management-System/internal/cart"
	"github.com/zainab220/Coffee-Shop-Management-System/internal/loyalty"
	"github.com/zainab220/Coffee-Shop-Management-System/internal/pricing"
)

// State is the checkout lifecycle for one session's cart instance.
type State string

const (
	StateIdle       State = "idle"
	StateValidating State = "validating"
	StateSubmitting State = "submitting"
	StateSucceeded  State = "succeeded"
	StateFailed     State = "failed"
)

// Payment methods accepted by the order service.
const (
	PaymentCash       = "Cash"
	PaymentCreditCard = "CreditCard"
	PaymentOnline     = "Online"
)

// Item is one submitted order line, in the order service's wire shape.
type Item struct {
	ProductID int64   `json:"product_id"`
	Quantity  int     `json:"quantity"`
	UnitPrice float64 `json:"price"`
}

// Submission is the immutable order request. Built once per checkout, sent
// exactly once, never mutated.
type Submission struct {
	Items          []Item  `json:"items"`
	PaymentMethod  string  `json:"payment_method"`
	DeliveryFee    float64 `json:"delivery_fee"`
	PointsToRedeem int     `json:"points_to_redeem,omitempty"`
}

// Settlement is the authoritative server-confirmed outcome of a submission.
type Settlement struct {
	OrderID        int64   `json:"orderId"`
	Total          float64 `json:"total"`
	PointsEarned   int     `json:"pointsEarned"`
	PointsRedeemed int     `json:"pointsRedeemed"`
	DiscountAmount float64 `json:"discountAmount"`
}

// OrderService is the external order-processing collaborator. It is the
// single source of truth for balance mutation and order persistence.
type OrderService interface {
	PlaceOrder(ctx context.Context, userID string, sub Submission) (*Settlement, error)
}

// Publisher emits the order-placed event after a confirmed settlement.
type Publisher interface {
	PublishOrderPlaced(ctx context.Context, sessionID, userID string, settlement *Settlement, sub Submission) error
}

// Engine owns order submission: it validates the latest cart snapshot,
// re-clamps any active redemption, sends exactly one request per checkout,
// and settles the local cart and loyalty cache on confirmed success. One
// logical actor (the session) drives each cart, so per-session bookkeeping
// covers the double-submit and freshness guards.
type Engine struct {
	orders    OrderService
	store     cart.Store
	account   *loyalty.Account
	publisher Publisher
	logger    *log.Logger
	now       func() time.Time

	mu       sync.Mutex
	sessions map[string]*sessionState
}

type sessionState struct {
	state    State
	epoch    uint64
	inFlight bool
}

func NewEngine(orders OrderService, store cart.Store, account *loyalty.Account, publisher Publisher, logger *log.Logger) *Engine {
	return &Engine{
		orders:    orders,
		store:     store,
		account:   account,
		publisher: publisher,
		logger:    logger,
		now:       time.Now,
		sessions:  make(map[string]*sessionState),
	}
}

// State reports the checkout lifecycle state for a session.
func (e *Engine) State(sessionID string) State {
	e.mu.Lock()
	defer e.mu.Unlock()
	if s, ok := e.sessions[sessionID]; ok {
		return s.state
	}
	return StateIdle
}

// RevokeSession invalidates a session: any in-flight submission response is
// ignored when it lands, and the session's checkout state resets. Driven by
// the external logout signal.
func (e *Engine) RevokeSession(sessionID string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	s := e.sessionLocked(sessionID)
	s.epoch++
	s.state = StateIdle
}

// Submit runs one checkout attempt: Validating, then a single Submitting
// request, then Succeeded or Failed. Validation failures return before any
// network effect with the session back in Idle. A duplicate call while a
// submission is in flight fails with ErrSubmissionInFlight.
func (e *Engine) Submit(ctx context.Context, sessionID, userID string, redemption pricing.RedemptionRequest, paymentMethod string) (*Settlement, error) {
	e.mu.Lock()
	s := e.sessionLocked(sessionID)
	if s.inFlight {
		e.mu.Unlock()
		return nil, ErrSubmissionInFlight
	}
	s.inFlight = true
	s.state = StateValidating
	epoch := s.epoch
	e.mu.Unlock()

	defer func() {
		e.mu.Lock()
		s.inFlight = false
		e.mu.Unlock()
	}()

	settlement, err := e.submit(ctx, s, epoch, sessionID, userID, redemption, paymentMethod)
	e.mu.Lock()
	switch {
	case err == nil:
		s.state = StateSucceeded
	case Classify(err) == "validation":
		s.state = StateIdle
	default:
		s.state = StateFailed
	}
	e.mu.Unlock()

	return settlement, err
}

func (e *Engine) submit(ctx context.Context, s *sessionState, epoch uint64, sessionID, userID string, redemption pricing.RedemptionRequest, paymentMethod string) (*Settlement, error) {
	method, err := normalizePaymentMethod(paymentMethod)
	if err != nil {
		return nil, err
	}

	// Always price from the latest persisted snapshot, never one captured
	// before an earlier async refresh resolved.
	ledger, err := cart.LoadLedger(ctx, sessionID, e.store)
	if err != nil {
		return nil, &UnexpectedError{Err: err}
	}

	lines := ledger.Lines()
	if len(lines) == 0 {
		return nil, ErrEmptyCart
	}
	for _, ln := range lines {
		if ln.ProductID == 0 {
			return nil, &InvalidLineItemError{Name: ln.Name}
		}
	}

	available, refreshErr := e.account.Refresh(ctx, userID)
	if refreshErr != nil {
		e.logger.Printf("loyalty refresh failed for user %s, using cached balance %d: %v", userID, available, refreshErr)
	}

	// Final clamp against the snapshot being submitted; a stale redemption
	// request is corrected here, never sent to the server as-is.
	quote := pricing.PriceOrder(lines, redemption, available)

	sub := Submission{
		Items:          make([]Item, 0, len(lines)),
		PaymentMethod:  method,
		DeliveryFee:    pricing.DeliveryFee,
		PointsToRedeem: quote.PointsToRedeem,
	}
	for _, ln := range lines {
		sub.Items = append(sub.Items, Item{
			ProductID: ln.ProductID,
			Quantity:  ln.Quantity,
			UnitPrice: ln.UnitPrice,
		})
	}

	e.mu.Lock()
	s.state = StateSubmitting
	e.mu.Unlock()

	settlement, err := e.orders.PlaceOrder(ctx, userID, sub)
	if err != nil {
		return nil, err
	}

	// The session may have been revoked while the request was in flight; the
	// server kept the order, but this cart/session no longer exists locally.
	e.mu.Lock()
	stale := s.epoch != epoch
	e.mu.Unlock()
	if stale {
		e.logger.Printf("discarding settlement for superseded session %s (order %d)", sessionID, settlement.OrderID)
		return nil, ErrSessionSuperseded
	}

	e.settle(ctx, sessionID, userID, settlement, sub)
	return settlement, nil
}

func (e *Engine) settle(ctx context.Context, sessionID, userID string, settlement *Settlement, sub Submission) {
	if err := e.store.Clear(ctx, sessionID); err != nil {
		e.logger.Printf("clear cart after order %d: %v", settlement.OrderID, err)
	}

	if settlement.PointsRedeemed > 0 {
		// A redemption happened server-side; re-read the balance instead of
		// computing it locally.
		if _, err := e.account.Refresh(ctx, userID); err != nil {
			e.logger.Printf("post-redemption balance refresh for user %s: %v", userID, err)
		}
	} else {
		e.account.ApplyEarned(userID, settlement.PointsEarned)
	}

	if e.publisher != nil {
		if err := e.publisher.PublishOrderPlaced(ctx, sessionID, userID, settlement, sub); err != nil {
			e.logger.Printf("publish order placed %d: %v", settlement.OrderID, err)
		}
	}
}

func (e *Engine) sessionLocked(sessionID string) *sessionState {
	s, ok := e.sessions[sessionID]
	if !ok {
		s = &sessionState{state: StateIdle}
		e.sessions[sessionID] = s
	}
	return s
}

func normalizePaymentMethod(method string) (string, error) {
	switch method {
	case "":
		return PaymentCash, nil
	case PaymentCash, PaymentCreditCard, PaymentOnline:
		return method, nil
	default:
		return "", ErrUnknownPaymentMethod
	}
}
