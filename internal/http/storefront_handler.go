package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/zainab220/Coffee-Shop-Management-System/internal/cart"
	"github.com/zainab220/Coffee-Shop-Management-System/internal/checkout"
	"github.com/zainab220/Coffee-Shop-Management-System/internal/loyalty"
	"github.com/zainab220/Coffee-Shop-Management-System/internal/metrics"
	"github.com/zainab220/Coffee-Shop-Management-System/internal/middleware"
	"github.com/zainab220/Coffee-Shop-Management-System/internal/pricing"
)

// CatalogLister proxies the product catalog for the menu view.
type CatalogLister interface {
	ListProducts(ctx context.Context) ([]cart.Product, error)
}

type Handler struct {
	catalog CatalogLister
	store   cart.Store
	account *loyalty.Account
	engine  *checkout.Engine
	metrics *metrics.ServerMetrics
}

func NewHandler(catalog CatalogLister, store cart.Store, account *loyalty.Account, engine *checkout.Engine, m *metrics.ServerMetrics) *Handler {
	return &Handler{catalog: catalog, store: store, account: account, engine: engine, metrics: m}
}

func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status":  "ok",
		"service": "storefront-service",
	})
}

func (h *Handler) GetMenu(w http.ResponseWriter, r *http.Request) {
	products, err := h.catalog.ListProducts(r.Context())
	if err != nil {
		writeError(w, http.StatusBadGateway, "failed to load menu")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"products": products})
}

type cartResponse struct {
	Items     []cart.Line `json:"items"`
	Subtotal  float64     `json:"subtotal"`
	ItemCount int         `json:"itemCount"`
}

func (h *Handler) GetCart(w http.ResponseWriter, r *http.Request) {
	ledger, err := h.loadLedger(w, r)
	if err != nil {
		return
	}
	writeCart(w, ledger)
}

func (h *Handler) AddItem(w http.ResponseWriter, r *http.Request) {
	var p cart.Product
	if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
		writeError(w, http.StatusBadRequest, "bad request")
		return
	}
	if p.Name == "" || p.UnitPrice < 0 {
		writeError(w, http.StatusBadRequest, "product name and a non-negative price are required")
		return
	}

	ledger, err := h.loadLedger(w, r)
	if err != nil {
		return
	}
	if err := ledger.AddLine(r.Context(), p); err != nil {
		writeError(w, http.StatusInternalServerError, "failed to update cart")
		return
	}
	writeCart(w, ledger)
}

type updateItemRequest struct {
	Quantity int `json:"quantity"`
}

func (h *Handler) UpdateItem(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	if name == "" {
		writeError(w, http.StatusBadRequest, "missing item name")
		return
	}

	var req updateItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad request")
		return
	}

	ledger, err := h.loadLedger(w, r)
	if err != nil {
		return
	}
	if err := ledger.SetQuantity(r.Context(), name, req.Quantity); err != nil {
		writeError(w, http.StatusInternalServerError, "failed to update cart")
		return
	}
	writeCart(w, ledger)
}

func (h *Handler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	if name == "" {
		writeError(w, http.StatusBadRequest, "missing item name")
		return
	}

	ledger, err := h.loadLedger(w, r)
	if err != nil {
		return
	}
	if err := ledger.RemoveLine(r.Context(), name); err != nil {
		writeError(w, http.StatusInternalServerError, "failed to update cart")
		return
	}
	writeCart(w, ledger)
}

func (h *Handler) ClearCart(w http.ResponseWriter, r *http.Request) {
	ledger, err := h.loadLedger(w, r)
	if err != nil {
		return
	}
	if err := ledger.Clear(r.Context()); err != nil {
		writeError(w, http.StatusInternalServerError, "failed to clear cart")
		return
	}
	writeCart(w, ledger)
}

type rewardsResponse struct {
	RewardPoints int            `json:"reward_points"`
	Redemption   loyalty.Bounds `json:"redemption"`
}

// GetRewards returns the balance plus the redemption bounds for the current
// cart. A failed refresh degrades to the cached balance rather than erroring.
func (h *Handler) GetRewards(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	if userID == "" {
		writeError(w, http.StatusBadRequest, "missing X-User-Id header")
		return
	}

	balance, _ := h.account.Refresh(r.Context(), userID)

	ledger, err := h.loadLedger(w, r)
	if err != nil {
		return
	}

	writeJSON(w, http.StatusOK, rewardsResponse{
		RewardPoints: balance,
		Redemption:   loyalty.RedemptionBounds(ledger.Subtotal(), pricing.DeliveryFee, balance),
	})
}

type quoteRequest struct {
	RedeemPoints pricing.RedemptionRequest `json:"redeemPoints"`
}

func (h *Handler) Quote(w http.ResponseWriter, r *http.Request) {
	var req quoteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad request")
		return
	}

	ledger, err := h.loadLedger(w, r)
	if err != nil {
		return
	}

	available := h.account.Available(middleware.GetUserID(r.Context()))
	writeJSON(w, http.StatusOK, pricing.PriceOrder(ledger.Lines(), req.RedeemPoints, available))
}

type checkoutRequest struct {
	PaymentMethod string                    `json:"paymentMethod"`
	RedeemPoints  pricing.RedemptionRequest `json:"redeemPoints"`
}

func (h *Handler) Checkout(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	if userID == "" {
		writeError(w, http.StatusBadRequest, "missing X-User-Id header")
		return
	}

	var req checkoutRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad request")
		return
	}

	sessionID := middleware.GetSessionID(r.Context())
	settlement, err := h.engine.Submit(r.Context(), sessionID, userID, req.RedeemPoints, req.PaymentMethod)
	outcome := checkout.Classify(err)
	if h.metrics != nil {
		h.metrics.Checkouts.WithLabelValues(outcome).Inc()
	}
	if err != nil {
		h.writeCheckoutError(w, err, outcome)
		return
	}

	writeJSON(w, http.StatusCreated, settlement)
}

func (h *Handler) writeCheckoutError(w http.ResponseWriter, err error, outcome string) {
	switch outcome {
	case "validation":
		if errors.Is(err, checkout.ErrSubmissionInFlight) {
			writeError(w, http.StatusConflict, err.Error())
			return
		}
		writeError(w, http.StatusBadRequest, err.Error())
	case "transport":
		writeError(w, http.StatusServiceUnavailable, "order service unreachable, please try again")
	case "rejected":
		var rejected *checkout.RejectedError
		_ = errors.As(err, &rejected)
		writeError(w, http.StatusConflict, rejected.Reason)
	default:
		writeError(w, http.StatusInternalServerError, "something went wrong, please try again")
	}
}

func (h *Handler) loadLedger(w http.ResponseWriter, r *http.Request) (*cart.Ledger, error) {
	sessionID := middleware.GetSessionID(r.Context())
	ledger, err := cart.LoadLedger(r.Context(), sessionID, h.store)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to load cart")
		return nil, err
	}
	return ledger, nil
}

func writeCart(w http.ResponseWriter, ledger *cart.Ledger) {
	writeJSON(w, http.StatusOK, cartResponse{
		Items:     ledger.Lines(),
		Subtotal:  ledger.Subtotal(),
		ItemCount: ledger.ItemCount(),
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
