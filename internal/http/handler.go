package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/andreasstove999/ecommerce-system/checkout-service-go/internal/cart"
	"github.com/andreasstove999/ecommerce-system/checkout-service-go/internal/checkout"
	"github.com/andreasstove999/ecommerce-system/checkout-service-go/internal/delivery"
	"github.com/andreasstove999/ecommerce-system/checkout-service-go/internal/menu"
)

type MenuLister interface {
	Items() []menu.Item
}

type FallbackLister interface {
	List(ctx context.Context, sessionID string) ([]checkout.Order, error)
}

type Handler struct {
	menu     MenuLister
	carts    *cart.Service
	checkout *checkout.Service
	fallback FallbackLister
	log      *zap.Logger
}

func NewHandler(m MenuLister, carts *cart.Service, co *checkout.Service, fallback FallbackLister, log *zap.Logger) *Handler {
	if log == nil {
		log = zap.NewNop()
	}
	return &Handler{menu: m, carts: carts, checkout: co, fallback: fallback, log: log}
}

func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func (h *Handler) ListMenu(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"items": h.menu.Items()})
}

// cartResponse adds the session's current delivery quote to the cart view.
type cartResponse struct {
	cart.View
	DeliveryFee decimal.Decimal `json:"deliveryFee"`
	Total       decimal.Decimal `json:"total"`
	Quote       delivery.Quote  `json:"quote"`
}

func (h *Handler) cartResponse(v cart.View) cartResponse {
	q := h.checkout.CurrentQuote(v.SessionID)
	return cartResponse{
		View:        v,
		DeliveryFee: q.Fee,
		Total:       v.Subtotal.Add(q.Fee),
		Quote:       q,
	}
}

func (h *Handler) GetCart(w http.ResponseWriter, r *http.Request) {
	v, err := h.carts.Get(r.Context(), chi.URLParam(r, "sessionId"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, h.cartResponse(v))
}

type addItemRequest struct {
	ItemID   string `json:"itemId"`
	Quantity int    `json:"quantity"`
}

func (h *Handler) AddItem(w http.ResponseWriter, r *http.Request) {
	var req addItemRequest
	if !decode(w, r, &req) {
		return
	}
	v, err := h.carts.AddItem(r.Context(), chi.URLParam(r, "sessionId"), strings.TrimSpace(req.ItemID), req.Quantity)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, h.cartResponse(v))
}

type changeQuantityRequest struct {
	Delta int `json:"delta"`
}

func (h *Handler) ChangeQuantity(w http.ResponseWriter, r *http.Request) {
	var req changeQuantityRequest
	if !decode(w, r, &req) {
		return
	}
	v, err := h.carts.ChangeQuantity(r.Context(), chi.URLParam(r, "sessionId"), chi.URLParam(r, "itemId"), req.Delta)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, h.cartResponse(v))
}

func (h *Handler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	v, err := h.carts.RemoveItem(r.Context(), chi.URLParam(r, "sessionId"), chi.URLParam(r, "itemId"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, h.cartResponse(v))
}

func (h *Handler) ClearCart(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionId")
	if err := h.carts.Clear(r.Context(), sessionID); err != nil && !errors.Is(err, cart.ErrNotFound) {
		h.writeError(w, r, err)
		return
	}
	h.checkout.ResetQuote(sessionID)
	w.WriteHeader(http.StatusNoContent)
}

type quoteResponse struct {
	delivery.Quote
	Applied bool `json:"applied"`
}

func (h *Handler) DeliveryQuote(w http.ResponseWriter, r *http.Request) {
	var req delivery.QuoteRequest
	if !decode(w, r, &req) {
		return
	}
	if req.Method != "" && !req.Method.Valid() {
		writeError(w, http.StatusBadRequest, "invalid_request", "unknown deliveryMethod")
		return
	}
	q, applied := h.checkout.QuoteDelivery(r.Context(), chi.URLParam(r, "sessionId"), req)
	writeJSON(w, http.StatusOK, quoteResponse{Quote: q, Applied: applied})
}

func (h *Handler) Preview(w http.ResponseWriter, r *http.Request) {
	var c checkout.Customer
	if !decode(w, r, &c) {
		return
	}
	o, err := h.checkout.Preview(r.Context(), chi.URLParam(r, "sessionId"), c)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, o)
}

type checkoutFailure struct {
	Error        string          `json:"error"`
	Code         string          `json:"code"`
	State        checkout.State  `json:"state"`
	Order        *checkout.Order `json:"order,omitempty"`
	Transport    string          `json:"transport,omitempty"`
	SavedLocally bool            `json:"savedLocally"`
}

func (h *Handler) Checkout(w http.ResponseWriter, r *http.Request) {
	var c checkout.Customer
	if !decode(w, r, &c) {
		return
	}
	res, err := h.checkout.Checkout(r.Context(), chi.URLParam(r, "sessionId"), c)
	if err == nil {
		writeJSON(w, http.StatusCreated, res)
		return
	}
	if errors.Is(err, checkout.ErrTransportFailure) {
		writeJSON(w, http.StatusBadGateway, checkoutFailure{
			Error:        err.Error(),
			Code:         "transport_failure",
			State:        res.State,
			Order:        res.Order,
			Transport:    res.Transport,
			SavedLocally: res.SavedLocally,
		})
		return
	}
	h.writeError(w, r, err)
}

// ListFallbackOrders returns the orders saved locally for the session
// after its transport was unreachable.
func (h *Handler) ListFallbackOrders(w http.ResponseWriter, r *http.Request) {
	orders, err := h.fallback.List(r.Context(), chi.URLParam(r, "sessionId"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	if orders == nil {
		orders = []checkout.Order{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"orders": orders})
}

func decode(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return false
	}
	return true
}
