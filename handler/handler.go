package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"storefront/logger"
	models "storefront/model"
	"storefront/service"
	"storefront/session"
	"storefront/store"
)

// UserIDHeader is set by the identity provider in front of this service.
const UserIDHeader = "X-User-ID"

// Handler is the HTTP layer that talks to service.Service
type Handler struct {
	svc         service.ServiceInterface
	sessions    session.Provider
	maxBodySize int64
}

// NewHandler returns a Handler instance
func NewHandler(s service.ServiceInterface, sessions session.Provider, maxBodySize int64) *Handler {
	if maxBodySize <= 0 {
		maxBodySize = 1 << 20
	}
	return &Handler{svc: s, sessions: sessions, maxBodySize: maxBodySize}
}

// RegisterRoutes registers all routes on the provided router
func (h *Handler) RegisterRoutes(r *mux.Router) {
	// Catalog
	r.HandleFunc("/products", h.ListProducts).Methods("GET")
	r.HandleFunc("/products/{slug}", h.GetProduct).Methods("GET")

	// Cart
	r.HandleFunc("/cart", h.ViewCart).Methods("GET")
	r.HandleFunc("/cart/items", h.AddItem).Methods("POST")
	r.HandleFunc("/cart/items", h.ClearItems).Methods("DELETE")
	r.HandleFunc("/cart/items/{slug}", h.RemoveItem).Methods("DELETE")
	r.HandleFunc("/cart/shipping", h.SaveShippingAddress).Methods("PUT")
	r.HandleFunc("/cart/payment", h.SavePaymentMethod).Methods("PUT")

	// Orders
	r.HandleFunc("/orders", h.PlaceOrder).Methods("POST")
	r.HandleFunc("/orders/{id}", h.GetOrder).Methods("GET")

	r.HandleFunc("/logout", h.Logout).Methods("POST")
}

// --- request / response shapes ---
type addItemReq struct {
	Slug     string `json:"slug"`
	Quantity *int   `json:"quantity,omitempty"` // absent: one more
}

type paymentReq struct {
	PaymentMethod string `json:"paymentMethod"`
}

// --- helpers ---
func writeJSON(w http.ResponseWriter, code int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func writeErr(w http.ResponseWriter, code int, msg string) {
	writeJSON(w, code, map[string]string{"error": msg})
}

func (h *Handler) decode(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxBodySize)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeErr(w, http.StatusBadRequest, "invalid json")
		return false
	}
	return true
}

// writeServiceErr maps service and store errors to status codes.
func writeServiceErr(w http.ResponseWriter, r *http.Request, err error) {
	var ve *service.ValidationError
	switch {
	case errors.As(err, &ve):
		writeJSON(w, http.StatusBadRequest, map[string]interface{}{"error": "validation failed", "fields": ve.Fields})
	case errors.Is(err, service.ErrCartEmpty),
		errors.Is(err, service.ErrInvalidQuantity),
		errors.Is(err, service.ErrPaymentMethodRequired),
		errors.Is(err, service.ErrUnsupportedPaymentMethod):
		writeErr(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, service.ErrUnauthenticated):
		writeErr(w, http.StatusUnauthorized, err.Error())
	case errors.Is(err, store.ErrProductNotFound), errors.Is(err, store.ErrOrderNotFound):
		writeErr(w, http.StatusNotFound, err.Error())
	case errors.Is(err, store.ErrInsufficientStock):
		writeErr(w, http.StatusConflict, "Sorry. Product is out of stock")
	case errors.Is(err, store.ErrPriceChanged):
		writeErr(w, http.StatusConflict, "Prices have changed, please review your cart")
	default:
		logger.FromContext(r.Context()).Error("request failed", zap.Error(err))
		writeErr(w, http.StatusInternalServerError, "internal error")
	}
}

// --- Handler ---

// ListProducts handles GET /products
func (h *Handler) ListProducts(w http.ResponseWriter, r *http.Request) {
	ps, err := h.svc.ListProducts(r.Context())
	if err != nil {
		writeServiceErr(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, ps)
}

// GetProduct handles GET /products/{slug}
func (h *Handler) GetProduct(w http.ResponseWriter, r *http.Request) {
	p, err := h.svc.GetProduct(r.Context(), mux.Vars(r)["slug"])
	if err != nil {
		writeServiceErr(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

// ViewCart handles GET /cart
func (h *Handler) ViewCart(w http.ResponseWriter, r *http.Request) {
	sess := h.sessions.Open(w, r)
	writeJSON(w, http.StatusOK, h.svc.ViewCart(r.Context(), sess))
}

// AddItem handles POST /cart/items
// body: { "slug": "..." } adds one, { "slug": "...", "quantity": 3 } sets the quantity
func (h *Handler) AddItem(w http.ResponseWriter, r *http.Request) {
	var req addItemReq
	if !h.decode(w, r, &req) {
		return
	}
	if req.Slug == "" {
		writeErr(w, http.StatusBadRequest, "slug is required")
		return
	}

	sess := h.sessions.Open(w, r)
	var (
		view service.CartView
		err  error
	)
	if req.Quantity == nil {
		view, err = h.svc.AddProduct(r.Context(), sess, req.Slug)
	} else {
		view, err = h.svc.UpdateQuantity(r.Context(), sess, req.Slug, *req.Quantity)
	}
	if err != nil {
		writeServiceErr(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

// RemoveItem handles DELETE /cart/items/{slug}
func (h *Handler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	sess := h.sessions.Open(w, r)
	writeJSON(w, http.StatusOK, h.svc.RemoveItem(r.Context(), sess, mux.Vars(r)["slug"]))
}

// ClearItems handles DELETE /cart/items
func (h *Handler) ClearItems(w http.ResponseWriter, r *http.Request) {
	sess := h.sessions.Open(w, r)
	writeJSON(w, http.StatusOK, h.svc.ClearItems(r.Context(), sess))
}

// SaveShippingAddress handles PUT /cart/shipping
func (h *Handler) SaveShippingAddress(w http.ResponseWriter, r *http.Request) {
	var addr models.ShippingAddress
	if !h.decode(w, r, &addr) {
		return
	}
	sess := h.sessions.Open(w, r)
	view, err := h.svc.SaveShippingAddress(r.Context(), sess, addr)
	if err != nil {
		writeServiceErr(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

// SavePaymentMethod handles PUT /cart/payment
// body: { "paymentMethod": "PayPal" }
func (h *Handler) SavePaymentMethod(w http.ResponseWriter, r *http.Request) {
	var req paymentReq
	if !h.decode(w, r, &req) {
		return
	}
	sess := h.sessions.Open(w, r)
	view, err := h.svc.SavePaymentMethod(r.Context(), sess, req.PaymentMethod)
	if err != nil {
		writeServiceErr(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

// PlaceOrder handles POST /orders
func (h *Handler) PlaceOrder(w http.ResponseWriter, r *http.Request) {
	sess := h.sessions.Open(w, r)
	ord, err := h.svc.PlaceOrder(r.Context(), sess, r.Header.Get(UserIDHeader))
	if err != nil {
		writeServiceErr(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, ord)
}

// GetOrder handles GET /orders/{id}
func (h *Handler) GetOrder(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	if err != nil || id <= 0 {
		writeErr(w, http.StatusBadRequest, "invalid order id")
		return
	}
	ord, err := h.svc.GetOrder(r.Context(), id, r.Header.Get(UserIDHeader))
	if err != nil {
		writeServiceErr(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, ord)
}

// Logout handles POST /logout. The cart goes with the session.
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	sess := h.sessions.Open(w, r)
	h.svc.Logout(r.Context(), sess)
	writeJSON(w, http.StatusOK, map[string]string{"status": "logged out"})
}
