package service

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"storefront/cart"
	"storefront/logger"
	models "storefront/model"
	"storefront/session"
	"storefront/store"
)

// Config holds the checkout rules.
type Config struct {
	Pricing        cart.Pricing
	PaymentMethods []string
}

type Service struct {
	store    store.Store
	pricing  cart.Pricing
	methods  []string
	validate *validator.Validate

	// per-session mutexes so concurrent requests of one browser don't
	// overwrite each other's cart. Keys are session id -> *sync.Mutex
	locks sync.Map
}

func NewService(s store.Store, cfg Config) *Service {
	return &Service{
		store:    s,
		pricing:  cfg.Pricing,
		methods:  cfg.PaymentMethods,
		validate: newValidator(),
	}
}

// CartView is a cart together with its price breakdown.
type CartView struct {
	cart.State
	Totals cart.Totals `json:"totals"`
}

// helper: acquire per-session lock (process-local). Returns unlock func.
// Client-side sessions have no id and nothing to share.
func (s *Service) lockForSession(id string) func() {
	if id == "" {
		return func() {}
	}
	m := &sync.Mutex{}
	actual, _ := s.locks.LoadOrStore(id, m)
	mtx := actual.(*sync.Mutex)
	mtx.Lock()
	return func() { mtx.Unlock() }
}

func (s *Service) open(ctx context.Context, sess session.Session) *cart.Container {
	return cart.Hydrate(ctx, sess.Storage, logger.FromContext(ctx))
}

func (s *Service) view(st cart.State) CartView {
	return CartView{State: st, Totals: cart.Calculate(st.Items, s.pricing)}
}

func (s *Service) ListProducts(ctx context.Context) ([]models.Product, error) {
	rows, err := s.store.ListProducts(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]models.Product, 0, len(rows))
	for _, r := range rows {
		out = append(out, toProduct(r))
	}
	return out, nil
}

func (s *Service) GetProduct(ctx context.Context, slug string) (models.Product, error) {
	r, err := s.store.GetProductBySlug(ctx, slug)
	if err != nil {
		return models.Product{}, err
	}
	return toProduct(r), nil
}

func (s *Service) ViewCart(ctx context.Context, sess session.Session) CartView {
	return s.view(s.open(ctx, sess).State())
}

// AddProduct puts one more of slug in the cart.
func (s *Service) AddProduct(ctx context.Context, sess session.Session, slug string) (CartView, error) {
	unlock := s.lockForSession(sess.ID)
	defer unlock()

	c := s.open(ctx, sess)
	p, err := s.store.GetProductBySlug(ctx, slug)
	if err != nil {
		return s.view(c.State()), err
	}

	qty := 1
	if existing, ok := c.State().Find(slug); ok {
		qty = existing.Quantity + 1
	}
	if p.CountInStock < qty {
		logger.FromContext(ctx).Info("add to cart rejected",
			zap.String("slug", slug), zap.Int("requested", qty), zap.Int("in_stock", p.CountInStock))
		return s.view(c.State()), store.ErrInsufficientStock
	}

	return s.view(c.Dispatch(ctx, cart.AddItem(toCartItem(p, qty)))), nil
}

// UpdateQuantity sets the quantity of slug, checked against current stock.
// The line is rebuilt from the catalog so a stale price is refreshed.
func (s *Service) UpdateQuantity(ctx context.Context, sess session.Session, slug string, qty int) (CartView, error) {
	if qty < 1 {
		return CartView{}, ErrInvalidQuantity
	}
	unlock := s.lockForSession(sess.ID)
	defer unlock()

	c := s.open(ctx, sess)
	p, err := s.store.GetProductBySlug(ctx, slug)
	if err != nil {
		return s.view(c.State()), err
	}
	item := toCartItem(p, qty)

	if item.CountInStock < qty {
		logger.FromContext(ctx).Info("quantity update rejected",
			zap.String("slug", slug), zap.Int("requested", qty), zap.Int("in_stock", item.CountInStock))
		return s.view(c.State()), store.ErrInsufficientStock
	}
	return s.view(c.Dispatch(ctx, cart.AddItem(item))), nil
}

func (s *Service) RemoveItem(ctx context.Context, sess session.Session, slug string) CartView {
	unlock := s.lockForSession(sess.ID)
	defer unlock()
	return s.view(s.open(ctx, sess).Dispatch(ctx, cart.RemoveItem(slug)))
}

func (s *Service) ClearItems(ctx context.Context, sess session.Session) CartView {
	unlock := s.lockForSession(sess.ID)
	defer unlock()
	return s.view(s.open(ctx, sess).Dispatch(ctx, cart.ClearItems()))
}

func (s *Service) SaveShippingAddress(ctx context.Context, sess session.Session, addr models.ShippingAddress) (CartView, error) {
	addr = trimAddress(addr)
	if err := s.validate.Struct(addr); err != nil {
		return CartView{}, toValidationError(err)
	}
	unlock := s.lockForSession(sess.ID)
	defer unlock()
	return s.view(s.open(ctx, sess).Dispatch(ctx, cart.SaveShippingAddress(addr))), nil
}

func (s *Service) SavePaymentMethod(ctx context.Context, sess session.Session, method string) (CartView, error) {
	if err := s.checkPaymentMethod(method); err != nil {
		return CartView{}, err
	}
	unlock := s.lockForSession(sess.ID)
	defer unlock()
	return s.view(s.open(ctx, sess).Dispatch(ctx, cart.SavePaymentMethod(method))), nil
}

func (s *Service) checkPaymentMethod(method string) error {
	if method == "" {
		return ErrPaymentMethodRequired
	}
	if !slices.Contains(s.methods, method) {
		return ErrUnsupportedPaymentMethod
	}
	return nil
}

// PlaceOrder turns the cart into an order priced by the calculator. Only the
// slugs and quantities of the cart are used; every line is priced from the
// catalog, and price and stock are checked again inside the store transaction. On success the line items are
// cleared; address and payment method stay for the next order.
func (s *Service) PlaceOrder(ctx context.Context, sess session.Session, userID string) (models.Order, error) {
	if userID == "" {
		return models.Order{}, ErrUnauthenticated
	}
	unlock := s.lockForSession(sess.ID)
	defer unlock()

	c := s.open(ctx, sess)
	st := c.State()
	if st.IsEmpty() {
		return models.Order{}, ErrCartEmpty
	}
	if err := s.validate.Struct(st.ShippingAddress); err != nil {
		return models.Order{}, toValidationError(err)
	}
	if err := s.checkPaymentMethod(st.PaymentMethod); err != nil {
		return models.Order{}, err
	}

	lines, err := s.reprice(ctx, st.Items)
	if err != nil {
		return models.Order{}, err
	}
	totals := cart.Calculate(lines, s.pricing)
	row := store.OrderRow{
		UserID:        userID,
		Shipping:      st.ShippingAddress,
		PaymentMethod: st.PaymentMethod,
		ItemsPrice:    totals.Subtotal,
		ShippingPrice: totals.ShippingFee,
		TaxPrice:      totals.Tax,
		TotalPrice:    totals.Total,
	}
	items := make([]store.OrderItemRow, 0, len(lines))
	for _, it := range lines {
		items = append(items, store.OrderItemRow{
			ProductID: it.ProductID,
			Slug:      it.Slug,
			Name:      it.Name,
			Image:     it.Image,
			Price:     it.Price,
			Quantity:  it.Quantity,
		})
	}

	created, err := s.store.CreateOrder(ctx, row, items)
	if err != nil {
		if !errors.Is(err, store.ErrInsufficientStock) && !errors.Is(err, store.ErrPriceChanged) {
			logger.FromContext(ctx).Error("create order failed", zap.String("user_id", userID), zap.Error(err))
		}
		return models.Order{}, err
	}

	c.Dispatch(ctx, cart.ClearItems())
	logger.FromContext(ctx).Info("order placed",
		zap.Int64("order_id", created.ID),
		zap.String("user_id", userID),
		zap.Int64("total", created.TotalPrice))
	return toOrder(created, items), nil
}

// reprice rebuilds the cart lines from the catalog.
func (s *Service) reprice(ctx context.Context, items []models.CartItem) ([]models.CartItem, error) {
	out := make([]models.CartItem, 0, len(items))
	for _, it := range items {
		p, err := s.store.GetProductBySlug(ctx, it.Slug)
		if err != nil {
			return nil, err
		}
		if p.CountInStock < it.Quantity {
			logger.FromContext(ctx).Info("checkout rejected",
				zap.String("slug", it.Slug), zap.Int("requested", it.Quantity), zap.Int("in_stock", p.CountInStock))
			return nil, fmt.Errorf("%s: %w", it.Slug, store.ErrInsufficientStock)
		}
		out = append(out, toCartItem(p, it.Quantity))
	}
	return out, nil
}

// GetOrder returns the order if userID placed it. Other users get
// store.ErrOrderNotFound.
func (s *Service) GetOrder(ctx context.Context, id int64, userID string) (models.Order, error) {
	if userID == "" {
		return models.Order{}, ErrUnauthenticated
	}
	row, items, err := s.store.GetOrder(ctx, id)
	if err != nil {
		return models.Order{}, err
	}
	if row.UserID != userID {
		return models.Order{}, store.ErrOrderNotFound
	}
	return toOrder(row, items), nil
}

func (s *Service) Logout(ctx context.Context, sess session.Session) {
	unlock := s.lockForSession(sess.ID)
	defer unlock()
	s.open(ctx, sess).Logout(ctx)
}

func trimAddress(a models.ShippingAddress) models.ShippingAddress {
	return models.ShippingAddress{
		FullName:   strings.TrimSpace(a.FullName),
		Address:    strings.TrimSpace(a.Address),
		City:       strings.TrimSpace(a.City),
		PostalCode: strings.TrimSpace(a.PostalCode),
		Country:    strings.TrimSpace(a.Country),
	}
}
