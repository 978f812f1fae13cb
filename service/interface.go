package service

import (
	"context"

	models "storefront/model"
	"storefront/session"
)

type ServiceInterface interface {
	ListProducts(ctx context.Context) ([]models.Product, error)
	GetProduct(ctx context.Context, slug string) (models.Product, error)

	ViewCart(ctx context.Context, sess session.Session) CartView
	AddProduct(ctx context.Context, sess session.Session, slug string) (CartView, error)
	UpdateQuantity(ctx context.Context, sess session.Session, slug string, qty int) (CartView, error)
	RemoveItem(ctx context.Context, sess session.Session, slug string) CartView
	ClearItems(ctx context.Context, sess session.Session) CartView
	SaveShippingAddress(ctx context.Context, sess session.Session, addr models.ShippingAddress) (CartView, error)
	SavePaymentMethod(ctx context.Context, sess session.Session, method string) (CartView, error)

	PlaceOrder(ctx context.Context, sess session.Session, userID string) (models.Order, error)
	GetOrder(ctx context.Context, id int64, userID string) (models.Order, error)
	Logout(ctx context.Context, sess session.Session)
}
