package store

import "context"

// GET /products - catalog listing
// GET /products/{slug} - product page, cart revalidation
// POST /orders - place order (lines checked against the catalog, stock decremented here)
// GET /orders/{id} - order page

type Store interface {
	ListProducts(ctx context.Context) ([]ProductRow, error)
	GetProductBySlug(ctx context.Context, slug string) (ProductRow, error)

	CreateOrder(ctx context.Context, order OrderRow, items []OrderItemRow) (OrderRow, error)
	GetOrder(ctx context.Context, id int64) (OrderRow, []OrderItemRow, error)

	Close() error
}
