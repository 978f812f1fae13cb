package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"time"

	_ "github.com/lib/pq"

	models "storefront/model"
)

var (
	ErrProductNotFound = errors.New("product not found")
	ErrOrderNotFound   = errors.New("order not found")
)

// ProductRow, OrderRow etc are simple structs representing DB rows
type ProductRow struct {
	ID           int64
	Slug         string
	Name         string
	Image        string
	Category     string
	Brand        string
	Description  sql.NullString
	Price        int64
	CountInStock int
	CreatedAt    time.Time
}

type OrderRow struct {
	ID            int64
	UserID        string
	Shipping      models.ShippingAddress
	PaymentMethod string
	ItemsPrice    int64
	ShippingPrice int64
	TaxPrice      int64
	TotalPrice    int64
	IsPaid        bool
	PaidAt        sql.NullTime
	IsDelivered   bool
	DeliveredAt   sql.NullTime
	CreatedAt     time.Time
}

type OrderItemRow struct {
	ProductID int64
	Slug      string
	Name      string
	Image     string
	Price     int64
	Quantity  int
}

// PostgresStore is a Store backed by Postgres
type PostgresStore struct {
	DB *sql.DB
}

// PoolConfig sizes the connection pool. Zero values keep the database/sql defaults.
type PoolConfig struct {
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	ConnMaxIdleTime time.Duration
}

// NewPostgresStore opens the pool and checks the database answers.
func NewPostgresStore(ctx context.Context, dsn string, pool PoolConfig) (*PostgresStore, error) {
	DB, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, err
	}
	DB.SetMaxOpenConns(pool.MaxOpenConns)
	DB.SetMaxIdleConns(pool.MaxIdleConns)
	DB.SetConnMaxLifetime(pool.ConnMaxLifetime)
	DB.SetConnMaxIdleTime(pool.ConnMaxIdleTime)

	if err := DB.PingContext(ctx); err != nil {
		_ = DB.Close()
		return nil, err
	}
	return &PostgresStore{DB: DB}, nil
}

func (s *PostgresStore) Close() error { return s.DB.Close() }

const productColumns = `id, slug, name, image, category, brand, description, price, count_in_stock, created_at`

type scanner interface {
	Scan(dest ...any) error
}

func scanProduct(row scanner) (ProductRow, error) {
	var p ProductRow
	err := row.Scan(&p.ID, &p.Slug, &p.Name, &p.Image, &p.Category, &p.Brand,
		&p.Description, &p.Price, &p.CountInStock, &p.CreatedAt)
	return p, err
}

func (s *PostgresStore) ListProducts(ctx context.Context) ([]ProductRow, error) {
	rows, err := s.DB.QueryContext(ctx, `SELECT `+productColumns+` FROM products ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []ProductRow{}
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (s *PostgresStore) GetProductBySlug(ctx context.Context, slug string) (ProductRow, error) {
	p, err := scanProduct(s.DB.QueryRowContext(ctx, `SELECT `+productColumns+` FROM products WHERE slug = $1`, slug))
	if errors.Is(err, sql.ErrNoRows) {
		return ProductRow{}, ErrProductNotFound
	}
	return p, err
}

// CreateOrder stores the order and takes its items out of stock in one
// transaction. Product rows are locked in id order to avoid deadlocks between
// concurrent checkouts, and every line must still match the locked row's slug
// and price.
func (s *PostgresStore) CreateOrder(ctx context.Context, order OrderRow, items []OrderItemRow) (OrderRow, error) {
	if len(items) == 0 {
		return order, errors.New("order has no items")
	}
	lines, err := mergeLines(items)
	if err != nil {
		return order, err
	}

	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return order, err
	}
	// ensure rollback on any early return
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	for _, it := range lines {
		if err := lockLine(ctx, tx, it); err != nil {
			return order, fmt.Errorf("%s: %w", it.Slug, err)
		}
	}

	a := order.Shipping
	if err := tx.QueryRowContext(ctx, `
		INSERT INTO orders (user_id, full_name, address, city, postal_code, country, payment_method,
			items_price, shipping_price, tax_price, total_price)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)
		RETURNING id, created_at`,
		order.UserID, a.FullName, a.Address, a.City, a.PostalCode, a.Country, order.PaymentMethod,
		order.ItemsPrice, order.ShippingPrice, order.TaxPrice, order.TotalPrice,
	).Scan(&order.ID, &order.CreatedAt); err != nil {
		return order, err
	}

	insertItem, err := tx.PrepareContext(ctx, `INSERT INTO order_items (order_id, product_id, slug, name, image, price, quantity) VALUES ($1,$2,$3,$4,$5,$6,$7)`)
	if err != nil {
		return order, err
	}
	defer insertItem.Close()

	// items keep the cart's order
	for _, it := range items {
		if _, err := insertItem.ExecContext(ctx, order.ID, it.ProductID, it.Slug, it.Name, it.Image, it.Price, it.Quantity); err != nil {
			return order, err
		}
	}

	takeStock, err := tx.PrepareContext(ctx, `UPDATE products SET count_in_stock = count_in_stock - $1 WHERE id = $2`)
	if err != nil {
		return order, err
	}
	defer takeStock.Close()

	for _, it := range lines {
		if _, err := takeStock.ExecContext(ctx, it.Quantity, it.ProductID); err != nil {
			return order, err
		}
	}

	if err := tx.Commit(); err != nil {
		return order, err
	}
	committed = true
	return order, nil
}

func sortByProduct(items []OrderItemRow) {
	sort.Slice(items, func(i, j int) bool { return items[i].ProductID < items[j].ProductID })
}

func (s *PostgresStore) GetOrder(ctx context.Context, id int64) (OrderRow, []OrderItemRow, error) {
	var o OrderRow
	err := s.DB.QueryRowContext(ctx, `
		SELECT id, user_id, full_name, address, city, postal_code, country, payment_method,
			items_price, shipping_price, tax_price, total_price,
			is_paid, paid_at, is_delivered, delivered_at, created_at
		FROM orders WHERE id = $1`, id,
	).Scan(&o.ID, &o.UserID, &o.Shipping.FullName, &o.Shipping.Address, &o.Shipping.City,
		&o.Shipping.PostalCode, &o.Shipping.Country, &o.PaymentMethod,
		&o.ItemsPrice, &o.ShippingPrice, &o.TaxPrice, &o.TotalPrice,
		&o.IsPaid, &o.PaidAt, &o.IsDelivered, &o.DeliveredAt, &o.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return o, nil, ErrOrderNotFound
	}
	if err != nil {
		return o, nil, err
	}

	rows, err := s.DB.QueryContext(ctx, `SELECT product_id, slug, name, image, price, quantity FROM order_items WHERE order_id = $1 ORDER BY id`, id)
	if err != nil {
		return o, nil, err
	}
	defer rows.Close()
	items := []OrderItemRow{}
	for rows.Next() {
		var it OrderItemRow
		if err := rows.Scan(&it.ProductID, &it.Slug, &it.Name, &it.Image, &it.Price, &it.Quantity); err != nil {
			return o, nil, err
		}
		items = append(items, it)
	}
	return o, items, rows.Err()
}
