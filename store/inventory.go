package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

var (
	// ErrInsufficientStock returned when requested qty exceeds available stock.
	ErrInsufficientStock = errors.New("insufficient stock")
	// ErrPriceChanged returned when an order line no longer carries the catalog price.
	ErrPriceChanged = errors.New("price changed")
)

// mergeLines sums the quantities of lines for the same product, sorted by
// product id. Lines that disagree on the product's slug or price are rejected.
func mergeLines(items []OrderItemRow) ([]OrderItemRow, error) {
	index := make(map[int64]int, len(items))
	out := make([]OrderItemRow, 0, len(items))
	for _, it := range items {
		if it.Quantity < 1 {
			return nil, fmt.Errorf("%s: quantity %d", it.Slug, it.Quantity)
		}
		i, ok := index[it.ProductID]
		if !ok {
			index[it.ProductID] = len(out)
			out = append(out, it)
			continue
		}
		if out[i].Slug != it.Slug {
			return nil, fmt.Errorf("%s: %w", it.Slug, ErrProductNotFound)
		}
		if out[i].Price != it.Price {
			return nil, fmt.Errorf("%s: %w", it.Slug, ErrPriceChanged)
		}
		out[i].Quantity += it.Quantity
	}
	sortByProduct(out)
	return out, nil
}

// lockLine locks the product row and checks the line against it: same slug,
// same price, enough stock.
func lockLine(ctx context.Context, tx *sql.Tx, it OrderItemRow) error {
	var (
		stock int
		slug  string
		price int64
	)
	err := tx.QueryRowContext(ctx, `SELECT count_in_stock, slug, price FROM products WHERE id = $1 FOR UPDATE`, it.ProductID).
		Scan(&stock, &slug, &price)
	if errors.Is(err, sql.ErrNoRows) || (err == nil && slug != it.Slug) {
		return ErrProductNotFound
	}
	if err != nil {
		return err
	}
	if price != it.Price {
		return ErrPriceChanged
	}
	if stock < it.Quantity {
		return ErrInsufficientStock
	}
	return nil
}
