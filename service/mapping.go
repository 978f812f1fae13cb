package service

import (
	models "storefront/model"
	"storefront/store"
)

func toProduct(r store.ProductRow) models.Product {
	p := models.Product{
		ID:           r.ID,
		Slug:         r.Slug,
		Name:         r.Name,
		Image:        r.Image,
		Category:     r.Category,
		Brand:        r.Brand,
		Price:        r.Price,
		CountInStock: r.CountInStock,
		CreatedAt:    r.CreatedAt,
	}
	if r.Description.Valid {
		p.Description = r.Description.String
	}
	return p
}

func toCartItem(r store.ProductRow, qty int) models.CartItem {
	return models.CartItem{
		ProductID:    r.ID,
		Slug:         r.Slug,
		Name:         r.Name,
		Image:        r.Image,
		Price:        r.Price,
		CountInStock: r.CountInStock,
		Quantity:     qty,
	}
}

func toOrder(r store.OrderRow, items []store.OrderItemRow) models.Order {
	o := models.Order{
		ID:              r.ID,
		UserID:          r.UserID,
		Items:           make([]models.OrderItem, 0, len(items)),
		ShippingAddress: r.Shipping,
		PaymentMethod:   r.PaymentMethod,
		ItemsPrice:      r.ItemsPrice,
		ShippingPrice:   r.ShippingPrice,
		TaxPrice:        r.TaxPrice,
		TotalPrice:      r.TotalPrice,
		IsPaid:          r.IsPaid,
		IsDelivered:     r.IsDelivered,
		CreatedAt:       r.CreatedAt,
	}
	if r.PaidAt.Valid {
		t := r.PaidAt.Time
		o.PaidAt = &t
	}
	if r.DeliveredAt.Valid {
		t := r.DeliveredAt.Time
		o.DeliveredAt = &t
	}
	for _, it := range items {
		o.Items = append(o.Items, models.OrderItem{
			ProductID: it.ProductID,
			Slug:      it.Slug,
			Name:      it.Name,
			Image:     it.Image,
			Price:     it.Price,
			Quantity:  it.Quantity,
		})
	}
	return o
}
