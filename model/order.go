package models

import "time"

// CartItem is one line item of a cart. Slug is its identity: a cart holds at
// most one CartItem per slug.
type CartItem struct {
	ProductID    int64  `json:"productId"`
	Slug         string `json:"slug"`
	Name         string `json:"name"`
	Image        string `json:"image"`
	Price        int64  `json:"price"`
	CountInStock int    `json:"countInStock"`
	Quantity     int    `json:"quantity"`
}

// ShippingAddress is where an order is delivered. Every field is required
// before an order can be placed.
type ShippingAddress struct {
	FullName   string `json:"fullName" validate:"required"`
	Address    string `json:"address" validate:"required,min=3"`
	City       string `json:"city" validate:"required"`
	PostalCode string `json:"postalCode" validate:"required"`
	Country    string `json:"country" validate:"required"`
}

type Product struct {
	ID           int64     `json:"id"`
	Slug         string    `json:"slug"`
	Name         string    `json:"name"`
	Image        string    `json:"image"`
	Category     string    `json:"category"`
	Brand        string    `json:"brand"`
	Description  string    `json:"description"`
	Price        int64     `json:"price"`
	CountInStock int       `json:"countInStock"`
	CreatedAt    time.Time `json:"createdAt"`
}

type OrderItem struct {
	ProductID int64  `json:"productId"`
	Slug      string `json:"slug"`
	Name      string `json:"name"`
	Image     string `json:"image"`
	Price     int64  `json:"price"`
	Quantity  int    `json:"quantity"`
}

type Order struct {
	ID              int64           `json:"id"`
	UserID          string          `json:"userId"`
	Items           []OrderItem     `json:"orderItems"`
	ShippingAddress ShippingAddress `json:"shippingAddress"`
	PaymentMethod   string          `json:"paymentMethod"`
	ItemsPrice      int64           `json:"itemsPrice"`
	ShippingPrice   int64           `json:"shippingPrice"`
	TaxPrice        int64           `json:"taxPrice"`
	TotalPrice      int64           `json:"totalPrice"`
	IsPaid          bool            `json:"isPaid"`
	PaidAt          *time.Time      `json:"paidAt,omitempty"`
	IsDelivered     bool            `json:"isDelivered"`
	DeliveredAt     *time.Time      `json:"deliveredAt,omitempty"`
	CreatedAt       time.Time       `json:"createdAt"`
}
