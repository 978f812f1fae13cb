package cart

import models "storefront/model"

// State is everything a shopper has selected before checkout.
type State struct {
	Items           []models.CartItem      `json:"cartItems"`
	ShippingAddress models.ShippingAddress `json:"shippingAddress"`
	PaymentMethod   string                 `json:"paymentMethod"`
}

// Initial returns the empty cart a new session starts with.
func Initial() State {
	return State{Items: []models.CartItem{}}
}

// Clone returns a deep copy so callers can't reach the owner's item slice.
func (s State) Clone() State {
	out := s
	out.Items = cloneItems(s.Items)
	return out
}

// Find returns the line item for slug, if any.
func (s State) Find(slug string) (models.CartItem, bool) {
	for _, it := range s.Items {
		if it.Slug == slug {
			return it, true
		}
	}
	return models.CartItem{}, false
}

// IsEmpty reports whether the cart has no line items.
func (s State) IsEmpty() bool {
	return len(s.Items) == 0
}

func cloneItems(items []models.CartItem) []models.CartItem {
	out := make([]models.CartItem, len(items))
	copy(out, items)
	return out
}
