package cart

import models "storefront/model"

// Reduce returns the state that results from applying a to s. It never
// modifies s and returns s unchanged for action types it does not know.
//
// Adding an item whose slug is already in the cart replaces that line in
// place; quantities are not summed. Stock is not checked here, callers
// validate against a fresh stock count before dispatching.
func Reduce(s State, a Action) State {
	switch a.Type {
	case ActionAddItem:
		items := cloneItems(s.Items)
		replaced := false
		for i := range items {
			if items[i].Slug == a.Item.Slug {
				items[i] = a.Item
				replaced = true
				break
			}
		}
		if !replaced {
			items = append(items, a.Item)
		}
		next := s
		next.Items = items
		return next

	case ActionRemoveItem:
		if _, ok := s.Find(a.Slug); !ok {
			return s
		}
		items := make([]models.CartItem, 0, len(s.Items)-1)
		for _, it := range s.Items {
			if it.Slug != a.Slug {
				items = append(items, it)
			}
		}
		next := s
		next.Items = items
		return next

	case ActionClearItems:
		next := s
		next.Items = []models.CartItem{}
		return next

	case ActionSaveShippingAddress:
		next := s
		next.ShippingAddress = a.Address
		return next

	case ActionSavePaymentMethod:
		next := s
		next.PaymentMethod = a.PaymentMethod
		return next

	case ActionReset:
		return Initial()

	default:
		return s
	}
}
