package cart

import models "storefront/model"

// ActionType names a state transition.
type ActionType string

const (
	ActionAddItem             ActionType = "ADD_ITEM"
	ActionRemoveItem          ActionType = "REMOVE_ITEM"
	ActionClearItems          ActionType = "CLEAR_ITEMS"
	ActionSaveShippingAddress ActionType = "SAVE_SHIPPING_ADDRESS"
	ActionSavePaymentMethod   ActionType = "SAVE_PAYMENT_METHOD"
	ActionReset               ActionType = "RESET"
)

// Action is a request to move the cart to a new State. Only the payload field
// matching Type is read.
type Action struct {
	Type          ActionType
	Item          models.CartItem
	Slug          string
	Address       models.ShippingAddress
	PaymentMethod string
}

// AddItem sets item.Quantity as the absolute quantity of item.Slug.
func AddItem(item models.CartItem) Action {
	return Action{Type: ActionAddItem, Item: item}
}

func RemoveItem(slug string) Action {
	return Action{Type: ActionRemoveItem, Slug: slug}
}

func ClearItems() Action {
	return Action{Type: ActionClearItems}
}

func SaveShippingAddress(addr models.ShippingAddress) Action {
	return Action{Type: ActionSaveShippingAddress, Address: addr}
}

func SavePaymentMethod(method string) Action {
	return Action{Type: ActionSavePaymentMethod, PaymentMethod: method}
}

func Reset() Action {
	return Action{Type: ActionReset}
}
