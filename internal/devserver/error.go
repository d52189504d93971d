package devserver

import "errors"

var (
	errVariantNotFound   = errors.New("product variant not found")
	errInsufficientStock = errors.New("requested quantity exceeds stock")
	errInvalidQuantity   = errors.New("quantity out of range")
	errItemNotFound      = errors.New("cart item not found")
	errCartEmpty         = errors.New("cart is empty")
	errOrderNotFound     = errors.New("order not found")
	errInvalidTransition = errors.New("invalid status transition")
)
