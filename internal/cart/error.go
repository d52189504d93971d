package cart

import "errors"

var (
	ErrNotAuthenticated   = errors.New("user not authenticated")
	ErrItemNotFound       = errors.New("cart item not found")
	ErrQuantityOutOfRange = errors.New("quantity outside allowed range")
)
