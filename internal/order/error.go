package order

import "errors"

var (
	ErrOrderNotFound     = errors.New("order not found")
	ErrInvalidTransition = errors.New("invalid status transition")
	ErrNotCancellable    = errors.New("order can no longer be cancelled")
	ErrNotRefundable     = errors.New("order is not eligible for refund")
	ErrAlreadyTerminal   = errors.New("order status is terminal")
)
