package orderbook

import "errors"

var (
	ErrNotFound           = errors.New("orderbook: order not found")
	ErrIllegalTransition  = errors.New("orderbook: illegal state transition")
)
