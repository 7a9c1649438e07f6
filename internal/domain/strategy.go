package domain

import "github.com/google/uuid"

// Strategy is attached to execution orders and a subset of ledger transfers.
type Strategy struct {
	ID   uuid.UUID `json:"id"`
	Name string    `json:"name"`
}

func NewStrategy(name string) Strategy {
	return Strategy{ID: uuid.New(), Name: name}
}
