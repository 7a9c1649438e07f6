// Package domain holds the core entities of the trading engine: reference
// data (assets, venues, instruments, strategies), ledger accounts and
// transfers, and the order and insight types the rest of the engine operates
// on. Types here are plain data; behavior lives in the owning component
// packages (ledger, orderbook, featuregraph, ...).
package domain

import "github.com/google/uuid"

// AssetKind classifies an Asset.
type AssetKind string

const (
	AssetFiat       AssetKind = "fiat"
	AssetCrypto     AssetKind = "crypto"
	AssetStablecoin AssetKind = "stablecoin"
)

// Asset is an immutable identity for a tradable unit of value (a currency or
// a crypto coin). Created once and never mutated.
type Asset struct {
	ID     uuid.UUID `json:"id"`
	Symbol string    `json:"symbol"` // always stored/compared uppercase
	Kind   AssetKind `json:"kind"`
}

// NewAsset builds an Asset with its symbol normalized to uppercase.
func NewAsset(symbol string, kind AssetKind) Asset {
	return Asset{
		ID:     uuid.New(),
		Symbol: normalizeSymbol(symbol),
		Kind:   kind,
	}
}
