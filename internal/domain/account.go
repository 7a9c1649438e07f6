package domain

import "github.com/google/uuid"

// AccountOwner classifies who an Account belongs to.
type AccountOwner string

const (
	OwnerVenueWallet       AccountOwner = "venue_wallet"
	OwnerUser              AccountOwner = "user"
	OwnerLiquidityCounterparty AccountOwner = "liquidity_counterparty"
)

// AccountKind classifies what an Account holds.
type AccountKind string

const (
	AccountSpot     AccountKind = "spot"
	AccountMargin   AccountKind = "margin"
	AccountPosition AccountKind = "position" // keyed on a specific instrument
)

// Account is a ledger account, unique on (VenueID, Tradable, Owner, Kind).
type Account struct {
	ID      uuid.UUID    `json:"id"`
	VenueID uuid.UUID    `json:"venue_id"`
	Tradable Tradable    `json:"tradable"`
	Owner   AccountOwner `json:"owner"`
	Kind    AccountKind  `json:"kind"`
}

// Key is the quadruple (venue, tradable, owner, kind) that uniquely
// identifies an account; find-or-create looks accounts up by this value.
type AccountKey struct {
	VenueID  uuid.UUID
	Tradable Tradable
	Owner    AccountOwner
	Kind     AccountKind
}

func (a Account) Key() AccountKey {
	return AccountKey{VenueID: a.VenueID, Tradable: a.Tradable, Owner: a.Owner, Kind: a.Kind}
}

// IsUserCash reports whether this account is a user-owned spot or margin
// cash account — the only account class §4.3 requires to stay non-negative.
func (a Account) IsUserCash() bool {
	return a.Owner == OwnerUser && (a.Kind == AccountSpot || a.Kind == AccountMargin) && !a.Tradable.IsInstrument()
}
