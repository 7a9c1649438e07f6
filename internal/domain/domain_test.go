package domain

import (
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestNewAssetNormalizesSymbol(t *testing.T) {
	a := NewAsset(" btc ", AssetCrypto)
	assert.Equal(t, "BTC", a.Symbol)
	assert.NotEqual(t, uuid.Nil, a.ID)
}

func TestAccountKeyIdentity(t *testing.T) {
	venueID := uuid.New()
	instrumentID := uuid.New()
	a := Account{
		ID:       uuid.New(),
		VenueID:  venueID,
		Tradable: TradableFromInstrument(instrumentID),
		Owner:    OwnerUser,
		Kind:     AccountPosition,
	}
	b := Account{
		ID:       uuid.New(), // different ID, same identity quadruple
		VenueID:  venueID,
		Tradable: TradableFromInstrument(instrumentID),
		Owner:    OwnerUser,
		Kind:     AccountPosition,
	}
	assert.Equal(t, a.Key(), b.Key())
}

func TestIsUserCash(t *testing.T) {
	spot := Account{Owner: OwnerUser, Kind: AccountSpot, Tradable: TradableFromAsset(uuid.New())}
	assert.True(t, spot.IsUserCash())

	position := Account{Owner: OwnerUser, Kind: AccountPosition, Tradable: TradableFromInstrument(uuid.New())}
	assert.False(t, position.IsUserCash())

	venueWallet := Account{Owner: OwnerVenueWallet, Kind: AccountSpot, Tradable: TradableFromAsset(uuid.New())}
	assert.False(t, venueWallet.IsUserCash())
}

func TestExecOrderStatusTerminal(t *testing.T) {
	terminal := []ExecOrderStatus{ExecFilled, ExecCancelled, ExecPartiallyFilledCancelled, ExecExpired, ExecRejected}
	for _, s := range terminal {
		assert.True(t, s.Terminal(), "expected %s to be terminal", s)
	}
	nonTerminal := []ExecOrderStatus{ExecNew, ExecPlaced, ExecPartiallyFilled, ExecCancelling}
	for _, s := range nonTerminal {
		assert.False(t, s.Terminal(), "expected %s to not be terminal", s)
	}
}

func TestVenueOrderRemaining(t *testing.T) {
	v := VenueOrder{Quantity: decimal.NewFromFloat(1), FilledQuantity: decimal.NewFromFloat(0.4)}
	assert.True(t, v.Remaining().Equal(decimal.NewFromFloat(0.6)))
}
