package ledger

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arkinlabs/engine/internal/domain"
)

func newTestLedger() *Ledger {
	return New(nil, zerolog.Nop())
}

func d(f float64) decimal.Decimal { return decimal.NewFromFloat(f) }

func simpleTransfer(tradable domain.Tradable, debit, credit uuid.UUID, amount decimal.Decimal) domain.Transfer {
	return domain.Transfer{
		GroupID:       uuid.New(),
		Tradable:      tradable,
		DebitAccount:  debit,
		CreditAccount: credit,
		Amount:        amount,
		Kind:          domain.TransferDeposit,
		UnitPrice:     decimal.NewFromInt(1),
	}
}

func TestApplyTransfersSuccessfulChain(t *testing.T) {
	l := newTestLedger()
	venueID := uuid.New()
	usdt := domain.TradableFromAsset(uuid.New())

	venueWallet := l.FindOrCreateAccount(venueID, usdt, domain.OwnerVenueWallet, domain.AccountSpot)
	a := l.FindOrCreateAccount(venueID, usdt, domain.OwnerUser, domain.AccountSpot)
	b := l.FindOrCreateAccount(venueID, usdt, domain.OwnerUser, domain.AccountMargin)

	_, err := l.ApplyTransfers([]domain.Transfer{simpleTransfer(usdt, venueWallet.ID, a.ID, d(100))})
	require.NoError(t, err)
	_, err = l.ApplyTransfers([]domain.Transfer{simpleTransfer(usdt, a.ID, b.ID, d(100))})
	require.NoError(t, err)
	_, err = l.ApplyTransfers([]domain.Transfer{simpleTransfer(usdt, b.ID, a.ID, d(50))})
	require.NoError(t, err)

	assert.True(t, l.Balance(venueWallet.ID).Equal(d(-100)))
	assert.True(t, l.Balance(a.ID).Equal(d(50)))
	assert.True(t, l.Balance(b.ID).Equal(d(50)))
}

func TestApplyTransfersInsufficientBalance(t *testing.T) {
	l := newTestLedger()
	venueID := uuid.New()
	usdt := domain.TradableFromAsset(uuid.New())

	venueWallet := l.FindOrCreateAccount(venueID, usdt, domain.OwnerVenueWallet, domain.AccountSpot)
	a := l.FindOrCreateAccount(venueID, usdt, domain.OwnerUser, domain.AccountSpot)

	_, err := l.ApplyTransfers([]domain.Transfer{simpleTransfer(usdt, venueWallet.ID, a.ID, d(1000))})
	require.NoError(t, err)

	_, err = l.ApplyTransfers([]domain.Transfer{simpleTransfer(usdt, a.ID, venueWallet.ID, d(1001))})
	var terr *TransferError
	require.ErrorAs(t, err, &terr)
	assert.ErrorIs(t, terr, ErrInsufficientBalance)

	assert.True(t, l.Balance(a.ID).Equal(d(1000)))
}

func TestApplyTransfersInvalidAmount(t *testing.T) {
	l := newTestLedger()
	venueID := uuid.New()
	usdt := domain.TradableFromAsset(uuid.New())
	a := l.FindOrCreateAccount(venueID, usdt, domain.OwnerUser, domain.AccountSpot)
	b := l.FindOrCreateAccount(venueID, usdt, domain.OwnerUser, domain.AccountMargin)

	_, err := l.ApplyTransfers([]domain.Transfer{simpleTransfer(usdt, a.ID, b.ID, decimal.Zero)})
	var terr *TransferError
	require.ErrorAs(t, err, &terr)
	assert.ErrorIs(t, terr, ErrInvalidAmount)

	_, err = l.ApplyTransfers([]domain.Transfer{simpleTransfer(usdt, a.ID, b.ID, d(-10))})
	require.ErrorAs(t, err, &terr)
	assert.ErrorIs(t, terr, ErrInvalidAmount)
}

func TestApplyTransfersCurrencyMismatch(t *testing.T) {
	l := newTestLedger()
	venueID := uuid.New()
	usdt := domain.TradableFromAsset(uuid.New())
	btc := domain.TradableFromAsset(uuid.New())
	a := l.FindOrCreateAccount(venueID, usdt, domain.OwnerUser, domain.AccountSpot)
	b := l.FindOrCreateAccount(venueID, btc, domain.OwnerUser, domain.AccountSpot)

	_, err := l.ApplyTransfers([]domain.Transfer{simpleTransfer(usdt, a.ID, b.ID, d(10))})
	var terr *TransferError
	require.ErrorAs(t, err, &terr)
	assert.ErrorIs(t, terr, ErrCurrencyMismatch)
}

func TestApplyTransfersSameAccount(t *testing.T) {
	l := newTestLedger()
	venueID := uuid.New()
	usdt := domain.TradableFromAsset(uuid.New())
	a := l.FindOrCreateAccount(venueID, usdt, domain.OwnerUser, domain.AccountSpot)

	_, err := l.ApplyTransfers([]domain.Transfer{simpleTransfer(usdt, a.ID, a.ID, d(10))})
	var terr *TransferError
	require.ErrorAs(t, err, &terr)
	assert.ErrorIs(t, terr, ErrSameAccount)
}

func TestCurrentPositionFlipThroughZero(t *testing.T) {
	l := newTestLedger()
	venueID := uuid.New()
	instrumentID := uuid.New()
	strategyID := uuid.New()
	position := domain.TradableFromInstrument(instrumentID)

	counterparty := l.FindOrCreateAccount(venueID, position, domain.OwnerLiquidityCounterparty, domain.AccountPosition)
	userPosition := l.FindOrCreateAccount(venueID, position, domain.OwnerUser, domain.AccountPosition)

	trade := func(debit, credit uuid.UUID, qty uint, price float64) domain.Transfer {
		return domain.Transfer{
			GroupID:       uuid.New(),
			Tradable:      position,
			DebitAccount:  debit,
			CreditAccount: credit,
			Amount:        decimal.NewFromInt(int64(qty)),
			Kind:          domain.TransferTrade,
			StrategyID:    &strategyID,
			InstrumentID:  &instrumentID,
			UnitPrice:     decimal.NewFromFloat(price),
		}
	}

	// Buy 10 @ 100: the user's position account is debited, defined by §4.3
	// as a buy; opens a long position of size 10 at avg cost 100.
	_, err := l.ApplyTransfers([]domain.Transfer{trade(userPosition.ID, counterparty.ID, 10, 100)})
	require.NoError(t, err)

	pos := l.CurrentPosition(strategyID, &instrumentID)
	assert.True(t, pos.NetQuantity.Equal(d(10)))
	assert.True(t, pos.AvgCost.Equal(d(100)))

	// Sell 15 @ 110: the user's position account is credited (a sell);
	// closes the long 10, then opens a short 5 at 110.
	_, err = l.ApplyTransfers([]domain.Transfer{trade(counterparty.ID, userPosition.ID, 15, 110)})
	require.NoError(t, err)

	pos = l.CurrentPosition(strategyID, &instrumentID)
	assert.True(t, pos.NetQuantity.Equal(d(-5)), "expected -5, got %s", pos.NetQuantity)
	assert.True(t, pos.AvgCost.Equal(d(110)), "expected avg cost 110, got %s", pos.AvgCost)
}

func TestMarginPostedSignConvention(t *testing.T) {
	l := newTestLedger()
	venueID := uuid.New()
	usdt := domain.TradableFromAsset(uuid.New())
	strategyID := uuid.New()

	userMargin := l.FindOrCreateAccount(venueID, usdt, domain.OwnerUser, domain.AccountMargin)
	venueWallet := l.FindOrCreateAccount(venueID, usdt, domain.OwnerVenueWallet, domain.AccountMargin)

	post := domain.Transfer{
		GroupID: uuid.New(), Tradable: usdt, DebitAccount: userMargin.ID, CreditAccount: venueWallet.ID,
		Amount: d(50), Kind: domain.TransferMargin, StrategyID: &strategyID, UnitPrice: decimal.NewFromInt(1),
	}
	_, err := l.ApplyTransfers([]domain.Transfer{post})
	require.NoError(t, err)

	assert.True(t, l.MarginPosted(strategyID, nil).Equal(d(50)))

	release := domain.Transfer{
		GroupID: uuid.New(), Tradable: usdt, DebitAccount: venueWallet.ID, CreditAccount: userMargin.ID,
		Amount: d(20), Kind: domain.TransferMargin, StrategyID: &strategyID, UnitPrice: decimal.NewFromInt(1),
	}
	_, err = l.ApplyTransfers([]domain.Transfer{release})
	require.NoError(t, err)

	assert.True(t, l.MarginPosted(strategyID, nil).Equal(d(30)))
}

func TestReconcileAppliesAdjustment(t *testing.T) {
	l := newTestLedger()
	venueID := uuid.New()
	usdt := domain.TradableFromAsset(uuid.New())

	l.FindOrCreateAccount(venueID, usdt, domain.OwnerVenueWallet, domain.AccountSpot)
	userSpot := l.FindOrCreateAccount(venueID, usdt, domain.OwnerUser, domain.AccountSpot)

	_, err := l.Reconcile(time.Now(), []AccountSnapshot{{AccountID: userSpot.ID, Balance: d(250)}})
	require.NoError(t, err)

	assert.True(t, l.Balance(userSpot.ID).Equal(d(250)))
}
