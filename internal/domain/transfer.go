package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// TransferKind classifies a Transfer.
type TransferKind string

const (
	TransferDeposit     TransferKind = "deposit"
	TransferWithdrawal  TransferKind = "withdrawal"
	TransferTrade       TransferKind = "trade"
	TransferExchange    TransferKind = "exchange"
	TransferMargin      TransferKind = "margin"
	TransferFee         TransferKind = "fee"
	TransferInterest    TransferKind = "interest"
	TransferFunding     TransferKind = "funding"
	TransferSettlement  TransferKind = "settlement"
	TransferLiquidation TransferKind = "liquidation"
	TransferRebate      TransferKind = "rebate"
	TransferAdjustment  TransferKind = "adjustment"
)

// Transfer is one leg of a transfer group: a single movement of a tradable
// from a debit account to a credit account. Transfers are append-only and
// immutable once committed.
type Transfer struct {
	EventTime    time.Time       `json:"event_time"`
	GroupID      uuid.UUID       `json:"group_id"`
	Tradable     Tradable        `json:"tradable"`
	DebitAccount uuid.UUID       `json:"debit_account"`
	CreditAccount uuid.UUID      `json:"credit_account"`
	Amount       decimal.Decimal `json:"amount"` // strictly positive
	Kind         TransferKind    `json:"kind"`
	StrategyID   *uuid.UUID      `json:"strategy_id,omitempty"`
	InstrumentID *uuid.UUID      `json:"instrument_id,omitempty"`
	// UnitPrice is 1 for same-asset moves, or the fill price for a
	// position-account trade leg.
	UnitPrice decimal.Decimal `json:"unit_price"`
}
