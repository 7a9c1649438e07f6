package ledger

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/arkinlabs/engine/internal/domain"
)

// Filter narrows a journal fold to a subset of transfers. A zero-value field
// means "no filter on this dimension" (has_type / has_strategy /
// has_instrument of §4.3).
type Filter struct {
	Kind       *domain.TransferKind
	StrategyID *uuid.UUID
	InstrumentID *uuid.UUID
}

func (f Filter) matches(t domain.Transfer) bool {
	if f.Kind != nil && t.Kind != *f.Kind {
		return false
	}
	if f.StrategyID != nil {
		if t.StrategyID == nil || *t.StrategyID != *f.StrategyID {
			return false
		}
	}
	if f.InstrumentID != nil {
		if t.InstrumentID == nil || *t.InstrumentID != *f.InstrumentID {
			return false
		}
	}
	return true
}

// StrategyBalance folds credits minus debits for every transfer leg whose
// debit or credit account is account, filtered by f.
func (l *Ledger) StrategyBalance(account uuid.UUID, f Filter) decimal.Decimal {
	l.mu.RLock()
	defer l.mu.RUnlock()

	bal := decimal.Zero
	for _, t := range l.transfers {
		if !f.matches(t) {
			continue
		}
		if t.CreditAccount == account {
			bal = bal.Add(t.Amount)
		}
		if t.DebitAccount == account {
			bal = bal.Sub(t.Amount)
		}
	}
	return bal
}

// Position is the result of a cost-basis scan: the strategy's net signed
// quantity and the average cost of its currently open position.
type Position struct {
	NetQuantity decimal.Decimal
	AvgCost     decimal.Decimal
	CostBasis   decimal.Decimal // AvgCost * |NetQuantity|, i.e. total open cost
}

// CurrentPosition runs the cost-basis scan of §4.3 over every Trade transfer
// matching strategyID (and, if set, instrumentID), accumulating a running
// signed position and a running (cost, quantity) pair for the currently open
// leg. A transfer's signed delta is positive when the user account is
// debited (a buy) and negative when it is credited (a sell); this is
// derived from the direction of the debit account, never the credit
// account, matching the ledger's source of truth for account ownership.
func (l *Ledger) CurrentPosition(strategyID uuid.UUID, instrumentID *uuid.UUID) Position {
	l.mu.RLock()
	defer l.mu.RUnlock()

	kind := domain.TransferTrade
	filter := Filter{Kind: &kind, StrategyID: &strategyID, InstrumentID: instrumentID}

	runningPosition := decimal.Zero
	netSigned := decimal.Zero
	cost := decimal.Zero
	qty := decimal.Zero

	for _, t := range l.transfers {
		if !filter.matches(t) {
			continue
		}
		debit, ok := l.accounts[t.DebitAccount]
		if !ok {
			continue
		}
		isBuy := debit.Owner == domain.OwnerUser

		delta := t.Amount
		if !isBuy {
			delta = delta.Neg()
		}

		positionBefore := runningPosition
		runningPosition = runningPosition.Add(delta)
		netSigned = netSigned.Add(delta)

		switch {
		case positionBefore.IsZero():
			cost = t.Amount.Mul(t.UnitPrice)
			qty = t.Amount
		case sameSign(positionBefore, delta):
			cost = cost.Add(t.Amount.Mul(t.UnitPrice))
			qty = qty.Add(t.Amount)
		case t.Amount.LessThanOrEqual(positionBefore.Abs()):
			avg := safeDiv(cost, qty)
			cost = cost.Sub(t.Amount.Mul(avg))
			qty = qty.Sub(t.Amount)
		default:
			avg := safeDiv(cost, qty)
			closing := positionBefore.Abs()
			cost = cost.Sub(closing.Mul(avg))
			qty = qty.Sub(closing)

			excess := t.Amount.Sub(closing)
			cost = excess.Mul(t.UnitPrice)
			qty = excess
		}

		if qty.IsNegative() {
			cost = decimal.Zero
			qty = decimal.Zero
		}
	}

	avgCost := safeDiv(cost, qty)
	return Position{
		NetQuantity: netSigned,
		AvgCost:     avgCost,
		CostBasis:   cost,
	}
}

// PnL returns the realized-plus-unrealized profit and loss for strategyID
// (optionally scoped to instrumentID), priced against markPrice: open
// position value at mark minus its cost basis, plus realized gains already
// reflected in ledger balances via Settlement/Fee transfers is out of scope
// here — this returns unrealized PnL on the open position only.
func (l *Ledger) PnL(strategyID uuid.UUID, instrumentID *uuid.UUID, markPrice decimal.Decimal) decimal.Decimal {
	pos := l.CurrentPosition(strategyID, instrumentID)
	if pos.NetQuantity.IsZero() {
		return decimal.Zero
	}
	marketValue := pos.NetQuantity.Mul(markPrice)
	signedCost := pos.CostBasis
	if pos.NetQuantity.IsNegative() {
		signedCost = signedCost.Neg()
	}
	return marketValue.Sub(signedCost)
}

// MarginPosted folds Margin-type transfers for strategyID (optionally
// scoped to instrumentID): user-to-venue legs add, venue-to-user legs
// subtract.
func (l *Ledger) MarginPosted(strategyID uuid.UUID, instrumentID *uuid.UUID) decimal.Decimal {
	l.mu.RLock()
	defer l.mu.RUnlock()

	kind := domain.TransferMargin
	filter := Filter{Kind: &kind, StrategyID: &strategyID, InstrumentID: instrumentID}

	total := decimal.Zero
	for _, t := range l.transfers {
		if !filter.matches(t) {
			continue
		}
		debit, ok := l.accounts[t.DebitAccount]
		if !ok {
			continue
		}
		if debit.Owner == domain.OwnerUser {
			total = total.Add(t.Amount)
		} else {
			total = total.Sub(t.Amount)
		}
	}
	return total
}

func sameSign(a, b decimal.Decimal) bool {
	return (a.IsPositive() && b.IsPositive()) || (a.IsNegative() && b.IsNegative())
}

func safeDiv(numerator, denominator decimal.Decimal) decimal.Decimal {
	if denominator.IsZero() {
		return decimal.Zero
	}
	return numerator.Div(denominator)
}
