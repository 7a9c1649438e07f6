package ledger

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/arkinlabs/engine/internal/domain"
)

// AccountSnapshot is one venue-reported balance used to derive a
// reconciliation adjustment.
type AccountSnapshot struct {
	AccountID uuid.UUID
	Balance   decimal.Decimal
}

// Reconcile derives, for each snapshot, the single Adjustment transfer that
// brings the account from its current ledger balance to the reported
// balance, and applies the whole set as one group. A snapshot already
// matching the ledger's balance is skipped. Adjustments move value between
// the account and its venue's wallet account, preserving the append-only
// journal invariant — reconciliation never rewrites history.
func (l *Ledger) Reconcile(at time.Time, snapshots []AccountSnapshot) (uuid.UUID, error) {
	var transfers []domain.Transfer

	l.mu.RLock()
	for _, snap := range snapshots {
		acc, ok := l.accounts[snap.AccountID]
		if !ok {
			continue
		}
		current := l.balanceLocked(snap.AccountID)
		delta := snap.Balance.Sub(current)
		if delta.IsZero() {
			continue
		}

		venueWallet := l.byKey[domain.AccountKey{
			VenueID:  acc.VenueID,
			Tradable: acc.Tradable,
			Owner:    domain.OwnerVenueWallet,
			Kind:     acc.Kind,
		}]

		t := domain.Transfer{
			EventTime: at,
			Tradable:  acc.Tradable,
			Kind:      domain.TransferAdjustment,
			UnitPrice: decimal.NewFromInt(1),
		}
		if delta.IsPositive() {
			t.Amount = delta
			t.DebitAccount = venueWallet
			t.CreditAccount = snap.AccountID
		} else {
			t.Amount = delta.Neg()
			t.DebitAccount = snap.AccountID
			t.CreditAccount = venueWallet
		}
		transfers = append(transfers, t)
	}
	l.mu.RUnlock()

	if len(transfers) == 0 {
		return uuid.Nil, nil
	}
	return l.ApplyTransfers(transfers)
}
