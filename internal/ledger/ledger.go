// Package ledger maintains accounts and a strictly append-only journal of
// transfer groups, and exposes balance, position and PnL queries over it
// (§4.3). A single reader-writer lock protects both the account map and the
// journal: writes hold it for an entire transfer group to preserve
// atomicity, reads hold it for the duration of a fold.
package ledger

import (
	"sync"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/arkinlabs/engine/internal/domain"
	"github.com/arkinlabs/engine/internal/events"
)

// Ledger is the engine's accounting core.
type Ledger struct {
	mu        sync.RWMutex
	accounts  map[uuid.UUID]domain.Account
	byKey     map[domain.AccountKey]uuid.UUID
	transfers []domain.Transfer

	events *events.Manager
	log    zerolog.Logger
}

// New constructs an empty Ledger. mgr may be nil in tests that do not need
// NewAccount/NewTransfer events published.
func New(mgr *events.Manager, log zerolog.Logger) *Ledger {
	return &Ledger{
		accounts: make(map[uuid.UUID]domain.Account),
		byKey:    make(map[domain.AccountKey]uuid.UUID),
		events:   mgr,
		log:      log.With().Str("component", "ledger").Logger(),
	}
}

// FindOrCreateAccount returns the account keyed by (venue, tradable, owner,
// kind), creating and publishing a NewAccount event if it does not exist.
func (l *Ledger) FindOrCreateAccount(venueID uuid.UUID, tradable domain.Tradable, owner domain.AccountOwner, kind domain.AccountKind) domain.Account {
	key := domain.AccountKey{VenueID: venueID, Tradable: tradable, Owner: owner, Kind: kind}

	l.mu.Lock()
	defer l.mu.Unlock()

	if id, ok := l.byKey[key]; ok {
		return l.accounts[id]
	}

	acc := domain.Account{ID: uuid.New(), VenueID: venueID, Tradable: tradable, Owner: owner, Kind: kind}
	l.accounts[acc.ID] = acc
	l.byKey[key] = acc.ID

	if l.events != nil {
		l.events.Emit("ledger", events.NewAccountData{Account: acc})
	}
	return acc
}

// Account returns the account with the given id.
func (l *Ledger) Account(id uuid.UUID) (domain.Account, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	acc, ok := l.accounts[id]
	return acc, ok
}

// Balance returns the sum of credits minus the sum of debits for account.
func (l *Ledger) Balance(account uuid.UUID) decimal.Decimal {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.balanceLocked(account)
}

func (l *Ledger) balanceLocked(account uuid.UUID) decimal.Decimal {
	bal := decimal.Zero
	for _, t := range l.transfers {
		if t.CreditAccount == account {
			bal = bal.Add(t.Amount)
		}
		if t.DebitAccount == account {
			bal = bal.Sub(t.Amount)
		}
	}
	return bal
}

// ApplyTransfers validates and commits an ordered batch of transfers as a
// single group, sharing GroupID across every leg. Validation runs against
// the ledger's pre-batch state for every leg before any leg is applied: if
// any leg is invalid, nothing in the batch is committed and the first
// offending transfer's error is returned.
func (l *Ledger) ApplyTransfers(transfers []domain.Transfer) (uuid.UUID, error) {
	if len(transfers) == 0 {
		return uuid.Nil, nil
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	for i, t := range transfers {
		if err := l.validateLocked(t); err != nil {
			return uuid.Nil, &TransferError{Index: i, Err: err}
		}
	}

	groupID := transfers[0].GroupID
	if groupID == uuid.Nil {
		groupID = uuid.New()
	}
	for i := range transfers {
		transfers[i].GroupID = groupID
	}

	l.transfers = append(l.transfers, transfers...)

	if l.events != nil {
		l.events.Emit("ledger", events.NewTransferBatchData{Transfers: transfers})
	}
	return groupID, nil
}

func (l *Ledger) validateLocked(t domain.Transfer) error {
	if t.DebitAccount == t.CreditAccount {
		return ErrSameAccount
	}

	debit, ok := l.accounts[t.DebitAccount]
	if !ok {
		return ErrUnknownAccount
	}
	credit, ok := l.accounts[t.CreditAccount]
	if !ok {
		return ErrUnknownAccount
	}
	if debit.Tradable != t.Tradable || credit.Tradable != t.Tradable {
		return ErrCurrencyMismatch
	}

	if !t.Amount.IsPositive() {
		return ErrInvalidAmount
	}

	if debit.IsUserCash() {
		if l.balanceLocked(t.DebitAccount).LessThan(t.Amount) {
			return ErrInsufficientBalance
		}
	}
	return nil
}

// Transfers returns a copy of the full journal. Expensive; intended for
// debugging and reporting, not hot paths.
func (l *Ledger) Transfers() []domain.Transfer {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make([]domain.Transfer, len(l.transfers))
	copy(out, l.transfers)
	return out
}

// Accounts returns every account the ledger has created, in no particular
// order. Used for read-only reporting, not the hot path.
func (l *Ledger) Accounts() []domain.Account {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make([]domain.Account, 0, len(l.accounts))
	for _, acc := range l.accounts {
		out = append(out, acc)
	}
	return out
}

// AccountCount returns the number of accounts the ledger has created.
func (l *Ledger) AccountCount() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.accounts)
}
