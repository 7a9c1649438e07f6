// Package ledgerstore mirrors the in-memory ledger to SQLite so the
// account map and transfer journal survive a restart. It subscribes to
// NewAccount/NewTransferBatch and writes through on every event; it never
// drives ledger state itself (internal/ledger.Ledger remains the sole
// source of truth while the process is running).
package ledgerstore

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/arkinlabs/engine/internal/database"
	"github.com/arkinlabs/engine/internal/domain"
	"github.com/arkinlabs/engine/internal/events"
)

// Store writes accounts and transfers through to a ledger-profile SQLite
// database as the engine's event bus publishes them.
type Store struct {
	db  *database.DB
	bus *events.Bus
	log zerolog.Logger
}

// Open opens (and migrates) the ledger database at path.
func Open(path string, log zerolog.Logger) (*Store, error) {
	db, err := database.New(database.Config{Path: path, Profile: database.ProfileLedger, Name: "ledger"})
	if err != nil {
		return nil, fmt.Errorf("ledgerstore: open: %w", err)
	}
	if err := db.Migrate(); err != nil {
		return nil, fmt.Errorf("ledgerstore: migrate: %w", err)
	}
	return &Store{db: db, log: log.With().Str("component", "ledgerstore").Logger()}, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error { return s.db.Close() }

// Run subscribes to NewAccount and NewTransferBatch and mirrors each to
// SQLite until ctx is cancelled.
func (s *Store) Run(ctx context.Context, bus *events.Bus) {
	s.bus = bus
	sub := bus.Subscribe(events.NewEventFilter(events.NewAccount, events.NewTransferBatch))
	defer sub.Unsubscribe()

	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-sub.Events():
			if !ok {
				return
			}
			s.handle(ev)
		}
	}
}

func (s *Store) handle(ev events.Event) {
	switch data := ev.Data.(type) {
	case events.NewAccountData:
		if err := s.UpsertAccount(data.Account); err != nil {
			s.log.Error().Err(err).Str("account_id", data.Account.ID.String()).Msg("failed to mirror account")
		}
	case events.NewTransferBatchData:
		if err := s.InsertTransfers(data.Transfers); err != nil {
			s.log.Error().Err(err).Msg("failed to mirror transfer batch")
		}
	}
}

// UpsertAccount writes acc to the accounts table, a no-op if already present.
func (s *Store) UpsertAccount(acc domain.Account) error {
	_, err := s.db.Exec(`
		INSERT INTO accounts (id, venue_id, instrument_id, asset_id, owner, kind)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO NOTHING`,
		acc.ID.String(), acc.VenueID.String(),
		acc.Tradable.InstrumentID.String(), acc.Tradable.AssetID.String(),
		string(acc.Owner), string(acc.Kind),
	)
	if err != nil {
		return fmt.Errorf("upsert account: %w", err)
	}
	return nil
}

// InsertTransfers appends every transfer in the batch within a single
// transaction, matching the ledger's own all-or-nothing batch semantics.
func (s *Store) InsertTransfers(transfers []domain.Transfer) error {
	return database.WithTransaction(s.db.Conn(), func(tx *sql.Tx) error {
		for _, t := range transfers {
			var strategyID, tradeInstrumentID sql.NullString
			if t.StrategyID != nil {
				strategyID = sql.NullString{String: t.StrategyID.String(), Valid: true}
			}
			if t.InstrumentID != nil {
				tradeInstrumentID = sql.NullString{String: t.InstrumentID.String(), Valid: true}
			}
			_, err := tx.Exec(`
				INSERT INTO transfers
					(event_time, group_id, instrument_id, asset_id, debit_account,
					 credit_account, amount, kind, strategy_id, trade_instrument_id, unit_price)
				VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
				t.EventTime.UTC().Format("2006-01-02T15:04:05.000000000Z07:00"),
				t.GroupID.String(),
				t.Tradable.InstrumentID.String(), t.Tradable.AssetID.String(),
				t.DebitAccount.String(), t.CreditAccount.String(),
				t.Amount.String(), string(t.Kind),
				strategyID, tradeInstrumentID, t.UnitPrice.String(),
			)
			if err != nil {
				return fmt.Errorf("insert transfer: %w", err)
			}
		}
		return nil
	})
}

// LoadAccounts returns every mirrored account; the scheduler's ledger
// reconciliation job compares their count with the live ledger's.
func (s *Store) LoadAccounts() ([]domain.Account, error) {
	rows, err := s.db.Query(`SELECT id, venue_id, instrument_id, asset_id, owner, kind FROM accounts`)
	if err != nil {
		return nil, fmt.Errorf("load accounts: %w", err)
	}
	defer rows.Close()

	var out []domain.Account
	for rows.Next() {
		var id, venueID, instrumentID, assetID, owner, kind string
		if err := rows.Scan(&id, &venueID, &instrumentID, &assetID, &owner, &kind); err != nil {
			return nil, fmt.Errorf("scan account: %w", err)
		}
		out = append(out, domain.Account{
			ID:       uuid.MustParse(id),
			VenueID:  uuid.MustParse(venueID),
			Tradable: domain.Tradable{InstrumentID: uuid.MustParse(instrumentID), AssetID: uuid.MustParse(assetID)},
			Owner:    domain.AccountOwner(owner),
			Kind:     domain.AccountKind(kind),
		})
	}
	return out, rows.Err()
}
