package archive

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arkinlabs/engine/internal/domain"
	"github.com/arkinlabs/engine/internal/events"
	"github.com/arkinlabs/engine/internal/featurestore"
	"github.com/arkinlabs/engine/internal/ledger"
)

func TestSnapshotCapturesAccountsTransfersAndFeatures(t *testing.T) {
	bus := events.NewBus(zerolog.Nop())
	mgr := events.NewManager(bus, zerolog.Nop())
	led := ledger.New(mgr, zerolog.Nop())
	features := featurestore.New(time.Second)

	venue := uuid.New()
	asset := domain.TradableFromAsset(uuid.New())
	wallet := led.FindOrCreateAccount(venue, asset, domain.OwnerVenueWallet, domain.AccountSpot)
	user := led.FindOrCreateAccount(venue, asset, domain.OwnerUser, domain.AccountSpot)
	_, err := led.ApplyTransfers([]domain.Transfer{{
		DebitAccount:  wallet.ID,
		CreditAccount: user.ID,
		Tradable:      asset,
		Amount:        decimal.NewFromInt(50),
		Kind:          domain.TransferDeposit,
	}})
	require.NoError(t, err)

	key := featurestore.Key{InstrumentID: uuid.New(), FeatureID: domain.NewFeatureID("default", "mid_price")}
	features.Insert(key, featurestore.Sample{EventTime: time.Unix(1000, 0).UTC(), Value: 101.5})

	a := &Archiver{ledger: led, features: features, log: zerolog.Nop()}
	snap := a.Snapshot()

	assert.Len(t, snap.Accounts, 2)
	assert.Len(t, snap.Transfers, 1)
	require.Len(t, snap.Features, 1)
	assert.Equal(t, key.InstrumentID, snap.Features[0].InstrumentID)
	assert.Equal(t, "default/mid_price", snap.Features[0].FeatureID)
	require.Len(t, snap.Features[0].Samples, 1)
	assert.Equal(t, 101.5, snap.Features[0].Samples[0].Value)
}

func TestSnapshotKeyIsPrefixedAndTimestamped(t *testing.T) {
	at := time.Date(2026, 3, 5, 12, 30, 0, 0, time.UTC)
	key := snapshotKey("engine", at)
	assert.Equal(t, "engine/20260305T123000Z.msgpack", key)
}
