package server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
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

func newTestServer(t *testing.T) (*Server, *ledger.Ledger, *featurestore.Store) {
	t.Helper()
	bus := events.NewBus(zerolog.Nop())
	mgr := events.NewManager(bus, zerolog.Nop())
	led := ledger.New(mgr, zerolog.Nop())
	features := featurestore.New(time.Second)
	s := New(Config{DevMode: true}, led, features, bus, zerolog.Nop())
	return s, led, features
}

func TestHandleHealthReportsHealthy(t *testing.T) {
	s, _, _ := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "healthy", body["status"])
}

func TestHandleAccountsReturnsBalances(t *testing.T) {
	s, led, _ := newTestServer(t)

	venue := uuid.New()
	asset := domain.TradableFromAsset(uuid.New())
	wallet := led.FindOrCreateAccount(venue, asset, domain.OwnerVenueWallet, domain.AccountSpot)
	user := led.FindOrCreateAccount(venue, asset, domain.OwnerUser, domain.AccountSpot)

	_, err := led.ApplyTransfers([]domain.Transfer{{
		DebitAccount:  wallet.ID,
		CreditAccount: user.ID,
		Tradable:      asset,
		Amount:        decimal.NewFromInt(100),
		Kind:          domain.TransferDeposit,
	}})
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/api/accounts", nil)
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var body []map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Len(t, body, 2)
	balances := make([]string, 0, len(body))
	for _, acc := range body {
		balances = append(balances, acc["balance"].(string))
	}
	assert.ElementsMatch(t, []string{"-100", "100"}, balances)
}

func TestHandleInsightsReturnsLatestValuePerKey(t *testing.T) {
	s, _, features := newTestServer(t)

	key := featurestore.Key{InstrumentID: uuid.New(), FeatureID: domain.NewFeatureID("default", "mid_price")}
	at := time.Now().UTC().Truncate(time.Second)
	features.Insert(key, featurestore.Sample{EventTime: at, Value: 42})

	req := httptest.NewRequest(http.MethodGet, "/api/insights", nil)
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var body []map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Len(t, body, 1)
	assert.Equal(t, float64(42), body[0]["value"])
}

func TestParseTypesFilterMatchesOnlyListedKinds(t *testing.T) {
	filter := parseTypesFilter("VENUE_ORDER_FILL, NEW_ACCOUNT")
	assert.True(t, filter.Kinds[events.VenueOrderFill])
	assert.True(t, filter.Kinds[events.NewAccount])
	assert.False(t, filter.Kinds[events.TickUpdate])
}
