// Package engine holds end-to-end tests that wire the ledger, order books,
// execution strategies, simulated executor, and feature graph together the
// way cmd/engine does, rather than exercising any one package in isolation.
package engine

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arkinlabs/engine/internal/domain"
	"github.com/arkinlabs/engine/internal/events"
	"github.com/arkinlabs/engine/internal/execstrategy"
	"github.com/arkinlabs/engine/internal/executor"
	"github.com/arkinlabs/engine/internal/featuregraph"
	"github.com/arkinlabs/engine/internal/featurestore"
	"github.com/arkinlabs/engine/internal/ledger"
	"github.com/arkinlabs/engine/internal/orderbook"
)

func d(f float64) decimal.Decimal { return decimal.NewFromFloat(f) }

// --- Scenarios 1, 2, 6: ledger transfer chain (§8). ---

func TestTransferChainEndToEnd(t *testing.T) {
	bus := events.NewBus(zerolog.Nop())
	mgr := events.NewManager(bus, zerolog.Nop())
	led := ledger.New(mgr, zerolog.Nop())

	venue := uuid.New()
	usdt := domain.TradableFromAsset(uuid.New())
	personal := led.FindOrCreateAccount(uuid.Nil, usdt, domain.OwnerUser, domain.AccountSpot)
	spot := led.FindOrCreateAccount(venue, usdt, domain.OwnerUser, domain.AccountSpot)
	margin := led.FindOrCreateAccount(venue, usdt, domain.OwnerUser, domain.AccountMargin)

	group, err := led.ApplyTransfers([]domain.Transfer{
		{DebitAccount: personal.ID, CreditAccount: spot.ID, Tradable: usdt, Amount: d(100), Kind: domain.TransferDeposit, UnitPrice: d(1)},
		{DebitAccount: spot.ID, CreditAccount: margin.ID, Tradable: usdt, Amount: d(100), Kind: domain.TransferDeposit, UnitPrice: d(1)},
		{DebitAccount: margin.ID, CreditAccount: spot.ID, Tradable: usdt, Amount: d(50), Kind: domain.TransferDeposit, UnitPrice: d(1)},
	})
	require.NoError(t, err)
	assert.NotEqual(t, uuid.Nil, group)

	assert.True(t, led.Balance(personal.ID).Equal(d(-100)))
	assert.True(t, led.Balance(spot.ID).Equal(d(50)))
	assert.True(t, led.Balance(margin.ID).Equal(d(50)))

	transfers := led.Transfers()
	require.Len(t, transfers, 3)
	assert.Equal(t, spot.ID, transfers[1].DebitAccount)
	assert.Equal(t, margin.ID, transfers[1].CreditAccount)
	assert.True(t, transfers[1].Amount.Equal(d(100)))
	assert.Equal(t, domain.TransferDeposit, transfers[1].Kind)
	assert.True(t, transfers[1].UnitPrice.Equal(d(1)))
}

func TestInsufficientBalanceLeavesLedgerUnchanged(t *testing.T) {
	bus := events.NewBus(zerolog.Nop())
	mgr := events.NewManager(bus, zerolog.Nop())
	led := ledger.New(mgr, zerolog.Nop())

	venue := uuid.New()
	usdt := domain.TradableFromAsset(uuid.New())
	spot := led.FindOrCreateAccount(venue, usdt, domain.OwnerUser, domain.AccountSpot)
	personal := led.FindOrCreateAccount(uuid.Nil, usdt, domain.OwnerUser, domain.AccountSpot)

	_, err := led.ApplyTransfers([]domain.Transfer{
		{DebitAccount: personal.ID, CreditAccount: spot.ID, Tradable: usdt, Amount: d(1000), Kind: domain.TransferDeposit, UnitPrice: d(1)},
	})
	require.NoError(t, err)

	_, err = led.ApplyTransfers([]domain.Transfer{
		{DebitAccount: spot.ID, CreditAccount: personal.ID, Tradable: usdt, Amount: d(1001), Kind: domain.TransferDeposit, UnitPrice: d(1)},
	})
	require.ErrorIs(t, err, ledger.ErrInsufficientBalance)

	assert.True(t, led.Balance(spot.ID).Equal(d(1000)))
	assert.True(t, led.Balance(personal.ID).Equal(d(-1000)))
	assert.Len(t, led.Transfers(), 1)
}

func TestSameAccountTransferRejected(t *testing.T) {
	bus := events.NewBus(zerolog.Nop())
	mgr := events.NewManager(bus, zerolog.Nop())
	led := ledger.New(mgr, zerolog.Nop())

	venue := uuid.New()
	usdt := domain.TradableFromAsset(uuid.New())
	spot := led.FindOrCreateAccount(venue, usdt, domain.OwnerUser, domain.AccountSpot)

	_, err := led.ApplyTransfers([]domain.Transfer{
		{DebitAccount: spot.ID, CreditAccount: spot.ID, Tradable: usdt, Amount: d(10), Kind: domain.TransferDeposit, UnitPrice: d(1)},
	})
	require.ErrorIs(t, err, ledger.ErrSameAccount)
	assert.Len(t, led.Transfers(), 0)
}

// --- Scenarios 3, 4: Taker execution through the real bus, books, strategy
// and simulated executor (not a mocked fill, unlike internal/execstrategy's
// own unit tests). ---

type harness struct {
	bus       *events.Bus
	mgr       *events.Manager
	execBook  *orderbook.ExecBook
	venueBook *orderbook.VenueBook
	exec      *executor.Executor
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	bus := events.NewBus(zerolog.Nop())
	mgr := events.NewManager(bus, zerolog.Nop())
	venueBook := orderbook.NewVenueBook(mgr, zerolog.Nop())
	execBook := orderbook.NewExecBook(venueBook, mgr, zerolog.Nop())
	exec := executor.New(bus, mgr, decimal.Zero, zerolog.Nop())

	return &harness{bus: bus, mgr: mgr, execBook: execBook, venueBook: venueBook, exec: exec}
}

func newExecOrder(side domain.Side, qty float64) domain.ExecutionOrder {
	now := time.Now().UTC()
	return domain.ExecutionOrder{
		ID:               uuid.New(),
		ExecStrategyKind: domain.ExecStrategyTaker,
		Side:             side,
		TargetQuantity:   d(qty),
		CreatedAt:        now,
		UpdatedAt:        now,
	}
}

func waitUntil(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(500 * time.Millisecond)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(2 * time.Millisecond)
	}
	require.Fail(t, "condition not met within timeout")
}

func TestTakerBuyFullFillEndToEnd(t *testing.T) {
	h := newHarness(t)
	instrument := uuid.New()
	taker := execstrategy.NewTaker(h.execBook, h.venueBook, h.bus, h.mgr, zerolog.Nop())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go taker.Run(ctx)
	go h.exec.Run(ctx)

	order := newExecOrder(domain.SideBuy, 1)
	order.InstrumentID = instrument
	h.mgr.Emit("test", events.NewExecutionOrderData{Order: order})

	waitUntil(t, func() bool {
		got, ok := h.execBook.Get(order.ID)
		return ok && got.Status == domain.ExecPlaced
	})
	waitUntil(t, func() bool { return h.exec.Len() == 1 })

	h.mgr.Emit("test", events.TickUpdateData{Tick: domain.Tick{
		EventTime:    time.Now().UTC(),
		InstrumentID: instrument,
		BidPrice:     49490,
		BidQuantity:  10,
		AskPrice:     49500,
		AskQuantity:  10,
	}})

	waitUntil(t, func() bool {
		got, ok := h.execBook.Get(order.ID)
		return ok && got.Status == domain.ExecFilled
	})

	got, _ := h.execBook.Get(order.ID)
	assert.True(t, got.FilledQuantity.Equal(d(1)))
	assert.True(t, got.AvgFilledPrice.Equal(d(49500)))
	assert.Equal(t, 0, h.exec.Len())
}

func TestTakerPartialFillThenCancelEndToEnd(t *testing.T) {
	h := newHarness(t)
	instrument := uuid.New()
	taker := execstrategy.NewTaker(h.execBook, h.venueBook, h.bus, h.mgr, zerolog.Nop())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go taker.Run(ctx)
	go h.exec.Run(ctx)

	order := newExecOrder(domain.SideBuy, 2)
	order.InstrumentID = instrument
	h.mgr.Emit("test", events.NewExecutionOrderData{Order: order})
	waitUntil(t, func() bool { return h.exec.Len() == 1 })

	// Only 1 BTC of ask depth available: the market order partially fills.
	h.mgr.Emit("test", events.TickUpdateData{Tick: domain.Tick{
		EventTime:    time.Now().UTC(),
		InstrumentID: instrument,
		BidPrice:     49490,
		BidQuantity:  10,
		AskPrice:     49500,
		AskQuantity:  1,
	}})

	waitUntil(t, func() bool {
		got, ok := h.execBook.Get(order.ID)
		return ok && got.FilledQuantity.Equal(d(1))
	})

	h.mgr.Emit("test", events.CancelExecutionOrderData{ID: order.ID})

	waitUntil(t, func() bool {
		got, ok := h.execBook.Get(order.ID)
		return ok && got.Status == domain.ExecPartiallyFilledCancelled
	})

	got, _ := h.execBook.Get(order.ID)
	assert.True(t, got.FilledQuantity.Equal(d(1)))
	assert.True(t, got.AvgFilledPrice.Equal(d(49500)))
}

// --- Scenario 5: feature staged aggregation across instruments, including
// a synthetic group (§8). Raw per-minute buy/sell notional is inserted
// directly (the same way every other featuregraph test seeds its raw
// series); the graph computes notional_01m/05m/60m, the 05m buy/sell
// imbalance, and a synthetic group aggregate across two BTC/USD members. ---

func notionalNodes(instrument uuid.UUID) []featuregraph.Node {
	scope := featuregraph.Scope{OutputInstrument: instrument}
	return []featuregraph.Node{
		{Pipeline: "default", Scope: scope, Op: featuregraph.TwoValueOp{
			InputA: "buy_notional_01m", InputB: "sell_notional_01m", Output: "notional_01m", Kind: featuregraph.TwoValueSum, FillMode: featurestore.ForwardFill,
		}},
		{Pipeline: "default", Scope: scope, Op: featuregraph.RangeOp{
			Input: "notional_01m", Output: "notional_05m", Stat: featuregraph.RangeSum, N: 5, FillMode: featurestore.ForwardFill,
		}},
		{Pipeline: "default", Scope: scope, Op: featuregraph.RangeOp{
			Input: "notional_01m", Output: "notional_60m", Stat: featuregraph.RangeSum, N: 60, FillMode: featurestore.ForwardFill,
		}},
		{Pipeline: "default", Scope: scope, Op: featuregraph.RangeOp{
			Input: "buy_notional_01m", Output: "buy_05m", Stat: featuregraph.RangeSum, N: 5, FillMode: featurestore.ForwardFill,
		}},
		{Pipeline: "default", Scope: scope, Op: featuregraph.RangeOp{
			Input: "sell_notional_01m", Output: "sell_05m", Stat: featuregraph.RangeSum, N: 5, FillMode: featurestore.ForwardFill,
		}},
		{Pipeline: "default", Scope: scope, Op: featuregraph.TwoValueOp{
			InputA: "buy_05m", InputB: "sell_05m", Output: "notional_imbalance_05m", Kind: featuregraph.TwoValueImbalance, FillMode: featurestore.ForwardFill,
		}},
	}
}

func TestFeatureStagedAggregationAcrossInstruments(t *testing.T) {
	store := featurestore.New(time.Minute)
	base := time.Unix(1_700_000_000, 0).UTC()

	btcA, btcB, eth := uuid.New(), uuid.New(), uuid.New()
	group := uuid.New()

	var nodes []featuregraph.Node
	nodes = append(nodes, notionalNodes(btcA)...)
	nodes = append(nodes, notionalNodes(btcB)...)
	nodes = append(nodes, featuregraph.Node{
		Pipeline: "default",
		Scope:    featuregraph.Scope{OutputInstrument: eth},
		Op: featuregraph.TwoValueOp{
			InputA: "buy_notional_01m", InputB: "sell_notional_01m", Output: "notional_01m", Kind: featuregraph.TwoValueSum, FillMode: featurestore.ForwardFill,
		},
	})
	nodes = append(nodes, featuregraph.Node{
		Pipeline: "default",
		Scope:    featuregraph.Scope{OutputInstrument: group, InputInstruments: []uuid.UUID{btcA, btcB}},
		Op: featuregraph.RangeOp{
			Input: "notional_01m", Output: "grouped_notional_01m", Stat: featuregraph.RangeMean, N: 1, FillMode: featurestore.ForwardFill,
		},
	})

	graph, err := featuregraph.Build(nodes)
	require.NoError(t, err)

	const minutes = 65
	buyA := make([]float64, minutes)
	sellA := make([]float64, minutes)
	buyB := make([]float64, minutes)
	sellB := make([]float64, minutes)
	buyETH := make([]float64, minutes)
	sellETH := make([]float64, minutes)

	insert := func(instrument uuid.UUID, feature string, at time.Time, v float64) {
		store.Insert(featurestore.Key{InstrumentID: instrument, FeatureID: domain.NewFeatureID("default", feature)},
			featurestore.Sample{EventTime: at, Value: v})
	}

	var lastTick time.Time
	for i := 0; i < minutes; i++ {
		at := base.Add(time.Duration(i) * time.Minute)
		lastTick = at

		buyA[i] = float64(100 + (i%7)*10)
		sellA[i] = float64(80 + (i%5)*10)
		buyB[i] = float64(50 + (i%4)*10)
		sellB[i] = float64(60 + (i%6)*10)
		buyETH[i] = float64(20 + (i%3)*10)
		sellETH[i] = float64(15 + (i%2)*10)

		insert(btcA, "buy_notional_01m", at, buyA[i])
		insert(btcA, "sell_notional_01m", at, sellA[i])
		insert(btcB, "buy_notional_01m", at, buyB[i])
		insert(btcB, "sell_notional_01m", at, sellB[i])
		insert(eth, "buy_notional_01m", at, buyETH[i])
		insert(eth, "sell_notional_01m", at, sellETH[i])

		graph.Tick(at, store, time.Minute)
	}

	sum := func(a []float64, from, to int) float64 {
		var total float64
		for i := from; i <= to; i++ {
			total += a[i]
		}
		return total
	}

	notionalA := make([]float64, minutes)
	for i := range notionalA {
		notionalA[i] = buyA[i] + sellA[i]
	}
	notionalB := make([]float64, minutes)
	for i := range notionalB {
		notionalB[i] = buyB[i] + sellB[i]
	}

	last := minutes - 1

	gotNotional01m, ok := store.Last(featurestore.Key{InstrumentID: btcA, FeatureID: domain.NewFeatureID("default", "notional_01m")}, lastTick)
	require.True(t, ok)
	assert.InDelta(t, notionalA[last], gotNotional01m, 1e-9)

	gotNotional05m, ok := store.Last(featurestore.Key{InstrumentID: btcA, FeatureID: domain.NewFeatureID("default", "notional_05m")}, lastTick)
	require.True(t, ok)
	assert.InDelta(t, sum(notionalA, last-4, last), gotNotional05m, 1e-6)

	gotNotional60m, ok := store.Last(featurestore.Key{InstrumentID: btcA, FeatureID: domain.NewFeatureID("default", "notional_60m")}, lastTick)
	require.True(t, ok)
	assert.InDelta(t, sum(notionalA, last-59, last), gotNotional60m, 1e-6)

	expectedBuy05m := sum(buyA, last-4, last)
	expectedSell05m := sum(sellA, last-4, last)
	expectedImbalance := (expectedBuy05m - expectedSell05m) / (expectedBuy05m + expectedSell05m)
	gotImbalance, ok := store.Last(featurestore.Key{InstrumentID: btcA, FeatureID: domain.NewFeatureID("default", "notional_imbalance_05m")}, lastTick)
	require.True(t, ok)
	assert.InDelta(t, expectedImbalance, gotImbalance, 1e-2)

	// grouped_notional_01m aggregates the two BTC/USD members only; ETH
	// never feeds it. The graph sums across group members
	// (internal/featuregraph/eval.go's GroupSum), not averages.
	expectedGrouped := notionalA[last] + notionalB[last]
	gotGrouped, ok := store.Last(featurestore.Key{InstrumentID: group, FeatureID: domain.NewFeatureID("default", "grouped_notional_01m")}, lastTick)
	require.True(t, ok)
	assert.InDelta(t, expectedGrouped, gotGrouped, 1e-9)
}
