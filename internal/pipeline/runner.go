// Package pipeline ties the feature graph to the live event bus (§4.5):
// every market tick is written to the feature store as a raw mid-price
// insight, and every InsightsTick runs one layer-by-layer evaluation pass
// over the graph, publishing the result as InsightsUpdate (or
// WarmupInsightsUpdate while the configured warmup period has not elapsed).
package pipeline

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/arkinlabs/engine/internal/domain"
	"github.com/arkinlabs/engine/internal/events"
	"github.com/arkinlabs/engine/internal/featuregraph"
	"github.com/arkinlabs/engine/internal/featurestore"
)

const rawPipeline = "default"
const rawMidPriceFeature = "mid_price"

// Runner drives graph evaluation off the bus.
type Runner struct {
	graph       *featuregraph.Graph
	store       *featurestore.Store
	grid        time.Duration
	warmupSteps int

	events *events.Manager
	log    zerolog.Logger

	ticksSeen int
}

// New builds a Runner. warmupSteps is the number of InsightsTick firings
// during which results are published as WarmupInsightsUpdate instead of
// InsightsUpdate, giving windowed operators time to fill their lookback.
func New(graph *featuregraph.Graph, store *featurestore.Store, grid time.Duration, warmupSteps int, mgr *events.Manager, log zerolog.Logger) *Runner {
	return &Runner{
		graph:       graph,
		store:       store,
		grid:        grid,
		warmupSteps: warmupSteps,
		events:      mgr,
		log:         log.With().Str("component", "pipeline").Logger(),
	}
}

// Run subscribes to TickUpdate and InsightsTick and blocks until ctx is
// cancelled or the bus subscription is torn down.
func (r *Runner) Run(ctx context.Context, bus *events.Bus) {
	sub := bus.Subscribe(events.NewEventFilter(events.TickUpdate, events.InsightsTick))
	defer sub.Unsubscribe()

	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-sub.Events():
			if !ok {
				return
			}
			r.handle(ev)
		}
	}
}

func (r *Runner) handle(ev events.Event) {
	switch data := ev.Data.(type) {
	case events.TickUpdateData:
		r.insertRawTick(data.Tick)
	case events.InsightsTickData:
		r.evaluate(data.At)
	}
}

func (r *Runner) insertRawTick(t domain.Tick) {
	mid := (t.BidPrice + t.AskPrice) / 2
	key := featurestore.Key{
		InstrumentID: t.InstrumentID,
		FeatureID:    domain.NewFeatureID(rawPipeline, rawMidPriceFeature),
	}
	r.store.Insert(key, featurestore.Sample{EventTime: t.EventTime, Value: mid})
}

func (r *Runner) evaluate(at time.Time) {
	insights := r.graph.Tick(at, r.store, r.grid)

	r.ticksSeen++
	if r.ticksSeen <= r.warmupSteps {
		r.events.Emit("pipeline", events.WarmupInsightsUpdateData{Insights: insights})
		return
	}
	r.events.Emit("pipeline", events.InsightsUpdateData{Insights: insights})
}
