package main

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/arkinlabs/engine/internal/events"
	"github.com/arkinlabs/engine/internal/registry"
)

const backfillBuffer = 256

// backfillFeatureStore replays aggregated trade history for instruments
// over the trailing window through the registry's persistence reader,
// re-publishing each replayed event at its original event time (via
// Manager.EmitAt) so the feature store is warm before the engine starts
// reacting to live ticks.
func backfillFeatureStore(ctx context.Context, reg *registry.Registry, mgr *events.Manager, log zerolog.Logger, instruments []uuid.UUID, window time.Duration) {
	if len(instruments) == 0 || window <= 0 {
		return
	}

	end := time.Now().UTC()
	start := end.Add(-window)

	ch, err := reg.Backfill(ctx, instruments, start, end, backfillBuffer, time.Millisecond)
	if err != nil {
		log.Warn().Err(err).Msg("feature store backfill unavailable")
		return
	}

	var n int
	for ev := range ch {
		mgr.EmitAt(ev.Module, ev.Data, ev)
		n++
	}
	log.Info().Int("events", n).Dur("window", window).Msg("feature store backfill complete")
}
