package scheduler

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/arkinlabs/engine/internal/domain"
	"github.com/arkinlabs/engine/internal/events"
	"github.com/arkinlabs/engine/internal/scheduler/base"
)

// InsightsTickJob emits the synthetic InsightsTick trigger that drives
// layer-by-layer feature-graph evaluation (§4.5).
type InsightsTickJob struct {
	base.JobBase
	events *events.Manager
}

// NewInsightsTickJob builds a job that emits InsightsTick on every firing.
func NewInsightsTickJob(mgr *events.Manager) *InsightsTickJob {
	return &InsightsTickJob{events: mgr}
}

func (j *InsightsTickJob) Name() string { return "insights_tick" }

func (j *InsightsTickJob) Run() error {
	j.events.Emit("scheduler", events.InsightsTickData{At: time.Now().UTC()})
	return nil
}

// Reconciler is satisfied by internal/ledgerstore.Store; kept narrow so
// scheduler does not import the ledger-persistence package directly.
type Reconciler interface {
	LoadAccounts() ([]domain.Account, error)
}

// LedgerReconcileJob periodically compares the live ledger's account count
// with its SQLite mirror's and logs any drift, guarding against a missed
// write-through.
type LedgerReconcileJob struct {
	base.JobBase
	store Reconciler
	live  func() int
	log   zerolog.Logger
}

// NewLedgerReconcileJob builds a reconciliation job. live returns the
// live ledger's current account count.
func NewLedgerReconcileJob(store Reconciler, live func() int, log zerolog.Logger) *LedgerReconcileJob {
	return &LedgerReconcileJob{store: store, live: live, log: log.With().Str("job", "ledger_reconcile").Logger()}
}

func (j *LedgerReconcileJob) Name() string { return "ledger_reconcile" }

func (j *LedgerReconcileJob) Run() error {
	mirrored, err := j.store.LoadAccounts()
	if err != nil {
		return err
	}
	if liveCount := j.live(); liveCount != len(mirrored) {
		j.log.Warn().Int("live_accounts", liveCount).Int("mirrored_accounts", len(mirrored)).Msg("ledger mirror drift detected")
	}
	return nil
}

// KeepaliveProvider is satisfied by a venue connector that must refresh a
// listen key on a cadence to keep its user-data stream alive (§4.9, §6).
type KeepaliveProvider interface {
	Keepalive(ctx context.Context) error
}

// VenueKeepaliveJob refreshes a venue's listen key every cadence period.
type VenueKeepaliveJob struct {
	base.JobBase
	provider KeepaliveProvider
	timeout  time.Duration
}

// NewVenueKeepaliveJob builds a keepalive job bounded by timeout per call.
func NewVenueKeepaliveJob(provider KeepaliveProvider, timeout time.Duration) *VenueKeepaliveJob {
	return &VenueKeepaliveJob{provider: provider, timeout: timeout}
}

func (j *VenueKeepaliveJob) Name() string { return "venue_listen_key_keepalive" }

func (j *VenueKeepaliveJob) Run() error {
	ctx, cancel := context.WithTimeout(context.Background(), j.timeout)
	defer cancel()
	return j.provider.Keepalive(ctx)
}
