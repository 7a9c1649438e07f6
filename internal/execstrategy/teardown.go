package execstrategy

import (
	"context"
	"time"

	"github.com/arkinlabs/engine/internal/domain"
	"github.com/arkinlabs/engine/internal/events"
)

// pollInterval is how often Teardown re-checks for residual active orders.
const pollInterval = 50 * time.Millisecond

// Teardown issues a cancel-all for this strategy's own kind, then polls the
// exec-order book until no active entries remain or timeout elapses,
// logging whatever is left behind.
func (s *Strategy) Teardown(timeout time.Duration) {
	now := time.Now().UTC()
	s.onCancelAllExecutionOrders(events.CancelAllExecutionOrdersData{At: now}, now)

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()

	for {
		active := s.execBook.ListByExecStrategy([]domain.ExecStrategyKind{s.kind})
		if len(active) == 0 {
			return
		}
		select {
		case <-ctx.Done():
			s.log.Warn().Int("residual_orders", len(active)).Msg("teardown timed out with active execution orders remaining")
			return
		case <-ticker.C:
		}
	}
}
