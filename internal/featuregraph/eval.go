package featuregraph

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/arkinlabs/engine/internal/domain"
	"github.com/arkinlabs/engine/internal/featurestore"
)

// Tick evaluates every layer in order at event time t: within a layer every
// node is evaluated concurrently (order is free, per §4.5); a layer's
// insights are written into store before the next layer is read, which is
// the graph's sole inter-layer synchronization. The returned insights are
// in layer order; the caller decides whether to publish them as
// InsightsUpdate or WarmupInsightsUpdate depending on tick count.
func (g *Graph) Tick(t time.Time, store *featurestore.Store, grid time.Duration) []domain.Insight {
	var all []domain.Insight

	for _, layer := range g.Layers() {
		results := make([][]domain.Insight, len(layer))

		var wg sync.WaitGroup
		for i, node := range layer {
			wg.Add(1)
			go func(i int, node Node) {
				defer wg.Done()
				results[i] = evaluateNode(node, t, grid, store)
			}(i, node)
		}
		wg.Wait()

		for _, r := range results {
			for _, ins := range r {
				store.Insert(featurestore.Key{InstrumentID: ins.InstrumentID, FeatureID: domain.NewFeatureID(ins.Pipeline, ins.FeatureID)},
					featurestore.Sample{EventTime: ins.EventTime, Value: ins.Value})
			}
			all = append(all, r...)
		}
	}
	return all
}

func evaluateNode(node Node, t time.Time, grid time.Duration, store *featurestore.Store) []domain.Insight {
	windows := make(map[string][]float64, len(node.Op.Inputs()))
	for _, name := range node.Op.Inputs() {
		windows[name] = resolveWindow(node, name, t, grid, store)
	}

	out := node.Op.Evaluate(windows)
	insights := make([]domain.Insight, 0, len(out))
	for name, value := range out {
		insights = append(insights, domain.Insight{
			EventTime:    t,
			Pipeline:     node.Pipeline,
			InstrumentID: node.Scope.OutputInstrument,
			FeatureID:    name,
			Value:        value,
			Kind:         domain.InsightDerived,
		})
	}
	return insights
}

// resolveWindow fetches the lookback window for input name. A node whose
// scope has no declared input instruments reads its own output instrument's
// series; a grouped or index scope reads every member's series for name and
// cross-sectionally combines them, tick by tick, per Scope.Aggregation, into
// a single series the operator evaluates over.
func resolveWindow(node Node, name string, t time.Time, grid time.Duration, store *featurestore.Store) []float64 {
	n := node.Op.Lookback(name)
	fill := node.Op.Fill()

	if len(node.Scope.InputInstruments) == 0 {
		key := featurestore.Key{InstrumentID: node.Scope.OutputInstrument, FeatureID: domain.NewFeatureID(node.Pipeline, name)}
		values, ok := store.Range(key, t, n, fill)
		if !ok {
			return nil
		}
		return reverse(values)
	}

	return crossSectionalAggregate(node.Scope.Aggregation, node.Pipeline, node.Scope.InputInstruments, name, t, n, fill, store)
}

// crossSectionalAggregate builds a length-n series where each tick combines
// every member instrument's value at that tick per agg. A member whose Range
// does not resolve under fill is left out of the whole window, so every
// tick combines the same members; if no member resolves, the series is
// empty. GroupSum is the only aggregation §8 Scenario 5 demonstrates: a
// synthetic group's notional equals the sum, not the mean, of its real
// members' notional.
func crossSectionalAggregate(agg GroupAggregation, pipeline string, members []uuid.UUID, name string, t time.Time, n int, fill featurestore.FillStrategy, store *featurestore.Store) []float64 {
	sums := make([]float64, n)
	counts := make([]int, n)

	for _, member := range members {
		key := featurestore.Key{InstrumentID: member, FeatureID: domain.NewFeatureID(pipeline, name)}
		values, ok := store.Range(key, t, n, fill)
		if !ok {
			continue
		}
		for i, v := range values {
			sums[i] += v
			counts[i]++
		}
	}

	out := make([]float64, 0, n)
	for i := n - 1; i >= 0; i-- {
		if counts[i] == 0 {
			continue
		}
		switch agg {
		case GroupSum:
			out = append(out, sums[i])
		default:
			out = append(out, sums[i])
		}
	}
	return out
}

// reverse returns values (newest-first, per Range's contract) in
// oldest-first order, the order every Operator expects.
func reverse(values []float64) []float64 {
	out := make([]float64, len(values))
	for i, v := range values {
		out[len(values)-1-i] = v
	}
	return out
}
