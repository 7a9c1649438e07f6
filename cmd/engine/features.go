package main

import (
	"sort"

	"github.com/google/uuid"

	"github.com/arkinlabs/engine/internal/domain"
	"github.com/arkinlabs/engine/internal/featuregraph"
	"github.com/arkinlabs/engine/internal/featurestore"
	"github.com/arkinlabs/engine/internal/registry"
)

// buildFeatureNodes expands the engine's static feature-generator config
// (§4.5) into concrete graph nodes against the instruments currently known
// to the registry: a per-instrument trailing mid-price mean (fed by the
// mid_price raw feature pipeline.Runner writes from every live tick), a
// grouped synthetic per quote asset summing its real members' mid
// means, and a top-level index summing across every group. Called once
// at startup, after the initial registry refresh; a real deployment would
// re-expand whenever the registry's instrument set changes.
func buildFeatureNodes(reg *registry.Registry) []featuregraph.Node {
	const meanWindow = 5

	real := tradingInstruments(reg)

	instrumentIDs := make([]uuid.UUID, 0, len(real))
	for _, i := range real {
		instrumentIDs = append(instrumentIDs, i.ID)
	}

	perInstrument := featuregraph.PerInstrumentGenerator{
		Pipeline:    "default",
		Instruments: instrumentIDs,
		NewOperator: func(uuid.UUID) featuregraph.Operator {
			return featuregraph.RangeOp{
				Input:    "mid_price",
				Output:   "mid_mean_05",
				Stat:     featuregraph.RangeMean,
				N:        meanWindow,
				FillMode: featurestore.ForwardFill,
			}
		},
	}
	nodes := perInstrument.Expand()

	grouped := featuregraph.GroupedGenerator{
		Pipeline: "default",
		Minter:   reg,
		Groups:   groupByQuoteAsset(reg, real),
		NewOperator: func(uuid.UUID, []uuid.UUID) featuregraph.Operator {
			return featuregraph.RangeOp{
				Input:    "mid_mean_05",
				Output:   "grouped_mid_index_05",
				Stat:     featuregraph.RangeSum,
				N:        1,
				FillMode: featurestore.ForwardFill,
			}
		},
	}
	groupNodes := grouped.Expand()
	nodes = append(nodes, groupNodes...)

	if len(groupNodes) == 0 {
		return nodes
	}

	groupInstruments := make([]uuid.UUID, len(groupNodes))
	for i, n := range groupNodes {
		groupInstruments[i] = n.Scope.OutputInstrument
	}

	index := featuregraph.IndexGenerator{
		Pipeline: "default",
		Minter:   reg,
		Key:      registry.SyntheticKey{Symbol: "index-mid-05"},
		Members:  groupInstruments,
		NewOperator: func(uuid.UUID, []uuid.UUID) featuregraph.Operator {
			return featuregraph.RangeOp{
				Input:    "grouped_mid_index_05",
				Output:   "index_mid_05",
				Stat:     featuregraph.RangeSum,
				N:        1,
				FillMode: featurestore.ForwardFill,
			}
		},
	}
	nodes = append(nodes, index.Expand()...)

	return nodes
}

// tradingInstruments lists every real instrument currently open for
// trading, the instrument universe both feature-node construction and
// startup backfill operate over.
func tradingInstruments(reg *registry.Registry) []domain.Instrument {
	return reg.ListInstruments(registry.InstrumentListFilter{
		Statuses: []domain.InstrumentStatus{domain.InstrumentTrading},
	})
}

// groupByQuoteAsset buckets real instruments by quote-asset symbol, the
// grouping key grouped feature generators use for a synthetic like
// syn-group-usdt@index (§4.1, §6). Instruments whose quote asset cannot be
// resolved are skipped rather than grouped under a zero-value key.
func groupByQuoteAsset(reg *registry.Registry, instruments []domain.Instrument) []featuregraph.Group {
	members := make(map[string][]uuid.UUID)
	for _, inst := range instruments {
		quote, err := reg.GetAsset(registry.AssetQuery{ID: &inst.QuoteAssetID})
		if err != nil {
			continue
		}
		members[quote.Symbol] = append(members[quote.Symbol], inst.ID)
	}

	quotes := make([]string, 0, len(members))
	for quote := range members {
		quotes = append(quotes, quote)
	}
	sort.Strings(quotes)

	groups := make([]featuregraph.Group, 0, len(quotes))
	for _, quote := range quotes {
		groups = append(groups, featuregraph.Group{
			Key:     registry.SyntheticKey{Base: "group", Quote: quote},
			Members: members[quote],
		})
	}
	return groups
}
