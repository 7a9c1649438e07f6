package featuregraph

import (
	"math"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arkinlabs/engine/internal/domain"
	"github.com/arkinlabs/engine/internal/featurestore"
)

func TestTickWritesDerivedInsightsAndChainsLayers(t *testing.T) {
	instrument := uuid.New()
	store := featurestore.New(time.Second)
	base := time.Unix(10_000, 0).UTC()

	for i := 0; i < 3; i++ {
		store.Insert(
			featurestore.Key{InstrumentID: instrument, FeatureID: domain.NewFeatureID("default", "mid_price")},
			featurestore.Sample{EventTime: base.Add(time.Duration(i) * time.Second), Value: float64(10 + i)},
		)
	}

	mean := Node{
		Pipeline: "default",
		Op:       RangeOp{Input: "mid_price", Output: "mid_mean", Stat: RangeMean, N: 3, FillMode: featurestore.ForwardFill},
		Scope:    Scope{OutputInstrument: instrument},
	}
	lag := Node{
		Pipeline: "default",
		Op:       LagOp{Input: "mid_mean", Output: "mid_mean_delta", LagTicks: 1, Kind: LagDifference, FillMode: featurestore.ForwardFill},
		Scope:    Scope{OutputInstrument: instrument},
	}

	g, err := Build([]Node{lag, mean})
	require.NoError(t, err)

	at := base.Add(2 * time.Second)
	insights := g.Tick(at, store, time.Second)
	require.Len(t, insights, 2)

	v, ok := store.Last(featurestore.Key{InstrumentID: instrument, FeatureID: domain.NewFeatureID("default", "mid_mean")}, at)
	require.True(t, ok)
	assert.InDelta(t, 11.0, v, 1e-9) // mean(10,11,12)

	var delta domain.Insight
	for _, ins := range insights {
		if ins.FeatureID == "mid_mean_delta" {
			delta = ins
		}
	}
	assert.True(t, math.IsNaN(delta.Value), "lag node has no prior mid_mean tick to diff against yet")
}

func TestCrossSectionalAggregateSumsGroupMembers(t *testing.T) {
	member1, member2 := uuid.New(), uuid.New()
	store := featurestore.New(time.Second)
	at := time.Unix(20_000, 0).UTC()

	store.Insert(featurestore.Key{InstrumentID: member1, FeatureID: domain.NewFeatureID("default", "mid_price")},
		featurestore.Sample{EventTime: at, Value: 100})
	store.Insert(featurestore.Key{InstrumentID: member2, FeatureID: domain.NewFeatureID("default", "mid_price")},
		featurestore.Sample{EventTime: at, Value: 200})

	got := crossSectionalAggregate(GroupSum, "default", []uuid.UUID{member1, member2}, "mid_price", at, 1, featurestore.ForwardFill, store)
	require.Len(t, got, 1)
	assert.Equal(t, 300.0, got[0])
}
