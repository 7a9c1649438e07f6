package domain

import (
	"strings"

	"github.com/google/uuid"
)

// Pipeline names a feature-graph configuration. Insights and feature
// generators are scoped to exactly one pipeline.
type Pipeline struct {
	ID   uuid.UUID `json:"id"`
	Name string    `json:"name"`
}

func NewPipeline(name string) Pipeline {
	return Pipeline{ID: uuid.New(), Name: strings.TrimSpace(name)}
}

// FeatureID identifies a single feature-graph output series by name, scoped
// to a pipeline. Unlike Asset/Instrument/Venue it carries no synthetic UUID:
// its identity is the (pipeline, name) pair itself, since feature nodes are
// declared by config rather than minted at runtime.
type FeatureID struct {
	Pipeline string `json:"pipeline"`
	Name     string `json:"name"`
}

func NewFeatureID(pipeline, name string) FeatureID {
	return FeatureID{Pipeline: pipeline, Name: name}
}

// String renders the canonical "pipeline/name" form used as a map key
// throughout internal/featurestore and internal/featuregraph.
func (f FeatureID) String() string {
	return f.Pipeline + "/" + f.Name
}
