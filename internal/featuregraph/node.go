package featuregraph

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/arkinlabs/engine/internal/domain"
	"github.com/arkinlabs/engine/internal/registry"
)

// GroupAggregation selects how a grouped/index Scope combines its member
// instruments' series into the single cross-sectional series the operator
// evaluates over. GroupSum is the only aggregation the feature pipeline
// demonstrates (§8 Scenario 5: a synthetic group's notional equals the sum
// of its real members' notional) and is the zero value, so a Scope built
// without setting Aggregation still sums.
type GroupAggregation int

const (
	GroupSum GroupAggregation = iota
)

// Scope is the (output instrument, input instruments) tuple a Node is
// evaluated against, per §4.5. InputInstruments is empty for a node whose
// operator reads only the output instrument's own series. Aggregation only
// applies when InputInstruments is non-empty.
type Scope struct {
	OutputInstrument uuid.UUID
	InputInstruments []uuid.UUID
	Aggregation      GroupAggregation
}

// Node pairs an Operator with the concrete Scope it runs against.
type Node struct {
	Pipeline string
	Op       Operator
	Scope    Scope
}

func (n Node) String() string {
	return fmt.Sprintf("%s:%v<-%v", n.Pipeline, n.Op.Outputs(), n.Op.Inputs())
}

// SyntheticMinter is the narrow registry capability grouped/index generators
// need: minting (or reusing) a deterministic synthetic instrument.
type SyntheticMinter interface {
	MintSynthetic(key registry.SyntheticKey) domain.Instrument
}

// Generator expands one feature-generator config entry (§4.5) into concrete
// nodes.
type Generator interface {
	Expand() []Node
}

// PerInstrumentGenerator produces one scope per real instrument matching a
// filter; inputs and outputs are on the same instrument.
type PerInstrumentGenerator struct {
	Pipeline    string
	Instruments []uuid.UUID
	NewOperator func(instrumentID uuid.UUID) Operator
}

func (g PerInstrumentGenerator) Expand() []Node {
	nodes := make([]Node, 0, len(g.Instruments))
	for _, id := range g.Instruments {
		nodes = append(nodes, Node{
			Pipeline: g.Pipeline,
			Op:       g.NewOperator(id),
			Scope:    Scope{OutputInstrument: id},
		})
	}
	return nodes
}

// Group is one grouped-generator's member set: a group key (e.g. a
// base/quote pair) mapped to the real instruments belonging to it.
type Group struct {
	Key     registry.SyntheticKey
	Members []uuid.UUID
}

// GroupedGenerator produces one scope per synthetic instrument per group
// key; inputs are every real instrument in the group.
type GroupedGenerator struct {
	Pipeline    string
	Minter      SyntheticMinter
	Groups      []Group
	NewOperator func(outputInstrument uuid.UUID, members []uuid.UUID) Operator
}

func (g GroupedGenerator) Expand() []Node {
	nodes := make([]Node, 0, len(g.Groups))
	for _, group := range g.Groups {
		output := g.Minter.MintSynthetic(group.Key)
		nodes = append(nodes, Node{
			Pipeline: g.Pipeline,
			Op:       g.NewOperator(output.ID, group.Members),
			Scope:    Scope{OutputInstrument: output.ID, InputInstruments: group.Members},
		})
	}
	return nodes
}

// IndexGenerator produces a single scope for one synthetic index
// instrument; inputs are every synthetic instrument of a given kind.
type IndexGenerator struct {
	Pipeline    string
	Minter      SyntheticMinter
	Key         registry.SyntheticKey
	Members     []uuid.UUID
	NewOperator func(outputInstrument uuid.UUID, members []uuid.UUID) Operator
}

func (g IndexGenerator) Expand() []Node {
	output := g.Minter.MintSynthetic(g.Key)
	return []Node{{
		Pipeline: g.Pipeline,
		Op:       g.NewOperator(output.ID, g.Members),
		Scope:    Scope{OutputInstrument: output.ID, InputInstruments: g.Members},
	}}
}
