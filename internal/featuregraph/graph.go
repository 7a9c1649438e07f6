package featuregraph

import "fmt"

// Graph is the constructed, layered DAG of feature nodes for one pipeline.
type Graph struct {
	nodes  []Node
	layers [][]int // each layer is a list of indices into nodes
}

// ErrCycle is returned by Build when the node set contains a dependency
// cycle.
type ErrCycle struct{ Detail string }

func (e *ErrCycle) Error() string { return "featuregraph: cycle detected: " + e.Detail }

// Build wires edges between nodes whenever a consumer's input feature-id
// matches a producer's output feature-id on a compatible scope, then
// topologically layers the result: every node is assigned to the smallest
// layer strictly greater than all of its predecessors' layers. Cycles are
// rejected.
func Build(nodes []Node) (*Graph, error) {
	n := len(nodes)
	deps := make([][]int, n) // deps[i] = indices of nodes that feed node i

	for i, consumer := range nodes {
		for j, producer := range nodes {
			if i == j {
				continue
			}
			if feeds(producer, consumer) {
				deps[i] = append(deps[i], j)
			}
		}
	}

	layerOf := make([]int, n)
	resolved := make([]bool, n)
	remaining := n

	for pass := 0; remaining > 0; pass++ {
		if pass > n {
			return nil, &ErrCycle{Detail: fmt.Sprintf("%d node(s) unresolved after %d passes", remaining, pass)}
		}
		progressed := false
		for i := 0; i < n; i++ {
			if resolved[i] {
				continue
			}
			maxDep := -1
			ready := true
			for _, d := range deps[i] {
				if !resolved[d] {
					ready = false
					break
				}
				if layerOf[d] > maxDep {
					maxDep = layerOf[d]
				}
			}
			if !ready {
				continue
			}
			layerOf[i] = maxDep + 1
			resolved[i] = true
			remaining--
			progressed = true
		}
		if !progressed && remaining > 0 {
			return nil, &ErrCycle{Detail: fmt.Sprintf("%d node(s) form a cycle", remaining)}
		}
	}

	maxLayer := 0
	for _, l := range layerOf {
		if l > maxLayer {
			maxLayer = l
		}
	}
	layers := make([][]int, maxLayer+1)
	for i, l := range layerOf {
		layers[l] = append(layers[l], i)
	}

	return &Graph{nodes: nodes, layers: layers}, nil
}

// feeds reports whether producer's output feeds consumer's input on a
// compatible scope: either they share the same output instrument (a
// per-instrument chain), or producer's output instrument is one of
// consumer's declared input instruments (a grouped or index aggregation).
func feeds(producer, consumer Node) bool {
	if !shareFeatureID(producer.Op.Outputs(), consumer.Op.Inputs()) {
		return false
	}
	if producer.Scope.OutputInstrument == consumer.Scope.OutputInstrument {
		return true
	}
	for _, id := range consumer.Scope.InputInstruments {
		if id == producer.Scope.OutputInstrument {
			return true
		}
	}
	return false
}

func shareFeatureID(outputs, inputs []string) bool {
	set := make(map[string]struct{}, len(outputs))
	for _, o := range outputs {
		set[o] = struct{}{}
	}
	for _, in := range inputs {
		if _, ok := set[in]; ok {
			return true
		}
	}
	return false
}

// Layers returns the nodes grouped by evaluation layer, outermost first.
func (g *Graph) Layers() [][]Node {
	out := make([][]Node, len(g.layers))
	for i, indices := range g.layers {
		layer := make([]Node, len(indices))
		for j, idx := range indices {
			layer[j] = g.nodes[idx]
		}
		out[i] = layer
	}
	return out
}

// NodeCount returns the number of nodes in the graph.
func (g *Graph) NodeCount() int { return len(g.nodes) }
