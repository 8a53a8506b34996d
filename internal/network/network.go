// Package network builds the Erdős–Rényi peer network that carries social
// influence between households.
package network

import "math/rand"

// Graph is a directed adjacency list over agent indices 0..N-1.
// Adjacency[i] holds the out-neighbors whose behavior agent i observes.
type Graph struct {
	Adjacency [][]int
}

// Build constructs an Erdős–Rényi directed graph over numAgents nodes.
// Each ordered pair (i, j), i != j, is kept independently with probability
// avgDegree/numAgents, giving an expected out-degree of avgDegree. The graph
// is generated once per run and never rebuilt, so identical rng streams
// produce identical adjacency. Fewer than two agents yields an empty graph.
func Build(numAgents int, avgDegree float64, rng *rand.Rand) *Graph {
	g := &Graph{Adjacency: make([][]int, max(numAgents, 0))}
	if numAgents <= 1 {
		return g
	}

	p := avgDegree / float64(numAgents)
	for i := 0; i < numAgents; i++ {
		for j := 0; j < numAgents; j++ {
			if i == j {
				continue
			}
			if rng.Float64() < p {
				g.Adjacency[i] = append(g.Adjacency[i], j)
			}
		}
	}
	return g
}

// Neighbors returns the out-neighbors of agent i. Isolated agents (and any
// out-of-range index) get an empty slice.
func (g *Graph) Neighbors(i int) []int {
	if i < 0 || i >= len(g.Adjacency) {
		return nil
	}
	return g.Adjacency[i]
}

// NumAgents returns the node count.
func (g *Graph) NumAgents() int {
	return len(g.Adjacency)
}
