// Package centrality computes node centrality measures over the
// call-scoped analysis graph. Every measure degrades to a documented
// fallback on degenerate topology instead of failing: the engine's
// contract is to always return something plausible.
package centrality

import (
	"math"

	"github.com/krystal-project/powermap/internal/graph"
)

// Options bounds the eigenvector power iteration.
type Options struct {
	MaxIterations int
	Tolerance     float64
}

// DefaultOptions mirrors the engine's standard iteration budget.
func DefaultOptions() Options {
	return Options{MaxIterations: 1000, Tolerance: 1e-3}
}

// Measures holds one score map per centrality measure, each covering
// every node of the graph. All maps are empty, never nil, for a graph
// with no nodes or no edges, so the measures always marshal as JSON
// objects.
type Measures struct {
	Degree      map[string]float64 `json:"degree_centrality"`
	Betweenness map[string]float64 `json:"betweenness_centrality"`
	Eigenvector map[string]float64 `json:"eigenvector_centrality"`
	Closeness   map[string]float64 `json:"closeness_centrality"`
}

// Empty reports whether no measures were computed.
func (m Measures) Empty() bool {
	return len(m.Degree) == 0
}

// Compute calculates all four measures for g. An empty graph or a
// graph with zero edges yields empty Measures, not an error.
func Compute(g *graph.Graph, opts Options) Measures {
	if g.NodeCount() == 0 || g.EdgeCount() == 0 {
		return Measures{
			Degree:      map[string]float64{},
			Betweenness: map[string]float64{},
			Eigenvector: map[string]float64{},
			Closeness:   map[string]float64{},
		}
	}

	degree := Degree(g)

	m := Measures{
		Degree:      degree,
		Betweenness: Betweenness(g),
	}

	if eig, ok := Eigenvector(g, opts); ok {
		m.Eigenvector = eig
	} else {
		m.Eigenvector = copyScores(degree)
	}

	m.Closeness = Closeness(g)
	return m
}

// Degree returns degree centrality: degree / (n-1), or 0 for every
// node when the graph has fewer than two nodes.
func Degree(g *graph.Graph) map[string]float64 {
	n := g.NodeCount()
	scores := make(map[string]float64, n)
	if n <= 1 {
		for _, id := range g.Nodes() {
			scores[id] = 0
		}
		return scores
	}
	denom := float64(n - 1)
	for _, id := range g.Nodes() {
		scores[id] = float64(g.Degree(id)) / denom
	}
	return scores
}

// Betweenness returns normalized betweenness centrality via Brandes'
// algorithm. On a disconnected graph each connected component is
// scored independently, so a node's score only reflects shortest
// paths within its own component; isolated nodes score 0.
func Betweenness(g *graph.Graph) map[string]float64 {
	if g.IsConnected() && g.NodeCount() > 2 {
		return brandes(g)
	}

	scores := make(map[string]float64, g.NodeCount())
	for _, comp := range g.ConnectedComponents() {
		if len(comp) <= 1 {
			scores[comp[0]] = 0
			continue
		}
		for id, v := range brandes(g.Subgraph(comp)) {
			scores[id] = v
		}
	}
	return scores
}

// brandes runs Brandes' algorithm over every source node and
// normalizes to [0,1] with the undirected factor (n-1)(n-2)/2.
// Each unordered pair is accumulated twice, so the raw sums divide by
// the full (n-1)(n-2).
func brandes(g *graph.Graph) map[string]float64 {
	nodes := g.Nodes()
	n := len(nodes)

	raw := make(map[string]float64, n)
	for _, id := range nodes {
		raw[id] = 0
	}

	for _, s := range nodes {
		stack, sigma, pred := brandesBFS(g, s)
		brandesAccumulate(s, stack, sigma, pred, raw)
	}

	if n > 2 {
		norm := float64((n - 1) * (n - 2))
		for id := range raw {
			raw[id] /= norm
		}
	}
	return raw
}

// brandesBFS performs the shortest-path counting phase from source s,
// returning the visit stack, path counts, and predecessor lists.
func brandesBFS(g *graph.Graph, s string) ([]string, map[string]float64, map[string][]string) {
	n := g.NodeCount()
	stack := make([]string, 0, n)
	pred := make(map[string][]string, n)
	sigma := map[string]float64{s: 1}
	dist := map[string]int{s: 0}

	queue := []string{s}
	for len(queue) > 0 {
		v := queue[0]
		queue = queue[1:]
		stack = append(stack, v)

		for _, w := range g.NeighborIDs(v) {
			if _, seen := dist[w]; !seen {
				dist[w] = dist[v] + 1
				queue = append(queue, w)
			}
			if dist[w] == dist[v]+1 {
				sigma[w] += sigma[v]
				pred[w] = append(pred[w], v)
			}
		}
	}
	return stack, sigma, pred
}

// brandesAccumulate back-propagates pair dependencies into cb.
func brandesAccumulate(s string, stack []string, sigma map[string]float64, pred map[string][]string, cb map[string]float64) {
	delta := make(map[string]float64, len(stack))
	for i := len(stack) - 1; i >= 0; i-- {
		w := stack[i]
		for _, v := range pred[w] {
			delta[v] += (sigma[v] / sigma[w]) * (1 + delta[w])
		}
		if w != s {
			cb[w] += delta[w]
		}
	}
}

// Eigenvector computes eigenvector centrality by power iteration with
// Euclidean normalization. It is defined only on a connected graph
// with more than two nodes; for anything else, or on non-convergence
// within the iteration cap, it reports ok=false so the caller can fall
// back to degree centrality.
func Eigenvector(g *graph.Graph, opts Options) (map[string]float64, bool) {
	n := g.NodeCount()
	if n <= 2 || !g.IsConnected() {
		return nil, false
	}

	nodes := g.Nodes()
	x := make(map[string]float64, n)
	for _, id := range nodes {
		x[id] = 1.0 / float64(n)
	}

	for iter := 0; iter < opts.MaxIterations; iter++ {
		// Iterate with A+I to avoid oscillation on bipartite graphs.
		next := make(map[string]float64, n)
		for _, v := range nodes {
			sum := x[v]
			for _, w := range g.NeighborIDs(v) {
				sum += x[w]
			}
			next[v] = sum
		}

		var norm float64
		for _, v := range nodes {
			norm += next[v] * next[v]
		}
		norm = math.Sqrt(norm)
		if norm == 0 {
			return nil, false
		}
		for _, v := range nodes {
			next[v] /= norm
		}

		var err float64
		for _, v := range nodes {
			err += math.Abs(next[v] - x[v])
		}
		x = next
		if err < float64(n)*opts.Tolerance {
			return x, true
		}
	}
	return nil, false
}

// Closeness returns closeness centrality: the inverse of the average
// shortest-path distance from each node to all nodes reachable from
// it. Unreachable nodes do not contribute; isolated nodes score 0.
func Closeness(g *graph.Graph) map[string]float64 {
	scores := make(map[string]float64, g.NodeCount())
	for _, id := range g.Nodes() {
		dist := g.BFSDistances(id)
		var total int
		for _, d := range dist {
			total += d
		}
		reachable := len(dist) - 1
		if reachable <= 0 || total == 0 {
			scores[id] = 0
			continue
		}
		scores[id] = float64(reachable) / float64(total)
	}
	return scores
}

func copyScores(src map[string]float64) map[string]float64 {
	out := make(map[string]float64, len(src))
	for k, v := range src {
		out[k] = v
	}
	return out
}
