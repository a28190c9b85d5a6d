// Package community partitions the analysis graph into
// modularity-optimized communities using greedy Louvain moves with a
// seeded random node order, so repeated calls over the same input
// produce the same partition.
package community

import (
	"math/rand"
	"sort"

	"github.com/krystal-project/powermap/internal/graph"
)

// Options controls the partitioning pass.
type Options struct {
	Seed       int64
	Resolution float64
}

// DefaultOptions matches the engine's fixed reproducibility settings.
func DefaultOptions() Options {
	return Options{Seed: 42, Resolution: 1.0}
}

// Partition holds the detected communities and the modularity of the
// partition. Communities list node ids in graph insertion order;
// community order follows each community's lowest-index member.
type Partition struct {
	Communities [][]string
	Modularity  float64
}

// Detect partitions g. Edge cases follow the engine contract: a graph
// with no nodes or no edges yields an empty partition; fewer than two
// edges yields singleton communities with modularity 0; and should the
// optimization produce no usable partition, connected components are
// used with modularity 0.
func Detect(g *graph.Graph, opts Options) Partition {
	if g.NodeCount() == 0 || g.EdgeCount() == 0 {
		return Partition{}
	}

	if g.EdgeCount() < 2 {
		return Partition{Communities: singletons(g)}
	}

	communities := louvain(g, opts)
	if len(communities) == 0 {
		return Partition{Communities: g.ConnectedComponents()}
	}

	return Partition{
		Communities: communities,
		Modularity:  Modularity(g, communities, opts.Resolution),
	}
}

func singletons(g *graph.Graph) [][]string {
	out := make([][]string, 0, g.NodeCount())
	for _, id := range g.Nodes() {
		out = append(out, []string{id})
	}
	return out
}

// Modularity computes Q for a partition of g at the given resolution:
// the intra-community edge fraction minus the expected fraction under
// the configuration model.
func Modularity(g *graph.Graph, communities [][]string, resolution float64) float64 {
	m := float64(g.EdgeCount())
	if m == 0 {
		return 0
	}

	member := make(map[string]int, g.NodeCount())
	for ci, comm := range communities {
		for _, id := range comm {
			member[id] = ci
		}
	}

	intra := make([]float64, len(communities))
	degSum := make([]float64, len(communities))

	for _, e := range g.Edges() {
		if cs, ok := member[e.Source]; ok {
			if ct, ok := member[e.Target]; ok && cs == ct {
				intra[cs]++
			}
		}
	}
	for _, id := range g.Nodes() {
		if ci, ok := member[id]; ok {
			degSum[ci] += float64(g.Degree(id))
		}
	}

	var q float64
	twoM := 2 * m
	for ci := range communities {
		q += intra[ci]/m - resolution*(degSum[ci]/twoM)*(degSum[ci]/twoM)
	}
	return q
}

// louvainGraph is the weighted working representation used across
// aggregation levels. Edge weights start at 1 per analysis edge and
// accumulate as communities collapse into supernodes; selfLoops hold
// intra-supernode weight.
type louvainGraph struct {
	n         int
	neighbors [][]int
	weights   [][]float64
	selfLoops []float64
	totalW    float64
}

func newLouvainGraph(g *graph.Graph) *louvainGraph {
	n := g.NodeCount()
	lg := &louvainGraph{
		n:         n,
		neighbors: make([][]int, n),
		weights:   make([][]float64, n),
		selfLoops: make([]float64, n),
	}
	for _, e := range g.Edges() {
		u := g.NodeIndex(e.Source)
		v := g.NodeIndex(e.Target)
		lg.neighbors[u] = append(lg.neighbors[u], v)
		lg.weights[u] = append(lg.weights[u], 1)
		lg.neighbors[v] = append(lg.neighbors[v], u)
		lg.weights[v] = append(lg.weights[v], 1)
		lg.totalW++
	}
	return lg
}

func (lg *louvainGraph) weightedDegree(v int) float64 {
	d := lg.selfLoops[v] * 2
	for _, w := range lg.weights[v] {
		d += w
	}
	return d
}

// louvain runs greedy modularity optimization with aggregation levels
// until no level improves, then maps the final supernode partition
// back onto the original node ids.
func louvain(g *graph.Graph, opts Options) [][]string {
	rng := rand.New(rand.NewSource(opts.Seed))
	lg := newLouvainGraph(g)

	// membership[v] is the current community of original node v.
	membership := make([]int, lg.n)
	for i := range membership {
		membership[i] = i
	}

	for {
		comm, improved := oneLevel(lg, opts.Resolution, rng)
		if !improved {
			break
		}

		relabeled, count := relabel(comm)
		if count == lg.n {
			// No communities merged; a further level cannot improve.
			break
		}
		for v := range membership {
			membership[v] = relabeled[membership[v]]
		}
		lg = aggregate(lg, relabeled, count)
		if lg.n <= 1 {
			break
		}
	}

	return groupByCommunity(g, membership)
}

// oneLevel performs repeated local moves over the working graph until
// a full pass moves nothing. Node order is shuffled once per pass with
// the seeded source.
func oneLevel(lg *louvainGraph, resolution float64, rng *rand.Rand) ([]int, bool) {
	comm := make([]int, lg.n)
	commTotal := make([]float64, lg.n) // sum of weighted degrees per community
	for v := 0; v < lg.n; v++ {
		comm[v] = v
		commTotal[v] = lg.weightedDegree(v)
	}

	order := make([]int, lg.n)
	for i := range order {
		order[i] = i
	}

	twoM := 2 * lg.totalW
	if twoM == 0 {
		return comm, false
	}

	improvedEver := false
	for {
		rng.Shuffle(len(order), func(i, j int) { order[i], order[j] = order[j], order[i] })

		moved := 0
		for _, v := range order {
			current := comm[v]
			vDeg := lg.weightedDegree(v)

			// Weight from v into each neighboring community.
			linkW := map[int]float64{current: 0}
			for i, w := range lg.neighbors[v] {
				if w == v {
					continue
				}
				linkW[comm[w]] += lg.weights[v][i]
			}

			commTotal[current] -= vDeg

			bestComm := current
			bestGain := linkW[current] - resolution*commTotal[current]*vDeg/twoM

			// Deterministic candidate order for stable tie-breaks.
			candidates := make([]int, 0, len(linkW))
			for c := range linkW {
				candidates = append(candidates, c)
			}
			sort.Ints(candidates)

			for _, c := range candidates {
				if c == current {
					continue
				}
				gain := linkW[c] - resolution*commTotal[c]*vDeg/twoM
				if gain > bestGain {
					bestGain = gain
					bestComm = c
				}
			}

			commTotal[bestComm] += vDeg
			comm[v] = bestComm
			if bestComm != current {
				moved++
				improvedEver = true
			}
		}

		if moved == 0 {
			return comm, improvedEver
		}
	}
}

// relabel compacts community labels to 0..count-1 in order of first
// appearance.
func relabel(comm []int) ([]int, int) {
	next := 0
	seen := make(map[int]int, len(comm))
	out := make([]int, len(comm))
	for v, c := range comm {
		label, ok := seen[c]
		if !ok {
			label = next
			seen[c] = label
			next++
		}
		out[v] = label
	}
	return out, next
}

// aggregate collapses each community into a supernode, summing edge
// weights between communities and folding intra-community weight into
// self-loops.
func aggregate(lg *louvainGraph, comm []int, count int) *louvainGraph {
	agg := &louvainGraph{
		n:         count,
		neighbors: make([][]int, count),
		weights:   make([][]float64, count),
		selfLoops: make([]float64, count),
		totalW:    lg.totalW,
	}

	between := make([]map[int]float64, count)
	for i := range between {
		between[i] = make(map[int]float64)
	}

	for v := 0; v < lg.n; v++ {
		cv := comm[v]
		agg.selfLoops[cv] += lg.selfLoops[v]
		for i, w := range lg.neighbors[v] {
			cw := comm[w]
			// Each undirected edge appears in both adjacency lists;
			// count it from the lower endpoint only.
			if w < v {
				continue
			}
			if w == v {
				continue
			}
			weight := lg.weights[v][i]
			if cv == cw {
				agg.selfLoops[cv] += weight
			} else {
				between[cv][cw] += weight
				between[cw][cv] += weight
			}
		}
	}

	for c := 0; c < count; c++ {
		targets := make([]int, 0, len(between[c]))
		for t := range between[c] {
			targets = append(targets, t)
		}
		sort.Ints(targets)
		for _, t := range targets {
			agg.neighbors[c] = append(agg.neighbors[c], t)
			agg.weights[c] = append(agg.weights[c], between[c][t])
		}
	}
	return agg
}

// groupByCommunity materializes membership into node-id groups ordered
// by each community's lowest-index member.
func groupByCommunity(g *graph.Graph, membership []int) [][]string {
	groups := make(map[int][]string)
	var firstSeen []int
	seen := make(map[int]bool)

	for i, id := range g.Nodes() {
		c := membership[i]
		if !seen[c] {
			seen[c] = true
			firstSeen = append(firstSeen, c)
		}
		groups[c] = append(groups[c], id)
	}

	out := make([][]string, 0, len(firstSeen))
	for _, c := range firstSeen {
		out = append(out, groups[c])
	}
	return out
}
