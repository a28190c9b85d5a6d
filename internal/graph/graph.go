package graph

import "sort"

// Entity is a fully normalized node record. Every field is populated by
// the Builder; downstream stages never re-check for missing values.
type Entity struct {
	ID             string         `json:"id"`
	Name           string         `json:"name"`
	Type           string         `json:"type"`
	InfluenceScore float64        `json:"influence_score"`
	Attributes     map[string]any `json:"attributes,omitempty"`
}

// Clone returns a copy of the entity with a shallow copy of its
// attribute map, so result assembly never aliases table state.
func (e *Entity) Clone() *Entity {
	c := *e
	if e.Attributes != nil {
		c.Attributes = make(map[string]any, len(e.Attributes))
		for k, v := range e.Attributes {
			c.Attributes[k] = v
		}
	}
	return &c
}

// Edge is an undirected weighted connection between two entities.
// Source and Target preserve the orientation of the record that won
// the duplicate-edge collapse, but analysis treats them symmetrically.
type Edge struct {
	Source     string         `json:"source"`
	Target     string         `json:"target"`
	Type       string         `json:"type"`
	Strength   float64        `json:"strength"`
	Attributes map[string]any `json:"attributes,omitempty"`
}

// Other returns the endpoint opposite to id.
func (e *Edge) Other(id string) string {
	if e.Source == id {
		return e.Target
	}
	return e.Source
}

// Graph is a simple undirected weighted graph. Nodes and adjacency
// lists keep insertion order so that every traversal is deterministic
// for a fixed input sequence. A Graph is built once per analysis call
// and discarded; it is not safe for concurrent mutation.
type Graph struct {
	order []string
	index map[string]int
	adj   map[string][]*Edge
	edges []*Edge
	pairs map[[2]string]*Edge
}

// New returns an empty graph.
func New() *Graph {
	return &Graph{
		index: make(map[string]int),
		adj:   make(map[string][]*Edge),
		pairs: make(map[[2]string]*Edge),
	}
}

// AddNode inserts a node. Re-adding an existing node is a no-op.
func (g *Graph) AddNode(id string) {
	if _, ok := g.index[id]; ok {
		return
	}
	g.index[id] = len(g.order)
	g.order = append(g.order, id)
}

// HasNode reports whether id is a node of the graph.
func (g *Graph) HasNode(id string) bool {
	_, ok := g.index[id]
	return ok
}

// NodeIndex returns the insertion position of id, or -1.
func (g *Graph) NodeIndex(id string) int {
	if i, ok := g.index[id]; ok {
		return i
	}
	return -1
}

func pairKey(a, b string) [2]string {
	if b < a {
		a, b = b, a
	}
	return [2]string{a, b}
}

// AddEdge inserts an undirected edge between two existing nodes.
// Self-loops and edges with a missing endpoint are rejected. When an
// edge already exists between the pair, the stronger record wins and
// carries its own attributes (max-strength collapse policy).
func (g *Graph) AddEdge(e *Edge) bool {
	if e.Source == e.Target {
		return false
	}
	if !g.HasNode(e.Source) || !g.HasNode(e.Target) {
		return false
	}

	key := pairKey(e.Source, e.Target)
	if existing, ok := g.pairs[key]; ok {
		if e.Strength > existing.Strength {
			*existing = *e
		}
		return false
	}

	g.pairs[key] = e
	g.edges = append(g.edges, e)
	g.adj[e.Source] = append(g.adj[e.Source], e)
	g.adj[e.Target] = append(g.adj[e.Target], e)
	return true
}

// EdgeBetween returns the edge between a and b, if any.
func (g *Graph) EdgeBetween(a, b string) (*Edge, bool) {
	e, ok := g.pairs[pairKey(a, b)]
	return e, ok
}

// Nodes returns the node ids in insertion order. The returned slice is
// shared; callers must not modify it.
func (g *Graph) Nodes() []string {
	return g.order
}

// Edges returns the surviving edges in insertion order.
func (g *Graph) Edges() []*Edge {
	return g.edges
}

// NodeCount returns the number of nodes.
func (g *Graph) NodeCount() int {
	return len(g.order)
}

// EdgeCount returns the number of collapsed undirected edges.
func (g *Graph) EdgeCount() int {
	return len(g.edges)
}

// Degree returns the number of edges incident to id.
func (g *Graph) Degree(id string) int {
	return len(g.adj[id])
}

// Neighbors calls fn for each neighbor of id in edge insertion order.
func (g *Graph) Neighbors(id string, fn func(neighbor string, e *Edge)) {
	for _, e := range g.adj[id] {
		fn(e.Other(id), e)
	}
}

// NeighborIDs returns the neighbors of id in edge insertion order.
func (g *Graph) NeighborIDs(id string) []string {
	edges := g.adj[id]
	out := make([]string, len(edges))
	for i, e := range edges {
		out[i] = e.Other(id)
	}
	return out
}

// Density returns the ratio of edges to possible edges, 0 for graphs
// with fewer than two nodes.
func (g *Graph) Density() float64 {
	n := len(g.order)
	if n < 2 {
		return 0
	}
	return float64(2*len(g.edges)) / float64(n*(n-1))
}

// BFSDistances returns unweighted shortest-path distances from source
// to every reachable node, including source itself at distance 0.
func (g *Graph) BFSDistances(source string) map[string]int {
	dist := map[string]int{source: 0}
	queue := []string{source}
	for len(queue) > 0 {
		v := queue[0]
		queue = queue[1:]
		for _, e := range g.adj[v] {
			w := e.Other(v)
			if _, seen := dist[w]; !seen {
				dist[w] = dist[v] + 1
				queue = append(queue, w)
			}
		}
	}
	return dist
}

// ConnectedComponents returns the node sets of each connected
// component. Components appear in order of their lowest-index member,
// and members are listed in insertion order.
func (g *Graph) ConnectedComponents() [][]string {
	visited := make(map[string]bool, len(g.order))
	var components [][]string

	for _, start := range g.order {
		if visited[start] {
			continue
		}
		var comp []string
		queue := []string{start}
		visited[start] = true
		for len(queue) > 0 {
			v := queue[0]
			queue = queue[1:]
			comp = append(comp, v)
			for _, e := range g.adj[v] {
				w := e.Other(v)
				if !visited[w] {
					visited[w] = true
					queue = append(queue, w)
				}
			}
		}
		sort.Slice(comp, func(i, j int) bool {
			return g.index[comp[i]] < g.index[comp[j]]
		})
		components = append(components, comp)
	}
	return components
}

// IsConnected reports whether every node is reachable from every
// other. The empty graph counts as disconnected.
func (g *Graph) IsConnected() bool {
	if len(g.order) == 0 {
		return false
	}
	return len(g.BFSDistances(g.order[0])) == len(g.order)
}

// Subgraph returns a new graph induced by the given node set. Node and
// edge order follow the parent graph.
func (g *Graph) Subgraph(nodes []string) *Graph {
	sub := New()
	keep := make(map[string]bool, len(nodes))
	for _, id := range nodes {
		keep[id] = true
	}
	for _, id := range g.order {
		if keep[id] {
			sub.AddNode(id)
		}
	}
	for _, e := range g.edges {
		if keep[e.Source] && keep[e.Target] {
			sub.AddEdge(e)
		}
	}
	return sub
}
