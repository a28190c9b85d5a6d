package community

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/krystal-project/powermap/internal/graph"
)

func buildGraph(nodes []string, pairs [][2]string) *graph.Graph {
	g := graph.New()
	for _, id := range nodes {
		g.AddNode(id)
	}
	for _, p := range pairs {
		g.AddEdge(&graph.Edge{Source: p[0], Target: p[1], Strength: 0.5})
	}
	return g
}

// barbell is two triangles joined by a single bridge edge.
func barbell() *graph.Graph {
	return buildGraph([]string{"a", "b", "c", "d", "e", "f"}, [][2]string{
		{"a", "b"}, {"b", "c"}, {"a", "c"},
		{"d", "e"}, {"e", "f"}, {"d", "f"},
		{"c", "d"},
	})
}

func TestDetect_DegenerateGraphs(t *testing.T) {
	t.Run("Empty Graph", func(t *testing.T) {
		p := Detect(graph.New(), DefaultOptions())
		assert.Empty(t, p.Communities)
		assert.Equal(t, 0.0, p.Modularity)
	})

	t.Run("Nodes Without Edges", func(t *testing.T) {
		p := Detect(buildGraph([]string{"a", "b"}, nil), DefaultOptions())
		assert.Empty(t, p.Communities)
	})

	t.Run("Single Edge Yields Singletons", func(t *testing.T) {
		g := buildGraph([]string{"a", "b", "c"}, [][2]string{{"a", "b"}})
		p := Detect(g, DefaultOptions())
		assert.Equal(t, [][]string{{"a"}, {"b"}, {"c"}}, p.Communities)
		assert.Equal(t, 0.0, p.Modularity)
	})
}

func TestDetect_Barbell(t *testing.T) {
	p := Detect(barbell(), DefaultOptions())

	require.Len(t, p.Communities, 2, "the two triangles should separate")

	var withA, withD []string
	for _, comm := range p.Communities {
		for _, id := range comm {
			switch id {
			case "a":
				withA = comm
			case "d":
				withD = comm
			}
		}
	}
	assert.ElementsMatch(t, []string{"a", "b", "c"}, withA)
	assert.ElementsMatch(t, []string{"d", "e", "f"}, withD)

	// Q = 2 * (3/7 - (7/14)^2)
	assert.InDelta(t, 5.0/14.0, p.Modularity, 1e-9)
}

func TestDetect_Deterministic(t *testing.T) {
	first := Detect(barbell(), DefaultOptions())
	for i := 0; i < 5; i++ {
		again := Detect(barbell(), DefaultOptions())
		assert.Equal(t, first, again, "repeated detection must match exactly")
	}
}

func TestModularity(t *testing.T) {
	t.Run("Whole Graph As One Community", func(t *testing.T) {
		g := buildGraph([]string{"a", "b", "c"}, [][2]string{
			{"a", "b"}, {"b", "c"}, {"a", "c"},
		})
		q := Modularity(g, [][]string{{"a", "b", "c"}}, 1.0)
		assert.InDelta(t, 0.0, q, 1e-12, "a single community has zero modularity")
	})

	t.Run("Known Barbell Partition", func(t *testing.T) {
		q := Modularity(barbell(), [][]string{{"a", "b", "c"}, {"d", "e", "f"}}, 1.0)
		assert.InDelta(t, 5.0/14.0, q, 1e-12)
	})

	t.Run("Resolution Scales The Null Model", func(t *testing.T) {
		g := barbell()
		partition := [][]string{{"a", "b", "c"}, {"d", "e", "f"}}
		low := Modularity(g, partition, 0.5)
		high := Modularity(g, partition, 2.0)
		assert.Greater(t, low, high)
	})
}
