package centrality

import (
	"encoding/json"
	"math"
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

func fiveCycle() *graph.Graph {
	return buildGraph([]string{"a", "b", "c", "d", "e"}, [][2]string{
		{"a", "b"}, {"b", "c"}, {"c", "d"}, {"d", "e"}, {"e", "a"},
	})
}

func TestCompute_DegenerateGraphs(t *testing.T) {
	t.Run("Empty Graph", func(t *testing.T) {
		m := Compute(graph.New(), DefaultOptions())
		assert.True(t, m.Empty())
		assert.NotNil(t, m.Degree)
		assert.Empty(t, m.Degree)
	})

	t.Run("Nodes Without Edges", func(t *testing.T) {
		m := Compute(buildGraph([]string{"a", "b"}, nil), DefaultOptions())
		assert.True(t, m.Empty())
	})

	t.Run("Empty Measures Marshal As Objects", func(t *testing.T) {
		m := Compute(graph.New(), DefaultOptions())
		payload, err := json.Marshal(m)
		require.NoError(t, err)
		var decoded map[string]json.RawMessage
		require.NoError(t, json.Unmarshal(payload, &decoded))
		for key, raw := range decoded {
			assert.Equal(t, "{}", string(raw), "measure %s", key)
		}
	})

	t.Run("Single Edge Falls Back To Degree", func(t *testing.T) {
		g := buildGraph([]string{"a", "b"}, [][2]string{{"a", "b"}})
		m := Compute(g, DefaultOptions())
		require.False(t, m.Empty())
		assert.Equal(t, m.Degree, m.Eigenvector)
		assert.Equal(t, m.Degree, m.Closeness)
		assert.Equal(t, 1.0, m.Degree["a"])
		assert.Equal(t, 1.0, m.Degree["b"])
		assert.Equal(t, 0.0, m.Betweenness["a"])
	})
}

func TestDegree(t *testing.T) {
	g := buildGraph([]string{"hub", "x", "y", "z"}, [][2]string{
		{"hub", "x"}, {"hub", "y"}, {"hub", "z"},
	})
	scores := Degree(g)
	assert.InDelta(t, 1.0, scores["hub"], 1e-12)
	assert.InDelta(t, 1.0/3.0, scores["x"], 1e-12)
}

func TestBetweenness(t *testing.T) {
	t.Run("Star Center Carries All Paths", func(t *testing.T) {
		g := buildGraph([]string{"hub", "x", "y", "z"}, [][2]string{
			{"hub", "x"}, {"hub", "y"}, {"hub", "z"},
		})
		scores := Betweenness(g)
		assert.InDelta(t, 1.0, scores["hub"], 1e-12)
		assert.InDelta(t, 0.0, scores["x"], 1e-12)
	})

	t.Run("Path Midpoint", func(t *testing.T) {
		g := buildGraph([]string{"a", "b", "c"}, [][2]string{{"a", "b"}, {"b", "c"}})
		scores := Betweenness(g)
		assert.InDelta(t, 1.0, scores["b"], 1e-12)
		assert.InDelta(t, 0.0, scores["a"], 1e-12)
	})

	t.Run("Five Cycle Is Uniform", func(t *testing.T) {
		scores := Betweenness(fiveCycle())
		for id, v := range scores {
			assert.InDelta(t, 1.0/6.0, v, 1e-12, "node %s", id)
		}
	})

	t.Run("Disconnected Scores Per Component", func(t *testing.T) {
		g := buildGraph([]string{"a", "b", "c", "solo"}, [][2]string{
			{"a", "b"}, {"b", "c"},
		})
		scores := Betweenness(g)
		assert.InDelta(t, 1.0, scores["b"], 1e-12)
		assert.Equal(t, 0.0, scores["solo"])
		assert.Len(t, scores, 4, "every node is scored")
	})
}

func TestEigenvector(t *testing.T) {
	t.Run("Undefined For Tiny Graphs", func(t *testing.T) {
		g := buildGraph([]string{"a", "b"}, [][2]string{{"a", "b"}})
		_, ok := Eigenvector(g, DefaultOptions())
		assert.False(t, ok)
	})

	t.Run("Undefined For Disconnected Graphs", func(t *testing.T) {
		g := buildGraph([]string{"a", "b", "c", "d"}, [][2]string{
			{"a", "b"}, {"c", "d"},
		})
		_, ok := Eigenvector(g, DefaultOptions())
		assert.False(t, ok)
	})

	t.Run("Five Cycle Is Uniform", func(t *testing.T) {
		scores, ok := Eigenvector(fiveCycle(), DefaultOptions())
		require.True(t, ok)
		expected := 1.0 / math.Sqrt(5)
		for id, v := range scores {
			assert.InDelta(t, expected, v, 1e-3, "node %s", id)
		}
	})

	t.Run("Star Center Dominates", func(t *testing.T) {
		g := buildGraph([]string{"hub", "x", "y", "z"}, [][2]string{
			{"hub", "x"}, {"hub", "y"}, {"hub", "z"},
		})
		scores, ok := Eigenvector(g, DefaultOptions())
		require.True(t, ok)
		assert.Greater(t, scores["hub"], scores["x"])
		assert.InDelta(t, scores["x"], scores["y"], 1e-6)
	})
}

func TestCloseness(t *testing.T) {
	g := buildGraph([]string{"a", "b", "c", "solo"}, [][2]string{
		{"a", "b"}, {"b", "c"},
	})
	scores := Closeness(g)
	assert.InDelta(t, 2.0/3.0, scores["a"], 1e-12)
	assert.InDelta(t, 1.0, scores["b"], 1e-12)
	assert.Equal(t, 0.0, scores["solo"])
}
