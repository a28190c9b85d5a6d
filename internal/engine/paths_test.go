package engine

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/krystal-project/powermap/internal/graph"
)

func chainWithShortcut() ([]graph.Record, []graph.Record) {
	entities := []graph.Record{
		{"id": "a", "name": "A"},
		{"id": "b", "name": "B"},
		{"id": "c", "name": "C"},
		{"id": "d", "name": "D"},
	}
	relationships := []graph.Record{
		{"source": "a", "target": "b", "type": "funds", "strength": 0.8},
		{"source": "b", "target": "c", "type": "funds", "strength": 0.8},
		{"source": "c", "target": "d", "type": "funds", "strength": 0.8},
		{"source": "a", "target": "d", "type": "advises", "strength": 0.8},
	}
	return entities, relationships
}

func pathIDs(path []*graph.Entity) []string {
	ids := make([]string, len(path))
	for i, e := range path {
		ids[i] = e.ID
	}
	return ids
}

func TestFindConnectionPaths(t *testing.T) {
	eng := newTestEngine()
	entities, relationships := chainWithShortcut()
	g, table := eng.BuildNetwork(entities, relationships)

	t.Run("Finds All Simple Paths In Traversal Order", func(t *testing.T) {
		paths := eng.FindConnectionPaths(g, table, "a", "d", 0)
		require.Len(t, paths, 2)
		assert.Equal(t, []string{"a", "b", "c", "d"}, pathIDs(paths[0]))
		assert.Equal(t, []string{"a", "d"}, pathIDs(paths[1]))
	})

	t.Run("Honors Path Limit", func(t *testing.T) {
		paths := eng.FindConnectionPaths(g, table, "a", "d", 1)
		require.Len(t, paths, 1)
	})

	t.Run("Unknown Endpoints Yield Nothing", func(t *testing.T) {
		assert.Nil(t, eng.FindConnectionPaths(g, table, "a", "ghost", 0))
		assert.Nil(t, eng.FindConnectionPaths(g, table, "ghost", "d", 0))
	})

	t.Run("Depth Bound Prunes Long Paths", func(t *testing.T) {
		longEntities := []graph.Record{
			{"id": "v0", "name": "V0"}, {"id": "v1", "name": "V1"},
			{"id": "v2", "name": "V2"}, {"id": "v3", "name": "V3"},
			{"id": "v4", "name": "V4"},
		}
		longRelationships := []graph.Record{
			{"source": "v0", "target": "v1", "strength": 0.8},
			{"source": "v1", "target": "v2", "strength": 0.8},
			{"source": "v2", "target": "v3", "strength": 0.8},
			{"source": "v3", "target": "v4", "strength": 0.8},
		}
		lg, lt := eng.BuildNetwork(longEntities, longRelationships)
		assert.Empty(t, eng.FindConnectionPaths(lg, lt, "v0", "v4", 0),
			"four hops exceed the default depth of three")
		assert.Len(t, eng.FindConnectionPaths(lg, lt, "v0", "v3", 0), 1)
	})
}

func TestEntityNeighbors(t *testing.T) {
	eng := newTestEngine()
	entities, relationships := chainWithShortcut()
	g, table := eng.BuildNetwork(entities, relationships)

	t.Run("All Neighbors", func(t *testing.T) {
		neighbors := eng.EntityNeighbors(g, table, "a", "")
		require.Len(t, neighbors, 2)
		assert.Equal(t, "b", neighbors[0].Entity.ID)
		assert.Equal(t, "funds", neighbors[0].Relationship.Type)
		assert.Equal(t, "d", neighbors[1].Entity.ID)
	})

	t.Run("Filtered By Relationship Type", func(t *testing.T) {
		neighbors := eng.EntityNeighbors(g, table, "a", "advises")
		require.Len(t, neighbors, 1)
		assert.Equal(t, "d", neighbors[0].Entity.ID)
	})

	t.Run("Unknown Entity", func(t *testing.T) {
		assert.Nil(t, eng.EntityNeighbors(g, table, "ghost", ""))
	})
}

func TestExportNetwork(t *testing.T) {
	eng := newTestEngine()
	entities, relationships := chainWithShortcut()
	g, table := eng.BuildNetwork(entities, relationships)

	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	export := eng.ExportNetwork(g, table, now)

	assert.Len(t, export.Entities, 4)
	assert.Len(t, export.Relationships, 4)
	assert.Equal(t, 4, export.Metadata.TotalEntities)
	assert.Equal(t, 4, export.Metadata.TotalRelationships)
	assert.Equal(t, now, export.Metadata.ExportedAt)

	ids := make([]string, len(export.Entities))
	for i, e := range export.Entities {
		ids[i] = e.ID
	}
	assert.Equal(t, []string{"a", "b", "c", "d"}, ids, "export preserves input order")
}
