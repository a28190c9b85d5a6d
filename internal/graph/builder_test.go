package graph

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testMinStrength = 0.1

func TestBuild_EntityNormalization(t *testing.T) {
	t.Run("Explicit Fields Pass Through", func(t *testing.T) {
		g, table := Build([]Record{
			{"id": "acme", "name": "Acme Corp", "type": "corporation", "sector": "defense"},
		}, nil, testMinStrength)

		require.Equal(t, 1, table.Len())
		e, ok := table.Get("acme")
		require.True(t, ok)
		assert.Equal(t, "Acme Corp", e.Name)
		assert.Equal(t, "corporation", e.Type)
		assert.Equal(t, "defense", e.Attributes["sector"])
		assert.True(t, g.HasNode("acme"))
	})

	t.Run("Missing ID Is Synthesized From Name And Position", func(t *testing.T) {
		_, table := Build([]Record{
			{"name": "Jane Doe"},
		}, nil, testMinStrength)

		require.Equal(t, []string{"janedoe-0"}, table.IDs())
	})

	t.Run("Synthesized ID Avoids Collisions", func(t *testing.T) {
		_, table := Build([]Record{
			{"id": "acme-1", "name": "First"},
			{"name": "Acme"},
		}, nil, testMinStrength)

		require.Equal(t, []string{"acme-1", "acme-1-1"}, table.IDs())
	})

	t.Run("Absent Name Gets Positional Placeholder", func(t *testing.T) {
		_, table := Build([]Record{
			{"name": "First"},
			{"id": "mystery"},
		}, nil, testMinStrength)

		e, ok := table.Get("mystery")
		require.True(t, ok)
		assert.Equal(t, "Entity 1", e.Name)
	})

	t.Run("Blank Name Drops The Record", func(t *testing.T) {
		g, table := Build([]Record{
			{"id": "blank", "name": "   "},
			{"id": "kept", "name": "Kept"},
		}, nil, testMinStrength)

		assert.Equal(t, 1, table.Len())
		assert.False(t, g.HasNode("blank"))
		assert.True(t, g.HasNode("kept"))
	})

	t.Run("Duplicate IDs Keep Last Record And First Order", func(t *testing.T) {
		_, table := Build([]Record{
			{"id": "x", "name": "Old Name"},
			{"id": "y", "name": "Other"},
			{"id": "x", "name": "New Name", "type": "person"},
		}, nil, testMinStrength)

		require.Equal(t, []string{"x", "y"}, table.IDs())
		e, _ := table.Get("x")
		assert.Equal(t, "New Name", e.Name)
		assert.Equal(t, "person", e.Type)
	})

	t.Run("Numeric IDs Coerce To Strings", func(t *testing.T) {
		_, table := Build([]Record{
			{"id": 42, "name": "Numeric"},
		}, nil, testMinStrength)

		_, ok := table.Get("42")
		assert.True(t, ok)
	})
}

func TestEntityTypeInference(t *testing.T) {
	cases := []struct {
		name     string
		rawType  string
		expected string
	}{
		{"Global Dynamics Inc", "", "corporation"},
		{"Office of the Senator", "", "government"},
		{"CEO Pat Smith", "", "person"},
		{"Open Society Forum", "", "organization"},
		{"Anything", "GOVERNMENT", "government"},
		{"Anything", "conglomerate", "organization"},
	}

	for _, tc := range cases {
		assert.Equal(t, tc.expected, NormalizeEntityType(tc.rawType, tc.name),
			"name=%q rawType=%q", tc.name, tc.rawType)
	}
}

func TestBuild_RelationshipFiltering(t *testing.T) {
	entities := []Record{
		{"id": "a", "name": "A"},
		{"id": "b", "name": "B"},
		{"id": "c", "name": "C"},
	}

	t.Run("Default Strength Applies", func(t *testing.T) {
		g, _ := Build(entities, []Record{
			{"source": "a", "target": "b"},
		}, testMinStrength)

		e, ok := g.EdgeBetween("a", "b")
		require.True(t, ok)
		assert.Equal(t, DefaultStrength, e.Strength)
	})

	t.Run("Below Threshold Is Dropped", func(t *testing.T) {
		g, _ := Build(entities, []Record{
			{"source": "a", "target": "b", "strength": 0.05},
			{"source": "b", "target": "c", "strength": 0.1},
		}, testMinStrength)

		assert.Equal(t, 1, g.EdgeCount(), "exactly-at-threshold edge survives")
		_, ok := g.EdgeBetween("b", "c")
		assert.True(t, ok)
	})

	t.Run("Dangling And Self Referential Are Dropped", func(t *testing.T) {
		g, _ := Build(entities, []Record{
			{"source": "a", "target": "ghost", "strength": 0.9},
			{"source": "ghost", "target": "b", "strength": 0.9},
			{"source": "a", "target": "a", "strength": 0.9},
			{"strength": 0.9},
		}, testMinStrength)

		assert.Equal(t, 0, g.EdgeCount())
	})

	t.Run("Duplicate Pair Collapses To Strongest", func(t *testing.T) {
		g, _ := Build(entities, []Record{
			{"source": "a", "target": "b", "type": "ally", "strength": 0.4},
			{"source": "b", "target": "a", "type": "owner", "strength": 0.9},
		}, testMinStrength)

		require.Equal(t, 1, g.EdgeCount())
		e, _ := g.EdgeBetween("a", "b")
		assert.Equal(t, "owner", e.Type)
		assert.Equal(t, 0.9, e.Strength)
	})

	t.Run("Integer Strength Coerces", func(t *testing.T) {
		g, _ := Build(entities, []Record{
			{"source": "a", "target": "b", "strength": 1},
		}, testMinStrength)

		e, ok := g.EdgeBetween("a", "b")
		require.True(t, ok)
		assert.Equal(t, 1.0, e.Strength)
	})
}

func TestSlugify(t *testing.T) {
	assert.Equal(t, "janedoe", Slugify("Jane Doe"))
	assert.Equal(t, "acme-corp_2", Slugify("Acme-Corp_2!"))
	assert.Equal(t, "", Slugify("***"))
}
