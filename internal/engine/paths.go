package engine

import (
	"time"

	"github.com/krystal-project/powermap/internal/graph"
)

// Neighbor is one immediate connection of an entity: the neighboring
// entity record together with the edge that links them.
type Neighbor struct {
	Entity       *graph.Entity `json:"entity"`
	Relationship *graph.Edge   `json:"relationship"`
}

// NetworkExport is the serializable snapshot of a normalized network.
type NetworkExport struct {
	Entities      []*graph.Entity `json:"entities"`
	Relationships []*graph.Edge   `json:"relationships"`
	Metadata      ExportMetadata  `json:"metadata"`
}

// ExportMetadata carries counts and the export timestamp.
type ExportMetadata struct {
	TotalEntities      int       `json:"total_entities"`
	TotalRelationships int       `json:"total_relationships"`
	ExportedAt         time.Time `json:"exported_at"`
}

// BuildNetwork exposes the normalization stage on its own so callers
// can run the path, neighbor, and export operations over the same
// normalized graph the analysis pipeline uses.
func (e *Engine) BuildNetwork(entities []graph.Record, relationships []graph.Record) (*graph.Graph, *graph.EntityTable) {
	return graph.Build(entities, relationships, e.cfg.MinRelationshipStrength)
}

// FindConnectionPaths returns up to maxPaths simple paths between two
// entities, each path expanded to full entity records. Path length is
// bounded by the configured network depth; maxPaths <= 0 applies the
// configured default. Unknown endpoints yield no paths.
func (e *Engine) FindConnectionPaths(g *graph.Graph, table *graph.EntityTable, sourceID, targetID string, maxPaths int) [][]*graph.Entity {
	if maxPaths <= 0 {
		maxPaths = e.cfg.MaxConnectionPaths
	}
	if !g.HasNode(sourceID) || !g.HasNode(targetID) {
		return nil
	}

	var paths [][]*graph.Entity
	onPath := map[string]bool{sourceID: true}
	current := []string{sourceID}

	var walk func(v string)
	walk = func(v string) {
		if len(paths) >= maxPaths {
			return
		}
		if v == targetID {
			expanded := make([]*graph.Entity, 0, len(current))
			for _, id := range current {
				if entity, ok := table.Get(id); ok {
					expanded = append(expanded, entity.Clone())
				}
			}
			paths = append(paths, expanded)
			return
		}
		if len(current)-1 >= e.cfg.MaxNetworkDepth {
			return
		}
		for _, w := range g.NeighborIDs(v) {
			if onPath[w] {
				continue
			}
			onPath[w] = true
			current = append(current, w)
			walk(w)
			current = current[:len(current)-1]
			onPath[w] = false
		}
	}
	walk(sourceID)
	return paths
}

// EntityNeighbors returns the immediate neighbors of an entity with
// their connecting edges, optionally filtered by relationship label.
// An unknown entity yields no neighbors.
func (e *Engine) EntityNeighbors(g *graph.Graph, table *graph.EntityTable, entityID, relationshipType string) []Neighbor {
	if !g.HasNode(entityID) {
		return nil
	}

	var neighbors []Neighbor
	g.Neighbors(entityID, func(neighborID string, edge *graph.Edge) {
		if relationshipType != "" && edge.Type != relationshipType {
			return
		}
		entity, ok := table.Get(neighborID)
		if !ok {
			return
		}
		neighbors = append(neighbors, Neighbor{
			Entity:       entity.Clone(),
			Relationship: edge,
		})
	})
	return neighbors
}

// ExportNetwork snapshots the normalized entities and surviving
// relationships for external consumption.
func (e *Engine) ExportNetwork(g *graph.Graph, table *graph.EntityTable, now time.Time) *NetworkExport {
	entities := make([]*graph.Entity, 0, table.Len())
	for _, id := range table.IDs() {
		if entity, ok := table.Get(id); ok {
			entities = append(entities, entity.Clone())
		}
	}
	return &NetworkExport{
		Entities:      entities,
		Relationships: g.Edges(),
		Metadata: ExportMetadata{
			TotalEntities:      len(entities),
			TotalRelationships: g.EdgeCount(),
			ExportedAt:         now,
		},
	}
}
