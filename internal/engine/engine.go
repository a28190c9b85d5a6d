// Package engine orchestrates one power-structure analysis: graph
// construction, centrality, community detection, influence scoring,
// and the assembled report. An Engine holds configuration only; all
// graph state is local to each Analyze call, so a single Engine is
// safe for concurrent use.
package engine

import (
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"strconv"

	"github.com/krystal-project/powermap/internal/centrality"
	"github.com/krystal-project/powermap/internal/community"
	"github.com/krystal-project/powermap/internal/config"
	"github.com/krystal-project/powermap/internal/graph"
)

// Influence formula weights and entity-type multipliers.
const (
	degreeWeight      = 0.4
	betweennessWeight = 0.6
	maxInfluence      = 100.0
)

var typeMultipliers = map[string]float64{
	"government":   1.3,
	"corporation":  1.2,
	"person":       1.1,
	"organization": 1.0,
}

// Summary holds whole-network counts for one analysis.
type Summary struct {
	EntityCount             int     `json:"entity_count"`
	RelationshipCount       int     `json:"relationship_count"`
	NetworkDensity          float64 `json:"network_density"`
	ConnectedComponentCount int     `json:"connected_component_count"`
}

// Community is one detected community with its member records and the
// mean of member influence scores.
type Community struct {
	ID             int             `json:"id"`
	Size           int             `json:"size"`
	Entities       []*graph.Entity `json:"entities"`
	InfluenceScore float64         `json:"influence_score"`
}

// CommunityResult is the community-detection stage output.
type CommunityResult struct {
	Communities    []*Community `json:"communities"`
	Modularity     float64      `json:"modularity"`
	CommunityCount int          `json:"community_count"`
}

// Diameter marshals as the numeric diameter for a connected graph and
// as the string "disconnected" otherwise.
type Diameter struct {
	Value     int
	Connected bool
}

func (d Diameter) MarshalJSON() ([]byte, error) {
	if !d.Connected {
		return json.Marshal("disconnected")
	}
	return []byte(strconv.Itoa(d.Value)), nil
}

func (d *Diameter) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		if s != "disconnected" {
			return fmt.Errorf("invalid diameter marker %q", s)
		}
		*d = Diameter{}
		return nil
	}
	var v int
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	*d = Diameter{Value: v, Connected: true}
	return nil
}

// DegreeDistribution summarizes the degree sequence.
type DegreeDistribution struct {
	Min    int `json:"min"`
	Max    int `json:"max"`
	Median int `json:"median"`
}

// StructuralAnalysis holds whole-graph structural statistics.
type StructuralAnalysis struct {
	AverageDegree      float64            `json:"average_degree"`
	Diameter           Diameter           `json:"diameter"`
	AverageClustering  float64            `json:"average_clustering"`
	Assortativity      float64            `json:"assortativity"`
	DegreeDistribution DegreeDistribution `json:"degree_distribution"`
}

// AnalysisResult is the immutable output of one analysis run.
type AnalysisResult struct {
	Summary            Summary             `json:"summary"`
	Centrality         centrality.Measures `json:"centrality"`
	Communities        CommunityResult     `json:"communities"`
	InfluenceRankings  []*graph.Entity     `json:"influence_rankings"`
	StructuralAnalysis StructuralAnalysis  `json:"structural_analysis"`
	KeyFindings        []string            `json:"key_findings"`
}

// Engine runs analyses. It is stateless apart from configuration.
type Engine struct {
	cfg config.AnalysisConfig
}

// New creates an engine with the given analysis configuration.
func New(cfg config.AnalysisConfig) *Engine {
	return &Engine{cfg: cfg}
}

// Analyze runs the full pipeline over loosely typed entity and
// relationship records. It never fails for well-typed but degenerate
// input: malformed records are dropped during graph construction and
// every downstream stage is empty-safe.
func (e *Engine) Analyze(entities []graph.Record, relationships []graph.Record) *AnalysisResult {
	g, table := graph.Build(entities, relationships, e.cfg.MinRelationshipStrength)

	measures := centrality.Compute(g, centrality.Options{
		MaxIterations: e.cfg.EigenvectorMaxIterations,
		Tolerance:     e.cfg.EigenvectorTolerance,
	})

	partition := community.Detect(g, community.Options{
		Seed:       e.cfg.CommunitySeed,
		Resolution: e.cfg.CommunityResolution,
	})

	influence := e.scoreInfluence(g, table, measures)
	communities := formatCommunities(partition, table, influence)
	rankings := rankByInfluence(g, table, influence)

	componentCount := len(g.ConnectedComponents())

	result := &AnalysisResult{
		Summary: Summary{
			EntityCount:             g.NodeCount(),
			RelationshipCount:       g.EdgeCount(),
			NetworkDensity:          g.Density(),
			ConnectedComponentCount: componentCount,
		},
		Centrality:         measures,
		Communities:        communities,
		InfluenceRankings:  rankings,
		StructuralAnalysis: analyzeStructure(g),
	}
	result.KeyFindings = e.generateKeyFindings(g, table, measures, communities)
	return result
}

// scoreInfluence computes the composite influence score for every
// graph node: a weighted blend of degree and betweenness centrality
// scaled by the entity-type multiplier, capped at 100.
func (e *Engine) scoreInfluence(g *graph.Graph, table *graph.EntityTable, m centrality.Measures) map[string]float64 {
	scores := make(map[string]float64, g.NodeCount())
	for _, id := range g.Nodes() {
		scores[id] = e.entityInfluence(id, table, m)
	}
	return scores
}

func (e *Engine) entityInfluence(id string, table *graph.EntityTable, m centrality.Measures) float64 {
	entity, ok := table.Get(id)
	if !ok {
		return 0
	}

	multiplier, ok := typeMultipliers[entity.Type]
	if !ok {
		multiplier = 1.0
	}

	base := (degreeWeight*m.Degree[id] + betweennessWeight*m.Betweenness[id]) * maxInfluence
	return math.Min(base*multiplier, maxInfluence)
}

// formatCommunities attaches member entity records and the mean member
// influence to each non-empty community, numbering them from 1 in
// partition order.
func formatCommunities(p community.Partition, table *graph.EntityTable, influence map[string]float64) CommunityResult {
	result := CommunityResult{Modularity: p.Modularity}
	for _, members := range p.Communities {
		var entities []*graph.Entity
		var total float64
		for _, id := range members {
			entity, ok := table.Get(id)
			if !ok {
				continue
			}
			clone := entity.Clone()
			clone.InfluenceScore = influence[id]
			entities = append(entities, clone)
			total += influence[id]
		}
		if len(entities) == 0 {
			continue
		}
		result.Communities = append(result.Communities, &Community{
			ID:             len(result.Communities) + 1,
			Size:           len(entities),
			Entities:       entities,
			InfluenceScore: total / float64(len(entities)),
		})
	}
	result.CommunityCount = len(result.Communities)
	return result
}

// rankByInfluence returns every graph entity with its influence score
// populated, sorted descending. Ties keep original input order.
func rankByInfluence(g *graph.Graph, table *graph.EntityTable, influence map[string]float64) []*graph.Entity {
	rankings := make([]*graph.Entity, 0, g.NodeCount())
	for _, id := range table.IDs() {
		if !g.HasNode(id) {
			continue
		}
		entity, _ := table.Get(id)
		clone := entity.Clone()
		clone.InfluenceScore = influence[id]
		rankings = append(rankings, clone)
	}
	sort.SliceStable(rankings, func(i, j int) bool {
		return rankings[i].InfluenceScore > rankings[j].InfluenceScore
	})
	return rankings
}

// analyzeStructure computes whole-graph structural statistics. All
// values are zero-safe for an empty graph.
func analyzeStructure(g *graph.Graph) StructuralAnalysis {
	n := g.NodeCount()
	if n == 0 {
		return StructuralAnalysis{}
	}

	degrees := make([]int, n)
	var degreeTotal int
	for i, id := range g.Nodes() {
		degrees[i] = g.Degree(id)
		degreeTotal += degrees[i]
	}

	sorted := append([]int(nil), degrees...)
	sort.Ints(sorted)

	return StructuralAnalysis{
		AverageDegree:     float64(degreeTotal) / float64(n),
		Diameter:          diameter(g),
		AverageClustering: averageClustering(g),
		Assortativity:     degreeAssortativity(g),
		DegreeDistribution: DegreeDistribution{
			Min:    sorted[0],
			Max:    sorted[len(sorted)-1],
			Median: sorted[len(sorted)/2],
		},
	}
}

// diameter returns the longest shortest path of a connected graph, or
// the disconnected marker.
func diameter(g *graph.Graph) Diameter {
	if !g.IsConnected() {
		return Diameter{}
	}
	var max int
	for _, id := range g.Nodes() {
		for _, d := range g.BFSDistances(id) {
			if d > max {
				max = d
			}
		}
	}
	return Diameter{Value: max, Connected: true}
}

// averageClustering returns the mean local clustering coefficient.
// Nodes with fewer than two neighbors contribute 0.
func averageClustering(g *graph.Graph) float64 {
	n := g.NodeCount()
	if n == 0 {
		return 0
	}

	var total float64
	for _, id := range g.Nodes() {
		neighbors := g.NeighborIDs(id)
		k := len(neighbors)
		if k < 2 {
			continue
		}
		var links int
		for i := 0; i < k; i++ {
			for j := i + 1; j < k; j++ {
				if _, ok := g.EdgeBetween(neighbors[i], neighbors[j]); ok {
					links++
				}
			}
		}
		total += 2 * float64(links) / float64(k*(k-1))
	}
	return total / float64(n)
}

// degreeAssortativity returns the Pearson correlation of endpoint
// degrees across edges, with each edge contributing both orientations.
// Degenerate variance (for example a regular graph) yields 0.
func degreeAssortativity(g *graph.Graph) float64 {
	edges := g.Edges()
	if len(edges) == 0 {
		return 0
	}

	var sumX, sumY, sumXY, sumX2, sumY2 float64
	count := float64(2 * len(edges))
	for _, e := range edges {
		du := float64(g.Degree(e.Source))
		dv := float64(g.Degree(e.Target))
		sumX += du + dv
		sumY += du + dv
		sumXY += 2 * du * dv
		sumX2 += du*du + dv*dv
		sumY2 += du*du + dv*dv
	}

	cov := sumXY/count - (sumX/count)*(sumY/count)
	varX := sumX2/count - (sumX/count)*(sumX/count)
	varY := sumY2/count - (sumY/count)*(sumY/count)
	denom := math.Sqrt(varX * varY)
	if denom == 0 {
		return 0
	}
	return cov / denom
}

// generateKeyFindings synthesizes short descriptive findings. When
// centrality or community results are empty it reports insufficient
// data and nothing else.
func (e *Engine) generateKeyFindings(g *graph.Graph, table *graph.EntityTable, m centrality.Measures, c CommunityResult) []string {
	if m.Empty() || c.CommunityCount == 0 {
		return []string{"Insufficient data for detailed analysis"}
	}

	var findings []string

	// Most central entity by degree, ties broken by node order.
	var bestID string
	best := math.Inf(-1)
	for _, id := range g.Nodes() {
		if score, ok := m.Degree[id]; ok && score > best {
			best = score
			bestID = id
		}
	}
	if bestID != "" {
		name := bestID
		if entity, ok := table.Get(bestID); ok {
			name = entity.Name
		}
		findings = append(findings, fmt.Sprintf("Most central entity: %s (centrality: %.3f)", name, best))
	}

	largest := 0
	for _, comm := range c.Communities {
		if comm.Size > largest {
			largest = comm.Size
		}
	}
	findings = append(findings,
		fmt.Sprintf("Network divided into %d communities", c.CommunityCount),
		fmt.Sprintf("Largest community has %d entities", largest))

	density := g.Density()
	switch {
	case density > e.cfg.DenseThreshold:
		findings = append(findings, "Highly interconnected network (dense structure)")
	case density < e.cfg.SparseThreshold:
		findings = append(findings, "Sparse network with limited connections")
	default:
		findings = append(findings, "Moderately connected network")
	}

	return findings
}
