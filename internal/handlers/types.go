package handlers

import (
	"time"

	"github.com/krystal-project/powermap/internal/engine"
	"github.com/krystal-project/powermap/internal/graph"
)

// NetworkInput carries the two loosely typed record sequences every
// analysis operation works over. Records that are structurally not
// JSON objects fail decoding and are rejected as contract violations;
// semantically incomplete records are repaired or dropped by the
// engine.
type NetworkInput struct {
	Entities      []graph.Record `json:"entities"`
	Relationships []graph.Record `json:"relationships"`
}

// AnalyzeNetworkRequest is the body of POST /api/v1/analysis/network.
type AnalyzeNetworkRequest struct {
	NetworkInput
}

// AnalyzeNetworkResponse wraps one analysis result.
type AnalyzeNetworkResponse struct {
	JobID          string                 `json:"job_id"`
	Analysis       *engine.AnalysisResult `json:"analysis"`
	DurationMillis int64                  `json:"duration_ms"`
	CompletedAt    time.Time              `json:"completed_at"`
}

// ConnectionPathsRequest is the body of POST /api/v1/analysis/paths.
type ConnectionPathsRequest struct {
	NetworkInput
	SourceID string `json:"source_id"`
	TargetID string `json:"target_id"`
	MaxPaths int    `json:"max_paths,omitempty"`
}

// ConnectionPathsResponse lists the discovered connection paths.
type ConnectionPathsResponse struct {
	Paths [][]*graph.Entity `json:"paths"`
	Count int               `json:"count"`
}

// EntityNeighborsRequest is the body of POST /api/v1/entities/neighbors.
type EntityNeighborsRequest struct {
	NetworkInput
	EntityID         string `json:"entity_id"`
	RelationshipType string `json:"relationship_type,omitempty"`
}

// EntityNeighborsResponse lists an entity's immediate connections.
type EntityNeighborsResponse struct {
	Neighbors []engine.Neighbor `json:"neighbors"`
	Count     int               `json:"count"`
}

// ErrorResponse is the uniform error body.
type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}
