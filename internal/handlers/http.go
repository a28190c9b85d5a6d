package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"github.com/krystal-project/powermap/internal/config"
	"github.com/krystal-project/powermap/internal/engine"
	"github.com/krystal-project/powermap/internal/kafka"
	"github.com/krystal-project/powermap/internal/metrics"
)

// HTTPHandlers contains HTTP request handlers for the analysis API.
type HTTPHandlers struct {
	engine   *engine.Engine
	producer *kafka.Producer
	metrics  *metrics.Collector
	config   config.Config
	logger   *slog.Logger
}

// NewHTTPHandlers creates new HTTP handlers.
func NewHTTPHandlers(
	engine *engine.Engine,
	producer *kafka.Producer,
	collector *metrics.Collector,
	config config.Config,
	logger *slog.Logger,
) *HTTPHandlers {
	return &HTTPHandlers{
		engine:   engine,
		producer: producer,
		metrics:  collector,
		config:   config,
		logger:   logger,
	}
}

// RegisterRoutes registers HTTP routes.
func (h *HTTPHandlers) RegisterRoutes(router *mux.Router) {
	router.HandleFunc("/api/v1/analysis/network", h.analyzeNetwork).Methods("POST")
	router.HandleFunc("/api/v1/analysis/paths", h.findConnectionPaths).Methods("POST")
	router.HandleFunc("/api/v1/entities/neighbors", h.entityNeighbors).Methods("POST")
	router.HandleFunc("/api/v1/network/export", h.exportNetwork).Methods("POST")

	router.HandleFunc("/health", h.healthCheck).Methods("GET")
	router.HandleFunc("/ready", h.readinessCheck).Methods("GET")
}

// analyzeNetwork handles full network analysis requests.
func (h *HTTPHandlers) analyzeNetwork(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	var req AnalyzeNetworkRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "Invalid request body", err)
		h.metrics.IncrementRequests(r.Method, "/api/v1/analysis/network", "400")
		return
	}

	jobID := uuid.New().String()
	h.logger.Info("Starting network analysis",
		"job_id", jobID,
		"entity_records", len(req.Entities),
		"relationship_records", len(req.Relationships))

	result := h.engine.Analyze(req.Entities, req.Relationships)
	duration := time.Since(start)
	completedAt := time.Now()

	h.metrics.IncrementAnalyses("completed")
	h.metrics.ObserveAnalysisDuration(duration)
	h.metrics.ObserveGraphSize(result.Summary.EntityCount, result.Summary.RelationshipCount)
	h.metrics.ObserveNetworkDensity(result.Summary.NetworkDensity)
	h.metrics.ObserveCommunities(result.Communities.CommunityCount, result.Communities.Modularity)

	if h.producer != nil {
		event := &kafka.AnalysisCompletedEvent{
			JobID:             jobID,
			EntityCount:       result.Summary.EntityCount,
			RelationshipCount: result.Summary.RelationshipCount,
			CommunityCount:    result.Communities.CommunityCount,
			DurationMillis:    duration.Milliseconds(),
			CompletedAt:       completedAt,
		}
		if err := h.producer.PublishAnalysisCompleted(event); err != nil {
			h.logger.Warn("Failed to publish analysis event", "job_id", jobID, "error", err)
			h.metrics.IncrementEventPublishErrors(h.producer.Topic())
		} else {
			h.metrics.IncrementEventsPublished(h.producer.Topic())
		}
	}

	h.logger.Info("Network analysis completed",
		"job_id", jobID,
		"duration_ms", duration.Milliseconds(),
		"entity_count", result.Summary.EntityCount,
		"relationship_count", result.Summary.RelationshipCount,
		"communities", result.Communities.CommunityCount)

	h.metrics.IncrementRequests(r.Method, "/api/v1/analysis/network", "200")
	h.metrics.ObserveRequestDuration(r.Method, "/api/v1/analysis/network", time.Since(start))

	h.writeJSON(w, http.StatusOK, &AnalyzeNetworkResponse{
		JobID:          jobID,
		Analysis:       result,
		DurationMillis: duration.Milliseconds(),
		CompletedAt:    completedAt,
	})
}

// findConnectionPaths handles connection path requests.
func (h *HTTPHandlers) findConnectionPaths(w http.ResponseWriter, r *http.Request) {
	var req ConnectionPathsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if req.SourceID == "" || req.TargetID == "" {
		h.writeError(w, http.StatusBadRequest, "source_id and target_id are required", nil)
		return
	}

	g, table := h.engine.BuildNetwork(req.Entities, req.Relationships)
	paths := h.engine.FindConnectionPaths(g, table, req.SourceID, req.TargetID, req.MaxPaths)

	h.writeJSON(w, http.StatusOK, &ConnectionPathsResponse{
		Paths: paths,
		Count: len(paths),
	})
}

// entityNeighbors handles neighborhood requests.
func (h *HTTPHandlers) entityNeighbors(w http.ResponseWriter, r *http.Request) {
	var req EntityNeighborsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if req.EntityID == "" {
		h.writeError(w, http.StatusBadRequest, "entity_id is required", nil)
		return
	}

	g, table := h.engine.BuildNetwork(req.Entities, req.Relationships)
	neighbors := h.engine.EntityNeighbors(g, table, req.EntityID, req.RelationshipType)

	h.writeJSON(w, http.StatusOK, &EntityNeighborsResponse{
		Neighbors: neighbors,
		Count:     len(neighbors),
	})
}

// exportNetwork handles network export requests.
func (h *HTTPHandlers) exportNetwork(w http.ResponseWriter, r *http.Request) {
	var req NetworkInput
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	g, table := h.engine.BuildNetwork(req.Entities, req.Relationships)
	export := h.engine.ExportNetwork(g, table, time.Now().UTC())

	h.writeJSON(w, http.StatusOK, export)
}

// healthCheck reports liveness.
func (h *HTTPHandlers) healthCheck(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, map[string]string{
		"status":  "healthy",
		"service": "powermap",
	})
}

// readinessCheck reports readiness. The engine is in-memory, so the
// service is ready as soon as it serves.
func (h *HTTPHandlers) readinessCheck(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, map[string]string{
		"status": "ready",
	})
}

// writeJSON writes a JSON response.
func (h *HTTPHandlers) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Error("Failed to encode response", "error", err)
	}
}

// writeError writes an error response.
func (h *HTTPHandlers) writeError(w http.ResponseWriter, status int, message string, err error) {
	response := ErrorResponse{Error: message}
	if err != nil {
		response.Details = err.Error()
	}
	h.writeJSON(w, status, response)
}
