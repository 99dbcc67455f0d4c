package server

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/beriox/bexp/internal/experiment"
)

type HealthResponse struct {
	Status            string `json:"status"`
	ActiveExperiments int    `json:"active_experiments"`
	UptimeSeconds     int64  `json:"uptime_seconds"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	response := HealthResponse{
		Status:            "ok",
		ActiveExperiments: len(s.engine.ActiveExperiments()),
		UptimeSeconds:     int64(time.Since(s.startTime).Seconds()),
	}

	writeJSON(w, http.StatusOK, response)
}

// BeaconRequest is one incoming tracking event. Events are journaled
// as-is; the endpoint validates shape, not referential integrity.
type BeaconRequest struct {
	Experiment string         `json:"experiment"`
	Variant    string         `json:"variant"`
	EventType  string         `json:"event"` // "impression" or "conversion"
	Goal       string         `json:"goal,omitempty"`
	UserID     string         `json:"user_id,omitempty"`
	SessionID  string         `json:"session_id,omitempty"`
	Value      *float64       `json:"value,omitempty"`
	Metadata   map[string]any `json:"metadata,omitempty"`
}

func (s *Server) handleBeacon(w http.ResponseWriter, r *http.Request) {
	setCORS(w, "POST, OPTIONS")
	if r.Method == http.MethodOptions {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	if s.limiter != nil && !s.limiter.Allow() {
		http.Error(w, "Too many requests", http.StatusTooManyRequests)
		return
	}

	var req BeaconRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid JSON", http.StatusBadRequest)
		return
	}

	if req.Experiment == "" || req.Variant == "" {
		http.Error(w, "Missing required fields", http.StatusBadRequest)
		return
	}

	switch req.EventType {
	case "impression":
		s.engine.RecordImpression(req.Experiment, req.Variant, req.UserID, req.SessionID, req.Metadata)
	case "conversion":
		if req.Goal == "" {
			http.Error(w, "Conversion requires a goal", http.StatusBadRequest)
			return
		}
		s.engine.RecordConversion(req.Experiment, req.Variant, req.Goal, req.UserID, req.SessionID, req.Value, req.Metadata)
	default:
		http.Error(w, "Invalid event type", http.StatusBadRequest)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

type AssignRequest struct {
	Experiment string `json:"experiment"`
	UserID     string `json:"user_id,omitempty"`
	SessionID  string `json:"session_id,omitempty"`
}

type AssignResponse struct {
	Variant *experiment.Variant `json:"variant"`
}

// handleAssign resolves (and pins) the caller's variant. A null variant in
// the response means no experiment applies and the caller should render its
// default.
func (s *Server) handleAssign(w http.ResponseWriter, r *http.Request) {
	setCORS(w, "POST, OPTIONS")
	if r.Method == http.MethodOptions {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req AssignRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid JSON", http.StatusBadRequest)
		return
	}
	if req.Experiment == "" {
		http.Error(w, "Missing experiment", http.StatusBadRequest)
		return
	}

	variant := s.engine.GetVariant(req.Experiment, req.UserID, req.SessionID)
	writeJSON(w, http.StatusOK, AssignResponse{Variant: variant})
}

// handleExperiments serves GET (list active) and POST (create, admin).
func (s *Server) handleExperiments(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		active := s.engine.ActiveExperiments()
		// Empty array instead of null for clients
		if active == nil {
			active = []experiment.Config{}
		}
		writeJSON(w, http.StatusOK, active)
	case http.MethodPost:
		if !s.requireToken(w, r) {
			return
		}
		var cfg experiment.Config
		if err := json.NewDecoder(r.Body).Decode(&cfg); err != nil {
			http.Error(w, "Invalid JSON", http.StatusBadRequest)
			return
		}
		if err := s.engine.CreateExperiment(cfg); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		w.WriteHeader(http.StatusCreated)
	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

// ResultsResponse bundles derived stats with pairwise significance.
type ResultsResponse struct {
	Experiment   string                             `json:"experiment"`
	Stats        []experiment.VariantStats          `json:"stats"`
	Significance map[string]experiment.Significance `json:"significance"`
}

// handleExperimentSub routes /v1/experiments/{id}/{action}.
func (s *Server) handleExperimentSub(w http.ResponseWriter, r *http.Request) {
	rest := strings.TrimPrefix(r.URL.Path, "/v1/experiments/")
	parts := strings.SplitN(rest, "/", 2)
	if len(parts) != 2 || parts[0] == "" {
		http.NotFound(w, r)
		return
	}
	id, action := parts[0], parts[1]

	switch action {
	case "results":
		if r.Method != http.MethodGet {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}
		stats := s.engine.ExperimentStats(id)
		if stats == nil {
			http.Error(w, "Experiment not found", http.StatusNotFound)
			return
		}
		goal := r.URL.Query().Get("goal")
		writeJSON(w, http.StatusOK, ResultsResponse{
			Experiment:   id,
			Stats:        stats,
			Significance: s.engine.CalculateSignificance(id, goal),
		})

	case "export":
		if !s.requireToken(w, r) {
			return
		}
		if r.Method != http.MethodGet {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}
		bundle, err := s.engine.ExportExperimentData(id)
		if err != nil {
			http.Error(w, "Experiment not found", http.StatusNotFound)
			return
		}
		writeJSON(w, http.StatusOK, bundle)

	case "deactivate":
		if !s.requireToken(w, r) {
			return
		}
		if r.Method != http.MethodPost {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}
		s.engine.DeactivateExperiment(id)
		w.WriteHeader(http.StatusNoContent)

	default:
		http.NotFound(w, r)
	}
}

func setCORS(w http.ResponseWriter, methods string) {
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.Header().Set("Access-Control-Allow-Methods", methods)
	w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
