package api

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"axisim/internal/axis"
	"axisim/internal/logging"
	"axisim/internal/metrics"
	"axisim/internal/orchestrator"
	"axisim/internal/version"
)

const maxRequestBodyBytes = 1 << 20

type RestHandler struct {
	Orchestrator *orchestrator.Orchestrator
	Logger       *logging.Logger
	Metrics      *metrics.Registry
	StartedAt    time.Time
}

type healthResponse struct {
	Status  string `json:"status"`
	Version string `json:"version"`
}

type statusResponse struct {
	Service        string    `json:"service"`
	Version        string    `json:"version"`
	ServerTime     time.Time `json:"server_time"`
	UptimeSeconds  float64   `json:"uptime_seconds"`
	ActiveSessions int       `json:"active_sessions"`
}

type simulateResponse struct {
	Session orchestrator.StatusView `json:"session"`
	Result  orchestrator.Result     `json:"result"`
}

type coordinateAnalysisRequest struct {
	Coordinate            axis.Coordinate `json:"coordinate"`
	RegulatoryConstraints map[string]any  `json:"regulatory_constraints,omitempty"`
}

type coordinateAnalysisResponse struct {
	Coordinate        axis.Coordinate      `json:"coordinate"`
	NurembergNumber   string               `json:"nuremberg_number"`
	UnifiedSystemID   string               `json:"unified_system_id"`
	CoordinateHash    string               `json:"coordinate_hash"`
	FilledAxes        int                  `json:"filled_axes"`
	ComplexityFactors map[string]float64   `json:"complexity_factors"`
	ComplexityScore   float64              `json:"complexity_score"`
	PlannedStages     []orchestrator.Stage `json:"planned_stages"`
}

func (h *RestHandler) handleHealth(w http.ResponseWriter, r *http.Request) *apiError {
	if r.Method != http.MethodGet {
		return methodNotAllowed(w, "GET")
	}
	writeJSON(w, http.StatusOK, healthResponse{Status: "ok", Version: version.Version})
	return nil
}

func (h *RestHandler) handleStatus(w http.ResponseWriter, r *http.Request) *apiError {
	if r.Method != http.MethodGet {
		return methodNotAllowed(w, "GET")
	}
	if err := h.requireOrchestrator(); err != nil {
		return err
	}

	now := time.Now().UTC()
	writeJSON(w, http.StatusOK, statusResponse{
		Service:        "axisim",
		Version:        version.Version,
		ServerTime:     now,
		UptimeSeconds:  now.Sub(h.StartedAt).Seconds(),
		ActiveSessions: h.Orchestrator.ActiveSessionCount(),
	})
	return nil
}

func (h *RestHandler) handleSessions(w http.ResponseWriter, r *http.Request) *apiError {
	if err := h.requireOrchestrator(); err != nil {
		return err
	}

	switch r.Method {
	case http.MethodGet:
		writeJSON(w, http.StatusOK, h.Orchestrator.Sessions())
		return nil
	case http.MethodPost:
		return h.createSession(w, r)
	default:
		return methodNotAllowed(w, "GET, POST")
	}
}

func (h *RestHandler) createSession(w http.ResponseWriter, r *http.Request) *apiError {
	request, apiErr := decodeSimulationRequest(r)
	if apiErr != nil {
		return apiErr
	}

	view, err := h.Orchestrator.CreateSession(r.Context(), request)
	if err != nil {
		return mapOrchestratorError(err)
	}

	writeJSON(w, http.StatusCreated, view)
	return nil
}

// handleSession serves /api/sessions/{id} and /api/sessions/{id}/simulate.
func (h *RestHandler) handleSession(w http.ResponseWriter, r *http.Request) *apiError {
	if err := h.requireOrchestrator(); err != nil {
		return err
	}

	id, wantsSimulate, ok := parseSessionPath(r.URL.Path)
	if !ok {
		return &apiError{Status: http.StatusNotFound, Message: "not found"}
	}

	if wantsSimulate {
		if r.Method != http.MethodPost {
			return methodNotAllowed(w, "POST")
		}
		result, err := h.Orchestrator.ExecuteSimulation(r.Context(), id)
		if err != nil {
			apiErr := mapOrchestratorError(err)
			apiErr.SessionID = id
			return apiErr
		}
		writeJSON(w, http.StatusOK, result)
		return nil
	}

	if r.Method != http.MethodGet {
		return methodNotAllowed(w, "GET")
	}
	view, err := h.Orchestrator.SessionStatus(id)
	if err != nil {
		apiErr := mapOrchestratorError(err)
		apiErr.SessionID = id
		return apiErr
	}
	writeJSON(w, http.StatusOK, view)
	return nil
}

// handleSimulate runs the one-shot form: create a session and execute it in
// a single request.
func (h *RestHandler) handleSimulate(w http.ResponseWriter, r *http.Request) *apiError {
	if err := h.requireOrchestrator(); err != nil {
		return err
	}
	if r.Method != http.MethodPost {
		return methodNotAllowed(w, "POST")
	}

	request, apiErr := decodeSimulationRequest(r)
	if apiErr != nil {
		return apiErr
	}

	view, err := h.Orchestrator.CreateSession(r.Context(), request)
	if err != nil {
		return mapOrchestratorError(err)
	}
	result, err := h.Orchestrator.ExecuteSimulation(r.Context(), view.SessionID)
	if err != nil {
		mapped := mapOrchestratorError(err)
		mapped.SessionID = view.SessionID
		return mapped
	}

	session, err := h.Orchestrator.SessionStatus(view.SessionID)
	if err != nil {
		session = view
	}
	writeJSON(w, http.StatusOK, simulateResponse{Session: session, Result: result})
	return nil
}

func (h *RestHandler) handleAnalyzeCoordinate(w http.ResponseWriter, r *http.Request) *apiError {
	if r.Method != http.MethodPost {
		return methodNotAllowed(w, "POST")
	}

	var request coordinateAnalysisRequest
	if apiErr := decodeJSONBody(r, &request); apiErr != nil {
		return apiErr
	}
	if err := request.Coordinate.Validate(); err != nil {
		return &apiError{Status: http.StatusBadRequest, Message: err.Error(), Code: codeInvalidCoordinate}
	}

	factors, score := orchestrator.AnalyzeComplexity(request.Coordinate)
	plan, err := orchestrator.PlanWorkflow(score, orchestrator.Request{
		Coordinate:            request.Coordinate,
		RegulatoryConstraints: request.RegulatoryConstraints,
	})
	if err != nil {
		return mapOrchestratorError(err)
	}
	writeJSON(w, http.StatusOK, coordinateAnalysisResponse{
		Coordinate:        request.Coordinate,
		NurembergNumber:   request.Coordinate.NurembergNumber(),
		UnifiedSystemID:   request.Coordinate.UnifiedSystemID(),
		CoordinateHash:    request.Coordinate.CoordinateHash(),
		FilledAxes:        request.Coordinate.FilledAxes(),
		ComplexityFactors: factors,
		ComplexityScore:   score,
		PlannedStages:     plan,
	})
	return nil
}

func (h *RestHandler) handleAxes(w http.ResponseWriter, r *http.Request) *apiError {
	if r.Method != http.MethodGet {
		return methodNotAllowed(w, "GET")
	}
	writeJSON(w, http.StatusOK, axis.MetadataTable())
	return nil
}

func (h *RestHandler) handleSystemMetrics(w http.ResponseWriter, r *http.Request) *apiError {
	if err := h.requireOrchestrator(); err != nil {
		return err
	}
	if r.Method != http.MethodGet {
		return methodNotAllowed(w, "GET")
	}
	writeJSON(w, http.StatusOK, h.Orchestrator.SystemMetrics())
	return nil
}

func (h *RestHandler) handlePrometheus(w http.ResponseWriter, r *http.Request) *apiError {
	if r.Method != http.MethodGet {
		return methodNotAllowed(w, "GET")
	}
	registry := h.Metrics
	if registry == nil {
		registry = metrics.Default
	}
	w.Header().Set("Content-Type", "text/plain; version=0.0.4; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_ = registry.WritePrometheus(w)
	return nil
}

func (h *RestHandler) handleLogs(w http.ResponseWriter, r *http.Request) *apiError {
	if r.Method != http.MethodGet {
		return methodNotAllowed(w, "GET")
	}
	if h.Logger == nil || h.Logger.Buffer() == nil {
		writeJSON(w, http.StatusOK, []logging.LogEntry{})
		return nil
	}

	entries := h.Logger.Buffer().List()

	if raw := strings.TrimSpace(r.URL.Query().Get("level")); raw != "" {
		level, ok := logging.ParseLevel(raw)
		if !ok {
			return &apiError{Status: http.StatusBadRequest, Message: "invalid level"}
		}
		filtered := entries[:0:0]
		for _, entry := range entries {
			if logging.LevelAtLeast(entry.Level, level) {
				filtered = append(filtered, entry)
			}
		}
		entries = filtered
	}

	if raw := strings.TrimSpace(r.URL.Query().Get("limit")); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit < 0 {
			return &apiError{Status: http.StatusBadRequest, Message: "invalid limit"}
		}
		if limit < len(entries) {
			entries = entries[len(entries)-limit:]
		}
	}

	if entries == nil {
		entries = []logging.LogEntry{}
	}
	writeJSON(w, http.StatusOK, entries)
	return nil
}

func (h *RestHandler) requireOrchestrator() *apiError {
	if h.Orchestrator == nil {
		return &apiError{Status: http.StatusServiceUnavailable, Message: "orchestrator unavailable"}
	}
	return nil
}

func decodeSimulationRequest(r *http.Request) (orchestrator.Request, *apiError) {
	var request orchestrator.Request
	if apiErr := decodeJSONBody(r, &request); apiErr != nil {
		return orchestrator.Request{}, apiErr
	}
	return request, nil
}

func decodeJSONBody(r *http.Request, target any) *apiError {
	body := http.MaxBytesReader(nil, r.Body, maxRequestBodyBytes)
	defer func() {
		_, _ = io.Copy(io.Discard, body)
	}()

	decoder := json.NewDecoder(body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(target); err != nil {
		return &apiError{Status: http.StatusBadRequest, Message: "invalid request body: " + err.Error()}
	}
	return nil
}

func mapOrchestratorError(err error) *apiError {
	var collaboratorErr *orchestrator.CollaboratorError
	switch {
	case errors.Is(err, orchestrator.ErrSessionNotFound):
		return &apiError{Status: http.StatusNotFound, Message: "session not found", Code: codeSessionNotFound}
	case errors.As(err, &collaboratorErr):
		return &apiError{Status: http.StatusBadGateway, Message: collaboratorErr.Error(), Code: codeCollaboratorFailure}
	case errors.Is(err, orchestrator.ErrEmptyPlan):
		return &apiError{Status: http.StatusInternalServerError, Message: err.Error(), Code: codePlanningFailure}
	case errors.Is(err, axis.ErrMissingAnchor):
		return &apiError{Status: http.StatusBadRequest, Message: err.Error(), Code: codeInvalidCoordinate}
	default:
		if strings.Contains(err.Error(), "invalid coordinate") {
			return &apiError{Status: http.StatusBadRequest, Message: err.Error(), Code: codeInvalidCoordinate}
		}
		return &apiError{Status: http.StatusInternalServerError, Message: err.Error()}
	}
}

// parseSessionPath splits "/api/sessions/{id}" and
// "/api/sessions/{id}/simulate" into their parts.
func parseSessionPath(path string) (id string, simulate bool, ok bool) {
	rest := strings.TrimPrefix(path, "/api/sessions/")
	if rest == path || rest == "" {
		return "", false, false
	}
	parts := strings.Split(strings.Trim(rest, "/"), "/")
	switch len(parts) {
	case 1:
		return parts[0], false, parts[0] != ""
	case 2:
		if parts[1] != "simulate" {
			return "", false, false
		}
		return parts[0], true, parts[0] != ""
	default:
		return "", false, false
	}
}
