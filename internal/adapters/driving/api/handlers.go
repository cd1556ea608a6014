package api

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/swiftvisa/swiftvisa-cli/internal/core/domain"
	"github.com/swiftvisa/swiftvisa-cli/internal/core/ports/driving"
	"github.com/swiftvisa/swiftvisa-cli/internal/logger"
)

const (
	defaultHistoryLimit = 20
	maxHistoryLimit     = 500
	maxBodyBytes        = 1 << 20
)

// HealthSource reports failure counts per pipeline component.
type HealthSource interface {
	Snapshot() map[string]int
}

// Handler serves the API endpoints.
type Handler struct {
	query   driving.QueryService
	history driving.HistoryService
	health  HealthSource
}

// NewHandler creates a handler. history and health may be nil.
func NewHandler(query driving.QueryService, history driving.HistoryService, health HealthSource) *Handler {
	return &Handler{query: query, history: history, health: health}
}

// HealthResponse is the body of GET /health.
type HealthResponse struct {
	Status    string         `json:"status"`
	IndexSize int            `json:"index_size"`
	Failures  map[string]int `json:"failures"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// HandleQuery runs one pipeline query.
func (h *Handler) HandleQuery(w http.ResponseWriter, r *http.Request) {
	if h.query == nil {
		sendError(w, http.StatusServiceUnavailable, "query service not configured")
		return
	}

	var req domain.QueryRequest
	body := http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		sendError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	if strings.TrimSpace(req.Query) == "" {
		sendError(w, http.StatusBadRequest, "query is required")
		return
	}

	answer, err := h.query.Run(r.Context(), req)
	if err != nil {
		sendError(w, statusFor(err), err.Error())
		return
	}

	sendJSON(w, http.StatusOK, answer)
}

// HandleHistory lists recent audit records.
func (h *Handler) HandleHistory(w http.ResponseWriter, r *http.Request) {
	limit := defaultHistoryLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			sendError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = min(n, maxHistoryLimit)
	}

	if h.history == nil {
		sendJSON(w, http.StatusOK, []domain.AuditRecord{})
		return
	}

	records, err := h.history.Recent(r.Context(), limit)
	if err != nil {
		sendError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if records == nil {
		records = []domain.AuditRecord{}
	}

	sendJSON(w, http.StatusOK, records)
}

// HandleHealth reports index size and component failure counts.
func (h *Handler) HandleHealth(w http.ResponseWriter, _ *http.Request) {
	resp := HealthResponse{Status: "ok", Failures: map[string]int{}}

	if h.query != nil {
		resp.IndexSize = h.query.IndexSize()
	}
	if h.health != nil {
		for component, n := range h.health.Snapshot() {
			resp.Failures[component] = n
		}
	}

	switch {
	case resp.IndexSize == 0:
		resp.Status = "no_index"
	case len(resp.Failures) > 0:
		resp.Status = "degraded"
	}

	sendJSON(w, http.StatusOK, resp)
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrInvalidInput):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrIndexMissing):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func sendError(w http.ResponseWriter, status int, msg string) {
	sendJSON(w, status, errorResponse{Error: msg})
}

func sendJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		logger.Warn("api: encoding response: %v", err)
	}
}
