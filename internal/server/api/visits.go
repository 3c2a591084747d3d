package api

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/ayusman/facekiosk/internal/store"
)

// DefaultVisitLimit is the number of visits listed when no limit is given.
const DefaultVisitLimit = 50

// VisitHandler handles HTTP requests for the visit log.
type VisitHandler struct {
	store *store.Store
}

// NewVisitHandler creates a new VisitHandler with the given store.
func NewVisitHandler(s *store.Store) *VisitHandler {
	return &VisitHandler{store: s}
}

// ServeHTTP routes:
//
//	GET    /api/visits?limit=N        most recent visits first
//	DELETE /api/visits?before=RFC3339 prune old visits
//	GET    /api/visits/counts         visits per name
//	GET    /api/visits/{id}           one visit
//	GET    /api/visits/{id}/hooks     hook outcomes for a visit
func (h *VisitHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	path := strings.TrimPrefix(r.URL.Path, "/api/visits")
	path = strings.Trim(path, "/")

	if path == "" {
		switch r.Method {
		case http.MethodGet:
			h.list(w, r)
		case http.MethodDelete:
			h.prune(w, r)
		default:
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		}
		return
	}

	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	if path == "counts" {
		h.counts(w, r)
		return
	}

	if id, ok := strings.CutSuffix(path, "/hooks"); ok {
		h.hooks(w, r, id)
		return
	}

	h.get(w, r, path)
}

type visitResponse struct {
	ID       string  `json:"id"`
	Name     string  `json:"name"`
	Known    bool    `json:"known"`
	Distance float64 `json:"distance"`
	SeenAt   string  `json:"seen_at"`
}

type listVisitsResponse struct {
	Visits []visitResponse `json:"visits"`
}

type countsResponse struct {
	Counts []store.VisitCount `json:"counts"`
}

type hookRunResponse struct {
	Plugin    string `json:"plugin"`
	Success   bool   `json:"success"`
	Error     string `json:"error,omitempty"`
	CreatedAt string `json:"created_at"`
}

type listHookRunsResponse struct {
	Hooks []hookRunResponse `json:"hooks"`
}

type pruneResponse struct {
	Deleted int64 `json:"deleted"`
}

func toVisitResponse(v *store.Visit) visitResponse {
	return visitResponse{
		ID:       v.ID,
		Name:     v.Name,
		Known:    v.Known,
		Distance: v.Distance,
		SeenAt:   formatTime(v.SeenAt),
	}
}

// list handles GET /api/visits.
func (h *VisitHandler) list(w http.ResponseWriter, r *http.Request) {
	limit := DefaultVisitLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			writeError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = n
	}

	visits, err := h.store.Visits().List(limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list visits")
		return
	}

	response := listVisitsResponse{
		Visits: make([]visitResponse, 0, len(visits)),
	}
	for _, v := range visits {
		response.Visits = append(response.Visits, toVisitResponse(v))
	}

	writeJSON(w, http.StatusOK, response)
}

// get handles GET /api/visits/{id}.
func (h *VisitHandler) get(w http.ResponseWriter, r *http.Request, id string) {
	visit, err := h.store.Visits().GetByID(id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "Visit not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "Failed to get visit")
		return
	}

	writeJSON(w, http.StatusOK, toVisitResponse(visit))
}

// counts handles GET /api/visits/counts.
func (h *VisitHandler) counts(w http.ResponseWriter, r *http.Request) {
	counts, err := h.store.Visits().CountByName()
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to count visits")
		return
	}
	if counts == nil {
		counts = []store.VisitCount{}
	}

	writeJSON(w, http.StatusOK, countsResponse{Counts: counts})
}

// hooks handles GET /api/visits/{id}/hooks.
func (h *VisitHandler) hooks(w http.ResponseWriter, r *http.Request, id string) {
	if _, err := h.store.Visits().GetByID(id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "Visit not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "Failed to get visit")
		return
	}

	runs, err := h.store.HookRuns().ListByVisit(id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list hook runs")
		return
	}

	response := listHookRunsResponse{
		Hooks: make([]hookRunResponse, 0, len(runs)),
	}
	for _, run := range runs {
		response.Hooks = append(response.Hooks, hookRunResponse{
			Plugin:    run.PluginName,
			Success:   run.Success,
			Error:     run.Error,
			CreatedAt: formatTime(run.CreatedAt),
		})
	}

	writeJSON(w, http.StatusOK, response)
}

// prune handles DELETE /api/visits?before=RFC3339.
func (h *VisitHandler) prune(w http.ResponseWriter, r *http.Request) {
	raw := r.URL.Query().Get("before")
	if raw == "" {
		writeError(w, http.StatusBadRequest, "before is required")
		return
	}

	cutoff, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		writeError(w, http.StatusBadRequest, "before must be an RFC3339 timestamp")
		return
	}

	n, err := h.store.Visits().DeleteBefore(cutoff)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to delete visits")
		return
	}

	writeJSON(w, http.StatusOK, pruneResponse{Deleted: n})
}
