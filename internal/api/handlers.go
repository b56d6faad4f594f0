package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/reelagent/reelagent/internal/models"
	"github.com/reelagent/reelagent/internal/queue"
	"github.com/reelagent/reelagent/internal/store"
)

type Handler struct {
	store store.JobStore
	queue *queue.Queue
}

func NewHandler(s store.JobStore, q *queue.Queue) *Handler {
	return &Handler{
		store: s,
		queue: q,
	}
}

// CreateJob handles POST /api/generate
func (h *Handler) CreateJob(w http.ResponseWriter, r *http.Request) {
	var req models.CreateJobRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if req.Topic == "" {
		respondError(w, http.StatusBadRequest, "Topic is required")
		return
	}
	if req.DurationMode != "" && !req.DurationMode.Valid() {
		respondError(w, http.StatusBadRequest, "Unknown duration mode")
		return
	}

	req.ApplyDefaults()

	job, err := h.store.Create(r.Context(), req)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to create job")
		return
	}

	if err := h.queue.Enqueue(r.Context(), job.ID); err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to enqueue job")
		return
	}

	respondJSON(w, http.StatusCreated, job)
}

// ListJobs handles GET /api/jobs
func (h *Handler) ListJobs(w http.ResponseWriter, r *http.Request) {
	jobs, err := h.store.List(r.Context())
	if err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to list jobs")
		return
	}
	respondJSON(w, http.StatusOK, jobs)
}

// GetJob handles GET /api/jobs/{id}
func (h *Handler) GetJob(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	job, err := h.store.Get(r.Context(), id)
	if errors.Is(err, store.ErrNotFound) {
		respondError(w, http.StatusNotFound, "Job not found")
		return
	}
	if err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to load job")
		return
	}

	respondJSON(w, http.StatusOK, job)
}

// Health handles GET /api/health — public, no auth required.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{
		"status": "running",
		"system": "ReelAgent",
	})
}

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}
