// Package handler contains the thin HTTP handlers over the pipeline
// core. No pipeline logic lives here.
package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"articleforge/internal/article"
	"articleforge/internal/model"
	"articleforge/internal/pipeline"
	"articleforge/internal/ports"
)

// Handler bundles the collaborators the HTTP surface needs.
type Handler struct {
	Pipeline *pipeline.Pipeline
	Store    ports.StateStore
	Broker   ports.Broker
	Log      *slog.Logger
}

// SubmitRequest is the POST /jobs payload.
type SubmitRequest struct {
	IdempotencyKey string            `json:"idempotency_key"`
	Usecase        string            `json:"usecase"`
	Version        string            `json:"version"`
	Inputs         map[string]string `json:"inputs"`
}

// SubmitResponse reports the job record a submission resolved to.
type SubmitResponse struct {
	JobID     string `json:"job_id"`
	Key       string `json:"key"`
	Duplicate bool   `json:"duplicate"`
}

// SubmitJob creates a new generation job
// @Summary Submit a generation job
// @Description Registers a job under its idempotency key and enqueues it. Resubmitting a key returns the existing job.
// @Tags jobs
// @Accept json
// @Produce json
// @Param job body SubmitRequest true "Job submission"
// @Success 200 {object} SubmitResponse "Existing job for this key"
// @Success 202 {object} SubmitResponse "Job accepted"
// @Failure 400 {object} map[string]string "Invalid payload"
// @Router /jobs [post]
func (h *Handler) SubmitJob(w http.ResponseWriter, r *http.Request) {
	var req SubmitRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON payload")
		return
	}
	if req.Usecase == "" {
		req.Usecase = model.UsecaseArticle
	}

	job := model.GenerateJob{
		IdempotencyKey: req.IdempotencyKey,
		Usecase:        req.Usecase,
		Version:        req.Version,
		Inputs:         req.Inputs,
	}
	jobID, created, err := h.Pipeline.Submit(r.Context(), job)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if created && !h.Broker.Enqueue(job.IdempotencyKey) {
		// Queue full. Drop the record again so the key stays
		// submittable; answering 202 here would strand the job at
		// BRIEF with nothing left to dispatch it.
		if delErr := h.Store.Delete(r.Context(), job.IdempotencyKey); delErr != nil {
			h.Log.Error("roll back unqueued job", "key", job.IdempotencyKey, "error", delErr)
		}
		h.Log.Warn("job queue full, submission rejected", "key", job.IdempotencyKey)
		w.Header().Set("Retry-After", "1")
		writeError(w, http.StatusServiceUnavailable, "job queue is full, retry later")
		return
	}

	status := http.StatusOK
	if created {
		status = http.StatusAccepted
	}
	writeJSON(w, status, SubmitResponse{
		JobID:     jobID,
		Key:       job.IdempotencyKey,
		Duplicate: !created,
	})
}

// ListJobs lists all known jobs
// @Summary List jobs
// @Tags jobs
// @Produce json
// @Success 200 {array} model.JobState
// @Router /jobs [get]
func (h *Handler) ListJobs(w http.ResponseWriter, r *http.Request) {
	states, err := h.Store.List(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if states == nil {
		states = []*model.JobState{}
	}
	writeJSON(w, http.StatusOK, states)
}

// GetJob returns one job's full state
// @Summary Get job state
// @Tags jobs
// @Produce json
// @Param key path string true "Idempotency key"
// @Success 200 {object} model.JobState
// @Failure 404 {object} map[string]string
// @Router /jobs/{key} [get]
func (h *Handler) GetJob(w http.ResponseWriter, r *http.Request) {
	state, ok := h.loadJob(w, r, "")
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, state)
}

// GetJobMarkdown returns the rendered markdown document
// @Summary Get rendered markdown
// @Tags jobs
// @Produce plain
// @Param key path string true "Idempotency key"
// @Success 200 {string} string
// @Failure 404 {object} map[string]string
// @Router /jobs/{key}/markdown [get]
func (h *Handler) GetJobMarkdown(w http.ResponseWriter, r *http.Request) {
	state, ok := h.loadJob(w, r, "markdown")
	if !ok {
		return
	}
	if state.Markdown == "" {
		writeError(w, http.StatusNotFound, "markdown not rendered yet")
		return
	}
	w.Header().Set("Content-Type", "text/markdown; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(state.Markdown))
}

// GetJobQuality returns the QC verdict, quality metrics, and badge
// @Summary Get quality report
// @Tags jobs
// @Produce json
// @Param key path string true "Idempotency key"
// @Success 200 {object} map[string]interface{}
// @Failure 404 {object} map[string]string
// @Router /jobs/{key}/quality [get]
func (h *Handler) GetJobQuality(w http.ResponseWriter, r *http.Request) {
	state, ok := h.loadJob(w, r, "quality")
	if !ok {
		return
	}
	if state.QC == nil {
		writeError(w, http.StatusNotFound, "qc has not run yet")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"qc":      state.QC,
		"quality": state.Quality,
		"badge":   state.Badge,
	})
}

// CancelJob marks a job cancelled between stages
// @Summary Cancel a job
// @Description Best-effort: prevents the next stage dispatch, does not preempt an in-flight generation call.
// @Tags jobs
// @Produce json
// @Param key path string true "Idempotency key"
// @Success 202 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Router /jobs/{key}/cancel [post]
func (h *Handler) CancelJob(w http.ResponseWriter, r *http.Request) {
	key := pathSegment(r.URL.Path, 3)
	if key == "" {
		writeError(w, http.StatusBadRequest, "missing job key")
		return
	}
	if err := h.Pipeline.Cancel(r.Context(), key); err != nil {
		if errors.Is(err, ports.ErrNotFound) {
			writeError(w, http.StatusNotFound, "job not found")
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	h.Log.Info("job cancellation requested", "key", key)
	writeJSON(w, http.StatusAccepted, map[string]string{"key": key, "status": "cancelling"})
}

// ClassifyBadge classifies a claim's confidence and sources into a badge
// @Summary Classify a confidence badge
// @Tags badge
// @Produce json
// @Param confidence query number true "Confidence in [0,1]; clamped if outside"
// @Param sources query string false "Comma-separated source identifiers"
// @Success 200 {object} article.Badge
// @Router /badge [get]
func (h *Handler) ClassifyBadge(w http.ResponseWriter, r *http.Request) {
	confidence, err := strconv.ParseFloat(r.URL.Query().Get("confidence"), 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "confidence must be a number")
		return
	}
	var sources []string
	if raw := r.URL.Query().Get("sources"); raw != "" {
		for _, s := range strings.Split(raw, ",") {
			if s = strings.TrimSpace(s); s != "" {
				sources = append(sources, s)
			}
		}
	}
	writeJSON(w, http.StatusOK, article.Classify(confidence, sources))
}

// loadJob fetches the job addressed by the request path, writing the
// error response itself on failure. suffix names the trailing path
// segment after the key, if any.
func (h *Handler) loadJob(w http.ResponseWriter, r *http.Request, suffix string) (*model.JobState, bool) {
	key := pathSegment(r.URL.Path, 3)
	if key == "" || key == suffix {
		writeError(w, http.StatusBadRequest, "missing job key")
		return nil, false
	}
	state, err := h.Store.Get(r.Context(), key)
	if err != nil {
		if errors.Is(err, ports.ErrNotFound) {
			writeError(w, http.StatusNotFound, "job not found")
			return nil, false
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return nil, false
	}
	return state, true
}

// pathSegment returns the idx-th segment of the path ("/api/v1/jobs/KEY"
// puts the key at index 3).
func pathSegment(path string, idx int) string {
	segs := strings.Split(strings.Trim(path, "/"), "/")
	if idx >= len(segs) {
		return ""
	}
	return segs[idx]
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
