package scheduler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// NewRouter builds the gorilla/mux control surface described in §6.1:
// submit/status/cancel/worker_stats/scheduler_stats/health, plus a
// Prometheus scrape endpoint.
func NewRouter(s *Scheduler) *mux.Router {
	router := mux.NewRouter()

	api := router.PathPrefix("/tasks").Subrouter()
	api.HandleFunc("", s.handleSubmit).Methods(http.MethodPost)
	api.HandleFunc("/{id}", s.handleStatus).Methods(http.MethodGet)
	api.HandleFunc("/{id}/cancel", s.handleCancel).Methods(http.MethodPost)

	system := router.PathPrefix("/system").Subrouter()
	system.HandleFunc("/worker_stats", s.handleWorkerStats).Methods(http.MethodGet)
	system.HandleFunc("/scheduler_stats", s.handleSchedulerStats).Methods(http.MethodGet)
	system.HandleFunc("/health", s.handleHealth).Methods(http.MethodGet)
	system.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet)

	return router
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

type submitBody struct {
	Name     string  `json:"name"`
	Payload  Payload `json:"payload"`
	Priority string  `json:"priority"`
	// MaxRetries is a pointer so an absent field (use the scheduler's
	// default) is distinguishable from an explicit 0 (one attempt, no
	// retries).
	MaxRetries     *int `json:"max_retries"`
	TimeoutSeconds int  `json:"timeout_seconds"`
}

func (s *Scheduler) handleSubmit(w http.ResponseWriter, r *http.Request) {
	var body submitBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	priority := PriorityNormal
	if body.Priority != "" {
		p, ok := ParsePriority(body.Priority)
		if !ok {
			writeError(w, http.StatusBadRequest, ErrInvalidPriority)
			return
		}
		priority = p
	}

	maxRetries := -1 // unset: let Submit fall back to the scheduler default
	if body.MaxRetries != nil {
		maxRetries = *body.MaxRetries
	}

	id, err := s.Submit(SubmitRequest{
		Name:           body.Name,
		Payload:        body.Payload,
		Priority:       priority,
		MaxRetries:     maxRetries,
		TimeoutSeconds: body.TimeoutSeconds,
	})
	if err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	writeJSON(w, http.StatusAccepted, map[string]string{"task_id": id})
}

func (s *Scheduler) handleStatus(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	snap, err := s.Status(id)
	if err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

func (s *Scheduler) handleCancel(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	cancelled, err := s.Cancel(id)
	if err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"cancelled": cancelled})
}

func (s *Scheduler) handleWorkerStats(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.WorkerStats())
}

func (s *Scheduler) handleSchedulerStats(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.SchedulerStats())
}

func (s *Scheduler) handleHealth(w http.ResponseWriter, r *http.Request) {
	if !s.Healthy() {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "stopped"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrInvalidName), errors.Is(err, ErrInvalidPriority), errors.Is(err, ErrUnknownTaskKind):
		return http.StatusBadRequest
	case errors.Is(err, ErrQueueFull):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
