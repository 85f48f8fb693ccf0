package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/clipwright/clipwright/internal/domain"
	"github.com/clipwright/clipwright/internal/id"
	"github.com/clipwright/clipwright/internal/queue"
	"github.com/clipwright/clipwright/internal/store"
	"github.com/hibiken/asynq"
	"go.opentelemetry.io/otel/trace"
)

type Server struct {
	logger                *log.Logger
	queueClient           queueEnqueuer
	jobStore              store.JobStore
	storage               objectStorage
	rateLimiter           RateLimiter
	rateLimitUserIDHeader string
	metrics               *metrics
	tracer                trace.Tracer
	presignTTL            time.Duration
	mux                   *http.ServeMux
}

type queueEnqueuer interface {
	EnqueueRenderVideo(ctx context.Context, payload queue.RenderVideoPayload) (*asynq.TaskInfo, error)
}

type objectStorage interface {
	PresignedGetURL(ctx context.Context, objectKey string, expiry time.Duration) (string, error)
	ObjectExists(ctx context.Context, objectKey string) (bool, error)
}

// Option tweaks optional server collaborators.
type Option func(*Server)

func WithRateLimiter(limiter RateLimiter) Option {
	return func(s *Server) { s.rateLimiter = limiter }
}

func WithTracer(tracer trace.Tracer) Option {
	return func(s *Server) { s.tracer = tracer }
}

func NewServer(logger *log.Logger, queueClient queueEnqueuer, jobStore store.JobStore, storage objectStorage, presignTTL time.Duration, opts ...Option) *Server {
	if presignTTL <= 0 {
		presignTTL = 15 * time.Minute
	}
	if storage == nil {
		storage = unavailableObjectStorage{}
	}

	s := &Server{
		logger:                logger,
		queueClient:           queueClient,
		jobStore:              jobStore,
		storage:               storage,
		rateLimitUserIDHeader: "X-User-ID",
		metrics:               newMetrics(),
		presignTTL:            presignTTL,
		mux:                   http.NewServeMux(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.routes()
	return s
}

type unavailableObjectStorage struct{}

func (unavailableObjectStorage) PresignedGetURL(_ context.Context, _ string, _ time.Duration) (string, error) {
	return "", errors.New("object storage is unavailable")
}

func (unavailableObjectStorage) ObjectExists(_ context.Context, _ string) (bool, error) {
	return false, errors.New("object storage is unavailable")
}

func (s *Server) Handler() http.Handler {
	return s.withTracing(s.withRateLimit(s.metrics.withHTTPMetrics(s.mux)))
}

func (s *Server) routes() {
	s.mux.HandleFunc("GET /healthz", s.handleHealthz)
	s.mux.Handle("GET /metrics", s.metrics.metricsHandler())
	s.mux.HandleFunc("POST /v1/jobs", s.handleCreateJob)
	s.mux.HandleFunc("GET /v1/jobs/{id}", s.handleGetJob)
	s.mux.HandleFunc("GET /v1/jobs/{id}/download", s.handleDownload)
}

func (s *Server) handleHealthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleCreateJob(w http.ResponseWriter, r *http.Request) {
	var req domain.CreateJobRequest
	if err := decodeJSON(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	if err := req.Validate(); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	now := time.Now().UTC()
	job := domain.Job{
		ID:         id.New(),
		Topic:      strings.TrimSpace(req.Topic),
		Voice:      strings.TrimSpace(req.Voice),
		Transition: strings.ToLower(strings.TrimSpace(req.Transition)),
		WebhookURL: req.WebhookURL,
		Status:     domain.JobStatusPending,
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	if err := s.jobStore.Create(r.Context(), job); err != nil {
		s.logger.Printf("create job failed for job %s: %v", job.ID, err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to create job"})
		return
	}

	payload := queue.RenderVideoPayload{
		JobID:       job.ID,
		Topic:       job.Topic,
		Voice:       job.Voice,
		Transition:  job.Transition,
		WebhookURL:  job.WebhookURL,
		RequestedAt: now,
	}

	taskInfo, err := s.queueClient.EnqueueRenderVideo(r.Context(), payload)
	if err != nil {
		s.logger.Printf("enqueue failed for job %s: %v", job.ID, err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to enqueue job"})
		return
	}

	if _, err := s.jobStore.UpdateStatus(r.Context(), job.ID, domain.JobStatusQueued); err != nil {
		s.logger.Printf("update status failed for job %s: %v", job.ID, err)
	}
	s.metrics.queueEnqueued.WithLabelValues(taskInfo.Queue).Inc()

	writeJSON(w, http.StatusAccepted, map[string]any{
		"job_id":     job.ID,
		"status":     domain.JobStatusQueued,
		"queue":      taskInfo.Queue,
		"task_id":    taskInfo.ID,
		"status_url": fmt.Sprintf("/v1/jobs/%s", job.ID),
	})
}

func (s *Server) handleGetJob(w http.ResponseWriter, r *http.Request) {
	jobID := r.PathValue("id")

	job, ok, err := s.jobStore.Get(r.Context(), jobID)
	if err != nil {
		s.logger.Printf("fetch job failed for job %s: %v", jobID, err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to load job"})
		return
	}
	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "job not found"})
		return
	}

	writeJSON(w, http.StatusOK, jobView(job))
}

func (s *Server) handleDownload(w http.ResponseWriter, r *http.Request) {
	jobID := r.PathValue("id")

	job, ok, err := s.jobStore.Get(r.Context(), jobID)
	if err != nil {
		s.logger.Printf("fetch job failed for job %s: %v", jobID, err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to load job"})
		return
	}
	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "job not found"})
		return
	}
	if job.Status != domain.JobStatusSucceeded || job.ObjectKey == "" {
		writeJSON(w, http.StatusConflict, map[string]string{"error": fmt.Sprintf("video is not ready, job status is %s", job.Status)})
		return
	}

	exists, err := s.storage.ObjectExists(r.Context(), job.ObjectKey)
	if err != nil {
		s.logger.Printf("object check failed for job %s: %v", jobID, err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to locate video"})
		return
	}
	if !exists {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "rendered video is missing"})
		return
	}

	url, err := s.storage.PresignedGetURL(r.Context(), job.ObjectKey, s.presignTTL)
	if err != nil {
		s.logger.Printf("generate download url failed for job %s: %v", jobID, err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to generate download URL"})
		return
	}

	http.Redirect(w, r, url, http.StatusFound)
}

func jobView(job domain.Job) map[string]any {
	view := map[string]any{
		"job_id":     job.ID,
		"topic":      job.Topic,
		"status":     job.Status,
		"created_at": job.CreatedAt,
		"updated_at": job.UpdatedAt,
	}
	if job.Voice != "" {
		view["voice"] = job.Voice
	}
	if job.Transition != "" {
		view["transition"] = job.Transition
	}
	if job.Status == domain.JobStatusFailed {
		view["failed_stage"] = job.FailedStage
		view["error"] = job.ErrorDetail
	}
	if job.Status == domain.JobStatusSucceeded {
		view["duration_sec"] = job.DurationSec
		view["download_url"] = fmt.Sprintf("/v1/jobs/%s/download", job.ID)
	}
	return view
}

func decodeJSON(r *http.Request, into any) error {
	const maxBodyBytes = 1 << 20
	limited := io.LimitReader(r.Body, maxBodyBytes)
	decoder := json.NewDecoder(limited)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(into); err != nil {
		return fmt.Errorf("invalid JSON body: %w", err)
	}
	if err := decoder.Decode(&struct{}{}); err != io.EOF {
		return errors.New("invalid JSON body: multiple JSON values are not allowed")
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}
