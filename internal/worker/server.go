package worker

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/clipwright/clipwright/internal/config"
	"github.com/clipwright/clipwright/internal/domain"
	"github.com/clipwright/clipwright/internal/pipeline"
	"github.com/clipwright/clipwright/internal/queue"
	"github.com/clipwright/clipwright/internal/store"
	"github.com/hibiken/asynq"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

type renderer interface {
	Run(ctx context.Context, job domain.Job) (pipeline.Result, error)
}

type webhookSender interface {
	Send(ctx context.Context, endpoint, event string, payload any) error
}

type Server struct {
	logger        *log.Logger
	server        *asynq.Server
	sem           chan struct{}
	renderer      renderer
	webhookClient webhookSender
	jobStore      store.JobStore
	renderLogs    store.RenderLogStore
	metrics       *metrics
	tracer        trace.Tracer
}

func NewServer(
	logger *log.Logger,
	queueCfg config.QueueConfig,
	workerCfg config.WorkerConfig,
	renderer renderer,
	webhookClient webhookSender,
	jobStore store.JobStore,
	renderLogs store.RenderLogStore,
) (*Server, error) {
	if renderer == nil {
		return nil, fmt.Errorf("renderer is required")
	}

	if renderLogs == nil {
		if logStore, ok := jobStore.(store.RenderLogStore); ok {
			renderLogs = logStore
		}
	}

	s := &Server{
		logger: logger,
		server: asynq.NewServer(
			queueCfg.RedisClientOpt(),
			asynq.Config{
				Concurrency: workerCfg.Concurrency,
				Queues: map[string]int{
					queueCfg.Name: 1,
				},
				LogLevel: asynq.InfoLevel,
				ErrorHandler: asynq.ErrorHandlerFunc(func(ctx context.Context, task *asynq.Task, err error) {
					retried, _ := asynq.GetRetryCount(ctx)
					maxRetry, _ := asynq.GetMaxRetry(ctx)
					logger.Printf("task failed type=%s retry=%d/%d err=%v", task.Type(), retried, maxRetry, err)
				}),
			},
		),
		sem:           make(chan struct{}, max(1, workerCfg.MaxActiveJobs)),
		renderer:      renderer,
		webhookClient: webhookClient,
		jobStore:      jobStore,
		renderLogs:    renderLogs,
		metrics:       newMetrics(),
		tracer:        otel.Tracer("clipwright/worker"),
	}
	return s, nil
}

func (s *Server) Run() error {
	mux := asynq.NewServeMux()
	mux.HandleFunc(queue.TypeRenderVideo, s.handleRenderVideo)
	return s.server.Run(mux)
}

func (s *Server) MetricsHandler() http.Handler {
	return s.metrics.Handler()
}

func (s *Server) handleRenderVideo(ctx context.Context, task *asynq.Task) error {
	startedAt := time.Now()
	outcome := domain.JobStatusFailed

	payload, err := queue.ParseRenderVideoPayload(task)
	if err != nil {
		return fmt.Errorf("parse payload: %v: %w", err, asynq.SkipRetry)
	}

	ctx, span := s.tracer.Start(ctx, "worker.render_video", trace.WithSpanKind(trace.SpanKindConsumer))
	span.SetAttributes(
		attribute.String("job.id", payload.JobID),
		attribute.String("job.topic", payload.Topic),
	)
	defer span.End()
	defer func() {
		s.metrics.jobDuration.WithLabelValues(outcome).Observe(time.Since(startedAt).Seconds())
		s.metrics.jobsTotal.WithLabelValues(outcome).Inc()
	}()

	// Asynq concurrency bounds goroutines; the semaphore bounds renders,
	// which are far heavier than anything else the worker does.
	s.sem <- struct{}{}
	s.metrics.activeJobs.Inc()
	defer func() {
		<-s.sem
		s.metrics.activeJobs.Dec()
	}()

	s.logger.Printf("rendering job_id=%s topic=%q", payload.JobID, payload.Topic)

	job := s.loadJob(ctx, payload)

	result, err := s.renderer.Run(ctx, job)
	if err != nil {
		stage := domain.FailedStage(err)
		s.metrics.stageFailures.WithLabelValues(stage).Inc()
		span.RecordError(err)
		span.SetStatus(codes.Error, "render failed")
		s.dispatchWebhook(ctx, payload, "job.failed", map[string]any{
			"job_id":       payload.JobID,
			"status":       domain.JobStatusFailed,
			"topic":        payload.Topic,
			"failed_stage": stage,
			"requested_at": payload.RequestedAt,
			"failed_at":    time.Now().UTC(),
			"error":        err.Error(),
		})
		if isPermanent(err) {
			return fmt.Errorf("run pipeline: %v: %w", err, asynq.SkipRetry)
		}
		return fmt.Errorf("run pipeline: %w", err)
	}

	objectKey := result.Video.Path
	if s.jobStore != nil {
		if err := s.jobStore.SetOutput(ctx, payload.JobID, objectKey, result.Video.Duration); err != nil {
			s.logger.Printf("record output failed job_id=%s err=%v", payload.JobID, err)
		}
		if _, err := s.jobStore.UpdateStatus(ctx, payload.JobID, domain.JobStatusSucceeded); err != nil {
			s.logger.Printf("job status update failed job_id=%s err=%v", payload.JobID, err)
		}
	}

	s.logger.Printf("rendered job_id=%s duration=%.2fs assets=%d", payload.JobID, result.Video.Duration, result.AssetsUsed)
	s.recordRender(ctx, payload.JobID, result, time.Since(startedAt))

	if err := s.dispatchWebhook(ctx, payload, "job.completed", map[string]any{
		"job_id":       payload.JobID,
		"status":       domain.JobStatusSucceeded,
		"topic":        payload.Topic,
		"object_key":   objectKey,
		"duration_sec": result.Video.Duration,
		"requested_at": payload.RequestedAt,
		"completed_at": time.Now().UTC(),
	}); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "webhook dispatch failed")
		return err
	}

	outcome = domain.JobStatusSucceeded
	span.SetStatus(codes.Ok, "rendered")
	return nil
}

// loadJob prefers the stored job so emitter keys and transitions follow what
// the API recorded; the payload is enough to render when the store is down.
func (s *Server) loadJob(ctx context.Context, payload queue.RenderVideoPayload) domain.Job {
	if s.jobStore != nil {
		job, ok, err := s.jobStore.Get(ctx, payload.JobID)
		if err != nil {
			s.logger.Printf("job lookup failed job_id=%s err=%v", payload.JobID, err)
		} else if ok {
			return job
		}
	}
	return domain.Job{
		ID:         payload.JobID,
		Topic:      payload.Topic,
		Voice:      payload.Voice,
		Transition: payload.Transition,
		WebhookURL: payload.WebhookURL,
		Status:     domain.JobStatusQueued,
	}
}

// Retrying cannot help when the model returned nothing usable or the stock
// provider had no footage for any scene.
func isPermanent(err error) bool {
	return errors.Is(err, domain.ErrEmptyInput) || errors.Is(err, domain.ErrInsufficientAssets)
}

func (s *Server) dispatchWebhook(ctx context.Context, payload queue.RenderVideoPayload, event string, body map[string]any) error {
	if payload.WebhookURL == "" || s.webhookClient == nil {
		return nil
	}

	if err := s.webhookClient.Send(ctx, payload.WebhookURL, event, body); err != nil {
		s.logger.Printf("webhook delivery failed job_id=%s event=%s err=%v", payload.JobID, event, err)
		return fmt.Errorf("dispatch webhook: %w", err)
	}

	return nil
}

func (s *Server) recordRender(ctx context.Context, jobID string, result pipeline.Result, computeDuration time.Duration) {
	if s.renderLogs == nil {
		return
	}

	computeTimeMS := computeDuration.Milliseconds()
	if computeTimeMS < 1 {
		computeTimeMS = 1
	}

	entry := domain.RenderLog{
		JobID:           jobID,
		SecondsRendered: result.Video.Duration,
		BytesWritten:    result.OutputBytes,
		AssetsUsed:      result.AssetsUsed,
		ComputeTimeMS:   computeTimeMS,
		CreatedAt:       time.Now().UTC(),
	}
	if err := s.renderLogs.CreateRenderLog(ctx, entry); err != nil {
		s.logger.Printf("render log write failed job_id=%s err=%v", jobID, err)
		return
	}

	s.metrics.secondsRenderedTotal.Add(result.Video.Duration)
	s.metrics.bytesWrittenTotal.Add(float64(result.OutputBytes))
	s.metrics.assetsUsedTotal.Add(float64(result.AssetsUsed))
	s.metrics.computeTimeMSTotal.Add(float64(computeTimeMS))
}
