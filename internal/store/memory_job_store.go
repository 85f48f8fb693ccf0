package store

import (
	"context"
	"sync"
	"time"

	"github.com/clipwright/clipwright/internal/domain"
)

// MemoryJobStore keeps jobs in process memory. Used by the CLI and by tests;
// the API and worker run on Postgres in production.
type MemoryJobStore struct {
	mu   sync.RWMutex
	jobs map[string]domain.Job
	logs []domain.RenderLog
}

func NewMemoryJobStore() *MemoryJobStore {
	return &MemoryJobStore{
		jobs: make(map[string]domain.Job),
	}
}

func (s *MemoryJobStore) Create(_ context.Context, job domain.Job) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.jobs[job.ID] = job
	return nil
}

func (s *MemoryJobStore) Get(_ context.Context, id string) (domain.Job, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	job, ok := s.jobs[id]
	return job, ok, nil
}

func (s *MemoryJobStore) UpdateStatus(_ context.Context, id, status string) (domain.Job, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	job, ok := s.jobs[id]
	if !ok {
		return domain.Job{}, ErrJobNotFound
	}

	job.Status = status
	job.UpdatedAt = time.Now().UTC()
	s.jobs[id] = job
	return job, nil
}

func (s *MemoryJobStore) MarkFailed(_ context.Context, id, stage, detail string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	job, ok := s.jobs[id]
	if !ok {
		return ErrJobNotFound
	}

	job.Status = domain.JobStatusFailed
	job.FailedStage = stage
	job.ErrorDetail = detail
	job.UpdatedAt = time.Now().UTC()
	s.jobs[id] = job
	return nil
}

func (s *MemoryJobStore) SetOutput(_ context.Context, id, objectKey string, durationSec float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	job, ok := s.jobs[id]
	if !ok {
		return ErrJobNotFound
	}

	job.ObjectKey = objectKey
	job.DurationSec = durationSec
	job.UpdatedAt = time.Now().UTC()
	s.jobs[id] = job
	return nil
}

func (s *MemoryJobStore) CreateRenderLog(_ context.Context, entry domain.RenderLog) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.logs = append(s.logs, entry)
	return nil
}

// RenderLogs returns a copy of the recorded render logs.
func (s *MemoryJobStore) RenderLogs() []domain.RenderLog {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.RenderLog, len(s.logs))
	copy(out, s.logs)
	return out
}
