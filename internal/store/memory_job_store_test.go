package store

import (
	"context"
	"errors"
	"testing"

	"github.com/clipwright/clipwright/internal/domain"
)

func TestMemoryJobStoreLifecycle(t *testing.T) {
	s := NewMemoryJobStore()
	ctx := context.Background()

	if err := s.Create(ctx, domain.Job{ID: "j1", Topic: "coffee", Status: domain.JobStatusPending}); err != nil {
		t.Fatalf("Create: %v", err)
	}

	job, err := s.UpdateStatus(ctx, "j1", domain.JobStatusRunning)
	if err != nil {
		t.Fatalf("UpdateStatus: %v", err)
	}
	if job.Status != domain.JobStatusRunning {
		t.Fatalf("status = %s", job.Status)
	}
	if job.UpdatedAt.IsZero() {
		t.Fatal("UpdatedAt not set")
	}

	if err := s.SetOutput(ctx, "j1", "outputs/j1/video.mp4", 31.5); err != nil {
		t.Fatalf("SetOutput: %v", err)
	}
	job, ok, err := s.Get(ctx, "j1")
	if err != nil || !ok {
		t.Fatalf("Get: ok=%v err=%v", ok, err)
	}
	if job.ObjectKey != "outputs/j1/video.mp4" || job.DurationSec != 31.5 {
		t.Fatalf("output not recorded: %+v", job)
	}
}

func TestMemoryJobStoreMarkFailed(t *testing.T) {
	s := NewMemoryJobStore()
	ctx := context.Background()

	if err := s.MarkFailed(ctx, "missing", domain.StageVoice, "boom"); !errors.Is(err, ErrJobNotFound) {
		t.Fatalf("err = %v, want ErrJobNotFound", err)
	}

	_ = s.Create(ctx, domain.Job{ID: "j2", Status: domain.JobStatusRunning})
	if err := s.MarkFailed(ctx, "j2", domain.StageVoice, "synthesis rejected"); err != nil {
		t.Fatalf("MarkFailed: %v", err)
	}
	job, _, _ := s.Get(ctx, "j2")
	if job.Status != domain.JobStatusFailed || job.FailedStage != domain.StageVoice || job.ErrorDetail != "synthesis rejected" {
		t.Fatalf("failure not recorded: %+v", job)
	}
}
