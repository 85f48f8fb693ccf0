package store

import (
	"context"
	"errors"

	"github.com/clipwright/clipwright/internal/domain"
)

var ErrJobNotFound = errors.New("job not found")

type JobStore interface {
	Create(ctx context.Context, job domain.Job) error
	Get(ctx context.Context, id string) (domain.Job, bool, error)
	UpdateStatus(ctx context.Context, id, status string) (domain.Job, error)
	MarkFailed(ctx context.Context, id, stage, detail string) error
	SetOutput(ctx context.Context, id, objectKey string, durationSec float64) error
}

type RenderLogStore interface {
	CreateRenderLog(ctx context.Context, entry domain.RenderLog) error
}
