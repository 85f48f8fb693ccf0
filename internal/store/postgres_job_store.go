package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/clipwright/clipwright/internal/domain"
	_ "github.com/lib/pq"
)

const jobSchemaSQL = `
CREATE TABLE IF NOT EXISTS jobs (
	id TEXT PRIMARY KEY,
	topic TEXT NOT NULL,
	voice TEXT NOT NULL DEFAULT '',
	transition TEXT NOT NULL DEFAULT '',
	webhook_url TEXT NOT NULL DEFAULT '',
	status TEXT NOT NULL,
	failed_stage TEXT NOT NULL DEFAULT '',
	error_detail TEXT NOT NULL DEFAULT '',
	object_key TEXT NOT NULL DEFAULT '',
	duration_sec DOUBLE PRECISION NOT NULL DEFAULT 0,
	created_at TIMESTAMPTZ NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL
);

CREATE TABLE IF NOT EXISTS render_logs (
	id BIGSERIAL PRIMARY KEY,
	job_id TEXT NOT NULL REFERENCES jobs(id),
	seconds_rendered DOUBLE PRECISION NOT NULL,
	bytes_written BIGINT NOT NULL,
	assets_used INTEGER NOT NULL,
	compute_time_ms BIGINT NOT NULL,
	created_at TIMESTAMPTZ NOT NULL
);
`

type PostgresJobStore struct {
	db *sql.DB
}

func NewPostgresJobStore(ctx context.Context, dsn string) (*PostgresJobStore, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres connection: %w", err)
	}

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}

	store := &PostgresJobStore{db: db}
	if err := store.EnsureSchema(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}

	return store, nil
}

func (s *PostgresJobStore) EnsureSchema(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, jobSchemaSQL); err != nil {
		return fmt.Errorf("ensure schema: %w", err)
	}
	return nil
}

func (s *PostgresJobStore) Close() error {
	return s.db.Close()
}

func (s *PostgresJobStore) Create(ctx context.Context, job domain.Job) error {
	_, err := s.db.ExecContext(
		ctx,
		`INSERT INTO jobs (id, topic, voice, transition, webhook_url, status, failed_stage, error_detail, object_key, duration_sec, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`,
		job.ID,
		job.Topic,
		job.Voice,
		job.Transition,
		job.WebhookURL,
		job.Status,
		job.FailedStage,
		job.ErrorDetail,
		job.ObjectKey,
		job.DurationSec,
		job.CreatedAt,
		job.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert job: %w", err)
	}

	return nil
}

func (s *PostgresJobStore) Get(ctx context.Context, id string) (domain.Job, bool, error) {
	row := s.db.QueryRowContext(
		ctx,
		`SELECT id, topic, voice, transition, webhook_url, status, failed_stage, error_detail, object_key, duration_sec, created_at, updated_at
		 FROM jobs
		 WHERE id = $1`,
		id,
	)

	var job domain.Job
	if err := row.Scan(
		&job.ID,
		&job.Topic,
		&job.Voice,
		&job.Transition,
		&job.WebhookURL,
		&job.Status,
		&job.FailedStage,
		&job.ErrorDetail,
		&job.ObjectKey,
		&job.DurationSec,
		&job.CreatedAt,
		&job.UpdatedAt,
	); err != nil {
		if err == sql.ErrNoRows {
			return domain.Job{}, false, nil
		}
		return domain.Job{}, false, fmt.Errorf("query job: %w", err)
	}

	return job, true, nil
}

func (s *PostgresJobStore) UpdateStatus(ctx context.Context, id, status string) (domain.Job, error) {
	now := time.Now().UTC()
	_, err := s.db.ExecContext(
		ctx,
		`UPDATE jobs
		 SET status = $1, updated_at = $2
		 WHERE id = $3`,
		status,
		now,
		id,
	)
	if err != nil {
		return domain.Job{}, fmt.Errorf("update job status: %w", err)
	}

	job, ok, err := s.Get(ctx, id)
	if err != nil {
		return domain.Job{}, err
	}
	if !ok {
		return domain.Job{}, ErrJobNotFound
	}

	return job, nil
}

func (s *PostgresJobStore) MarkFailed(ctx context.Context, id, stage, detail string) error {
	res, err := s.db.ExecContext(
		ctx,
		`UPDATE jobs
		 SET status = $1, failed_stage = $2, error_detail = $3, updated_at = $4
		 WHERE id = $5`,
		domain.JobStatusFailed,
		stage,
		detail,
		time.Now().UTC(),
		id,
	)
	if err != nil {
		return fmt.Errorf("mark job failed: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrJobNotFound
	}
	return nil
}

func (s *PostgresJobStore) SetOutput(ctx context.Context, id, objectKey string, durationSec float64) error {
	res, err := s.db.ExecContext(
		ctx,
		`UPDATE jobs
		 SET object_key = $1, duration_sec = $2, updated_at = $3
		 WHERE id = $4`,
		objectKey,
		durationSec,
		time.Now().UTC(),
		id,
	)
	if err != nil {
		return fmt.Errorf("set job output: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrJobNotFound
	}
	return nil
}

func (s *PostgresJobStore) CreateRenderLog(ctx context.Context, entry domain.RenderLog) error {
	_, err := s.db.ExecContext(
		ctx,
		`INSERT INTO render_logs (job_id, seconds_rendered, bytes_written, assets_used, compute_time_ms, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		entry.JobID,
		entry.SecondsRendered,
		entry.BytesWritten,
		entry.AssetsUsed,
		entry.ComputeTimeMS,
		entry.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert render log: %w", err)
	}
	return nil
}
