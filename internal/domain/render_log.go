package domain

import "time"

// RenderLog is the per-job accounting record written after a successful
// render.
type RenderLog struct {
	JobID           string
	SecondsRendered float64
	BytesWritten    int64
	AssetsUsed      int
	ComputeTimeMS   int64
	CreatedAt       time.Time
}
