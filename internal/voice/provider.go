package voice

import (
	"context"

	"github.com/clipwright/clipwright/internal/domain"
)

// Provider synthesizes the script's narration into a single audio file under
// dir. The backend is fixed at construction from configuration; callers never
// pick one per request.
type Provider interface {
	Synthesize(ctx context.Context, script domain.Script, dir string) (domain.AudioTrack, error)
}

// durationProber is the slice of media.Runner the synthesizers need.
type durationProber interface {
	Duration(ctx context.Context, path string) (float64, error)
}

// A synthesized file smaller than this is treated as an upstream failure:
// some TTS backends report success while writing an empty or truncated file.
const minAudioBytes = 1024
