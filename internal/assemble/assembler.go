package assemble

import (
	"context"
	"fmt"
	"log"
	"math"
	"os"
	"path/filepath"
	"strings"

	"github.com/clipwright/clipwright/internal/config"
	"github.com/clipwright/clipwright/internal/domain"
)

// Options fixes the output geometry and codec settings for every render.
type Options struct {
	Width          int
	Height         int
	FPS            int
	VideoBitrate   string
	AudioBitrate   string
	Preset         string
	Transition     string
	TransitionSec  float64
	DurationTolSec float64
}

func OptionsFromConfig(cfg config.RenderConfig, transition string) Options {
	if !domain.ValidTransition(transition) || transition == "" {
		transition = domain.TransitionFade
	}
	return Options{
		Width:          cfg.Width,
		Height:         cfg.Height,
		FPS:            cfg.FPS,
		VideoBitrate:   cfg.VideoBitrate,
		AudioBitrate:   cfg.AudioBitrate,
		Preset:         cfg.Preset,
		Transition:     strings.ToLower(strings.TrimSpace(transition)),
		TransitionSec:  cfg.TransitionSec,
		DurationTolSec: cfg.DurationTolSec,
	}
}

type encoder interface {
	Encode(ctx context.Context, args ...string) error
	Duration(ctx context.Context, path string) (float64, error)
	HasAudioStream(ctx context.Context, path string) (bool, error)
}

// Assembler lays the visual assets along the audio timeline and drives the
// external encoder to a single playable file. This is the CPU/IO-bound stage
// that dominates total pipeline latency.
type Assembler struct {
	runner encoder
	logger *log.Logger
	opts   Options
}

func New(runner encoder, logger *log.Logger, opts Options) *Assembler {
	return &Assembler{runner: runner, logger: logger, opts: opts}
}

// Assemble produces dir/final.mp4 from the audio track and the ordered
// assets. Intermediate segment files live under dir/segments and are removed
// whether assembly succeeds or fails.
func (a *Assembler) Assemble(ctx context.Context, audio domain.AudioTrack, assets []domain.VisualAsset, dir string) (domain.RenderedVideo, error) {
	if len(assets) == 0 {
		return domain.RenderedVideo{}, fmt.Errorf("%w: nothing to assemble", domain.ErrInsufficientAssets)
	}
	if audio.Duration <= 0 {
		return domain.RenderedVideo{}, fmt.Errorf("%w: audio track has no duration", domain.ErrEmptyInput)
	}

	segDir := filepath.Join(dir, "segments")
	if err := os.MkdirAll(segDir, 0o755); err != nil {
		return domain.RenderedVideo{}, fmt.Errorf("create segments dir: %w", err)
	}
	defer os.RemoveAll(segDir)

	segments, durations, err := a.normalizeSegments(ctx, assets, segDir)
	if err != nil {
		return domain.RenderedVideo{}, err
	}

	joined, err := a.join(ctx, segments, durations, segDir)
	if err != nil {
		return domain.RenderedVideo{}, err
	}

	fitted, err := a.fitToAudio(ctx, joined, audio.Duration, segDir)
	if err != nil {
		return domain.RenderedVideo{}, err
	}

	finalPath := filepath.Join(dir, "final.mp4")
	if err := a.runner.Encode(ctx, muxArgs(fitted, audio.Path, a.opts, finalPath)...); err != nil {
		return domain.RenderedVideo{}, fmt.Errorf("mux audio: %w", err)
	}

	return a.verify(ctx, finalPath, audio.Duration)
}

func (a *Assembler) normalizeSegments(ctx context.Context, assets []domain.VisualAsset, segDir string) ([]string, []float64, error) {
	segments := make([]string, 0, len(assets))
	durations := make([]float64, 0, len(assets))

	for i, asset := range assets {
		target := asset.Duration
		if target <= 0 {
			target = 5.0
		}

		srcDur := 0.0
		if asset.Kind != domain.AssetKindImage {
			d, err := a.runner.Duration(ctx, asset.LocalPath)
			if err != nil {
				// Assume the clip covers the scene; the trim below
				// makes the guess harmless.
				a.logger.Printf("could not probe segment source %s: %v", asset.LocalPath, err)
				d = target
			}
			srcDur = d
		}

		segPath := filepath.Join(segDir, fmt.Sprintf("segment_%03d.mp4", i))
		if err := a.runner.Encode(ctx, segmentArgs(asset, srcDur, target, a.opts, segPath)...); err != nil {
			return nil, nil, fmt.Errorf("normalize segment %d: %w", i, err)
		}

		segments = append(segments, segPath)
		durations = append(durations, target)
	}

	return segments, durations, nil
}

func (a *Assembler) join(ctx context.Context, segments []string, durations []float64, segDir string) (string, error) {
	joined := filepath.Join(segDir, "joined.mp4")

	if len(segments) == 1 {
		return segments[0], nil
	}

	if a.opts.Transition == domain.TransitionNone {
		listPath := filepath.Join(segDir, "concat_list.txt")
		if err := os.WriteFile(listPath, []byte(concatList(segments)), 0o644); err != nil {
			return "", fmt.Errorf("write concat list: %w", err)
		}
		if err := a.runner.Encode(ctx, concatArgs(listPath, joined)...); err != nil {
			return "", fmt.Errorf("concat segments: %w", err)
		}
		return joined, nil
	}

	if err := a.runner.Encode(ctx, xfadeArgs(segments, durations, a.opts.Transition, a.opts.TransitionSec, a.opts, joined)...); err != nil {
		return "", fmt.Errorf("crossfade segments: %w", err)
	}
	return joined, nil
}

// fitToAudio loops or trims the joined track so its length matches the
// narration before the mux.
func (a *Assembler) fitToAudio(ctx context.Context, videoPath string, audioDur float64, segDir string) (string, error) {
	videoDur, err := a.runner.Duration(ctx, videoPath)
	if err != nil {
		return "", fmt.Errorf("probe joined track: %w", err)
	}

	const slack = 0.25
	fitted := filepath.Join(segDir, "fitted.mp4")

	switch {
	case videoDur < audioDur-slack:
		a.logger.Printf("video track %.2fs shorter than audio %.2fs, looping", videoDur, audioDur)
		if err := a.runner.Encode(ctx, loopToDurationArgs(videoPath, videoDur, audioDur, a.opts, fitted)...); err != nil {
			return "", fmt.Errorf("loop video to audio length: %w", err)
		}
		return fitted, nil
	case videoDur > audioDur+slack:
		if err := a.runner.Encode(ctx, trimToDurationArgs(videoPath, audioDur, a.opts, fitted)...); err != nil {
			return "", fmt.Errorf("trim video to audio length: %w", err)
		}
		return fitted, nil
	default:
		return videoPath, nil
	}
}

func (a *Assembler) verify(ctx context.Context, finalPath string, audioDur float64) (domain.RenderedVideo, error) {
	finalDur, err := a.runner.Duration(ctx, finalPath)
	if err != nil {
		return domain.RenderedVideo{}, fmt.Errorf("probe final video: %w", err)
	}

	tol := a.opts.DurationTolSec
	if tol <= 0 {
		tol = 2.0
	}
	if math.Abs(finalDur-audioDur) > tol {
		return domain.RenderedVideo{}, fmt.Errorf(
			"%w: final duration %.2fs deviates from audio %.2fs beyond %.1fs tolerance",
			domain.ErrAssembly, finalDur, audioDur, tol,
		)
	}

	hasAudio, err := a.runner.HasAudioStream(ctx, finalPath)
	if err != nil {
		return domain.RenderedVideo{}, fmt.Errorf("verify audio stream: %w", err)
	}
	if !hasAudio {
		return domain.RenderedVideo{}, fmt.Errorf("%w: final video carries no audio stream", domain.ErrAssembly)
	}

	return domain.RenderedVideo{
		Path:     finalPath,
		Duration: finalDur,
		Width:    a.opts.Width,
		Height:   a.opts.Height,
	}, nil
}
