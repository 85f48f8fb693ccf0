package media

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
	"syscall"

	"github.com/clipwright/clipwright/internal/domain"
)

// Runner shells out to ffmpeg and ffprobe. Composition and encoding live in
// the external binary; this wrapper only builds invocations and classifies
// their failures.
type Runner struct {
	ffmpeg  string
	ffprobe string
}

func NewRunner(ffmpegPath, ffprobePath string) *Runner {
	if strings.TrimSpace(ffmpegPath) == "" {
		ffmpegPath = "ffmpeg"
	}
	if strings.TrimSpace(ffprobePath) == "" {
		ffprobePath = "ffprobe"
	}
	return &Runner{ffmpeg: ffmpegPath, ffprobe: ffprobePath}
}

// Encode runs one ffmpeg invocation. Failures surface as ErrAssembly, or
// ErrResource when the encoder died from disk/memory exhaustion.
func (r *Runner) Encode(ctx context.Context, args ...string) error {
	full := append([]string{"-hide_banner", "-loglevel", "error", "-y"}, args...)
	cmd := exec.CommandContext(ctx, r.ffmpeg, full...)

	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return classifyEncodeError(err, stderr.String())
	}
	return nil
}

// Duration reports a media file's duration in seconds via ffprobe.
func (r *Runner) Duration(ctx context.Context, path string) (float64, error) {
	cmd := exec.CommandContext(ctx, r.ffprobe,
		"-v", "error",
		"-show_entries", "format=duration",
		"-of", "default=noprint_wrappers=1:nokey=1",
		path,
	)
	out, err := cmd.Output()
	if err != nil {
		return 0, fmt.Errorf("probe duration of %s: %w", path, err)
	}

	dur, err := strconv.ParseFloat(strings.TrimSpace(string(out)), 64)
	if err != nil {
		return 0, fmt.Errorf("parse duration of %s: %w", path, err)
	}
	return dur, nil
}

// HasAudioStream reports whether the file carries at least one audio stream.
// Used to verify the final mux actually attached the narration.
func (r *Runner) HasAudioStream(ctx context.Context, path string) (bool, error) {
	cmd := exec.CommandContext(ctx, r.ffprobe,
		"-v", "error",
		"-select_streams", "a:0",
		"-show_entries", "stream=codec_name",
		"-of", "default=noprint_wrappers=1:nokey=1",
		path,
	)
	out, err := cmd.Output()
	if err != nil {
		return false, fmt.Errorf("probe audio stream of %s: %w", path, err)
	}
	return strings.TrimSpace(string(out)) != "", nil
}

func classifyEncodeError(err error, stderr string) error {
	tail := stderrTail(stderr, 500)

	if errors.Is(err, syscall.ENOSPC) || exhaustedResources(stderr) {
		return fmt.Errorf("%w: encoder failed: %s", domain.ErrResource, tail)
	}
	if tail == "" {
		return fmt.Errorf("%w: %v", domain.ErrAssembly, err)
	}
	return fmt.Errorf("%w: %s", domain.ErrAssembly, tail)
}

func exhaustedResources(stderr string) bool {
	for _, marker := range []string{
		"No space left on device",
		"Cannot allocate memory",
		"out of memory",
	} {
		if strings.Contains(stderr, marker) {
			return true
		}
	}
	return false
}

func stderrTail(s string, n int) string {
	s = strings.TrimSpace(s)
	if len(s) <= n {
		return s
	}
	return s[len(s)-n:]
}
