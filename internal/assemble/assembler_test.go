package assemble

import (
	"context"
	"errors"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/clipwright/clipwright/internal/domain"
)

type fakeEncoder struct {
	durations map[string]float64
	hasAudio  bool
	encodeErr error
	calls     [][]string
}

func (f *fakeEncoder) Encode(_ context.Context, args ...string) error {
	f.calls = append(f.calls, args)
	return f.encodeErr
}

func (f *fakeEncoder) Duration(_ context.Context, path string) (float64, error) {
	if d, ok := f.durations[filepath.Base(path)]; ok {
		return d, nil
	}
	return 0, errors.New("unknown file")
}

func (f *fakeEncoder) HasAudioStream(_ context.Context, _ string) (bool, error) {
	return f.hasAudio, nil
}

func testOptions() Options {
	return Options{
		Width:          1920,
		Height:         1080,
		FPS:            24,
		VideoBitrate:   "5000k",
		AudioBitrate:   "192k",
		Preset:         "medium",
		Transition:     domain.TransitionFade,
		TransitionSec:  0.5,
		DurationTolSec: 2.0,
	}
}

func testAssets() []domain.VisualAsset {
	return []domain.VisualAsset{
		{LocalPath: "/tmp/a.mp4", Kind: domain.AssetKindVideo, Duration: 8},
		{LocalPath: "/tmp/b.mp4", Kind: domain.AssetKindVideo, Duration: 8},
	}
}

func TestAssembleRendersFinalVideo(t *testing.T) {
	dir := t.TempDir()
	enc := &fakeEncoder{
		durations: map[string]float64{
			"a.mp4":      12,
			"b.mp4":      12,
			"joined.mp4": 15.5,
			"final.mp4":  15.4,
		},
		hasAudio: true,
	}
	a := New(enc, log.New(io.Discard, "", 0), testOptions())

	audio := domain.AudioTrack{Path: "/tmp/voiceover.mp3", Duration: 15.5, Format: "mp3"}
	video, err := a.Assemble(context.Background(), audio, testAssets(), dir)
	if err != nil {
		t.Fatalf("Assemble returned error: %v", err)
	}

	if video.Path != filepath.Join(dir, "final.mp4") {
		t.Fatalf("unexpected output path %q", video.Path)
	}
	if video.Width != 1920 || video.Height != 1080 {
		t.Fatalf("unexpected geometry %dx%d", video.Width, video.Height)
	}

	// two segment normalizations, one crossfade join, one mux
	if len(enc.calls) != 4 {
		t.Fatalf("expected 4 encoder invocations, got %d", len(enc.calls))
	}

	if _, err := os.Stat(filepath.Join(dir, "segments")); !os.IsNotExist(err) {
		t.Fatal("expected segments dir to be removed")
	}
}

func TestAssembleNoAssets(t *testing.T) {
	a := New(&fakeEncoder{}, log.New(io.Discard, "", 0), testOptions())

	_, err := a.Assemble(context.Background(), domain.AudioTrack{Duration: 10}, nil, t.TempDir())
	if !errors.Is(err, domain.ErrInsufficientAssets) {
		t.Fatalf("expected ErrInsufficientAssets, got %v", err)
	}
}

func TestAssembleDurationMismatch(t *testing.T) {
	enc := &fakeEncoder{
		durations: map[string]float64{
			"a.mp4":      12,
			"b.mp4":      12,
			"joined.mp4": 15.5,
			"final.mp4":  40,
		},
		hasAudio: true,
	}
	a := New(enc, log.New(io.Discard, "", 0), testOptions())

	audio := domain.AudioTrack{Path: "/tmp/voiceover.mp3", Duration: 15.5}
	_, err := a.Assemble(context.Background(), audio, testAssets(), t.TempDir())
	if !errors.Is(err, domain.ErrAssembly) {
		t.Fatalf("expected ErrAssembly for duration mismatch, got %v", err)
	}
}

func TestAssembleEncoderFailureCleansSegments(t *testing.T) {
	dir := t.TempDir()
	enc := &fakeEncoder{
		durations: map[string]float64{"a.mp4": 12, "b.mp4": 12},
		encodeErr: domain.ErrAssembly,
	}
	a := New(enc, log.New(io.Discard, "", 0), testOptions())

	audio := domain.AudioTrack{Path: "/tmp/voiceover.mp3", Duration: 15.5}
	_, err := a.Assemble(context.Background(), audio, testAssets(), dir)
	if !errors.Is(err, domain.ErrAssembly) {
		t.Fatalf("expected ErrAssembly, got %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, "segments")); !os.IsNotExist(err) {
		t.Fatal("expected segments dir to be removed after failure")
	}
}

func TestXfadeGraphOffsets(t *testing.T) {
	graph, out := xfadeGraph([]float64{8, 8, 8}, "fade", 0.5)

	if out != "[v2]" {
		t.Fatalf("unexpected output label %q", out)
	}
	if !strings.Contains(graph, "offset=7.500") {
		t.Fatalf("expected first offset 7.5, graph: %s", graph)
	}
	if !strings.Contains(graph, "offset=15.000") {
		t.Fatalf("expected second offset 15.0, graph: %s", graph)
	}
}

func TestSegmentArgsLoopsShortClips(t *testing.T) {
	opts := testOptions()
	asset := domain.VisualAsset{LocalPath: "/tmp/short.mp4", Kind: domain.AssetKindVideo}

	args := segmentArgs(asset, 3, 8, opts, "/tmp/out.mp4")
	joined := strings.Join(args, " ")
	if !strings.Contains(joined, "-stream_loop 3") {
		t.Fatalf("expected stream_loop for a short clip, args: %s", joined)
	}

	args = segmentArgs(asset, 12, 8, opts, "/tmp/out.mp4")
	joined = strings.Join(args, " ")
	if strings.Contains(joined, "-stream_loop") {
		t.Fatalf("expected no loop for a long clip, args: %s", joined)
	}
	if !strings.Contains(joined, "-t 8.000") {
		t.Fatalf("expected trim to scene duration, args: %s", joined)
	}
}

func TestSegmentArgsAnimatesImages(t *testing.T) {
	asset := domain.VisualAsset{LocalPath: "/tmp/still.jpg", Kind: domain.AssetKindImage}

	args := segmentArgs(asset, 0, 6, testOptions(), "/tmp/out.mp4")
	joined := strings.Join(args, " ")
	if !strings.Contains(joined, "-loop 1") {
		t.Fatalf("expected -loop 1 for still image, args: %s", joined)
	}
}

func TestMuxArgsAttachAudio(t *testing.T) {
	args := muxArgs("/tmp/video.mp4", "/tmp/voiceover.mp3", testOptions(), "/tmp/final.mp4")
	joined := strings.Join(args, " ")
	for _, want := range []string{"-c:a aac", "-b:a 192k", "-shortest", "+faststart"} {
		if !strings.Contains(joined, want) {
			t.Fatalf("expected %q in mux args: %s", want, joined)
		}
	}
}
