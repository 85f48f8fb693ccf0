package voice

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/clipwright/clipwright/internal/config"
	"github.com/clipwright/clipwright/internal/domain"
)

// EdgeTTSEngine drives the edge-tts command-line tool, the free local
// synthesis backend. The binary must be on PATH (pip install edge-tts).
type EdgeTTSEngine struct {
	binary string
	voice  string
	prober durationProber
}

func NewEdgeTTSEngine(cfg config.VoiceConfig, binary string, prober durationProber) *EdgeTTSEngine {
	if strings.TrimSpace(binary) == "" {
		binary = "edge-tts"
	}
	return &EdgeTTSEngine{
		binary: binary,
		voice:  cfg.Voice,
		prober: prober,
	}
}

func (e *EdgeTTSEngine) Synthesize(ctx context.Context, script domain.Script, dir string) (domain.AudioTrack, error) {
	text := strings.TrimSpace(script.Narration)
	if text == "" {
		return domain.AudioTrack{}, fmt.Errorf("%w: script narration is empty", domain.ErrEmptyInput)
	}

	if _, err := exec.LookPath(e.binary); err != nil {
		return domain.AudioTrack{}, fmt.Errorf("%w: %s not found: %v", domain.ErrUpstream, e.binary, err)
	}

	outPath := filepath.Join(dir, "voiceover.mp3")
	cmd := exec.CommandContext(ctx, e.binary,
		"--voice", e.voice,
		"--text", text,
		"--write-media", outPath,
	)

	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		detail := strings.TrimSpace(stderr.String())
		if detail == "" {
			detail = err.Error()
		}
		return domain.AudioTrack{}, fmt.Errorf("%w: edge-tts failed: %s", domain.ErrUpstream, detail)
	}

	info, err := os.Stat(outPath)
	if err != nil {
		return domain.AudioTrack{}, fmt.Errorf("%w: edge-tts wrote no output: %v", domain.ErrUpstream, err)
	}
	if info.Size() < minAudioBytes {
		return domain.AudioTrack{}, fmt.Errorf("%w: edge-tts wrote %d bytes of audio", domain.ErrUpstream, info.Size())
	}

	dur, err := e.prober.Duration(ctx, outPath)
	if err != nil {
		return domain.AudioTrack{}, fmt.Errorf("measure voiceover duration: %w", err)
	}

	return domain.AudioTrack{Path: outPath, Duration: dur, Format: "mp3"}, nil
}
