package voice

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/clipwright/clipwright/internal/config"
	"github.com/clipwright/clipwright/internal/domain"
)

// ElevenLabsClient synthesizes narration through the ElevenLabs
// text-to-speech API.
type ElevenLabsClient struct {
	httpClient *http.Client
	apiKey     string
	baseURL    string
	voiceID    string
	prober     durationProber
}

func NewElevenLabsClient(cfg config.VoiceConfig, prober durationProber) *ElevenLabsClient {
	return &ElevenLabsClient{
		httpClient: &http.Client{Timeout: 2 * time.Minute},
		apiKey:     cfg.APIKey,
		baseURL:    strings.TrimSuffix(cfg.BaseURL, "/"),
		voiceID:    cfg.VoiceID,
		prober:     prober,
	}
}

type ttsRequest struct {
	Text          string        `json:"text"`
	ModelID       string        `json:"model_id"`
	VoiceSettings voiceSettings `json:"voice_settings"`
}

type voiceSettings struct {
	Stability       float64 `json:"stability"`
	SimilarityBoost float64 `json:"similarity_boost"`
}

func (c *ElevenLabsClient) Synthesize(ctx context.Context, script domain.Script, dir string) (domain.AudioTrack, error) {
	text := strings.TrimSpace(script.Narration)
	if text == "" {
		return domain.AudioTrack{}, fmt.Errorf("%w: script narration is empty", domain.ErrEmptyInput)
	}
	if c.apiKey == "" {
		return domain.AudioTrack{}, fmt.Errorf("%w: elevenlabs api key is not configured", domain.ErrUpstream)
	}

	body, err := json.Marshal(ttsRequest{
		Text:    text,
		ModelID: "eleven_monolingual_v1",
		VoiceSettings: voiceSettings{
			Stability:       0.5,
			SimilarityBoost: 0.5,
		},
	})
	if err != nil {
		return domain.AudioTrack{}, fmt.Errorf("marshal tts request: %w", err)
	}

	url := fmt.Sprintf("%s/v1/text-to-speech/%s", c.baseURL, c.voiceID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return domain.AudioTrack{}, fmt.Errorf("build tts request: %w", err)
	}
	req.Header.Set("Accept", "audio/mpeg")
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("xi-api-key", c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return domain.AudioTrack{}, fmt.Errorf("%w: elevenlabs request: %v", domain.ErrUpstream, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return domain.AudioTrack{}, fmt.Errorf("%w: elevenlabs returned status=%d: %s", domain.ErrUpstream, resp.StatusCode, strings.TrimSpace(string(detail)))
	}

	outPath := filepath.Join(dir, "voiceover.mp3")
	out, err := os.Create(outPath)
	if err != nil {
		return domain.AudioTrack{}, fmt.Errorf("create audio file: %w", err)
	}

	written, err := io.Copy(out, resp.Body)
	closeErr := out.Close()
	if err != nil {
		return domain.AudioTrack{}, fmt.Errorf("%w: stream audio body: %v", domain.ErrUpstream, err)
	}
	if closeErr != nil {
		return domain.AudioTrack{}, fmt.Errorf("close audio file: %w", closeErr)
	}
	if written < minAudioBytes {
		return domain.AudioTrack{}, fmt.Errorf("%w: elevenlabs returned %d bytes of audio", domain.ErrUpstream, written)
	}

	dur, err := c.prober.Duration(ctx, outPath)
	if err != nil {
		return domain.AudioTrack{}, fmt.Errorf("measure voiceover duration: %w", err)
	}

	return domain.AudioTrack{Path: outPath, Duration: dur, Format: "mp3"}, nil
}
