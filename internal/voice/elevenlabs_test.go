package voice

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/clipwright/clipwright/internal/config"
	"github.com/clipwright/clipwright/internal/domain"
)

type fixedProber struct {
	dur float64
	err error
}

func (p fixedProber) Duration(_ context.Context, _ string) (float64, error) {
	return p.dur, p.err
}

func testScript() domain.Script {
	return domain.Script{
		Title:     "History of Coffee",
		Narration: "Coffee began in Ethiopia. It conquered the world.",
		Scenes:    []domain.Scene{{Text: "Coffee began in Ethiopia.", SearchQuery: "coffee", Duration: 8}},
	}
}

func TestSynthesizeWritesAudio(t *testing.T) {
	audio := bytes.Repeat([]byte{0xff}, 4096)
	var gotKey string

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotKey = r.Header.Get("xi-api-key")
		w.Write(audio)
	}))
	defer srv.Close()

	client := NewElevenLabsClient(config.VoiceConfig{
		APIKey:  "el-key",
		BaseURL: srv.URL,
		VoiceID: "test-voice",
	}, fixedProber{dur: 55})

	track, err := client.Synthesize(context.Background(), testScript(), t.TempDir())
	if err != nil {
		t.Fatalf("Synthesize returned error: %v", err)
	}
	if gotKey != "el-key" {
		t.Fatalf("expected api key header, got %q", gotKey)
	}
	if track.Duration != 55 {
		t.Fatalf("expected duration 55, got %f", track.Duration)
	}
	if track.Format != "mp3" {
		t.Fatalf("expected mp3 format, got %q", track.Format)
	}
}

func TestSynthesizeEmptyScript(t *testing.T) {
	called := false
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))
	defer srv.Close()

	client := NewElevenLabsClient(config.VoiceConfig{
		APIKey:  "el-key",
		BaseURL: srv.URL,
		VoiceID: "test-voice",
	}, fixedProber{})

	_, err := client.Synthesize(context.Background(), domain.Script{}, t.TempDir())
	if !errors.Is(err, domain.ErrEmptyInput) {
		t.Fatalf("expected ErrEmptyInput, got %v", err)
	}
	if called {
		t.Fatal("expected no TTS call for an empty script")
	}
}

func TestSynthesizeUpstreamStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "invalid api key", http.StatusUnauthorized)
	}))
	defer srv.Close()

	client := NewElevenLabsClient(config.VoiceConfig{
		APIKey:  "bad",
		BaseURL: srv.URL,
		VoiceID: "test-voice",
	}, fixedProber{})

	_, err := client.Synthesize(context.Background(), testScript(), t.TempDir())
	if !errors.Is(err, domain.ErrUpstream) {
		t.Fatalf("expected ErrUpstream, got %v", err)
	}
}

func TestSynthesizeTinyResponseIsUpstreamFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("oops"))
	}))
	defer srv.Close()

	client := NewElevenLabsClient(config.VoiceConfig{
		APIKey:  "el-key",
		BaseURL: srv.URL,
		VoiceID: "test-voice",
	}, fixedProber{})

	_, err := client.Synthesize(context.Background(), testScript(), t.TempDir())
	if !errors.Is(err, domain.ErrUpstream) {
		t.Fatalf("expected ErrUpstream for tiny audio body, got %v", err)
	}
}
