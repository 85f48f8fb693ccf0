package script

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/clipwright/clipwright/internal/config"
	"github.com/clipwright/clipwright/internal/domain"
)

func newTestClient(baseURL string) *GroqClient {
	return NewGroqClient(config.ScriptConfig{
		APIKey:     "test-key",
		BaseURL:    baseURL,
		Model:      "llama-test",
		MaxTokens:  1500,
		SceneCount: 5,
	})
}

func chatReply(content string) string {
	payload := map[string]any{
		"choices": []map[string]any{
			{"message": map[string]string{"content": content}},
		},
	}
	body, _ := json.Marshal(payload)
	return string(body)
}

func TestGenerateParsesScript(t *testing.T) {
	scriptJSON := `{"title":"History of Coffee","script":"Coffee began in Ethiopia. It conquered the world.","scenes":[
		{"duration":8,"description":"coffee beans roasting","text":"Coffee began in Ethiopia."},
		{"duration":8,"description":"busy cafe","text":"It conquered the world."}
	]}`

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Bearer test-key" {
			t.Errorf("unexpected auth header %q", got)
		}
		w.Write([]byte(chatReply("```json\n" + scriptJSON + "\n```")))
	}))
	defer srv.Close()

	got, err := newTestClient(srv.URL).Generate(context.Background(), "history of coffee")
	if err != nil {
		t.Fatalf("Generate returned error: %v", err)
	}
	if got.Title != "History of Coffee" {
		t.Fatalf("unexpected title %q", got.Title)
	}
	if len(got.Scenes) != 2 {
		t.Fatalf("expected 2 scenes, got %d", len(got.Scenes))
	}
	if got.Scenes[0].SearchQuery != "coffee beans roasting" {
		t.Fatalf("unexpected search query %q", got.Scenes[0].SearchQuery)
	}
}

func TestGenerateEmptyContentIsEmptyInput(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(chatReply(`{"title":"","script":"","scenes":[]}`)))
	}))
	defer srv.Close()

	_, err := newTestClient(srv.URL).Generate(context.Background(), "history of coffee")
	if !errors.Is(err, domain.ErrEmptyInput) {
		t.Fatalf("expected ErrEmptyInput, got %v", err)
	}
}

func TestGenerateUpstreamFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "quota exceeded", http.StatusTooManyRequests)
	}))
	defer srv.Close()

	_, err := newTestClient(srv.URL).Generate(context.Background(), "history of coffee")
	if !errors.Is(err, domain.ErrUpstream) {
		t.Fatalf("expected ErrUpstream, got %v", err)
	}
}

func TestGenerateMissingKey(t *testing.T) {
	client := NewGroqClient(config.ScriptConfig{BaseURL: "http://localhost:0"})
	_, err := client.Generate(context.Background(), "history of coffee")
	if !errors.Is(err, domain.ErrUpstream) {
		t.Fatalf("expected ErrUpstream for missing key, got %v", err)
	}
}

func TestNormalizeClampsDurations(t *testing.T) {
	raw := domain.Script{
		Scenes: []domain.Scene{
			{Text: "a", Duration: 1},
			{Text: "b", Duration: 30},
			{Text: "c"},
			{Text: "   "},
		},
	}

	got := normalize(raw, "topic")
	if len(got.Scenes) != 3 {
		t.Fatalf("expected blank scene dropped, got %d scenes", len(got.Scenes))
	}
	if got.Scenes[0].Duration != minSceneSec {
		t.Fatalf("expected clamp to %f, got %f", minSceneSec, got.Scenes[0].Duration)
	}
	if got.Scenes[1].Duration != maxSceneSec {
		t.Fatalf("expected clamp to %f, got %f", maxSceneSec, got.Scenes[1].Duration)
	}
	if got.Scenes[2].Duration != defaultSceneSec {
		t.Fatalf("expected default %f, got %f", defaultSceneSec, got.Scenes[2].Duration)
	}
	if got.Scenes[2].SearchQuery != "topic" {
		t.Fatalf("expected topic fallback query, got %q", got.Scenes[2].SearchQuery)
	}
	if got.Narration == "" {
		t.Fatal("expected narration assembled from scene texts")
	}
}
