package script

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/clipwright/clipwright/internal/config"
	"github.com/clipwright/clipwright/internal/domain"
)

const systemPrompt = `You are a professional YouTube script writer. Always respond with ONLY valid JSON, no preamble and no markdown.

The JSON must have this structure:
{
  "title": "Video Title",
  "script": "Full narration script...",
  "scenes": [
    {"duration": 8, "description": "stock footage search phrase", "text": "Narration for this scene"}
  ]
}

Each scene should be 6-10 seconds. Make it engaging and educational.`

const (
	minSceneSec     = 4.0
	maxSceneSec     = 12.0
	defaultSceneSec = 8.0
)

// GroqClient generates scripts through Groq's OpenAI-compatible
// chat-completions endpoint.
type GroqClient struct {
	httpClient  *http.Client
	apiKey      string
	baseURL     string
	model       string
	temperature float64
	maxTokens   int
	sceneCount  int
}

func NewGroqClient(cfg config.ScriptConfig) *GroqClient {
	return &GroqClient{
		httpClient:  &http.Client{Timeout: 60 * time.Second},
		apiKey:      cfg.APIKey,
		baseURL:     strings.TrimSuffix(cfg.BaseURL, "/"),
		model:       cfg.Model,
		temperature: cfg.Temperature,
		maxTokens:   cfg.MaxTokens,
		sceneCount:  cfg.SceneCount,
	}
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
	MaxTokens   int           `json:"max_tokens"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error"`
}

func (c *GroqClient) Generate(ctx context.Context, topic string) (domain.Script, error) {
	topic = strings.TrimSpace(topic)
	if topic == "" {
		return domain.Script{}, fmt.Errorf("%w: topic is empty", domain.ErrEmptyInput)
	}
	if c.apiKey == "" {
		return domain.Script{}, fmt.Errorf("%w: groq api key is not configured", domain.ErrUpstream)
	}

	body, err := json.Marshal(chatRequest{
		Model: c.model,
		Messages: []chatMessage{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: c.userPrompt(topic)},
		},
		Temperature: c.temperature,
		MaxTokens:   c.maxTokens,
	})
	if err != nil {
		return domain.Script{}, fmt.Errorf("marshal chat request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return domain.Script{}, fmt.Errorf("build chat request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return domain.Script{}, fmt.Errorf("%w: groq request: %v", domain.ErrUpstream, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return domain.Script{}, fmt.Errorf("%w: read groq response: %v", domain.ErrUpstream, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return domain.Script{}, fmt.Errorf("%w: groq returned status=%d", domain.ErrUpstream, resp.StatusCode)
	}

	var chat chatResponse
	if err := json.Unmarshal(respBody, &chat); err != nil {
		return domain.Script{}, fmt.Errorf("%w: parse groq response: %v", domain.ErrUpstream, err)
	}
	if chat.Error != nil {
		return domain.Script{}, fmt.Errorf("%w: groq error: %s", domain.ErrUpstream, chat.Error.Message)
	}
	if len(chat.Choices) == 0 {
		return domain.Script{}, fmt.Errorf("%w: groq returned no choices", domain.ErrUpstream)
	}

	content := cleanJSON(chat.Choices[0].Message.Content)
	if content == "" {
		return domain.Script{}, fmt.Errorf("%w: model returned empty content", domain.ErrEmptyInput)
	}

	var raw domain.Script
	if err := json.Unmarshal([]byte(content), &raw); err != nil {
		return domain.Script{}, fmt.Errorf("%w: unusable script payload: %v", domain.ErrUpstream, err)
	}

	script := normalize(raw, topic)
	if script.Empty() {
		return domain.Script{}, fmt.Errorf("%w: model returned no usable narration", domain.ErrEmptyInput)
	}
	return script, nil
}

func (c *GroqClient) userPrompt(topic string) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Create a 45-60 second video script about: %s\n\n", topic)
	fmt.Fprintf(&sb, "Include %d scenes. ", c.sceneCount)
	sb.WriteString("Each scene's description must be a short stock-footage search phrase. ")
	sb.WriteString("Respond ONLY with valid JSON. No markdown. No explanation.")
	return sb.String()
}

// normalize drops unusable scenes, clamps durations, and fills in the
// narration and search queries the model left blank.
func normalize(raw domain.Script, topic string) domain.Script {
	out := domain.Script{
		Title:     strings.TrimSpace(raw.Title),
		Narration: strings.TrimSpace(raw.Narration),
	}
	if out.Title == "" {
		out.Title = topic
	}

	for _, scene := range raw.Scenes {
		text := strings.TrimSpace(scene.Text)
		if text == "" {
			continue
		}
		query := strings.TrimSpace(scene.SearchQuery)
		if query == "" {
			query = topic
		}
		dur := scene.Duration
		if dur <= 0 {
			dur = defaultSceneSec
		}
		if dur < minSceneSec {
			dur = minSceneSec
		}
		if dur > maxSceneSec {
			dur = maxSceneSec
		}
		out.Scenes = append(out.Scenes, domain.Scene{
			Text:        text,
			SearchQuery: query,
			Duration:    dur,
		})
	}

	if out.Narration == "" && len(out.Scenes) > 0 {
		parts := make([]string, 0, len(out.Scenes))
		for _, scene := range out.Scenes {
			parts = append(parts, scene.Text)
		}
		out.Narration = strings.Join(parts, " ")
	}
	return out
}

// cleanJSON strips markdown fences if the model wraps its response in
// ```json ... ```.
func cleanJSON(s string) string {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}
