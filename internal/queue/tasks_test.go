package queue

import (
	"testing"
	"time"
)

func TestRenderVideoTaskRoundTrip(t *testing.T) {
	payload := RenderVideoPayload{
		JobID:       "job-123",
		Topic:       "the history of coffee",
		Voice:       "en-US-AriaNeural",
		Transition:  "fade",
		WebhookURL:  "https://example.com/hooks/clipwright",
		RequestedAt: time.Now().UTC(),
	}

	task, err := NewRenderVideoTask(payload)
	if err != nil {
		t.Fatalf("NewRenderVideoTask returned error: %v", err)
	}
	if task.Type() != TypeRenderVideo {
		t.Fatalf("expected task type %q, got %q", TypeRenderVideo, task.Type())
	}

	parsed, err := ParseRenderVideoPayload(task)
	if err != nil {
		t.Fatalf("ParseRenderVideoPayload returned error: %v", err)
	}

	if parsed.JobID != payload.JobID {
		t.Fatalf("expected job_id %q, got %q", payload.JobID, parsed.JobID)
	}
	if parsed.Topic != payload.Topic {
		t.Fatalf("expected topic %q, got %q", payload.Topic, parsed.Topic)
	}
	if parsed.Transition != "fade" {
		t.Fatalf("expected transition fade, got %q", parsed.Transition)
	}
}
