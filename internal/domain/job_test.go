package domain

import (
	"errors"
	"fmt"
	"testing"
)

func TestCreateJobRequestValidate(t *testing.T) {
	valid := CreateJobRequest{
		Topic:      "history of coffee",
		Transition: TransitionFade,
	}
	if err := valid.Validate(); err != nil {
		t.Fatalf("expected valid request, got error: %v", err)
	}

	empty := CreateJobRequest{}
	if err := empty.Validate(); err == nil {
		t.Fatal("expected validation error for empty topic")
	}

	blank := CreateJobRequest{Topic: "   "}
	if err := blank.Validate(); err == nil {
		t.Fatal("expected validation error for whitespace topic")
	}

	badTransition := CreateJobRequest{
		Topic:      "history of coffee",
		Transition: "starwipe",
	}
	if err := badTransition.Validate(); err == nil {
		t.Fatal("expected validation error for unsupported transition")
	}

	badWebhook := CreateJobRequest{
		Topic:      "history of coffee",
		WebhookURL: "ftp://example.com/hook",
	}
	if err := badWebhook.Validate(); err == nil {
		t.Fatal("expected validation error for non-http webhook URL")
	}
}

func TestStageErrorUnwrapsToSentinel(t *testing.T) {
	err := &StageError{
		Stage: StageVisuals,
		Err:   fmt.Errorf("pexels search: %w", ErrUpstream),
	}

	if !errors.Is(err, ErrUpstream) {
		t.Fatal("expected StageError to unwrap to ErrUpstream")
	}
	if got := FailedStage(err); got != StageVisuals {
		t.Fatalf("expected failed stage %q, got %q", StageVisuals, got)
	}
	if got := FailedStage(errors.New("unrelated")); got != "" {
		t.Fatalf("expected empty stage for unrelated error, got %q", got)
	}
}

func TestScriptEmpty(t *testing.T) {
	var s Script
	if !s.Empty() {
		t.Fatal("zero script should be empty")
	}

	s = Script{
		Narration: "A short narration.",
		Scenes:    []Scene{{Text: "A short narration.", SearchQuery: "coffee", Duration: 8}},
	}
	if s.Empty() {
		t.Fatal("populated script should not be empty")
	}
	if got := s.TotalDuration(); got != 8 {
		t.Fatalf("expected total duration 8, got %f", got)
	}
}
