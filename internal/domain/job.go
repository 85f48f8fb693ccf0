package domain

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

const (
	JobStatusPending      = "pending"
	JobStatusQueued       = "queued"
	JobStatusRunning      = "running"
	JobStatusScriptReady  = "script_ready"
	JobStatusAudioReady   = "audio_ready"
	JobStatusVisualsReady = "visuals_ready"
	JobStatusSucceeded    = "succeeded"
	JobStatusFailed       = "failed"
)

const (
	StageScript   = "script"
	StageVoice    = "voice"
	StageVisuals  = "visuals"
	StageAssembly = "assembly"
	StageDeliver  = "deliver"
)

const (
	TransitionFade  = "fade"
	TransitionWipe  = "wipeleft"
	TransitionSlide = "slideleft"
	TransitionNone  = "none"
)

const maxTopicLen = 300

type CreateJobRequest struct {
	Topic      string `json:"topic"`
	Voice      string `json:"voice,omitempty"`
	Transition string `json:"transition,omitempty"`
	WebhookURL string `json:"webhook_url,omitempty"`
}

type Job struct {
	ID          string
	Topic       string
	Voice       string
	Transition  string
	WebhookURL  string
	Status      string
	FailedStage string
	ErrorDetail string
	ObjectKey   string
	OutputPath  string
	DurationSec float64
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

func (r CreateJobRequest) Validate() error {
	topic := strings.TrimSpace(r.Topic)
	if topic == "" {
		return errors.New("topic is required")
	}
	if len(topic) > maxTopicLen {
		return fmt.Errorf("topic exceeds %d characters", maxTopicLen)
	}
	if r.Transition != "" && !ValidTransition(r.Transition) {
		return fmt.Errorf("unsupported transition: %s", r.Transition)
	}
	if r.WebhookURL != "" && !strings.HasPrefix(r.WebhookURL, "http") {
		return errors.New("webhook_url must be an http(s) URL")
	}
	return nil
}

func ValidTransition(style string) bool {
	switch strings.ToLower(strings.TrimSpace(style)) {
	case TransitionFade, TransitionWipe, TransitionSlide, TransitionNone:
		return true
	}
	return false
}
