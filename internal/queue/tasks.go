package queue

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/hibiken/asynq"
)

const TypeRenderVideo = "video:render"

type RenderVideoPayload struct {
	JobID       string    `json:"job_id"`
	Topic       string    `json:"topic"`
	Voice       string    `json:"voice,omitempty"`
	Transition  string    `json:"transition,omitempty"`
	WebhookURL  string    `json:"webhook_url,omitempty"`
	RequestedAt time.Time `json:"requested_at"`
}

func NewRenderVideoTask(payload RenderVideoPayload) (*asynq.Task, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal render payload: %w", err)
	}
	return asynq.NewTask(TypeRenderVideo, body), nil
}

func ParseRenderVideoPayload(task *asynq.Task) (RenderVideoPayload, error) {
	var payload RenderVideoPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return RenderVideoPayload{}, fmt.Errorf("unmarshal render payload: %w", err)
	}
	return payload, nil
}
