package script

import (
	"context"

	"github.com/clipwright/clipwright/internal/domain"
)

// Provider turns a topic into a narration script. Implementations call a
// hosted language model; tests substitute deterministic fakes.
type Provider interface {
	Generate(ctx context.Context, topic string) (domain.Script, error)
}
