package visuals

import (
	"context"

	"github.com/clipwright/clipwright/internal/domain"
)

// Provider resolves one stock-footage search query to a downloadable asset.
type Provider interface {
	Search(ctx context.Context, query string) (domain.VisualAsset, error)
}
