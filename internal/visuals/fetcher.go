package visuals

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/clipwright/clipwright/internal/domain"
)

// Fetcher turns a script into an ordered set of downloaded assets, one per
// scene. Order drives the final video's visual sequencing.
type Fetcher struct {
	provider   Provider
	httpClient *http.Client
	logger     *log.Logger
	// Polite gap between stock API queries; keeps a multi-scene job under
	// the provider's free-tier rate limit.
	requestGap time.Duration
}

func NewFetcher(provider Provider, logger *log.Logger) *Fetcher {
	return &Fetcher{
		provider:   provider,
		httpClient: &http.Client{Timeout: 60 * time.Second},
		logger:     logger,
		requestGap: 500 * time.Millisecond,
	}
}

// FetchAll searches and downloads one asset per scene into dir. A scene with
// no usable footage is skipped; the shortfall is padded by cycling the assets
// that did arrive. A provider outage, on either the search or the download
// leg, aborts the job, and zero usable assets is ErrInsufficientAssets.
func (f *Fetcher) FetchAll(ctx context.Context, script domain.Script, dir string) ([]domain.VisualAsset, error) {
	if len(script.Scenes) == 0 {
		return nil, fmt.Errorf("%w: script has no scenes", domain.ErrEmptyInput)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create visuals dir: %w", err)
	}

	var fetched []domain.VisualAsset
	for i, scene := range script.Scenes {
		if i > 0 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(f.requestGap):
			}
		}

		asset, err := f.provider.Search(ctx, scene.SearchQuery)
		if err != nil {
			if errors.Is(err, domain.ErrInsufficientAssets) {
				f.logger.Printf("no asset for scene %d query=%q", i, scene.SearchQuery)
				continue
			}
			return nil, fmt.Errorf("search visuals for scene %d: %w", i, err)
		}

		localPath := filepath.Join(dir, fmt.Sprintf("visual_%03d.mp4", i))
		if err := f.download(ctx, asset.SourceURL, localPath); err != nil {
			return nil, fmt.Errorf("download visuals for scene %d: %w", i, err)
		}

		asset.LocalPath = localPath
		fetched = append(fetched, asset)
	}

	if len(fetched) == 0 {
		return nil, fmt.Errorf("%w: no scene produced a usable asset", domain.ErrInsufficientAssets)
	}

	return padAssets(fetched, script.Scenes), nil
}

func (f *Fetcher) download(ctx context.Context, srcURL, dest string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, srcURL, nil)
	if err != nil {
		return fmt.Errorf("build download request: %w", err)
	}

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: download asset: %v", domain.ErrUpstream, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%w: asset download returned status=%d", domain.ErrUpstream, resp.StatusCode)
	}

	out, err := os.Create(dest)
	if err != nil {
		return fmt.Errorf("create asset file: %w", err)
	}

	_, err = io.Copy(out, resp.Body)
	closeErr := out.Close()
	if err != nil {
		_ = os.Remove(dest)
		return fmt.Errorf("%w: stream asset body: %v", domain.ErrUpstream, err)
	}
	if closeErr != nil {
		return fmt.Errorf("close asset file: %w", closeErr)
	}
	return nil
}

// padAssets maps fetched assets onto the scene sequence, cycling through the
// available assets when fewer arrived than there are scenes. Each slot takes
// its duration hint from the scene it covers.
func padAssets(fetched []domain.VisualAsset, scenes []domain.Scene) []domain.VisualAsset {
	out := make([]domain.VisualAsset, len(scenes))
	for i, scene := range scenes {
		asset := fetched[i%len(fetched)]
		asset.Duration = scene.Duration
		out[i] = asset
	}
	return out
}
