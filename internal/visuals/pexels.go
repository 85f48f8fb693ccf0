package visuals

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/clipwright/clipwright/internal/config"
	"github.com/clipwright/clipwright/internal/domain"
)

const minAssetWidth = 1280

// PexelsClient searches the Pexels stock video API.
type PexelsClient struct {
	httpClient *http.Client
	apiKey     string
	baseURL    string
}

func NewPexelsClient(cfg config.VisualsConfig) *PexelsClient {
	return &PexelsClient{
		httpClient: &http.Client{Timeout: 15 * time.Second},
		apiKey:     cfg.APIKey,
		baseURL:    strings.TrimSuffix(cfg.BaseURL, "/"),
	}
}

type pexelsSearchResponse struct {
	Videos []struct {
		ID         int     `json:"id"`
		Width      int     `json:"width"`
		Height     int     `json:"height"`
		Duration   float64 `json:"duration"`
		VideoFiles []struct {
			Quality string `json:"quality"`
			Width   int    `json:"width"`
			Height  int    `json:"height"`
			Link    string `json:"link"`
		} `json:"video_files"`
	} `json:"videos"`
}

func (c *PexelsClient) Search(ctx context.Context, query string) (domain.VisualAsset, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return domain.VisualAsset{}, fmt.Errorf("%w: search query is empty", domain.ErrEmptyInput)
	}
	if c.apiKey == "" {
		return domain.VisualAsset{}, fmt.Errorf("%w: pexels api key is not configured", domain.ErrUpstream)
	}

	params := url.Values{}
	params.Set("query", query)
	params.Set("per_page", "3")
	params.Set("size", "medium")
	params.Set("orientation", "landscape")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/videos/search?"+params.Encode(), nil)
	if err != nil {
		return domain.VisualAsset{}, fmt.Errorf("build pexels request: %w", err)
	}
	req.Header.Set("Authorization", c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return domain.VisualAsset{}, fmt.Errorf("%w: pexels request: %v", domain.ErrUpstream, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return domain.VisualAsset{}, fmt.Errorf("%w: pexels returned status=%d", domain.ErrUpstream, resp.StatusCode)
	}

	var search pexelsSearchResponse
	if err := json.NewDecoder(resp.Body).Decode(&search); err != nil {
		return domain.VisualAsset{}, fmt.Errorf("%w: parse pexels response: %v", domain.ErrUpstream, err)
	}

	for _, video := range search.Videos {
		for _, file := range video.VideoFiles {
			if (file.Quality == "hd" || file.Quality == "sd") && file.Width >= minAssetWidth {
				return domain.VisualAsset{
					SourceURL: file.Link,
					Query:     query,
					Duration:  video.Duration,
					Kind:      domain.AssetKindVideo,
					Width:     file.Width,
					Height:    file.Height,
				}, nil
			}
		}
	}

	return domain.VisualAsset{}, fmt.Errorf("%w: no usable asset for query %q", domain.ErrInsufficientAssets, query)
}
