package visuals

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/clipwright/clipwright/internal/config"
	"github.com/clipwright/clipwright/internal/domain"
)

type fakeProvider struct {
	assets map[string]domain.VisualAsset
	err    error
	calls  []string
}

func (p *fakeProvider) Search(_ context.Context, query string) (domain.VisualAsset, error) {
	p.calls = append(p.calls, query)
	if p.err != nil {
		return domain.VisualAsset{}, p.err
	}
	asset, ok := p.assets[query]
	if !ok {
		return domain.VisualAsset{}, fmt.Errorf("%w: no asset for %q", domain.ErrInsufficientAssets, query)
	}
	return asset, nil
}

func sceneScript(queries ...string) domain.Script {
	s := domain.Script{Narration: "narration"}
	for _, q := range queries {
		s.Scenes = append(s.Scenes, domain.Scene{Text: q, SearchQuery: q, Duration: 8})
	}
	return s
}

func newTestFetcher(provider Provider) *Fetcher {
	f := NewFetcher(provider, log.New(io.Discard, "", 0))
	f.requestGap = 0
	return f
}

func TestFetchAllDownloadsInOrder(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("fake video bytes"))
	}))
	defer srv.Close()

	provider := &fakeProvider{assets: map[string]domain.VisualAsset{
		"coffee beans": {SourceURL: srv.URL + "/a.mp4", Query: "coffee beans", Kind: domain.AssetKindVideo},
		"busy cafe":    {SourceURL: srv.URL + "/b.mp4", Query: "busy cafe", Kind: domain.AssetKindVideo},
	}}

	assets, err := newTestFetcher(provider).FetchAll(context.Background(), sceneScript("coffee beans", "busy cafe"), t.TempDir())
	if err != nil {
		t.Fatalf("FetchAll returned error: %v", err)
	}
	if len(assets) != 2 {
		t.Fatalf("expected 2 assets, got %d", len(assets))
	}
	if assets[0].Query != "coffee beans" || assets[1].Query != "busy cafe" {
		t.Fatalf("assets out of order: %q, %q", assets[0].Query, assets[1].Query)
	}
	if assets[0].LocalPath == "" {
		t.Fatal("expected downloaded local path")
	}
}

func TestFetchAllPadsShortfallByCycling(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("fake video bytes"))
	}))
	defer srv.Close()

	provider := &fakeProvider{assets: map[string]domain.VisualAsset{
		"coffee beans": {SourceURL: srv.URL + "/a.mp4", Query: "coffee beans", Kind: domain.AssetKindVideo},
	}}

	script := sceneScript("coffee beans", "missing one", "missing two")
	script.Scenes[1].Duration = 6
	script.Scenes[2].Duration = 10

	assets, err := newTestFetcher(provider).FetchAll(context.Background(), script, t.TempDir())
	if err != nil {
		t.Fatalf("FetchAll returned error: %v", err)
	}
	if len(assets) != 3 {
		t.Fatalf("expected one asset per scene, got %d", len(assets))
	}
	if assets[1].LocalPath != assets[0].LocalPath {
		t.Fatal("expected shortfall to reuse the fetched asset")
	}
	if assets[1].Duration != 6 || assets[2].Duration != 10 {
		t.Fatalf("expected scene duration hints, got %f and %f", assets[1].Duration, assets[2].Duration)
	}
}

func TestFetchAllZeroAssets(t *testing.T) {
	provider := &fakeProvider{assets: map[string]domain.VisualAsset{}}

	_, err := newTestFetcher(provider).FetchAll(context.Background(), sceneScript("nothing matches"), t.TempDir())
	if !errors.Is(err, domain.ErrInsufficientAssets) {
		t.Fatalf("expected ErrInsufficientAssets, got %v", err)
	}
}

func TestFetchAllAbortsOnProviderOutage(t *testing.T) {
	provider := &fakeProvider{err: fmt.Errorf("%w: status=500", domain.ErrUpstream)}

	_, err := newTestFetcher(provider).FetchAll(context.Background(), sceneScript("coffee", "cafe"), t.TempDir())
	if !errors.Is(err, domain.ErrUpstream) {
		t.Fatalf("expected ErrUpstream, got %v", err)
	}
	if len(provider.calls) != 1 {
		t.Fatalf("expected abort after first failed search, got %d calls", len(provider.calls))
	}
}

func TestFetchAllAbortsOnDownloadFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/a.mp4" {
			w.Write([]byte("fake video bytes"))
			return
		}
		http.Error(w, "cdn unavailable", http.StatusInternalServerError)
	}))
	defer srv.Close()

	provider := &fakeProvider{assets: map[string]domain.VisualAsset{
		"coffee beans": {SourceURL: srv.URL + "/a.mp4", Query: "coffee beans", Kind: domain.AssetKindVideo},
		"busy cafe":    {SourceURL: srv.URL + "/b.mp4", Query: "busy cafe", Kind: domain.AssetKindVideo},
		"latte art":    {SourceURL: srv.URL + "/c.mp4", Query: "latte art", Kind: domain.AssetKindVideo},
	}}

	_, err := newTestFetcher(provider).FetchAll(context.Background(), sceneScript("coffee beans", "busy cafe", "latte art"), t.TempDir())
	if !errors.Is(err, domain.ErrUpstream) {
		t.Fatalf("expected ErrUpstream for failed download, got %v", err)
	}
	if len(provider.calls) != 2 {
		t.Fatalf("expected abort after first failed download, got %d searches", len(provider.calls))
	}
}

func TestPexelsSearchPicksHDFile(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "px-key" {
			t.Errorf("unexpected auth header %q", got)
		}
		if got := r.URL.Query().Get("query"); got != "coffee beans" {
			t.Errorf("unexpected query %q", got)
		}
		w.Write([]byte(`{"videos":[{"id":1,"duration":12,"video_files":[
			{"quality":"uhd","width":3840,"height":2160,"link":"https://cdn.example/uhd.mp4"},
			{"quality":"hd","width":1920,"height":1080,"link":"https://cdn.example/hd.mp4"},
			{"quality":"sd","width":640,"height":360,"link":"https://cdn.example/sd.mp4"}
		]}]}`))
	}))
	defer srv.Close()

	client := NewPexelsClient(config.VisualsConfig{APIKey: "px-key", BaseURL: srv.URL})
	asset, err := client.Search(context.Background(), "coffee beans")
	if err != nil {
		t.Fatalf("Search returned error: %v", err)
	}
	if asset.SourceURL != "https://cdn.example/hd.mp4" {
		t.Fatalf("expected hd file, got %q", asset.SourceURL)
	}
	if asset.Duration != 12 {
		t.Fatalf("expected duration 12, got %f", asset.Duration)
	}
}

func TestPexelsSearchNoResults(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"videos":[]}`))
	}))
	defer srv.Close()

	client := NewPexelsClient(config.VisualsConfig{APIKey: "px-key", BaseURL: srv.URL})
	_, err := client.Search(context.Background(), "nothing matches")
	if !errors.Is(err, domain.ErrInsufficientAssets) {
		t.Fatalf("expected ErrInsufficientAssets, got %v", err)
	}
}
