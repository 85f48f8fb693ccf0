package domain

import "strings"

// Scene is one narrated beat of the script with the stock-footage query
// that should illustrate it.
type Scene struct {
	Text        string  `json:"text"`
	SearchQuery string  `json:"description"`
	Duration    float64 `json:"duration"`
}

// Script is the generated narration for one job.
type Script struct {
	Title     string  `json:"title"`
	Narration string  `json:"script"`
	Scenes    []Scene `json:"scenes"`
}

func (s Script) Empty() bool {
	return strings.TrimSpace(s.Narration) == "" || len(s.Scenes) == 0
}

func (s Script) TotalDuration() float64 {
	var total float64
	for _, scene := range s.Scenes {
		total += scene.Duration
	}
	return total
}

const (
	AssetKindVideo = "video"
	AssetKindImage = "image"
)

// AudioTrack is the synthesized voiceover, referenced by path. The
// orchestrator treats it as opaque beyond its measured duration.
type AudioTrack struct {
	Path     string
	Duration float64
	Format   string
}

// VisualAsset is one fetched clip or image. Order matters: assets are laid
// along the audio timeline in the order they appear in the job's slice.
type VisualAsset struct {
	SourceURL string
	LocalPath string
	Query     string
	Duration  float64
	Kind      string
	Width     int
	Height    int
}

// RenderedVideo is the only artifact a job's caller receives.
type RenderedVideo struct {
	Path     string
	Duration float64
	Width    int
	Height   int
}
