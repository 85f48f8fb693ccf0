package worker

import (
	"context"
	"log"
	"strings"

	"github.com/clipwright/clipwright/internal/assemble"
	"github.com/clipwright/clipwright/internal/config"
	"github.com/clipwright/clipwright/internal/domain"
	"github.com/clipwright/clipwright/internal/media"
	"github.com/clipwright/clipwright/internal/pipeline"
	"github.com/clipwright/clipwright/internal/script"
	"github.com/clipwright/clipwright/internal/store"
	"github.com/clipwright/clipwright/internal/visuals"
	"github.com/clipwright/clipwright/internal/voice"
)

// Renderer builds one pipeline per job. Voice and transition are job-scoped
// settings, so the synthesis engine and assembler cannot be shared across
// jobs the way the script and stock-footage clients are.
type Renderer struct {
	cfg      config.Config
	runner   *media.Runner
	scripts  *script.GroqClient
	visuals  *visuals.Fetcher
	emitter  pipeline.Emitter
	jobStore store.JobStore
	logger   *log.Logger
}

func NewRenderer(
	cfg config.Config,
	emitter pipeline.Emitter,
	jobStore store.JobStore,
	logger *log.Logger,
) *Renderer {
	runner := media.NewRunner(cfg.Render.FFmpegPath, cfg.Render.FFprobePath)
	return &Renderer{
		cfg:      cfg,
		runner:   runner,
		scripts:  script.NewGroqClient(cfg.Script),
		visuals:  visuals.NewFetcher(visuals.NewPexelsClient(cfg.Visuals), logger),
		emitter:  emitter,
		jobStore: jobStore,
		logger:   logger,
	}
}

func (r *Renderer) Run(ctx context.Context, job domain.Job) (pipeline.Result, error) {
	voices := r.voiceProvider(job)
	assembler := assemble.New(r.runner, r.logger, assemble.OptionsFromConfig(r.cfg.Render, job.Transition))

	orch := pipeline.NewOrchestrator(
		r.scripts,
		voices,
		r.visuals,
		assembler,
		r.emitter,
		r.jobStore,
		r.logger,
		r.cfg.Worker.WorkDir,
	)
	return orch.Run(ctx, job)
}

func (r *Renderer) voiceProvider(job domain.Job) voice.Provider {
	voiceCfg := r.cfg.Voice
	if v := strings.TrimSpace(job.Voice); v != "" {
		voiceCfg.Voice = v
		voiceCfg.VoiceID = v
	}

	switch strings.ToLower(strings.TrimSpace(voiceCfg.Backend)) {
	case "elevenlabs":
		return voice.NewElevenLabsClient(voiceCfg, r.runner)
	default:
		return voice.NewEdgeTTSEngine(voiceCfg, r.cfg.Render.EdgeTTSPath, r.runner)
	}
}
