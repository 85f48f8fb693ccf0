package pipeline

import (
	"context"
	"fmt"
	"log"

	"github.com/clipwright/clipwright/internal/domain"
)

// Stage capability interfaces. The concrete providers are network- or
// process-bound; tests substitute deterministic fakes.
type scriptProvider interface {
	Generate(ctx context.Context, topic string) (domain.Script, error)
}

type voiceProvider interface {
	Synthesize(ctx context.Context, script domain.Script, dir string) (domain.AudioTrack, error)
}

type visualFetcher interface {
	FetchAll(ctx context.Context, script domain.Script, dir string) ([]domain.VisualAsset, error)
}

type videoAssembler interface {
	Assemble(ctx context.Context, audio domain.AudioTrack, assets []domain.VisualAsset, dir string) (domain.RenderedVideo, error)
}

// Emitter moves the finished video out of the job's workspace to its durable
// location and returns the video with its delivered path or object key.
type Emitter interface {
	Emit(ctx context.Context, job domain.Job, video domain.RenderedVideo) (domain.RenderedVideo, error)
}

// jobTracker is the slice of the job store the orchestrator needs. A nil
// tracker is valid for one-shot CLI runs.
type jobTracker interface {
	UpdateStatus(ctx context.Context, id, status string) (domain.Job, error)
	MarkFailed(ctx context.Context, id, stage, detail string) error
}

// Result is everything a successful run produced beyond the video itself,
// kept for accounting.
type Result struct {
	Video       domain.RenderedVideo
	Script      domain.Script
	Audio       domain.AudioTrack
	AssetsUsed  int
	OutputBytes int64
}

// Orchestrator drives the four stages strictly in order for one job. No
// stage result is cached or reused across jobs, and no stage is retried.
type Orchestrator struct {
	scripts   scriptProvider
	voices    voiceProvider
	visuals   visualFetcher
	assembler videoAssembler
	emitter   Emitter
	tracker   jobTracker
	logger    *log.Logger
	workDir   string
}

func NewOrchestrator(
	scripts scriptProvider,
	voices voiceProvider,
	visuals visualFetcher,
	assembler videoAssembler,
	emitter Emitter,
	tracker jobTracker,
	logger *log.Logger,
	workDir string,
) *Orchestrator {
	return &Orchestrator{
		scripts:   scripts,
		voices:    voices,
		visuals:   visuals,
		assembler: assembler,
		emitter:   emitter,
		tracker:   tracker,
		logger:    logger,
		workDir:   workDir,
	}
}

// Run executes script → voice → visuals → assembly for one job and delivers
// the final video through the emitter. Every artifact the stages produce
// lives in a per-job workspace that is removed on every exit path; on
// failure the caller receives a StageError naming the failing stage, and
// never a partial video.
func (o *Orchestrator) Run(ctx context.Context, job domain.Job) (Result, error) {
	ws, err := NewWorkspace(o.workDir, job.ID)
	if err != nil {
		err = fmt.Errorf("%w: create workspace: %v", domain.ErrResource, err)
		return Result{}, o.fail(ctx, job.ID, domain.StageAssembly, err)
	}
	defer func() {
		if err := ws.Close(); err != nil {
			o.logger.Printf("workspace cleanup failed job_id=%s err=%v", job.ID, err)
		}
	}()

	o.setStatus(ctx, job.ID, domain.JobStatusRunning)

	script, err := o.scripts.Generate(ctx, job.Topic)
	if err != nil {
		return Result{}, o.fail(ctx, job.ID, domain.StageScript, err)
	}
	o.logger.Printf("script ready job_id=%s title=%q scenes=%d", job.ID, script.Title, len(script.Scenes))
	o.setStatus(ctx, job.ID, domain.JobStatusScriptReady)

	audio, err := o.voices.Synthesize(ctx, script, ws.AudioDir())
	if err != nil {
		return Result{}, o.fail(ctx, job.ID, domain.StageVoice, err)
	}
	o.logger.Printf("audio ready job_id=%s duration=%.2fs", job.ID, audio.Duration)
	o.setStatus(ctx, job.ID, domain.JobStatusAudioReady)

	assets, err := o.visuals.FetchAll(ctx, script, ws.VisualsDir())
	if err != nil {
		return Result{}, o.fail(ctx, job.ID, domain.StageVisuals, err)
	}
	o.logger.Printf("visuals ready job_id=%s assets=%d", job.ID, len(assets))
	o.setStatus(ctx, job.ID, domain.JobStatusVisualsReady)

	video, err := o.assembler.Assemble(ctx, audio, assets, ws.Root())
	if err != nil {
		return Result{}, o.fail(ctx, job.ID, domain.StageAssembly, err)
	}

	outputBytes := fileSize(video.Path)

	delivered, err := o.emitter.Emit(ctx, job, video)
	if err != nil {
		return Result{}, o.fail(ctx, job.ID, domain.StageDeliver, err)
	}
	o.logger.Printf("video delivered job_id=%s path=%s duration=%.2fs", job.ID, delivered.Path, delivered.Duration)

	return Result{
		Video:       delivered,
		Script:      script,
		Audio:       audio,
		AssetsUsed:  len(assets),
		OutputBytes: outputBytes,
	}, nil
}

func (o *Orchestrator) setStatus(ctx context.Context, jobID, status string) {
	if o.tracker == nil {
		return
	}
	if _, err := o.tracker.UpdateStatus(ctx, jobID, status); err != nil {
		o.logger.Printf("job status update failed job_id=%s status=%s err=%v", jobID, status, err)
	}
}

func (o *Orchestrator) fail(ctx context.Context, jobID, stage string, cause error) error {
	stageErr := &domain.StageError{Stage: stage, Err: cause}
	if o.tracker != nil {
		if err := o.tracker.MarkFailed(ctx, jobID, stage, cause.Error()); err != nil {
			o.logger.Printf("job failure record failed job_id=%s err=%v", jobID, err)
		}
	}
	return stageErr
}
