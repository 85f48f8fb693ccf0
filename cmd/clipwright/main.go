package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/clipwright/clipwright/internal/config"
	"github.com/clipwright/clipwright/internal/domain"
	"github.com/clipwright/clipwright/internal/pipeline"
	"github.com/clipwright/clipwright/internal/store"
	"github.com/clipwright/clipwright/internal/worker"
	"github.com/google/uuid"
	"github.com/joho/godotenv"
)

// clipwright renders short videos from topics without the API or the queue:
// one process, one render at a time, results written to a local directory.
func main() {
	var (
		topic      = flag.String("topic", "", "topic to render a video for")
		topicsFile = flag.String("topics-file", "", "file with one topic per line, rendered sequentially")
		configFile = flag.String("config", "", "optional YAML config overriding environment settings")
		outDir     = flag.String("out", "./videos", "directory for rendered videos")
		voiceName  = flag.String("voice", "", "voice override for synthesis")
		transition = flag.String("transition", "", "scene transition: fade, wipeleft, slideleft or none")
	)
	flag.Parse()

	_ = godotenv.Load()
	logger := log.New(os.Stdout, "[clipwright] ", log.LstdFlags|log.Lmsgprefix)

	cfg := config.Load()
	if *configFile != "" {
		if err := config.ApplyFile(&cfg, *configFile); err != nil {
			logger.Fatalf("load config file: %v", err)
		}
	}
	if *outDir != "" {
		cfg.Worker.OutputDir = *outDir
	}

	topics, err := collectTopics(*topic, *topicsFile)
	if err != nil {
		logger.Fatalf("%v", err)
	}
	if len(topics) == 0 {
		logger.Fatal("nothing to do: pass -topic or -topics-file")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	jobStore := store.NewMemoryJobStore()
	emitter := &pipeline.FileEmitter{OutputDir: cfg.Worker.OutputDir}
	renderer := worker.NewRenderer(cfg, emitter, jobStore, logger)

	var failed int
	for i, t := range topics {
		job := domain.Job{
			ID:         shortRunID(),
			Topic:      t,
			Voice:      strings.TrimSpace(*voiceName),
			Transition: strings.ToLower(strings.TrimSpace(*transition)),
			Status:     domain.JobStatusPending,
			CreatedAt:  time.Now().UTC(),
			UpdatedAt:  time.Now().UTC(),
		}
		if job.Transition != "" && !domain.ValidTransition(job.Transition) {
			logger.Fatalf("unsupported transition: %s", job.Transition)
		}
		if err := jobStore.Create(ctx, job); err != nil {
			logger.Fatalf("create job: %v", err)
		}

		logger.Printf("[%d/%d] rendering %q", i+1, len(topics), t)
		started := time.Now()
		result, err := renderer.Run(ctx, job)
		if err != nil {
			failed++
			logger.Printf("[%d/%d] failed stage=%s err=%v", i+1, len(topics), domain.FailedStage(err), err)
			if ctx.Err() != nil {
				break
			}
			continue
		}
		logger.Printf(
			"[%d/%d] done %s duration=%.1fs assets=%d took=%s",
			i+1, len(topics), result.Video.Path, result.Video.Duration, result.AssetsUsed,
			time.Since(started).Round(time.Second),
		)
	}

	if failed > 0 {
		logger.Printf("finished with %d of %d renders failed", failed, len(topics))
		os.Exit(1)
	}
	logger.Printf("finished, %d videos in %s", len(topics), cfg.Worker.OutputDir)
}

func collectTopics(topic, topicsFile string) ([]string, error) {
	var topics []string
	if t := strings.TrimSpace(topic); t != "" {
		topics = append(topics, t)
	}
	if topicsFile == "" {
		return topics, nil
	}

	f, err := os.Open(topicsFile)
	if err != nil {
		return nil, fmt.Errorf("open topics file: %w", err)
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		topics = append(topics, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read topics file: %w", err)
	}
	return topics, nil
}

func shortRunID() string {
	return uuid.NewString()[:8]
}
