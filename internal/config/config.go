package config

import (
	"os"
	"runtime"
	"strconv"

	"github.com/hibiken/asynq"
)

type Config struct {
	API       APIConfig
	Queue     QueueConfig
	Worker    WorkerConfig
	Script    ScriptConfig
	Voice     VoiceConfig
	Visuals   VisualsConfig
	Render    RenderConfig
	Storage   StorageConfig
	Database  DatabaseConfig
	Webhook   WebhookConfig
	Telemetry TelemetryConfig
}

type APIConfig struct {
	Addr              string
	RateLimitPerMin   int
	RateLimitDisabled bool
}

type QueueConfig struct {
	RedisAddr     string
	RedisPassword string
	RedisDB       int
	Name          string
}

func (q QueueConfig) RedisClientOpt() asynq.RedisClientOpt {
	return asynq.RedisClientOpt{
		Addr:     q.RedisAddr,
		Password: q.RedisPassword,
		DB:       q.RedisDB,
	}
}

type WorkerConfig struct {
	Concurrency   int
	MaxActiveJobs int
	WorkDir       string
	OutputDir     string
	MetricsAddr   string
}

type ScriptConfig struct {
	APIKey      string
	BaseURL     string
	Model       string
	Temperature float64
	MaxTokens   int
	SceneCount  int
}

type VoiceConfig struct {
	// Backend selects the synthesis engine at construction time, never at
	// runtime: "elevenlabs" or "edge-tts".
	Backend string
	APIKey  string
	BaseURL string
	VoiceID string
	Voice   string
}

type VisualsConfig struct {
	APIKey  string
	BaseURL string
}

type RenderConfig struct {
	Width          int
	Height         int
	FPS            int
	VideoBitrate   string
	AudioBitrate   string
	Preset         string
	TransitionSec  float64
	FFmpegPath     string
	FFprobePath    string
	EdgeTTSPath    string
	DurationTolSec float64
}

type StorageConfig struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
}

type DatabaseConfig struct {
	DSN string
}

type WebhookConfig struct {
	SigningSecret string
}

type TelemetryConfig struct {
	Exporter     string
	OTLPEndpoint string
	OTLPInsecure bool
}

func Load() Config {
	// Assembly is the CPU-bound stage; keep concurrent renders well under
	// the core count so one encode does not starve the rest.
	defaultRenderSlots := max(1, runtime.NumCPU()/2)

	return Config{
		API: APIConfig{
			Addr:              env("CLIPWRIGHT_API_ADDR", ":8080"),
			RateLimitPerMin:   envInt("CLIPWRIGHT_RATE_LIMIT_PER_MIN", 10),
			RateLimitDisabled: envBool("CLIPWRIGHT_RATE_LIMIT_DISABLED", false),
		},
		Queue: QueueConfig{
			RedisAddr:     env("REDIS_ADDR", "localhost:6379"),
			RedisPassword: env("REDIS_PASSWORD", ""),
			RedisDB:       envInt("REDIS_DB", 0),
			Name:          env("ASYNC_QUEUE", "default"),
		},
		Worker: WorkerConfig{
			Concurrency:   envInt("WORKER_CONCURRENCY", max(2, runtime.NumCPU())),
			MaxActiveJobs: envInt("WORKER_MAX_ACTIVE_JOBS", defaultRenderSlots),
			WorkDir:       env("WORKER_WORK_DIR", os.TempDir()),
			OutputDir:     env("WORKER_OUTPUT_DIR", "./.clipwright-output"),
			MetricsAddr:   env("WORKER_METRICS_ADDR", ":9090"),
		},
		Script: ScriptConfig{
			APIKey:      env("GROQ_API_KEY", ""),
			BaseURL:     env("GROQ_BASE_URL", "https://api.groq.com/openai/v1"),
			Model:       env("GROQ_MODEL", "llama-3.1-70b-versatile"),
			Temperature: envFloat("GROQ_TEMPERATURE", 0.7),
			MaxTokens:   envInt("GROQ_MAX_TOKENS", 1500),
			SceneCount:  envInt("SCRIPT_SCENE_COUNT", 6),
		},
		Voice: VoiceConfig{
			Backend: env("TTS_BACKEND", "edge-tts"),
			APIKey:  env("ELEVENLABS_API_KEY", ""),
			BaseURL: env("ELEVENLABS_BASE_URL", "https://api.elevenlabs.io"),
			VoiceID: env("ELEVENLABS_VOICE_ID", "21m00Tcm4TlvDq8ikWAM"),
			Voice:   env("EDGE_TTS_VOICE", "en-US-GuyNeural"),
		},
		Visuals: VisualsConfig{
			APIKey:  env("PEXELS_API_KEY", ""),
			BaseURL: env("PEXELS_BASE_URL", "https://api.pexels.com"),
		},
		Render: RenderConfig{
			Width:          envInt("RENDER_WIDTH", 1920),
			Height:         envInt("RENDER_HEIGHT", 1080),
			FPS:            envInt("RENDER_FPS", 24),
			VideoBitrate:   env("RENDER_VIDEO_BITRATE", "5000k"),
			AudioBitrate:   env("RENDER_AUDIO_BITRATE", "192k"),
			Preset:         env("RENDER_PRESET", "medium"),
			TransitionSec:  envFloat("RENDER_TRANSITION_SEC", 0.5),
			FFmpegPath:     env("FFMPEG_PATH", "ffmpeg"),
			FFprobePath:    env("FFPROBE_PATH", "ffprobe"),
			EdgeTTSPath:    env("EDGE_TTS_PATH", "edge-tts"),
			DurationTolSec: envFloat("RENDER_DURATION_TOLERANCE_SEC", 2.0),
		},
		Storage: StorageConfig{
			Endpoint:  env("MINIO_ENDPOINT", "localhost:9000"),
			AccessKey: env("MINIO_ACCESS_KEY", "minioadmin"),
			SecretKey: env("MINIO_SECRET_KEY", "minioadmin"),
			Bucket:    env("MINIO_BUCKET", "clipwright-videos"),
			UseSSL:    envBool("MINIO_USE_SSL", false),
		},
		Database: DatabaseConfig{
			// Empty DSN runs on the in-memory store; fine for development,
			// not for anything with more than one process.
			DSN: env("POSTGRES_DSN", ""),
		},
		Webhook: WebhookConfig{
			SigningSecret: env("WEBHOOK_SIGNING_SECRET", ""),
		},
		Telemetry: TelemetryConfig{
			Exporter:     env("TRACE_EXPORTER", "none"),
			OTLPEndpoint: env("OTLP_ENDPOINT", ""),
			OTLPInsecure: envBool("OTLP_INSECURE", true),
		},
	}
}

func env(key, fallback string) string {
	value, ok := os.LookupEnv(key)
	if !ok || value == "" {
		return fallback
	}
	return value
}

func envInt(key string, fallback int) int {
	value := env(key, "")
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func envFloat(key string, fallback float64) float64 {
	value := env(key, "")
	if value == "" {
		return fallback
	}
	parsed, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return fallback
	}
	return parsed
}

func envBool(key string, fallback bool) bool {
	value := env(key, "")
	if value == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func max(a, b int) int {
	if a > b {
		return a
	}
	return b
}
