package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// fileOverrides is the shape of the optional YAML config file accepted by
// the CLI. Only set fields override the env-derived Config.
type fileOverrides struct {
	Script struct {
		Model       string   `yaml:"model"`
		Temperature *float64 `yaml:"temperature"`
		MaxTokens   int      `yaml:"max_tokens"`
		SceneCount  int      `yaml:"scene_count"`
	} `yaml:"script"`
	Voice struct {
		Backend string `yaml:"backend"`
		Voice   string `yaml:"voice"`
		VoiceID string `yaml:"voice_id"`
	} `yaml:"voice"`
	Render struct {
		Width         int      `yaml:"width"`
		Height        int      `yaml:"height"`
		FPS           int      `yaml:"fps"`
		Preset        string   `yaml:"preset"`
		VideoBitrate  string   `yaml:"video_bitrate"`
		AudioBitrate  string   `yaml:"audio_bitrate"`
		TransitionSec *float64 `yaml:"transition_sec"`
	} `yaml:"render"`
	Output struct {
		Dir string `yaml:"dir"`
	} `yaml:"output"`
}

// ApplyFile layers a YAML config file over cfg.
func ApplyFile(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}

	var o fileOverrides
	if err := yaml.Unmarshal(data, &o); err != nil {
		return fmt.Errorf("parse config file %s: %w", path, err)
	}

	if o.Script.Model != "" {
		cfg.Script.Model = o.Script.Model
	}
	if o.Script.Temperature != nil {
		cfg.Script.Temperature = *o.Script.Temperature
	}
	if o.Script.MaxTokens > 0 {
		cfg.Script.MaxTokens = o.Script.MaxTokens
	}
	if o.Script.SceneCount > 0 {
		cfg.Script.SceneCount = o.Script.SceneCount
	}
	if o.Voice.Backend != "" {
		cfg.Voice.Backend = o.Voice.Backend
	}
	if o.Voice.Voice != "" {
		cfg.Voice.Voice = o.Voice.Voice
	}
	if o.Voice.VoiceID != "" {
		cfg.Voice.VoiceID = o.Voice.VoiceID
	}
	if o.Render.Width > 0 {
		cfg.Render.Width = o.Render.Width
	}
	if o.Render.Height > 0 {
		cfg.Render.Height = o.Render.Height
	}
	if o.Render.FPS > 0 {
		cfg.Render.FPS = o.Render.FPS
	}
	if o.Render.Preset != "" {
		cfg.Render.Preset = o.Render.Preset
	}
	if o.Render.VideoBitrate != "" {
		cfg.Render.VideoBitrate = o.Render.VideoBitrate
	}
	if o.Render.AudioBitrate != "" {
		cfg.Render.AudioBitrate = o.Render.AudioBitrate
	}
	if o.Render.TransitionSec != nil {
		cfg.Render.TransitionSec = *o.Render.TransitionSec
	}
	if o.Output.Dir != "" {
		cfg.Worker.OutputDir = o.Output.Dir
	}
	return nil
}
