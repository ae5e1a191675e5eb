// Package config loads and validates TruthScope coordinator configuration.
// Configuration lives in a YAML file under the state directory; a handful of
// environment variables override file values for deployment convenience.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// DefaultFileName is the config file name inside the state directory.
const DefaultFileName = "config.yaml"

// Config holds all coordinator configuration.
type Config struct {
	Bridge    BridgeConfig    `yaml:"bridge"`
	Endpoints EndpointsConfig `yaml:"endpoints"`
	Analysis  AnalysisConfig  `yaml:"analysis"`
	Liveness  LivenessConfig  `yaml:"liveness"`
	Journal   JournalConfig   `yaml:"journal"`
	Logging   LoggingConfig   `yaml:"logging"`
}

// BridgeConfig configures the local HTTP bridge remote contexts connect to.
type BridgeConfig struct {
	Listen string `yaml:"listen"`
}

// EndpointsConfig names the remote analysis services. The coordinator only
// speaks their request/response contract; the analysis itself is server-side.
type EndpointsConfig struct {
	Text      string `yaml:"text"`
	Sentiment string `yaml:"sentiment"`
	Image     string `yaml:"image"`
	Video     string `yaml:"video"`
	Audio     string `yaml:"audio"`
}

// AnalysisConfig bounds what the orchestrator sends out.
type AnalysisConfig struct {
	MinTextLength int `yaml:"min_text_length"`
	MaxTextChars  int `yaml:"max_text_chars"`
}

// LivenessConfig tunes the probe/keep-alive protocol.
type LivenessConfig struct {
	ProbeInterval time.Duration `yaml:"probe_interval"`
}

// JournalConfig locates the artifact journal database. An empty path
// disables journaling.
type JournalConfig struct {
	Path string `yaml:"path"`
}

// LoggingConfig controls the categorized debug logger.
type LoggingConfig struct {
	Debug      bool            `yaml:"debug"`
	Dir        string          `yaml:"dir"`
	Level      string          `yaml:"level"`
	Categories map[string]bool `yaml:"categories"`
}

// Default returns the baseline configuration rooted at stateDir.
func Default(stateDir string) *Config {
	return &Config{
		Bridge: BridgeConfig{
			Listen: "127.0.0.1:8474",
		},
		Endpoints: EndpointsConfig{
			Text:      "https://truthscope-text.example.com/analyze",
			Sentiment: "https://truthscope-text.example.com/analyze_sentiment",
			Image:     "https://truthscope-media.example.com/analyze_image",
			Video:     "https://truthscope-media.example.com/analyze_video",
			Audio:     "https://truthscope-media.example.com/analyze_audio",
		},
		Analysis: AnalysisConfig{
			MinTextLength: 100,
			MaxTextChars:  15000,
		},
		Liveness: LivenessConfig{
			ProbeInterval: 20 * time.Second,
		},
		Journal: JournalConfig{
			Path: filepath.Join(stateDir, "artifacts.db"),
		},
		Logging: LoggingConfig{
			Debug: false,
			Dir:   filepath.Join(stateDir, "logs"),
			Level: "info",
		},
	}
}

// Load reads the config file under stateDir, filling defaults for anything
// the file omits and applying environment overrides last. A missing file is
// not an error: defaults apply.
func Load(stateDir string) (*Config, error) {
	cfg := Default(stateDir)

	path := filepath.Join(stateDir, DefaultFileName)
	data, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			return nil, fmt.Errorf("failed to read config %s: %w", path, err)
		}
	} else if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
	}

	cfg.applyEnvOverrides()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// applyEnvOverrides lets deployments redirect endpoints and the bridge
// without touching the file.
func (c *Config) applyEnvOverrides() {
	if v := os.Getenv("TRUTHSCOPE_LISTEN"); v != "" {
		c.Bridge.Listen = v
	}
	if v := os.Getenv("TRUTHSCOPE_TEXT_ENDPOINT"); v != "" {
		c.Endpoints.Text = v
	}
	if v := os.Getenv("TRUTHSCOPE_SENTIMENT_ENDPOINT"); v != "" {
		c.Endpoints.Sentiment = v
	}
	if v := os.Getenv("TRUTHSCOPE_IMAGE_ENDPOINT"); v != "" {
		c.Endpoints.Image = v
	}
	if v := os.Getenv("TRUTHSCOPE_VIDEO_ENDPOINT"); v != "" {
		c.Endpoints.Video = v
	}
	if v := os.Getenv("TRUTHSCOPE_AUDIO_ENDPOINT"); v != "" {
		c.Endpoints.Audio = v
	}
	if v := os.Getenv("TRUTHSCOPE_JOURNAL"); v != "" {
		c.Journal.Path = v
	}
	if os.Getenv("TRUTHSCOPE_DEBUG") == "1" {
		c.Logging.Debug = true
	}
}

// Validate rejects configurations the daemon cannot run with.
func (c *Config) Validate() error {
	if c.Bridge.Listen == "" {
		return fmt.Errorf("bridge.listen must not be empty")
	}
	if c.Analysis.MinTextLength < 0 {
		return fmt.Errorf("analysis.min_text_length must not be negative")
	}
	if c.Analysis.MaxTextChars <= 0 {
		return fmt.Errorf("analysis.max_text_chars must be positive")
	}
	if c.Analysis.MinTextLength > c.Analysis.MaxTextChars {
		return fmt.Errorf("analysis.min_text_length exceeds max_text_chars")
	}
	if c.Liveness.ProbeInterval <= 0 {
		return fmt.Errorf("liveness.probe_interval must be positive")
	}
	for name, url := range map[string]string{
		"text":      c.Endpoints.Text,
		"sentiment": c.Endpoints.Sentiment,
		"image":     c.Endpoints.Image,
		"video":     c.Endpoints.Video,
		"audio":     c.Endpoints.Audio,
	} {
		if url == "" {
			return fmt.Errorf("endpoints.%s must not be empty", name)
		}
	}
	return nil
}

// Save writes the config file under stateDir.
func (c *Config) Save(stateDir string) error {
	if err := os.MkdirAll(stateDir, 0755); err != nil {
		return fmt.Errorf("failed to create state dir: %w", err)
	}
	data, err := yaml.Marshal(c)
	if err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(stateDir, DefaultFileName), data, 0644)
}

// DefaultStateDir resolves the coordinator state directory, honoring the
// TRUTHSCOPE_STATE_DIR override.
func DefaultStateDir() (string, error) {
	if v := os.Getenv("TRUTHSCOPE_STATE_DIR"); v != "" {
		return v, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".truthscope"), nil
}
