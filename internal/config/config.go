package config

import (
	"context"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

type contextKey string

const configKey contextKey = "config"

// Config holds all application configuration
type Config struct {
	// DataDir holds the settings database and export history.
	DataDir string `yaml:"data_dir"`

	// FFmpeg settings
	FFmpeg FFmpegConfig `yaml:"ffmpeg"`

	// Player settings
	Player PlayerConfig `yaml:"player"`

	// Export settings
	Export ExportConfig `yaml:"export"`
}

type FFmpegConfig struct {
	BinaryPath string `yaml:"binary_path"`
	ProbePath  string `yaml:"probe_path"`
	Threads    int    `yaml:"threads"`
	Preset     string `yaml:"preset"`
	CRF        int    `yaml:"crf"`
}

type PlayerConfig struct {
	BinaryPath string `yaml:"binary_path"`
	SocketPath string `yaml:"socket_path"`
}

type ExportConfig struct {
	// TailLines is how many trailing ffmpeg stderr lines are kept for
	// the failure diagnostic.
	TailLines int `yaml:"tail_lines"`
	// KillGraceSeconds bounds the wait between interrupt and kill when
	// an export is cancelled.
	KillGraceSeconds int `yaml:"kill_grace_seconds"`
}

// Load reads configuration from file or returns defaults
func Load(path string) (*Config, error) {
	cfg := defaultConfig()

	if path == "" {
		path = findConfigFile()
	}

	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// DBPath returns the location of the settings database.
func (c *Config) DBPath() string {
	return filepath.Join(c.DataDir, "videocut.db")
}

func defaultConfig() *Config {
	dataDir := ".videocut"
	if home, err := os.UserHomeDir(); err == nil {
		dataDir = filepath.Join(home, ".videocut")
	}

	return &Config{
		DataDir: dataDir,
		FFmpeg: FFmpegConfig{
			BinaryPath: "ffmpeg",
			ProbePath:  "ffprobe",
			Threads:    0,
			Preset:     "medium",
			CRF:        23,
		},
		Player: PlayerConfig{
			BinaryPath: "mpv",
			SocketPath: filepath.Join(os.TempDir(), "videocut-mpv.sock"),
		},
		Export: ExportConfig{
			TailLines:        12,
			KillGraceSeconds: 5,
		},
	}
}

func findConfigFile() string {
	candidates := []string{
		"./config.yaml",
		"./config.yml",
		filepath.Join(os.Getenv("HOME"), ".videocut", "config.yaml"),
	}

	for _, path := range candidates {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}

	return ""
}

// WithConfig stores config in context
func WithConfig(ctx context.Context, cfg *Config) context.Context {
	return context.WithValue(ctx, configKey, cfg)
}

// FromContext retrieves config from context
func FromContext(ctx context.Context) *Config {
	if cfg, ok := ctx.Value(configKey).(*Config); ok {
		return cfg
	}
	return defaultConfig()
}
