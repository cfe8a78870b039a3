package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Engine backends
const (
	BackendNative = "native"
	BackendWasm   = "wasm"
)

// Default values applied to empty fields
const (
	DefaultExecutable      = "ffmpeg"
	DefaultModule          = "ffmpeg-core.wasm"
	DefaultOutputDirectory = "clips"
	DefaultRecorderURL     = "http://localhost:8080"
	DefaultLogLevel        = "info"
)

// ErrInvalidConfig is returned by Validate
var ErrInvalidConfig = errors.New("invalid config")

// Config represents the complete application configuration
type Config struct {
	Engine   EngineConfig   `yaml:"engine"`
	Output   OutputConfig   `yaml:"output"`
	Recorder RecorderConfig `yaml:"recorder"`
	Drive    DriveConfig    `yaml:"drive"`
	Log      LogConfig      `yaml:"log"`
}

// EngineConfig selects and locates the codec engine
type EngineConfig struct {
	Backend          string `yaml:"backend"`
	BaseLocation     string `yaml:"base_location"`
	Executable       string `yaml:"executable"`
	Module           string `yaml:"module"`
	StagingDirectory string `yaml:"staging_directory"`
	MemoryLimitPages uint32 `yaml:"memory_limit_pages"`
}

// OutputConfig contains where produced clips are saved
type OutputConfig struct {
	Directory string `yaml:"directory"`
}

// RecorderConfig points at the recorder service API
type RecorderConfig struct {
	URL string `yaml:"url"`
}

// DriveConfig contains Google Drive upload settings
type DriveConfig struct {
	CredentialsFile string `yaml:"credentials_file"`
	FolderID        string `yaml:"folder_id"`
}

// LogConfig controls the zap logger
type LogConfig struct {
	Level       string `yaml:"level"`
	Development bool   `yaml:"development"`
}

// Default returns a configuration with every default applied
func Default() *Config {
	cfg := &Config{}
	cfg.ApplyDefaults()
	return cfg
}

// ApplyDefaults fills empty fields with their defaults
func (c *Config) ApplyDefaults() {
	if c.Engine.Backend == "" {
		c.Engine.Backend = BackendNative
	}
	if c.Engine.Executable == "" {
		c.Engine.Executable = DefaultExecutable
	}
	if c.Engine.Module == "" {
		c.Engine.Module = DefaultModule
	}
	if c.Output.Directory == "" {
		c.Output.Directory = DefaultOutputDirectory
	}
	if c.Recorder.URL == "" {
		c.Recorder.URL = DefaultRecorderURL
	}
	if c.Log.Level == "" {
		c.Log.Level = DefaultLogLevel
	}
}

// Validate checks values that defaults cannot repair
func (c *Config) Validate() error {
	switch c.Engine.Backend {
	case BackendNative, BackendWasm:
	default:
		return fmt.Errorf("%w: unknown engine backend %q (want %s or %s)", ErrInvalidConfig, c.Engine.Backend, BackendNative, BackendWasm)
	}

	switch c.Log.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("%w: unknown log level %q", ErrInvalidConfig, c.Log.Level)
	}

	return nil
}

// Load reads and parses the configuration from the specified YAML file
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Save writes the configuration to the specified YAML file
func Save(cfg *Config, path string) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to serialize config: %w", err)
	}

	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create config directory: %w", err)
		}
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}
