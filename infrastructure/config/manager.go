package config

import (
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// ErrUnknownKey is returned for a key that is not a config setting
var ErrUnknownKey = errors.New("unknown config key")

// setting binds a dotted key to a field of Config
type setting struct {
	get func(*Config) string
	set func(*Config, string) error
}

func stringSetting(field func(*Config) *string) setting {
	return setting{
		get: func(c *Config) string { return *field(c) },
		set: func(c *Config, v string) error {
			*field(c) = v
			return nil
		},
	}
}

var settings = map[string]setting{
	"engine.backend":           stringSetting(func(c *Config) *string { return &c.Engine.Backend }),
	"engine.base_location":     stringSetting(func(c *Config) *string { return &c.Engine.BaseLocation }),
	"engine.executable":        stringSetting(func(c *Config) *string { return &c.Engine.Executable }),
	"engine.module":            stringSetting(func(c *Config) *string { return &c.Engine.Module }),
	"engine.staging_directory": stringSetting(func(c *Config) *string { return &c.Engine.StagingDirectory }),
	"engine.memory_limit_pages": {
		get: func(c *Config) string { return strconv.FormatUint(uint64(c.Engine.MemoryLimitPages), 10) },
		set: func(c *Config, v string) error {
			n, err := strconv.ParseUint(v, 10, 32)
			if err != nil {
				return fmt.Errorf("memory_limit_pages must be a whole number: %w", err)
			}
			c.Engine.MemoryLimitPages = uint32(n)
			return nil
		},
	},
	"output.directory":       stringSetting(func(c *Config) *string { return &c.Output.Directory }),
	"recorder.url":           stringSetting(func(c *Config) *string { return &c.Recorder.URL }),
	"drive.credentials_file": stringSetting(func(c *Config) *string { return &c.Drive.CredentialsFile }),
	"drive.folder_id":        stringSetting(func(c *Config) *string { return &c.Drive.FolderID }),
	"log.level":              stringSetting(func(c *Config) *string { return &c.Log.Level }),
	"log.development": {
		get: func(c *Config) string { return strconv.FormatBool(c.Log.Development) },
		set: func(c *Config, v string) error {
			b, err := strconv.ParseBool(v)
			if err != nil {
				return fmt.Errorf("development must be true or false: %w", err)
			}
			c.Log.Development = b
			return nil
		},
	},
}

// Entry is one key/value pair of the configuration
type Entry struct {
	Key   string
	Value string
}

// ConfigManager reads and updates individual settings and persists them
type ConfigManager struct {
	config     *Config
	configPath string
}

// NewConfigManager creates a new config manager
func NewConfigManager(cfg *Config, configPath string) *ConfigManager {
	return &ConfigManager{
		config:     cfg,
		configPath: configPath,
	}
}

// Keys returns every settable key in sorted order
func Keys() []string {
	keys := make([]string, 0, len(settings))
	for k := range settings {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Get returns the value stored under key
func (m *ConfigManager) Get(key string) (string, error) {
	s, ok := settings[normalizeKey(key)]
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownKey, key)
	}
	return s.get(m.config), nil
}

// Set updates key, validates the result and saves the file. The in-memory
// config is left unchanged when validation fails.
func (m *ConfigManager) Set(key, value string) error {
	s, ok := settings[normalizeKey(key)]
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownKey, key)
	}

	updated := *m.config
	if err := s.set(&updated, strings.TrimSpace(value)); err != nil {
		return err
	}
	updated.ApplyDefaults()
	if err := updated.Validate(); err != nil {
		return err
	}

	*m.config = updated
	return Save(m.config, m.configPath)
}

// List returns every setting in key order
func (m *ConfigManager) List() []Entry {
	keys := Keys()
	result := make([]Entry, 0, len(keys))
	for _, k := range keys {
		result = append(result, Entry{Key: k, Value: settings[k].get(m.config)})
	}
	return result
}

func normalizeKey(key string) string {
	return strings.ToLower(strings.TrimSpace(key))
}
