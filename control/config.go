// control/config.go
// Author: momentics <momentics@gmail.com>
//
// Run configuration loaded from YAML, JSON or TOML files, and the
// thread-safe key/value store that carries it at runtime.

package control

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"

	"github.com/BurntSushi/toml"
	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"

	"github.com/momentics/hioload-par/api"
)

// Config keys as they appear in files and in the ConfigStore.
const (
	KeyWorkers     = "workers"
	KeyPin         = "pin"
	KeyChunkSize   = "chunk_size"
	KeyLogLevel    = "log_level"
	KeyCPUInfoPath = "cpuinfo_path"
)

// Config holds the tunables of a pool and its loops.
type Config struct {
	Workers     int    `yaml:"workers" json:"workers" toml:"workers"`                // 0 means one per hardware thread
	Pin         bool   `yaml:"pin" json:"pin" toml:"pin"`                            // pin workers to hardware threads
	ChunkSize   int    `yaml:"chunk_size" json:"chunk_size" toml:"chunk_size"`       // default loop chunk size
	LogLevel    string `yaml:"log_level" json:"log_level" toml:"log_level"`          // zerolog level name
	CPUInfoPath string `yaml:"cpuinfo_path" json:"cpuinfo_path" toml:"cpuinfo_path"` // Linux text-table override
}

// DefaultConfig returns the configuration used when no file is given.
func DefaultConfig() *Config {
	return &Config{
		Workers:   0,
		Pin:       false,
		ChunkSize: 4096,
		LogLevel:  "warn",
	}
}

// LoadFile reads path and overlays it on DefaultConfig. The format is chosen
// by extension: .yaml/.yml, .json or .toml.
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("control: read config: %w", err)
	}

	cfg := DefaultConfig()
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("control: parse YAML %s: %w", path, err)
		}
	case ".json":
		if err := json.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("control: parse JSON %s: %w", path, err)
		}
	case ".toml":
		if err := toml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("control: parse TOML %s: %w", path, err)
		}
	default:
		return nil, fmt.Errorf("control: unsupported config format %q: %w", ext, api.ErrNotSupported)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate reports the first out-of-range field.
func (c *Config) Validate() error {
	if c.Workers < 0 {
		return fmt.Errorf("control: workers %d: %w", c.Workers, api.ErrInvalidArgument)
	}
	if c.ChunkSize <= 0 {
		return fmt.Errorf("control: chunk_size %d: %w", c.ChunkSize, api.ErrInvalidArgument)
	}
	if _, err := c.Level(); err != nil {
		return err
	}
	return nil
}

// Level parses LogLevel; an empty value means warn.
func (c *Config) Level() (zerolog.Level, error) {
	if c.LogLevel == "" {
		return zerolog.WarnLevel, nil
	}
	lvl, err := zerolog.ParseLevel(strings.ToLower(c.LogLevel))
	if err != nil {
		return zerolog.NoLevel, fmt.Errorf("control: log_level %q: %w", c.LogLevel, api.ErrInvalidArgument)
	}
	return lvl, nil
}

// Map flattens c into ConfigStore keys.
func (c *Config) Map() map[string]any {
	return map[string]any{
		KeyWorkers:     c.Workers,
		KeyPin:         c.Pin,
		KeyChunkSize:   c.ChunkSize,
		KeyLogLevel:    c.LogLevel,
		KeyCPUInfoPath: c.CPUInfoPath,
	}
}

// IntValue converts a store value to int. Numbers decoded from JSON arrive as
// float64 and are accepted when integral.
func IntValue(v any) (int, bool) {
	switch x := v.(type) {
	case int:
		return x, true
	case int32:
		return int(x), true
	case int64:
		return int(x), true
	case uint:
		return int(x), true
	case float64:
		if x == float64(int(x)) {
			return int(x), true
		}
	}
	return 0, false
}

// ConfigStore is a dynamic key/value map with atomic snapshot and listener support.
type ConfigStore struct {
	mu        sync.RWMutex
	config    map[string]any
	listeners []func(changed map[string]any)
}

// NewConfigStore initializes a new config store with empty data.
func NewConfigStore() *ConfigStore {
	return &ConfigStore{
		config: make(map[string]any),
	}
}

// GetSnapshot returns a copy of all config values.
func (cs *ConfigStore) GetSnapshot() map[string]any {
	cs.mu.RLock()
	defer cs.mu.RUnlock()
	out := make(map[string]any, len(cs.config))
	for k, v := range cs.config {
		out[k] = v
	}
	return out
}

// Get returns a single value.
func (cs *ConfigStore) Get(key string) (any, bool) {
	cs.mu.RLock()
	defer cs.mu.RUnlock()
	v, ok := cs.config[key]
	return v, ok
}

// SetConfig merges new values and, if anything changed, notifies listeners
// on the calling goroutine after the store lock is released.
func (cs *ConfigStore) SetConfig(newCfg map[string]any) {
	cs.mu.Lock()
	changed := diffConfig(cs.config, newCfg)
	for k, v := range changed {
		cs.config[k] = v
	}
	listeners := slices.Clone(cs.listeners)
	cs.mu.Unlock()

	if len(changed) > 0 {
		dispatchReload(listeners, changed)
	}
}

// OnReload registers a listener hook called on config changes.
func (cs *ConfigStore) OnReload(fn func(changed map[string]any)) {
	cs.mu.Lock()
	defer cs.mu.Unlock()
	cs.listeners = append(cs.listeners, fn)
}
