package config

import (
	"fmt"
	"log/slog"
	"maps"
	"os"
	"path/filepath"
	"strconv"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/andreygs/gocsp/internal/defs"
)

// managerState represents the lifecycle state of the ConfigManager.
type managerState int

const (
	stateUninitialized managerState = iota
	stateInitialized
	stateWatching
)

// ConfigManager provides thread-safe configuration management.
// It must be initialized via Load() before use.
type ConfigManager struct {
	mu             sync.RWMutex
	config         *Config
	dir            string
	state          managerState
	loader         *Loader
	callbacks      []func(Config)
	loadedSections map[string]bool
}

// NewConfigManager creates a new ConfigManager instance in uninitialized state.
func NewConfigManager() *ConfigManager {
	return &ConfigManager{
		loader: NewLoader(),
		state:  stateUninitialized,
	}
}

// ResolveDir returns the .gocsp directory for a project root. The
// GOCSP_CONFIG_DIR environment variable takes precedence.
func ResolveDir(projectRoot string) string {
	if envDir := os.Getenv(defs.EnvConfigDir); envDir != "" {
		return filepath.Clean(envDir)
	}
	return filepath.Join(filepath.Clean(projectRoot), defs.GocspDir)
}

// Load reads configuration from the project root's .gocsp/ directory.
// It merges file values with compiled defaults and applies environment
// variable overrides. The configuration is validated before being stored.
func (m *ConfigManager) Load(projectRoot string) (*Config, error) {
	return m.LoadDir(ResolveDir(projectRoot))
}

// LoadDir is Load with an explicit .gocsp directory.
func (m *ConfigManager) LoadDir(configDir string) (*Config, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	cfg, err := m.readLocked(configDir)
	if err != nil {
		return nil, err
	}

	m.config = cfg
	m.dir = filepath.Clean(configDir)
	if m.state == stateUninitialized {
		m.state = stateInitialized
	}
	return cfg, nil
}

// Dir returns the directory the configuration was loaded from.
func (m *ConfigManager) Dir() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.dir
}

// Get returns the current in-memory configuration.
// Returns nil if the manager has not been initialized via Load().
func (m *ConfigManager) Get() *Config {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.config
}

// LoadedSections reports which sections came from files on the last load.
func (m *ConfigManager) LoadedSections() map[string]bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make(map[string]bool, len(m.loadedSections))
	maps.Copy(out, m.loadedSections)
	return out
}

// GetSection returns a named configuration section.
// Returns ErrNotInitialized if Load() has not been called.
// Returns ErrSectionNotFound if the section name is invalid.
func (m *ConfigManager) GetSection(name string) (any, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.state == stateUninitialized {
		return nil, ErrNotInitialized
	}

	switch name {
	case "serialization":
		return m.config.Serialization, nil
	case "system":
		return m.config.System, nil
	case "bench":
		return m.config.Bench, nil
	default:
		return nil, ErrSectionNotFound
	}
}

// SetSection updates a named configuration section in memory. The updated
// configuration is validated and left unchanged when invalid.
func (m *ConfigManager) SetSection(name string, value any) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.state == stateUninitialized {
		return ErrNotInitialized
	}

	next := *m.config
	switch name {
	case "serialization":
		v, ok := value.(SerializationConfig)
		if !ok {
			return fmt.Errorf("%w: expected SerializationConfig for section %q", ErrSectionTypeMismatch, name)
		}
		next.Serialization = v
	case "system":
		v, ok := value.(SystemConfig)
		if !ok {
			return fmt.Errorf("%w: expected SystemConfig for section %q", ErrSectionTypeMismatch, name)
		}
		next.System = v
	case "bench":
		v, ok := value.(BenchConfig)
		if !ok {
			return fmt.Errorf("%w: expected BenchConfig for section %q", ErrSectionTypeMismatch, name)
		}
		next.Bench = v
	default:
		return ErrSectionNotFound
	}

	if err := Validate(&next); err != nil {
		return err
	}
	m.config = &next
	return nil
}

// Save persists the current configuration to disk atomically.
// Each section is saved to its YAML file using temp file + os.Rename.
// Returns ErrNotInitialized if Load() has not been called.
func (m *ConfigManager) Save() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.state == stateUninitialized {
		return ErrNotInitialized
	}

	sectionsDir := SectionsDir(m.dir)
	if err := os.MkdirAll(sectionsDir, 0o755); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}

	if err := saveSection(sectionsDir, defs.SerializationYAML, serializationFileWrapper{Serialization: m.config.Serialization}); err != nil {
		return fmt.Errorf("save serialization config: %w", err)
	}
	if err := saveSection(sectionsDir, defs.SystemYAML, systemFileWrapper{System: m.config.System}); err != nil {
		return fmt.Errorf("save system config: %w", err)
	}
	if err := saveSection(sectionsDir, defs.BenchYAML, benchFileWrapper{Bench: m.config.Bench}); err != nil {
		return fmt.Errorf("save bench config: %w", err)
	}
	return nil
}

// Reload forces a re-read from disk, replacing the in-memory configuration
// and notifying watchers. Returns ErrNotInitialized if Load() has not been called.
func (m *ConfigManager) Reload() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.state == stateUninitialized {
		return ErrNotInitialized
	}

	cfg, err := m.readLocked(m.dir)
	if err != nil {
		return fmt.Errorf("reload config: %w", err)
	}
	m.config = cfg

	for _, cb := range m.callbacks {
		cb(*m.config)
	}
	return nil
}

// Watch registers a callback to be invoked when configuration is reloaded.
// Returns ErrNotInitialized if Load() has not been called.
func (m *ConfigManager) Watch(callback func(Config)) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.state == stateUninitialized {
		return ErrNotInitialized
	}

	m.callbacks = append(m.callbacks, callback)
	m.state = stateWatching
	return nil
}

// readLocked loads, overrides and validates. Caller must hold Lock.
func (m *ConfigManager) readLocked(configDir string) (*Config, error) {
	cfg, err := m.loader.Load(configDir)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	m.loadedSections = m.loader.LoadedSections()

	applyEnvOverrides(cfg)

	if err := Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// applyEnvOverrides applies environment variable overrides to the configuration.
// Environment variables have higher priority than file-based values.
func applyEnvOverrides(cfg *Config) {
	if level := os.Getenv(defs.EnvLogLevel); level != "" {
		cfg.System.LogLevel = level
	}
	if format := os.Getenv(defs.EnvLogFormat); format != "" {
		cfg.System.LogFormat = format
	}
	if noColor := os.Getenv(defs.EnvNoColor); noColor == "true" || noColor == "1" {
		cfg.System.NoColor = true
	}
	if v := os.Getenv(defs.EnvProtocolVersion); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			slog.Warn("ignoring non-numeric protocol version override", "env", defs.EnvProtocolVersion, "value", v)
		} else {
			cfg.Serialization.ProtocolVersion = n
		}
	}
	if cs := os.Getenv(defs.EnvCharset); cs != "" {
		cfg.Serialization.Charset = cs
	}
}

// saveSection marshals data to YAML and writes it atomically.
func saveSection(dir, filename string, data any) error {
	yamlData, err := yaml.Marshal(data)
	if err != nil {
		return fmt.Errorf("marshal %s: %w", filename, err)
	}

	path := filepath.Join(dir, filename)
	return atomicWrite(path, yamlData)
}

// atomicWrite writes data to a file atomically using temp file + os.Rename.
func atomicWrite(path string, data []byte) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, ".gocsp-config-*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()
	defer func() { _ = os.Remove(tmpName) }()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp file: %w", err)
	}

	return os.Rename(tmpName, path)
}
