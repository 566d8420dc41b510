package config

import (
	"fmt"
	"log/slog"
	"maps"
	"os"
	"path/filepath"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/andreygs/gocsp/internal/defs"
)

// Loader reads configuration from YAML section files.
// It is thread-safe via sync.RWMutex.
type Loader struct {
	mu             sync.RWMutex
	loadedSections map[string]bool
}

// NewLoader creates a new Loader instance.
func NewLoader() *Loader {
	return &Loader{}
}

// sectionFile binds a section name to its file and the wrapper it decodes into.
type sectionFile struct {
	name string
	file string
	load func(dir string, cfg *Config) (bool, error)
}

var sectionFiles = []sectionFile{
	{"serialization", defs.SerializationYAML, func(dir string, cfg *Config) (bool, error) {
		w := &serializationFileWrapper{Serialization: cfg.Serialization}
		loaded, err := loadYAMLFile(dir, defs.SerializationYAML, w)
		if loaded {
			cfg.Serialization = w.Serialization
		}
		return loaded, err
	}},
	{"system", defs.SystemYAML, func(dir string, cfg *Config) (bool, error) {
		w := &systemFileWrapper{System: cfg.System}
		loaded, err := loadYAMLFile(dir, defs.SystemYAML, w)
		if loaded {
			cfg.System = w.System
		}
		return loaded, err
	}},
	{"bench", defs.BenchYAML, func(dir string, cfg *Config) (bool, error) {
		w := &benchFileWrapper{Bench: cfg.Bench}
		loaded, err := loadYAMLFile(dir, defs.BenchYAML, w)
		if loaded {
			cfg.Bench = w.Bench
		}
		return loaded, err
	}},
}

// Load reads all section files from the given .gocsp directory and returns
// a merged Config with defaults applied for missing fields. Missing files
// use default values. Invalid YAML files are skipped with a warning.
func (l *Loader) Load(configDir string) (*Config, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.loadedSections = make(map[string]bool)
	cfg := NewDefaultConfig()

	sectionsDir := SectionsDir(configDir)
	if _, err := os.Stat(sectionsDir); os.IsNotExist(err) {
		slog.Debug("config sections directory not found, using defaults", "path", sectionsDir)
		return cfg, nil
	}

	for _, s := range sectionFiles {
		loaded, err := s.load(sectionsDir, cfg)
		if err != nil {
			slog.Warn("failed to load config section, using defaults", "section", s.name, "error", err)
			continue
		}
		if loaded {
			l.loadedSections[s.name] = true
		}
	}
	return cfg, nil
}

// LoadedSections returns a copy of the map indicating which sections
// were successfully loaded from YAML files.
func (l *Loader) LoadedSections() map[string]bool {
	l.mu.RLock()
	defer l.mu.RUnlock()

	result := make(map[string]bool, len(l.loadedSections))
	maps.Copy(result, l.loadedSections)
	return result
}

// SectionsDir returns the section file directory under a .gocsp directory.
func SectionsDir(configDir string) string {
	return filepath.Join(filepath.Clean(configDir), defs.ConfigSubdir, defs.SectionsSubdir)
}

// loadYAMLFile reads a YAML file from the given directory and unmarshals it
// into the target struct. Returns (true, nil) if the file was found and parsed,
// (false, nil) if the file does not exist, or (false, error) on failure.
func loadYAMLFile(dir, filename string, target any) (bool, error) {
	path := filepath.Join(dir, filename)
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, fmt.Errorf("read %s: %w", filename, err)
	}

	if err := yaml.Unmarshal(data, target); err != nil {
		return false, fmt.Errorf("parse %s: %w", filename, ErrInvalidYAML)
	}

	return true, nil
}
