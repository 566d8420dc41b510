// Package cli provides the Cobra command tree and dependency injection
// wiring for the gocsp CLI. This file defines the Dependencies struct
// (Composition Root) that wires the library and support layers together.
package cli

import (
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/andreygs/gocsp/internal/config"
	"github.com/andreygs/gocsp/internal/ui"
	"github.com/andreygs/gocsp/pkg/csp/message"
	"github.com/andreygs/gocsp/pkg/csp/processing"
)

// Dependencies holds the services used by CLI commands. It is the only
// place where concrete types are instantiated and wired together.
type Dependencies struct {
	Config     *config.ConfigManager
	Logger     *slog.Logger
	Registry   *processing.Registry
	Dispatcher *message.Dispatcher
	Theme      *ui.Theme
	Headless   *ui.HeadlessManager

	// ContextOptions decode and encode bodies with the configured charset,
	// depth limit and Registry.
	ContextOptions []processing.ContextOption
}

// deps is the global dependencies instance, initialized by InitDependencies.
var deps *Dependencies

// NewDependencies wires services from a loaded ConfigManager. Logs go to
// logOut in the configured format.
func NewDependencies(mgr *config.ConfigManager, logOut io.Writer) (*Dependencies, error) {
	cfg := mgr.Get()
	if cfg == nil {
		return nil, config.ErrNotInitialized
	}

	logger := newLogger(cfg.System, logOut)

	registry, err := cfg.Serialization.NewRegistry()
	if err != nil {
		return nil, fmt.Errorf("create processor registry: %w", err)
	}

	ctxOpts, err := cfg.Serialization.ContextOptions()
	if err != nil {
		return nil, err
	}
	ctxOpts = append(ctxOpts, processing.WithRegistry(registry))
	dispatcher := message.NewDispatcher(
		message.WithLogger(logger),
		message.WithDispatcherRegistry(registry),
		message.WithDispatcherContextOptions(ctxOpts...),
	)
	registerSampleHandlers(dispatcher, ctxOpts...)

	headless := ui.NewHeadlessManager()
	if cfg.System.NonInteractive {
		headless.ForceHeadless(true)
	}
	headless.SetDefaultList(ui.DefaultCommonFlagsKey, cfg.Serialization.CommonFlagNames)
	headless.SetDefaultList(ui.DefaultDataFlagsKey, cfg.Serialization.DataFlagNames)

	return &Dependencies{
		Config:     mgr,
		Logger:     logger,
		Registry:   registry,
		Dispatcher: dispatcher,
		Theme:      ui.NewTheme(ui.ThemeConfig{NoColor: cfg.System.NoColor}),
		Headless:   headless,

		ContextOptions: ctxOpts,
	}, nil
}

// InitDependencies loads configuration from configDir, applies the command
// line overrides and installs the global Dependencies.
func InitDependencies(configDir string, overrides SystemOverrides, logOut io.Writer) error {
	mgr := config.NewConfigManager()
	if _, err := mgr.LoadDir(configDir); err != nil {
		return fmt.Errorf("load config from %s: %w", configDir, err)
	}
	if err := overrides.apply(mgr); err != nil {
		return err
	}

	d, err := NewDependencies(mgr, logOut)
	if err != nil {
		return err
	}
	slog.SetDefault(d.Logger)
	deps = d
	return nil
}

// GetDeps returns the current Dependencies instance.
// Returns nil if InitDependencies has not been called.
func GetDeps() *Dependencies {
	return deps
}

// SetDeps replaces the global dependencies (used for testing).
func SetDeps(d *Dependencies) {
	deps = d
}

// SystemOverrides carries persistent flag values that take precedence over
// the system section. Empty fields leave the section unchanged.
type SystemOverrides struct {
	LogLevel string
	NoColor  bool
}

func (o SystemOverrides) apply(mgr *config.ConfigManager) error {
	if o.LogLevel == "" && !o.NoColor {
		return nil
	}
	sys := mgr.Get().System
	if o.LogLevel != "" {
		sys.LogLevel = o.LogLevel
	}
	if o.NoColor {
		sys.NoColor = true
	}
	if err := mgr.SetSection("system", sys); err != nil {
		return fmt.Errorf("apply flag overrides: %w", err)
	}
	return nil
}

func newLogger(sys config.SystemConfig, w io.Writer) *slog.Logger {
	opts := &slog.HandlerOptions{Level: parseLevel(sys.LogLevel)}
	if strings.EqualFold(sys.LogFormat, "json") {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

func parseLevel(s string) slog.Level {
	var level slog.Level
	if err := level.UnmarshalText([]byte(s)); err != nil {
		return slog.LevelInfo
	}
	return level
}
