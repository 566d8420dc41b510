package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"github.com/andreygs/gocsp/internal/config"
	"github.com/andreygs/gocsp/pkg/version"
)

var rootCmd = &cobra.Command{
	Use:   "gocsp",
	Short: "Inspect, encode and benchmark Common Serialization Protocol messages",
	Long: `gocsp is a toolkit for the Common Serialization Protocol (CSP).

It parses and describes messages, decodes flag masks and status codes,
encodes status and settings messages, and benchmarks the serializer
through an in-process dispatcher.

Configuration is read from .gocsp/config/sections/ in the current
directory, or from the directory named by GOCSP_CONFIG_DIR.`,
	Version:           version.GetVersion(),
	SilenceUsage:      true,
	PersistentPreRunE: ensureDependencies,
}

// Execute runs the root command. An interrupt cancels the command context.
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	return rootCmd.ExecuteContext(ctx)
}

func init() {
	rootCmd.SetVersionTemplate(fmt.Sprintf("gocsp %s\n", version.GetVersion()))

	pf := rootCmd.PersistentFlags()
	pf.String("config-dir", "", "Configuration directory (default: ./.gocsp or $GOCSP_CONFIG_DIR)")
	pf.String("log-level", "", "Log level: debug, info, warn or error")
	pf.Bool("no-color", false, "Disable colored output")
}

// ensureDependencies builds the global Dependencies on first use. Tests
// install their own with SetDeps.
func ensureDependencies(cmd *cobra.Command, _ []string) error {
	if deps != nil {
		return nil
	}

	dir := getStringFlag(cmd, "config-dir")
	if dir == "" {
		cwd, err := os.Getwd()
		if err != nil {
			return fmt.Errorf("get working directory: %w", err)
		}
		dir = config.ResolveDir(cwd)
	}

	overrides := SystemOverrides{
		LogLevel: getStringFlag(cmd, "log-level"),
		NoColor:  getBoolFlag(cmd, "no-color"),
	}
	return InitDependencies(dir, overrides, cmd.ErrOrStderr())
}

// getStringFlag retrieves a string flag value from the command.
func getStringFlag(cmd *cobra.Command, name string) string {
	val, err := cmd.Flags().GetString(name)
	if err != nil {
		return ""
	}
	return val
}

// getBoolFlag retrieves a bool flag value from the command.
func getBoolFlag(cmd *cobra.Command, name string) bool {
	val, err := cmd.Flags().GetBool(name)
	if err != nil {
		return false
	}
	return val
}

// getIntFlag retrieves an int flag value from the command.
func getIntFlag(cmd *cobra.Command, name string) int {
	val, err := cmd.Flags().GetInt(name)
	if err != nil {
		return 0
	}
	return val
}

// commandContext returns the command's context, or context.Background when
// the command runs outside Execute.
func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
