package cli

import (
	"fmt"
	"path/filepath"
	"slices"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/andreygs/gocsp/internal/config"
	"github.com/andreygs/gocsp/internal/ui"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show or initialize gocsp configuration",
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write the current configuration to .gocsp/config/sections",
	Long: `Write every configuration section as YAML under the configuration
directory. Existing files are kept unless --force is given.`,
	Args: cobra.NoArgs,
	RunE: runConfigInit,
}

var configShowCmd = &cobra.Command{
	Use:   "show [section]",
	Short: "Print the effective configuration as YAML",
	Args:  cobra.MaximumNArgs(1),
	ValidArgsFunction: func(*cobra.Command, []string, string) ([]string, cobra.ShellCompDirective) {
		return config.ValidSectionNames(), cobra.ShellCompDirectiveNoFileComp
	},
	RunE: runConfigShow,
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configInitCmd, configShowCmd)

	configInitCmd.Flags().Bool("force", false, "Overwrite existing section files")
}

func runConfigInit(cmd *cobra.Command, _ []string) error {
	mgr := deps.Config
	dir := config.SectionsDir(mgr.Dir())

	loaded := mgr.LoadedSections()
	if len(loaded) > 0 && !getBoolFlag(cmd, "force") {
		names := make([]string, 0, len(loaded))
		for name := range loaded {
			names = append(names, name)
		}
		slices.Sort(names)
		return fmt.Errorf("%s already holds %v; use --force to overwrite", dir, names)
	}

	if err := mgr.Save(); err != nil {
		return err
	}
	if err := mgr.Reload(); err != nil {
		return err
	}

	rows := make([]ui.KV, 0, len(config.ValidSectionNames()))
	for _, name := range config.ValidSectionNames() {
		rows = append(rows, ui.KV{Key: name, Value: filepath.Join(dir, name+".yaml")})
	}
	_, _ = fmt.Fprintln(cmd.OutOrStdout(), ui.Card(deps.Theme, "Configuration written", ui.KeyValues(deps.Theme, rows)))
	return nil
}

func runConfigShow(cmd *cobra.Command, args []string) error {
	var v any = deps.Config.Get()
	if len(args) == 1 {
		section, err := deps.Config.GetSection(args[0])
		if err != nil {
			return fmt.Errorf("section %q: %w (valid: %v)", args[0], err, config.ValidSectionNames())
		}
		v = map[string]any{args[0]: section}
	}

	enc := yaml.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent(2)
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("encode config: %w", err)
	}
	return enc.Close()
}
