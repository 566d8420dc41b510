package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/andreygs/gocsp/pkg/csp"
	"github.com/andreygs/gocsp/pkg/version"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print build and protocol versions",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		out := cmd.OutOrStdout()
		_, _ = fmt.Fprintf(out, "gocsp %s\n", version.GetFullVersion())
		_, _ = fmt.Fprintf(out, "protocol versions: %s\n", joinProtocolVersions(csp.SupportedProtocolVersions()))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
