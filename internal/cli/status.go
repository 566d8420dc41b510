package cli

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/andreygs/gocsp/internal/ui"
	"github.com/andreygs/gocsp/pkg/csp"
	"github.com/andreygs/gocsp/pkg/csp/message"
)

var statusCmd = &cobra.Command{
	Use:   "status [code]",
	Short: "Describe a CSP status code or encode a status message",
	Long: `Describe a CSP status code. With --encode a status message carrying the
code is written to a file, or to standard output for "-". The protocol
version and byte order come from the serialization config. Negative codes
go after "--" so they are not read as flags.

Examples:
  gocsp status -- -11
  gocsp status --encode reply.bin --little-endian -- -10
  gocsp status --list`,
	Args: cobra.MaximumNArgs(1),
	RunE: runStatus,
}

func init() {
	rootCmd.AddCommand(statusCmd)

	statusCmd.Flags().String("encode", "", `Write a status message to this file ("-" for stdout)`)
	statusCmd.Flags().Bool("little-endian", false, "Encode in little endian order")
	statusCmd.Flags().Bool("list", false, "List every known status")
}

func runStatus(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()
	if getBoolFlag(cmd, "list") {
		rows := make([]ui.KV, 0, len(csp.Statuses()))
		for _, s := range csp.Statuses() {
			rows = append(rows, ui.KV{Key: strconv.Itoa(int(s)), Value: s.Message()})
		}
		_, _ = fmt.Fprintln(out, ui.KeyValues(deps.Theme, rows))
		return nil
	}
	if len(args) == 0 {
		return fmt.Errorf("status code required (or use --list)")
	}

	code, err := strconv.ParseInt(args[0], 0, 32)
	if err != nil {
		return fmt.Errorf("invalid status code %q: %w", args[0], err)
	}
	s := csp.Status(code)

	if path := getStringFlag(cmd, "encode"); path != "" {
		opts, err := headerOptions(getBoolFlag(cmd, "little-endian"))
		if err != nil {
			return err
		}
		data, err := message.EncodeStatus(s, opts...)
		if err != nil {
			return fmt.Errorf("encode status: %w", err)
		}
		return writeOutput(cmd, path, data)
	}

	line := s.String()
	switch {
	case !s.IsKnown():
		line = deps.Theme.Warning(line)
	case s.IsError():
		line = deps.Theme.Error(line)
	default:
		line = deps.Theme.Success(line)
	}
	_, _ = fmt.Fprintln(out, line)
	return nil
}

// headerOptions returns the configured message options, optionally forcing
// little endian order.
func headerOptions(littleEndian bool) ([]message.Option, error) {
	s := deps.Config.Get().Serialization
	opts, err := s.BuilderOptions()
	if err != nil {
		return nil, err
	}
	if littleEndian {
		common, err := s.CommonFlags()
		if err != nil {
			return nil, err
		}
		opts = append(opts, message.WithCommonFlags(common&^csp.BigEndian))
	}
	return opts, nil
}
