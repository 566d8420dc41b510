package cli

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/andreygs/gocsp/internal/ui"
	"github.com/andreygs/gocsp/pkg/csp"
)

var flagsCmd = &cobra.Command{
	Use:   "flags common|data [mask|names...]",
	Short: "Describe a common or data flag mask",
	Long: `Describe a flag mask given as a number (decimal or 0x hex) or as flag
names separated by spaces or commas. With --pick the mask is chosen in an
interactive form, preselecting any mask given on the command line.

Examples:
  gocsp flags common 0x2
  gocsp flags data allow_unmanaged_pointers,check_recursive_pointers
  gocsp flags data 0x15 --all
  gocsp flags common --pick`,
	Args:      cobra.MinimumNArgs(1),
	ValidArgs: []string{"common", "data"},
	RunE:      runFlags,
}

func init() {
	rootCmd.AddCommand(flagsCmd)

	flagsCmd.Flags().Bool("all", false, "List unset flags too")
	flagsCmd.Flags().Bool("pick", false, "Choose flags interactively")
}

func runFlags(cmd *cobra.Command, args []string) error {
	kind, rest := args[0], args[1:]
	all := getBoolFlag(cmd, "all")
	pick := getBoolFlag(cmd, "pick")

	var (
		desc string
		mask uint32
		keys []string
	)
	switch kind {
	case "common":
		f, err := parseMask(rest, csp.ParseCommonFlags)
		if err != nil {
			return err
		}
		if !f.IsValid() {
			return csp.Errorf(csp.InvalidArgument, "common flags 0x%04x have unknown bits", uint16(f))
		}
		if pick {
			if f, err = ui.NewFlagPicker(deps.Theme, deps.Headless).PickCommon(f); err != nil {
				return pickError(cmd, err)
			}
		}
		desc, mask, keys = f.Describe(!all, true), uint32(f), f.Keys()
	case "data":
		f, err := parseMask(rest, csp.ParseDataFlags)
		if err != nil {
			return err
		}
		if !f.IsValid() {
			return csp.Errorf(csp.InvalidArgument, "data flags 0x%08x have unknown bits", uint32(f))
		}
		if pick {
			if f, err = ui.NewFlagPicker(deps.Theme, deps.Headless).PickData(f); err != nil {
				return pickError(cmd, err)
			}
		}
		desc, mask, keys = f.Describe(!all, true), uint32(f), f.Keys()
	default:
		return fmt.Errorf("unknown flag kind %q: must be common or data", kind)
	}

	rows := []ui.KV{
		{Key: "Mask", Value: fmt.Sprintf("0x%X (%d)", mask, mask)},
		{Key: "Keys", Value: strings.Join(keys, ",")},
	}
	out := cmd.OutOrStdout()
	_, _ = fmt.Fprintln(out, desc)
	_, _ = fmt.Fprintln(out, ui.KeyValues(deps.Theme, rows))
	return nil
}

// parseMask reads a numeric mask or a list of flag names. No arguments
// give an empty mask.
func parseMask[F ~uint16 | ~uint32](args []string, parseNames func([]string) (F, error)) (F, error) {
	if len(args) == 1 {
		if n, err := strconv.ParseUint(args[0], 0, 32); err == nil {
			if uint64(F(n)) != n {
				return 0, csp.Errorf(csp.InvalidArgument, "mask %s does not fit", args[0])
			}
			return F(n), nil
		}
	}

	var names []string
	for _, a := range args {
		for part := range strings.SplitSeq(a, ",") {
			if p := strings.TrimSpace(part); p != "" {
				names = append(names, p)
			}
		}
	}
	return parseNames(names)
}

func pickError(cmd *cobra.Command, err error) error {
	if errors.Is(err, ui.ErrCancelled) {
		_, _ = fmt.Fprintln(cmd.ErrOrStderr(), "Selection cancelled.")
		return nil
	}
	return err
}
