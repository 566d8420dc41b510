package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/andreygs/gocsp/internal/ui"
	"github.com/andreygs/gocsp/pkg/csp"
)

var explainCmd = &cobra.Command{
	Use:   "explain",
	Short: "Print a reference of the CSP wire format",
	Long: `Render a reference of the CSP wire format: the message header, the three
message kinds, pointer marks, every flag, status code and charset.`,
	Args: cobra.NoArgs,
	RunE: runExplain,
}

func init() {
	rootCmd.AddCommand(explainCmd)

	explainCmd.Flags().Int("width", 100, "Wrap width in columns")
	explainCmd.Flags().Bool("raw", false, "Print the markdown source")
}

const wireFormatMarkdown = `# Common Serialization Protocol

## Header

Every message starts with five octets.

| offset | size | field |
|---|---|---|
| 0 | 1 | protocol version |
| 1 | 2 | common flags, always little endian |
| 3 | 2 | message type, in message byte order |

Everything after the common flags uses big endian order when ` + "`big_endian`" + ` is set and
little endian otherwise.

## Message kinds

- **Status (0)**: one int32 status code.
- **Data (1)**: struct UUID (16 octets), interface version (uint32), data flags (uint32), body.
- **GetSettings (2)**: one kind octet, 0 for a request and 1 for a response. A response carries
  a uint8 count of protocol versions and the versions, the mandatory and forbidden common flags
  (uint16 each), then a uint32 count of (UUID, uint32 version) interface entries.

## Body encoding

- Integers keep their declared width. ` + "`int`" + ` and ` + "`uint`" + ` always take eight octets.
- Strings, slices and maps start with a uint64 element count. Strings count encoded octets.
- Fixed-size arrays carry no count.
- References start with a pointer mark: 0 for nil, 1 for a new value, 2 for a back-reference
  followed by a uint64 offset from the start of the body. Back-references need
  ` + "`check_recursive_pointers`" + `.
`

func explainMarkdown() string {
	var sb strings.Builder
	sb.WriteString(wireFormatMarkdown)

	writeFlagTable(&sb, "Common flags", csp.CommonFlagInfos())
	writeFlagTable(&sb, "Data flags", csp.DataFlagInfos())

	sb.WriteString("\n## Status codes\n\n| code | meaning |\n|---|---|\n")
	for _, s := range csp.Statuses() {
		fmt.Fprintf(&sb, "| %d | %s |\n", int32(s), s.Message())
	}

	sb.WriteString("\n## Charsets\n\n")
	for i, cs := range csp.Charsets() {
		if i > 0 {
			sb.WriteString(", ")
		}
		fmt.Fprintf(&sb, "`%s`", cs)
	}
	fmt.Fprintf(&sb, ".\n\nStrings default to `%s`.\n", csp.DefaultCharset)
	return sb.String()
}

func writeFlagTable(sb *strings.Builder, title string, infos []csp.FlagInfo) {
	fmt.Fprintf(sb, "\n## %s\n\n| value | key | when set | when unset |\n|---|---|---|---|\n", title)
	for _, f := range infos {
		fmt.Fprintf(sb, "| 0x%02X | `%s` | %s | %s |\n", f.Value, f.Key, f.NameWhenSet, f.NameWhenUnset)
	}
}

func runExplain(cmd *cobra.Command, _ []string) error {
	md := explainMarkdown()
	if getBoolFlag(cmd, "raw") {
		_, _ = fmt.Fprint(cmd.OutOrStdout(), md)
		return nil
	}

	rendered, err := ui.RenderMarkdown(md, getIntFlag(cmd, "width"), deps.Theme)
	if err != nil {
		return err
	}
	_, _ = fmt.Fprint(cmd.OutOrStdout(), rendered)
	return nil
}
