package cli

import (
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/andreygs/gocsp/internal/ui"
	"github.com/andreygs/gocsp/pkg/csp"
	"github.com/andreygs/gocsp/pkg/csp/message"
)

var inspectCmd = &cobra.Command{
	Use:   "inspect [file|-]",
	Short: "Parse a CSP message and describe it",
	Long: `Parse a CSP message from a file or standard input and print its header,
flags and payload summary.

Examples:
  gocsp inspect reply.bin
  gocsp status --encode - -- -11 | gocsp inspect --hex
  gocsp inspect request.bin --traits --all`,
	Args: cobra.MaximumNArgs(1),
	RunE: runInspect,
}

func init() {
	rootCmd.AddCommand(inspectCmd)

	inspectCmd.Flags().Bool("hex", false, "Append a hex dump of the message")
	inspectCmd.Flags().Bool("traits", false, "Show the type layout of known data message structs")
	inspectCmd.Flags().Bool("all", false, "List unset flags too")
}

func runInspect(cmd *cobra.Command, args []string) error {
	path := ""
	if len(args) > 0 {
		path = args[0]
	}
	data, err := readInput(cmd, path)
	if err != nil {
		return err
	}

	msg, err := message.Parse(data)
	if err != nil {
		return fmt.Errorf("parse message: %w", err)
	}

	onlySet := !getBoolFlag(cmd, "all")
	h := msg.MessageHeader()
	rows := []ui.KV{
		{Key: "Size", Value: fmt.Sprintf("%d octets", len(data))},
		{Key: "Protocol", Value: h.ProtocolVersion.String()},
		{Key: "Type", Value: h.MessageType.String()},
		{Key: "Byte order", Value: byteOrderName(h.ByteOrder())},
		{Key: "Common flags", Value: h.CommonFlags.Describe(onlySet, true)},
	}

	var extra []string
	switch m := msg.(type) {
	case *message.StatusMessage:
		rows = append(rows, ui.KV{Key: "Status", Value: m.Status.String()})
	case *message.DataMessage:
		rows = append(rows,
			ui.KV{Key: "Struct", Value: structName(m.StructID)},
			ui.KV{Key: "Interface", Value: interfaceVersionName(m.InterfaceVersion)},
			ui.KV{Key: "Data flags", Value: m.DataFlags.Describe(onlySet, true)},
			ui.KV{Key: "Body", Value: fmt.Sprintf("%d octets", len(m.Body))},
		)
		if getBoolFlag(cmd, "traits") {
			extra = append(extra, traitsOf(m))
		}
	case *message.SettingsMessage:
		rows = append(rows, settingsRows(m)...)
	}

	out := cmd.OutOrStdout()
	_, _ = fmt.Fprintln(out, ui.Card(deps.Theme, "CSP message", ui.KeyValues(deps.Theme, rows)))
	for _, e := range extra {
		_, _ = fmt.Fprintln(out, e)
	}
	if getBoolFlag(cmd, "hex") {
		_, _ = fmt.Fprint(out, hex.Dump(data))
	}
	return nil
}

func byteOrderName(o binary.ByteOrder) string {
	if o == binary.BigEndian {
		return "big endian"
	}
	return "little endian"
}

// interfaceVersionName shows the raw value and its major.minor reading.
func interfaceVersionName(v csp.RawInterfaceVersion) string {
	sem := csp.SemanticVersion{Major: uint16(v >> 16), Minor: uint16(v)}
	return fmt.Sprintf("%d (%s)", uint32(v), sem)
}

func structName(id uuid.UUID) string {
	if t, ok := knownTypes[id]; ok {
		return fmt.Sprintf("%s (%v)", id, t)
	}
	return id.String()
}

func traitsOf(m *message.DataMessage) string {
	t, ok := knownTypes[m.StructID]
	if !ok {
		return deps.Theme.Muted("no local type for " + m.StructID.String())
	}
	tr, err := deps.Registry.TraitsOf(t)
	if err != nil {
		return deps.Theme.Error(fmt.Sprintf("derive traits: %v", err))
	}
	return ui.Card(deps.Theme, "Layout", tr.String())
}

func settingsRows(m *message.SettingsMessage) []ui.KV {
	if m.Request {
		return []ui.KV{{Key: "Settings", Value: "request"}}
	}
	s := m.Settings
	rows := []ui.KV{
		{Key: "Settings", Value: "response"},
		{Key: "Versions", Value: joinProtocolVersions(s.ProtocolVersions)},
		{Key: "Mandatory", Value: s.MandatoryCommonFlags.Describe(true, true)},
		{Key: "Forbidden", Value: s.ForbiddenCommonFlags.Describe(true, true)},
		{Key: "Interfaces", Value: fmt.Sprintf("%d", len(s.Interfaces))},
	}
	for _, e := range s.Interfaces {
		rows = append(rows, ui.KV{Key: "  " + structName(e.ID), Value: interfaceVersionName(e.Version)})
	}
	return rows
}

func joinProtocolVersions(vs []csp.ProtocolVersion) string {
	parts := make([]string, len(vs))
	for i, v := range vs {
		parts[i] = fmt.Sprintf("%d", uint8(v))
	}
	return strings.Join(parts, ", ")
}
