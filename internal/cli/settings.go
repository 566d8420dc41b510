package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/andreygs/gocsp/internal/ui"
	"github.com/andreygs/gocsp/pkg/csp"
	"github.com/andreygs/gocsp/pkg/csp/message"
)

var settingsCmd = &cobra.Command{
	Use:   "settings",
	Short: "Query the built-in dispatcher for its settings",
	Long: `Send a GetSettings request through the built-in dispatcher and print the
response: supported protocol versions, common flag constraints and the
registered interfaces. With --encode the response message is written to
a file, or to standard output for "-".`,
	Args: cobra.NoArgs,
	RunE: runSettings,
}

func init() {
	rootCmd.AddCommand(settingsCmd)

	settingsCmd.Flags().String("encode", "", `Write the settings response to this file ("-" for stdout)`)
}

func runSettings(cmd *cobra.Command, _ []string) error {
	opts, err := headerOptions(false)
	if err != nil {
		return err
	}
	req, err := message.EncodeSettingsRequest(opts...)
	if err != nil {
		return fmt.Errorf("encode settings request: %w", err)
	}
	resp, err := deps.Dispatcher.Handle(commandContext(cmd), req)
	if err != nil {
		return fmt.Errorf("query settings: %w", err)
	}

	if path := getStringFlag(cmd, "encode"); path != "" {
		return writeOutput(cmd, path, resp)
	}

	msg, err := message.Parse(resp)
	if err != nil {
		return fmt.Errorf("parse settings response: %w", err)
	}
	switch m := msg.(type) {
	case *message.SettingsMessage:
		body := ui.KeyValues(deps.Theme, settingsRows(m)[1:])
		_, _ = fmt.Fprintln(cmd.OutOrStdout(), ui.Card(deps.Theme, "Dispatcher settings", body))
		return nil
	case *message.StatusMessage:
		if err := m.Err(); err != nil {
			return fmt.Errorf("dispatcher refused settings request: %w", err)
		}
	}
	return csp.Errorf(csp.InvalidType, "unexpected %s in reply", msg.MessageHeader().MessageType)
}
