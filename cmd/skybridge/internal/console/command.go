package console

import (
	"github.com/spf13/cobra"
)

func NewConsoleCommand() *cobra.Command {
	var debug bool

	cmd := &cobra.Command{
		Use:   "console",
		Short: "Chat in the configured room from the terminal",
		Args:  cobra.NoArgs,
		Example: `  skybridge console
  skybridge console --debug`,
		RunE: func(_ *cobra.Command, _ []string) error {
			return consoleCmd(debug)
		},
	}

	cmd.Flags().BoolVarP(&debug, "debug", "d", false, "Enable debug logging")

	return cmd
}
