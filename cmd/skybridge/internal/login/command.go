package login

import (
	"github.com/spf13/cobra"
)

func NewLoginCommand() *cobra.Command {
	var (
		debug       bool
		showBrowser bool
	)

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Run the browser login once and report the captured session",
		Long: `Drives the Skype web login in Chrome and waits until the session
credentials have been captured from the web client's requests. Nothing is
stored; use it to check credentials and the login flow before starting
the gateway.`,
		Args: cobra.NoArgs,
		Example: `  skybridge login
  skybridge login --show-browser --debug`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return loginCmd(cmd.Context(), debug, showBrowser)
		},
	}

	cmd.Flags().BoolVarP(&debug, "debug", "d", false, "Enable debug logging")
	cmd.Flags().BoolVar(&showBrowser, "show-browser", false, "Run Chrome with a visible window")

	return cmd
}
