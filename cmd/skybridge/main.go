// Skybridge - Skype web client bridge
// Relays a Skype group conversation to host applications.
// License: MIT
//
// Copyright (c) 2026 Skybridge contributors

package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/tinyland-inc/skybridge/cmd/skybridge/internal"
	"github.com/tinyland-inc/skybridge/cmd/skybridge/internal/console"
	"github.com/tinyland-inc/skybridge/cmd/skybridge/internal/gateway"
	"github.com/tinyland-inc/skybridge/cmd/skybridge/internal/login"
	"github.com/tinyland-inc/skybridge/cmd/skybridge/internal/version"
)

func NewSkybridgeCommand() *cobra.Command {
	short := fmt.Sprintf("%s skybridge - Skype web client bridge v%s\n\n", internal.Logo, internal.GetVersion())

	cmd := &cobra.Command{
		Use:          "skybridge",
		Short:        short,
		Example:      "skybridge gateway",
		SilenceUsage: true,
	}

	cmd.PersistentFlags().StringVarP(&internal.ConfigPath, "config", "c", "",
		"Config file (default: ~/.skybridge/config.json)")

	cmd.AddCommand(
		gateway.NewGatewayCommand(),
		login.NewLoginCommand(),
		console.NewConsoleCommand(),
		version.NewVersionCommand(),
	)

	return cmd
}

func main() {
	cmd := NewSkybridgeCommand()
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
