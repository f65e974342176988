package main

import (
	"github.com/spf13/cobra"

	"github.com/authgate/authgate/internal/platform/config"
)

// Global flags available to all subcommands.
var configFile string

// NewRootCmd creates the root command for the authgate CLI.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "authgate",
		Short: "authgate - token issuance for admin, CPF and anonymous users",
		Long: `authgate authenticates administrators and CPF holders against a Cognito
user pool, registers new accounts, and issues signed session tokens,
including tokens for anonymous visitors.`,
		SilenceUsage: true,
	}

	cmd.PersistentFlags().StringVar(&configFile, "config", "", "config file path")

	cmd.AddCommand(NewServeCmd())
	cmd.AddCommand(NewTokenCmd())

	return cmd
}

func loadConfig() (*config.Config, error) {
	var paths []string
	if configFile != "" {
		paths = append(paths, configFile)
	}
	return config.Load(paths...)
}
