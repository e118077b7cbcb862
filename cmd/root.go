// SPDX-License-Identifier: Apache-2.0

package cmd

import (
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// Version is the pgdeclare version, overridden at build time via -ldflags.
var Version = "development"

func init() {
	viper.SetEnvPrefix("PGDECLARE")
	viper.AutomaticEnv()
}

var rootCmd = &cobra.Command{
	Use:          "pgdeclare",
	Short:        "Reconcile a declarative YAML schema against a live PostgreSQL database",
	SilenceUsage: true,
	Version:      Version,
}

// Execute runs the root command.
func Execute() error {
	rootCmd.AddCommand(deployCmd())
	rootCmd.AddCommand(planCmd())
	rootCmd.AddCommand(validateCmd())

	return rootCmd.Execute()
}
