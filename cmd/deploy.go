// SPDX-License-Identifier: Apache-2.0

package cmd

import (
	"fmt"
	"os"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"pgdeclare/cmd/flags"
	"pgdeclare/pkg/db"
	"pgdeclare/pkg/deploy"
	"pgdeclare/pkg/plan"
)

func deployCmd() *cobra.Command {
	deployCmd := &cobra.Command{
		Use:       "deploy <file>",
		Short:     "Reconcile a live database against a declarative schema file",
		Example:   "pgdeclare deploy schema.yaml --postgres-url postgres://...",
		Args:      cobra.ExactArgs(1),
		ValidArgs: []string{"file"},
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			fileName := args[0]

			root, err := readYAML(fileName)
			if err != nil {
				return err
			}

			conn, err := db.Open(ctx, flags.PostgresURL())
			if err != nil {
				return fmt.Errorf("connecting to database: %w", err)
			}
			defer conn.Close()

			sp, _ := pterm.DefaultSpinner.WithText(fmt.Sprintf("Deploying %s...", fileName)).Start()

			modified, err := deploy.Migrate(ctx, root, fileName, conn, flags.Options(), nil, plan.NewLogger())
			if err != nil {
				sp.Fail(fmt.Sprintf("Deployment failed: %s", err))
				return err
			}

			sp.Success(fmt.Sprintf("Deployment complete: %d table(s) modified", modified))
			return nil
		},
	}

	flags.PgConnectionFlags(deployCmd)
	flags.GatingFlags(deployCmd)

	return deployCmd
}

func readYAML(fileName string) (*yaml.Node, error) {
	raw, err := os.ReadFile(fileName)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", fileName, err)
	}

	var root yaml.Node
	if err := yaml.Unmarshal(raw, &root); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", fileName, err)
	}
	return &root, nil
}
