// SPDX-License-Identifier: Apache-2.0

package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"pgdeclare/cmd/flags"
	"pgdeclare/pkg/db"
	"pgdeclare/pkg/deploy"
	"pgdeclare/pkg/plan"
)

func planCmd() *cobra.Command {
	planCmd := &cobra.Command{
		Use:       "plan <file>",
		Short:     "Print the SQL a deploy would run, without applying it",
		Example:   "pgdeclare plan schema.yaml --postgres-url postgres://...",
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

			printed := 0
			sink := func(statements []string) error {
				for _, stmt := range statements {
					fmt.Println(stmt)
					printed++
				}
				return nil
			}

			modified, err := deploy.Migrate(ctx, root, fileName, conn, flags.Options(), sink, plan.NewLogger())
			if err != nil {
				return err
			}
			if printed == 0 {
				fmt.Println("-- no changes")
			}
			fmt.Fprintf(cmd.ErrOrStderr(), "-- %d table(s) would be modified\n", modified)
			return nil
		},
	}

	flags.PgConnectionFlags(planCmd)
	flags.GatingFlags(planCmd)

	return planCmd
}
