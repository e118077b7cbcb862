// SPDX-License-Identifier: Apache-2.0

package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"pgdeclare/internal/metaschema"
	"pgdeclare/pkg/model"
)

func validateCmd() *cobra.Command {
	return &cobra.Command{
		Use:       "validate <file>",
		Short:     "Validate a declarative schema file without connecting to a database",
		Example:   "pgdeclare validate schema.yaml",
		Args:      cobra.ExactArgs(1),
		ValidArgs: []string{"file"},
		RunE: func(cmd *cobra.Command, args []string) error {
			fileName := args[0]

			raw, err := os.ReadFile(fileName)
			if err != nil {
				return fmt.Errorf("reading %s: %w", fileName, err)
			}
			if err := metaschema.ValidateYAML(raw); err != nil {
				return fmt.Errorf("%s does not match the schema document shape: %w", fileName, err)
			}

			var root yaml.Node
			if err := yaml.Unmarshal(raw, &root); err != nil {
				return fmt.Errorf("parsing %s: %w", fileName, err)
			}

			database, err := model.Parse(&root, fileName)
			if err != nil {
				return fmt.Errorf("parsing %s: %w", fileName, err)
			}
			if err := model.Resolve(database); err != nil {
				return fmt.Errorf("resolving templates in %s: %w", fileName, err)
			}

			fmt.Printf("%s is valid\n", fileName)
			return nil
		},
	}
}
