// Package deploy drives one migration invocation end to end: parse and
// resolve the YAML Model, load the live schema, plan every table, run the
// foreign-key second pass, and commit or roll back the single transaction
// the whole run owns (spec.md §5 "CONCURRENCY & RESOURCE MODEL").
package deploy

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"pgdeclare/internal/metaschema"
	"pgdeclare/internal/seedfile"
	"pgdeclare/pkg/db"
	"pgdeclare/pkg/loader"
	"pgdeclare/pkg/model"
	"pgdeclare/pkg/plan"
)

// DryRunSink receives the statements of one batch instead of having them
// executed, per spec.md §6 "dryRun, if provided, is a sink taking a list
// of SQL strings... when provided, no statement is executed."
type DryRunSink func(statements []string) error

// Migrate is the primary entry point (spec.md §6): parse+resolve the YAML
// document named fileName, plan and (unless dryRun is set) apply every
// table against conn, and return the count of tables that had at least
// one statement planned.
func Migrate(ctx context.Context, root *yaml.Node, fileName string, conn db.DB, opts plan.Options, dryRun DryRunSink, logger plan.Logger) (int, error) {
	if logger == nil {
		logger = plan.NewNoopLogger()
	}

	if err := metaschema.ValidateNode(root); err != nil {
		return 0, fmt.Errorf("validating %s: %w", fileName, err)
	}

	database, err := model.Parse(root, fileName)
	if err != nil {
		return 0, fmt.Errorf("parsing %s: %w", fileName, err)
	}
	if err := model.Resolve(database); err != nil {
		return 0, fmt.Errorf("resolving templates in %s: %w", fileName, err)
	}
	if err := loadSeedFiles(database); err != nil {
		return 0, fmt.Errorf("loading seed files for %s: %w", fileName, err)
	}

	tx, err := conn.BeginTx(ctx)
	if err != nil {
		return 0, fmt.Errorf("beginning transaction: %w", err)
	}
	txDB := db.NewTxDB(tx)

	live, err := loader.Load(ctx, txDB)
	if err != nil {
		return 0, errors.Join(err, tx.Rollback())
	}

	modified := 0
	for _, schema := range database.Schemas.Values() {
		for _, table := range schema.Tables.Values() {
			if table.IsTemplate {
				continue
			}

			batches, err := plan.PlanTable(live, schema, table, opts, logger)
			if err != nil {
				return 0, errors.Join(fmt.Errorf("planning %s.%s: %w", schema.Name, table.Name, err), tx.Rollback())
			}
			if len(batches) > 0 {
				modified++
			}
			if err := execute(ctx, txDB, batches, dryRun); err != nil {
				return 0, errors.Join(err, tx.Rollback())
			}
		}
	}

	fkBatches, err := plan.PlanForeignKeys(live, database, opts, logger)
	if err != nil {
		return 0, errors.Join(fmt.Errorf("planning foreign keys: %w", err), tx.Rollback())
	}
	if err := execute(ctx, txDB, fkBatches, dryRun); err != nil {
		return 0, errors.Join(err, tx.Rollback())
	}

	if dryRun != nil {
		return modified, tx.Rollback()
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("committing transaction: %w", err)
	}
	return modified, nil
}

// loadSeedFiles reads every table's data_file (if set) and appends its
// rows after any inline data rows, so pkg/plan's seed-data planner only
// ever has to deal with Table.Data.
func loadSeedFiles(database *model.Database) error {
	for _, schema := range database.Schemas.Values() {
		for _, table := range schema.Tables.Values() {
			if table.DataFile == nil {
				continue
			}
			rows, err := seedfile.Load(filepath.Dir(table.SourceFile), *table.DataFile)
			if err != nil {
				return fmt.Errorf("table %s.%s: %w", schema.Name, table.Name, err)
			}
			table.Data = append(table.Data, rows...)
		}
	}
	return nil
}

func execute(ctx context.Context, txDB db.DB, batches []plan.Batch, dryRun DryRunSink) error {
	for _, b := range batches {
		if dryRun != nil {
			if err := dryRun(b.Statements); err != nil {
				return plan.ExecutionError{Phase: b.Phase, SQL: strings.Join(b.Statements, "\n"), Err: err}
			}
			continue
		}
		for _, stmt := range b.Statements {
			if _, err := txDB.ExecContext(ctx, stmt); err != nil {
				return plan.ExecutionError{Phase: b.Phase, SQL: stmt, Err: err}
			}
		}
	}
	return nil
}
