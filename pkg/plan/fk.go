package plan

import (
	"fmt"
	"strings"

	"github.com/lib/pq"

	"pgdeclare/pkg/dbmodel"
	"pgdeclare/pkg/model"
)

// PlanForeignKeys is the second pass from spec.md §4.4 "Foreign keys —
// second pass": run only after every table in every schema has been
// created or altered, so a forward reference to a table declared later in
// the document always resolves.
func PlanForeignKeys(liveModel *dbmodel.LiveModel, database *model.Database, opts Options, logger Logger) ([]Batch, error) {
	var stmts []string

	for _, schema := range database.Schemas.Values() {
		for _, table := range schema.Tables.Values() {
			if table.IsTemplate {
				continue
			}
			liveSchema, ok := liveModel.Schemas.Get(schema.Name)
			if !ok {
				continue
			}
			liveTable, ok := liveSchema.Tables.Get(table.Name)
			if !ok {
				continue
			}

			for _, col := range table.Columns.Values() {
				if col.Constraint == nil || col.Constraint.ForeignKey == nil {
					continue
				}
				if liveTable.HasForeignKeyOn(col.Name) {
					continue
				}

				fk := col.Constraint.ForeignKey
				targetSchema, targetTable := model.ResolveRef(fk.References, schema.Name)
				target, ok := database.FindTable(fk.References, schema.Name)
				if !ok {
					return nil, fmt.Errorf("foreign key on %s.%s.%s references unknown table %q", schema.Name, table.Name, col.Name, fk.References)
				}
				pkCols := target.PrimaryKeyColumns()
				if len(pkCols) == 0 {
					return nil, fmt.Errorf("foreign key on %s.%s.%s references %q which has no primary key", schema.Name, table.Name, col.Name, fk.References)
				}

				constraintName := fmt.Sprintf("fk_%s_%s_%s_%s_%s", schema.Name, table.Name, targetSchema, targetTable, col.Name)
				quotedPK := make([]string, len(pkCols))
				for i, c := range pkCols {
					quotedPK[i] = pq.QuoteIdentifier(c)
				}

				stmt := fmt.Sprintf("ALTER TABLE %s ADD CONSTRAINT %s FOREIGN KEY (%s) REFERENCES %s (%s)",
					qualify(schema.Name, table.Name),
					pq.QuoteIdentifier(constraintName),
					pq.QuoteIdentifier(col.Name),
					qualify(targetSchema, targetTable),
					strings.Join(quotedPK, ", "))
				if fk.SQL != "" {
					stmt += " " + fk.SQL
				}
				stmt += ";"

				stmts = append(stmts, stmt)
				liveTable.SetForeignKey(&dbmodel.PgForeignKey{
					Name:              constraintName,
					Columns:           []string{col.Name},
					ReferencedSchema:  targetSchema,
					ReferencedTable:   targetTable,
					ReferencedColumns: pkCols,
				})
			}
		}
	}

	if len(stmts) == 0 {
		return nil, nil
	}
	if opts.WithDdlRetry {
		for i, s := range stmts {
			stmts[i] = wrapRetry(s)
		}
	}
	return []Batch{{Phase: "foreign keys", Statements: stmts}}, nil
}
