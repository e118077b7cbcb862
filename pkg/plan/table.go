package plan

import (
	"fmt"
	"strings"

	"github.com/lib/pq"

	"pgdeclare/pkg/classify"
	"pgdeclare/pkg/dbmodel"
	"pgdeclare/pkg/model"
)

// Batch is one group of statements executed together, per spec.md §4.4
// "Emission order per table" — each batch fails or succeeds as a unit so
// an error identifies the phase it happened in.
type Batch struct {
	Phase      string
	Statements []string
}

func (b Batch) empty() bool { return len(b.Statements) == 0 }

// PlanTable runs the nine-step per-table plan from spec.md §4.4 against
// one YAML table and the live model, mutating the mirror as it goes and
// returning the ordered batches to execute.
func PlanTable(liveModel *dbmodel.LiveModel, schema *model.Schema, table *model.Table, opts Options, logger Logger) ([]Batch, error) {
	logger.LogTableStart(schema.Name, table.Name)

	var schemaDDL, tableDDL, comments []string

	liveSchema, schemaExists := liveModel.Schemas.Get(schema.Name)
	if !schemaExists {
		if schema.Name != "public" {
			stmt := fmt.Sprintf("CREATE SCHEMA IF NOT EXISTS %s", pq.QuoteIdentifier(schema.Name))
			if schema.Owner != "" {
				stmt += fmt.Sprintf(" AUTHORIZATION %s", pq.QuoteIdentifier(schema.Owner))
			}
			schemaDDL = append(schemaDDL, stmt+";")
		}
		liveSchema = liveModel.EnsureSchema(schema.Name)
		liveSchema.Owner = schema.Owner
	}

	newColumns := map[string]bool{}

	liveTable, tableExists := liveSchema.Tables.Get(table.Name)
	if !tableExists {
		tableDDL = append(tableDDL, buildCreateTableSQL(schema.Name, table))
		liveTable = liveSchema.EnsureTable(table.Name)
		populateCreatedTable(liveTable, table)
		for _, col := range table.Columns.Values() {
			newColumns[col.Name] = true
		}
		if table.Owner != "" {
			tableDDL = append(tableDDL, fmt.Sprintf("ALTER TABLE %s OWNER TO %s;", qualify(schema.Name, table.Name), pq.QuoteIdentifier(table.Owner)))
			liveTable.SetOwner(table.Owner)
		}
		if !opts.ExcludeTriggers {
			stmts, err := planTriggers(schema.Name, table, liveTable, opts, logger)
			if err != nil {
				return nil, err
			}
			tableDDL = append(tableDDL, stmts...)
		}
	} else {
		compositePK := len(table.PrimaryKeyColumns()) > 1

		for _, col := range table.Columns.Values() {
			if _, exists := liveTable.Columns.Get(col.Name); exists {
				continue
			}
			def := columnDefSQL(col, compositePK)
			tableDDL = append(tableDDL, fmt.Sprintf("ALTER TABLE %s ADD COLUMN %s;", qualify(schema.Name, table.Name), def))
			liveTable.SetColumn(columnToLive(col))
			newColumns[col.Name] = true
		}

		for _, col := range table.Columns.Values() {
			liveCol, exists := liveTable.Columns.Get(col.Name)
			if !exists || liveCol.Type == col.Type {
				continue
			}

			outcome := classify.Classify(liveCol.Type, col.Type)
			if outcome == classify.NoChange {
				continue
			}

			stmt := fmt.Sprintf("ALTER TABLE %s ALTER COLUMN %s TYPE %s", qualify(schema.Name, table.Name), pq.QuoteIdentifier(col.Name), col.Type)
			if outcome == classify.Incompatible {
				stmt += fmt.Sprintf(" USING %s::%s", pq.QuoteIdentifier(col.Name), col.Type)
			}
			stmt += ";"

			switch outcome {
			case classify.SizeExtension, classify.Compatible:
				tableDDL = append(tableDDL, stmt)
				liveTable.SetColumnType(col.Name, col.Type)
			case classify.SizeReduction, classify.Incompatible:
				object := objectName(schema.Name, table.Name, col.Name)
				switch decide(opts.WithSizeCut, opts) {
				case decisionEmit:
					tableDDL = append(tableDDL, stmt)
					liveTable.SetColumnType(col.Name, col.Type)
				case decisionSkip:
					logger.LogSkipped(object, fmt.Sprintf("column type change is %s, withSizeCut is false", outcome))
				case decisionAbort:
					return nil, UngatedDestructiveChangeError{Object: object, Reason: fmt.Sprintf("column type change is %s", outcome), SQL: stmt}
				}
			}
		}

		if table.Owner != "" && table.Owner != liveTable.Owner {
			tableDDL = append(tableDDL, fmt.Sprintf("ALTER TABLE %s OWNER TO %s;", qualify(schema.Name, table.Name), pq.QuoteIdentifier(table.Owner)))
			liveTable.SetOwner(table.Owner)
		}

		if !opts.ExcludeTriggers {
			stmts, err := planTriggers(schema.Name, table, liveTable, opts, logger)
			if err != nil {
				return nil, err
			}
			tableDDL = append(tableDDL, stmts...)
		}

		stmts, err := planPrimaryKey(schema.Name, table, liveTable, opts, logger)
		if err != nil {
			return nil, err
		}
		tableDDL = append(tableDDL, stmts...)
	}

	comments = append(comments, planComments(schema.Name, table, liveTable, newColumns)...)

	indexStmts, err := planIndexes(schema.Name, table.Name, groupIndexes(table.Name, table), liveTable, opts, logger)
	if err != nil {
		return nil, err
	}

	grantStmts, err := planGrants(schema.Name, table.Name, table, liveTable, opts, logger)
	if err != nil {
		return nil, err
	}

	seedStmts := planSeedData(schema.Name, table)

	var batches []Batch
	for _, b := range []Batch{
		{Phase: "schema", Statements: schemaDDL},
		{Phase: "table", Statements: tableDDL},
		{Phase: "comments", Statements: comments},
		{Phase: "indexes", Statements: indexStmts},
		{Phase: "grants", Statements: grantStmts},
		{Phase: "seed", Statements: seedStmts},
	} {
		if !b.empty() {
			batches = append(batches, b)
		}
	}

	total := 0
	for _, b := range batches {
		total += len(b.Statements)
	}
	logger.LogTableComplete(schema.Name, table.Name, total)

	return withRetryWrapping(batches, table, opts), nil
}

// withRetryWrapping wraps every statement in the schema/table batches in
// the lock-timeout retry block when the table opts into it via its
// transaction field or the global withDdlRetry option (spec.md §4.4
// "Retry wrapper", §6 withDdlRetry).
func withRetryWrapping(batches []Batch, table *model.Table, opts Options) []Batch {
	if !opts.WithDdlRetry && table.Transaction != "table" && table.Transaction != "retry" {
		return batches
	}
	out := make([]Batch, len(batches))
	for i, b := range batches {
		if b.Phase != "schema" && b.Phase != "table" {
			out[i] = b
			continue
		}
		wrapped := make([]string, len(b.Statements))
		for j, stmt := range b.Statements {
			wrapped[j] = wrapRetry(stmt)
		}
		out[i] = Batch{Phase: b.Phase, Statements: wrapped}
	}
	return out
}

func buildCreateTableSQL(schemaName string, table *model.Table) string {
	compositePK := len(table.PrimaryKeyColumns()) > 1

	var cols []string
	for _, col := range table.Columns.Values() {
		cols = append(cols, columnDefSQL(col, compositePK))
	}
	if compositePK {
		quoted := make([]string, len(table.PrimaryKeyColumns()))
		for i, c := range table.PrimaryKeyColumns() {
			quoted[i] = pq.QuoteIdentifier(c)
		}
		cols = append(cols, fmt.Sprintf("PRIMARY KEY (%s)", strings.Join(quoted, ", ")))
	}
	if table.Constraint != "" {
		cols = append(cols, table.Constraint)
	}

	var suffix string
	if col, mode, ok := table.PartitionColumn(); ok {
		suffix += fmt.Sprintf(" PARTITION BY %s (%s)", mode, pq.QuoteIdentifier(col))
	}
	if table.SQLSuffix != "" {
		suffix += " " + table.SQLSuffix
	}

	return fmt.Sprintf("CREATE TABLE %s (%s)%s;", qualify(schemaName, table.Name), strings.Join(cols, ", "), suffix)
}

// columnDefSQL builds "name type [NOT NULL] [DEFAULT …] [column-sql]" for
// both CREATE TABLE and ADD COLUMN, per spec.md §4.4 item 2. Inline
// PRIMARY KEY is added only for a lone, non-composite primary-key column;
// composite keys are expressed as a table-level constraint instead.
func columnDefSQL(col model.Column, compositePK bool) string {
	var b strings.Builder
	b.WriteString(pq.QuoteIdentifier(col.Name))
	b.WriteString(" ")
	b.WriteString(col.Type)

	if col.IsPrimaryKey() && !compositePK {
		b.WriteString(" PRIMARY KEY")
	} else if !col.IsNullable() {
		b.WriteString(" NOT NULL")
	}

	if dv, ok := col.DefaultValue(); ok {
		fmt.Fprintf(&b, " DEFAULT %s", dv)
	}
	if col.SQL != "" {
		b.WriteString(" ")
		b.WriteString(col.SQL)
	}
	return b.String()
}

// columnToLive builds the mirror entry for a column this run just
// created. It never pre-seeds Comment: spec.md §1 only lets a column
// comment be written once, by the COMMENT ON COLUMN statement planComments
// emits for a genuinely new column, not by this mirror constructor.
func columnToLive(col model.Column) *dbmodel.PgColumn {
	live := &dbmodel.PgColumn{Name: col.Name, Type: col.Type, Nullable: col.IsNullable()}
	if dv, ok := col.DefaultValue(); ok {
		live.Default = &dv
	}
	return live
}

func populateCreatedTable(liveTable *dbmodel.PgTable, table *model.Table) {
	for _, col := range table.Columns.Values() {
		liveTable.SetColumn(columnToLive(col))
	}
	if pk := table.PrimaryKeyColumns(); len(pk) > 0 {
		liveTable.SetPrimaryKey(pk, fmt.Sprintf("%s_pkey", table.Name))
	}
}

func planTriggers(schemaName string, table *model.Table, live *dbmodel.PgTable, opts Options, logger Logger) ([]string, error) {
	var stmts []string
	for _, trig := range table.Triggers.Values() {
		desiredEvent := strings.TrimSpace(strings.ToUpper(trig.When) + " " + strings.ToUpper(trig.Event))
		const desiredOrientation = "FOR EACH ROW"
		proc := trig.Proc
		if !strings.HasSuffix(proc, ")") {
			proc += "()"
		}
		if !strings.Contains(proc, ".") {
			logger.Info("trigger proc has no schema prefix, matching by suffix", "table", objectName(schemaName, table.Name), "trigger", trig.Name, "proc", proc)
		}

		liveTrig, exists := live.Triggers.Get(trig.Name)
		if !exists {
			stmt := fmt.Sprintf("CREATE TRIGGER %s %s ON %s %s EXECUTE FUNCTION %s;", pq.QuoteIdentifier(trig.Name), desiredEvent, qualify(schemaName, table.Name), desiredOrientation, proc)
			stmts = append(stmts, stmt)
			live.SetTrigger(&dbmodel.PgTrigger{Name: trig.Name, Event: desiredEvent, Orientation: desiredOrientation, Proc: proc})
			continue
		}

		procMatches := liveTrig.Proc == proc || strings.HasSuffix(liveTrig.Proc, proc)
		if liveTrig.Event == desiredEvent && liveTrig.Orientation == desiredOrientation && procMatches {
			continue
		}

		object := objectName(schemaName, table.Name, trig.Name)
		createStmt := fmt.Sprintf("CREATE TRIGGER %s %s ON %s %s EXECUTE FUNCTION %s;", pq.QuoteIdentifier(trig.Name), desiredEvent, qualify(schemaName, table.Name), desiredOrientation, proc)
		switch decide(opts.WithTriggerDrop, opts) {
		case decisionEmit:
			stmts = append(stmts, fmt.Sprintf("DROP TRIGGER IF EXISTS %s ON %s;", pq.QuoteIdentifier(trig.Name), qualify(schemaName, table.Name)))
			stmts = append(stmts, createStmt)
			live.SetTrigger(&dbmodel.PgTrigger{Name: trig.Name, Event: desiredEvent, Orientation: desiredOrientation, Proc: proc})
		case decisionSkip:
			logger.LogSkipped(object, "trigger definition changed, withTriggerDrop is false")
		case decisionAbort:
			return nil, UngatedDestructiveChangeError{Object: object, Reason: "trigger definition changed", SQL: createStmt}
		}
	}
	return stmts, nil
}

func planPrimaryKey(schemaName string, table *model.Table, live *dbmodel.PgTable, opts Options, logger Logger) ([]string, error) {
	desired := table.PrimaryKeyColumns()
	if stringSlicesEqual(desired, live.PrimaryKey) {
		return nil, nil
	}
	if len(desired) == 0 {
		return nil, nil
	}

	quoted := make([]string, len(desired))
	for i, c := range desired {
		quoted[i] = pq.QuoteIdentifier(c)
	}
	newName := fmt.Sprintf("%s_pkey", table.Name)
	addStmt := fmt.Sprintf("ALTER TABLE %s ADD PRIMARY KEY (%s);", qualify(schemaName, table.Name), strings.Join(quoted, ", "))

	if len(live.PrimaryKey) == 0 {
		live.SetPrimaryKey(desired, newName)
		return []string{addStmt}, nil
	}

	object := objectName(schemaName, table.Name)
	switch decide(opts.WithIndexDrop, opts) {
	case decisionEmit:
		dropStmt := fmt.Sprintf("ALTER TABLE %s DROP CONSTRAINT %s;", qualify(schemaName, table.Name), pq.QuoteIdentifier(live.PKName))
		live.SetPrimaryKey(desired, newName)
		return []string{dropStmt, addStmt}, nil
	case decisionSkip:
		logger.LogSkipped(object, "primary key changed, withIndexDrop is false")
		return nil, nil
	default:
		return nil, UngatedDestructiveChangeError{Object: object, Reason: "primary key changed", SQL: addStmt}
	}
}

// planComments emits COMMENT ON TABLE whenever the declared table
// description is non-empty and differs from the live comment, and
// COMMENT ON COLUMN for declared column descriptions. Column comments are
// restricted to newColumns (the columns this call just created, via
// CREATE TABLE or ADD COLUMN) per spec.md §1 Non-goals: "does not alter
// … comments … of pre-existing columns after the first deployment." A
// pre-existing column's YAML description is never compared against the
// live comment, so it can never trigger a COMMENT ON COLUMN.
func planComments(schemaName string, table *model.Table, live *dbmodel.PgTable, newColumns map[string]bool) []string {
	var stmts []string
	if table.Description != "" && table.Description != live.Comment {
		stmts = append(stmts, fmt.Sprintf("COMMENT ON TABLE %s IS %s;", qualify(schemaName, table.Name), pq.QuoteLiteral(table.Description)))
		live.Comment = table.Description
	}
	for _, col := range table.Columns.Values() {
		if !newColumns[col.Name] {
			continue
		}
		desc, ok := col.DescriptionValue()
		if !ok {
			continue
		}
		liveCol, exists := live.Columns.Get(col.Name)
		if !exists {
			continue
		}
		stmts = append(stmts, fmt.Sprintf("COMMENT ON COLUMN %s.%s IS %s;", qualify(schemaName, table.Name), pq.QuoteIdentifier(col.Name), pq.QuoteLiteral(desc)))
		liveCol.Comment = desc
	}
	return stmts
}

// planSeedData implements spec.md §4.4 item 9, quoting every value with
// pq.QuoteLiteral rather than the literal unescaped-quote behaviour the
// REDESIGN FLAGS section calls out as a bug (see DESIGN.md).
func planSeedData(schemaName string, table *model.Table) []string {
	if len(table.Data) == 0 {
		return nil
	}

	var colNames []string
	for _, c := range table.Columns.Values() {
		colNames = append(colNames, pq.QuoteIdentifier(c.Name))
	}

	pk := table.PrimaryKeyColumns()
	var conflictClause string
	if len(pk) > 0 {
		quoted := make([]string, len(pk))
		for i, c := range pk {
			quoted[i] = pq.QuoteIdentifier(c)
		}
		conflictClause = fmt.Sprintf(" ON CONFLICT (%s) DO NOTHING", strings.Join(quoted, ", "))
	} else {
		conflictClause = " ON CONFLICT DO NOTHING"
	}

	var stmts []string
	for _, row := range table.Data {
		vals := make([]string, len(row))
		for i, v := range row {
			vals[i] = pq.QuoteLiteral(v)
		}
		stmts = append(stmts, fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)%s;", qualify(schemaName, table.Name), strings.Join(colNames, ", "), strings.Join(vals, ", "), conflictClause))
	}
	return stmts
}

func stringSlicesEqual(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
