// Package loader implements the Live-Schema Loader: the fixed catalogue of
// information_schema/pg_catalog queries that assembles a dbmodel.LiveModel
// snapshot of a target database.
package loader

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"pgdeclare/pkg/db"
	"pgdeclare/pkg/dbmodel"
)

// Load runs the full catalogue of queries against conn and assembles a
// LiveModel. A failure in any step aborts with a LiveLoadError naming the
// step, per spec.md §4.2.
func Load(ctx context.Context, conn db.DB) (*dbmodel.LiveModel, error) {
	model := dbmodel.NewLiveModel()

	dbName, err := currentDatabase(ctx, conn)
	if err != nil {
		return nil, LiveLoadError{Step: "current_database", Err: err}
	}

	if err := loadColumns(ctx, conn, dbName, model); err != nil {
		return nil, LiveLoadError{Step: "columns", Err: err}
	}
	if err := loadComments(ctx, conn, dbName, model); err != nil {
		return nil, LiveLoadError{Step: "comments", Err: err}
	}
	if err := loadOwners(ctx, conn, model); err != nil {
		return nil, LiveLoadError{Step: "owners", Err: err}
	}
	if err := loadPrimaryKeysAndUnique(ctx, conn, model); err != nil {
		return nil, LiveLoadError{Step: "primary keys", Err: err}
	}
	if err := loadForeignKeys(ctx, conn, dbName, model); err != nil {
		return nil, LiveLoadError{Step: "foreign keys", Err: err}
	}
	if err := loadTriggers(ctx, conn, dbName, model); err != nil {
		return nil, LiveLoadError{Step: "triggers", Err: err}
	}
	if err := loadIndexes(ctx, conn, model); err != nil {
		return nil, LiveLoadError{Step: "indexes", Err: err}
	}
	if err := loadGrants(ctx, conn, dbName, model); err != nil {
		return nil, LiveLoadError{Step: "grants", Err: err}
	}

	return model, nil
}

func currentDatabase(ctx context.Context, conn db.DB) (string, error) {
	rows, err := conn.QueryContext(ctx, "SELECT current_database()")
	if err != nil {
		return "", err
	}
	var name string
	if err := db.ScanFirstValue(rows, &name); err != nil {
		return "", err
	}
	return name, nil
}

// loadColumns populates information_schema.columns for every table outside
// pg_catalog/information_schema, rewriting varchar(n) and numeric(p,s) per
// spec.md §4.2 item 1.
func loadColumns(ctx context.Context, conn db.DB, dbName string, model *dbmodel.LiveModel) error {
	rows, err := conn.QueryContext(ctx, `
		SELECT table_schema, table_name, column_name, column_default, is_nullable,
		       data_type, udt_name, character_maximum_length, numeric_precision, numeric_scale
		FROM information_schema.columns
		WHERE table_catalog = $1 AND table_schema NOT IN ('pg_catalog', 'information_schema')
		ORDER BY table_schema, table_name, ordinal_position`, dbName)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var schemaName, tableName, columnName, isNullable, dataType, udtName string
		var columnDefault sql.NullString
		var maxLen, numPrecision, numScale sql.NullInt64
		if err := rows.Scan(&schemaName, &tableName, &columnName, &columnDefault, &isNullable,
			&dataType, &udtName, &maxLen, &numPrecision, &numScale); err != nil {
			return err
		}

		typ := dataType
		if udtName != "" {
			typ = udtName
		}
		switch strings.ToLower(typ) {
		case "varchar":
			if maxLen.Valid {
				typ = fmt.Sprintf("varchar(%d)", maxLen.Int64)
			}
		default:
			if numPrecision.Valid && numScale.Valid && numScale.Int64 > 0 {
				typ = fmt.Sprintf("numeric(%d,%d)", numPrecision.Int64, numScale.Int64)
			}
		}

		table := model.EnsureSchema(schemaName).EnsureTable(tableName)
		var def *string
		if columnDefault.Valid {
			d := columnDefault.String
			def = &d
		}
		table.SetColumn(&dbmodel.PgColumn{
			Name:     columnName,
			Type:     typ,
			Default:  def,
			Nullable: strings.EqualFold(isNullable, "yes"),
		})
	}
	return rows.Err()
}

func loadComments(ctx context.Context, conn db.DB, dbName string, model *dbmodel.LiveModel) error {
	rows, err := conn.QueryContext(ctx, `
		SELECT n.nspname, c.relname,
		       pg_catalog.obj_description(c.oid, 'pg_class')
		FROM pg_catalog.pg_class c
		JOIN pg_catalog.pg_namespace n ON n.oid = c.relnamespace
		WHERE n.nspname NOT IN ('pg_catalog', 'information_schema')
		  AND c.relkind IN ('r', 'p')
		  AND pg_catalog.obj_description(c.oid, 'pg_class') IS NOT NULL`)
	if err != nil {
		return err
	}
	defer rows.Close()
	for rows.Next() {
		var schemaName, tableName, comment string
		if err := rows.Scan(&schemaName, &tableName, &comment); err != nil {
			return err
		}
		if schema, ok := model.Schemas.Get(schemaName); ok {
			if table, ok := schema.Tables.Get(tableName); ok {
				table.Comment = comment
			}
		}
	}
	if err := rows.Err(); err != nil {
		return err
	}

	rows, err = conn.QueryContext(ctx, `
		SELECT n.nspname, c.relname, a.attname,
		       pg_catalog.col_description(c.oid, a.attnum)
		FROM pg_catalog.pg_attribute a
		JOIN pg_catalog.pg_class c ON c.oid = a.attrelid
		JOIN pg_catalog.pg_namespace n ON n.oid = c.relnamespace
		WHERE n.nspname NOT IN ('pg_catalog', 'information_schema')
		  AND a.attnum > 0 AND NOT a.attisdropped
		  AND pg_catalog.col_description(c.oid, a.attnum) IS NOT NULL`)
	if err != nil {
		return err
	}
	defer rows.Close()
	for rows.Next() {
		var schemaName, tableName, columnName, comment string
		if err := rows.Scan(&schemaName, &tableName, &columnName, &comment); err != nil {
			return err
		}
		if schema, ok := model.Schemas.Get(schemaName); ok {
			if table, ok := schema.Tables.Get(tableName); ok {
				if col, ok := table.Columns.Get(columnName); ok {
					col.Comment = comment
				}
			}
		}
	}
	return rows.Err()
}

func loadOwners(ctx context.Context, conn db.DB, model *dbmodel.LiveModel) error {
	rows, err := conn.QueryContext(ctx, `SELECT schemaname, tablename, tableowner FROM pg_tables`)
	if err != nil {
		return err
	}
	defer rows.Close()
	for rows.Next() {
		var schemaName, tableName, owner string
		if err := rows.Scan(&schemaName, &tableName, &owner); err != nil {
			return err
		}
		if schema, ok := model.Schemas.Get(schemaName); ok {
			if table, ok := schema.Tables.Get(tableName); ok {
				table.Owner = owner
			}
		}
	}
	return rows.Err()
}

// loadPrimaryKeysAndUnique decodes pg_constraint for ordered PK columns and
// the PK constraint name, then applies the serial/bigserial rewrite rule
// in spec.md §4.2 item 4 to single-column keys. It does not query pg_index;
// no per-column unique flag is loaded.
func loadPrimaryKeysAndUnique(ctx context.Context, conn db.DB, model *dbmodel.LiveModel) error {
	rows, err := conn.QueryContext(ctx, `
		SELECT n.nspname, c.relname, con.conname, a.attname, a.attnum, k.ord
		FROM pg_catalog.pg_constraint con
		JOIN pg_catalog.pg_class c ON c.oid = con.conrelid
		JOIN pg_catalog.pg_namespace n ON n.oid = c.relnamespace
		JOIN LATERAL unnest(con.conkey) WITH ORDINALITY AS k(attnum, ord) ON true
		JOIN pg_catalog.pg_attribute a ON a.attrelid = c.oid AND a.attnum = k.attnum
		WHERE con.contype = 'p' AND n.nspname NOT IN ('pg_catalog', 'information_schema')
		ORDER BY n.nspname, c.relname, k.ord`)
	if err != nil {
		return err
	}
	defer rows.Close()

	type pkRow struct {
		schema, table, conname, column string
	}
	var pkRows []pkRow
	for rows.Next() {
		var r pkRow
		var attnum, ord int
		if err := rows.Scan(&r.schema, &r.table, &r.conname, &r.column, &attnum, &ord); err != nil {
			return err
		}
		pkRows = append(pkRows, r)
	}
	if err := rows.Err(); err != nil {
		return err
	}

	pkColumns := map[string][]string{}
	pkNames := map[string]string{}
	for _, r := range pkRows {
		key := r.schema + "." + r.table
		pkColumns[key] = append(pkColumns[key], r.column)
		pkNames[key] = r.conname
	}
	for key, cols := range pkColumns {
		parts := strings.SplitN(key, ".", 2)
		schema, ok := model.Schemas.Get(parts[0])
		if !ok {
			continue
		}
		table, ok := schema.Tables.Get(parts[1])
		if !ok {
			continue
		}
		table.SetPrimaryKey(cols, pkNames[key])
		if len(cols) == 1 {
			applySerialRewrite(table, cols[0])
		}
	}
	return nil
}

// applySerialRewrite implements spec.md §4.2 item 4: a single-column,
// not-null, integer-typed PK whose default is nextval('<table>_id_seq') is
// rewritten to serial/bigserial with no default, so a YAML model declaring
// "serial" compares equal to the live column.
func applySerialRewrite(table *dbmodel.PgTable, column string) {
	col, ok := table.Columns.Get(column)
	if !ok || col.Nullable || col.Default == nil {
		return
	}
	expectedSeq := fmt.Sprintf("%s_id_seq'::regclass)", table.Name)
	if !strings.HasPrefix(*col.Default, "nextval('") || !strings.HasSuffix(*col.Default, expectedSeq) {
		return
	}
	switch strings.ToLower(col.Type) {
	case "int4", "integer", "int":
		col.Type = "serial"
	case "int8", "bigint":
		col.Type = "bigserial"
	default:
		return
	}
	col.Default = nil
}

const noAction = "NO ACTION"

func loadForeignKeys(ctx context.Context, conn db.DB, dbName string, model *dbmodel.LiveModel) error {
	rows, err := conn.QueryContext(ctx, `
		SELECT tc.table_schema, tc.table_name, kcu.column_name,
		       ccu.table_schema AS foreign_schema, ccu.table_name AS foreign_table, ccu.column_name AS foreign_column,
		       tc.constraint_name, rc.update_rule, rc.delete_rule
		FROM information_schema.table_constraints tc
		JOIN information_schema.key_column_usage kcu ON tc.constraint_name = kcu.constraint_name AND tc.table_schema = kcu.table_schema
		JOIN information_schema.constraint_column_usage ccu ON ccu.constraint_name = tc.constraint_name
		JOIN information_schema.referential_constraints rc ON tc.constraint_name = rc.constraint_name
		WHERE tc.constraint_type = 'FOREIGN KEY' AND tc.table_catalog = $1`, dbName)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var schemaName, tableName, columnName, fSchema, fTable, fColumn, conName, updateRule, deleteRule string
		if err := rows.Scan(&schemaName, &tableName, &columnName, &fSchema, &fTable, &fColumn, &conName, &updateRule, &deleteRule); err != nil {
			return err
		}
		schema, ok := model.Schemas.Get(schemaName)
		if !ok {
			continue
		}
		table, ok := schema.Tables.Get(tableName)
		if !ok {
			continue
		}

		onClause := ""
		if updateRule != noAction || deleteRule != noAction {
			onClause = fmt.Sprintf("ON UPDATE %s ON DELETE %s", updateRule, deleteRule)
		}

		if fk, exists := table.ForeignKeys.Get(conName); exists {
			fk.Columns = append(fk.Columns, columnName)
			fk.ReferencedColumns = append(fk.ReferencedColumns, fColumn)
			continue
		}
		table.SetForeignKey(&dbmodel.PgForeignKey{
			Name:              conName,
			Columns:           []string{columnName},
			ReferencedSchema:  fSchema,
			ReferencedTable:   fTable,
			ReferencedColumns: []string{fColumn},
			OnClause:          onClause,
		})
	}
	return rows.Err()
}

// Postgres pg_trigger.tgtype bitfield, catalog/pg_trigger.h.
const (
	triggerTypeRow      = 1 << 0
	triggerTypeBefore   = 1 << 1
	triggerTypeInsert   = 1 << 2
	triggerTypeDelete   = 1 << 3
	triggerTypeUpdate   = 1 << 4
	triggerTypeTruncate = 1 << 5
	triggerTypeInstead  = 1 << 6
)

func loadTriggers(ctx context.Context, conn db.DB, dbName string, model *dbmodel.LiveModel) error {
	rows, err := conn.QueryContext(ctx, `
		SELECT n.nspname, c.relname, t.tgname, t.tgtype, p.proname, pn.nspname
		FROM pg_catalog.pg_trigger t
		JOIN pg_catalog.pg_class c ON c.oid = t.tgrelid
		JOIN pg_catalog.pg_namespace n ON n.oid = c.relnamespace
		JOIN pg_catalog.pg_proc p ON p.oid = t.tgfoid
		JOIN pg_catalog.pg_namespace pn ON pn.oid = p.pronamespace
		WHERE NOT t.tgisinternal
		  AND n.nspname NOT IN ('pg_catalog', 'information_schema')
		ORDER BY n.nspname, c.relname, t.tgname`)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var schemaName, tableName, trigName, procName, procSchema string
		var tgtype int
		if err := rows.Scan(&schemaName, &tableName, &trigName, &tgtype, &procName, &procSchema); err != nil {
			return err
		}
		schema, ok := model.Schemas.Get(schemaName)
		if !ok {
			continue
		}
		table, ok := schema.Tables.Get(tableName)
		if !ok {
			continue
		}

		table.SetTrigger(&dbmodel.PgTrigger{
			Name:        trigName,
			Event:       decodeTriggerEvent(tgtype),
			Orientation: decodeTriggerOrientation(tgtype),
			Proc:        fmt.Sprintf("%s.%s()", procSchema, procName),
		})
	}
	return rows.Err()
}

func decodeTriggerEvent(tgtype int) string {
	var timing string
	switch {
	case tgtype&triggerTypeInstead != 0:
		timing = "INSTEAD OF"
	case tgtype&triggerTypeBefore != 0:
		timing = "BEFORE"
	default:
		timing = "AFTER"
	}

	var events []string
	if tgtype&triggerTypeInsert != 0 {
		events = append(events, "INSERT")
	}
	if tgtype&triggerTypeDelete != 0 {
		events = append(events, "DELETE")
	}
	if tgtype&triggerTypeUpdate != 0 {
		events = append(events, "UPDATE")
	}
	if tgtype&triggerTypeTruncate != 0 {
		events = append(events, "TRUNCATE")
	}
	return timing + " " + strings.Join(events, " OR ")
}

func decodeTriggerOrientation(tgtype int) string {
	if tgtype&triggerTypeRow != 0 {
		return "FOR EACH ROW"
	}
	return "FOR EACH STATEMENT"
}

func loadIndexes(ctx context.Context, conn db.DB, model *dbmodel.LiveModel) error {
	rows, err := conn.QueryContext(ctx, `
		SELECT n.nspname, ct.relname, ci.relname, i.indisunique, am.amname,
		       a.attname, (i.indoption[k.ord-1] & 1) != 0 AS is_desc,
		       (i.indoption[k.ord-1] & 2) != 0 AS nulls_first,
		       COALESCE(NULLIF(coll.collname, 'default'), '')
		FROM pg_catalog.pg_index i
		JOIN pg_catalog.pg_class ct ON ct.oid = i.indrelid
		JOIN pg_catalog.pg_class ci ON ci.oid = i.indexrelid
		JOIN pg_catalog.pg_namespace n ON n.oid = ct.relnamespace
		JOIN pg_catalog.pg_am am ON am.oid = ci.relam
		JOIN LATERAL unnest(i.indkey) WITH ORDINALITY AS k(attnum, ord) ON true
		JOIN pg_catalog.pg_attribute a ON a.attrelid = ct.oid AND a.attnum = k.attnum
		LEFT JOIN pg_catalog.pg_collation coll ON coll.oid = i.indcollation[k.ord-1]
		WHERE NOT i.indisprimary AND n.nspname NOT IN ('pg_catalog', 'information_schema')
		ORDER BY n.nspname, ct.relname, ci.relname, k.ord`)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var schemaName, tableName, indexName, method, columnName, collate string
		var unique, desc, nullsFirst bool
		if err := rows.Scan(&schemaName, &tableName, &indexName, &unique, &method, &columnName, &desc, &nullsFirst, &collate); err != nil {
			return err
		}
		schema, ok := model.Schemas.Get(schemaName)
		if !ok {
			continue
		}
		table, ok := schema.Tables.Get(tableName)
		if !ok {
			continue
		}

		idx, exists := table.Indexes.Get(indexName)
		if !exists {
			idx = &dbmodel.PgIndex{Name: indexName, Unique: unique, Method: method}
		}
		nulls := "LAST"
		if nullsFirst {
			nulls = "FIRST"
		}
		idx.Columns = append(idx.Columns, dbmodel.PgIndexColumn{Name: columnName, Desc: desc, Nulls: nulls, Collate: collate})
		table.SetIndex(idx)
	}
	return rows.Err()
}

func loadGrants(ctx context.Context, conn db.DB, dbName string, model *dbmodel.LiveModel) error {
	rows, err := conn.QueryContext(ctx, `
		SELECT table_schema, table_name, grantee, privilege_type, is_grantable
		FROM information_schema.table_privileges
		WHERE table_catalog = $1 AND grantee <> grantor`, dbName)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var schemaName, tableName, grantee, privilege, isGrantable string
		if err := rows.Scan(&schemaName, &tableName, &grantee, &privilege, &isGrantable); err != nil {
			return err
		}
		schema, ok := model.Schemas.Get(schemaName)
		if !ok {
			continue
		}
		table, ok := schema.Tables.Get(tableName)
		if !ok {
			continue
		}

		grant, exists := table.Grants.Get(grantee)
		if !exists {
			grant = &dbmodel.PgGrant{Grantee: grantee, Privileges: map[string]bool{}}
		}
		grant.Privileges[strings.ToUpper(privilege)] = true
		if strings.EqualFold(isGrantable, "yes") {
			grant.WithGrantOption = true
		}
		table.SetGrant(grant)
	}
	return rows.Err()
}
