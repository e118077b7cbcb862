package plan

import (
	"fmt"
	"strings"

	"github.com/lib/pq"

	"pgdeclare/pkg/dbmodel"
	"pgdeclare/pkg/model"
)

// plannedIndexColumn is one column within a desired index, with its
// ordering default already resolved. Nulls is the explicit YAML override
// ("FIRST"/"LAST"), or "" when the author didn't set one, in which case
// effectiveNulls falls back to the ASC/DESC-derived default.
type plannedIndexColumn struct {
	Name    string
	Desc    bool
	Nulls   string
	Collate string
}

// effectiveNulls resolves the NULLS placement that will actually be
// written into SQL and compared for equivalence: the explicit YAML
// override if set, else the nullsDefault for the column's ASC/DESC order
// (spec.md §4.5 equivalence rule).
func (c plannedIndexColumn) effectiveNulls() string {
	if c.Nulls != "" {
		return c.Nulls
	}
	return nullsDefault(c.Desc)
}

// plannedIndex is a desired index after grouping per-column Index
// declarations that share an explicit name into one multi-column index.
type plannedIndex struct {
	Name         string
	Unique       bool
	Concurrently bool
	Method       string
	ExtraSQL     string
	Columns      []plannedIndexColumn
}

// groupIndexes implements spec.md §4.5 "group desired indexes per table by
// name". Columns declared with the "+" shorthand (boolean true, or an
// object omitting name — though that case never reaches here since
// parseIndex drops it) never merge with one another: each gets its own
// single-column index, since a YAML author ticking index:true on several
// columns means "index each of these", not "index all of these together".
// Only columns sharing the same explicit name merge into one multi-column
// index — that's the only case the "col1_col2_…" synthesized name
// phrasing in spec.md §4.5 is describing.
func groupIndexes(tableName string, table *model.Table) []plannedIndex {
	type group struct {
		rep  model.Index
		cols []plannedIndexColumn
	}

	var order []string
	groups := map[string]*group{}

	for _, ci := range table.ColumnIndexes() {
		key := ci.Index.Name
		if key == "" || key == "+" {
			key = "+" + ci.Column
		}
		g, ok := groups[key]
		if !ok {
			g = &group{rep: ci.Index}
			groups[key] = g
			order = append(order, key)
		}
		g.cols = append(g.cols, plannedIndexColumn{
			Name:    ci.Column,
			Desc:    normalizeDesc(ci.Index.Order),
			Nulls:   normalizeNulls(ci.Index.Nulls),
			Collate: ci.Index.Collate,
		})
	}

	result := make([]plannedIndex, 0, len(order))
	for _, key := range order {
		g := groups[key]
		name := g.rep.Name
		if name == "" || name == "+" {
			cols := make([]string, len(g.cols))
			for i, c := range g.cols {
				cols[i] = c.Name
			}
			name = fmt.Sprintf("idx_%s_%s", tableName, strings.Join(cols, "_"))
		}

		unique := g.rep.Unique != nil && *g.rep.Unique
		if !unique && strings.Contains(strings.ToUpper(g.rep.SQL), "UNIQUE") {
			unique = true
		}

		result = append(result, plannedIndex{
			Name:         name,
			Unique:       unique,
			Concurrently: g.rep.Concurrently,
			Method:       g.rep.Using,
			ExtraSQL:     g.rep.SQL,
			Columns:      g.cols,
		})
	}
	return result
}

func normalizeDesc(order string) bool {
	return strings.EqualFold(strings.TrimSpace(order), "DESC")
}

// normalizeNulls upper-cases an explicit YAML "nulls" value, returning ""
// (no override) for anything other than FIRST/LAST.
func normalizeNulls(nulls string) string {
	switch strings.ToUpper(strings.TrimSpace(nulls)) {
	case "FIRST":
		return "FIRST"
	case "LAST":
		return "LAST"
	default:
		return ""
	}
}

// nullsDefault returns the implicit NULLS placement for a column ordering:
// LAST for ASC, FIRST for DESC, per spec.md §4.5 equivalence rule.
func nullsDefault(desc bool) string {
	if desc {
		return "FIRST"
	}
	return "LAST"
}

func buildCreateIndexSQL(schemaName, tableName string, idx plannedIndex) string {
	var b strings.Builder
	b.WriteString("CREATE ")
	if idx.Unique {
		b.WriteString("UNIQUE ")
	}
	b.WriteString("INDEX ")
	if idx.Concurrently {
		b.WriteString("CONCURRENTLY ")
	}
	b.WriteString("IF NOT EXISTS ")
	b.WriteString(pq.QuoteIdentifier(idx.Name))
	b.WriteString(" ON ")
	b.WriteString(qualify(schemaName, tableName))
	if idx.Method != "" {
		b.WriteString(" USING ")
		b.WriteString(idx.Method)
	}
	b.WriteString(" (")
	for i, c := range idx.Columns {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(pq.QuoteIdentifier(c.Name))
		if c.Collate != "" {
			fmt.Fprintf(&b, " COLLATE %s", pq.QuoteIdentifier(c.Collate))
		}
		if c.Desc {
			b.WriteString(" DESC")
		} else {
			b.WriteString(" ASC")
		}
		if c.effectiveNulls() == "FIRST" {
			b.WriteString(" NULLS FIRST")
		} else {
			b.WriteString(" NULLS LAST")
		}
	}
	b.WriteString(")")
	if idx.ExtraSQL != "" && !strings.Contains(strings.ToUpper(idx.ExtraSQL), "UNIQUE") {
		b.WriteString(" ")
		b.WriteString(idx.ExtraSQL)
	}
	b.WriteString(";")
	return b.String()
}

func buildDropIndexSQL(schemaName, name string) string {
	return fmt.Sprintf("DROP INDEX IF EXISTS %s.%s;", pq.QuoteIdentifier(schemaName), pq.QuoteIdentifier(name))
}

// indexEquivalent implements the equivalence rule from spec.md §4.5: same
// uniqueness, same method (default btree), same ordered column list with
// matching name/order/nulls/collation per column.
func indexEquivalent(desired plannedIndex, live *dbmodel.PgIndex) bool {
	method := desired.Method
	if method == "" {
		method = "btree"
	}
	liveMethod := live.Method
	if liveMethod == "" {
		liveMethod = "btree"
	}
	if desired.Unique != live.Unique || !strings.EqualFold(method, liveMethod) {
		return false
	}
	if len(desired.Columns) != len(live.Columns) {
		return false
	}
	for i, dc := range desired.Columns {
		lc := live.Columns[i]
		if dc.Name != lc.Name || dc.Desc != lc.Desc || dc.Collate != lc.Collate || dc.effectiveNulls() != lc.Nulls {
			return false
		}
	}
	return true
}

// planIndexes diffs the desired indexes for one table against the live
// model, mutating the mirror as it decides each index's fate.
func planIndexes(schemaName, tableName string, desired []plannedIndex, live *dbmodel.PgTable, opts Options, logger Logger) ([]string, error) {
	var stmts []string

	for _, idx := range desired {
		liveIdx, exists := live.Indexes.Get(idx.Name)
		if !exists {
			stmt := buildCreateIndexSQL(schemaName, tableName, idx)
			stmts = append(stmts, stmt)
			live.SetIndex(toLiveIndex(idx))
			continue
		}

		if indexEquivalent(idx, liveIdx) {
			continue
		}

		object := objectName(schemaName, tableName, idx.Name)
		switch decide(opts.WithIndexDrop, opts) {
		case decisionEmit:
			stmts = append(stmts, buildDropIndexSQL(schemaName, idx.Name))
			stmts = append(stmts, buildCreateIndexSQL(schemaName, tableName, idx))
			live.SetIndex(toLiveIndex(idx))
		case decisionSkip:
			logger.LogSkipped(object, "index definition changed, withIndexDrop is false")
		case decisionAbort:
			return nil, UngatedDestructiveChangeError{Object: object, Reason: "index definition changed", SQL: buildCreateIndexSQL(schemaName, tableName, idx)}
		}
	}

	return stmts, nil
}

func toLiveIndex(idx plannedIndex) *dbmodel.PgIndex {
	method := idx.Method
	if method == "" {
		method = "btree"
	}
	cols := make([]dbmodel.PgIndexColumn, len(idx.Columns))
	for i, c := range idx.Columns {
		cols[i] = dbmodel.PgIndexColumn{Name: c.Name, Desc: c.Desc, Nulls: c.effectiveNulls(), Collate: c.Collate}
	}
	return &dbmodel.PgIndex{Name: idx.Name, Unique: idx.Unique, Method: method, Columns: cols}
}
