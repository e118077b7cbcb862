package model

import "pgdeclare/pkg/ordered"

// Table is a declared table: "tableName" plus its columns, triggers, seed
// data, grants and template-inheritance controls.
type Table struct {
	Name string
	// SourceFile is the YAML document path this table came from; a relative
	// DataFile is resolved against its directory.
	SourceFile string

	Description string
	// Transaction is one of "" (meaning "single"), "single", "table",
	// "column" or "retry" — see pkg/plan's retry wrapper.
	Transaction string
	// SQLSuffix is free-form SQL appended after the column list (and any
	// PARTITION BY clause) in CREATE TABLE.
	SQLSuffix string
	// Constraint is a free-form table-level constraint clause.
	Constraint string

	Columns  *ordered.Map[Column]
	Triggers *ordered.Map[Trig]
	Grants   *ordered.Map[Grant]

	DataFile *string
	Data     [][]string

	Owner string

	IsTemplate   bool
	UseTemplates []string
}

// GetName implements ordered.Named.
func (t *Table) GetName() string { return t.Name }

// NewTable returns an empty Table ready for construction.
func NewTable(name string) *Table {
	return &Table{
		Name:     name,
		Columns:  ordered.New[Column](),
		Triggers: ordered.New[Trig](),
		Grants:   ordered.New[Grant](),
	}
}

// PrimaryKeyColumns returns the names of columns whose constraint marks
// them as primary key, in declaration order — "A table's primary-key
// columns are those whose constraint.primaryKey = true; the order in
// which they were declared is the PK column order."
func (t *Table) PrimaryKeyColumns() []string {
	var pk []string
	for _, c := range t.Columns.Values() {
		if c.IsPrimaryKey() {
			pk = append(pk, c.Name)
		}
	}
	return pk
}

// PartitionColumn returns the name and mode of the column declaring
// partitionBy, if any.
func (t *Table) PartitionColumn() (column, mode string, ok bool) {
	for _, c := range t.Columns.Values() {
		if c.PartitionBy != "" {
			return c.Name, c.PartitionBy, true
		}
	}
	return "", "", false
}

// ColumnIndexes returns every (column, Index) pair declared on this
// table's columns, in column declaration order. Several columns may
// declare the same index name (a multi-column index); the Index Planner
// groups these by name.
type ColumnIndex struct {
	Column string
	Index  Index
}

func (t *Table) ColumnIndexes() []ColumnIndex {
	var out []ColumnIndex
	for _, c := range t.Columns.Values() {
		if c.Index != nil {
			out = append(out, ColumnIndex{Column: c.Name, Index: *c.Index})
		}
	}
	return out
}
