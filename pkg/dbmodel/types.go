// Package dbmodel holds the in-memory mirror of a live PostgreSQL
// database's schema state: the snapshot loaded by the Live-Schema Loader
// and mutated in place by the planners as they emit SQL.
package dbmodel

import "pgdeclare/pkg/ordered"

// LiveModel is the whole loaded snapshot: an ordered map of schemas keyed
// by schema name.
type LiveModel struct {
	Schemas *ordered.Map[*PgSchema]
}

// NewLiveModel returns an empty snapshot.
func NewLiveModel() *LiveModel {
	return &LiveModel{Schemas: ordered.New[*PgSchema]()}
}

// PgSchema is a loaded schema and its tables.
type PgSchema struct {
	Name   string
	Owner  string
	Tables *ordered.Map[*PgTable]
}

func (s *PgSchema) GetName() string { return s.Name }

// NewPgSchema returns an empty schema ready to receive tables.
func NewPgSchema(name string) *PgSchema {
	return &PgSchema{Name: name, Tables: ordered.New[*PgTable]()}
}

// PgTable mirrors the live state of one table.
type PgTable struct {
	Name       string
	Comment    string
	Owner      string
	Columns    *ordered.Map[*PgColumn]
	PrimaryKey []string // ordered column names; empty if no PK
	PKName     string   // live constraint name, "" if no PK
	ForeignKeys *ordered.Map[*PgForeignKey]
	Triggers    *ordered.Map[*PgTrigger]
	Indexes     *ordered.Map[*PgIndex]
	Grants      *ordered.Map[*PgGrant]
}

func (t *PgTable) GetName() string { return t.Name }

// NewPgTable returns an empty table ready for the loader or a planner to
// populate.
func NewPgTable(name string) *PgTable {
	return &PgTable{
		Name:        name,
		Columns:     ordered.New[*PgColumn](),
		ForeignKeys: ordered.New[*PgForeignKey](),
		Triggers:    ordered.New[*PgTrigger](),
		Indexes:     ordered.New[*PgIndex](),
		Grants:      ordered.New[*PgGrant](),
	}
}

// PgColumn mirrors one live column.
type PgColumn struct {
	Name     string
	Type     string
	Default  *string
	Nullable bool
	Comment  string
}

func (c *PgColumn) GetName() string { return c.Name }

// PgForeignKey mirrors one live foreign-key constraint. Columns is the set
// of local columns it covers; for the single-column FKs this planner ever
// emits, len(Columns) == 1, but the loader records whatever PostgreSQL
// reports.
type PgForeignKey struct {
	Name              string
	Columns           []string
	ReferencedSchema  string
	ReferencedTable   string
	ReferencedColumns []string
	OnClause          string // "" or "ON UPDATE x ON DELETE y"
}

func (f *PgForeignKey) GetName() string { return f.Name }

// PgTrigger mirrors one live trigger, decoded from pg_trigger's tgtype
// bitfield into readable SQL clause fragments.
type PgTrigger struct {
	Name        string
	Event       string // e.g. "BEFORE UPDATE"
	Orientation string // "FOR EACH ROW" | "FOR EACH STATEMENT"
	Proc        string // "schema.name()"
}

func (t *PgTrigger) GetName() string { return t.Name }

// PgIndex mirrors one live index, including enough per-column detail to
// decide index equivalence without re-querying the catalogue.
type PgIndex struct {
	Name    string
	Unique  bool
	Method  string // default "btree"
	Columns []PgIndexColumn
}

func (i *PgIndex) GetName() string { return i.Name }

// PgIndexColumn is one column within a live index, decoded from
// pg_index.indoption bits (bit 0 => DESC, bit 1 => NULLS FIRST).
type PgIndexColumn struct {
	Name    string
	Desc    bool
	Nulls   string // "FIRST" or "LAST"
	Collate string
}

// PgGrant accumulates the privileges one grantee holds on a table.
type PgGrant struct {
	Grantee         string
	Privileges      map[string]bool
	WithGrantOption bool
}

func (g *PgGrant) GetName() string { return g.Grantee }
