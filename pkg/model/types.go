// Package model holds the YAML Model: the Schema/Table/Column/Index/
// Trigger/Grant entities built by parsing the declarative YAML document,
// including useTemplates inheritance resolution. It is read-only once
// template resolution has completed (see Resolve).
package model

import "github.com/oapi-codegen/nullable"

// ForeignKey is a column's constraint.foreignKey: the target table
// ("schema.table" or a bare table resolved within the current schema) plus
// any extra SQL suffix appended to the ADD CONSTRAINT statement.
type ForeignKey struct {
	References string
	SQL        string
}

// Constraint is a column's optional constraint block.
type Constraint struct {
	PrimaryKey bool
	Nullable   bool
	ForeignKey *ForeignKey
}

// Index is a declared index, attached to a column. Name "+" (or an empty
// name on a boolean-shorthand index) means "synthesize a name from the
// owning table and column list" — see pkg/plan's Index Planner.
type Index struct {
	Name         string
	Unique       *bool
	Concurrently bool
	Using        string
	Order        string
	Nulls        string
	Collate      string
	SQL          string
}

// Trig is a declared trigger.
type Trig struct {
	Name  string
	Event string
	When  string
	Proc  string
}

// GetName implements ordered.Named.
func (t Trig) GetName() string { return t.Name }

// Grant is one grantee's declared privilege set for a table.
type Grant struct {
	Grantee         string
	All             bool
	Select          bool
	Insert          bool
	Update          bool
	Delete          bool
	Truncate        bool
	References      bool
	Trigger         bool
	WithGrantOption bool
	// By names the role the grant should be attributed to for audit
	// purposes. Postgres always attributes a GRANT to the executing
	// session role; By is surfaced through Logger.Info rather than
	// emitted as SQL (see SPEC_FULL.md, "Supplemented features").
	By string
}

// GetName implements ordered.Named.
func (g Grant) GetName() string { return g.Grantee }

// allPrivileges is the expansion of Grant.All per the data model.
var allPrivileges = []string{"SELECT", "INSERT", "UPDATE", "DELETE", "TRUNCATE", "REFERENCES", "TRIGGER"}

// Privileges returns the set of privilege keywords this grant declares,
// expanding All to the full list.
func (g Grant) Privileges() []string {
	if g.All {
		return append([]string(nil), allPrivileges...)
	}
	var privs []string
	add := func(ok bool, name string) {
		if ok {
			privs = append(privs, name)
		}
	}
	add(g.Select, "SELECT")
	add(g.Insert, "INSERT")
	add(g.Update, "UPDATE")
	add(g.Delete, "DELETE")
	add(g.Truncate, "TRUNCATE")
	add(g.References, "REFERENCES")
	add(g.Trigger, "TRIGGER")
	return privs
}

// Column is a declared table column.
type Column struct {
	Name        string
	Type        string
	Default     nullable.Nullable[string]
	Constraint  *Constraint
	Description nullable.Nullable[string]
	SQL         string
	Index       *Index
	// PartitionBy is one of "", "RANGE", "LIST", "HASH".
	PartitionBy string
}

// GetName implements ordered.Named.
func (c Column) GetName() string { return c.Name }

// IsPrimaryKey reports whether this column participates in the table's
// primary key.
func (c Column) IsPrimaryKey() bool {
	return c.Constraint != nil && c.Constraint.PrimaryKey
}

// DefaultValue returns the column's declared defaultValue and whether one
// was specified at all (an explicit null defaultValue is treated the same
// as "absent" since Postgres has no way to declare a column default of
// SQL NULL distinct from no default).
func (c Column) DefaultValue() (string, bool) {
	if !c.Default.IsSpecified() || c.Default.IsNull() {
		return "", false
	}
	v, err := c.Default.Get()
	if err != nil {
		return "", false
	}
	return v, true
}

// DescriptionValue returns the column's declared description, if any.
func (c Column) DescriptionValue() (string, bool) {
	if !c.Description.IsSpecified() || c.Description.IsNull() {
		return "", false
	}
	v, err := c.Description.Get()
	if err != nil {
		return "", false
	}
	return v, true
}

// IsNullable reports the column's declared nullability. Absent a
// constraint block, columns are nullable by default.
func (c Column) IsNullable() bool {
	if c.Constraint == nil {
		return true
	}
	return c.Constraint.Nullable
}
