package dbmodel

// Mutators below keep the live-model mirror in step with every statement a
// planner emits, per the "mirror consistency" invariant: after planning a
// table, re-running the same planner over the mutated LiveModel must
// produce no further statements.

// EnsureSchema returns the schema by name, creating and inserting an empty
// one if it is not yet present.
func (m *LiveModel) EnsureSchema(name string) *PgSchema {
	if s, ok := m.Schemas.Get(name); ok {
		return s
	}
	s := NewPgSchema(name)
	m.Schemas.Set(s)
	return s
}

// EnsureTable returns the table by name within s, creating and inserting
// an empty one if it is not yet present.
func (s *PgSchema) EnsureTable(name string) *PgTable {
	if t, ok := s.Tables.Get(name); ok {
		return t
	}
	t := NewPgTable(name)
	s.Tables.Set(t)
	return t
}

// SetColumn inserts or overwrites a column in place.
func (t *PgTable) SetColumn(c *PgColumn) {
	t.Columns.Set(c)
}

// SetColumnType rewrites an existing column's type in place, leaving
// everything else (default, nullability, comment) untouched.
func (t *PgTable) SetColumnType(name, newType string) {
	if c, ok := t.Columns.Get(name); ok {
		c.Type = newType
	}
}

// SetOwner rewrites the table's owner in place.
func (t *PgTable) SetOwner(owner string) { t.Owner = owner }

// SetPrimaryKey replaces the table's primary key column list and
// synthesised constraint name.
func (t *PgTable) SetPrimaryKey(columns []string, constraintName string) {
	t.PrimaryKey = columns
	t.PKName = constraintName
}

// SetTrigger inserts or overwrites a trigger in place.
func (t *PgTable) SetTrigger(trig *PgTrigger) { t.Triggers.Set(trig) }

// SetIndex inserts or overwrites an index in place. A dropped-and-recreated
// index is always immediately re-Set by the caller with its new
// definition, so the mirror never needs to represent an index's absence
// mid-plan.
func (t *PgTable) SetIndex(idx *PgIndex) { t.Indexes.Set(idx) }

// SetForeignKey inserts or overwrites a foreign key in place.
func (t *PgTable) SetForeignKey(fk *PgForeignKey) { t.ForeignKeys.Set(fk) }

// SetGrant replaces the recorded privilege set for one grantee.
func (t *PgTable) SetGrant(g *PgGrant) { t.Grants.Set(g) }

// HasForeignKeyOn reports whether any recorded foreign key already covers
// column, used by the second FK pass to avoid re-adding a constraint that
// already exists.
func (t *PgTable) HasForeignKeyOn(column string) bool {
	for _, fk := range t.ForeignKeys.Values() {
		for _, c := range fk.Columns {
			if c == column {
				return true
			}
		}
	}
	return false
}
