package model

import "pgdeclare/pkg/ordered"

// Schema is a declared schema: a name, optional owner, and its ordered
// tables.
type Schema struct {
	Name       string
	Owner      string
	Tables     *ordered.Map[*Table]
	SourceFile string
}

// GetName implements ordered.Named.
func (s *Schema) GetName() string { return s.Name }

// NewSchema returns an empty Schema ready for construction.
func NewSchema(name string) *Schema {
	return &Schema{Name: name, Tables: ordered.New[*Table]()}
}

// Database is the whole parsed YAML document: an ordered list of schemas.
type Database struct {
	Schemas *ordered.Map[*Schema]
}

// NewDatabase returns an empty Database.
func NewDatabase() *Database {
	return &Database{Schemas: ordered.New[*Schema]()}
}

// FindTable resolves a "schema.table" or bare "table" reference. A bare
// reference is resolved within currentSchema.
func (d *Database) FindTable(ref, currentSchema string) (*Table, bool) {
	schemaName, tableName := ResolveRef(ref, currentSchema)
	schema, ok := d.Schemas.Get(schemaName)
	if !ok {
		return nil, false
	}
	return schema.Tables.Get(tableName)
}

// ResolveRef splits a "schema.table" (or bare "table", resolved against
// currentSchema) reference into its schema and table name, used by the
// foreign-key second pass to name the target without re-parsing the
// reference itself.
func ResolveRef(ref, currentSchema string) (schemaName, tableName string) {
	schemaName, tableName, ok := splitRef(ref)
	if !ok {
		return currentSchema, ref
	}
	return schemaName, tableName
}

// splitRef splits a "schema.table" reference. The second return value is
// false when ref contains no '.', meaning it should be resolved against
// the caller's current schema.
func splitRef(ref string) (schema, table string, ok bool) {
	for i := 0; i < len(ref); i++ {
		if ref[i] == '.' {
			return ref[:i], ref[i+1:], true
		}
	}
	return "", ref, false
}
