package model

import (
	"fmt"

	"github.com/oapi-codegen/nullable"
	"gopkg.in/yaml.v3"

	"pgdeclare/pkg/yamlutil"
)

// Parse builds a Database from the top-level "database" document described
// in spec.md §6 ("YAML surface"). fileName is recorded on each Schema and
// Table; pkg/deploy resolves a table's relative data_file path against its
// directory.
//
// Parse assumes the document has already passed the meta-schema oracle
// (internal/metaschema) — it performs only the structural validation the
// oracle cannot express: duplicate names, partitionBy shape, and so on.
func Parse(root *yaml.Node, fileName string) (*Database, error) {
	doc := root
	if doc.Kind == yaml.DocumentNode {
		doc = doc.Content[0]
	}

	db := NewDatabase()
	databaseField := yamlutil.Field(doc, "database")
	if databaseField == nil || databaseField.Kind != yaml.SequenceNode {
		return db, nil
	}

	for _, schemaEntry := range databaseField.Content {
		schema, err := parseSchema(schemaEntry, fileName)
		if err != nil {
			return nil, err
		}
		if err := db.Schemas.Append(schema); err != nil {
			return nil, fmt.Errorf("database: %w", err)
		}
	}
	return db, nil
}

func parseSchema(node *yaml.Node, fileName string) (*Schema, error) {
	name := yamlutil.SafeName(yamlutil.Str(node, "schemaName", ""))
	schema := NewSchema(name)
	schema.Owner = yamlutil.Str(node, "owner", "")
	schema.SourceFile = fileName

	tablesField := yamlutil.Field(node, "tables")
	if tablesField == nil || tablesField.Kind != yaml.SequenceNode {
		return schema, nil
	}

	for _, tableEntry := range tablesField.Content {
		tableNode := yamlutil.Field(tableEntry, "table")
		if tableNode == nil {
			tableNode = tableEntry
		}
		table, err := parseTable(tableNode, fileName)
		if err != nil {
			return nil, err
		}
		if schema.Tables.Has(table.Name) {
			return nil, DuplicateTableError{Schema: name, Table: table.Name}
		}
		if err := schema.Tables.Append(table); err != nil {
			return nil, fmt.Errorf("schema %q: %w", name, err)
		}
	}
	return schema, nil
}

func parseTable(node *yaml.Node, fileName string) (*Table, error) {
	name := yamlutil.SafeName(yamlutil.Str(node, "tableName", ""))
	table := NewTable(name)
	table.SourceFile = fileName
	table.Description = yamlutil.Str(node, "description", "")
	table.Transaction = yamlutil.Str(node, "transaction", "")
	table.SQLSuffix = yamlutil.StrRaw(node, "sql", "")
	table.Constraint = yamlutil.StrRaw(node, "constraint", "")
	table.Owner = yamlutil.Str(node, "owner", "")
	table.IsTemplate = yamlutil.Bool(node, "template", false)
	table.DataFile = yamlutil.StrPtr(node, "data_file")
	table.Data = yamlutil.Rows(node, "data")

	if useTemplates := yamlutil.Field(node, "useTemplates"); useTemplates != nil && useTemplates.Kind == yaml.SequenceNode {
		for _, n := range useTemplates.Content {
			table.UseTemplates = append(table.UseTemplates, n.Value)
		}
	}

	seenPartition := false
	if columnsField := yamlutil.Field(node, "columns"); columnsField != nil && columnsField.Kind == yaml.SequenceNode {
		for _, columnEntry := range columnsField.Content {
			columnNode := yamlutil.Field(columnEntry, "column")
			if columnNode == nil {
				columnNode = columnEntry
			}
			col, err := parseColumn(columnNode, name)
			if err != nil {
				return nil, err
			}
			if col.PartitionBy != "" {
				if seenPartition {
					return nil, InvalidPartitionByError{Table: name}
				}
				seenPartition = true
			}
			if table.Columns.Has(col.Name) {
				return nil, DuplicateColumnError{Table: name, Column: col.Name}
			}
			if err := table.Columns.Append(col); err != nil {
				return nil, fmt.Errorf("table %q: %w", name, err)
			}
		}
	}

	if triggersField := yamlutil.Field(node, "triggers"); triggersField != nil && triggersField.Kind == yaml.SequenceNode {
		for _, triggerEntry := range triggersField.Content {
			triggerNode := yamlutil.Field(triggerEntry, "trigger")
			if triggerNode == nil {
				triggerNode = triggerEntry
			}
			trig := Trig{
				Name:  yamlutil.SafeName(yamlutil.Str(triggerNode, "name", "")),
				Event: yamlutil.Str(triggerNode, "event", ""),
				When:  yamlutil.Str(triggerNode, "when", ""),
				Proc:  yamlutil.StrRaw(triggerNode, "proc", ""),
			}
			if table.Triggers.Has(trig.Name) {
				return nil, DuplicateTriggerError{Table: name, Trigger: trig.Name}
			}
			if err := table.Triggers.Append(trig); err != nil {
				return nil, fmt.Errorf("table %q: %w", name, err)
			}
		}
	}

	if grantField := yamlutil.Field(node, "grant"); grantField != nil && grantField.Kind == yaml.SequenceNode {
		for _, grantEntry := range grantField.Content {
			grant := Grant{
				Grantee:         yamlutil.SafeName(yamlutil.Str(grantEntry, "grantee", "")),
				All:             yamlutil.Bool(grantEntry, "all", false),
				Select:          yamlutil.Bool(grantEntry, "select", false),
				Insert:          yamlutil.Bool(grantEntry, "insert", false),
				Update:          yamlutil.Bool(grantEntry, "update", false),
				Delete:          yamlutil.Bool(grantEntry, "delete", false),
				Truncate:        yamlutil.Bool(grantEntry, "truncate", false),
				References:      yamlutil.Bool(grantEntry, "references", false),
				Trigger:         yamlutil.Bool(grantEntry, "trigger", false),
				WithGrantOption: yamlutil.Bool(grantEntry, "withGrantOption", false),
				By:              yamlutil.Str(grantEntry, "by", ""),
			}
			table.Grants.Set(grant)
		}
	}

	return table, nil
}

func parseColumn(node *yaml.Node, tableName string) (Column, error) {
	col := Column{
		Name: yamlutil.SafeName(yamlutil.Str(node, "name", "")),
		Type: yamlutil.Str(node, "type", ""),
		SQL:  yamlutil.StrRaw(node, "sql", ""),
	}

	if dv := yamlutil.StrPtr(node, "defaultValue"); dv != nil {
		col.Default = nullable.NewNullableWithValue(*dv)
	}
	if desc := yamlutil.StrPtr(node, "description"); desc != nil {
		col.Description = nullable.NewNullableWithValue(*desc)
	}

	if constraintNode := yamlutil.Field(node, "constraint"); constraintNode != nil {
		constraint := &Constraint{
			PrimaryKey: yamlutil.Bool(constraintNode, "primaryKey", false),
			Nullable:   yamlutil.Bool(constraintNode, "nullable", true),
		}
		if fkNode := yamlutil.Field(constraintNode, "foreignKey"); fkNode != nil {
			references := yamlutil.Str(fkNode, "references", "")
			if references != "" {
				refSchema, refTable, qualified := splitRef(references)
				ref := yamlutil.SafeName(refTable)
				if qualified {
					ref = yamlutil.SafeName(refSchema) + "." + ref
				}
				constraint.ForeignKey = &ForeignKey{
					References: ref,
					SQL:        yamlutil.StrRaw(fkNode, "sql", ""),
				}
			}
		}
		col.Constraint = constraint
	}

	partitionBy := yamlutil.Str(node, "partitionBy", "")
	if partitionBy != "" {
		switch partitionBy {
		case "RANGE", "LIST", "HASH":
			col.PartitionBy = partitionBy
		default:
			return Column{}, InvalidPartitionByError{Table: tableName, Column: col.Name, Value: partitionBy}
		}
	}

	col.Index = parseIndex(node, col.Name)

	return col, nil
}

// parseIndex implements the three accepted shapes for a column's index
// field: absent/null/false -> nil; boolean true -> auto-named index;
// object -> full Index, but only when it declares a name (if the object
// omits name, no index is produced).
func parseIndex(node *yaml.Node, columnName string) *Index {
	field := yamlutil.Field(node, "index")
	if field == nil || field.Tag == "!!null" {
		return nil
	}
	switch field.Kind {
	case yaml.ScalarNode:
		if field.Tag == "!!bool" {
			if field.Value == "true" {
				return &Index{Name: "+"}
			}
		}
		return nil
	case yaml.MappingNode:
		name := yamlutil.Str(field, "name", "")
		if name == "" {
			return nil
		}
		idx := &Index{
			Name:         yamlutil.SafeName(name),
			Using:        yamlutil.Str(field, "using", ""),
			Order:        yamlutil.Str(field, "order", ""),
			Nulls:        yamlutil.Str(field, "nulls", ""),
			Collate:      yamlutil.Str(field, "collate", ""),
			SQL:          yamlutil.StrRaw(field, "sql", ""),
			Concurrently: yamlutil.Bool(field, "concurrently", false),
		}
		if uniqueField := yamlutil.Field(field, "unique"); uniqueField != nil {
			u := yamlutil.Bool(field, "unique", false)
			idx.Unique = &u
		}
		return idx
	default:
		return nil
	}
}
