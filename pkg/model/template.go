package model

import "pgdeclare/pkg/ordered"

// Resolve resolves every table's useTemplates list against the templates
// declared anywhere in db, applying merges in list order. Template-flagged
// tables that themselves list useTemplates are resolved as well, so a
// template inheriting from another template is merged before it is used;
// "Template purity" (spec.md §8) relies on the Deployment Driver
// separately skipping IsTemplate tables when emitting SQL.
//
// A visited-set per resolution chain detects template cycles, which the
// original source does not appear to guard against (spec.md §9, open
// question).
func Resolve(db *Database) error {
	for _, schema := range db.Schemas.Values() {
		for _, table := range schema.Tables.Values() {
			if len(table.UseTemplates) == 0 {
				continue
			}
			if err := resolveTable(db, schema, table, nil); err != nil {
				return err
			}
		}
	}
	return nil
}

func resolveTable(db *Database, schema *Schema, table *Table, visiting []string) error {
	chainKey := schema.Name + "." + table.Name
	for _, v := range visiting {
		if v == chainKey {
			return TemplateCycleError{Chain: append(append([]string(nil), visiting...), chainKey)}
		}
	}
	visiting = append(visiting, chainKey)

	for _, ref := range table.UseTemplates {
		template, ok := db.FindTable(ref, schema.Name)
		if !ok {
			return TemplateError{Table: table.Name, Reference: ref, Reason: "referenced template does not exist"}
		}
		if !template.IsTemplate {
			return TemplateError{Table: table.Name, Reference: ref, Reason: "referenced table is not a template"}
		}

		// A template may itself inherit from other templates; resolve it
		// first so mergeInto sees its fully-merged shape.
		if len(template.UseTemplates) > 0 {
			templateSchema := schema
			if templSchemaName, _, hasSchema := splitRef(ref); hasSchema {
				if s, ok := db.Schemas.Get(templSchemaName); ok {
					templateSchema = s
				}
			}
			if err := resolveTable(db, templateSchema, template, visiting); err != nil {
				return err
			}
		}

		mergeInto(table, template)
	}
	return nil
}

// mergeInto applies template's entries into table per spec.md §4.1:
// "columns, triggers, and grants are combined so that template entries
// appear first; same-named entries in the consuming table override.
// Scalar fields ... are inherited only when the consuming table's field
// is empty."
func mergeInto(table, template *Table) {
	table.Columns = mergeColumns(template.Columns, table.Columns)
	table.Triggers = mergeEntities(template.Triggers, table.Triggers)
	table.Grants = mergeEntities(template.Grants, table.Grants)

	if table.Owner == "" {
		table.Owner = template.Owner
	}
	if table.Description == "" {
		table.Description = template.Description
	}
	if table.SQLSuffix == "" {
		table.SQLSuffix = template.SQLSuffix
	}
	if table.Constraint == "" {
		table.Constraint = template.Constraint
	}
}

func mergeColumns(base, overrides *ordered.Map[Column]) *ordered.Map[Column] {
	merged := ordered.New[Column]()
	for _, c := range base.Values() {
		merged.Set(c)
	}
	for _, c := range overrides.Values() {
		merged.Set(c)
	}
	return merged
}

func mergeEntities[T ordered.Named](base, overrides *ordered.Map[T]) *ordered.Map[T] {
	merged := ordered.New[T]()
	for _, v := range base.Values() {
		merged.Set(v)
	}
	for _, v := range overrides.Values() {
		merged.Set(v)
	}
	return merged
}
