// Package yamlutil provides typed field readers over a parsed YAML mapping
// node. The YAML model is built by walking *yaml.Node trees directly
// (rather than decoding into map[string]any) so that declaration order is
// preserved — see pgdeclare/pkg/model and the order invariants in the data
// model.
package yamlutil

import (
	"strings"

	"gopkg.in/yaml.v3"
)

// Field returns the value node mapped to key within a MappingNode, or nil
// if node is nil, not a mapping, or the key is absent.
func Field(node *yaml.Node, key string) *yaml.Node {
	if node == nil || node.Kind != yaml.MappingNode {
		return nil
	}
	for i := 0; i+1 < len(node.Content); i += 2 {
		if node.Content[i].Value == key {
			return node.Content[i+1]
		}
	}
	return nil
}

// Str reads a scalar string field, stripping a trailing "-- comment" suffix
// the way the original's as_str_esc/as_esc pair does, returning def when
// the field is absent.
func Str(node *yaml.Node, key, def string) string {
	field := Field(node, key)
	if field == nil || field.Kind != yaml.ScalarNode {
		return def
	}
	return StripComment(field.Value)
}

// StrRaw reads a scalar string field verbatim (no comment stripping),
// returning def when absent. Used for fields like SQL snippets where "--"
// is a legitimate SQL comment token, not a YAML-authoring comment.
func StrRaw(node *yaml.Node, key, def string) string {
	field := Field(node, key)
	if field == nil || field.Kind != yaml.ScalarNode {
		return def
	}
	return field.Value
}

// StripComment trims a trailing "-- ..." line-comment convention some YAML
// authors use inline in scalar values (distinct from YAML's own # comments,
// which the parser already discards).
func StripComment(val string) string {
	if i := strings.Index(val, "--"); i >= 0 {
		return strings.TrimSpace(val[:i])
	}
	return val
}

// StrPtr reads an optional scalar string field, returning nil when absent
// so that callers can distinguish "not declared" from "declared empty".
func StrPtr(node *yaml.Node, key string) *string {
	field := Field(node, key)
	if field == nil || field.Kind != yaml.ScalarNode {
		return nil
	}
	v := StripComment(field.Value)
	return &v
}

// Bool reads a boolean field with the original's truthy-string parsing:
// integers compare to 1, strings are matched against Truthy, actual YAML
// booleans are used directly. def is returned when the field is absent or
// of an unparseable shape.
func Bool(node *yaml.Node, key string, def bool) bool {
	field := Field(node, key)
	if field == nil {
		return def
	}
	switch field.Tag {
	case "!!bool":
		return field.Value == "true"
	case "!!int":
		return field.Value == "1"
	case "!!str":
		return Truthy(field.Value, def)
	default:
		return def
	}
}

// Truthy parses a free-form truthy string (e.g. from an environment
// variable or a loosely-typed YAML scalar). An empty string yields def;
// otherwise a leading "+", "yes", "true", "ok", "on", "y" or "1"
// (case-insensitive) is truthy, anything else falsy.
func Truthy(input string, def bool) bool {
	if input == "" {
		return def
	}
	lower := strings.ToLower(input)
	for _, prefix := range []string{"+", "yes", "true", "ok", "on", "y", "1"} {
		if strings.HasPrefix(lower, prefix) {
			return true
		}
	}
	return false
}

// Rows reads an array-of-arrays-of-strings field (used for seed `data`),
// returning nil when the field is absent.
func Rows(node *yaml.Node, key string) [][]string {
	field := Field(node, key)
	if field == nil || field.Kind != yaml.SequenceNode {
		return nil
	}
	rows := make([][]string, 0, len(field.Content))
	for _, rowNode := range field.Content {
		if rowNode.Kind != yaml.SequenceNode {
			rows = append(rows, nil)
			continue
		}
		row := make([]string, 0, len(rowNode.Content))
		for _, cell := range rowNode.Content {
			row = append(row, cell.Value)
		}
		rows = append(rows, row)
	}
	return rows
}

// SafeName truncates input at the first whitespace, '.', ';', '\n' or '\t',
// matching the original's safe_sql_name: applied to every identifier read
// from YAML before it is used to build SQL.
func SafeName(input string) string {
	if i := strings.IndexAny(input, " .;\n\t"); i >= 0 {
		return input[:i]
	}
	return input
}
