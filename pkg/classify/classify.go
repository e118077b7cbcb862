// Package classify implements the Type Change Classifier: a pure function
// comparing two PostgreSQL type strings and reporting how safe it is to
// migrate a column from one to the other.
package classify

import (
	"fmt"
	"strings"

	pgq "github.com/xataio/pg_query_go/v6"
)

// Outcome is the result of comparing an existing column type against a
// desired one.
type Outcome int

const (
	NoChange Outcome = iota
	SizeExtension
	SizeReduction
	Compatible
	Incompatible
)

func (o Outcome) String() string {
	switch o {
	case NoChange:
		return "NoChange"
	case SizeExtension:
		return "SizeExtension"
	case SizeReduction:
		return "SizeReduction"
	case Compatible:
		return "Compatible"
	case Incompatible:
		return "Incompatible"
	default:
		return "Unknown"
	}
}

// parsedType is (base, size?, scale?) as described in spec.md §4.3 step 1.
type parsedType struct {
	base  string
	size  *int
	scale *int
}

// aliases normalizes a parsed base type name to its canonical form.
var aliases = map[string]string{
	"int": "int4", "int4": "int4", "integer": "int4", "serial": "int4",
	"int8": "int8", "bigint": "int8", "bigserial": "int8", "serial8": "int8",
	"int2": "int2", "smallint": "int2", "smallserial": "int2",
	"float4": "float4", "real": "float4",
	"float": "float8", "float8": "float8", "double precision": "float8",
	"bool": "bool", "boolean": "bool",
	"varchar": "varchar", "character varying": "varchar",
	"char": "char", "character": "char", "bpchar": "char",
	"numeric": "numeric", "decimal": "numeric",
	"timestamptz": "timestamptz", "timestamp with time zone": "timestamptz",
	"timestamp": "timestamp", "timestamp without time zone": "timestamp",
	"timetz": "timetz", "time with time zone": "timetz",
	"time": "time", "time without time zone": "time",
	"json":  "json",
	"jsonb": "jsonb",
}

func normalizeBase(base string) string {
	base = strings.ToLower(strings.TrimSpace(base))
	if canon, ok := aliases[base]; ok {
		return canon
	}
	return base
}

// minLen is the fixed minLen table from spec.md §4.3 step 4, used to judge
// whether a cast to varchar(n) is wide enough to be considered Compatible.
var minLen = map[string]int{
	"int2": 6, "int4": 11, "int8": 20,
	"float4": 15, "float8": 25,
	"bool":              5,
	"timestamp":         32,
	"timestamptz":       32,
	"time":              18,
	"timetz":            18,
	"date":              10,
	"uuid":              36,
}

const defaultNumericMinLen = 40

// compatiblePairs enumerates the different-base Compatible pairs from
// spec.md §4.3 step 4 that aren't covered by the "target is text/wide
// varchar" rule.
var compatiblePairs = map[string]map[string]bool{
	"int2":    {"int4": true, "int8": true},
	"int4":    {"int8": true},
	"float4":  {"float8": true},
	"char":    {"varchar": true, "text": true},
	"varchar": {"text": true},
}

// Classify compares existing against desired and reports the outcome. It
// never panics, even on malformed type strings: a parse failure on either
// side degrades to Incompatible rather than crashing ("Classifier
// totality", spec.md §8).
func Classify(existing, desired string) Outcome {
	e, eOK := parseType(existing)
	d, dOK := parseType(desired)
	if !eOK || !dOK {
		return Incompatible
	}

	eBase := normalizeBase(e.base)
	dBase := normalizeBase(d.base)

	if eBase == dBase {
		return classifySameBase(eBase, e, d)
	}
	return classifyDifferentBase(eBase, dBase, e, d)
}

func classifySameBase(base string, e, d parsedType) Outcome {
	if base == "numeric" {
		return classifyNumeric(e, d)
	}

	switch {
	case e.size == nil && d.size == nil:
		return NoChange
	case e.size != nil && d.size != nil:
		switch {
		case *e.size == *d.size:
			return NoChange
		case *d.size > *e.size:
			return SizeExtension
		default:
			return SizeReduction
		}
	case e.size == nil && d.size != nil:
		// adding a size constraint where none existed
		return SizeExtension
	default:
		// e.size != nil && d.size == nil: removing a size constraint
		// (e.g. varchar(100) -> varchar)
		return SizeExtension
	}
}

func classifyNumeric(e, d parsedType) Outcome {
	if e.size == nil && d.size == nil {
		return sameOrExtendScale(e.scale, d.scale)
	}
	if e.size != nil && d.size != nil && *e.size == *d.size {
		return sameOrExtendScale(e.scale, d.scale)
	}
	if e.size == nil || (d.size != nil && *d.size > *e.size) {
		return SizeExtension
	}
	return SizeReduction
}

func sameOrExtendScale(eScale, dScale *int) Outcome {
	switch {
	case eScale == nil && dScale == nil:
		return NoChange
	case eScale == nil && dScale != nil:
		return SizeExtension
	case eScale != nil && dScale == nil:
		return SizeReduction
	case *dScale > *eScale:
		return SizeExtension
	case *dScale < *eScale:
		return SizeReduction
	default:
		return NoChange
	}
}

func classifyDifferentBase(eBase, dBase string, e, d parsedType) Outcome {
	if targets, ok := compatiblePairs[eBase]; ok && targets[dBase] {
		return Compatible
	}

	if dBase == "text" {
		return Compatible
	}
	if dBase == "varchar" {
		want, ok := minLen[eBase]
		if eBase == "numeric" {
			want, ok = minLenForNumeric(e), true
		}
		if ok && d.size != nil && *d.size >= want {
			return Compatible
		}
	}

	return Incompatible
}

// minLenForNumeric computes "precision+2 (default 40)" from spec.md §4.3
// step 4: the minimum varchar width considered safe for a numeric(e)
// column being cast to varchar(n), based on the existing column's own declared
// precision.
func minLenForNumeric(e parsedType) int {
	if e.size != nil {
		return *e.size + 2
	}
	return defaultNumericMinLen
}

// parseType parses a single column type string into (base, size, scale) by
// wrapping it in a throwaway CREATE TABLE statement and parsing it with the
// real PostgreSQL grammar (github.com/xataio/pg_query_go), the same
// technique pkg/sql2pgroll/typename.go uses in reverse (AST -> string).
// Falling back to ok=false on any shape pg_query_go can't parse satisfies
// "never crashes on malformed parentheses".
func parseType(typeStr string) (parsedType, bool) {
	typeStr = strings.TrimSpace(typeStr)
	if typeStr == "" {
		return parsedType{}, false
	}

	sql := fmt.Sprintf("CREATE TABLE _pgdeclare_classify (_c %s)", typeStr)
	tree, err := pgq.Parse(sql)
	if err != nil {
		return parsedType{}, false
	}
	stmts := tree.GetStmts()
	if len(stmts) != 1 {
		return parsedType{}, false
	}
	createNode, ok := stmts[0].GetStmt().GetNode().(*pgq.Node_CreateStmt)
	if !ok || createNode.CreateStmt == nil {
		return parsedType{}, false
	}
	elts := createNode.CreateStmt.TableElts
	if len(elts) != 1 {
		return parsedType{}, false
	}
	colDef, ok := elts[0].Node.(*pgq.Node_ColumnDef)
	if !ok || colDef.ColumnDef == nil || colDef.ColumnDef.TypeName == nil {
		return parsedType{}, false
	}

	return typeNameToParsed(colDef.ColumnDef.TypeName), true
}

func typeNameToParsed(typeName *pgq.TypeName) parsedType {
	ignored := map[string]bool{"pg_catalog": true}

	var baseParts []string
	for _, n := range typeName.GetNames() {
		part := n.GetString_().GetSval()
		if ignored[part] {
			continue
		}
		baseParts = append(baseParts, part)
	}

	var mods []int
	for _, n := range typeName.GetTypmods() {
		if aconst := n.GetAConst(); aconst != nil {
			if ival, ok := aconst.GetVal().(*pgq.A_Const_Ival); ok {
				mods = append(mods, int(ival.Ival.GetIval()))
			}
		}
	}

	parsed := parsedType{base: strings.Join(baseParts, ".")}
	if len(mods) >= 1 {
		v := mods[0]
		parsed.size = &v
	}
	if len(mods) >= 2 {
		v := mods[1]
		parsed.scale = &v
	}
	return parsed
}
