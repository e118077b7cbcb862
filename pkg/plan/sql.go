package plan

import (
	"fmt"
	"strings"

	"github.com/lib/pq"
)

// qualify builds a quoted "schema"."table" reference.
func qualify(schema, table string) string {
	return fmt.Sprintf("%s.%s", pq.QuoteIdentifier(schema), pq.QuoteIdentifier(table))
}

// objectName builds the unquoted dotted name used in errors and skip logs.
func objectName(parts ...string) string {
	return strings.Join(parts, ".")
}
