package plan

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestWrapRetryEmbedsStatementAndRetryBound(t *testing.T) {
	stmt := "ALTER TABLE app.users ADD COLUMN flag boolean;"
	wrapped := wrapRetry(stmt)

	assert.Contains(t, wrapped, stmt)
	assert.Contains(t, wrapped, "lock_timeout")
	assert.Contains(t, wrapped, "lock_not_available")
	assert.Contains(t, wrapped, "100")
	assert.True(t, strings.HasPrefix(wrapped, "DO $do$"))
	assert.True(t, strings.HasSuffix(wrapped, "$do$;"))
}
