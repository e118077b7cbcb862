package plan

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pgdeclare/pkg/dbmodel"
)

func TestPlanGrantsGrantsMissingPrivileges(t *testing.T) {
	doc := `
database:
  - schemaName: app
    tables:
      - table:
          tableName: widgets
          grant:
            - { grantee: reader, select: true }
`
	db := parseTestDoc(t, doc)
	schema, _ := db.Schemas.Get("app")
	table, _ := schema.Tables.Get("widgets")
	live := dbmodel.NewPgTable("widgets")

	stmts, err := planGrants("app", "widgets", table, live, Options{}, NewNoopLogger())
	require.NoError(t, err)
	require.Len(t, stmts, 1)
	assert.Contains(t, stmts[0], "GRANT SELECT ON \"app\".\"widgets\" TO \"reader\"")

	grant, ok := live.Grants.Get("reader")
	require.True(t, ok)
	assert.True(t, grant.Privileges["SELECT"])
}

func TestPlanGrantsRevokesRemovedPrivilegeWhenGated(t *testing.T) {
	doc := `
database:
  - schemaName: app
    tables:
      - table:
          tableName: widgets
          grant:
            - { grantee: reader, select: true }
`
	db := parseTestDoc(t, doc)
	schema, _ := db.Schemas.Get("app")
	table, _ := schema.Tables.Get("widgets")
	live := dbmodel.NewPgTable("widgets")
	live.SetGrant(&dbmodel.PgGrant{Grantee: "reader", Privileges: map[string]bool{"SELECT": true, "INSERT": true}})

	_, err := planGrants("app", "widgets", table, live, Options{WithRevoke: false}, NewNoopLogger())
	require.Error(t, err)

	live.SetGrant(&dbmodel.PgGrant{Grantee: "reader", Privileges: map[string]bool{"SELECT": true, "INSERT": true}})
	stmts, err := planGrants("app", "widgets", table, live, Options{WithRevoke: true}, NewNoopLogger())
	require.NoError(t, err)
	require.Len(t, stmts, 1)
	assert.Contains(t, stmts[0], "REVOKE INSERT ON")
}

func TestPlanGrantsFullyRevokesUndeclaredGrantee(t *testing.T) {
	doc := `
database:
  - schemaName: app
    tables:
      - table:
          tableName: widgets
`
	db := parseTestDoc(t, doc)
	schema, _ := db.Schemas.Get("app")
	table, _ := schema.Tables.Get("widgets")
	live := dbmodel.NewPgTable("widgets")
	live.SetGrant(&dbmodel.PgGrant{Grantee: "ghost", Privileges: map[string]bool{"SELECT": true}})

	stmts, err := planGrants("app", "widgets", table, live, Options{WithRevoke: true}, NewNoopLogger())
	require.NoError(t, err)
	require.Len(t, stmts, 1)
	assert.Contains(t, stmts[0], "REVOKE ALL ON")
	assert.Contains(t, stmts[0], "\"ghost\"")
}
