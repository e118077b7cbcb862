package plan

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"pgdeclare/pkg/dbmodel"
	"pgdeclare/pkg/model"
)

func parseCommentsTestTable(t *testing.T, doc string) *model.Table {
	t.Helper()
	var root yaml.Node
	require.NoError(t, yaml.Unmarshal([]byte(doc), &root))
	database, err := model.Parse(&root, "test.yaml")
	require.NoError(t, err)
	schema, _ := database.Schemas.Get("app")
	table, _ := schema.Tables.Get("widgets")
	return table
}

const widgetsWithDescriptionDoc = `
database:
  - schemaName: app
    tables:
      - table:
          tableName: widgets
          columns:
            - column: { name: sku, type: text, description: the item SKU }
`

func TestPlanCommentsEmitsForNewColumn(t *testing.T) {
	table := parseCommentsTestTable(t, widgetsWithDescriptionDoc)
	live := dbmodel.NewPgTable("widgets")
	live.SetColumn(columnToLive(column(t, table, "sku")))

	stmts := planComments("app", table, live, map[string]bool{"sku": true})
	require.Len(t, stmts, 1)
	assert.Contains(t, stmts[0], `COMMENT ON COLUMN "app"."widgets"."sku" IS 'the item SKU';`)

	liveCol, _ := live.Columns.Get("sku")
	assert.Equal(t, "the item SKU", liveCol.Comment)
}

func TestPlanCommentsNeverTouchesPreexistingColumn(t *testing.T) {
	table := parseCommentsTestTable(t, widgetsWithDescriptionDoc)
	live := dbmodel.NewPgTable("widgets")
	// sku already existed before this run, with no comment in the
	// database and no mirror entry pre-seeded from the YAML description.
	live.SetColumn(&dbmodel.PgColumn{Name: "sku", Type: "text"})

	stmts := planComments("app", table, live, map[string]bool{})
	assert.Empty(t, stmts)
}

func TestColumnToLiveNeverSeedsComment(t *testing.T) {
	table := parseCommentsTestTable(t, widgetsWithDescriptionDoc)
	live := columnToLive(column(t, table, "sku"))
	assert.Empty(t, live.Comment)
}

func column(t *testing.T, table *model.Table, name string) model.Column {
	t.Helper()
	c, ok := table.Columns.Get(name)
	require.True(t, ok)
	return c
}
