package deploy_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"pgdeclare/internal/testutils"
	"pgdeclare/pkg/db"
	"pgdeclare/pkg/deploy"
	"pgdeclare/pkg/plan"
)

func TestMain(m *testing.M) {
	testutils.SharedTestMain(m)
}

const blogDoc = `
database:
  - schemaName: blog
    tables:
      - table:
          tableName: users
          columns:
            - column:
                name: id
                type: serial
                constraint: { primaryKey: true, nullable: false }
            - column:
                name: handle
                type: text
                constraint: { nullable: false }
      - table:
          tableName: posts
          columns:
            - column:
                name: id
                type: serial
                constraint: { primaryKey: true, nullable: false }
            - column:
                name: author_id
                type: int
                constraint: { foreignKey: { references: users } }
`

func parseYAML(t *testing.T, doc string) *yaml.Node {
	t.Helper()
	var root yaml.Node
	require.NoError(t, yaml.Unmarshal([]byte(doc), &root))
	return &root
}

func TestMigrateCreatesSchemaTablesAndForeignKey(t *testing.T) {
	t.Parallel()

	testutils.WithConnString(t, func(connStr string) {
		ctx := context.Background()
		rdb, err := db.Open(ctx, connStr)
		require.NoError(t, err)
		defer rdb.Close()

		modified, err := deploy.Migrate(ctx, parseYAML(t, blogDoc), "blog.yaml", rdb, plan.Options{}, nil, nil)
		require.NoError(t, err)
		assert.Equal(t, 2, modified)

		rows, err := rdb.QueryContext(ctx, `
			SELECT count(*) FROM pg_constraint c
			JOIN pg_class t ON t.oid = c.conrelid
			WHERE t.relname = 'posts' AND c.contype = 'f'`)
		require.NoError(t, err)
		var fkCount int
		require.NoError(t, db.ScanFirstValue(rows, &fkCount))
		assert.Equal(t, 1, fkCount)

		secondRun, err := deploy.Migrate(ctx, parseYAML(t, blogDoc), "blog.yaml", rdb, plan.Options{}, nil, nil)
		require.NoError(t, err)
		assert.Equal(t, 0, secondRun)
	})
}

const widgetsDoc = `
database:
  - schemaName: shop
    tables:
      - table:
          tableName: widgets
          data_file: seed_widgets.csv
          columns:
            - column:
                name: id
                type: int
                constraint: { primaryKey: true, nullable: false }
            - column:
                name: label
                type: text
`

func TestMigrateLoadsSeedDataFile(t *testing.T) {
	t.Parallel()

	testutils.WithConnString(t, func(connStr string) {
		ctx := context.Background()
		rdb, err := db.Open(ctx, connStr)
		require.NoError(t, err)
		defer rdb.Close()

		modified, err := deploy.Migrate(ctx, parseYAML(t, widgetsDoc), "testdata/widgets.yaml", rdb, plan.Options{}, nil, nil)
		require.NoError(t, err)
		assert.Equal(t, 1, modified)

		rows, err := rdb.QueryContext(ctx, `SELECT count(*) FROM shop.widgets`)
		require.NoError(t, err)
		var count int
		require.NoError(t, db.ScanFirstValue(rows, &count))
		assert.Equal(t, 2, count)
	})
}

func TestMigrateDryRunExecutesNothing(t *testing.T) {
	t.Parallel()

	testutils.WithConnString(t, func(connStr string) {
		ctx := context.Background()
		rdb, err := db.Open(ctx, connStr)
		require.NoError(t, err)
		defer rdb.Close()

		var captured [][]string
		sink := func(stmts []string) error {
			captured = append(captured, stmts)
			return nil
		}

		modified, err := deploy.Migrate(ctx, parseYAML(t, blogDoc), "blog.yaml", rdb, plan.Options{}, sink, nil)
		require.NoError(t, err)
		assert.Equal(t, 2, modified)
		assert.NotEmpty(t, captured)

		rows, err := rdb.QueryContext(ctx, `SELECT count(*) FROM information_schema.tables WHERE table_schema = 'blog'`)
		require.NoError(t, err)
		var count int
		require.NoError(t, db.ScanFirstValue(rows, &count))
		assert.Equal(t, 0, count)
	})
}
