package plan

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pgdeclare/pkg/dbmodel"
	"pgdeclare/pkg/model"
)

func TestPlanForeignKeysResolvesForwardReferenceAndSynthesizesName(t *testing.T) {
	doc := `
database:
  - schemaName: app
    tables:
      - table:
          tableName: posts
          columns:
            - column: { name: id, type: serial, constraint: { primaryKey: true, nullable: false } }
            - column: { name: user_id, type: int, constraint: { foreignKey: { references: users } } }
      - table:
          tableName: users
          columns:
            - column: { name: id, type: serial, constraint: { primaryKey: true, nullable: false } }
`
	db := parseTestDoc(t, doc)
	require.NoError(t, model.Resolve(db))

	live := dbmodel.NewLiveModel()
	appSchema := live.EnsureSchema("app")
	appSchema.EnsureTable("posts")
	appSchema.EnsureTable("users")

	batches, err := PlanForeignKeys(live, db, Options{}, NewNoopLogger())
	require.NoError(t, err)
	require.Len(t, batches, 1)
	require.Len(t, batches[0].Statements, 1)
	stmt := batches[0].Statements[0]
	assert.Contains(t, stmt, "ADD CONSTRAINT \"fk_app_posts_app_users_user_id\"")
	assert.Contains(t, stmt, "FOREIGN KEY (\"user_id\")")
	assert.Contains(t, stmt, "REFERENCES \"app\".\"users\" (\"id\")")

	postsTable, _ := appSchema.Tables.Get("posts")
	assert.True(t, postsTable.HasForeignKeyOn("user_id"))
}

func TestPlanForeignKeysSkipsAlreadyPresentConstraint(t *testing.T) {
	doc := `
database:
  - schemaName: app
    tables:
      - table:
          tableName: posts
          columns:
            - column: { name: id, type: serial, constraint: { primaryKey: true, nullable: false } }
            - column: { name: user_id, type: int, constraint: { foreignKey: { references: users } } }
      - table:
          tableName: users
          columns:
            - column: { name: id, type: serial, constraint: { primaryKey: true, nullable: false } }
`
	db := parseTestDoc(t, doc)
	require.NoError(t, model.Resolve(db))

	live := dbmodel.NewLiveModel()
	appSchema := live.EnsureSchema("app")
	posts := appSchema.EnsureTable("posts")
	appSchema.EnsureTable("users")
	posts.SetForeignKey(&dbmodel.PgForeignKey{Name: "existing_fk", Columns: []string{"user_id"}})

	batches, err := PlanForeignKeys(live, db, Options{}, NewNoopLogger())
	require.NoError(t, err)
	assert.Empty(t, batches)
}
