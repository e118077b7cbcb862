package dbmodel_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pgdeclare/pkg/dbmodel"
)

func TestEnsureSchemaAndTableAreIdempotent(t *testing.T) {
	m := dbmodel.NewLiveModel()
	s1 := m.EnsureSchema("app")
	s2 := m.EnsureSchema("app")
	assert.Same(t, s1, s2)

	t1 := s1.EnsureTable("users")
	t2 := s1.EnsureTable("users")
	assert.Same(t, t1, t2)
}

func TestSetColumnTypeMutatesInPlace(t *testing.T) {
	table := dbmodel.NewPgTable("users")
	table.SetColumn(&dbmodel.PgColumn{Name: "email", Type: "varchar(64)"})

	table.SetColumnType("email", "varchar(128)")

	col, ok := table.Columns.Get("email")
	require.True(t, ok)
	assert.Equal(t, "varchar(128)", col.Type)
}

func TestHasForeignKeyOnDetectsExistingColumn(t *testing.T) {
	table := dbmodel.NewPgTable("posts")
	table.SetForeignKey(&dbmodel.PgForeignKey{Name: "fk_posts_users", Columns: []string{"user_id"}})

	assert.True(t, table.HasForeignKeyOn("user_id"))
	assert.False(t, table.HasForeignKeyOn("other_id"))
}
