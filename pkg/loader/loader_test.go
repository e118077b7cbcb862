package loader_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pgdeclare/internal/testutils"
	"pgdeclare/pkg/db"
	"pgdeclare/pkg/loader"
)

func TestMain(m *testing.M) {
	testutils.SharedTestMain(m)
}

func TestLoadColumnsAndSerialRewrite(t *testing.T) {
	t.Parallel()

	testutils.WithConnString(t, func(connStr string) {
		ctx := context.Background()
		rdb, err := db.Open(ctx, connStr)
		require.NoError(t, err)
		defer rdb.Close()

		_, err = rdb.ExecContext(ctx, `
			CREATE TABLE users (
				id serial PRIMARY KEY,
				email varchar(64) NOT NULL,
				balance numeric(10,2)
			)`)
		require.NoError(t, err)

		model, err := loader.Load(ctx, rdb)
		require.NoError(t, err)

		schema, ok := model.Schemas.Get("public")
		require.True(t, ok)
		table, ok := schema.Tables.Get("users")
		require.True(t, ok)

		id, ok := table.Columns.Get("id")
		require.True(t, ok)
		assert.Equal(t, "serial", id.Type)
		assert.Nil(t, id.Default)

		email, ok := table.Columns.Get("email")
		require.True(t, ok)
		assert.Equal(t, "varchar(64)", email.Type)
		assert.False(t, email.Nullable)

		balance, ok := table.Columns.Get("balance")
		require.True(t, ok)
		assert.Equal(t, "numeric(10,2)", balance.Type)

		assert.Equal(t, []string{"id"}, table.PrimaryKey)
	})
}

func TestLoadForeignKeysAndTriggers(t *testing.T) {
	t.Parallel()

	testutils.WithConnString(t, func(connStr string) {
		ctx := context.Background()
		rdb, err := db.Open(ctx, connStr)
		require.NoError(t, err)
		defer rdb.Close()

		_, err = rdb.ExecContext(ctx, `
			CREATE TABLE users (id serial PRIMARY KEY);
			CREATE TABLE posts (
				id serial PRIMARY KEY,
				user_id int REFERENCES users(id)
			);
			CREATE FUNCTION touch_updated_at() RETURNS trigger AS $$
			BEGIN RETURN NEW; END;
			$$ LANGUAGE plpgsql;
			CREATE TRIGGER set_updated_at BEFORE UPDATE ON posts
			FOR EACH ROW EXECUTE FUNCTION touch_updated_at();`)
		require.NoError(t, err)

		model, err := loader.Load(ctx, rdb)
		require.NoError(t, err)

		schema, _ := model.Schemas.Get("public")
		posts, ok := schema.Tables.Get("posts")
		require.True(t, ok)

		assert.True(t, posts.HasForeignKeyOn("user_id"))

		trig, ok := posts.Triggers.Get("set_updated_at")
		require.True(t, ok)
		assert.Equal(t, "BEFORE UPDATE", trig.Event)
		assert.Equal(t, "FOR EACH ROW", trig.Orientation)
		assert.Equal(t, "public.touch_updated_at()", trig.Proc)
	})
}

func TestLoadIndexesAndGrants(t *testing.T) {
	t.Parallel()

	testutils.WithConnString(t, func(connStr string) {
		ctx := context.Background()
		rdb, err := db.Open(ctx, connStr)
		require.NoError(t, err)
		defer rdb.Close()

		_, err = rdb.ExecContext(ctx, `
			CREATE TABLE widgets (id serial PRIMARY KEY, sku text);
			CREATE UNIQUE INDEX idx_widgets_sku ON widgets (sku);
			CREATE ROLE pgdeclare_reader;
			GRANT SELECT ON widgets TO pgdeclare_reader;`)
		require.NoError(t, err)

		model, err := loader.Load(ctx, rdb)
		require.NoError(t, err)

		schema, _ := model.Schemas.Get("public")
		table, _ := schema.Tables.Get("widgets")

		idx, ok := table.Indexes.Get("idx_widgets_sku")
		require.True(t, ok)
		assert.True(t, idx.Unique)
		require.Len(t, idx.Columns, 1)
		assert.Equal(t, "sku", idx.Columns[0].Name)

		grant, ok := table.Grants.Get("pgdeclare_reader")
		require.True(t, ok)
		assert.True(t, grant.Privileges["SELECT"])
	})
}
