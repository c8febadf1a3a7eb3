package database

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func tableNames(t *testing.T, db *sql.DB) []string {
	t.Helper()
	rows, err := db.Query(`SELECT name FROM sqlite_master WHERE type = 'table' AND name NOT IN ('schema_migrations') ORDER BY name`)
	require.NoError(t, err)
	defer rows.Close()
	var out []string
	for rows.Next() {
		var name string
		require.NoError(t, rows.Scan(&name))
		out = append(out, name)
	}
	require.NoError(t, rows.Err())
	return out
}

func TestSchemaVersionsAddFollowedUsers(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "cache.db")

	require.NoError(t, MigrateTo(dbPath, 1))
	db, err := Open(dbPath)
	require.NoError(t, err)
	require.Equal(t, []string{"posts"}, tableNames(t, db))
	v, dirty, err := SchemaVersion(db)
	require.NoError(t, err)
	require.False(t, dirty)
	require.Equal(t, uint(1), v)
	require.NoError(t, db.Close())

	require.NoError(t, RunMigrations(dbPath))
	db, err = Open(dbPath)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	require.Equal(t, []string{"followed_users", "posts"}, tableNames(t, db))
	v, _, err = SchemaVersion(db)
	require.NoError(t, err)
	require.Equal(t, LatestVersion, v)
}

func TestRunMigrationsIsIdempotent(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "cache.db")
	require.NoError(t, RunMigrations(dbPath))
	require.NoError(t, RunMigrations(dbPath))
}

func TestRunMigrationsFromDirectory(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "cache.db")
	dir, err := filepath.Abs("migrations")
	require.NoError(t, err)
	require.NoError(t, RunMigrationsFrom(dbPath, dir))

	db, err := Open(dbPath)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	require.Equal(t, []string{"followed_users", "posts"}, tableNames(t, db))
}

func markDirty(t *testing.T, dbPath string) {
	t.Helper()
	db, err := Open(dbPath)
	require.NoError(t, err)
	_, err = db.Exec(`UPDATE schema_migrations SET dirty = 1`)
	require.NoError(t, err)
	require.NoError(t, db.Close())
}

func TestMigrateDestructiveFallbackRebuildsCache(t *testing.T) {
	ctx := context.Background()
	dbPath := filepath.Join(t.TempDir(), "cache.db")
	require.NoError(t, RunMigrations(dbPath))

	db, err := Open(dbPath)
	require.NoError(t, err)
	require.NoError(t, SeedDemo(ctx, db))
	require.NoError(t, db.Close())
	markDirty(t, dbPath)

	require.Error(t, Migrate(dbPath, false))
	require.NoError(t, Migrate(dbPath, true))

	db, err = Open(dbPath)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	v, dirty, err := SchemaVersion(db)
	require.NoError(t, err)
	require.False(t, dirty)
	require.Equal(t, LatestVersion, v)

	var n int
	require.NoError(t, db.QueryRow(`SELECT COUNT(*) FROM followed_users`).Scan(&n))
	require.Zero(t, n, "rebuilt cache starts empty")
}

func TestSeedDemoIsIdempotent(t *testing.T) {
	ctx := context.Background()
	dbPath := filepath.Join(t.TempDir(), "cache.db")
	require.NoError(t, RunMigrations(dbPath))
	db, err := Open(dbPath)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	require.NoError(t, SeedDemo(ctx, db))
	require.NoError(t, SeedDemo(ctx, db))

	var posts, users int
	require.NoError(t, db.QueryRow(`SELECT COUNT(*) FROM posts`).Scan(&posts))
	require.NoError(t, db.QueryRow(`SELECT COUNT(*) FROM followed_users`).Scan(&users))
	require.Equal(t, len(demoPosts), posts)
	require.Equal(t, 3, users)
	require.Equal(t, demoID("user", "baker_amelie"), demoID("user", "baker_amelie"))
}

func TestWithTxRollsBack(t *testing.T) {
	ctx := context.Background()
	dbPath := filepath.Join(t.TempDir(), "cache.db")
	require.NoError(t, RunMigrations(dbPath))
	db, err := Open(dbPath)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	err = WithTx(ctx, db, func(tx *sql.Tx) error {
		if _, err := tx.Exec(`INSERT INTO followed_users(user_id, nickname, followed_time) VALUES ('u1', 'one', 1)`); err != nil {
			return err
		}
		return sql.ErrTxDone
	})
	require.ErrorIs(t, err, sql.ErrTxDone)

	var n int
	require.NoError(t, db.QueryRow(`SELECT COUNT(*) FROM followed_users`).Scan(&n))
	require.Zero(t, n)
}
