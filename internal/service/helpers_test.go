package service

import (
	"database/sql"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/jask/croissant/internal/database"
	"github.com/jask/croissant/internal/database/repository"
	"github.com/jask/croissant/internal/prefs"
)

type fixture struct {
	db     *sql.DB
	prefs  *prefs.Store
	follow *FollowService
	feed   *FeedService
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	dir := t.TempDir()
	dbPath := filepath.Join(dir, "test.db")
	require.NoError(t, database.RunMigrations(dbPath))
	db, err := database.Open(dbPath)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	store, err := prefs.Open(filepath.Join(dir, "prefs.json"))
	require.NoError(t, err)

	clock := time.Date(2026, 10, 19, 10, 0, 0, 0, time.UTC)
	return fixture{
		db:    db,
		prefs: store,
		follow: &FollowService{
			Users: repository.NewFollowedUserRepo(db),
			Prefs: store,
			Now: func() time.Time {
				clock = clock.Add(time.Second)
				return clock
			},
		},
		feed: &FeedService{Posts: repository.NewPostRepo(db), Prefs: store},
	}
}
