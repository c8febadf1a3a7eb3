package service

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/jask/croissant/internal/database/repository"
	"github.com/jask/croissant/internal/prefs"
)

func seedFollowed(t *testing.T, f fixture, ids ...string) {
	t.Helper()
	for _, id := range ids {
		require.NoError(t, f.follow.Apply(context.Background(), FollowUser{UserID: id, Username: "name-" + id, Bio: "bio " + id, Following: true}))
	}
}

func rowIDs(t *testing.T, f fixture) []string {
	t.Helper()
	rows, err := f.follow.Users.ListAll(context.Background())
	require.NoError(t, err)
	ids := []string{}
	for _, r := range rows {
		ids = append(ids, r.UserID)
	}
	return ids
}

func TestLoadMarksEveryRowFollowing(t *testing.T) {
	f := newFixture(t)
	seedFollowed(t, f, "a", "b")

	users, err := f.follow.Load(context.Background())
	require.NoError(t, err)
	require.Len(t, users, 2)
	require.Equal(t, "b", users[0].UserID, "newest follow first")
	for _, u := range users {
		require.True(t, u.Following)
		require.Equal(t, "name-"+u.UserID, u.Username)
		require.Equal(t, "bio "+u.UserID, u.Bio)
	}
	require.Equal(t, 2, FollowingCount(users))
}

func TestToggleTwiceRestoresRows(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	seedFollowed(t, f, "a", "b", "c")
	before := rowIDs(t, f)

	users, err := f.follow.Load(ctx)
	require.NoError(t, err)
	target := &users[1]

	require.NoError(t, f.follow.Toggle(ctx, target))
	require.False(t, target.Following)
	require.NotContains(t, rowIDs(t, f), target.UserID)
	require.False(t, f.prefs.FollowStatus(target.UserID))
	require.Equal(t, 2, FollowingCount(users))

	require.NoError(t, f.follow.Toggle(ctx, target))
	require.True(t, target.Following)
	require.ElementsMatch(t, before, rowIDs(t, f))
	require.True(t, f.prefs.FollowStatus(target.UserID))
	require.Equal(t, 3, FollowingCount(users))

	row, err := f.follow.Users.Get(ctx, target.UserID)
	require.NoError(t, err)
	require.Equal(t, target.Username, row.Nickname)
	require.Equal(t, target.Bio, row.Bio)
}

func TestApplyStopsWhenPrefsCannotBeWritten(t *testing.T) {
	f := newFixture(t)
	dir := filepath.Join(t.TempDir(), "sub")
	store, err := prefs.Open(filepath.Join(dir, "prefs.json"))
	require.NoError(t, err)
	// a regular file where the prefs directory should be makes every flush fail
	require.NoError(t, os.WriteFile(dir, []byte("x"), 0o600))
	f.follow.Prefs = store

	err = f.follow.Apply(context.Background(), FollowUser{UserID: "a", Username: "a", Following: true})
	require.Error(t, err)
	require.Empty(t, rowIDs(t, f))
	require.False(t, store.FollowStatus("a"))
}

func TestIsFollowingPrefersStoredFlag(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	require.NoError(t, f.follow.Users.Insert(ctx, repository.FollowedUser{UserID: "cached", Nickname: "c"}))

	ok, err := f.follow.IsFollowing(ctx, "cached")
	require.NoError(t, err)
	require.True(t, ok, "falls back to the cache when no flag is stored")

	require.NoError(t, f.prefs.SetFollowStatus("cached", false))
	ok, err = f.follow.IsFollowing(ctx, "cached")
	require.NoError(t, err)
	require.False(t, ok)
}

func TestToggleAuthor(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	author := repository.Author{UserID: "au", Nickname: "writer", Avatar: "w.png"}

	following, err := f.follow.ToggleAuthor(ctx, author)
	require.NoError(t, err)
	require.True(t, following)
	row, err := f.follow.Users.Get(ctx, "au")
	require.NoError(t, err)
	require.Equal(t, "writer", row.Nickname)
	require.Equal(t, "w.png", row.Avatar)

	following, err = f.follow.ToggleAuthor(ctx, author)
	require.NoError(t, err)
	require.False(t, following)
	require.Empty(t, rowIDs(t, f))
}

func TestFilter(t *testing.T) {
	users := []FollowUser{
		{UserID: "1", Username: "baker_amelie"},
		{UserID: "2", Username: "kai"},
		{UserID: "3", Username: "ink_and_paper"},
		{UserID: "amelie-alt", Username: "someone"},
	}
	require.Equal(t, users, Filter(users, "  "))

	got := Filter(users, "AMELIE")
	require.Len(t, got, 2)
	require.Equal(t, "1", got[0].UserID)
	require.Equal(t, "amelie-alt", got[1].UserID)

	got = Filter(users, "kia")
	require.Len(t, got, 1)
	require.Equal(t, "2", got[0].UserID)

	require.Empty(t, Filter(users, "zzzzzzzz"))
}

func TestFollowingCount(t *testing.T) {
	require.Zero(t, FollowingCount(nil))
	require.Equal(t, 1, FollowingCount([]FollowUser{{Following: true}, {Following: false}}))
}

func TestApplyRestoresFlagWhenRowWriteFails(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	require.NoError(t, f.prefs.SetFollowStatus("known", false))
	require.NoError(t, f.db.Close())

	err := f.follow.Apply(ctx, FollowUser{UserID: "fresh", Username: "fresh", Following: true})
	require.Error(t, err)
	_, stored := f.prefs.LookupFollowStatus("fresh")
	require.False(t, stored, "a flag that did not exist before is removed again")

	err = f.follow.Apply(ctx, FollowUser{UserID: "known", Username: "known", Following: true})
	require.Error(t, err)
	v, stored := f.prefs.LookupFollowStatus("known")
	require.True(t, stored)
	require.False(t, v)
}

func TestToggleAuthorWithoutNickname(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	anon := repository.Author{UserID: "anon"}

	following, err := f.follow.ToggleAuthor(ctx, anon)
	require.NoError(t, err)
	require.True(t, following)
	ok, err := f.follow.IsFollowing(ctx, "anon")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, []string{"anon"}, rowIDs(t, f))

	following, err = f.follow.ToggleAuthor(ctx, anon)
	require.NoError(t, err)
	require.False(t, following)
	require.Empty(t, rowIDs(t, f))
}
