package prefs

import (
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

func openTemp(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "nested", "prefs.json"))
	require.NoError(t, err)
	return s
}

func TestDefaults(t *testing.T) {
	s := openTemp(t)
	require.False(t, s.FollowStatus("u1"))
	_, ok := s.LookupFollowStatus("u1")
	require.False(t, ok)
	require.False(t, s.LikeStatus("p1"))
	require.False(t, s.MusicMuted())
	require.Equal(t, defaultNickname, s.Nickname())
	require.Equal(t, defaultBio, s.Bio())
	require.Empty(t, s.Avatar())
}

func TestValuesSurviveReopen(t *testing.T) {
	s := openTemp(t)
	require.NoError(t, s.SetFollowStatus("u1", true))
	require.NoError(t, s.SetFollowStatus("u2", false))
	require.NoError(t, s.SetLikeStatus("p1", true))
	require.NoError(t, s.SetMusicMuted(true))
	require.NoError(t, s.SetNickname("amelie"))
	require.NoError(t, s.SetBio("bakes"))
	require.NoError(t, s.SetAvatar("file:///tmp/a.png"))

	re, err := Open(s.Path())
	require.NoError(t, err)
	require.True(t, re.FollowStatus("u1"))
	v, ok := re.LookupFollowStatus("u2")
	require.True(t, ok)
	require.False(t, v)
	require.True(t, re.LikeStatus("p1"))
	require.True(t, re.MusicMuted())
	require.Equal(t, "amelie", re.Nickname())
	require.Equal(t, "bakes", re.Bio())
	require.Equal(t, "file:///tmp/a.png", re.Avatar())

	_, err = os.Stat(s.Path() + ".tmp")
	require.True(t, os.IsNotExist(err))
}

func TestFollowAndLikeKeysDoNotCollide(t *testing.T) {
	s := openTemp(t)
	require.NoError(t, s.SetFollowStatus("x", true))
	require.False(t, s.LikeStatus("x"))
}

func TestOpenRejectsCorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "prefs.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o600))
	_, err := Open(path)
	require.Error(t, err)
}

func TestConcurrentWrites(t *testing.T) {
	s := openTemp(t)
	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_ = s.SetFollowStatus(string(rune('a'+i)), i%2 == 0)
		}(i)
	}
	wg.Wait()
	re, err := Open(s.Path())
	require.NoError(t, err)
	for i := 0; i < 16; i++ {
		require.Equal(t, i%2 == 0, re.FollowStatus(string(rune('a'+i))))
	}
}

func TestClearFollowStatus(t *testing.T) {
	s := openTemp(t)
	require.NoError(t, s.ClearFollowStatus("u1"), "clearing an unset flag is a no-op")
	require.NoError(t, s.SetFollowStatus("u1", true))
	require.NoError(t, s.ClearFollowStatus("u1"))
	_, ok := s.LookupFollowStatus("u1")
	require.False(t, ok)

	re, err := Open(s.Path())
	require.NoError(t, err)
	_, ok = re.LookupFollowStatus("u1")
	require.False(t, ok)
}
