package prefs

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

const (
	keyLikePrefix   = "like_status_"
	keyFollowPrefix = "follow_status_"
	keyMusicMute    = "music_mute_status"
	keyUserNickname = "user_nickname"
	keyUserBio      = "user_bio"
	keyUserAvatar   = "user_avatar"
)

const (
	defaultNickname = "Nickname"
	defaultBio      = "Tell people about yourself"
)

// Store is a small key-value store persisted as a JSON file.
// Every write is flushed to disk with write-then-rename.
type Store struct {
	mu     sync.RWMutex
	path   string
	values map[string]any
}

// Open loads the store at path. A missing file yields an empty store.
func Open(path string) (*Store, error) {
	s := &Store{path: path, values: map[string]any{}}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return s, nil
		}
		return nil, err
	}
	if len(data) == 0 {
		return s, nil
	}
	if err := json.Unmarshal(data, &s.values); err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	return s, nil
}

func (s *Store) Path() string { return s.path }

func (s *Store) SetFollowStatus(userID string, followed bool) error {
	return s.set(keyFollowPrefix+userID, followed)
}

// FollowStatus reports the stored follow flag; unknown users are not followed.
func (s *Store) FollowStatus(userID string) bool {
	v, _ := s.LookupFollowStatus(userID)
	return v
}

// ClearFollowStatus forgets the stored flag so FollowStatus falls back to its default.
func (s *Store) ClearFollowStatus(userID string) error {
	return s.remove(keyFollowPrefix + userID)
}

// LookupFollowStatus is FollowStatus with a second result saying whether a flag was stored.
func (s *Store) LookupFollowStatus(userID string) (bool, bool) {
	return s.getBool(keyFollowPrefix + userID)
}

func (s *Store) SetLikeStatus(postID string, liked bool) error {
	return s.set(keyLikePrefix+postID, liked)
}

func (s *Store) LikeStatus(postID string) bool {
	v, _ := s.getBool(keyLikePrefix + postID)
	return v
}

func (s *Store) SetMusicMuted(muted bool) error {
	return s.set(keyMusicMute, muted)
}

func (s *Store) MusicMuted() bool {
	v, _ := s.getBool(keyMusicMute)
	return v
}

func (s *Store) SetNickname(nickname string) error {
	return s.set(keyUserNickname, nickname)
}

func (s *Store) Nickname() string {
	return s.getString(keyUserNickname, defaultNickname)
}

func (s *Store) SetBio(bio string) error {
	return s.set(keyUserBio, bio)
}

func (s *Store) Bio() string {
	return s.getString(keyUserBio, defaultBio)
}

func (s *Store) SetAvatar(uri string) error {
	return s.set(keyUserAvatar, uri)
}

// Avatar returns the avatar reference, or "" when none was set.
func (s *Store) Avatar() string {
	return s.getString(keyUserAvatar, "")
}

func (s *Store) getBool(key string) (bool, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.values[key].(bool)
	return v, ok
}

func (s *Store) getString(key, def string) string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if v, ok := s.values[key].(string); ok {
		return v
	}
	return def
}

func (s *Store) set(key string, value any) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	prev, had := s.values[key]
	s.values[key] = value
	if err := s.flush(); err != nil {
		if had {
			s.values[key] = prev
		} else {
			delete(s.values, key)
		}
		return err
	}
	return nil
}

func (s *Store) remove(key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	prev, had := s.values[key]
	if !had {
		return nil
	}
	delete(s.values, key)
	if err := s.flush(); err != nil {
		s.values[key] = prev
		return err
	}
	return nil
}

func (s *Store) flush() error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return err
	}
	data, err := json.MarshalIndent(s.values, "", "  ")
	if err != nil {
		return err
	}
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return err
	}
	return os.Rename(tmp, s.path)
}
