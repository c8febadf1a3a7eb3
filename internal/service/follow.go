package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/agnivade/levenshtein"

	"github.com/jask/croissant/internal/database"
	"github.com/jask/croissant/internal/database/repository"
	"github.com/jask/croissant/internal/prefs"
)

// maxTypoDistance bounds the fuzzy username match used by Filter.
const maxTypoDistance = 2

// FollowUser is the list-screen view of a followed user.
type FollowUser struct {
	UserID    string
	Username  string
	Bio       string
	AvatarURL string
	Following bool
}

// FollowService keeps the followed_users cache and the follow flags in prefs in step.
type FollowService struct {
	Users *repository.FollowedUserRepo
	Prefs *prefs.Store
	Now   func() time.Time
}

func (s *FollowService) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return database.Now()
}

// Load reads every cached row as a view. Every row is a followed user.
func (s *FollowService) Load(ctx context.Context) ([]FollowUser, error) {
	rows, err := s.Users.ListAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("load followed users: %w", err)
	}
	out := make([]FollowUser, 0, len(rows))
	for _, r := range rows {
		out = append(out, FollowUser{
			UserID:    r.UserID,
			Username:  r.Nickname,
			Bio:       r.Bio,
			AvatarURL: r.Avatar,
			Following: true,
		})
	}
	return out, nil
}

// Apply persists u.Following: the flag goes to prefs, then the row is
// inserted or deleted to match. When the row write fails the flag is put
// back to what it was, so prefs and the cache keep agreeing.
func (s *FollowService) Apply(ctx context.Context, u FollowUser) error {
	prev, hadPrev := s.Prefs.LookupFollowStatus(u.UserID)
	if err := s.Prefs.SetFollowStatus(u.UserID, u.Following); err != nil {
		return fmt.Errorf("save follow status for %s: %w", u.UserID, err)
	}
	if err := s.applyRow(ctx, u); err != nil {
		var rerr error
		if hadPrev {
			rerr = s.Prefs.SetFollowStatus(u.UserID, prev)
		} else {
			rerr = s.Prefs.ClearFollowStatus(u.UserID)
		}
		if rerr != nil {
			return errors.Join(err, fmt.Errorf("restore follow status for %s: %w", u.UserID, rerr))
		}
		return err
	}
	return nil
}

func (s *FollowService) applyRow(ctx context.Context, u FollowUser) error {
	if u.Following {
		row := repository.FollowedUser{
			UserID:       u.UserID,
			Nickname:     u.Username,
			Avatar:       u.AvatarURL,
			Bio:          u.Bio,
			FollowedTime: s.now(),
		}
		if err := s.Users.Insert(ctx, row); err != nil {
			return fmt.Errorf("follow %s: %w", u.UserID, err)
		}
		return nil
	}
	if err := s.Users.DeleteByID(ctx, u.UserID); err != nil {
		return fmt.Errorf("unfollow %s: %w", u.UserID, err)
	}
	return nil
}

// Toggle flips u.Following and persists it. On failure u is left flipped;
// callers that need to roll back do so themselves.
func (s *FollowService) Toggle(ctx context.Context, u *FollowUser) error {
	u.Following = !u.Following
	return s.Apply(ctx, *u)
}

// IsFollowing answers from prefs when a flag is stored and from the cache otherwise.
func (s *FollowService) IsFollowing(ctx context.Context, userID string) (bool, error) {
	if v, ok := s.Prefs.LookupFollowStatus(userID); ok {
		return v, nil
	}
	return s.Users.IsFollowed(ctx, userID)
}

// ToggleAuthor follows or unfollows the author of a post and returns the new state.
func (s *FollowService) ToggleAuthor(ctx context.Context, a repository.Author) (bool, error) {
	following, err := s.IsFollowing(ctx, a.UserID)
	if err != nil {
		return false, err
	}
	u := FollowUser{UserID: a.UserID, Username: a.Nickname, AvatarURL: a.Avatar, Following: following}
	if err := s.Toggle(ctx, &u); err != nil {
		return following, err
	}
	return u.Following, nil
}

// FollowingCount counts the entries still flagged as followed.
func FollowingCount(users []FollowUser) int {
	n := 0
	for _, u := range users {
		if u.Following {
			n++
		}
	}
	return n
}

// Filter returns the users matching query, keeping list order. Substring
// matches on username or ID come first, then usernames within a small edit
// distance of the query. An empty query matches everything.
func Filter(users []FollowUser, query string) []FollowUser {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return users
	}
	type scored struct {
		idx  int
		dist int
	}
	var hits []scored
	for i, u := range users {
		name := strings.ToLower(u.Username)
		if strings.Contains(name, q) || strings.Contains(strings.ToLower(u.UserID), q) {
			hits = append(hits, scored{idx: i})
			continue
		}
		if d := levenshtein.ComputeDistance(name, q); d <= maxTypoDistance {
			hits = append(hits, scored{idx: i, dist: d})
		}
	}
	sort.SliceStable(hits, func(i, j int) bool { return hits[i].dist < hits[j].dist })
	out := make([]FollowUser, 0, len(hits))
	for _, h := range hits {
		out = append(out, users[h.idx])
	}
	return out
}
