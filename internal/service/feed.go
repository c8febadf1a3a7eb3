package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/jask/croissant/internal/database/repository"
	"github.com/jask/croissant/internal/prefs"
)

// DefaultFeedCount is how many cached posts Latest returns when asked for none.
const DefaultFeedCount = 10

// FeedService reads and writes the offline feed cache.
type FeedService struct {
	Posts *repository.PostRepo
	Prefs *prefs.Store
}

// CacheResult summarises a Cache call.
type CacheResult struct {
	Stored     int
	Skipped    int
	Duplicates int
}

// Cache stores posts for offline display. Posts without an ID are skipped and
// repeated IDs keep their first occurrence.
func (s *FeedService) Cache(ctx context.Context, posts []repository.Post) (CacheResult, error) {
	var res CacheResult
	seen := make(map[string]struct{}, len(posts))
	keep := make([]repository.Post, 0, len(posts))
	for _, p := range posts {
		if strings.TrimSpace(p.PostID) == "" {
			res.Skipped++
			continue
		}
		if _, ok := seen[p.PostID]; ok {
			res.Duplicates++
			continue
		}
		seen[p.PostID] = struct{}{}
		p.IsLiked = p.IsLiked || s.Prefs.LikeStatus(p.PostID)
		keep = append(keep, p)
	}
	if len(keep) == 0 {
		return res, nil
	}
	if err := s.Posts.UpsertAll(ctx, keep); err != nil {
		return res, fmt.Errorf("cache posts: %w", err)
	}
	res.Stored = len(keep)
	return res, nil
}

// Latest returns up to count cached posts, newest first.
func (s *FeedService) Latest(ctx context.Context, count int) ([]repository.Post, error) {
	if count <= 0 {
		count = DefaultFeedCount
	}
	posts, err := s.Posts.Latest(ctx, count)
	if err != nil {
		return nil, fmt.Errorf("load cached feed: %w", err)
	}
	return posts, nil
}

// ToggleLike flips the like flag of a cached post and returns the updated post.
func (s *FeedService) ToggleLike(ctx context.Context, postID string) (repository.Post, error) {
	p, err := s.Posts.Get(ctx, postID)
	if err != nil {
		return repository.Post{}, err
	}
	if p == nil {
		return repository.Post{}, fmt.Errorf("post %s: %w", postID, repository.ErrNotFound)
	}
	liked := !p.IsLiked
	if err := s.Prefs.SetLikeStatus(postID, liked); err != nil {
		return repository.Post{}, fmt.Errorf("save like status for %s: %w", postID, err)
	}
	if err := s.Posts.SetLiked(ctx, postID, liked); err != nil {
		return repository.Post{}, err
	}
	updated, err := s.Posts.Get(ctx, postID)
	if err != nil {
		return repository.Post{}, err
	}
	return *updated, nil
}
