package service

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/jask/croissant/internal/database/repository"
)

// feedResponse is the feed snapshot format: the body the feed endpoint
// returns, saved to disk.
type feedResponse struct {
	StatusCode int           `json:"status_code"`
	PostList   []postPayload `json:"post_list"`
}

type postPayload struct {
	PostID     string               `json:"post_id"`
	Title      string               `json:"title"`
	Content    string               `json:"content"`
	Hashtags   []repository.Hashtag `json:"hashtag"`
	CreateTime int64                `json:"create_time"`
	Author     *repository.Author   `json:"author"`
	Clips      []repository.Clip    `json:"clips"`
	Music      *repository.Music    `json:"music"`
	LikeCount  int                  `json:"like_count"`
}

// ImportResult summarises an Import call.
type ImportResult struct {
	CacheResult
	Errors []error
}

// Import caches the posts of a saved feed response. A non-zero status code
// rejects the whole snapshot; individual posts that cannot be converted are
// reported in Errors and skipped.
func (s *FeedService) Import(ctx context.Context, r io.Reader) (ImportResult, error) {
	var res ImportResult
	var resp feedResponse
	if err := json.NewDecoder(r).Decode(&resp); err != nil {
		return res, fmt.Errorf("decode feed snapshot: %w", err)
	}
	if resp.StatusCode != 0 {
		return res, fmt.Errorf("feed snapshot has status %d", resp.StatusCode)
	}
	posts := make([]repository.Post, 0, len(resp.PostList))
	for i, p := range resp.PostList {
		post, err := p.toPost()
		if err != nil {
			res.Errors = append(res.Errors, fmt.Errorf("post %d: %w", i, err))
			continue
		}
		posts = append(posts, post)
	}
	cached, err := s.Cache(ctx, posts)
	res.CacheResult = cached
	res.Skipped += len(res.Errors)
	return res, err
}

func (p postPayload) toPost() (repository.Post, error) {
	if p.Author == nil {
		return repository.Post{}, fmt.Errorf("%s: missing author", p.PostID)
	}
	if p.CreateTime < 0 {
		return repository.Post{}, fmt.Errorf("%s: negative create_time", p.PostID)
	}
	return repository.Post{
		PostID:     strings.TrimSpace(p.PostID),
		Title:      p.Title,
		Content:    p.Content,
		Hashtags:   p.Hashtags,
		CreateTime: time.Unix(p.CreateTime, 0).UTC(),
		Author:     *p.Author,
		Clips:      p.Clips,
		Music:      p.Music,
		LikeCount:  p.LikeCount,
	}, nil
}
