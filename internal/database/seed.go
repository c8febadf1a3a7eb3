package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/jask/croissant/internal/database/repository"
)

type demoUser struct {
	nickname string
	bio      string
}

var demoUsers = []demoUser{
	{"baker_amelie", "Laminated dough, every morning."},
	{"lens_and_crumbs", "Food photography on film."},
	{"trailrunner_kai", "Mountains before breakfast."},
	{"ink_and_paper", "Sketchbook diaries."},
	{"night_owl_radio", "Lo-fi mixes for late shifts."},
}

var demoPosts = []struct {
	title   string
	content string
	tag     string
	author  int
}{
	{"Morning bake", "Third batch of the week, finally got the honeycomb right #croissant", "croissant", 0},
	{"Golden hour", "Shot on Portra 400 #film", "film", 1},
	{"Ridge line", "12km before the clouds rolled in #trail", "trail", 2},
	{"Ink wash", "Trying a new brush today #sketch", "sketch", 3},
	{"Late mix", "Two hours of tape hiss #lofi", "lofi", 4},
	{"Butter block", "Cold butter, cold hands #croissant", "croissant", 0},
}

func demoID(kind, name string) string {
	return uuid.NewSHA1(uuid.NameSpaceOID, []byte(kind+":"+name)).String()
}

// SeedDemo fills an empty cache with a small deterministic feed and follow list.
// It is idempotent and leaves non-empty tables alone.
func SeedDemo(ctx context.Context, db *sql.DB) error {
	users := repository.NewFollowedUserRepo(db)
	posts := repository.NewPostRepo(db)

	n, err := posts.Count(ctx)
	if err != nil {
		return fmt.Errorf("count posts: %w", err)
	}
	if n == 0 {
		base := time.Date(2026, 10, 1, 8, 0, 0, 0, time.UTC)
		batch := make([]repository.Post, 0, len(demoPosts))
		for i, p := range demoPosts {
			u := demoUsers[p.author]
			batch = append(batch, repository.Post{
				PostID:     demoID("post", p.title),
				Title:      p.title,
				Content:    p.content,
				Hashtags:   []repository.Hashtag{{Start: len(p.content) - len(p.tag) - 1, End: len(p.content), Text: p.tag}},
				CreateTime: base.Add(time.Duration(i) * time.Hour),
				Author:     repository.Author{UserID: demoID("user", u.nickname), Nickname: u.nickname},
				LikeCount:  (i + 1) * 7,
			})
		}
		if err := posts.UpsertAll(ctx, batch); err != nil {
			return fmt.Errorf("seed posts: %w", err)
		}
	}

	n, err = users.Count(ctx)
	if err != nil {
		return fmt.Errorf("count followed users: %w", err)
	}
	if n > 0 {
		return nil
	}
	base := time.Date(2026, 9, 1, 12, 0, 0, 0, time.UTC)
	for i, u := range demoUsers[:3] {
		row := repository.FollowedUser{
			UserID:       demoID("user", u.nickname),
			Nickname:     u.nickname,
			Bio:          u.bio,
			FollowedTime: base.Add(time.Duration(i) * 24 * time.Hour),
		}
		if err := users.Insert(ctx, row); err != nil {
			return fmt.Errorf("seed followed user %s: %w", u.nickname, err)
		}
	}
	return nil
}
