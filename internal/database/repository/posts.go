package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// PostRepo handles the cached feed.
type PostRepo struct {
	db *sql.DB
}

func NewPostRepo(db *sql.DB) *PostRepo {
	return &PostRepo{db: db}
}

const postColumns = `post_id, title, content, hashtags_json, create_time, author_json, clips_json, music_json, like_count, is_liked`

// UpsertAll writes posts in a single transaction.
func (r *PostRepo) UpsertAll(ctx context.Context, posts []Post) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	stmt, err := tx.PrepareContext(ctx, `
	INSERT INTO posts(`+postColumns+`)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	ON CONFLICT(post_id) DO UPDATE SET
	 title=excluded.title,
	 content=excluded.content,
	 hashtags_json=excluded.hashtags_json,
	 create_time=excluded.create_time,
	 author_json=excluded.author_json,
	 clips_json=excluded.clips_json,
	 music_json=excluded.music_json,
	 like_count=excluded.like_count,
	 is_liked=excluded.is_liked;
	`)
	if err != nil {
		_ = tx.Rollback()
		return err
	}
	defer stmt.Close()
	for _, p := range posts {
		cols, err := encodePost(p)
		if err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("encode post %s: %w", p.PostID, err)
		}
		if _, err := stmt.ExecContext(ctx, cols...); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("upsert post %s: %w", p.PostID, err)
		}
	}
	return tx.Commit()
}

func (r *PostRepo) Get(ctx context.Context, postID string) (*Post, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+postColumns+` FROM posts WHERE post_id = ?`, postID)
	p, err := scanPost(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &p, nil
}

// Latest returns up to n posts, newest first.
func (r *PostRepo) Latest(ctx context.Context, n int) ([]Post, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+postColumns+` FROM posts ORDER BY create_time DESC, post_id LIMIT ?`, n)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Post
	for rows.Next() {
		p, err := scanPost(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// SetLiked records the like flag and moves like_count by one when the flag changes.
func (r *PostRepo) SetLiked(ctx context.Context, postID string, liked bool) error {
	res, err := r.db.ExecContext(ctx, `
	UPDATE posts SET
	 like_count = CASE
	  WHEN is_liked = ?1 THEN like_count
	  WHEN ?1 THEN like_count + 1
	  ELSE MAX(like_count - 1, 0)
	 END,
	 is_liked = ?1
	WHERE post_id = ?2`, liked, postID)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("post %s: %w", postID, ErrNotFound)
	}
	return nil
}

func (r *PostRepo) Count(ctx context.Context) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM posts`).Scan(&n)
	return n, err
}

func (r *PostRepo) Clear(ctx context.Context) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM posts`)
	return err
}

func encodePost(p Post) ([]any, error) {
	if p.Hashtags == nil {
		p.Hashtags = []Hashtag{}
	}
	if p.Clips == nil {
		p.Clips = []Clip{}
	}
	hashtags, err := json.Marshal(p.Hashtags)
	if err != nil {
		return nil, err
	}
	author, err := json.Marshal(p.Author)
	if err != nil {
		return nil, err
	}
	clips, err := json.Marshal(p.Clips)
	if err != nil {
		return nil, err
	}
	var music sql.NullString
	if p.Music != nil {
		b, err := json.Marshal(p.Music)
		if err != nil {
			return nil, err
		}
		music = sql.NullString{String: string(b), Valid: true}
	}
	return []any{
		p.PostID, p.Title, p.Content, string(hashtags), p.CreateTime.UnixMilli(),
		string(author), string(clips), music, p.LikeCount, p.IsLiked,
	}, nil
}

func scanPost(s rowScanner) (Post, error) {
	var (
		p                       Post
		hashtags, author, clips string
		music                   sql.NullString
		created                 int64
	)
	if err := s.Scan(&p.PostID, &p.Title, &p.Content, &hashtags, &created, &author, &clips, &music, &p.LikeCount, &p.IsLiked); err != nil {
		return Post{}, err
	}
	p.CreateTime = time.UnixMilli(created).UTC()
	if err := json.Unmarshal([]byte(hashtags), &p.Hashtags); err != nil {
		return Post{}, fmt.Errorf("decode hashtags of %s: %w", p.PostID, err)
	}
	if err := json.Unmarshal([]byte(author), &p.Author); err != nil {
		return Post{}, fmt.Errorf("decode author of %s: %w", p.PostID, err)
	}
	if err := json.Unmarshal([]byte(clips), &p.Clips); err != nil {
		return Post{}, fmt.Errorf("decode clips of %s: %w", p.PostID, err)
	}
	if music.Valid {
		p.Music = &Music{}
		if err := json.Unmarshal([]byte(music.String), p.Music); err != nil {
			return Post{}, fmt.Errorf("decode music of %s: %w", p.PostID, err)
		}
	}
	return p, nil
}
