package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

// FollowedUserRepo handles the followed_users cache.
type FollowedUserRepo struct {
	db *sql.DB
}

func NewFollowedUserRepo(db *sql.DB) *FollowedUserRepo {
	return &FollowedUserRepo{db: db}
}

// Insert stores u, replacing any existing row for the same user.
// A zero FollowedTime is stamped with the current time.
func (r *FollowedUserRepo) Insert(ctx context.Context, u FollowedUser) error {
	if err := validate.Struct(u); err != nil {
		return fmt.Errorf("invalid followed user: %w", err)
	}
	if u.FollowedTime.IsZero() {
		u.FollowedTime = time.Now().UTC()
	}
	_, err := r.db.ExecContext(ctx, `
	INSERT INTO followed_users(user_id, nickname, avatar, bio, followed_time)
	VALUES (?, ?, ?, ?, ?)
	ON CONFLICT(user_id) DO UPDATE SET
	 nickname=excluded.nickname,
	 avatar=excluded.avatar,
	 bio=excluded.bio,
	 followed_time=excluded.followed_time;
	`, u.UserID, u.Nickname, u.Avatar, u.Bio, u.FollowedTime.UnixMilli())
	return err
}

func (r *FollowedUserRepo) Delete(ctx context.Context, u FollowedUser) error {
	return r.DeleteByID(ctx, u.UserID)
}

// DeleteByID removes the row for userID. Deleting an absent user is not an error.
func (r *FollowedUserRepo) DeleteByID(ctx context.Context, userID string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM followed_users WHERE user_id = ?`, userID)
	return err
}

// ListAll returns every followed user, most recently followed first.
func (r *FollowedUserRepo) ListAll(ctx context.Context) ([]FollowedUser, error) {
	rows, err := r.db.QueryContext(ctx, `
	SELECT user_id, nickname, avatar, bio, followed_time
	FROM followed_users
	ORDER BY followed_time DESC, user_id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []FollowedUser
	for rows.Next() {
		u, err := scanFollowedUser(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, u)
	}
	return out, rows.Err()
}

func (r *FollowedUserRepo) Get(ctx context.Context, userID string) (*FollowedUser, error) {
	row := r.db.QueryRowContext(ctx, `
	SELECT user_id, nickname, avatar, bio, followed_time
	FROM followed_users WHERE user_id = ?`, userID)
	u, err := scanFollowedUser(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &u, nil
}

func (r *FollowedUserRepo) IsFollowed(ctx context.Context, userID string) (bool, error) {
	var exists bool
	err := r.db.QueryRowContext(ctx, `SELECT EXISTS(SELECT 1 FROM followed_users WHERE user_id = ?)`, userID).Scan(&exists)
	return exists, err
}

func (r *FollowedUserRepo) Count(ctx context.Context) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM followed_users`).Scan(&n)
	return n, err
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanFollowedUser(s rowScanner) (FollowedUser, error) {
	var (
		u  FollowedUser
		ms int64
	)
	if err := s.Scan(&u.UserID, &u.Nickname, &u.Avatar, &u.Bio, &ms); err != nil {
		return FollowedUser{}, err
	}
	u.FollowedTime = time.UnixMilli(ms).UTC()
	return u, nil
}
