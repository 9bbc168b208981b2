package repository

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"time"

	"github.com/lib/pq"
	"github.com/maheshrc27/postflow/internal/models"
)

// ErrPostNotScheduled is returned when a status update targets a post that
// already left the scheduled state.
var ErrPostNotScheduled = errors.New("post is not in scheduled state")

type PostRepository interface {
	CreateMany(ctx context.Context, tx *sql.Tx, posts []*models.ScheduledPost) error
	GetByID(ctx context.Context, id string) (*models.ScheduledPost, error)
	List(ctx context.Context, limit int) ([]*models.ScheduledPost, error)
	ListDue(ctx context.Context, now time.Time) ([]*models.ScheduledPost, error)
	Claim(ctx context.Context, id string, now time.Time, lease time.Duration) (bool, error)
	UpdatePostStatus(ctx context.Context, id string, update models.StatusUpdate) error
}

type postRepository struct {
	db *sql.DB
}

func NewPostRepository(db *sql.DB) PostRepository {
	return &postRepository{db: db}
}

const postColumns = `id, submission_id, platform, post_type, COALESCE(media_url, ''), media_urls, caption,
	scheduled_at, status, COALESCE(error_message, ''), COALESCE(instagram_container_id, ''),
	COALESCE(fb_post_id, ''), claimed_at, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanPost(row rowScanner) (*models.ScheduledPost, error) {
	var post models.ScheduledPost
	var claimedAt sql.NullTime
	err := row.Scan(&post.ID, &post.SubmissionID, &post.Platform, &post.PostType, &post.MediaURL,
		pq.Array(&post.MediaURLs), &post.Caption, &post.ScheduledAt, &post.Status, &post.ErrorMessage,
		&post.InstagramContainerID, &post.FbPostID, &claimedAt, &post.CreatedAt, &post.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if claimedAt.Valid {
		post.ClaimedAt = &claimedAt.Time
	}
	return &post, nil
}

func (r *postRepository) queryPosts(ctx context.Context, query string, args ...any) ([]*models.ScheduledPost, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		slog.Info(err.Error())
		return nil, err
	}
	defer rows.Close()

	var posts []*models.ScheduledPost
	for rows.Next() {
		post, err := scanPost(rows)
		if err != nil {
			slog.Info(err.Error())
			return nil, err
		}
		posts = append(posts, post)
	}

	if err = rows.Err(); err != nil {
		slog.Info(err.Error())
		return nil, err
	}

	return posts, nil
}

func (r *postRepository) CreateMany(ctx context.Context, tx *sql.Tx, posts []*models.ScheduledPost) error {
	query := `
		INSERT INTO scheduled_posts (id, submission_id, platform, post_type, media_url, media_urls, caption, scheduled_at, status)
		VALUES ($1, $2, $3, $4, NULLIF($5, ''), $6, $7, $8, $9)
		RETURNING created_at, updated_at
	`

	for _, post := range posts {
		args := []any{post.ID, post.SubmissionID, post.Platform, post.PostType, post.MediaURL,
			pq.Array(post.MediaURLs), post.Caption, post.ScheduledAt, post.Status}

		var err error
		if tx != nil {
			err = tx.QueryRowContext(ctx, query, args...).Scan(&post.CreatedAt, &post.UpdatedAt)
		} else {
			err = r.db.QueryRowContext(ctx, query, args...).Scan(&post.CreatedAt, &post.UpdatedAt)
		}
		if err != nil {
			slog.Info(err.Error())
			return err
		}
	}

	return nil
}

func (r *postRepository) GetByID(ctx context.Context, id string) (*models.ScheduledPost, error) {
	query := `SELECT ` + postColumns + ` FROM scheduled_posts WHERE id = $1`

	post, err := scanPost(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		slog.Info(err.Error())
		return nil, err
	}

	return post, nil
}

func (r *postRepository) List(ctx context.Context, limit int) ([]*models.ScheduledPost, error) {
	query := `SELECT ` + postColumns + ` FROM scheduled_posts ORDER BY scheduled_at DESC LIMIT $1`
	return r.queryPosts(ctx, query, limit)
}

// ListDue returns scheduled posts whose time has come, oldest first. It
// never writes, so repeated calls return the same set until a status
// changes.
func (r *postRepository) ListDue(ctx context.Context, now time.Time) ([]*models.ScheduledPost, error) {
	query := `SELECT ` + postColumns + `
		FROM scheduled_posts
		WHERE status = $1 AND scheduled_at <= $2
		ORDER BY scheduled_at ASC`
	return r.queryPosts(ctx, query, models.PostStatusScheduled, now)
}

// Claim marks a scheduled post as being worked on. It returns false when
// another pass holds an unexpired claim or the post is no longer scheduled.
func (r *postRepository) Claim(ctx context.Context, id string, now time.Time, lease time.Duration) (bool, error) {
	query := `
		UPDATE scheduled_posts
		SET claimed_at = $1
		WHERE id = $2
			AND status = $3
			AND (claimed_at IS NULL OR claimed_at < $4)
	`
	result, err := r.db.ExecContext(ctx, query, now, id, models.PostStatusScheduled, now.Add(-lease))
	if err != nil {
		slog.Info(err.Error())
		return false, err
	}

	affectedRows, err := result.RowsAffected()
	if err != nil {
		slog.Info(err.Error())
		return false, err
	}

	return affectedRows == 1, nil
}

func (r *postRepository) UpdatePostStatus(ctx context.Context, id string, update models.StatusUpdate) error {
	query := `
		UPDATE scheduled_posts
		SET status = $1,
			error_message = NULLIF($2, ''),
			instagram_container_id = CASE WHEN platform = 'instagram' AND $3::text <> '' THEN $3::text ELSE instagram_container_id END,
			fb_post_id = CASE WHEN platform = 'facebook' AND $3::text <> '' THEN $3::text ELSE fb_post_id END,
			updated_at = $4
		WHERE id = $5 AND status = $6
	`
	result, err := r.db.ExecContext(ctx, query, update.Status, update.ErrorMessage, update.PlatformID,
		time.Now(), id, models.PostStatusScheduled)
	if err != nil {
		slog.Info(err.Error())
		return err
	}

	affectedRows, err := result.RowsAffected()
	if err != nil {
		slog.Info(err.Error())
		return err
	}
	if affectedRows == 0 {
		return ErrPostNotScheduled
	}

	return nil
}
