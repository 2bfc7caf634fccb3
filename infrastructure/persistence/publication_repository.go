package persistence

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"crosspost/domain/model"

	"github.com/lib/pq"
)

const publicationColumns = `p.id, p.content_id, p.platform, p.status, p.platform_post_id, p.published_at, p.error_message, p.views, p.likes, p.comments, p.attempt_count, p.created_at, p.updated_at, c.user_id, COALESCE(p.social_account_id, c.social_account_id)`

const publicationFrom = ` FROM publications p JOIN contents c ON c.id = p.content_id`

type PublicationRepository struct{ db *sql.DB }

func NewPublicationRepository(db *sql.DB) *PublicationRepository {
	return &PublicationRepository{db: db}
}

func scanPublication(row rowScanner) (*model.Publication, error) {
	p := &model.Publication{}
	var platform, status string
	var postID, errMsg sql.NullString
	var publishedAt sql.NullTime
	var socialAccountID sql.NullInt64
	if err := row.Scan(&p.ID, &p.ContentID, &platform, &status, &postID, &publishedAt, &errMsg,
		&p.Views, &p.Likes, &p.Comments, &p.AttemptCount, &p.CreatedAt, &p.UpdatedAt, &p.UserID, &socialAccountID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, model.ErrNotFound
		}
		return nil, err
	}
	p.Platform = model.Provider(platform)
	p.Status = model.PublicationStatus(status)
	p.PlatformPostID = nullString(postID)
	p.ErrorMessage = nullString(errMsg)
	if publishedAt.Valid {
		t := publishedAt.Time
		p.PublishedAt = &t
	}
	if socialAccountID.Valid {
		v := socialAccountID.Int64
		p.SocialAccountID = &v
	}
	return p, nil
}

func (r *PublicationRepository) queryMany(ctx context.Context, q string, args ...interface{}) ([]*model.Publication, error) {
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []*model.Publication
	for rows.Next() {
		p, err := scanPublication(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// CreatePending inserts the (content, platform) row or resets an existing one to pending
func (r *PublicationRepository) CreatePending(ctx context.Context, contentID int64, platform model.Provider) (*model.Publication, error) {
	now := time.Now().UTC()
	var id int64
	err := r.db.QueryRowContext(ctx, `INSERT INTO publications (content_id, platform, status, created_at, updated_at)
		VALUES ($1,$2,'pending',$3,$3)
		ON CONFLICT (content_id, platform) DO UPDATE SET status='pending', error_message=NULL, updated_at=EXCLUDED.updated_at
		RETURNING id`, contentID, platform, now).Scan(&id)
	if err != nil {
		return nil, err
	}
	return r.FindByID(ctx, id)
}

// MarkSuccess records the post id and the credential that published it
func (r *PublicationRepository) MarkSuccess(ctx context.Context, contentID int64, platform model.Provider, result *model.PublishResult) error {
	var accountID sql.NullInt64
	if result.SocialAccountID != nil {
		accountID = sql.NullInt64{Int64: *result.SocialAccountID, Valid: true}
	}
	res, err := r.db.ExecContext(ctx, `UPDATE publications SET status='success', platform_post_id=$3, published_at=$4, social_account_id=$5, error_message=NULL, attempt_count=attempt_count+1, updated_at=$6
		WHERE content_id=$1 AND platform=$2`, contentID, platform, result.PlatformPostID, result.PublishedAt, accountID, time.Now().UTC())
	if err != nil {
		return err
	}
	return expectOneRow(res)
}

func (r *PublicationRepository) MarkFailed(ctx context.Context, contentID int64, platform model.Provider, errorMessage string) error {
	res, err := r.db.ExecContext(ctx, `UPDATE publications SET status='failed', error_message=$3, attempt_count=attempt_count+1, updated_at=$4
		WHERE content_id=$1 AND platform=$2`, contentID, platform, errorMessage, time.Now().UTC())
	if err != nil {
		return err
	}
	return expectOneRow(res)
}

// FindSuccessfulByUser returns published rows with a known post id for the given platforms
func (r *PublicationRepository) FindSuccessfulByUser(ctx context.Context, userID string, platforms []model.Provider) ([]*model.Publication, error) {
	names := make([]string, 0, len(platforms))
	for _, p := range platforms {
		names = append(names, string(p))
	}
	return r.queryMany(ctx, `SELECT `+publicationColumns+publicationFrom+`
		WHERE c.user_id=$1 AND p.status='success' AND p.platform_post_id IS NOT NULL AND p.platform = ANY($2)
		ORDER BY p.id`, userID, pq.Array(names))
}

func (r *PublicationRepository) UpdateStats(ctx context.Context, id int64, stats model.VideoStats) error {
	res, err := r.db.ExecContext(ctx, `UPDATE publications SET views=$2, likes=$3, comments=$4, updated_at=$5 WHERE id=$1`,
		id, stats.Views, stats.Likes, stats.Comments, time.Now().UTC())
	if err != nil {
		return err
	}
	return expectOneRow(res)
}

func (r *PublicationRepository) ListByContent(ctx context.Context, contentID int64) ([]*model.Publication, error) {
	return r.queryMany(ctx, `SELECT `+publicationColumns+publicationFrom+` WHERE p.content_id=$1 ORDER BY p.id`, contentID)
}

func (r *PublicationRepository) FindByID(ctx context.Context, id int64) (*model.Publication, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+publicationColumns+publicationFrom+` WHERE p.id=$1`, id)
	return scanPublication(row)
}
