package persistence

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"crosspost/domain/model"
)

const credentialColumns = `id, user_id, provider, provider_id, access_token, refresh_token, expires_at, name, first_name, last_name, avatar_url, email, is_default, created_at, updated_at`

type CredentialRepository struct{ db *sql.DB }

func NewCredentialRepository(db *sql.DB) *CredentialRepository { return &CredentialRepository{db: db} }

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanCredential(row rowScanner) (*model.Credential, error) {
	c := &model.Credential{}
	var provider string
	var refresh, firstName, lastName, avatar, email sql.NullString
	var exp sql.NullTime
	if err := row.Scan(&c.ID, &c.UserID, &provider, &c.ProviderID, &c.AccessToken, &refresh, &exp, &c.Name,
		&firstName, &lastName, &avatar, &email, &c.IsDefault, &c.CreatedAt, &c.UpdatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, model.ErrNotFound
		}
		return nil, err
	}
	c.Provider = model.Provider(provider)
	c.RefreshToken = nullString(refresh)
	c.FirstName = nullString(firstName)
	c.LastName = nullString(lastName)
	c.AvatarURL = nullString(avatar)
	c.Email = nullString(email)
	if exp.Valid {
		t := exp.Time
		c.ExpiresAt = &t
	}
	return c, nil
}

func nullString(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	v := ns.String
	return &v
}

func (r *CredentialRepository) queryOne(ctx context.Context, where string, args ...interface{}) (*model.Credential, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+credentialColumns+` FROM credentials WHERE `+where, args...)
	return scanCredential(row)
}

func (r *CredentialRepository) FindByID(ctx context.Context, userID string, provider model.Provider, id int64) (*model.Credential, error) {
	return r.queryOne(ctx, `id=$1 AND user_id=$2 AND provider=$3`, id, userID, provider)
}

func (r *CredentialRepository) FindByProviderID(ctx context.Context, userID string, provider model.Provider, providerID string) (*model.Credential, error) {
	return r.queryOne(ctx, `user_id=$1 AND provider=$2 AND provider_id=$3`, userID, provider, providerID)
}

func (r *CredentialRepository) FindDefault(ctx context.Context, userID string, provider model.Provider) (*model.Credential, error) {
	return r.queryOne(ctx, `user_id=$1 AND provider=$2 AND is_default`, userID, provider)
}

func (r *CredentialRepository) FindAny(ctx context.Context, userID string, provider model.Provider) (*model.Credential, error) {
	return r.queryOne(ctx, `user_id=$1 AND provider=$2 ORDER BY created_at, id LIMIT 1`, userID, provider)
}

func (r *CredentialRepository) GetByIDForUser(ctx context.Context, userID string, id int64) (*model.Credential, error) {
	return r.queryOne(ctx, `id=$1 AND user_id=$2`, id, userID)
}

func (r *CredentialRepository) ListByUser(ctx context.Context, userID string) ([]*model.Credential, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+credentialColumns+` FROM credentials WHERE user_id=$1 ORDER BY provider, created_at, id`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []*model.Credential
	for rows.Next() {
		c, err := scanCredential(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// Upsert keeps the stored refresh token when the provider omits a new one.
// A freshly inserted credential becomes the default when the user has none for that provider.
func (r *CredentialRepository) Upsert(ctx context.Context, c *model.Credential) (*model.Credential, error) {
	now := time.Now().UTC()
	q := `INSERT INTO credentials (user_id, provider, provider_id, access_token, refresh_token, expires_at, name, first_name, last_name, avatar_url, email, is_default, created_at, updated_at)
		  VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,
			NOT EXISTS (SELECT 1 FROM credentials d WHERE d.user_id=$1 AND d.provider=$2 AND d.is_default),
			$12,$12)
		  ON CONFLICT (provider, provider_id) DO UPDATE SET
			user_id=EXCLUDED.user_id,
			access_token=EXCLUDED.access_token,
			refresh_token=COALESCE(EXCLUDED.refresh_token, credentials.refresh_token),
			expires_at=EXCLUDED.expires_at,
			name=EXCLUDED.name,
			first_name=EXCLUDED.first_name,
			last_name=EXCLUDED.last_name,
			avatar_url=EXCLUDED.avatar_url,
			email=EXCLUDED.email,
			updated_at=EXCLUDED.updated_at
		  RETURNING ` + credentialColumns
	row := r.db.QueryRowContext(ctx, q, c.UserID, c.Provider, c.ProviderID, c.AccessToken, c.RefreshToken, c.ExpiresAt,
		c.Name, c.FirstName, c.LastName, c.AvatarURL, c.Email, now)
	return scanCredential(row)
}

// UpdateTokens writes rotated tokens of a single row; nil fields keep their stored value
func (r *CredentialRepository) UpdateTokens(ctx context.Context, id int64, ts *model.TokenSet) error {
	res, err := r.db.ExecContext(ctx, `UPDATE credentials SET access_token=$2, refresh_token=COALESCE($3, refresh_token), expires_at=COALESCE($4, expires_at), updated_at=$5 WHERE id=$1`,
		id, ts.AccessToken, ts.RefreshToken, ts.ExpiresAt, time.Now().UTC())
	if err != nil {
		return err
	}
	return expectOneRow(res)
}

// Delete removes the credential and promotes the oldest remaining one when the default was removed
func (r *CredentialRepository) Delete(ctx context.Context, userID string, id int64) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	var provider string
	var wasDefault bool
	if err := tx.QueryRowContext(ctx, `SELECT provider, is_default FROM credentials WHERE id=$1 AND user_id=$2 FOR UPDATE`, id, userID).Scan(&provider, &wasDefault); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.ErrNotFound
		}
		return err
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM credentials WHERE id=$1`, id); err != nil {
		return err
	}
	if wasDefault {
		if _, err := tx.ExecContext(ctx, `UPDATE credentials SET is_default=TRUE, updated_at=$3 WHERE id = (SELECT id FROM credentials WHERE user_id=$1 AND provider=$2 ORDER BY created_at, id LIMIT 1)`,
			userID, provider, time.Now().UTC()); err != nil {
			return err
		}
	}
	return tx.Commit()
}

// SetDefault clears the previous default and marks id inside one transaction,
// so no committed state ever holds zero or two defaults for the pair.
func (r *CredentialRepository) SetDefault(ctx context.Context, userID string, provider model.Provider, id int64) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	var one int
	if err := tx.QueryRowContext(ctx, `SELECT 1 FROM credentials WHERE id=$1 AND user_id=$2 AND provider=$3 FOR UPDATE`, id, userID, provider).Scan(&one); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.ErrNotFound
		}
		return err
	}
	now := time.Now().UTC()
	if _, err := tx.ExecContext(ctx, `UPDATE credentials SET is_default=FALSE, updated_at=$4 WHERE user_id=$1 AND provider=$2 AND id<>$3 AND is_default`, userID, provider, id, now); err != nil {
		return fmt.Errorf("clear default: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `UPDATE credentials SET is_default=TRUE, updated_at=$2 WHERE id=$1`, id, now); err != nil {
		return fmt.Errorf("set default: %w", err)
	}
	return tx.Commit()
}

func expectOneRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return model.ErrNotFound
	}
	return nil
}
