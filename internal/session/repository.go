// AngelaMos | 2026
// repository.go

package session

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/parkwise-dev/parkwise-backend/internal/core"
)

type Repository interface {
	Create(ctx context.Context, token *RefreshToken) error
	FindByHash(ctx context.Context, tokenHash string) (*RefreshToken, error)
	Revoke(ctx context.Context, tokenHash string, origin Origin) error
	RevokeAllForUser(ctx context.Context, userID string, origin Origin) error
	Rotate(ctx context.Context, oldID string, successor *RefreshToken) error
}

type repository struct {
	db *sqlx.DB
}

func NewRepository(db *sqlx.DB) Repository {
	return &repository{db: db}
}

const insertQuery = `
	INSERT INTO refresh_tokens (id, user_id, token_hash, expires_at)
	VALUES ($1, $2, $3, $4)
	RETURNING created_at`

func (r *repository) Create(ctx context.Context, token *RefreshToken) error {
	err := r.db.GetContext(ctx, &token.CreatedAt, insertQuery,
		token.ID,
		token.UserID,
		token.TokenHash,
		token.ExpiresAt,
	)
	if err != nil {
		return fmt.Errorf("create refresh token: %w", err)
	}

	return nil
}

func (r *repository) FindByHash(
	ctx context.Context,
	tokenHash string,
) (*RefreshToken, error) {
	query := `
		SELECT id, user_id, token_hash, created_at, expires_at,
		       revoked_at, revoked_by
		FROM refresh_tokens
		WHERE token_hash = $1`

	var token RefreshToken
	err := r.db.GetContext(ctx, &token, query, tokenHash)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("find refresh token: %w", core.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("find refresh token: %w", err)
	}

	return &token, nil
}

// Revoke marks the matching record revoked. Matching zero rows is not an
// error: the record may already be revoked, and revocation is idempotent.
func (r *repository) Revoke(
	ctx context.Context,
	tokenHash string,
	origin Origin,
) error {
	query := `
		UPDATE refresh_tokens
		SET revoked_at = NOW(), revoked_by = $2
		WHERE token_hash = $1 AND revoked_at IS NULL`

	if _, err := r.db.ExecContext(ctx, query, tokenHash, origin); err != nil {
		return fmt.Errorf("revoke refresh token: %w", err)
	}

	return nil
}

func (r *repository) RevokeAllForUser(
	ctx context.Context,
	userID string,
	origin Origin,
) error {
	query := `
		UPDATE refresh_tokens
		SET revoked_at = NOW(), revoked_by = $2
		WHERE user_id = $1 AND revoked_at IS NULL`

	if _, err := r.db.ExecContext(ctx, query, userID, origin); err != nil {
		return fmt.Errorf("revoke all user tokens: %w", err)
	}

	return nil
}

// Rotate revokes the presented record and inserts its successor in one
// transaction. The revoke is guarded on revoked_at IS NULL and checked by
// rows affected, so when two rotations race on the same record exactly one
// commits; the loser sees core.ErrTokenRevoked and nothing else changes.
func (r *repository) Rotate(
	ctx context.Context,
	oldID string,
	successor *RefreshToken,
) error {
	return core.InTx(ctx, r.db, func(tx *sqlx.Tx) error {
		revokeQuery := `
			UPDATE refresh_tokens
			SET revoked_at = NOW(), revoked_by = $2
			WHERE id = $1 AND revoked_at IS NULL`

		result, err := tx.ExecContext(ctx, revokeQuery, oldID, OriginRotation)
		if err != nil {
			return fmt.Errorf("revoke rotated token: %w", err)
		}

		rows, err := result.RowsAffected()
		if err != nil {
			return fmt.Errorf("revoke rotated token: %w", err)
		}

		if rows == 0 {
			return fmt.Errorf("revoke rotated token: %w", core.ErrTokenRevoked)
		}

		err = tx.GetContext(ctx, &successor.CreatedAt, insertQuery,
			successor.ID,
			successor.UserID,
			successor.TokenHash,
			successor.ExpiresAt,
		)
		if err != nil {
			return fmt.Errorf("create successor token: %w", err)
		}

		return nil
	})
}
