// AngelaMos | 2026
// repository.go

package verification

import (
	"context"
	"fmt"

	"github.com/parkwise-dev/parkwise-backend/internal/core"
)

type Repository interface {
	Create(ctx context.Context, code *Code) error
	Exists(ctx context.Context, email, code string) (bool, error)
}

type repository struct {
	db core.DBTX
}

func NewRepository(db core.DBTX) Repository {
	return &repository{db: db}
}

func (r *repository) Create(ctx context.Context, code *Code) error {
	query := `
		INSERT INTO verification_codes (id, email, code)
		VALUES ($1, $2, $3)
		RETURNING created_at`

	err := r.db.GetContext(ctx, &code.CreatedAt, query,
		code.ID,
		code.Email,
		code.Code,
	)
	if err != nil {
		return fmt.Errorf("create verification code: %w", err)
	}

	return nil
}

func (r *repository) Exists(
	ctx context.Context,
	email, code string,
) (bool, error) {
	query := `
		SELECT EXISTS (
			SELECT 1 FROM verification_codes
			WHERE email = $1 AND code = $2
		)`

	var exists bool
	if err := r.db.GetContext(ctx, &exists, query, email, code); err != nil {
		return false, fmt.Errorf("check verification code: %w", err)
	}

	return exists, nil
}
