// AngelaMos | 2026
// service.go

package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/parkwise-dev/parkwise-backend/internal/config"
	"github.com/parkwise-dev/parkwise-backend/internal/core"
)

// Service owns the refresh-token lifecycle: issue, rotate, revoke, bulk
// revoke. All shared mutable state lives in the store; the service itself is
// safe for concurrent use.
type Service struct {
	repo Repository
	cfg  config.SessionConfig
	now  func() time.Time
}

type Option func(*Service)

func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		s.now = now
	}
}

func NewService(repo Repository, cfg config.SessionConfig, opts ...Option) *Service {
	s := &Service{
		repo: repo,
		cfg:  cfg,
		now:  time.Now,
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Issue persists a new active record and returns the raw token value. The
// raw value exists only in this return; the store keeps its digest.
func (s *Service) Issue(
	ctx context.Context,
	userID string,
	rememberMe bool,
) (string, *RefreshToken, error) {
	raw, err := core.GenerateRefreshToken()
	if err != nil {
		return "", nil, fmt.Errorf("generate refresh token: %w", err)
	}

	ttl := s.cfg.RefreshTokenExpire
	if rememberMe {
		ttl = s.cfg.RememberMeExpire
	}

	record := &RefreshToken{
		ID:        uuid.New().String(),
		UserID:    userID,
		TokenHash: core.HashToken(raw),
		ExpiresAt: s.now().UTC().Add(ttl),
	}

	if err := s.repo.Create(ctx, record); err != nil {
		return "", nil, err
	}

	return raw, record, nil
}

// Rotate exchanges a presented token for its successor. The revoke+insert
// pair commits atomically; a duplicate concurrent presentation of the same
// token deterministically loses with core.ErrTokenRevoked. The successor
// inherits the presented record's issuance window, so a remember-me session
// keeps its long lifetime across rotations.
func (s *Service) Rotate(
	ctx context.Context,
	presented string,
) (string, *RefreshToken, error) {
	record, err := s.repo.FindByHash(ctx, core.HashToken(presented))
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			return "", nil, fmt.Errorf("rotate: %w", core.ErrNotFound)
		}
		return "", nil, err
	}

	switch record.Status(s.now().UTC()) {
	case StatusRevoked:
		return "", nil, fmt.Errorf("rotate: %w", core.ErrTokenRevoked)
	case StatusExpired:
		return "", nil, fmt.Errorf("rotate: %w", core.ErrTokenExpired)
	case StatusActive:
		// fall through to the guarded exchange
	}

	raw, err := core.GenerateRefreshToken()
	if err != nil {
		return "", nil, fmt.Errorf("generate successor token: %w", err)
	}

	lifetime := record.ExpiresAt.Sub(record.CreatedAt)
	if lifetime <= 0 {
		lifetime = s.cfg.RefreshTokenExpire
	}

	successor := &RefreshToken{
		ID:        uuid.New().String(),
		UserID:    record.UserID,
		TokenHash: core.HashToken(raw),
		ExpiresAt: s.now().UTC().Add(lifetime),
	}

	if err := s.repo.Rotate(ctx, record.ID, successor); err != nil {
		return "", nil, err
	}

	return raw, successor, nil
}

// Revoke marks the presented token revoked. Idempotent: revoking an already
// revoked or unknown token is not an error.
func (s *Service) Revoke(
	ctx context.Context,
	presented string,
	origin Origin,
) error {
	return s.repo.Revoke(ctx, core.HashToken(presented), origin)
}

// RevokeAllForUser bulk-revokes every active record of one user, leaving
// other users untouched. Used on password reset.
func (s *Service) RevokeAllForUser(
	ctx context.Context,
	userID string,
	origin Origin,
) error {
	return s.repo.RevokeAllForUser(ctx, userID, origin)
}
