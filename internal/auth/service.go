// AngelaMos | 2026
// service.go

package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/parkwise-dev/parkwise-backend/internal/config"
	"github.com/parkwise-dev/parkwise-backend/internal/core"
	"github.com/parkwise-dev/parkwise-backend/internal/session"
	"github.com/parkwise-dev/parkwise-backend/internal/token"
	"github.com/parkwise-dev/parkwise-backend/internal/user"
	"github.com/parkwise-dev/parkwise-backend/internal/verification"
)

// Purpose selects which verification-code flow a request belongs to. The two
// flows carry different code lengths and must not be merged.
const (
	PurposeSignup        = "signup"
	PurposePasswordReset = "password_reset"
)

type Service struct {
	users     *user.Service
	sessions  *session.Service
	issuer    *token.Issuer
	codes     *verification.Service
	blacklist Blacklist
	cfg       config.VerificationConfig
	logger    *slog.Logger
}

func NewService(
	users *user.Service,
	sessions *session.Service,
	issuer *token.Issuer,
	codes *verification.Service,
	blacklist Blacklist,
	cfg config.VerificationConfig,
	logger *slog.Logger,
) *Service {
	return &Service{
		users:     users,
		sessions:  sessions,
		issuer:    issuer,
		codes:     codes,
		blacklist: blacklist,
		cfg:       cfg,
		logger:    logger,
	}
}

func (s *Service) Login(
	ctx context.Context,
	req LoginRequest,
) (*AuthResponse, error) {
	u, err := s.users.GetByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			//nolint:errcheck // timing attack prevention - always verify to prevent enumeration
			_, _ = core.VerifyPasswordTimingSafe(req.Password, nil)
			return nil, core.ErrInvalidCredentials
		}
		return nil, fmt.Errorf("get user: %w", err)
	}

	valid, err := core.VerifyPasswordTimingSafe(req.Password, &u.PasswordHash)
	if err != nil {
		return nil, fmt.Errorf("verify password: %w", err)
	}

	if !valid || !u.IsActive {
		return nil, core.ErrInvalidCredentials
	}

	return s.createAuthResponse(ctx, u, req.RememberMe)
}

// Refresh exchanges a presented refresh token for a new session pair. Every
// failure reason collapses to the same external shape at the handler; the
// typed error survives only into the logs.
func (s *Service) Refresh(
	ctx context.Context,
	refreshToken string,
) (*AuthResponse, error) {
	raw, record, err := s.sessions.Rotate(ctx, refreshToken)
	if err != nil {
		return nil, err
	}

	u, err := s.users.GetByID(ctx, record.UserID)
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}

	if !u.IsActive {
		return nil, fmt.Errorf("refresh: %w", core.ErrTokenRevoked)
	}

	return s.buildAuthResponse(u, raw)
}

// Logout revokes the presented refresh token and blacklists the current
// access token's jti for its remaining lifetime.
func (s *Service) Logout(
	ctx context.Context,
	refreshToken string,
	claims *token.Claims,
) error {
	if err := s.sessions.Revoke(
		ctx,
		refreshToken,
		session.OriginLogout,
	); err != nil {
		return fmt.Errorf("revoke refresh token: %w", err)
	}

	return s.blacklistAccessToken(ctx, claims)
}

func (s *Service) LogoutAll(
	ctx context.Context,
	claims *token.Claims,
) error {
	if err := s.sessions.RevokeAllForUser(
		ctx,
		claims.UserID,
		session.OriginLogout,
	); err != nil {
		return fmt.Errorf("revoke all sessions: %w", err)
	}

	return s.blacklistAccessToken(ctx, claims)
}

// RequestVerificationCode draws and delivers a code for the given flow.
// Opaque by design: the caller learns nothing about whether the email is
// registered.
func (s *Service) RequestVerificationCode(
	ctx context.Context,
	email, purpose string,
) error {
	digits := s.cfg.SignupCodeDigits
	if purpose == PurposePasswordReset {
		digits = s.cfg.ResetCodeDigits
	}

	if _, err := s.codes.Generate(ctx, email, digits); err != nil {
		return fmt.Errorf("generate verification code: %w", err)
	}

	return nil
}

func (s *Service) CheckVerificationCode(
	ctx context.Context,
	email, code string,
) (bool, error) {
	return s.codes.Validate(ctx, email, code)
}

// ResetPassword validates the reset code, replaces the password and revokes
// every session the account holds. An unknown email and a wrong code are
// indistinguishable to the caller.
func (s *Service) ResetPassword(
	ctx context.Context,
	req ResetPasswordRequest,
) error {
	valid, err := s.codes.Validate(ctx, req.Email, req.Code)
	if err != nil {
		return fmt.Errorf("validate reset code: %w", err)
	}
	if !valid {
		return core.ErrInvalidCredentials
	}

	u, err := s.users.GetByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			return core.ErrInvalidCredentials
		}
		return fmt.Errorf("get user: %w", err)
	}

	newHash, err := core.HashPassword(req.NewPassword)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}

	if err := s.users.UpdatePassword(ctx, u.ID, newHash); err != nil {
		return fmt.Errorf("update password: %w", err)
	}

	if err := s.sessions.RevokeAllForUser(
		ctx,
		u.ID,
		session.OriginPasswordReset,
	); err != nil {
		return fmt.Errorf("revoke sessions after reset: %w", err)
	}

	s.logger.InfoContext(
		ctx,
		"password reset completed, all sessions revoked",
		slog.String("user_id", u.ID),
	)

	return nil
}

func (s *Service) GetCurrentUser(
	ctx context.Context,
	userID string,
) (*UserResponse, error) {
	u, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	return &UserResponse{
		ID:    u.ID,
		Email: u.Email,
		Name:  u.Name,
		Role:  u.Role.String(),
	}, nil
}

// IsAccessTokenBlacklisted reports whether a jti was revoked by logout before
// its natural expiry.
func (s *Service) IsAccessTokenBlacklisted(
	ctx context.Context,
	jti string,
) (bool, error) {
	return s.blacklist.Contains(ctx, jti)
}

func (s *Service) blacklistAccessToken(
	ctx context.Context,
	claims *token.Claims,
) error {
	ttl := time.Until(claims.ExpiresAt)
	if ttl <= 0 {
		return nil
	}

	return s.blacklist.Add(ctx, claims.TokenID, ttl)
}

func (s *Service) createAuthResponse(
	ctx context.Context,
	u *user.User,
	rememberMe bool,
) (*AuthResponse, error) {
	raw, _, err := s.sessions.Issue(ctx, u.ID, rememberMe)
	if err != nil {
		return nil, fmt.Errorf("issue refresh token: %w", err)
	}

	return s.buildAuthResponse(u, raw)
}

func (s *Service) buildAuthResponse(
	u *user.User,
	rawRefresh string,
) (*AuthResponse, error) {
	accessToken, claims, err := s.issuer.Issue(u.ID, u.Email, u.Role)
	if err != nil {
		return nil, fmt.Errorf("issue access token: %w", err)
	}

	return &AuthResponse{
		User: UserResponse{
			ID:    u.ID,
			Email: u.Email,
			Name:  u.Name,
			Role:  u.Role.String(),
		},
		Tokens: TokenResponse{
			AccessToken:  accessToken,
			RefreshToken: rawRefresh,
			TokenType:    "Bearer",
			ExpiresIn:    int(claims.ExpiresAt.Sub(claims.IssuedAt) / time.Second),
			ExpiresAt:    claims.ExpiresAt,
		},
	}, nil
}
