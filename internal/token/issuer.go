// AngelaMos | 2026
// issuer.go

package token

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/lestrrat-go/jwx/v3/jwa"
	"github.com/lestrrat-go/jwx/v3/jwk"
	"github.com/lestrrat-go/jwx/v3/jwt"

	"github.com/parkwise-dev/parkwise-backend/internal/config"
	"github.com/parkwise-dev/parkwise-backend/internal/core"
	"github.com/parkwise-dev/parkwise-backend/internal/user"
)

// Issuer mints and verifies short-lived signed access tokens. It holds no
// mutable state and needs no coordination between concurrent callers.
type Issuer struct {
	key    jwk.Key
	config config.JWTConfig
	now    func() time.Time
}

type Option func(*Issuer)

// WithClock overrides the time source, for expiry tests.
func WithClock(now func() time.Time) Option {
	return func(i *Issuer) {
		i.now = now
	}
}

func NewIssuer(cfg config.JWTConfig, opts ...Option) (*Issuer, error) {
	if cfg.Secret == "" {
		return nil, fmt.Errorf("token issuer: signing secret is required")
	}

	key, err := jwk.Import([]byte(cfg.Secret))
	if err != nil {
		return nil, fmt.Errorf("import signing key: %w", err)
	}

	if setErr := key.Set(jwk.AlgorithmKey, jwa.HS256()); setErr != nil {
		return nil, fmt.Errorf("set algorithm: %w", setErr)
	}

	issuer := &Issuer{
		key:    key,
		config: cfg,
		now:    time.Now,
	}

	for _, opt := range opts {
		opt(issuer)
	}

	return issuer, nil
}

type Claims struct {
	UserID    string
	Email     string
	Role      user.Role
	TokenID   string
	IssuedAt  time.Time
	ExpiresAt time.Time
}

// Issue signs a token for the given identity. Pure of any store; the token id
// exists for log correlation and the logout blacklist.
func (i *Issuer) Issue(
	userID, email string,
	role user.Role,
) (string, Claims, error) {
	now := i.now().UTC()

	claims := Claims{
		UserID:    userID,
		Email:     email,
		Role:      role,
		TokenID:   uuid.New().String(),
		IssuedAt:  now,
		ExpiresAt: now.Add(i.config.AccessTokenExpire),
	}

	tok, err := jwt.NewBuilder().
		JwtID(claims.TokenID).
		Issuer(i.config.Issuer).
		Audience([]string{i.config.Audience}).
		Subject(userID).
		IssuedAt(now).
		NotBefore(now).
		Expiration(claims.ExpiresAt).
		Claim("email", email).
		Claim("role", role.String()).
		Build()
	if err != nil {
		return "", Claims{}, fmt.Errorf("build token: %w", err)
	}

	signed, err := jwt.Sign(tok, jwt.WithKey(jwa.HS256(), i.key))
	if err != nil {
		return "", Claims{}, fmt.Errorf("sign token: %w", err)
	}

	return string(signed), claims, nil
}

// Verify checks signature, issuer, audience and expiry, and returns the
// identity claims carried by the token.
func (i *Issuer) Verify(ctx context.Context, raw string) (*Claims, error) {
	tok, err := jwt.Parse(
		[]byte(raw),
		jwt.WithKey(jwa.HS256(), i.key),
		jwt.WithValidate(true),
		jwt.WithIssuer(i.config.Issuer),
		jwt.WithAudience(i.config.Audience),
		jwt.WithClock(jwt.ClockFunc(i.now)),
	)
	if err != nil {
		if isExpiredError(err) {
			return nil, fmt.Errorf("verify token: %w", core.ErrTokenExpired)
		}
		return nil, fmt.Errorf("verify token: %w", core.ErrTokenInvalid)
	}

	subject, ok := tok.Subject()
	if !ok || subject == "" {
		return nil, fmt.Errorf(
			"verify token: missing subject: %w",
			core.ErrTokenInvalid,
		)
	}

	var email string
	if err := tok.Get("email", &email); err != nil {
		return nil, fmt.Errorf(
			"verify token: missing email claim: %w",
			core.ErrTokenInvalid,
		)
	}

	var roleStr string
	if err := tok.Get("role", &roleStr); err != nil {
		return nil, fmt.Errorf(
			"verify token: missing role claim: %w",
			core.ErrTokenInvalid,
		)
	}

	role, err := user.ParseRole(roleStr)
	if err != nil {
		return nil, fmt.Errorf(
			"verify token: invalid role claim: %w",
			core.ErrTokenInvalid,
		)
	}

	jti, _ := tok.JwtID()
	issuedAt, _ := tok.IssuedAt()
	expiresAt, _ := tok.Expiration()

	return &Claims{
		UserID:    subject,
		Email:     email,
		Role:      role,
		TokenID:   jti,
		IssuedAt:  issuedAt,
		ExpiresAt: expiresAt,
	}, nil
}

func isExpiredError(err error) bool {
	if err == nil {
		return false
	}
	errStr := err.Error()
	return strings.Contains(errStr, "exp") &&
		strings.Contains(errStr, "not satisfied")
}
