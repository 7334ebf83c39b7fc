// AngelaMos | 2026
// service_test.go

package session

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/parkwise-dev/parkwise-backend/internal/config"
	"github.com/parkwise-dev/parkwise-backend/internal/core"
)

// fakeRepository mirrors the store's semantics in memory, including the
// guarded revoke inside Rotate.
type fakeRepository struct {
	byID map[string]*RefreshToken
	now  func() time.Time
}

func newFakeRepository(now func() time.Time) *fakeRepository {
	return &fakeRepository{
		byID: make(map[string]*RefreshToken),
		now:  now,
	}
}

func (r *fakeRepository) Create(_ context.Context, token *RefreshToken) error {
	token.CreatedAt = r.now()
	cp := *token
	r.byID[token.ID] = &cp
	return nil
}

func (r *fakeRepository) FindByHash(
	_ context.Context,
	tokenHash string,
) (*RefreshToken, error) {
	for _, token := range r.byID {
		if token.TokenHash == tokenHash {
			cp := *token
			return &cp, nil
		}
	}
	return nil, fmt.Errorf("find refresh token: %w", core.ErrNotFound)
}

func (r *fakeRepository) Revoke(
	_ context.Context,
	tokenHash string,
	origin Origin,
) error {
	for _, token := range r.byID {
		if token.TokenHash == tokenHash && token.RevokedAt == nil {
			now := r.now()
			token.RevokedAt = &now
			token.RevokedBy = &origin
		}
	}
	return nil
}

func (r *fakeRepository) RevokeAllForUser(
	_ context.Context,
	userID string,
	origin Origin,
) error {
	for _, token := range r.byID {
		if token.UserID == userID && token.RevokedAt == nil {
			now := r.now()
			token.RevokedAt = &now
			token.RevokedBy = &origin
		}
	}
	return nil
}

func (r *fakeRepository) Rotate(
	ctx context.Context,
	oldID string,
	successor *RefreshToken,
) error {
	old, ok := r.byID[oldID]
	if !ok || old.RevokedAt != nil {
		return fmt.Errorf("revoke rotated token: %w", core.ErrTokenRevoked)
	}

	now := r.now()
	origin := OriginRotation
	old.RevokedAt = &now
	old.RevokedBy = &origin

	return r.Create(ctx, successor)
}

func testSessionConfig() config.SessionConfig {
	return config.SessionConfig{
		RefreshTokenExpire: 7 * 24 * time.Hour,
		RememberMeExpire:   30 * 24 * time.Hour,
	}
}

func newTestService(now time.Time) (*Service, *fakeRepository) {
	clock := func() time.Time { return now }
	repo := newFakeRepository(clock)
	svc := NewService(repo, testSessionConfig(), WithClock(clock))
	return svc, repo
}

func TestIssueTTLPerRememberMe(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	svc, _ := newTestService(now)

	_, short, err := svc.Issue(context.Background(), "user-1", false)
	require.NoError(t, err)
	assert.Equal(t, now.Add(7*24*time.Hour), short.ExpiresAt)

	_, long, err := svc.Issue(context.Background(), "user-1", true)
	require.NoError(t, err)
	assert.Equal(t, now.Add(30*24*time.Hour), long.ExpiresAt)
}

func TestIssueStoresOnlyDigest(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	svc, repo := newTestService(now)

	raw, record, err := svc.Issue(context.Background(), "user-1", false)
	require.NoError(t, err)
	require.NotEmpty(t, raw)

	stored := repo.byID[record.ID]
	require.NotNil(t, stored)
	assert.NotEqual(t, raw, stored.TokenHash)
	assert.Equal(t, core.HashToken(raw), stored.TokenHash)
}

func TestRotateSucceedsOnceThenRevoked(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	svc, _ := newTestService(now)

	raw, _, err := svc.Issue(context.Background(), "user-1", false)
	require.NoError(t, err)

	newRaw, successor, err := svc.Rotate(context.Background(), raw)
	require.NoError(t, err)
	assert.NotEqual(t, raw, newRaw)
	assert.Equal(t, "user-1", successor.UserID)

	// Presenting the consumed token again loses deterministically.
	_, _, err = svc.Rotate(context.Background(), raw)
	require.ErrorIs(t, err, core.ErrTokenRevoked)

	// The successor still rotates fine.
	_, _, err = svc.Rotate(context.Background(), newRaw)
	require.NoError(t, err)
}

// A remember-me session must not degrade to the short default window on its
// first refresh; every successor carries the presented record's lifetime.
func TestRotateKeepsRememberMeLifetime(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	svc, _ := newTestService(now)

	raw, _, err := svc.Issue(context.Background(), "user-1", true)
	require.NoError(t, err)

	_, successor, err := svc.Rotate(context.Background(), raw)
	require.NoError(t, err)
	assert.Equal(t, now.Add(30*24*time.Hour), successor.ExpiresAt)

	shortRaw, _, err := svc.Issue(context.Background(), "user-1", false)
	require.NoError(t, err)

	_, shortSuccessor, err := svc.Rotate(context.Background(), shortRaw)
	require.NoError(t, err)
	assert.Equal(t, now.Add(7*24*time.Hour), shortSuccessor.ExpiresAt)
}

func TestRotateUnknownToken(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	svc, _ := newTestService(now)

	_, _, err := svc.Rotate(context.Background(), "never-issued")
	require.ErrorIs(t, err, core.ErrNotFound)
}

func TestRotateExpiredToken(t *testing.T) {
	issuedAt := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	clock := issuedAt
	clockFn := func() time.Time { return clock }

	repo := newFakeRepository(clockFn)
	svc := NewService(repo, testSessionConfig(), WithClock(clockFn))

	raw, _, err := svc.Issue(context.Background(), "user-1", false)
	require.NoError(t, err)

	clock = issuedAt.Add(7*24*time.Hour + time.Second)

	_, _, err = svc.Rotate(context.Background(), raw)
	require.ErrorIs(t, err, core.ErrTokenExpired)
}

func TestRevokeIsIdempotent(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	svc, _ := newTestService(now)

	raw, _, err := svc.Issue(context.Background(), "user-1", false)
	require.NoError(t, err)

	require.NoError(t, svc.Revoke(context.Background(), raw, OriginLogout))
	require.NoError(t, svc.Revoke(context.Background(), raw, OriginLogout))
	require.NoError(
		t,
		svc.Revoke(context.Background(), "never-issued", OriginLogout),
	)
}

func TestRevokeAllForUserLeavesOthersAlone(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	svc, repo := newTestService(now)

	_, alice1, err := svc.Issue(context.Background(), "alice", false)
	require.NoError(t, err)
	_, alice2, err := svc.Issue(context.Background(), "alice", true)
	require.NoError(t, err)
	_, bob, err := svc.Issue(context.Background(), "bob", false)
	require.NoError(t, err)

	require.NoError(t, svc.RevokeAllForUser(
		context.Background(),
		"alice",
		OriginPasswordReset,
	))

	assert.NotNil(t, repo.byID[alice1.ID].RevokedAt)
	assert.NotNil(t, repo.byID[alice2.ID].RevokedAt)
	require.NotNil(t, repo.byID[alice1.ID].RevokedBy)
	assert.Equal(t, OriginPasswordReset, *repo.byID[alice1.ID].RevokedBy)
	assert.Nil(t, repo.byID[bob.ID].RevokedAt)
}

func TestStatusRevocationWinsOverExpiry(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	revokedAt := now.Add(-time.Hour)
	origin := OriginLogout

	token := &RefreshToken{
		ExpiresAt: now.Add(-time.Minute),
		RevokedAt: &revokedAt,
		RevokedBy: &origin,
	}

	assert.Equal(t, StatusRevoked, token.Status(now))
}
