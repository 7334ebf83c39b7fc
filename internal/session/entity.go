// AngelaMos | 2026
// entity.go

package session

import (
	"time"
)

// Origin records why a token was revoked. Diagnostic only; it never feeds
// back into authorization decisions.
type Origin string

const (
	OriginRotation      Origin = "rotation"
	OriginLogout        Origin = "logout"
	OriginPasswordReset Origin = "password_reset"
)

// Status is the closed state set of a refresh-token record. Revoked is
// terminal; there is no transition out of it.
type Status int

const (
	StatusActive Status = iota
	StatusExpired
	StatusRevoked
)

// RefreshToken is the persisted record for one opaque session-continuation
// token. Only the sha256 digest of the presented value is stored. Records are
// never deleted; revoked rows remain for audit and replay detection.
type RefreshToken struct {
	ID        string     `db:"id"`
	UserID    string     `db:"user_id"`
	TokenHash string     `db:"token_hash"`
	CreatedAt time.Time  `db:"created_at"`
	ExpiresAt time.Time  `db:"expires_at"`
	RevokedAt *time.Time `db:"revoked_at"`
	RevokedBy *Origin    `db:"revoked_by"`
}

// Status classifies the record against the given instant. Revocation wins
// over expiry so a rotated-out token always reports revoked.
func (t *RefreshToken) Status(now time.Time) Status {
	if t.RevokedAt != nil {
		return StatusRevoked
	}
	if !t.ExpiresAt.After(now) {
		return StatusExpired
	}
	return StatusActive
}

func (t *RefreshToken) IsRevoked() bool {
	return t.RevokedAt != nil
}
