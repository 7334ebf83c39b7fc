// AngelaMos | 2026
// entity.go

package user

import (
	"fmt"
	"time"
)

// Role is a closed set. Parse at the boundary, match exhaustively inside.
type Role string

const (
	RoleDriver    Role = "driver"
	RoleInspector Role = "inspector"
	RoleAdmin     Role = "admin"
)

func ParseRole(s string) (Role, error) {
	switch Role(s) {
	case RoleDriver:
		return RoleDriver, nil
	case RoleInspector:
		return RoleInspector, nil
	case RoleAdmin:
		return RoleAdmin, nil
	default:
		return "", fmt.Errorf("unknown role %q", s)
	}
}

func (r Role) String() string {
	return string(r)
}

func (r Role) Valid() bool {
	switch r {
	case RoleDriver, RoleInspector, RoleAdmin:
		return true
	default:
		return false
	}
}

type User struct {
	ID           string    `db:"id"`
	Email        string    `db:"email"`
	PasswordHash string    `db:"password_hash"`
	Name         string    `db:"name"`
	Role         Role      `db:"role"`
	IsActive     bool      `db:"is_active"`
	CreatedAt    time.Time `db:"created_at"`
	UpdatedAt    time.Time `db:"updated_at"`
}

func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}
