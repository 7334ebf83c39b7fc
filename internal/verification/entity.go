// AngelaMos | 2026
// entity.go

package verification

import (
	"time"
)

// Code is one issued verification code. There is deliberately no expiry and
// no consumed flag: a code stays checkable until the row disappears by other
// means. That matches the shipped behavior; see the regression test before
// changing it.
type Code struct {
	ID        string    `db:"id"`
	Email     string    `db:"email"`
	Code      string    `db:"code"`
	CreatedAt time.Time `db:"created_at"`
}
