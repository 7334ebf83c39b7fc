// AngelaMos | 2026
// entity_test.go

package user

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseRole(t *testing.T) {
	for _, valid := range []string{"driver", "inspector", "admin"} {
		role, err := ParseRole(valid)
		require.NoError(t, err)
		assert.Equal(t, valid, role.String())
		assert.True(t, role.Valid())
	}

	for _, invalid := range []string{"", "superuser", "Driver", "ADMIN"} {
		_, err := ParseRole(invalid)
		require.Error(t, err, "role %q", invalid)
	}
}

func TestIsAdmin(t *testing.T) {
	assert.True(t, (&User{Role: RoleAdmin}).IsAdmin())
	assert.False(t, (&User{Role: RoleDriver}).IsAdmin())
	assert.False(t, (&User{Role: RoleInspector}).IsAdmin())
}
