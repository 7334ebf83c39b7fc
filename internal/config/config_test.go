// AngelaMos | 2026
// config_test.go

package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validConfig() *Config {
	return &Config{
		App: AppConfig{Environment: "development"},
		Server: ServerConfig{
			Host:         "0.0.0.0",
			Port:         8080,
			ReadTimeout:  30 * time.Second,
			WriteTimeout: 30 * time.Second,
		},
		Database: DatabaseConfig{URL: "postgres://localhost/parkwise"},
		Redis:    RedisConfig{URL: "redis://localhost:6379"},
		JWT: JWTConfig{
			Secret:            "some-signing-secret",
			AccessTokenExpire: 15 * time.Minute,
		},
		Verification: VerificationConfig{
			SignupCodeDigits: 6,
			ResetCodeDigits:  7,
		},
		VehicleHistory: VehicleHistoryConfig{
			TokenURL:     "https://auth.registry.example/oauth/token",
			BaseURL:      "https://api.registry.example",
			ClientID:     "parkwise",
			ClientSecret: "s3cret",
		},
		CORS: CORSConfig{
			AllowedOrigins:   []string{"http://localhost:3000"},
			AllowCredentials: true,
		},
	}
}

func TestValidateAccepts(t *testing.T) {
	require.NoError(t, validate(validConfig()))
}

func TestValidateRejectsMissingRequireds(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Config)
	}{
		{"database url", func(c *Config) { c.Database.URL = "" }},
		{"redis url", func(c *Config) { c.Redis.URL = "" }},
		{"jwt secret", func(c *Config) { c.JWT.Secret = "" }},
		{"token url", func(c *Config) { c.VehicleHistory.TokenURL = "" }},
		{"base url", func(c *Config) { c.VehicleHistory.BaseURL = "" }},
		{"client id", func(c *Config) { c.VehicleHistory.ClientID = "" }},
		{"client secret", func(c *Config) { c.VehicleHistory.ClientSecret = "" }},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := validConfig()
			tc.mutate(cfg)
			require.Error(t, validate(cfg))
		})
	}
}

func TestValidateCodeDigitBounds(t *testing.T) {
	for _, digits := range []int{3, 11, 0} {
		cfg := validConfig()
		cfg.Verification.SignupCodeDigits = digits
		require.Error(t, validate(cfg), "signup digits %d", digits)

		cfg = validConfig()
		cfg.Verification.ResetCodeDigits = digits
		require.Error(t, validate(cfg), "reset digits %d", digits)
	}

	for _, digits := range []int{4, 10} {
		cfg := validConfig()
		cfg.Verification.SignupCodeDigits = digits
		cfg.Verification.ResetCodeDigits = digits
		require.NoError(t, validate(cfg))
	}
}

func TestValidateRejectsWildcardWithCredentials(t *testing.T) {
	cfg := validConfig()
	cfg.CORS.AllowedOrigins = []string{"*"}
	require.Error(t, validate(cfg))

	cfg.CORS.AllowCredentials = false
	require.NoError(t, validate(cfg))
}

func TestEnvKeyReplacer(t *testing.T) {
	assert.Equal(t, "database.url", envKeyReplacer("DATABASE_URL"))
	assert.Equal(t, "jwt.secret", envKeyReplacer("JWT_SECRET"))
	assert.Equal(
		t,
		"vehicle_history.token_url",
		envKeyReplacer("VEHICLE_HISTORY_TOKEN_URL"),
	)

	// Unknown env vars are dropped, not passed through.
	assert.Empty(t, envKeyReplacer("PATH"))
	assert.Empty(t, envKeyReplacer("HOME"))
}

func TestServerAddress(t *testing.T) {
	s := ServerConfig{Host: "127.0.0.1", Port: 9090}
	assert.Equal(t, "127.0.0.1:9090", s.Address())
}
