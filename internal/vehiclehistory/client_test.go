// AngelaMos | 2026
// client_test.go

package vehiclehistory

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/parkwise-dev/parkwise-backend/internal/config"
	"github.com/parkwise-dev/parkwise-backend/internal/core"
)

func testRegistry(t *testing.T) (*httptest.Server, *atomic.Int32) {
	t.Helper()

	var tokenCalls atomic.Int32

	mux := http.NewServeMux()
	mux.HandleFunc("/oauth/token", func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		assert.Equal(t, "client_credentials", r.PostFormValue("grant_type"))
		assert.Equal(t, "parkwise", r.PostFormValue("client_id"))
		assert.Equal(t, "s3cret", r.PostFormValue("client_secret"))
		assert.Equal(t, "history:read", r.PostFormValue("scope"))

		tokenCalls.Add(1)
		json.NewEncoder(w).Encode(tokenGrant{
			TokenType:   "Bearer",
			ExpiresIn:   3600,
			AccessToken: "granted-token",
		})
	})
	mux.HandleFunc(
		"/vehicles/ABC-1234/history",
		func(w http.ResponseWriter, r *http.Request) {
			if r.Header.Get("Authorization") != "Bearer granted-token" {
				w.WriteHeader(http.StatusUnauthorized)
				return
			}
			json.NewEncoder(w).Encode(HistoryReport{
				Plate:       "ABC-1234",
				RetrievedAt: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
				Records: []HistoryRecord{
					{
						OccurredAt: time.Date(2026, 1, 15, 9, 30, 0, 0, time.UTC),
						Kind:       "citation",
						Authority:  "city of springfield",
						Details:    "expired meter",
					},
				},
			})
		},
	)

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	return srv, &tokenCalls
}

func testClientConfig(srv *httptest.Server) config.VehicleHistoryConfig {
	return config.VehicleHistoryConfig{
		TokenURL:            srv.URL + "/oauth/token",
		BaseURL:             srv.URL,
		ClientID:            "parkwise",
		ClientSecret:        "s3cret",
		Scope:               "history:read",
		SafetyBufferSeconds: 300,
		RequestTimeout:      5 * time.Second,
	}
}

func TestClientHistory(t *testing.T) {
	srv, tokenCalls := testRegistry(t)
	client := NewClient(testClientConfig(srv), slog.Default())

	report, err := client.History(context.Background(), "ABC-1234")
	require.NoError(t, err)

	assert.Equal(t, "ABC-1234", report.Plate)
	require.Len(t, report.Records, 1)
	assert.Equal(t, "citation", report.Records[0].Kind)

	// Second lookup reuses the cached token.
	_, err = client.History(context.Background(), "ABC-1234")
	require.NoError(t, err)
	assert.Equal(t, int32(1), tokenCalls.Load())
}

func TestClientHistoryUnknownPlate(t *testing.T) {
	srv, _ := testRegistry(t)
	client := NewClient(testClientConfig(srv), slog.Default())

	_, err := client.History(context.Background(), "ZZZ-0000")
	require.ErrorIs(t, err, core.ErrNotFound)
}

func TestClientHistoryAuthorityDown(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(
		func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
		},
	))
	t.Cleanup(srv.Close)

	client := NewClient(testClientConfig(srv), slog.Default())

	_, err := client.History(context.Background(), "ABC-1234")
	require.ErrorIs(t, err, core.ErrExternalUnavailable)
}
