// AngelaMos | 2026
// client.go

package vehiclehistory

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/parkwise-dev/parkwise-backend/internal/config"
	"github.com/parkwise-dev/parkwise-backend/internal/core"
)

// HistoryRecord is one entry in the national registry's report for a plate.
type HistoryRecord struct {
	OccurredAt time.Time `json:"occurred_at"`
	Kind       string    `json:"kind"`
	Authority  string    `json:"authority"`
	Details    string    `json:"details"`
}

// HistoryReport is the registry's response for a single plate lookup.
type HistoryReport struct {
	Plate       string          `json:"plate"`
	RetrievedAt time.Time       `json:"retrieved_at"`
	Records     []HistoryRecord `json:"records"`
}

type tokenGrant struct {
	TokenType   string `json:"token_type"`
	ExpiresIn   int64  `json:"expires_in"`
	AccessToken string `json:"access_token"`
}

// authoritySource acquires tokens from the registry's OAuth2 token endpoint
// using the client-credentials grant. It implements TokenSource.
type authoritySource struct {
	httpClient *http.Client
	cfg        config.VehicleHistoryConfig
}

func (s *authoritySource) Acquire(
	ctx context.Context,
) (string, time.Duration, error) {
	form := url.Values{}
	form.Set("grant_type", "client_credentials")
	form.Set("client_id", s.cfg.ClientID)
	form.Set("client_secret", s.cfg.ClientSecret)
	form.Set("scope", s.cfg.Scope)

	req, err := http.NewRequestWithContext(
		ctx,
		http.MethodPost,
		s.cfg.TokenURL,
		strings.NewReader(form.Encode()),
	)
	if err != nil {
		return "", 0, fmt.Errorf("build token request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return "", 0, fmt.Errorf(
			"%w: token endpoint unreachable: %v",
			core.ErrExternalUnavailable,
			err,
		)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		io.Copy(io.Discard, resp.Body)
		return "", 0, fmt.Errorf(
			"%w: token endpoint returned %d",
			core.ErrExternalUnavailable,
			resp.StatusCode,
		)
	}

	var grant tokenGrant
	if err := json.NewDecoder(resp.Body).Decode(&grant); err != nil {
		return "", 0, fmt.Errorf(
			"%w: malformed token response: %v",
			core.ErrExternalUnavailable,
			err,
		)
	}

	if grant.AccessToken == "" || grant.ExpiresIn <= 0 {
		return "", 0, fmt.Errorf(
			"%w: token response missing access_token or expires_in",
			core.ErrExternalUnavailable,
		)
	}

	return grant.AccessToken, time.Duration(grant.ExpiresIn) * time.Second, nil
}

// Client calls the national vehicle registry on behalf of the service. All
// calls share one TokenCache so concurrent lookups never trigger more than
// one credential acquisition.
type Client struct {
	httpClient *http.Client
	cache      *TokenCache
	baseURL    string
	logger     *slog.Logger
}

func NewClient(
	cfg config.VehicleHistoryConfig,
	logger *slog.Logger,
	opts ...CacheOption,
) *Client {
	httpClient := &http.Client{
		Timeout: cfg.RequestTimeout,
	}

	source := &authoritySource{
		httpClient: httpClient,
		cfg:        cfg,
	}

	buffer := time.Duration(cfg.SafetyBufferSeconds) * time.Second

	return &Client{
		httpClient: httpClient,
		cache:      NewTokenCache(source, buffer, opts...),
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		logger:     logger,
	}
}

// History fetches the registry report for a license plate. A 401 from the
// registry invalidates the cached token and retries once with a fresh one.
func (c *Client) History(
	ctx context.Context,
	plate string,
) (*HistoryReport, error) {
	report, status, err := c.fetch(ctx, plate)
	if err != nil {
		return nil, err
	}
	if status == http.StatusUnauthorized {
		c.logger.InfoContext(
			ctx,
			"registry rejected cached token, re-acquiring",
		)
		c.cache.Invalidate()

		report, status, err = c.fetch(ctx, plate)
		if err != nil {
			return nil, err
		}
	}

	switch {
	case status == http.StatusOK:
		return report, nil
	case status == http.StatusNotFound:
		return nil, core.ErrNotFound
	default:
		return nil, fmt.Errorf(
			"%w: registry returned %d",
			core.ErrExternalUnavailable,
			status,
		)
	}
}

func (c *Client) fetch(
	ctx context.Context,
	plate string,
) (*HistoryReport, int, error) {
	token, err := c.cache.GetToken(ctx)
	if err != nil {
		return nil, 0, err
	}

	endpoint := fmt.Sprintf(
		"%s/vehicles/%s/history",
		c.baseURL,
		url.PathEscape(plate),
	)

	req, err := http.NewRequestWithContext(
		ctx,
		http.MethodGet,
		endpoint,
		nil,
	)
	if err != nil {
		return nil, 0, fmt.Errorf("build history request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, 0, fmt.Errorf(
			"%w: registry unreachable: %v",
			core.ErrExternalUnavailable,
			err,
		)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		io.Copy(io.Discard, resp.Body)
		return nil, resp.StatusCode, nil
	}

	var report HistoryReport
	if err := json.NewDecoder(resp.Body).Decode(&report); err != nil {
		return nil, 0, fmt.Errorf(
			"%w: malformed registry response: %v",
			core.ErrExternalUnavailable,
			err,
		)
	}

	return &report, resp.StatusCode, nil
}
