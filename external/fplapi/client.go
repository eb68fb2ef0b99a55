// Package fplapi talks to the public Fantasy Premier League REST API.
package fplapi

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	sonic "github.com/bytedance/sonic"
	crerr "github.com/cockroachdb/errors"
	"github.com/ajmckee/fpl-assistant/internal/domain/fpl"
	"github.com/ajmckee/fpl-assistant/internal/platform/logging"
	"github.com/ajmckee/fpl-assistant/internal/platform/resilience"
	"github.com/ajmckee/fpl-assistant/internal/usecase"
)

const (
	defaultBaseURL = "https://fantasy.premierleague.com/api"
	maxBodyBytes   = 16 << 20 // bootstrap-static runs to several MB
)

var errFPLTransient = crerr.New("fpl transient failure")

type ClientConfig struct {
	HTTPClient     *http.Client
	BaseURL        string
	Timeout        time.Duration
	MaxRetries     int
	Logger         *logging.Logger
	CircuitBreaker resilience.CircuitBreakerConfig
}

type Client struct {
	httpClient     *http.Client
	baseURL        string
	maxRetries     int
	logger         *logging.Logger
	breaker        *resilience.CircuitBreaker
	circuitEnabled bool
	flight         resilience.SingleFlight
}

func NewClient(cfg ClientConfig) *Client {
	logger := cfg.Logger
	if logger == nil {
		logger = logging.Default()
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.Timeout}
	}
	if httpClient.Timeout <= 0 {
		httpClient.Timeout = 20 * time.Second
	}

	baseURL := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	breakerCfg := resilience.NormalizeCircuitBreakerConfig(cfg.CircuitBreaker)

	return &Client{
		httpClient:     httpClient,
		baseURL:        baseURL,
		maxRetries:     maxInt(cfg.MaxRetries, 0),
		logger:         logger,
		breaker:        resilience.NewCircuitBreaker(breakerCfg.FailureThreshold, breakerCfg.OpenTimeout, breakerCfg.HalfOpenMaxReq),
		circuitEnabled: breakerCfg.Enabled,
	}
}

// FetchBootstrap returns the players, teams and gameweeks of the current
// season.
func (c *Client) FetchBootstrap(ctx context.Context) ([]fpl.Player, []fpl.Team, []fpl.Gameweek, error) {
	var payload bootstrapResponse
	if err := c.doJSON(ctx, "/bootstrap-static/", &payload); err != nil {
		return nil, nil, nil, fmt.Errorf("fetch bootstrap: %w", err)
	}
	players, teams, gameweeks := mapBootstrap(payload)
	return players, teams, gameweeks, nil
}

// FetchFixtures returns the full season fixture list, scheduled or not.
func (c *Client) FetchFixtures(ctx context.Context) ([]fpl.Fixture, error) {
	var payload []fixtureItem
	if err := c.doJSON(ctx, "/fixtures/", &payload); err != nil {
		return nil, fmt.Errorf("fetch fixtures: %w", err)
	}
	return mapFixtures(payload), nil
}

// FetchEntry returns the manager profile for one entry id. Unknown entries
// map to ErrNotFound.
func (c *Client) FetchEntry(ctx context.Context, entryID int) (fpl.ManagerProfile, error) {
	if entryID <= 0 {
		return fpl.ManagerProfile{}, fmt.Errorf("%w: entry id must be greater than zero", usecase.ErrInvalidInput)
	}

	var payload entryResponse
	if err := c.doJSON(ctx, fmt.Sprintf("/entry/%d/", entryID), &payload); err != nil {
		return fpl.ManagerProfile{}, fmt.Errorf("fetch entry entry_id=%d: %w", entryID, err)
	}
	return mapEntry(payload), nil
}

// FetchEntryPicks returns a manager's squad picks for one gameweek.
func (c *Client) FetchEntryPicks(ctx context.Context, entryID, gameweek int) ([]fpl.Pick, error) {
	if entryID <= 0 || gameweek <= 0 {
		return nil, fmt.Errorf("%w: entry id and gameweek must be greater than zero", usecase.ErrInvalidInput)
	}

	var payload picksResponse
	if err := c.doJSON(ctx, fmt.Sprintf("/entry/%d/event/%d/picks/", entryID, gameweek), &payload); err != nil {
		return nil, fmt.Errorf("fetch entry picks entry_id=%d gameweek=%d: %w", entryID, gameweek, err)
	}
	return mapPicks(payload), nil
}

func (c *Client) doJSON(ctx context.Context, path string, target any) error {
	if c.circuitEnabled {
		if err := c.breaker.Allow(); err != nil {
			c.logger.WarnContext(ctx, "fpl circuit breaker rejected request", "state", c.breaker.State())
			return fmt.Errorf("%w: fantasy data provider is temporarily unavailable", usecase.ErrDependencyUnavailable)
		}
	}

	fullURL := c.baseURL + path
	out, err, _ := c.flight.Do(fullURL, func() (any, error) {
		raw, reqErr := c.executeRequest(ctx, fullURL)
		if c.circuitEnabled {
			if reqErr != nil && crerr.Is(reqErr, errFPLTransient) {
				c.breaker.RecordFailure()
			} else {
				c.breaker.RecordSuccess()
			}
		}
		return raw, reqErr
	})
	if err != nil {
		return err
	}

	raw, ok := out.([]byte)
	if !ok {
		return fmt.Errorf("unexpected response payload type %T", out)
	}

	if err := sonic.Unmarshal(raw, target); err != nil {
		return fmt.Errorf("decode provider payload: %w", err)
	}
	return nil
}

func (c *Client) executeRequest(ctx context.Context, fullURL string) ([]byte, error) {
	var lastErr error
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
		if err != nil {
			return nil, fmt.Errorf("build request: %w", err)
		}
		req.Header.Set("accept", "application/json")
		req.Header.Set("user-agent", "fpl-assistant/1.0")

		resp, err := c.httpClient.Do(req)
		if err != nil {
			lastErr = fmt.Errorf("%w: send request: %v", errFPLTransient, err)
		} else {
			raw, readErr := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
			_ = resp.Body.Close()
			switch {
			case readErr != nil:
				lastErr = fmt.Errorf("%w: read response body: %v", errFPLTransient, readErr)
			case resp.StatusCode >= 200 && resp.StatusCode < 300:
				return raw, nil
			case resp.StatusCode == http.StatusNotFound:
				return nil, fmt.Errorf("%w: provider status=404", usecase.ErrNotFound)
			case isRetryableStatus(resp.StatusCode):
				lastErr = fmt.Errorf("%w: provider status=%d body=%s", errFPLTransient, resp.StatusCode, abbreviateBody(raw))
			default:
				return nil, fmt.Errorf("%w: provider status=%d body=%s", usecase.ErrDependencyUnavailable, resp.StatusCode, abbreviateBody(raw))
			}
		}

		if attempt == c.maxRetries {
			break
		}
		backoff := time.Duration(attempt+1) * time.Second
		timer := time.NewTimer(backoff)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, ctx.Err()
		case <-timer.C:
		}
	}

	if lastErr == nil {
		lastErr = fmt.Errorf("provider request failed")
	}
	c.logger.WarnContext(ctx, "fpl request failed", "url", fullURL, "error", lastErr)
	return nil, fmt.Errorf("%w: %w", usecase.ErrDependencyUnavailable, lastErr)
}

func isRetryableStatus(status int) bool {
	switch status {
	case http.StatusTooManyRequests,
		http.StatusInternalServerError,
		http.StatusBadGateway,
		http.StatusServiceUnavailable,
		http.StatusGatewayTimeout:
		return true
	default:
		return false
	}
}

func abbreviateBody(raw []byte) string {
	const limit = 256
	body := strings.TrimSpace(string(raw))
	if len(body) > limit {
		return body[:limit] + "..."
	}
	return body
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
