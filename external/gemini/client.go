// Package gemini calls the Google Gemini generateContent REST API.
package gemini

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"strings"
	"time"

	sonic "github.com/bytedance/sonic"
	crerr "github.com/cockroachdb/errors"
	"github.com/ajmckee/fpl-assistant/internal/platform/logging"
	"github.com/ajmckee/fpl-assistant/internal/platform/resilience"
	"github.com/ajmckee/fpl-assistant/internal/usecase"
)

const (
	defaultBaseURL = "https://generativelanguage.googleapis.com/v1beta"
	defaultModel   = "gemini-2.0-flash"
	maxBodyBytes   = 4 << 20
)

var apiKeyParamRegex = regexp.MustCompile(`key=[^&\s"']+`)
var errGeminiTransient = crerr.New("gemini transient failure")

type ClientConfig struct {
	HTTPClient     *http.Client
	BaseURL        string
	APIKey         string
	Model          string
	Timeout        time.Duration
	Logger         *logging.Logger
	CircuitBreaker resilience.CircuitBreakerConfig
}

type Client struct {
	httpClient     *http.Client
	baseURL        string
	apiKey         string
	model          string
	logger         *logging.Logger
	breaker        *resilience.CircuitBreaker
	circuitEnabled bool
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
		httpClient.Timeout = 60 * time.Second
	}

	baseURL := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	model := strings.TrimSpace(cfg.Model)
	if model == "" {
		model = defaultModel
	}
	breakerCfg := resilience.NormalizeCircuitBreakerConfig(cfg.CircuitBreaker)

	return &Client{
		httpClient:     httpClient,
		baseURL:        baseURL,
		apiKey:         strings.TrimSpace(cfg.APIKey),
		model:          model,
		logger:         logger,
		breaker:        resilience.NewCircuitBreaker(breakerCfg.FailureThreshold, breakerCfg.OpenTimeout, breakerCfg.HalfOpenMaxReq),
		circuitEnabled: breakerCfg.Enabled,
	}
}

type generateRequest struct {
	SystemInstruction *contentPart     `json:"system_instruction,omitempty"`
	Contents          []contentPart    `json:"contents"`
	GenerationConfig  generationConfig `json:"generationConfig"`
}

type contentPart struct {
	Role  string `json:"role,omitempty"`
	Parts []part `json:"parts"`
}

type part struct {
	Text string `json:"text"`
}

type generationConfig struct {
	Temperature     float64 `json:"temperature"`
	MaxOutputTokens int     `json:"maxOutputTokens"`
}

type generateResponse struct {
	Candidates []struct {
		Content struct {
			Parts []part `json:"parts"`
		} `json:"content"`
	} `json:"candidates"`
}

// Generate sends one prompt and returns the model's raw text reply.
// systemPrompt may be empty. Provider failures and empty candidate lists map
// to ErrGenerationFailed.
func (c *Client) Generate(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	if strings.TrimSpace(userPrompt) == "" {
		return "", fmt.Errorf("%w: prompt must not be empty", usecase.ErrInvalidInput)
	}
	if c.apiKey == "" {
		return "", fmt.Errorf("%w: gemini api key is not configured", usecase.ErrGenerationFailed)
	}

	if c.circuitEnabled {
		if err := c.breaker.Allow(); err != nil {
			c.logger.WarnContext(ctx, "gemini circuit breaker rejected request", "state", c.breaker.State())
			return "", fmt.Errorf("%w: text generation is temporarily unavailable", usecase.ErrGenerationFailed)
		}
	}

	payload := generateRequest{
		Contents: []contentPart{{Role: "user", Parts: []part{{Text: userPrompt}}}},
		GenerationConfig: generationConfig{
			Temperature:     0.7,
			MaxOutputTokens: 1024,
		},
	}
	if strings.TrimSpace(systemPrompt) != "" {
		payload.SystemInstruction = &contentPart{Parts: []part{{Text: systemPrompt}}}
	}

	body, err := sonic.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("encode request: %w", err)
	}

	fullURL := fmt.Sprintf("%s/models/%s:generateContent?key=%s", c.baseURL, c.model, c.apiKey)
	text, err := c.execute(ctx, fullURL, body)
	if c.circuitEnabled {
		if err != nil && crerr.Is(err, errGeminiTransient) {
			c.breaker.RecordFailure()
		} else {
			c.breaker.RecordSuccess()
		}
	}
	if err != nil {
		return "", fmt.Errorf("%w: %v", usecase.ErrGenerationFailed, redactAPIKey(err.Error()))
	}
	return text, nil
}

func (c *Client) execute(ctx context.Context, fullURL string, body []byte) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, fullURL, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: send request: %v", errGeminiTransient, err)
	}
	defer func() { _ = resp.Body.Close() }()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return "", fmt.Errorf("%w: read response body: %v", errGeminiTransient, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		if resp.StatusCode >= 500 || resp.StatusCode == http.StatusTooManyRequests {
			return "", fmt.Errorf("%w: provider status=%d", errGeminiTransient, resp.StatusCode)
		}
		return "", fmt.Errorf("provider status=%d body=%s", resp.StatusCode, abbreviateBody(raw))
	}

	var decoded generateResponse
	if err := sonic.Unmarshal(raw, &decoded); err != nil {
		return "", fmt.Errorf("decode provider payload: %w", err)
	}
	if len(decoded.Candidates) == 0 || len(decoded.Candidates[0].Content.Parts) == 0 {
		return "", fmt.Errorf("provider returned no candidates")
	}

	var out strings.Builder
	for _, p := range decoded.Candidates[0].Content.Parts {
		out.WriteString(p.Text)
	}
	text := strings.TrimSpace(out.String())
	if text == "" {
		return "", fmt.Errorf("provider returned an empty reply")
	}
	return text, nil
}

func redactAPIKey(value string) string {
	return apiKeyParamRegex.ReplaceAllString(value, "key=REDACTED")
}

func abbreviateBody(raw []byte) string {
	const limit = 256
	body := strings.TrimSpace(string(raw))
	if len(body) > limit {
		return body[:limit] + "..."
	}
	return body
}
