// Package gateway is a resilient client for the card API gateway.
//
// Every operation is a logical call executed by Executor: one correlation id,
// per-attempt timeouts, bounded exponential backoff on 429/503 and network
// errors, and a single classified *Error on failure. Responses are decoded and
// validated against the declared contract; a shape mismatch is reported as
// KindInvalidResponse rather than a transport failure.
package gateway

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/vietddude/cardgate/internal/infra/gateway/provider"
	"github.com/vietddude/cardgate/internal/infra/gateway/routing"
)

// DefaultBaseURL is used when no base URL is configured.
const DefaultBaseURL = "http://api-gateway:8080/api/v1"

// Timeouts holds the per-attempt timeout of each operation class.
type Timeouts struct {
	Card   time.Duration `yaml:"card"`
	Import time.Duration `yaml:"import"`
	Health time.Duration `yaml:"health"`
}

// DefaultTimeouts are the gateway operation classes: card 30s, import 60s, health 5s.
var DefaultTimeouts = Timeouts{
	Card:   30 * time.Second,
	Import: 60 * time.Second,
	Health: 5 * time.Second,
}

func (t Timeouts) withDefaults() Timeouts {
	if t.Card <= 0 {
		t.Card = DefaultTimeouts.Card
	}
	if t.Import <= 0 {
		t.Import = DefaultTimeouts.Import
	}
	if t.Health <= 0 {
		t.Health = DefaultTimeouts.Health
	}
	return t
}

// RetrySettings is the YAML form of the retry policy.
// A nil MaxRetries selects the default ceiling; an explicit 0 disables retries.
type RetrySettings struct {
	MaxRetries        *int          `yaml:"max_retries"`
	BaseDelay         time.Duration `yaml:"base_delay"`
	RetryableStatuses []int         `yaml:"retryable_statuses"`
}

// Config configures a Client.
type Config struct {
	BaseURL  string        `yaml:"base_url"`
	Timeouts Timeouts      `yaml:"timeouts"`
	Retry    RetrySettings `yaml:"retry"`
}

// DefaultConfig returns the gateway defaults.
func DefaultConfig() Config {
	return Config{
		BaseURL:  DefaultBaseURL,
		Timeouts: DefaultTimeouts,
		Retry: RetrySettings{
			BaseDelay:         routing.DefaultRetryConfig.BaseDelay,
			RetryableStatuses: []int{http.StatusTooManyRequests, http.StatusServiceUnavailable},
		},
	}
}

// RetryConfig converts the YAML settings into a routing policy.
func (c Config) RetryConfig() routing.RetryConfig {
	maxRetries := routing.DefaultRetryConfig.MaxRetries
	if c.Retry.MaxRetries != nil {
		maxRetries = *c.Retry.MaxRetries
	}
	return routing.NewRetryConfig(maxRetries, c.Retry.BaseDelay, c.Retry.RetryableStatuses)
}

// Client exposes the typed gateway operations.
type Client struct {
	exec     *Executor
	timeouts Timeouts
}

// Close releases idle connections held by the transport.
func (c *Client) Close() error {
	if closer, ok := c.exec.transport.(io.Closer); ok {
		return closer.Close()
	}
	return nil
}

// NewClient creates a client over an executor.
func NewClient(exec *Executor, timeouts Timeouts) *Client {
	return &Client{exec: exec, timeouts: timeouts.withDefaults()}
}

// New builds the full stack (HTTP provider, executor, client) from cfg.
func New(cfg Config, opts ...ExecutorOption) *Client {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	p := provider.NewHTTPProvider("api-gateway", baseURL)
	slog.Debug("Gateway client configured", "provider", p.GetName(), "base_url", p.BaseURL())
	return NewClient(NewExecutor(p, cfg.RetryConfig(), opts...), cfg.Timeouts)
}

// Health calls GET /health.
func (c *Client) Health(ctx context.Context) (*HealthResponse, error) {
	return invoke[HealthResponse](ctx, c, Call{
		Path:    "/health",
		Method:  http.MethodGet,
		Timeout: c.timeouts.Health,
	})
}

// GenerateCard calls POST /cards/generate.
func (c *Client) GenerateCard(ctx context.Context, req GenerateCardRequest) (*GenerateCardResponse, error) {
	call := Call{Path: "/cards/generate", Method: http.MethodPost, Timeout: c.timeouts.Card}
	body, err := c.cardBody(call, req)
	if err != nil {
		return nil, err
	}
	call.Body = body
	return invoke[GenerateCardResponse](ctx, c, call)
}

// GetCard calls GET /cards/{id}. The id is percent-encoded into the path.
func (c *Client) GetCard(ctx context.Context, id string) (*CardResponse, error) {
	call := Call{
		Path:    "/cards/" + url.PathEscape(id),
		Route:   "/cards/{id}",
		Method:  http.MethodGet,
		Timeout: c.timeouts.Card,
	}
	if id == "" {
		return nil, c.reject(call, errors.New("card id is required"))
	}
	return invoke[CardResponse](ctx, c, call)
}

// AnalyzeCard calls POST /cards/analyze.
func (c *Client) AnalyzeCard(ctx context.Context, req AnalyzeCardRequest) (*AnalyzeCardResponse, error) {
	call := Call{Path: "/cards/analyze", Method: http.MethodPost, Timeout: c.timeouts.Card}
	body, err := c.cardBody(call, req)
	if err != nil {
		return nil, err
	}
	call.Body = body
	return invoke[AnalyzeCardResponse](ctx, c, call)
}

// ImportCSV uploads a CSV file with POST /import/csv as multipart/form-data.
func (c *Client) ImportCSV(ctx context.Context, req ImportRequest) (*ImportCSVResponse, error) {
	call := Call{Path: "/import/csv", Method: http.MethodPost, Timeout: c.timeouts.Import}
	if err := validateStruct(&req); err != nil {
		return nil, c.reject(call, err)
	}

	form := &Form{}
	form.AddFile("file", req.FileName, req.Content)
	if req.CardType != "" {
		form.AddField("cardType", req.CardType)
	}
	if req.DryRun != nil {
		form.AddField("dryRun", strconv.FormatBool(*req.DryRun))
	}
	call.Form = form

	return invoke[ImportCSVResponse](ctx, c, call)
}

// GetImportStatus calls GET /import/{jobId}/status.
func (c *Client) GetImportStatus(ctx context.Context, jobID string) (*ImportStatusResponse, error) {
	call := Call{
		Path:    "/import/" + url.PathEscape(jobID) + "/status",
		Route:   "/import/{jobId}/status",
		Method:  http.MethodGet,
		Timeout: c.timeouts.Import,
	}
	if jobID == "" {
		return nil, c.reject(call, errors.New("job id is required"))
	}
	return invoke[ImportStatusResponse](ctx, c, call)
}

// ClearCards calls DELETE /admin/cards.
func (c *Client) ClearCards(ctx context.Context) (*ClearCardsResponse, error) {
	return invoke[ClearCardsResponse](ctx, c, Call{
		Path:    "/admin/cards",
		Method:  http.MethodDelete,
		Timeout: c.timeouts.Card,
	})
}

// cardBody validates a card payload and applies the keyword default.
func (c *Client) cardBody(call Call, data CardData) (CardData, error) {
	if err := validateStruct(&data); err != nil {
		return data, c.reject(call, err)
	}
	if data.Keywords == nil {
		data.Keywords = []string{}
	}
	return data, nil
}

// reject reports an invalid request without touching the network. The error
// still gets its own correlation id.
func (c *Client) reject(call Call, cause error) error {
	return c.exec.fail(call, newError(KindBadRequest, call, 0,
		fmt.Sprintf("invalid %s %s request: %v", call.Method, call.route(), cause), c.exec.newID(), cause))
}

func invoke[T any](ctx context.Context, c *Client, call Call) (*T, error) {
	res, err := c.exec.Execute(ctx, call)
	if err != nil {
		return nil, err
	}

	var out T
	if err := decodeInto(res.Body, &out); err != nil {
		return nil, c.exec.fail(call, newError(KindInvalidResponse, call, res.Status,
			fmt.Sprintf("%s %s returned an invalid response: %v", call.Method, call.Path, err),
			res.RequestID, err))
	}
	return &out, nil
}
