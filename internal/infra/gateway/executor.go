package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/vietddude/cardgate/internal/infra/gateway/provider"
	"github.com/vietddude/cardgate/internal/infra/gateway/routing"
	"github.com/vietddude/cardgate/internal/metrics"
)

// Transport performs a single network attempt.
type Transport interface {
	Do(ctx context.Context, r provider.Request) (*provider.Response, error)
}

// Sleeper waits d between attempts, returning early if ctx ends.
type Sleeper func(ctx context.Context, d time.Duration) error

// Result is the successful outcome of a logical call.
type Result struct {
	Body      json.RawMessage
	Status    int
	RequestID string
}

// Executor runs calls against the gateway with per-attempt timeouts and
// bounded exponential backoff. It holds no per-call state and is safe for
// concurrent use.
type Executor struct {
	transport Transport
	retry     routing.RetryConfig
	sleep     Sleeper
	newID     func() string
}

// ExecutorOption customizes an Executor.
type ExecutorOption func(*Executor)

// WithSleeper replaces the backoff wait (tests use it to record delays).
func WithSleeper(s Sleeper) ExecutorOption {
	return func(e *Executor) {
		if s != nil {
			e.sleep = s
		}
	}
}

// WithRequestIDFunc replaces the correlation id generator.
func WithRequestIDFunc(fn func() string) ExecutorOption {
	return func(e *Executor) {
		if fn != nil {
			e.newID = fn
		}
	}
}

// NewExecutor creates an executor over transport using retry policy cfg.
func NewExecutor(transport Transport, cfg routing.RetryConfig, opts ...ExecutorOption) *Executor {
	e := &Executor{
		transport: transport,
		retry:     cfg,
		sleep:     sleepContext,
		newID:     uuid.NewString,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Execute runs call and returns the raw JSON body of the first 2xx response,
// or exactly one *Error.
func (e *Executor) Execute(ctx context.Context, call Call) (*Result, error) {
	requestID := e.newID()

	if err := call.Validate(); err != nil {
		return nil, e.fail(call, newError(KindInternal, call, 0, "", requestID, err))
	}

	// Serialize once: a bad payload fails before any network activity.
	body, contentType, err := call.encodeBody()
	if err != nil {
		return nil, e.fail(call, newError(KindInternal, call, 0, "", requestID, err))
	}

	req := provider.Request{
		Method:      call.Method,
		Path:        call.Path,
		Body:        body,
		ContentType: contentType,
		RequestID:   requestID,
	}

	var lastErr *Error
	for attempt := 0; attempt <= e.retry.MaxRetries; attempt++ {
		resp, outcome := e.attempt(ctx, call, req, attempt)

		switch outcome.Kind {
		case routing.OutcomeSuccess:
			raw := json.RawMessage(resp.Body)
			if len(raw) == 0 {
				raw = json.RawMessage("null")
			}
			if !json.Valid(raw) {
				cause := errors.New("response body is not valid JSON")
				return nil, e.fail(call, newError(KindInternal, call, resp.Status,
					fmt.Sprintf("%s %s returned malformed JSON", call.Method, call.Path), requestID, cause))
			}
			return &Result{Body: raw, Status: resp.Status, RequestID: requestID}, nil

		case routing.OutcomeRetryable:
			lastErr = e.classify(call, resp, outcome, requestID)
			if !routing.CanRetry(e.retry, attempt) {
				return nil, e.fail(call, lastErr)
			}

			wait := routing.Backoff(e.retry, attempt)
			metrics.GatewayRetriesTotal.WithLabelValues(call.Method, call.route()).Inc()
			slog.Warn("Gateway attempt failed, retrying",
				"request_id", requestID,
				"method", call.Method,
				"path", call.Path,
				"attempt", attempt+1,
				"reason", outcome.Reason,
				"backoff", wait,
			)
			if err := e.sleep(ctx, wait); err != nil {
				return nil, e.fail(call, newError(KindInternal, call, 0, "", requestID,
					fmt.Errorf("%w: %w", routing.ErrCallerCanceled, err)))
			}

		default:
			return nil, e.fail(call, e.classify(call, resp, outcome, requestID))
		}
	}

	if lastErr != nil {
		return nil, e.fail(call, lastErr)
	}
	return nil, e.fail(call, newError(KindInternal, call, 0, "unexpected retry exhaustion", requestID, nil))
}

// attempt performs one network call under its own timeout clock.
func (e *Executor) attempt(
	ctx context.Context,
	call Call,
	req provider.Request,
	attempt int,
) (*provider.Response, routing.Outcome) {
	attemptCtx, cancel := context.WithTimeout(ctx, call.Timeout)
	defer cancel()

	slog.Debug("Gateway attempt",
		"request_id", req.RequestID,
		"method", call.Method,
		"path", call.Path,
		"attempt", attempt+1,
	)

	start := time.Now()
	resp, err := e.transport.Do(attemptCtx, req)
	metrics.GatewayAttemptLatency.WithLabelValues(call.Method, call.route()).Observe(time.Since(start).Seconds())

	var outcome routing.Outcome
	switch {
	case errors.Is(err, provider.ErrResponseTooLarge):
		// Replaying the request would read the same oversized body.
		outcome = routing.Outcome{Kind: routing.OutcomeFatal, Reason: "oversized", Err: err}
	case err != nil:
		callerDone := ctx.Err() != nil
		timedOut := !callerDone && errors.Is(attemptCtx.Err(), context.DeadlineExceeded)
		outcome = routing.ClassifyTransport(err, timedOut, callerDone)
	default:
		outcome = routing.ClassifyStatus(e.retry, resp.Status)
	}

	metrics.GatewayAttemptsTotal.WithLabelValues(call.Method, call.route(), outcome.Kind.String()).Inc()
	return resp, outcome
}

// classify turns a failed attempt into the caller-facing error. Exhausted
// retryable outcomes and fatal outcomes share this single path.
func (e *Executor) classify(call Call, resp *provider.Response, outcome routing.Outcome, requestID string) *Error {
	switch {
	case outcome.TimedOut:
		detail := fmt.Sprintf("%s %s timed out after %s (request-id: %s)",
			call.Method, call.Path, call.Timeout, requestID)
		return newError(KindTimeout, call, 0, detail, requestID, outcome.Err)

	case outcome.Status != 0:
		var detail string
		if resp != nil {
			detail = errorDetail(resp.Body)
		}
		return newError(KindFromStatus(outcome.Status), call, outcome.Status, detail, requestID,
			fmt.Errorf("gateway returned status %d", outcome.Status))

	default:
		return newError(KindInternal, call, 0, "", requestID, outcome.Err)
	}
}

func (e *Executor) fail(call Call, err *Error) *Error {
	metrics.GatewayErrorsTotal.WithLabelValues(call.Method, call.route(), string(err.Kind)).Inc()
	return err
}

// errorDetail extracts a human-readable message from an error body.
func errorDetail(body []byte) string {
	if len(body) == 0 {
		return ""
	}
	var payload struct {
		Error   string `json:"error"`
		Message string `json:"message"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return ""
	}
	if payload.Error != "" {
		return payload.Error
	}
	return payload.Message
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
