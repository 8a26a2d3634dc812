package routing

import (
	"errors"
	"fmt"
	"net/http"
	"time"
)

// RetryConfig defines retry behavior for one logical gateway call.
// It is built once at startup and shared read-only by every call.
type RetryConfig struct {
	// MaxRetries is the number of retries after the first attempt,
	// so a call makes at most MaxRetries+1 network attempts.
	MaxRetries int

	// BaseDelay is the wait before the first retry; it doubles per attempt.
	BaseDelay time.Duration

	// RetryableStatuses lists HTTP statuses treated as transient backpressure.
	RetryableStatuses map[int]bool
}

// DefaultRetryConfig provides the gateway defaults: 3 retries, 500ms doubling, 429/503.
var DefaultRetryConfig = RetryConfig{
	MaxRetries: 3,
	BaseDelay:  500 * time.Millisecond,
	RetryableStatuses: map[int]bool{
		http.StatusTooManyRequests:    true,
		http.StatusServiceUnavailable: true,
	},
}

// NewRetryConfig builds a RetryConfig, falling back to defaults for zero values.
func NewRetryConfig(maxRetries int, baseDelay time.Duration, statuses []int) RetryConfig {
	cfg := RetryConfig{
		MaxRetries:        maxRetries,
		BaseDelay:         baseDelay,
		RetryableStatuses: make(map[int]bool, len(statuses)),
	}
	if cfg.MaxRetries < 0 {
		cfg.MaxRetries = 0
	}
	if cfg.BaseDelay <= 0 {
		cfg.BaseDelay = DefaultRetryConfig.BaseDelay
	}
	for _, s := range statuses {
		cfg.RetryableStatuses[s] = true
	}
	if len(cfg.RetryableStatuses) == 0 {
		for s := range DefaultRetryConfig.RetryableStatuses {
			cfg.RetryableStatuses[s] = true
		}
	}
	return cfg
}

// OutcomeKind tags the result of a single attempt.
type OutcomeKind int

const (
	OutcomeSuccess OutcomeKind = iota
	OutcomeRetryable
	OutcomeFatal
)

func (k OutcomeKind) String() string {
	switch k {
	case OutcomeSuccess:
		return "success"
	case OutcomeRetryable:
		return "retryable"
	case OutcomeFatal:
		return "fatal"
	default:
		return fmt.Sprintf("unknown(%d)", int(k))
	}
}

// Outcome is produced once per attempt and never mutated.
type Outcome struct {
	Kind OutcomeKind

	// Status is the HTTP status, 0 when no response was received.
	Status int

	// Reason is a short machine-friendly label used in logs and metrics.
	Reason string

	// TimedOut marks an attempt cancelled by its own timeout clock.
	TimedOut bool

	// Err is the transport error, if any.
	Err error
}

// ClassifyStatus maps a received HTTP status to an attempt outcome.
// It never depends on the attempt count.
func ClassifyStatus(cfg RetryConfig, status int) Outcome {
	switch {
	case status >= 200 && status < 300:
		return Outcome{Kind: OutcomeSuccess, Status: status, Reason: "ok"}
	case cfg.RetryableStatuses[status]:
		return Outcome{Kind: OutcomeRetryable, Status: status, Reason: fmt.Sprintf("status_%d", status)}
	default:
		return Outcome{Kind: OutcomeFatal, Status: status, Reason: fmt.Sprintf("status_%d", status)}
	}
}

// ErrCallerCanceled marks a failure caused by the caller's own context.
var ErrCallerCanceled = errors.New("call canceled by caller")

// ClassifyTransport maps a transport failure (no HTTP response) to an outcome.
// timedOut reports whether the attempt's own deadline fired; callerDone whether
// the surrounding call context ended.
func ClassifyTransport(err error, timedOut, callerDone bool) Outcome {
	switch {
	case callerDone:
		return Outcome{Kind: OutcomeFatal, Reason: "canceled", Err: fmt.Errorf("%w: %w", ErrCallerCanceled, err)}
	case timedOut:
		// Timeouts are never retried: a slow gateway should not be hammered further.
		return Outcome{Kind: OutcomeFatal, Reason: "timeout", TimedOut: true, Err: err}
	default:
		return Outcome{Kind: OutcomeRetryable, Reason: "network", Err: err}
	}
}

// CanRetry reports whether another attempt is allowed after attempt (0-based).
func CanRetry(cfg RetryConfig, attempt int) bool {
	return attempt < cfg.MaxRetries
}

// Backoff returns BaseDelay * 2^attempt for the 0-based attempt that just failed.
func Backoff(cfg RetryConfig, attempt int) time.Duration {
	if attempt < 0 {
		attempt = 0
	}
	base := cfg.BaseDelay
	if base <= 0 {
		base = DefaultRetryConfig.BaseDelay
	}
	return base << uint(attempt)
}
