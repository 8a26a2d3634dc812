package gateway

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/sethvargo/go-retry"
)

// PollConfig bounds WaitForImport.
type PollConfig struct {
	Interval time.Duration `yaml:"poll_interval"`
	MaxWait  time.Duration `yaml:"max_wait"`
}

// DefaultPollConfig polls every 2s for up to 5 minutes.
var DefaultPollConfig = PollConfig{
	Interval: 2 * time.Second,
	MaxWait:  5 * time.Minute,
}

var errImportPending = errors.New("import job still running")

// WaitForImport polls the job status until it is completed or failed.
// A classified error from a poll ends waiting immediately. When MaxWait elapses
// first, the last seen status is returned with a KindTimeout error.
func (c *Client) WaitForImport(ctx context.Context, jobID string, cfg PollConfig) (*ImportStatusResponse, error) {
	if cfg.Interval <= 0 {
		cfg.Interval = DefaultPollConfig.Interval
	}
	if cfg.MaxWait <= 0 {
		cfg.MaxWait = DefaultPollConfig.MaxWait
	}

	// Errors raised by the wait itself, not by a poll, carry this id.
	waitID := c.exec.newID()
	backoff := retry.WithMaxDuration(cfg.MaxWait, retry.NewConstant(cfg.Interval))

	var last *ImportStatusResponse
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		status, err := c.GetImportStatus(ctx, jobID)
		if err != nil {
			return err
		}
		last = status
		if status.Done() {
			return nil
		}
		slog.Debug("Import job pending",
			"job_id", jobID,
			"status", status.Status,
			"imported", deref(status.ImportedCount),
			"total", deref(status.TotalCount),
		)
		return retry.RetryableError(errImportPending)
	})

	switch {
	case err == nil:
		return last, nil
	case isGatewayError(err):
		return last, err
	case errors.Is(err, errImportPending):
		return last, &Error{
			Kind:      KindTimeout,
			Message:   fmt.Sprintf("import job %s not finished after %s", jobID, cfg.MaxWait),
			RequestID: waitID,
			Cause:     err,
		}
	case errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded):
		return last, &Error{
			Kind:      KindInternal,
			Message:   fmt.Sprintf("waiting for import job %s: %v", jobID, err),
			RequestID: waitID,
			Cause:     err,
		}
	default:
		return last, err
	}
}

func isGatewayError(err error) bool {
	_, ok := AsError(err)
	return ok
}

func deref(p *int) int {
	if p == nil {
		return 0
	}
	return *p
}
