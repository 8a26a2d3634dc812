package health

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/vietddude/cardgate/internal/infra/gateway"
	"github.com/vietddude/cardgate/internal/infra/gateway/routing"
)

// GatewayChecker is the part of gateway.Client the monitor needs.
type GatewayChecker interface {
	Health(ctx context.Context) (*gateway.HealthResponse, error)
}

// Report is the result of one gateway health check.
type Report struct {
	Status    string                           `json:"status"`
	Services  map[string]gateway.ServiceHealth `json:"services,omitempty"`
	Error     string                           `json:"error,omitempty"`
	ErrorKind gateway.Kind                     `json:"error_kind,omitempty"`
	RequestID string                           `json:"request_id,omitempty"`
	CheckedAt time.Time                        `json:"checked_at"`
}

// Healthy reports whether the gateway answered with status ok.
func (r Report) Healthy() bool {
	return r.Status == gateway.HealthOK
}

// StatusUnreachable marks a failed check.
const StatusUnreachable = "unreachable"

// Monitor checks gateway health, caching the last report for minInterval
// so probes do not hammer the gateway.
type Monitor struct {
	checker     GatewayChecker
	minInterval time.Duration
	now         func() time.Time
	lastCheck   time.Time
	lastReport  *Report
	mu          sync.Mutex
}

// NewMonitor creates a new health monitor.
func NewMonitor(checker GatewayChecker, minInterval time.Duration) *Monitor {
	return &Monitor{
		checker:     checker,
		minInterval: minInterval,
		now:         time.Now,
	}
}

// Check returns the current gateway health.
func (m *Monitor) Check(ctx context.Context) Report {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.lastReport != nil && m.now().Sub(m.lastCheck) < m.minInterval {
		return *m.lastReport
	}

	// The check outlives the prober that triggered it; its result is shared.
	report := Report{CheckedAt: m.now()}
	resp, err := m.checker.Health(context.WithoutCancel(ctx))
	if err != nil {
		report.Status = StatusUnreachable
		report.Error = err.Error()
		report.ErrorKind = gateway.KindOf(err)
		if gwErr, ok := gateway.AsError(err); ok {
			report.RequestID = gwErr.RequestID
		}
	} else {
		report.Status = resp.Status
		report.Services = resp.Services
	}

	if errors.Is(err, routing.ErrCallerCanceled) {
		return report
	}
	m.lastCheck = report.CheckedAt
	m.lastReport = &report
	return report
}
