package gateway

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"testing"
)

func TestKindFromStatus(t *testing.T) {
	tests := []struct {
		status int
		expect Kind
	}{
		{400, KindBadRequest},
		{401, KindUnauthorized},
		{403, KindForbidden},
		{404, KindNotFound},
		{408, KindTimeout},
		{409, KindConflict},
		{429, KindRateLimited},
		{500, KindServerError},
		{502, KindServerError},
		{503, KindServerError},
		{599, KindServerError},
		{418, KindInternal},
		{302, KindInternal},
	}

	for _, tt := range tests {
		if got := KindFromStatus(tt.status); got != tt.expect {
			t.Errorf("KindFromStatus(%d) = %s, want %s", tt.status, got, tt.expect)
		}
	}
}

func TestError_Format(t *testing.T) {
	call := Call{Path: "/cards/x", Method: http.MethodGet}

	err := newError(KindNotFound, call, 404, "", "req-42", nil)
	if err.Message != "GET /cards/x returned 404" {
		t.Errorf("unexpected message %q", err.Message)
	}
	if got := err.Error(); got != "NOT_FOUND: GET /cards/x returned 404 (request-id: req-42)" {
		t.Errorf("unexpected Error() %q", got)
	}

	detailed := newError(KindBadRequest, call, 400, "  name required ", "req-42", nil)
	if detailed.Message != "name required" {
		t.Errorf("detail not preferred: %q", detailed.Message)
	}

	cause := errors.New("dial tcp: no such host")
	netErr := newError(KindInternal, call, 0, "", "req-42", cause)
	if netErr.Message != "GET /cards/x failed: dial tcp: no such host" {
		t.Errorf("unexpected message %q", netErr.Message)
	}
	if !errors.Is(netErr, cause) {
		t.Error("cause not reachable through Unwrap")
	}

	// The request id is not repeated when the message already carries it.
	timeout := newError(KindTimeout, call, 0, "GET /cards/x timed out after 30s (request-id: req-42)", "req-42", nil)
	if strings.Count(timeout.Error(), "req-42") != 1 {
		t.Errorf("request id repeated: %q", timeout.Error())
	}
}

func TestAsErrorThroughWrapping(t *testing.T) {
	base := newError(KindConflict, Call{Path: "/x", Method: http.MethodPost}, 409, "", "id", nil)
	wrapped := fmt.Errorf("generate: %w", base)

	if !IsKind(wrapped, KindConflict) {
		t.Error("IsKind did not see through wrapping")
	}
	if KindOf(wrapped) != KindConflict {
		t.Errorf("KindOf = %s", KindOf(wrapped))
	}
	if KindOf(errors.New("plain")) != KindInternal {
		t.Error("foreign errors should map to INTERNAL")
	}
}
