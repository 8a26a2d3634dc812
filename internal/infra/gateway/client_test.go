package gateway

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/vietddude/cardgate/internal/infra/gateway/provider"
	"github.com/vietddude/cardgate/internal/infra/gateway/routing"
)

const testCardID = "123e4567-e89b-12d3-a456-426614174000"

// stubTransport answers every attempt with a fixed response and records what it saw.
type stubTransport struct {
	mu        sync.Mutex
	status    int
	body      string
	requests  []provider.Request
	deadlines []time.Duration
}

func (s *stubTransport) Do(ctx context.Context, r provider.Request) (*provider.Response, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.requests = append(s.requests, r)
	if dl, ok := ctx.Deadline(); ok {
		s.deadlines = append(s.deadlines, time.Until(dl))
	}
	return &provider.Response{Status: s.status, Body: []byte(s.body)}, nil
}

func newStubClient(status int, body string) (*Client, *stubTransport) {
	tr := &stubTransport{status: status, body: body}
	exec := NewExecutor(tr, routing.DefaultRetryConfig, WithSleeper((&recordingSleeper{}).Sleep))
	return NewClient(exec, DefaultTimeouts), tr
}

func validCard() CardData {
	return CardData{
		Name:     "Goblin",
		Cost:     2,
		CardType: CardTypeCreature,
		Effect:   "Haste",
	}
}

func TestClient_GetCard(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet || r.URL.Path != "/api/v1/cards/"+testCardID {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"id":"`+testCardID+`","name":"Goblin","cost":2,"card_type":"creature","effect":"Haste","tags":[],"metadata":{}}`)
	}))
	defer server.Close()

	client := New(Config{BaseURL: server.URL + "/api/v1"})

	card, err := client.GetCard(context.Background(), testCardID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if card.ID != testCardID || card.Name != "Goblin" || card.CardType != "creature" || card.Effect != "Haste" {
		t.Errorf("unexpected card %+v", card)
	}
	if card.Cost == nil || *card.Cost != 2 {
		t.Errorf("expected cost 2, got %v", card.Cost)
	}
	if card.Tags == nil || len(card.Tags) != 0 {
		t.Errorf("expected empty tags, got %v", card.Tags)
	}
	if card.Metadata == nil || len(card.Metadata) != 0 {
		t.Errorf("expected empty metadata, got %v", card.Metadata)
	}
	if card.ImageURL != "" {
		t.Errorf("expected no image url, got %q", card.ImageURL)
	}
}

func TestClient_GetCardEscapesID(t *testing.T) {
	client, tr := newStubClient(http.StatusNotFound, `{"error":"card not found"}`)

	_, err := client.GetCard(context.Background(), "a b/c?d")
	if !IsKind(err, KindNotFound) {
		t.Fatalf("expected NOT_FOUND, got %v", err)
	}
	if got := tr.requests[0].Path; got != "/cards/a%20b%2Fc%3Fd" {
		t.Errorf("unexpected escaped path %q", got)
	}
}

func TestClient_GenerateCardRetriesThroughBackpressure(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) <= 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		var got CardData
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("decode body: %v", err)
		}
		if got.Keywords == nil {
			t.Error("expected keywords to default to an empty list")
		}
		_, _ = io.WriteString(w, `{"id":"`+testCardID+`","name":"Goblin","card_type":"creature","tags":["haste"],"metadata":{"set":"core"},"status":"success"}`)
	}))
	defer server.Close()

	sleeper := &recordingSleeper{}
	client := New(Config{BaseURL: server.URL}, WithSleeper(sleeper.Sleep))

	resp, err := client.GenerateCard(context.Background(), validCard())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.ID != testCardID || resp.Status != "success" || resp.Metadata["set"] != "core" {
		t.Errorf("unexpected response %+v", resp)
	}
	if atomic.LoadInt32(&calls) != 4 {
		t.Errorf("expected 4 attempts, got %d", atomic.LoadInt32(&calls))
	}

	var total time.Duration
	for _, d := range sleeper.Delays() {
		total += d
	}
	if total != 3500*time.Millisecond {
		t.Errorf("expected 3.5s cumulative backoff, got %v", total)
	}
}

func TestClient_HealthMissingStatusIsInvalidResponse(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		_, _ = io.WriteString(w, `{"services":{"api-gateway":{"status":"ok"}}}`)
	}))
	defer server.Close()

	client := New(Config{BaseURL: server.URL})

	_, err := client.Health(context.Background())
	ge, ok := AsError(err)
	if !ok {
		t.Fatalf("expected *Error, got %v", err)
	}
	if ge.Kind != KindInvalidResponse {
		t.Errorf("expected INVALID_RESPONSE, got %s", ge.Kind)
	}
	if !strings.Contains(ge.Message, "status") {
		t.Errorf("message %q does not name the missing field", ge.Message)
	}
	if ge.RequestID == "" {
		t.Error("expected correlation id on validation error")
	}
	if atomic.LoadInt32(&calls) != 1 {
		t.Errorf("validation failures must not retry, got %d calls", atomic.LoadInt32(&calls))
	}
}

func TestClient_InvalidResponses(t *testing.T) {
	tests := []struct {
		name string
		body string
		call func(*Client) error
	}{
		{
			name: "health service status outside enum",
			body: `{"status":"ok","services":{"db":{"status":"available"}}}`,
			call: func(c *Client) error { _, err := c.Health(context.Background()); return err },
		},
		{
			name: "card id not a uuid",
			body: `{"id":"nope","name":"Goblin","cost":2,"card_type":"creature","effect":"x","tags":[],"metadata":{}}`,
			call: func(c *Client) error { _, err := c.GetCard(context.Background(), testCardID); return err },
		},
		{
			name: "card cost has wrong type",
			body: `{"id":"` + testCardID + `","name":"Goblin","cost":"two","card_type":"creature","effect":"x","tags":[],"metadata":{}}`,
			call: func(c *Client) error { _, err := c.GetCard(context.Background(), testCardID); return err },
		},
		{
			name: "synergy score above range",
			body: `{"tags":[],"synergyScore":11,"tribalTags":[],"metadata":{}}`,
			call: func(c *Client) error { _, err := c.AnalyzeCard(context.Background(), validCard()); return err },
		},
		{
			name: "import status missing counts",
			body: `{"jobId":"` + testCardID + `","status":"processing","errors":[]}`,
			call: func(c *Client) error { _, err := c.GetImportStatus(context.Background(), testCardID); return err },
		},
		{
			name: "clear cards empty body",
			body: ``,
			call: func(c *Client) error { _, err := c.ClearCards(context.Background()); return err },
		},
	}

	for _, tt := range tests {
		client, tr := newStubClient(http.StatusOK, tt.body)
		err := tt.call(client)
		if !IsKind(err, KindInvalidResponse) {
			t.Errorf("%s: expected INVALID_RESPONSE, got %v", tt.name, err)
		}
		if len(tr.requests) != 1 {
			t.Errorf("%s: expected 1 attempt, got %d", tt.name, len(tr.requests))
		}
	}
}

func TestClient_RejectsInvalidRequestsWithoutNetwork(t *testing.T) {
	client, tr := newStubClient(http.StatusOK, `{}`)

	bad := validCard()
	bad.Cost = 100
	if _, err := client.GenerateCard(context.Background(), bad); !IsKind(err, KindBadRequest) {
		t.Errorf("expected BAD_REQUEST for cost 100, got %v", err)
	}

	bad = validCard()
	bad.CardType = "planeswalker"
	if _, err := client.AnalyzeCard(context.Background(), bad); !IsKind(err, KindBadRequest) {
		t.Errorf("expected BAD_REQUEST for unknown card type, got %v", err)
	}

	_, err := client.GetCard(context.Background(), "")
	if !IsKind(err, KindBadRequest) {
		t.Errorf("expected BAD_REQUEST for empty id, got %v", err)
	}
	if ge, ok := AsError(err); !ok || ge.RequestID == "" || !strings.Contains(err.Error(), ge.RequestID) {
		t.Errorf("rejected request carries no correlation id: %v", err)
	}

	if _, err := client.ImportCSV(context.Background(), ImportRequest{FileName: "a.csv", CardType: "land"}); !IsKind(err, KindBadRequest) {
		t.Errorf("expected BAD_REQUEST for unknown import card type, got %v", err)
	}

	if len(tr.requests) != 0 {
		t.Errorf("expected no network calls, got %d", len(tr.requests))
	}
}

func TestClient_OperationDescriptors(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		call    func(*Client) error
		method  string
		path    string
		timeout time.Duration
	}{
		{
			name:    "health",
			body:    `{"status":"ok","services":{"renderer":{"status":"degraded","uptime":"3h"}}}`,
			call:    func(c *Client) error { _, err := c.Health(context.Background()); return err },
			method:  http.MethodGet,
			path:    "/health",
			timeout: 5 * time.Second,
		},
		{
			name:    "analyze",
			body:    `{"tags":["haste"],"synergyScore":7.5,"tribalTags":["goblin"],"metadata":{}}`,
			call:    func(c *Client) error { _, err := c.AnalyzeCard(context.Background(), validCard()); return err },
			method:  http.MethodPost,
			path:    "/cards/analyze",
			timeout: 30 * time.Second,
		},
		{
			name:    "import status",
			body:    `{"jobId":"` + testCardID + `","status":"completed","importedCount":3,"totalCount":3,"errors":[]}`,
			call:    func(c *Client) error { _, err := c.GetImportStatus(context.Background(), testCardID); return err },
			method:  http.MethodGet,
			path:    "/import/" + testCardID + "/status",
			timeout: 60 * time.Second,
		},
		{
			name:    "clear cards",
			body:    `{"clearedCount":0}`,
			call:    func(c *Client) error { _, err := c.ClearCards(context.Background()); return err },
			method:  http.MethodDelete,
			path:    "/admin/cards",
			timeout: 30 * time.Second,
		},
	}

	for _, tt := range tests {
		client, tr := newStubClient(http.StatusOK, tt.body)
		if err := tt.call(client); err != nil {
			t.Errorf("%s: unexpected error: %v", tt.name, err)
			continue
		}
		req := tr.requests[0]
		if req.Method != tt.method || req.Path != tt.path {
			t.Errorf("%s: got %s %s, want %s %s", tt.name, req.Method, req.Path, tt.method, tt.path)
		}
		if tt.method == http.MethodPost {
			if req.ContentType != "application/json" {
				t.Errorf("%s: content type %q", tt.name, req.ContentType)
			}
		} else if req.ContentType != "" || req.Body != nil {
			t.Errorf("%s: bodiless call sent content type %q", tt.name, req.ContentType)
		}
		dl := tr.deadlines[0]
		if dl > tt.timeout || dl < tt.timeout-time.Second {
			t.Errorf("%s: attempt deadline %v, want about %v", tt.name, dl, tt.timeout)
		}
	}
}

func TestClient_ImportCSV(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/import/csv" || r.Method != http.MethodPost {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			t.Errorf("parse multipart: %v", err)
		}
		if got := r.FormValue("cardType"); got != "spell" {
			t.Errorf("cardType = %q", got)
		}
		if got := r.FormValue("dryRun"); got != "true" {
			t.Errorf("dryRun = %q", got)
		}
		if _, ok := r.MultipartForm.File["file"]; !ok {
			t.Error("missing file part")
		}
		_, _ = io.WriteString(w, `{"jobId":"`+testCardID+`","status":"started"}`)
	}))
	defer server.Close()

	client := New(Config{BaseURL: server.URL})
	dryRun := true

	resp, err := client.ImportCSV(context.Background(), ImportRequest{
		FileName: "cards.csv",
		Content:  []byte("name,cost\nBolt,1\n"),
		CardType: CardTypeSpell,
		DryRun:   &dryRun,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.JobID != testCardID || resp.Status != ImportStarted {
		t.Errorf("unexpected response %+v", resp)
	}
}

func TestClient_ImportCSVOmitsOptionalFields(t *testing.T) {
	client, tr := newStubClient(http.StatusOK, `{"jobId":"`+testCardID+`","status":"started"}`)

	if _, err := client.ImportCSV(context.Background(), ImportRequest{FileName: "cards.csv", Content: []byte("x")}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	req := tr.requests[0]
	if !strings.HasPrefix(req.ContentType, "multipart/form-data") {
		t.Errorf("unexpected content type %q", req.ContentType)
	}
	body := string(req.Body)
	if strings.Contains(body, `name="cardType"`) || strings.Contains(body, `name="dryRun"`) {
		t.Errorf("optional fields should be omitted: %s", body)
	}
}
