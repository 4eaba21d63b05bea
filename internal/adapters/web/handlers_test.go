package web_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/gofiber/fiber/v2"

	"tweet-monitor/internal/adapters/web"
	"tweet-monitor/internal/domain"
	"tweet-monitor/internal/usecases"
	"tweet-monitor/test/fixtures"
)

// MockDispatcher records dispatched batches.
type MockDispatcher struct {
	mu      sync.Mutex
	batches []domain.Batch
}

func (m *MockDispatcher) Dispatch(ctx context.Context, batch domain.Batch) {
	m.mu.Lock()
	m.batches = append(m.batches, batch)
	m.mu.Unlock()
}

func (m *MockDispatcher) Count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.batches)
}

// MockStats is a fixed StatsSource.
type MockStats struct {
	daily usecases.DailyCount
	err   error
}

func (m *MockStats) CountToday(ctx context.Context) (usecases.DailyCount, error) {
	return m.daily, m.err
}

type testEnv struct {
	app        *fiber.App
	dispatcher *MockDispatcher
}

func newTestEnv(secret string, stats usecases.StatsSource) *testEnv {
	dispatcher := &MockDispatcher{}
	var statsUC *usecases.GetStatsUseCase
	if stats != nil {
		statsUC = usecases.NewGetStatsUseCase(stats)
	}
	handlers := web.NewHandlers(
		"TwitterAPI Monitor",
		usecases.NewAuthenticator(secret),
		usecases.NewProcessWebhookUseCase(dispatcher),
		statsUC,
	)
	app := web.NewApp(web.AppConfig{Name: "test", BodyLimit: 1024}, handlers)
	return &testEnv{app: app, dispatcher: dispatcher}
}

func postWebhook(t *testing.T, app *fiber.App, apiKey, body string) (int, map[string]any) {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/webhook", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if apiKey != "" {
		req.Header.Set("X-API-Key", apiKey)
	}
	return do(t, app, req)
}

func do(t *testing.T, app *fiber.App, req *http.Request) (int, map[string]any) {
	t.Helper()
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test() error = %v", err)
	}
	defer resp.Body.Close()

	data, _ := io.ReadAll(resp.Body)
	var body map[string]any
	if err := json.Unmarshal(data, &body); err != nil {
		t.Fatalf("response is not JSON (status %d): %s", resp.StatusCode, data)
	}
	return resp.StatusCode, body
}

func TestWebhook_ValidKey_ReturnsCount(t *testing.T) {
	// Arrange
	env := newTestEnv("abc123", nil)

	// Act
	status, body := postWebhook(t, env.app, "abc123", `{"tweets":[{"id":"1"}]}`)

	// Assert
	if status != fiber.StatusOK {
		t.Fatalf("status: got %d, want 200", status)
	}
	if body["status"] != "success" || body["tweets_count"] != float64(1) {
		t.Errorf("body: got %v", body)
	}
	if body["message"] != "Processed 1 tweets" {
		t.Errorf("message: got %v", body["message"])
	}
	if ts, _ := body["timestamp"].(string); ts == "" {
		t.Error("timestamp missing")
	}
	if env.dispatcher.Count() != 1 {
		t.Errorf("dispatched: got %d, want 1", env.dispatcher.Count())
	}
}

func TestWebhook_WrongKey_Unauthorized(t *testing.T) {
	// Arrange
	env := newTestEnv("abc123", nil)

	// Act
	status, body := postWebhook(t, env.app, "wrong", `{"tweets":[{"id":"1"}]}`)

	// Assert
	if status != fiber.StatusUnauthorized {
		t.Fatalf("status: got %d, want 401", status)
	}
	if len(body) != 2 || body["status"] != "error" || body["message"] != "Unauthorized request" {
		t.Errorf("body: got %v", body)
	}
	if env.dispatcher.Count() != 0 {
		t.Error("rejected request must not be dispatched")
	}
}

func TestWebhook_MissingKey_Unauthorized(t *testing.T) {
	env := newTestEnv("abc123", nil)

	status, body := postWebhook(t, env.app, "", `{"tweets":[]}`)

	if status != fiber.StatusUnauthorized {
		t.Fatalf("status: got %d, want 401", status)
	}
	if strings.Contains(body["message"].(string), "abc123") {
		t.Error("response must not echo the secret")
	}
}

func TestWebhook_NoSecret_AcceptsAnyCredential(t *testing.T) {
	env := newTestEnv("", nil)

	for _, key := range []string{"", "anything", "abc123"} {
		status, body := postWebhook(t, env.app, key, fixtures.GenerateBatchWebhook(2))

		if status != fiber.StatusOK {
			t.Errorf("key %q: status %d, want 200", key, status)
		}
		if body["tweets_count"] != float64(2) {
			t.Errorf("key %q: body %v", key, body)
		}
	}
}

func TestWebhook_MalformedBody_BadRequest(t *testing.T) {
	testCases := []struct {
		name string
		body string
	}{
		{name: "not json", body: "not-json"},
		{name: "array", body: `[1,2]`},
		{name: "empty", body: ""},
		{name: "tweets not list", body: `{"tweets":"x"}`},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			// Arrange
			env := newTestEnv("abc123", nil)

			// Act
			status, body := postWebhook(t, env.app, "abc123", tc.body)

			// Assert
			if status != fiber.StatusBadRequest {
				t.Fatalf("status: got %d, want 400", status)
			}
			if body["status"] != "error" {
				t.Errorf("status field: got %v", body["status"])
			}
			if msg, _ := body["message"].(string); msg == "" {
				t.Error("parse error message missing")
			}
			if env.dispatcher.Count() != 0 {
				t.Error("malformed body must not be dispatched")
			}
		})
	}
}

func TestWebhook_RepeatedHeader_LastValueWins(t *testing.T) {
	testCases := []struct {
		name       string
		values     []string
		wantStatus int
	}{
		{name: "valid last", values: []string{"wrong", "abc123"}, wantStatus: fiber.StatusOK},
		{name: "invalid last", values: []string{"abc123", "wrong"}, wantStatus: fiber.StatusUnauthorized},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			env := newTestEnv("abc123", nil)
			req := httptest.NewRequest(http.MethodPost, "/webhook", strings.NewReader(`{}`))
			for _, v := range tc.values {
				req.Header.Add("X-API-Key", v)
			}

			status, _ := do(t, env.app, req)

			if status != tc.wantStatus {
				t.Errorf("status: got %d, want %d", status, tc.wantStatus)
			}
		})
	}
}

func TestWebhook_FullDelivery_DispatchesRuleInfo(t *testing.T) {
	// Arrange
	env := newTestEnv("abc123", nil)

	// Act
	status, body := postWebhook(t, env.app, "abc123", fixtures.GenerateBasicWebhook())

	// Assert
	if status != fiber.StatusOK || body["tweets_count"] != float64(1) {
		t.Fatalf("got %d %v, want 200 with tweets_count 1", status, body)
	}
	env.dispatcher.mu.Lock()
	defer env.dispatcher.mu.Unlock()
	if len(env.dispatcher.batches) != 1 {
		t.Fatalf("dispatched batches: got %d, want 1", len(env.dispatcher.batches))
	}
	batch := env.dispatcher.batches[0]
	if batch.Rule.RuleID != "rule-1" || batch.Rule.RuleTag != "golang" {
		t.Errorf("rule info: got %+v", batch.Rule)
	}
	if batch.Tweets[0].Author.Username != "gopher" {
		t.Errorf("author: got %+v", batch.Tweets[0].Author)
	}
}

func TestWebhook_MissingTweets_ZeroCount(t *testing.T) {
	env := newTestEnv("abc123", nil)

	status, body := postWebhook(t, env.app, "abc123", fixtures.GeneratePingWebhook())

	if status != fiber.StatusOK || body["tweets_count"] != float64(0) {
		t.Errorf("got %d %v, want 200 with tweets_count 0", status, body)
	}
}

func TestWebhook_LowerCaseHeader_Accepted(t *testing.T) {
	env := newTestEnv("abc123", nil)
	req := httptest.NewRequest(http.MethodPost, "/webhook", strings.NewReader(`{}`))
	req.Header["x-api-key"] = []string{"abc123"}

	status, _ := do(t, env.app, req)

	if status != fiber.StatusOK {
		t.Errorf("status: got %d, want 200", status)
	}
}

func TestHealth_ReportsAPIKeyConfigured(t *testing.T) {
	for _, tc := range []struct {
		secret string
		want   bool
	}{{"abc123", true}, {"", false}} {
		// Arrange
		env := newTestEnv(tc.secret, nil)
		req := httptest.NewRequest(http.MethodGet, "/health", nil)

		// Act
		status, body := do(t, env.app, req)

		// Assert
		if status != fiber.StatusOK {
			t.Fatalf("status: got %d, want 200", status)
		}
		if body["status"] != "healthy" || body["service"] != "TwitterAPI Monitor" {
			t.Errorf("body: got %v", body)
		}
		if body["api_key_configured"] != tc.want {
			t.Errorf("api_key_configured: got %v, want %v", body["api_key_configured"], tc.want)
		}
		if _, ok := body["timestamp"].(string); !ok {
			t.Error("timestamp missing")
		}
	}
}

func TestStats(t *testing.T) {
	testCases := []struct {
		name       string
		stats      usecases.StatsSource
		wantStatus int
		check      func(t *testing.T, body map[string]any)
	}{
		{
			name:       "disabled",
			stats:      nil,
			wantStatus: fiber.StatusNotFound,
			check: func(t *testing.T, body map[string]any) {
				if body["status"] != "error" {
					t.Errorf("body: got %v", body)
				}
			},
		},
		{
			name:       "found",
			stats:      &MockStats{daily: usecases.DailyCount{Count: 4, Location: "tweets_20260301.json", Found: true}},
			wantStatus: fiber.StatusOK,
			check: func(t *testing.T, body map[string]any) {
				if body["tweets_today"] != float64(4) || body["file"] != "tweets_20260301.json" {
					t.Errorf("body: got %v", body)
				}
			},
		},
		{
			name:       "none today",
			stats:      &MockStats{},
			wantStatus: fiber.StatusOK,
			check: func(t *testing.T, body map[string]any) {
				if body["tweets_today"] != float64(0) || body["message"] != "No tweets received today" {
					t.Errorf("body: got %v", body)
				}
			},
		},
		{
			name:       "source error",
			stats:      &MockStats{err: errors.New("disk")},
			wantStatus: fiber.StatusInternalServerError,
			check: func(t *testing.T, body map[string]any) {
				if body["message"] != "Error retrieving stats" {
					t.Errorf("body: got %v", body)
				}
			},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			env := newTestEnv("abc123", tc.stats)

			status, body := do(t, env.app, httptest.NewRequest(http.MethodGet, "/stats", nil))

			if status != tc.wantStatus {
				t.Fatalf("status: got %d, want %d", status, tc.wantStatus)
			}
			tc.check(t, body)
		})
	}
}

func TestUnknownRoute_JSONError(t *testing.T) {
	env := newTestEnv("", nil)

	status, body := do(t, env.app, httptest.NewRequest(http.MethodGet, "/nope", nil))

	if status != fiber.StatusNotFound || body["status"] != "error" {
		t.Errorf("got %d %v, want 404 JSON error", status, body)
	}
}

func TestWrongMethod_JSONError(t *testing.T) {
	env := newTestEnv("", nil)

	status, body := do(t, env.app, httptest.NewRequest(http.MethodGet, "/webhook", nil))

	if status != fiber.StatusMethodNotAllowed || body["status"] != "error" {
		t.Errorf("got %d %v, want 405 JSON error", status, body)
	}
}

func TestWebhook_BodyTooLarge_JSONError(t *testing.T) {
	// Arrange: the body limit is enforced while reading the request, so
	// this runs against a real listener rather than app.Test.
	env := newTestEnv("abc123", nil)
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	go func() { _ = env.app.Listener(ln) }()
	t.Cleanup(func() { _ = env.app.Shutdown() })

	body := `{"tweets":[{"id":"1","text":"` + strings.Repeat("x", 2048) + `"}]}`
	req, err := http.NewRequest(http.MethodPost, "http://"+ln.Addr().String()+"/webhook", strings.NewReader(body))
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-API-Key", "abc123")

	// Act
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	defer resp.Body.Close()

	// Assert
	if resp.StatusCode != fiber.StatusRequestEntityTooLarge {
		t.Fatalf("status: got %d, want 413", resp.StatusCode)
	}
	var got web.ErrorResponse
	if err := json.NewDecoder(resp.Body).Decode(&got); err != nil {
		t.Fatalf("response is not JSON: %v", err)
	}
	if got.Status != "error" || got.Message == "" {
		t.Errorf("body: got %+v", got)
	}
	if env.dispatcher.Count() != 0 {
		t.Errorf("oversized body must not be dispatched")
	}
}

func TestErrorHandler_FiberErrorKeepsCode(t *testing.T) {
	env := newTestEnv("", nil)
	env.app.Get("/too-big", func(c *fiber.Ctx) error {
		return fiber.ErrRequestEntityTooLarge
	})

	status, body := do(t, env.app, httptest.NewRequest(http.MethodGet, "/too-big", nil))

	if status != fiber.StatusRequestEntityTooLarge {
		t.Fatalf("status: got %d, want 413", status)
	}
	if body["status"] != "error" || body["message"] != fiber.ErrRequestEntityTooLarge.Message {
		t.Errorf("body: got %v", body)
	}
}

func TestErrorHandler_PanicBecomesJSON500(t *testing.T) {
	// Arrange
	env := newTestEnv("", nil)
	env.app.Get("/boom", func(c *fiber.Ctx) error {
		panic("kaboom")
	})

	// Act
	status, body := do(t, env.app, httptest.NewRequest(http.MethodGet, "/boom", nil))

	// Assert
	if status != fiber.StatusInternalServerError {
		t.Fatalf("status: got %d, want 500", status)
	}
	if body["status"] != "error" || body["message"] != "Internal server error" {
		t.Errorf("body: got %v", body)
	}
}

func TestStatusPage_RendersHTML(t *testing.T) {
	env := newTestEnv("", &MockStats{daily: usecases.DailyCount{Count: 7, Found: true}})

	resp, err := env.app.Test(httptest.NewRequest(http.MethodGet, "/", nil))
	if err != nil {
		t.Fatalf("app.Test() error = %v", err)
	}
	defer resp.Body.Close()
	data, _ := io.ReadAll(resp.Body)
	html := string(data)

	if !strings.HasPrefix(resp.Header.Get("Content-Type"), "text/html") {
		t.Errorf("Content-Type: got %q", resp.Header.Get("Content-Type"))
	}
	if !strings.Contains(html, "TwitterAPI Monitor") || !strings.Contains(html, "<strong>disabled</strong>") {
		t.Errorf("unexpected page: %s", html)
	}
	if !strings.Contains(html, "<dd>7</dd>") {
		t.Errorf("tweets today missing: %s", html)
	}
}

func TestMetrics_Exposed(t *testing.T) {
	env := newTestEnv("abc123", nil)
	postWebhook(t, env.app, "abc123", `{"tweets":[{"id":"1"}]}`)

	resp, err := env.app.Test(httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if err != nil {
		t.Fatalf("app.Test() error = %v", err)
	}
	defer resp.Body.Close()
	data, _ := io.ReadAll(resp.Body)

	if !strings.Contains(string(data), `tweet_monitor_webhook_requests_total{outcome="accepted"}`) {
		t.Errorf("webhook counter missing from /metrics output")
	}
}
