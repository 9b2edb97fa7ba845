package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/MrWong99/inventa/internal/chat"
	"github.com/MrWong99/inventa/internal/config"
	"github.com/MrWong99/inventa/internal/health"
	"github.com/MrWong99/inventa/internal/mcp"
	mcpmock "github.com/MrWong99/inventa/internal/mcp/mock"
	"github.com/MrWong99/inventa/pkg/provider/llm"
	llmmock "github.com/MrWong99/inventa/pkg/provider/llm/mock"
)

// newTestServer assembles a gateway around mock backends.
func newTestServer(completer *llmmock.Completer, dialer *mcpmock.Dialer, opts ...Option) *Server {
	orch := chat.New(completer)
	return New(config.ServerConfig{ListenAddr: ":0"}, orch, dialer, opts...)
}

func postChat(t *testing.T, handler http.Handler, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/chat", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func decodeBody[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.NewDecoder(rec.Body).Decode(&v); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return v
}

func TestHandleChat_FinalAnswer(t *testing.T) {
	t.Parallel()

	completer := &llmmock.Completer{Responses: []string{"There are 2 accounts."}}
	sess := &mcpmock.Session{ToolsResult: []mcp.ToolDescriptor{{Name: "get_accounts"}}}
	dialer := &mcpmock.Dialer{Session: sess}

	rec := postChat(t, newTestServer(completer, dialer).Handler(), `{"query": "how many accounts?"}`)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200; body: %s", rec.Code, rec.Body)
	}
	body := decodeBody[chatResponse](t, rec)
	if body.Response != "There are 2 accounts." {
		t.Errorf("response = %q", body.Response)
	}
	if got := dialer.DialCount(); got != 1 {
		t.Errorf("dial count = %d, want 1", got)
	}
	if got := sess.CallCount("Close"); got != 1 {
		t.Errorf("session close count = %d, want 1", got)
	}
}

func TestHandleChat_DialFailure(t *testing.T) {
	t.Parallel()

	completer := &llmmock.Completer{Responses: []string{"unused"}}
	dialer := &mcpmock.Dialer{DialErr: errors.New("spawn failed")}

	rec := postChat(t, newTestServer(completer, dialer).Handler(), `{"query": "hi"}`)

	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("status = %d, want 503", rec.Code)
	}
	body := decodeBody[errorResponse](t, rec)
	if body.Detail != "Error: Could not establish connection with backend agent." {
		t.Errorf("detail = %q", body.Detail)
	}
	if got := completer.CallCount(); got != 0 {
		t.Errorf("completion calls = %d, want 0", got)
	}
}

func TestHandleChat_CompletionFailure(t *testing.T) {
	t.Parallel()

	upstream := &llm.Error{Kind: llm.KindUpstream, Status: 500, Err: errors.New("model overloaded")}
	completer := &llmmock.Completer{Errs: []error{upstream}}
	sess := &mcpmock.Session{}
	dialer := &mcpmock.Dialer{Session: sess}

	rec := postChat(t, newTestServer(completer, dialer).Handler(), `{"query": "hi"}`)

	if rec.Code != http.StatusBadGateway {
		t.Fatalf("status = %d, want 502", rec.Code)
	}
	body := decodeBody[errorResponse](t, rec)
	if !strings.HasPrefix(body.Detail, "Error communicating with Language Model: ") {
		t.Errorf("detail = %q", body.Detail)
	}
	// Session is torn down even on the failure path.
	if got := sess.CallCount("Close"); got != 1 {
		t.Errorf("session close count = %d, want 1", got)
	}
}

func TestHandleChat_UnexpectedFailure(t *testing.T) {
	t.Parallel()

	completer := &llmmock.Completer{Errs: []error{errors.New("weird internal state")}}
	dialer := &mcpmock.Dialer{Session: &mcpmock.Session{}}

	rec := postChat(t, newTestServer(completer, dialer).Handler(), `{"query": "hi"}`)

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500", rec.Code)
	}
	body := decodeBody[errorResponse](t, rec)
	if !strings.HasPrefix(body.Detail, "An unexpected server error occurred: ") {
		t.Errorf("detail = %q", body.Detail)
	}
}

func TestHandleChat_Exhaustion(t *testing.T) {
	t.Parallel()

	// The backend loops on the same tool call until the iteration cap.
	completer := &llmmock.Completer{Responses: []string{`{"tool_name": "get_clusters", "arguments": {}}`}}
	sess := &mcpmock.Session{
		ToolsResult:    []mcp.ToolDescriptor{{Name: "get_clusters"}},
		CallToolResult: &mcp.ToolResult{Content: []mcp.Content{{Text: "{}", IsText: true}}},
	}
	dialer := &mcpmock.Dialer{Session: sess}

	rec := postChat(t, newTestServer(completer, dialer).Handler(), `{"query": "hi"}`)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200 (exhaustion is not an error)", rec.Code)
	}
	body := decodeBody[chatResponse](t, rec)
	want := "Max loops reached. Last response: Processing stopped - LLM was still trying to call tool 'get_clusters'."
	if body.Response != want {
		t.Errorf("response = %q, want %q", body.Response, want)
	}
}

func TestHandleChat_BadRequests(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		body string
	}{
		{"malformed JSON", `{"query": `},
		{"missing query", `{}`},
		{"blank query", `{"query": "   "}`},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			completer := &llmmock.Completer{}
			dialer := &mcpmock.Dialer{}
			rec := postChat(t, newTestServer(completer, dialer).Handler(), tc.body)

			if rec.Code != http.StatusBadRequest {
				t.Errorf("status = %d, want 400", rec.Code)
			}
			if got := dialer.DialCount(); got != 0 {
				t.Errorf("dial count = %d, want 0", got)
			}
		})
	}
}

func TestHandler_MethodNotAllowed(t *testing.T) {
	t.Parallel()

	srv := newTestServer(&llmmock.Completer{}, &mcpmock.Dialer{})

	req := httptest.NewRequest(http.MethodGet, "/chat", nil)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("status = %d, want 405", rec.Code)
	}
}

func TestHandler_HealthAndMetricsRoutes(t *testing.T) {
	t.Parallel()

	srv := newTestServer(&llmmock.Completer{}, &mcpmock.Dialer{},
		WithHealthCheckers(health.Checker{
			Name:  "tools",
			Check: func(context.Context) error { return nil },
		}),
	)
	handler := srv.Handler()

	for _, path := range []string{"/healthz", "/readyz", "/metrics"} {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Errorf("GET %s status = %d, want 200", path, rec.Code)
		}
	}
}

func TestHandleChat_FreshSessionPerRequest(t *testing.T) {
	t.Parallel()

	completer := &llmmock.Completer{Responses: []string{"done"}}
	sess := &mcpmock.Session{}
	dialer := &mcpmock.Dialer{Session: sess}
	handler := newTestServer(completer, dialer).Handler()

	for range 3 {
		rec := postChat(t, handler, `{"query": "hi"}`)
		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d, want 200", rec.Code)
		}
	}

	if got := dialer.DialCount(); got != 3 {
		t.Errorf("dial count = %d, want 3", got)
	}
	if got := sess.CallCount("Close"); got != 3 {
		t.Errorf("session close count = %d, want 3", got)
	}
}
