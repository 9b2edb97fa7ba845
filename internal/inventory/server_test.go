package inventory

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"
)

func resultText(t *testing.T, res *mcpsdk.CallToolResult) string {
	t.Helper()
	if len(res.Content) != 1 {
		t.Fatalf("len(Content) = %d, want 1", len(res.Content))
	}
	tc, ok := res.Content[0].(*mcpsdk.TextContent)
	if !ok {
		t.Fatalf("Content[0] is %T, want *TextContent", res.Content[0])
	}
	return tc.Text
}

func TestGetAccounts_ListsUnderClustersKey(t *testing.T) {
	t.Parallel()

	srv, _ := fakeAPI(t, map[string]string{
		"/accounts": `{"accounts": [{"name": "prod"}, {"name": "dev"}]}`,
	})
	s := &toolServer{client: NewClient(srv.URL)}

	res, _, err := s.getAccounts(context.Background(), nil, accountArgs{})
	if err != nil {
		t.Fatalf("getAccounts() error: %v", err)
	}
	if res.IsError {
		t.Fatalf("IsError = true: %s", resultText(t, res))
	}

	var payload struct {
		Clusters []map[string]any `json:"clusters"`
		Count    int              `json:"count"`
	}
	if err := json.Unmarshal([]byte(resultText(t, res)), &payload); err != nil {
		t.Fatalf("unmarshal payload: %v", err)
	}
	if payload.Count != 2 || len(payload.Clusters) != 2 {
		t.Errorf("payload = %+v", payload)
	}
}

func TestGetClusters_EmptyListStaysList(t *testing.T) {
	t.Parallel()

	srv, _ := fakeAPI(t, map[string]string{
		"/clusters": `{"message": "nothing here"}`,
	})
	s := &toolServer{client: NewClient(srv.URL)}

	res, _, err := s.getClusters(context.Background(), nil, clusterArgs{})
	if err != nil {
		t.Fatalf("getClusters() error: %v", err)
	}

	var payload map[string]json.RawMessage
	if err := json.Unmarshal([]byte(resultText(t, res)), &payload); err != nil {
		t.Fatalf("unmarshal payload: %v", err)
	}
	if string(payload["clusters"]) != "[]" {
		t.Errorf("clusters = %s, want []", payload["clusters"])
	}
	if string(payload["count"]) != "0" {
		t.Errorf("count = %s, want 0", payload["count"])
	}
}

func TestGetInstances_ForwardsClusterName(t *testing.T) {
	t.Parallel()

	srv, lastPath := fakeAPI(t, map[string]string{
		"/instances/alpha": `{"instances": [{"id": "i-1"}]}`,
	})
	s := &toolServer{client: NewClient(srv.URL)}

	res, _, err := s.getInstances(context.Background(), nil, clusterArgs{ClusterName: "alpha"})
	if err != nil {
		t.Fatalf("getInstances() error: %v", err)
	}
	if res.IsError {
		t.Fatalf("IsError = true: %s", resultText(t, res))
	}
	if *lastPath != "/instances/alpha" {
		t.Errorf("request path = %q", *lastPath)
	}
}

func TestHandlers_APIFailureBecomesErrorResult(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "backend down", http.StatusBadGateway)
	}))
	t.Cleanup(srv.Close)
	s := &toolServer{client: NewClient(srv.URL)}

	res, _, err := s.getInventoryOverview(context.Background(), nil, overviewArgs{})
	if err != nil {
		t.Fatalf("handler returned transport error: %v", err)
	}
	if !res.IsError {
		t.Fatal("IsError = false, want tool-level error result")
	}
	if resultText(t, res) == "" {
		t.Error("error result has no message")
	}
}

func TestNewServer(t *testing.T) {
	t.Parallel()

	if s := NewServer(NewClient("http://localhost:9000"), "test"); s == nil {
		t.Fatal("NewServer() returned nil")
	}
}
