package main

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/sokolink/sokolink/internal/config"
	"github.com/sokolink/sokolink/internal/market"
)

type recordedRequest struct {
	Method string
	Path   string
	Body   string
	Auth   string
}

type testServer struct {
	server   *httptest.Server
	requests []recordedRequest
}

func newTestServer(t *testing.T, responses map[string]string) *testServer {
	t.Helper()
	ts := &testServer{}

	ts.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body bytes.Buffer
		body.ReadFrom(r.Body)

		ts.requests = append(ts.requests, recordedRequest{
			Method: r.Method,
			Path:   r.URL.RequestURI(),
			Body:   body.String(),
			Auth:   r.Header.Get("Authorization"),
		})

		key := r.Method + " " + r.URL.Path
		if resp, ok := responses[key]; ok {
			w.Header().Set("Content-Type", "application/json")
			w.Write([]byte(resp))
			return
		}

		w.WriteHeader(404)
		w.Write([]byte(`{"error":{"message":"not found","type":"not_found"}}`))
	}))

	t.Cleanup(ts.server.Close)
	return ts
}

func (ts *testServer) client() *apiClient {
	return &apiClient{
		baseURL:    ts.server.URL,
		token:      "test-token",
		httpClient: ts.server.Client(),
	}
}

var ctx = context.Background()

func TestSearchRequest(t *testing.T) {
	ts := newTestServer(t, map[string]string{
		"POST /search": `{"businesses":[{"id":"biz-javahousekimathist","name":"Java House","address":"Kimathi St","category":"cafe"}],"items":[]}`,
	})

	client := ts.client()
	resp, err := client.post(ctx, "/search", map[string]string{"query": "coffee", "location": "Nairobi"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var result struct {
		Businesses []market.Business `json:"businesses"`
	}
	if err := decodeJSON(resp, &result); err != nil {
		t.Fatalf("decode error: %v", err)
	}
	if len(result.Businesses) != 1 || result.Businesses[0].Name != "Java House" {
		t.Errorf("businesses = %+v", result.Businesses)
	}

	if len(ts.requests) != 1 {
		t.Fatalf("expected 1 request, got %d", len(ts.requests))
	}
	r := ts.requests[0]
	if r.Auth != "Bearer test-token" {
		t.Errorf("auth = %q, want Bearer test-token", r.Auth)
	}

	var body map[string]string
	if err := json.Unmarshal([]byte(r.Body), &body); err != nil {
		t.Fatalf("body parse error: %v", err)
	}
	if body["query"] != "coffee" || body["location"] != "Nairobi" {
		t.Errorf("body = %+v", body)
	}
}

func TestItemsAddCommand_MissingFlags(t *testing.T) {
	defer rootCmd.SetArgs(nil)

	rootCmd.SetArgs([]string{"items", "add"})
	err := rootCmd.Execute()
	if err == nil {
		t.Fatal("expected error for missing flags")
	}
	if !strings.Contains(err.Error(), "required") {
		t.Errorf("error = %q, want it to mention 'required'", err.Error())
	}
}

func TestItemsSoldRequest(t *testing.T) {
	ts := newTestServer(t, map[string]string{
		"PATCH /items/user-item-sofa/status": `{}`,
	})

	client := ts.client()
	resp, err := client.patch(ctx, "/items/user-item-sofa/status", map[string]string{"status": "sold"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := drainResponse(resp); err != nil {
		t.Fatalf("drain error: %v", err)
	}

	var body map[string]string
	if err := json.Unmarshal([]byte(ts.requests[0].Body), &body); err != nil {
		t.Fatalf("body parse error: %v", err)
	}
	if body["status"] != "sold" {
		t.Errorf("status = %q, want sold", body["status"])
	}
}

func TestInboxListDecoding(t *testing.T) {
	ts := newTestServer(t, map[string]string{
		"GET /conversations": `[{"id":"ai-item-sofa","itemId":"ai-item-sofa","itemName":"Sofa","messages":[{"id":"m1","sender":"Buyer","text":"Is it available?","timestamp":"2025-01-01T00:00:00Z"}],"isReadByBuyer":true,"isReadBySeller":false}]`,
	})

	client := ts.client()
	resp, err := client.get(ctx, "/conversations")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var convos []market.Conversation
	if err := decodeJSON(resp, &convos); err != nil {
		t.Fatalf("decode error: %v", err)
	}
	if len(convos) != 1 {
		t.Fatalf("expected 1 conversation, got %d", len(convos))
	}
	c := convos[0]
	if c.ItemName != "Sofa" || len(c.Messages) != 1 || c.IsReadBySeller {
		t.Errorf("conversation = %+v", c)
	}
	if c.Messages[0].Sender != market.RoleBuyer {
		t.Errorf("sender = %q, want Buyer", c.Messages[0].Sender)
	}
}

func TestProfileSetReadModifyWrite(t *testing.T) {
	ts := newTestServer(t, map[string]string{
		"GET /profile": `{"businessName":"","address":"","category":"shop","products":[]}`,
		"PUT /profile": `{"businessName":"Joe's Kiosk","address":"","category":"shop","products":[]}`,
	})

	client := ts.client()

	resp, err := client.get(ctx, "/profile")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	var profile map[string]any
	if err := decodeJSON(resp, &profile); err != nil {
		t.Fatalf("decode error: %v", err)
	}
	profile["businessName"] = "Joe's Kiosk"

	putResp, err := client.put(ctx, "/profile", profile)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := drainResponse(putResp); err != nil {
		t.Fatalf("drain error: %v", err)
	}

	if len(ts.requests) != 2 {
		t.Fatalf("expected 2 requests, got %d", len(ts.requests))
	}
	var sent map[string]any
	if err := json.Unmarshal([]byte(ts.requests[1].Body), &sent); err != nil {
		t.Fatalf("body parse error: %v", err)
	}
	if sent["businessName"] != "Joe's Kiosk" {
		t.Errorf("businessName = %v", sent["businessName"])
	}
	if sent["category"] != "shop" {
		t.Errorf("category not preserved: %v", sent["category"])
	}
}

func TestStatusCommand_Stopped(t *testing.T) {
	ts := newTestServer(t, map[string]string{})
	ts.server.Close()

	client := ts.client()
	_, err := client.get(ctx, "/health")
	if err == nil {
		t.Fatal("expected error for stopped server")
	}
	if !strings.Contains(err.Error(), "not reachable") {
		t.Errorf("error = %q, want it to mention 'not reachable'", err.Error())
	}
}

func TestDecodeJSON_ErrorResponse(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(401)
		w.Write([]byte(`{"error":{"message":"unauthorized","type":"authentication_error"}}`))
	}))
	defer ts.Close()

	client := &apiClient{
		baseURL:    ts.URL,
		token:      "bad-token",
		httpClient: ts.Client(),
	}

	resp, err := client.get(ctx, "/profile")
	if err != nil {
		t.Fatalf("unexpected transport error: %v", err)
	}

	var result any
	err = decodeJSON(resp, &result)
	if err == nil {
		t.Fatal("expected error for 401 response")
	}
	if !strings.Contains(err.Error(), "401") {
		t.Errorf("error = %q, want it to contain '401'", err.Error())
	}
}

func TestNoColorFlag(t *testing.T) {
	old := noColor
	defer func() { noColor = old }()

	noColor = true
	result := colorize(colorGreen, "test message")
	if strings.Contains(result, "\033[") {
		t.Errorf("colorize with noColor=true should not contain ANSI codes, got %q", result)
	}
	if result != "test message" {
		t.Errorf("result = %q, want %q", result, "test message")
	}

	noColor = false
	result = colorize(colorGreen, "test message")
	if !strings.Contains(result, "\033[") {
		t.Errorf("colorize with noColor=false should contain ANSI codes, got %q", result)
	}
}

func TestConfigShowAll(t *testing.T) {
	cfg := config.Config{}
	cfg.Server.Port = 4600
	cfg.Gemini.Model = "gemini-2.5-flash"

	keys := config.ShowAll(cfg)
	if len(keys) == 0 {
		t.Fatal("expected non-empty keys from ShowAll")
	}

	found := false
	for _, k := range keys {
		if k.Key == "server.port" && k.Value == "4600" {
			found = true
		}
		if k.Key == "gemini.api_key" {
			t.Error("secret key exposed by ShowAll")
		}
	}
	if !found {
		t.Error("expected to find server.port=4600 in ShowAll output")
	}
}
