package assistant

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestChatDecodesPlan(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat" {
			t.Fatalf("unexpected path: %s", r.URL.Path)
		}
		if r.Method != http.MethodPost {
			t.Fatalf("unexpected method: %s", r.Method)
		}
		var req ChatRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("unexpected body: %v", err)
		}
		if len(req.Messages) != 1 || req.Messages[0].Content != "stake 5" {
			t.Fatalf("unexpected messages: %+v", req.Messages)
		}
		_ = json.NewEncoder(w).Encode(Plan{
			ID:         "plan-1",
			ActionType: "STAKE",
			Txs: []TxPreview{{
				ChainID: 1,
				To:      "0x1111111111111111111111111111111111111111",
				Data:    "0x",
				Value:   "0",
			}},
		})
	}))
	defer srv.Close()

	client := NewClient(srv.URL, srv.Client())

	plan, err := client.Chat(context.Background(), ChatRequest{
		Messages: []Message{{Role: "user", Content: "stake 5"}},
	})
	if err != nil {
		t.Fatalf("chat: %v", err)
	}
	if plan.ID != "plan-1" {
		t.Fatalf("unexpected plan id: %s", plan.ID)
	}
	if len(plan.Txs) != 1 || plan.Txs[0].ChainID != 1 {
		t.Fatalf("unexpected txs: %+v", plan.Txs)
	}
}

func TestPlansPassesLimit(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/plans" {
			t.Fatalf("unexpected path: %s", r.URL.Path)
		}
		if got := r.URL.Query().Get("limit"); got != "5" {
			t.Fatalf("unexpected limit: %q", got)
		}
		_ = json.NewEncoder(w).Encode([]PlanRecord{
			{PlanID: "plan-1", ActionType: "STAKE", TxCount: 1},
		})
	}))
	defer srv.Close()

	client := NewClient(srv.URL, srv.Client())

	records, err := client.Plans(context.Background(), 5)
	if err != nil {
		t.Fatalf("plans: %v", err)
	}
	if len(records) != 1 || records[0].PlanID != "plan-1" {
		t.Fatalf("unexpected records: %+v", records)
	}
}

func TestChatValidationError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		_ = json.NewEncoder(w).Encode(map[string]any{
			"error":  "BAD_REQUEST",
			"issues": []string{"messages must not be empty"},
		})
	}))
	defer srv.Close()

	client := NewClient(srv.URL, srv.Client())

	_, err := client.Chat(context.Background(), ChatRequest{})
	if err == nil {
		t.Fatal("expected error")
	}
	apiErr, ok := err.(*APIError)
	if !ok {
		t.Fatalf("expected APIError, got %T", err)
	}
	if apiErr.StatusCode != http.StatusBadRequest {
		t.Fatalf("unexpected status: %d", apiErr.StatusCode)
	}
	if apiErr.Code != "BAD_REQUEST" {
		t.Fatalf("unexpected error code: %s", apiErr.Code)
	}
	if len(apiErr.Issues) != 1 {
		t.Fatalf("unexpected issues: %v", apiErr.Issues)
	}
}

func TestHealth(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/health" {
			t.Fatalf("unexpected path: %s", r.URL.Path)
		}
		_ = json.NewEncoder(w).Encode(map[string]bool{"ok": true})
	}))
	defer srv.Close()

	client := NewClient(srv.URL, srv.Client())
	if err := client.Health(context.Background()); err != nil {
		t.Fatalf("health: %v", err)
	}
}
