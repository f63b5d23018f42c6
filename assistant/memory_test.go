package assistant

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func memoryServer(t *testing.T, handler func(envelope memoryEnvelope) memoryResult) *MemoryStore {
	t.Helper()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("method = %s, want POST", r.Method)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer test-token" {
			t.Errorf("authorization = %q, want bearer test-token", got)
		}

		var envelope memoryEnvelope
		if err := json.NewDecoder(r.Body).Decode(&envelope); err != nil {
			t.Fatalf("decode envelope: %v", err)
		}
		json.NewEncoder(w).Encode(handler(envelope))
	}))
	t.Cleanup(srv.Close)

	return &MemoryStore{
		url:    srv.URL,
		token:  "test-token",
		client: &http.Client{Timeout: time.Second},
	}
}

func TestMemoryRecall(t *testing.T) {
	store := memoryServer(t, func(envelope memoryEnvelope) memoryResult {
		if envelope.Method != "memory.search" {
			t.Errorf("method = %q, want memory.search", envelope.Method)
		}
		facts, _ := json.Marshal([]string{"prefers email", "based in Berlin"})
		return memoryResult{Success: true, Result: facts}
	})

	facts, err := store.Recall(context.Background(), "user-1", "contact preference")
	if err != nil {
		t.Fatalf("Recall failed: %v", err)
	}
	if len(facts) != 2 || facts[0] != "prefers email" {
		t.Errorf("facts = %v, want two facts starting with the preference", facts)
	}
}

func TestMemoryRemember(t *testing.T) {
	var got memoryEnvelope
	store := memoryServer(t, func(envelope memoryEnvelope) memoryResult {
		got = envelope
		return memoryResult{Success: true}
	})

	if err := store.Remember(context.Background(), "user-1", "met at the expo"); err != nil {
		t.Fatalf("Remember failed: %v", err)
	}
	if got.Method != "memory.store" {
		t.Errorf("method = %q, want memory.store", got.Method)
	}
}

func TestMemoryErrorSurfaces(t *testing.T) {
	store := memoryServer(t, func(memoryEnvelope) memoryResult {
		return memoryResult{Success: false, Error: "store unavailable"}
	})

	err := store.Forget(context.Background(), "user-1")
	if err == nil {
		t.Fatal("expected an error from the failing store")
	}
}

func TestChatParsesReply(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req chatRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("decode chat request: %v", err)
		}
		if req.Model != "test-model" {
			t.Errorf("model = %q, want test-model", req.Model)
		}
		json.NewEncoder(w).Encode(map[string]any{
			"choices": []map[string]any{
				{"message": map[string]string{"role": "assistant", "content": "hello"}},
			},
		})
	}))
	defer srv.Close()

	client := &Client{
		apiURL: srv.URL,
		model:  "test-model",
		client: &http.Client{Timeout: time.Second},
	}

	reply, err := client.Chat(context.Background(), []ChatMessage{{Role: "user", Content: "hi"}})
	if err != nil {
		t.Fatalf("Chat failed: %v", err)
	}
	if reply != "hello" {
		t.Errorf("reply = %q, want hello", reply)
	}
}
