package assistant

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"crm-service/config"
)

const memoryTimeout = 10 * time.Second

// MemoryStore is the per-user long term memory behind the assistant.
// Every call is a POST with {"method": ..., "params": ...} and a bearer
// token; the store answers {"success": ..., "result"|"error": ...}.
type MemoryStore struct {
	url    string
	token  string
	client *http.Client
}

type memoryEnvelope struct {
	Method string `json:"method"`
	Params any    `json:"params"`
}

type memoryResult struct {
	Success bool            `json:"success"`
	Result  json.RawMessage `json:"result,omitempty"`
	Error   string          `json:"error,omitempty"`
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		url:    config.Config("MEMORY_API_URL"),
		token:  config.Config("MEMORY_API_TOKEN"),
		client: &http.Client{Timeout: memoryTimeout},
	}
}

func (m *MemoryStore) call(ctx context.Context, method string, params any) (json.RawMessage, error) {
	body, err := json.Marshal(memoryEnvelope{Method: method, Params: params})
	if err != nil {
		return nil, fmt.Errorf("encode memory request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, m.url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build memory request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+m.token)

	resp, err := m.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("call memory store: %w", err)
	}
	defer resp.Body.Close()

	var parsed memoryResult
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("decode memory response: %w", err)
	}
	if !parsed.Success {
		return nil, fmt.Errorf("memory store: %s", parsed.Error)
	}
	return parsed.Result, nil
}

// Remember stores a fact for the user.
func (m *MemoryStore) Remember(ctx context.Context, userID string, fact string) error {
	_, err := m.call(ctx, "memory.store", map[string]string{
		"user_id": userID,
		"fact":    fact,
	})
	return err
}

// Recall returns facts relevant to the query, most relevant first.
func (m *MemoryStore) Recall(ctx context.Context, userID string, query string) ([]string, error) {
	result, err := m.call(ctx, "memory.search", map[string]string{
		"user_id": userID,
		"query":   query,
	})
	if err != nil {
		return nil, err
	}

	var facts []string
	if err := json.Unmarshal(result, &facts); err != nil {
		return nil, fmt.Errorf("decode memory facts: %w", err)
	}
	return facts, nil
}

// Forget removes every stored fact for the user.
func (m *MemoryStore) Forget(ctx context.Context, userID string) error {
	_, err := m.call(ctx, "memory.clear", map[string]string{
		"user_id": userID,
	})
	return err
}
