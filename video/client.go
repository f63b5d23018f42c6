// Package video provisions call rooms for messages.
package video

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"crm-service/config"

	"github.com/google/uuid"
)

const requestTimeout = 10 * time.Second

// Client talks to an external room provider. Without one configured,
// rooms are plain generated names the clients feed to their own video
// layer.
type Client struct {
	apiURL string
	apiKey string
	client *http.Client
}

type roomRequest struct {
	Name string `json:"name"`
}

type roomResponse struct {
	Name string `json:"name"`
	URL  string `json:"url"`
}

func NewClient() *Client {
	return &Client{
		apiURL: config.Config("VIDEO_API_URL"),
		apiKey: config.Config("VIDEO_API_KEY"),
		client: &http.Client{Timeout: requestTimeout},
	}
}

// CreateRoom returns the room reference to store on the message: the
// provider's room URL when a provider is configured, a generated room
// name otherwise.
func (c *Client) CreateRoom(ctx context.Context) (string, error) {
	name := "room-" + uuid.NewString()
	if c.apiURL == "" {
		return name, nil
	}

	body, err := json.Marshal(roomRequest{Name: name})
	if err != nil {
		return "", fmt.Errorf("encode room request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.apiURL, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("build room request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("call room provider: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return "", fmt.Errorf("room provider returned status %d", resp.StatusCode)
	}

	var parsed roomResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return "", fmt.Errorf("decode room response: %w", err)
	}
	if parsed.URL != "" {
		return parsed.URL, nil
	}
	if parsed.Name != "" {
		return parsed.Name, nil
	}
	return "", fmt.Errorf("room provider returned an empty room")
}
