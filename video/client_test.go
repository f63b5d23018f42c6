package video

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func TestCreateRoomWithoutProviderGeneratesName(t *testing.T) {
	client := &Client{client: &http.Client{Timeout: time.Second}}

	room, err := client.CreateRoom(context.Background())
	if err != nil {
		t.Fatalf("CreateRoom failed: %v", err)
	}
	if !strings.HasPrefix(room, "room-") {
		t.Errorf("room = %q, want a generated room name", room)
	}
}

func TestCreateRoomReturnsProviderURL(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Bearer test-key" {
			t.Errorf("authorization = %q, want bearer test-key", got)
		}
		var req roomRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("decode room request: %v", err)
		}
		if !strings.HasPrefix(req.Name, "room-") {
			t.Errorf("requested name = %q, want a generated room name", req.Name)
		}
		json.NewEncoder(w).Encode(roomResponse{Name: req.Name, URL: "https://rooms.example.com/" + req.Name})
	}))
	defer srv.Close()

	client := &Client{apiURL: srv.URL, apiKey: "test-key", client: &http.Client{Timeout: time.Second}}

	room, err := client.CreateRoom(context.Background())
	if err != nil {
		t.Fatalf("CreateRoom failed: %v", err)
	}
	if !strings.HasPrefix(room, "https://rooms.example.com/room-") {
		t.Errorf("room = %q, want the provider URL", room)
	}
}

func TestCreateRoomSurfacesProviderErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	client := &Client{apiURL: srv.URL, client: &http.Client{Timeout: time.Second}}

	if _, err := client.CreateRoom(context.Background()); err == nil {
		t.Fatal("expected an error from the failing provider")
	}
}
