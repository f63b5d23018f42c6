package realtime

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"crm-service/model"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func testBackend(t *testing.T) *GormBackend {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return &GormBackend{rdb: client}
}

func TestSubscribeReceivesPublishedEvents(t *testing.T) {
	backend := testBackend(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	events, err := backend.Subscribe(ctx, StreamMessages)
	if err != nil {
		t.Fatalf("Subscribe failed: %v", err)
	}

	msg := model.Message{SenderID: "user-1", Subject: "hello", Content: "body"}
	backend.publish(ctx, StreamMessages, EventInsert, msg)

	select {
	case ev := <-events:
		if ev.Stream != StreamMessages || ev.Type != EventInsert {
			t.Fatalf("event = %+v, want insert on messages", ev)
		}
		var row model.Message
		if err := json.Unmarshal(ev.Row, &row); err != nil {
			t.Fatalf("decode row: %v", err)
		}
		if row.Subject != "hello" {
			t.Errorf("subject = %q, want hello", row.Subject)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("no event arrived")
	}
}

func TestSubscribeChannelClosesOnCancel(t *testing.T) {
	backend := testBackend(t)
	ctx, cancel := context.WithCancel(context.Background())

	events, err := backend.Subscribe(ctx, StreamTyping)
	if err != nil {
		t.Fatalf("Subscribe failed: %v", err)
	}

	cancel()

	select {
	case _, open := <-events:
		if open {
			t.Fatal("expected the channel to close after cancel")
		}
	case <-time.After(2 * time.Second):
		t.Fatal("channel did not close after cancel")
	}
}

func TestSubscribeClosesWhenTransportLost(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	backend := &GormBackend{rdb: client}

	old := subscribeHealthInterval
	subscribeHealthInterval = 50 * time.Millisecond
	t.Cleanup(func() { subscribeHealthInterval = old })

	events, err := backend.Subscribe(context.Background(), StreamMessages)
	if err != nil {
		t.Fatalf("Subscribe failed: %v", err)
	}

	mr.Close()

	select {
	case _, open := <-events:
		if open {
			t.Fatal("expected the channel to close, got an event")
		}
	case <-time.After(2 * time.Second):
		t.Fatal("channel did not close after transport loss")
	}
}

func TestStreamsAreIsolatedChannels(t *testing.T) {
	backend := testBackend(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	typing, err := backend.Subscribe(ctx, StreamTyping)
	if err != nil {
		t.Fatalf("Subscribe failed: %v", err)
	}

	backend.publish(ctx, StreamPresence, EventUpdate, model.UserPresence{UserID: "user-1"})

	select {
	case ev := <-typing:
		t.Fatalf("typing channel got %+v, want nothing", ev)
	case <-time.After(100 * time.Millisecond):
	}
}
