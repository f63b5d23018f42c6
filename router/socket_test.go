package router

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"crm-service/model"
	"crm-service/realtime"
)

type fakeSource struct {
	mu    sync.Mutex
	chans map[realtime.Stream][]chan realtime.Event
}

func newFakeSource() *fakeSource {
	return &fakeSource{chans: map[realtime.Stream][]chan realtime.Event{}}
}

func (f *fakeSource) Subscribe(ctx context.Context, stream realtime.Stream) (<-chan realtime.Event, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	ch := make(chan realtime.Event, 16)
	f.chans[stream] = append(f.chans[stream], ch)
	return ch, nil
}

func (f *fakeSource) subscriptions(stream realtime.Stream) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.chans[stream])
}

func (f *fakeSource) channel(stream realtime.Stream, n int) chan realtime.Event {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.chans[stream][n]
}

type emitLog struct {
	mu        sync.Mutex
	broadcast []string
	direct    []string
}

func (l *emitLog) broadcastFn(event string, message any) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.broadcast = append(l.broadcast, event)
}

func (l *emitLog) directFn(id string, event string, message any) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.direct = append(l.direct, id)
}

func (l *emitLog) counts() (int, int) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.broadcast), len(l.direct)
}

func waitUntil(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", what)
}

func messageEvent(t *testing.T, msg model.Message) realtime.Event {
	t.Helper()
	raw, err := json.Marshal(msg)
	if err != nil {
		t.Fatalf("marshal message: %v", err)
	}
	return realtime.Event{Stream: realtime.StreamMessages, Type: realtime.EventInsert, Row: raw}
}

func TestFeedRoutesDirectMessagesToParticipantsOnly(t *testing.T) {
	src := newFakeSource()
	emits := &emitLog{}
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go Feed(ctx, src, emits.broadcastFn, emits.directFn)

	waitUntil(t, "stream subscriptions", func() bool {
		return src.subscriptions(realtime.StreamMessages) > 0
	})

	recipient := "user-2"
	src.channel(realtime.StreamMessages, 0) <- messageEvent(t, model.Message{
		SenderID:    "user-1",
		RecipientID: &recipient,
		Subject:     "private",
	})

	waitUntil(t, "direct emits", func() bool {
		_, direct := emits.counts()
		return direct == 2
	})

	broadcast, _ := emits.counts()
	if broadcast != 0 {
		t.Fatalf("broadcast count = %d, a direct message must not fan out to everyone", broadcast)
	}

	emits.mu.Lock()
	got := append([]string(nil), emits.direct...)
	emits.mu.Unlock()
	if got[0] != "user-1" || got[1] != "user-2" {
		t.Fatalf("direct rooms = %v, want sender then recipient", got)
	}
}

func TestFeedBroadcastsMessagesWithoutRecipient(t *testing.T) {
	src := newFakeSource()
	emits := &emitLog{}
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go Feed(ctx, src, emits.broadcastFn, emits.directFn)

	waitUntil(t, "stream subscriptions", func() bool {
		return src.subscriptions(realtime.StreamMessages) > 0
	})

	src.channel(realtime.StreamMessages, 0) <- messageEvent(t, model.Message{
		SenderID: "user-1",
		Subject:  "announcement",
	})

	waitUntil(t, "broadcast emit", func() bool {
		broadcast, _ := emits.counts()
		return broadcast == 1
	})

	_, direct := emits.counts()
	if direct != 0 {
		t.Fatalf("direct count = %d, a broadcast must not target rooms", direct)
	}
}

func TestFeedResubscribesAfterChannelClose(t *testing.T) {
	src := newFakeSource()
	emits := &emitLog{}
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go Feed(ctx, src, emits.broadcastFn, emits.directFn)

	waitUntil(t, "first subscription", func() bool {
		return src.subscriptions(realtime.StreamPresence) > 0
	})

	close(src.channel(realtime.StreamPresence, 0))

	waitUntil(t, "second subscription", func() bool {
		return src.subscriptions(realtime.StreamPresence) > 1
	})

	raw, _ := json.Marshal(model.UserPresence{UserID: "user-1"})
	src.channel(realtime.StreamPresence, 1) <- realtime.Event{
		Stream: realtime.StreamPresence,
		Type:   realtime.EventUpdate,
		Row:    raw,
	}

	waitUntil(t, "event after resubscribe", func() bool {
		broadcast, _ := emits.counts()
		return broadcast == 1
	})
}
