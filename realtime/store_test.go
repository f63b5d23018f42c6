package realtime

import (
	"encoding/json"
	"testing"
	"time"

	"crm-service/model"
)

func messageEvent(t *testing.T, typ EventType, msg model.Message) Event {
	t.Helper()
	raw, err := json.Marshal(msg)
	if err != nil {
		t.Fatalf("marshal message: %v", err)
	}
	return Event{Stream: StreamMessages, Type: typ, Row: raw}
}

func msg(id string, created time.Time) model.Message {
	m := model.Message{Subject: "s", Content: "c"}
	m.ID = id
	m.CreatedAt = created
	return m
}

func TestApplyEventSequenceMatchesSnapshot(t *testing.T) {
	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	cases := []struct {
		name   string
		events []Event
		want   []string // expected ids, created_at descending
	}{
		{
			name: "inserts then delete",
			events: []Event{
				messageEvent(t, EventInsert, msg("a", base)),
				messageEvent(t, EventInsert, msg("b", base.Add(time.Minute))),
				messageEvent(t, EventInsert, msg("c", base.Add(2*time.Minute))),
				messageEvent(t, EventDelete, msg("b", base.Add(time.Minute))),
			},
			want: []string{"c", "a"},
		},
		{
			name: "duplicate insert keeps one row",
			events: []Event{
				messageEvent(t, EventInsert, msg("a", base)),
				messageEvent(t, EventInsert, msg("a", base)),
			},
			want: []string{"a"},
		},
		{
			name: "update of unknown id inserts it",
			events: []Event{
				messageEvent(t, EventInsert, msg("a", base)),
				messageEvent(t, EventUpdate, msg("b", base.Add(time.Minute))),
			},
			want: []string{"b", "a"},
		},
		{
			name: "delete of unknown id is a no-op",
			events: []Event{
				messageEvent(t, EventInsert, msg("a", base)),
				messageEvent(t, EventDelete, msg("z", base)),
			},
			want: []string{"a"},
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			store := NewStore()
			for _, e := range tc.events {
				if err := store.Apply(e); err != nil {
					t.Fatalf("apply: %v", err)
				}
			}
			got := store.Messages()
			if len(got) != len(tc.want) {
				t.Fatalf("got %d messages, want %d", len(got), len(tc.want))
			}
			for i, id := range tc.want {
				if got[i].ID != id {
					t.Fatalf("position %d: got %q, want %q", i, got[i].ID, id)
				}
			}
		})
	}
}

func TestMessagesInsertedInDescendingOrder(t *testing.T) {
	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	t1 := base
	t2 := base.Add(time.Minute)
	t3 := base.Add(2 * time.Minute)

	store := NewStore()
	// Arrival order T3, T1, T2.
	for _, m := range []model.Message{msg("t3", t3), msg("t1", t1), msg("t2", t2)} {
		if err := store.Apply(messageEvent(t, EventInsert, m)); err != nil {
			t.Fatalf("apply: %v", err)
		}
	}

	got := store.Messages()
	want := []string{"t3", "t2", "t1"}
	for i, id := range want {
		if got[i].ID != id {
			t.Fatalf("position %d: got %q, want %q", i, got[i].ID, id)
		}
	}
}

func TestReadAndArchivedFlagsAreMonotonic(t *testing.T) {
	base := time.Now()
	store := NewStore()

	m := msg("a", base)
	if err := store.Apply(messageEvent(t, EventInsert, m)); err != nil {
		t.Fatalf("apply: %v", err)
	}

	m.IsRead = true
	m.IsArchived = true
	if err := store.Apply(messageEvent(t, EventUpdate, m)); err != nil {
		t.Fatalf("apply: %v", err)
	}

	// A later event reverting the flags must not take effect locally.
	m.IsRead = false
	m.IsArchived = false
	m.Subject = "edited"
	if err := store.Apply(messageEvent(t, EventUpdate, m)); err != nil {
		t.Fatalf("apply: %v", err)
	}

	got := store.Messages()[0]
	if !got.IsRead || !got.IsArchived {
		t.Fatalf("flags reverted: is_read=%v is_archived=%v", got.IsRead, got.IsArchived)
	}
	if got.Subject != "edited" {
		t.Fatalf("non-flag fields should follow last write, got subject %q", got.Subject)
	}
}

func TestUpdateAttachesVideoRoom(t *testing.T) {
	base := time.Now()
	store := NewStore()

	m := msg("a", base)
	if err := store.Apply(messageEvent(t, EventInsert, m)); err != nil {
		t.Fatalf("apply: %v", err)
	}

	room := "https://video.example.com/room-1"
	m.VideoRoomID = &room
	if err := store.Apply(messageEvent(t, EventUpdate, m)); err != nil {
		t.Fatalf("apply: %v", err)
	}

	got := store.Messages()[0]
	if got.VideoRoomID == nil || *got.VideoRoomID != room {
		t.Fatalf("video room not mirrored, got %v", got.VideoRoomID)
	}
}

func TestTypingMirror(t *testing.T) {
	store := NewStore()
	recipient := "r1"
	now := time.Now()

	ti := model.TypingIndicator{UserID: "u1", RecipientID: &recipient, IsTyping: true, LastUpdated: now}
	raw, _ := json.Marshal(ti)
	if err := store.Apply(Event{Stream: StreamTyping, Type: EventInsert, Row: raw}); err != nil {
		t.Fatalf("apply: %v", err)
	}
	if got := store.TypingUsers(now); len(got) != 1 {
		t.Fatalf("got %d typing rows, want 1", len(got))
	}

	// Rows older than the TTL read as not typing even before cleanup.
	if got := store.TypingUsers(now.Add(TypingTTL + time.Second)); len(got) != 0 {
		t.Fatalf("stale row still reported: %d", len(got))
	}

	// A stop-typing update removes the pair.
	ti.IsTyping = false
	raw, _ = json.Marshal(ti)
	if err := store.Apply(Event{Stream: StreamTyping, Type: EventUpdate, Row: raw}); err != nil {
		t.Fatalf("apply: %v", err)
	}
	if got := store.TypingUsers(now); len(got) != 0 {
		t.Fatalf("got %d typing rows after stop, want 0", len(got))
	}
}

func TestPresenceMirrorKeyedByUser(t *testing.T) {
	store := NewStore()
	now := time.Now()

	for _, status := range []string{model.PresenceOnline, "busy"} {
		p := model.UserPresence{UserID: "u1", Status: status, LastSeen: now}
		raw, _ := json.Marshal(p)
		if err := store.Apply(Event{Stream: StreamPresence, Type: EventUpdate, Row: raw}); err != nil {
			t.Fatalf("apply: %v", err)
		}
	}

	got := store.Presence()
	if len(got) != 1 {
		t.Fatalf("got %d presence rows, want 1", len(got))
	}
	if got[0].Status != "busy" {
		t.Fatalf("last write should win, got %q", got[0].Status)
	}
}
