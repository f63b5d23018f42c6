package realtime

import (
	"encoding/json"
	"sort"
	"sync"
	"time"

	"crm-service/model"
)

// TypingTTL is the staleness threshold applied when reading typing rows.
// Row cleanup itself stays a server-side job.
const TypingTTL = 10 * time.Second

// Store holds the local mirrors of the four server streams. The
// synchronizer is the only writer; consumers get copies.
type Store struct {
	mu        sync.RWMutex
	messages  []model.Message // created_at descending
	reactions []model.MessageReaction
	typing    []model.TypingIndicator
	presence  []model.UserPresence
}

func NewStore() *Store {
	return &Store{}
}

// Apply routes one pushed event into the matching mirror. Events are
// last-write-wins per primary key.
func (s *Store) Apply(e Event) error {
	switch e.Stream {
	case StreamMessages:
		var row model.Message
		if err := json.Unmarshal(e.Row, &row); err != nil {
			return err
		}
		s.applyMessage(e.Type, row)
	case StreamReactions:
		var row model.MessageReaction
		if err := json.Unmarshal(e.Row, &row); err != nil {
			return err
		}
		s.applyReaction(e.Type, row)
	case StreamTyping:
		var row model.TypingIndicator
		if err := json.Unmarshal(e.Row, &row); err != nil {
			return err
		}
		s.applyTyping(e.Type, row)
	case StreamPresence:
		var row model.UserPresence
		if err := json.Unmarshal(e.Row, &row); err != nil {
			return err
		}
		s.applyPresence(e.Type, row)
	}
	return nil
}

func (s *Store) applyMessage(t EventType, row model.Message) {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch t {
	case EventDelete:
		s.messages = removeMessage(s.messages, row.ID)
	case EventUpdate:
		for i := range s.messages {
			if s.messages[i].ID == row.ID {
				// Read/archive flags are monotonic within a session;
				// only a full resync may revert them.
				row.IsRead = row.IsRead || s.messages[i].IsRead
				row.IsArchived = row.IsArchived || s.messages[i].IsArchived
				s.messages[i] = row
				return
			}
		}
		s.messages = insertMessage(s.messages, row)
	case EventInsert:
		s.messages = removeMessage(s.messages, row.ID)
		s.messages = insertMessage(s.messages, row)
	}
}

// insertMessage keeps the list ordered by created_at descending; new rows
// are inserted at their position, not appended.
func insertMessage(list []model.Message, row model.Message) []model.Message {
	i := sort.Search(len(list), func(i int) bool {
		return list[i].CreatedAt.Before(row.CreatedAt)
	})
	list = append(list, model.Message{})
	copy(list[i+1:], list[i:])
	list[i] = row
	return list
}

func removeMessage(list []model.Message, id string) []model.Message {
	for i := range list {
		if list[i].ID == id {
			return append(list[:i], list[i+1:]...)
		}
	}
	return list
}

func (s *Store) applyReaction(t EventType, row model.MessageReaction) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.reactions {
		if s.reactions[i].ID == row.ID {
			if t == EventDelete {
				s.reactions = append(s.reactions[:i], s.reactions[i+1:]...)
			} else {
				s.reactions[i] = row
			}
			return
		}
	}
	if t != EventDelete {
		s.reactions = append(s.reactions, row)
	}
}

func (s *Store) applyTyping(t EventType, row model.TypingIndicator) {
	s.mu.Lock()
	defer s.mu.Unlock()

	filtered := s.typing[:0]
	for _, ti := range s.typing {
		if !typingPairEqual(ti, row) {
			filtered = append(filtered, ti)
		}
	}
	s.typing = filtered

	if t != EventDelete && row.IsTyping {
		s.typing = append(s.typing, row)
	}
}

func typingPairEqual(a, b model.TypingIndicator) bool {
	if a.UserID != b.UserID {
		return false
	}
	if (a.RecipientID == nil) != (b.RecipientID == nil) {
		return false
	}
	return a.RecipientID == nil || *a.RecipientID == *b.RecipientID
}

func (s *Store) applyPresence(t EventType, row model.UserPresence) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.presence {
		if s.presence[i].UserID == row.UserID {
			if t == EventDelete {
				s.presence = append(s.presence[:i], s.presence[i+1:]...)
			} else {
				s.presence[i] = row
			}
			return
		}
	}
	if t != EventDelete {
		s.presence = append(s.presence, row)
	}
}

// Seed replaces one mirror wholesale from a bulk fetch; the server snapshot
// is the source of truth after a (re)connect.

func (s *Store) SeedMessages(rows []model.Message) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sorted := make([]model.Message, len(rows))
	copy(sorted, rows)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[j].CreatedAt.Before(sorted[i].CreatedAt)
	})
	s.messages = sorted
}

func (s *Store) SeedReactions(rows []model.MessageReaction) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reactions = append([]model.MessageReaction(nil), rows...)
}

func (s *Store) SeedTyping(rows []model.TypingIndicator) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.typing = s.typing[:0]
	for _, ti := range rows {
		if ti.IsTyping {
			s.typing = append(s.typing, ti)
		}
	}
}

func (s *Store) SeedPresence(rows []model.UserPresence) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.presence = append([]model.UserPresence(nil), rows...)
}

// Messages returns a copy of the mirror, created_at descending.
func (s *Store) Messages() []model.Message {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]model.Message(nil), s.messages...)
}

// Reactions returns a copy of the reaction mirror, optionally filtered by
// message id ("" means all).
func (s *Store) Reactions(messageID string) []model.MessageReaction {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if messageID == "" {
		return append([]model.MessageReaction(nil), s.reactions...)
	}
	var out []model.MessageReaction
	for _, r := range s.reactions {
		if r.MessageID == messageID {
			out = append(out, r)
		}
	}
	return out
}

// TypingUsers returns indicators still considered live at now. Rows older
// than TypingTTL are treated as not typing even if the cleanup job has not
// removed them yet.
func (s *Store) TypingUsers(now time.Time) []model.TypingIndicator {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []model.TypingIndicator
	for _, ti := range s.typing {
		if now.Sub(ti.LastUpdated) <= TypingTTL {
			out = append(out, ti)
		}
	}
	return out
}

// Presence returns a copy of the presence mirror.
func (s *Store) Presence() []model.UserPresence {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]model.UserPresence(nil), s.presence...)
}
