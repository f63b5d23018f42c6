package realtime

import (
	"context"
	"log"
	"sync"
	"time"

	"crm-service/model"
)

// Backend is the storage/transport boundary the synchronizer talks to.
// Subscribe returns a channel of pushed events for one stream; the channel
// closing while the context is still live signals a transport loss.
type Backend interface {
	FetchMessages(ctx context.Context) ([]model.Message, error)
	FetchReactions(ctx context.Context) ([]model.MessageReaction, error)
	FetchTyping(ctx context.Context) ([]model.TypingIndicator, error)
	FetchPresence(ctx context.Context) ([]model.UserPresence, error)
	Subscribe(ctx context.Context, stream Stream) (<-chan Event, error)

	SendMessage(ctx context.Context, msg model.Message) (model.Message, error)
	MarkRead(ctx context.Context, id string) error
	MarkArchived(ctx context.Context, id string) error
	UpsertTyping(ctx context.Context, ti model.TypingIndicator) error
	AddReaction(ctx context.Context, r model.MessageReaction) error
	RemoveReaction(ctx context.Context, id string) error
	UpsertPresence(ctx context.Context, p model.UserPresence) error
}

// Notifier carries user-facing toasts out of the synchronizer.
type Notifier interface {
	Success(title, description string)
	Error(title, description string)
}

type logNotifier struct{}

func (logNotifier) Success(title, description string) { log.Printf("%s: %s", title, description) }
func (logNotifier) Error(title, description string)   { log.Printf("%s: %s", title, description) }

// StreamState is the per-stream subscription lifecycle.
type StreamState int

const (
	StateUninitialized StreamState = iota
	StateSubscribing
	StateLive
	StateResyncing
	StateClosed
)

func (s StreamState) String() string {
	switch s {
	case StateSubscribing:
		return "subscribing"
	case StateLive:
		return "live"
	case StateResyncing:
		return "resyncing"
	case StateClosed:
		return "closed"
	default:
		return "uninitialized"
	}
}

// retryDelay paces resubscribe attempts after a failed connect.
const retryDelay = time.Second

// Synchronizer mirrors the four server streams into a Store and exposes
// intent mutations. Each stream subscribes, seeds from a bulk fetch, then
// applies pushed events; a dropped subscription triggers a full refetch
// instead of event replay. Streams fail independently. Public methods never
// return backend errors; failures are logged and toasted.
type Synchronizer struct {
	backend  Backend
	store    *Store
	notifier Notifier
	userID   string

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu         sync.Mutex
	states     map[Stream]StreamState
	lastTyping map[string]bool // recipient id ("" = broadcast) -> last state sent
	opened     bool
}

// Option tweaks a Synchronizer.
type Option func(*Synchronizer)

// WithNotifier replaces the default log-backed toast sink.
func WithNotifier(n Notifier) Option {
	return func(s *Synchronizer) { s.notifier = n }
}

func NewSynchronizer(backend Backend, userID string, opts ...Option) *Synchronizer {
	s := &Synchronizer{
		backend:    backend,
		store:      NewStore(),
		notifier:   logNotifier{},
		userID:     userID,
		states:     make(map[Stream]StreamState),
		lastTyping: make(map[string]bool),
	}
	for _, st := range Streams {
		s.states[st] = StateUninitialized
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Store exposes the read-only mirrors.
func (s *Synchronizer) Store() *Store { return s.store }

// State reports the lifecycle state of one stream.
func (s *Synchronizer) State(stream Stream) StreamState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.states[stream]
}

func (s *Synchronizer) setState(stream Stream, state StreamState) {
	s.mu.Lock()
	s.states[stream] = state
	s.mu.Unlock()
}

// Open starts the four stream subscriptions. Each stream seeds its mirror
// with a bulk fetch before applying pushed events. One stream failing to
// come up does not block the others.
func (s *Synchronizer) Open(ctx context.Context) {
	s.mu.Lock()
	if s.opened {
		s.mu.Unlock()
		return
	}
	s.opened = true
	s.ctx, s.cancel = context.WithCancel(ctx)
	s.mu.Unlock()

	for _, stream := range Streams {
		s.wg.Add(1)
		go s.runStream(stream)
	}
}

// Close tears down all subscriptions and waits for in-flight work to stop.
// Fetches resolving after Close must not touch the mirrors.
func (s *Synchronizer) Close() {
	s.mu.Lock()
	if !s.opened {
		s.mu.Unlock()
		return
	}
	cancel := s.cancel
	s.mu.Unlock()

	cancel()
	s.wg.Wait()
}

func (s *Synchronizer) runStream(stream Stream) {
	defer s.wg.Done()
	defer s.setState(stream, StateClosed)

	resync := false
	for {
		if s.ctx.Err() != nil {
			return
		}
		if resync {
			s.setState(stream, StateResyncing)
		} else {
			s.setState(stream, StateSubscribing)
		}

		// Subscribe before the seed fetch so no commit falls between them.
		events, err := s.backend.Subscribe(s.ctx, stream)
		if err != nil {
			s.notifier.Error("Realtime unavailable", string(stream)+": "+err.Error())
			if !s.sleep(retryDelay) {
				return
			}
			continue
		}

		if err := s.seed(stream); err != nil {
			if s.ctx.Err() != nil {
				return
			}
			s.notifier.Error("Failed to load "+string(stream), err.Error())
			if !s.sleep(retryDelay) {
				return
			}
			continue
		}
		if s.ctx.Err() != nil {
			return
		}
		s.setState(stream, StateLive)

	drain:
		for {
			select {
			case <-s.ctx.Done():
				return
			case e, ok := <-events:
				if !ok {
					// Transport dropped: resync via a fresh bulk fetch.
					resync = true
					break drain
				}
				if err := s.store.Apply(e); err != nil {
					log.Printf("apply %s event: %v", stream, err)
				}
			}
		}
	}
}

// seed runs the bulk fetch for one stream and replaces its mirror, unless
// the synchronizer was closed while the fetch was in flight.
func (s *Synchronizer) seed(stream Stream) error {
	switch stream {
	case StreamMessages:
		rows, err := s.backend.FetchMessages(s.ctx)
		if err != nil {
			return err
		}
		if s.ctx.Err() != nil {
			return s.ctx.Err()
		}
		s.store.SeedMessages(rows)
	case StreamReactions:
		rows, err := s.backend.FetchReactions(s.ctx)
		if err != nil {
			return err
		}
		if s.ctx.Err() != nil {
			return s.ctx.Err()
		}
		s.store.SeedReactions(rows)
	case StreamTyping:
		rows, err := s.backend.FetchTyping(s.ctx)
		if err != nil {
			return err
		}
		if s.ctx.Err() != nil {
			return s.ctx.Err()
		}
		s.store.SeedTyping(rows)
	case StreamPresence:
		rows, err := s.backend.FetchPresence(s.ctx)
		if err != nil {
			return err
		}
		if s.ctx.Err() != nil {
			return s.ctx.Err()
		}
		s.store.SeedPresence(rows)
	}
	return nil
}

func (s *Synchronizer) sleep(d time.Duration) bool {
	select {
	case <-s.ctx.Done():
		return false
	case <-time.After(d):
		return true
	}
}

// SendMessage creates a message from the current user. The mirror is
// updated by the pushed insert event, not locally.
func (s *Synchronizer) SendMessage(ctx context.Context, subject, content string, recipientID *string, priority string, attachments []model.MediaFile) {
	if priority == "" {
		priority = model.PriorityNormal
	}
	msg := model.Message{
		SenderID:    s.userID,
		RecipientID: recipientID,
		Subject:     subject,
		Content:     content,
		MessageType: "direct",
		Priority:    priority,
		Attachments: attachments,
	}
	if _, err := s.backend.SendMessage(ctx, msg); err != nil {
		s.notifier.Error("Message not sent", err.Error())
	}
}

// MarkRead flips a message's read flag; the flag never reverts within this
// session regardless of later events.
func (s *Synchronizer) MarkRead(ctx context.Context, id string) {
	if err := s.backend.MarkRead(ctx, id); err != nil {
		s.notifier.Error("Failed to mark as read", err.Error())
	}
}

// MarkArchived archives a message.
func (s *Synchronizer) MarkArchived(ctx context.Context, id string) {
	if err := s.backend.MarkArchived(ctx, id); err != nil {
		s.notifier.Error("Failed to archive", err.Error())
	}
}

// SetTyping upserts the caller's typing flag toward a recipient (nil means
// broadcast). Re-sending the state last sent for that recipient is a no-op,
// so keystroke-driven callers do not hammer the backend.
func (s *Synchronizer) SetTyping(ctx context.Context, isTyping bool, recipientID *string) {
	key := ""
	if recipientID != nil {
		key = *recipientID
	}

	s.mu.Lock()
	if s.lastTyping[key] == isTyping {
		s.mu.Unlock()
		return
	}
	s.mu.Unlock()

	ti := model.TypingIndicator{
		UserID:      s.userID,
		RecipientID: recipientID,
		IsTyping:    isTyping,
		LastUpdated: time.Now(),
	}
	if err := s.backend.UpsertTyping(ctx, ti); err != nil {
		log.Printf("set typing: %v", err)
		return
	}

	s.mu.Lock()
	s.lastTyping[key] = isTyping
	s.mu.Unlock()
}

// AddReaction attaches a reaction from the current user. Safe to call
// rapidly: a duplicate rejected by the backend surfaces as a toast only.
func (s *Synchronizer) AddReaction(ctx context.Context, messageID, reactionType string) {
	r := model.MessageReaction{
		MessageID:    messageID,
		UserID:       s.userID,
		ReactionType: reactionType,
	}
	if err := s.backend.AddReaction(ctx, r); err != nil {
		s.notifier.Error("Failed to add reaction", err.Error())
	}
}

// RemoveReaction deletes a reaction by id.
func (s *Synchronizer) RemoveReaction(ctx context.Context, id string) {
	if err := s.backend.RemoveReaction(ctx, id); err != nil {
		s.notifier.Error("Failed to remove reaction", err.Error())
	}
}

// UpdatePresence upserts the caller's presence row. Callers own any
// periodic refresh; this fires once per call.
func (s *Synchronizer) UpdatePresence(ctx context.Context, status, customStatus string) {
	p := model.UserPresence{
		UserID:       s.userID,
		Status:       status,
		CustomStatus: customStatus,
		LastSeen:     time.Now(),
	}
	if err := s.backend.UpsertPresence(ctx, p); err != nil {
		log.Printf("update presence: %v", err)
	}
}
