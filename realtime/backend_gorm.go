package realtime

import (
	"context"
	"encoding/json"
	"time"

	"crm-service/model"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// channelPrefix namespaces the change-feed pub/sub channels.
const channelPrefix = "realtime:"

// GormBackend stores rows in Postgres and fans change events out over a
// Redis pub/sub channel per stream, so every connected synchronizer mirrors
// the same feed.
type GormBackend struct {
	db  *gorm.DB
	rdb *redis.Client
}

func NewGormBackend(db *gorm.DB, rdb *redis.Client) *GormBackend {
	return &GormBackend{db: db, rdb: rdb}
}

func (b *GormBackend) publish(ctx context.Context, stream Stream, t EventType, row interface{}) {
	raw, err := json.Marshal(row)
	if err != nil {
		return
	}
	payload, err := json.Marshal(Event{Stream: stream, Type: t, Row: raw})
	if err != nil {
		return
	}
	b.rdb.Publish(ctx, channelPrefix+string(stream), payload)
}

func (b *GormBackend) FetchMessages(ctx context.Context) ([]model.Message, error) {
	var rows []model.Message
	err := b.db.WithContext(ctx).Order("created_at desc").Find(&rows).Error
	return rows, err
}

// FetchMessagesFor scopes the snapshot to one principal: own, addressed
// and broadcast messages only.
func (b *GormBackend) FetchMessagesFor(ctx context.Context, userID string) ([]model.Message, error) {
	var rows []model.Message
	err := b.db.WithContext(ctx).
		Where("recipient_id = ? OR recipient_id IS NULL OR sender_id = ?", userID, userID).
		Order("created_at desc").
		Find(&rows).Error
	return rows, err
}

func (b *GormBackend) FetchReactions(ctx context.Context) ([]model.MessageReaction, error) {
	var rows []model.MessageReaction
	err := b.db.WithContext(ctx).Find(&rows).Error
	return rows, err
}

func (b *GormBackend) FetchTyping(ctx context.Context) ([]model.TypingIndicator, error) {
	var rows []model.TypingIndicator
	err := b.db.WithContext(ctx).Find(&rows).Error
	return rows, err
}

func (b *GormBackend) FetchPresence(ctx context.Context) ([]model.UserPresence, error) {
	var rows []model.UserPresence
	err := b.db.WithContext(ctx).Find(&rows).Error
	return rows, err
}

// subscribeHealthInterval paces the liveness pings on a subscription.
// go-redis resubscribes dropped pub/sub connections internally without
// closing the message channel, so events published during the gap would
// vanish unnoticed; a failed ping closes the channel instead, and the
// consumer reseeds when it resubscribes.
var subscribeHealthInterval = 30 * time.Second

// Subscribe opens one pub/sub subscription for a stream. The returned
// channel closes when the transport is lost or the context is cancelled.
func (b *GormBackend) Subscribe(ctx context.Context, stream Stream) (<-chan Event, error) {
	sub := b.rdb.Subscribe(ctx, channelPrefix+string(stream))
	if _, err := sub.Receive(ctx); err != nil {
		sub.Close()
		return nil, err
	}

	out := make(chan Event)
	go func() {
		defer close(out)
		defer sub.Close()
		health := time.NewTicker(subscribeHealthInterval)
		defer health.Stop()
		msgs := sub.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case <-health.C:
				if err := sub.Ping(ctx); err != nil {
					return
				}
			case msg, ok := <-msgs:
				if !ok {
					return
				}
				var e Event
				if err := json.Unmarshal([]byte(msg.Payload), &e); err != nil {
					continue
				}
				select {
				case out <- e:
				case <-ctx.Done():
					return
				}
			}
		}
	}()
	return out, nil
}

func (b *GormBackend) SendMessage(ctx context.Context, msg model.Message) (model.Message, error) {
	if err := b.db.WithContext(ctx).Create(&msg).Error; err != nil {
		return model.Message{}, err
	}
	b.publish(ctx, StreamMessages, EventInsert, msg)
	return msg, nil
}

func (b *GormBackend) MarkRead(ctx context.Context, id string) error {
	return b.setMessageFlag(ctx, id, "is_read")
}

func (b *GormBackend) MarkArchived(ctx context.Context, id string) error {
	return b.setMessageFlag(ctx, id, "is_archived")
}

func (b *GormBackend) setMessageFlag(ctx context.Context, id, column string) error {
	var msg model.Message
	if err := b.db.WithContext(ctx).First(&msg, "id = ?", id).Error; err != nil {
		return err
	}
	if err := b.db.WithContext(ctx).Model(&msg).Update(column, true).Error; err != nil {
		return err
	}
	b.publish(ctx, StreamMessages, EventUpdate, msg)
	return nil
}

// SetVideoRoom attaches a provisioned room to a message and publishes
// the update.
func (b *GormBackend) SetVideoRoom(ctx context.Context, id string, room string) (model.Message, error) {
	var msg model.Message
	if err := b.db.WithContext(ctx).First(&msg, "id = ?", id).Error; err != nil {
		return model.Message{}, err
	}
	msg.VideoRoomID = &room
	err := b.db.WithContext(ctx).Model(&msg).Update("video_room_id", room).Error
	if err != nil {
		return model.Message{}, err
	}
	b.publish(ctx, StreamMessages, EventUpdate, msg)
	return msg, nil
}

func (b *GormBackend) UpsertTyping(ctx context.Context, ti model.TypingIndicator) error {
	ti.LastUpdated = time.Now()
	err := b.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}, {Name: "recipient_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"is_typing", "last_updated", "updated_at"}),
	}).Create(&ti).Error
	if err != nil {
		return err
	}
	b.publish(ctx, StreamTyping, EventUpdate, ti)
	return nil
}

func (b *GormBackend) AddReaction(ctx context.Context, r model.MessageReaction) error {
	if err := b.db.WithContext(ctx).Create(&r).Error; err != nil {
		return err
	}
	b.publish(ctx, StreamReactions, EventInsert, r)
	return nil
}

func (b *GormBackend) RemoveReaction(ctx context.Context, id string) error {
	var r model.MessageReaction
	if err := b.db.WithContext(ctx).First(&r, "id = ?", id).Error; err != nil {
		return err
	}
	if err := b.db.WithContext(ctx).Delete(&r).Error; err != nil {
		return err
	}
	b.publish(ctx, StreamReactions, EventDelete, r)
	return nil
}

func (b *GormBackend) UpsertPresence(ctx context.Context, p model.UserPresence) error {
	p.LastSeen = time.Now()
	err := b.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"status", "custom_status", "last_seen", "updated_at"}),
	}).Create(&p).Error
	if err != nil {
		return err
	}
	b.publish(ctx, StreamPresence, EventUpdate, p)
	return nil
}

// typingCleanupInterval drives the periodic sweep of abandoned typing
// rows, for clients that dropped without sending a stop.
const typingCleanupInterval = 30 * time.Second

// RunTypingCleanup deletes typing rows that went stale and publishes a
// delete event for each, so mirrors converge even when the writer is gone.
// Blocks until ctx is done.
func (b *GormBackend) RunTypingCleanup(ctx context.Context) {
	ticker := time.NewTicker(typingCleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			var stale []model.TypingIndicator
			cutoff := time.Now().Add(-TypingTTL)
			if err := b.db.WithContext(ctx).Where("last_updated < ?", cutoff).Find(&stale).Error; err != nil {
				continue
			}
			for _, row := range stale {
				if err := b.db.WithContext(ctx).Delete(&row).Error; err != nil {
					continue
				}
				b.publish(ctx, StreamTyping, EventDelete, row)
			}
		}
	}
}
