package router

import (
	"context"
	"encoding/json"
	"log"
	"sync"
	"time"

	"crm-service/model"
	"crm-service/realtime"
	"crm-service/socketio"
	"crm-service/utils"

	"github.com/zishang520/socket.io/v2/socket"
)

type InitConnection struct {
	Messages  []model.Message         `json:"messages"`
	Reactions []model.MessageReaction `json:"reactions"`
	Typing    []model.TypingIndicator `json:"typing"`
	Presence  []model.UserPresence    `json:"presence"`
}

func clientID(client *socket.Socket) (string, bool) {
	if client.Data() == nil {
		return "", false
	}
	return client.Data().(*utils.TokenMetadata).Id, true
}

func Socket(server *socket.Server, backend *realtime.GormBackend) {
	server.On("connection", func(clients ...interface{}) {
		client := clients[0].(*socket.Socket)

		// init hands a connecting client the full snapshot of all four
		// collections; live updates arrive through the stream feed.
		client.On("init", func(args ...interface{}) {
			ctx := context.Background()

			snapshot := InitConnection{
				Messages:  []model.Message{},
				Reactions: []model.MessageReaction{},
				Typing:    []model.TypingIndicator{},
				Presence:  []model.UserPresence{},
			}
			if id, ok := clientID(client); ok {
				if rows, err := backend.FetchMessagesFor(ctx, id); err == nil {
					snapshot.Messages = rows
				}
				if rows, err := backend.FetchReactions(ctx); err == nil {
					snapshot.Reactions = rows
				}
				if rows, err := backend.FetchTyping(ctx); err == nil {
					snapshot.Typing = rows
				}
				if rows, err := backend.FetchPresence(ctx); err == nil {
					snapshot.Presence = rows
				}
			}

			client.Emit("init", snapshot)
		})

		client.On("message_send", func(args ...interface{}) {
			id, ok := clientID(client)
			if !ok || len(args) < 2 {
				return
			}
			subject, _ := args[0].(string)
			content, _ := args[1].(string)

			var recipient *string
			if len(args) > 2 {
				if to, ok := args[2].(string); ok && to != "" {
					recipient = &to
				}
			}
			priority := model.PriorityNormal
			if len(args) > 3 {
				if p, ok := args[3].(string); ok && p != "" {
					priority = p
				}
			}

			msg, err := backend.SendMessage(context.Background(), model.Message{
				SenderID:    id,
				RecipientID: recipient,
				Subject:     subject,
				Content:     content,
				MessageType: "direct",
				Priority:    priority,
			})
			if err != nil {
				socketio.Toast(id, "destructive", "Message failed", "Your message was not delivered.")
				return
			}
			client.Emit("message_send", msg)
		})

		client.On("message_read", func(args ...interface{}) {
			id, ok := clientID(client)
			if !ok || len(args) < 1 {
				return
			}
			messageID, _ := args[0].(string)
			if err := backend.MarkRead(context.Background(), messageID); err != nil {
				socketio.Toast(id, "destructive", "Update failed", "Could not mark the message as read.")
			}
		})

		client.On("message_archive", func(args ...interface{}) {
			id, ok := clientID(client)
			if !ok || len(args) < 1 {
				return
			}
			messageID, _ := args[0].(string)
			if err := backend.MarkArchived(context.Background(), messageID); err != nil {
				socketio.Toast(id, "destructive", "Update failed", "Could not archive the message.")
			}
		})

		client.On("typing", func(args ...interface{}) {
			id, ok := clientID(client)
			if !ok || len(args) < 1 {
				return
			}
			isTyping, _ := args[0].(bool)

			var recipient *string
			if len(args) > 1 {
				if to, ok := args[1].(string); ok && to != "" {
					recipient = &to
				}
			}

			backend.UpsertTyping(context.Background(), model.TypingIndicator{
				UserID:      id,
				RecipientID: recipient,
				IsTyping:    isTyping,
			})
		})

		client.On("reaction_add", func(args ...interface{}) {
			id, ok := clientID(client)
			if !ok || len(args) < 2 {
				return
			}
			messageID, _ := args[0].(string)
			reactionType, _ := args[1].(string)

			err := backend.AddReaction(context.Background(), model.MessageReaction{
				MessageID:    messageID,
				UserID:       id,
				ReactionType: reactionType,
			})
			if err != nil {
				// Duplicate reactions fail on the unique index.
				socketio.Toast(id, "destructive", "Reaction failed", "You already reacted with that.")
			}
		})

		client.On("reaction_remove", func(args ...interface{}) {
			id, ok := clientID(client)
			if !ok || len(args) < 1 {
				return
			}
			reactionID, _ := args[0].(string)
			if err := backend.RemoveReaction(context.Background(), reactionID); err != nil {
				socketio.Toast(id, "destructive", "Reaction failed", "Could not remove the reaction.")
			}
		})

		client.On("presence", func(args ...interface{}) {
			id, ok := clientID(client)
			if !ok || len(args) < 1 {
				return
			}
			status, _ := args[0].(string)
			customStatus := ""
			if len(args) > 1 {
				customStatus, _ = args[1].(string)
			}

			backend.UpsertPresence(context.Background(), model.UserPresence{
				UserID:       id,
				Status:       status,
				CustomStatus: customStatus,
			})
		})

		if id, ok := clientID(client); ok {
			backend.UpsertPresence(context.Background(), model.UserPresence{
				UserID: id,
				Status: model.PresenceOnline,
			})

			client.On("disconnect", func(args ...interface{}) {
				backend.UpsertPresence(context.Background(), model.UserPresence{
					UserID: id,
					Status: model.PresenceOffline,
				})
			})
		}
	})
}

const feedRetryDelay = time.Second

type streamSource interface {
	Subscribe(ctx context.Context, stream realtime.Stream) (<-chan realtime.Event, error)
}

// Feed forwards every change event on the four realtime streams to the
// connected clients. A closed subscription is reopened until ctx ends;
// direct messages go only to the sender's and recipient's rooms, the
// rest fans out to everyone. Blocks until ctx is done.
func Feed(ctx context.Context, src streamSource, broadcast func(event string, message any), direct func(id string, event string, message any)) {
	var wg sync.WaitGroup
	for _, stream := range realtime.Streams {
		wg.Add(1)
		go func(stream realtime.Stream) {
			defer wg.Done()
			for {
				events, err := src.Subscribe(ctx, stream)
				if err != nil {
					log.Printf("socket feed: subscribe %s: %v", stream, err)
				} else {
					for ev := range events {
						forward(stream, ev, broadcast, direct)
					}
				}
				select {
				case <-ctx.Done():
					return
				case <-time.After(feedRetryDelay):
				}
			}
		}(stream)
	}
	wg.Wait()
}

func forward(stream realtime.Stream, ev realtime.Event, broadcast func(event string, message any), direct func(id string, event string, message any)) {
	name := "realtime:" + string(stream)
	if stream != realtime.StreamMessages {
		broadcast(name, ev)
		return
	}

	var row model.Message
	if err := json.Unmarshal(ev.Row, &row); err != nil {
		return
	}
	if row.RecipientID == nil {
		broadcast(name, ev)
		return
	}
	direct(row.SenderID, name, ev)
	direct(*row.RecipientID, name, ev)
}
