package realtime

import "encoding/json"

// EventType mirrors the change-feed event kinds.
type EventType string

const (
	EventInsert EventType = "INSERT"
	EventUpdate EventType = "UPDATE"
	EventDelete EventType = "DELETE"
)

// Stream identifies one of the four mirrored tables.
type Stream string

const (
	StreamMessages  Stream = "messages"
	StreamReactions Stream = "message_reactions"
	StreamTyping    Stream = "typing_indicators"
	StreamPresence  Stream = "user_presence"
)

// Streams in subscription order.
var Streams = []Stream{StreamMessages, StreamReactions, StreamTyping, StreamPresence}

// Event is one change pushed for a stream. Row carries the full row for
// inserts and updates; for deletes it carries at least the matching keys.
type Event struct {
	Stream Stream          `json:"stream"`
	Type   EventType       `json:"type"`
	Row    json.RawMessage `json:"row"`
}
