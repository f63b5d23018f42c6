package controller

import (
	"errors"
	"strings"

	"crm-service/database"
	"crm-service/model"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type MessageInput struct {
	RecipientID *string           `json:"recipient_id"`
	Subject     string            `json:"subject"`
	Content     string            `json:"content"`
	MessageType string            `json:"message_type"`
	Priority    string            `json:"priority"`
	Attachments []model.MediaFile `json:"attachments"`
}

type ReactionInput struct {
	MessageID    string `json:"message_id"`
	ReactionType string `json:"reaction_type"`
}

type PresenceInput struct {
	Status       string `json:"status"`
	CustomStatus string `json:"custom_status"`
}

func priorityValid(p string) bool {
	switch p {
	case model.PriorityLow, model.PriorityNormal, model.PriorityMedium, model.PriorityHigh:
		return true
	}
	return false
}

func reactionValid(r string) bool {
	switch r {
	case model.ReactionThumbsUp, model.ReactionHeart, model.ReactionSmile:
		return true
	}
	return false
}

// MessagesList returns the caller's inbox, newest first. Broadcasts
// (messages without a recipient) are always included; archived rows
// only with ?archived=true.
func MessagesList(c *fiber.Ctx) error {
	id := callerID(c)

	query := database.Postgres.
		Where("recipient_id = ? OR recipient_id IS NULL OR sender_id = ?", id, id).
		Order("created_at desc")
	if c.Query("archived") != "true" {
		query = query.Where("is_archived = ?", false)
	}

	var messages []model.Message
	if err := query.Find(&messages).Error; err != nil {
		return internalError(c)
	}
	return success(c, messages)
}

func MessagesSend(c *fiber.Ctx) error {
	input := new(MessageInput)
	if err := c.BodyParser(&input); err != nil {
		return badRequest(c, "Review your input")
	}
	if strings.TrimSpace(input.Subject) == "" || strings.TrimSpace(input.Content) == "" {
		return badRequest(c, "Subject and content are required")
	}
	if input.Priority == "" {
		input.Priority = model.PriorityNormal
	}
	if !priorityValid(input.Priority) {
		return badRequest(c, "Unknown priority")
	}
	if input.RecipientID != nil {
		if _, err := uuid.Parse(*input.RecipientID); err != nil {
			return badRequest(c, "Malformed recipient id")
		}
	}
	if input.MessageType == "" {
		input.MessageType = "direct"
	}

	msg, err := Realtime.SendMessage(c.Context(), model.Message{
		SenderID:    callerID(c),
		RecipientID: input.RecipientID,
		Subject:     input.Subject,
		Content:     input.Content,
		MessageType: input.MessageType,
		Priority:    input.Priority,
		Attachments: input.Attachments,
	})
	if err != nil {
		return internalError(c)
	}

	if input.RecipientID != nil {
		var recipient model.User
		if database.Postgres.First(&recipient, "id = ?", *input.RecipientID).Error == nil {
			var sender model.User
			database.Postgres.First(&sender, "id = ?", msg.SenderID)
			QueueMessageAlert(recipient.Email, sender.Username, msg.Subject, msg.Priority)
		}
	}

	return success(c, msg)
}

func MessagesMarkRead(c *fiber.Ctx) error {
	id := c.AllParams()["id"]
	if _, err := uuid.Parse(id); err != nil {
		return badRequest(c, "Malformed message id")
	}
	if err := Realtime.MarkRead(c.Context(), id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return badRequest(c, "Message not found")
		}
		return internalError(c)
	}
	return success(c, nil)
}

func MessagesMarkArchived(c *fiber.Ctx) error {
	id := c.AllParams()["id"]
	if _, err := uuid.Parse(id); err != nil {
		return badRequest(c, "Malformed message id")
	}
	if err := Realtime.MarkArchived(c.Context(), id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return badRequest(c, "Message not found")
		}
		return internalError(c)
	}
	return success(c, nil)
}

// MessagesVideoRoom provisions a call room and attaches it to the
// message; participants pick the room up through the message update.
func MessagesVideoRoom(c *fiber.Ctx) error {
	id := c.AllParams()["id"]
	if _, err := uuid.Parse(id); err != nil {
		return badRequest(c, "Malformed message id")
	}

	room, err := Video.CreateRoom(c.Context())
	if err != nil {
		return internalError(c)
	}

	msg, err := Realtime.SetVideoRoom(c.Context(), id, room)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return badRequest(c, "Message not found")
		}
		return internalError(c)
	}
	return success(c, msg)
}

func ReactionsAdd(c *fiber.Ctx) error {
	input := new(ReactionInput)
	if err := c.BodyParser(&input); err != nil {
		return badRequest(c, "Review your input")
	}
	if !reactionValid(input.ReactionType) {
		return badRequest(c, "Unknown reaction type")
	}
	if _, err := uuid.Parse(input.MessageID); err != nil {
		return badRequest(c, "Malformed message id")
	}

	err := Realtime.AddReaction(c.Context(), model.MessageReaction{
		MessageID:    input.MessageID,
		UserID:       callerID(c),
		ReactionType: input.ReactionType,
	})
	if err != nil {
		// Uniqueness violation on repeat reactions is expected.
		return badRequest(c, "Reaction already exists")
	}
	return success(c, nil)
}

func ReactionsRemove(c *fiber.Ctx) error {
	id := c.AllParams()["id"]
	if _, err := uuid.Parse(id); err != nil {
		return badRequest(c, "Malformed reaction id")
	}

	var reaction model.MessageReaction
	if err := database.Postgres.First(&reaction, "id = ?", id).Error; err != nil {
		return badRequest(c, "Reaction not found")
	}
	if reaction.UserID != callerID(c) {
		return badRequest(c, "Reaction belongs to another user")
	}

	if err := Realtime.RemoveReaction(c.Context(), id); err != nil {
		return internalError(c)
	}
	return success(c, nil)
}

func PresenceUpdate(c *fiber.Ctx) error {
	input := new(PresenceInput)
	if err := c.BodyParser(&input); err != nil {
		return badRequest(c, "Review your input")
	}
	if input.Status != model.PresenceOnline && input.Status != model.PresenceOffline {
		return badRequest(c, "Unknown presence status")
	}

	err := Realtime.UpsertPresence(c.Context(), model.UserPresence{
		UserID:       callerID(c),
		Status:       input.Status,
		CustomStatus: input.CustomStatus,
	})
	if err != nil {
		return internalError(c)
	}
	return success(c, nil)
}
