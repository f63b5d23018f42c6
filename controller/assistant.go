package controller

import (
	"context"
	"strings"

	"crm-service/assistant"

	"github.com/gofiber/fiber/v2"
)

type AssistantChatInput struct {
	Messages []assistant.ChatMessage `json:"messages"`
}

type AssistantMemoryInput struct {
	Fact string `json:"fact"`
}

const assistantPrompt = "You are a CRM assistant. Answer briefly and only " +
	"from the context you are given."

// AssistantChat proxies a conversation to the completion API. Relevant
// memory facts for the caller are prepended as system context, and the
// last user message is stored back as a new fact.
func AssistantChat(c *fiber.Ctx) error {
	input := new(AssistantChatInput)
	if err := c.BodyParser(&input); err != nil {
		return badRequest(c, "Review your input")
	}
	if len(input.Messages) == 0 {
		return badRequest(c, "Conversation is empty")
	}

	id := callerID(c)
	last := input.Messages[len(input.Messages)-1]

	prompt := assistantPrompt
	if facts, err := Memory.Recall(c.Context(), id, last.Content); err == nil && len(facts) > 0 {
		prompt += "\n\nKnown about this user:\n- " + strings.Join(facts, "\n- ")
	}

	conversation := append(
		[]assistant.ChatMessage{{Role: "system", Content: prompt}},
		input.Messages...,
	)

	reply, err := AI.Chat(c.Context(), conversation)
	if err != nil {
		return internalError(c)
	}

	// The request context dies with the handler, store in the background.
	if last.Role == "user" {
		go Memory.Remember(context.Background(), id, last.Content)
	}

	return success(c, fiber.Map{"reply": reply})
}

func AssistantRemember(c *fiber.Ctx) error {
	input := new(AssistantMemoryInput)
	if err := c.BodyParser(&input); err != nil {
		return badRequest(c, "Review your input")
	}
	if strings.TrimSpace(input.Fact) == "" {
		return badRequest(c, "Fact is required")
	}
	if err := Memory.Remember(c.Context(), callerID(c), input.Fact); err != nil {
		return internalError(c)
	}
	return success(c, nil)
}

func AssistantForget(c *fiber.Ctx) error {
	if err := Memory.Forget(c.Context(), callerID(c)); err != nil {
		return internalError(c)
	}
	return success(c, nil)
}
