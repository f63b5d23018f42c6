package model

import (
	"sync"
	"testing"

	"gorm.io/gorm/schema"
)

func parseSchema(t *testing.T, value interface{}) *schema.Schema {
	t.Helper()
	s, err := schema.Parse(value, &sync.Map{}, schema.NamingStrategy{})
	if err != nil {
		t.Fatalf("parse schema: %v", err)
	}
	return s
}

// Broadcast typing rows carry a null recipient. Without nulls-not-distinct
// the pair index never matches them and every toggle stacks a new row.
func TestTypingPairIndexMatchesNullRecipients(t *testing.T) {
	s := parseSchema(t, &TypingIndicator{})

	idx, ok := s.ParseIndexes()["idx_typing_pair"]
	if !ok {
		t.Fatal("idx_typing_pair is missing")
	}
	if idx.Class != "UNIQUE" {
		t.Fatalf("index class = %q, want UNIQUE", idx.Class)
	}
	if len(idx.Fields) != 2 {
		t.Fatalf("index spans %d fields, want user_id and recipient_id", len(idx.Fields))
	}
	if idx.Option != "NULLS NOT DISTINCT" {
		t.Fatalf("index option = %q, want NULLS NOT DISTINCT", idx.Option)
	}
}

func TestReactionIndexSpansMessageUserAndType(t *testing.T) {
	s := parseSchema(t, &MessageReaction{})

	idx, ok := s.ParseIndexes()["idx_reaction_once"]
	if !ok {
		t.Fatal("idx_reaction_once is missing")
	}
	if idx.Class != "UNIQUE" {
		t.Fatalf("index class = %q, want UNIQUE", idx.Class)
	}
	if len(idx.Fields) != 3 {
		t.Fatalf("index spans %d fields, want message, user and reaction type", len(idx.Fields))
	}
}
