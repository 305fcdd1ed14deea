package models

import "time"

// ConversationTurn is one completed user/assistant exchange. Turns are
// append-only: once recorded they are never mutated or removed.
type ConversationTurn struct {
	UserText      string    `json:"user_text"`
	AssistantText string    `json:"assistant_text"`
	Timestamp     time.Time `json:"timestamp"`
}
