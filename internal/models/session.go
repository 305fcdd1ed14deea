package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type VoiceSession struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	SessionID string             `bson:"session_id" json:"session_id"` // uuid v4
	UserID    string             `bson:"user_id" json:"user_id"`

	Mode     string          `bson:"mode" json:"mode"`     // voice|text
	Status   string          `bson:"status" json:"status"` // active|ended
	Voice    string          `bson:"voice,omitempty" json:"voice,omitempty"`
	Metadata SessionMetadata `bson:"metadata,omitempty" json:"metadata,omitempty"`

	CreatedAt time.Time  `bson:"created_at" json:"created_at"`
	EndedAt   *time.Time `bson:"ended_at,omitempty" json:"ended_at,omitempty"`

	DurationSeconds int64 `bson:"duration_seconds" json:"duration_seconds"`
	TurnCount       int64 `bson:"turn_count" json:"turn_count"`
}

type SessionMetadata struct {
	ClientName   string `bson:"client_name,omitempty" json:"client_name,omitempty"`
	Instructions string `bson:"instructions,omitempty" json:"instructions,omitempty"`
	Language     string `bson:"language,omitempty" json:"language,omitempty"`
}
