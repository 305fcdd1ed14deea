package config

import (
	"errors"
	"os"

	"github.com/PeriniM/realtime-api-langgraph/internal/realtime"
)

const defaultInstructions = "Be concise and friendly. Do not say a lot of things, " +
	"give some time to the user to answer. While you are talking there are " +
	"background agents analyzing the conversation; their findings may appear " +
	"as system notes."

// Realtime builds the voice engine connection settings from the env.
func Realtime() (realtime.Config, error) {
	key := os.Getenv("OPENAI_API_KEY")
	if key == "" {
		return realtime.Config{}, errors.New("OPENAI_API_KEY environment variable is not set")
	}

	cfg := realtime.Config{
		URL:                getenv("REALTIME_URL", "wss://api.openai.com/v1/realtime"),
		APIKey:             key,
		Model:              getenv("REALTIME_MODEL", "gpt-realtime"),
		Voice:              getenv("REALTIME_VOICE", "alloy"),
		Instructions:       getenv("REALTIME_INSTRUCTIONS", defaultInstructions),
		TranscriptionModel: getenv("REALTIME_TRANSCRIBE_MODEL", "gpt-4o-mini-transcribe"),
	}
	return cfg, nil
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
