package realtime

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
)

const writeTimeout = 10 * time.Second

// Config carries the engine connection settings; see config.Realtime for
// the env mapping.
type Config struct {
	URL                string
	APIKey             string
	Model              string
	Voice              string
	Instructions       string
	TranscriptionModel string
}

// Client is a thin WebSocket client for an OpenAI-style realtime voice
// engine. Writes are serialized; ReadEvent is meant to be driven by a
// single pump goroutine.
type Client struct {
	conn *websocket.Conn
	mu   sync.Mutex
	log  *logrus.Logger
}

// Dial connects to the engine and configures the session: PCM16 mono 24 kHz
// both ways, server-side turn detection, input transcription.
func Dial(ctx context.Context, cfg Config, log *logrus.Logger) (*Client, error) {
	if log == nil {
		log = logrus.New()
	}

	header := http.Header{}
	header.Set("Authorization", "Bearer "+cfg.APIKey)
	header.Set("OpenAI-Beta", "realtime=v1")

	url := cfg.URL
	if cfg.Model != "" {
		url += "?model=" + cfg.Model
	}

	conn, resp, err := websocket.DefaultDialer.DialContext(ctx, url, header)
	if err != nil {
		return nil, err
	}
	if resp != nil && resp.Body != nil {
		_ = resp.Body.Close()
	}

	c := &Client{conn: conn, log: log}
	if err := c.updateSession(cfg); err != nil {
		_ = conn.Close()
		return nil, err
	}
	return c, nil
}

func (c *Client) writeJSON(v any) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	_ = c.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
	return c.conn.WriteJSON(v)
}

func (c *Client) updateSession(cfg Config) error {
	return c.writeJSON(map[string]any{
		"type": "session.update",
		"session": map[string]any{
			"type":  "realtime",
			"model": cfg.Model,
			"audio": map[string]any{
				"input": map[string]any{
					"format": map[string]any{
						"type": "audio/pcm",
						"rate": 24000,
					},
					"transcription": map[string]any{
						"model": cfg.TranscriptionModel,
					},
					"turn_detection": map[string]any{"type": "semantic_vad"},
				},
				"output": map[string]any{
					"format": map[string]any{
						"type": "audio/pcm",
						"rate": 24000,
					},
					"voice": cfg.Voice,
				},
			},
			"instructions": cfg.Instructions,
		},
	})
}

// AppendAudio forwards one base64 PCM16 chunk to the engine's input buffer.
func (c *Client) AppendAudio(b64 string) error {
	return c.writeJSON(map[string]any{
		"type":  "input_audio_buffer.append",
		"audio": b64,
	})
}

// CancelResponse interrupts an in-flight spoken response.
func (c *Client) CancelResponse() error {
	return c.writeJSON(map[string]any{"type": "response.cancel"})
}

// CreateSystemItem injects an out-of-band conversational item. It adds
// context for the next turn without triggering a spoken response, which is
// what makes it a safe side channel for analysis results.
func (c *Client) CreateSystemItem(text string) error {
	return c.writeJSON(map[string]any{
		"type": "conversation.item.create",
		"item": map[string]any{
			"type": "message",
			"role": "system",
			"content": []map[string]any{
				{"type": "input_text", "text": text},
			},
		},
	})
}

// ReadEvent blocks for the next inbound engine event.
func (c *Client) ReadEvent() (Event, error) {
	_, data, err := c.conn.ReadMessage()
	if err != nil {
		return Event{}, err
	}
	ev := ParseEvent(data)
	if ev.Kind == KindUnknown {
		c.log.WithField("event_type", ev.Type).Debug("ignoring unknown engine event")
	}
	return ev, nil
}

func (c *Client) Close() error {
	return c.conn.Close()
}
