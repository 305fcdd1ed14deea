package realtime

import "encoding/json"

// EventKind is the closed set of inbound engine events the backend reacts
// to. Decoding the wire tag once into a variant keeps the dispatch in the
// session bridge exhaustive.
type EventKind int

const (
	KindUnknown EventKind = iota
	KindSpeechStarted
	KindSpeechStopped
	KindResponseStarted
	KindResponseDone
	KindResponseError
	KindAudioDelta
	KindAssistantTranscriptDelta
	KindAssistantTranscriptDone
	KindUserTranscriptDelta
	KindUserTranscriptCompleted
	KindError
)

// Event is one decoded inbound engine event. Delta carries base64 audio for
// KindAudioDelta and text for transcript deltas.
type Event struct {
	Kind       EventKind
	Type       string // raw wire tag, kept for logging unknown kinds
	Delta      string
	Transcript string
	ErrMessage string
}

type wireEvent struct {
	Type       string `json:"type"`
	Delta      string `json:"delta,omitempty"`
	Transcript string `json:"transcript,omitempty"`
	Error      *struct {
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

var kindByType = map[string]EventKind{
	"input_audio_buffer.speech_started":                     KindSpeechStarted,
	"input_audio_buffer.speech_stopped":                     KindSpeechStopped,
	"response.started":                                      KindResponseStarted,
	"response.done":                                         KindResponseDone,
	"response.error":                                        KindResponseError,
	"response.output_audio.delta":                           KindAudioDelta,
	"response.output_audio_transcript.delta":                KindAssistantTranscriptDelta,
	"response.output_audio_transcript.done":                 KindAssistantTranscriptDone,
	"conversation.item.input_audio_transcription.delta":     KindUserTranscriptDelta,
	"conversation.item.input_audio_transcription.completed": KindUserTranscriptCompleted,
	"error":                                                 KindError,
}

// ParseEvent decodes one inbound frame. Unknown or malformed frames come
// back as KindUnknown; callers log and skip them, they are never fatal.
func ParseEvent(data []byte) Event {
	var w wireEvent
	if err := json.Unmarshal(data, &w); err != nil {
		return Event{Kind: KindUnknown}
	}

	ev := Event{
		Kind:       kindByType[w.Type],
		Type:       w.Type,
		Delta:      w.Delta,
		Transcript: w.Transcript,
	}
	if w.Error != nil {
		ev.ErrMessage = w.Error.Message
	}
	return ev
}
