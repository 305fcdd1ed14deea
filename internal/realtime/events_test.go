package realtime

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseEvent(t *testing.T) {
	cases := []struct {
		name string
		raw  string
		want Event
	}{
		{
			name: "speech started",
			raw:  `{"type":"input_audio_buffer.speech_started"}`,
			want: Event{Kind: KindSpeechStarted, Type: "input_audio_buffer.speech_started"},
		},
		{
			name: "speech stopped",
			raw:  `{"type":"input_audio_buffer.speech_stopped"}`,
			want: Event{Kind: KindSpeechStopped, Type: "input_audio_buffer.speech_stopped"},
		},
		{
			name: "audio delta",
			raw:  `{"type":"response.output_audio.delta","delta":"UklGRg=="}`,
			want: Event{Kind: KindAudioDelta, Type: "response.output_audio.delta", Delta: "UklGRg=="},
		},
		{
			name: "assistant transcript done",
			raw:  `{"type":"response.output_audio_transcript.done","transcript":"hello there"}`,
			want: Event{Kind: KindAssistantTranscriptDone, Type: "response.output_audio_transcript.done", Transcript: "hello there"},
		},
		{
			name: "user transcript completed",
			raw:  `{"type":"conversation.item.input_audio_transcription.completed","transcript":"how are you"}`,
			want: Event{Kind: KindUserTranscriptCompleted, Type: "conversation.item.input_audio_transcription.completed", Transcript: "how are you"},
		},
		{
			name: "engine error",
			raw:  `{"type":"error","error":{"message":"rate limited"}}`,
			want: Event{Kind: KindError, Type: "error", ErrMessage: "rate limited"},
		},
		{
			name: "unknown type",
			raw:  `{"type":"session.updated"}`,
			want: Event{Kind: KindUnknown, Type: "session.updated"},
		},
		{
			name: "malformed json",
			raw:  `{"type":`,
			want: Event{Kind: KindUnknown},
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			require.Equal(t, tc.want, ParseEvent([]byte(tc.raw)))
		})
	}
}
