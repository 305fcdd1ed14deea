package audio

import (
	"encoding/base64"
	"strings"
	"time"
)

// PCM16 little-endian, mono, 24 kHz in ~20 ms frames. Input and output
// formats are kept in sync with the voice engine session config.
const (
	SampleRate    = 24000
	Channels      = 1
	ChunkDuration = 20 * time.Millisecond

	FramesPerChunk = int(SampleRate * ChunkDuration / time.Second)
	BytesPerChunk  = FramesPerChunk * Channels * 2 // int16 samples
)

// Encode converts a raw PCM16 chunk to the base64 form the engine expects.
func Encode(pcm []byte) string {
	return base64.StdEncoding.EncodeToString(pcm)
}

// Decode converts a base64 chunk back to raw PCM16 bytes. A leading
// "data:...;base64," prefix from browser clients is stripped.
func Decode(b64 string) ([]byte, error) {
	if i := strings.Index(b64, ","); i >= 0 {
		b64 = b64[i+1:]
	}
	return base64.StdEncoding.DecodeString(b64)
}
