package audio

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestEncodeDecodeRoundTrip(t *testing.T) {
	pcm := []byte{0x00, 0x01, 0x7f, 0x80, 0xff, 0xfe}

	decoded, err := Decode(Encode(pcm))
	require.NoError(t, err)
	require.Equal(t, pcm, decoded)
}

func TestDecodeStripsDataURIPrefix(t *testing.T) {
	pcm := []byte{0x10, 0x20, 0x30}

	decoded, err := Decode("data:audio/pcm;base64," + Encode(pcm))
	require.NoError(t, err)
	require.Equal(t, pcm, decoded)
}

func TestDecodeRejectsGarbage(t *testing.T) {
	_, err := Decode("not base64 at all!!!")
	require.Error(t, err)
}

func TestChunkGeometry(t *testing.T) {
	// 20 ms of 24 kHz mono int16
	require.Equal(t, 480, FramesPerChunk)
	require.Equal(t, 960, BytesPerChunk)
}
