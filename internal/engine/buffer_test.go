package engine

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAudioBufferAppendAndSnapshot(t *testing.T) {
	b := NewAudioBuffer()
	b.Append([]byte("hello"))
	b.Append([]byte(" world"))

	require.Equal(t, 11, b.Len())
	assert.Equal(t, []byte("hello world"), b.Snapshot())
}

func TestAudioBufferSnapshotIsACopy(t *testing.T) {
	b := NewAudioBuffer()
	b.Append([]byte("abc"))

	snap := b.Snapshot()
	snap[0] = 'z'

	assert.Equal(t, []byte("abc"), b.Snapshot())
}

func TestAudioBufferTruncatesOnOverrun(t *testing.T) {
	b := NewAudioBuffer()
	b.Append(bytes.Repeat([]byte{0xAA}, maxBufferBytes+1))

	assert.Equal(t, truncateToBytes, b.Len())
}

func TestAudioBufferClearWithoutOverlap(t *testing.T) {
	b := NewAudioBuffer()
	b.Append(bytes.Repeat([]byte{1}, overlapTailBytes*2))
	b.Clear(false)

	assert.Equal(t, 0, b.Len())
}

func TestAudioBufferClearKeepsOverlapTail(t *testing.T) {
	b := NewAudioBuffer()
	data := make([]byte, overlapTailBytes*2)
	for i := range data {
		data[i] = byte(i)
	}
	b.Append(data)
	b.Clear(true)

	require.Equal(t, overlapTailBytes, b.Len())
	assert.Equal(t, data[len(data)-overlapTailBytes:], b.Snapshot())
}

func TestAudioBufferClearKeepOverlapShorterThanTail(t *testing.T) {
	b := NewAudioBuffer()
	b.Append([]byte("short"))
	b.Clear(true)

	assert.Equal(t, 0, b.Len())
}
