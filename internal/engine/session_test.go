package engine

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewSessionStartsIdle(t *testing.T) {
	s := NewSession("sess-1", "qr-1", "table-1")
	assert.Equal(t, StateIdle, s.State())
}

func TestAddAudioChunkTransitionsToListening(t *testing.T) {
	s := NewSession("sess-1", "qr-1", "table-1")
	s.AddAudioChunk([]byte("some pcm bytes"))
	assert.Equal(t, StateListening, s.State())
}

func TestCanProcessPartialSTTRequiresMinimumBytes(t *testing.T) {
	s := NewSession("sess-1", "qr-1", "table-1")
	s.AddAudioChunk(make([]byte, 100))

	assert.False(t, s.CanProcessPartialSTT(1200*time.Millisecond, 500*time.Millisecond, 32000))
}

func TestCanProcessPartialSTTFiresOnceEnoughAudio(t *testing.T) {
	s := NewSession("sess-1", "qr-1", "table-1")
	s.AddAudioChunk(make([]byte, 40000))

	assert.True(t, s.CanProcessPartialSTT(1200*time.Millisecond, 500*time.Millisecond, 32000))
}

func TestCanProcessPartialSTTRespectsMinGap(t *testing.T) {
	s := NewSession("sess-1", "qr-1", "table-1")
	s.AddAudioChunk(make([]byte, 40000))
	s.MarkSTTCalled()

	assert.False(t, s.CanProcessPartialSTT(1200*time.Millisecond, time.Minute, 32000))
}

func TestTryLockSTTPreventsConcurrentCalls(t *testing.T) {
	s := NewSession("sess-1", "qr-1", "table-1")
	require.True(t, s.TryLockSTT())
	assert.False(t, s.TryLockSTT())

	s.UnlockSTT()
	assert.True(t, s.TryLockSTT())
}

func TestMergePartialUpdatesRunningTranscript(t *testing.T) {
	s := NewSession("sess-1", "qr-1", "table-1")
	merge := func(old, incoming string) string {
		if old == "" {
			return incoming
		}
		return old + " " + incoming
	}

	got := s.MergePartial(merge, "bir")
	assert.Equal(t, "bir", got)

	got = s.MergePartial(merge, "cola istiyorum")
	assert.Equal(t, "bir cola istiyorum", got)
	assert.Equal(t, "bir cola istiyorum", s.TranscriptText())
}

func TestShouldTriggerLLMForcedByAudioEnd(t *testing.T) {
	s := NewSession("sess-1", "qr-1", "table-1")
	assert.True(t, s.ShouldTriggerLLM(400*time.Millisecond, true))
}

func TestClearProcessedAudioKeepsOverlapTail(t *testing.T) {
	s := NewSession("sess-1", "qr-1", "table-1")
	s.AddAudioChunk(make([]byte, overlapTailBytes*2))
	s.ClearProcessedAudio(true)

	assert.Equal(t, overlapTailBytes, len(s.BufferSnapshot()))
}

func TestMenuContextDefaultsToEmptyNotNil(t *testing.T) {
	s := NewSession("sess-1", "qr-1", "table-1")
	assert.NotNil(t, s.MenuContext())
}
