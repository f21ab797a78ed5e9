package engine

// maxBufferBytes is the §3 hard upper bound (~1 MB); on overrun only the
// most recent suffix is kept.
const maxBufferBytes = 1 << 20

// truncateToBytes is the suffix length kept on overrun (500 KB, §8
// boundary behaviour).
const truncateToBytes = 500 * 1024

// overlapTailBytes is the fixed 8000-byte tail (≈8 KB) retained across a
// turn boundary for acoustic context (§3); at 16kHz mono 16-bit PCM
// (32000 bytes/s) that is 250ms.
const overlapTailBytes = 8000

// AudioBuffer is the session's rolling capture of raw inbound audio.
// Not safe for concurrent use on its own; callers hold Session.mu.
type AudioBuffer struct {
	data []byte
}

func NewAudioBuffer() *AudioBuffer {
	return &AudioBuffer{data: make([]byte, 0, 64*1024)}
}

func (b *AudioBuffer) Append(chunk []byte) {
	b.data = append(b.data, chunk...)
	if len(b.data) > maxBufferBytes {
		b.data = append([]byte(nil), b.data[len(b.data)-truncateToBytes:]...)
	}
}

func (b *AudioBuffer) Len() int { return len(b.data) }

// Snapshot returns a copy of the whole buffer: partial-STT resends the
// entire buffer on every call, never a delta (§3).
func (b *AudioBuffer) Snapshot() []byte {
	out := make([]byte, len(b.data))
	copy(out, b.data)
	return out
}

// Clear drops the buffer, optionally retaining the last overlapTailBytes
// as acoustic context into the next turn (§4.5).
func (b *AudioBuffer) Clear(keepOverlap bool) {
	if !keepOverlap || len(b.data) <= overlapTailBytes {
		b.data = b.data[:0]
		return
	}
	b.data = append([]byte(nil), b.data[len(b.data)-overlapTailBytes:]...)
}
