package engine

import (
	"sync"
	"time"

	"github.com/tabletalk/voicegate/internal/models"
)

// State is one node of the session state machine (§3, §4.5).
type State string

const (
	StateIdle          State = "idle"
	StateListening     State = "listening"
	StateProcessingSTT State = "processing_stt"
	StateGeneratingLLM State = "generating_llm"
	StateStreamingTTS  State = "streaming_tts"
	StateInterrupted   State = "interrupted"
)

// Session is the per-channel unit of concurrency: it owns the audio
// buffer, the partial transcript, timing marks and the task registry.
// All public methods that touch state acquire mu; none hold it across
// upstream I/O (§5 locking discipline).
type Session struct {
	ID      string
	QRToken string
	TableID string

	mu    sync.Mutex
	state State

	buffer     *AudioBuffer
	transcript *PartialTranscript
	registry   *TaskRegistry
	seq        *sequencer

	sessionStart     time.Time
	lastChunkTime    time.Time
	lastSTTTime      time.Time
	silenceStartTime time.Time

	menu     *models.MenuContext
	emitter  Emitter

	sttMu sync.Mutex // serializes STT calls per session, separate from mu (§5)
}

func NewSession(id, qrToken, tableID string) *Session {
	now := time.Now()
	return &Session{
		ID:           id,
		QRToken:      qrToken,
		TableID:      tableID,
		state:        StateIdle,
		buffer:       NewAudioBuffer(),
		transcript:   NewPartialTranscript(),
		registry:     NewTaskRegistry(),
		seq:          newSequencer(),
		sessionStart: now,
	}
}

func (s *Session) Sequencer() *sequencer { return s.seq }

func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

func (s *Session) setState(st State) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = st
}

// AddAudioChunk appends inbound bytes to the buffer and stamps
// last_chunk_time, transitioning Idle -> Listening on first audio.
func (s *Session) AddAudioChunk(b []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.buffer.Append(b)
	s.lastChunkTime = time.Now()
	if s.state == StateIdle {
		s.state = StateListening
	}
}

// CanProcessPartialSTT evaluates §4.6 under the session lock, then
// releases it before the caller performs any I/O.
func (s *Session) CanProcessPartialSTT(minDuration, minGap time.Duration, bytesPerSecond int) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.buffer.Len() == 0 {
		return false
	}
	minBytes := int(minDuration.Seconds() * float64(bytesPerSecond))
	if s.buffer.Len() < minBytes {
		return false
	}
	if !s.lastSTTTime.IsZero() && time.Since(s.lastSTTTime) < minGap {
		return false
	}
	return true
}

// TryLockSTT enforces "skip if a call is already in flight" (§4.6 tie-break).
func (s *Session) TryLockSTT() bool {
	return s.sttMu.TryLock()
}

func (s *Session) UnlockSTT() {
	s.sttMu.Unlock()
}

func (s *Session) MarkSTTCalled() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastSTTTime = time.Now()
}

func (s *Session) BufferSnapshot() []byte {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.buffer.Snapshot()
}

// MergePartial folds a fresh partial-STT result into the running
// transcript using the STT provider's merge algorithm and returns the
// merged text.
func (s *Session) MergePartial(merge func(old, incoming string) string, incoming string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	merged := merge(s.transcript.Text(), incoming)
	s.transcript.Set(merged)
	return merged
}

func (s *Session) TranscriptText() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.transcript.Text()
}

func (s *Session) ClearTranscript() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.transcript.Clear()
}

// ShouldTriggerLLM evaluates §4.7. force is set by an explicit
// audio_end control message.
func (s *Session) ShouldTriggerLLM(silenceThreshold time.Duration, force bool) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if force {
		return true
	}
	return earlyTriggerFires(s.transcript.Text(), s.lastChunkTime, silenceThreshold)
}

// ClearProcessedAudio implements §4.5's clear_processed_audio.
func (s *Session) ClearProcessedAudio(keepOverlap bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.buffer.Clear(keepOverlap)
}

// CancelActiveStreams cancels and empties the task registry (§4.5).
func (s *Session) CancelActiveStreams() {
	s.registry.CancelAll()
}

func (s *Session) Registry() *TaskRegistry { return s.registry }

func (s *Session) SetState(st State) { s.setState(st) }

func (s *Session) LastChunkTime() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastChunkTime
}

// SetEmitter wires the driver's outbound channel into the session. Set
// once at channel-open, before any engine component may need it.
func (s *Session) SetEmitter(e Emitter) { s.emitter = e }

func (s *Session) Emitter() Emitter { return s.emitter }

// SetMenuContext caches the menu for the session's lifetime; §4.2 says
// menu context is cached at the session level and only re-sent when it
// changes, which this single fixed cache slot satisfies for a session's
// duration.
func (s *Session) SetMenuContext(m *models.MenuContext) { s.menu = m }

func (s *Session) MenuContext() *models.MenuContext {
	if s.menu == nil {
		return &models.MenuContext{}
	}
	return s.menu
}
