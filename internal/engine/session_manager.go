package engine

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/tabletalk/voicegate/internal/protocol"
	"github.com/tabletalk/voicegate/internal/providers/stt"
	"github.com/tabletalk/voicegate/internal/services"
	"github.com/tabletalk/voicegate/internal/utils"
)

// correctiveJaccardThreshold is the §4.7 divergence bound below which a
// final STT result is considered to disagree enough with the committed
// partial to justify restarting the LLM turn.
const correctiveJaccardThreshold = 0.7

// SessionManager owns the live sessions and implements the driver-facing
// half of §4.9's inbound demultiplexer: everything except the actual
// socket framing, which belongs to the ws package.
type SessionManager struct {
	stt         stt.Provider
	scheduler   *PartialSTTScheduler
	bridge      *StreamingBridge
	persistence services.PersistenceService
	audit       services.AuditService
	log         *logrus.Logger

	silenceThreshold time.Duration
}

func NewSessionManager(
	sttProvider stt.Provider,
	scheduler *PartialSTTScheduler,
	bridge *StreamingBridge,
	persistence services.PersistenceService,
	audit services.AuditService,
	silenceThreshold time.Duration,
	log *logrus.Logger,
) *SessionManager {
	return &SessionManager{
		stt:              sttProvider,
		scheduler:        scheduler,
		bridge:           bridge,
		persistence:      persistence,
		audit:            audit,
		silenceThreshold: silenceThreshold,
		log:              log,
	}
}

// OpenSession resolves qrToken to a table via the persistence
// collaborator, builds the session, caches its menu, and returns it
// alongside the greeting text to speak (§4.9 channel-open).
func (m *SessionManager) OpenSession(ctx context.Context, sessionID, qrToken string, emitter Emitter) (*Session, string, error) {
	menu, err := m.persistence.GetMenu(ctx, qrToken)
	if err != nil {
		return nil, "", err
	}

	sess := NewSession(sessionID, qrToken, menu.TableID)
	sess.SetEmitter(emitter)
	sess.SetMenuContext(menu)

	m.audit.RecordEvent(ctx, sess.ID, qrToken, "connected", "")

	greeting := "Hoş geldiniz! " + menu.RestaurantName + ", size nasıl yardımcı olabilirim?"
	return sess, greeting, nil
}

// HandleAudioChunk implements the binary-frame branch of §4.9.
func (m *SessionManager) HandleAudioChunk(ctx context.Context, sess *Session, data []byte) {
	sess.AddAudioChunk(data)
	m.scheduler.Tick(ctx, sess)
	m.commitTurn(ctx, sess, false)
}

// HandleAudioEnd implements the audio_end control branch: force the
// early-trigger, commit the turn, then clear the buffer retaining the
// acoustic overlap tail.
func (m *SessionManager) HandleAudioEnd(ctx context.Context, sess *Session) {
	m.commitTurn(ctx, sess, true)
}

// commitTurn captures the current partial transcript as the turn's
// final text, kicks off the streaming bridge, and opportunistically
// races a final STT call to correct it (§4.7).
func (m *SessionManager) commitTurn(ctx context.Context, sess *Session, force bool) {
	if !sess.ShouldTriggerLLM(m.silenceThreshold, force) {
		return
	}

	transcript := sess.TranscriptText()
	audioSnapshot := sess.BufferSnapshot()
	sess.ClearProcessedAudio(true)
	sess.ClearTranscript()

	if transcript == "" {
		sess.SetState(StateIdle)
		return
	}

	_ = sess.Emitter().SendJSON(protocol.NewTranscript(transcript))

	go m.bridge.Run(ctx, sess, transcript)
	go m.runCorrectiveRestart(ctx, sess, audioSnapshot, transcript)
}

// runCorrectiveRestart implements the optional path in §4.7: race a
// final-STT call against the LLM turn already under way, and if it
// diverges from the committed partial, cancel and restart with the
// corrected text.
func (m *SessionManager) runCorrectiveRestart(ctx context.Context, sess *Session, audio []byte, committed string) {
	result, err := m.stt.Transcribe(ctx, sess.ID, audio, "tr-TR")
	if err != nil || result.Skipped || result.Text == "" {
		return
	}
	if utils.WordJaccard(committed, result.Text) >= correctiveJaccardThreshold {
		return
	}

	m.log.WithField("session_id", sess.ID).
		WithField("committed", committed).
		WithField("corrected", result.Text).
		Info("corrective restart: final stt diverged from partial")

	m.bridge.Run(ctx, sess, result.Text)
}

// HandleInterrupt implements the interrupt control branch (§4.9, §8 S2):
// cancel every in-flight task, clear the buffer, and always acknowledge.
func (m *SessionManager) HandleInterrupt(ctx context.Context, sess *Session) {
	sess.SetState(StateInterrupted)
	sess.CancelActiveStreams()
	sess.ClearProcessedAudio(false)
	sess.ClearTranscript()
	_ = sess.Emitter().SendJSON(protocol.NewInterruptAck())
	m.audit.RecordEvent(ctx, sess.ID, sess.QRToken, "barge_in", "")
	sess.SetState(StateListening)
}

// HandlePing implements the ping control branch.
func (m *SessionManager) HandlePing(sess *Session) {
	_ = sess.Emitter().SendJSON(protocol.NewPong())
}

// Close implements §4.9 cleanup: cancel all tasks and record the
// disconnect. The caller (the ws driver) enforces the drain timeout
// through ctx: tasks still running when ctx is done are abandoned.
func (m *SessionManager) Close(ctx context.Context, sess *Session) {
	drained := make(chan struct{})
	go func() {
		sess.CancelActiveStreams()
		close(drained)
	}()
	select {
	case <-drained:
	case <-ctx.Done():
	}
	m.audit.RecordEvent(ctx, sess.ID, sess.QRToken, "disconnected", "")
}
