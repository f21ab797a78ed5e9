package engine

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/tabletalk/voicegate/internal/protocol"
	"github.com/tabletalk/voicegate/internal/providers/stt"
)

// bytesPerSecond16kHzMono16bit is the sample math behind §4.6's ~38.4KB
// threshold for 1.2s of audio: 16000 samples/s * 2 bytes/sample.
const bytesPerSecond16kHzMono16bit = 32000

// PartialSTTScheduler implements §4.6: decide when the buffer has
// enough audio to submit to STT while the user is still speaking.
type PartialSTTScheduler struct {
	stt         stt.Provider
	minDuration time.Duration
	minGap      time.Duration
	log         *logrus.Logger
}

func NewPartialSTTScheduler(p stt.Provider, minDuration, minGap time.Duration, log *logrus.Logger) *PartialSTTScheduler {
	return &PartialSTTScheduler{stt: p, minDuration: minDuration, minGap: minGap, log: log}
}

// Tick evaluates the predicate and, if it fires and the per-session STT
// mutex is free, submits the whole buffer and folds the result into the
// session's running transcript. Staleness is enforced by seq: a result
// admitted out of order relative to a newer completed call is dropped.
func (s *PartialSTTScheduler) Tick(ctx context.Context, sess *Session) {
	if !sess.CanProcessPartialSTT(s.minDuration, s.minGap, bytesPerSecond16kHzMono16bit) {
		return
	}
	if !sess.TryLockSTT() {
		return // a call is already in flight; skip this tick (§4.6 tie-break)
	}

	mySeq := sess.Sequencer().Begin()
	audio := sess.BufferSnapshot()
	sess.MarkSTTCalled()

	go func() {
		defer sess.UnlockSTT()

		result, err := s.stt.Transcribe(ctx, sess.ID, audio, "tr-TR")
		if err != nil {
			s.log.WithError(err).WithField("session_id", sess.ID).Warn("partial stt failed")
			return
		}
		if result.Skipped || result.Text == "" {
			return
		}
		if !sess.Sequencer().Admit(mySeq) {
			return // a newer partial already landed; drop this stale one
		}

		merged := sess.MergePartial(stt.MergeTranscripts, result.Text)
		_ = sess.Emitter().SendJSON(protocol.NewPartialTranscript(merged, result.Confidence))
	}()
}
