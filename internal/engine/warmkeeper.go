package engine

import (
	"bytes"
	"context"
	"encoding/binary"
	"math"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/tabletalk/voicegate/internal/providers/stt"
	"github.com/tabletalk/voicegate/internal/providers/tts"
)

// Locker abstracts the Redis-backed leader election so only one gateway
// replica in a horizontally scaled deployment burns upstream quota on
// warm-keeper pings. A nil Locker means every replica pings on its own,
// which is correct for a single-instance deployment.
type Locker interface {
	TryAcquire(ctx context.Context) (bool, error)
	Release(ctx context.Context) error
}

// warmerSessionID is the fixed identifier the warm-keeper's STT calls
// carry; it never touches a real session's rate-limit gate because no
// live session is ever assigned this ID.
const warmerSessionID = "__warmkeeper__"

// WarmKeeper implements §4.4: a process-wide background task that
// periodically issues trivial STT and TTS calls so the provider
// connections and any warm pools behind them never go cold between
// real user turns.
type WarmKeeper struct {
	stt      stt.Provider
	tts      tts.Provider
	interval time.Duration
	lock     Locker
	log      *logrus.Logger

	mu      sync.Mutex
	cancel  context.CancelFunc
	stopped chan struct{}
}

// NewWarmKeeper wires an optional leader lock; pass nil to have this
// replica always ping (single-instance deployments, or tests).
func NewWarmKeeper(sttP stt.Provider, ttsP tts.Provider, interval time.Duration, lock Locker, log *logrus.Logger) *WarmKeeper {
	return &WarmKeeper{stt: sttP, tts: ttsP, interval: interval, lock: lock, log: log}
}

// Start is idempotent: calling it twice without an intervening Stop is
// a no-op.
func (w *WarmKeeper) Start(ctx context.Context) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.cancel != nil {
		return
	}

	runCtx, cancel := context.WithCancel(ctx)
	w.cancel = cancel
	w.stopped = make(chan struct{})

	go w.loop(runCtx)
}

func (w *WarmKeeper) Stop() {
	w.mu.Lock()
	cancel := w.cancel
	stopped := w.stopped
	w.cancel = nil
	w.mu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	<-stopped
}

func (w *WarmKeeper) loop(ctx context.Context) {
	defer close(w.stopped)

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			w.ping(ctx)
		}
	}
}

// ping fires the STT and TTS warm calls in parallel and discards both
// results; a failed warm call is logged at debug level and otherwise
// ignored, since it must never affect a real session.
func (w *WarmKeeper) ping(ctx context.Context) {
	pingCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	if w.lock != nil {
		leader, err := w.lock.TryAcquire(pingCtx)
		if err != nil {
			w.log.WithError(err).Debug("warm-keeper leader election failed")
			return
		}
		if !leader {
			return
		}
	}

	var wg sync.WaitGroup
	wg.Add(2)

	go func() {
		defer wg.Done()
		if _, err := w.stt.Transcribe(pingCtx, warmerSessionID, silenceTone(), "tr-TR"); err != nil {
			w.log.WithError(err).Debug("warm-keeper stt ping failed")
		}
	}()

	go func() {
		defer wg.Done()
		frames, errs := w.tts.SpeakStream(pingCtx, "merhaba")
		for {
			select {
			case _, ok := <-frames:
				if !ok {
					return
				}
			case err := <-errs:
				if err != nil {
					w.log.WithError(err).Debug("warm-keeper tts ping failed")
				}
				return
			case <-pingCtx.Done():
				return
			}
		}
	}()

	wg.Wait()
}

// silenceTone synthesizes ~1.3s of near-silent 16kHz mono PCM16 (42000
// bytes), well over the STT client's 1 KB tiny-input skip threshold, so
// the STT ping actually reaches the upstream instead of being
// short-circuited.
func silenceTone() []byte {
	const samples = 21000 // ~1.3s at 16kHz
	buf := new(bytes.Buffer)
	for i := 0; i < samples; i++ {
		v := int16(50 * math.Sin(float64(i)/40))
		_ = binary.Write(buf, binary.LittleEndian, v)
	}
	return buf.Bytes()
}
