package engine

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"github.com/tabletalk/voicegate/config"
	"github.com/tabletalk/voicegate/internal/cache"
	"github.com/tabletalk/voicegate/internal/providers/llm"
	"github.com/tabletalk/voicegate/internal/providers/stt"
	"github.com/tabletalk/voicegate/internal/providers/tts"
	"github.com/tabletalk/voicegate/internal/services"
	"github.com/tabletalk/voicegate/internal/storage"
)

const warmKeeperLockKey = "voicegate:warmkeeper:leader"

// Engine is the top-level process wiring for the voice pipeline: it
// owns the upstream providers, the shared concurrency limiter, the
// warm-keeper, and the SessionManager the ws driver talks to.
type Engine struct {
	Sessions *SessionManager
	limiter  *UpstreamLimiter
	warmer   *WarmKeeper

	sttProvider stt.Provider
	llmProvider llm.Provider
	ttsProvider tts.Provider
}

// New wires every §6.3 provider behind the shared UpstreamLimiter,
// builds the scheduler and streaming bridge, and returns the fully
// assembled engine. Callers must call Start before serving traffic and
// Shutdown before the process exits.
func New(
	ctx context.Context,
	cfg *config.EngineConfig,
	uploader storage.Uploader,
	persistence services.PersistenceService,
	audit services.AuditService,
	rdb *redis.Client,
	log *logrus.Logger,
) (*Engine, error) {
	rawSTT, err := stt.NewGoogleSpeech(ctx, uploader, cfg.GCSBucket)
	if err != nil {
		return nil, err
	}
	gemini, err := llm.NewVertexGemini(ctx, cfg.GoogleProjectID, cfg.GoogleLocation, cfg.GeminiModel)
	if err != nil {
		return nil, err
	}
	googleTTS, err := tts.NewGoogleTTS(ctx)
	if err != nil {
		return nil, err
	}

	limiter := NewUpstreamLimiter(cfg.MaxUpstreamInFlight)

	rateLimitedSTT := stt.NewRateLimitedSTT(rawSTT, cfg.PartialSTTMinGap)
	sttProvider := WithLimiter(rateLimitedSTT, limiter)
	llmProvider := WithLLMLimiter(gemini, limiter)
	ttsProvider := WithTTSLimiter(googleTTS, limiter)

	scheduler := NewPartialSTTScheduler(sttProvider, cfg.PartialSTTMinDuration, cfg.PartialSTTMinGap, log)
	bridge := NewStreamingBridge(llmProvider, ttsProvider, persistence, audit, log)
	sessions := NewSessionManager(sttProvider, scheduler, bridge, persistence, audit, cfg.EarlyTriggerSilence, log)

	var lock Locker
	if rdb != nil {
		lock = cache.NewLeaderLock(rdb, warmKeeperLockKey, cfg.WarmKeeperInterval*2)
	}
	warmer := NewWarmKeeper(sttProvider, ttsProvider, cfg.WarmKeeperInterval, lock, log)

	return &Engine{
		Sessions:    sessions,
		limiter:     limiter,
		warmer:      warmer,
		sttProvider: sttProvider,
		llmProvider: llmProvider,
		ttsProvider: ttsProvider,
	}, nil
}

func (e *Engine) Start(ctx context.Context) {
	e.warmer.Start(ctx)
}

// Shutdown stops the warm-keeper and closes every upstream client. It
// does not itself drain live sessions; the ws driver is responsible
// for cancelling and awaiting each session's task registry (§5) before
// calling this.
func (e *Engine) Shutdown(ctx context.Context) {
	e.warmer.Stop()

	closers := []interface{ Close() error }{e.sttProvider, e.llmProvider, e.ttsProvider}
	done := make(chan struct{})
	go func() {
		for _, c := range closers {
			_ = c.Close()
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
	case <-ctx.Done():
	}
}
