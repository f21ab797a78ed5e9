package stt

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/tabletalk/voicegate/internal/utils"
	"golang.org/x/time/rate"
)

// tinyInputBytes is the §4.1 rule 2 threshold below which a buffer is
// treated as near-silence and never reaches the upstream.
const tinyInputBytes = 1024

// rawTranscriber is the narrow surface RateLimitedSTT needs from an
// upstream implementation; it deliberately excludes rate limiting,
// retry and serialization so those concerns live in exactly one place.
type rawTranscriber interface {
	recognize(ctx context.Context, audio []byte, language string) (text string, confidence float64, err error)
	Close() error
}

// sessionGate serializes and rate-limits calls for one session: at most
// one STT call in flight (mutex) and a minimum gap between calls
// (limiter), matching §4.1 rules 1 and 5.
type sessionGate struct {
	mu      sync.Mutex
	limiter *rate.Limiter
}

// RateLimitedSTT decorates a rawTranscriber with the full §4.1 contract:
// per-session rate limiting, tiny-input skip, retry with backoff, and
// per-session serialization.
type RateLimitedSTT struct {
	upstream rawTranscriber
	policy   utils.RetryPolicy
	minGap   time.Duration

	gatesMu sync.Mutex
	gates   map[string]*sessionGate
}

func NewRateLimitedSTT(upstream rawTranscriber, minGap time.Duration) *RateLimitedSTT {
	return &RateLimitedSTT{
		upstream: upstream,
		policy:   utils.DefaultSTTRetryPolicy(isRetriableSTTError),
		minGap:   minGap,
		gates:    make(map[string]*sessionGate),
	}
}

func (r *RateLimitedSTT) Close() error { return r.upstream.Close() }

func (r *RateLimitedSTT) gateFor(sessionID string) *sessionGate {
	r.gatesMu.Lock()
	defer r.gatesMu.Unlock()

	g, ok := r.gates[sessionID]
	if !ok {
		g = &sessionGate{limiter: rate.NewLimiter(rate.Every(r.minGap), 1)}
		r.gates[sessionID] = g
	}
	return g
}

func (r *RateLimitedSTT) Transcribe(ctx context.Context, sessionID string, audio []byte, language string) (Result, error) {
	if len(audio) < tinyInputBytes {
		return Result{Skipped: true}, nil
	}

	gate := r.gateFor(sessionID)

	// serialize: at most one call in flight per session
	gate.mu.Lock()
	defer gate.mu.Unlock()

	// rate-limit: block the caller until the minimum gap has elapsed
	if err := gate.limiter.Wait(ctx); err != nil {
		return Result{}, err
	}

	started := time.Now()
	var confidence float64
	text, err := r.policy.Do(ctx, func() (string, error) {
		t, c, err := r.upstream.recognize(ctx, audio, language)
		confidence = c
		return t, err
	})
	if err != nil {
		return Result{}, utils.E(utils.CodeTransientUpstream, "RateLimitedSTT.Transcribe", "stt upstream failed", err)
	}

	return Result{
		Text:           text,
		Confidence:     confidence,
		ProcessingTime: time.Since(started).Milliseconds(),
	}, nil
}

// isRetriableSTTError implements §4.1 rule 4: retry 5xx and 429, fail
// fast on other 4xx and non-transient errors. Google's client surfaces
// gRPC status codes; we key off their string form since the Speech
// client here is used through the plain error interface.
func isRetriableSTTError(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "resourceexhausted"),
		strings.Contains(msg, "unavailable"),
		strings.Contains(msg, "internal"),
		strings.Contains(msg, "deadlineexceeded"),
		strings.Contains(msg, "429"),
		strings.Contains(msg, "500"),
		strings.Contains(msg, "502"),
		strings.Contains(msg, "503"):
		return true
	case strings.Contains(msg, "invalidargument"),
		strings.Contains(msg, "permissiondenied"),
		strings.Contains(msg, "unauthenticated"),
		strings.Contains(msg, "notfound"):
		return false
	default:
		return errors.Is(err, context.DeadlineExceeded)
	}
}
