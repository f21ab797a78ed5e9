package engine

import (
	"context"

	"github.com/tabletalk/voicegate/internal/providers/llm"
	"github.com/tabletalk/voicegate/internal/providers/stt"
	"github.com/tabletalk/voicegate/internal/providers/tts"
)

// limitedSTT, limitedLLM and limitedTTS wrap a provider with the
// process-wide UpstreamLimiter so every external call — including the
// warm-keeper's — counts against the same budget (§5).

type limitedSTT struct {
	stt.Provider
	limiter *UpstreamLimiter
}

func WithLimiter(p stt.Provider, l *UpstreamLimiter) stt.Provider {
	return &limitedSTT{Provider: p, limiter: l}
}

func (l *limitedSTT) Transcribe(ctx context.Context, sessionID string, audio []byte, language string) (stt.Result, error) {
	if err := l.limiter.Acquire(ctx); err != nil {
		return stt.Result{}, err
	}
	defer l.limiter.Release()
	return l.Provider.Transcribe(ctx, sessionID, audio, language)
}

type limitedLLM struct {
	llm.Provider
	limiter *UpstreamLimiter
}

func WithLLMLimiter(p llm.Provider, l *UpstreamLimiter) llm.Provider {
	return &limitedLLM{Provider: p, limiter: l}
}

func (l *limitedLLM) StreamAnswer(ctx context.Context, userMessage, menuContext string) (<-chan llm.Chunk, <-chan error) {
	if err := l.limiter.Acquire(ctx); err != nil {
		errs := make(chan error, 1)
		errs <- err
		close(errs)
		out := make(chan llm.Chunk)
		close(out)
		return out, errs
	}
	chunks, errs := l.Provider.StreamAnswer(ctx, userMessage, menuContext)
	return releaseOnDrainLLM(chunks, errs, l.limiter)
}

func releaseOnDrainLLM(chunks <-chan llm.Chunk, errs <-chan error, l *UpstreamLimiter) (<-chan llm.Chunk, <-chan error) {
	outC := make(chan llm.Chunk, 32)
	outE := make(chan error, 1)
	go func() {
		defer l.Release()
		defer close(outC)
		defer close(outE)
		for chunks != nil || errs != nil {
			select {
			case c, ok := <-chunks:
				if !ok {
					chunks = nil
					continue
				}
				outC <- c
			case e, ok := <-errs:
				if !ok {
					errs = nil
					continue
				}
				outE <- e
				return
			}
		}
	}()
	return outC, outE
}

type limitedTTS struct {
	tts.Provider
	limiter *UpstreamLimiter
}

func WithTTSLimiter(p tts.Provider, l *UpstreamLimiter) tts.Provider {
	return &limitedTTS{Provider: p, limiter: l}
}

func (l *limitedTTS) SpeakStream(ctx context.Context, text string) (<-chan []byte, <-chan error) {
	if err := l.limiter.Acquire(ctx); err != nil {
		errs := make(chan error, 1)
		errs <- err
		close(errs)
		out := make(chan []byte)
		close(out)
		return out, errs
	}
	frames, errs := l.Provider.SpeakStream(ctx, text)
	return releaseOnDrainTTS(frames, errs, l.limiter)
}

func releaseOnDrainTTS(frames <-chan []byte, errs <-chan error, l *UpstreamLimiter) (<-chan []byte, <-chan error) {
	outF := make(chan []byte, 8)
	outE := make(chan error, 1)
	go func() {
		defer l.Release()
		defer close(outF)
		defer close(outE)
		for frames != nil || errs != nil {
			select {
			case f, ok := <-frames:
				if !ok {
					frames = nil
					continue
				}
				outF <- f
			case e, ok := <-errs:
				if !ok {
					errs = nil
					continue
				}
				outE <- e
				return
			}
		}
	}()
	return outF, outE
}
