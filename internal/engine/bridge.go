package engine

import (
	"context"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/tabletalk/voicegate/internal/models"
	"github.com/tabletalk/voicegate/internal/protocol"
	"github.com/tabletalk/voicegate/internal/providers/llm"
	"github.com/tabletalk/voicegate/internal/providers/tts"
	"github.com/tabletalk/voicegate/internal/services"
)

// llmIdleGap and ttsIdleGap are the §5 timeout budgets: no token/frame
// for this long fails the turn with TransientUpstream.
const (
	llmIdleGap = 30 * time.Second
	ttsIdleGap = 15 * time.Second
)

// StreamingBridge drives one turn's LLM and TTS streams for a session,
// implementing §4.8: pipe LLM tokens to the client, spawn TTS on the
// first sentence boundary, and hand the completed structured intent to
// the persistence collaborator.
type StreamingBridge struct {
	llm         llm.Provider
	tts         tts.Provider
	persistence services.PersistenceService
	audit       services.AuditService
	log         *logrus.Logger
}

func NewStreamingBridge(l llm.Provider, t tts.Provider, p services.PersistenceService, a services.AuditService, log *logrus.Logger) *StreamingBridge {
	return &StreamingBridge{llm: l, tts: t, persistence: p, audit: a, log: log}
}

// Run executes one turn. ctx is the session/channel-scoped context; the
// bridge itself installs the "llm" and "tts" registry entries so a
// barge-in or a corrective restart can cancel it from outside.
func (b *StreamingBridge) Run(ctx context.Context, sess *Session, transcript string) {
	turnStarted := time.Now()

	llmCtx, releaseLLM := sess.Registry().Register(ctx, TaskLLM)
	defer releaseLLM()

	sess.SetState(StateGeneratingLLM)

	menu := sess.MenuContext()
	chunks, errs := b.llm.StreamAnswer(llmCtx, transcript, menu.AsPromptText())

	var fullText string
	var boundaryFound bool
	ttsSpawned := false
	idle := time.NewTimer(llmIdleGap)
	defer idle.Stop()

drain:
	for {
		select {
		case c, ok := <-chunks:
			if !ok {
				chunks = nil
				if errs == nil {
					break drain
				}
				continue
			}
			if !idle.Stop() {
				<-idle.C
			}
			idle.Reset(llmIdleGap)

			fullText = c.FullText
			_ = sess.Emitter().SendJSON(protocol.NewAIToken(c.Token, c.FullText))

			if !boundaryFound {
				if end := firstSentenceBoundary(fullText); end >= 0 {
					boundaryFound = true
					if spoken, ok := extractSpokenResponse(fullText[:end]); ok && strings.TrimSpace(spoken) != "" {
						ttsSpawned = true
						b.speak(llmCtx, sess, spoken)
					} else if fullText[:end] != "" {
						ttsSpawned = true
						b.speak(llmCtx, sess, fullText[:end])
					}
				}
			}
		case err, ok := <-errs:
			if !ok || err == nil {
				errs = nil
				if chunks == nil {
					break drain
				}
				continue
			}
			b.log.WithError(err).WithField("session_id", sess.ID).Warn("llm stream failed")
			_ = sess.Emitter().SendJSON(protocol.NewError("llm generation failed"))
			sess.SetState(StateIdle)
			return
		case <-idle.C:
			b.log.WithField("session_id", sess.ID).Warn("llm idle-gap timeout")
			_ = sess.Emitter().SendJSON(protocol.NewError("llm generation timed out"))
			sess.SetState(StateIdle)
			return
		case <-llmCtx.Done():
			return
		}
	}

	intent := finalizeIntent(fullText)

	if !ttsSpawned {
		b.speak(llmCtx, sess, intent.SpokenResponse)
	}

	b.applyIntent(ctx, sess, intent)

	_ = sess.Emitter().SendJSON(protocol.NewAIComplete(intent))

	b.audit.RecordTurn(ctx, &models.TurnRecord{
		SessionID:      sess.ID,
		QRToken:        sess.QRToken,
		Transcript:     transcript,
		SpokenResponse: intent.SpokenResponse,
		Intent:         string(intent.Intent),
		ProductName:    intent.ProductName,
		Quantity:       intent.Quantity,
		LLMLatencyMS:   time.Since(turnStarted).Milliseconds(),
	})

	sess.SetState(StateIdle)
}

// speak registers and drives the TTS task for one text fragment. It is
// derived from llmCtx so cancelling the owning LLM task (barge-in or
// corrective restart) tears TTS down too, without waiting for the
// explicit "tts" registry cancel.
func (b *StreamingBridge) speak(llmCtx context.Context, sess *Session, text string) {
	text = strings.TrimSpace(text)
	if text == "" {
		return
	}

	ttsCtx, release := sess.Registry().Register(llmCtx, TaskTTS)
	sess.SetState(StateStreamingTTS)

	go func() {
		defer release()

		frames, errs := b.tts.SpeakStream(ttsCtx, text)
		_ = sess.Emitter().SendJSON(protocol.NewTTSStart())

		idle := time.NewTimer(ttsIdleGap)
		defer idle.Stop()

		for {
			select {
			case frame, ok := <-frames:
				if !ok {
					_ = sess.Emitter().SendJSON(protocol.NewTTSComplete())
					return
				}
				if !idle.Stop() {
					<-idle.C
				}
				idle.Reset(ttsIdleGap)
				_ = sess.Emitter().SendBinary(frame)
			case err, ok := <-errs:
				if !ok {
					errs = nil
					continue
				}
				if err != nil {
					b.log.WithError(err).WithField("session_id", sess.ID).Warn("tts stream failed")
				}
				return
			case <-idle.C:
				b.log.WithField("session_id", sess.ID).Warn("tts idle-gap timeout")
				return
			case <-ttsCtx.Done():
				return
			}
		}
	}()
}

func (b *StreamingBridge) applyIntent(ctx context.Context, sess *Session, intent models.StructuredIntent) {
	switch intent.Intent {
	case models.IntentAdd:
		if intent.ProductName == "" {
			return
		}
		qty := intent.Quantity
		if qty <= 0 {
			qty = 1
		}
		_, err := b.persistence.PlaceOrder(ctx, sess.QRToken, []models.OrderLine{{
			ProductName: intent.ProductName,
			Quantity:    qty,
		}})
		if err != nil {
			b.log.WithError(err).WithField("session_id", sess.ID).Warn("place_order failed")
		}
	case models.IntentCheck:
		if err := b.persistence.RequestCheck(ctx, sess.QRToken); err != nil {
			b.log.WithError(err).WithField("session_id", sess.ID).Warn("request_check failed")
		}
	case models.IntentRecommend:
		if intent.ProductName == "" {
			return
		}
		for _, p := range sess.MenuContext().Products {
			if strings.EqualFold(p.Name, intent.ProductName) {
				_ = sess.Emitter().SendJSON(protocol.NewRecommendation(p))
				return
			}
		}
	}
}
