package engine

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tabletalk/voicegate/internal/providers/stt"
)

func newTestManager(sttP *fakeSTT, llmP *fakeLLM) (*SessionManager, *fakePersistence, *fakeAudit) {
	persistence := &fakePersistence{}
	audit := &fakeAudit{}
	scheduler := NewPartialSTTScheduler(sttP, time.Hour, time.Hour, silentLog()) // never fires on its own in these tests
	bridge := NewStreamingBridge(llmP, fakeTTS{}, persistence, audit, silentLog())
	mgr := NewSessionManager(sttP, scheduler, bridge, persistence, audit, 400*time.Millisecond, silentLog())
	return mgr, persistence, audit
}

func TestHandleAudioEndCommitsTurnAndClearsState(t *testing.T) {
	sttP := &fakeSTT{result: stt.Result{Text: "bir cola istiyorum"}}
	llmP := &fakeLLM{fullText: `{"spoken_response": "Tamam.", "intent": "add", "product_name": "Cola", "quantity": 1}`}
	mgr, persistence, _ := newTestManager(sttP, llmP)

	sess, em := newTestSession()
	sess.MergePartial(func(_, incoming string) string { return incoming }, "bir cola istiyorum")
	sess.AddAudioChunk(make([]byte, 40000))

	mgr.HandleAudioEnd(context.Background(), sess)

	require.Eventually(t, func() bool {
		return len(persistence.orderedItems) == 1
	}, time.Second, 5*time.Millisecond)

	assert.Empty(t, sess.TranscriptText())
	assert.NotEmpty(t, em.jsonMessages())
}

func TestHandleAudioEndSkipsWhenTranscriptEmpty(t *testing.T) {
	sttP := &fakeSTT{result: stt.Result{Skipped: true}}
	llmP := &fakeLLM{fullText: `{"spoken_response": "x", "intent": "other"}`}
	mgr, persistence, _ := newTestManager(sttP, llmP)

	sess, _ := newTestSession()
	mgr.HandleAudioEnd(context.Background(), sess)

	assert.Equal(t, StateIdle, sess.State())
	assert.Empty(t, persistence.orderedItems)
}

func TestHandleInterruptClearsBufferAndAcksImmediately(t *testing.T) {
	sttP := &fakeSTT{result: stt.Result{Skipped: true}}
	llmP := &fakeLLM{fullText: `{"spoken_response": "x", "intent": "other"}`}
	mgr, _, audit := newTestManager(sttP, llmP)

	sess, em := newTestSession()
	sess.AddAudioChunk(make([]byte, 40000))

	// simulate an in-flight TTS stream that must be torn down by the interrupt
	ttsCtx, release := sess.Registry().Register(context.Background(), TaskTTS)
	go func() {
		<-ttsCtx.Done()
		release()
	}()

	mgr.HandleInterrupt(context.Background(), sess)

	assert.Equal(t, StateListening, sess.State())
	assert.Equal(t, 0, sess.Registry().Len())
	assert.Equal(t, 0, len(sess.BufferSnapshot()))
	assert.NotEmpty(t, em.jsonMessages())
	assert.Empty(t, audit.turns) // interrupt only records a session event, not a turn
}

func TestHandlePingRepliesPong(t *testing.T) {
	sttP := &fakeSTT{result: stt.Result{Skipped: true}}
	llmP := &fakeLLM{fullText: `{"spoken_response": "x", "intent": "other"}`}
	mgr, _, _ := newTestManager(sttP, llmP)

	sess, em := newTestSession()
	mgr.HandlePing(sess)

	require.Len(t, em.jsonMessages(), 1)
}
