package engine

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tabletalk/voicegate/internal/models"
	"github.com/tabletalk/voicegate/internal/protocol"
	"github.com/tabletalk/voicegate/internal/providers/llm"
	"github.com/tabletalk/voicegate/internal/providers/tts"
)

type fakeLLM struct {
	fullText string
	err      error
}

func (f *fakeLLM) StreamAnswer(ctx context.Context, userMessage, menuContext string) (<-chan llm.Chunk, <-chan error) {
	out := make(chan llm.Chunk, 1)
	errs := make(chan error, 1)
	go func() {
		defer close(out)
		defer close(errs)
		if f.err != nil {
			errs <- f.err
			return
		}
		select {
		case out <- llm.Chunk{Token: f.fullText, FullText: f.fullText}:
		case <-ctx.Done():
		}
	}()
	return out, errs
}

func (f *fakeLLM) Close() error { return nil }

type fakeTTS struct{}

func (fakeTTS) SpeakStream(ctx context.Context, text string) (<-chan []byte, <-chan error) {
	out := make(chan []byte, 1)
	errs := make(chan error, 1)
	go func() {
		defer close(out)
		defer close(errs)
		select {
		case out <- []byte("audio"):
		case <-ctx.Done():
		}
	}()
	return out, errs
}

func (fakeTTS) Close() error { return nil }

var _ tts.Provider = fakeTTS{}

type fakePersistence struct {
	orderedItems []models.OrderLine
	checkRequested bool
}

func (f *fakePersistence) GetMenu(ctx context.Context, qrToken string) (*models.MenuContext, error) {
	return &models.MenuContext{
		RestaurantName: "Test Lokanta",
		Products:       []models.Product{{Name: "Ayran", PriceCents: 500}},
	}, nil
}

func (f *fakePersistence) PlaceOrder(ctx context.Context, qrToken string, items []models.OrderLine) (*models.Order, error) {
	f.orderedItems = append(f.orderedItems, items...)
	return &models.Order{}, nil
}

func (f *fakePersistence) RequestCheck(ctx context.Context, qrToken string) error {
	f.checkRequested = true
	return nil
}

type fakeAudit struct {
	turns []*models.TurnRecord
}

func (f *fakeAudit) RecordEvent(ctx context.Context, sessionID, qrToken, event, detail string) {}

func (f *fakeAudit) RecordTurn(ctx context.Context, t *models.TurnRecord) {
	f.turns = append(f.turns, t)
}

func (f *fakeAudit) ListEvents(ctx context.Context, sessionID string, limit int64) ([]models.SessionEvent, error) {
	return nil, nil
}

func newTestSession() (*Session, *fakeEmitter) {
	sess := NewSession("sess-1", "qr-1", "table-1")
	em := &fakeEmitter{}
	sess.SetEmitter(em)
	return sess, em
}

func TestBridgeRunEmitsTokensAndCompletesIntent(t *testing.T) {
	sess, em := newTestSession()
	llmP := &fakeLLM{fullText: `{"spoken_response": "Elbette, bir cola ekliyorum.", "intent": "add", "product_name": "Cola", "quantity": 1}`}
	persistence := &fakePersistence{}
	audit := &fakeAudit{}

	bridge := NewStreamingBridge(llmP, fakeTTS{}, persistence, audit, silentLog())
	bridge.Run(context.Background(), sess, "bir cola istiyorum")

	require.Eventually(t, func() bool {
		return len(persistence.orderedItems) == 1
	}, time.Second, 5*time.Millisecond)

	assert.Equal(t, "Cola", persistence.orderedItems[0].ProductName)
	assert.Equal(t, 1, persistence.orderedItems[0].Quantity)
	assert.Len(t, audit.turns, 1)
	assert.Equal(t, StateIdle, sess.State())

	found := false
	for _, m := range em.jsonMessages() {
		if _, ok := m.(protocol.AIComplete); ok {
			found = true
		}
	}
	assert.True(t, found, "expected an ai_complete message to be emitted")
}

func TestBridgeRunRequestsCheckOnCheckIntent(t *testing.T) {
	sess, _ := newTestSession()
	llmP := &fakeLLM{fullText: `{"spoken_response": "Hesabınızı getiriyorum.", "intent": "check"}`}
	persistence := &fakePersistence{}
	audit := &fakeAudit{}

	bridge := NewStreamingBridge(llmP, fakeTTS{}, persistence, audit, silentLog())
	bridge.Run(context.Background(), sess, "hesap alabilir miyim")

	require.Eventually(t, func() bool {
		return persistence.checkRequested
	}, time.Second, 5*time.Millisecond)
}

func TestBridgeRunSurvivesLLMFailure(t *testing.T) {
	sess, em := newTestSession()
	llmP := &fakeLLM{err: assertError("upstream down")}
	persistence := &fakePersistence{}
	audit := &fakeAudit{}

	bridge := NewStreamingBridge(llmP, fakeTTS{}, persistence, audit, silentLog())
	bridge.Run(context.Background(), sess, "bir cola istiyorum")

	assert.Equal(t, StateIdle, sess.State())
	assert.NotEmpty(t, em.jsonMessages())
}

func TestBridgeRunEmitsRecommendationBeforeAIComplete(t *testing.T) {
	sess, em := newTestSession()
	sess.SetMenuContext(&models.MenuContext{Products: []models.Product{{Name: "Ayran", PriceCents: 500}}})
	llmP := &fakeLLM{fullText: `{"spoken_response": "Ayran öneririm.", "intent": "recommend", "product_name": "ayran"}`}
	persistence := &fakePersistence{}
	audit := &fakeAudit{}

	bridge := NewStreamingBridge(llmP, fakeTTS{}, persistence, audit, silentLog())
	bridge.Run(context.Background(), sess, "ne önerirsin")

	require.Eventually(t, func() bool {
		return len(em.jsonMessages()) > 0
	}, time.Second, 5*time.Millisecond)

	msgs := em.jsonMessages()
	recIdx, completeIdx := -1, -1
	for i, m := range msgs {
		switch m.(type) {
		case protocol.Recommendation:
			recIdx = i
		case protocol.AIComplete:
			completeIdx = i
		}
	}
	require.NotEqual(t, -1, recIdx, "expected a recommendation message")
	require.NotEqual(t, -1, completeIdx, "expected an ai_complete message")
	assert.Less(t, recIdx, completeIdx)
}

type assertError string

func (e assertError) Error() string { return string(e) }
