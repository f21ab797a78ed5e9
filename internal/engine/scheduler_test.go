package engine

import (
	"context"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tabletalk/voicegate/internal/providers/stt"
)

type fakeEmitter struct {
	mu   sync.Mutex
	json []any
	bin  [][]byte
}

func (f *fakeEmitter) SendJSON(msg any) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.json = append(f.json, msg)
	return nil
}

func (f *fakeEmitter) SendBinary(frame []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.bin = append(f.bin, frame)
	return nil
}

func (f *fakeEmitter) jsonMessages() []any {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]any, len(f.json))
	copy(out, f.json)
	return out
}

type fakeSTT struct {
	result stt.Result
	err    error
	calls  int
	mu     sync.Mutex
}

func (f *fakeSTT) Transcribe(ctx context.Context, sessionID string, audio []byte, language string) (stt.Result, error) {
	f.mu.Lock()
	f.calls++
	f.mu.Unlock()
	return f.result, f.err
}

func (f *fakeSTT) Close() error { return nil }

func silentLog() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	l.SetLevel(logrus.PanicLevel)
	return l
}

func TestSchedulerTickSkipsWhenPredicateFalse(t *testing.T) {
	sess := NewSession("sess-1", "qr-1", "table-1")
	sess.SetEmitter(&fakeEmitter{})
	sess.AddAudioChunk(make([]byte, 100))

	f := &fakeSTT{result: stt.Result{Text: "merhaba"}}
	sched := NewPartialSTTScheduler(f, 1200*time.Millisecond, 500*time.Millisecond, silentLog())
	sched.Tick(context.Background(), sess)

	assert.Equal(t, 0, f.calls)
}

func TestSchedulerTickEmitsPartialTranscript(t *testing.T) {
	sess := NewSession("sess-1", "qr-1", "table-1")
	em := &fakeEmitter{}
	sess.SetEmitter(em)
	sess.AddAudioChunk(make([]byte, 40000))

	f := &fakeSTT{result: stt.Result{Text: "bir cola", Confidence: 0.9}}
	sched := NewPartialSTTScheduler(f, 1200*time.Millisecond, 500*time.Millisecond, silentLog())
	sched.Tick(context.Background(), sess)

	require.Eventually(t, func() bool {
		return len(em.jsonMessages()) == 1
	}, time.Second, 5*time.Millisecond)
}

func TestSchedulerTickSkipsWhenAlreadyInFlight(t *testing.T) {
	sess := NewSession("sess-1", "qr-1", "table-1")
	sess.SetEmitter(&fakeEmitter{})
	sess.AddAudioChunk(make([]byte, 40000))
	require.True(t, sess.TryLockSTT()) // simulate a call already in flight

	f := &fakeSTT{result: stt.Result{Text: "merhaba"}}
	sched := NewPartialSTTScheduler(f, 1200*time.Millisecond, 500*time.Millisecond, silentLog())
	sched.Tick(context.Background(), sess)

	assert.Equal(t, 0, f.calls)
}
