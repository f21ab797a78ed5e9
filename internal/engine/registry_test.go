package engine

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTaskRegistryRegisterCancelsPrevious(t *testing.T) {
	r := NewTaskRegistry()

	firstCancelled := make(chan struct{})
	ctx1, release1 := r.Register(context.Background(), TaskLLM)
	go func() {
		<-ctx1.Done()
		close(firstCancelled)
		release1()
	}()

	require.Equal(t, 1, r.Len())

	_, release2 := r.Register(context.Background(), TaskLLM)
	defer release2()

	select {
	case <-firstCancelled:
	case <-time.After(time.Second):
		t.Fatal("expected the first task's context to be cancelled")
	}
	assert.Equal(t, 1, r.Len())
}

func TestTaskRegistryCancelSpecificKey(t *testing.T) {
	r := NewTaskRegistry()
	ctx, release := r.Register(context.Background(), TaskSTT)
	go func() {
		<-ctx.Done()
		release()
	}()

	r.Cancel(TaskSTT)
	assert.Equal(t, 0, r.Len())
}

func TestTaskRegistryCancelAll(t *testing.T) {
	r := NewTaskRegistry()
	for _, key := range []TaskKey{TaskSTT, TaskLLM, TaskTTS} {
		ctx, release := r.Register(context.Background(), key)
		go func() {
			<-ctx.Done()
			release()
		}()
	}

	require.Equal(t, 3, r.Len())
	r.CancelAll()
	assert.Equal(t, 0, r.Len())
}

func TestTaskRegistryChildContextCancelsWithParent(t *testing.T) {
	r := NewTaskRegistry()
	llmCtx, releaseLLM := r.Register(context.Background(), TaskLLM)
	defer releaseLLM()

	ttsDone := make(chan struct{})
	ttsCtx, releaseTTS := r.Register(llmCtx, TaskTTS)
	go func() {
		<-ttsCtx.Done()
		close(ttsDone)
		releaseTTS()
	}()

	// replacing the LLM task cancels llmCtx, which must cascade to the
	// TTS task registered as its child (§4.8's corrective-restart cascade).
	_, release := r.Register(context.Background(), TaskLLM)
	defer release()

	select {
	case <-ttsDone:
	case <-time.After(time.Second):
		t.Fatal("expected TTS context to be cancelled when its parent LLM task was replaced")
	}
}
