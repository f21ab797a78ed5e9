package engine

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

type fakeLocker struct {
	leader int32
}

func (f *fakeLocker) TryAcquire(ctx context.Context) (bool, error) {
	return atomic.LoadInt32(&f.leader) == 1, nil
}

func (f *fakeLocker) Release(ctx context.Context) error { return nil }

func TestWarmKeeperSkipsPingWhenNotLeader(t *testing.T) {
	sttP := &fakeSTT{}
	ttsP := fakeTTS{}
	lock := &fakeLocker{leader: 0}

	w := NewWarmKeeper(sttP, ttsP, 10*time.Millisecond, lock, silentLog())
	w.ping(context.Background())

	assert.Equal(t, 0, sttP.calls)
}

func TestWarmKeeperPingsWhenLeader(t *testing.T) {
	sttP := &fakeSTT{}
	ttsP := fakeTTS{}
	lock := &fakeLocker{leader: 1}

	w := NewWarmKeeper(sttP, ttsP, 10*time.Millisecond, lock, silentLog())
	w.ping(context.Background())

	assert.Equal(t, 1, sttP.calls)
}

func TestWarmKeeperStartStopIsIdempotent(t *testing.T) {
	sttP := &fakeSTT{}
	ttsP := fakeTTS{}

	w := NewWarmKeeper(sttP, ttsP, time.Hour, nil, silentLog())
	w.Start(context.Background())
	w.Start(context.Background()) // no-op, must not deadlock or panic
	w.Stop()
	w.Stop() // no-op
}
