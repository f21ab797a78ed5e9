package engine

import (
	"context"
	"sync"
)

// TaskKey names the four registry slots the spec allows (§3, §8: at
// most 4 entries, one per key).
type TaskKey string

const (
	TaskSTT    TaskKey = "stt"
	TaskLLM    TaskKey = "llm"
	TaskTTS    TaskKey = "tts"
	TaskWarmer TaskKey = "warmer"
)

// task pairs a cancel function with a done channel closed when the
// goroutine backing it actually returns, so Cancel/CancelAll can observe
// settlement rather than just requesting it.
type task struct {
	cancel context.CancelFunc
	done   chan struct{}
}

// TaskRegistry is the per-session map from logical key to the
// currently-running cancellable task for that slot (§3). Replacing a
// key cancels the previous task before inserting the new one.
type TaskRegistry struct {
	mu    sync.Mutex
	tasks map[TaskKey]*task
}

func NewTaskRegistry() *TaskRegistry {
	return &TaskRegistry{tasks: make(map[TaskKey]*task, 4)}
}

// Register cancels any existing task under key, then installs a fresh
// cancellable context derived from parent and returns it for the caller
// to run its goroutine with. The caller MUST close done (via the
// returned release func) when its goroutine returns.
func (r *TaskRegistry) Register(parent context.Context, key TaskKey) (ctx context.Context, release func()) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if existing, ok := r.tasks[key]; ok {
		existing.cancel()
	}

	ctx, cancel := context.WithCancel(parent)
	done := make(chan struct{})
	r.tasks[key] = &task{cancel: cancel, done: done}

	released := false
	release = func() {
		if released {
			return
		}
		released = true
		close(done)
	}
	return ctx, release
}

// Cancel cancels the task under key, if any, and waits for it to settle.
func (r *TaskRegistry) Cancel(key TaskKey) {
	r.mu.Lock()
	t, ok := r.tasks[key]
	if ok {
		delete(r.tasks, key)
	}
	r.mu.Unlock()

	if !ok {
		return
	}
	t.cancel()
	<-t.done
}

// CancelAll cancels every task in the registry and empties it (§4.5).
func (r *TaskRegistry) CancelAll() {
	r.mu.Lock()
	tasks := make([]*task, 0, len(r.tasks))
	for k, t := range r.tasks {
		tasks = append(tasks, t)
		delete(r.tasks, k)
	}
	r.mu.Unlock()

	for _, t := range tasks {
		t.cancel()
	}
	for _, t := range tasks {
		<-t.done
	}
}

func (r *TaskRegistry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.tasks)
}
