package viewmodel

import (
	"log/slog"
	"sync"
)

// tasks tracks the goroutines a controller starts. wait may run while other
// callers keep starting work, which sync.WaitGroup does not allow.
type tasks struct {
	mu     sync.Mutex
	idle   *sync.Cond
	active int
	logger *slog.Logger
}

func newTasks(logger *slog.Logger) *tasks {
	t := &tasks{logger: logger}
	t.idle = sync.NewCond(&t.mu)
	return t
}

// goSafe runs fn on a new goroutine. A panic in fn is logged and onPanic
// runs in its place.
func (t *tasks) goSafe(fn func(), onPanic func()) {
	t.mu.Lock()
	t.active++
	t.mu.Unlock()

	go func() {
		defer t.done()
		defer func() {
			if r := recover(); r != nil {
				t.logger.Error("recovered panic", "panic", r)
				onPanic()
			}
		}()
		fn()
	}()
}

func (t *tasks) done() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.active--
	if t.active == 0 {
		t.idle.Broadcast()
	}
}

// wait blocks until no tracked goroutine is running
func (t *tasks) wait() {
	t.mu.Lock()
	defer t.mu.Unlock()
	for t.active > 0 {
		t.idle.Wait()
	}
}
