package viewmodel

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestTasksWaitBlocksUntilIdle(t *testing.T) {
	tk := newTasks(discardLogger())
	release := make(chan struct{})
	var finished atomic.Bool

	tk.goSafe(func() {
		<-release
		finished.Store(true)
	}, func() {})

	waited := make(chan struct{})
	go func() {
		tk.wait()
		close(waited)
	}()

	select {
	case <-waited:
		t.Fatal("wait returned while a task was running")
	case <-time.After(20 * time.Millisecond):
	}

	close(release)
	<-waited
	assert.True(t, finished.Load())
}

func TestTasksRecoversPanic(t *testing.T) {
	tk := newTasks(discardLogger())
	var recovered atomic.Bool

	tk.goSafe(func() { panic("boom") }, func() { recovered.Store(true) })
	tk.wait()

	assert.True(t, recovered.Load())
}

func TestTasksConcurrentStartAndWait(t *testing.T) {
	tk := newTasks(discardLogger())
	var runs atomic.Int64

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 500; j++ {
				tk.goSafe(func() { runs.Add(1) }, func() {})
				tk.wait()
			}
		}()
	}
	wg.Wait()
	tk.wait()

	assert.Equal(t, int64(8*500), runs.Load())
}
