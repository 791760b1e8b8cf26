// Package state provides an observable value container for view state.
package state

import (
	"sync"

	"github.com/google/uuid"
)

// DefaultBuffer is the subscription buffer used when none is given
const DefaultBuffer = 16

// Cell holds a current value that can be read synchronously and whose
// changes are delivered to every subscriber. Writes are serialized. A
// subscriber that falls behind loses its oldest pending value; the writer
// never blocks.
type Cell[T any] struct {
	mu    sync.Mutex
	value T
	subs  map[string]chan T
}

// NewCell creates a cell holding initial
func NewCell[T any](initial T) *Cell[T] {
	return &Cell[T]{
		value: initial,
		subs:  make(map[string]chan T),
	}
}

// Get returns the current value
func (c *Cell[T]) Get() T {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.value
}

// Set replaces the current value and notifies subscribers
func (c *Cell[T]) Set(v T) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.setLocked(v)
}

// Update applies fn to the current value atomically and publishes the
// result. fn must not call back into the cell.
func (c *Cell[T]) Update(fn func(T) T) T {
	c.mu.Lock()
	defer c.mu.Unlock()
	v := fn(c.value)
	c.setLocked(v)
	return v
}

// CompareAndSet publishes v only if keep reports true for the current value
func (c *Cell[T]) CompareAndSet(keep func(T) bool, v T) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !keep(c.value) {
		return false
	}
	c.setLocked(v)
	return true
}

func (c *Cell[T]) setLocked(v T) {
	c.value = v
	for _, ch := range c.subs {
		select {
		case ch <- v:
		default:
			// drop the oldest pending value to make room
			select {
			case <-ch:
			default:
			}
			select {
			case ch <- v:
			default:
			}
		}
	}
}

// Subscribe registers a subscriber that receives every value set after the
// call. The returned cancel func unregisters it and closes the channel.
func (c *Cell[T]) Subscribe(buffer int) (<-chan T, func()) {
	if buffer <= 0 {
		buffer = DefaultBuffer
	}
	id := uuid.New().String()
	ch := make(chan T, buffer)

	c.mu.Lock()
	c.subs[id] = ch
	c.mu.Unlock()

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			c.mu.Lock()
			delete(c.subs, id)
			c.mu.Unlock()
			close(ch)
		})
	}
	return ch, cancel
}

// Subscribers returns the number of active subscriptions
func (c *Cell[T]) Subscribers() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.subs)
}
