package domain

import (
	apperrors "github.com/kurihiro0119/github-repo-finder/internal/errors"
)

// Stream runs fn on its own goroutine and returns a channel that yields
// Loading, then the terminal response returned by fn, then closes.
// A panic in fn is reported as Error(GENERIC).
func Stream[T any](fn func() Response[T]) <-chan Response[T] {
	ch := make(chan Response[T], 2)
	ch <- Loading[T]()

	go func() {
		defer close(ch)
		defer func() {
			if recover() != nil {
				ch <- Failure[T](apperrors.ErrCodeGeneric)
			}
		}()

		result := fn()
		if !result.IsTerminal() {
			result = Failure[T](apperrors.ErrCodeGeneric)
		}
		ch <- result
	}()

	return ch
}

// Await drains a response stream and returns its terminal value. A stream
// that closes without a terminal value yields Error(GENERIC).
func Await[T any](ch <-chan Response[T]) Response[T] {
	if ch == nil {
		return Failure[T](apperrors.ErrCodeGeneric)
	}
	for r := range ch {
		if r.IsTerminal() {
			// keep draining so the producer never blocks
			go func() {
				for range ch {
				}
			}()
			return r
		}
	}
	return Failure[T](apperrors.ErrCodeGeneric)
}
