// Package fetch runs a read operation in the background and keeps its last
// successful result. Failures are reported to a Notifier and never returned.
package fetch

import (
	"context"
	"sync"

	"go.uber.org/zap"
)

// ErrorTitle is the notice title used for every failed fetch.
const ErrorTitle = "Error"

// Notifier shows a failure to the user.
type Notifier interface {
	Notify(title, message string)
}

// NotifierFunc adapts a function to Notifier.
type NotifierFunc func(title, message string)

func (f NotifierFunc) Notify(title, message string) { f(title, message) }

// LogNotifier reports failures as warnings.
func LogNotifier(logger *zap.Logger) Notifier {
	return NotifierFunc(func(title, message string) {
		logger.Warn("fetch failed", zap.String("title", title), zap.String("message", message))
	})
}

// Func produces the data. It is called once per fetch.
type Func[T any] func(ctx context.Context) (T, error)

// Loader holds the result of Func together with a loading flag.
// Overlapping fetches are allowed; whichever completes last sets the data.
type Loader[T any] struct {
	fn       Func[T]
	notifier Notifier

	mu       sync.Mutex
	data     T
	hasData  bool
	inFlight int
	idle     chan struct{} // closed while no fetch is running
}

// New creates a loader and starts the first fetch.
func New[T any](ctx context.Context, fn Func[T], notifier Notifier) *Loader[T] {
	idle := make(chan struct{})
	close(idle)

	l := &Loader[T]{fn: fn, notifier: notifier, idle: idle}
	l.Refetch(ctx)
	return l
}

// Refetch starts another fetch without cancelling the ones in flight.
// The returned channel is closed once this fetch has settled.
func (l *Loader[T]) Refetch(ctx context.Context) <-chan struct{} {
	l.mu.Lock()
	if l.inFlight == 0 {
		l.idle = make(chan struct{})
	}
	l.inFlight++
	l.mu.Unlock()

	done := make(chan struct{})
	go func() {
		defer close(done)
		l.run(ctx)
	}()
	return done
}

func (l *Loader[T]) run(ctx context.Context) {
	v, err := l.fn(ctx)
	if err != nil && l.notifier != nil {
		l.notifier.Notify(ErrorTitle, err.Error())
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	if err == nil {
		l.data = v
		l.hasData = true
	}
	l.inFlight--
	if l.inFlight == 0 {
		close(l.idle)
	}
}

// Data returns the latest successful result. ok is false until one exists.
func (l *Loader[T]) Data() (data T, ok bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.data, l.hasData
}

// Loading reports whether any fetch is in flight.
func (l *Loader[T]) Loading() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.inFlight > 0
}

// Wait blocks until no fetch is in flight or ctx is done.
func (l *Loader[T]) Wait(ctx context.Context) error {
	l.mu.Lock()
	idle := l.idle
	l.mu.Unlock()

	select {
	case <-idle:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
