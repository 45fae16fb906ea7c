package live

import (
	"context"
	"sync"
	"time"
)

// QueryFunc is a pure read over the current store state.
type QueryFunc[T any] func(ctx context.Context) (T, error)

// Query keeps the result of fn current with respect to writes on its tables.
// Only the latest result is ever buffered: a result nobody received before the
// next one was computed is dropped.
type Query[T any] struct {
	fn   QueryFunc[T]
	opts options

	dirty   chan struct{}
	results chan T

	mu        sync.Mutex
	latest    T
	hasLatest bool
	err       error

	cancel      context.CancelFunc
	done        chan struct{}
	unsubscribe func()
	closeOnce   sync.Once
}

// Watch starts a query that is computed immediately and again after every
// committed write to one of tables, until ctx is done or Close is called.
func Watch[T any](ctx context.Context, bus *Bus, tables []Table, fn QueryFunc[T], opts ...Option) *Query[T] {
	ctx, cancel := context.WithCancel(ctx)
	q := &Query[T]{
		fn:      fn,
		opts:    buildOptions(opts),
		dirty:   make(chan struct{}, 1),
		results: make(chan T, 1),
		cancel:  cancel,
		done:    make(chan struct{}),
	}
	q.dirty <- struct{}{}
	// subscribe before the first computation so no write can slip between them
	q.unsubscribe = bus.Subscribe(tables, q.invalidate)

	go q.run(ctx)
	return q
}

func (q *Query[T]) invalidate() {
	select {
	case q.dirty <- struct{}{}:
	default:
		// a recomputation is already pending and will observe this write
	}
}

func (q *Query[T]) run(ctx context.Context) {
	defer close(q.done)
	defer q.unsubscribe()

	for {
		select {
		case <-ctx.Done():
			return
		case <-q.dirty:
			q.recompute(ctx)
		}
	}
}

func (q *Query[T]) recompute(ctx context.Context) {
	start := time.Now()
	value, err := q.fn(ctx)
	if ctx.Err() != nil {
		return
	}
	q.opts.observer.QueryRecomputed(q.opts.name, time.Since(start), err)

	if err != nil {
		q.opts.logger.Warn("live query failed", "query", q.opts.name, "error", err)
		q.mu.Lock()
		q.err = err
		q.mu.Unlock()
		return
	}

	q.mu.Lock()
	q.latest = value
	q.hasLatest = true
	q.err = nil
	q.mu.Unlock()

	q.offer(value)
}

// offer replaces any undelivered result. run is the only sender, so after
// draining there is always room.
func (q *Query[T]) offer(value T) {
	select {
	case q.results <- value:
		return
	default:
	}
	select {
	case <-q.results:
		q.opts.observer.ResultSuperseded(q.opts.name)
	default:
	}
	q.results <- value
}

// Updates delivers results as they are computed.
func (q *Query[T]) Updates() <-chan T { return q.results }

// Latest returns the most recent successful result.
func (q *Query[T]) Latest() (T, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.latest, q.hasLatest
}

// Err returns the error of the last computation, nil if it succeeded.
func (q *Query[T]) Err() error {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.err
}

// Done is closed once the query has stopped.
func (q *Query[T]) Done() <-chan struct{} { return q.done }

// Close stops the query and waits for an in-flight computation to finish.
func (q *Query[T]) Close() {
	q.closeOnce.Do(func() {
		q.cancel()
		<-q.done
	})
}
