package live

import (
	"context"
	"sync"
)

// KeyedQueryFunc computes a query result for one dependency key, such as the
// active chat id or the sidebar search text.
type KeyedQueryFunc[K comparable, T any] func(ctx context.Context, key K) (T, error)

// Result is a query result tagged with the key it was computed for.
type Result[K comparable, T any] struct {
	Key   K
	Value T
}

// Binding re-subscribes a query whenever its dependency key changes. The
// previous computation is dropped before the new one starts, and results of
// an old key are never delivered after SetKey returns.
type Binding[K comparable, T any] struct {
	ctx    context.Context
	bus    *Bus
	tables []Table
	fn     KeyedQueryFunc[K, T]
	opts   []Option

	mu      sync.Mutex
	key     K
	bound   bool
	gen     uint64
	current *Query[T]
	out     chan Result[K, T]
	closed  bool
}

func Bind[K comparable, T any](ctx context.Context, bus *Bus, tables []Table, fn KeyedQueryFunc[K, T], opts ...Option) *Binding[K, T] {
	return &Binding[K, T]{
		ctx:    ctx,
		bus:    bus,
		tables: tables,
		fn:     fn,
		opts:   opts,
		out:    make(chan Result[K, T], 1),
	}
}

// SetKey switches the binding to key. Setting the current key again is a no-op.
func (b *Binding[K, T]) SetKey(key K) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed || (b.bound && b.key == key) {
		return
	}
	if b.current != nil {
		b.current.Close()
	}
	// a result of the previous key may still be buffered
	select {
	case <-b.out:
	default:
	}

	b.gen++
	b.key = key
	b.bound = true
	gen := b.gen
	q := Watch(b.ctx, b.bus, b.tables, func(ctx context.Context) (T, error) {
		return b.fn(ctx, key)
	}, b.opts...)
	b.current = q
	go b.forward(q, gen, key)
}

func (b *Binding[K, T]) forward(q *Query[T], gen uint64, key K) {
	for {
		select {
		case <-q.Done():
			return
		case value := <-q.Updates():
			b.mu.Lock()
			if b.gen == gen && !b.closed {
				b.offer(Result[K, T]{Key: key, Value: value})
			}
			b.mu.Unlock()
		}
	}
}

// offer is called with b.mu held; forwarders are the only senders.
func (b *Binding[K, T]) offer(r Result[K, T]) {
	select {
	case b.out <- r:
		return
	default:
	}
	select {
	case <-b.out:
	default:
	}
	b.out <- r
}

// Key returns the current dependency key.
func (b *Binding[K, T]) Key() (K, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.key, b.bound
}

// Updates delivers the latest result of the current key.
func (b *Binding[K, T]) Updates() <-chan Result[K, T] { return b.out }

// Latest returns the most recent result for the current key.
func (b *Binding[K, T]) Latest() (Result[K, T], bool) {
	b.mu.Lock()
	q, key := b.current, b.key
	b.mu.Unlock()

	if q == nil {
		return Result[K, T]{}, false
	}
	value, ok := q.Latest()
	return Result[K, T]{Key: key, Value: value}, ok
}

func (b *Binding[K, T]) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.closed = true
	if b.current != nil {
		b.current.Close()
		b.current = nil
	}
}
