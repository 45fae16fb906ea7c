// Package live re-evaluates store queries after committed writes and hands
// subscribers only the most recent result.
package live

import "sync"

// Table names a store table that queries can depend on.
type Table string

const (
	Chats    Table = "chats"
	Messages Table = "messages"
)

// Bus fans out committed-write notifications to the subscribers of each table.
type Bus struct {
	mu     sync.Mutex
	nextID uint64
	subs   map[Table]map[uint64]func()
}

func NewBus() *Bus {
	return &Bus{subs: make(map[Table]map[uint64]func())}
}

// Subscribe registers notify for writes to any of tables. notify must not block.
func (b *Bus) Subscribe(tables []Table, notify func()) (unsubscribe func()) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.nextID++
	id := b.nextID
	for _, t := range tables {
		if b.subs[t] == nil {
			b.subs[t] = make(map[uint64]func())
		}
		b.subs[t][id] = notify
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			b.mu.Lock()
			defer b.mu.Unlock()
			for _, t := range tables {
				delete(b.subs[t], id)
			}
		})
	}
}

// Publish notifies every subscriber of the given tables once, even if it
// depends on several of them.
func (b *Bus) Publish(tables ...Table) {
	b.mu.Lock()
	targets := make(map[uint64]func())
	for _, t := range tables {
		for id, fn := range b.subs[t] {
			targets[id] = fn
		}
	}
	b.mu.Unlock()

	for _, fn := range targets {
		fn()
	}
}

// Subscribers reports how many subscriptions currently watch table.
func (b *Bus) Subscribers(table Table) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.subs[table])
}
