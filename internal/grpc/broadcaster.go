package grpc

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/mr1hm/quake-explorer/internal/dashboard"
)

// subscriberBuffer bounds how far a subscriber may fall behind before its
// oldest snapshots are dropped.
const subscriberBuffer = 16

// Broadcaster fans snapshots out to stream subscribers. It is registered as
// a dashboard renderer, so Broadcast never blocks.
type Broadcaster struct {
	subscribers map[uint64]chan *dashboard.Snapshot
	nextID      atomic.Uint64
	dropped     atomic.Uint64
	mu          sync.RWMutex
}

func NewBroadcaster() *Broadcaster {
	return &Broadcaster{
		subscribers: make(map[uint64]chan *dashboard.Snapshot),
	}
}

func (b *Broadcaster) Subscribe() (uint64, chan *dashboard.Snapshot) {
	id := b.nextID.Add(1)
	ch := make(chan *dashboard.Snapshot, subscriberBuffer)

	b.mu.Lock()
	b.subscribers[id] = ch
	b.mu.Unlock()

	return id, ch
}

func (b *Broadcaster) Unsubscribe(id uint64) {
	b.mu.Lock()
	if ch, ok := b.subscribers[id]; ok {
		close(ch)
		delete(b.subscribers, id)
	}
	b.mu.Unlock()
}

func (b *Broadcaster) Broadcast(s *dashboard.Snapshot) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	for _, ch := range b.subscribers {
		deliverLatest(ch, s, &b.dropped)
	}
}

// deliverLatest sends s without blocking. A full buffer loses its oldest
// snapshot so the subscriber always ends on the newest one.
func deliverLatest(ch chan *dashboard.Snapshot, s *dashboard.Snapshot, dropped *atomic.Uint64) {
	for {
		select {
		case ch <- s:
			return
		default:
		}
		select {
		case <-ch:
			dropped.Add(1)
		default:
		}
	}
}

// Render implements dashboard.Renderer.
func (b *Broadcaster) Render(_ context.Context, s *dashboard.Snapshot) error {
	b.Broadcast(s)
	return nil
}

func (b *Broadcaster) SubscriberCount() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subscribers)
}

// Dropped is the number of stale snapshots discarded for slow subscribers.
func (b *Broadcaster) Dropped() uint64 {
	return b.dropped.Load()
}

// Close closes all subscriber channels, causing streams to exit gracefully
func (b *Broadcaster) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	for id, ch := range b.subscribers {
		close(ch)
		delete(b.subscribers, id)
	}
}
