// internal/infrastructure/storage/memory.go
package storage

import (
	"context"
	"sync"
)

// MemoryHub is an in-process stand-in for the shared durable store. Every Store it
// opens sees the same data; notifications are delivered asynchronously.
type MemoryHub struct {
	mu     sync.RWMutex
	data   map[string]string
	subs   map[int]*memorySubscription
	nextID int
}

// NewMemoryHub creates an empty hub
func NewMemoryHub() *MemoryHub {
	return &MemoryHub{
		data: make(map[string]string),
		subs: make(map[int]*memorySubscription),
	}
}

// Open returns the store view of one execution context
func (h *MemoryHub) Open(origin, contextID string) Store {
	return &MemoryStore{hub: h, origin: origin, contextID: contextID}
}

// Raw returns the stored value for an origin key, bypassing any context
func (h *MemoryHub) Raw(origin, key string) (string, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	value, ok := h.data[origin+":"+key]
	return value, ok
}

func (h *MemoryHub) publish(origin string, change Change) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, sub := range h.subs {
		if sub.origin != origin || sub.key != change.Key || sub.contextID == change.ContextID {
			continue
		}
		go sub.deliver(change)
	}
}

// MemoryStore is one execution context's view of a MemoryHub
type MemoryStore struct {
	hub       *MemoryHub
	origin    string
	contextID string
}

func (s *MemoryStore) ContextID() string {
	return s.contextID
}

func (s *MemoryStore) Get(_ context.Context, key string) (string, error) {
	value, ok := s.hub.Raw(s.origin, key)
	if !ok {
		return "", ErrNotFound
	}
	return value, nil
}

func (s *MemoryStore) Set(_ context.Context, key, value string) error {
	s.hub.mu.Lock()
	s.hub.data[s.origin+":"+key] = value
	s.hub.mu.Unlock()

	s.hub.publish(s.origin, Change{Key: key, ContextID: s.contextID, Op: OpSet})
	return nil
}

func (s *MemoryStore) Delete(_ context.Context, key string) error {
	s.hub.mu.Lock()
	delete(s.hub.data, s.origin+":"+key)
	s.hub.mu.Unlock()

	s.hub.publish(s.origin, Change{Key: key, ContextID: s.contextID, Op: OpDelete})
	return nil
}

func (s *MemoryStore) Subscribe(ctx context.Context, key string, fn func(Change)) (Subscription, error) {
	sub := &memorySubscription{
		hub:       s.hub,
		origin:    s.origin,
		contextID: s.contextID,
		key:       key,
		fn:        fn,
		ctx:       ctx,
	}

	s.hub.mu.Lock()
	sub.id = s.hub.nextID
	s.hub.nextID++
	s.hub.subs[sub.id] = sub
	s.hub.mu.Unlock()

	return sub, nil
}

type memorySubscription struct {
	hub       *MemoryHub
	id        int
	origin    string
	contextID string
	key       string
	fn        func(Change)
	ctx       context.Context

	mu     sync.Mutex
	closed bool
}

func (s *memorySubscription) deliver(change Change) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed || s.ctx.Err() != nil {
		return
	}
	s.fn(change)
}

func (s *memorySubscription) Close() error {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()

	s.hub.mu.Lock()
	delete(s.hub.subs, s.id)
	s.hub.mu.Unlock()
	return nil
}
