package cache

import (
	"container/list"
	"context"
	"sync"
	"time"
)

// MemoryOptions bound a MemoryStore. Zero values mean unbounded.
type MemoryOptions struct {
	// MaxEntries evicts the least recently recorded key beyond this size
	MaxEntries int
	// TTL forgets records older than this
	TTL time.Duration
	// Now replaces time.Now in tests
	Now func() time.Time
}

type memoryEntry struct {
	key        string
	modifiedAt int64
	recordedAt time.Time
}

// MemoryStore is a mutex-guarded Store. Records are kept in recording order so
// that both eviction policies only ever look at the front of the list.
type MemoryStore struct {
	mu      sync.Mutex
	opts    MemoryOptions
	entries map[string]*list.Element
	order   *list.List
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore(opts MemoryOptions) *MemoryStore {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &MemoryStore{
		opts:    opts,
		entries: make(map[string]*list.Element),
		order:   list.New(),
	}
}

// ShouldProcess implements Store.
func (s *MemoryStore) ShouldProcess(ctx context.Context, key string, modifiedAt time.Time) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.opts.Now()
	s.pruneLocked(now)

	if el, ok := s.entries[key]; ok {
		if modifiedAt.UnixNano() <= el.Value.(*memoryEntry).modifiedAt {
			return false, nil
		}
	}
	s.recordLocked(key, modifiedAt, now)
	return true, nil
}

// Record implements Store.
func (s *MemoryStore) Record(ctx context.Context, key string, modifiedAt time.Time) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.opts.Now()
	s.pruneLocked(now)
	s.recordLocked(key, modifiedAt, now)
	return nil
}

// Forget implements Store.
func (s *MemoryStore) Forget(ctx context.Context, key string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if el, ok := s.entries[key]; ok {
		s.removeLocked(el)
	}
	return nil
}

// Len implements Store.
func (s *MemoryStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.pruneLocked(s.opts.Now())
	return len(s.entries)
}

// Reset drops every record.
func (s *MemoryStore) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.entries = make(map[string]*list.Element)
	s.order.Init()
}

// Close implements Store.
func (s *MemoryStore) Close() error {
	s.Reset()
	return nil
}

func (s *MemoryStore) recordLocked(key string, modifiedAt, now time.Time) {
	if el, ok := s.entries[key]; ok {
		entry := el.Value.(*memoryEntry)
		entry.modifiedAt = modifiedAt.UnixNano()
		entry.recordedAt = now
		s.order.MoveToBack(el)
		return
	}

	s.entries[key] = s.order.PushBack(&memoryEntry{
		key:        key,
		modifiedAt: modifiedAt.UnixNano(),
		recordedAt: now,
	})
	for s.opts.MaxEntries > 0 && len(s.entries) > s.opts.MaxEntries {
		s.removeLocked(s.order.Front())
	}
}

func (s *MemoryStore) pruneLocked(now time.Time) {
	if s.opts.TTL <= 0 {
		return
	}
	for el := s.order.Front(); el != nil; el = s.order.Front() {
		if now.Sub(el.Value.(*memoryEntry).recordedAt) <= s.opts.TTL {
			return
		}
		s.removeLocked(el)
	}
}

func (s *MemoryStore) removeLocked(el *list.Element) {
	delete(s.entries, el.Value.(*memoryEntry).key)
	s.order.Remove(el)
}
