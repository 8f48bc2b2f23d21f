package notify

import (
	"context"
	"sync"
)

type memoryStore struct {
	mu    sync.RWMutex
	items []Notification
}

// NewMemoryStore returns a Store that lives for the process lifetime.
func NewMemoryStore() Store {
	return &memoryStore{}
}

func (s *memoryStore) Append(_ context.Context, n Notification) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.items = append([]Notification{n}, s.items...)

	return nil
}

func (s *memoryStore) List(_ context.Context) ([]Notification, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	// Return a copy so callers cannot mutate the log
	out := make([]Notification, len(s.items))
	copy(out, s.items)

	return out, nil
}

func (s *memoryStore) MarkAllRead(_ context.Context) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	changed := 0
	for i := range s.items {
		if !s.items[i].Read {
			s.items[i].Read = true
			changed++
		}
	}

	return changed, nil
}

func (s *memoryStore) UnreadCount(_ context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	n := 0
	for _, item := range s.items {
		if !item.Read {
			n++
		}
	}

	return n, nil
}

func (*memoryStore) Close() error {
	return nil
}
