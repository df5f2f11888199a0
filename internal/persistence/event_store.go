package persistence

import (
	"context"
	"sync"
	"time"

	"github.com/petrijr/wizard/pkg/api"
)

// NoopEventStore discards all events.
type NoopEventStore struct{}

func (NoopEventStore) AppendEvent(ctx context.Context, ev api.WizardEvent) error { return nil }
func (NoopEventStore) ListEvents(ctx context.Context, prefix string) ([]api.WizardEvent, error) {
	return nil, nil
}

// MemoryEventStore keeps events in memory, per prefix, in append order.
type MemoryEventStore struct {
	mu     sync.Mutex
	seq    int64
	events map[string][]api.WizardEvent
}

// NewMemoryEventStore creates an empty MemoryEventStore.
func NewMemoryEventStore() *MemoryEventStore {
	return &MemoryEventStore{
		events: make(map[string][]api.WizardEvent),
	}
}

var _ api.EventStore = (*MemoryEventStore)(nil)

func (s *MemoryEventStore) AppendEvent(ctx context.Context, ev api.WizardEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.seq++
	ev.Seq = s.seq
	if ev.At.IsZero() {
		ev.At = time.Now()
	}
	s.events[ev.Prefix] = append(s.events[ev.Prefix], ev)
	return nil
}

func (s *MemoryEventStore) ListEvents(ctx context.Context, prefix string) ([]api.WizardEvent, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	evs := s.events[prefix]
	out := make([]api.WizardEvent, len(evs))
	copy(out, evs)
	return out, nil
}
