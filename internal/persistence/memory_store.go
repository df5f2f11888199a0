package persistence

import (
	"context"
	"sync"

	"github.com/petrijr/wizard/pkg/api"
)

// MemoryStateStore is a goroutine-safe StateStore backed by a map.
//
// States are held in encoded form, so Load always hands out an isolated
// copy and callers can never alias the store's view of an instance.
type MemoryStateStore struct {
	mu     sync.RWMutex
	states map[string][]byte
}

// NewMemoryStateStore creates an empty MemoryStateStore.
func NewMemoryStateStore() *MemoryStateStore {
	return &MemoryStateStore{
		states: make(map[string][]byte),
	}
}

var _ api.StateStore = (*MemoryStateStore)(nil)

func (s *MemoryStateStore) Load(ctx context.Context, prefix string) (*api.WizardState, error) {
	s.mu.RLock()
	data, ok := s.states[prefix]
	s.mu.RUnlock()

	if !ok {
		return api.NewWizardState(), nil
	}
	return DecodeState(data)
}

func (s *MemoryStateStore) Save(ctx context.Context, prefix string, state *api.WizardState) error {
	data, err := EncodeState(state)
	if err != nil {
		return err
	}

	s.mu.Lock()
	s.states[prefix] = data
	s.mu.Unlock()
	return nil
}

func (s *MemoryStateStore) Reset(ctx context.Context, prefix string) error {
	s.mu.Lock()
	delete(s.states, prefix)
	s.mu.Unlock()
	return nil
}
