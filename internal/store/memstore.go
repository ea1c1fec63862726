// Package store provides JobState persistence: an in-memory store for
// tests and single-process runs, and a sqlite store for durable
// deployments. Both enforce idempotency-key uniqueness on create.
package store

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"sync"

	"articleforge/internal/model"
	"articleforge/internal/ports"
)

// MemStore keeps job states in a mutex-guarded map. States are stored as
// JSON so callers never share memory with the store.
type MemStore struct {
	mu     sync.RWMutex
	states map[string][]byte
}

var _ ports.StateStore = (*MemStore)(nil)

// NewMemStore returns an empty in-memory state store.
func NewMemStore() *MemStore {
	return &MemStore{states: make(map[string][]byte)}
}

func (m *MemStore) Create(_ context.Context, state *model.JobState) error {
	raw, err := encodeState(state)
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.states[state.Key()]; ok {
		return fmt.Errorf("create %q: %w", state.Key(), ports.ErrExists)
	}
	m.states[state.Key()] = raw
	return nil
}

func (m *MemStore) Get(_ context.Context, key string) (*model.JobState, error) {
	m.mu.RLock()
	raw, ok := m.states[key]
	m.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("get %q: %w", key, ports.ErrNotFound)
	}
	return decodeState(raw)
}

func (m *MemStore) Put(_ context.Context, state *model.JobState) error {
	raw, err := encodeState(state)
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.states[state.Key()]; !ok {
		return fmt.Errorf("put %q: %w", state.Key(), ports.ErrNotFound)
	}
	m.states[state.Key()] = raw
	return nil
}

func (m *MemStore) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.states, key)
	return nil
}

func (m *MemStore) List(_ context.Context) ([]*model.JobState, error) {
	m.mu.RLock()
	keys := make([]string, 0, len(m.states))
	for k := range m.states {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	raws := make([][]byte, 0, len(keys))
	for _, k := range keys {
		raws = append(raws, m.states[k])
	}
	m.mu.RUnlock()

	out := make([]*model.JobState, 0, len(raws))
	for _, raw := range raws {
		st, err := decodeState(raw)
		if err != nil {
			return nil, err
		}
		out = append(out, st)
	}
	return out, nil
}

func encodeState(state *model.JobState) ([]byte, error) {
	raw, err := json.Marshal(state)
	if err != nil {
		return nil, fmt.Errorf("encode job state: %w", err)
	}
	return raw, nil
}

func decodeState(raw []byte) (*model.JobState, error) {
	var st model.JobState
	if err := json.Unmarshal(raw, &st); err != nil {
		return nil, fmt.Errorf("decode job state: %w", err)
	}
	return &st, nil
}
