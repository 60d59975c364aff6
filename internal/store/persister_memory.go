package store

import (
	"context"
	"sync"
)

// MemoryPersister keeps snapshots in process memory; state is lost on restart.
type MemoryPersister struct {
	mu   sync.RWMutex
	data map[string][]byte
}

func NewMemoryPersister() *MemoryPersister {
	return &MemoryPersister{data: map[string][]byte{}}
}

func (p *MemoryPersister) Load(_ context.Context, sessionID string) ([]byte, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	payload, ok := p.data[sessionID]
	if !ok {
		return nil, ErrNoState
	}
	out := make([]byte, len(payload))
	copy(out, payload)
	return out, nil
}

func (p *MemoryPersister) Save(_ context.Context, sessionID string, payload []byte) error {
	stored := make([]byte, len(payload))
	copy(stored, payload)
	p.mu.Lock()
	p.data[sessionID] = stored
	p.mu.Unlock()
	return nil
}
