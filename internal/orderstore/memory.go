package orderstore

import (
	"context"
	"sync"
)

// Memory is an in-process Store used for tests and local development.
type Memory struct {
	mu   sync.RWMutex
	awbs map[string]string
}

// NewMemory creates an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{awbs: make(map[string]string)}
}

// GetAWB returns the AWB recorded for an order, or "".
func (m *Memory) GetAWB(_ context.Context, orderRef string) (string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.awbs[orderRef], nil
}

// SetAWB records the AWB for an order.
func (m *Memory) SetAWB(_ context.Context, orderRef, awb string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.awbs[orderRef] = awb
	return nil
}

var _ Store = (*Memory)(nil)
