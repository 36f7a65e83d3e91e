// Package memory implements the ability to read and write the blockchain to
// memory using a map.
package memory

import (
	"errors"
	"sync"

	"github.com/ardanlabs/powledger/foundation/blockchain/database"
)

// ErrClosed is returned when the storage is used after it was closed.
var ErrClosed = errors.New("memory storage closed")

// Memory represents the storage implementation for reading and storing
// the blockchain in memory using a map. This implements the database.Storage
// interface.
type Memory struct {
	mu     sync.RWMutex
	data   map[string][]byte
	closed bool
}

// New constructs a Memory value for use.
func New() *Memory {
	return &Memory{
		data: make(map[string][]byte),
	}
}

// Close marks the storage as closed. The data is kept so the storage can be
// inspected after use.
func (m *Memory) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.closed = true
	return nil
}

// Get returns a copy of the value stored under the key.
func (m *Memory) Get(key []byte) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.closed {
		return nil, ErrClosed
	}

	value, exists := m.data[string(key)]
	if !exists {
		return nil, database.ErrNotFound
	}

	return append([]byte(nil), value...), nil
}

// Put stores a copy of the value under the key.
func (m *Memory) Put(key []byte, value []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return ErrClosed
	}

	m.data[string(key)] = append([]byte(nil), value...)
	return nil
}

// Write stores all the entries under a single lock.
func (m *Memory) Write(entries []database.Entry) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return ErrClosed
	}

	for _, entry := range entries {
		m.data[string(entry.Key)] = append([]byte(nil), entry.Value...)
	}

	return nil
}

// Flush in this implementation has nothing to do since everything
// is in memory.
func (m *Memory) Flush() error {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.closed {
		return ErrClosed
	}

	return nil
}

// Delete removes the key. It exists so tests can damage a chain.
func (m *Memory) Delete(key []byte) {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.data, string(key))
}
