// Package keystore persists key components as named non-negative integers.
//
// Every value is kept as its big-endian byte encoding. Memory keeps them in a map,
// File in a single CBOR file that is replaced atomically on each write.
package keystore

import (
	"errors"
	"sort"
	"sync"

	"github.com/cronokirby/saferith"
)

var (
	ErrNotFound  = errors.New("keystore: component not found")
	ErrMalformed = errors.New("keystore: malformed component")
)

func encode(v *saferith.Nat) []byte {
	return v.Big().Bytes()
}

func decode(b []byte) *saferith.Nat {
	return new(saferith.Nat).SetBytes(b)
}

// Memory is a KeyStore held in memory. The zero value is ready to use.
type Memory struct {
	mu     sync.Mutex
	values map[string][]byte
}

// NewMemory returns an empty Memory store.
func NewMemory() *Memory {
	return &Memory{values: make(map[string][]byte)}
}

// Save stores v under name, replacing any previous value.
func (m *Memory) Save(name string, v *saferith.Nat) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.values == nil {
		m.values = make(map[string][]byte)
	}
	m.values[name] = encode(v)
	return nil
}

// Load returns the value stored under name.
func (m *Memory) Load(name string) (*saferith.Nat, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.values[name]
	if !ok {
		return nil, ErrNotFound
	}
	return decode(b), nil
}

// Delete removes name from the store.
func (m *Memory) Delete(name string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.values, name)
}

// Names returns the stored names in sorted order.
func (m *Memory) Names() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return sortedNames(m.values)
}

func sortedNames(values map[string][]byte) []string {
	names := make([]string, 0, len(values))
	for name := range values {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
