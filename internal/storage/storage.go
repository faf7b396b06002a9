// Package storage provides key-value stores for persisted selections.
package storage

import (
	"fmt"
	"strings"
	"sync"
)

// KV is the key-value contract every store in this package satisfies.
type KV interface {
	Get(key string) (string, bool, error)
	Set(key, value string) error
}

// Open returns the store for kind ("memory", "yaml" or "sqlite") at path.
func Open(kind, path string) (KV, func() error, error) {
	switch strings.ToLower(strings.TrimSpace(kind)) {
	case "memory", "":
		return NewMemory(), func() error { return nil }, nil
	case "yaml", "yml":
		s, err := OpenYAML(path)
		if err != nil {
			return nil, nil, err
		}
		return s, func() error { return nil }, nil
	case "sqlite":
		s, err := OpenSQLite(path)
		if err != nil {
			return nil, nil, err
		}
		return s, s.Close, nil
	default:
		return nil, nil, fmt.Errorf("unknown store %q (want memory, yaml or sqlite)", kind)
	}
}

// --- Memory ---

// Memory is a process-local store.
type Memory struct {
	mu   sync.RWMutex
	data map[string]string
}

func NewMemory() *Memory {
	return &Memory{data: make(map[string]string)}
}

func (m *Memory) Get(key string) (string, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.data[key]
	return v, ok, nil
}

func (m *Memory) Set(key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = value
	return nil
}

// --- Namespace ---

// Namespaced prefixes every key so several clients can share one store.
type Namespaced struct {
	inner  KV
	prefix string
}

// Namespace returns a view of inner whose keys live under prefix.
func Namespace(inner KV, prefix string) *Namespaced {
	return &Namespaced{inner: inner, prefix: prefix}
}

func (n *Namespaced) key(k string) string {
	if n.prefix == "" {
		return k
	}
	return n.prefix + "/" + k
}

func (n *Namespaced) Get(key string) (string, bool, error) {
	return n.inner.Get(n.key(key))
}

func (n *Namespaced) Set(key, value string) error {
	return n.inner.Set(n.key(key), value)
}
