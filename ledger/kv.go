package ledger

import "sync"

// MemoryKV is a process-local KV. It backs the mirror in tests and in
// deployments without Redis configured.
type MemoryKV struct {
	mu sync.RWMutex
	m  map[string]string
}

// NewMemoryKV creates an empty in-memory KV.
func NewMemoryKV() *MemoryKV {
	return &MemoryKV{m: map[string]string{}}
}

// GetString returns the stored value and whether the key exists.
func (kv *MemoryKV) GetString(key string) (string, bool) {
	kv.mu.RLock()
	defer kv.mu.RUnlock()
	v, ok := kv.m[key]
	return v, ok
}

// SetString stores value under key, overwriting any previous value.
func (kv *MemoryKV) SetString(key, value string) {
	kv.mu.Lock()
	defer kv.mu.Unlock()
	kv.m[key] = value
}
