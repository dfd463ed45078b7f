package vm

import (
	"sort"
	"sync"
)

// ---------------------------------------------------------------------------
// ContentStore: content-addressed index for compiled units
// ---------------------------------------------------------------------------

// ContentStore indexes compiled units by a 32-byte content key. It is the
// process-local front of the compiled-unit cache; dist.Store persists the
// same entries across processes.
type ContentStore struct {
	mu    sync.RWMutex
	units map[[32]byte]*CompiledCode
	hits  int
	miss  int
}

// NewContentStore creates an empty content store.
func NewContentStore() *ContentStore {
	return &ContentStore{
		units: make(map[[32]byte]*CompiledCode),
	}
}

// Index adds a compiled unit under key. A zero key is silently ignored.
func (cs *ContentStore) Index(key [32]byte, code *CompiledCode) {
	if key == ([32]byte{}) || code == nil {
		return
	}
	cs.mu.Lock()
	cs.units[key] = code
	cs.mu.Unlock()
}

// Lookup returns the unit stored under key, or nil.
func (cs *ContentStore) Lookup(key [32]byte) *CompiledCode {
	cs.mu.Lock()
	defer cs.mu.Unlock()
	code, ok := cs.units[key]
	if ok {
		cs.hits++
	} else {
		cs.miss++
	}
	return code
}

// Has returns true if the store contains key.
func (cs *ContentStore) Has(key [32]byte) bool {
	cs.mu.RLock()
	defer cs.mu.RUnlock()
	_, ok := cs.units[key]
	return ok
}

// Keys returns all keys in ascending byte order.
func (cs *ContentStore) Keys() [][32]byte {
	cs.mu.RLock()
	defer cs.mu.RUnlock()
	keys := make([][32]byte, 0, len(cs.units))
	for k := range cs.units {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		for k := 0; k < 32; k++ {
			if keys[i][k] != keys[j][k] {
				return keys[i][k] < keys[j][k]
			}
		}
		return false
	})
	return keys
}

// Len returns the number of indexed units.
func (cs *ContentStore) Len() int {
	cs.mu.RLock()
	defer cs.mu.RUnlock()
	return len(cs.units)
}

// Stats returns lookup hit and miss counts.
func (cs *ContentStore) Stats() (hits, misses int) {
	cs.mu.RLock()
	defer cs.mu.RUnlock()
	return cs.hits, cs.miss
}
