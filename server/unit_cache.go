package server

import (
	"errors"
	"sync"

	"github.com/tliron/commonlog"

	"github.com/chazu/garnet/vm"
	"github.com/chazu/garnet/vm/dist"
)

var cacheLog = commonlog.GetLogger("garnet.cache")

// cachedUnit is a compiled evaluation unit plus the evaluation locals it
// defines when run.
type cachedUnit struct {
	Code       *vm.CompiledCode
	EvalLocals []string
	Source     string // "memory" or "disk"
}

// UnitCache is the two-level compiled-unit cache: the in-memory content
// store first, then the optional SQLite store. Disk hits are promoted to
// memory.
type UnitCache struct {
	mem  *vm.ContentStore
	disk *dist.Store

	mu     sync.Mutex
	locals map[[32]byte][]string
}

// NewUnitCache creates a cache. disk may be nil.
func NewUnitCache(mem *vm.ContentStore, disk *dist.Store) *UnitCache {
	if mem == nil {
		mem = vm.NewContentStore()
	}
	return &UnitCache{
		mem:    mem,
		disk:   disk,
		locals: make(map[[32]byte][]string),
	}
}

// Lookup returns the unit cached under key.
func (c *UnitCache) Lookup(key [32]byte) (*cachedUnit, bool) {
	if code := c.mem.Lookup(key); code != nil {
		c.mu.Lock()
		locals := c.locals[key]
		c.mu.Unlock()
		cacheLog.Debugf("memory hit %x (%s)", key[:8], code.Name)
		return &cachedUnit{Code: code, EvalLocals: locals, Source: "memory"}, true
	}
	if c.disk == nil {
		return nil, false
	}

	chunk, err := c.disk.Get(key)
	if err != nil {
		if !errors.Is(err, dist.ErrChunkNotFound) {
			cacheLog.Errorf("reading unit cache: %s", err)
		}
		return nil, false
	}
	c.remember(key, chunk.Code, chunk.EvalLocals)
	cacheLog.Debugf("disk hit %x (%s)", key[:8], chunk.Code.Name)
	return &cachedUnit{Code: chunk.Code, EvalLocals: chunk.EvalLocals, Source: "disk"}, true
}

// Put caches a freshly compiled unit at both levels. A disk failure is
// logged and otherwise ignored; the unit stays cached in memory.
func (c *UnitCache) Put(key [32]byte, kind string, code *vm.CompiledCode, evalLocals []string) {
	c.remember(key, code, evalLocals)
	if c.disk == nil {
		return
	}
	chunk, err := dist.NewChunk(key, kind, code, evalLocals)
	if err == nil {
		err = c.disk.Put(chunk)
	}
	if err != nil {
		cacheLog.Errorf("writing unit cache: %s", err)
	}
}

func (c *UnitCache) remember(key [32]byte, code *vm.CompiledCode, evalLocals []string) {
	c.mem.Index(key, code)
	c.mu.Lock()
	c.locals[key] = append([]string(nil), evalLocals...)
	c.mu.Unlock()
}

// Stats returns in-memory lookup hit and miss counts.
func (c *UnitCache) Stats() (hits, misses int) {
	return c.mem.Stats()
}

// Len returns the number of units cached in memory.
func (c *UnitCache) Len() int {
	return c.mem.Len()
}
