package server

import (
	"path/filepath"
	"reflect"
	"testing"

	"github.com/chazu/garnet/compiler"
	"github.com/chazu/garnet/compiler/hash"
	"github.com/chazu/garnet/vm"
	"github.com/chazu/garnet/vm/dist"
)

func compileEval(t *testing.T, body compiler.Node) (*compiler.Container, *compiler.Result) {
	t.Helper()
	u := compiler.NewEval("(eval)", body)
	res, err := compiler.Compile(u)
	if err != nil {
		t.Fatalf("compile error: %v", err)
	}
	return u, res
}

func TestUnitCacheMemory(t *testing.T) {
	cache := NewUnitCache(nil, nil)
	u, res := compileEval(t, &compiler.LocalVariableAssignment{
		Pos: 1, Name: "a", Value: &compiler.IntLiteral{Pos: 1, Value: 1},
	})
	key, err := hash.Key(u, nil)
	if err != nil {
		t.Fatalf("Key: %v", err)
	}

	if _, ok := cache.Lookup(key); ok {
		t.Fatal("empty cache reported a hit")
	}
	cache.Put(key, u.Kind.String(), res.Code, res.EvalLocals)

	unit, ok := cache.Lookup(key)
	if !ok {
		t.Fatal("cached unit not found")
	}
	if unit.Source != "memory" || unit.Code != res.Code {
		t.Errorf("Lookup = %+v, want the stored unit from memory", unit)
	}
	if !reflect.DeepEqual(unit.EvalLocals, []string{"a"}) {
		t.Errorf("EvalLocals = %v, want [a]", unit.EvalLocals)
	}
	if cache.Len() != 1 {
		t.Errorf("Len = %d, want 1", cache.Len())
	}
	if hits, misses := cache.Stats(); hits != 1 || misses != 1 {
		t.Errorf("Stats = %d/%d, want 1/1", hits, misses)
	}
}

func TestUnitCachePromotesDiskHits(t *testing.T) {
	store, err := dist.OpenStore(filepath.Join(t.TempDir(), "cache.db"))
	if err != nil {
		t.Fatalf("OpenStore: %v", err)
	}
	defer store.Close()

	u, res := compileEval(t, &compiler.IntLiteral{Pos: 1, Value: 3})
	key, err := hash.Key(u, nil)
	if err != nil {
		t.Fatalf("Key: %v", err)
	}
	NewUnitCache(nil, store).Put(key, u.Kind.String(), res.Code, nil)

	mem := vm.NewContentStore()
	cache := NewUnitCache(mem, store)
	unit, ok := cache.Lookup(key)
	if !ok || unit.Source != "disk" {
		t.Fatalf("Lookup = %+v, %v; want a disk hit", unit, ok)
	}
	if unit.Code.Listing() != res.Code.Listing() {
		t.Errorf("disk listing = %q, want %q", unit.Code.Listing(), res.Code.Listing())
	}
	if !mem.Has(key) {
		t.Error("disk hit not promoted to memory")
	}
	if unit, _ := cache.Lookup(key); unit.Source != "memory" {
		t.Errorf("second lookup source = %s, want memory", unit.Source)
	}
}
