package compiler

import (
	"reflect"
	"testing"
)

func TestNewLocalAllocatesIncreasingSlots(t *testing.T) {
	s := NewScopes()
	id := s.Open(MethodScope, NoScope)

	names := []string{"a", "b", "c", "d"}
	for i, name := range names {
		v := s.NewLocal(id, name)
		if v.Slot != i {
			t.Errorf("NewLocal(%q).Slot = %d, want %d", name, v.Slot, i)
		}
	}
	if got := s.NewLocal(id, "b").Slot; got != 1 {
		t.Errorf("NewLocal(b) again = %d, want 1", got)
	}
	if got := s.LocalCount(id); got != 4 {
		t.Errorf("LocalCount = %d, want 4", got)
	}
	count, got := s.Close(id)
	if count != 4 || !reflect.DeepEqual(got, names) {
		t.Errorf("Close = %d %v, want 4 %v", count, got, names)
	}
}

func TestSearchLocalDoesNotWalkParents(t *testing.T) {
	s := NewScopes()
	outer := s.Open(MethodScope, NoScope)
	s.NewLocal(outer, "a")
	inner := s.Open(BlockScope, outer)

	if _, ok := s.SearchLocal(inner, "a"); ok {
		t.Fatal("SearchLocal found a parent variable")
	}
	ref, ok := s.Lookup(inner, "a")
	if !ok {
		t.Fatal("Lookup did not find a")
	}
	if ref.Depth != 1 || ref.Slot != 0 {
		t.Errorf("Lookup(a) = depth %d slot %d, want depth 1 slot 0", ref.Depth, ref.Slot)
	}
}

func TestClosureDepthAcrossBlocks(t *testing.T) {
	for depth := 1; depth <= 4; depth++ {
		s := NewScopes()
		outer := s.Open(MethodScope, NoScope)
		s.NewLocal(outer, "pad")
		s.NewLocal(outer, "x")

		cur := outer
		for i := 0; i < depth; i++ {
			cur = s.Open(BlockScope, cur)
		}
		ref := s.Resolve(cur, "x")
		if ref.Kind != LocalRef || ref.Depth != depth || ref.Slot != 1 {
			t.Errorf("depth %d: Resolve(x) = %+v, want depth %d slot 1", depth, ref, depth)
		}
		if got := s.LocalCount(cur); got != 0 {
			t.Errorf("depth %d: inner scope allocated %d locals, want 0", depth, got)
		}
	}
}

func TestResolveDeclaresInInnermostScope(t *testing.T) {
	s := NewScopes()
	outer := s.Open(MethodScope, NoScope)
	inner := s.Open(BlockScope, outer)

	ref := s.Resolve(inner, "y")
	if ref.Depth != 0 || ref.Slot != 0 {
		t.Errorf("Resolve(y) = %+v, want depth 0 slot 0", ref)
	}
	if s.LocalCount(outer) != 0 {
		t.Errorf("outer scope allocated y")
	}
}

func TestClosedScopeStopsLookup(t *testing.T) {
	s := NewScopes()
	outer := s.Open(MethodScope, NoScope)
	s.NewLocal(outer, "a")
	method := s.Open(MethodScope, outer)

	if _, ok := s.Lookup(method, "a"); ok {
		t.Fatal("Lookup crossed a closed scope")
	}
	ref := s.Resolve(method, "a")
	if ref.Depth != 0 || ref.Slot != 0 {
		t.Errorf("Resolve(a) = %+v, want a fresh local", ref)
	}
}

func TestRuntimeScopeSearch(t *testing.T) {
	top := NewRuntimeScope(nil, []string{"x", "y"})
	session := NewEvalRuntimeScope(top)
	session.DefineEvalLocal("z")

	s := NewScopes()
	id := s.OpenEval(session)

	ref, ok := s.Lookup(id, "z")
	if !ok || ref.Kind != EvalRef || ref.Name != "z" {
		t.Errorf("Lookup(z) = %+v %v, want eval local", ref, ok)
	}
	ref, ok = s.Lookup(id, "y")
	if !ok || ref.Kind != LocalRef || ref.Depth != 2 || ref.Slot != 1 {
		t.Errorf("Lookup(y) = %+v %v, want depth 2 slot 1", ref, ok)
	}

	blk := s.Open(BlockScope, id)
	ref, ok = s.Lookup(blk, "x")
	if !ok || ref.Depth != 3 || ref.Slot != 0 {
		t.Errorf("Lookup(x) from block = %+v %v, want depth 3 slot 0", ref, ok)
	}
}

func TestEvalScopeDeclaresEvalLocals(t *testing.T) {
	s := NewScopes()
	id := s.OpenEval(nil)

	ref := s.Resolve(id, "w")
	if ref.Kind != EvalRef {
		t.Fatalf("Resolve(w).Kind = %v, want EvalRef", ref.Kind)
	}
	s.Resolve(id, "w")
	if got := s.EvalLocals(id); !reflect.DeepEqual(got, []string{"w"}) {
		t.Errorf("EvalLocals = %v, want [w]", got)
	}
	if got := s.LocalCount(id); got != 0 {
		t.Errorf("LocalCount = %d, want 0", got)
	}
}

func TestForEvalFrameHidesSlots(t *testing.T) {
	frame := NewRuntimeScope(nil, []string{"hidden"})
	frame.ForEval = true

	if _, ok := frame.search("hidden"); ok {
		t.Error("search found a slot in an evaluation frame")
	}
}

func TestRuntimeScopeSignature(t *testing.T) {
	a := NewEvalRuntimeScope(NewRuntimeScope(nil, []string{"x"}))
	b := NewEvalRuntimeScope(NewRuntimeScope(nil, []string{"x"}))
	if !reflect.DeepEqual(a.Signature(), b.Signature()) {
		t.Fatalf("equal chains have different signatures: %v vs %v", a.Signature(), b.Signature())
	}
	b.DefineEvalLocal("y")
	if reflect.DeepEqual(a.Signature(), b.Signature()) {
		t.Error("signature did not change after DefineEvalLocal")
	}
	want := []string{"1:eval:y", "2:0:x"}
	if got := b.Signature(); !reflect.DeepEqual(got, want) {
		t.Errorf("Signature = %v, want %v", got, want)
	}
}

func TestRuntimeScopeSignatureEvalDepth(t *testing.T) {
	outerA := NewEvalRuntimeScope(nil)
	outerA.DefineEvalLocal("y")
	a := NewEvalRuntimeScope(outerA)
	a.DefineEvalLocal("x")

	outerB := NewEvalRuntimeScope(nil)
	outerB.DefineEvalLocal("x")
	b := NewEvalRuntimeScope(outerB)
	b.DefineEvalLocal("y")

	if reflect.DeepEqual(a.Signature(), b.Signature()) {
		t.Errorf("chains with eval locals at swapped depths share signature %v", a.Signature())
	}
	if want := []string{"1:eval:x", "2:eval:y"}; !reflect.DeepEqual(a.Signature(), want) {
		t.Errorf("Signature = %v, want %v", a.Signature(), want)
	}
}
