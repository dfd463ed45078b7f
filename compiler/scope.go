package compiler

import (
	"sort"
	"strconv"
)

// ---------------------------------------------------------------------------
// Scopes: local-variable slots and closure resolution
// ---------------------------------------------------------------------------

// ScopeID indexes a scope in the Scopes arena.
type ScopeID int

// NoScope is the parent of a root scope.
const NoScope ScopeID = -1

// ScopeKind says how a scope participates in name lookup.
type ScopeKind uint8

const (
	// MethodScope is a closed scope: method bodies and containers. Lookups
	// stop here.
	MethodScope ScopeKind = iota + 1
	// ModuleScope is a closed class, module, or singleton-class body. Inside
	// it self is the module, which changes where class variables live.
	ModuleScope
	// BlockScope is an Iter body. Lookups continue into the enclosing scope.
	BlockScope
	// EvalScope is an interactive-evaluation container. Lookups continue
	// into the runtime scope chain and new locals are evaluation locals.
	EvalScope
)

func (k ScopeKind) String() string {
	switch k {
	case MethodScope:
		return "method"
	case ModuleScope:
		return "module"
	case BlockScope:
		return "block"
	case EvalScope:
		return "eval"
	default:
		return "invalid"
	}
}

// LocalVariable is an allocated slot in its owning scope.
type LocalVariable struct {
	Name string
	Slot int
}

// Reference returns the binding as seen from the owning scope.
func (v *LocalVariable) Reference() Reference {
	return Reference{Kind: LocalRef, Slot: v.Slot, Name: v.Name}
}

// RefKind distinguishes slot references from by-name evaluation locals.
type RefKind uint8

const (
	LocalRef RefKind = iota + 1
	EvalRef
)

// Reference is a resolved variable binding. For LocalRef it is the
// (depth, slot) pair relative to the referencing scope; depth 0 is the
// current scope. EvalRef bindings are looked up by Name at run time because
// an evaluation context can grow between compilations.
type Reference struct {
	Kind  RefKind
	Depth int
	Slot  int
	Name  string
}

type scope struct {
	kind      ScopeKind
	parent    ScopeID
	variables map[string]*LocalVariable
	names     []string
	next      int

	// EvalScope only
	runtime    *RuntimeScope
	evalRefs   map[string]Reference
	evalLocals []string
}

// Scopes is the arena of live scopes for one lowering pass. Scopes are
// opened and closed in strict nesting order; a parent link is an index and
// is only used for lookup, never ownership.
type Scopes struct {
	arena []scope
}

// NewScopes creates an empty arena.
func NewScopes() *Scopes {
	return &Scopes{arena: make([]scope, 0, 8)}
}

// Open pushes a new scope and returns its id.
func (s *Scopes) Open(kind ScopeKind, parent ScopeID) ScopeID {
	s.arena = append(s.arena, scope{
		kind:      kind,
		parent:    parent,
		variables: make(map[string]*LocalVariable),
	})
	return ScopeID(len(s.arena) - 1)
}

// OpenEval pushes an evaluation scope backed by a runtime scope chain.
func (s *Scopes) OpenEval(runtime *RuntimeScope) ScopeID {
	id := s.Open(EvalScope, NoScope)
	s.arena[id].runtime = runtime
	s.arena[id].evalRefs = make(map[string]Reference)
	return id
}

// Close discards the innermost scope and returns its frame layout: the
// slot count and the per-slot names.
func (s *Scopes) Close(id ScopeID) (count int, names []string) {
	if int(id) != len(s.arena)-1 {
		panic("compiler: scopes must close innermost first")
	}
	sc := s.arena[id]
	s.arena = s.arena[:id]
	return sc.next, sc.names
}

// Depth returns the number of live scopes.
func (s *Scopes) Depth() int { return len(s.arena) }

// Kind returns the kind of scope id.
func (s *Scopes) Kind(id ScopeID) ScopeKind { return s.arena[id].kind }

// Parent returns the enclosing scope of id, or NoScope.
func (s *Scopes) Parent(id ScopeID) ScopeID { return s.arena[id].parent }

// IsModule reports whether id is a class, module, or singleton-class body.
func (s *Scopes) IsModule(id ScopeID) bool { return s.arena[id].kind == ModuleScope }

// LocalCount returns the number of slots allocated in id so far.
func (s *Scopes) LocalCount(id ScopeID) int { return s.arena[id].next }

// LocalNames returns the slot names of id in slot order.
func (s *Scopes) LocalNames(id ScopeID) []string {
	return append([]string(nil), s.arena[id].names...)
}

// EvalLocals returns the evaluation locals declared by an EvalScope, in
// declaration order.
func (s *Scopes) EvalLocals(id ScopeID) []string {
	return append([]string(nil), s.arena[id].evalLocals...)
}

// NewLocal returns the slot for name in id, allocating the next slot if
// the name is new. Repeated calls return the same variable.
func (s *Scopes) NewLocal(id ScopeID, name string) *LocalVariable {
	sc := &s.arena[id]
	if v, ok := sc.variables[name]; ok {
		return v
	}
	v := &LocalVariable{Name: name, Slot: sc.next}
	sc.next++
	sc.variables[name] = v
	sc.names = append(sc.names, name)
	return v
}

// declare creates name in id. Evaluation scopes declare by-name locals;
// every other kind allocates a slot.
func (s *Scopes) declare(id ScopeID, name string) Reference {
	sc := &s.arena[id]
	if sc.kind != EvalScope {
		return s.NewLocal(id, name).Reference()
	}
	if ref, ok := sc.evalRefs[name]; ok {
		return ref
	}
	ref := Reference{Kind: EvalRef, Name: name}
	sc.evalRefs[name] = ref
	sc.evalLocals = append(sc.evalLocals, name)
	return ref
}

// SearchLocal looks for name in id only. An evaluation scope also consults
// its runtime scope chain and remembers what it finds there.
func (s *Scopes) SearchLocal(id ScopeID, name string) (Reference, bool) {
	sc := &s.arena[id]
	if v, ok := sc.variables[name]; ok {
		return v.Reference(), true
	}
	if sc.kind != EvalScope {
		return Reference{}, false
	}
	if ref, ok := sc.evalRefs[name]; ok {
		return ref, true
	}
	if ref, ok := sc.runtime.search(name); ok {
		sc.evalRefs[name] = ref
		return ref, true
	}
	return Reference{}, false
}

// Lookup resolves name starting at id. Each scope checks itself; block
// scopes then ask their enclosing scope with the depth increased by one.
// Closed scopes end the search.
func (s *Scopes) Lookup(id ScopeID, name string) (Reference, bool) {
	depth := 0
	for cur := id; cur != NoScope; cur = s.arena[cur].parent {
		if ref, ok := s.SearchLocal(cur, name); ok {
			if ref.Kind == LocalRef {
				ref.Depth += depth
			}
			return ref, true
		}
		if s.arena[cur].kind != BlockScope {
			break
		}
		depth++
	}
	return Reference{}, false
}

// Resolve binds name as seen from id: an existing binding in id or an
// enclosing scope it can see, otherwise a new local in id itself.
func (s *Scopes) Resolve(id ScopeID, name string) Reference {
	if ref, ok := s.Lookup(id, name); ok {
		return ref
	}
	return s.declare(id, name)
}

// ---------------------------------------------------------------------------
// RuntimeScope: live variable scopes seen by interactive evaluation
// ---------------------------------------------------------------------------

// RuntimeScope is one frame of the variable scope chain an evaluation unit
// is compiled against. Frames are only ever appended to; a chain must not
// be compiled against concurrently.
type RuntimeScope struct {
	Parent  *RuntimeScope
	Locals  []string // slot names of the unit running in this frame
	ForEval bool     // frame of an evaluation unit; its slots are not addressable

	evalLocals map[string]struct{}
}

// NewRuntimeScope creates a frame whose slots are named by locals.
func NewRuntimeScope(parent *RuntimeScope, locals []string) *RuntimeScope {
	return &RuntimeScope{
		Parent: parent,
		Locals: append([]string(nil), locals...),
	}
}

// NewEvalRuntimeScope creates a frame for an evaluation session.
func NewEvalRuntimeScope(parent *RuntimeScope) *RuntimeScope {
	return &RuntimeScope{Parent: parent, ForEval: true}
}

// DefineEvalLocal records a variable created by evaluation in this frame.
func (r *RuntimeScope) DefineEvalLocal(name string) {
	if r.evalLocals == nil {
		r.evalLocals = make(map[string]struct{})
	}
	r.evalLocals[name] = struct{}{}
}

// EvalLocalDefined reports whether evaluation created name in this frame.
func (r *RuntimeScope) EvalLocalDefined(name string) bool {
	_, ok := r.evalLocals[name]
	return ok
}

// LocalSlot returns the slot of name in this frame.
func (r *RuntimeScope) LocalSlot(name string) (int, bool) {
	for i, n := range r.Locals {
		if n == name {
			return i, true
		}
	}
	return 0, false
}

// search walks the chain from r. The evaluation unit's own frame sits
// above r, so r is at depth 1.
func (r *RuntimeScope) search(name string) (Reference, bool) {
	depth := 1
	for sc := r; sc != nil; sc = sc.Parent {
		if !sc.ForEval {
			if slot, ok := sc.LocalSlot(name); ok {
				return Reference{Kind: LocalRef, Depth: depth, Slot: slot, Name: name}, true
			}
		}
		if sc.EvalLocalDefined(name) {
			return Reference{Kind: EvalRef, Name: name}, true
		}
		depth++
	}
	return Reference{}, false
}

// Signature lists every name visible through the chain as "depth:slot:name" or
// "depth:eval:name", sorted. Two chains with equal signatures resolve every name
// the same way.
func (r *RuntimeScope) Signature() []string {
	var sig []string
	depth := 1
	for sc := r; sc != nil; sc = sc.Parent {
		if !sc.ForEval {
			for slot, n := range sc.Locals {
				sig = append(sig, strconv.Itoa(depth)+":"+strconv.Itoa(slot)+":"+n)
			}
		}
		for n := range sc.evalLocals {
			sig = append(sig, strconv.Itoa(depth)+":eval:"+n)
		}
		depth++
	}
	sort.Strings(sig)
	return sig
}
