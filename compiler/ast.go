package compiler

// ---------------------------------------------------------------------------
// AST: syntax nodes handed to the compiler by the parser
// ---------------------------------------------------------------------------

// Pos is the source line a node came from. Nodes embed it.
type Pos int

// Line returns the 1-based source line, or 0 when unknown.
func (p Pos) Line() int { return int(p) }

// Node is the interface implemented by all AST nodes. The set of node kinds
// is closed: the compiler and Dump switch over every concrete type below and
// reject anything else.
type Node interface {
	Line() int
	node() // marker method
}

// ---------------------------------------------------------------------------
// Literals and pseudo-variables
// ---------------------------------------------------------------------------

// NilLiteral represents nil.
type NilLiteral struct{ Pos }

// TrueLiteral represents true.
type TrueLiteral struct{ Pos }

// FalseLiteral represents false.
type FalseLiteral struct{ Pos }

// Self represents the current receiver.
type Self struct{ Pos }

// IntLiteral represents an integer literal.
type IntLiteral struct {
	Pos
	Value int64
}

// SymbolLiteral represents a symbol literal (:name).
type SymbolLiteral struct {
	Pos
	Value string
}

// StringLiteral represents a string literal.
type StringLiteral struct {
	Pos
	Value string
}

// ArrayLiteral represents [a, b, c].
type ArrayLiteral struct {
	Pos
	Elements []Node
}

func (*NilLiteral) node()    {}
func (*TrueLiteral) node()   {}
func (*FalseLiteral) node()  {}
func (*Self) node()          {}
func (*IntLiteral) node()    {}
func (*SymbolLiteral) node() {}
func (*StringLiteral) node() {}
func (*ArrayLiteral) node()  {}

// ---------------------------------------------------------------------------
// Variables and constants
// ---------------------------------------------------------------------------

// LocalVariableAccess reads a local variable. Its binding is resolved during
// lowering and reported in the compile Result, never stored on the node.
type LocalVariableAccess struct {
	Pos
	Name string
}

// LocalVariableAssignment writes a local variable (name = value). In
// parameter lists it also carries optional and keyword defaults.
type LocalVariableAssignment struct {
	Pos
	Name  string
	Value Node
}

// ClassVariableAccess reads @@name.
type ClassVariableAccess struct {
	Pos
	Name string
}

// ClassVariableAssignment writes @@name = value.
type ClassVariableAssignment struct {
	Pos
	Name  string
	Value Node
}

// ConstantAccess is a bare constant (Foo), looked up lexically.
type ConstantAccess struct {
	Pos
	Name string
}

// ScopedConstant is Parent::Name.
type ScopedConstant struct {
	Pos
	Parent Node
	Name   string
}

// ToplevelConstant is ::Name.
type ToplevelConstant struct {
	Pos
	Name string
}

func (*LocalVariableAccess) node()     {}
func (*LocalVariableAssignment) node() {}
func (*ClassVariableAccess) node()     {}
func (*ClassVariableAssignment) node() {}
func (*ConstantAccess) node()          {}
func (*ScopedConstant) node()          {}
func (*ToplevelConstant) node()        {}

// ---------------------------------------------------------------------------
// Sequences, sends, and closures
// ---------------------------------------------------------------------------

// Block is a sequence of expressions; its value is the last one.
type Block struct {
	Pos
	Body []Node
}

// Send is a method call. A nil Receiver means an implicit self call, which
// is sent privately.
type Send struct {
	Pos
	Receiver  Node
	Name      string
	Arguments []Node
	Block     *Iter
}

// Iter is a block literal ({ |params| body }). It opens a block scope that
// can see the locals of its enclosing scopes.
type Iter struct {
	Pos
	Params *Parameters
	Body   Node
}

// Lambda is ->(params) { body }.
type Lambda struct {
	Pos
	Block *Iter
}

// PreExe is a BEGIN { } hook run by a container before its body.
type PreExe struct {
	Pos
	Body Node
}

func (*Block) node()  {}
func (*Send) node()   {}
func (*Iter) node()   {}
func (*Lambda) node() {}
func (*PreExe) node() {}

// ---------------------------------------------------------------------------
// Multiple assignment (source of destructuring patterns)
// ---------------------------------------------------------------------------

// MultipleAssignment is a, (b, c), *d, e = value. Left and Post hold
// LocalVariableAssignment, LocalVariableAccess, or nested MultipleAssignment
// nodes; Splat is nil, *EmptySplat, or *SplatAssignment. Value is nil when
// the node appears in a parameter list.
type MultipleAssignment struct {
	Pos
	Left  []Node
	Splat Node
	Post  []Node
	Value Node
}

// EmptySplat is an unnamed splat marker (a, * = ...).
type EmptySplat struct{ Pos }

// SplatAssignment is a named splat target (*rest).
type SplatAssignment struct {
	Pos
	Name string
}

func (*MultipleAssignment) node() {}
func (*EmptySplat) node()         {}
func (*SplatAssignment) node()    {}

// ---------------------------------------------------------------------------
// Alias, undef, defined?
// ---------------------------------------------------------------------------

// Alias is alias to from. To and From are SymbolLiteral nodes.
type Alias struct {
	Pos
	To   Node
	From Node
}

// GlobalAlias is alias $to $from; it names globals directly.
type GlobalAlias struct {
	Pos
	To   string
	From string
}

// Undef is undef name.
type Undef struct {
	Pos
	Name Node
}

// Defined is defined?(expression).
type Defined struct {
	Pos
	Expression Node
}

func (*Alias) node()       {}
func (*GlobalAlias) node() {}
func (*Undef) node()       {}
func (*Defined) node()     {}

// ---------------------------------------------------------------------------
// Value coercion
// ---------------------------------------------------------------------------

// SplatValue is *value in an argument or array position.
type SplatValue struct {
	Pos
	Value Node
}

// ConcatArgs is [*array, *rest]; Array may be nil.
type ConcatArgs struct {
	Pos
	Array Node
	Rest  Node
}

// PushArgs appends one value to an argument array.
type PushArgs struct {
	Pos
	Arguments Node
	Value     Node
}

// SingleValue collapses a splatted right-hand side to one value when it has
// exactly one element.
type SingleValue struct {
	Pos
	Value Node
}

// ToArray coerces a multiple-assignment right-hand side.
type ToArray struct {
	Pos
	Value Node
}

// ToString coerces an interpolated value to a string.
type ToString struct {
	Pos
	Value Node
}

func (*SplatValue) node()  {}
func (*ConcatArgs) node()  {}
func (*PushArgs) node()    {}
func (*SingleValue) node() {}
func (*ToArray) node()     {}
func (*ToString) node()    {}
