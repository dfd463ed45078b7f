package vm

import (
	"fmt"
	"strconv"
)

// ---------------------------------------------------------------------------
// CompiledCode: one executable unit produced by the compiler
// ---------------------------------------------------------------------------

// Splat index markers reported through SetSplatIndex.
const (
	NoSplat       = -1 // the unit takes no rest argument
	ReservedSplat = -2 // a rest position is reserved but nothing is captured
)

// CompiledCode is a compiled method, block, class body, or script. It carries
// the bytecode plus the metadata the dispatcher reads when invoking it.
type CompiledCode struct {
	Name string `cbor:"1,keyasint"`
	File string `cbor:"2,keyasint,omitempty"`
	Line int    `cbor:"3,keyasint"` // definition line

	// Argument contract
	Arity        int      `cbor:"4,keyasint"`
	RequiredArgs int      `cbor:"5,keyasint"`
	PostArgs     int      `cbor:"6,keyasint"`
	TotalArgs    int      `cbor:"7,keyasint"`
	SplatIndex   int      `cbor:"8,keyasint"`
	BlockIndex   int      `cbor:"9,keyasint"`
	Keywords     []string `cbor:"10,keyasint,omitempty"`

	// Local frame
	LocalCount int      `cbor:"11,keyasint"`
	LocalNames []string `cbor:"12,keyasint,omitempty"`

	// Compiled code
	Literals []Literal       `cbor:"13,keyasint,omitempty"`
	Bytecode []byte          `cbor:"14,keyasint"`
	Children []*CompiledCode `cbor:"15,keyasint,omitempty"` // units referenced by create_block/push_code

	// Debugging support
	Lines []LineEntry `cbor:"16,keyasint,omitempty"` // bytecode offset → source line
}

// LineEntry maps a bytecode offset to a source line.
type LineEntry struct {
	Offset int `cbor:"1,keyasint"`
	Line   int `cbor:"2,keyasint"`
}

// LineAt returns the source line for a bytecode offset, or the definition
// line when no entry covers it.
func (c *CompiledCode) LineAt(offset int) int {
	line := c.Line
	for _, e := range c.Lines {
		if e.Offset > offset {
			break
		}
		line = e.Line
	}
	return line
}

// Child returns the i-th nested unit, or nil.
func (c *CompiledCode) Child(i int) *CompiledCode {
	if i < 0 || i >= len(c.Children) {
		return nil
	}
	return c.Children[i]
}

// Walk calls fn for c and every nested unit, depth first.
func (c *CompiledCode) Walk(fn func(*CompiledCode)) {
	fn(c)
	for _, child := range c.Children {
		child.Walk(fn)
	}
}

// String summarises the unit header.
func (c *CompiledCode) String() string {
	return fmt.Sprintf("<code %s arity=%d locals=%d>", c.Name, c.Arity, c.LocalCount)
}

// ---------------------------------------------------------------------------
// Literals
// ---------------------------------------------------------------------------

// LiteralKind distinguishes entries of a unit's literal frame.
type LiteralKind uint8

const (
	LiteralSymbol LiteralKind = iota + 1
	LiteralString
	LiteralInt
)

// Literal is one entry of a literal frame. Literals are comparable so the
// assembler can deduplicate them.
type Literal struct {
	Kind LiteralKind `cbor:"1,keyasint"`
	Str  string      `cbor:"2,keyasint,omitempty"`
	Int  int64       `cbor:"3,keyasint,omitempty"`
}

// Symbol returns a symbol literal.
func Symbol(name string) Literal { return Literal{Kind: LiteralSymbol, Str: name} }

// String returns a string literal.
func String(s string) Literal { return Literal{Kind: LiteralString, Str: s} }

// Int returns an integer literal.
func Int(v int64) Literal { return Literal{Kind: LiteralInt, Int: v} }

// String renders the literal as it appears in listings.
func (l Literal) String() string {
	switch l.Kind {
	case LiteralSymbol:
		return ":" + l.Str
	case LiteralString:
		return strconv.Quote(l.Str)
	case LiteralInt:
		return strconv.FormatInt(l.Int, 10)
	default:
		return "?"
	}
}
