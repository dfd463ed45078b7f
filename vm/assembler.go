package vm

import (
	"fmt"
	"math"
)

// ---------------------------------------------------------------------------
// Assembler: byte-coded implementation of Generator
// ---------------------------------------------------------------------------

// Assembler encodes the instruction stream of one unit. Nested units get
// their own Assembler via Nested and are attached to the parent when the
// parent references them with CreateBlock or PushCode.
type Assembler struct {
	bytes      []byte
	literals   []Literal
	literalMap map[Literal]int
	children   []*CompiledCode
	childIndex map[*CompiledCode]int
	lastLine   int
	code       *CompiledCode
	closed     bool
}

var _ Generator = (*Assembler)(nil)

// NewAssembler creates an assembler for a unit named name.
func NewAssembler(name string) *Assembler {
	return &Assembler{
		bytes:      make([]byte, 0, 64),
		literalMap: make(map[Literal]int),
		childIndex: make(map[*CompiledCode]int),
		code: &CompiledCode{
			Name:       name,
			SplatIndex: NoSplat,
			BlockIndex: -1,
		},
	}
}

// Len returns the current bytecode length.
func (a *Assembler) Len() int {
	return len(a.bytes)
}

func (a *Assembler) emit(op Opcode) {
	a.bytes = append(a.bytes, byte(op))
}

func (a *Assembler) emitByte(op Opcode, operand byte) {
	a.bytes = append(a.bytes, byte(op), operand)
}

func (a *Assembler) emitUint16(op Opcode, operand int) {
	if operand < 0 || operand > math.MaxUint16 {
		panic(fmt.Sprintf("vm: operand %d out of range for %s", operand, op))
	}
	a.bytes = append(a.bytes, byte(op), byte(operand), byte(operand>>8))
}

func (a *Assembler) addLiteral(lit Literal) int {
	if idx, ok := a.literalMap[lit]; ok {
		return idx
	}
	idx := len(a.literals)
	a.literals = append(a.literals, lit)
	a.literalMap[lit] = idx
	return idx
}

func (a *Assembler) addChild(code *CompiledCode) int {
	if idx, ok := a.childIndex[code]; ok {
		return idx
	}
	idx := len(a.children)
	a.children = append(a.children, code)
	a.childIndex[code] = idx
	return idx
}

// --- Stack ---

func (a *Assembler) Pop()  { a.emit(OpPOP) }
func (a *Assembler) Dup()  { a.emit(OpDUP) }
func (a *Assembler) Swap() { a.emit(OpSWAP) }

// --- Values ---

func (a *Assembler) PushNil()       { a.emit(OpPushNil) }
func (a *Assembler) PushTrue()      { a.emit(OpPushTrue) }
func (a *Assembler) PushFalse()     { a.emit(OpPushFalse) }
func (a *Assembler) PushSelf()      { a.emit(OpPushSelf) }
func (a *Assembler) PushUndefined() { a.emit(OpPushUndef) }

// PushInt uses the inline form for small integers and the literal frame
// otherwise.
func (a *Assembler) PushInt(v int64) {
	if v >= math.MinInt8 && v <= math.MaxInt8 {
		a.emitByte(OpPushInt8, byte(int8(v)))
		return
	}
	a.PushLiteral(Int(v))
}

func (a *Assembler) PushLiteral(lit Literal) {
	a.emitUint16(OpPushLiteral, a.addLiteral(lit))
}

// --- Execution context ---

func (a *Assembler) PushScope()     { a.emit(OpPushScope) }
func (a *Assembler) PushType()      { a.emit(OpPushType) }
func (a *Assembler) PushRuntime()   { a.emit(OpPushRuntime) }
func (a *Assembler) PushCpathTop()  { a.emit(OpPushCpathTop) }
func (a *Assembler) PushVariables() { a.emit(OpPushVariables) }
func (a *Assembler) PushProc()      { a.emit(OpPushProc) }
func (a *Assembler) AddScope()      { a.emit(OpAddScope) }

func (a *Assembler) PushConst(name string) {
	a.emitUint16(OpPushConst, a.addLiteral(Symbol(name)))
}

func (a *Assembler) FindConst(name string) {
	a.emitUint16(OpFindConst, a.addLiteral(Symbol(name)))
}

// --- Locals ---

func (a *Assembler) PushLocal(slot int) { a.emitUint16(OpPushLocal, slot) }
func (a *Assembler) SetLocal(slot int)  { a.emitUint16(OpSetLocal, slot) }
func (a *Assembler) PassedArg(slot int) { a.emitUint16(OpPassedArg, slot) }

func (a *Assembler) PushLocalDepth(depth, slot int) {
	a.emitDepth(OpPushLocalDepth, depth, slot)
}

func (a *Assembler) SetLocalDepth(depth, slot int) {
	a.emitDepth(OpSetLocalDepth, depth, slot)
}

func (a *Assembler) emitDepth(op Opcode, depth, slot int) {
	if depth < 0 || depth > math.MaxUint8 {
		panic(fmt.Sprintf("vm: scope depth %d out of range", depth))
	}
	a.emitByte(op, byte(depth))
	a.bytes = append(a.bytes, byte(slot), byte(slot>>8))
}

// --- Sends ---

func (a *Assembler) Send(name string, argc int, private bool) {
	a.emitSend(OpSend, name, argc, private)
}

func (a *Assembler) SendWithBlock(name string, argc int, private bool) {
	a.emitSend(OpSendWithBlock, name, argc, private)
}

func (a *Assembler) emitSend(op Opcode, name string, argc int, private bool) {
	if argc < 0 || argc > math.MaxUint8 {
		panic(fmt.Sprintf("vm: argument count %d out of range", argc))
	}
	var flags byte
	if private {
		flags |= SendPrivate
	}
	a.emitUint16(op, a.addLiteral(Symbol(name)))
	a.bytes = append(a.bytes, byte(argc), flags)
}

// --- Arrays and coercion ---

func (a *Assembler) MakeArray(n int) {
	if n < 0 || n > math.MaxUint8 {
		panic(fmt.Sprintf("vm: array size %d out of range", n))
	}
	a.emitByte(OpMakeArray, byte(n))
}

func (a *Assembler) CastArray()      { a.emit(OpCastArray) }
func (a *Assembler) ShiftArray()     { a.emit(OpShiftArray) }
func (a *Assembler) CastMultiValue() { a.emit(OpCastMultiValue) }
func (a *Assembler) MetaToS()        { a.emit(OpMetaToS) }
func (a *Assembler) Ret()            { a.emit(OpRet) }

// ---------------------------------------------------------------------------
// Label management for jumps
// ---------------------------------------------------------------------------

// Label represents a jump target, possibly not yet placed.
type Label struct {
	resolved bool
	position int   // target (if resolved)
	refs     []int // operand positions waiting for this label
}

// NewLabel creates an unresolved label.
func (a *Assembler) NewLabel() *Label {
	return &Label{refs: make([]int, 0, 2)}
}

// SetLabel resolves a label to the current position and patches forward
// references.
func (a *Assembler) SetLabel(label *Label) {
	if label.resolved {
		panic("vm: label already set")
	}
	label.resolved = true
	label.position = len(a.bytes)

	for _, ref := range label.refs {
		offset := label.position - (ref + 2) // offset from after the operand
		a.bytes[ref] = byte(offset)
		a.bytes[ref+1] = byte(offset >> 8)
	}
	label.refs = nil
}

func (a *Assembler) Goto(l *Label)        { a.emitJump(OpGoto, l) }
func (a *Assembler) GotoIfTrue(l *Label)  { a.emitJump(OpGotoIfTrue, l) }
func (a *Assembler) GotoIfFalse(l *Label) { a.emitJump(OpGotoIfFalse, l) }

func (a *Assembler) emitJump(op Opcode, label *Label) {
	a.bytes = append(a.bytes, byte(op))
	if label.resolved {
		offset := label.position - (len(a.bytes) + 2)
		a.bytes = append(a.bytes, byte(offset), byte(offset>>8))
	} else {
		label.refs = append(label.refs, len(a.bytes))
		a.bytes = append(a.bytes, 0, 0)
	}
}

// ---------------------------------------------------------------------------
// Nested units
// ---------------------------------------------------------------------------

// Nested returns an assembler for a child unit. The child inherits the
// source file of its parent.
func (a *Assembler) Nested(name string) Generator {
	child := NewAssembler(name)
	child.code.File = a.code.File
	return child
}

// CreateBlock emits a block construction for code.
func (a *Assembler) CreateBlock(code *CompiledCode) {
	a.emitUint16(OpCreateBlock, a.addChild(code))
}

// PushCode pushes code itself as a value (method bodies handed to the runtime).
func (a *Assembler) PushCode(code *CompiledCode) {
	a.emitUint16(OpPushCode, a.addChild(code))
}

// Close finishes the unit and returns it. Calling Close twice returns the
// same unit.
func (a *Assembler) Close() *CompiledCode {
	if a.closed {
		return a.code
	}
	a.closed = true
	a.code.Bytecode = a.bytes
	a.code.Literals = a.literals
	a.code.Children = a.children
	return a.code
}

// Code returns the unit under construction (closed or not).
func (a *Assembler) Code() *CompiledCode {
	return a.code
}

// ---------------------------------------------------------------------------
// Unit metadata
// ---------------------------------------------------------------------------

// Pos records the source line for the instructions that follow.
func (a *Assembler) Pos(line int) {
	if line <= 0 || line == a.lastLine {
		return
	}
	a.lastLine = line
	if n := len(a.code.Lines); n > 0 && a.code.Lines[n-1].Offset == len(a.bytes) {
		a.code.Lines[n-1].Line = line
		return
	}
	a.code.Lines = append(a.code.Lines, LineEntry{Offset: len(a.bytes), Line: line})
}

func (a *Assembler) SetName(name string)   { a.code.Name = name }
func (a *Assembler) SetFile(file string)   { a.code.File = file }
func (a *Assembler) SetLine(line int)      { a.code.Line = line }
func (a *Assembler) SetLocalCount(n int)   { a.code.LocalCount = n }
func (a *Assembler) SetArity(arity int)    { a.code.Arity = arity }
func (a *Assembler) SetRequiredArgs(n int) { a.code.RequiredArgs = n }
func (a *Assembler) SetPostArgs(n int)     { a.code.PostArgs = n }
func (a *Assembler) SetTotalArgs(n int)    { a.code.TotalArgs = n }
func (a *Assembler) SetSplatIndex(i int)   { a.code.SplatIndex = i }
func (a *Assembler) SetBlockIndex(i int)   { a.code.BlockIndex = i }

func (a *Assembler) SetLocalNames(names []string) {
	a.code.LocalNames = append([]string(nil), names...)
}

func (a *Assembler) SetKeywords(names []string) {
	a.code.Keywords = append([]string(nil), names...)
}
