package vm

import (
	"encoding/binary"
	"fmt"
	"strings"
)

// ---------------------------------------------------------------------------
// Opcode definitions
// ---------------------------------------------------------------------------

// Opcode represents a single bytecode instruction.
type Opcode byte

// Stack Operations
const (
	OpNOP  Opcode = 0x00 // no operation
	OpPOP  Opcode = 0x01 // discard top of stack
	OpDUP  Opcode = 0x02 // duplicate top of stack
	OpSWAP Opcode = 0x03 // swap the top two values
)

// Push Constants
const (
	OpPushNil     Opcode = 0x10 // push nil
	OpPushTrue    Opcode = 0x11 // push true
	OpPushFalse   Opcode = 0x12 // push false
	OpPushSelf    Opcode = 0x13 // push self
	OpPushInt8    Opcode = 0x14 // push 8-bit signed integer
	OpPushLiteral Opcode = 0x16 // push literal from literal frame (16-bit index)
	OpPushUndef   Opcode = 0x17 // push the unfilled-keyword sentinel
)

// Execution context
const (
	OpPushScope     Opcode = 0x18 // push current lexical scope module
	OpPushType      Opcode = 0x19 // push the type/singleton helper object
	OpPushRuntime   Opcode = 0x1A // push the runtime support module
	OpPushCpathTop  Opcode = 0x1B // push the root of the constant namespace
	OpPushVariables Opcode = 0x1C // push the current variable scope object
	OpPushProc      Opcode = 0x1D // push the block passed to the current unit as a proc
	OpAddScope      Opcode = 0x1E // pop a module and make it the lexical scope
)

// Variable Operations
const (
	OpPushLocal      Opcode = 0x20 // push local slot (16-bit slot)
	OpSetLocal       Opcode = 0x21 // store top into local slot (16-bit slot), value stays
	OpPushLocalDepth Opcode = 0x22 // push local from enclosing scope (8-bit depth, 16-bit slot)
	OpSetLocalDepth  Opcode = 0x23 // store into enclosing scope local (8-bit depth, 16-bit slot)
	OpPassedArg      Opcode = 0x24 // push true if the caller supplied argument slot (16-bit slot)
	OpPushConst      Opcode = 0x25 // lexical constant lookup (16-bit literal)
	OpFindConst      Opcode = 0x26 // pop module, push its constant (16-bit literal)
)

// Message Sends
const (
	OpSend          Opcode = 0x30 // send (16-bit literal, 8-bit argc, 8-bit flags)
	OpSendWithBlock Opcode = 0x31 // send with block on stack (16-bit literal, 8-bit argc, 8-bit flags)
)

// Send flags
const (
	SendPrivate byte = 0x01
)

// Control Flow
const (
	OpGoto        Opcode = 0x60 // unconditional jump (16-bit offset)
	OpGotoIfTrue  Opcode = 0x61 // pop, jump if truthy (16-bit offset)
	OpGotoIfFalse Opcode = 0x62 // pop, jump if falsy (16-bit offset)
)

// Returns
const (
	OpRet Opcode = 0x70 // return top of stack
)

// Code units
const (
	OpCreateBlock Opcode = 0x80 // create a block from child unit (16-bit child index)
	OpPushCode    Opcode = 0x81 // push child unit as a value (16-bit child index)
)

// Arrays and coercion
const (
	OpMakeArray      Opcode = 0x90 // create array from stack (8-bit size)
	OpCastArray      Opcode = 0x91 // coerce top to array
	OpShiftArray     Opcode = 0x92 // shift front element, leaving array beneath it
	OpCastMultiValue Opcode = 0x93 // coerce top for multiple assignment
	OpMetaToS        Opcode = 0x94 // coerce top to string for interpolation
)

// ---------------------------------------------------------------------------
// Opcode metadata
// ---------------------------------------------------------------------------

// OpcodeInfo holds metadata about an opcode.
type OpcodeInfo struct {
	Name         string // listing name
	OperandBytes int    // number of operand bytes
	StackEffect  int    // net effect on stack (-1 = variable)
}

// opcodeTable maps opcodes to their metadata.
var opcodeTable = map[Opcode]OpcodeInfo{
	// Stack operations
	OpNOP:  {"nop", 0, 0},
	OpPOP:  {"pop", 0, -1},
	OpDUP:  {"dup", 0, 1},
	OpSWAP: {"swap", 0, 0},

	// Push constants
	OpPushNil:     {"push_nil", 0, 1},
	OpPushTrue:    {"push_true", 0, 1},
	OpPushFalse:   {"push_false", 0, 1},
	OpPushSelf:    {"push_self", 0, 1},
	OpPushInt8:    {"push_int", 1, 1},
	OpPushLiteral: {"push_literal", 2, 1},
	OpPushUndef:   {"push_undef", 0, 1},

	// Context
	OpPushScope:     {"push_scope", 0, 1},
	OpPushType:      {"push_type", 0, 1},
	OpPushRuntime:   {"push_runtime", 0, 1},
	OpPushCpathTop:  {"push_cpath_top", 0, 1},
	OpPushVariables: {"push_variables", 0, 1},
	OpPushProc:      {"push_proc", 0, 1},
	OpAddScope:      {"add_scope", 0, -1},

	// Variables
	OpPushLocal:      {"push_local", 2, 1},
	OpSetLocal:       {"set_local", 2, 0},
	OpPushLocalDepth: {"push_local_depth", 3, 1},
	OpSetLocalDepth:  {"set_local_depth", 3, 0},
	OpPassedArg:      {"passed_arg", 2, 1},
	OpPushConst:      {"push_const", 2, 1},
	OpFindConst:      {"find_const", 2, 0},

	// Sends
	OpSend:          {"send", 4, -1}, // pops receiver + args, pushes result
	OpSendWithBlock: {"send_with_block", 4, -1},

	// Control flow
	OpGoto:        {"goto", 2, 0},
	OpGotoIfTrue:  {"goto_if_true", 2, -1},
	OpGotoIfFalse: {"goto_if_false", 2, -1},

	// Returns
	OpRet: {"ret", 0, -1},

	// Code units
	OpCreateBlock: {"create_block", 2, 1},
	OpPushCode:    {"push_code", 2, 1},

	// Arrays and coercion
	OpMakeArray:      {"make_array", 1, -1}, // variable: pops N items
	OpCastArray:      {"cast_array", 0, 0},
	OpShiftArray:     {"shift_array", 0, 1},
	OpCastMultiValue: {"cast_multi_value", 0, 0},
	OpMetaToS:        {"meta_to_s", 0, 0},
}

// Info returns the metadata for an opcode.
func (op Opcode) Info() OpcodeInfo {
	if info, ok := opcodeTable[op]; ok {
		return info
	}
	return OpcodeInfo{Name: fmt.Sprintf("unknown_%02x", byte(op)), OperandBytes: 0, StackEffect: 0}
}

// Name returns the listing name for an opcode.
func (op Opcode) Name() string {
	return op.Info().Name
}

// OperandBytes returns the number of operand bytes for an opcode.
func (op Opcode) OperandBytes() int {
	return op.Info().OperandBytes
}

// String implements the Stringer interface.
func (op Opcode) String() string {
	return op.Name()
}

// ---------------------------------------------------------------------------
// Bytecode reader for listing
// ---------------------------------------------------------------------------

// BytecodeReader reads bytecode for listing and verification.
type BytecodeReader struct {
	bytes []byte
	pos   int
}

// NewBytecodeReader creates a reader over bc.
func NewBytecodeReader(bc []byte) *BytecodeReader {
	return &BytecodeReader{bytes: bc}
}

// Position returns the current read position.
func (r *BytecodeReader) Position() int {
	return r.pos
}

// HasMore returns true if there are more bytes to read.
func (r *BytecodeReader) HasMore() bool {
	return r.pos < len(r.bytes)
}

// ReadOpcode reads the next opcode.
func (r *BytecodeReader) ReadOpcode() Opcode {
	return Opcode(r.ReadByte())
}

// ReadByte reads a single byte. Reading past the end yields zero.
func (r *BytecodeReader) ReadByte() byte {
	if r.pos >= len(r.bytes) {
		return 0
	}
	b := r.bytes[r.pos]
	r.pos++
	return b
}

// ReadInt8 reads a signed byte.
func (r *BytecodeReader) ReadInt8() int8 {
	return int8(r.ReadByte())
}

// ReadUint16 reads a little-endian 16-bit value.
func (r *BytecodeReader) ReadUint16() uint16 {
	if r.pos+2 > len(r.bytes) {
		r.pos = len(r.bytes)
		return 0
	}
	v := binary.LittleEndian.Uint16(r.bytes[r.pos:])
	r.pos += 2
	return v
}

// ReadInt16 reads a little-endian signed 16-bit value.
func (r *BytecodeReader) ReadInt16() int16 {
	return int16(r.ReadUint16())
}

// Skip advances the read position by n bytes.
func (r *BytecodeReader) Skip(n int) {
	r.pos += n
}

// ---------------------------------------------------------------------------
// Listing
// ---------------------------------------------------------------------------

// Instruction is one decoded instruction.
type Instruction struct {
	Offset   int
	Op       Opcode
	Operands []int
}

// Decode splits bc into instructions.
func Decode(bc []byte) []Instruction {
	r := NewBytecodeReader(bc)
	var out []Instruction
	for r.HasMore() {
		pos := r.Position()
		op := r.ReadOpcode()
		ins := Instruction{Offset: pos, Op: op}
		switch op {
		case OpPushInt8:
			ins.Operands = []int{int(r.ReadInt8())}
		case OpMakeArray:
			ins.Operands = []int{int(r.ReadByte())}
		case OpPushLiteral, OpPushLocal, OpSetLocal, OpPassedArg, OpPushConst, OpFindConst,
			OpCreateBlock, OpPushCode:
			ins.Operands = []int{int(r.ReadUint16())}
		case OpPushLocalDepth, OpSetLocalDepth:
			depth := int(r.ReadByte())
			ins.Operands = []int{depth, int(r.ReadUint16())}
		case OpSend, OpSendWithBlock:
			lit := int(r.ReadUint16())
			argc := int(r.ReadByte())
			flags := int(r.ReadByte())
			ins.Operands = []int{lit, argc, flags}
		case OpGoto, OpGotoIfTrue, OpGotoIfFalse:
			offset := int(r.ReadInt16())
			ins.Operands = []int{r.Position() + offset}
		default:
			r.Skip(op.OperandBytes())
		}
		out = append(out, ins)
	}
	return out
}

// Listing renders the unit's instructions one per line. Literal operands are
// shown by value and jump targets by instruction index.
func (c *CompiledCode) Listing() string {
	return strings.Join(c.Instructions(), "\n")
}

// Instructions returns the listing as a slice, one entry per instruction.
func (c *CompiledCode) Instructions() []string {
	decoded := Decode(c.Bytecode)
	index := make(map[int]int, len(decoded))
	for i, ins := range decoded {
		index[ins.Offset] = i
	}
	index[len(c.Bytecode)] = len(decoded)

	out := make([]string, 0, len(decoded))
	for _, ins := range decoded {
		out = append(out, c.render(ins, index))
	}
	return out
}

func (c *CompiledCode) literal(i int) string {
	if i < 0 || i >= len(c.Literals) {
		return fmt.Sprintf("?%d", i)
	}
	return c.Literals[i].String()
}

func (c *CompiledCode) render(ins Instruction, index map[int]int) string {
	name := ins.Op.Name()
	switch ins.Op {
	case OpPushInt8, OpMakeArray, OpPushLocal, OpSetLocal, OpPassedArg, OpCreateBlock, OpPushCode:
		return fmt.Sprintf("%s %d", name, ins.Operands[0])
	case OpPushLiteral, OpPushConst, OpFindConst:
		return fmt.Sprintf("%s %s", name, c.literal(ins.Operands[0]))
	case OpPushLocalDepth, OpSetLocalDepth:
		return fmt.Sprintf("%s %d %d", name, ins.Operands[0], ins.Operands[1])
	case OpSend, OpSendWithBlock:
		s := fmt.Sprintf("%s %s %d", name, c.literal(ins.Operands[0]), ins.Operands[1])
		if byte(ins.Operands[2])&SendPrivate != 0 {
			s += " private"
		}
		return s
	case OpGoto, OpGotoIfTrue, OpGotoIfFalse:
		target, ok := index[ins.Operands[0]]
		if !ok {
			return fmt.Sprintf("%s ->?%d", name, ins.Operands[0])
		}
		return fmt.Sprintf("%s ->%d", name, target)
	default:
		return name
	}
}
