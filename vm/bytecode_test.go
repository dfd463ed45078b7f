package vm

import (
	"reflect"
	"strings"
	"testing"
)

// ---------------------------------------------------------------------------
// Opcode metadata tests
// ---------------------------------------------------------------------------

func TestOpcodeInfo(t *testing.T) {
	tests := []struct {
		op           Opcode
		name         string
		operandBytes int
	}{
		{OpNOP, "nop", 0},
		{OpPOP, "pop", 0},
		{OpDUP, "dup", 0},
		{OpSWAP, "swap", 0},
		{OpPushNil, "push_nil", 0},
		{OpPushInt8, "push_int", 1},
		{OpPushLiteral, "push_literal", 2},
		{OpPushUndef, "push_undef", 0},
		{OpPushScope, "push_scope", 0},
		{OpPushLocal, "push_local", 2},
		{OpPushLocalDepth, "push_local_depth", 3},
		{OpPassedArg, "passed_arg", 2},
		{OpFindConst, "find_const", 2},
		{OpSend, "send", 4},
		{OpSendWithBlock, "send_with_block", 4},
		{OpGoto, "goto", 2},
		{OpGotoIfFalse, "goto_if_false", 2},
		{OpRet, "ret", 0},
		{OpCreateBlock, "create_block", 2},
		{OpPushCode, "push_code", 2},
		{OpMakeArray, "make_array", 1},
		{OpShiftArray, "shift_array", 0},
	}

	for _, tt := range tests {
		info := tt.op.Info()
		if info.Name != tt.name {
			t.Errorf("%#x: Name = %q, want %q", byte(tt.op), info.Name, tt.name)
		}
		if info.OperandBytes != tt.operandBytes {
			t.Errorf("%s: OperandBytes = %d, want %d", tt.name, info.OperandBytes, tt.operandBytes)
		}
	}
}

func TestUnknownOpcode(t *testing.T) {
	if got := Opcode(0xFF).Name(); got != "unknown_ff" {
		t.Errorf("Name() = %q, want unknown_ff", got)
	}
}

// ---------------------------------------------------------------------------
// Decoding
// ---------------------------------------------------------------------------

func TestDecodeOperands(t *testing.T) {
	a := NewAssembler("t")
	a.PushInt(-3)
	a.PushLocalDepth(2, 300)
	a.Send("foo", 2, true)
	a.MakeArray(4)
	code := a.Close()

	got := Decode(code.Bytecode)
	want := []Instruction{
		{Offset: 0, Op: OpPushInt8, Operands: []int{-3}},
		{Offset: 2, Op: OpPushLocalDepth, Operands: []int{2, 300}},
		{Offset: 6, Op: OpSend, Operands: []int{0, 2, int(SendPrivate)}},
		{Offset: 11, Op: OpMakeArray, Operands: []int{4}},
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Decode = %+v, want %+v", got, want)
	}
}

func TestListingJumpTargets(t *testing.T) {
	a := NewAssembler("t")
	top := a.NewLabel()
	end := a.NewLabel()
	a.SetLabel(top)
	a.PushTrue()
	a.GotoIfFalse(end)
	a.Goto(top)
	a.SetLabel(end)
	a.PushNil()
	code := a.Close()

	want := []string{
		"push_true",
		"goto_if_false ->3",
		"goto ->0",
		"push_nil",
	}
	if got := code.Instructions(); !reflect.DeepEqual(got, want) {
		t.Errorf("Instructions = %v, want %v", got, want)
	}
	if got := code.Listing(); got != strings.Join(want, "\n") {
		t.Errorf("Listing = %q", got)
	}
}

func TestReaderStopsAtEnd(t *testing.T) {
	r := NewBytecodeReader([]byte{byte(OpPushLiteral), 0x01})
	if op := r.ReadOpcode(); op != OpPushLiteral {
		t.Fatalf("ReadOpcode = %v, want push_literal", op)
	}
	if v := r.ReadUint16(); v != 0 {
		t.Errorf("truncated ReadUint16 = %d, want 0", v)
	}
	if r.HasMore() {
		t.Error("reader has more after truncated read")
	}
}
