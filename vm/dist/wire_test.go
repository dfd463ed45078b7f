package dist

import (
	"bytes"
	"crypto/sha256"
	"reflect"
	"testing"

	"github.com/chazu/garnet/vm"
)

func sampleUnit() *vm.CompiledCode {
	a := vm.NewAssembler("__eval_script__")
	a.SetFile("(eval)")
	a.SetLine(1)
	child := a.Nested("__block__")
	child.PushLiteral(vm.String("hi"))
	child.Ret()
	block := child.Close()

	a.Pos(1)
	a.PushSelf()
	a.CreateBlock(block)
	a.SendWithBlock("tap", 0, true)
	a.PushInt(300)
	a.Ret()
	a.SetLocalCount(1)
	a.SetLocalNames([]string{"x"})
	return a.Close()
}

func TestCode_CBORRoundTrip(t *testing.T) {
	code := sampleUnit()

	data, err := MarshalCode(code)
	if err != nil {
		t.Fatalf("MarshalCode: %v", err)
	}
	got, err := UnmarshalCode(data)
	if err != nil {
		t.Fatalf("UnmarshalCode: %v", err)
	}

	if got.Name != code.Name || got.File != code.File {
		t.Errorf("header = %s %q, want %s %q", got.Name, got.File, code.Name, code.File)
	}
	if !reflect.DeepEqual(got.Instructions(), code.Instructions()) {
		t.Errorf("Instructions = %v, want %v", got.Instructions(), code.Instructions())
	}
	if got.SplatIndex != vm.NoSplat || got.BlockIndex != -1 {
		t.Errorf("SplatIndex/BlockIndex = %d/%d, want %d/-1", got.SplatIndex, got.BlockIndex, vm.NoSplat)
	}
	if len(got.Children) != 1 || got.Child(0).Listing() != code.Child(0).Listing() {
		t.Error("nested unit did not survive the round trip")
	}

	again, err := MarshalCode(got)
	if err != nil {
		t.Fatalf("MarshalCode: %v", err)
	}
	if !bytes.Equal(data, again) {
		t.Error("re-encoding a decoded unit changed its bytes")
	}
}

func TestCode_CanonicalEncoding(t *testing.T) {
	a, _ := MarshalCode(sampleUnit())
	b, _ := MarshalCode(sampleUnit())
	if !bytes.Equal(a, b) {
		t.Error("equal units encoded differently")
	}
}

func TestChunk_CBORRoundTrip(t *testing.T) {
	key := sha256.Sum256([]byte("unit"))
	c, err := NewChunk(key, "eval", sampleUnit(), []string{"a"})
	if err != nil {
		t.Fatalf("NewChunk: %v", err)
	}

	data, err := MarshalChunk(c)
	if err != nil {
		t.Fatalf("MarshalChunk: %v", err)
	}
	got, err := UnmarshalChunk(data)
	if err != nil {
		t.Fatalf("UnmarshalChunk: %v", err)
	}

	if got.Key != key {
		t.Error("Key mismatch")
	}
	if got.Kind != "eval" || got.Version != ChunkVersion {
		t.Errorf("Kind/Version = %s/%d", got.Kind, got.Version)
	}
	if !reflect.DeepEqual(got.EvalLocals, []string{"a"}) {
		t.Errorf("EvalLocals = %v, want [a]", got.EvalLocals)
	}
	if got.Digest != c.Digest {
		t.Error("Digest mismatch")
	}
}

func TestChunk_VerifyDetectsTampering(t *testing.T) {
	c, err := NewChunk(sha256.Sum256([]byte("k")), "eval", sampleUnit(), nil)
	if err != nil {
		t.Fatalf("NewChunk: %v", err)
	}
	c.Code.Name = "changed"
	if err := c.Verify(); err == nil {
		t.Error("Verify accepted a modified unit")
	}

	data, _ := MarshalChunk(c)
	if _, err := UnmarshalChunk(data); err == nil {
		t.Error("UnmarshalChunk accepted a chunk with a stale digest")
	}
}

func TestChunk_VerifyVersion(t *testing.T) {
	c, _ := NewChunk(sha256.Sum256([]byte("k")), "eval", sampleUnit(), nil)
	c.Version = ChunkVersion + 1
	if err := c.Verify(); err == nil {
		t.Error("Verify accepted a foreign version")
	}
}

func TestNewChunk_NilUnit(t *testing.T) {
	if _, err := NewChunk([32]byte{}, "eval", nil, nil); err == nil {
		t.Error("NewChunk accepted a nil unit")
	}
}

func TestUnmarshalChunk_InvalidData(t *testing.T) {
	if _, err := UnmarshalChunk([]byte{0xFF, 0xFF}); err == nil {
		t.Error("expected error for invalid CBOR")
	}
}

func TestUnitNames(t *testing.T) {
	names := UnitNames(sampleUnit())
	if !reflect.DeepEqual(names, []string{"__eval_script__", "__block__"}) {
		t.Errorf("UnitNames = %v", names)
	}
}
