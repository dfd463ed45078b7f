package hash

import (
	"crypto/sha256"
	"reflect"

	"github.com/chazu/garnet/compiler"
)

// Key computes the cache key of an evaluation container.
//
// The key covers the container kind, the structural dump of its body and
// pre-execution hooks, the unit name and file, the source line of every
// node, and the signature of the runtime scope chain it is compiled
// against. A cached unit therefore carries the name, file and line table
// of the container that looked it up.
func Key(u *compiler.Container, runtime *compiler.RuntimeScope) ([32]byte, error) {
	data, err := Serialize(compiler.Dump(u))
	if err != nil {
		return [32]byte{}, err
	}
	s := &serializer{buf: data}
	s.writeByte(TagKind)
	s.writeString(u.Kind.String())
	s.writeByte(TagName)
	s.writeString(u.UnitName())
	s.writeByte(TagFile)
	s.writeString(u.File)
	s.writeByte(TagLines)
	lines := Lines(u)
	s.writeUint32(uint32(len(lines)))
	for _, line := range lines {
		s.writeInt64(int64(line))
	}
	s.writeByte(TagSignature)
	sig := runtime.Signature()
	s.writeUint32(uint32(len(sig)))
	for _, entry := range sig {
		s.writeString(entry)
	}
	return sha256.Sum256(s.buf), nil
}

// HashDump computes the SHA-256 content hash of a dump alone. Positions do
// not take part.
func HashDump(dump compiler.List) ([32]byte, error) {
	data, err := Serialize(dump)
	if err != nil {
		return [32]byte{}, err
	}
	return sha256.Sum256(data), nil
}

var posType = reflect.TypeOf(compiler.Pos(0))

// Lines returns the source line of n and of every node beneath it, in
// field order.
func Lines(n compiler.Node) []int {
	var lines []int
	collectLines(reflect.ValueOf(n), &lines)
	return lines
}

func collectLines(v reflect.Value, lines *[]int) {
	switch v.Kind() {
	case reflect.Ptr, reflect.Interface:
		if !v.IsNil() {
			collectLines(v.Elem(), lines)
		}
	case reflect.Struct:
		for i := 0; i < v.NumField(); i++ {
			f := v.Field(i)
			if f.Type() == posType {
				*lines = append(*lines, int(f.Int()))
				continue
			}
			collectLines(f, lines)
		}
	case reflect.Slice, reflect.Array:
		for i := 0; i < v.Len(); i++ {
			collectLines(v.Index(i), lines)
		}
	}
}
