package hash

import (
	"encoding/binary"
	"fmt"

	"github.com/chazu/garnet/compiler"
)

// ---------------------------------------------------------------------------
// Deterministic binary serialization of a node dump.
//
// Encoding conventions:
//   - First byte: HashVersion (0x01)
//   - Integers: big-endian int64 (8B)
//   - Strings and symbols: uint32 big-endian length + UTF-8 bytes
//   - Booleans: single byte (0/1)
//   - Lists: uint32 element count, then each element inline
// ---------------------------------------------------------------------------

// Serialize produces a deterministic byte serialization of a dump. The
// returned bytes are suitable for hashing with SHA-256.
func Serialize(dump compiler.List) ([]byte, error) {
	s := &serializer{buf: make([]byte, 0, 256)}
	s.writeByte(HashVersion)
	if err := s.serializeValue(dump); err != nil {
		return nil, err
	}
	return s.buf, nil
}

type serializer struct {
	buf []byte
}

func (s *serializer) writeByte(b byte) {
	s.buf = append(s.buf, b)
}

func (s *serializer) writeUint32(v uint32) {
	var b [4]byte
	binary.BigEndian.PutUint32(b[:], v)
	s.buf = append(s.buf, b[:]...)
}

func (s *serializer) writeInt64(v int64) {
	var b [8]byte
	binary.BigEndian.PutUint64(b[:], uint64(v))
	s.buf = append(s.buf, b[:]...)
}

func (s *serializer) writeString(v string) {
	s.writeUint32(uint32(len(v)))
	s.buf = append(s.buf, v...)
}

func (s *serializer) serializeValue(v interface{}) error {
	switch v := v.(type) {
	case nil:
		s.writeByte(TagNil)
	case compiler.List:
		if v == nil {
			s.writeByte(TagNil)
			return nil
		}
		s.writeByte(TagList)
		s.writeUint32(uint32(len(v)))
		for _, el := range v {
			if err := s.serializeValue(el); err != nil {
				return err
			}
		}
	case compiler.Sym:
		s.writeByte(TagSymbol)
		s.writeString(string(v))
	case string:
		s.writeByte(TagString)
		s.writeString(v)
	case int64:
		s.writeByte(TagInt)
		s.writeInt64(v)
	case int:
		s.writeByte(TagInt)
		s.writeInt64(int64(v))
	case bool:
		s.writeByte(TagBool)
		if v {
			s.writeByte(1)
		} else {
			s.writeByte(0)
		}
	default:
		return fmt.Errorf("hash: cannot serialize %T", v)
	}
	return nil
}
