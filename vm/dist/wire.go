package dist

import (
	"fmt"

	"github.com/chazu/garnet/vm"
	"github.com/fxamacker/cbor/v2"
)

// cborEncMode uses canonical mode so equal units encode to equal bytes.
var cborEncMode cbor.EncMode

func init() {
	em, err := cbor.CanonicalEncOptions().EncMode()
	if err != nil {
		panic(fmt.Sprintf("dist: failed to create CBOR enc mode: %v", err))
	}
	cborEncMode = em
}

// MarshalCode serializes a compiled unit tree to CBOR bytes.
func MarshalCode(c *vm.CompiledCode) ([]byte, error) {
	data, err := cborEncMode.Marshal(c)
	if err != nil {
		return nil, fmt.Errorf("dist: marshal unit: %w", err)
	}
	return data, nil
}

// UnmarshalCode deserializes a compiled unit tree from CBOR bytes.
func UnmarshalCode(data []byte) (*vm.CompiledCode, error) {
	var c vm.CompiledCode
	if err := cbor.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("dist: unmarshal unit: %w", err)
	}
	return &c, nil
}

// MarshalChunk serializes a Chunk to CBOR bytes.
func MarshalChunk(c *Chunk) ([]byte, error) {
	data, err := cborEncMode.Marshal(c)
	if err != nil {
		return nil, fmt.Errorf("dist: marshal chunk: %w", err)
	}
	return data, nil
}

// UnmarshalChunk deserializes a Chunk from CBOR bytes and verifies it.
func UnmarshalChunk(data []byte) (*Chunk, error) {
	var c Chunk
	if err := cbor.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("dist: unmarshal chunk: %w", err)
	}
	if err := c.Verify(); err != nil {
		return nil, err
	}
	return &c, nil
}
