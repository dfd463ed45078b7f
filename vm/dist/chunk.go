// Package dist persists and transfers compiled units. Units travel as
// content-addressed chunks encoded in canonical CBOR, and a SQLite store
// keeps them across processes.
package dist

import (
	"crypto/sha256"
	"fmt"

	"github.com/chazu/garnet/vm"
)

// ChunkVersion is bumped whenever the chunk layout or the meaning of a
// compiled unit's bytecode changes. Chunks of another version are rejected.
const ChunkVersion byte = 1

// Chunk is the unit of caching and distribution: a compiled unit stored
// under the cache key of the source it was compiled from.
//
// Digest is the SHA-256 of the unit's canonical encoding, so a reader can
// detect a damaged or tampered entry without recompiling.
type Chunk struct {
	Key        [32]byte         `cbor:"1,keyasint"`
	Version    byte             `cbor:"2,keyasint"`
	Kind       string           `cbor:"3,keyasint"` // container kind the unit was compiled as
	Code       *vm.CompiledCode `cbor:"4,keyasint"`
	EvalLocals []string         `cbor:"5,keyasint,omitempty"` // names the unit defines in its session frame
	Digest     [32]byte         `cbor:"6,keyasint"`
}

// NewChunk wraps a compiled unit for storage under key.
func NewChunk(key [32]byte, kind string, code *vm.CompiledCode, evalLocals []string) (*Chunk, error) {
	if code == nil {
		return nil, fmt.Errorf("dist: new chunk: nil unit")
	}
	digest, err := Digest(code)
	if err != nil {
		return nil, err
	}
	return &Chunk{
		Key:        key,
		Version:    ChunkVersion,
		Kind:       kind,
		Code:       code,
		EvalLocals: append([]string(nil), evalLocals...),
		Digest:     digest,
	}, nil
}

// Digest returns the SHA-256 of a unit's canonical encoding.
func Digest(code *vm.CompiledCode) ([32]byte, error) {
	data, err := MarshalCode(code)
	if err != nil {
		return [32]byte{}, err
	}
	return sha256.Sum256(data), nil
}

// Verify checks the chunk's version and recomputes its digest.
func (c *Chunk) Verify() error {
	if c.Version != ChunkVersion {
		return fmt.Errorf("dist: chunk version %d, want %d", c.Version, ChunkVersion)
	}
	if c.Code == nil {
		return fmt.Errorf("dist: chunk %x has no unit", c.Key[:8])
	}
	computed, err := Digest(c.Code)
	if err != nil {
		return err
	}
	if computed != c.Digest {
		return fmt.Errorf("dist: digest mismatch: declared %x, computed %x", c.Digest, computed)
	}
	return nil
}

// UnitNames lists the names of a unit and every nested unit, depth first.
func UnitNames(code *vm.CompiledCode) []string {
	var names []string
	code.Walk(func(c *vm.CompiledCode) {
		names = append(names, c.Name)
	})
	return names
}
