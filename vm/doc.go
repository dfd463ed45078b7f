// Package vm defines the compiled form of garnet code.
//
// This package contains:
//   - the Generator protocol the compiler emits instructions through
//   - Assembler, the byte-coded Generator
//   - CompiledCode units and their disassembly
//   - ContentStore, the in-memory index of compiled units
package vm
