package compiler

import (
	"errors"
	"fmt"
	"reflect"
)

// Sentinels for errors.Is checks against a *CompileError.
var (
	ErrMalformedInput       = errors.New("malformed input")
	ErrUnsupportedConstruct = errors.New("unsupported construct")
)

// ErrorKind classifies a compile failure.
type ErrorKind int

const (
	// MalformedInput: a node field holds a value of an unexpected shape.
	MalformedInput ErrorKind = iota + 1
	// UnsupportedConstruct: a node kind outside the known set reached lowering.
	UnsupportedConstruct
)

func (k ErrorKind) String() string {
	switch k {
	case MalformedInput:
		return "malformed input"
	case UnsupportedConstruct:
		return "unsupported construct"
	default:
		return "compile error"
	}
}

// CompileError is a failure raised while lowering a node. A lowering pass
// stops at the first one; no partial output is returned alongside it.
type CompileError struct {
	Kind ErrorKind
	Node string // node kind, e.g. "*compiler.Send"
	Line int
	Msg  string
}

func (e *CompileError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("line %d: %s: %s (%s)", e.Line, e.Kind, e.Msg, e.Node)
	}
	return fmt.Sprintf("%s: %s (%s)", e.Kind, e.Msg, e.Node)
}

// Is matches the package sentinels.
func (e *CompileError) Is(target error) bool {
	switch target {
	case ErrMalformedInput:
		return e.Kind == MalformedInput
	case ErrUnsupportedConstruct:
		return e.Kind == UnsupportedConstruct
	}
	return false
}

func malformed(n Node, format string, args ...interface{}) *CompileError {
	return newError(MalformedInput, n, format, args...)
}

func unsupported(n Node, format string, args ...interface{}) *CompileError {
	return newError(UnsupportedConstruct, n, format, args...)
}

func newError(kind ErrorKind, n Node, format string, args ...interface{}) *CompileError {
	e := &CompileError{Kind: kind, Node: fmt.Sprintf("%T", n), Msg: fmt.Sprintf(format, args...)}
	if n != nil {
		e.Line = lineOf(n)
	}
	return e
}

// lineOf returns the node's line, or 0 for a nil or typed-nil node.
func lineOf(n Node) int {
	if n == nil {
		return 0
	}
	if v := reflect.ValueOf(n); v.Kind() == reflect.Ptr && v.IsNil() {
		return 0
	}
	return n.Line()
}
