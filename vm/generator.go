package vm

// ---------------------------------------------------------------------------
// Generator: the emission protocol driven by the compiler
// ---------------------------------------------------------------------------

// Generator is the ordered instruction-emission API the compiler drives. The
// compiler never inspects how instructions are encoded; Assembler is the
// reference implementation.
type Generator interface {
	// Stack
	Pop()
	Dup()
	Swap()

	// Values
	PushNil()
	PushTrue()
	PushFalse()
	PushSelf()
	PushInt(v int64)
	PushLiteral(lit Literal)
	PushUndefined()

	// Execution context
	PushScope()
	PushType()
	PushRuntime()
	PushCpathTop()
	PushVariables()
	PushProc()
	AddScope()
	PushConst(name string)
	FindConst(name string)

	// Locals
	PushLocal(slot int)
	SetLocal(slot int)
	PushLocalDepth(depth, slot int)
	SetLocalDepth(depth, slot int)
	PassedArg(slot int)

	// Sends
	Send(name string, argc int, private bool)
	SendWithBlock(name string, argc int, private bool)

	// Control flow
	NewLabel() *Label
	SetLabel(l *Label)
	Goto(l *Label)
	GotoIfTrue(l *Label)
	GotoIfFalse(l *Label)
	Ret()

	// Arrays and coercion
	MakeArray(n int)
	CastArray()
	ShiftArray()
	CastMultiValue()
	MetaToS()

	// Nested units
	Nested(name string) Generator
	Close() *CompiledCode
	CreateBlock(code *CompiledCode)
	PushCode(code *CompiledCode)

	// Unit metadata
	Pos(line int)
	SetName(name string)
	SetFile(file string)
	SetLine(line int)
	SetLocalCount(n int)
	SetLocalNames(names []string)
	SetArity(arity int)
	SetRequiredArgs(n int)
	SetPostArgs(n int)
	SetTotalArgs(n int)
	SetSplatIndex(i int)
	SetBlockIndex(i int)
	SetKeywords(names []string)
}
