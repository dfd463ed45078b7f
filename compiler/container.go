package compiler

import (
	"github.com/chazu/garnet/vm"
)

// ---------------------------------------------------------------------------
// Containers: top-level compilation units
// ---------------------------------------------------------------------------

// ContainerKind selects the entry point semantics.
type ContainerKind uint8

const (
	// ScriptContainer compiles a whole program: the body's value is
	// discarded and the unit returns true.
	ScriptContainer ContainerKind = iota + 1
	// EvalContainer compiles an interactive evaluation: the unit returns the
	// body's value and resolves names through a runtime scope chain.
	EvalContainer
	// SnippetContainer compiles a bare expression with no trailing return.
	SnippetContainer
)

func (k ContainerKind) String() string {
	switch k {
	case ScriptContainer:
		return "script"
	case EvalContainer:
		return "eval"
	case SnippetContainer:
		return "snippet"
	default:
		return "invalid"
	}
}

// ParseContainerKind maps "script", "eval", or "snippet" to a kind.
func ParseContainerKind(s string) (ContainerKind, bool) {
	switch s {
	case "script":
		return ScriptContainer, true
	case "eval":
		return EvalContainer, true
	case "snippet":
		return SnippetContainer, true
	}
	return 0, false
}

// Container is a top-level compilation unit. PreExe hooks run before Body.
type Container struct {
	Pos
	Kind   ContainerKind
	Name   string // defaults per kind
	File   string
	PreExe []*PreExe
	Body   Node
}

func (*Container) node() {}

// NewScript creates a whole-program container.
func NewScript(file string, body Node) *Container {
	return &Container{Pos: Pos(lineOrZero(body)), Kind: ScriptContainer, File: file, Body: body}
}

// NewEval creates an interactive-evaluation container.
func NewEval(file string, body Node) *Container {
	return &Container{Pos: Pos(lineOrZero(body)), Kind: EvalContainer, File: file, Body: body}
}

// NewSnippet creates a bare-snippet container.
func NewSnippet(file string, body Node) *Container {
	return &Container{Pos: Pos(lineOrZero(body)), Kind: SnippetContainer, File: file, Body: body}
}

func lineOrZero(n Node) int {
	if n == nil {
		return 0
	}
	return lineOf(n)
}

// UnitName returns the name given to the compiled unit.
func (u *Container) UnitName() string {
	if u.Name != "" {
		return u.Name
	}
	switch u.Kind {
	case EvalContainer:
		return "__eval_script__"
	case SnippetContainer:
		return "__snippet__"
	default:
		return "__script__"
	}
}

// ShouldCache reports whether an evaluation unit may be cached. A body
// that is itself a definition manages its own scope and is compiled fresh.
func (u *Container) ShouldCache() bool {
	if u.Kind != EvalContainer {
		return false
	}
	switch u.Body.(type) {
	case *Define, *DefineSingleton, *Class, *Module, *SClass:
		return false
	}
	return true
}

// Result is the output of one lowering pass.
type Result struct {
	Code      *vm.CompiledCode
	Bindings  map[Node]Reference // resolved variable references and assignments
	Cacheable bool
	// EvalLocals lists the evaluation locals an EvalContainer declared.
	// Define them on the runtime scope after running the unit.
	EvalLocals []string
}

// Compile lowers a container with the default assembler. Evaluation
// containers compile against an empty runtime scope chain.
func Compile(u *Container) (*Result, error) {
	return CompileWith(vm.NewAssembler(u.UnitName()), u, nil)
}

// CompileEval lowers an evaluation container against runtime.
func CompileEval(u *Container, runtime *RuntimeScope) (*Result, error) {
	return CompileWith(vm.NewAssembler(u.UnitName()), u, runtime)
}

// CompileWith lowers u into g. runtime is only consulted for EvalContainer.
// On failure no unit is returned.
func CompileWith(g vm.Generator, u *Container, runtime *RuntimeScope) (*Result, error) {
	if u == nil {
		return nil, malformed(nil, "missing container")
	}
	c := newCompiler(g)

	switch u.Kind {
	case ScriptContainer, SnippetContainer:
		c.scope = c.scopes.Open(MethodScope, NoScope)
	case EvalContainer:
		c.scope = c.scopes.OpenEval(runtime)
	default:
		return nil, unsupported(u, "unknown container kind %d", u.Kind)
	}

	g.SetName(u.UnitName())
	g.SetFile(u.File)
	g.SetLine(u.Line())
	g.Pos(u.Line())

	for _, hook := range u.PreExe {
		if hook == nil {
			c.fail(malformed(u, "nil pre-execution hook"))
			break
		}
		c.emitValue(hook.Body, hook)
		c.g.Pop()
	}

	switch u.Kind {
	case ScriptContainer:
		c.emitBody(u.Body)
		c.g.Pop()
		c.g.PushTrue()
		c.g.Ret()
	case EvalContainer:
		c.emitBody(u.Body)
		c.g.Ret()
	case SnippetContainer:
		c.emitBody(u.Body)
	}

	evalLocals := c.scopes.EvalLocals(c.scope)
	count, names := c.scopes.Close(c.scope)
	if c.err != nil {
		return nil, c.err
	}
	g.SetLocalCount(count)
	g.SetLocalNames(names)

	return &Result{
		Code:       g.Close(),
		Bindings:   c.bindings,
		Cacheable:  u.ShouldCache(),
		EvalLocals: evalLocals,
	}, nil
}
