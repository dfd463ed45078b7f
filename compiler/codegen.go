package compiler

import (
	"github.com/chazu/garnet/vm"
)

// ---------------------------------------------------------------------------
// Codegen: lower AST nodes through a vm.Generator
// ---------------------------------------------------------------------------

// Compiler holds the state of one lowering pass. It is not reused across
// passes and must not be shared between goroutines.
type Compiler struct {
	g        vm.Generator
	scopes   *Scopes
	scope    ScopeID
	bindings map[Node]Reference
	err      error
}

func newCompiler(g vm.Generator) *Compiler {
	return &Compiler{
		g:        g,
		scopes:   NewScopes(),
		scope:    NoScope,
		bindings: make(map[Node]Reference),
	}
}

// fail records the first error. Emission stops once one is recorded.
func (c *Compiler) fail(err error) {
	if c.err == nil {
		c.err = err
	}
}

// nested lowers a child unit with its own scope and returns it. Block
// scopes see the enclosing scope; the other kinds are closed.
func (c *Compiler) nested(name string, kind ScopeKind, line int, body func()) *vm.CompiledCode {
	outerG, outerScope := c.g, c.scope

	c.g = outerG.Nested(name)
	c.scope = c.scopes.Open(kind, outerScope)
	c.g.SetLine(line)
	c.g.Pos(line)

	body()

	count, names := c.scopes.Close(c.scope)
	c.g.SetLocalCount(count)
	c.g.SetLocalNames(names)
	code := c.g.Close()

	c.g, c.scope = outerG, outerScope
	return code
}

// emitBody emits a unit body, which may be empty.
func (c *Compiler) emitBody(body Node) {
	if body == nil {
		c.g.PushNil()
		return
	}
	c.emit(body)
}

// emitValue emits a value that owner requires.
func (c *Compiler) emitValue(n Node, owner Node) {
	if n == nil {
		c.fail(malformed(owner, "missing value"))
		return
	}
	c.emit(n)
}

// emit lowers one node, leaving its value on the stack.
func (c *Compiler) emit(n Node) {
	if c.err != nil {
		return
	}
	c.g.Pos(lineOf(n))

	switch n := n.(type) {
	// Literals
	case *NilLiteral:
		c.g.PushNil()
	case *TrueLiteral:
		c.g.PushTrue()
	case *FalseLiteral:
		c.g.PushFalse()
	case *Self:
		c.g.PushSelf()
	case *IntLiteral:
		c.g.PushInt(n.Value)
	case *SymbolLiteral:
		c.g.PushLiteral(vm.Symbol(n.Value))
	case *StringLiteral:
		c.g.PushLiteral(vm.String(n.Value))
	case *ArrayLiteral:
		for _, el := range n.Elements {
			c.emitValue(el, n)
		}
		c.g.MakeArray(len(n.Elements))

	// Variables and constants
	case *LocalVariableAccess:
		c.emitLocalAccess(n)
	case *LocalVariableAssignment:
		c.emitLocalAssignment(n)
	case *ClassVariableAccess:
		c.pushClassVariableHolder()
		c.g.PushLiteral(vm.Symbol(n.Name))
		c.g.Send("class_variable_get", 1, false)
	case *ClassVariableAssignment:
		c.pushClassVariableHolder()
		c.g.PushLiteral(vm.Symbol(n.Name))
		c.emitValue(n.Value, n)
		c.g.Send("class_variable_set", 2, false)
	case *ConstantAccess:
		c.g.PushConst(n.Name)
	case *ScopedConstant:
		c.emitValue(n.Parent, n)
		c.g.FindConst(n.Name)
	case *ToplevelConstant:
		c.g.PushCpathTop()
		c.g.FindConst(n.Name)

	// Sequences, sends, closures
	case *Block:
		c.emitBlock(n)
	case *Send:
		c.emitSend(n)
	case *Iter:
		c.emitIter(n)
	case *Lambda:
		if n.Block == nil {
			c.fail(malformed(n, "lambda without a body"))
			return
		}
		c.g.PushSelf()
		c.emitIter(n.Block)
		c.g.SendWithBlock("lambda", 0, true)
	case *PreExe:
		// Hooks are run by the container; in place the node is nil.
		c.g.PushNil()
	case *MultipleAssignment:
		c.emitMultipleAssignment(n)

	// Alias, undef, defined?
	case *Alias:
		c.g.PushScope()
		c.emitValue(n.To, n)
		c.emitValue(n.From, n)
		c.g.Send("alias_method", 2, true)
	case *GlobalAlias:
		c.g.PushRuntime()
		c.g.FindConst("Globals")
		c.g.PushLiteral(vm.Symbol(n.From))
		c.g.PushLiteral(vm.Symbol(n.To))
		c.g.Send("add_alias", 2, false)
	case *Undef:
		c.g.PushScope()
		c.emitValue(n.Name, n)
		c.g.Send("__undef_method__", 1, false)
	case *Defined:
		c.emitDefined(n)

	// Value coercion
	case *SplatValue:
		c.emitSplatValue(n)
	case *ConcatArgs:
		c.emitConcatArgs(n)
	case *PushArgs:
		c.emitPushArgs(n)
	case *SingleValue:
		c.emitSingleValue(n)
	case *ToArray:
		c.emitToArray(n)
	case *ToString:
		c.emitToString(n)

	// Definitions
	case *Define:
		c.emitDefine(n)
	case *DefineSingleton:
		c.emitDefineSingleton(n)
	case *Class:
		c.emitClass(n)
	case *Module:
		c.emitModule(n)
	case *SClass:
		c.emitSClass(n)

	case nil:
		c.fail(malformed(nil, "nil node"))
	default:
		// Parameters, patterns, and containers only appear in their
		// owning positions.
		c.fail(unsupported(n, "node cannot be lowered as an expression"))
	}
}

// emitBlock emits a statement sequence; every value but the last is
// discarded.
func (c *Compiler) emitBlock(b *Block) {
	if len(b.Body) == 0 {
		c.g.PushNil()
		return
	}
	for i, stmt := range b.Body {
		if i > 0 {
			c.g.Pop()
		}
		c.emitValue(stmt, b)
	}
}

// ---------------------------------------------------------------------------
// Variables
// ---------------------------------------------------------------------------

func (c *Compiler) emitLocalAccess(n *LocalVariableAccess) {
	ref := c.scopes.Resolve(c.scope, n.Name)
	c.bindings[n] = ref
	c.pushReference(ref)
}

func (c *Compiler) emitLocalAssignment(n *LocalVariableAssignment) {
	c.emitValue(n.Value, n)
	ref := c.scopes.Resolve(c.scope, n.Name)
	c.bindings[n] = ref
	c.setReference(ref)
}

func (c *Compiler) pushReference(ref Reference) {
	switch {
	case ref.Kind == EvalRef:
		c.g.PushVariables()
		c.g.PushLiteral(vm.Symbol(ref.Name))
		c.g.Send("get_eval_local", 1, true)
	case ref.Depth == 0:
		c.g.PushLocal(ref.Slot)
	default:
		c.g.PushLocalDepth(ref.Depth, ref.Slot)
	}
}

// setReference stores the top of the stack; the value stays on the stack.
func (c *Compiler) setReference(ref Reference) {
	switch {
	case ref.Kind == EvalRef:
		c.g.PushVariables()
		c.g.Swap()
		c.g.PushLiteral(vm.Symbol(ref.Name))
		c.g.Swap()
		c.g.Send("set_eval_local", 2, true)
	case ref.Depth == 0:
		c.g.SetLocal(ref.Slot)
	default:
		c.g.SetLocalDepth(ref.Depth, ref.Slot)
	}
}

// pushClassVariableHolder pushes the module that owns class variables: self
// inside a class or module body, the lexical scope elsewhere.
func (c *Compiler) pushClassVariableHolder() {
	if c.scopes.IsModule(c.scope) {
		c.g.PushSelf()
	} else {
		c.g.PushScope()
	}
}

// emitMultipleAssignment destructures the right-hand side into the targets
// and leaves the right-hand side array as the value.
func (c *Compiler) emitMultipleAssignment(m *MultipleAssignment) {
	p, err := patternFrom(m)
	if err != nil {
		c.fail(err)
		return
	}
	c.emitValue(m.Value, m)
	if _, ok := m.Value.(*ToArray); !ok {
		c.g.CastArray()
	}
	c.g.Dup()
	c.g.Send("dup", 0, false)
	c.decompose(p, func(name string) Reference {
		return c.scopes.Resolve(c.scope, name)
	})
	c.g.Pop()
	for _, leaf := range p.Leaves() {
		if leaf.Name != "*" {
			c.bindings[leaf] = c.scopes.Resolve(c.scope, leaf.Name)
		}
	}
}

// ---------------------------------------------------------------------------
// Sends and closures
// ---------------------------------------------------------------------------

func (c *Compiler) emitSend(s *Send) {
	if s.Receiver != nil {
		c.emit(s.Receiver)
	} else {
		c.g.PushSelf()
	}
	for _, arg := range s.Arguments {
		c.emitValue(arg, s)
	}
	private := s.Receiver == nil
	if s.Block != nil {
		c.emitIter(s.Block)
		c.g.SendWithBlock(s.Name, len(s.Arguments), private)
		return
	}
	c.g.Send(s.Name, len(s.Arguments), private)
}

// emitIter builds the block unit for a block literal and pushes the block.
func (c *Compiler) emitIter(it *Iter) {
	params := it.Params
	if params == nil {
		params = NewParameters(it.Line())
	}
	code := c.nested("__block__", BlockScope, it.Line(), func() {
		c.declareParameters(params)
		c.emitParameters(params)
		c.emitBody(it.Body)
		c.g.Ret()
	})
	if c.err != nil {
		return
	}
	c.g.CreateBlock(code)
}

// ---------------------------------------------------------------------------
// defined?
// ---------------------------------------------------------------------------

// emitDefined pushes a description string when the expression is defined
// and nil otherwise. Each node kind supplies its own probe.
func (c *Compiler) emitDefined(d *Defined) {
	switch e := d.Expression.(type) {
	case nil:
		c.fail(malformed(d, "defined? without an expression"))
	case *Self:
		c.pushDescription("self")
	case *NilLiteral:
		c.pushDescription("expression")
	case *TrueLiteral, *FalseLiteral:
		c.pushDescription("expression")
	case *LocalVariableAccess:
		if _, ok := c.scopes.Lookup(c.scope, e.Name); ok {
			c.pushDescription("local-variable")
		} else {
			c.g.PushNil()
		}
	case *LocalVariableAssignment, *ClassVariableAssignment, *MultipleAssignment:
		c.pushDescription("assignment")
	case *ConstantAccess:
		c.probe("constant", func() {
			c.g.PushRuntime()
			c.g.PushScope()
			c.g.PushLiteral(vm.Symbol(e.Name))
			c.g.Send("const_defined?", 2, false)
		})
	case *ToplevelConstant:
		c.probe("constant", func() {
			c.g.PushRuntime()
			c.g.PushCpathTop()
			c.g.PushLiteral(vm.Symbol(e.Name))
			c.g.Send("const_defined_under?", 2, false)
		})
	case *ScopedConstant:
		c.probe("constant", func() {
			c.g.PushRuntime()
			c.emitValue(e.Parent, e)
			c.g.PushLiteral(vm.Symbol(e.Name))
			c.g.Send("const_defined_under?", 2, false)
		})
	case *ClassVariableAccess:
		c.probe("class variable", func() {
			c.pushClassVariableHolder()
			c.g.PushLiteral(vm.Symbol(e.Name))
			c.g.Send("class_variable_defined?", 1, false)
		})
	case *Send:
		c.probe("method", func() {
			if e.Receiver == nil {
				c.g.PushSelf()
				c.g.PushLiteral(vm.Symbol(e.Name))
				c.g.PushTrue()
				c.g.Send("respond_to?", 2, false)
				return
			}
			c.emit(e.Receiver)
			c.g.PushLiteral(vm.Symbol(e.Name))
			c.g.Send("respond_to?", 1, false)
		})
	default:
		c.pushDescription("expression")
	}
}

func (c *Compiler) pushDescription(s string) {
	c.g.PushLiteral(vm.String(s))
}

// probe emits check and pushes description when it leaves a true value,
// nil otherwise.
func (c *Compiler) probe(description string, check func()) {
	missing := c.g.NewLabel()
	done := c.g.NewLabel()
	check()
	c.g.GotoIfFalse(missing)
	c.pushDescription(description)
	c.g.Goto(done)
	c.g.SetLabel(missing)
	c.g.PushNil()
	c.g.SetLabel(done)
}
