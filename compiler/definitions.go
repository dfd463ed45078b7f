package compiler

import "github.com/chazu/garnet/vm"

// ---------------------------------------------------------------------------
// Definitions: methods, classes, modules, singleton classes
// ---------------------------------------------------------------------------

// Define is def name(params) body.
type Define struct {
	Pos
	Name   string
	Params *Parameters
	Body   Node
}

// DefineSingleton is def receiver.name(params) body.
type DefineSingleton struct {
	Pos
	Receiver Node
	Name     string
	Params   *Parameters
	Body     Node
}

// Class is class Name < Superclass; body; end. Name is a ConstantAccess,
// ToplevelConstant, or ScopedConstant. Superclass and Body may be nil.
type Class struct {
	Pos
	Name       Node
	Superclass Node
	Body       Node
}

// Module is module Name; body; end.
type Module struct {
	Pos
	Name Node
	Body Node
}

// SClass is class << Receiver; body; end.
type SClass struct {
	Pos
	Receiver Node
	Body     Node
}

func (*Define) node()          {}
func (*DefineSingleton) node() {}
func (*Class) node()           {}
func (*Module) node()          {}
func (*SClass) node()          {}

// NameForm is the syntactic shape of a class or module name.
type NameForm uint8

const (
	SimpleName   NameForm = iota + 1 // Foo: opened in the lexical scope
	ToplevelName                     // ::Foo: opened under the namespace root
	ScopedName                       // Parent::Foo: opened under Parent
)

// ConstantName is a resolved class or module name.
type ConstantName struct {
	Form   NameForm
	Name   string
	Parent Node // ScopedName only
}

// ResolveName classifies a class or module name node.
func ResolveName(n Node) (ConstantName, error) {
	switch n := n.(type) {
	case *ConstantAccess:
		return ConstantName{Form: SimpleName, Name: n.Name}, nil
	case *ToplevelConstant:
		return ConstantName{Form: ToplevelName, Name: n.Name}, nil
	case *ScopedConstant:
		if n.Parent == nil {
			return ConstantName{}, malformed(n, "scoped name %q has no parent", n.Name)
		}
		return ConstantName{Form: ScopedName, Name: n.Name, Parent: n.Parent}, nil
	default:
		return ConstantName{}, malformed(n, "unexpected class or module name")
	}
}

// defineMethod emits the body unit for a method definition.
func (c *Compiler) defineMethod(name string, line int, params *Parameters, body Node) *vm.CompiledCode {
	if params == nil {
		params = NewParameters(line)
	}
	return c.nested(name, MethodScope, line, func() {
		c.declareParameters(params)
		c.emitParameters(params)
		c.emitBody(body)
		c.g.Ret()
	})
}

func (c *Compiler) emitDefine(d *Define) {
	code := c.defineMethod(d.Name, d.Line(), d.Params, d.Body)
	if c.err != nil {
		return
	}
	c.g.PushRuntime()
	c.g.PushLiteral(vm.Symbol(d.Name))
	c.g.PushCode(code)
	c.g.PushScope()
	c.g.PushVariables()
	c.g.Send("method_visibility", 0, false)
	c.g.Send("add_defn_method", 4, false)
}

func (c *Compiler) emitDefineSingleton(d *DefineSingleton) {
	c.emitValue(d.Receiver, d)
	code := c.defineMethod(d.Name, d.Line(), d.Params, d.Body)
	if c.err != nil {
		return
	}
	c.g.PushRuntime()
	c.g.Swap()
	c.g.PushLiteral(vm.Symbol(d.Name))
	c.g.PushCode(code)
	c.g.PushScope()
	c.g.Send("attach_method", 4, false)
}

func (c *Compiler) emitClass(k *Class) {
	name, err := ResolveName(k.Name)
	if err != nil {
		c.fail(err)
		return
	}
	c.g.PushRuntime()
	c.g.PushLiteral(vm.Symbol(name.Name))
	if k.Superclass != nil {
		c.emit(k.Superclass)
	} else {
		c.g.PushNil()
	}
	switch name.Form {
	case SimpleName:
		c.g.PushScope()
		c.g.Send("open_class", 3, false)
	case ToplevelName:
		c.g.PushCpathTop()
		c.g.Send("open_class_under", 3, false)
	case ScopedName:
		c.emit(name.Parent)
		c.g.Send("open_class_under", 3, false)
	}
	c.emitModuleBody("__class_init__", k.Line(), k.Body)
}

func (c *Compiler) emitModule(m *Module) {
	name, err := ResolveName(m.Name)
	if err != nil {
		c.fail(err)
		return
	}
	c.g.PushRuntime()
	c.g.PushLiteral(vm.Symbol(name.Name))
	switch name.Form {
	case SimpleName:
		c.g.PushScope()
		c.g.Send("open_module", 2, false)
	case ToplevelName:
		c.g.PushCpathTop()
		c.g.Send("open_module_under", 2, false)
	case ScopedName:
		c.emit(name.Parent)
		c.g.Send("open_module_under", 2, false)
	}
	c.emitModuleBody("__module_init__", m.Line(), m.Body)
}

// emitSClass opens the singleton class of the receiver. A body that only
// returns self leaves the singleton class as the value without building and
// calling a body unit.
func (c *Compiler) emitSClass(s *SClass) {
	c.emitValue(s.Receiver, s)
	c.g.PushType()
	c.g.Swap()
	c.g.Send("object_singleton_class", 1, false)
	if trivialSelfBody(s.Body) {
		return
	}
	c.emitModuleBody("__metaclass_init__", s.Line(), s.Body)
}

func trivialSelfBody(body Node) bool {
	switch b := body.(type) {
	case *Self:
		return true
	case *Block:
		if len(b.Body) != 1 {
			return false
		}
		_, ok := b.Body[0].(*Self)
		return ok
	}
	return false
}

// emitModuleBody runs body with the opened class or module on the stack as
// both self and lexical scope. An empty body discards the module and yields
// nil.
func (c *Compiler) emitModuleBody(name string, line int, body Node) {
	if c.err != nil {
		return
	}
	if isEmptyBody(body) {
		c.g.Pop()
		c.g.PushNil()
		return
	}
	code := c.nested(name, ModuleScope, line, func() {
		c.g.PushSelf()
		c.g.AddScope()
		c.emitBody(body)
		c.g.Ret()
	})
	if c.err != nil {
		return
	}
	c.g.CreateBlock(code)
	c.g.Swap()
	c.g.PushScope()
	c.g.PushTrue()
	c.g.Send("call_under", 3, false)
}

func isEmptyBody(body Node) bool {
	if body == nil {
		return true
	}
	b, ok := body.(*Block)
	return ok && len(b.Body) == 0
}
