package compiler

import (
	"strconv"

	"github.com/chazu/garnet/vm"
)

// ---------------------------------------------------------------------------
// Parameters: formal parameter lists and their binding code
// ---------------------------------------------------------------------------

// SplatKind is the state of the rest parameter.
type SplatKind uint8

const (
	SplatNone      SplatKind = iota // no rest parameter
	SplatNamed                      // *rest
	SplatAnonymous                  // *
	SplatReserved                   // |a,| : a rest position exists but nothing is captured
)

// Splat describes the rest parameter. Name is set only for SplatNamed.
type Splat struct {
	Kind SplatKind
	Name string
}

// KeywordRestKind is the state of the keyword-rest parameter.
type KeywordRestKind uint8

const (
	KeywordRestNone KeywordRestKind = iota
	KeywordRestNamed
	KeywordRestAnonymous
)

// KeywordRest describes a **rest parameter.
type KeywordRest struct {
	Kind KeywordRestKind
	Name string
}

// Parameter is a required or post parameter: a plain name, or a destructuring
// pattern. Name is the slot the argument arrives in; for a pattern it is the
// bound leaf's name unless another positional parameter already holds it.
type Parameter struct {
	Name    string
	Pattern *PatternArguments
}

// DefaultArguments holds the optional parameters and their default values.
type DefaultArguments struct {
	Pos
	Arguments []*LocalVariableAssignment
}

// Keyword is one keyword parameter. A nil Default makes it required.
type Keyword struct {
	Name    string
	Default Node
}

// Required reports whether the caller must supply the keyword.
func (k Keyword) Required() bool { return k.Default == nil }

// KeywordParameters is the keyword section of a parameter list. It may hold
// only a keyword rest.
type KeywordParameters struct {
	Pos
	Keywords []Keyword
	Rest     KeywordRest
}

// Required reports whether at least one keyword has no default.
func (k *KeywordParameters) Required() bool {
	for _, kw := range k.Keywords {
		if kw.Required() {
			return true
		}
	}
	return false
}

// BlockArgument is the &block parameter. A placeholder reserves the slot
// before the real name is known.
type BlockArgument struct {
	Pos
	Name        string
	Placeholder bool
}

// Parameters is the formal parameter contract of one method or block.
// Build it with the Add and Set methods; they keep the at-most-one splat
// and at-most-one block parameter rules.
type Parameters struct {
	Pos
	Required []Parameter
	Defaults *DefaultArguments
	Splat    Splat
	Post     []Parameter
	Keywords *KeywordParameters
	Block    *BlockArgument
}

func (*Parameters) node()        {}
func (*DefaultArguments) node()  {}
func (*KeywordParameters) node() {}
func (*BlockArgument) node()     {}

// NewParameters creates an empty parameter list.
func NewParameters(line int) *Parameters {
	return &Parameters{Pos: Pos(line)}
}

// AddRequired appends a required parameter before the splat. A name already
// taken by an earlier positional parameter is renamed after its position so
// it gets its own slot.
func (p *Parameters) AddRequired(name string) {
	p.Required = append(p.Required, Parameter{Name: p.uniqueName(name, len(p.Required))})
}

// AddRequiredPattern appends a destructuring pattern before the splat.
func (p *Parameters) AddRequiredPattern(m *MultipleAssignment) error {
	pat, err := NewPatternArguments(m)
	if err != nil {
		return err
	}
	p.Required = append(p.Required, Parameter{Name: p.patternName(pat, len(p.Required)), Pattern: pat})
	return nil
}

// AddOptional appends an optional parameter with its default value.
func (p *Parameters) AddOptional(name string, value Node) {
	if p.Defaults == nil {
		p.Defaults = &DefaultArguments{Pos: p.Pos}
	}
	line := p.Pos
	if value != nil {
		line = Pos(lineOf(value))
	}
	name = p.uniqueName(name, len(p.Required)+len(p.Defaults.Arguments))
	p.Defaults.Arguments = append(p.Defaults.Arguments,
		&LocalVariableAssignment{Pos: line, Name: name, Value: value})
}

// SetSplat sets the rest parameter, replacing any earlier one.
func (p *Parameters) SetSplat(s Splat) {
	p.Splat = Splat{}
	if s.Kind == SplatNamed {
		s.Name = p.uniqueName(s.Name, len(p.Required)+p.optionalCount())
	} else {
		s.Name = ""
	}
	p.Splat = s
}

// AddPost appends a required parameter after the splat.
func (p *Parameters) AddPost(name string) {
	p.Post = append(p.Post, Parameter{Name: p.uniqueName(name, p.postPosition())})
}

// AddPostPattern appends a destructuring pattern after the splat.
func (p *Parameters) AddPostPattern(m *MultipleAssignment) error {
	pat, err := NewPatternArguments(m)
	if err != nil {
		return err
	}
	p.Post = append(p.Post, Parameter{Name: p.patternName(pat, p.postPosition()), Pattern: pat})
	return nil
}

// AddKeyword appends a keyword parameter. A nil def makes it required.
func (p *Parameters) AddKeyword(name string, def Node) {
	p.keywords().Keywords = append(p.keywords().Keywords, Keyword{Name: name, Default: def})
}

// SetKeywordRest sets the **rest parameter.
func (p *Parameters) SetKeywordRest(r KeywordRest) {
	if r.Kind != KeywordRestNamed {
		r.Name = ""
	}
	p.keywords().Rest = r
}

func (p *Parameters) keywords() *KeywordParameters {
	if p.Keywords == nil {
		p.Keywords = &KeywordParameters{Pos: p.Pos}
	}
	return p.Keywords
}

// ReserveBlock reserves the block parameter slot without naming it.
func (p *Parameters) ReserveBlock() {
	if p.Block == nil {
		p.Block = &BlockArgument{Pos: p.Pos, Placeholder: true}
	}
}

// SetBlock declares the block parameter. A placeholder or an earlier block
// parameter is replaced in place; there is never more than one.
func (p *Parameters) SetBlock(name string) {
	if p.Block == nil {
		p.Block = &BlockArgument{Pos: p.Pos}
	}
	p.Block.Name = name
	p.Block.Placeholder = false
}

// uniqueName returns name, or name suffixed with its position when an
// earlier positional parameter already holds it.
func (p *Parameters) uniqueName(name string, position int) string {
	if !p.positionalName(name) {
		return name
	}
	unique := name + strconv.Itoa(position)
	for p.positionalName(unique) {
		unique += "_"
	}
	return unique
}

// patternName names the slot that receives a pattern parameter's argument.
// It is the bound leaf's name unless that is taken or is the anonymous
// splat marker.
func (p *Parameters) patternName(pat *PatternArguments, position int) string {
	name := pat.Bound().Name
	if name == "*" {
		return p.uniqueName("*"+strconv.Itoa(position), position)
	}
	return p.uniqueName(name, position)
}

func (p *Parameters) postPosition() int {
	pos := len(p.Required) + p.optionalCount() + len(p.Post)
	if p.Splat.Kind == SplatNamed || p.Splat.Kind == SplatAnonymous {
		pos++
	}
	return pos
}

// positionalName reports whether a positional parameter occupies name.
func (p *Parameters) positionalName(name string) bool {
	for _, r := range p.Required {
		if r.Name == name {
			return true
		}
	}
	if p.Defaults != nil {
		for _, d := range p.Defaults.Arguments {
			if d.Name == name {
				return true
			}
		}
	}
	switch p.Splat.Kind {
	case SplatNamed:
		if p.Splat.Name == name {
			return true
		}
	case SplatAnonymous:
		if name == "*" {
			return true
		}
	}
	for _, r := range p.Post {
		if r.Name == name {
			return true
		}
	}
	return false
}

// ---------------------------------------------------------------------------
// Arity contract
// ---------------------------------------------------------------------------

func (p *Parameters) optionalCount() int {
	if p.Defaults == nil {
		return 0
	}
	return len(p.Defaults.Arguments)
}

// RequiredArgs is the number of positional arguments the caller must pass.
func (p *Parameters) RequiredArgs() int {
	return len(p.Required) + len(p.Post)
}

// TotalArgs is the number of positional parameters, optional included.
func (p *Parameters) TotalArgs() int {
	return len(p.Required) + p.optionalCount() + len(p.Post)
}

// Variadic reports whether the unit accepts a variable argument count.
func (p *Parameters) Variadic() bool {
	if p.Splat.Kind == SplatNamed || p.Splat.Kind == SplatAnonymous {
		return true
	}
	if p.optionalCount() > 0 {
		return true
	}
	return p.Keywords != nil && !p.Keywords.Required()
}

// Arity returns the arity reported to the dispatcher: the fixed argument
// count, or -(minimum+1) for variadic lists. A required keyword counts as
// one argument (the keyword hash).
func (p *Parameters) Arity() int {
	arity := p.RequiredArgs()
	if p.Keywords != nil && p.Keywords.Required() {
		arity++
	}
	if p.Variadic() {
		arity++
		arity = -arity
	}
	return arity
}

// SplatIndex returns the rest parameter's slot, vm.ReservedSplat for a
// reserved position, or vm.NoSplat.
func (p *Parameters) SplatIndex() int {
	switch p.Splat.Kind {
	case SplatNamed, SplatAnonymous:
		return len(p.Required) + p.optionalCount()
	case SplatReserved:
		return vm.ReservedSplat
	default:
		return vm.NoSplat
	}
}

// KeywordNames returns the keyword parameter names in declaration order.
func (p *Parameters) KeywordNames() []string {
	if p.Keywords == nil {
		return nil
	}
	names := make([]string, 0, len(p.Keywords.Keywords))
	for _, kw := range p.Keywords.Keywords {
		names = append(names, kw.Name)
	}
	return names
}

// Names returns the local names the parameters occupy, in slot order:
// required, optional, splat, post, keywords, keyword rest, block.
func (p *Parameters) Names() []string {
	var names []string
	for _, r := range p.Required {
		names = append(names, r.Name)
	}
	if p.Defaults != nil {
		for _, d := range p.Defaults.Arguments {
			names = append(names, d.Name)
		}
	}
	switch p.Splat.Kind {
	case SplatNamed:
		names = append(names, p.Splat.Name)
	case SplatAnonymous:
		names = append(names, "*")
	}
	for _, r := range p.Post {
		names = append(names, r.Name)
	}
	if p.Keywords != nil {
		names = append(names, p.KeywordNames()...)
		switch p.Keywords.Rest.Kind {
		case KeywordRestNamed:
			names = append(names, p.Keywords.Rest.Name)
		case KeywordRestAnonymous:
			names = append(names, "**")
		}
	}
	if p.Block != nil {
		names = append(names, p.blockName())
	}
	return names
}

func (p *Parameters) blockName() string {
	if p.Block.Placeholder || p.Block.Name == "" {
		return "&"
	}
	return p.Block.Name
}

// ---------------------------------------------------------------------------
// Lowering
// ---------------------------------------------------------------------------

// mapParameters allocates every parameter slot in the current scope before
// any binding code runs, so defaults can see all parameters and temporaries
// land after them.
func (c *Compiler) mapParameters(p *Parameters) {
	for _, name := range p.Names() {
		c.scopes.NewLocal(c.scope, name)
	}
}

// declareParameters maps the slots and writes the argument contract into
// the unit's metadata.
func (c *Compiler) declareParameters(p *Parameters) {
	c.mapParameters(p)
	c.g.SetArity(p.Arity())
	c.g.SetRequiredArgs(p.RequiredArgs())
	c.g.SetPostArgs(len(p.Post))
	c.g.SetTotalArgs(p.TotalArgs())
	c.g.SetSplatIndex(p.SplatIndex())
	if p.Block != nil {
		c.g.SetBlockIndex(c.scopes.NewLocal(c.scope, p.blockName()).Slot)
	}
	c.g.SetKeywords(p.KeywordNames())
}

// emitParameters emits the binding code at the start of a unit body:
// required patterns, optional defaults, post patterns, keyword defaults,
// then the block parameter.
func (c *Compiler) emitParameters(p *Parameters) {
	local := func(name string) Reference {
		return c.scopes.NewLocal(c.scope, name).Reference()
	}

	c.emitPatternParameters(p.Required, local)

	if p.Defaults != nil {
		for _, d := range p.Defaults.Arguments {
			if c.err != nil {
				return
			}
			slot := c.scopes.NewLocal(c.scope, d.Name).Slot
			done := c.g.NewLabel()
			c.g.PassedArg(slot)
			c.g.GotoIfTrue(done)
			c.emitValue(d.Value, d)
			c.g.SetLocal(slot)
			c.g.Pop()
			c.g.SetLabel(done)
		}
	}

	c.emitPatternParameters(p.Post, local)

	if p.Keywords != nil {
		for _, kw := range p.Keywords.Keywords {
			if c.err != nil {
				return
			}
			if kw.Required() {
				continue
			}
			slot := c.scopes.NewLocal(c.scope, kw.Name).Slot
			done := c.g.NewLabel()
			c.g.PushLocal(slot)
			c.g.PushUndefined()
			c.g.Send("equal?", 1, false)
			c.g.GotoIfFalse(done)
			c.emit(kw.Default)
			c.g.SetLocal(slot)
			c.g.Pop()
			c.g.SetLabel(done)
		}
	}

	if p.Block != nil && !p.Block.Placeholder && p.Block.Name != "" {
		c.g.PushProc()
		c.g.SetLocal(c.scopes.NewLocal(c.scope, p.Block.Name).Slot)
		c.g.Pop()
	}
}

func (c *Compiler) emitPatternParameters(params []Parameter, bind func(string) Reference) {
	for _, r := range params {
		if c.err != nil || r.Pattern == nil {
			continue
		}
		c.g.PushLocal(c.scopes.NewLocal(c.scope, r.Name).Slot)
		c.g.CastArray()
		c.decompose(r.Pattern, bind)
		c.g.Pop()
	}
}
