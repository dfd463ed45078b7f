package compiler

// ---------------------------------------------------------------------------
// Destructuring patterns in parameter position
// ---------------------------------------------------------------------------

// PatternKind tags a pattern leaf with the side of the splat it came from.
type PatternKind uint8

const (
	LeftPattern PatternKind = iota + 1
	PostPattern
	SplatPattern
)

func (k PatternKind) String() string {
	switch k {
	case LeftPattern:
		return "left"
	case PostPattern:
		return "post"
	case SplatPattern:
		return "splat"
	default:
		return "invalid"
	}
}

// PatternElement is a *PatternLeaf or a nested *PatternArguments.
type PatternElement interface {
	Node
	patternElement()
}

// PatternLeaf is one named position in a pattern. Index is the position
// among the post-splat targets and is only meaningful for PostPattern.
type PatternLeaf struct {
	Pos
	Kind  PatternKind
	Name  string
	Index int
}

// PatternArguments is a nested destructuring pattern such as the (a, (b, c))
// in def m((a, (b, c))). Elements are stored in decomposition order: left
// targets first, post targets last-to-first, the splat target last. Post is
// set on a sub-pattern taken from the post-splat side of its parent.
type PatternArguments struct {
	Pos
	Elements []PatternElement
	Post     bool
	Index    int
}

func (*PatternLeaf) node()                {}
func (*PatternArguments) node()           {}
func (*PatternLeaf) patternElement()      {}
func (*PatternArguments) patternElement() {}

// NewPatternArguments builds a pattern from a multiple-assignment node.
func NewPatternArguments(m *MultipleAssignment) (*PatternArguments, error) {
	p, err := patternFrom(m)
	if err != nil {
		return nil, err
	}
	if p.Bound() == nil {
		return nil, malformed(m, "destructuring pattern binds no names")
	}
	return p, nil
}

func patternFrom(m *MultipleAssignment) (*PatternArguments, error) {
	if m == nil {
		return nil, malformed(nil, "missing destructuring pattern")
	}
	p := &PatternArguments{Pos: m.Pos}

	for _, n := range m.Left {
		el, err := patternElement(n, LeftPattern, 0)
		if err != nil {
			return nil, err
		}
		p.Elements = append(p.Elements, el)
	}

	post := make([]PatternElement, 0, len(m.Post))
	for i, n := range m.Post {
		el, err := patternElement(n, PostPattern, i)
		if err != nil {
			return nil, err
		}
		post = append(post, el)
	}
	for i := len(post) - 1; i >= 0; i-- {
		p.Elements = append(p.Elements, post[i])
	}

	switch s := m.Splat.(type) {
	case nil:
	case *EmptySplat:
		p.Elements = append(p.Elements, &PatternLeaf{Pos: s.Pos, Kind: SplatPattern, Name: "*"})
	case *SplatAssignment:
		if s.Name == "" {
			return nil, malformed(s, "splat target has no name")
		}
		p.Elements = append(p.Elements, &PatternLeaf{Pos: s.Pos, Kind: SplatPattern, Name: s.Name})
	default:
		return nil, malformed(m.Splat, "unexpected splat target in pattern")
	}
	return p, nil
}

func patternElement(n Node, kind PatternKind, index int) (PatternElement, error) {
	switch n := n.(type) {
	case *MultipleAssignment:
		sub, err := patternFrom(n)
		if err != nil {
			return nil, err
		}
		sub.Post = kind == PostPattern
		sub.Index = index
		return sub, nil
	case *LocalVariableAssignment:
		if n.Value != nil {
			return nil, malformed(n, "pattern target %q has a value", n.Name)
		}
		return &PatternLeaf{Pos: n.Pos, Kind: kind, Name: n.Name, Index: index}, nil
	case *LocalVariableAccess:
		return &PatternLeaf{Pos: n.Pos, Kind: kind, Name: n.Name, Index: index}, nil
	default:
		return nil, malformed(n, "unexpected pattern target")
	}
}

// Bound returns the leaf that receives the caller's argument: the first leaf
// in depth-first, left-to-right order.
func (p *PatternArguments) Bound() *PatternLeaf {
	for _, el := range p.Elements {
		switch el := el.(type) {
		case *PatternLeaf:
			return el
		case *PatternArguments:
			if leaf := el.Bound(); leaf != nil {
				return leaf
			}
		}
	}
	return nil
}

// Leaves returns every leaf in decomposition order.
func (p *PatternArguments) Leaves() []*PatternLeaf {
	var out []*PatternLeaf
	for _, el := range p.Elements {
		switch el := el.(type) {
		case *PatternLeaf:
			out = append(out, el)
		case *PatternArguments:
			out = append(out, el.Leaves()...)
		}
	}
	return out
}

// decompose emits the destructuring of the array on top of the stack into
// the pattern's targets. The array is left on the stack. bind supplies the
// binding for each target name.
func (c *Compiler) decompose(p *PatternArguments, bind func(name string) Reference) {
	for _, el := range p.Elements {
		if c.err != nil {
			return
		}
		switch el := el.(type) {
		case *PatternArguments:
			if el.Post {
				c.g.Dup()
				c.g.Send("pop", 0, false)
			} else {
				c.g.ShiftArray()
			}
			c.g.CastArray()
			c.decompose(el, bind)
			c.g.Pop()
		case *PatternLeaf:
			switch el.Kind {
			case LeftPattern:
				c.g.ShiftArray()
			case PostPattern:
				c.g.Dup()
				c.g.Send("pop", 0, false)
			case SplatPattern:
				if el.Name == "*" {
					continue
				}
				c.g.Dup()
			}
			c.setReference(bind(el.Name))
			c.g.Pop()
		}
	}
}
