package compiler

import (
	"fmt"
	"strconv"
	"strings"
)

// ---------------------------------------------------------------------------
// Dump: structural s-expression form of a node tree
// ---------------------------------------------------------------------------

// Sym is a symbol in a dump. The head of a list prints bare, any other
// symbol prints with a leading colon.
type Sym string

// List is one dumped node: a head symbol followed by its fields. Fields are
// Sym, string, int64, nil, or nested Lists.
type List []interface{}

// Dump returns the structural form of n. A nil node dumps as nil.
func Dump(n Node) List {
	if n == nil {
		return nil
	}
	return dumpNode(n)
}

func (l List) String() string {
	var b strings.Builder
	writeValue(&b, l, false)
	return b.String()
}

// Format renders a dumped value.
func Format(v interface{}) string {
	var b strings.Builder
	writeValue(&b, v, false)
	return b.String()
}

func writeValue(b *strings.Builder, v interface{}, head bool) {
	switch v := v.(type) {
	case nil:
		b.WriteString("nil")
	case List:
		if v == nil {
			b.WriteString("nil")
			return
		}
		b.WriteByte('(')
		for i, el := range v {
			if i > 0 {
				b.WriteByte(' ')
			}
			writeValue(b, el, i == 0)
		}
		b.WriteByte(')')
	case Sym:
		if !head {
			b.WriteByte(':')
		}
		b.WriteString(string(v))
	case string:
		b.WriteString(strconv.Quote(v))
	case int64:
		b.WriteString(strconv.FormatInt(v, 10))
	case int:
		b.WriteString(strconv.Itoa(v))
	case bool:
		b.WriteString(strconv.FormatBool(v))
	default:
		fmt.Fprintf(b, "%v", v)
	}
}

func list(head string, fields ...interface{}) List {
	return append(List{Sym(head)}, fields...)
}

// field dumps an optional child: nil stays nil rather than an empty List.
func field(n Node) interface{} {
	if n == nil {
		return nil
	}
	return dumpNode(n)
}

func dumpAll(head string, nodes []Node) List {
	l := list(head)
	for _, n := range nodes {
		l = append(l, field(n))
	}
	return l
}

func dumpNode(n Node) List {
	switch n := n.(type) {
	case *NilLiteral:
		return list("nil")
	case *TrueLiteral:
		return list("true")
	case *FalseLiteral:
		return list("false")
	case *Self:
		return list("self")
	case *IntLiteral:
		return list("lit", n.Value)
	case *SymbolLiteral:
		return list("lit", Sym(n.Value))
	case *StringLiteral:
		return list("str", n.Value)
	case *ArrayLiteral:
		return dumpAll("array", n.Elements)

	case *LocalVariableAccess:
		return list("lvar", Sym(n.Name))
	case *LocalVariableAssignment:
		return list("lasgn", Sym(n.Name), field(n.Value))
	case *ClassVariableAccess:
		return list("cvar", Sym(n.Name))
	case *ClassVariableAssignment:
		return list("cvdecl", Sym(n.Name), field(n.Value))
	case *ConstantAccess:
		return list("const", Sym(n.Name))
	case *ScopedConstant:
		return list("colon2", field(n.Parent), Sym(n.Name))
	case *ToplevelConstant:
		return list("colon3", Sym(n.Name))

	case *Block:
		return dumpAll("block", n.Body)
	case *Send:
		call := list("call", field(n.Receiver), Sym(n.Name), dumpAll("arglist", n.Arguments))
		if n.Block != nil {
			return list("iter", call, dumpParams(n.Block.Params), field(n.Block.Body))
		}
		return call
	case *Iter:
		return list("iter", nil, dumpParams(n.Params), field(n.Body))
	case *Lambda:
		if n.Block == nil {
			return list("lambda", nil)
		}
		return list("lambda", dumpNode(n.Block))
	case *PreExe:
		return list("pre_exe", field(n.Body))
	case *MultipleAssignment:
		return list("masgn", dumpAll("array", n.Left), field(n.Splat), dumpAll("array", n.Post), field(n.Value))
	case *EmptySplat:
		return list("splat")
	case *SplatAssignment:
		return list("splat", Sym(n.Name))

	case *Alias:
		return list("alias", field(n.To), field(n.From))
	case *GlobalAlias:
		return list("valias", Sym(n.To), Sym(n.From))
	case *Undef:
		return list("undef", field(n.Name))
	case *Defined:
		return list("defined", field(n.Expression))

	case *SplatValue:
		return list("splat", field(n.Value))
	case *ConcatArgs:
		return list("argscat", field(n.Array), field(n.Rest))
	case *PushArgs:
		return list("argspush", field(n.Arguments), field(n.Value))
	case *SingleValue:
		return list("svalue", field(n.Value))
	case *ToArray:
		return list("to_ary", field(n.Value))
	case *ToString:
		return list("evstr", field(n.Value))

	case *Parameters:
		return dumpParams(n)
	case *PatternArguments:
		return dumpPattern(n)
	case *PatternLeaf:
		return list("pattern_leaf", dumpLeaf(n))
	case *DefaultArguments:
		l := list("block")
		for _, d := range n.Arguments {
			l = append(l, dumpNode(d))
		}
		return l
	case *KeywordParameters:
		return dumpKeywords(n)
	case *BlockArgument:
		return list("block_arg", Sym(blockArgName(n)))

	case *Define:
		return list("defn", Sym(n.Name), dumpParams(n.Params), dumpScope(n.Body))
	case *DefineSingleton:
		return list("defs", field(n.Receiver), Sym(n.Name), dumpParams(n.Params), dumpScope(n.Body))
	case *Class:
		return list("class", dumpName(n.Name), field(n.Superclass), dumpScope(n.Body))
	case *Module:
		return list("module", dumpName(n.Name), dumpScope(n.Body))
	case *SClass:
		return list("sclass", field(n.Receiver), dumpScope(n.Body))

	case *Container:
		l := list(n.Kind.String())
		for _, hook := range n.PreExe {
			if hook != nil {
				l = append(l, dumpNode(hook))
			}
		}
		return append(l, field(n.Body))
	}
	return list("unknown", fmt.Sprintf("%T", n))
}

func dumpScope(body Node) List {
	if body == nil {
		return list("scope")
	}
	return list("scope", dumpNode(body))
}

// dumpName dumps a class or module name: a bare symbol for a simple name,
// the constant form otherwise.
func dumpName(n Node) interface{} {
	if c, ok := n.(*ConstantAccess); ok {
		return Sym(c.Name)
	}
	return field(n)
}

func dumpParams(p *Parameters) List {
	l := list("args")
	if p == nil {
		return l
	}
	for _, r := range p.Required {
		l = append(l, dumpParameter(r))
	}
	if p.Defaults != nil {
		for _, d := range p.Defaults.Arguments {
			l = append(l, Sym(d.Name))
		}
	}
	switch p.Splat.Kind {
	case SplatNamed:
		l = append(l, Sym("*"+p.Splat.Name))
	case SplatAnonymous:
		l = append(l, Sym("*"))
	case SplatReserved:
		l = append(l, list("reserved_splat"))
	}
	for _, r := range p.Post {
		l = append(l, dumpParameter(r))
	}
	if p.Keywords != nil {
		for _, kw := range p.Keywords.Keywords {
			l = append(l, Sym(kw.Name+":"))
		}
		switch p.Keywords.Rest.Kind {
		case KeywordRestNamed:
			l = append(l, Sym("**"+p.Keywords.Rest.Name))
		case KeywordRestAnonymous:
			l = append(l, Sym("**"))
		}
	}
	if p.Block != nil {
		l = append(l, Sym(blockArgName(p.Block)))
	}
	if p.Defaults != nil {
		l = append(l, dumpNode(p.Defaults))
	}
	if p.Keywords != nil {
		l = append(l, dumpKeywords(p.Keywords))
	}
	return l
}

func dumpParameter(r Parameter) interface{} {
	if r.Pattern != nil {
		return dumpPattern(r.Pattern)
	}
	return Sym(r.Name)
}

func dumpPattern(p *PatternArguments) List {
	l := list("masgn")
	for _, el := range p.Elements {
		switch el := el.(type) {
		case *PatternArguments:
			l = append(l, dumpPattern(el))
		case *PatternLeaf:
			l = append(l, dumpLeaf(el))
		}
	}
	return l
}

func dumpLeaf(leaf *PatternLeaf) interface{} {
	switch leaf.Kind {
	case PostPattern:
		return list("post", Sym(leaf.Name), leaf.Index)
	case SplatPattern:
		if leaf.Name == "*" {
			return Sym("*")
		}
		return Sym("*" + leaf.Name)
	default:
		return Sym(leaf.Name)
	}
}

func dumpKeywords(k *KeywordParameters) List {
	l := list("kwargs")
	for _, kw := range k.Keywords {
		if kw.Required() {
			l = append(l, list("kw", Sym(kw.Name)))
		} else {
			l = append(l, list("kw", Sym(kw.Name), dumpNode(kw.Default)))
		}
	}
	switch k.Rest.Kind {
	case KeywordRestNamed:
		l = append(l, list("kwrest", Sym(k.Rest.Name)))
	case KeywordRestAnonymous:
		l = append(l, list("kwrest"))
	}
	return l
}

func blockArgName(b *BlockArgument) string {
	if b.Placeholder || b.Name == "" {
		return "&"
	}
	return "&" + b.Name
}
