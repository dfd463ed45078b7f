package astfile

import (
	"gopkg.in/yaml.v3"

	"github.com/chazu/garnet/compiler"
)

// decodeNode decodes one node mapping. A null node decodes as nil.
func decodeNode(n *yaml.Node) (compiler.Node, error) {
	n = resolve(n)
	if n == nil {
		return nil, nil
	}
	o, err := newObject(n)
	if err != nil {
		return nil, err
	}
	typ, err := o.name("type")
	if err != nil {
		return nil, err
	}
	pos, err := o.pos()
	if err != nil {
		return nil, err
	}
	node, err := decodeFields(o, typ, pos)
	if err != nil {
		return nil, err
	}
	if err := o.done(); err != nil {
		return nil, err
	}
	return node, nil
}

func optionalNode(o *object, key string) (compiler.Node, error) {
	return decodeNode(o.get(key))
}

func requiredNode(o *object, key string) (compiler.Node, error) {
	v := o.get(key)
	if v == nil {
		return nil, errorf(o.node, "missing %s", key)
	}
	return decodeNode(v)
}

func nodeList(o *object, key string) ([]compiler.Node, error) {
	items, err := o.list(key)
	if err != nil {
		return nil, err
	}
	nodes := make([]compiler.Node, 0, len(items))
	for _, item := range items {
		n, err := decodeNode(item)
		if err != nil {
			return nil, err
		}
		nodes = append(nodes, n)
	}
	return nodes, nil
}

func decodeFields(o *object, typ string, pos compiler.Pos) (compiler.Node, error) {
	var err error
	switch typ {
	case "nil":
		return &compiler.NilLiteral{Pos: pos}, nil
	case "true":
		return &compiler.TrueLiteral{Pos: pos}, nil
	case "false":
		return &compiler.FalseLiteral{Pos: pos}, nil
	case "self":
		return &compiler.Self{Pos: pos}, nil
	case "int":
		v := o.get("value")
		if v == nil {
			return nil, errorf(o.node, "missing value")
		}
		n := &compiler.IntLiteral{Pos: pos}
		if err := v.Decode(&n.Value); err != nil {
			return nil, wrap(v, err)
		}
		return n, nil
	case "sym":
		n := &compiler.SymbolLiteral{Pos: pos}
		n.Value, err = o.name("value")
		return n, err
	case "str":
		n := &compiler.StringLiteral{Pos: pos}
		n.Value, err = o.str("value")
		return n, err
	case "array":
		n := &compiler.ArrayLiteral{Pos: pos}
		n.Elements, err = nodeList(o, "elements")
		return n, err

	case "lvar":
		n := &compiler.LocalVariableAccess{Pos: pos}
		n.Name, err = o.name("name")
		return n, err
	case "lasgn":
		n := &compiler.LocalVariableAssignment{Pos: pos}
		if n.Name, err = o.name("name"); err != nil {
			return nil, err
		}
		n.Value, err = optionalNode(o, "value")
		return n, err
	case "cvar":
		n := &compiler.ClassVariableAccess{Pos: pos}
		n.Name, err = o.name("name")
		return n, err
	case "cvasgn":
		n := &compiler.ClassVariableAssignment{Pos: pos}
		if n.Name, err = o.name("name"); err != nil {
			return nil, err
		}
		n.Value, err = requiredNode(o, "value")
		return n, err
	case "const":
		n := &compiler.ConstantAccess{Pos: pos}
		n.Name, err = o.name("name")
		return n, err
	case "colon2":
		n := &compiler.ScopedConstant{Pos: pos}
		if n.Parent, err = requiredNode(o, "parent"); err != nil {
			return nil, err
		}
		n.Name, err = o.name("name")
		return n, err
	case "colon3":
		n := &compiler.ToplevelConstant{Pos: pos}
		n.Name, err = o.name("name")
		return n, err

	case "block":
		n := &compiler.Block{Pos: pos}
		n.Body, err = nodeList(o, "body")
		return n, err
	case "call":
		n := &compiler.Send{Pos: pos}
		if n.Receiver, err = optionalNode(o, "receiver"); err != nil {
			return nil, err
		}
		if n.Name, err = o.name("name"); err != nil {
			return nil, err
		}
		if n.Arguments, err = nodeList(o, "args"); err != nil {
			return nil, err
		}
		n.Block, err = decodeIter(o.get("block"))
		return n, err
	case "iter":
		return iterFields(o, pos)
	case "lambda":
		n := &compiler.Lambda{Pos: pos}
		v := o.get("block")
		if v == nil {
			return nil, errorf(o.node, "missing block")
		}
		n.Block, err = decodeIter(v)
		return n, err
	case "pre_exe":
		n := &compiler.PreExe{Pos: pos}
		n.Body, err = optionalNode(o, "body")
		return n, err

	case "masgn":
		n := &compiler.MultipleAssignment{Pos: pos}
		if n.Left, err = nodeList(o, "left"); err != nil {
			return nil, err
		}
		if n.Splat, err = optionalNode(o, "splat"); err != nil {
			return nil, err
		}
		if n.Post, err = nodeList(o, "post"); err != nil {
			return nil, err
		}
		n.Value, err = optionalNode(o, "value")
		return n, err
	case "empty_splat":
		return &compiler.EmptySplat{Pos: pos}, nil
	case "splat_asgn":
		n := &compiler.SplatAssignment{Pos: pos}
		n.Name, err = o.name("name")
		return n, err

	case "alias":
		n := &compiler.Alias{Pos: pos}
		if n.To, err = requiredNode(o, "to"); err != nil {
			return nil, err
		}
		n.From, err = requiredNode(o, "from")
		return n, err
	case "valias":
		n := &compiler.GlobalAlias{Pos: pos}
		if n.To, err = o.name("to"); err != nil {
			return nil, err
		}
		n.From, err = o.name("from")
		return n, err
	case "undef":
		n := &compiler.Undef{Pos: pos}
		n.Name, err = requiredNode(o, "name")
		return n, err
	case "defined":
		n := &compiler.Defined{Pos: pos}
		n.Expression, err = requiredNode(o, "expression")
		return n, err

	case "splat":
		n := &compiler.SplatValue{Pos: pos}
		n.Value, err = optionalNode(o, "value")
		return n, err
	case "argscat":
		n := &compiler.ConcatArgs{Pos: pos}
		if n.Array, err = optionalNode(o, "array"); err != nil {
			return nil, err
		}
		n.Rest, err = optionalNode(o, "rest")
		return n, err
	case "argspush":
		n := &compiler.PushArgs{Pos: pos}
		if n.Arguments, err = optionalNode(o, "args"); err != nil {
			return nil, err
		}
		n.Value, err = optionalNode(o, "value")
		return n, err
	case "svalue":
		n := &compiler.SingleValue{Pos: pos}
		n.Value, err = optionalNode(o, "value")
		return n, err
	case "to_ary":
		n := &compiler.ToArray{Pos: pos}
		n.Value, err = optionalNode(o, "value")
		return n, err
	case "evstr":
		n := &compiler.ToString{Pos: pos}
		n.Value, err = optionalNode(o, "value")
		return n, err

	case "defn":
		n := &compiler.Define{Pos: pos}
		if n.Name, err = o.name("name"); err != nil {
			return nil, err
		}
		if n.Params, err = decodeParameters(o.get("params"), pos); err != nil {
			return nil, err
		}
		n.Body, err = optionalNode(o, "body")
		return n, err
	case "defs":
		n := &compiler.DefineSingleton{Pos: pos}
		if n.Receiver, err = requiredNode(o, "receiver"); err != nil {
			return nil, err
		}
		if n.Name, err = o.name("name"); err != nil {
			return nil, err
		}
		if n.Params, err = decodeParameters(o.get("params"), pos); err != nil {
			return nil, err
		}
		n.Body, err = optionalNode(o, "body")
		return n, err
	case "class":
		n := &compiler.Class{Pos: pos}
		if n.Name, err = requiredNode(o, "name"); err != nil {
			return nil, err
		}
		if n.Superclass, err = optionalNode(o, "superclass"); err != nil {
			return nil, err
		}
		n.Body, err = optionalNode(o, "body")
		return n, err
	case "module":
		n := &compiler.Module{Pos: pos}
		if n.Name, err = requiredNode(o, "name"); err != nil {
			return nil, err
		}
		n.Body, err = optionalNode(o, "body")
		return n, err
	case "sclass":
		n := &compiler.SClass{Pos: pos}
		if n.Receiver, err = requiredNode(o, "receiver"); err != nil {
			return nil, err
		}
		n.Body, err = optionalNode(o, "body")
		return n, err
	}
	return nil, errorf(o.node, "unknown node type %q", typ)
}

// decodeIter decodes a block literal. The type key may be omitted.
func decodeIter(n *yaml.Node) (*compiler.Iter, error) {
	n = resolve(n)
	if n == nil {
		return nil, nil
	}
	o, err := newObject(n)
	if err != nil {
		return nil, err
	}
	if typ, err := o.str("type"); err != nil {
		return nil, err
	} else if typ != "" && typ != "iter" {
		return nil, errorf(n, "block must have type iter, got %q", typ)
	}
	pos, err := o.pos()
	if err != nil {
		return nil, err
	}
	it, err := iterFields(o, pos)
	if err != nil {
		return nil, err
	}
	if err := o.done(); err != nil {
		return nil, err
	}
	return it, nil
}

func iterFields(o *object, pos compiler.Pos) (*compiler.Iter, error) {
	var err error
	it := &compiler.Iter{Pos: pos}
	if it.Params, err = decodeParameters(o.get("params"), pos); err != nil {
		return nil, err
	}
	it.Body, err = optionalNode(o, "body")
	return it, err
}
