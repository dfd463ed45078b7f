package astfile

import (
	"gopkg.in/yaml.v3"

	"github.com/chazu/garnet/compiler"
)

// decodeParameters decodes a params mapping:
//
//	params:
//	  required: [a, {type: masgn, left: [...]}]
//	  optional: [{name: b, value: {type: int, value: 1}}]
//	  splat: rest                 # or {kind: anonymous} / {kind: reserved}
//	  post: [c]
//	  keywords: [{name: k}, {name: j, default: {type: int, value: 2}}]
//	  kwrest: opts                # or {kind: anonymous}
//	  reserve_block: true
//	  block: blk
//
// Parameters are added through the compiler's builders in slot order, so
// repeated underscores are renamed and the block replaces a reserved slot.
func decodeParameters(n *yaml.Node, line compiler.Pos) (*compiler.Parameters, error) {
	n = resolve(n)
	if n == nil {
		return nil, nil
	}
	o, err := newObject(n)
	if err != nil {
		return nil, err
	}
	if o.has("line") {
		if line, err = o.pos(); err != nil {
			return nil, err
		}
	}
	p := compiler.NewParameters(line.Line())

	required, err := o.list("required")
	if err != nil {
		return nil, err
	}
	for _, item := range required {
		if err := positional(n, item, p.AddRequired, p.AddRequiredPattern); err != nil {
			return nil, err
		}
	}

	optional, err := o.list("optional")
	if err != nil {
		return nil, err
	}
	for _, item := range optional {
		if item == nil {
			return nil, errorf(n, "null optional parameter")
		}
		opt, err := newObject(item)
		if err != nil {
			return nil, err
		}
		name, err := opt.name("name")
		if err != nil {
			return nil, err
		}
		value, err := optionalNode(opt, "value")
		if err != nil {
			return nil, err
		}
		if err := opt.done(); err != nil {
			return nil, err
		}
		p.AddOptional(name, value)
	}

	if v := o.get("splat"); v != nil {
		s, err := decodeSplat(v)
		if err != nil {
			return nil, err
		}
		p.SetSplat(s)
	}

	post, err := o.list("post")
	if err != nil {
		return nil, err
	}
	for _, item := range post {
		if err := positional(n, item, p.AddPost, p.AddPostPattern); err != nil {
			return nil, err
		}
	}

	keywords, err := o.list("keywords")
	if err != nil {
		return nil, err
	}
	for _, item := range keywords {
		if item == nil {
			return nil, errorf(n, "null keyword parameter")
		}
		kw, err := newObject(item)
		if err != nil {
			return nil, err
		}
		name, err := kw.name("name")
		if err != nil {
			return nil, err
		}
		def, err := optionalNode(kw, "default")
		if err != nil {
			return nil, err
		}
		if err := kw.done(); err != nil {
			return nil, err
		}
		p.AddKeyword(name, def)
	}

	if v := o.get("kwrest"); v != nil {
		r, err := decodeKeywordRest(v)
		if err != nil {
			return nil, err
		}
		p.SetKeywordRest(r)
	}

	if v := o.get("reserve_block"); v != nil {
		var reserve bool
		if err := v.Decode(&reserve); err != nil {
			return nil, wrap(v, err)
		}
		if reserve {
			p.ReserveBlock()
		}
	}
	block, err := o.str("block")
	if err != nil {
		return nil, err
	}
	if block != "" {
		p.SetBlock(block)
	}

	if err := o.done(); err != nil {
		return nil, err
	}
	return p, nil
}

// positional adds a required or post parameter: a scalar name or a masgn
// pattern.
func positional(parent, item *yaml.Node, name func(string), pattern func(*compiler.MultipleAssignment) error) error {
	if item == nil {
		return errorf(parent, "null positional parameter")
	}
	if item.Kind == yaml.ScalarNode {
		if item.Value == "" {
			return errorf(item, "empty parameter name")
		}
		name(item.Value)
		return nil
	}
	n, err := decodeNode(item)
	if err != nil {
		return err
	}
	m, ok := n.(*compiler.MultipleAssignment)
	if !ok {
		return errorf(item, "positional parameter must be a name or a masgn pattern")
	}
	if err := pattern(m); err != nil {
		return wrap(item, err)
	}
	return nil
}

func decodeSplat(v *yaml.Node) (compiler.Splat, error) {
	if v.Kind == yaml.ScalarNode {
		if v.Value == "" {
			return compiler.Splat{}, errorf(v, "empty splat name")
		}
		return compiler.Splat{Kind: compiler.SplatNamed, Name: v.Value}, nil
	}
	o, err := newObject(v)
	if err != nil {
		return compiler.Splat{}, err
	}
	kind, err := o.name("kind")
	if err != nil {
		return compiler.Splat{}, err
	}
	name, err := o.str("name")
	if err != nil {
		return compiler.Splat{}, err
	}
	if err := o.done(); err != nil {
		return compiler.Splat{}, err
	}
	switch kind {
	case "named":
		if name == "" {
			return compiler.Splat{}, errorf(v, "named splat without a name")
		}
		return compiler.Splat{Kind: compiler.SplatNamed, Name: name}, nil
	case "anonymous":
		return compiler.Splat{Kind: compiler.SplatAnonymous}, nil
	case "reserved":
		return compiler.Splat{Kind: compiler.SplatReserved}, nil
	}
	return compiler.Splat{}, errorf(v, "unknown splat kind %q", kind)
}

func decodeKeywordRest(v *yaml.Node) (compiler.KeywordRest, error) {
	if v.Kind == yaml.ScalarNode {
		if v.Value == "" {
			return compiler.KeywordRest{}, errorf(v, "empty kwrest name")
		}
		return compiler.KeywordRest{Kind: compiler.KeywordRestNamed, Name: v.Value}, nil
	}
	o, err := newObject(v)
	if err != nil {
		return compiler.KeywordRest{}, err
	}
	kind, err := o.name("kind")
	if err != nil {
		return compiler.KeywordRest{}, err
	}
	name, err := o.str("name")
	if err != nil {
		return compiler.KeywordRest{}, err
	}
	if err := o.done(); err != nil {
		return compiler.KeywordRest{}, err
	}
	switch kind {
	case "named":
		if name == "" {
			return compiler.KeywordRest{}, errorf(v, "named kwrest without a name")
		}
		return compiler.KeywordRest{Kind: compiler.KeywordRestNamed, Name: name}, nil
	case "anonymous":
		return compiler.KeywordRest{Kind: compiler.KeywordRestAnonymous}, nil
	}
	return compiler.KeywordRest{}, errorf(v, "unknown kwrest kind %q", kind)
}
