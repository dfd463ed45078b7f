// Package astfile decodes YAML node trees into compiler nodes.
//
// A document is either a container:
//
//	kind: eval
//	file: main.rb
//	pre_exe:
//	  - {type: pre_exe, body: {type: int, value: 1}}
//	body:
//	  type: block
//	  body:
//	    - {type: lasgn, name: a, value: {type: int, value: 1}}
//
// or a single node mapping, which becomes the body of a script container.
// Every node mapping names its kind with a type key. A node's position is
// its line key when present, otherwise the line of the mapping itself.
package astfile

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/chazu/garnet/compiler"
)

// ErrInvalid is wrapped by every error describing a badly shaped document.
var ErrInvalid = errors.New("invalid AST document")

// Decode reads one document from r.
func Decode(r io.Reader) (*compiler.Container, error) {
	var doc yaml.Node
	if err := yaml.NewDecoder(r).Decode(&doc); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("astfile: empty document: %w", ErrInvalid)
		}
		return nil, fmt.Errorf("astfile: parse: %w", err)
	}
	return decodeContainer(&doc)
}

// Parse decodes a document held in memory.
func Parse(data []byte) (*compiler.Container, error) {
	return Decode(bytes.NewReader(data))
}

// DecodeFile decodes the document at path. The container's file name
// defaults to path.
func DecodeFile(path string) (*compiler.Container, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("astfile: open %s: %w", path, err)
	}
	defer f.Close()

	u, err := Decode(f)
	if err != nil {
		return nil, err
	}
	if u.File == "" {
		u.File = path
	}
	return u, nil
}

// ParseNode decodes a single node mapping.
func ParseNode(data []byte) (compiler.Node, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("astfile: parse: %w", err)
	}
	root := resolve(&doc)
	if root == nil {
		return nil, fmt.Errorf("astfile: empty document: %w", ErrInvalid)
	}
	return decodeNode(root)
}

// ---------------------------------------------------------------------------
// YAML plumbing
// ---------------------------------------------------------------------------

func resolve(n *yaml.Node) *yaml.Node {
	for n != nil {
		switch n.Kind {
		case yaml.DocumentNode:
			if len(n.Content) == 0 {
				return nil
			}
			n = n.Content[0]
		case yaml.AliasNode:
			n = n.Alias
		default:
			if n.Kind == yaml.ScalarNode && n.Tag == "!!null" {
				return nil
			}
			return n
		}
	}
	return nil
}

// Error is a decoding failure at a document line.
type Error struct {
	Line int
	Err  error
}

func (e *Error) Error() string {
	return fmt.Sprintf("astfile: line %d: %v", e.Line, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

func errorf(n *yaml.Node, format string, args ...interface{}) error {
	return &Error{Line: n.Line, Err: fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), ErrInvalid)}
}

func wrap(n *yaml.Node, err error) error {
	return &Error{Line: n.Line, Err: err}
}

func kindName(n *yaml.Node) string {
	switch n.Kind {
	case yaml.MappingNode:
		return "mapping"
	case yaml.SequenceNode:
		return "sequence"
	case yaml.ScalarNode:
		return "scalar"
	default:
		return "node"
	}
}

// object is a mapping whose keys are consumed one by one; done rejects
// any key nothing asked for.
type object struct {
	node   *yaml.Node
	fields map[string]*yaml.Node
	seen   map[string]bool
}

func newObject(n *yaml.Node) (*object, error) {
	if n.Kind != yaml.MappingNode {
		return nil, errorf(n, "expected a mapping, got a %s", kindName(n))
	}
	o := &object{
		node:   n,
		fields: make(map[string]*yaml.Node, len(n.Content)/2),
		seen:   make(map[string]bool, len(n.Content)/2),
	}
	for i := 0; i+1 < len(n.Content); i += 2 {
		key := n.Content[i].Value
		if _, dup := o.fields[key]; dup {
			return nil, errorf(n.Content[i], "duplicate key %q", key)
		}
		o.fields[key] = n.Content[i+1]
	}
	return o, nil
}

func (o *object) has(key string) bool {
	_, ok := o.fields[key]
	return ok
}

// get returns the value under key, or nil when it is absent or null.
func (o *object) get(key string) *yaml.Node {
	o.seen[key] = true
	return resolve(o.fields[key])
}

func (o *object) str(key string) (string, error) {
	v := o.get(key)
	if v == nil {
		return "", nil
	}
	if v.Kind != yaml.ScalarNode {
		return "", errorf(v, "%s must be a scalar", key)
	}
	return v.Value, nil
}

func (o *object) name(key string) (string, error) {
	s, err := o.str(key)
	if err != nil {
		return "", err
	}
	if s == "" {
		return "", errorf(o.node, "missing %s", key)
	}
	return s, nil
}

func (o *object) list(key string) ([]*yaml.Node, error) {
	v := o.get(key)
	if v == nil {
		return nil, nil
	}
	if v.Kind != yaml.SequenceNode {
		return nil, errorf(v, "%s must be a sequence", key)
	}
	items := make([]*yaml.Node, 0, len(v.Content))
	for _, item := range v.Content {
		items = append(items, resolve(item))
	}
	return items, nil
}

func (o *object) pos() (compiler.Pos, error) {
	v := o.get("line")
	if v == nil {
		return compiler.Pos(o.node.Line), nil
	}
	var line int
	if err := v.Decode(&line); err != nil {
		return 0, wrap(v, err)
	}
	return compiler.Pos(line), nil
}

func (o *object) done() error {
	var unknown []string
	for key := range o.fields {
		if !o.seen[key] {
			unknown = append(unknown, key)
		}
	}
	if len(unknown) == 0 {
		return nil
	}
	sort.Strings(unknown)
	return errorf(o.node, "unknown keys %s", strings.Join(unknown, ", "))
}

// ---------------------------------------------------------------------------
// Containers
// ---------------------------------------------------------------------------

func decodeContainer(doc *yaml.Node) (*compiler.Container, error) {
	root := resolve(doc)
	if root == nil {
		return nil, fmt.Errorf("astfile: empty document: %w", ErrInvalid)
	}
	o, err := newObject(root)
	if err != nil {
		return nil, err
	}
	if o.has("type") {
		body, err := decodeNode(root)
		if err != nil {
			return nil, err
		}
		return compiler.NewScript("", body), nil
	}

	u := &compiler.Container{Kind: compiler.ScriptContainer}
	if u.Pos, err = o.pos(); err != nil {
		return nil, err
	}
	if v := o.get("kind"); v != nil {
		kind, ok := compiler.ParseContainerKind(v.Value)
		if !ok {
			return nil, errorf(v, "unknown container kind %q", v.Value)
		}
		u.Kind = kind
	}
	if u.Name, err = o.str("name"); err != nil {
		return nil, err
	}
	if u.File, err = o.str("file"); err != nil {
		return nil, err
	}
	hooks, err := o.list("pre_exe")
	if err != nil {
		return nil, err
	}
	for _, h := range hooks {
		if h == nil {
			return nil, errorf(root, "null pre_exe hook")
		}
		n, err := decodeNode(h)
		if err != nil {
			return nil, err
		}
		hook, ok := n.(*compiler.PreExe)
		if !ok {
			return nil, errorf(h, "pre_exe entries must have type pre_exe")
		}
		u.PreExe = append(u.PreExe, hook)
	}
	if u.Body, err = optionalNode(o, "body"); err != nil {
		return nil, err
	}
	if err := o.done(); err != nil {
		return nil, err
	}
	return u, nil
}
