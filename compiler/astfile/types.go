package astfile

import "sort"

// nodeTypes describes every value accepted under a node's type key.
var nodeTypes = map[string]string{
	"nil":         "nil literal",
	"true":        "true literal",
	"false":       "false literal",
	"self":        "the current receiver",
	"int":         "integer literal: value",
	"sym":         "symbol literal: value",
	"str":         "string literal: value",
	"array":       "array literal: elements",
	"lvar":        "local variable read: name",
	"lasgn":       "local variable write: name, value",
	"cvar":        "class variable read: name",
	"cvasgn":      "class variable write: name, value",
	"const":       "constant read: name",
	"colon2":      "scoped constant Parent::Name: parent, name",
	"colon3":      "top-level constant ::Name: name",
	"block":       "expression sequence: body",
	"call":        "method call: receiver, name, args, block",
	"iter":        "block literal: params, body",
	"lambda":      "lambda literal: block",
	"pre_exe":     "BEGIN hook: body",
	"masgn":       "multiple assignment: left, splat, post, value",
	"empty_splat": "unnamed splat target",
	"splat_asgn":  "named splat target: name",
	"alias":       "method alias: to, from",
	"valias":      "global variable alias: to, from",
	"undef":       "method removal: name",
	"defined":     "defined? check: expression",
	"splat":       "splatted value: value",
	"argscat":     "argument concatenation: array, rest",
	"argspush":    "argument append: args, value",
	"svalue":      "single value from a splat: value",
	"to_ary":      "multiple-assignment coercion: value",
	"evstr":       "interpolated string part: value",
	"defn":        "method definition: name, params, body",
	"defs":        "singleton method definition: receiver, name, params, body",
	"class":       "class definition: name, superclass, body",
	"module":      "module definition: name, body",
	"sclass":      "singleton class body: receiver, body",
}

// NodeTypes returns the accepted node type names, sorted.
func NodeTypes() []string {
	names := make([]string, 0, len(nodeTypes))
	for name := range nodeTypes {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Describe returns a one-line description of a node type and its keys.
func Describe(typ string) (string, bool) {
	desc, ok := nodeTypes[typ]
	return desc, ok
}
