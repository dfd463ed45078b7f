package compiler

import (
	"errors"
	"testing"
)

func constant(name string) *ConstantAccess { return &ConstantAccess{Pos: 1, Name: name} }

func TestResolveNameForms(t *testing.T) {
	tests := []struct {
		node Node
		form NameForm
	}{
		{constant("Foo"), SimpleName},
		{&ToplevelConstant{Pos: 1, Name: "Foo"}, ToplevelName},
		{&ScopedConstant{Pos: 1, Parent: constant("A"), Name: "Foo"}, ScopedName},
	}
	for _, tt := range tests {
		name, err := ResolveName(tt.node)
		if err != nil {
			t.Fatalf("ResolveName(%T): %v", tt.node, err)
		}
		if name.Form != tt.form || name.Name != "Foo" {
			t.Errorf("ResolveName(%T) = %+v, want form %d Foo", tt.node, name, tt.form)
		}
	}
	if _, err := ResolveName(sym("Foo")); !errors.Is(err, ErrMalformedInput) {
		t.Errorf("symbol name err = %v, want malformed input", err)
	}
}

func TestCompileClassSimpleName(t *testing.T) {
	res := compileNode(t, SnippetContainer, &Class{
		Pos:  1,
		Name: constant("Foo"),
		Body: &Block{Pos: 2, Body: []Node{lit(1)}},
	})
	wantListing(t, res.Code,
		"push_runtime",
		"push_literal :Foo",
		"push_nil",
		"push_scope",
		"send :open_class 3",
		"create_block 0",
		"swap",
		"push_scope",
		"push_true",
		"send :call_under 3",
	)
	body := res.Code.Child(0)
	if body.Name != "__class_init__" {
		t.Errorf("body unit name = %q, want __class_init__", body.Name)
	}
	wantListing(t, body, "push_self", "add_scope", "push_int 1", "ret")
}

func TestCompileClassToplevelName(t *testing.T) {
	res := compileNode(t, SnippetContainer, &Class{
		Pos:        1,
		Name:       &ToplevelConstant{Pos: 1, Name: "Foo"},
		Superclass: constant("Bar"),
	})
	wantListing(t, res.Code,
		"push_runtime",
		"push_literal :Foo",
		"push_const :Bar",
		"push_cpath_top",
		"send :open_class_under 3",
		"pop",
		"push_nil",
	)
	if len(res.Code.Children) != 0 {
		t.Errorf("empty class body built %d units", len(res.Code.Children))
	}
}

func TestCompileClassScopedName(t *testing.T) {
	res := compileNode(t, SnippetContainer, &Class{
		Pos:  1,
		Name: &ScopedConstant{Pos: 1, Parent: constant("A"), Name: "Foo"},
		Body: &Block{Pos: 1},
	})
	wantListing(t, res.Code,
		"push_runtime",
		"push_literal :Foo",
		"push_nil",
		"push_const :A",
		"send :open_class_under 3",
		"pop",
		"push_nil",
	)
}

func TestCompileClassMalformedName(t *testing.T) {
	_, err := Compile(NewSnippet("test.rb", &Class{Pos: 4, Name: sym("Foo")}))
	if !errors.Is(err, ErrMalformedInput) {
		t.Fatalf("err = %v, want malformed input", err)
	}
}

func TestCompileModuleForms(t *testing.T) {
	tests := []struct {
		name Node
		want []string
	}{
		{constant("M"), []string{
			"push_runtime", "push_literal :M", "push_scope", "send :open_module 2",
		}},
		{&ToplevelConstant{Pos: 1, Name: "M"}, []string{
			"push_runtime", "push_literal :M", "push_cpath_top", "send :open_module_under 2",
		}},
		{&ScopedConstant{Pos: 1, Parent: constant("A"), Name: "M"}, []string{
			"push_runtime", "push_literal :M", "push_const :A", "send :open_module_under 2",
		}},
	}
	for _, tt := range tests {
		res := compileNode(t, SnippetContainer, &Module{Pos: 1, Name: tt.name, Body: lit(1)})
		want := append(tt.want,
			"create_block 0",
			"swap",
			"push_scope",
			"push_true",
			"send :call_under 3",
		)
		wantListing(t, res.Code, want...)
		if got := res.Code.Child(0).Name; got != "__module_init__" {
			t.Errorf("body unit name = %q, want __module_init__", got)
		}
	}
}

func TestSClassSelfBodySkipsUnit(t *testing.T) {
	for _, body := range []Node{&Self{Pos: 1}, &Block{Pos: 1, Body: []Node{&Self{Pos: 1}}}} {
		res := compileNode(t, SnippetContainer, &SClass{Pos: 1, Receiver: &Self{Pos: 1}, Body: body})
		wantListing(t, res.Code,
			"push_self",
			"push_type",
			"swap",
			"send :object_singleton_class 1",
		)
		if len(res.Code.Children) != 0 {
			t.Errorf("%T body built %d units, want none", body, len(res.Code.Children))
		}
	}
}

func TestSClassWithBody(t *testing.T) {
	res := compileNode(t, SnippetContainer, &SClass{
		Pos:      1,
		Receiver: lvar("obj"),
		Body:     &Define{Pos: 2, Name: "m"},
	})
	wantListing(t, res.Code,
		"push_local 0",
		"push_type",
		"swap",
		"send :object_singleton_class 1",
		"create_block 0",
		"swap",
		"push_scope",
		"push_true",
		"send :call_under 3",
	)
	if got := res.Code.Child(0).Name; got != "__metaclass_init__" {
		t.Errorf("body unit name = %q, want __metaclass_init__", got)
	}
}

func TestSClassEmptyBody(t *testing.T) {
	res := compileNode(t, SnippetContainer, &SClass{Pos: 1, Receiver: &Self{Pos: 1}})
	wantListing(t, res.Code,
		"push_self",
		"push_type",
		"swap",
		"send :object_singleton_class 1",
		"pop",
		"push_nil",
	)
}

func TestCompileDefine(t *testing.T) {
	res := compileNode(t, SnippetContainer, &Define{Pos: 3, Name: "greet", Body: sym("hi")})
	wantListing(t, res.Code,
		"push_runtime",
		"push_literal :greet",
		"push_code 0",
		"push_scope",
		"push_variables",
		"send :method_visibility 0",
		"send :add_defn_method 4",
	)
	m := res.Code.Child(0)
	if m.Name != "greet" || m.Line != 3 || m.File != "test.rb" {
		t.Errorf("method unit = %s line %d file %q, want greet line 3 test.rb", m.Name, m.Line, m.File)
	}
	if m.Arity != 0 || m.SplatIndex != -1 || m.BlockIndex != -1 {
		t.Errorf("arity/splat/block = %d/%d/%d, want 0/-1/-1", m.Arity, m.SplatIndex, m.BlockIndex)
	}
	wantListing(t, m, "push_literal :hi", "ret")
}

func TestCompileDefineSingleton(t *testing.T) {
	res := compileNode(t, SnippetContainer, &DefineSingleton{Pos: 1, Receiver: &Self{Pos: 1}, Name: "build"})
	wantListing(t, res.Code,
		"push_self",
		"push_runtime",
		"swap",
		"push_literal :build",
		"push_code 0",
		"push_scope",
		"send :attach_method 4",
	)
	wantListing(t, res.Code.Child(0), "push_nil", "ret")
}
