package compiler

import "testing"

func TestDumpAlias(t *testing.T) {
	got := Dump(&Alias{Pos: 1, To: sym("to"), From: sym("from")}).String()
	if want := "(alias (lit :to) (lit :from))"; got != want {
		t.Errorf("Dump = %s, want %s", got, want)
	}
}

func TestDumpClassNameForms(t *testing.T) {
	tests := []struct {
		class *Class
		want  string
	}{
		{
			&Class{Pos: 1, Name: constant("Foo")},
			"(class :Foo nil (scope))",
		},
		{
			&Class{Pos: 1, Name: &ToplevelConstant{Pos: 1, Name: "Foo"}, Superclass: constant("Bar"), Body: lit(1)},
			"(class (colon3 :Foo) (const :Bar) (scope (lit 1)))",
		},
		{
			&Class{Pos: 1, Name: &ScopedConstant{Pos: 1, Parent: constant("A"), Name: "Foo"}},
			"(class (colon2 (const :A) :Foo) nil (scope))",
		},
	}
	for _, tt := range tests {
		if got := Dump(tt.class).String(); got != tt.want {
			t.Errorf("Dump = %s, want %s", got, tt.want)
		}
	}
}

func TestDumpModuleAndSClass(t *testing.T) {
	if got, want := Dump(&Module{Pos: 1, Name: constant("M"), Body: lit(1)}).String(), "(module :M (scope (lit 1)))"; got != want {
		t.Errorf("Dump = %s, want %s", got, want)
	}
	if got, want := Dump(&SClass{Pos: 1, Receiver: &Self{Pos: 1}}).String(), "(sclass (self) (scope))"; got != want {
		t.Errorf("Dump = %s, want %s", got, want)
	}
}

func TestDumpParameters(t *testing.T) {
	tests := []struct {
		name  string
		build func(p *Parameters)
		want  string
	}{
		{"empty", func(p *Parameters) {}, "(args)"},
		{"required", func(p *Parameters) {
			p.AddRequired("a")
			p.AddRequired("b")
		}, "(args :a :b)"},
		{"optional", func(p *Parameters) {
			p.AddOptional("b", lit(1))
		}, "(args :b (block (lasgn :b (lit 1))))"},
		{"named splat", func(p *Parameters) {
			p.SetSplat(Splat{Kind: SplatNamed, Name: "rest"})
		}, "(args :*rest)"},
		{"anonymous splat", func(p *Parameters) {
			p.SetSplat(Splat{Kind: SplatAnonymous})
		}, "(args :*)"},
		{"reserved splat", func(p *Parameters) {
			p.AddRequired("a")
			p.SetSplat(Splat{Kind: SplatReserved})
		}, "(args :a (reserved_splat))"},
		{"post", func(p *Parameters) {
			p.SetSplat(Splat{Kind: SplatAnonymous})
			p.AddPost("z")
		}, "(args :* :z)"},
		{"keywords", func(p *Parameters) {
			p.AddKeyword("k", nil)
			p.AddKeyword("j", lit(2))
		}, "(args :k: :j: (kwargs (kw :k) (kw :j (lit 2))))"},
		{"keyword rest", func(p *Parameters) {
			p.SetKeywordRest(KeywordRest{Kind: KeywordRestAnonymous})
		}, "(args :** (kwargs (kwrest)))"},
		{"block", func(p *Parameters) {
			p.SetBlock("blk")
		}, "(args :&blk)"},
		{"block placeholder", func(p *Parameters) {
			p.ReserveBlock()
		}, "(args :&)"},
		{"pattern", func(p *Parameters) {
			p.AddRequiredPattern(masgn(lasgn("a"), masgn(lasgn("b"), lasgn("c"))))
			p.AddRequired("d")
		}, "(args (masgn :a (masgn :b :c)) :d)"},
		{"everything", func(p *Parameters) {
			p.AddRequired("a")
			p.AddOptional("b", lit(1))
			p.SetSplat(Splat{Kind: SplatNamed, Name: "r"})
			p.AddPost("c")
			p.AddKeyword("k", nil)
			p.SetKeywordRest(KeywordRest{Kind: KeywordRestNamed, Name: "o"})
			p.SetBlock("blk")
		}, "(args :a :b :*r :c :k: :**o :&blk (block (lasgn :b (lit 1))) (kwargs (kw :k) (kwrest :o)))"},
	}
	for _, tt := range tests {
		p := NewParameters(1)
		tt.build(p)
		if got := Dump(p).String(); got != tt.want {
			t.Errorf("%s: Dump = %s, want %s", tt.name, got, tt.want)
		}
	}
}

func TestDumpPatternWithPostAndSplat(t *testing.T) {
	p, err := NewPatternArguments(&MultipleAssignment{
		Pos:   1,
		Left:  []Node{lasgn("a")},
		Splat: &SplatAssignment{Pos: 1, Name: "r"},
		Post:  []Node{lasgn("c")},
	})
	if err != nil {
		t.Fatal(err)
	}
	if got, want := Dump(p).String(), "(masgn :a (post :c 0) :*r)"; got != want {
		t.Errorf("Dump = %s, want %s", got, want)
	}
}

func TestDumpDefinitions(t *testing.T) {
	params := NewParameters(1)
	params.AddRequired("x")
	tests := []struct {
		node Node
		want string
	}{
		{&Define{Pos: 1, Name: "m"}, "(defn :m (args) (scope))"},
		{&Define{Pos: 1, Name: "m", Params: params, Body: lvar("x")}, "(defn :m (args :x) (scope (lvar :x)))"},
		{&DefineSingleton{Pos: 1, Receiver: &Self{Pos: 1}, Name: "m"}, "(defs (self) :m (args) (scope))"},
	}
	for _, tt := range tests {
		if got := Dump(tt.node).String(); got != tt.want {
			t.Errorf("Dump = %s, want %s", got, tt.want)
		}
	}
}

func TestDumpMiscellaneous(t *testing.T) {
	tests := []struct {
		node Node
		want string
	}{
		{&GlobalAlias{Pos: 1, To: "$new", From: "$old"}, "(valias :$new :$old)"},
		{&Undef{Pos: 1, Name: sym("foo")}, "(undef (lit :foo))"},
		{&Defined{Pos: 1, Expression: lvar("a")}, "(defined (lvar :a))"},
		{&SplatValue{Pos: 1, Value: lvar("a")}, "(splat (lvar :a))"},
		{&ConcatArgs{Pos: 1, Array: lvar("a"), Rest: lvar("b")}, "(argscat (lvar :a) (lvar :b))"},
		{&ConcatArgs{Pos: 1, Rest: lvar("b")}, "(argscat nil (lvar :b))"},
		{&PushArgs{Pos: 1, Arguments: lvar("a"), Value: lit(1)}, "(argspush (lvar :a) (lit 1))"},
		{&SingleValue{Pos: 1, Value: lvar("a")}, "(svalue (lvar :a))"},
		{&ToArray{Pos: 1, Value: lvar("a")}, "(to_ary (lvar :a))"},
		{&ToString{Pos: 1, Value: &StringLiteral{Pos: 1, Value: "x"}}, `(evstr (str "x"))`},
		{&Send{Pos: 1, Name: "puts", Arguments: []Node{lit(1)}}, "(call nil :puts (arglist (lit 1)))"},
		{each(&Self{Pos: 1}, lvar("x")), "(iter (call (self) :each (arglist)) (args) (lvar :x))"},
		{&Lambda{Pos: 1}, "(lambda nil)"},
		{&Block{Pos: 1, Body: []Node{&NilLiteral{Pos: 1}, &TrueLiteral{Pos: 1}}}, "(block (nil) (true))"},
	}
	for _, tt := range tests {
		if got := Dump(tt.node).String(); got != tt.want {
			t.Errorf("Dump = %s, want %s", got, tt.want)
		}
	}
}

func TestDumpContainer(t *testing.T) {
	u := NewScript("main.rb", lit(1))
	u.PreExe = []*PreExe{{Pos: 1, Body: lit(2)}}
	if got, want := Dump(u).String(), "(script (pre_exe (lit 2)) (lit 1))"; got != want {
		t.Errorf("Dump = %s, want %s", got, want)
	}
	if got := Dump(nil).String(); got != "nil" {
		t.Errorf("Dump(nil) = %s, want nil", got)
	}
}
