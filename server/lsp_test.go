package server

import (
	"strings"
	"testing"

	protocol "github.com/tliron/glsp/protocol_3_16"
)

// ---------------------------------------------------------------------------
// LSP text extraction helpers
// ---------------------------------------------------------------------------

func TestExtractPrefix_SimpleWord(t *testing.T) {
	text := "type: lva"
	pos := protocol.Position{Line: 0, Character: 9}
	prefix := extractPrefix(text, pos)
	if prefix != "lva" {
		t.Errorf("extractPrefix = %q, want %q", prefix, "lva")
	}
}

func TestExtractPrefix_EmptyLine(t *testing.T) {
	text := ""
	pos := protocol.Position{Line: 0, Character: 0}
	prefix := extractPrefix(text, pos)
	if prefix != "" {
		t.Errorf("extractPrefix = %q, want empty string", prefix)
	}
}

func TestExtractPrefix_MultiLine(t *testing.T) {
	text := "kind: eval\nbody:\n  type: pre_"
	pos := protocol.Position{Line: 2, Character: 12}
	prefix := extractPrefix(text, pos)
	if prefix != "pre_" {
		t.Errorf("extractPrefix = %q, want %q", prefix, "pre_")
	}
}

func TestExtractPrefix_StopsAtColon(t *testing.T) {
	text := "type:"
	pos := protocol.Position{Line: 0, Character: 5}
	if prefix := extractPrefix(text, pos); prefix != "" {
		t.Errorf("extractPrefix = %q, want empty string", prefix)
	}
}

func TestExtractPrefix_LineBeyondDocument(t *testing.T) {
	text := "single line"
	pos := protocol.Position{Line: 5, Character: 0}
	if prefix := extractPrefix(text, pos); prefix != "" {
		t.Errorf("extractPrefix = %q, want empty string", prefix)
	}
}

func TestExtractWord(t *testing.T) {
	tests := []struct {
		text string
		pos  protocol.Position
		want string
	}{
		{"type: masgn", protocol.Position{Line: 0, Character: 8}, "masgn"},
		{"type: masgn", protocol.Position{Line: 0, Character: 11}, "masgn"},
		{"type: masgn", protocol.Position{Line: 0, Character: 1}, "type"},
		{"{type: splat_asgn, name: r}", protocol.Position{Line: 0, Character: 12}, "splat_asgn"},
		{"a\n  type: evstr", protocol.Position{Line: 1, Character: 9}, "evstr"},
		{"", protocol.Position{Line: 0, Character: 0}, ""},
		{"x", protocol.Position{Line: 3, Character: 0}, ""},
	}
	for _, tt := range tests {
		if got := extractWord(tt.text, tt.pos); got != tt.want {
			t.Errorf("extractWord(%q, %d:%d) = %q, want %q", tt.text, tt.pos.Line, tt.pos.Character, got, tt.want)
		}
	}
}

func TestBoolPtr(t *testing.T) {
	p := boolPtr(true)
	if p == nil || *p != true {
		t.Errorf("boolPtr(true) = %v", p)
	}
	if p := boolPtr(false); *p != false {
		t.Errorf("boolPtr(false) = %v, want false", *p)
	}
}

// ---------------------------------------------------------------------------
// Language features
// ---------------------------------------------------------------------------

func TestLSP_Complete(t *testing.T) {
	items := complete("def")
	var labels []string
	for _, item := range items {
		labels = append(labels, item.Label)
	}
	want := "defined defn defs"
	if got := strings.Join(labels, " "); got != want {
		t.Errorf("complete(def) = %q, want %q", got, want)
	}
	if items[0].Kind == nil || *items[0].Kind != protocol.CompletionItemKindStruct {
		t.Error("node type completion should have Kind=Struct")
	}
	if items[1].Detail == nil || !strings.Contains(*items[1].Detail, "method definition") {
		t.Errorf("defn detail = %v", items[1].Detail)
	}

	items = complete("ev")
	if len(items) != 2 || items[0].Label != "evstr" || items[1].Label != "eval" {
		t.Errorf("complete(ev) = %+v, want evstr then eval", items)
	}

	if items := complete("zzz"); len(items) != 0 {
		t.Errorf("complete(zzz) = %d items, want 0", len(items))
	}
}

func TestLSP_Hover(t *testing.T) {
	h := hover("sclass")
	if h == nil {
		t.Fatal("hover for 'sclass' should return a result")
	}
	mc, ok := h.Contents.(protocol.MarkupContent)
	if !ok {
		t.Fatal("hover contents should be MarkupContent")
	}
	if mc.Kind != protocol.MarkupKindMarkdown {
		t.Errorf("hover markup kind = %q, want %q", mc.Kind, protocol.MarkupKindMarkdown)
	}
	if !strings.Contains(mc.Value, "singleton class") {
		t.Errorf("hover content = %q", mc.Value)
	}

	if h := hover("snippet"); h == nil {
		t.Error("hover for container kind 'snippet' should return a result")
	}
	if h := hover("receiver"); h != nil {
		t.Error("hover for an unknown word should return nil")
	}
}

func TestLSP_DiagnoseClean(t *testing.T) {
	if diags := diagnose("type: int\nvalue: 1\n"); len(diags) != 0 {
		t.Errorf("diagnostics = %+v, want none", diags)
	}
}

func TestLSP_DiagnoseErrors(t *testing.T) {
	tests := []struct {
		text    string
		line    protocol.UInteger
		anyLine bool
		msg     string
	}{
		{"kind: eval\nbody:\n  type: nope\n", 2, false, "unknown node type"},
		{"type: block\nbody:\n  - {type: int, value: 1}\n  - {type: lvar}\n", 3, false, "missing name"},
		{"type: [\n", 0, true, "astfile: parse"},
	}
	for _, tt := range tests {
		diags := diagnose(tt.text)
		if len(diags) != 1 {
			t.Errorf("%q: %d diagnostics, want 1", tt.text, len(diags))
			continue
		}
		d := diags[0]
		if !tt.anyLine && d.Range.Start.Line != tt.line {
			t.Errorf("%q: line = %d, want %d", tt.text, d.Range.Start.Line, tt.line)
		}
		if !strings.Contains(d.Message, tt.msg) {
			t.Errorf("%q: message = %q, want it to mention %q", tt.text, d.Message, tt.msg)
		}
		if d.Severity == nil || *d.Severity != protocol.DiagnosticSeverityError {
			t.Errorf("%q: severity = %v, want error", tt.text, d.Severity)
		}
	}
}

// ---------------------------------------------------------------------------
// LSP document synchronization state
// ---------------------------------------------------------------------------

func TestLSP_DocumentStore(t *testing.T) {
	lsp := &LspServer{
		docs: make(map[string]string),
	}

	lsp.mu.Lock()
	lsp.docs["file:///unit.yaml"] = "type: self"
	lsp.mu.Unlock()

	lsp.mu.Lock()
	text, ok := lsp.docs["file:///unit.yaml"]
	lsp.mu.Unlock()
	if !ok || text != "type: self" {
		t.Errorf("document = %q, %v; want stored text", text, ok)
	}

	lsp.mu.Lock()
	delete(lsp.docs, "file:///unit.yaml")
	lsp.mu.Unlock()

	lsp.mu.Lock()
	_, ok = lsp.docs["file:///unit.yaml"]
	lsp.mu.Unlock()
	if ok {
		t.Error("document should be removed after close")
	}
}
