package server

import (
	"errors"
	"fmt"
	"strings"
	"sync"
	"unicode"

	"github.com/tliron/commonlog"
	"github.com/tliron/glsp"
	protocol "github.com/tliron/glsp/protocol_3_16"
	glspserver "github.com/tliron/glsp/server"

	"github.com/chazu/garnet/compiler"
	"github.com/chazu/garnet/compiler/astfile"

	_ "github.com/tliron/commonlog/simple"
)

const lspName = "garnet-lsp"

var lspLog = commonlog.GetLogger("garnet.lsp")

// containerKinds are the values accepted under a document's kind key.
var containerKinds = map[string]string{
	"script":  "whole program: the body's value is discarded and the unit returns true",
	"eval":    "interactive evaluation: returns the body's value and resolves names through the session frame",
	"snippet": "bare expression with no trailing return",
}

// LspServer serves editor features for YAML AST documents: compile
// diagnostics, hover help for node types, and node type completion.
type LspServer struct {
	worker *CompileWorker

	mu   sync.Mutex
	docs map[string]string // URI → full document content

	handler protocol.Handler
	server  *glspserver.Server
	version string
}

// NewLSP creates a new LSP server.
func NewLSP() *LspServer {
	s := &LspServer{
		worker:  NewCompileWorker(),
		docs:    make(map[string]string),
		version: "0.1.0",
	}

	s.handler = protocol.Handler{
		Initialize:  s.initialize,
		Initialized: s.initialized,
		Shutdown:    s.shutdown,
		SetTrace:    s.setTrace,

		TextDocumentDidOpen:   s.textDocumentDidOpen,
		TextDocumentDidChange: s.textDocumentDidChange,
		TextDocumentDidClose:  s.textDocumentDidClose,

		TextDocumentCompletion: s.textDocumentCompletion,
		TextDocumentHover:      s.textDocumentHover,
	}

	s.server = glspserver.NewServer(&s.handler, lspName, false)

	return s
}

// Run starts the LSP server on stdio. Blocks until the client disconnects.
func (s *LspServer) Run() error {
	return s.server.RunStdio()
}

// --- LSP lifecycle handlers ---

func (s *LspServer) initialize(ctx *glsp.Context, params *protocol.InitializeParams) (any, error) {
	lspLog.Infof("initializing for %s", clientName(params))

	capabilities := s.handler.CreateServerCapabilities()

	syncKind := protocol.TextDocumentSyncKindFull
	capabilities.TextDocumentSync = &protocol.TextDocumentSyncOptions{
		OpenClose: boolPtr(true),
		Change:    &syncKind,
	}

	capabilities.CompletionProvider = &protocol.CompletionOptions{
		TriggerCharacters: []string{" "},
	}

	capabilities.HoverProvider = true

	return protocol.InitializeResult{
		Capabilities: capabilities,
		ServerInfo: &protocol.InitializeResultServerInfo{
			Name:    lspName,
			Version: &s.version,
		},
	}, nil
}

func clientName(params *protocol.InitializeParams) string {
	if params.ClientInfo == nil {
		return "unknown client"
	}
	return params.ClientInfo.Name
}

func (s *LspServer) initialized(ctx *glsp.Context, params *protocol.InitializedParams) error {
	return nil
}

func (s *LspServer) shutdown(ctx *glsp.Context) error {
	s.worker.Stop()
	return nil
}

func (s *LspServer) setTrace(ctx *glsp.Context, params *protocol.SetTraceParams) error {
	return nil
}

// --- Document synchronization ---

func (s *LspServer) document(uri protocol.DocumentUri) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	text, ok := s.docs[string(uri)]
	return text, ok
}

// setDocument stores text for uri and publishes its diagnostics.
func (s *LspServer) setDocument(ctx *glsp.Context, uri protocol.DocumentUri, text string) {
	s.mu.Lock()
	s.docs[string(uri)] = text
	s.mu.Unlock()
	s.publishDiagnostics(ctx, uri, text)
}

func (s *LspServer) textDocumentDidOpen(ctx *glsp.Context, params *protocol.DidOpenTextDocumentParams) error {
	s.setDocument(ctx, params.TextDocument.URI, params.TextDocument.Text)
	return nil
}

// Sync is full, so only the last change matters.
func (s *LspServer) textDocumentDidChange(ctx *glsp.Context, params *protocol.DidChangeTextDocumentParams) error {
	n := len(params.ContentChanges)
	if n == 0 {
		return nil
	}
	if whole, ok := params.ContentChanges[n-1].(protocol.TextDocumentContentChangeEventWhole); ok {
		s.setDocument(ctx, params.TextDocument.URI, whole.Text)
	}
	return nil
}

func (s *LspServer) textDocumentDidClose(ctx *glsp.Context, params *protocol.DidCloseTextDocumentParams) error {
	uri := params.TextDocument.URI

	s.mu.Lock()
	delete(s.docs, string(uri))
	s.mu.Unlock()

	s.notifyDiagnostics(ctx, uri, []protocol.Diagnostic{})
	return nil
}

// --- Language features ---

func (s *LspServer) textDocumentCompletion(ctx *glsp.Context, params *protocol.CompletionParams) (any, error) {
	text, ok := s.document(params.TextDocument.URI)
	if !ok {
		return nil, nil
	}
	if prefix := extractPrefix(text, params.Position); prefix != "" {
		return complete(prefix), nil
	}
	return nil, nil
}

func (s *LspServer) textDocumentHover(ctx *glsp.Context, params *protocol.HoverParams) (*protocol.Hover, error) {
	text, ok := s.document(params.TextDocument.URI)
	if !ok {
		return nil, nil
	}
	if word := extractWord(text, params.Position); word != "" {
		return hover(word), nil
	}
	return nil, nil
}

// complete returns the node types and container kinds starting with prefix.
func complete(prefix string) []protocol.CompletionItem {
	var items []protocol.CompletionItem
	lowerPrefix := strings.ToLower(prefix)

	for _, name := range astfile.NodeTypes() {
		if !strings.HasPrefix(name, lowerPrefix) {
			continue
		}
		kind := protocol.CompletionItemKindStruct
		detail, _ := astfile.Describe(name)
		nameCopy := name
		items = append(items, protocol.CompletionItem{
			Label:      name,
			Kind:       &kind,
			Detail:     &detail,
			InsertText: &nameCopy,
		})
	}

	for _, name := range []string{"eval", "script", "snippet"} {
		if !strings.HasPrefix(name, lowerPrefix) {
			continue
		}
		kind := protocol.CompletionItemKindEnumMember
		detail := "container kind"
		nameCopy := name
		items = append(items, protocol.CompletionItem{
			Label:      name,
			Kind:       &kind,
			Detail:     &detail,
			InsertText: &nameCopy,
		})
	}

	return items
}

// hover describes a node type or container kind.
func hover(word string) *protocol.Hover {
	var b strings.Builder
	if desc, ok := astfile.Describe(word); ok {
		fmt.Fprintf(&b, "**%s** node\n\n%s", word, desc)
	} else if desc, ok := containerKinds[word]; ok {
		fmt.Fprintf(&b, "**%s** container\n\n%s", word, desc)
	} else {
		return nil
	}

	return &protocol.Hover{
		Contents: protocol.MarkupContent{
			Kind:  protocol.MarkupKindMarkdown,
			Value: b.String(),
		},
	}
}

// --- Diagnostics ---

func (s *LspServer) publishDiagnostics(ctx *glsp.Context, uri protocol.DocumentUri, text string) {
	result, err := s.worker.Do(func() (interface{}, error) {
		return diagnose(text), nil
	})
	if err != nil {
		lspLog.Errorf("diagnosing %s: %s", uri, err)
		return
	}
	s.notifyDiagnostics(ctx, uri, result.([]protocol.Diagnostic))
}

func (s *LspServer) notifyDiagnostics(ctx *glsp.Context, uri protocol.DocumentUri, diagnostics []protocol.Diagnostic) {
	go ctx.Notify(protocol.ServerTextDocumentPublishDiagnostics, protocol.PublishDiagnosticsParams{
		URI:         uri,
		Diagnostics: diagnostics,
	})
}

// diagnose decodes and compiles a document, reporting the first failure.
func diagnose(text string) []protocol.Diagnostic {
	u, err := astfile.Parse([]byte(text))
	if err == nil {
		_, err = compiler.Compile(u)
	}
	if err == nil {
		return []protocol.Diagnostic{}
	}

	line := errorLine(err)
	if line > 0 {
		line--
	}
	severity := protocol.DiagnosticSeverityError
	source := lspName
	return []protocol.Diagnostic{{
		Range: protocol.Range{
			Start: protocol.Position{Line: protocol.UInteger(line), Character: 0},
			End:   protocol.Position{Line: protocol.UInteger(line), Character: 0},
		},
		Severity: &severity,
		Source:   &source,
		Message:  err.Error(),
	}}
}

// errorLine returns the 1-based document line an error points at, or 0.
func errorLine(err error) int {
	var de *astfile.Error
	if errors.As(err, &de) {
		return de.Line
	}
	var ce *compiler.CompileError
	if errors.As(err, &ce) {
		return ce.Line
	}
	// YAML syntax errors read "yaml: line N: ...".
	msg := err.Error()
	if i := strings.Index(msg, "yaml: line "); i >= 0 {
		var line int
		if _, serr := fmt.Sscanf(msg[i:], "yaml: line %d", &line); serr == nil {
			return line
		}
	}
	return 0
}

// --- Text extraction helpers ---

// extractPrefix returns the word fragment before the cursor for completion.
func extractPrefix(text string, pos protocol.Position) string {
	lines := strings.Split(text, "\n")
	if int(pos.Line) >= len(lines) {
		return ""
	}
	line := lines[pos.Line]
	col := int(pos.Character)
	if col > len(line) {
		col = len(line)
	}

	// Walk backwards from cursor to find the start of the identifier
	start := col
	for start > 0 && isWordChar(rune(line[start-1])) {
		start--
	}

	if start == col {
		return ""
	}

	return line[start:col]
}

// extractWord returns the full identifier under the cursor.
func extractWord(text string, pos protocol.Position) string {
	lines := strings.Split(text, "\n")
	if int(pos.Line) >= len(lines) {
		return ""
	}
	line := lines[pos.Line]
	col := int(pos.Character)
	if col > len(line) {
		col = len(line)
	}

	start := col
	for start > 0 && isWordChar(rune(line[start-1])) {
		start--
	}
	end := col
	for end < len(line) && isWordChar(rune(line[end])) {
		end++
	}

	if start == end {
		return ""
	}

	return line[start:end]
}

func isWordChar(ch rune) bool {
	return unicode.IsLetter(ch) || unicode.IsDigit(ch) || ch == '_'
}

func boolPtr(b bool) *bool {
	return &b
}
