package lsp

import (
	"context"
	"sync"

	"github.com/tliron/glsp"
	protocol "github.com/tliron/glsp/protocol_3_16"
	glspserver "github.com/tliron/glsp/server"
	"go.uber.org/zap"

	"github.com/teranos/slotgrid/errors"
	"github.com/teranos/slotgrid/internal/util"
	"github.com/teranos/slotgrid/rules"
	"github.com/teranos/slotgrid/version"
)

// maxDocuments caps the document cache of one client
const maxDocuments = 100

// Handler implements the LSP protocol handlers over a Service
type Handler struct {
	service   *Service
	log       *zap.SugaredLogger
	ctx       context.Context
	documents map[string]string // URI → document content cache
	mu        sync.RWMutex
}

// NewHandler creates protocol handlers for service. ctx bounds every
// analysis; cancel it on shutdown.
func NewHandler(ctx context.Context, service *Service, log *zap.SugaredLogger) *Handler {
	return &Handler{
		service:   service,
		log:       log,
		ctx:       ctx,
		documents: make(map[string]string),
	}
}

// Protocol returns the glsp dispatch table
func (h *Handler) Protocol() *protocol.Handler {
	return &protocol.Handler{
		Initialize:                     h.Initialize,
		Initialized:                    h.Initialized,
		Shutdown:                       h.Shutdown,
		SetTrace:                       h.SetTrace,
		TextDocumentDidOpen:            h.TextDocumentDidOpen,
		TextDocumentDidChange:          h.TextDocumentDidChange,
		TextDocumentDidClose:           h.TextDocumentDidClose,
		TextDocumentCompletion:         h.TextDocumentCompletion,
		TextDocumentHover:              h.TextDocumentHover,
		TextDocumentSemanticTokensFull: h.TextDocumentSemanticTokensFull,
	}
}

// Serve runs a language server on stdin/stdout until the client
// disconnects
func Serve(ctx context.Context, service *Service, log *zap.SugaredLogger) error {
	h := NewHandler(ctx, service, log)
	server := glspserver.NewServer(h.Protocol(), ServerName, false)
	if err := server.RunStdio(); err != nil {
		return errors.Wrap(err, "language server")
	}
	return nil
}

// Initialize handles LSP initialize request
func (h *Handler) Initialize(ctx *glsp.Context, params *protocol.InitializeParams) (any, error) {
	h.log.Infow("LSP client initializing", "client", params.ClientInfo)

	syncKind := protocol.TextDocumentSyncKindFull
	capabilities := protocol.ServerCapabilities{
		CompletionProvider: &protocol.CompletionOptions{
			TriggerCharacters: []string{" "},
		},
		HoverProvider: &protocol.HoverOptions{},
		TextDocumentSync: &protocol.TextDocumentSyncOptions{
			OpenClose: util.Ptr(true),
			Change:    &syncKind,
		},
		SemanticTokensProvider: &protocol.SemanticTokensOptions{
			Legend: protocol.SemanticTokensLegend{
				TokenTypes:     TokenTypes,
				TokenModifiers: []string{},
			},
			Full: true,
		},
	}

	return protocol.InitializeResult{
		Capabilities: capabilities,
		ServerInfo: &protocol.InitializeResultServerInfo{
			Name:    ServerName,
			Version: util.Ptr(version.Get().Version),
		},
	}, nil
}

// Initialized is called after client receives InitializeResult
func (h *Handler) Initialized(ctx *glsp.Context, params *protocol.InitializedParams) error {
	h.log.Infow("LSP client initialized successfully")
	return nil
}

// Shutdown handles LSP shutdown request
func (h *Handler) Shutdown(ctx *glsp.Context) error {
	h.log.Infow("LSP client shutting down")
	protocol.SetTraceValue(protocol.TraceValueOff)
	return nil
}

// SetTrace handles $/setTrace
func (h *Handler) SetTrace(ctx *glsp.Context, params *protocol.SetTraceParams) error {
	protocol.SetTraceValue(params.Value)
	return nil
}

// TextDocumentDidOpen caches the document and publishes its diagnostics
func (h *Handler) TextDocumentDidOpen(ctx *glsp.Context, params *protocol.DidOpenTextDocumentParams) error {
	uri := string(params.TextDocument.URI)

	h.mu.Lock()
	if _, exists := h.documents[uri]; !exists && len(h.documents) >= maxDocuments {
		h.mu.Unlock()
		h.log.Warnw("Document cache limit reached, rejecting new document",
			"uri", uri,
			"max_allowed", maxDocuments,
		)
		return errors.Newf("document cache limit reached (%d documents open)", maxDocuments)
	}
	h.documents[uri] = params.TextDocument.Text
	h.mu.Unlock()

	h.log.Debugw("Document opened", "uri", uri, "length", len(params.TextDocument.Text))
	return h.publish(ctx, params.TextDocument.URI, params.TextDocument.Text)
}

// TextDocumentDidChange replaces the document (full sync) and republishes
// its diagnostics
func (h *Handler) TextDocumentDidChange(ctx *glsp.Context, params *protocol.DidChangeTextDocumentParams) error {
	uri := string(params.TextDocument.URI)

	h.mu.Lock()
	for _, change := range params.ContentChanges {
		if whole, ok := change.(protocol.TextDocumentContentChangeEventWhole); ok {
			h.documents[uri] = whole.Text
		}
	}
	text := h.documents[uri]
	h.mu.Unlock()

	h.log.Debugw("Document changed", "uri", uri, "changes", len(params.ContentChanges))
	return h.publish(ctx, params.TextDocument.URI, text)
}

// TextDocumentDidClose drops the document and clears its diagnostics
func (h *Handler) TextDocumentDidClose(ctx *glsp.Context, params *protocol.DidCloseTextDocumentParams) error {
	h.mu.Lock()
	delete(h.documents, string(params.TextDocument.URI))
	h.mu.Unlock()

	if ctx != nil && ctx.Notify != nil {
		ctx.Notify(protocol.ServerTextDocumentPublishDiagnostics, protocol.PublishDiagnosticsParams{
			URI:         params.TextDocument.URI,
			Diagnostics: []protocol.Diagnostic{},
		})
	}
	return nil
}

// TextDocumentCompletion suggests the next token
func (h *Handler) TextDocumentCompletion(ctx *glsp.Context, params *protocol.CompletionParams) (result any, err error) {
	defer func() {
		if r := recover(); r != nil {
			h.log.Errorw("Panic in completion handler", "panic", r, "uri", params.TextDocument.URI)
			result, err = []protocol.CompletionItem{}, nil
		}
	}()

	text := h.document(params.TextDocument.URI)
	items, err := h.service.Complete(h.ctx, text, int(params.Position.Line)+1, int(params.Position.Character))
	if err != nil {
		return nil, err
	}

	out := make([]protocol.CompletionItem, len(items))
	for i, item := range items {
		kind := protocol.CompletionItemKindVariable
		if item.Kind == "operator" {
			kind = protocol.CompletionItemKindOperator
		}
		out[i] = protocol.CompletionItem{
			Label:      item.Label,
			Kind:       &kind,
			Detail:     stringPtrOrNil(item.Detail),
			InsertText: stringPtrOrNil(item.InsertText),
		}
	}
	return out, nil
}

// TextDocumentHover describes the token under the cursor
func (h *Handler) TextDocumentHover(ctx *glsp.Context, params *protocol.HoverParams) (result *protocol.Hover, err error) {
	defer func() {
		if r := recover(); r != nil {
			h.log.Errorw("Panic in hover handler", "panic", r, "uri", params.TextDocument.URI)
			result, err = nil, nil
		}
	}()

	text := h.document(params.TextDocument.URI)
	hover, err := h.service.Hover(h.ctx, text, int(params.Position.Line)+1, int(params.Position.Character))
	if err != nil || hover == "" {
		return nil, err
	}
	return &protocol.Hover{
		Contents: protocol.MarkupContent{
			Kind:  protocol.MarkupKindMarkdown,
			Value: hover,
		},
	}, nil
}

// TextDocumentSemanticTokensFull classifies every token of the document
func (h *Handler) TextDocumentSemanticTokensFull(ctx *glsp.Context, params *protocol.SemanticTokensParams) (result *protocol.SemanticTokens, err error) {
	defer func() {
		if r := recover(); r != nil {
			h.log.Errorw("Panic in semantic tokens handler", "panic", r, "uri", params.TextDocument.URI)
			result, err = &protocol.SemanticTokens{Data: []uint32{}}, nil
		}
	}()

	text := h.document(params.TextDocument.URI)
	a, err := h.service.Analyze(h.ctx, text)
	if err != nil {
		return nil, err
	}
	return &protocol.SemanticTokens{Data: EncodeSemanticTokens(a.Tokens)}, nil
}

func (h *Handler) document(uri protocol.DocumentUri) string {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.documents[string(uri)]
}

// publish sends the diagnostics of text to the client
func (h *Handler) publish(ctx *glsp.Context, uri protocol.DocumentUri, text string) error {
	diagnostics, err := h.Diagnostics(text)
	if err != nil {
		return err
	}
	if ctx == nil || ctx.Notify == nil {
		return nil
	}
	ctx.Notify(protocol.ServerTextDocumentPublishDiagnostics, protocol.PublishDiagnosticsParams{
		URI:         uri,
		Diagnostics: diagnostics,
	})
	return nil
}

// Diagnostics converts the service's diagnostics for text to protocol form
func (h *Handler) Diagnostics(text string) ([]protocol.Diagnostic, error) {
	a, err := h.service.Analyze(h.ctx, text)
	if err != nil {
		return nil, err
	}
	out := make([]protocol.Diagnostic, 0, len(a.Diagnostics))
	for _, d := range a.Diagnostics {
		severity := protocol.DiagnosticSeverityError
		if d.Severity == SeverityWarning {
			severity = protocol.DiagnosticSeverityWarning
		}
		out = append(out, protocol.Diagnostic{
			Range:    protocolRange(d.Range),
			Severity: &severity,
			Source:   util.Ptr(ServerName),
			Message:  d.Message,
		})
	}
	return out, nil
}

func protocolRange(r rules.Range) protocol.Range {
	return protocol.Range{
		Start: protocolPosition(r.Start),
		End:   protocolPosition(r.End),
	}
}

func protocolPosition(p rules.Position) protocol.Position {
	line := p.Line - 1
	if line < 0 {
		line = 0
	}
	return protocol.Position{Line: protocol.UInteger(line), Character: protocol.UInteger(p.Character)}
}

func stringPtrOrNil(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
