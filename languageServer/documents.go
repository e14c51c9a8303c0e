package languageServer

import (
	"context"
	"strings"
	"sync"

	"github.com/sourcegraph/jsonrpc2"

	"github.gatech.edu/ECEInnovation/RISC-V-Assembler/assembler"
	"github.gatech.edu/ECEInnovation/RISC-V-Assembler/util"
)

type document struct {
	item TextDocumentItem
	// result of the latest successful assembly of item, nil after a failed one
	result *assembler.AssembledResult
}

type server struct {
	config assembler.AssemblerConfig

	mu        sync.Mutex
	documents map[DocumentUri]*document
}

func newServer(cfg assembler.AssemblerConfig) *server {
	return &server{
		config:    cfg,
		documents: make(map[DocumentUri]*document),
	}
}

// assembleAndReportDiagnostics reassembles a document and returns the
// diagnostics to publish for it. Assembly stops at the first error, so there
// is at most one.
func (s *server) assembleAndReportDiagnostics(uri DocumentUri) []assembler.Diagnostic {
	s.mu.Lock()
	defer s.mu.Unlock()

	diagnostics := make([]assembler.Diagnostic, 0)
	doc, ok := s.documents[uri]
	if !ok {
		return diagnostics
	}

	res, err := assembler.AssembleWithConfig(doc.item.Text, s.config)
	if err != nil {
		doc.result = nil
		return append(diagnostics, assembler.ToDiagnostic(err))
	}
	doc.result = res
	return diagnostics
}

func (s *server) documentText(uri DocumentUri) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	doc, ok := s.documents[uri]
	if !ok {
		return "", false
	}
	return doc.item.Text, true
}

func (s *server) lastResult(uri DocumentUri) *assembler.AssembledResult {
	s.mu.Lock()
	defer s.mu.Unlock()
	doc, ok := s.documents[uri]
	if !ok {
		return nil
	}
	return doc.result
}

func (s *server) documentOpenNotification(ctx context.Context, conn *jsonrpc2.Conn, req *jsonrpc2.Request) {
	decodedParams := DidOpenTextDocumentParams{}
	if !decodeParams(ctx, conn, req, &decodedParams) {
		return
	}

	s.mu.Lock()
	s.documents[decodedParams.TextDocument.URI] = &document{item: decodedParams.TextDocument}
	s.mu.Unlock()

	diagnostics := s.assembleAndReportDiagnostics(decodedParams.TextDocument.URI)
	conn.Notify(ctx, "textDocument/publishDiagnostics", PublishDiagnosticsParams{
		URI:         decodedParams.TextDocument.URI,
		Version:     decodedParams.TextDocument.Version,
		Diagnostics: diagnostics,
	})
}

func (s *server) documentCloseNotification(ctx context.Context, conn *jsonrpc2.Conn, req *jsonrpc2.Request) {
	decodedParams := DidCloseTextDocumentParams{}
	if !decodeParams(ctx, conn, req, &decodedParams) {
		return
	}

	s.mu.Lock()
	delete(s.documents, decodedParams.TextDocument.URI)
	s.mu.Unlock()
}

func (s *server) documentChangeNotification(ctx context.Context, conn *jsonrpc2.Conn, req *jsonrpc2.Request) {
	decodedParams := DidChangeTextDocumentParams{}
	if !decodeParams(ctx, conn, req, &decodedParams) {
		return
	}
	if len(decodedParams.ContentChanges) == 0 {
		return
	}

	uri := decodedParams.TextDocument.URI
	s.mu.Lock()
	doc, ok := s.documents[uri]
	if !ok {
		doc = &document{item: TextDocumentItem{URI: uri}}
		s.documents[uri] = doc
	}
	// full sync: the last change holds the whole document
	doc.item.Text = decodedParams.ContentChanges[len(decodedParams.ContentChanges)-1].Text
	doc.item.Version = decodedParams.TextDocument.Version
	s.mu.Unlock()

	diagnostics := s.assembleAndReportDiagnostics(uri)
	conn.Notify(ctx, "textDocument/publishDiagnostics", PublishDiagnosticsParams{
		URI:         uri,
		Version:     decodedParams.TextDocument.Version,
		Diagnostics: diagnostics,
	})
}

func (s *server) documentDiagnostics(ctx context.Context, conn *jsonrpc2.Conn, req *jsonrpc2.Request) {
	decodedParams := DocumentDiagnosticsParams{}
	if !decodeParams(ctx, conn, req, &decodedParams) {
		return
	}

	diagnostics := s.assembleAndReportDiagnostics(decodedParams.TextDocument.URI)
	conn.Reply(ctx, req.ID, DocumentDiagnosticsReport{
		Kind:  "full",
		Items: diagnostics,
	})
}

func (s *server) documentWillSaveWaitUntil(ctx context.Context, conn *jsonrpc2.Conn, req *jsonrpc2.Request) {
	decodedParams := DocumentWillSaveWaitUntilParams{}
	if !decodeParams(ctx, conn, req, &decodedParams) {
		return
	}

	edits := make([]TextEdit, 0)
	text, ok := s.documentText(decodedParams.TextDocument.URI)
	if !ok {
		conn.Reply(ctx, req.ID, edits)
		return
	}

	formatted := assembler.Format(text)
	if formatted != text {
		lines := strings.Split(text, "\n")
		edits = append(edits, TextEdit{
			Range: assembler.TextRange{
				Start: assembler.TextPosition{Line: 0, Char: 0},
				End:   assembler.TextPosition{Line: len(lines) - 1, Char: len(lines[len(lines)-1])},
			},
			NewText: formatted,
		})
	}

	conn.Reply(ctx, req.ID, edits)
	util.LogF("RISC-V Language Server: reformatted document %s", decodedParams.TextDocument.URI)
}
