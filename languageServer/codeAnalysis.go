package languageServer

import (
	"context"

	"github.com/sourcegraph/jsonrpc2"
)

func (s *server) hoverRequest(ctx context.Context, conn *jsonrpc2.Conn, req *jsonrpc2.Request) {
	decodedParams := TextDocumentPositionParams{}
	if !decodeParams(ctx, conn, req, &decodedParams) {
		return
	}

	res := s.lastResult(decodedParams.TextDocument.URI)
	if res == nil {
		conn.Reply(ctx, req.ID, nil)
		return
	}

	text, ok := res.EvaluateHover(decodedParams.Position)
	if !ok {
		conn.Reply(ctx, req.ID, nil)
		return
	}

	conn.Reply(ctx, req.ID, Hover{
		Contents: MarkupContent{
			Kind:  "markdown",
			Value: text,
		},
	})
}
