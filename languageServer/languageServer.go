package languageServer

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net"
	"os"

	"github.com/sourcegraph/jsonrpc2"

	"github.gatech.edu/ECEInnovation/RISC-V-Assembler/assembler"
	"github.gatech.edu/ECEInnovation/RISC-V-Assembler/util"
)

type stdrwc struct{}

func (stdrwc) Read(p []byte) (int, error) {
	return os.Stdin.Read(p)
}

func (stdrwc) Write(p []byte) (int, error) {
	return os.Stdout.Write(p)
}

func (stdrwc) Close() error {
	if err := os.Stdin.Close(); err != nil {
		return err
	}
	return os.Stdout.Close()
}

// ListenAndServe speaks the language server protocol over stdin and stdout
// until the client disconnects.
func ListenAndServe(ctx context.Context, cfg assembler.AssemblerConfig) error {
	conn := Serve(ctx, stdrwc{}, cfg)
	select {
	case <-conn.DisconnectNotify():
	case <-ctx.Done():
		conn.Close()
	}
	return nil
}

// Serve starts a language server session on rwc. Every session keeps its own
// set of open documents.
func Serve(ctx context.Context, rwc io.ReadWriteCloser, cfg assembler.AssemblerConfig) *jsonrpc2.Conn {
	h := handler{server: newServer(cfg)}
	return jsonrpc2.NewConn(ctx, jsonrpc2.NewBufferedStream(rwc, jsonrpc2.VSCodeObjectCodec{}), h)
}

func ListenAndServeTCP(ctx context.Context, addr string, cfg assembler.AssemblerConfig) error {
	lis, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("could not bind to address %s: %w", addr, err)
	}
	defer lis.Close()

	go func() {
		<-ctx.Done()
		lis.Close()
	}()

	log.Println("RISC-V Language Server: listening for TCP connections on", lis.Addr())
	return serveListener(ctx, lis, cfg)
}

func serveListener(ctx context.Context, lis net.Listener, cfg assembler.AssemblerConfig) error {
	connectionCount := 0

	for {
		conn, err := lis.Accept()
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return fmt.Errorf("failed to accept incoming connection: %w", err)
		}
		connectionCount = connectionCount + 1
		connectionID := connectionCount
		log.Printf("RISC-V Language Server: received incoming connection #%d\n", connectionID)

		rpcConn := Serve(ctx, conn, cfg)
		go func() {
			<-rpcConn.DisconnectNotify()
			log.Printf("RISC-V Language Server: connection #%d closed\n", connectionID)
		}()
	}
}

type handler struct {
	server *server
}

func (h handler) Handle(ctx context.Context, conn *jsonrpc2.Conn, req *jsonrpc2.Request) {
	util.LogF("RISC-V Language Server: received request: %s", req.Method)
	s := h.server
	switch req.Method {
	case "initialize":
		s.handleInitialize(ctx, conn, req)
	case "initialized":
	case "textDocument/didOpen":
		s.documentOpenNotification(ctx, conn, req)
	case "textDocument/didClose":
		s.documentCloseNotification(ctx, conn, req)
	case "textDocument/didChange":
		s.documentChangeNotification(ctx, conn, req)
	case "textDocument/diagnostic":
		s.documentDiagnostics(ctx, conn, req)
	case "textDocument/willSaveWaitUntil":
		s.documentWillSaveWaitUntil(ctx, conn, req)
	case "textDocument/hover":
		s.hoverRequest(ctx, conn, req)

	// quitting
	case "shutdown":
		conn.Reply(ctx, req.ID, nil)
	case "exit":
		conn.Close()

	default:
		if !req.Notif {
			conn.ReplyWithError(ctx, req.ID, &jsonrpc2.Error{
				Code:    jsonrpc2.CodeMethodNotFound,
				Message: "method not supported: " + req.Method,
			})
		}
	}
}

// decodeParams unmarshals the request parameters into v, replying with an
// error to requests whose parameters are malformed.
func decodeParams(ctx context.Context, conn *jsonrpc2.Conn, req *jsonrpc2.Request, v interface{}) bool {
	var err error
	if req.Params == nil {
		err = fmt.Errorf("missing parameters")
	} else {
		err = json.Unmarshal(*req.Params, v)
	}
	if err == nil {
		return true
	}

	util.LogF("RISC-V Language Server: invalid parameters for %s: %v", req.Method, err)
	if !req.Notif {
		conn.ReplyWithError(ctx, req.ID, &jsonrpc2.Error{
			Code:    jsonrpc2.CodeInvalidParams,
			Message: "invalid parameters",
		})
	}
	return false
}

func (s *server) handleInitialize(ctx context.Context, conn *jsonrpc2.Conn, req *jsonrpc2.Request) {
	decodedParams := InitializeParams{}
	if !decodeParams(ctx, conn, req, &decodedParams) {
		return
	}

	if decodedParams.ClientInfo != nil {
		util.LogF("RISC-V Language Server: initializing for %s %s", decodedParams.ClientInfo.Name, decodedParams.ClientInfo.Version)
	}

	result := InitializeResult{}
	result.Capabilities.TextDocumentSync = 1
	result.Capabilities.HoverProvider = true
	result.Capabilities.DiagnosticProvider = &DiagnosticOptions{}
	result.ServerInfo = ServerInfo{Name: "riscv-assembler"}
	conn.Reply(ctx, req.ID, result)

	registerRemainingCapabilities(conn)
}

func registerRemainingCapabilities(conn *jsonrpc2.Conn) {
	// textDocumentSync.willSaveWaitUntil is only offered through dynamic registration
	util.LogF("RISC-V Language Server: registering remaining capabilities")
	params := RegistrationParams{
		Registrations: []Registration{
			{
				ID:     "textDocumentSync.willSaveWaitUntil",
				Method: "textDocument/willSaveWaitUntil",
				RegisterOptions: TextDocumentRegistrationOptions{
					DocumentSelector: []DocumentFilter{
						{
							Scheme:   "file",
							Language: "riscv",
						},
					},
				},
			},
		},
	}

	// the client answers on the connection this handler is blocking
	go conn.Call(context.Background(), "client/registerCapability", params, nil)
}
