package playground

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.gatech.edu/ECEInnovation/RISC-V-Assembler/assembler"
	"github.gatech.edu/ECEInnovation/RISC-V-Assembler/util"
)

// The playground is a small web page for trying the assembler without an
// editor. The page talks to the server over a websocket at /ws:
//
//	-> {"type": "assemble", "source": "addi x1, x0, 1"}
//	<- {"type": "result", "text": "00100093", ...}
//	<- {"type": "diagnostic", "diagnostic": {...}}
//	<- {"type": "error", "text": "..."}

type request struct {
	Type   string `json:"type"`
	Source string `json:"source"`
}

type symbolMessage struct {
	Name    string `json:"name"`
	Segment string `json:"segment"`
	Offset  uint32 `json:"offset"`
}

type resultMessage struct {
	Type    string          `json:"type"`
	Text    string          `json:"text"`
	Data    string          `json:"data"`
	Words   []string        `json:"words"`
	Symbols []symbolMessage `json:"symbols"`
}

type diagnosticMessage struct {
	Type       string               `json:"type"`
	Diagnostic assembler.Diagnostic `json:"diagnostic"`
}

type errorMessage struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

// session serializes writes to one websocket connection.
type session struct {
	conn *websocket.Conn
	mu   sync.Mutex
}

func (s *session) send(v interface{}) error {
	messageBytes, err := json.Marshal(v)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.conn.WriteMessage(websocket.TextMessage, messageBytes)
}

func assemble(source string, cfg assembler.AssemblerConfig) interface{} {
	res, err := assembler.AssembleWithConfig(source, cfg)
	if err != nil {
		var asmErr *assembler.AssemblyError
		if errors.As(err, &asmErr) {
			return diagnosticMessage{Type: "diagnostic", Diagnostic: assembler.ToDiagnostic(err)}
		}
		return errorMessage{Type: "error", Text: err.Error()}
	}

	msg := resultMessage{
		Type:    "result",
		Text:    hex.EncodeToString(res.Text),
		Data:    hex.EncodeToString(res.Data),
		Words:   make([]string, 0, len(res.Words)),
		Symbols: make([]symbolMessage, 0, res.Symbols.Len()),
	}
	for _, w := range res.Words {
		msg.Words = append(msg.Words, fmt.Sprintf("%08x", w))
	}
	for _, sym := range res.Symbols.Symbols() {
		msg.Symbols = append(msg.Symbols, symbolMessage{
			Name:    sym.Name,
			Segment: sym.Segment.String(),
			Offset:  sym.Offset,
		})
	}
	return msg
}

// NewHandler returns the playground page at / and its websocket at /ws.
func NewHandler(cfg assembler.AssemblerConfig) http.Handler {
	upgrader := websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     func(r *http.Request) bool { return true },
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/ws", func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			log.Println(err)
			return
		}
		defer conn.Close()
		serveSession(&session{conn: conn}, cfg)
	})
	mux.HandleFunc("/", handleGetPage)
	return mux
}

func serveSession(s *session, cfg assembler.AssemblerConfig) {
	for {
		_, messageBytes, err := s.conn.ReadMessage()
		if err != nil {
			util.LogF("playground read: %v", err)
			return
		}

		var req request
		if err := json.Unmarshal(messageBytes, &req); err != nil {
			s.send(errorMessage{Type: "error", Text: "malformed request: " + err.Error()})
			continue
		}

		switch req.Type {
		case "assemble":
			err = s.send(assemble(req.Source, cfg))
		default:
			err = s.send(errorMessage{Type: "error", Text: fmt.Sprintf("unknown message type: %s", req.Type)})
		}
		if err != nil {
			util.LogF("playground write: %v", err)
			return
		}
	}
}

// ListenAndServe runs the playground on addr until ctx is cancelled.
func ListenAndServe(ctx context.Context, addr string, cfg assembler.AssemblerConfig) error {
	lis, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("could not bind to address %s: %w", addr, err)
	}
	return Serve(ctx, lis, cfg)
}

// Serve runs the playground on lis until ctx is cancelled.
func Serve(ctx context.Context, lis net.Listener, cfg assembler.AssemblerConfig) error {
	srv := &http.Server{
		Handler:           NewHandler(cfg),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		srv.Shutdown(shutdownCtx)
	}()

	log.Printf("Connect to the assembler playground at %s", pageURL(lis.Addr()))
	if err := srv.Serve(lis); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// pageURL is the address a browser should open for a listener. Wildcard
// hosts are shown as localhost.
func pageURL(addr net.Addr) string {
	host, port, err := net.SplitHostPort(addr.String())
	if err != nil {
		return "http://" + addr.String()
	}
	if ip := net.ParseIP(host); host == "" || (ip != nil && ip.IsUnspecified()) {
		host = "localhost"
	}
	return "http://" + net.JoinHostPort(host, port)
}

func handleGetPage(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	w.Header().Set("Content-Type", "text/html")
	w.Write([]byte(htmlPage))
}

var htmlPage = `<html>
<head>
	<title>RISC-V Assembler</title>
</head>
<body style="background-color: #1E1E1E;">
	<h1 style="color: white; display: inline-block;">RISC-V Assembler</h1>
	<button id="assembleButton" style="margin-left: 50px; height: 40px; width: 100px;">ASSEMBLE</button>
	<br/>
	<textarea id="source" spellcheck="false" style="width: 980px; height: 300px; padding: 10px; color: white; background-color: black; font-size: 1.1em; font-family: monospace; border: 2px solid white;"></textarea>
	<h2 style="color: white;">Output</h2>
	<pre id="output" style="width: 980px; padding: 10px; color: white; font-size: 1.1em; background-color: black; height: 300px; overflow-y: auto; border: 2px solid white;"></pre>

	<script>
		var socket;

		function connect() {
			socket = new WebSocket("ws://" + window.location.host + "/ws");
			socket.onmessage = function(event) {
				var data = JSON.parse(event.data);
				var output = document.getElementById("output");
				if (data.type == "result") {
					var text = "text:\n";
					data.words.forEach(function(w, i) {
						text += "  " + (i * 4).toString(16).padStart(8, "0") + ": " + w + "\n";
					});
					text += "\ndata:\n  " + (data.data || "(empty)") + "\n\nsymbols:\n";
					data.symbols.forEach(function(s) {
						text += "  " + s.name + " " + s.segment + "+0x" + s.offset.toString(16) + "\n";
					});
					output.textContent = text;
				} else if (data.type == "diagnostic") {
					var d = data.diagnostic;
					output.textContent = "line " + (d.range.start.line + 1) + ":" + (d.range.start.character + 1) + ": " + d.message;
				} else {
					output.textContent = data.text;
				}
			};
			// when the socket closes, try to reconnect every 3 seconds
			socket.onclose = function() {
				setTimeout(connect, 3000);
			};
		}
		connect();

		document.getElementById("assembleButton").onclick = function() {
			socket.send(JSON.stringify({
				type: "assemble",
				source: document.getElementById("source").value
			}));
		};
	</script>
</body>
</html>`
