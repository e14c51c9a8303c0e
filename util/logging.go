package util

import (
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"strings"
)

var LoggingEnabled = false

// LogEndpoint, when set, receives every message as a text/plain POST instead
// of stderr. Stdout is reserved for language server traffic.
var LogEndpoint = ""

var logger = log.New(os.Stderr, "", log.LstdFlags)

func LogF(format string, args ...interface{}) {
	if !LoggingEnabled {
		return
	}
	message := fmt.Sprintf(format, args...)
	if LogEndpoint != "" {
		go post(LogEndpoint, message)
		return
	}
	logger.Print(message)
}

func post(endpoint, message string) {
	resp, err := http.Post(endpoint, "text/plain", strings.NewReader(message))
	if err != nil {
		return
	}
	io.Copy(io.Discard, resp.Body)
	resp.Body.Close()
}
