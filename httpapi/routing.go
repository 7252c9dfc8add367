package httpapi

import (
	"bufio"
	"bytes"
	"io"
	"net"
	"net/http"

	"github.com/vireo-stream/hostcore/logger"
)

func (s *Server) routes() *http.ServeMux {
	mux := http.NewServeMux()

	mux.HandleFunc("/computers", s.wrap(s.handleComputers))
	mux.HandleFunc("/apps", s.wrap(s.handleApps))
	mux.HandleFunc("/hideapp", s.wrap(s.handleHideApp))
	mux.HandleFunc("/razerid/availability", s.wrap(s.handleRazerAvailability))
	mux.HandleFunc("/pair", s.wrap(s.handlePair))
	mux.HandleFunc("/pairstate", s.wrap(s.handlePairState))
	mux.HandleFunc("/cancelpair", s.wrap(s.handleCancelPair))
	mux.HandleFunc("/stream", s.wrap(s.handleStream))
	mux.HandleFunc("/streamstate", s.wrap(s.handleStreamState))
	mux.HandleFunc("/addcomputer", s.wrap(s.handleAddComputer))
	mux.HandleFunc("/addstate", s.wrap(s.handleAddState))
	mux.HandleFunc("/deletecomputer", s.wrap(s.handleDeleteComputer))
	mux.HandleFunc("/deletestate", s.wrap(s.handleDeleteState))
	mux.HandleFunc("/settings", s.wrap(s.handleSettings))
	mux.HandleFunc("/settings/reset", s.wrap(s.handleSettingsReset))
	mux.HandleFunc("/settings/screeninfo", s.wrap(s.handleScreenInfo))
	mux.HandleFunc("/quitapp", s.wrap(s.handleQuitApp))
	mux.HandleFunc("/quitstate", s.wrap(s.handleQuitState))
	mux.HandleFunc("/exit", s.wrap(s.handleExit))
	mux.HandleFunc("/alive", s.wrap(s.handleAlive))
	mux.HandleFunc("/XRazerJWT", s.wrap(s.handleXRazerJWT))
	mux.HandleFunc("/something", s.wrap(s.handleSomething))
	mux.HandleFunc("/wake", s.wrap(s.handleWake))
	mux.HandleFunc("/ws", s.wrap(s.handleWebSocket))
	mux.HandleFunc("/", s.wrap(s.handleNotFound))

	return mux
}

// wrap applies the permissive CORS headers every response carries and
// logs the accepted request with its body and response. The control API
// is a local-only surface, so a blanket "*" origin replaces an
// allow-list.
func (s *Server) wrap(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}

		// Tee the request body so both the handler and the access log
		// see it. Control-API payloads are small JSON objects.
		var reqBody []byte
		if r.Body != nil && r.Method != http.MethodGet {
			reqBody, _ = io.ReadAll(r.Body)
			r.Body.Close()
			r.Body = io.NopCloser(bytes.NewReader(reqBody))
		}

		rec := &responseRecorder{ResponseWriter: w, status: http.StatusOK}
		next(rec, r)

		s.log.Infow("request",
			"method", r.Method,
			"path", r.URL.Path,
			"query", r.URL.RawQuery,
			"body", truncateForLog(reqBody),
			"status", rec.status,
			"response", truncateForLog(rec.body.Bytes()),
		)
	}
}

// truncateForLog cuts a logged body to the policy limit unless full-body
// logging was requested on the command line (-vvvv).
func truncateForLog(b []byte) string {
	if logger.ShowHTTPBodies() || len(b) <= logger.BodyLogLimit {
		return string(b)
	}
	return string(b[:logger.BodyLogLimit]) + "..."
}

// responseRecorder captures the status code and body for the access log.
type responseRecorder struct {
	http.ResponseWriter
	status int
	body   bytes.Buffer
}

func (r *responseRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func (r *responseRecorder) Write(b []byte) (int, error) {
	r.body.Write(b)
	return r.ResponseWriter.Write(b)
}

// Hijack lets the websocket upgrade on /ws take over the connection.
func (r *responseRecorder) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	if hj, ok := r.ResponseWriter.(http.Hijacker); ok {
		return hj.Hijack()
	}
	return nil, nil, http.ErrNotSupported
}
