package web

import (
	"bufio"
	"context"
	"embed"
	"encoding/json"
	"errors"
	"io"
	"io/fs"
	"log"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	edlog "github.com/peterkuimelis/edlookup/internal/log"
	"github.com/peterkuimelis/edlookup/internal/lookup"
	edlnet "github.com/peterkuimelis/edlookup/internal/net"
	"github.com/peterkuimelis/edlookup/internal/selection"
	"github.com/peterkuimelis/edlookup/internal/storage"
)

//go:embed static
var staticFiles embed.FS

// LookupResponse is the JSON body of /api/lookup.
type LookupResponse struct {
	Snapshot selection.Snapshot  `json:"snapshot"`
	Capacity edlnet.CapacityView `json:"capacity"`
	Grid     lookup.GridView     `json:"grid"`
	Error    string              `json:"error,omitempty"`
}

// Options configures a Server.
type Options struct {
	Layout  selection.Layout
	Store   storage.KV
	BaseURL *url.URL
	Logger  *slog.Logger
}

// Server is the lookup web UI server.
type Server struct {
	opts Options
	mux  *http.ServeMux
}

// NewServer creates a new web server.
func NewServer(opts Options) *Server {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	s := &Server{
		opts: opts,
		mux:  http.NewServeMux(),
	}
	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	// Embedded static files
	staticFS, _ := fs.Sub(staticFiles, "static")

	// Serve index.html at root
	s.mux.HandleFunc("GET /", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		f, err := staticFS.Open("index.html")
		if err != nil {
			http.Error(w, "not found", http.StatusNotFound)
			return
		}
		defer f.Close()
		io.Copy(w, f.(io.Reader))
	})

	// Static CSS/JS
	s.mux.Handle("GET /static/", http.StripPrefix("/static/", http.FileServer(http.FS(staticFS))))

	// API endpoints
	s.mux.HandleFunc("GET /api/layout", s.handleLayout)
	s.mux.HandleFunc("GET /api/lookup", s.handleLookup)
	s.mux.HandleFunc("GET /lookup", s.handleLookupHTML)

	// WebSocket session
	s.mux.HandleFunc("GET /ws", s.handleWebSocket)
}

// Handler returns the routes wrapped in the request logger.
func (s *Server) Handler() http.Handler {
	return requestLogger(s.opts.Logger, s.mux)
}

func (s *Server) handleLayout(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(s.opts.Layout)
}

// decodeLookup reads a selection from the request query. Values are sorted
// so the grid builder sees ascending ranks.
func decodeLookup(r *http.Request) (selection.Snapshot, error) {
	snap, err := selection.DecodeQuery(r.URL.Query())
	if err != nil {
		return selection.Snapshot{}, err
	}
	return snap.Normalized(), nil
}

func (s *Server) handleLookup(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	snap, err := decodeLookup(r)
	if err != nil {
		w.WriteHeader(http.StatusBadRequest)
		json.NewEncoder(w).Encode(LookupResponse{Error: err.Error()})
		return
	}

	c := selection.CapacityOf(snap)
	json.NewEncoder(w).Encode(LookupResponse{
		Snapshot: snap,
		Capacity: edlnet.CapacityView{Used: c.Used, Limit: c.Limit, Exceeded: c.Exceeded()},
		Grid:     lookup.NewGridView(lookup.Build(snap.XYZ, snap.Fusion)),
	})
}

func (s *Server) handleLookupHTML(w http.ResponseWriter, r *http.Request) {
	snap, err := decodeLookup(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	io.WriteString(w, `<table class="lookup-table">`)
	lookup.WriteHTML(w, lookup.Build(snap.XYZ, snap.Fusion))
	io.WriteString(w, "</table>\n")
}

// wsConn adapts a WebSocket to the session protocol.
type wsConn struct {
	c *websocket.Conn
}

func (w wsConn) Read(ctx context.Context) (edlnet.ClientMessage, error) {
	var msg edlnet.ClientMessage
	err := wsjson.Read(ctx, w.c, &msg)
	return msg, err
}

func (w wsConn) Write(ctx context.Context, msg edlnet.ServerMessage) error {
	return wsjson.Write(ctx, w.c, msg)
}

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := websocket.Accept(w, r, nil)
	if err != nil {
		log.Printf("WebSocket accept error: %v", err)
		return
	}
	defer conn.CloseNow()

	sess := edlnet.NewSession(wsConn{c: conn}, edlnet.SessionConfig{
		Store:   s.opts.Store,
		Layout:  s.opts.Layout,
		BaseURL: s.opts.BaseURL,
		Logger:  edlog.Discard,
	})
	err = sess.Run(r.Context())
	switch {
	case err == nil, errors.Is(err, context.Canceled):
		conn.Close(websocket.StatusNormalClosure, "")
	case websocket.CloseStatus(err) == websocket.StatusNormalClosure,
		websocket.CloseStatus(err) == websocket.StatusGoingAway:
		// Browser went away.
	default:
		log.Printf("WebSocket session: %v", err)
		conn.Close(websocket.StatusInternalError, "session failed")
	}
}

// ListenAndServe starts the HTTP server.
func (s *Server) ListenAndServe(addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	return srv.ListenAndServe()
}

// statusWriter captures HTTP status and bytes written.
type statusWriter struct {
	http.ResponseWriter
	status int
	bytes  int
}

func (w *statusWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}

func (w *statusWriter) Write(b []byte) (int, error) {
	if w.status == 0 {
		w.status = http.StatusOK
	}
	n, err := w.ResponseWriter.Write(b)
	w.bytes += n
	return n, err
}

func (w *statusWriter) Unwrap() http.ResponseWriter {
	return w.ResponseWriter
}

// Hijack hands the connection to the WebSocket upgrade.
func (w *statusWriter) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	hj, ok := w.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, errors.New("response writer does not support hijacking")
	}
	w.status = http.StatusSwitchingProtocols
	return hj.Hijack()
}

// requestLogger logs method, path, status, bytes, and duration.
func requestLogger(logger *slog.Logger, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		sw := &statusWriter{ResponseWriter: w}
		next.ServeHTTP(sw, r)
		logger.Info("http",
			"method", r.Method,
			"path", r.URL.Path,
			"status", sw.status,
			"bytes", sw.bytes,
			"dur", time.Since(start).Round(time.Millisecond),
		)
	})
}
