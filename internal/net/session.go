package net

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/url"
	"sync"

	"github.com/peterkuimelis/edlookup/internal/log"
	"github.com/peterkuimelis/edlookup/internal/lookup"
	"github.com/peterkuimelis/edlookup/internal/selection"
	"github.com/peterkuimelis/edlookup/internal/storage"
)

// Conn carries protocol messages in both directions.
type Conn interface {
	Read(ctx context.Context) (ClientMessage, error)
	Write(ctx context.Context, msg ServerMessage) error
}

// streamConn speaks newline-delimited JSON over a byte stream.
type streamConn struct {
	enc *json.Encoder
	dec *json.Decoder
	mu  sync.Mutex
}

// NewStreamConn wraps a TCP connection (or pipe) as a Conn. Read does not
// observe ctx; close the stream to unblock it.
func NewStreamConn(rw io.ReadWriter) Conn {
	return &streamConn{enc: json.NewEncoder(rw), dec: json.NewDecoder(rw)}
}

func (c *streamConn) Read(ctx context.Context) (ClientMessage, error) {
	var msg ClientMessage
	err := c.dec.Decode(&msg)
	return msg, err
}

func (c *streamConn) Write(ctx context.Context, msg ServerMessage) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.enc.Encode(msg)
}

// SessionConfig is shared by every session a host serves.
type SessionConfig struct {
	Store   storage.KV
	Layout  selection.Layout
	BaseURL *url.URL
	Logger  log.EventLogger
}

// Session drives one selection controller from a remote client.
type Session struct {
	conn Conn
	cfg  SessionConfig

	ctrl     *selection.Controller
	location *sessionLocation
	frame    *frame
}

// NewSession creates a session over conn.
func NewSession(conn Conn, cfg SessionConfig) *Session {
	return &Session{conn: conn, cfg: cfg}
}

// sessionLocation holds the client's query; a rewrite is sent back on flush.
type sessionLocation struct {
	params   url.Values
	replaced bool
}

func (l *sessionLocation) Params() url.Values {
	out := url.Values{}
	for k, v := range l.params {
		out[k] = append([]string(nil), v...)
	}
	return out
}

func (l *sessionLocation) ReplaceParams(params url.Values) {
	l.params = params
	l.replaced = true
}

// frame collects what the controller rendered during one operation.
type frame struct {
	capacity selection.Capacity
	grid     lookup.Grid
	dirty    bool
}

func (f *frame) RenderCapacity(c selection.Capacity) {
	f.capacity = c
}

func (f *frame) RenderGrid(g lookup.Grid) {
	f.grid = g
	f.dirty = true
}

// Run performs the join handshake, then serves client messages until the
// connection closes or ctx is done.
func (s *Session) Run(ctx context.Context) error {
	join, err := s.conn.Read(ctx)
	if err != nil {
		return fmt.Errorf("read join message: %w", err)
	}
	if join.Type != MsgJoin {
		_ = s.conn.Write(ctx, ServerMessage{Type: MsgError, Error: "expected join message"})
		return fmt.Errorf("expected join message, got %q", join.Type)
	}

	// A malformed pair is skipped; the rest of the query still counts.
	params, _ := url.ParseQuery(join.Query)
	s.location = &sessionLocation{params: params}
	s.frame = &frame{}

	logger := s.cfg.Logger
	if logger == nil {
		logger = log.Discard
	}
	var store selection.Store
	if s.cfg.Store != nil {
		store = storage.Namespace(s.cfg.Store, clientNamespace(join.Client))
	}
	s.ctrl = selection.NewController(selection.Config{
		Layout:   s.cfg.Layout,
		Store:    store,
		Location: s.location,
		Renderer: s.frame,
		Logger:   logger,
	})
	if err := s.flush(ctx); err != nil {
		return err
	}

	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		msg, err := s.conn.Read(ctx)
		if err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			return fmt.Errorf("read message: %w", err)
		}
		if err := s.handle(ctx, msg); err != nil {
			return err
		}
	}
}

func clientNamespace(client string) string {
	if client == "" {
		return "default"
	}
	return client
}

// handle applies one client message. Only write failures are returned; bad
// requests are answered with an error message.
func (s *Session) handle(ctx context.Context, msg ClientMessage) error {
	if msg.Type == MsgShare {
		base := s.cfg.BaseURL
		if msg.BaseURL != "" {
			u, err := url.Parse(msg.BaseURL)
			if err != nil {
				return s.conn.Write(ctx, ServerMessage{Type: MsgError, Error: fmt.Sprintf("invalid base URL: %v", err)})
			}
			base = u
		}
		return s.conn.Write(ctx, ServerMessage{Type: MsgShare, Link: s.ctrl.Share(base)})
	}
	if msg.Type == MsgState {
		s.frame.capacity = s.ctrl.Capacity()
		s.frame.grid = s.ctrl.Grid()
		s.frame.dirty = true
		return s.flush(ctx)
	}

	kind, err := selection.ParseKind(msg.Kind)
	if err != nil {
		return s.conn.Write(ctx, ServerMessage{Type: MsgError, Error: err.Error()})
	}

	switch msg.Type {
	case MsgToggle:
		_, err = s.ctrl.Toggle(kind, msg.Value)
	case MsgSet:
		_, err = s.ctrl.SetChecked(kind, msg.Value, msg.Checked)
	case MsgSelectAll:
		s.ctrl.SelectAll(kind)
	case MsgClear:
		s.ctrl.Clear(kind)
	case MsgReset:
		s.ctrl.Reset(kind)
	default:
		err = fmt.Errorf("unknown message type %q", msg.Type)
	}
	if err != nil {
		return s.conn.Write(ctx, ServerMessage{Type: MsgError, Error: err.Error()})
	}
	return s.flush(ctx)
}

// flush sends a pending location rewrite and the latest render, or a noop
// when nothing changed.
func (s *Session) flush(ctx context.Context) error {
	if s.location.replaced {
		s.location.replaced = false
		if err := s.conn.Write(ctx, ServerMessage{Type: MsgReplaceParams, Query: s.location.params.Encode()}); err != nil {
			return fmt.Errorf("send replace_params: %w", err)
		}
	}
	if !s.frame.dirty {
		return s.conn.Write(ctx, ServerMessage{Type: MsgNoop})
	}
	s.frame.dirty = false

	msg := s.renderMessage()
	if err := s.conn.Write(ctx, msg); err != nil {
		return fmt.Errorf("send render: %w", err)
	}
	return nil
}

func (s *Session) renderMessage() ServerMessage {
	c := s.frame.capacity
	g := s.frame.grid
	view := lookup.NewGridView(g)
	layout := s.ctrl.Layout()
	snap := s.ctrl.Snapshot()
	return ServerMessage{
		Type:     MsgRender,
		Source:   s.ctrl.Source().String(),
		Capacity: &CapacityView{Used: c.Used, Limit: c.Limit, Exceeded: c.Exceeded()},
		Layout:   &layout,
		Grid:     &view,
		HTML:     lookup.HTML(g),
		Text:     lookup.Text(g),
		Snapshot: &snap,
	}
}
