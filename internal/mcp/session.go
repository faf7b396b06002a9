package mcp

import (
	"encoding/json"
	"fmt"
	"net/url"

	"github.com/peterkuimelis/edlookup/internal/log"
	"github.com/peterkuimelis/edlookup/internal/lookup"
	edlnet "github.com/peterkuimelis/edlookup/internal/net"
	"github.com/peterkuimelis/edlookup/internal/selection"
	"github.com/peterkuimelis/edlookup/internal/storage"
)

// storeNamespace keeps the assistant's saved selection apart from browser
// and terminal clients sharing the same store.
const storeNamespace = "mcp"

// EventView is a logged selection event as presented in tool responses.
type EventView struct {
	Seq     int    `json:"seq"`
	Type    string `json:"type"`
	Kind    string `json:"kind,omitempty"`
	Details string `json:"details"`
}

// ToolResponse is the JSON envelope returned by all MCP tools.
type ToolResponse struct {
	Events    []EventView          `json:"events"`
	Source    string               `json:"source,omitempty"`
	Selection *selection.Snapshot  `json:"selection,omitempty"`
	Capacity  *edlnet.CapacityView `json:"capacity,omitempty"`
	Grid      *lookup.GridView     `json:"grid,omitempty"`
	Table     string               `json:"table,omitempty"`
	Changed   bool                 `json:"changed"`
	Link      string               `json:"link,omitempty"`
	Query     string               `json:"query,omitempty"`
}

// SelectionSession holds the state of the MCP selection (one per stdio process).
// It is not safe for concurrent use; the tool handlers serialize on mu.
type SelectionSession struct {
	ctrl     *selection.Controller
	location *selection.StaticLocation
	renderer *toolRenderer
	logger   *log.MemoryLogger
	baseURL  *url.URL

	cursor int // events already returned
}

// NewSelectionSession creates a session and reconciles its selection from
// query (a shared link's query string, possibly empty), the store and the
// layout defaults.
func NewSelectionSession(layout selection.Layout, store storage.KV, baseURL *url.URL, query string) *SelectionSession {
	sess := &SelectionSession{
		location: selection.NewStaticLocation(query),
		renderer: &toolRenderer{},
		logger:   log.NewMemoryLogger(),
		baseURL:  baseURL,
	}
	var st selection.Store
	if store != nil {
		st = storage.Namespace(store, storeNamespace)
	}
	sess.ctrl = selection.NewController(selection.Config{
		Layout:   layout,
		Store:    st,
		Location: sess.location,
		Renderer: sess.renderer,
		Logger:   sess.logger,
	})
	return sess
}

// drainEvents returns the events logged since the last call.
func (s *SelectionSession) drainEvents() []EventView {
	all := s.logger.Events()
	views := make([]EventView, 0, len(all)-s.cursor)
	for _, e := range all[s.cursor:] {
		views = append(views, EventView{
			Seq:     e.Seq,
			Type:    e.Type.String(),
			Kind:    e.Kind,
			Details: e.Details,
		})
	}
	s.cursor = len(all)
	return views
}

// respond builds a ToolResponse with the accumulated events and the latest
// rendered state.
func (s *SelectionSession) respond(changed bool) *ToolResponse {
	snap := s.ctrl.Snapshot()
	c, g := s.renderer.capacity, s.renderer.grid
	view := lookup.NewGridView(g)
	return &ToolResponse{
		Events:    s.drainEvents(),
		Source:    s.ctrl.Source().String(),
		Selection: &snap,
		Capacity:  &edlnet.CapacityView{Used: c.Used, Limit: c.Limit, Exceeded: c.Exceeded()},
		Grid:      &view,
		Table:     lookup.Text(g),
		Changed:   changed,
		Query:     s.location.Params().Encode(),
	}
}

// share returns a response carrying a link to the current selection.
func (s *SelectionSession) share(base *url.URL) *ToolResponse {
	if base == nil {
		base = s.baseURL
	}
	link := s.ctrl.Share(base)
	resp := &ToolResponse{Events: s.drainEvents(), Link: link}
	snap := s.ctrl.Snapshot()
	resp.Selection = &snap
	return resp
}

// respondJSON marshals a ToolResponse to a JSON string.
func respondJSON(resp *ToolResponse) string {
	data, err := json.Marshal(resp)
	if err != nil {
		return fmt.Sprintf(`{"error": "marshal error: %v"}`, err)
	}
	return string(data)
}
