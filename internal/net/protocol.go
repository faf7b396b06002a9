package net

import (
	"github.com/peterkuimelis/edlookup/internal/lookup"
	"github.com/peterkuimelis/edlookup/internal/selection"
)

// Message types for the JSON protocol over TCP and WebSocket.

// --- Server → Client messages ---

// ServerMessage is the envelope for all server-to-client messages.
type ServerMessage struct {
	Type string `json:"type"`

	// For "render"
	Source   string              `json:"source,omitempty"`
	Capacity *CapacityView       `json:"capacity,omitempty"`
	Layout   *selection.Layout   `json:"layout,omitempty"`
	Grid     *lookup.GridView    `json:"grid,omitempty"`
	HTML     string              `json:"html,omitempty"`
	Text     string              `json:"text,omitempty"`
	Snapshot *selection.Snapshot `json:"snapshot,omitempty"`

	// For "replace_params": the query string without the consumed link
	Query string `json:"query,omitempty"`

	// For "share"
	Link string `json:"link,omitempty"`

	// For "error"
	Error string `json:"error,omitempty"`
}

// CapacityView is the slot counter with its warning flag.
type CapacityView struct {
	Used     int  `json:"used"`
	Limit    int  `json:"limit"`
	Exceeded bool `json:"exceeded"`
}

// --- Client → Server messages ---

// ClientMessage is the envelope for all client-to-server messages.
type ClientMessage struct {
	Type string `json:"type"`

	// For "join" (initial handshake)
	Client string `json:"client,omitempty"` // persistence namespace
	Query  string `json:"query,omitempty"`  // location query, may carry a shared link

	// For "toggle", "set", "select_all", "clear", "reset"
	Kind    string `json:"kind,omitempty"`
	Value   int    `json:"value,omitempty"`
	Checked bool   `json:"checked,omitempty"`

	// For "share"
	BaseURL string `json:"base_url,omitempty"`
}

// Server message types.
const (
	MsgRender        = "render"
	MsgReplaceParams = "replace_params"
	MsgShare         = "share"
	MsgNoop          = "noop"
	MsgError         = "error"
)

// Client message types.
const (
	MsgJoin      = "join"
	MsgToggle    = "toggle"
	MsgSet       = "set"
	MsgSelectAll = "select_all"
	MsgClear     = "clear"
	MsgReset     = "reset"
	MsgState     = "state"
)
