package mcp

import (
	"context"
	"net/url"
	"strings"
	"sync"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/peterkuimelis/edlookup/internal/lookup"
	edlnet "github.com/peterkuimelis/edlookup/internal/net"
	"github.com/peterkuimelis/edlookup/internal/selection"
	"github.com/peterkuimelis/edlookup/internal/storage"
)

// activeSession is the singleton selection session (one per stdio process).
var activeSession *SelectionSession

// mu serializes tool calls touching activeSession. The stdio server runs
// handlers on several workers and a Controller has a single owner.
var mu sync.Mutex

// layout is the option layout, set by main.
var layout = selection.DefaultLayout()

// store persists the selection between processes, set by main.
var store storage.KV

// baseURL is the default base for share links, set by main.
var baseURL *url.URL

// SetLayout sets the option layout used by new sessions.
func SetLayout(l selection.Layout) {
	layout = l
}

// SetStore sets the store holding the saved selection.
func SetStore(kv storage.KV) {
	store = kv
}

// SetBaseURL sets the default base for share links.
func SetBaseURL(u *url.URL) {
	baseURL = u
}

// session returns the active session, starting one from the saved selection
// and defaults if needed. Callers hold mu.
func session() *SelectionSession {
	if activeSession == nil {
		activeSession = NewSelectionSession(layout, store, baseURL, "")
	}
	return activeSession
}

// RegisterTools adds all lookup tools to the MCP server.
func RegisterTools(s *server.MCPServer) {
	s.AddTool(lookupTableTool(), handleLookupTable)
	s.AddTool(startSessionTool(), handleStartSession)
	s.AddTool(getSelectionTool(), handleGetSelection)
	s.AddTool(toggleSelectionTool(), handleToggleSelection)
	s.AddTool(setOptionTool(), handleSetOption)
	s.AddTool(selectAllTool(), handleSelectAll)
	s.AddTool(clearSelectionTool(), handleClearSelection)
	s.AddTool(resetSelectionTool(), handleResetSelection)
	s.AddTool(shareSelectionTool(), handleShareSelection)
}

// --- Tool definitions ---

func kindArg() mcp.ToolOption {
	return mcp.WithString("kind", mcp.Required(), mcp.Description("Which list to change: 'xyz' (ranks) or 'fusion' (levels)"))
}

func lookupTableTool() mcp.Tool {
	return mcp.NewTool("lookup_table",
		mcp.WithDescription("Build the Extra Deck lookup table for the given XYZ ranks and Fusion levels without touching the saved selection. "+
			"Rows are the opponent monster's level, columns the number of cards in hands and on the field."),
		mcp.WithString("xyz", mcp.Required(), mcp.Description("Comma-separated XYZ ranks 1-13 (e.g. '2,3,4'), or empty for none")),
		mcp.WithString("fusion", mcp.Required(), mcp.Description("Comma-separated Fusion levels 1-13 (e.g. '1,2'), or empty for none")),
	)
}

func startSessionTool() mcp.Tool {
	return mcp.NewTool("start_session",
		mcp.WithDescription("Start over: reload the selection from a shared link if given, otherwise from the saved selection or the defaults."),
		mcp.WithString("link", mcp.Description("A shared link (or just its query string, e.g. 'xyz=2,3&fusion=1')")),
	)
}

func getSelectionTool() mcp.Tool {
	return mcp.NewTool("get_selection",
		mcp.WithDescription("Get the current selection, slot counter, lookup table, and events since the last call. Read-only."),
	)
}

func toggleSelectionTool() mcp.Tool {
	return mcp.NewTool("toggle_selection",
		mcp.WithDescription("Flip one XYZ rank or Fusion level. The selection is saved and the table rebuilt."),
		kindArg(),
		mcp.WithNumber("value", mcp.Required(), mcp.Description("The rank or level to flip (1-13)")),
	)
}

func setOptionTool() mcp.Tool {
	return mcp.NewTool("set_option",
		mcp.WithDescription("Check or uncheck one XYZ rank or Fusion level."),
		kindArg(),
		mcp.WithNumber("value", mcp.Required(), mcp.Description("The rank or level (1-13)")),
		mcp.WithBoolean("checked", mcp.Required(), mcp.Description("true to select, false to deselect")),
	)
}

func selectAllTool() mcp.Tool {
	return mcp.NewTool("select_all",
		mcp.WithDescription("Select every option of one kind."),
		kindArg(),
	)
}

func clearSelectionTool() mcp.Tool {
	return mcp.NewTool("clear_selection",
		mcp.WithDescription("Deselect every option of one kind."),
		kindArg(),
	)
}

func resetSelectionTool() mcp.Tool {
	return mcp.NewTool("reset_selection",
		mcp.WithDescription("Restore the default options of one kind."),
		kindArg(),
	)
}

func shareSelectionTool() mcp.Tool {
	return mcp.NewTool("share_selection",
		mcp.WithDescription("Return a link that opens the current selection. Nothing is changed or saved."),
		mcp.WithString("base_url", mcp.Description("Page the link should point at; defaults to the configured base URL")),
	)
}

// --- Tool handlers ---

func handleLookupTable(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	q := url.Values{}
	q.Set(selection.ParamXYZ, request.GetString("xyz", ""))
	q.Set(selection.ParamFusion, request.GetString("fusion", ""))
	snap, err := selection.DecodeQuery(q)
	if err != nil {
		return mcp.NewToolResultErrorf("Invalid selection: %v", err), nil
	}
	snap = snap.Normalized()

	g := lookup.Build(snap.XYZ, snap.Fusion)
	c := selection.CapacityOf(snap)
	view := lookup.NewGridView(g)
	resp := &ToolResponse{
		Events:    []EventView{},
		Selection: &snap,
		Capacity:  &edlnet.CapacityView{Used: c.Used, Limit: c.Limit, Exceeded: c.Exceeded()},
		Grid:      &view,
		Table:     lookup.Text(g),
	}
	return mcp.NewToolResultText(respondJSON(resp)), nil
}

func handleStartSession(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	link := strings.TrimSpace(request.GetString("link", ""))
	query := link
	if strings.Contains(link, "://") || strings.HasPrefix(link, "/") || strings.Contains(link, "?") {
		u, err := url.Parse(link)
		if err != nil {
			return mcp.NewToolResultErrorf("Invalid link: %v", err), nil
		}
		query = u.RawQuery
	}

	mu.Lock()
	defer mu.Unlock()
	activeSession = NewSelectionSession(layout, store, baseURL, query)
	return mcp.NewToolResultText(respondJSON(activeSession.respond(true))), nil
}

func handleGetSelection(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	mu.Lock()
	defer mu.Unlock()
	return mcp.NewToolResultText(respondJSON(session().respond(false))), nil
}

func handleToggleSelection(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	kind, err := selection.ParseKind(request.GetString("kind", ""))
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	value := request.GetInt("value", 0)

	mu.Lock()
	defer mu.Unlock()
	sess := session()
	if _, err := sess.ctrl.Toggle(kind, value); err != nil {
		return mcp.NewToolResultErrorf("Cannot toggle: %v", err), nil
	}
	return mcp.NewToolResultText(respondJSON(sess.respond(true))), nil
}

func handleSetOption(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	kind, err := selection.ParseKind(request.GetString("kind", ""))
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	value := request.GetInt("value", 0)
	checked := request.GetBool("checked", false)

	mu.Lock()
	defer mu.Unlock()
	sess := session()
	changed, err := sess.ctrl.SetChecked(kind, value, checked)
	if err != nil {
		return mcp.NewToolResultErrorf("Cannot set: %v", err), nil
	}
	return mcp.NewToolResultText(respondJSON(sess.respond(changed))), nil
}

// kindHandler adapts a whole-kind controller operation into a tool handler.
func kindHandler(op func(*selection.Controller, selection.Kind) bool) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		kind, err := selection.ParseKind(request.GetString("kind", ""))
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		mu.Lock()
		defer mu.Unlock()
		sess := session()
		changed := op(sess.ctrl, kind)
		return mcp.NewToolResultText(respondJSON(sess.respond(changed))), nil
	}
}

var (
	handleSelectAll      = kindHandler((*selection.Controller).SelectAll)
	handleClearSelection = kindHandler((*selection.Controller).Clear)
	handleResetSelection = kindHandler((*selection.Controller).Reset)
)

func handleShareSelection(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var base *url.URL
	if raw := request.GetString("base_url", ""); raw != "" {
		u, err := url.Parse(raw)
		if err != nil {
			return mcp.NewToolResultErrorf("Invalid base_url: %v", err), nil
		}
		base = u
	}
	mu.Lock()
	defer mu.Unlock()
	return mcp.NewToolResultText(respondJSON(session().share(base))), nil
}
