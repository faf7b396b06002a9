package net

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/peterkuimelis/edlookup/internal/log"
	"github.com/peterkuimelis/edlookup/internal/selection"
	"github.com/peterkuimelis/edlookup/internal/storage"
)

// testPeer is the client end of a piped session.
type testPeer struct {
	t    *testing.T
	enc  *json.Encoder
	dec  *json.Decoder
	conn net.Conn
	done chan error
}

func startSession(t *testing.T, store storage.KV) *testPeer {
	t.Helper()
	clientConn, serverConn := net.Pipe()
	base, _ := url.Parse("http://localhost:8080/")
	sess := NewSession(NewStreamConn(serverConn), SessionConfig{
		Store:   store,
		Layout:  selection.DefaultLayout(),
		BaseURL: base,
		Logger:  log.NewMemoryLogger(),
	})

	p := &testPeer{
		t:    t,
		enc:  json.NewEncoder(clientConn),
		dec:  json.NewDecoder(clientConn),
		conn: clientConn,
		done: make(chan error, 1),
	}
	go func() {
		p.done <- sess.Run(context.Background())
		serverConn.Close()
	}()
	t.Cleanup(func() { clientConn.Close() })
	return p
}

func (p *testPeer) send(msg ClientMessage) {
	p.t.Helper()
	p.conn.SetDeadline(time.Now().Add(5 * time.Second))
	if err := p.enc.Encode(msg); err != nil {
		p.t.Fatalf("send %s: %v", msg.Type, err)
	}
}

func (p *testPeer) recv() ServerMessage {
	p.t.Helper()
	p.conn.SetDeadline(time.Now().Add(5 * time.Second))
	var msg ServerMessage
	if err := p.dec.Decode(&msg); err != nil {
		p.t.Fatalf("recv: %v", err)
	}
	return msg
}

func (p *testPeer) expect(msgType string) ServerMessage {
	p.t.Helper()
	msg := p.recv()
	if msg.Type != msgType {
		p.t.Fatalf("Expected %s, got %s (%+v)", msgType, msg.Type, msg)
	}
	return msg
}

func TestSessionJoinRendersDefaults(t *testing.T) {
	p := startSession(t, storage.NewMemory())
	p.send(ClientMessage{Type: MsgJoin, Client: "alice"})

	msg := p.expect(MsgRender)
	if msg.Source != selection.SourceDefault.String() {
		t.Errorf("Expected defaults, got %q", msg.Source)
	}
	if msg.Capacity == nil || msg.Capacity.Used != 13 {
		t.Errorf("Expected capacity 13 for the default layout, got %+v", msg.Capacity)
	}
	if msg.Grid == nil || msg.Grid.Empty {
		t.Error("Expected a non-empty grid")
	}
	if !strings.Contains(msg.HTML, "cell-with-solution") {
		t.Error("Expected rendered HTML")
	}
	if msg.Layout == nil || len(msg.Layout.XYZ) != 13 {
		t.Error("Expected the layout with 13 ranks")
	}
}

func TestSessionSharedLinkIsConsumed(t *testing.T) {
	p := startSession(t, storage.NewMemory())
	p.send(ClientMessage{Type: MsgJoin, Query: "xyz=1,2&fusion=1&tab=x"})

	replace := p.expect(MsgReplaceParams)
	if replace.Query != "tab=x" {
		t.Errorf("Expected only tab to remain, got %q", replace.Query)
	}
	msg := p.expect(MsgRender)
	if msg.Source != selection.SourceQuery.String() {
		t.Errorf("Expected shared link, got %q", msg.Source)
	}
	if len(msg.Grid.Cells) != 2 {
		t.Errorf("Expected 2 cells for R={1,2} L={1}, got %d", len(msg.Grid.Cells))
	}
}

func TestSessionSharedLinkSurvivesMalformedParams(t *testing.T) {
	for _, query := range []string{"xyz=1,2&fusion=1&utm=%zz", "xyz=1,2&fusion=1&a=b;c"} {
		p := startSession(t, storage.NewMemory())
		p.send(ClientMessage{Type: MsgJoin, Query: query})

		replace := p.expect(MsgReplaceParams)
		if strings.Contains(replace.Query, "xyz") || strings.Contains(replace.Query, "fusion") {
			t.Errorf("%q: expected the link params to be erased, got %q", query, replace.Query)
		}
		msg := p.expect(MsgRender)
		if msg.Source != selection.SourceQuery.String() {
			t.Errorf("%q: expected shared link, got %q", query, msg.Source)
		}
		if msg.Grid == nil || len(msg.Grid.Cells) != 2 {
			t.Errorf("%q: expected 2 cells for R={1,2} L={1}, got %+v", query, msg.Grid)
		}
	}
}

func TestSessionMutationsPersistPerClient(t *testing.T) {
	store := storage.NewMemory()
	p := startSession(t, store)
	p.send(ClientMessage{Type: MsgJoin, Client: "bob"})
	p.expect(MsgRender)

	p.send(ClientMessage{Type: MsgClear, Kind: "xyz"})
	msg := p.expect(MsgRender)
	if !msg.Grid.Empty {
		t.Error("Expected an empty grid without ranks")
	}

	p.send(ClientMessage{Type: MsgClear, Kind: "xyz"})
	p.expect(MsgNoop)

	p.send(ClientMessage{Type: MsgToggle, Kind: "xyz", Value: 5})
	msg = p.expect(MsgRender)
	if msg.Snapshot == nil || len(msg.Snapshot.XYZ) != 1 || msg.Snapshot.XYZ[0] != 5 {
		t.Errorf("Expected xyz=[5], got %+v", msg.Snapshot)
	}

	saved, ok, _ := store.Get("bob/" + selection.StorageKey)
	if !ok {
		t.Fatal("Expected the selection to be saved under the client namespace")
	}
	snap, err := selection.DecodeSnapshot(saved)
	if err != nil || len(snap.XYZ) != 1 || snap.XYZ[0] != 5 {
		t.Errorf("Unexpected saved selection %q (err=%v)", saved, err)
	}

	// A second session for the same client resumes it.
	q := startSession(t, store)
	q.send(ClientMessage{Type: MsgJoin, Client: "bob"})
	msg = q.expect(MsgRender)
	if msg.Source != selection.SourcePersisted.String() {
		t.Errorf("Expected saved selection, got %q", msg.Source)
	}
}

func TestSessionShareAndErrors(t *testing.T) {
	p := startSession(t, nil)
	p.send(ClientMessage{Type: MsgJoin})
	p.expect(MsgRender)

	p.send(ClientMessage{Type: MsgShare})
	share := p.expect(MsgShare)
	if !strings.HasPrefix(share.Link, "http://localhost:8080/?") {
		t.Errorf("Expected a link on the configured base, got %q", share.Link)
	}
	u, _ := url.Parse(share.Link)
	if _, err := selection.DecodeQuery(u.Query()); err != nil {
		t.Errorf("Expected a decodable link, got %v", err)
	}

	p.send(ClientMessage{Type: MsgToggle, Kind: "synchro", Value: 1})
	p.expect(MsgError)

	p.send(ClientMessage{Type: MsgToggle, Kind: "xyz", Value: 14})
	p.expect(MsgError)

	p.send(ClientMessage{Type: "explode", Kind: "xyz"})
	p.expect(MsgError)

	p.send(ClientMessage{Type: MsgState})
	p.expect(MsgRender)
}

func TestSessionRequiresJoin(t *testing.T) {
	p := startSession(t, nil)
	p.send(ClientMessage{Type: MsgToggle, Kind: "xyz", Value: 1})
	p.expect(MsgError)

	select {
	case err := <-p.done:
		if err == nil {
			t.Error("Expected the session to fail without a join")
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Session did not stop")
	}
}

type fakeClipboard struct {
	text string
	fail bool
}

func (f *fakeClipboard) WriteAll(text string) error {
	if f.fail {
		return errors.New("no clipboard")
	}
	f.text = text
	return nil
}

func TestClientREPL(t *testing.T) {
	clientConn, serverConn := net.Pipe()
	defer clientConn.Close()
	go func() {
		defer serverConn.Close()
		NewSession(NewStreamConn(serverConn), SessionConfig{
			Store:  storage.NewMemory(),
			Layout: selection.DefaultLayout(),
		}).Run(context.Background())
	}()

	var out bytes.Buffer
	cb := &fakeClipboard{}
	client := &Client{
		conn:      clientConn,
		clipboard: cb,
		in:        strings.NewReader("clear fusion\nt fusion 3\nbogus\nshare https://ed.example/\nquit\n"),
		out:       &out,
	}
	if err := client.RunREPL(context.Background(), "", "repl"); err != nil {
		t.Fatalf("RunREPL: %v", err)
	}

	text := out.String()
	for _, want := range []string{"Fusion levels: -", "Fusion levels: 3", `unknown command "bogus"`, "copied to clipboard"} {
		if !strings.Contains(text, want) {
			t.Errorf("Expected output to contain %q:\n%s", want, text)
		}
	}
	if !strings.HasPrefix(cb.text, "https://ed.example/?") {
		t.Errorf("Expected the link on the clipboard, got %q", cb.text)
	}
}

func TestParseCommand(t *testing.T) {
	tests := []struct {
		line    string
		want    *ClientMessage
		quit    bool
		wantErr bool
	}{
		{"t xyz 4", &ClientMessage{Type: MsgToggle, Kind: "xyz", Value: 4}, false, false},
		{"all fusion", &ClientMessage{Type: MsgSelectAll, Kind: "fusion"}, false, false},
		{"reset x", &ClientMessage{Type: MsgReset, Kind: "x"}, false, false},
		{"show", &ClientMessage{Type: MsgState}, false, false},
		{"t xyz four", nil, false, true},
		{"clear", nil, false, true},
		{"", nil, false, false},
		{"quit", nil, true, false},
	}
	for _, tt := range tests {
		got, quit, err := parseCommand(tt.line)
		if quit != tt.quit || (err != nil) != tt.wantErr {
			t.Errorf("parseCommand(%q): quit=%v err=%v", tt.line, quit, err)
			continue
		}
		if tt.want == nil {
			if got != nil {
				t.Errorf("parseCommand(%q): expected no message, got %+v", tt.line, got)
			}
			continue
		}
		if got == nil || *got != *tt.want {
			t.Errorf("parseCommand(%q): expected %+v, got %+v", tt.line, tt.want, got)
		}
	}
}
