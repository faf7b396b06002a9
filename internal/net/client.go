package net

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"os"
	"strconv"
	"strings"

	"github.com/atotto/clipboard"
)

// clipboardWriter copies share links for the user.
type clipboardWriter interface {
	WriteAll(text string) error
}

type systemClipboard struct{}

func (systemClipboard) WriteAll(text string) error { return clipboard.WriteAll(text) }

// Client connects to a lookup server and provides a terminal REPL.
type Client struct {
	conn      net.Conn
	clipboard clipboardWriter
	in        io.Reader // defaults to os.Stdin
	out       io.Writer // defaults to os.Stdout
}

// Connect dials a server, joins with the given query (which may carry a
// shared link) and runs the REPL.
func Connect(ctx context.Context, addr, query, clientID string) error {
	conn, err := net.Dial("tcp", addr)
	if err != nil {
		return fmt.Errorf("connect: %w", err)
	}
	defer conn.Close()

	client := &Client{conn: conn, clipboard: systemClipboard{}}
	return client.RunREPL(ctx, query, clientID)
}

// RunREPL joins the session, then reads commands until quit or EOF.
func (c *Client) RunREPL(ctx context.Context, query, clientID string) error {
	if c.in == nil {
		c.in = os.Stdin
	}
	if c.out == nil {
		c.out = os.Stdout
	}
	enc := json.NewEncoder(c.conn)
	dec := json.NewDecoder(c.conn)
	reader := bufio.NewReader(c.in)

	if err := enc.Encode(ClientMessage{Type: MsgJoin, Query: query, Client: clientID}); err != nil {
		return fmt.Errorf("send join: %w", err)
	}
	if err := c.readReply(dec); err != nil {
		return err
	}
	c.printHelp()

	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		fmt.Fprint(c.out, "> ")
		line, err := reader.ReadString('\n')
		if err != nil && line == "" {
			if err == io.EOF {
				return nil
			}
			return fmt.Errorf("read input: %w", err)
		}

		msg, quit, perr := parseCommand(strings.TrimSpace(line))
		if quit {
			return nil
		}
		if perr != nil {
			fmt.Fprintln(c.out, perr)
			continue
		}
		if msg == nil {
			c.printHelp()
			continue
		}
		if err := enc.Encode(msg); err != nil {
			return fmt.Errorf("send %s: %w", msg.Type, err)
		}
		if err := c.readReply(dec); err != nil {
			return err
		}
	}
}

// readReply consumes server messages up to and including the one that
// answers the last request.
func (c *Client) readReply(dec *json.Decoder) error {
	for {
		var msg ServerMessage
		if err := dec.Decode(&msg); err != nil {
			return fmt.Errorf("read message: %w", err)
		}

		switch msg.Type {
		case MsgReplaceParams:
			fmt.Fprintln(c.out, "Shared link consumed.")
			continue
		case MsgRender:
			c.renderState(msg)
		case MsgNoop:
			fmt.Fprintln(c.out, "Nothing changed.")
		case MsgShare:
			c.share(msg.Link)
		case MsgError:
			fmt.Fprintf(c.out, "Error: %s\n", msg.Error)
		default:
			continue
		}
		return nil
	}
}

func (c *Client) share(link string) {
	fmt.Fprintln(c.out, link)
	if c.clipboard == nil {
		return
	}
	if err := c.clipboard.WriteAll(link); err != nil {
		fmt.Fprintln(c.out, "URL could not be copied to clipboard ❌")
		return
	}
	fmt.Fprintln(c.out, "URL has been copied to clipboard ✅")
}

func (c *Client) renderState(msg ServerMessage) {
	fmt.Fprintln(c.out)
	if msg.Snapshot != nil {
		fmt.Fprintf(c.out, "XYZ ranks: %s | Fusion levels: %s\n",
			joinValues(msg.Snapshot.XYZ), joinValues(msg.Snapshot.Fusion))
	}
	if cv := msg.Capacity; cv != nil {
		status := "ok"
		if cv.Exceeded {
			status = "over limit!"
		}
		fmt.Fprintf(c.out, "Extra Deck slots: %d/%d (%s)\n", cv.Used, cv.Limit, status)
	}
	fmt.Fprintln(c.out)
	fmt.Fprint(c.out, msg.Text)
}

func joinValues(values []int) string {
	if len(values) == 0 {
		return "-"
	}
	parts := make([]string, len(values))
	for i, v := range values {
		parts[i] = strconv.Itoa(v)
	}
	return strings.Join(parts, ",")
}

func (c *Client) printHelp() {
	fmt.Fprintln(c.out, "\nCommands:")
	fmt.Fprintln(c.out, "  t <xyz|fusion> N   toggle rank/level N")
	fmt.Fprintln(c.out, "  all <xyz|fusion>   select every option")
	fmt.Fprintln(c.out, "  clear <xyz|fusion> deselect every option")
	fmt.Fprintln(c.out, "  reset <xyz|fusion> restore the defaults")
	fmt.Fprintln(c.out, "  share [BASE_URL]   print and copy a link to this selection")
	fmt.Fprintln(c.out, "  show               redraw the table")
	fmt.Fprintln(c.out, "  quit")
}

// parseCommand turns a REPL line into a request. A nil message with no error
// means "show help".
func parseCommand(line string) (*ClientMessage, bool, error) {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return nil, false, nil
	}

	cmd, args := strings.ToLower(fields[0]), fields[1:]
	switch cmd {
	case "q", "quit", "exit":
		return nil, true, nil
	case "help", "?":
		return nil, false, nil
	case "show":
		return &ClientMessage{Type: MsgState}, false, nil
	case "share":
		msg := &ClientMessage{Type: MsgShare}
		if len(args) > 0 {
			msg.BaseURL = args[0]
		}
		return msg, false, nil
	case "t", "toggle":
		if len(args) != 2 {
			return nil, false, fmt.Errorf("usage: t <xyz|fusion> N")
		}
		n, err := strconv.Atoi(args[1])
		if err != nil {
			return nil, false, fmt.Errorf("%q is not a number", args[1])
		}
		return &ClientMessage{Type: MsgToggle, Kind: args[0], Value: n}, false, nil
	case "all", "clear", "reset":
		if len(args) != 1 {
			return nil, false, fmt.Errorf("usage: %s <xyz|fusion>", cmd)
		}
		types := map[string]string{"all": MsgSelectAll, "clear": MsgClear, "reset": MsgReset}
		return &ClientMessage{Type: types[cmd], Kind: args[0]}, false, nil
	default:
		return nil, false, fmt.Errorf("unknown command %q (type help)", cmd)
	}
}
