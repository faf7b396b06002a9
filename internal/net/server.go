package net

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"net"
	"os"
	"sync"

	edlog "github.com/peterkuimelis/edlookup/internal/log"
)

// Server hosts selection sessions for TCP clients.
type Server struct {
	Port    string
	Session SessionConfig
	// Local, when true, also runs a terminal client for the host over a pipe.
	Local bool

	// Listener, if set, is used instead of listening on Port.
	Listener net.Listener
	// In and Out back the local REPL; they default to os.Stdin and os.Stdout.
	In  io.Reader
	Out io.Writer
}

// Run listens on Port and serves each accepted connection in its own
// session. It returns once every session has ended, either when ctx is done
// or, with Local set, when the host's REPL ends.
func (s *Server) Run(ctx context.Context) error {
	ln := s.Listener
	if ln == nil {
		var err error
		ln, err = net.Listen("tcp", ":"+s.Port)
		if err != nil {
			return fmt.Errorf("listen: %w", err)
		}
	}
	defer ln.Close()

	fmt.Fprintf(os.Stderr, "Serving Extra Deck lookup on %s...\n", ln.Addr())

	// Sessions are cancelled first, then awaited.
	var wg sync.WaitGroup
	defer wg.Wait()
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	go func() {
		<-ctx.Done()
		ln.Close()
	}()

	errCh := make(chan error, 1)
	if s.Local {
		// Create a pipe for the host's local connection
		hostConn, hostServerConn := net.Pipe()
		wg.Add(1)
		go func() {
			defer wg.Done()
			s.serve(ctx, hostServerConn)
		}()
		go func() {
			defer hostConn.Close()
			client := &Client{conn: hostConn, clipboard: systemClipboard{}, in: s.In, out: s.Out}
			errCh <- client.RunREPL(ctx, "", "host")
			cancel()
		}()
	}

	for {
		conn, err := ln.Accept()
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, net.ErrClosed) {
				// errCh is filled before the REPL cancels, so an empty
				// channel means ctx was cancelled from outside.
				select {
				case err := <-errCh:
					return err
				default:
					return nil
				}
			}
			log.Printf("accept: %v", err)
			continue
		}
		log.Printf("Client connected from %s", conn.RemoteAddr())
		wg.Add(1)
		go func() {
			defer wg.Done()
			s.serve(ctx, conn)
		}()
	}
}

// serve runs one session. The connection is closed when ctx is done, which
// unblocks a session waiting on the client.
func (s *Server) serve(ctx context.Context, conn net.Conn) {
	defer conn.Close()
	stop := context.AfterFunc(ctx, func() { conn.Close() })
	defer stop()

	cfg := s.Session
	if cfg.Logger == nil {
		cfg.Logger = edlog.NewLineLogger(os.Stderr)
	}
	if err := NewSession(NewStreamConn(conn), cfg).Run(ctx); err != nil && ctx.Err() == nil {
		log.Printf("session %s: %v", conn.RemoteAddr(), err)
	}
}
