package main

import (
	"context"
	"flag"
	"fmt"
	"net/url"
	"os"
	"strings"

	"github.com/peterkuimelis/edlookup/internal/config"
	"github.com/peterkuimelis/edlookup/internal/lookup"
	edlnet "github.com/peterkuimelis/edlookup/internal/net"
	"github.com/peterkuimelis/edlookup/internal/selection"
	"github.com/peterkuimelis/edlookup/internal/storage"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	cmd := os.Args[1]
	switch cmd {
	case "host":
		runHost(cfg, os.Args[2:])
	case "join":
		runJoin(cfg, os.Args[2:])
	case "table":
		runTable(os.Args[2:])
	default:
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println("Usage:")
	fmt.Println("  edlookup host [--port P] [--store KIND] [--store-path FILE] [--layout FILE]")
	fmt.Println("  edlookup join [--addr ADDR] [--link URL] [--client NAME]")
	fmt.Println("  edlookup table --xyz 2,3,4 --fusion 1,2 [--html]")
	fmt.Println()
	fmt.Println("Commands:")
	fmt.Println("  host    Serve selection sessions over TCP and edit your own in this terminal")
	fmt.Println("  join    Connect to a host, optionally opening a shared link")
	fmt.Println("  table   Print the lookup table for the given ranks and levels")
}

func runHost(cfg config.Config, args []string) {
	fs := flag.NewFlagSet("host", flag.ExitOnError)
	port := fs.String("port", cfg.TCPPort, "TCP port to listen on")
	storeKind := fs.String("store", cfg.Store, "selection store: memory, yaml or sqlite")
	storePath := fs.String("store-path", cfg.StorePath, "path to the selection store file (default edlookup.yaml or edlookup.db, by store)")
	layoutFile := fs.String("layout", cfg.Layout, "path to a layout YAML file")
	baseURL := fs.String("base-url", cfg.BaseURL, "page that share links point at")
	fs.Parse(args)
	cfg.BaseURL = *baseURL

	layout, err := selection.LoadLayout(*layoutFile)
	if err != nil {
		fatal(err)
	}
	base, err := cfg.ParsedBaseURL()
	if err != nil {
		fatal(err)
	}
	store, closeStore, err := storage.Open(*storeKind, config.Config{Store: *storeKind, StorePath: *storePath}.StoreFile())
	if err != nil {
		fatal(err)
	}
	defer closeStore()

	srv := &edlnet.Server{
		Port: *port,
		Session: edlnet.SessionConfig{
			Store:   store,
			Layout:  layout,
			BaseURL: base,
		},
		Local: true,
	}
	if err := srv.Run(context.Background()); err != nil {
		fatal(err)
	}
}

func runJoin(cfg config.Config, args []string) {
	fs := flag.NewFlagSet("join", flag.ExitOnError)
	addr := fs.String("addr", "localhost:"+cfg.TCPPort, "server address to connect to")
	link := fs.String("link", "", "shared link (or its query string) to open")
	client := fs.String("client", defaultClientID(), "name the host saves your selection under")
	fs.Parse(args)

	query, err := linkQuery(*link)
	if err != nil {
		fatal(err)
	}
	if err := edlnet.Connect(context.Background(), *addr, query, *client); err != nil {
		fatal(err)
	}
}

func runTable(args []string) {
	fs := flag.NewFlagSet("table", flag.ExitOnError)
	xyz := fs.String("xyz", "", "comma-separated XYZ ranks")
	fusion := fs.String("fusion", "", "comma-separated Fusion levels")
	html := fs.Bool("html", false, "print the HTML table body instead of text")
	fs.Parse(args)

	q := url.Values{}
	q.Set(selection.ParamXYZ, *xyz)
	q.Set(selection.ParamFusion, *fusion)
	snap, err := selection.DecodeQuery(q)
	if err != nil {
		fatal(err)
	}
	snap = snap.Normalized()

	g := lookup.Build(snap.XYZ, snap.Fusion)
	if *html {
		err = lookup.WriteHTML(os.Stdout, g)
	} else {
		err = lookup.WriteText(os.Stdout, g)
	}
	if err != nil {
		fatal(err)
	}
	c := selection.CapacityOf(snap)
	fmt.Printf("\nExtra Deck slots: %d/%d\n", c.Used, c.Limit)
}

// linkQuery extracts the query string from a shared link. A bare query
// string is returned as is.
func linkQuery(link string) (string, error) {
	link = strings.TrimSpace(link)
	if !strings.Contains(link, "://") && !strings.Contains(link, "?") {
		return link, nil
	}
	u, err := url.Parse(link)
	if err != nil {
		return "", fmt.Errorf("parse link: %w", err)
	}
	return u.RawQuery, nil
}

func defaultClientID() string {
	if name := os.Getenv("USER"); name != "" {
		return name
	}
	return "guest"
}

func fatal(err error) {
	fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	os.Exit(1)
}
