package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/mark3labs/mcp-go/server"
	"github.com/peterkuimelis/edlookup/internal/config"
	edlmcp "github.com/peterkuimelis/edlookup/internal/mcp"
	"github.com/peterkuimelis/edlookup/internal/selection"
	"github.com/peterkuimelis/edlookup/internal/storage"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	storeKind := flag.String("store", cfg.Store, "selection store: memory, yaml or sqlite")
	storePath := flag.String("store-path", cfg.StorePath, "path to the selection store file (default edlookup.yaml or edlookup.db, by store)")
	layoutFile := flag.String("layout", cfg.Layout, "path to a layout YAML file")
	baseURL := flag.String("base-url", cfg.BaseURL, "page that share links point at")
	flag.Parse()
	cfg.BaseURL = *baseURL

	layout, err := selection.LoadLayout(*layoutFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	base, err := cfg.ParsedBaseURL()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	store, closeStore, err := storage.Open(*storeKind, config.Config{Store: *storeKind, StorePath: *storePath}.StoreFile())
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	defer closeStore()

	edlmcp.SetLayout(layout)
	edlmcp.SetStore(store)
	edlmcp.SetBaseURL(base)

	s := server.NewMCPServer("edlookup", "1.0.0")
	edlmcp.RegisterTools(s)

	if err := server.ServeStdio(s); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
