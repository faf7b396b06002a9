package main

import (
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"

	"github.com/peterkuimelis/edlookup/internal/config"
	"github.com/peterkuimelis/edlookup/internal/selection"
	"github.com/peterkuimelis/edlookup/internal/storage"
	"github.com/peterkuimelis/edlookup/internal/web"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	port := flag.Int("port", cfg.Port, "HTTP port to listen on")
	storeKind := flag.String("store", cfg.Store, "selection store: memory, yaml or sqlite")
	storePath := flag.String("store-path", cfg.StorePath, "path to the selection store file (default edlookup.yaml or edlookup.db, by store)")
	layoutFile := flag.String("layout", cfg.Layout, "path to a layout YAML file (default: ranks and levels 1-13)")
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

	srv := web.NewServer(web.Options{
		Layout:  layout,
		Store:   store,
		BaseURL: base,
		Logger:  slog.New(slog.NewTextHandler(os.Stderr, nil)),
	})

	addr := fmt.Sprintf(":%d", *port)
	log.Printf("edlookup web UI listening on http://localhost:%d", *port)
	if err := srv.ListenAndServe(addr); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
