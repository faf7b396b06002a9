package config

import (
	"os"
	"testing"
)

func TestLoadOverrides(t *testing.T) {
	t.Setenv("EDLOOKUP_PORT", "9090")
	t.Setenv("EDLOOKUP_STORE", "sqlite")
	t.Setenv("EDLOOKUP_STORE_PATH", "/tmp/ed.db")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Port != 9090 || cfg.Store != "sqlite" || cfg.StorePath != "/tmp/ed.db" {
		t.Errorf("Unexpected config: %+v", cfg)
	}
	if _, set := os.LookupEnv("EDLOOKUP_TCP_PORT"); !set && cfg.TCPPort != "9000" {
		t.Errorf("Expected default TCP port 9000, got %q", cfg.TCPPort)
	}
}

func TestLoadRejectsBadPort(t *testing.T) {
	t.Setenv("EDLOOKUP_PORT", "eighty")
	if _, err := Load(); err == nil {
		t.Error("Expected a non-numeric port to be rejected")
	}
}

func TestParsedBaseURL(t *testing.T) {
	cfg := Config{BaseURL: "https://ed.example/lookup?lang=en"}
	u, err := cfg.ParsedBaseURL()
	if err != nil {
		t.Fatalf("ParsedBaseURL: %v", err)
	}
	if u.Host != "ed.example" || u.Query().Get("lang") != "en" {
		t.Errorf("Unexpected URL %v", u)
	}

	cfg.BaseURL = "http://[::1"
	if _, err := cfg.ParsedBaseURL(); err == nil {
		t.Error("Expected a malformed URL to be rejected")
	}
}

func TestStoreFileFollowsKind(t *testing.T) {
	t.Setenv("EDLOOKUP_STORE", "sqlite")
	t.Setenv("EDLOOKUP_STORE_PATH", "")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got := cfg.StoreFile(); got != "edlookup.db" {
		t.Errorf("Expected edlookup.db for sqlite, got %q", got)
	}

	tests := []struct {
		cfg  Config
		want string
	}{
		{Config{Store: "yaml"}, "edlookup.yaml"},
		{Config{Store: "memory"}, ""},
		{Config{Store: "sqlite", StorePath: "/tmp/ed.db"}, "/tmp/ed.db"},
	}
	for _, tt := range tests {
		if got := tt.cfg.StoreFile(); got != tt.want {
			t.Errorf("StoreFile(%+v) = %q, want %q", tt.cfg, got, tt.want)
		}
	}
}
