package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadFromMissingFileReturnsEmpty(t *testing.T) {
	cfg, err := LoadFrom(filepath.Join(t.TempDir(), "does-not-exist.yaml"))
	if err != nil {
		t.Fatalf("LoadFrom: %v", err)
	}
	if cfg.SocketDir != "" {
		t.Fatalf("expected empty config, got %+v", cfg)
	}
}

func TestLoadFromParsesYAML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "gomux.yaml")
	content := "socket_dir: /tmp/custom-sockets\ndefault_key_table: prefix\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	cfg, err := LoadFrom(path)
	if err != nil {
		t.Fatalf("LoadFrom: %v", err)
	}
	if cfg.SocketDir != "/tmp/custom-sockets" {
		t.Fatalf("unexpected socket dir: %q", cfg.SocketDir)
	}
	if cfg.DefaultKeyTable != "prefix" {
		t.Fatalf("unexpected default key table: %q", cfg.DefaultKeyTable)
	}
}

func TestResolveSocketDirFallsBackToDefault(t *testing.T) {
	var cfg *Config
	if got := cfg.ResolveSocketDir("/default/sockets"); got != "/default/sockets" {
		t.Fatalf("expected default, got %q", got)
	}
	cfg = &Config{SocketDir: "/explicit"}
	if got := cfg.ResolveSocketDir("/default/sockets"); got != "/explicit" {
		t.Fatalf("expected explicit override, got %q", got)
	}
}

func TestParseOverrides(t *testing.T) {
	pairs, err := ParseOverrides([]string{"status=off", "prefix=C-a"})
	if err != nil {
		t.Fatalf("ParseOverrides: %v", err)
	}
	if len(pairs) != 2 || pairs[0][0] != "status" || pairs[0][1] != "off" {
		t.Fatalf("unexpected pairs: %v", pairs)
	}
}

func TestParseOverridesRejectsMissingEquals(t *testing.T) {
	if _, err := ParseOverrides([]string{"nodash"}); err == nil {
		t.Fatal("expected error for override missing '='")
	}
}
