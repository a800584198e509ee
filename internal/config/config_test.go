package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

// clearEnv blanks every variable Load reads so the host environment cannot
// leak into a test.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{"PORT", "LOG_LEVEL", "CACHE_TTL", "SNAPSHOT_DIR", "UPSTREAM_TIMEOUT", "LISTING_URL", "TICKET_OPEN_URL"} {
		t.Setenv(k, "")
	}
	t.Chdir(t.TempDir())
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)

	c, err := Load("")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if c.Server.Port != "4000" {
		t.Errorf("port = %q, want 4000", c.Server.Port)
	}
	if c.Cache.TTL != 5*time.Minute {
		t.Errorf("ttl = %s, want 5m", c.Cache.TTL)
	}
	if c.Upstream.Timeout != 10*time.Second {
		t.Errorf("timeout = %s, want 10s", c.Upstream.Timeout)
	}
	if c.Addr() != ":4000" {
		t.Errorf("Addr() = %q", c.Addr())
	}
}

func TestLoad_YAMLThenEnv(t *testing.T) {
	clearEnv(t)

	path := filepath.Join(t.TempDir(), "config.yaml")
	yml := `
server:
  port: "5000"
cache:
  ttl: 2m
  snapshot_dir: /tmp/snap
upstream:
  timeout: 3s
log_level: debug
`
	if err := os.WriteFile(path, []byte(yml), 0o644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("PORT", "6000")
	t.Setenv("CACHE_TTL", "30")

	c, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	tests := []struct {
		name string
		got  any
		want any
	}{
		{"env port wins", c.Server.Port, "6000"},
		{"env ttl in seconds", c.Cache.TTL, 30 * time.Second},
		{"yaml snapshot dir", c.Cache.SnapshotDir, "/tmp/snap"},
		{"yaml timeout", c.Upstream.Timeout, 3 * time.Second},
		{"yaml log level", c.LogLevel, "debug"},
		{"default write timeout kept", c.Server.WriteTimeout, 30 * time.Second},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.got != tt.want {
				t.Errorf("got %v, want %v", tt.got, tt.want)
			}
		})
	}
}

func TestLoad_DotEnv(t *testing.T) {
	clearEnv(t)
	os.Unsetenv("PORT")

	if err := os.WriteFile(".env", []byte("PORT=7000\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	c, err := Load("")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if c.Server.Port != "7000" {
		t.Errorf("port = %q, want 7000 from .env", c.Server.Port)
	}
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{"non-numeric port", map[string]string{"PORT": "http"}},
		{"unknown log level", map[string]string{"LOG_LEVEL": "loud"}},
		{"negative ttl", map[string]string{"CACHE_TTL": "-1m"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			if _, err := Load(""); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestLoad_MissingFile(t *testing.T) {
	clearEnv(t)
	if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Error("expected error for missing config file")
	}
}

func TestGetDuration_Malformed(t *testing.T) {
	t.Setenv("CACHE_TTL", "soon")
	if got := getDuration("CACHE_TTL", time.Minute); got != time.Minute {
		t.Errorf("getDuration() = %s, want fallback 1m", got)
	}
}
