package config

import (
	"os"
	"path/filepath"
	"testing"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "biolens.toml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadDefaultsWhenFileMissing(t *testing.T) {
	t.Chdir(t.TempDir())

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Layout.Mode != "force" || cfg.Server.Addr != ":8080" || cfg.Cache.Backend != "file" {
		t.Errorf("defaults not applied: %+v", cfg)
	}
}

func TestLoadExplicitMissingFileFails(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.toml")); err == nil {
		t.Error("explicit missing config file should fail")
	}
}

func TestLoadFileOverridesDefaults(t *testing.T) {
	path := writeConfig(t, `
[source]
url = "https://biolens.example.org"

[layout]
mode = "radial"
width = 1600.0

[cache]
backend = "redis"

[cache.redis]
addr = "redis.internal:6379"
db = 2
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Source.URL != "https://biolens.example.org" {
		t.Errorf("source url = %q", cfg.Source.URL)
	}
	if cfg.Layout.Mode != "radial" || cfg.Layout.Width != 1600 {
		t.Errorf("layout = %+v", cfg.Layout)
	}
	if cfg.Layout.Height != 800 {
		t.Errorf("unset height = %v, want default 800", cfg.Layout.Height)
	}
	if cfg.Cache.Backend != "redis" || cfg.Cache.Redis.Addr != "redis.internal:6379" || cfg.Cache.Redis.DB != 2 {
		t.Errorf("cache = %+v", cfg.Cache)
	}
}

func TestEnvOverridesFile(t *testing.T) {
	path := writeConfig(t, `
[server]
addr = ":9000"
`)
	t.Setenv("BIOLENS_SERVER_ADDR", ":7777")
	t.Setenv("BIOLENS_STORE_BACKEND", "mongo")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Server.Addr != ":7777" {
		t.Errorf("server addr = %q, want env override :7777", cfg.Server.Addr)
	}
	if cfg.Store.Backend != "mongo" {
		t.Errorf("store backend = %q, want env override mongo", cfg.Store.Backend)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{name: "Defaults", mutate: func(c *Config) {}},
		{name: "NoneCache", mutate: func(c *Config) { c.Cache.Backend = "none" }},
		{name: "BadCache", mutate: func(c *Config) { c.Cache.Backend = "memcached" }, wantErr: true},
		{name: "BadStore", mutate: func(c *Config) { c.Store.Backend = "sqlite" }, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(&cfg)
			if err := cfg.Validate(); (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
