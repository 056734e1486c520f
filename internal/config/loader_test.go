package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoaderLoad(t *testing.T) {
	path := writeConfig(t, "config.toml", `seed_domain = "seed.loader.org"`)

	l := NewLoader(path)
	defer l.Close()

	cfg, err := l.Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.SeedDomain != "seed.loader.org" {
		t.Errorf("unexpected seed domain %q", cfg.SeedDomain)
	}
	if l.Config() != cfg {
		t.Error("Config() should return the loaded configuration")
	}
}

func TestLoaderWatchReload(t *testing.T) {
	path := writeConfig(t, "config.toml", `seed_domain = "seed.before.org"`)

	l := NewLoader(path)
	defer l.Close()

	if _, err := l.Load(); err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	reloaded := make(chan *Config, 1)
	l.OnChange(func(cfg *Config) {
		select {
		case reloaded <- cfg:
		default:
		}
	})

	if err := l.Watch(); err != nil {
		t.Fatalf("Watch failed: %v", err)
	}

	if err := os.WriteFile(path, []byte(`seed_domain = "seed.after.org"`), 0600); err != nil {
		t.Fatalf("rewrite config: %v", err)
	}

	select {
	case cfg := <-reloaded:
		if cfg.SeedDomain != "seed.after.org" {
			t.Errorf("expected reloaded value, got %q", cfg.SeedDomain)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("config reload was not observed")
	}
}

func TestLoaderReloadKeepsOldConfigOnError(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte(`seed_domain = "seed.good.org"`), 0600); err != nil {
		t.Fatalf("write config: %v", err)
	}

	l := NewLoader(path)
	defer l.Close()
	if _, err := l.Load(); err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	// An invalid rewrite must not replace the held configuration.
	l.reload()
	if err := os.WriteFile(path, []byte(`timeout_seconds = -1`), 0600); err != nil {
		t.Fatalf("rewrite config: %v", err)
	}
	l.reload()

	if got := l.Config().SeedDomain; got != "seed.good.org" {
		t.Errorf("bad reload replaced config: %q", got)
	}
}
