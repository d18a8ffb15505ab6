package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}

	if cfg.EntitiesLimit != 100 {
		t.Errorf("entities limit = %d, want 100", cfg.EntitiesLimit)
	}
	if cfg.Web.ListenAddr != ":8080" {
		t.Errorf("listen addr = %q", cfg.Web.ListenAddr)
	}
	if cfg.HIBP.Timeout != 30*time.Second {
		t.Errorf("timeout = %v", cfg.HIBP.Timeout)
	}
	if cfg.HIBP.TestEmail != "user@example.com" {
		t.Errorf("test email = %q", cfg.HIBP.TestEmail)
	}
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("CTR_ENTITIES_LIMIT", "25")
	t.Setenv("SECRET_KEY", "shh")
	t.Setenv("HIBP_TIMEOUT", "5s")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}

	if cfg.EntitiesLimit != 25 {
		t.Errorf("entities limit = %d, want 25", cfg.EntitiesLimit)
	}
	if cfg.Auth.SecretKey != "shh" {
		t.Errorf("secret key = %q", cfg.Auth.SecretKey)
	}
	if cfg.HIBP.Timeout != 5*time.Second {
		t.Errorf("timeout = %v", cfg.HIBP.Timeout)
	}
}

func TestLoadYAMLFileUnderEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	raw := []byte("web:\n  listen_addr: \":9090\"\nentities_limit: 50\n")
	if err := os.WriteFile(path, raw, 0o600); err != nil {
		t.Fatal(err)
	}

	t.Setenv("CONFIG_FILE", path)
	t.Setenv("CTR_ENTITIES_LIMIT", "75")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}

	if cfg.Web.ListenAddr != ":9090" {
		t.Errorf("listen addr = %q, want the file value", cfg.Web.ListenAddr)
	}
	if cfg.EntitiesLimit != 75 {
		t.Errorf("entities limit = %d, env must override the file", cfg.EntitiesLimit)
	}
}

func TestLoadRejectsNonPositiveEntitiesLimit(t *testing.T) {
	for _, limit := range []string{"0", "-5"} {
		t.Setenv("CTR_ENTITIES_LIMIT", limit)
		if _, err := Load(); err == nil {
			t.Errorf("Load() with limit %s must fail fast", limit)
		}
	}
}
