package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
)

func env(values map[string]string) func(string) (string, bool) {
	return func(key string) (string, bool) {
		v, ok := values[key]
		return v, ok
	}
}

func writeFile(t *testing.T, name, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	return path
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := LoadWithEnv("", env(nil))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if diff := cmp.Diff(Default(), cfg); diff != "" {
		t.Fatalf("defaults mismatch (-want +got):\n%s", diff)
	}
}

func TestLoadYAML(t *testing.T) {
	path := writeFile(t, "formembed.yaml", `server:
  addr: ":9000"
  public_url: https://forms.example
  allowed_origins: [https://shop.example]
  max_body_size: 1MiB
  shutdown_grace: 2s
store:
  driver: sqlite
  path: /var/lib/formembed/forms.db
catalog:
  path: forms.yaml
  watch: true
log:
  level: debug
  format: console
`)
	cfg, err := LoadWithEnv(path, env(nil))
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	want := Default()
	want.Server.Addr = ":9000"
	want.Server.PublicURL = "https://forms.example"
	want.Server.AllowedOrigins = []string{"https://shop.example"}
	want.Server.MaxBodySize = 1 << 20
	want.Server.ShutdownGrace = Duration(2 * time.Second)
	want.Store = Store{Driver: DriverSQLite, Path: "/var/lib/formembed/forms.db"}
	want.Catalog = Catalog{Path: "forms.yaml", Watch: true}
	want.Log = Log{Level: "debug", Format: "console"}
	if diff := cmp.Diff(want, cfg); diff != "" {
		t.Fatalf("config mismatch (-want +got):\n%s", diff)
	}
}

func TestLoadTOML(t *testing.T) {
	path := writeFile(t, "formembed.toml", `[server]
addr = "127.0.0.1:7070"
max_body_size = "128 KB"
submit_rate = 2.0

[theme]
name = "clientt"
variant = "dark"
`)
	cfg, err := LoadWithEnv(path, env(nil))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Server.Addr != "127.0.0.1:7070" || cfg.Server.MaxBodySize != 128000 || cfg.Server.SubmitRate != 2 {
		t.Fatalf("unexpected server config %+v", cfg.Server)
	}
	if cfg.Theme != (Theme{Name: "clientt", Variant: "dark"}) {
		t.Fatalf("unexpected theme %+v", cfg.Theme)
	}
}

func TestLoadRejectsUnknownKeysAndFormats(t *testing.T) {
	if _, err := LoadWithEnv(writeFile(t, "c.yaml", "server:\n  port: 1\n"), env(nil)); err == nil {
		t.Fatalf("expected unknown yaml key error")
	}
	if _, err := LoadWithEnv(writeFile(t, "c.toml", "[server]\nport = 1\n"), env(nil)); err == nil {
		t.Fatalf("expected unknown toml key error")
	}
	if _, err := LoadWithEnv(writeFile(t, "c.json", "{}"), env(nil)); err == nil {
		t.Fatalf("expected unsupported format error")
	}
	if _, err := LoadWithEnv(filepath.Join(t.TempDir(), "missing.yaml"), env(nil)); err == nil {
		t.Fatalf("expected missing file error")
	}
}

func TestEnvOverrides(t *testing.T) {
	cfg, err := LoadWithEnv("", env(map[string]string{
		"FORMEMBED_ADDR":            ":1234",
		"FORMEMBED_ALLOWED_ORIGINS": "https://a.example, https://b.example",
		"FORMEMBED_MAX_BODY_SIZE":   "32KiB",
		"FORMEMBED_STORE_DRIVER":    "sqlite",
		"FORMEMBED_STORE_PATH":      "forms.db",
		"FORMEMBED_CATALOG":         "catalog.yaml",
		"FORMEMBED_CATALOG_WATCH":   "true",
		"FORMEMBED_LOG_LEVEL":       "warn",
	}))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Server.Addr != ":1234" || cfg.Server.MaxBodySize != 32*1024 {
		t.Fatalf("unexpected server %+v", cfg.Server)
	}
	if diff := cmp.Diff([]string{"https://a.example", "https://b.example"}, cfg.Server.AllowedOrigins); diff != "" {
		t.Fatalf("origins mismatch (-want +got):\n%s", diff)
	}
	if cfg.Store.Driver != DriverSQLite || cfg.Store.Path != "forms.db" || !cfg.Catalog.Watch || cfg.Log.Level != "warn" {
		t.Fatalf("unexpected config %+v", cfg)
	}
}

func TestValidateCollectsEveryProblem(t *testing.T) {
	_, err := LoadWithEnv("", env(map[string]string{
		"FORMEMBED_ADDR":          "",
		"FORMEMBED_STORE_DRIVER":  "mongo",
		"FORMEMBED_CATALOG_WATCH": "true",
		"FORMEMBED_LOG_FORMAT":    "xml",
		"FORMEMBED_PUBLIC_URL":    "forms.example",
	}))
	if err == nil {
		t.Fatalf("expected validation error")
	}
	for _, fragment := range []string{"server.addr", "store.driver", "catalog.watch", "log.format", "public_url"} {
		if !strings.Contains(err.Error(), fragment) {
			t.Errorf("error %q does not mention %s", err, fragment)
		}
	}
}

func TestEnvParseErrors(t *testing.T) {
	_, err := LoadWithEnv("", env(map[string]string{
		"FORMEMBED_MAX_BODY_SIZE": "lots",
		"FORMEMBED_CATALOG_PRUNE": "maybe",
	}))
	if err == nil || !strings.Contains(err.Error(), "MAX_BODY_SIZE") || !strings.Contains(err.Error(), "CATALOG_PRUNE") {
		t.Fatalf("expected both parse errors, got %v", err)
	}
}
