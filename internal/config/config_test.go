package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefault(t *testing.T) {
	cfg := Default()
	if cfg.Server.Port != 8080 {
		t.Errorf("port = %d, want 8080", cfg.Server.Port)
	}
	if cfg.Model.Provider != "openai:gpt-4o" {
		t.Errorf("provider = %q", cfg.Model.Provider)
	}
	if cfg.Model.Temperature != 0.1 {
		t.Errorf("temperature = %v", cfg.Model.Temperature)
	}
}

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.toml"))
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Server.Port != 8080 {
		t.Errorf("port = %d, want default", cfg.Server.Port)
	}
}

func TestLoad_TOMLFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "complilint.toml")
	content := `
[server]
host = "127.0.0.1"
port = 9090
jwt_secret = "s3cret"

[model]
provider = "anthropic:claude-sonnet-4-5"
temperature = 0.3
concurrency = 2

[redis]
url = "redis://localhost:6379/1"

[data]
rules_file = "/etc/complilint/gxp_rules.json"
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Server.Host != "127.0.0.1" || cfg.Server.Port != 9090 {
		t.Errorf("server = %+v", cfg.Server)
	}
	if cfg.Model.Provider != "anthropic:claude-sonnet-4-5" || cfg.Model.Concurrency != 2 {
		t.Errorf("model = %+v", cfg.Model)
	}
	if cfg.Redis.URL != "redis://localhost:6379/1" {
		t.Errorf("redis = %+v", cfg.Redis)
	}
	if cfg.Data.RulesFile != "/etc/complilint/gxp_rules.json" {
		t.Errorf("data = %+v", cfg.Data)
	}
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "complilint.toml")
	if err := os.WriteFile(path, []byte("[server]\nport = 9090\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("COMPLILINT_PORT", "7070")
	t.Setenv("COMPLILINT_MODEL", "openai:gpt-4o-mini")

	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Server.Port != 7070 {
		t.Errorf("port = %d, env should override file", cfg.Server.Port)
	}
	if cfg.Model.Provider != "openai:gpt-4o-mini" {
		t.Errorf("provider = %q", cfg.Model.Provider)
	}
}

func TestLoad_InvalidTOML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.toml")
	if err := os.WriteFile(path, []byte("[server\nport="), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); err == nil {
		t.Error("expected error for malformed TOML")
	}
}

func TestLoad_EmptyEnvDoesNotOverride(t *testing.T) {
	t.Setenv("COMPLILINT_HOST", "")
	cfg, err := Load("")
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Server.Host != "0.0.0.0" {
		t.Errorf("host = %q, empty env must not override default", cfg.Server.Host)
	}
}
