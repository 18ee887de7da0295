package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// testSecret satisfies the 32 character minimum.
const testSecret = "0123456789abcdef0123456789abcdef"

// writeConfig writes a config file into a temp dir and returns its path.
func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("writing config: %v", err)
	}
	return path
}

func TestLoad_Defaults(t *testing.T) {
	path := writeConfig(t, `
auth:
  token_secret: "`+testSecret+`"
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Service.Name != "ingest-relay" {
		t.Errorf("Service.Name = %q, want %q", cfg.Service.Name, "ingest-relay")
	}
	if cfg.Ingest.Broker.Port != 1883 {
		t.Errorf("Ingest.Broker.Port = %d, want 1883", cfg.Ingest.Broker.Port)
	}
	if cfg.Output.Broker.Port != 2883 {
		t.Errorf("Output.Broker.Port = %d, want 2883", cfg.Output.Broker.Port)
	}
	if cfg.Topics.Ingest != "data/ingest" {
		t.Errorf("Topics.Ingest = %q, want %q", cfg.Topics.Ingest, "data/ingest")
	}
	if cfg.Topics.Output != "data/authenticated" {
		t.Errorf("Topics.Output = %q, want %q", cfg.Topics.Output, "data/authenticated")
	}
	if !cfg.Database.WALMode {
		t.Error("Database.WALMode should default to true")
	}
}

func TestLoad_FileOverridesDefaults(t *testing.T) {
	path := writeConfig(t, `
ingest:
  broker:
    host: broker.example.com
    port: 8883
    tls: true
topics:
  ingest: telemetry/in
auth:
  token_secret: "`+testSecret+`"
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Ingest.Broker.Host != "broker.example.com" {
		t.Errorf("Ingest.Broker.Host = %q", cfg.Ingest.Broker.Host)
	}
	if cfg.Ingest.Broker.Port != 8883 {
		t.Errorf("Ingest.Broker.Port = %d, want 8883", cfg.Ingest.Broker.Port)
	}
	if !cfg.Ingest.Broker.TLS {
		t.Error("Ingest.Broker.TLS should be true")
	}
	if cfg.Topics.Ingest != "telemetry/in" {
		t.Errorf("Topics.Ingest = %q, want %q", cfg.Topics.Ingest, "telemetry/in")
	}
	// Untouched sections keep their defaults.
	if cfg.Output.Broker.Port != 2883 {
		t.Errorf("Output.Broker.Port = %d, want default 2883", cfg.Output.Broker.Port)
	}
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	path := writeConfig(t, `
database:
  path: ./from-file.db
registry:
  url: http://from-file:4242/api/uid
auth:
  token_secret: "`+testSecret+`"
`)

	t.Setenv("RELAY_DATABASE_PATH", "/from/env.db")
	t.Setenv("RELAY_REGISTRY_URL", "http://from-env:4242/api/uid")
	t.Setenv("RELAY_INGEST_PORT", "9001")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Database.Path != "/from/env.db" {
		t.Errorf("Database.Path = %q, want env override", cfg.Database.Path)
	}
	if cfg.Registry.URL != "http://from-env:4242/api/uid" {
		t.Errorf("Registry.URL = %q, want env override", cfg.Registry.URL)
	}
	if cfg.Ingest.Broker.Port != 9001 {
		t.Errorf("Ingest.Broker.Port = %d, want 9001", cfg.Ingest.Broker.Port)
	}
}

func TestLoad_TokenSecretFromEnv(t *testing.T) {
	path := writeConfig(t, "service:\n  name: ingest-relay\n")
	t.Setenv("RELAY_TOKEN_SECRET", testSecret)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Auth.TokenSecret != testSecret {
		t.Error("token secret should come from environment")
	}
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	if err == nil {
		t.Fatal("Load() should fail for missing file")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{
			name:   "valid",
			mutate: func(_ *Config) {},
		},
		{
			name:    "missing token secret",
			mutate:  func(c *Config) { c.Auth.TokenSecret = "" },
			wantErr: "auth.token_secret is required",
		},
		{
			name:    "short token secret",
			mutate:  func(c *Config) { c.Auth.TokenSecret = "short" },
			wantErr: "at least 32 characters",
		},
		{
			name:    "missing ingest topic",
			mutate:  func(c *Config) { c.Topics.Ingest = "" },
			wantErr: "topics.ingest is required",
		},
		{
			name:    "missing output topic",
			mutate:  func(c *Config) { c.Topics.Output = "" },
			wantErr: "topics.output is required",
		},
		{
			name:    "missing registry url",
			mutate:  func(c *Config) { c.Registry.URL = "" },
			wantErr: "registry.url is required",
		},
		{
			name:    "invalid qos",
			mutate:  func(c *Config) { c.Output.QoS = 3 },
			wantErr: "output.qos",
		},
		{
			name:    "invalid api port",
			mutate:  func(c *Config) { c.API.Port = 0 },
			wantErr: "api.port",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := defaultConfig()
			cfg.Auth.TokenSecret = testSecret
			tt.mutate(cfg)

			err := cfg.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("Validate() error = %v, want nil", err)
				}
				return
			}
			if err == nil {
				t.Fatalf("Validate() = nil, want error containing %q", tt.wantErr)
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Validate() error = %v, want containing %q", err, tt.wantErr)
			}
		})
	}
}

func TestDurationHelpers(t *testing.T) {
	cfg := defaultConfig()
	if got := cfg.RegistryTimeout().Seconds(); got != 5 {
		t.Errorf("RegistryTimeout() = %vs, want 5s", got)
	}
	if got := cfg.TokenExpiry().Seconds(); got != 3600 {
		t.Errorf("TokenExpiry() = %vs, want 3600s", got)
	}
}
