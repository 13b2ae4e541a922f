package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(body), 0o644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}
	return dir
}

func TestReadConfig_FileOverridesDefaults(t *testing.T) {
	dir := writeConfig(t, `
database:
  driver: sqlite
  path: /tmp/assessments.db
predictor:
  base_url: http://predictor:8000
  timeout_seconds: 3
server:
  port: 9090
`)

	cfg, err := ReadConfig(dir)
	if err != nil {
		t.Fatalf("ReadConfig() error = %v", err)
	}

	if cfg.Database.Path != "/tmp/assessments.db" {
		t.Errorf("database.path = %q", cfg.Database.Path)
	}
	if cfg.Predictor.BaseURL != "http://predictor:8000" {
		t.Errorf("predictor.base_url = %q", cfg.Predictor.BaseURL)
	}
	if cfg.Predictor.TimeoutSeconds != 3 {
		t.Errorf("predictor.timeout_seconds = %d, want 3", cfg.Predictor.TimeoutSeconds)
	}
	if cfg.Server.Port != 9090 {
		t.Errorf("server.port = %d, want 9090", cfg.Server.Port)
	}
	// untouched keys keep their defaults
	if cfg.Predictor.Path != "/api/predict" {
		t.Errorf("predictor.path = %q, want default", cfg.Predictor.Path)
	}
	if cfg.Identity.SubjectHeader != "X-Subject-Id" {
		t.Errorf("identity.subject_header = %q, want default", cfg.Identity.SubjectHeader)
	}
}

func TestReadConfig_MissingFileUsesDefaults(t *testing.T) {
	cfg, err := ReadConfig(t.TempDir())
	if err != nil {
		t.Fatalf("ReadConfig() error = %v", err)
	}
	if cfg.Database.Driver != "sqlite" {
		t.Errorf("database.driver = %q, want sqlite", cfg.Database.Driver)
	}
	if cfg.Drafts.Backend != "memory" {
		t.Errorf("drafts.backend = %q, want memory", cfg.Drafts.Backend)
	}
}

func TestReadConfig_EnvOverride(t *testing.T) {
	t.Setenv("HEALTHALYZE_PREDICTOR_BASE_URL", "http://from-env:8000")
	t.Setenv("HEALTHALYZE_SERVER_PORT", "7070")

	cfg, err := ReadConfig(t.TempDir())
	if err != nil {
		t.Fatalf("ReadConfig() error = %v", err)
	}
	if cfg.Predictor.BaseURL != "http://from-env:8000" {
		t.Errorf("predictor.base_url = %q", cfg.Predictor.BaseURL)
	}
	if cfg.Server.Port != 7070 {
		t.Errorf("server.port = %d, want 7070", cfg.Server.Port)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr string
	}{
		{
			name:   "defaults are valid",
			mutate: func(c *Config) {},
		},
		{
			name:    "unknown driver",
			mutate:  func(c *Config) { c.Database.Driver = "mysql" },
			wantErr: "database.driver",
		},
		{
			name:    "postgres without host",
			mutate:  func(c *Config) { c.Database.Driver = "postgres"; c.Database.Host = "" },
			wantErr: "database.host",
		},
		{
			name:    "relative predictor url",
			mutate:  func(c *Config) { c.Predictor.BaseURL = "predictor:8000/api" },
			wantErr: "predictor.base_url",
		},
		{
			name:    "redis drafts without redis",
			mutate:  func(c *Config) { c.Drafts.Backend = "redis" },
			wantErr: "redis.addr",
		},
		{
			name:    "rate limit without redis",
			mutate:  func(c *Config) { c.Server.RateLimit.Enabled = true },
			wantErr: "rate_limit",
		},
		{
			name:    "empty subject header",
			mutate:  func(c *Config) { c.Identity.SubjectHeader = "" },
			wantErr: "subject_header",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("Validate() error = %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Fatalf("Validate() error = %v, want mention of %q", err, tt.wantErr)
			}
		})
	}
}
