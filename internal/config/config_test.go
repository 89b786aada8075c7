package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func validConfig() Config {
	cfg := Config{Corpus: CorpusConfig{Path: "speakers.csv"}}
	cfg.ApplyDefaults()
	return cfg
}

func TestApplyDefaults(t *testing.T) {
	cfg := validConfig()

	if cfg.HTTP.Port != 5000 {
		t.Errorf("port = %d", cfg.HTTP.Port)
	}
	if cfg.Database.Driver != DriverBadger {
		t.Errorf("driver = %q", cfg.Database.Driver)
	}
	if cfg.Storage.KeyPrefix != "speakerdex:" {
		t.Errorf("key prefix = %q", cfg.Storage.KeyPrefix)
	}
	if cfg.Embedding.Model != "text-embedding-3-small" {
		t.Errorf("model = %q", cfg.Embedding.Model)
	}
	if cfg.Embedding.Timeout() != 10*time.Second {
		t.Errorf("timeout = %v", cfg.Embedding.Timeout())
	}
	if cfg.Search.DefaultTopK != 5 || cfg.Search.NameMatchThreshold != 85 {
		t.Errorf("search = %+v", cfg.Search)
	}
	if cfg.Quota.MaxSearches != 100 {
		t.Errorf("max searches = %d", cfg.Quota.MaxSearches)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("defaults must validate: %v", err)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"bad port", func(c *Config) { c.HTTP.Port = 70000 }, "http.port"},
		{"unknown driver", func(c *Config) { c.Database.Driver = "sqlite" }, "database.driver"},
		{"valkey without addrs", func(c *Config) { c.Database.Driver = DriverValkey }, "database.addrs"},
		{"no corpus", func(c *Config) { c.Corpus.Path = "" }, "corpus.path"},
		{"threshold too high", func(c *Config) { c.Search.NameMatchThreshold = 101 }, "name_match_threshold"},
		{"negative dims", func(c *Config) { c.Embedding.Dimensions = -1 }, "embedding.dimensions"},
		{"negative ttl", func(c *Config) { c.Embedding.Cache.TTLSec = -5 }, "ttl_sec"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cfg := validConfig()
			tc.mutate(&cfg)
			err := cfg.Validate()
			if err == nil {
				t.Fatal("expected error")
			}
			if !strings.Contains(err.Error(), tc.wantErr) {
				t.Errorf("error %q does not mention %q", err, tc.wantErr)
			}
		})
	}
}

func TestValidate_RedisWithAddrs(t *testing.T) {
	cfg := validConfig()
	cfg.Database.Driver = DriverRedis
	cfg.Database.Addrs = []string{"localhost:6379"}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestParse_ExpandsEnv(t *testing.T) {
	t.Setenv("SPEAKERDEX_TEST_KEY", "sk-test")
	t.Setenv("SPEAKERDEX_TEST_ORIGIN", "")

	cfg, err := Parse([]byte(`
http:
  port: ${SPEAKERDEX_TEST_PORT:-8081}
cors:
  allowed_origins:
    - https://speakers.example.com
    - ${SPEAKERDEX_TEST_ORIGIN}
embedding:
  api_key: ${SPEAKERDEX_TEST_KEY}
corpus:
  path: data.csv
quota:
  max_searches: 3
`))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if cfg.HTTP.Port != 8081 {
		t.Errorf("port = %d", cfg.HTTP.Port)
	}
	if cfg.Embedding.APIKey != "sk-test" {
		t.Errorf("api key = %q", cfg.Embedding.APIKey)
	}
	if len(cfg.CORS.AllowedOrigins) != 1 {
		t.Errorf("origins = %v, blank entries must be dropped", cfg.CORS.AllowedOrigins)
	}
	if cfg.Quota.MaxSearches != 3 {
		t.Errorf("max searches = %d", cfg.Quota.MaxSearches)
	}
}

func TestParse_Invalid(t *testing.T) {
	if _, err := Parse([]byte("http: [")); err == nil {
		t.Fatal("expected YAML error")
	}
	if _, err := Parse([]byte("http:\n  port: 80\n")); err == nil {
		t.Fatal("expected validation error for missing corpus path")
	}
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.yaml")
	if err := os.WriteFile(path, []byte("corpus:\n  path: x.csv\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	cfg, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile: %v", err)
	}
	if cfg.Corpus.Path != "x.csv" {
		t.Errorf("corpus path = %q", cfg.Corpus.Path)
	}

	if _, err := LoadFile(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestLoad_ShippedConfigs(t *testing.T) {
	t.Setenv("CORPUS_PATH", "speakers.csv")
	t.Setenv("DB_ADDR", "localhost:6379")
	for _, env := range []string{"local", "prod"} {
		if _, err := Load(env); err != nil {
			t.Errorf("Load(%q): %v", env, err)
		}
	}
}

func TestGetEnv(t *testing.T) {
	t.Setenv("ENV", "")
	if GetEnv() != "local" {
		t.Errorf("default env = %q", GetEnv())
	}
	t.Setenv("ENV", "prod")
	if GetEnv() != "prod" {
		t.Errorf("env = %q", GetEnv())
	}
}
