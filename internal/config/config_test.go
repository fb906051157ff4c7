package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

const (
	testAccessSecret  = "access-secret-0123456789abcdef0123"
	testRefreshSecret = "refresh-secret-0123456789abcdef012"
)

func setSecrets(t *testing.T) {
	t.Helper()
	t.Setenv("JWT_ACCESS_SECRET", testAccessSecret)
	t.Setenv("JWT_REFRESH_SECRET", testRefreshSecret)
}

func TestLoad_DefaultsFromEnvOnly(t *testing.T) {
	setSecrets(t)

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load err: %v", err)
	}

	if cfg.App.Env != "dev" || cfg.Server.Addr != ":8080" {
		t.Fatalf("defaults not applied: env=%q addr=%q", cfg.App.Env, cfg.Server.Addr)
	}
	if cfg.Cache.Driver != "memory" {
		t.Fatalf("cache driver default = %q, want memory", cfg.Cache.Driver)
	}
	if cfg.AccessTTL() != 15*time.Minute {
		t.Fatalf("AccessTTL = %v, want 15m", cfg.AccessTTL())
	}
	if cfg.RefreshTTL() != 168*time.Hour {
		t.Fatalf("RefreshTTL = %v, want 168h", cfg.RefreshTTL())
	}
	if cfg.VerifyTTL() != 48*time.Hour || cfg.ResetTTL() != time.Hour {
		t.Fatalf("verify/reset TTLs = %v/%v", cfg.VerifyTTL(), cfg.ResetTTL())
	}
	if cfg.Rate.Login.Limit != 10 || cfg.LoginWindow() != time.Minute {
		t.Fatalf("login rate defaults = %d/%v", cfg.Rate.Login.Limit, cfg.LoginWindow())
	}
	if cfg.IsProd() {
		t.Fatalf("IsProd should be false in dev")
	}
}

func TestLoad_YAMLThenEnvOverride(t *testing.T) {
	setSecrets(t)

	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	yml := `
app:
  env: staging
server:
  addr: ":9000"
jwt:
  access_ttl: 5m
`
	if err := os.WriteFile(path, []byte(yml), 0o600); err != nil {
		t.Fatalf("write yaml: %v", err)
	}

	// El env pisa al YAML.
	t.Setenv("SERVER_ADDR", ":9100")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load err: %v", err)
	}
	if cfg.App.Env != "staging" {
		t.Fatalf("App.Env = %q, want staging (from yaml)", cfg.App.Env)
	}
	if cfg.Server.Addr != ":9100" {
		t.Fatalf("Server.Addr = %q, want :9100 (env over yaml)", cfg.Server.Addr)
	}
	if cfg.AccessTTL() != 5*time.Minute {
		t.Fatalf("AccessTTL = %v, want 5m (from yaml)", cfg.AccessTTL())
	}
}

func TestLoad_SecretValidation(t *testing.T) {
	t.Setenv("JWT_ACCESS_SECRET", "short")
	t.Setenv("JWT_REFRESH_SECRET", testRefreshSecret)
	if _, err := Load(""); err == nil {
		t.Fatalf("short access secret should fail validation")
	}

	t.Setenv("JWT_ACCESS_SECRET", testAccessSecret)
	t.Setenv("JWT_REFRESH_SECRET", testAccessSecret)
	if _, err := Load(""); err == nil {
		t.Fatalf("equal secrets should fail validation")
	}
}

func TestLoad_BadDuration(t *testing.T) {
	setSecrets(t)
	t.Setenv("JWT_ACCESS_TTL", "quince minutos")
	if _, err := Load(""); err == nil {
		t.Fatalf("unparseable duration should fail validation")
	}
}

func TestLoad_RedisRequiresAddr(t *testing.T) {
	setSecrets(t)
	t.Setenv("CACHE_DRIVER", "redis")
	if _, err := Load(""); err == nil {
		t.Fatalf("redis driver without addr should fail validation")
	}
	t.Setenv("REDIS_ADDR", "localhost:6379")
	if _, err := Load(""); err != nil {
		t.Fatalf("redis driver with addr should pass: %v", err)
	}
}

func TestLoad_ProviderRedirectAutogen(t *testing.T) {
	setSecrets(t)
	t.Setenv("EMAIL_BASE_URL", "https://auth.example.com/")
	t.Setenv("GOOGLE_CLIENT_ID", "gid")
	t.Setenv("GITHUB_CLIENT_ID", "ghid")
	t.Setenv("GITHUB_REDIRECT_URL", "https://other.example.com/cb")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load err: %v", err)
	}
	if !cfg.Providers.Google.Enabled || !cfg.Providers.GitHub.Enabled {
		t.Fatalf("providers with client id should be enabled")
	}
	if got := cfg.Providers.Google.RedirectURL; got != "https://auth.example.com/v1/oauth/google/callback" {
		t.Fatalf("google redirect = %q", got)
	}
	// Un redirect explícito no se pisa.
	if got := cfg.Providers.GitHub.RedirectURL; got != "https://other.example.com/cb" {
		t.Fatalf("github redirect = %q", got)
	}
}

func TestLoad_CORSFromCSV(t *testing.T) {
	setSecrets(t)
	t.Setenv("SERVER_CORS_ALLOWED_ORIGINS", "https://a.example.com, https://b.example.com ,")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load err: %v", err)
	}
	if len(cfg.Server.CORSAllowedOrigins) != 2 ||
		cfg.Server.CORSAllowedOrigins[0] != "https://a.example.com" ||
		cfg.Server.CORSAllowedOrigins[1] != "https://b.example.com" {
		t.Fatalf("CORS origins = %v", cfg.Server.CORSAllowedOrigins)
	}
}

func TestLoad_MissingFile(t *testing.T) {
	setSecrets(t)
	if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Fatalf("missing file should error")
	}
}
