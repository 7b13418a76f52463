package internal

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	pkgconfig "github.com/starford/devflow/pkg/config"
)

func TestAuthConfig_DisabledMode(t *testing.T) {
	cfg := AuthConfig{Mode: "disabled", Token: ""}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("disabled mode should pass: %v", err)
	}
	if cfg.AuthEnabled() {
		t.Error("disabled mode should not be enabled")
	}
}

func TestAuthConfig_EmptyModeDefaultsDisabled(t *testing.T) {
	cfg := AuthConfig{}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("empty mode should default to disabled: %v", err)
	}
	if cfg.Mode != AuthModeDisabled {
		t.Errorf("mode = %q, want %q", cfg.Mode, AuthModeDisabled)
	}
}

func TestAuthConfig_TokenMode(t *testing.T) {
	cfg := AuthConfig{Mode: "token", Token: "mysecret"}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("token mode with token should pass: %v", err)
	}
	if !cfg.AuthEnabled() {
		t.Error("token mode should be enabled")
	}

	cfg = AuthConfig{Mode: "token"}
	err := cfg.Validate()
	if err == nil || !strings.Contains(err.Error(), "token is empty") {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestAuthConfig_JWTMode(t *testing.T) {
	cfg := AuthConfig{Mode: "jwt", JWTSecret: "s3cret"}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("jwt mode with secret should pass: %v", err)
	}
	cfg = AuthConfig{Mode: "jwt"}
	err := cfg.Validate()
	if err == nil || !strings.Contains(err.Error(), "jwt_secret is empty") {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestAuthConfig_InvalidMode(t *testing.T) {
	cfg := AuthConfig{Mode: "magic", Token: "x"}
	if err := cfg.Validate(); err == nil {
		t.Fatal("invalid mode should fail validation")
	}
}

func TestApplicationConfig_Timezone(t *testing.T) {
	cfg := NewDefaultConfig()
	cfg.App.Timezone = ""
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config: %v", err)
	}
	if cfg.App.Location() != time.UTC {
		t.Errorf("empty timezone should fall back to UTC, got %v", cfg.App.Location())
	}

	cfg.App.Timezone = "Europe/Berlin"
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Europe/Berlin: %v", err)
	}
	if got := cfg.App.Calendar().Location().String(); got != "Europe/Berlin" {
		t.Errorf("calendar zone = %q", got)
	}

	cfg.App.Timezone = "Mars/Olympus"
	if err := cfg.Validate(); err == nil {
		t.Error("unknown timezone should fail validation")
	}
}

func TestImportConfig_WatchNeedsPath(t *testing.T) {
	cfg := ImportConfig{Watch: true}
	if err := cfg.Validate(); err == nil {
		t.Error("watch without path should fail")
	}
	cfg = ImportConfig{}
	if err := cfg.Validate(); err != nil || cfg.Enabled() {
		t.Errorf("empty import config: err=%v enabled=%v", err, cfg.Enabled())
	}
}

func TestFullConfig_ValidationCalled(t *testing.T) {
	cfg := NewDefaultConfig()
	cfg.Auth.Mode = "token"
	if err := cfg.Validate(); err == nil {
		t.Fatal("full config validate should catch auth error")
	}

	cfg = NewDefaultConfig()
	cfg.Summary.MaxTokens = 0
	if err := cfg.Validate(); err == nil {
		t.Fatal("full config validate should catch summary error")
	}
}

func TestLoadConfigFile(t *testing.T) {
	t.Setenv("TEST_OPENROUTER_KEY", "sk-from-env")
	path := filepath.Join(t.TempDir(), "config.yaml")
	data := `
app:
  timezone: America/New_York
  user_id: dev
  http:
    port: 9090
sqlite:
  path: /tmp/devflow.db
import:
  path: ""
  watch: false
analytics:
  timeline_days: 14
summary:
  api_key: ${TEST_OPENROUTER_KEY}
  timeout: 5s
`
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg := NewDefaultConfig()
	if err := pkgconfig.Load(path, cfg); err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.App.HTTP.Address() != ":9090" || cfg.App.UserID != "dev" {
		t.Errorf("app = %+v", cfg.App)
	}
	if cfg.Summary.APIKey != "sk-from-env" || cfg.Summary.Timeout != 5*time.Second {
		t.Errorf("summary = %+v", cfg.Summary)
	}
	if cfg.Summary.Model == "" || !cfg.Summary.Enabled {
		t.Errorf("defaults lost: %+v", cfg.Summary)
	}
	if cfg.Import.Enabled() || cfg.Analytics.TimelineDays != 14 {
		t.Errorf("import=%+v analytics=%+v", cfg.Import, cfg.Analytics)
	}
}
