package internal

import (
	"strings"
	"testing"
	"time"
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
	cfg := AuthConfig{Mode: "", Token: ""}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("empty mode should default to disabled: %v", err)
	}
	if cfg.Mode != AuthModeDisabled {
		t.Errorf("mode = %q, want %q", cfg.Mode, AuthModeDisabled)
	}
}

func TestAuthConfig_TokenModeValid(t *testing.T) {
	cfg := AuthConfig{Mode: "token", Token: "mysecret"}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("token mode with token should pass: %v", err)
	}
	if !cfg.AuthEnabled() {
		t.Error("token mode should be enabled")
	}
}

func TestAuthConfig_TokenModeEmptyToken(t *testing.T) {
	cfg := AuthConfig{Mode: "token", Token: ""}
	err := cfg.Validate()
	if err == nil {
		t.Fatal("token mode with empty token should fail")
	}
	if !strings.Contains(err.Error(), "token is empty") {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestAuthConfig_InvalidMode(t *testing.T) {
	cfg := AuthConfig{Mode: "magic", Token: "x"}
	err := cfg.Validate()
	if err == nil {
		t.Fatal("invalid mode should fail validation")
	}
}

func TestFullConfig_AuthValidationCalled(t *testing.T) {
	cfg := NewDefaultConfig()
	cfg.Auth.Mode = "token"
	cfg.Auth.Token = ""
	err := cfg.Validate()
	if err == nil {
		t.Fatal("full config validate should catch auth error")
	}
}

func TestDefaultConfigIsValid(t *testing.T) {
	cfg := NewDefaultConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config should be valid: %v", err)
	}
	if cfg.Storage.Driver != StorageDriverFS {
		t.Errorf("driver = %q, want fs", cfg.Storage.Driver)
	}
}

func TestStorageConfig_Driver(t *testing.T) {
	cfg := StorageConfig{Path: "./data"}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("empty driver should default to fs: %v", err)
	}
	if cfg.Driver != StorageDriverFS {
		t.Errorf("driver = %q", cfg.Driver)
	}

	cfg = StorageConfig{Driver: "postgres", Path: "x"}
	if err := cfg.Validate(); err == nil {
		t.Error("unknown driver should fail")
	}
	cfg = StorageConfig{Driver: StorageDriverSQLite}
	if err := cfg.Validate(); err == nil {
		t.Error("missing path should fail")
	}
}

func TestSyncConfig_OnlyValidatedWhenEnabled(t *testing.T) {
	cfg := SyncConfig{}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("disabled sync should pass: %v", err)
	}

	cfg = SyncConfig{Enabled: true, RemoteURL: "not a url", JWTSecret: "s", Timeout: time.Second}
	if err := cfg.Validate(); err == nil {
		t.Error("invalid remote url should fail")
	}

	cfg = SyncConfig{Enabled: true, RemoteURL: "http://localhost:8080/cloud", Timeout: time.Second}
	if err := cfg.Validate(); err == nil {
		t.Error("missing secret should fail")
	}

	cfg.JWTSecret = "s"
	if err := cfg.Validate(); err != nil {
		t.Errorf("valid sync config: %v", err)
	}
}

func TestCloudConfig_RequiresSecretWhenEnabled(t *testing.T) {
	cfg := CloudConfig{Enabled: true, SQLitePath: "./cloud.db"}
	if err := cfg.Validate(); err == nil {
		t.Error("enabled cloud without secret should fail")
	}
}

func TestApplicationConfig_Timezone(t *testing.T) {
	cfg := NewDefaultConfig()
	cfg.App.Timezone = "Europe/Berlin"
	if err := cfg.Validate(); err != nil {
		t.Fatalf("valid timezone: %v", err)
	}
	loc, _ := cfg.App.Location()
	if loc.String() != "Europe/Berlin" {
		t.Errorf("location = %s", loc)
	}

	cfg.App.Timezone = "Mars/Olympus"
	if err := cfg.Validate(); err == nil {
		t.Error("unknown timezone should fail")
	}
}
