package config

import "testing"

func TestS3ConfigMissingRequired(t *testing.T) {
	cfg := S3Config{
		Endpoint: "https://storage.yandexcloud.net",
		Bucket:   "bucket",
	}
	missing := cfg.MissingRequired()

	want := []string{"S3_REGION", "S3_ACCESS_KEY_ID", "S3_SECRET_ACCESS_KEY"}
	if len(missing) != len(want) {
		t.Fatalf("expected %d missing fields, got %d (%v)", len(want), len(missing), missing)
	}
	for i := range want {
		if missing[i] != want[i] {
			t.Fatalf("expected missing[%d]=%s, got %s", i, want[i], missing[i])
		}
	}
	if cfg.IsConfigured() {
		t.Fatal("expected IsConfigured=false for partial config")
	}
}

func TestS3ConfigDiagnostics(t *testing.T) {
	t.Run("not configured", func(t *testing.T) {
		level, code, _ := (S3Config{}).Diagnostics()
		if level != "INFO" || code != "s3_not_configured" {
			t.Fatalf("expected INFO/s3_not_configured, got %s/%s", level, code)
		}
	})

	t.Run("partial config", func(t *testing.T) {
		level, code, _ := (S3Config{Endpoint: "https://storage.yandexcloud.net"}).Diagnostics()
		if level != "WARN" || code != "s3_partial_config" {
			t.Fatalf("expected WARN/s3_partial_config, got %s/%s", level, code)
		}
	})

	t.Run("ready", func(t *testing.T) {
		level, code, _ := (S3Config{
			Endpoint:        "https://storage.yandexcloud.net",
			Region:          "ru-central1",
			Bucket:          "bucket",
			AccessKeyID:     "key",
			SecretAccessKey: "secret",
		}).Diagnostics()
		if level != "INFO" || code != "s3_ready" {
			t.Fatalf("expected INFO/s3_ready, got %s/%s", level, code)
		}
	})
}

func TestLoadDefaults(t *testing.T) {
	for _, key := range []string{
		"APP_ENV", "ENV", "PORT", "AUTH_MODE", "AUTH_REQUIRED", "PIN_MIN_LENGTH",
		"DEFAULT_WEEKLY_BUDGET", "DEFAULT_SERVINGS", "BLOB_MODE", "LOG_FORMAT",
		"DATABASE_URL", "DATABASE_URL_POOLED", "DATABASE_URL_DIRECT", "SQLITE_PATH",
	} {
		t.Setenv(key, "")
	}

	cfg := Load()
	if cfg.Env != "local" || cfg.Port != 8080 {
		t.Fatalf("unexpected env/port: %s/%d", cfg.Env, cfg.Port)
	}
	if cfg.AuthMode != AuthModeNone || cfg.AuthRequired {
		t.Fatalf("expected auth off, got mode=%s required=%v", cfg.AuthMode, cfg.AuthRequired)
	}
	if cfg.PINMinLength != 4 || cfg.DefaultServings != 2 || cfg.DefaultWeeklyBudget != 500000 {
		t.Fatalf("unexpected household defaults: %+v", cfg)
	}
	if cfg.Blob.Mode != BlobModeLocal || cfg.LogFormat != "console" {
		t.Fatalf("unexpected blob/log defaults: %s/%s", cfg.Blob.Mode, cfg.LogFormat)
	}
	if len(cfg.CORSAllowedOrigins) != 2 {
		t.Fatalf("expected localhost CORS defaults, got %v", cfg.CORSAllowedOrigins)
	}
}

func TestLoadAuthAndDatabasePriority(t *testing.T) {
	t.Setenv("AUTH_MODE", "PIN")
	t.Setenv("AUTH_REQUIRED", "true")
	t.Setenv("PIN_MIN_LENGTH", "6")
	t.Setenv("DATABASE_URL", "postgres://url")
	t.Setenv("DATABASE_URL_POOLED", "postgres://pooled")
	t.Setenv("DATABASE_URL_DIRECT", "postgres://direct")

	cfg := Load()
	if cfg.AuthMode != AuthModePIN || !cfg.AuthRequired || cfg.PINMinLength != 6 {
		t.Fatalf("unexpected auth config: %s %v %d", cfg.AuthMode, cfg.AuthRequired, cfg.PINMinLength)
	}
	if cfg.DatabaseURL != "postgres://pooled" {
		t.Fatalf("expected pooled URL at runtime, got %s", cfg.DatabaseURL)
	}
}

func TestLoadUnknownAuthModeFallsBack(t *testing.T) {
	t.Setenv("AUTH_MODE", "oauth")
	t.Setenv("AUTH_REQUIRED", "1")

	cfg := Load()
	if cfg.AuthMode != AuthModeNone || cfg.AuthRequired {
		t.Fatalf("expected fallback to none, got %s required=%v", cfg.AuthMode, cfg.AuthRequired)
	}
}

func TestParseCORSOrigins(t *testing.T) {
	got := parseCORSOrigins(" https://a.example , ,https://b.example", "prod")
	if len(got) != 2 || got[0] != "https://a.example" || got[1] != "https://b.example" {
		t.Fatalf("unexpected origins: %v", got)
	}
	if parseCORSOrigins("", "prod") != nil {
		t.Fatal("expected no origins in prod by default")
	}
}
