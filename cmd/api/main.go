package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	_ "github.com/joho/godotenv/autoload"

	"github.com/fdg312/preppair/internal/config"
	"github.com/fdg312/preppair/internal/dbmigrate"
	"github.com/fdg312/preppair/internal/httpserver"
	"github.com/fdg312/preppair/internal/logger"
)

const shutdownTimeout = 10 * time.Second

func main() {
	cfg := config.Load()

	log, err := logger.New(logger.Options{
		Level:      cfg.LogLevel,
		Format:     cfg.LogFormat,
		File:       cfg.LogFile,
		MaxSizeMB:  cfg.LogFileMaxMB,
		MaxBackups: cfg.LogFileMaxBackups,
		MaxAgeDays: cfg.LogFileMaxAgeDays,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger init failed: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	printStartupBanner(log, cfg)

	if err := validateProductionConfig(cfg); err != nil {
		log.Fatal("invalid configuration", "error", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.RunMigrationsOnStartup {
		target, err := dbmigrate.SelectTarget(cfg, true)
		if err != nil {
			log.Fatal("startup migrations", "error", err)
		}
		log.Info("startup migrations", "command", "up", "using", target.Source)
		if err := dbmigrate.Run(ctx, "up", target.Dialect, target.DSN, log); err != nil {
			log.Fatal("startup migrations failed", "error", err)
		}
		log.Info("startup migrations completed")
	}

	server, err := httpserver.New(ctx, cfg, log)
	if err != nil {
		log.Fatal("server init failed", "error", err)
	}
	defer server.Close()

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Start()
	}()

	select {
	case err := <-errCh:
		if err != nil {
			log.Error("server stopped", "error", err)
		}
		return
	case <-ctx.Done():
	}

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("graceful shutdown failed", "error", err)
	}
	<-errCh
}

// printStartupBanner logs the resolved configuration once. Secrets only show
// as "set" or "not set".
func printStartupBanner(log *logger.Logger, cfg *config.Config) {
	log.Info("preppair api",
		"env", cfg.Env,
		"port", cfg.Port,
		"log_level", cfg.LogLevel,
		"log_file", nonEmptyOrDash(cfg.LogFile),
	)

	log.Info("database",
		"storage", describeStorage(cfg),
		"pooled", setOrNot(cfg.DatabaseURLPooled),
		"direct", setOrNot(cfg.DatabaseURLDirect),
		"sqlite_path", nonEmptyOrDash(cfg.SQLitePath),
		"migrations_on_startup", cfg.RunMigrationsOnStartup,
	)

	log.Info("auth",
		"auth_mode", cfg.AuthMode,
		"auth_required", cfg.AuthRequired,
		"jwt_secret", secretStatus(cfg.JWTSecret, "change_me"),
		"pin_min_length", cfg.PINMinLength,
	)

	log.Info("blob",
		"blob_mode", cfg.Blob.Mode,
		"s3", cfg.Blob.S3.DiagnosticsSummary(),
		"export_presign_ttl_seconds", cfg.ExportPresignTTLSeconds,
	)

	log.Info("http",
		"cors_origins", strings.Join(cfg.CORSAllowedOrigins, ","),
		"rate_limit_rps", cfg.RateLimitRPS,
		"rate_limit_burst", cfg.RateLimitBurst,
	)
}

// validateProductionConfig rejects settings that are only unsafe outside local.
func validateProductionConfig(cfg *config.Config) error {
	isProd := cfg.Env == "prod" || cfg.Env == "production" || cfg.Env == "staging"

	if cfg.Blob.Mode == config.BlobModeS3 {
		if missing := cfg.Blob.S3.MissingRequired(); len(missing) > 0 {
			return fmt.Errorf("BLOB_MODE is 's3' but S3 config is incomplete, missing: %s", strings.Join(missing, ", "))
		}
	}

	if cfg.AuthMode == config.AuthModePIN && strings.TrimSpace(cfg.JWTSecret) == "" {
		return errors.New("AUTH_MODE=pin requires JWT_SECRET")
	}

	if isProd && cfg.AuthRequired && cfg.JWTSecret == "change_me" {
		return fmt.Errorf("JWT_SECRET must not be 'change_me' in %s with AUTH_REQUIRED=1", cfg.Env)
	}

	if isProd && cfg.DatabaseURL == "" && cfg.SQLitePath == "" {
		return fmt.Errorf("no DATABASE_URL or SQLITE_PATH configured in %s", cfg.Env)
	}

	return nil
}

func setOrNot(v string) string {
	if strings.TrimSpace(v) == "" {
		return "not set"
	}
	return "set"
}

func nonEmptyOrDash(v string) string {
	if strings.TrimSpace(v) == "" {
		return "-"
	}
	return v
}

func secretStatus(v, insecureDefault string) string {
	v = strings.TrimSpace(v)
	if v == "" {
		return "not set"
	}
	if v == insecureDefault {
		return fmt.Sprintf("set (insecure default '%s')", insecureDefault)
	}
	return "set (custom)"
}

func describeStorage(cfg *config.Config) string {
	switch {
	case cfg.DatabaseURL != "" && cfg.DatabaseURLPooled != "" && cfg.DatabaseURL == cfg.DatabaseURLPooled:
		return "postgres (via DATABASE_URL_POOLED)"
	case cfg.DatabaseURL != "":
		return "postgres"
	case cfg.SQLitePath != "":
		return "sqlite"
	default:
		return "memory"
	}
}
