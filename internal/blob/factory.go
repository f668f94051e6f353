package blob

import (
	"context"
	"fmt"
	"strings"

	appcfg "github.com/fdg312/preppair/internal/config"
)

// Logger is the subset of the application logger the factory reports to.
type Logger interface {
	Info(msg string, keysAndValues ...interface{})
	Warn(msg string, keysAndValues ...interface{})
}

// NewBlobStore resolves BLOB_MODE into a Store and the effective mode.
//
//	local  no store; exports stream back in the response
//	auto   S3 when fully configured, otherwise local
//	s3     S3 or an error
func NewBlobStore(ctx context.Context, cfg appcfg.BlobConfig, logger Logger) (Store, string, error) {
	mode := strings.ToLower(strings.TrimSpace(cfg.Mode))
	if mode == "" {
		mode = appcfg.BlobModeLocal
	}

	switch mode {
	case appcfg.BlobModeLocal:
		info(logger, "blob store disabled", "mode", mode, "reason", "forced")
		return nil, appcfg.BlobModeLocal, nil

	case appcfg.BlobModeAuto:
		if !cfg.S3.IsConfigured() {
			_, code, msg := cfg.S3.Diagnostics()
			info(logger, "blob store disabled", "mode", appcfg.BlobModeLocal, "reason", code, "detail", msg)
			return nil, appcfg.BlobModeLocal, nil
		}
		store, err := NewS3Store(ctx, cfg.S3)
		if err != nil {
			warn(logger, "s3 init failed, exports stream locally", "error", err)
			return nil, appcfg.BlobModeLocal, nil
		}
		info(logger, "blob store ready", "mode", appcfg.BlobModeS3, "s3", cfg.S3.DiagnosticsSummary())
		return store, appcfg.BlobModeS3, nil

	case appcfg.BlobModeS3:
		if missing := cfg.S3.MissingRequired(); len(missing) > 0 {
			return nil, "", fmt.Errorf("BLOB_MODE=s3 requested but missing required config: %s", strings.Join(missing, ", "))
		}
		store, err := NewS3Store(ctx, cfg.S3)
		if err != nil {
			return nil, "", fmt.Errorf("BLOB_MODE=s3 init failed: %w", err)
		}
		info(logger, "blob store ready", "mode", appcfg.BlobModeS3, "s3", cfg.S3.DiagnosticsSummary())
		return store, appcfg.BlobModeS3, nil

	default:
		return nil, "", fmt.Errorf("unsupported blob mode: %s", mode)
	}
}

func info(logger Logger, msg string, kv ...interface{}) {
	if logger != nil {
		logger.Info(msg, kv...)
	}
}

func warn(logger Logger, msg string, kv ...interface{}) {
	if logger != nil {
		logger.Warn(msg, kv...)
	}
}
