package blob

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	appcfg "github.com/fdg312/preppair/internal/config"
	"github.com/google/uuid"
)

type recordingLogger struct {
	lines []string
}

func (r *recordingLogger) Info(msg string, kv ...interface{}) { r.add("INFO", msg, kv) }
func (r *recordingLogger) Warn(msg string, kv ...interface{}) { r.add("WARN", msg, kv) }

func (r *recordingLogger) add(level, msg string, kv []interface{}) {
	r.lines = append(r.lines, fmt.Sprintf("%s %s %v", level, msg, kv))
}

func (r *recordingLogger) String() string {
	return strings.Join(r.lines, "\n")
}

func readyS3Config() appcfg.S3Config {
	return appcfg.S3Config{
		Endpoint:        "https://objects.example.test",
		Region:          "eu-central-1",
		Bucket:          "preppair-exports",
		AccessKeyID:     "key",
		SecretAccessKey: "secret",
	}
}

func TestNewBlobStoreLocalForced(t *testing.T) {
	logger := &recordingLogger{}

	store, mode, err := NewBlobStore(context.Background(), appcfg.BlobConfig{Mode: appcfg.BlobModeLocal}, logger)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if mode != appcfg.BlobModeLocal || store != nil {
		t.Fatalf("expected nil store in local mode, got store=%v mode=%s", store, mode)
	}
	if !strings.Contains(logger.String(), "forced") {
		t.Fatalf("expected forced local log, got: %s", logger)
	}
}

func TestNewBlobStoreEmptyModeIsLocal(t *testing.T) {
	store, mode, err := NewBlobStore(context.Background(), appcfg.BlobConfig{}, nil)
	if err != nil || store != nil || mode != appcfg.BlobModeLocal {
		t.Fatalf("expected local with nil store, got store=%v mode=%q err=%v", store, mode, err)
	}
}

func TestNewBlobStoreAutoEmptyS3FallsBackToLocal(t *testing.T) {
	logger := &recordingLogger{}

	store, mode, err := NewBlobStore(context.Background(), appcfg.BlobConfig{Mode: appcfg.BlobModeAuto}, logger)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if mode != appcfg.BlobModeLocal || store != nil {
		t.Fatalf("expected local fallback, got store=%v mode=%s", store, mode)
	}
	if !strings.Contains(logger.String(), "s3_not_configured") {
		t.Fatalf("expected s3_not_configured reason, got: %s", logger)
	}
}

func TestNewBlobStoreS3MissingRequiredReturnsError(t *testing.T) {
	store, mode, err := NewBlobStore(context.Background(), appcfg.BlobConfig{
		Mode: appcfg.BlobModeS3,
		S3:   appcfg.S3Config{Endpoint: "https://objects.example.test"},
	}, nil)
	if err == nil {
		t.Fatal("expected error when mode=s3 and required env are missing")
	}
	if store != nil || mode != "" {
		t.Fatalf("expected nil store and empty mode on error, got store=%v mode=%q", store, mode)
	}
	if !strings.Contains(err.Error(), "S3_BUCKET") {
		t.Fatalf("expected missing bucket in error, got: %v", err)
	}
}

func TestNewBlobStoreUnknownMode(t *testing.T) {
	if _, _, err := NewBlobStore(context.Background(), appcfg.BlobConfig{Mode: "ftp"}, nil); err == nil {
		t.Fatal("expected error for unknown mode")
	}
}

func TestNewBlobStoreAutoConfiguredPresigns(t *testing.T) {
	logger := &recordingLogger{}

	store, mode, err := NewBlobStore(context.Background(), appcfg.BlobConfig{
		Mode: appcfg.BlobModeAuto,
		S3:   readyS3Config(),
	}, logger)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if mode != appcfg.BlobModeS3 || store == nil {
		t.Fatalf("expected s3 store, got store=%v mode=%s", store, mode)
	}
	if strings.Contains(logger.String(), "secret_access_key=secret") {
		t.Fatalf("secrets must not be logged: %s", logger)
	}

	url, err := store.PresignGet(context.Background(), "exports/default/plan/grocery.pdf", 15*time.Minute)
	if err != nil {
		t.Fatalf("presign failed: %v", err)
	}
	for _, part := range []string{"objects.example.test/preppair-exports/exports/default/plan/grocery.pdf", "X-Amz-Signature=", "X-Amz-Expires=900"} {
		if !strings.Contains(url, part) {
			t.Errorf("expected presigned URL to contain %q, got %s", part, url)
		}
	}
}

func TestExportKey(t *testing.T) {
	planID := uuid.MustParse("6f1c2a9e-3b7d-4c1e-9a2f-5d8e7b6c4a31")
	at := time.Date(2025, 2, 13, 9, 0, 0, 0, time.UTC)

	got := ExportKey("default", planID, "grocery", at, ".pdf")
	want := "exports/default/6f1c2a9e-3b7d-4c1e-9a2f-5d8e7b6c4a31/grocery-1739437200.pdf"
	if got != want {
		t.Errorf("ExportKey() = %q, want %q", got, want)
	}
}

func TestAttachment(t *testing.T) {
	if got := attachment("grocery-2025-02-10.csv"); got != "attachment; filename=grocery-2025-02-10.csv" {
		t.Errorf("unexpected disposition %q", got)
	}
}
