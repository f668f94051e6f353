// Package blob uploads rendered exports to S3-compatible object storage and
// hands out presigned download links.
package blob

import (
	"bytes"
	"context"
	"fmt"
	"mime"
	"path"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"

	appcfg "github.com/fdg312/preppair/internal/config"
)

const defaultRegion = "us-east-1"

// Object is one file to upload. Filename, when set, becomes the download
// name through Content-Disposition.
type Object struct {
	Key         string
	Data        []byte
	ContentType string
	Filename    string
}

type Store interface {
	Put(ctx context.Context, obj Object) error
	PresignGet(ctx context.Context, key string, ttl time.Duration) (string, error)
}

// ExportKey lays out exports as exports/{user}/{plan}/{name}-{unix}.{ext}.
func ExportKey(userID string, planID uuid.UUID, name string, at time.Time, ext string) string {
	file := fmt.Sprintf("%s-%d.%s", name, at.UTC().Unix(), strings.TrimPrefix(ext, "."))
	return path.Join("exports", userID, planID.String(), file)
}

// S3Store is a Store backed by one bucket with path-style addressing, which
// MinIO and R2 both accept.
type S3Store struct {
	client  *s3.Client
	presign *s3.PresignClient
	bucket  string
}

func NewS3Store(ctx context.Context, cfg appcfg.S3Config) (*S3Store, error) {
	if missing := cfg.MissingRequired(); len(missing) > 0 && !onlyRegionMissing(missing) {
		return nil, fmt.Errorf("S3 configuration incomplete: missing %s", strings.Join(missing, ", "))
	}
	region := strings.TrimSpace(cfg.Region)
	if region == "" {
		region = defaultRegion
	}

	awsCfg, err := config.LoadDefaultConfig(ctx,
		config.WithRegion(region),
		config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, "")),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load S3 config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.BaseEndpoint = aws.String(cfg.Endpoint)
		o.UsePathStyle = true
	})

	return &S3Store{
		client:  client,
		presign: s3.NewPresignClient(client),
		bucket:  cfg.Bucket,
	}, nil
}

func onlyRegionMissing(missing []string) bool {
	return len(missing) == 1 && missing[0] == "S3_REGION"
}

func (s *S3Store) Put(ctx context.Context, obj Object) error {
	input := &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(obj.Key),
		Body:        bytes.NewReader(obj.Data),
		ContentType: aws.String(obj.ContentType),
	}
	if obj.Filename != "" {
		input.ContentDisposition = aws.String(attachment(obj.Filename))
	}

	if _, err := s.client.PutObject(ctx, input); err != nil {
		return fmt.Errorf("failed to put %s: %w", obj.Key, err)
	}
	return nil
}

func (s *S3Store) PresignGet(ctx context.Context, key string, ttl time.Duration) (string, error) {
	req, err := s.presign.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	}, s3.WithPresignExpires(ttl))
	if err != nil {
		return "", fmt.Errorf("failed to presign %s: %w", key, err)
	}
	return req.URL, nil
}

// attachment formats a Content-Disposition value for filename.
func attachment(filename string) string {
	return mime.FormatMediaType("attachment", map[string]string{"filename": filename})
}
