// Package storage hands out presigned URLs for receipt images kept in an
// S3-compatible object store. Clients upload and download directly; the API
// never proxies file bytes.
package storage

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"

	appconfig "github.com/prn-tf/monedero/internal/config"
)

// DefaultPresignExpiration is used when no expiration is configured.
const DefaultPresignExpiration = 15 * time.Minute

// ErrUnsupportedContentType is returned for receipt uploads that are not images or PDFs.
var ErrUnsupportedContentType = errors.New("unsupported receipt content type")

// allowedContentTypes are the receipt formats accepted for upload.
var allowedContentTypes = map[string]bool{
	"image/jpeg":      true,
	"image/png":       true,
	"image/webp":      true,
	"application/pdf": true,
}

// PresignedURL is a time-limited URL for a single object operation.
type PresignedURL struct {
	URL       string      `json:"url"`
	Method    string      `json:"method"`
	Headers   http.Header `json:"headers,omitempty"`
	ExpiresAt time.Time   `json:"expires_at"`
}

// ReceiptStore issues presigned URLs for receipt objects.
type ReceiptStore interface {
	// PresignUpload returns a URL the client PUTs the receipt body to.
	PresignUpload(ctx context.Context, key, contentType string) (*PresignedURL, error)

	// PresignDownload returns a URL the client GETs the receipt from.
	PresignDownload(ctx context.Context, key string) (*PresignedURL, error)
}

// ReceiptKey returns a fresh object key for a receipt of record recordID.
// Keys are namespaced by owner so a bucket listing never mixes users.
func ReceiptKey(ownerID, recordID int64) string {
	return fmt.Sprintf("receipts/%d/%d/%s", ownerID, recordID, uuid.NewString())
}

// ValidateContentType rejects receipt formats that are not accepted.
func ValidateContentType(contentType string) error {
	if !allowedContentTypes[contentType] {
		return fmt.Errorf("%w: %q", ErrUnsupportedContentType, contentType)
	}
	return nil
}

// S3ReceiptStore implements ReceiptStore on the S3 presign client.
// Works with AWS S3 and S3-compatible stores such as MinIO.
type S3ReceiptStore struct {
	presigner *s3.PresignClient
	bucket    string
	expires   time.Duration
	now       func() time.Time
}

// NewS3ReceiptStore builds a store from configuration. When no static access
// key is configured, the default AWS credential chain is used.
func NewS3ReceiptStore(ctx context.Context, cfg appconfig.ReceiptsConfig) (*S3ReceiptStore, error) {
	opts := []func(*config.LoadOptions) error{config.WithRegion(cfg.Region)}
	if cfg.AccessKeyID != "" {
		opts = append(opts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		))
	}

	awsCfg, err := config.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
		o.UsePathStyle = cfg.UsePathStyle
	})

	expires := cfg.PresignExpiration
	if expires <= 0 {
		expires = DefaultPresignExpiration
	}

	return &S3ReceiptStore{
		presigner: s3.NewPresignClient(client),
		bucket:    cfg.Bucket,
		expires:   expires,
		now:       time.Now,
	}, nil
}

// PresignUpload returns a presigned PUT URL for key.
func (s *S3ReceiptStore) PresignUpload(ctx context.Context, key, contentType string) (*PresignedURL, error) {
	if err := ValidateContentType(contentType); err != nil {
		return nil, err
	}

	req, err := s.presigner.PresignPutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		ContentType: aws.String(contentType),
	}, s3.WithPresignExpires(s.expires))
	if err != nil {
		return nil, fmt.Errorf("failed to presign receipt upload: %w", err)
	}

	return &PresignedURL{
		URL:       req.URL,
		Method:    req.Method,
		Headers:   req.SignedHeader,
		ExpiresAt: s.now().Add(s.expires).UTC(),
	}, nil
}

// PresignDownload returns a presigned GET URL for key.
func (s *S3ReceiptStore) PresignDownload(ctx context.Context, key string) (*PresignedURL, error) {
	req, err := s.presigner.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	}, s3.WithPresignExpires(s.expires))
	if err != nil {
		return nil, fmt.Errorf("failed to presign receipt download: %w", err)
	}

	return &PresignedURL{
		URL:       req.URL,
		Method:    req.Method,
		ExpiresAt: s.now().Add(s.expires).UTC(),
	}, nil
}

// Ensure S3ReceiptStore implements ReceiptStore.
var _ ReceiptStore = (*S3ReceiptStore)(nil)
