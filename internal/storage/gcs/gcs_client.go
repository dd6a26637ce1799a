// Package gcs stores original documents in a Google Cloud Storage bucket.
package gcs

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"time"

	"cloud.google.com/go/storage"
	"google.golang.org/api/option"

	"fleetdocs/internal/config"
	"fleetdocs/internal/port"
)

type gcsClient struct {
	client      *storage.Client
	bucket      *storage.BucketHandle
	bucketName  string
	signerEmail string
}

// NewGCSClient creates a GCS-backed ObjectStorage bound to cfg.Bucket.
// Without a credentials file, application default credentials are used.
func NewGCSClient(ctx context.Context, cfg *config.GCSConfig, opts ...option.ClientOption) (port.ObjectStorage, error) {
	if cfg.Bucket == "" {
		return nil, fmt.Errorf("gcs: bucket is required")
	}
	if cfg.CredentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(cfg.CredentialsFile))
	}

	client, err := storage.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("creating gcs client: %w", err)
	}
	return &gcsClient{
		client:      client,
		bucket:      client.Bucket(cfg.Bucket),
		bucketName:  cfg.Bucket,
		signerEmail: cfg.SignerEmail,
	}, nil
}

func (c *gcsClient) Upload(ctx context.Context, input port.UploadInput) (*port.UploadOutput, error) {
	w := c.bucket.Object(input.Key).NewWriter(ctx)
	w.ContentType = input.ContentType

	if _, err := io.Copy(w, input.Body); err != nil {
		_ = w.Close()
		return nil, fmt.Errorf("gcs upload: %w", err)
	}
	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("gcs upload finalize: %w", err)
	}

	etag := ""
	if attrs := w.Attrs(); attrs != nil {
		etag = attrs.Etag
	}
	return &port.UploadOutput{
		Location: fmt.Sprintf("gs://%s/%s", c.bucketName, input.Key),
		ETag:     etag,
	}, nil
}

func (c *gcsClient) Delete(ctx context.Context, key string) error {
	err := c.bucket.Object(key).Delete(ctx)
	if errors.Is(err, storage.ErrObjectNotExist) {
		log.Printf("gcs.Delete: object %s already gone", key)
		return nil
	}
	if err != nil {
		return fmt.Errorf("gcs delete: %w", err)
	}
	return nil
}

func (c *gcsClient) GetPresignedURL(_ context.Context, key string, expirySeconds int64) (string, error) {
	opts := &storage.SignedURLOptions{
		Method:  "GET",
		Expires: time.Now().Add(time.Duration(expirySeconds) * time.Second),
		Scheme:  storage.SigningSchemeV4,
	}
	if c.signerEmail != "" {
		opts.GoogleAccessID = c.signerEmail
	}
	url, err := c.bucket.SignedURL(key, opts)
	if err != nil {
		return "", fmt.Errorf("gcs presign: %w", err)
	}
	return url, nil
}
