package blob

import (
	"context"
	"fmt"

	"cloud.google.com/go/storage"
)

type gcsSink struct {
	client *storage.Client
	bucket string
	prefix string
}

// NewGCSSink writes blobs to a Cloud Storage bucket using application default credentials.
func NewGCSSink(ctx context.Context, bucket, prefix string) (Sink, error) {
	client, err := storage.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("new GCS client: %w", err)
	}
	return &gcsSink{client: client, bucket: bucket, prefix: prefix}, nil
}

func (s *gcsSink) Put(ctx context.Context, key string, payload string) error {
	remoteKey := ResolveKey(s.prefix, key)
	writer := s.client.Bucket(s.bucket).Object(remoteKey).NewWriter(ctx)
	writer.ContentType = contentType(payload)

	if _, err := writer.Write([]byte(payload)); err != nil {
		_ = writer.Close()
		return fmt.Errorf("failed to write gs://%s/%s: %w", s.bucket, remoteKey, err)
	}
	if err := writer.Close(); err != nil {
		return fmt.Errorf("failed to write gs://%s/%s: %w", s.bucket, remoteKey, err)
	}
	return nil
}

func (s *gcsSink) Close() error {
	return s.client.Close()
}
