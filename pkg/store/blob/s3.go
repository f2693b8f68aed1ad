package blob

import (
	"context"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// S3PutObjectAPI is the part of the S3 client the sink needs.
type S3PutObjectAPI interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

type s3Sink struct {
	client S3PutObjectAPI
	bucket string
	prefix string
}

// NewS3Sink writes blobs to an S3 bucket using the default AWS credential chain.
func NewS3Sink(ctx context.Context, bucket, prefix string) (Sink, error) {
	awsCfg, err := config.LoadDefaultConfig(ctx)
	if err != nil {
		return nil, fmt.Errorf("unable to load AWS SDK config: %w", err)
	}
	return NewS3SinkWithClient(s3.NewFromConfig(awsCfg), bucket, prefix), nil
}

func NewS3SinkWithClient(client S3PutObjectAPI, bucket, prefix string) Sink {
	return &s3Sink{client: client, bucket: bucket, prefix: prefix}
}

func (s *s3Sink) Put(ctx context.Context, key string, payload string) error {
	remoteKey := ResolveKey(s.prefix, key)
	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(remoteKey),
		Body:        strings.NewReader(payload),
		ContentType: aws.String(contentType(payload)),
	})
	if err != nil {
		return fmt.Errorf("failed to write s3://%s/%s: %w", s.bucket, remoteKey, err)
	}
	return nil
}

func (s *s3Sink) Close() error {
	return nil
}
