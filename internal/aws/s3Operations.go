package aws

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

const defaultGetTimeout = 30 * time.Second

type S3Service struct {
	client     *s3.Client
	bucketName string
	timeout    time.Duration
}

func NewS3Service(client *s3.Client, bucketName string, timeout time.Duration) *S3Service {
	if timeout <= 0 {
		timeout = defaultGetTimeout
	}
	return &S3Service{client: client, bucketName: bucketName, timeout: timeout}
}

func (service *S3Service) BucketName() string {
	return service.bucketName
}

// GetObject opens key for streaming. The per-object timeout covers the whole
// read and is released when the returned body is closed.
func (service *S3Service) GetObject(ctx context.Context, key string) (io.ReadCloser, string, error) {
	ctx, cancel := context.WithTimeout(ctx, service.timeout)

	resp, err := service.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(service.bucketName),
		Key:    aws.String(key),
	})
	if err != nil {
		cancel()
		return nil, "", fmt.Errorf("couldn't get object with key: %s, AWS error: %w", key, err)
	}
	slog.Debug("opened s3 object", "bucket", service.bucketName, "key", key, "content_type", aws.ToString(resp.ContentType))
	return &objectBody{ReadCloser: resp.Body, cancel: cancel}, aws.ToString(resp.ContentType), nil
}

type objectBody struct {
	io.ReadCloser
	cancel context.CancelFunc
}

func (b *objectBody) Close() error {
	defer b.cancel()
	return b.ReadCloser.Close()
}
