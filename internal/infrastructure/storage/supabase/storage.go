// Package supabase stores uploaded files in a Supabase Storage bucket through
// its S3-compatible endpoint.
package supabase

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/smithy-go"

	"github.com/kirillkom/medintake/internal/core/domain"
	"github.com/kirillkom/medintake/internal/infrastructure/resilience"
)

type Options struct {
	// ProjectURL is the project root, e.g. https://<project>.supabase.co.
	ProjectURL      string
	Bucket          string
	Region          string
	AccessKeyID     string
	SecretAccessKey string
	Executor        *resilience.Executor
	HTTPClient      *http.Client
}

type Storage struct {
	projectURL string
	bucket     string
	client     *s3.Client
	executor   *resilience.Executor
}

func New(opts Options) *Storage {
	projectURL := strings.TrimRight(strings.TrimSpace(opts.ProjectURL), "/")
	bucket := strings.TrimSpace(opts.Bucket)
	if bucket == "" {
		bucket = "images"
	}
	region := strings.TrimSpace(opts.Region)
	if region == "" {
		region = "us-east-1"
	}
	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 60 * time.Second}
	}

	client := s3.NewFromConfig(aws.Config{
		Region:      region,
		Credentials: credentials.NewStaticCredentialsProvider(opts.AccessKeyID, opts.SecretAccessKey, ""),
		HTTPClient:  httpClient,
		Retryer: func() aws.Retryer {
			return aws.NopRetryer{}
		},
		RequestChecksumCalculation: aws.RequestChecksumCalculationWhenRequired,
		ResponseChecksumValidation: aws.ResponseChecksumValidationWhenRequired,
	}, func(o *s3.Options) {
		o.BaseEndpoint = aws.String(projectURL + "/storage/v1/s3")
		o.UsePathStyle = true
	})

	return &Storage{
		projectURL: projectURL,
		bucket:     bucket,
		client:     client,
		executor:   opts.Executor,
	}
}

func objectKey(key string) string {
	return strings.TrimLeft(key, "/")
}

// Save uploads data, overwriting an existing object with the same key.
func (s *Storage) Save(ctx context.Context, key, contentType string, data io.Reader) error {
	body, err := io.ReadAll(data)
	if err != nil {
		return fmt.Errorf("read upload body: %w", err)
	}
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	call := func(ctx context.Context) error {
		_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
			Bucket:        aws.String(s.bucket),
			Key:           aws.String(objectKey(key)),
			Body:          bytes.NewReader(body),
			ContentType:   aws.String(contentType),
			ContentLength: aws.Int64(int64(len(body))),
		})
		if err != nil {
			return fmt.Errorf("supabase put object: %w", err)
		}
		return nil
	}
	return s.executor.Execute(ctx, resilience.TargetStorage, "supabase.put", call, classifyS3Error)
}

func (s *Storage) Open(ctx context.Context, key string) (io.ReadCloser, error) {
	var out *s3.GetObjectOutput
	call := func(ctx context.Context) error {
		res, err := s.client.GetObject(ctx, &s3.GetObjectInput{
			Bucket: aws.String(s.bucket),
			Key:    aws.String(objectKey(key)),
		})
		if err != nil {
			return fmt.Errorf("supabase get object: %w", err)
		}
		out = res
		return nil
	}
	if err := s.executor.Execute(ctx, resilience.TargetStorage, "supabase.get", call, classifyS3Error); err != nil {
		if isMissingObject(err) {
			return nil, domain.WrapError(domain.ErrDocumentNotFound, "supabase get object", err)
		}
		return nil, err
	}
	return out.Body, nil
}

// PublicURL is the bucket's public object URL; the bucket must be public for it to resolve.
func (s *Storage) PublicURL(key string) string {
	return fmt.Sprintf("%s/storage/v1/object/public/%s/%s", s.projectURL, s.bucket, objectKey(key))
}

func isMissingObject(err error) bool {
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.ErrorCode() {
		case "NoSuchKey", "NotFound", "NoSuchBucket":
			return true
		}
	}
	return statusCode(err) == http.StatusNotFound
}

func statusCode(err error) int {
	var respErr interface{ HTTPStatusCode() int }
	if errors.As(err, &respErr) {
		return respErr.HTTPStatusCode()
	}
	return 0
}

// classifyS3Error retries throttling, server errors and network failures.
// Missing objects and rejected requests do not count against the breaker.
func classifyS3Error(err error) resilience.ErrorClassification {
	if err == nil {
		return resilience.ErrorClassification{}
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return resilience.ErrorClassification{}
	}
	if resilience.IsCircuitOpen(err) {
		return resilience.ErrorClassification{Retryable: true, RecordFailure: true}
	}
	if code := statusCode(err); code != 0 {
		if resilience.IsRetryableHTTPStatus(code) {
			return resilience.ErrorClassification{Retryable: true, RecordFailure: true}
		}
		return resilience.ErrorClassification{}
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return resilience.ErrorClassification{Retryable: true, RecordFailure: true}
	}
	return resilience.ErrorClassification{Retryable: false, RecordFailure: true}
}
