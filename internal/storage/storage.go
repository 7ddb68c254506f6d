// Package storage retrieves mail content from S3-compatible object storage.
package storage

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"unicode/utf8"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/shineum/s3-mail-sender/internal/config"
)

// Content-type defaults used when the object carries no metadata.
const (
	DefaultTextType   = "text/plain"
	DefaultBinaryType = "audio/mpeg"
)

// GetObjectAPI is the subset of the S3 client used by Fetcher.
// Used for testing with mock implementations.
type GetObjectAPI interface {
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
}

// TextContent is a text object decoded as UTF-8.
type TextContent struct {
	Body        string
	ContentType string
}

// BinaryContent is a raw object with the filename derived from its key.
type BinaryContent struct {
	Content     []byte
	ContentType string
	Filename    string
}

// Fetcher reads objects from a bucket. It holds one client for its lifetime
// and is safe for concurrent use.
type Fetcher struct {
	client GetObjectAPI
}

// New creates a Fetcher backed by an S3 client built from cfg.
// Static credentials are used when both keys are set, otherwise the
// default AWS credential chain applies.
func New(ctx context.Context, cfg config.StorageConfig) (*Fetcher, error) {
	opts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(cfg.Region),
	}

	if cfg.AccessKeyID != "" && cfg.SecretAccessKey != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
		o.UsePathStyle = cfg.UsePathStyle
	})

	return NewWithClient(client), nil
}

// NewWithClient creates a Fetcher with a custom client, used for testing.
func NewWithClient(client GetObjectAPI) *Fetcher {
	return &Fetcher{client: client}
}

// FetchText retrieves an object and decodes it as UTF-8 text.
func (f *Fetcher) FetchText(ctx context.Context, bucket, key string) (*TextContent, error) {
	data, contentType, err := f.get(ctx, bucket, key)
	if err != nil {
		slog.Error("failed to fetch text object",
			"bucket", bucket,
			"key", key,
			"error", err,
		)
		return nil, err
	}

	if contentType == "" {
		contentType = DefaultTextType
	}
	body := decodeUTF8(data)

	slog.Info("text object retrieved",
		"bucket", bucket,
		"key", key,
		"content_type", contentType,
		"size", len(data),
		"chars", utf8.RuneCountInString(body),
	)

	return &TextContent{Body: body, ContentType: contentType}, nil
}

// FetchBinary retrieves an object as raw bytes.
func (f *Fetcher) FetchBinary(ctx context.Context, bucket, key string) (*BinaryContent, error) {
	data, contentType, err := f.get(ctx, bucket, key)
	if err != nil {
		slog.Error("failed to fetch binary object",
			"bucket", bucket,
			"key", key,
			"error", err,
		)
		return nil, err
	}

	if contentType == "" {
		contentType = DefaultBinaryType
	}

	slog.Info("binary object retrieved",
		"bucket", bucket,
		"key", key,
		"content_type", contentType,
		"size", len(data),
	)

	return &BinaryContent{
		Content:     data,
		ContentType: contentType,
		Filename:    FilenameFromKey(key),
	}, nil
}

// FilenameFromKey returns the segment after the last "/" of an object key.
// A key ending in "/" yields an empty name.
func FilenameFromKey(key string) string {
	return key[strings.LastIndex(key, "/")+1:]
}

// get issues one GetObject request and reads the whole body.
func (f *Fetcher) get(ctx context.Context, bucket, key string) ([]byte, string, error) {
	if bucket == "" || key == "" {
		return nil, "", fmt.Errorf("%w: bucket and key are required", config.ErrConfiguration)
	}

	out, err := f.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, "", wrapS3Error(err)
	}
	defer out.Body.Close()

	data, err := io.ReadAll(out.Body)
	if err != nil {
		return nil, "", fmt.Errorf("%w: failed to read object body: %v", ErrTransport, err)
	}

	return data, aws.ToString(out.ContentType), nil
}
