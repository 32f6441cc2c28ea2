// Package s3store builds the S3 presign client used for download links.
package s3store

import (
	"context"
	"errors"
	"fmt"
	"mime"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/gofiber/fiber/v2/log"

	"github.com/ManuelReschke/FilmPass/internal/pkg/config"
)

// Client presigns GET requests against the media bucket
type Client struct {
	presign *s3.PresignClient
	bucket  string
}

// NewClient creates the presign client. Static credentials are used when
// configured, otherwise the default AWS credential chain applies.
func NewClient(ctx context.Context, cfg config.S3Config) (*Client, error) {
	if cfg.BucketName == "" {
		return nil, errors.New("S3_BUCKET_NAME is not configured")
	}

	opts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(cfg.Region),
	}
	if cfg.AccessKeyID != "" && cfg.SecretAccessKey != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			cfg.AccessKeyID,
			cfg.SecretAccessKey,
			"",
		)))
	}

	awsConfig, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	s3Client := s3.NewFromConfig(awsConfig, func(o *s3.Options) {
		if cfg.EndpointURL != "" {
			o.BaseEndpoint = aws.String(cfg.EndpointURL)
			// S3-compatible stores (MinIO, B2) want path-style URLs
			o.UsePathStyle = true
			o.UseAccelerate = false
		}
	})

	log.Infof("[S3] presign client ready for bucket %s", cfg.BucketName)
	return &Client{
		presign: s3.NewPresignClient(s3Client),
		bucket:  cfg.BucketName,
	}, nil
}

// Bucket returns the configured bucket name
func (c *Client) Bucket() string {
	return c.bucket
}

// PresignDownload returns a GET URL for key valid for ttl. The response is
// forced to download as filename. The object is not checked for existence.
func (c *Client) PresignDownload(ctx context.Context, key, filename string, ttl time.Duration) (string, error) {
	input := &s3.GetObjectInput{
		Bucket: aws.String(c.bucket),
		Key:    aws.String(key),
	}
	if filename != "" {
		input.ResponseContentDisposition = aws.String(mime.FormatMediaType("attachment", map[string]string{"filename": filename}))
	}

	req, err := c.presign.PresignGetObject(ctx, input, s3.WithPresignExpires(ttl))
	if err != nil {
		return "", err
	}
	return req.URL, nil
}
