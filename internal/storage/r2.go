package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"
)

// defaultPresignExpiry applies when URL is asked for a private link without
// an expiry.
const defaultPresignExpiry = 15 * time.Minute

// R2Storage stores objects in a Cloudflare R2 bucket via the S3 API.
type R2Storage struct {
	client    *s3.Client
	presign   *s3.PresignClient
	bucket    string
	publicURL string
	logger    *slog.Logger
}

// NewR2Storage builds an S3 client pointed at the account's R2 endpoint.
func NewR2Storage(cfg R2Config, logger *slog.Logger) (*R2Storage, error) {
	if cfg.AccountID == "" || cfg.BucketName == "" {
		return nil, errors.New("r2 storage needs an account id and a bucket name")
	}
	region := cfg.Region
	if region == "" {
		region = "auto"
	}
	endpoint := fmt.Sprintf("https://%s.r2.cloudflarestorage.com", cfg.AccountID)

	client := s3.NewFromConfig(aws.Config{
		Region:      region,
		Credentials: credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
	}, func(o *s3.Options) {
		o.BaseEndpoint = aws.String(endpoint)
		o.UsePathStyle = true
	})

	logger.Info("initialized R2 storage", "bucket", cfg.BucketName, "endpoint", endpoint)

	return &R2Storage{
		client:    client,
		presign:   s3.NewPresignClient(client),
		bucket:    cfg.BucketName,
		publicURL: strings.TrimSuffix(cfg.PublicURL, "/"),
		logger:    logger,
	}, nil
}

func (s *R2Storage) Put(ctx context.Context, key string, data io.Reader, opts PutOptions) error {
	if !validKey(key) {
		return &StorageError{Op: "Put", Key: key, Err: ErrInvalidKey}
	}

	// Buffer so the size limit is enforced before anything is uploaded and the
	// SDK gets a seekable body with a known length.
	src := data
	if opts.MaxSize > 0 {
		src = io.LimitReader(data, opts.MaxSize+1)
	}
	body, err := io.ReadAll(src)
	if err != nil {
		return &StorageError{Op: "Put", Key: key, Err: err}
	}
	if opts.MaxSize > 0 && int64(len(body)) > opts.MaxSize {
		return &StorageError{Op: "Put", Key: key, Err: ErrTooLarge}
	}

	contentType := opts.ContentType
	if contentType == "" {
		contentType = DetectContentType("", key, nil)
	}

	out, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(s.bucket),
		Key:           aws.String(key),
		Body:          bytes.NewReader(body),
		ContentLength: aws.Int64(int64(len(body))),
		ContentType:   aws.String(contentType),
	})
	if err != nil {
		return &StorageError{Op: "Put", Key: key, Err: translateS3Error(err)}
	}

	s.logger.Debug("stored object in R2", "key", key, "etag", aws.ToString(out.ETag), "size", len(body))
	return nil
}

func (s *R2Storage) Get(ctx context.Context, key string) (io.ReadCloser, ObjectInfo, error) {
	if !validKey(key) {
		return nil, ObjectInfo{}, &StorageError{Op: "Get", Key: key, Err: ErrInvalidKey}
	}
	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, ObjectInfo{}, &StorageError{Op: "Get", Key: key, Err: translateS3Error(err)}
	}
	return out.Body, ObjectInfo{
		Key:          key,
		Size:         aws.ToInt64(out.ContentLength),
		ContentType:  aws.ToString(out.ContentType),
		LastModified: aws.ToTime(out.LastModified),
	}, nil
}

func (s *R2Storage) Delete(ctx context.Context, key string) error {
	if !validKey(key) {
		return &StorageError{Op: "Delete", Key: key, Err: ErrInvalidKey}
	}
	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		if mapped := translateS3Error(err); !errors.Is(mapped, ErrNotFound) {
			return &StorageError{Op: "Delete", Key: key, Err: mapped}
		}
	}
	return nil
}

func (s *R2Storage) URL(ctx context.Context, key string, expires time.Duration) (string, error) {
	if !validKey(key) {
		return "", &StorageError{Op: "URL", Key: key, Err: ErrInvalidKey}
	}
	if s.publicURL != "" && expires == 0 {
		return s.publicURL + "/" + key, nil
	}
	if expires == 0 {
		expires = defaultPresignExpiry
	}
	req, err := s.presign.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	}, s3.WithPresignExpires(expires))
	if err != nil {
		return "", &StorageError{Op: "URL", Key: key, Err: err}
	}
	return req.URL, nil
}

// translateS3Error maps SDK errors onto the package sentinels.
func translateS3Error(err error) error {
	var notFound *types.NotFound
	var noSuchKey *types.NoSuchKey
	if errors.As(err, &notFound) || errors.As(err, &noSuchKey) {
		return ErrNotFound
	}

	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.ErrorCode() {
		case "NotFound", "NoSuchKey":
			return ErrNotFound
		case "AccessDenied", "Forbidden":
			return ErrAccessDenied
		}
	}

	var statusErr interface{ HTTPStatusCode() int }
	if errors.As(err, &statusErr) {
		switch statusErr.HTTPStatusCode() {
		case http.StatusNotFound:
			return ErrNotFound
		case http.StatusForbidden:
			return ErrAccessDenied
		}
	}

	return fmt.Errorf("r2 operation failed: %w", err)
}
