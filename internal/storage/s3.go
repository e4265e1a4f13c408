// Package storage uploads accommodation images to S3.
package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"

	"github.com/studentacc/accommodation-booking/internal/config"
)

var (
	ErrDisabled        = errors.New("image storage is not configured")
	ErrUnsupportedType = errors.New("unsupported image type")
	ErrTooLarge        = errors.New("image too large")
)

// allowed maps a sniffed content type to the object key extension.
var allowed = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/webp": ".webp",
	"image/gif":  ".gif",
}

type s3API interface {
	PutObject(ctx context.Context, in *s3.PutObjectInput, opts ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// S3 stores images under accommodations/<id>/<uuid><ext> and returns
// their public URL.
type S3 struct {
	client   s3API
	bucket   string
	baseURL  string
	maxBytes int64
}

// NewS3 returns an uploader for cfg.  Without a bucket every upload fails
// with ErrDisabled.
func NewS3(ctx context.Context, cfg config.StorageConfig) (*S3, error) {
	u := &S3{bucket: cfg.Bucket, baseURL: strings.TrimRight(cfg.PublicBaseURL, "/"), maxBytes: cfg.MaxBytes}
	if cfg.Bucket == "" {
		return u, nil
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.Region))
	if err != nil {
		return nil, fmt.Errorf("aws config: %w", err)
	}
	u.client = s3.NewFromConfig(awsCfg)
	return u, nil
}

// UploadAccommodationImage reads at most maxBytes from r, checks that the
// bytes are an accepted image and stores them.  The content type is
// sniffed from the data, not taken from the client.
func (u *S3) UploadAccommodationImage(ctx context.Context, accommodationID uint64, r io.Reader) (string, error) {
	if u.client == nil {
		return "", ErrDisabled
	}
	data, err := io.ReadAll(io.LimitReader(r, u.maxBytes+1))
	if err != nil {
		return "", err
	}
	if int64(len(data)) > u.maxBytes {
		return "", ErrTooLarge
	}
	ctype := http.DetectContentType(data)
	ext, ok := allowed[ctype]
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrUnsupportedType, ctype)
	}

	key := fmt.Sprintf("accommodations/%d/%s%s", accommodationID, uuid.NewString(), ext)
	if _, err := u.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(u.bucket),
		Key:           aws.String(key),
		Body:          bytes.NewReader(data),
		ContentType:   aws.String(ctype),
		ContentLength: aws.Int64(int64(len(data))),
		CacheControl:  aws.String("public, max-age=86400"),
	}); err != nil {
		return "", fmt.Errorf("put object: %w", err)
	}
	return u.baseURL + "/" + key, nil
}
