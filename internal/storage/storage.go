// Package storage uploads files to S3-compatible object storage and resolves
// their URLs: public ones for property media, short-lived signed ones for
// private tenant documents.
package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/rs/zerolog/log"
)

var (
	ErrDisabled    = errors.New("storage is not configured")
	ErrInvalidPath = errors.New("invalid object path")
)

type Store interface {
	Upload(ctx context.Context, objectPath, contentType string, body io.Reader) error
	PublicURL(objectPath string) string
	// SignedURL grants read access to one object for ttl.
	SignedURL(ctx context.Context, objectPath string, ttl time.Duration) (string, error)
}

type Config struct {
	Bucket    string
	Region    string
	Endpoint  string // custom endpoint for MinIO and similar
	PublicURL string // base URL objects are served from, e.g. a CDN
}

// objectPutter is the part of *s3.Client we use.
type objectPutter interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// objectSigner is the part of *s3.PresignClient we use.
type objectSigner interface {
	PresignGetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error)
}

type S3Store struct {
	client    objectPutter
	signer    objectSigner
	bucket    string
	publicURL string
}

func NewS3Store(ctx context.Context, cfg Config) (*S3Store, error) {
	awsCfg, err := config.LoadDefaultConfig(ctx, config.WithRegion(cfg.Region))
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		}
	})

	return &S3Store{
		client:    client,
		signer:    s3.NewPresignClient(client),
		bucket:    cfg.Bucket,
		publicURL: publicBaseURL(cfg),
	}, nil
}

func publicBaseURL(cfg Config) string {
	switch {
	case cfg.PublicURL != "":
		return strings.TrimRight(cfg.PublicURL, "/")
	case cfg.Endpoint != "":
		return strings.TrimRight(cfg.Endpoint, "/") + "/" + cfg.Bucket
	default:
		return fmt.Sprintf("https://%s.s3.%s.amazonaws.com", cfg.Bucket, cfg.Region)
	}
}

func (s *S3Store) Upload(ctx context.Context, objectPath, contentType string, body io.Reader) error {
	if err := ValidatePath(objectPath); err != nil {
		return err
	}

	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(objectPath),
		Body:        body,
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return fmt.Errorf("s3 put %s: %w", objectPath, err)
	}

	log.Info().Str("bucket", s.bucket).Str("path", objectPath).Msg("object uploaded")
	return nil
}

func (s *S3Store) PublicURL(objectPath string) string {
	return s.publicURL + "/" + strings.TrimLeft(objectPath, "/")
}

func (s *S3Store) SignedURL(ctx context.Context, objectPath string, ttl time.Duration) (string, error) {
	if err := ValidatePath(objectPath); err != nil {
		return "", err
	}

	req, err := s.signer.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(objectPath),
	}, s3.WithPresignExpires(ttl))
	if err != nil {
		return "", fmt.Errorf("s3 presign %s: %w", objectPath, err)
	}
	return req.URL, nil
}

// ValidatePath rejects absolute paths and any path that escapes its prefix.
func ValidatePath(objectPath string) error {
	if objectPath == "" || strings.HasPrefix(objectPath, "/") {
		return ErrInvalidPath
	}
	if path.Clean(objectPath) != objectPath {
		return ErrInvalidPath
	}
	for _, part := range strings.Split(objectPath, "/") {
		if part == ".." || part == "." {
			return ErrInvalidPath
		}
	}
	return nil
}

// Disabled is used when no bucket is configured.
type Disabled struct{}

func (Disabled) Upload(ctx context.Context, objectPath, contentType string, body io.Reader) error {
	return ErrDisabled
}

func (Disabled) PublicURL(objectPath string) string {
	return ""
}

func (Disabled) SignedURL(ctx context.Context, objectPath string, ttl time.Duration) (string, error) {
	return "", ErrDisabled
}
