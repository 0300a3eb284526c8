// Package storage keeps scan images in S3 and hands out presigned links.
package storage

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/arnavs06/HackNYU/internal/config"
)

// ImageStore stores images and resolves them to fetchable URLs
type ImageStore interface {
	Put(ctx context.Context, key string, data []byte, contentType string) (string, error)
	URL(ctx context.Context, key string) (string, error)
}

// ObjectAPI is the part of the S3 client the store uses
type ObjectAPI interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// S3Store implements ImageStore on an S3 bucket
type S3Store struct {
	bucket  string
	ttl     time.Duration
	objects ObjectAPI
	presign *s3.PresignClient
}

// NewS3Store loads the default AWS credentials chain for cfg.Region
func NewS3Store(ctx context.Context, cfg config.StorageConfig) (*S3Store, error) {
	if cfg.Bucket == "" {
		return nil, fmt.Errorf("storage bucket is required")
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.Region))
	if err != nil {
		return nil, fmt.Errorf("unable to load SDK config: %w", err)
	}
	client := s3.NewFromConfig(awsCfg)
	return newS3Store(cfg, client, s3.NewPresignClient(client)), nil
}

func newS3Store(cfg config.StorageConfig, objects ObjectAPI, presign *s3.PresignClient) *S3Store {
	ttl := cfg.PresignTTL
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &S3Store{bucket: cfg.Bucket, ttl: ttl, objects: objects, presign: presign}
}

// Put uploads data under key and returns the key
func (s *S3Store) Put(ctx context.Context, key string, data []byte, contentType string) (string, error) {
	_, err := s.objects.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload %s: %w", key, err)
	}
	return key, nil
}

// URL returns a presigned GET link for key
func (s *S3Store) URL(ctx context.Context, key string) (string, error) {
	req, err := s.presign.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	}, s3.WithPresignExpires(s.ttl))
	if err != nil {
		return "", fmt.Errorf("failed to sign request: %w", err)
	}
	return req.URL, nil
}

// ScanImageKey is the object key of a scan's garment image
func ScanImageKey(scanID string) string {
	return "scans/" + scanID + ".jpg"
}
