package storage

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arnavs06/HackNYU/internal/config"
)

type fakeObjects struct {
	input *s3.PutObjectInput
	body  []byte
	err   error
}

func (f *fakeObjects) PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	f.input = params
	f.body, _ = io.ReadAll(params.Body)
	return &s3.PutObjectOutput{}, f.err
}

func newTestStore(objects ObjectAPI, ttl time.Duration) *S3Store {
	client := s3.New(s3.Options{
		Region: "us-east-1",
		Credentials: aws.CredentialsProviderFunc(func(ctx context.Context) (aws.Credentials, error) {
			return aws.Credentials{AccessKeyID: "AKIDEXAMPLE", SecretAccessKey: "secret"}, nil
		}),
	})
	return newS3Store(config.StorageConfig{Bucket: "scan-images", PresignTTL: ttl}, objects, s3.NewPresignClient(client))
}

func TestS3Store_Put(t *testing.T) {
	objects := &fakeObjects{}
	store := newTestStore(objects, 0)

	key, err := store.Put(context.Background(), ScanImageKey("abc"), []byte("jpeg"), "image/jpeg")
	require.NoError(t, err)
	assert.Equal(t, "scans/abc.jpg", key)
	assert.Equal(t, "scan-images", aws.ToString(objects.input.Bucket))
	assert.Equal(t, "image/jpeg", aws.ToString(objects.input.ContentType))
	assert.Equal(t, []byte("jpeg"), objects.body)

	objects.err = errors.New("access denied")
	_, err = store.Put(context.Background(), "k", nil, "image/jpeg")
	assert.ErrorContains(t, err, "access denied")
}

func TestS3Store_URL(t *testing.T) {
	store := newTestStore(&fakeObjects{}, 15*time.Minute)

	url, err := store.URL(context.Background(), "scans/abc.jpg")
	require.NoError(t, err)
	assert.Contains(t, url, "scan-images")
	assert.Contains(t, url, "scans/abc.jpg")
	assert.Contains(t, url, "X-Amz-Expires=900")
}

func TestNewS3Store_RequiresBucket(t *testing.T) {
	_, err := NewS3Store(context.Background(), config.StorageConfig{})
	assert.Error(t, err)
}

func TestDefaultTTL(t *testing.T) {
	store := newTestStore(&fakeObjects{}, 0)
	assert.Equal(t, time.Hour, store.ttl)
}
