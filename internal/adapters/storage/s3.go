package storage

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/aws/aws-sdk-go/service/s3/s3manager"
)

// S3Store implements Store on an S3 bucket.
type S3Store struct {
	bucket   string
	region   string
	uploader *s3manager.Uploader
	client   *s3.S3
}

// S3Option applies a configuration option to the S3Store.
type S3Option func(*S3Store)

// WithRegion sets the bucket region.
func WithRegion(region string) S3Option {
	return func(s *S3Store) {
		if region != "" {
			s.region = region
		}
	}
}

// NewS3Store creates a store backed by the named bucket. Credentials
// come from the default AWS chain (env, shared config, instance role).
func NewS3Store(bucket string, opts ...S3Option) (*S3Store, error) {
	s := &S3Store{bucket: bucket, region: "us-east-1"}
	for _, opt := range opts {
		opt(s)
	}

	sess, err := session.NewSession(&aws.Config{Region: aws.String(s.region)})
	if err != nil {
		return nil, fmt.Errorf("create aws session: %w", err)
	}
	s.uploader = s3manager.NewUploader(sess)
	s.client = s3.New(sess)
	return s, nil
}

// Upload writes data under folder/name and returns the object URL.
func (s *S3Store) Upload(ctx context.Context, data []byte, folder, name string) (string, error) {
	key := folder + "/" + name
	out, err := s.uploader.UploadWithContext(ctx, &s3manager.UploadInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
		Body:   bytes.NewReader(data),
	})
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrUploadFailed, err)
	}
	return out.Location, nil
}

// Delete removes the object behind url. URLs minted by other buckets
// are rejected as not found.
func (s *S3Store) Delete(ctx context.Context, url string) (bool, error) {
	key, ok := s.keyFromURL(url)
	if !ok {
		return false, nil
	}
	_, err := s.client.DeleteObjectWithContext(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return false, fmt.Errorf("delete object %s: %w", key, err)
	}
	return true, nil
}

// keyFromURL extracts the object key from an upload location URL.
// Handles both virtual-hosted (bucket.s3.region.amazonaws.com/key) and
// path-style (s3.region.amazonaws.com/bucket/key) locations.
func (s *S3Store) keyFromURL(url string) (string, bool) {
	const host = ".amazonaws.com/"
	idx := strings.Index(url, host)
	if idx < 0 {
		return "", false
	}
	key := url[idx+len(host):]
	key = strings.TrimPrefix(key, s.bucket+"/")
	if key == "" {
		return "", false
	}
	return key, true
}
