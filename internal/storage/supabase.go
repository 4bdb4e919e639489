package storage

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/awserr"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/aws/aws-sdk-go/service/s3/s3manager"
)

// SupabaseStorage implements ObjectStore for Supabase Storage.
// Supabase exposes an S3-compatible endpoint, so we use the same SDK.
type SupabaseStorage struct {
	client   *s3.S3
	uploader *s3manager.Uploader
	bucket   string
	baseURL  string
}

// NewSupabaseStorage creates a new Supabase Storage instance
func NewSupabaseStorage(cfg Config) (*SupabaseStorage, error) {
	// Endpoint format: https://<project>.supabase.co/storage/v1/s3
	if cfg.Endpoint == "" {
		return nil, fmt.Errorf("endpoint is required for Supabase storage")
	}
	if cfg.Bucket == "" {
		return nil, fmt.Errorf("bucket is required for Supabase storage")
	}

	region := cfg.Region
	if region == "" {
		region = "auto"
	}

	awsConfig := &aws.Config{
		Region:           aws.String(region),
		Endpoint:         aws.String(cfg.Endpoint),
		Credentials:      credentials.NewStaticCredentials(cfg.AccessKey, cfg.SecretKey, ""),
		S3ForcePathStyle: aws.Bool(true),
	}

	sess, err := session.NewSession(awsConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create storage session: %w", err)
	}

	client := s3.New(sess)
	uploader := s3manager.NewUploader(sess)

	baseURL := strings.TrimSuffix(cfg.BaseURL, "/")
	if baseURL == "" {
		// Public object URL derived from the S3 endpoint
		baseURL = strings.TrimSuffix(cfg.Endpoint, "/s3") + "/object/public"
	}

	return &SupabaseStorage{
		client:   client,
		uploader: uploader,
		bucket:   cfg.Bucket,
		baseURL:  baseURL,
	}, nil
}

// EnsureBucket checks the bucket and creates it when missing. A concurrent
// create losing the race reports "already present", not an error.
func (s *SupabaseStorage) EnsureBucket(ctx context.Context) (bool, error) {
	_, err := s.client.HeadBucketWithContext(ctx, &s3.HeadBucketInput{
		Bucket: aws.String(s.bucket),
	})
	if err == nil {
		return false, nil
	}

	_, err = s.client.CreateBucketWithContext(ctx, &s3.CreateBucketInput{
		Bucket: aws.String(s.bucket),
	})
	if err != nil {
		var aerr awserr.Error
		if awsErrAs(err, &aerr) {
			switch aerr.Code() {
			case s3.ErrCodeBucketAlreadyExists, s3.ErrCodeBucketAlreadyOwnedByYou:
				return false, nil
			}
		}
		return false, fmt.Errorf("failed to create bucket %s: %w", s.bucket, err)
	}

	return true, nil
}

// Save uploads a file to Supabase Storage
func (s *SupabaseStorage) Save(ctx context.Context, path string, reader io.Reader, contentType string) error {
	input := &s3manager.UploadInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(path),
		Body:        reader,
		ContentType: aws.String(contentType),
	}

	_, err := s.uploader.UploadWithContext(ctx, input)
	if err != nil {
		return fmt.Errorf("failed to upload to storage: %w", err)
	}

	return nil
}

// Get retrieves a file from Supabase Storage
func (s *SupabaseStorage) Get(ctx context.Context, path string) (io.ReadCloser, error) {
	input := &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(path),
	}

	result, err := s.client.GetObjectWithContext(ctx, input)
	if err != nil {
		return nil, fmt.Errorf("failed to get from storage: %w", err)
	}

	return result.Body, nil
}

// Delete removes a file from Supabase Storage
func (s *SupabaseStorage) Delete(ctx context.Context, path string) error {
	input := &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(path),
	}

	_, err := s.client.DeleteObjectWithContext(ctx, input)
	if err != nil {
		return fmt.Errorf("failed to delete from storage: %w", err)
	}

	return nil
}

// Exists checks if a file exists in Supabase Storage
func (s *SupabaseStorage) Exists(ctx context.Context, path string) (bool, error) {
	input := &s3.HeadObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(path),
	}

	_, err := s.client.HeadObjectWithContext(ctx, input)
	if err != nil {
		return false, nil
	}

	return true, nil
}

// PublicURL returns the public URL for the file
func (s *SupabaseStorage) PublicURL(path string) string {
	return fmt.Sprintf("%s/%s/%s", s.baseURL, s.bucket, path)
}

// SignedURL returns a temporary signed URL
func (s *SupabaseStorage) SignedURL(ctx context.Context, path string, expiry time.Duration) (string, error) {
	input := &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(path),
	}

	req, _ := s.client.GetObjectRequest(input)
	req.SetContext(ctx)
	url, err := req.Presign(expiry)
	if err != nil {
		return "", fmt.Errorf("failed to generate signed URL: %w", err)
	}

	return url, nil
}

// List returns all keys under the prefix
func (s *SupabaseStorage) List(ctx context.Context, prefix string) ([]string, error) {
	input := &s3.ListObjectsV2Input{
		Bucket: aws.String(s.bucket),
		Prefix: aws.String(prefix),
	}

	var keys []string
	err := s.client.ListObjectsV2PagesWithContext(ctx, input, func(page *s3.ListObjectsV2Output, lastPage bool) bool {
		for _, obj := range page.Contents {
			keys = append(keys, aws.StringValue(obj.Key))
		}
		return true
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list storage objects: %w", err)
	}

	return keys, nil
}

// awsErrAs is errors.As narrowed to awserr.Error, kept local so call
// sites read like the SDK examples.
func awsErrAs(err error, target *awserr.Error) bool {
	aerr, ok := err.(awserr.Error)
	if !ok {
		return false
	}
	*target = aerr
	return true
}
