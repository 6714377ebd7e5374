package photo

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// S3Config holds connection settings for an S3-compatible photo bucket.
type S3Config struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	Region    string
	UseSSL    bool
}

// S3Store keeps photos in an S3-compatible bucket via MinIO.
type S3Store struct {
	client *minio.Client
	bucket string
	region string
	now    func() time.Time
}

// NewS3Store creates a MinIO-backed photo store.
func NewS3Store(cfg S3Config) (*S3Store, error) {
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
		Region: cfg.Region,
	})
	if err != nil {
		return nil, fmt.Errorf("init minio: %w", err)
	}
	return &S3Store{
		client: client,
		bucket: cfg.Bucket,
		region: cfg.Region,
		now:    time.Now,
	}, nil
}

// EnsureBucket makes sure the photo bucket exists before use.
func (s *S3Store) EnsureBucket(ctx context.Context) error {
	exists, err := s.client.BucketExists(ctx, s.bucket)
	if err != nil {
		return fmt.Errorf("check bucket %s: %w", s.bucket, err)
	}
	if !exists {
		if err := s.client.MakeBucket(ctx, s.bucket, minio.MakeBucketOptions{Region: s.region}); err != nil {
			return fmt.Errorf("make bucket %s: %w", s.bucket, err)
		}
	}
	return nil
}

// Save uploads the photo and returns its object key as reference.
func (s *S3Store) Save(ctx context.Context, content []byte, contentType string) (string, error) {
	key := fmt.Sprintf("photo_%d%s", s.now().UnixMilli(), extensionFor(contentType))
	opts := minio.PutObjectOptions{ContentType: contentType}
	_, err := s.client.PutObject(ctx, s.bucket, key, bytes.NewReader(content), int64(len(content)), opts)
	if err != nil {
		return "", fmt.Errorf("upload photo: %w", err)
	}
	return key, nil
}

// Load fetches photo bytes by object key.
func (s *S3Store) Load(ctx context.Context, ref string) ([]byte, error) {
	obj, err := s.client.GetObject(ctx, s.bucket, ref, minio.GetObjectOptions{})
	if err != nil {
		return nil, fmt.Errorf("get photo %s: %w", ref, err)
	}
	defer obj.Close()
	buf, err := io.ReadAll(obj)
	if err != nil {
		return nil, fmt.Errorf("read photo %s: %w", ref, err)
	}
	return buf, nil
}
