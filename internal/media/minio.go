package media

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

type MinioOptions struct {
	Endpoint       string
	PublicEndpoint string
	AccessKey      string
	SecretKey      string
	Bucket         string
	UseSSL         bool
}

// Minio stores files in a public-read bucket.
type Minio struct {
	client *minio.Client
	bucket string
	public string
}

// NewMinio creates the client. It does not contact the server.
func NewMinio(opts MinioOptions) (*Minio, error) {
	client, err := minio.New(opts.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(opts.AccessKey, opts.SecretKey, ""),
		Secure: opts.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create minio client: %w", err)
	}

	public := strings.TrimRight(opts.PublicEndpoint, "/")
	if public == "" {
		scheme := "http"
		if opts.UseSSL {
			scheme = "https"
		}
		public = scheme + "://" + opts.Endpoint
	}

	return &Minio{client: client, bucket: opts.Bucket, public: public}, nil
}

// EnsureBucket creates the bucket with an anonymous read policy when it does
// not exist yet.
func (m *Minio) EnsureBucket(ctx context.Context, log *slog.Logger) error {
	exists, err := m.client.BucketExists(ctx, m.bucket)
	if err != nil {
		return fmt.Errorf("bucket check: %w", err)
	}
	if exists {
		return nil
	}

	if err := m.client.MakeBucket(ctx, m.bucket, minio.MakeBucketOptions{}); err != nil {
		return fmt.Errorf("create bucket: %w", err)
	}
	if err := m.client.SetBucketPolicy(ctx, m.bucket, publicReadPolicy(m.bucket)); err != nil {
		return fmt.Errorf("set bucket policy: %w", err)
	}
	log.Info("bucket created", "bucket", m.bucket)
	return nil
}

func (m *Minio) Put(ctx context.Context, name string, r io.Reader, size int64, contentType string) error {
	_, err := m.client.PutObject(ctx, m.bucket, name, r, size, minio.PutObjectOptions{ContentType: contentType})
	if err != nil {
		return fmt.Errorf("upload %s: %w", name, err)
	}
	return nil
}

func (m *Minio) Remove(ctx context.Context, name string) error {
	if err := m.client.RemoveObject(ctx, m.bucket, name, minio.RemoveObjectOptions{}); err != nil {
		return fmt.Errorf("remove %s: %w", name, err)
	}
	return nil
}

func (m *Minio) PublicURL(name string) string {
	return m.public + "/" + m.bucket + "/" + strings.TrimPrefix(name, "/")
}

func (m *Minio) Enabled() bool { return true }

func publicReadPolicy(bucket string) string {
	return `{
	"Version": "2012-10-17",
	"Statement": [
		{
			"Effect": "Allow",
			"Principal": {"AWS": ["*"]},
			"Action": ["s3:GetObject"],
			"Resource": ["arn:aws:s3:::` + bucket + `/*"]
		}
	]
}`
}
