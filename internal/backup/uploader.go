// Package backup ships transcript snapshots to S3-compatible storage.
// When no bucket is configured the NoopUploader is used and snapshots stay
// on local disk only.
package backup

import (
	"context"
	"fmt"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/hyperengineering/turtlesoup/internal/config"
)

// CurrentObject is the object key holding the latest transcript snapshot.
const CurrentObject = "transcript/snapshot/current.db"

// Uploader copies a local snapshot file to remote storage.
type Uploader interface {
	Upload(ctx context.Context, objectName, filePath string) error
}

// s3Client is the subset of minio.Client used by S3Uploader.
type s3Client interface {
	FPutObject(ctx context.Context, bucket, objectName, filePath string) error
}

type minioClientWrapper struct {
	client *minio.Client
}

func (w *minioClientWrapper) FPutObject(ctx context.Context, bucket, objectName, filePath string) error {
	_, err := w.client.FPutObject(ctx, bucket, objectName, filePath, minio.PutObjectOptions{
		ContentType: "application/vnd.sqlite3",
	})
	return err
}

// S3Uploader uploads snapshots to an S3-compatible bucket.
type S3Uploader struct {
	client s3Client
	bucket string
}

// Upload stores the file at filePath under objectName.
func (u *S3Uploader) Upload(ctx context.Context, objectName, filePath string) error {
	if err := u.client.FPutObject(ctx, u.bucket, objectName, filePath); err != nil {
		return fmt.Errorf("upload snapshot to S3: %w", err)
	}
	return nil
}

// NoopUploader leaves snapshots local.
type NoopUploader struct{}

// Upload does nothing.
func (NoopUploader) Upload(ctx context.Context, objectName, filePath string) error {
	return nil
}

// NewUploader returns a NoopUploader when cfg.Bucket is empty and an
// S3Uploader otherwise. No network call is made here.
func NewUploader(cfg config.BackupConfig) (Uploader, error) {
	if cfg.Bucket == "" {
		return NoopUploader{}, nil
	}

	useSSL := true
	if cfg.UseSSL != nil {
		useSSL = *cfg.UseSSL
	}

	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: useSSL,
		Region: cfg.Region,
	})
	if err != nil {
		return nil, fmt.Errorf("create S3 client: %w", err)
	}

	return &S3Uploader{
		client: &minioClientWrapper{client: client},
		bucket: cfg.Bucket,
	}, nil
}
