package backup

import (
	"context"
	"errors"
	"testing"

	"github.com/hyperengineering/turtlesoup/internal/config"
)

// --- NoopUploader Tests ---

func TestNoopUploader_Upload_IsNoOp(t *testing.T) {
	var u NoopUploader
	if err := u.Upload(context.Background(), CurrentObject, "/some/path"); err != nil {
		t.Errorf("NoopUploader.Upload() should not error, got %v", err)
	}
}

// --- NewUploader factory tests ---

func TestNewUploader_EmptyBucket_ReturnsNoopUploader(t *testing.T) {
	u, err := NewUploader(config.BackupConfig{Bucket: ""})
	if err != nil {
		t.Fatalf("NewUploader() error = %v", err)
	}
	if _, ok := u.(NoopUploader); !ok {
		t.Errorf("expected NoopUploader, got %T", u)
	}
}

func TestNewUploader_WithBucket_ReturnsS3Uploader(t *testing.T) {
	useSSL := false
	u, err := NewUploader(config.BackupConfig{
		Bucket:    "soup-backups",
		Endpoint:  "localhost:9000",
		Region:    "us-east-1",
		UseSSL:    &useSSL,
		AccessKey: "minioadmin",
		SecretKey: "minioadmin",
	})
	if err != nil {
		t.Fatalf("NewUploader() error = %v", err)
	}

	s3u, ok := u.(*S3Uploader)
	if !ok {
		t.Fatalf("expected *S3Uploader, got %T", u)
	}
	if s3u.bucket != "soup-backups" {
		t.Errorf("bucket = %q, want %q", s3u.bucket, "soup-backups")
	}
}

func TestNewUploader_InvalidEndpoint(t *testing.T) {
	_, err := NewUploader(config.BackupConfig{
		Bucket:   "soup-backups",
		Endpoint: "http://localhost:9000/path",
	})
	if err == nil {
		t.Error("NewUploader() expected error for endpoint with scheme and path")
	}
}

// --- S3Uploader with mock client tests ---

// mockS3Client implements s3Client for testing.
type mockS3Client struct {
	uploadCalled   bool
	uploadErr      error
	lastBucket     string
	lastObjectName string
	lastFilePath   string
}

func (m *mockS3Client) FPutObject(ctx context.Context, bucket, objectName, filePath string) error {
	m.uploadCalled = true
	m.lastBucket = bucket
	m.lastObjectName = objectName
	m.lastFilePath = filePath
	return m.uploadErr
}

func TestS3Uploader_Upload_Success(t *testing.T) {
	mock := &mockS3Client{}
	u := &S3Uploader{client: mock, bucket: "soup-backups"}

	if err := u.Upload(context.Background(), CurrentObject, "/data/snapshot.db"); err != nil {
		t.Fatalf("Upload() error = %v", err)
	}

	if !mock.uploadCalled {
		t.Error("expected FPutObject to be called")
	}
	if mock.lastBucket != "soup-backups" {
		t.Errorf("bucket = %q, want %q", mock.lastBucket, "soup-backups")
	}
	if mock.lastObjectName != "transcript/snapshot/current.db" {
		t.Errorf("objectName = %q", mock.lastObjectName)
	}
	if mock.lastFilePath != "/data/snapshot.db" {
		t.Errorf("filePath = %q", mock.lastFilePath)
	}
}

func TestS3Uploader_Upload_Error(t *testing.T) {
	mock := &mockS3Client{uploadErr: errors.New("network timeout")}
	u := &S3Uploader{client: mock, bucket: "soup-backups"}

	err := u.Upload(context.Background(), CurrentObject, "/data/snapshot.db")
	if err == nil {
		t.Fatal("Upload() expected error, got nil")
	}
	if !errors.Is(err, mock.uploadErr) {
		t.Errorf("expected wrapped network timeout error, got %v", err)
	}
}
