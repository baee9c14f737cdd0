package worker

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
)

type mockSnapshotter struct {
	mu    sync.Mutex
	dests []string
	err   error
}

func (m *mockSnapshotter) Snapshot(ctx context.Context, dest string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.dests = append(m.dests, dest)
	return m.err
}

func (m *mockSnapshotter) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.dests)
}

type mockUploader struct {
	mu      sync.Mutex
	objects []string
	files   []string
	err     error
}

func (m *mockUploader) Upload(ctx context.Context, objectName, filePath string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.objects = append(m.objects, objectName)
	m.files = append(m.files, filePath)
	return m.err
}

func TestBackupWorker_Backup(t *testing.T) {
	store := &mockSnapshotter{}
	up := &mockUploader{}
	w := NewBackupWorker(store, up, "/data/snap.db", "transcript/current.db", time.Hour)

	if err := w.Backup(context.Background()); err != nil {
		t.Fatalf("Backup() error = %v", err)
	}

	if len(store.dests) != 1 || store.dests[0] != "/data/snap.db" {
		t.Errorf("snapshot dests = %v", store.dests)
	}
	if len(up.objects) != 1 || up.objects[0] != "transcript/current.db" || up.files[0] != "/data/snap.db" {
		t.Errorf("uploads = %v / %v", up.objects, up.files)
	}
}

func TestBackupWorker_SnapshotFailureSkipsUpload(t *testing.T) {
	snapErr := errors.New("disk full")
	store := &mockSnapshotter{err: snapErr}
	up := &mockUploader{}
	w := NewBackupWorker(store, up, "/data/snap.db", "transcript/current.db", time.Hour)

	if err := w.Backup(context.Background()); !errors.Is(err, snapErr) {
		t.Errorf("Backup() error = %v, want %v", err, snapErr)
	}
	if len(up.objects) != 0 {
		t.Errorf("upload attempted after failed snapshot: %v", up.objects)
	}
}

func TestBackupWorker_UploadFailure(t *testing.T) {
	upErr := errors.New("access denied")
	w := NewBackupWorker(&mockSnapshotter{}, &mockUploader{err: upErr}, "/data/snap.db", "o", time.Hour)

	if err := w.Backup(context.Background()); !errors.Is(err, upErr) {
		t.Errorf("Backup() error = %v, want %v", err, upErr)
	}
}

func TestBackupWorker_RunBacksUpImmediatelyAndOnTick(t *testing.T) {
	store := &mockSnapshotter{}
	w := NewBackupWorker(store, &mockUploader{}, "/data/snap.db", "o", 10*time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		w.Run(ctx)
		close(done)
	}()

	deadline := time.After(time.Second)
	for store.count() < 2 {
		select {
		case <-deadline:
			cancel()
			t.Fatalf("backups = %d, want at least 2", store.count())
		case <-time.After(5 * time.Millisecond):
		}
	}

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Run did not return after cancel")
	}
}

func TestBackupWorker_RunSurvivesFailures(t *testing.T) {
	store := &mockSnapshotter{err: errors.New("disk full")}
	w := NewBackupWorker(store, &mockUploader{}, "/data/snap.db", "o", 10*time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	w.Run(ctx)

	if store.count() < 2 {
		t.Errorf("backups attempted = %d, want retries after failure", store.count())
	}
}
