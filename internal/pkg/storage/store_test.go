package storage

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ManuelReschke/PixelShop/internal/pkg/config"
	"github.com/ManuelReschke/PixelShop/internal/pkg/jobqueue"
)

func TestLocalStoreUploadAndDelete(t *testing.T) {
	root := t.TempDir()
	store, err := NewLocalStore(root, "/uploads/")
	require.NoError(t, err)
	ctx := context.Background()

	stored, err := store.Upload(ctx, []byte("png-bytes"), "sprites", "PNG")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(stored.PublicID, "sprites/"))
	assert.True(t, strings.HasSuffix(stored.PublicID, ".png"))
	assert.Equal(t, "/uploads/"+stored.PublicID, stored.URL)

	data, err := os.ReadFile(filepath.Join(root, stored.PublicID))
	require.NoError(t, err)
	assert.Equal(t, "png-bytes", string(data))

	require.NoError(t, store.Delete(ctx, stored.PublicID))
	_, err = os.Stat(filepath.Join(root, stored.PublicID))
	assert.True(t, os.IsNotExist(err))

	// already gone is fine
	require.NoError(t, store.Delete(ctx, stored.PublicID))
}

func TestLocalStoreStaysInsideRoot(t *testing.T) {
	root := t.TempDir()
	store, err := NewLocalStore(filepath.Join(root, "uploads"), "/uploads")
	require.NoError(t, err)

	outside := filepath.Join(root, "keep.txt")
	require.NoError(t, os.WriteFile(outside, []byte("x"), 0o644))

	require.NoError(t, store.Delete(context.Background(), "../keep.txt"))
	_, err = os.Stat(outside)
	assert.NoError(t, err)

	assert.Error(t, store.Delete(context.Background(), "/"))
}

func TestNewSelectsDriver(t *testing.T) {
	store, err := New(context.Background(), config.Storage{Driver: "local", LocalPath: t.TempDir(), LocalBaseURL: "/uploads"}, true)
	require.NoError(t, err)
	assert.IsType(t, &LocalStore{}, store)

	_, err = New(context.Background(), config.Storage{Driver: "ftp"}, true)
	assert.Error(t, err)

	_, err = New(context.Background(), config.Storage{Driver: "s3"}, true)
	assert.Error(t, err, "s3 needs a bucket")
}

type failingStore struct{ deletes []string }

func (f *failingStore) Upload(ctx context.Context, data []byte, folder, ext string) (Stored, error) {
	return Stored{}, errors.New("read only")
}

func (f *failingStore) Delete(ctx context.Context, publicID string) error {
	f.deletes = append(f.deletes, publicID)
	return errors.New("unavailable")
}

type recordingQueue struct{ jobs []map[string]interface{} }

func (q *recordingQueue) EnqueueJob(ctx context.Context, jobType jobqueue.JobType, payload map[string]interface{}) (*jobqueue.Job, error) {
	q.jobs = append(q.jobs, payload)
	return &jobqueue.Job{Type: jobType, Payload: payload}, nil
}

func TestBestEffortDelete(t *testing.T) {
	store := &failingStore{}
	queue := &recordingQueue{}

	BestEffortDelete(context.Background(), store, "", queue)
	assert.Empty(t, store.deletes)

	BestEffortDelete(context.Background(), store, "sprites/a.png", nil)
	assert.Equal(t, []string{"sprites/a.png"}, store.deletes)
	assert.Empty(t, queue.jobs)

	BestEffortDelete(context.Background(), store, "sprites/b.png", queue)
	require.Len(t, queue.jobs, 1)
	assert.Equal(t, "sprites/b.png", queue.jobs[0]["public_id"])
}

func TestPublicBase(t *testing.T) {
	assert.Equal(t, "https://cdn.example.com", publicBase(config.Storage{S3PublicURL: "https://cdn.example.com/"}))
	assert.Equal(t, "http://minio:9000/pix", publicBase(config.Storage{S3EndpointURL: "http://minio:9000", S3Bucket: "pix"}))
	assert.Equal(t, "https://pix.s3.eu-west-1.amazonaws.com", publicBase(config.Storage{S3Bucket: "pix", S3Region: "eu-west-1"}))
}
