package storage

import (
	"context"
	"fmt"
	"path"
	"strings"

	"github.com/gofiber/fiber/v2/log"
	"github.com/google/uuid"

	"github.com/ManuelReschke/PixelShop/internal/pkg/config"
	"github.com/ManuelReschke/PixelShop/internal/pkg/jobqueue"
)

// Stored identifies an uploaded file. PublicID is what Delete expects back.
type Stored struct {
	URL      string `json:"url"`
	PublicID string `json:"publicId"`
}

// FileStore keeps uploaded images.
type FileStore interface {
	Upload(ctx context.Context, data []byte, folder, ext string) (Stored, error)
	Delete(ctx context.Context, publicID string) error
}

// Enqueuer schedules background jobs.
type Enqueuer interface {
	EnqueueJob(ctx context.Context, jobType jobqueue.JobType, payload map[string]interface{}) (*jobqueue.Job, error)
}

// New builds the store selected by STORAGE_DRIVER.
func New(ctx context.Context, cfg config.Storage, dev bool) (FileStore, error) {
	switch cfg.Driver {
	case "s3":
		return NewS3Store(ctx, cfg, dev)
	case "local", "":
		return NewLocalStore(cfg.LocalPath, cfg.LocalBaseURL)
	default:
		return nil, fmt.Errorf("unknown storage driver %q", cfg.Driver)
	}
}

// objectKey returns <folder>/<uuid><ext>.
func objectKey(folder, ext string) string {
	folder = strings.Trim(folder, "/")
	if ext != "" && !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}
	return path.Join(folder, uuid.NewString()+strings.ToLower(ext))
}

func contentType(ext string) string {
	switch strings.ToLower(ext) {
	case ".jpg", ".jpeg":
		return "image/jpeg"
	case ".png":
		return "image/png"
	case ".gif":
		return "image/gif"
	case ".webp":
		return "image/webp"
	default:
		return "application/octet-stream"
	}
}

// BestEffortDelete releases a stored file without failing the caller. When the
// store refuses and a queue is given, the removal is retried as a delete_file job.
func BestEffortDelete(ctx context.Context, store FileStore, publicID string, queue Enqueuer) {
	if publicID == "" || store == nil {
		return
	}
	err := store.Delete(ctx, publicID)
	if err == nil {
		return
	}

	log.Warnf("[Storage] Failed to delete %s: %v", publicID, err)
	if queue == nil {
		return
	}
	payload := jobqueue.DeleteFileJobPayload{PublicID: publicID}
	if _, qerr := queue.EnqueueJob(ctx, jobqueue.JobTypeDeleteFile, payload.ToMap()); qerr != nil {
		log.Errorf("[Storage] Failed to schedule delete retry for %s: %v", publicID, qerr)
	}
}

// RegisterDeleteHandler lets queue workers retry file removals.
func RegisterDeleteHandler(q *jobqueue.Queue, store FileStore) {
	q.RegisterHandler(jobqueue.JobTypeDeleteFile, func(ctx context.Context, job *jobqueue.Job) error {
		payload, err := jobqueue.DeleteFileJobPayloadFromMap(job.Payload)
		if err != nil {
			return fmt.Errorf("invalid delete_file payload: %w", err)
		}
		return store.Delete(ctx, payload.PublicID)
	})
}
