package media

import (
	"context"
	"errors"

	"github.com/gofiber/fiber/v2/log"

	"github.com/ManuelReschke/PixelShop/internal/pkg/apperr"
	"github.com/ManuelReschke/PixelShop/internal/pkg/imageprocessor"
	"github.com/ManuelReschke/PixelShop/internal/pkg/storage"
	"github.com/ManuelReschke/PixelShop/internal/pkg/upload"
)

// File is an uploaded image as received from a multipart form.
type File struct {
	Filename string
	Data     []byte
}

func (f *File) Empty() bool {
	return f == nil || len(f.Data) == 0
}

// Preparer normalises raw image bytes before they are stored.
type Preparer interface {
	Prepare(filename string, data []byte) (*imageprocessor.Prepared, error)
}

// Uploader validates, normalises and stores images, and releases them again.
type Uploader struct {
	files  storage.FileStore
	images Preparer
	queue  storage.Enqueuer
}

// NewUploader wires the upload pipeline. queue may be nil, in which case failed
// deletions are only logged.
func NewUploader(files storage.FileStore, images Preparer, queue storage.Enqueuer) *Uploader {
	return &Uploader{files: files, images: images, queue: queue}
}

// Upload stores f below folder. Files that are not acceptable images fail with a 400.
func (u *Uploader) Upload(ctx context.Context, f *File, folder string) (storage.Stored, error) {
	head := f.Data
	if len(head) > upload.SniffLen {
		head = head[:upload.SniffLen]
	}
	if _, err := upload.ValidateImageBySniff(f.Filename, head); err != nil {
		return storage.Stored{}, apperr.BadRequest(err.Error())
	}

	prepared, err := u.images.Prepare(f.Filename, f.Data)
	if errors.Is(err, imageprocessor.ErrTooLarge) || errors.Is(err, imageprocessor.ErrUndecodable) {
		return storage.Stored{}, apperr.BadRequest(err.Error())
	}
	if err != nil {
		return storage.Stored{}, err
	}

	stored, err := u.files.Upload(ctx, prepared.Data, folder, prepared.Ext)
	if err != nil {
		return storage.Stored{}, err
	}
	log.Debugf("[Storage] Stored %s as %s (%dx%d)", f.Filename, stored.PublicID, prepared.Width, prepared.Height)
	return stored, nil
}

// Release deletes a stored image without failing the caller.
func (u *Uploader) Release(ctx context.Context, publicID string) {
	storage.BestEffortDelete(ctx, u.files, publicID, u.queue)
}
