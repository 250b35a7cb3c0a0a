package imageprocessor

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/png"
	"net/http"

	"github.com/disintegration/imaging"
	"github.com/gofiber/fiber/v2/log"
	_ "golang.org/x/image/webp"
)

const (
	// MaxDimension bounds width and height of accepted images.
	MaxDimension = 4096
	// MaxWorkers limits how many images are decoded at the same time.
	MaxWorkers = 3
)

var (
	ErrTooLarge    = fmt.Errorf("Image must not exceed %dx%d pixels", MaxDimension, MaxDimension)
	ErrUndecodable = errors.New("Image could not be decoded")
)

// Prepared is an image ready to be stored.
type Prepared struct {
	Data        []byte
	ContentType string
	Ext         string
	Width       int
	Height      int
}

// Processor normalises uploads. Decoding is memory hungry, so concurrent work is
// bounded by a semaphore.
type Processor struct {
	throttle chan struct{}
}

func New(workers int) *Processor {
	if workers <= 0 {
		workers = MaxWorkers
	}
	return &Processor{throttle: make(chan struct{}, workers)}
}

// Prepare decodes data, honours EXIF orientation and re-encodes still images as
// lossless PNG, which also drops any metadata. GIFs are passed through untouched
// so animations survive.
func (p *Processor) Prepare(filename string, data []byte) (*Prepared, error) {
	p.throttle <- struct{}{}
	defer func() { <-p.throttle }()

	cfg, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		log.Debugf("[ImageProcessor] %s: %v", filename, err)
		return nil, ErrUndecodable
	}
	if cfg.Width > MaxDimension || cfg.Height > MaxDimension {
		return nil, ErrTooLarge
	}

	if format == "gif" {
		return &Prepared{
			Data:        data,
			ContentType: http.DetectContentType(data),
			Ext:         ".gif",
			Width:       cfg.Width,
			Height:      cfg.Height,
		}, nil
	}

	img, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		log.Debugf("[ImageProcessor] %s: %v", filename, err)
		return nil, ErrUndecodable
	}

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.PNG, imaging.PNGCompressionLevel(png.BestCompression)); err != nil {
		return nil, fmt.Errorf("failed to encode %s: %w", filename, err)
	}

	bounds := img.Bounds()
	return &Prepared{
		Data:        buf.Bytes(),
		ContentType: "image/png",
		Ext:         ".png",
		Width:       bounds.Dx(),
		Height:      bounds.Dy(),
	}, nil
}
