package upload

import (
	"errors"
	"net/http"
	"path/filepath"
	"strings"
)

var (
	ErrUnsupportedExtension = errors.New("Only the following image formats are supported: JPG, JPEG, PNG, GIF, WEBP, BMP")
	ErrHTMLContent          = errors.New("Invalid file type: HTML content is not allowed")
	ErrSVGContent           = errors.New("SVG/XML files are not supported for security reasons")
	ErrUnsupportedType      = errors.New("Only image files are allowed")
)

var allowedExt = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".gif":  true,
	".webp": true,
	".bmp":  true,
}

var allowedMime = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
	"image/gif":  true,
	"image/webp": true,
	"image/bmp":  true,
}

// SniffLen is how many leading bytes ValidateImageBySniff looks at.
const SniffLen = 512

// ValidateImageBySniff checks the extension of filename and the content type
// sniffed from head against the image allowlist. It returns the detected MIME type.
func ValidateImageBySniff(filename string, head []byte) (string, error) {
	ext := strings.ToLower(filepath.Ext(filename))
	if !allowedExt[ext] {
		return "", ErrUnsupportedExtension
	}

	detected := http.DetectContentType(head)

	if strings.HasPrefix(detected, "text/html") || strings.HasPrefix(detected, "application/xhtml") {
		return "", ErrHTMLContent
	}
	if strings.HasPrefix(detected, "text/xml") || strings.HasPrefix(detected, "application/xml") || detected == "image/svg+xml" {
		return "", ErrSVGContent
	}

	if allowedMime[detected] {
		return detected, nil
	}
	return "", ErrUnsupportedType
}
