package handlers

import (
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

var (
	errUnsupportedExtension = errors.New("unsupported image extension")
	errUploadTooLarge       = errors.New("image exceeds upload limit")
)

// Uploads saves request images under a directory with uuid names
type Uploads struct {
	dir      string
	maxBytes int64
}

// NewUploads creates an upload sink. maxMB bounds each image.
func NewUploads(dir string, maxMB int) *Uploads {
	return &Uploads{dir: dir, maxBytes: int64(maxMB) * bytesPerMB}
}

// MaxBytes returns the per-image size limit
func (u *Uploads) MaxBytes() int64 {
	return u.maxBytes
}

// FromRequest saves the optional "image" form file and returns its path. It returns
// an empty path when the request is not multipart or carries no image.
func (u *Uploads) FromRequest(c *gin.Context) (string, error) {
	if !strings.HasPrefix(c.ContentType(), "multipart/form-data") {
		return "", nil
	}

	header, err := c.FormFile(formFieldImage)
	if errors.Is(err, http.ErrMissingFile) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to read upload: %w", err)
	}
	if header.Filename == "" {
		return "", nil
	}
	return u.save(c, header)
}

func (u *Uploads) save(c *gin.Context, header *multipart.FileHeader) (string, error) {
	ext := strings.ToLower(filepath.Ext(header.Filename))
	if !allowedImageExtensions[ext] {
		return "", fmt.Errorf("%w: %q", errUnsupportedExtension, ext)
	}
	if header.Size > u.maxBytes {
		return "", fmt.Errorf("%w: %d bytes", errUploadTooLarge, header.Size)
	}

	if err := os.MkdirAll(u.dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create upload dir: %w", err)
	}
	dst := filepath.Join(u.dir, uuid.NewString()+ext)
	if err := c.SaveUploadedFile(header, dst); err != nil {
		return "", fmt.Errorf("failed to save upload: %w", err)
	}
	return dst, nil
}

// uploadErrorResponse maps an upload error to a status code and client message
func uploadErrorResponse(err error) (int, string) {
	switch {
	case errors.Is(err, errUnsupportedExtension):
		return http.StatusBadRequest, errUnsupportedImage
	case errors.Is(err, errUploadTooLarge):
		return http.StatusRequestEntityTooLarge, errImageTooLarge
	default:
		return http.StatusBadRequest, errImageUploadFailed
	}
}
