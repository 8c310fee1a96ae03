package vision

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/jpeg"
	"image/png"
	"os"
	"path/filepath"
	"strings"

	// decoders for image.Decode
	_ "image/gif"

	_ "golang.org/x/image/bmp"
	"golang.org/x/image/draw"
	_ "golang.org/x/image/webp"

	"github.com/Conceptual-Machines/tutor-api/internal/llm"
)

const (
	// MaxDimension is the longest side, in pixels, sent to a vision model
	MaxDimension = 1024
	jpegQuality  = 85

	mimeJPEG = "image/jpeg"
	mimePNG  = "image/png"
)

// ErrImageUnreadable is returned when an image cannot be read or decoded
var ErrImageUnreadable = errors.New("image unreadable")

var mimeByExtension = map[string]string{
	".png":  mimePNG,
	".gif":  "image/gif",
	".webp": "image/webp",
	".bmp":  "image/bmp",
	".jpg":  mimeJPEG,
	".jpeg": mimeJPEG,
}

// MIMETypeForPath detects the MIME type from the file extension, defaulting to JPEG
func MIMETypeForPath(path string) string {
	if mimeType, ok := mimeByExtension[strings.ToLower(filepath.Ext(path))]; ok {
		return mimeType
	}
	return mimeJPEG
}

// Placeholder is the in-band text that replaces an image that could not be processed
func Placeholder(name string) string {
	return fmt.Sprintf("[图片无法处理: %s]", name)
}

// LoadImage reads and preprocesses the image at path
func LoadImage(path string) (*llm.Image, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrImageUnreadable, err)
	}
	return Preprocess(data, filepath.Base(path), MIMETypeForPath(path))
}

// Preprocess decodes the image, downscales it when its longest side exceeds
// MaxDimension and re-encodes it. Images already within bounds in a type every
// provider accepts are passed through unchanged.
func Preprocess(data []byte, name, mimeType string) (*llm.Image, error) {
	src, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: decode %s: %w", ErrImageUnreadable, name, err)
	}

	bounds := src.Bounds()
	width, height := bounds.Dx(), bounds.Dy()
	if width == 0 || height == 0 {
		return nil, fmt.Errorf("%w: %s has no pixels", ErrImageUnreadable, name)
	}

	needsResize := width > MaxDimension || height > MaxDimension
	if !needsResize && llm.SupportedImageType(mimeType) {
		return &llm.Image{Data: data, MIMEType: mimeType, Name: name}, nil
	}

	img := src
	if needsResize {
		img = downscale(src, width, height)
	}

	var buf bytes.Buffer
	outType := mimePNG
	if mimeType == mimeJPEG {
		outType = mimeJPEG
		err = jpeg.Encode(&buf, img, &jpeg.Options{Quality: jpegQuality})
	} else {
		err = png.Encode(&buf, img)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: encode %s: %w", ErrImageUnreadable, name, err)
	}

	return &llm.Image{Data: buf.Bytes(), MIMEType: outType, Name: name}, nil
}

// downscale scales proportionally so the longest side equals MaxDimension
func downscale(src image.Image, width, height int) image.Image {
	newWidth, newHeight := MaxDimension, MaxDimension
	if width >= height {
		newHeight = max(height*MaxDimension/width, 1)
	} else {
		newWidth = max(width*MaxDimension/height, 1)
	}

	dst := image.NewRGBA(image.Rect(0, 0, newWidth, newHeight))
	draw.CatmullRom.Scale(dst, dst.Bounds(), src, src.Bounds(), draw.Over, nil)
	return dst
}
