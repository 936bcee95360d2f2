package images

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	_ "image/gif"  // Register GIF decoder
	_ "image/jpeg" // Register JPEG decoder
	_ "image/png"  // Register PNG decoder

	"github.com/gabriel-vasile/mimetype"
	_ "golang.org/x/image/webp" // Register WebP decoder
)

// MaxUploadSize is the largest accepted image payload.
const MaxUploadSize = 10 << 20

// MaxPixels bounds width*height so a small, highly compressed payload cannot
// expand into a huge decoded bitmap.
const MaxPixels = 40_000_000

// ErrNotImage is returned when a payload is not a decodable raster image.
var ErrNotImage = errors.New("upload a valid image. The file you uploaded was either not an image or a corrupted image")

// ErrTooLarge is returned when a payload exceeds MaxUploadSize or its
// dimensions exceed MaxPixels.
var ErrTooLarge = fmt.Errorf("image exceeds %d bytes", MaxUploadSize)

// allowedTypes maps sniffed MIME types to the stored file extension.
var allowedTypes = map[string]string{
	"image/jpeg": "jpg",
	"image/png":  "png",
	"image/gif":  "gif",
	"image/webp": "webp",
}

// Decoded is a validated image payload.
type Decoded struct {
	Data     []byte
	MIMEType string
	Ext      string
	Image    image.Image
}

// Decode validates that data is a complete raster image.
// The content is sniffed first, then fully decoded so truncated or corrupted
// files with a valid header are also rejected.
func Decode(data []byte) (*Decoded, error) {
	if len(data) == 0 {
		return nil, ErrNotImage
	}
	if len(data) > MaxUploadSize {
		return nil, ErrTooLarge
	}

	mt := mimetype.Detect(data)
	ext, ok := allowedTypes[mt.String()]
	if !ok {
		return nil, fmt.Errorf("%w: detected %s", ErrNotImage, mt.String())
	}

	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNotImage, err)
	}
	if cfg.Width <= 0 || cfg.Height <= 0 {
		return nil, ErrNotImage
	}
	if int64(cfg.Width)*int64(cfg.Height) > MaxPixels {
		return nil, fmt.Errorf("%w: %dx%d exceeds %d pixels", ErrTooLarge, cfg.Width, cfg.Height, MaxPixels)
	}

	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNotImage, err)
	}
	if b := img.Bounds(); b.Dx() == 0 || b.Dy() == 0 {
		return nil, ErrNotImage
	}

	return &Decoded{
		Data:     data,
		MIMEType: mt.String(),
		Ext:      ext,
		Image:    img,
	}, nil
}
