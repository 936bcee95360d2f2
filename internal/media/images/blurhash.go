package images

import (
	"fmt"
	"image"

	"github.com/bbrks/go-blurhash"
	"golang.org/x/image/draw"
)

// blurHashSize is the longest side of the thumbnail the hash is computed on.
// A small thumbnail gives nearly the same hash in a fraction of the time.
const blurHashSize = 64

// ComputeBlurHash generates a BlurHash from a decoded image using 4x3 components.
func ComputeBlurHash(img image.Image) (string, error) {
	hash, err := blurhash.Encode(4, 3, thumbnail(img))
	if err != nil {
		return "", fmt.Errorf("encode blurhash: %w", err)
	}
	return hash, nil
}

// thumbnail scales img so its longest side is at most blurHashSize.
func thumbnail(img image.Image) image.Image {
	bounds := img.Bounds()
	srcWidth, srcHeight := bounds.Dx(), bounds.Dy()

	if srcWidth <= blurHashSize && srcHeight <= blurHashSize {
		return img
	}

	var dstWidth, dstHeight int
	if srcWidth > srcHeight {
		dstWidth = blurHashSize
		dstHeight = max((srcHeight*blurHashSize)/srcWidth, 1)
	} else {
		dstHeight = blurHashSize
		dstWidth = max((srcWidth*blurHashSize)/srcHeight, 1)
	}

	dst := image.NewRGBA(image.Rect(0, 0, dstWidth, dstHeight))
	draw.ApproxBiLinear.Scale(dst, dst.Bounds(), img, bounds, draw.Src, nil)
	return dst
}
