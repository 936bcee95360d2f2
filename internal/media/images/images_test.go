package images

import (
	"bytes"
	"encoding/binary"
	"hash/crc32"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testImage(w, h int) image.Image {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.RGBA{R: uint8(x % 256), G: uint8(y % 256), B: 128, A: 255})
		}
	}
	return img
}

func pngBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, testImage(w, h)))
	return buf.Bytes()
}

func jpegBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, jpeg.Encode(&buf, testImage(w, h), nil))
	return buf.Bytes()
}

// pngHeader returns a PNG signature and IHDR chunk declaring w x h pixels.
// It is enough for DecodeConfig and sniffing, but not a full image.
func pngHeader(w, h uint32) []byte {
	var buf bytes.Buffer
	buf.WriteString("\x89PNG\r\n\x1a\n")

	ihdr := make([]byte, 13)
	binary.BigEndian.PutUint32(ihdr[0:4], w)
	binary.BigEndian.PutUint32(ihdr[4:8], h)
	ihdr[8] = 8 // bit depth
	ihdr[9] = 2 // truecolor

	chunk := append([]byte("IHDR"), ihdr...)
	_ = binary.Write(&buf, binary.BigEndian, uint32(len(ihdr)))
	buf.Write(chunk)
	_ = binary.Write(&buf, binary.BigEndian, crc32.ChecksumIEEE(chunk))
	return buf.Bytes()
}

func setupTestStorage(t *testing.T) *Storage {
	t.Helper()
	storage, err := NewStorage(t.TempDir())
	require.NoError(t, err)
	return storage
}

func TestDecode(t *testing.T) {
	t.Run("accepts png", func(t *testing.T) {
		d, err := Decode(pngBytes(t, 10, 10))
		require.NoError(t, err)
		assert.Equal(t, "image/png", d.MIMEType)
		assert.Equal(t, "png", d.Ext)
		assert.Equal(t, 10, d.Image.Bounds().Dx())
	})

	t.Run("accepts jpeg", func(t *testing.T) {
		d, err := Decode(jpegBytes(t, 12, 8))
		require.NoError(t, err)
		assert.Equal(t, "image/jpeg", d.MIMEType)
		assert.Equal(t, "jpg", d.Ext)
	})

	t.Run("rejects text", func(t *testing.T) {
		_, err := Decode([]byte("notimage"))
		assert.ErrorIs(t, err, ErrNotImage)
	})

	t.Run("rejects empty", func(t *testing.T) {
		_, err := Decode(nil)
		assert.ErrorIs(t, err, ErrNotImage)
	})

	t.Run("rejects truncated image with valid header", func(t *testing.T) {
		data := pngBytes(t, 50, 50)
		_, err := Decode(data[:len(data)/2])
		assert.ErrorIs(t, err, ErrNotImage)
	})

	t.Run("rejects dimensions over the pixel budget", func(t *testing.T) {
		data := pngHeader(20000, 20000)
		_, err := Decode(data)
		assert.ErrorIs(t, err, ErrTooLarge)
		assert.NotErrorIs(t, err, ErrNotImage)
	})

	t.Run("rejects oversize payload", func(t *testing.T) {
		_, err := Decode(make([]byte, MaxUploadSize+1))
		assert.ErrorIs(t, err, ErrTooLarge)
	})
}

func TestComputeBlurHash(t *testing.T) {
	t.Run("small image", func(t *testing.T) {
		hash, err := ComputeBlurHash(testImage(10, 10))
		require.NoError(t, err)
		assert.NotEmpty(t, hash)
	})

	t.Run("large image is thumbnailed", func(t *testing.T) {
		img := testImage(400, 100)
		thumb := thumbnail(img)
		assert.Equal(t, blurHashSize, thumb.Bounds().Dx())
		assert.Equal(t, 16, thumb.Bounds().Dy())

		hash, err := ComputeBlurHash(img)
		require.NoError(t, err)
		assert.NotEmpty(t, hash)
	})

	t.Run("tall image keeps at least one column", func(t *testing.T) {
		thumb := thumbnail(testImage(1, 500))
		assert.Equal(t, 1, thumb.Bounds().Dx())
		assert.Equal(t, blurHashSize, thumb.Bounds().Dy())
	})
}

func TestNewStorage(t *testing.T) {
	t.Run("creates recipe upload directory", func(t *testing.T) {
		dir := t.TempDir()

		storage, err := NewStorage(dir)
		require.NoError(t, err)
		require.NotNil(t, storage)

		info, err := os.Stat(filepath.Join(dir, "uploads", "recipe"))
		require.NoError(t, err)
		assert.True(t, info.IsDir())
	})

	t.Run("returns error for empty path", func(t *testing.T) {
		storage, err := NewStorageWithSubdir("", "recipe")
		assert.Error(t, err)
		assert.Nil(t, storage)
		assert.Contains(t, err.Error(), "base path cannot be empty")
	})
}

func TestStorage_Lifecycle(t *testing.T) {
	storage := setupTestStorage(t)
	data := pngBytes(t, 4, 4)

	require.NoError(t, storage.Save("a.png", data))
	assert.True(t, storage.Exists("a.png"))

	got, err := storage.Get("a.png")
	require.NoError(t, err)
	assert.Equal(t, data, got)

	hash, err := storage.Hash("a.png")
	require.NoError(t, err)
	assert.Len(t, hash, 64)

	require.NoError(t, storage.Delete("a.png"))
	assert.False(t, storage.Exists("a.png"))

	// Deleting a missing file is not an error.
	require.NoError(t, storage.Delete("a.png"))

	_, err = storage.Get("a.png")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestStorage_RejectsUnsafeNames(t *testing.T) {
	storage := setupTestStorage(t)

	for _, name := range []string{"", "../escape.png", "dir/file.png", ".hidden", `a\b.png`, "x.png.tmp"} {
		t.Run(name, func(t *testing.T) {
			assert.ErrorIs(t, storage.Save(name, []byte("x")), ErrInvalidName)
			_, err := storage.Get(name)
			assert.ErrorIs(t, err, ErrInvalidName)
			assert.False(t, storage.Exists(name))
		})
	}
}

func TestProcessor_Store(t *testing.T) {
	t.Run("stores valid image under uuid name", func(t *testing.T) {
		storage := setupTestStorage(t)
		p := NewProcessor(storage, nil)

		img, err := p.Store(jpegBytes(t, 100, 80))
		require.NoError(t, err)
		assert.True(t, strings.HasSuffix(img.FileName, ".jpg"))
		assert.Len(t, img.FileName, 36+len(".jpg"))
		assert.NotEmpty(t, img.BlurHash)
		assert.True(t, storage.Exists(img.FileName))
	})

	t.Run("writes nothing for invalid payload", func(t *testing.T) {
		storage := setupTestStorage(t)
		p := NewProcessor(storage, nil)

		_, err := p.Store([]byte("notimage"))
		assert.ErrorIs(t, err, ErrNotImage)

		entries, err := os.ReadDir(storage.basePath)
		require.NoError(t, err)
		assert.Empty(t, entries)
	})

	t.Run("remove deletes file", func(t *testing.T) {
		storage := setupTestStorage(t)
		p := NewProcessor(storage, nil)

		img, err := p.Store(pngBytes(t, 5, 5))
		require.NoError(t, err)

		p.Remove(img.FileName)
		assert.False(t, storage.Exists(img.FileName))
		p.Remove("")
	})
}
