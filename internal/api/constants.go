package api

// MediaPathPrefix is the public URL prefix of stored recipe images.
const MediaPathPrefix = "/media/recipe/"

// Cache-Control header values.
const (
	// Stored images never change under a given name.
	CacheImmutable = "public, max-age=31536000, immutable"
	CacheNoStore   = "no-cache"
)
