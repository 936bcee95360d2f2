// Package id generates the opaque identifiers used outside the relational store.
package id

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
	gonanoid "github.com/matoous/go-nanoid/v2"
)

// Generate creates a prefixed unique ID using NanoID.
// Format: prefix-nanoid (e.g., "tok-V1StGXR8_Z5jdHi6B-myT").
//
// Returns an error if the system has insufficient entropy for secure random generation.
func Generate(prefix string) (string, error) {
	id, err := gonanoid.New()
	if err != nil {
		return "", fmt.Errorf("generate nanoid: %w", err)
	}
	return prefix + "-" + id, nil
}

// MustGenerate is like Generate but panics if ID generation fails.
func MustGenerate(prefix string) string {
	id, err := Generate(prefix)
	if err != nil {
		panic(fmt.Sprintf("failed to generate ID: %v", err))
	}
	return id
}

// TokenID returns a fresh identifier for an access token (its jti claim).
func TokenID() (string, error) {
	return Generate("tok")
}

// ImageFileName returns a collision-free file name "<uuid>.<ext>".
// ext may be given with or without its leading dot.
func ImageFileName(ext string) string {
	ext = strings.ToLower(strings.TrimPrefix(ext, "."))
	return uuid.NewString() + "." + ext
}
