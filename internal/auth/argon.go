package auth

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/argon2"
)

// argon2Params are the Argon2id cost parameters encoded into every hash.
type argon2Params struct {
	memory      uint32
	iterations  uint32
	parallelism uint8
	saltLength  uint32
	keyLength   uint32
}

// defaultParams suits a small self-hosted server.
var defaultParams = argon2Params{
	memory:      64 * 1024,
	iterations:  3,
	parallelism: 4,
	saltLength:  16,
	keyLength:   32,
}

// maxPasswordLength caps the work a single login attempt can cause.
const maxPasswordLength = 1024

var (
	// ErrEmptyPassword is returned when hashing an empty password.
	ErrEmptyPassword = errors.New("password cannot be empty")
	// ErrPasswordTooLong is returned when a password exceeds maxPasswordLength bytes.
	ErrPasswordTooLong = errors.New("password exceeds maximum length")
)

// HashPassword creates an Argon2id hash of the password in the PHC string
// format: $argon2id$v=19$m=65536,t=3,p=4$<salt>$<hash>.
func HashPassword(password string) (string, error) {
	if password == "" {
		return "", ErrEmptyPassword
	}
	if len(password) > maxPasswordLength {
		return "", ErrPasswordTooLong
	}

	p := defaultParams
	salt := make([]byte, p.saltLength)
	if _, err := rand.Read(salt); err != nil {
		return "", fmt.Errorf("failed to generate salt: %w", err)
	}

	hash := argon2.IDKey([]byte(password), salt, p.iterations, p.memory, p.parallelism, p.keyLength)

	return fmt.Sprintf(
		"$argon2id$v=%d$m=%d,t=%d,p=%d$%s$%s",
		argon2.Version,
		p.memory,
		p.iterations,
		p.parallelism,
		base64.RawStdEncoding.EncodeToString(salt),
		base64.RawStdEncoding.EncodeToString(hash),
	), nil
}

// VerifyPassword reports whether password matches the encoded hash.
// A malformed hash is reported as a mismatch, not an error, so callers
// cannot tell a corrupt row from a wrong password.
func VerifyPassword(encodedHash, password string) (bool, error) {
	if len(password) > maxPasswordLength {
		return false, nil
	}

	salt, hash, p, err := decodeHash(encodedHash)
	if err != nil {
		//nolint:nilerr // A bad hash is a failed match.
		return false, nil
	}

	candidate := argon2.IDKey([]byte(password), salt, p.iterations, p.memory, p.parallelism, p.keyLength)
	return subtle.ConstantTimeCompare(hash, candidate) == 1, nil
}

// decodeHash extracts salt, hash and parameters from an encoded hash.
func decodeHash(encodedHash string) (salt, hash []byte, p argon2Params, err error) {
	parts := strings.Split(encodedHash, "$")
	if len(parts) != 6 {
		return nil, nil, p, errors.New("invalid hash format")
	}
	if parts[1] != "argon2id" {
		return nil, nil, p, fmt.Errorf("unsupported algorithm: %s", parts[1])
	}

	var version int
	if _, err := fmt.Sscanf(parts[2], "v=%d", &version); err != nil {
		return nil, nil, p, fmt.Errorf("invalid version: %w", err)
	}
	if version != argon2.Version {
		return nil, nil, p, fmt.Errorf("incompatible version: %d", version)
	}

	if _, err := fmt.Sscanf(parts[3], "m=%d,t=%d,p=%d", &p.memory, &p.iterations, &p.parallelism); err != nil {
		return nil, nil, p, fmt.Errorf("invalid parameters: %w", err)
	}

	if salt, err = base64.RawStdEncoding.DecodeString(parts[4]); err != nil {
		return nil, nil, p, fmt.Errorf("invalid salt encoding: %w", err)
	}
	if hash, err = base64.RawStdEncoding.DecodeString(parts[5]); err != nil {
		return nil, nil, p, fmt.Errorf("invalid hash encoding: %w", err)
	}

	//nolint:gosec // Hash length is bounded by the encoder.
	p.keyLength = uint32(len(hash))
	//nolint:gosec // Salt length is bounded by the encoder.
	p.saltLength = uint32(len(salt))

	return salt, hash, p, nil
}
