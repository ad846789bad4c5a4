package auth

import (
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"

	"golang.org/x/crypto/pbkdf2"
)

const defaultPBKDF2Iterations = 600_000

// Hasher turns a plaintext password into a deterministic, comparable
// digest. Authentication compares the stored digest against a freshly
// computed one; the digest format is therefore part of the stored data
// contract and must not change under an existing scheme.
type Hasher interface {
	Digest(plaintext string) string
}

// SHA256Hasher is the compatibility scheme: base64(SHA-256(password)),
// unsalted. Identical passwords produce identical digests; deployments
// that can afford to invalidate stored digests should switch to
// PBKDF2Hasher.
type SHA256Hasher struct{}

func (SHA256Hasher) Digest(plaintext string) string {
	sum := sha256.Sum256([]byte(plaintext))
	return base64.StdEncoding.EncodeToString(sum[:])
}

// PBKDF2Hasher derives the digest with PBKDF2-HMAC-SHA256 over a fixed
// configured salt. Still deterministic (same input, same output) but slow
// enough to resist offline guessing.
type PBKDF2Hasher struct {
	salt       []byte
	iterations int
}

func NewPBKDF2Hasher(salt []byte, iterations int) *PBKDF2Hasher {
	if iterations <= 0 {
		iterations = defaultPBKDF2Iterations
	}
	return &PBKDF2Hasher{salt: salt, iterations: iterations}
}

func (h *PBKDF2Hasher) Digest(plaintext string) string {
	key := pbkdf2.Key([]byte(plaintext), h.salt, h.iterations, sha256.Size, sha256.New)
	return base64.StdEncoding.EncodeToString(key)
}

func digestsEqual(a, b string) bool {
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}
