package store

import (
	"crypto/sha256"
	"encoding/hex"
)

// Fingerprint computes the deduplication key for a chunk: SHA-256 over the
// file path and content joined with a separator. Identical (filePath,
// content) pairs always collide; content-only or path-only matches never do.
func Fingerprint(filePath, content string) string {
	sum := sha256.Sum256([]byte(filePath + ":" + content))
	return hex.EncodeToString(sum[:])
}
