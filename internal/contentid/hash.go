package contentid

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
)

// HashContent returns the lowercase hex SHA-256 digest of raw bytes. Used for
// media files and for canonicalized JSON metadata documents.
func HashContent(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// CanonicalJSON serializes v with encoding/json. Struct values marshal in
// field-declaration order, so hashes over struct-typed documents are
// deterministic. Map-typed documents are only self-consistent within one
// producer run; callers hashing metadata must pass struct envelopes.
func CanonicalJSON(v any) ([]byte, error) {
	return json.Marshal(v)
}

// HashJSON canonicalizes v and returns its content hash.
func HashJSON(v any) (string, error) {
	data, err := CanonicalJSON(v)
	if err != nil {
		return "", err
	}
	return HashContent(data), nil
}
