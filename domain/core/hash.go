package core

import (
	"crypto/sha256"
	"encoding/hex"
	"sort"
	"strings"
)

// Hash represents a cryptographic hash
type Hash string

// NewHash creates a new hash from data
func NewHash(data []byte) Hash {
	sum := sha256.Sum256(data)
	return Hash(hex.EncodeToString(sum[:]))
}

// String returns the string representation
func (h Hash) String() string {
	return string(h)
}

// IsEmpty checks if the hash is empty
func (h Hash) IsEmpty() bool {
	return h == ""
}

// Equals checks if two hashes are equal
func (h Hash) Equals(other Hash) bool {
	return h == other
}

// SourceHash fingerprints a data source identity
type SourceHash Hash

// NewSourceHash creates a source hash from data
func NewSourceHash(data []byte) SourceHash { return SourceHash(NewHash(data)) }

// String returns the string representation
func (h SourceHash) String() string { return Hash(h).String() }

// ComputeSourceHash derives a stable hash for a data source identity.
// Parts are hashed in order; attributes are key-sorted so map iteration
// order never leaks into the hash.
func ComputeSourceHash(parts []string, attrs map[string]string) SourceHash {
	var data strings.Builder
	for _, p := range parts {
		data.WriteString(p)
		data.WriteString("\x1f")
	}

	keys := make([]string, 0, len(attrs))
	for k := range attrs {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, key := range keys {
		data.WriteString(key)
		data.WriteString("=")
		data.WriteString(attrs[key])
		data.WriteString("\x1f")
	}

	return NewSourceHash([]byte(data.String()))
}

// StableRowKey serializes a row-shaped map with key-sorted fields so two
// rows with identical contents always produce identical keys.
func StableRowKey(fields map[string]string) string {
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var data strings.Builder
	for _, key := range keys {
		data.WriteString(key)
		data.WriteString("=")
		data.WriteString(fields[key])
		data.WriteString("\x1e")
	}
	return data.String()
}
