package vfskit

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"hash"
	"hash/crc32"
	"io"

	"github.com/cespare/xxhash/v2"
)

// ChecksumAlgorithm names a supported checksum algorithm.
type ChecksumAlgorithm string

const (
	// ChecksumSHA256 is the SHA-256 hash algorithm (recommended).
	ChecksumSHA256 ChecksumAlgorithm = "sha256"
	// ChecksumCRC32 is the CRC32 checksum (fastest, integrity only).
	ChecksumCRC32 ChecksumAlgorithm = "crc32"
	// ChecksumXXHash is the 64-bit xxHash algorithm (extremely fast).
	ChecksumXXHash ChecksumAlgorithm = "xxhash"
)

// NewHasher creates a hash.Hash for the given algorithm.
func NewHasher(algorithm ChecksumAlgorithm) (hash.Hash, error) {
	switch algorithm {
	case ChecksumSHA256:
		return sha256.New(), nil
	case ChecksumCRC32:
		return crc32.NewIEEE(), nil
	case ChecksumXXHash:
		return xxhash.New(), nil
	default:
		return nil, fmt.Errorf("%w: checksum algorithm %q", ErrNotSupported, algorithm)
	}
}

// CalculateChecksum reads r to the end and returns the hex-encoded checksum
// under the given algorithm.
func CalculateChecksum(r io.Reader, algorithm ChecksumAlgorithm) (string, error) {
	h, err := NewHasher(algorithm)
	if err != nil {
		return "", err
	}
	if _, err := io.Copy(h, r); err != nil {
		return "", fmt.Errorf("calculate checksum: %w", err)
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

// ChecksumBytes is CalculateChecksum over an in-memory buffer.
func ChecksumBytes(data []byte, algorithm ChecksumAlgorithm) (string, error) {
	return CalculateChecksum(bytes.NewReader(data), algorithm)
}

// VerifyChecksum reads the file at path through b and reports whether its
// checksum matches expected.
func VerifyChecksum(ctx context.Context, b Backend, path, expected string, algorithm ChecksumAlgorithm) (bool, error) {
	cs, ok := b.(Checksummer)
	if !ok {
		return false, fmt.Errorf("%w: backend does not support checksums", ErrNotSupported)
	}
	actual, err := cs.Checksum(ctx, path, algorithm)
	if err != nil {
		return false, err
	}
	return actual == expected, nil
}
