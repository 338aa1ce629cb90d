package utils

import (
	"crypto/md5"
	"crypto/sha1"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"hash"
	"io"
	"os"
	"strings"
)

// FileDigest hashes the file at path with the algorithm implied by the
// length of the expected hex digest: 32 md5, 40 sha1, 64 sha256.
func FileDigest(path string, hexLen int) (string, error) {
	var h hash.Hash
	switch hexLen {
	case 32:
		h = md5.New()
	case 40:
		h = sha1.New()
	case 64:
		h = sha256.New()
	default:
		return "", fmt.Errorf("unsupported digest length %d", hexLen)
	}

	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	if _, err := io.Copy(h, f); err != nil {
		return "", err
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

// VerifyDigest checks the file at path against an expected hex digest.
func VerifyDigest(path, expected string) error {
	expected = strings.ToLower(strings.TrimSpace(expected))
	actual, err := FileDigest(path, len(expected))
	if err != nil {
		return err
	}
	if actual != expected {
		return fmt.Errorf("digest mismatch for %s: expected %s, got %s", path, expected, actual)
	}
	return nil
}
