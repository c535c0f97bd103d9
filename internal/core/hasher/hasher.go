// Package hasher computes and checks content hashes recorded in the lockfile.
package hasher

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"strings"
)

const sha256Prefix = "sha256:"

// ErrMismatch is returned by Verify when content does not match the expected hash.
var ErrMismatch = errors.New("content hash mismatch")

// CalculateSHA256 computes the SHA256 hash of the given content
// and returns it in the format "sha256:<hex_hash>".
func CalculateSHA256(content []byte) (string, error) {
	h := sha256.New()
	if _, err := h.Write(content); err != nil {
		return "", fmt.Errorf("failed to write content to hasher: %w", err)
	}
	return sha256Prefix + hex.EncodeToString(h.Sum(nil)), nil
}

// Verify checks content against an expected "sha256:<hex>" hash.
func Verify(content []byte, expected string) error {
	if !strings.HasPrefix(expected, sha256Prefix) {
		return fmt.Errorf("unsupported hash format %q", expected)
	}
	actual, err := CalculateSHA256(content)
	if err != nil {
		return err
	}
	if !strings.EqualFold(actual, expected) {
		return fmt.Errorf("%w: expected %s, got %s", ErrMismatch, expected, actual)
	}
	return nil
}

// VerifyFile reads path and checks it against expected.
func VerifyFile(path, expected string) error {
	content, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return Verify(content, expected)
}
