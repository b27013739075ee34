// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package fingerprint computes content digests used to detect changed
// source documents between runs.
package fingerprint

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"

	"github.com/spf13/afero"
)

// Size is the length in characters of a hex fingerprint.
const Size = sha256.Size * 2

// Of returns the lowercase hex SHA-256 digest of data.
func Of(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// File reads the whole file at path and returns its fingerprint together
// with the bytes read, so callers that go on to extract do not read twice.
func File(fs afero.Fs, path string) (string, []byte, error) {
	data, err := afero.ReadFile(fs, path)
	if err != nil {
		return "", nil, fmt.Errorf("reading %s: %w", path, err)
	}
	return Of(data), data, nil
}
