// Package fileid derives stable scan IDs for watched FASTA files.
package fileid

import (
	"crypto/sha256"
	"encoding/hex"
	"path/filepath"
	"strings"
)

// Prefix marks scan IDs that were derived from a file path.
const Prefix = "file:"

// ScanID returns the scan ID for a file. The path is cleaned first, so equivalent
// spellings of one path share an ID and a rescan replaces the earlier result.
func ScanID(path string) string {
	sum := sha256.Sum256([]byte(filepath.Clean(path)))
	return Prefix + hex.EncodeToString(sum[:16])
}

// IsFileID reports whether id was produced by ScanID.
func IsFileID(id string) bool {
	return strings.HasPrefix(id, Prefix)
}
