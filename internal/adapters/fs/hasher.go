// Package fs implements filesystem-backed content hashing for lock verification.
package fs

import (
	"encoding/binary"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/cespare/xxhash/v2"
	"go.trai.ch/strata/internal/core/ports"
	"go.trai.ch/zerr"
)

var _ ports.ContentHasher = (*Hasher)(nil)

// Hasher computes deterministic content hashes of files and directory trees.
// The same tree always hashes to the same value regardless of walk timing,
// because entries are visited in lexical order and joined with their relative
// paths.
type Hasher struct{}

// NewHasher creates a new Hasher.
func NewHasher() *Hasher {
	return &Hasher{}
}

// HashPath hashes a file or directory tree. The result is the "%016x" form of
// an XXHash digest, matching the format lock files pin.
func (h *Hasher) HashPath(path string) (string, error) {
	info, err := os.Stat(path)
	if err != nil {
		return "", zerr.With(zerr.Wrap(err, "failed to stat path"), "path", path)
	}

	hasher := xxhash.New()
	if info.IsDir() {
		if err := h.hashTree(path, hasher); err != nil {
			return "", err
		}
	} else {
		if err := h.hashFile(path, path, hasher); err != nil {
			return "", err
		}
	}
	return fmt.Sprintf("%016x", hasher.Sum64()), nil
}

// hashTree walks the directory in lexical order (WalkDir guarantees it) and
// hashes each regular file with its root-relative path.
func (h *Hasher) hashTree(root string, digest *xxhash.Digest) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return zerr.With(zerr.Wrap(err, "failed to walk directory"), "path", path)
		}
		if d.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(root, path)
		if err != nil {
			return zerr.With(zerr.Wrap(err, "failed to resolve relative path"), "path", path)
		}
		return h.hashFile(path, filepath.ToSlash(rel), digest)
	})
}

func (h *Hasher) hashFile(path, label string, digest *xxhash.Digest) error {
	_, _ = digest.WriteString(label)
	_, _ = digest.Write([]byte{0})

	content, err := h.contentHash(path)
	if err != nil {
		return err
	}
	if err := binary.Write(digest, binary.LittleEndian, content); err != nil {
		return zerr.Wrap(err, "failed to write hash to digest")
	}
	return nil
}

func (h *Hasher) contentHash(path string) (uint64, error) {
	f, err := os.Open(path) //nolint:gosec // Path is controlled by caller
	if err != nil {
		return 0, zerr.With(zerr.Wrap(err, "failed to open file"), "path", path)
	}
	defer f.Close() //nolint:errcheck // Best effort close in defer

	hasher := xxhash.New()
	if _, err := io.Copy(hasher, f); err != nil {
		return 0, zerr.With(zerr.Wrap(err, "failed to hash file content"), "path", path)
	}
	return hasher.Sum64(), nil
}
