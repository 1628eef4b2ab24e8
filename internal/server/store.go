// store.go - Disk placement of uploaded bytes under the content root.
//
// The sanitized file name is the identity key: an existing file at the
// sanitized path blocks the upload instead of being overwritten.
package server

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strings"
)

var unsafeNameChars = regexp.MustCompile(`[^A-Za-z0-9._-]`)

// SanitizeFilename maps an untrusted client-supplied name to a
// filesystem-safe storage name. Path separators and null bytes become
// underscores, the remaining characters are restricted to
// [A-Za-z0-9._-], leading and trailing spaces and dots are trimmed, and
// the result is capped at 255 bytes preserving the extension. Returns
// "" when nothing safe is left; callers must treat that as invalid
// input, never fall back to the raw name.
func SanitizeFilename(name string) string {
	name = strings.ReplaceAll(name, "/", "_")
	name = strings.ReplaceAll(name, "\\", "_")
	name = strings.ReplaceAll(name, "\x00", "")
	name = strings.Trim(name, " .")
	name = unsafeNameChars.ReplaceAllString(name, "_")

	if len(name) > 255 {
		ext := filepath.Ext(name)
		if len(ext) >= 255 {
			ext = ""
		}
		name = name[:255-len(ext)] + ext
	}
	return name
}

// ContentStore writes uploaded bytes into a flat directory keyed by
// sanitized name.
type ContentStore struct {
	root     string
	maxBytes int64
}

// NewContentStore creates the content root if needed. maxBytes is the
// upload size ceiling; zero or negative means no limit.
func NewContentStore(root string, maxBytes int64) (*ContentStore, error) {
	if root == "" {
		return nil, errors.New("content root is empty")
	}
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("create content root: %w", err)
	}
	return &ContentStore{root: root, maxBytes: maxBytes}, nil
}

// PathFor returns the storage path for a sanitized name.
func (s *ContentStore) PathFor(name string) string {
	return filepath.Join(s.root, name)
}

// Store sanitizes desiredName and writes src to the resulting path.
// size is the measured length of the incoming stream; anything over the
// ceiling is rejected before a single byte reaches disk. An existing
// file at the sanitized path yields ErrDuplicateFile. The exclusive
// create makes the existence check and the create one atomic step, so
// two concurrent uploads of the same name cannot both win.
func (s *ContentStore) Store(src io.Reader, size int64, desiredName string) (string, error) {
	name := SanitizeFilename(desiredName)
	if name == "" {
		return "", &ValidationError{Field: "filename", Message: "no usable characters in filename"}
	}
	if s.maxBytes > 0 && size > s.maxBytes {
		return "", ErrFileTooLarge
	}

	path := s.PathFor(name)
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		if os.IsExist(err) {
			return "", ErrDuplicateFile
		}
		return "", fmt.Errorf("create %s: %w", name, err)
	}

	// Cap the copy one byte past the ceiling so a stream that lied about
	// its length is caught rather than persisted.
	r := src
	if s.maxBytes > 0 {
		r = io.LimitReader(src, s.maxBytes+1)
	}
	written, err := io.Copy(f, r)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		_ = os.Remove(path)
		return "", fmt.Errorf("write %s: %w", name, err)
	}
	if s.maxBytes > 0 && written > s.maxBytes {
		_ = os.Remove(path)
		return "", ErrFileTooLarge
	}
	return path, nil
}

// Remove deletes the file at path. A missing file is not an error.
func (s *ContentStore) Remove(path string) error {
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove %s: %w", filepath.Base(path), err)
	}
	return nil
}
