// service.go - Upload/delete orchestration over the content store,
// hash engine and registry.
package server

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"
)

// uploadTimeLayout matches the human-readable timestamp shown in
// listings.
const uploadTimeLayout = "2006-01-02 15:04:05"

// Service coordinates the content store, hash engine and registry as
// one logical unit. File bytes and metadata rows are kept consistent by
// a compensating delete rather than a transaction: if hashing or the
// insert fails after bytes hit disk, the just-written file is removed
// before the error is surfaced.
type Service struct {
	store    *ContentStore
	registry *Registry

	// Indirections for tests: digest can be made to fail, now can be
	// pinned.
	digest func(path string) (string, error)
	now    func() time.Time
}

func NewService(store *ContentStore, registry *Registry) *Service {
	return &Service{
		store:    store,
		registry: registry,
		digest:   DigestFile,
		now:      time.Now,
	}
}

// Upload persists src under the sanitized form of declaredName, records
// its SHA-256 digest and inserts the metadata row. size is the measured
// length of the stream and is checked against the ceiling before any
// disk write.
func (s *Service) Upload(ctx context.Context, src io.Reader, size int64, declaredName, alias string) (FileRecord, error) {
	declaredName = strings.TrimSpace(declaredName)
	if declaredName == "" {
		return FileRecord{}, &ValidationError{Field: "filename", Message: "filename is required"}
	}
	alias = strings.TrimSpace(alias)

	path, err := s.store.Store(src, size, declaredName)
	if err != nil {
		return FileRecord{}, err
	}
	name := SanitizeFilename(declaredName)

	hash, err := s.digest(path)
	if err != nil {
		_ = s.store.Remove(path)
		return FileRecord{}, fmt.Errorf("compute digest: %w", err)
	}

	now := s.now()
	rec := FileRecord{
		Filename:   name,
		Alias:      alias,
		UploadTime: now.Format(uploadTimeLayout),
		Timestamp:  now.Unix(),
		FileHash:   hash,
	}

	id, err := s.registry.InsertFile(ctx, rec.Filename, rec.Alias, rec.UploadTime, rec.Timestamp, rec.FileHash)
	if err != nil {
		_ = s.store.Remove(path)
		return FileRecord{}, err
	}
	rec.ID = id
	return rec, nil
}

// Delete removes the stored bytes and then the registry row for id.
// File removal comes first: a failure between the two steps leaves a
// row without a file, which a retry can still delete, never an on-disk
// orphan without a row.
func (s *Service) Delete(ctx context.Context, id int64) error {
	rec, err := s.registry.GetFileByID(ctx, id)
	if err != nil {
		return err
	}
	if err := s.store.Remove(s.store.PathFor(rec.Filename)); err != nil {
		return err
	}
	ok, err := s.registry.DeleteFileByID(ctx, id)
	if err != nil {
		return err
	}
	if !ok {
		return ErrNotFound
	}
	return nil
}

// ResolveDownload locates the stored bytes for id. Read-only, no auth,
// no hash re-verification.
func (s *Service) ResolveDownload(ctx context.Context, id int64) (storagePath, displayFilename string, err error) {
	rec, err := s.registry.GetFileByID(ctx, id)
	if err != nil {
		return "", "", err
	}
	return s.store.PathFor(rec.Filename), rec.Filename, nil
}
