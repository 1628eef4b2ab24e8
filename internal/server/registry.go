// registry.go - Durable metadata store for file records and admin accounts.
package server

import (
	"context"
	"database/sql"
	"fmt"
)

// FileRecord is the metadata row kept for every stored file. Rows are
// created only by a successful upload and destroyed only by an explicit
// delete; there is no update path.
type FileRecord struct {
	ID         int64  `json:"id"`
	Filename   string `json:"filename"`
	Alias      string `json:"alias"`
	UploadTime string `json:"upload_time"`
	Timestamp  int64  `json:"timestamp"`
	FileHash   string `json:"file_hash"`
}

// AdminAccount holds the credentials of the administrator. The username
// is immutable after creation; the password hash is replaced wholesale
// on password change.
type AdminAccount struct {
	ID           int64
	Username     string
	PasswordHash string
}

// Registry wraps the SQLite database with the queries the rest of the
// service needs. All operations are single-row and atomic.
type Registry struct {
	db *sql.DB
}

func NewRegistry(db *sql.DB) *Registry {
	return &Registry{db: db}
}

// ListFiles returns all file records, most recent upload first. Rows
// sharing a timestamp come back in insertion order, which the surrogate
// key makes stable.
func (r *Registry) ListFiles(ctx context.Context) ([]FileRecord, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, filename, alias, upload_time, timestamp, file_hash
		FROM files
		ORDER BY timestamp DESC, id ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("list files: %w", err)
	}
	defer rows.Close()

	var files []FileRecord
	for rows.Next() {
		var f FileRecord
		if err := rows.Scan(&f.ID, &f.Filename, &f.Alias, &f.UploadTime, &f.Timestamp, &f.FileHash); err != nil {
			return nil, fmt.Errorf("scan file row: %w", err)
		}
		files = append(files, f)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list files: %w", err)
	}
	return files, nil
}

// GetFileByID returns the record for id, or ErrNotFound.
func (r *Registry) GetFileByID(ctx context.Context, id int64) (FileRecord, error) {
	var f FileRecord
	err := r.db.QueryRowContext(ctx, `
		SELECT id, filename, alias, upload_time, timestamp, file_hash
		FROM files
		WHERE id = ?
	`, id).Scan(&f.ID, &f.Filename, &f.Alias, &f.UploadTime, &f.Timestamp, &f.FileHash)
	if err == sql.ErrNoRows {
		return FileRecord{}, ErrNotFound
	}
	if err != nil {
		return FileRecord{}, fmt.Errorf("get file %d: %w", id, err)
	}
	return f, nil
}

// InsertFile creates a file record and returns its assigned id.
func (r *Registry) InsertFile(ctx context.Context, filename, alias, uploadTime string, timestamp int64, fileHash string) (int64, error) {
	res, err := r.db.ExecContext(ctx, `
		INSERT INTO files (filename, alias, upload_time, timestamp, file_hash)
		VALUES (?, ?, ?, ?, ?)
	`, filename, alias, uploadTime, timestamp, fileHash)
	if err != nil {
		return 0, fmt.Errorf("insert file: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("insert file: %w", err)
	}
	return id, nil
}

// DeleteFileByID removes the record for id. Returns true when a row
// existed and was removed.
func (r *Registry) DeleteFileByID(ctx context.Context, id int64) (bool, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM files WHERE id = ?`, id)
	if err != nil {
		return false, fmt.Errorf("delete file %d: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("delete file %d: %w", id, err)
	}
	return n > 0, nil
}

// FindAccountByUsername returns the account for username, or ErrNotFound.
func (r *Registry) FindAccountByUsername(ctx context.Context, username string) (AdminAccount, error) {
	var a AdminAccount
	err := r.db.QueryRowContext(ctx, `
		SELECT id, username, password_hash FROM accounts WHERE username = ?
	`, username).Scan(&a.ID, &a.Username, &a.PasswordHash)
	if err == sql.ErrNoRows {
		return AdminAccount{}, ErrNotFound
	}
	if err != nil {
		return AdminAccount{}, fmt.Errorf("find account %q: %w", username, err)
	}
	return a, nil
}

// FindAccountByID returns the account for id, or ErrNotFound.
func (r *Registry) FindAccountByID(ctx context.Context, id int64) (AdminAccount, error) {
	var a AdminAccount
	err := r.db.QueryRowContext(ctx, `
		SELECT id, username, password_hash FROM accounts WHERE id = ?
	`, id).Scan(&a.ID, &a.Username, &a.PasswordHash)
	if err == sql.ErrNoRows {
		return AdminAccount{}, ErrNotFound
	}
	if err != nil {
		return AdminAccount{}, fmt.Errorf("find account %d: %w", id, err)
	}
	return a, nil
}

// UpdatePasswordHash replaces the stored hash for the account.
func (r *Registry) UpdatePasswordHash(ctx context.Context, id int64, newHash string) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE accounts SET password_hash = ? WHERE id = ?
	`, newHash, id)
	if err != nil {
		return fmt.Errorf("update password hash: %w", err)
	}
	return nil
}

// EnsureBootstrapAccount creates the admin account with a hashed initial
// password if no account with that username exists. Safe to call on
// every startup.
func (r *Registry) EnsureBootstrapAccount(ctx context.Context, username, initialPassword string) error {
	_, err := r.FindAccountByUsername(ctx, username)
	if err == nil {
		return nil
	}
	if err != ErrNotFound {
		return err
	}
	if initialPassword == "" {
		return fmt.Errorf("bootstrap account %q: initial password is empty", username)
	}
	hash, err := hashPassword(initialPassword)
	if err != nil {
		return fmt.Errorf("bootstrap account %q: %w", username, err)
	}
	_, err = r.db.ExecContext(ctx, `
		INSERT INTO accounts (username, password_hash) VALUES (?, ?)
	`, username, hash)
	if err != nil {
		return fmt.Errorf("bootstrap account %q: %w", username, err)
	}
	return nil
}
