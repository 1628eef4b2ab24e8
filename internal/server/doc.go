// Package server implements the file hosting core and its HTTP
// surface: the on-disk content store, the SQLite-backed registry of
// file records and admin credentials, the session-gated auth layer,
// and the upload/delete orchestration that keeps bytes and metadata
// consistent.
package server
