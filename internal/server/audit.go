// audit.go - Append-only trail of admin actions.
package server

import (
	"context"
	"database/sql"
	"log"
	"time"
)

// AuditAction names the kind of event being recorded.
type AuditAction string

const (
	AuditActionLogin          AuditAction = "login"
	AuditActionLogout         AuditAction = "logout"
	AuditActionFileUpload     AuditAction = "file_upload"
	AuditActionFileDelete     AuditAction = "file_delete"
	AuditActionPasswordChange AuditAction = "password_change"
)

// Auditor writes audit rows. Recording is best-effort: a failed insert
// is logged and never fails the operation it describes.
type Auditor struct {
	db *sql.DB
}

func NewAuditor(db *sql.DB) *Auditor {
	return &Auditor{db: db}
}

// Record appends one audit entry.
func (a *Auditor) Record(ctx context.Context, action AuditAction, account, resource string, success bool, detail string) {
	if a == nil || a.db == nil {
		return
	}
	_, err := a.db.ExecContext(ctx, `
		INSERT INTO audit_log (at, action, account, resource, success, detail)
		VALUES (?, ?, ?, ?, ?, ?)
	`, time.Now().Unix(), string(action), account, resource, success, detail)
	if err != nil {
		log.Printf("audit: insert failed: %v", err)
	}
}
