// admin.go - Session-gated mutation endpoints: delete and credential
// rotation.
package server

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
)

// deleteFileHandler serves DELETE /api/files/{id}. The on-disk file
// goes first, then the registry row; a missing id is reported, not
// fatal.
func (s *Server) deleteFileHandler(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad id")
		return
	}

	if err := s.svc.Delete(r.Context(), id); err != nil {
		if errors.Is(err, ErrNotFound) {
			writeError(w, http.StatusNotFound, "not found")
			return
		}
		rid := RequestIDFromContext(r.Context())
		log.Printf("rid=%s msg=delete_failed id=%d err=%v", rid, id, err)
		s.audit.Record(r.Context(), AuditActionFileDelete, s.auth.accountName(r), strconv.FormatInt(id, 10), false, err.Error())
		writeError(w, http.StatusInternalServerError, "delete failed")
		return
	}

	s.audit.Record(r.Context(), AuditActionFileDelete, s.auth.accountName(r), strconv.FormatInt(id, 10), true, "")
	writeJSON(w, http.StatusOK, map[string]any{"status": "deleted"})
}

// changePasswordHandler serves POST /api/password for the logged-in
// admin.
func (s *Server) changePasswordHandler(w http.ResponseWriter, r *http.Request) {
	accountID, ok := accountIDFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	var body struct {
		CurrentPassword string `json:"current_password"`
		NewPassword     string `json:"new_password"`
		ConfirmPassword string `json:"confirm_password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "bad request")
		return
	}

	err := s.auth.ChangePassword(r.Context(), accountID, body.CurrentPassword, body.NewPassword, body.ConfirmPassword)
	if err != nil {
		s.audit.Record(r.Context(), AuditActionPasswordChange, s.auth.accountName(r), "", false, err.Error())
		var verr *ValidationError
		switch {
		case errors.As(err, &verr):
			writeError(w, http.StatusBadRequest, verr.Message)
		case errors.Is(err, ErrInvalidCredentials):
			writeError(w, http.StatusUnauthorized, "invalid credentials")
		default:
			rid := RequestIDFromContext(r.Context())
			log.Printf("rid=%s msg=change_password err=%v", rid, err)
			writeError(w, http.StatusInternalServerError, "server error")
		}
		return
	}

	s.audit.Record(r.Context(), AuditActionPasswordChange, s.auth.accountName(r), "", true, "")
	writeJSON(w, http.StatusOK, map[string]any{"status": "ok"})
}
