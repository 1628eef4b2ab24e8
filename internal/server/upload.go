package server

import (
	"errors"
	"log"
	"net/http"
)

// uploadHandler handles POST /api/upload multipart requests.
//
// Required form fields: file (the binary data, with its client-side
// filename); alias is optional. The multipart parser measures the part
// before the service writes anything under the content root, so the
// size ceiling is enforced ahead of any disk write there.
// Authentication: required (requireAuth middleware).
func (s *Server) uploadHandler(w http.ResponseWriter, r *http.Request) {
	// Transport guard with headroom for multipart framing; the exact
	// ceiling is enforced against the measured part size below.
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxUploadBytes+(1<<20))

	file, header, err := r.FormFile("file")
	if err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			writeError(w, http.StatusRequestEntityTooLarge, "file too large")
			return
		}
		writeError(w, http.StatusBadRequest, "missing file")
		return
	}
	defer file.Close()

	alias := r.FormValue("alias")

	rec, err := s.svc.Upload(r.Context(), file, header.Size, header.Filename, alias)
	if err != nil {
		s.audit.Record(r.Context(), AuditActionFileUpload, s.auth.accountName(r), header.Filename, false, err.Error())
		var verr *ValidationError
		switch {
		case errors.As(err, &verr):
			writeError(w, http.StatusBadRequest, verr.Message)
		case errors.Is(err, ErrFileTooLarge):
			writeError(w, http.StatusRequestEntityTooLarge, "file too large")
		case errors.Is(err, ErrDuplicateFile):
			writeError(w, http.StatusConflict, "a file with that name already exists")
		default:
			rid := RequestIDFromContext(r.Context())
			log.Printf("rid=%s msg=upload_failed err=%v", rid, err)
			writeError(w, http.StatusInternalServerError, "upload failed")
		}
		return
	}

	s.audit.Record(r.Context(), AuditActionFileUpload, s.auth.accountName(r), rec.Filename, true, "")
	writeJSON(w, http.StatusCreated, rec)
}
