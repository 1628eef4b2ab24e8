package server

import (
	"errors"
	"log"
	"mime"
	"net/http"
	"os"
	"strconv"

	"github.com/go-chi/chi/v5"
)

// downloadHandler serves GET /d/{id}. Downloads are public: the handler
// resolves the record to its on-disk path and streams the bytes as an
// attachment. The stored hash is not re-verified here.
func (s *Server) downloadHandler(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad id")
		return
	}

	path, name, err := s.svc.ResolveDownload(r.Context(), id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			writeError(w, http.StatusNotFound, "not found")
			return
		}
		rid := RequestIDFromContext(r.Context())
		log.Printf("rid=%s msg=resolve_download err=%v", rid, err)
		writeError(w, http.StatusInternalServerError, "server error")
		return
	}

	// A row without a file means a delete failed halfway; report it as
	// missing rather than a server fault.
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			writeError(w, http.StatusNotFound, "not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "storage error")
		return
	}

	disposition := mime.FormatMediaType("attachment", map[string]string{"filename": name})
	w.Header().Set("Content-Disposition", disposition)
	http.ServeFile(w, r, path)
}
