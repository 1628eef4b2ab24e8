package server

import (
	"log"
	"net/http"
)

// listFilesHandler serves GET /api/files: every record, newest upload
// first. The listing is public, matching the index page of the hosted
// site.
func (s *Server) listFilesHandler(w http.ResponseWriter, r *http.Request) {
	files, err := s.registry.ListFiles(r.Context())
	if err != nil {
		rid := RequestIDFromContext(r.Context())
		log.Printf("rid=%s msg=list_files err=%v", rid, err)
		writeError(w, http.StatusInternalServerError, "server error")
		return
	}
	if files == nil {
		files = []FileRecord{}
	}
	writeJSON(w, http.StatusOK, files)
}
