package server

import (
	"net/http"
	"os"
	"time"
)

// componentHealth reports the state of one dependency.
type componentHealth struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
}

type healthResponse struct {
	Status     string                     `json:"status"`
	Timestamp  time.Time                  `json:"timestamp"`
	Version    string                     `json:"version,omitempty"`
	Components map[string]componentHealth `json:"components"`
}

// healthHandler probes the registry database and the content directory.
func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	resp := healthResponse{
		Status:     "healthy",
		Timestamp:  time.Now().UTC(),
		Version:    s.cfg.Version,
		Components: map[string]componentHealth{},
	}

	if err := s.db.PingContext(r.Context()); err != nil {
		resp.Status = "unhealthy"
		resp.Components["database"] = componentHealth{Status: "down", Message: err.Error()}
	} else {
		resp.Components["database"] = componentHealth{Status: "up"}
	}

	if fi, err := os.Stat(s.cfg.ContentDir); err != nil || !fi.IsDir() {
		resp.Status = "unhealthy"
		resp.Components["content_dir"] = componentHealth{Status: "down", Message: "content directory unavailable"}
	} else {
		resp.Components["content_dir"] = componentHealth{Status: "up"}
	}

	code := http.StatusOK
	if resp.Status != "healthy" {
		code = http.StatusServiceUnavailable
	}
	writeJSON(w, code, resp)
}
