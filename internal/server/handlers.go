package server

import (
	"encoding/json"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/dygy/scorepipe/internal/sheet"
)

const maxUploadSize = 50 * 1024 * 1024 // 50MB

// handleIndex serves the upload page
func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	s.render(w, "index.html", nil)
}

// handleHealth returns server health status
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Write([]byte(`{"status":"ok"}`))
}

// handleUpload accepts a scanned sheet and starts a conversion job
func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadSize)

	if err := r.ParseMultipartForm(maxUploadSize); err != nil {
		s.renderError(w, "File too large. Maximum size is 50MB.", http.StatusBadRequest)
		return
	}

	file, header, err := r.FormFile("sheet")
	if err != nil {
		s.renderError(w, "Please upload a scanned sheet (PDF or image).", http.StatusBadRequest)
		return
	}
	defer file.Close()

	ext := strings.ToLower(filepath.Ext(header.Filename))
	if !sheet.SupportedExts[ext] {
		s.renderError(w, "Unsupported format. Please upload a PDF, PNG, JPEG, or TIFF file.", http.StatusBadRequest)
		return
	}

	job, err := s.jobs.Create()
	if err != nil {
		s.renderError(w, "Failed to create job.", http.StatusInternalServerError)
		return
	}

	// Keep the original stem so artifact names match the upload
	inputPath := filepath.Join(job.Workspace.Dir, filepath.Base(header.Filename))
	dst, err := os.Create(inputPath)
	if err != nil {
		s.renderError(w, "Failed to save file.", http.StatusInternalServerError)
		return
	}
	defer dst.Close()

	if _, err := io.Copy(dst, file); err != nil {
		s.renderError(w, "Failed to save file.", http.StatusInternalServerError)
		return
	}

	job.InputPath = inputPath
	job.Filename = header.Filename

	go s.jobs.Process(job)

	s.render(w, "processing.html", map[string]any{
		"JobID":    job.ID,
		"Filename": header.Filename,
	})
}

// statusResponse is the JSON body returned by handleStatus
type statusResponse struct {
	Status JobStatus `json:"status"`
	Error  string    `json:"error,omitempty"`
}

// handleStatus reports job progress for polling clients
func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	job := s.jobs.Get(chi.URLParam(r, "id"))
	if job == nil {
		http.NotFound(w, r)
		return
	}

	status, _, errMsg := job.snapshot()
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(statusResponse{Status: status, Error: errMsg})
}

// handleResult renders the artifact listing for a finished job
func (s *Server) handleResult(w http.ResponseWriter, r *http.Request) {
	job := s.jobs.Get(chi.URLParam(r, "id"))
	if job == nil {
		http.NotFound(w, r)
		return
	}

	status, arts, errMsg := job.snapshot()
	if status != StatusComplete {
		s.render(w, "processing.html", map[string]any{
			"JobID":    job.ID,
			"Filename": job.Filename,
			"Error":    errMsg,
		})
		return
	}

	s.render(w, "result.html", map[string]any{
		"JobID":    job.ID,
		"Filename": job.Filename,
		"Notation": filepath.Base(arts.Notation),
		"PDF":      filepath.Base(arts.PDF),
		"MIDI":     filepath.Base(arts.MIDI),
		"MP3":      filepath.Base(arts.MP3),
	})
}

// handleDownload serves one generated artifact
func (s *Server) handleDownload(w http.ResponseWriter, r *http.Request) {
	job := s.jobs.Get(chi.URLParam(r, "id"))
	if job == nil {
		http.NotFound(w, r)
		return
	}

	status, arts, _ := job.snapshot()
	if status != StatusComplete || arts == nil {
		http.Error(w, "job not complete", http.StatusConflict)
		return
	}

	var path string
	switch chi.URLParam(r, "kind") {
	case "notation":
		path = arts.Notation
	case "pdf":
		path = arts.PDF
	case "midi":
		path = arts.MIDI
	case "mp3":
		path = arts.MP3
	default:
		http.NotFound(w, r)
		return
	}

	w.Header().Set("Content-Disposition", "attachment; filename="+filepath.Base(path))
	http.ServeFile(w, r, path)
}

// render executes a template, logging failures
func (s *Server) render(w http.ResponseWriter, name string, data any) {
	if err := s.templates.ExecuteTemplate(w, name, data); err != nil {
		s.logger.Error("render template", "template", name, "error", err)
	}
}

// renderError writes an error page with the given status
func (s *Server) renderError(w http.ResponseWriter, msg string, status int) {
	w.WriteHeader(status)
	s.render(w, "error.html", map[string]any{"Message": msg})
}
