package server

import (
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"
)

// maxUploadBytes bounds the multipart form kept in memory before spilling to
// temp files.
const maxUploadBytes = 64 << 20

// AskRequest is the JSON body of POST /api/ask.
type AskRequest struct {
	Question string `json:"question"`
}

func (s *Server) handleAsk(w http.ResponseWriter, r *http.Request) {
	var req AskRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if strings.TrimSpace(req.Question) == "" {
		writeError(w, http.StatusBadRequest, "question is required")
		return
	}

	result := s.session.Ask(r.Context(), req.Question)
	writeJSON(w, http.StatusOK, result)
}

// handleUpload accepts multipart file uploads, saves each part into the
// session upload directory and ingests the saved files. Unsupported or
// unreadable files show up in the result's failed list; the request itself
// only fails when nothing could be saved or indexing broke.
func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		writeError(w, http.StatusBadRequest, "invalid multipart form")
		return
	}

	files := r.MultipartForm.File["files"]
	if len(files) == 0 {
		writeError(w, http.StatusBadRequest, "no files provided")
		return
	}

	if err := os.MkdirAll(s.session.UploadDir(), 0o755); err != nil {
		writeError(w, http.StatusInternalServerError, "create upload dir failed")
		return
	}

	var paths []string
	for _, header := range files {
		path, err := s.saveUpload(header)
		if err != nil {
			s.logger.Warn("Failed to save upload", "name", header.Filename, "error", err)
			continue
		}
		paths = append(paths, path)
	}
	if len(paths) == 0 {
		writeError(w, http.StatusBadRequest, "no files could be saved")
		return
	}

	result, err := s.session.UploadFiles(r.Context(), paths)
	if err != nil {
		writeError(w, http.StatusInternalServerError, fmt.Sprintf("indexing failed: %v", err))
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// saveUpload writes one multipart part into the upload directory under a
// sanitized name.
func (s *Server) saveUpload(header *multipart.FileHeader) (string, error) {
	src, err := header.Open()
	if err != nil {
		return "", fmt.Errorf("open part: %w", err)
	}
	defer src.Close()

	name := sanitizeFilename(filepath.Base(header.Filename))
	path := filepath.Join(s.session.UploadDir(), name)

	dst, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("create file: %w", err)
	}
	defer dst.Close()

	if _, err := io.Copy(dst, src); err != nil {
		return "", fmt.Errorf("write file: %w", err)
	}
	return path, nil
}

func (s *Server) handleClear(w http.ResponseWriter, r *http.Request) {
	if err := s.session.ClearAll(r.Context()); err != nil {
		writeError(w, http.StatusInternalServerError, fmt.Sprintf("clear failed: %v", err))
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "cleared"})
}

// sanitizeFilename keeps a conservative character set so uploaded names are
// safe as local file names.
func sanitizeFilename(name string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			return r
		case r == '-', r == '_', r == '.':
			return r
		}
		return '_'
	}, name)
}
