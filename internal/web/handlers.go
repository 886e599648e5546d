package web

import (
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/JonMunkholm/datamorpher/internal/core"
	"github.com/JonMunkholm/datamorpher/internal/logging"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

// multipartMemory is how much of a form is buffered in memory before
// spilling to temporary files.
const multipartMemory = 8 << 20

// formOverhead allows for multipart boundaries and headers on top of the
// file itself.
const formOverhead = 1 << 20

// handleUploadFile stores the uploaded file and submits an inference job.
// Responds 202 with {"task_id": ...}.
func (s *Server) handleUploadFile(w http.ResponseWriter, r *http.Request) {
	if err := s.uploads.Acquire(r.Context()); err != nil {
		s.respondError(w, r, err, statusFor(err))
		return
	}
	defer s.uploads.Release()

	maxSize := s.cfg.Upload.MaxFileSize
	r.Body = http.MaxBytesReader(w, r.Body, maxSize+formOverhead)

	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			s.respondError(w, r, fmt.Errorf("%w: %v", errFileTooLarge, err), http.StatusRequestEntityTooLarge)
			return
		}
		s.respondError(w, r, fmt.Errorf("%w: %v", errInvalidForm, err), http.StatusBadRequest)
		return
	}
	defer r.MultipartForm.RemoveAll()

	file, header, err := r.FormFile("file")
	if err != nil {
		s.respondError(w, r, errNoFile, http.StatusBadRequest)
		return
	}
	defer file.Close()

	if header.Size > maxSize {
		err := fmt.Errorf("%w: %d bytes exceeds %d", errFileTooLarge, header.Size, maxSize)
		s.respondError(w, r, err, http.StatusRequestEntityTooLarge)
		return
	}

	ext := strings.ToLower(filepath.Ext(header.Filename))
	if !s.allowed[ext] {
		err := fmt.Errorf("%w %q", errUnsupportedType, ext)
		s.respondError(w, r, err, http.StatusUnsupportedMediaType)
		return
	}

	path, err := s.saveUpload(file, ext)
	if err != nil {
		s.respondError(w, r, err, http.StatusInternalServerError)
		return
	}

	taskID, err := s.jobs.Submit(r.Context(), path)
	if err != nil {
		// The job never existed, so nothing else will remove the file.
		os.Remove(path)
		s.respondError(w, r, err, statusFor(err))
		return
	}

	logging.ForJob(r.Context(), taskID).Info("upload accepted",
		"filename", header.Filename,
		"size", header.Size,
	)
	writeJSON(w, http.StatusAccepted, map[string]string{"task_id": taskID})
}

// saveUpload copies the upload to <uploadDir>/<uuid><ext> and returns the path.
func (s *Server) saveUpload(src multipart.File, ext string) (string, error) {
	path := filepath.Join(s.uploadDir, uuid.NewString()+ext)

	dst, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o600)
	if err != nil {
		return "", fmt.Errorf("create upload file: %w", err)
	}

	if _, err := io.Copy(dst, src); err != nil {
		dst.Close()
		os.Remove(path)
		return "", fmt.Errorf("write upload file: %w", err)
	}
	if err := dst.Close(); err != nil {
		os.Remove(path)
		return "", fmt.Errorf("close upload file: %w", err)
	}
	return path, nil
}

// handleTaskStatus reports a job's state. Unknown ids get 404.
func (s *Server) handleTaskStatus(w http.ResponseWriter, r *http.Request) {
	taskID := chi.URLParam(r, "taskID")

	st, err := s.jobs.Status(r.Context(), taskID)
	if err != nil {
		s.respondError(w, r, err, statusFor(err))
		return
	}

	if isHTMX(r) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		if err := taskPanel(taskID, st).Render(r.Context(), w); err != nil {
			logging.FromContext(r.Context()).Error("render task panel", "error", err)
		}
		return
	}
	writeJSON(w, http.StatusOK, st)
}

// HealthResponse is the body of GET /healthz.
type HealthResponse struct {
	Status  string             `json:"status"`
	Jobs    core.ServiceStats  `json:"jobs"`
	Uploads core.LimiterStatus `json:"uploads"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, HealthResponse{
		Status:  "ok",
		Jobs:    s.jobs.Stats(),
		Uploads: s.uploads.Status(),
	})
}
