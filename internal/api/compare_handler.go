// File path: internal/api/compare_handler.go
package api

import (
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/arclight-qa/weldcheck/internal/common"
	"github.com/arclight-qa/weldcheck/internal/workflow"
)

func (s *Server) handleCompareUpload(w http.ResponseWriter, r *http.Request) {
	logger := common.Logger()
	if err := r.ParseMultipartForm(s.maxUpload); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("parse multipart form: %w", err))
		return
	}

	workspace, err := os.MkdirTemp(s.uploadRoot, "job-")
	if err != nil {
		writeError(w, http.StatusInternalServerError, fmt.Errorf("create workspace: %w", err))
		return
	}

	wpsPath, wpsName, err := s.saveUpload(r, "wps", workspace)
	if err != nil {
		os.RemoveAll(workspace)
		writeError(w, http.StatusBadRequest, err)
		return
	}
	pqrPath, pqrName, err := s.saveUpload(r, "pqr", workspace)
	if err != nil {
		os.RemoveAll(workspace)
		writeError(w, http.StatusBadRequest, err)
		return
	}

	jobID, err := s.workflow.Start(workflow.Request{
		WPSPath:     wpsPath,
		PQRPath:     pqrPath,
		WPSFilename: wpsName,
		PQRFilename: pqrName,
	})
	if err != nil {
		os.RemoveAll(workspace)
		status := http.StatusInternalServerError
		if errors.Is(err, workflow.ErrJobRunning) {
			status = http.StatusConflict
		}
		writeError(w, status, err)
		return
	}
	logger.Info("api: comparison accepted", "job", jobID, "wps", wpsName, "pqr", pqrName)
	writeJSON(w, http.StatusAccepted, compareUploadResponse{JobID: jobID, Status: "running"})
}

// saveUpload writes one named multipart file into the job workspace and
// returns its path and original filename.
func (s *Server) saveUpload(r *http.Request, field, workspace string) (string, string, error) {
	if r.MultipartForm == nil || len(r.MultipartForm.File[field]) == 0 {
		return "", "", fmt.Errorf("%s file required", field)
	}
	header := r.MultipartForm.File[field][0]
	name := strings.TrimSpace(header.Filename)
	if name == "" {
		return "", "", fmt.Errorf("%s file name required", field)
	}
	cleaned := filepath.Base(filepath.Clean(name))
	if cleaned == "." || cleaned == "" || cleaned == string(filepath.Separator) {
		return "", "", fmt.Errorf("invalid %s file name: %s", field, name)
	}
	destPath := filepath.Join(workspace, field+"_"+cleaned)
	if err := copyUpload(header, destPath); err != nil {
		return "", "", err
	}
	return destPath, cleaned, nil
}

func copyUpload(header *multipart.FileHeader, destPath string) error {
	src, err := header.Open()
	if err != nil {
		return fmt.Errorf("open uploaded file: %w", err)
	}
	defer src.Close()
	dst, err := os.OpenFile(destPath, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return fmt.Errorf("create destination file: %w", err)
	}
	if _, err := io.Copy(dst, src); err != nil {
		dst.Close()
		return fmt.Errorf("write destination file: %w", err)
	}
	return dst.Close()
}

func (s *Server) handleCompareStatus(w http.ResponseWriter, r *http.Request) {
	jobID := strings.TrimSpace(r.URL.Query().Get("job_id"))
	if jobID == "" {
		writeError(w, http.StatusBadRequest, fmt.Errorf("job_id required"))
		return
	}
	state, err := s.workflow.Status(r.Context(), jobID)
	if err != nil {
		if errors.Is(err, workflow.ErrJobNotFound) {
			writeError(w, http.StatusNotFound, err)
			return
		}
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, state)
}

func (s *Server) handleCompareReport(w http.ResponseWriter, r *http.Request) {
	jobID := strings.TrimSpace(r.URL.Query().Get("job_id"))
	if jobID == "" {
		writeError(w, http.StatusBadRequest, fmt.Errorf("job_id required"))
		return
	}
	report, err := s.workflow.Report(r.Context(), jobID)
	if err != nil {
		switch {
		case errors.Is(err, workflow.ErrJobNotFound):
			writeError(w, http.StatusNotFound, err)
		case errors.Is(err, workflow.ErrReportNotReady):
			writeError(w, http.StatusNotFound, err)
		default:
			writeError(w, http.StatusInternalServerError, err)
		}
		return
	}
	writeJSON(w, http.StatusOK, report)
}

func (s *Server) handleCompareStop(w http.ResponseWriter, r *http.Request) {
	jobID := strings.TrimSpace(r.URL.Query().Get("job_id"))
	if jobID == "" {
		writeError(w, http.StatusBadRequest, fmt.Errorf("job_id required"))
		return
	}
	if err := s.workflow.Stop(jobID); err != nil {
		switch {
		case errors.Is(err, workflow.ErrJobNotFound):
			writeError(w, http.StatusNotFound, err)
		case errors.Is(err, workflow.ErrJobNotRunning):
			writeError(w, http.StatusConflict, err)
		default:
			writeError(w, http.StatusInternalServerError, err)
		}
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"job_id": jobID, "status": "canceling"})
}
