// File path: internal/api/agent_handler.go
package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/arclight-qa/weldcheck/internal/common"
	"github.com/arclight-qa/weldcheck/internal/workflow"
)

func (s *Server) handleAgentAnalyze(w http.ResponseWriter, r *http.Request) {
	logger := common.Logger()
	var req agentAnalyzeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.Warn("api: analyze decode failed", "error", err)
		writeError(w, http.StatusBadRequest, err)
		return
	}
	jobID := strings.TrimSpace(req.JobID)
	if jobID == "" {
		writeError(w, http.StatusBadRequest, fmt.Errorf("job_id required"))
		return
	}
	if s.analyzer == nil {
		writeError(w, http.StatusServiceUnavailable, fmt.Errorf("analyzer unavailable"))
		return
	}
	report, err := s.workflow.Report(r.Context(), jobID)
	if err != nil {
		if errors.Is(err, workflow.ErrJobNotFound) || errors.Is(err, workflow.ErrReportNotReady) {
			writeError(w, http.StatusNotFound, err)
			return
		}
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	logger.Info("api: analysis requested", "job", jobID)
	analysis, err := s.analyzer.Analyze(r.Context(), report)
	if err != nil {
		logger.Error("api: analysis failed", "job", jobID, "error", err)
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, agentAnalyzeResponse{JobID: jobID, Analysis: analysis})
}
