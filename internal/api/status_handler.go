// File path: internal/api/status_handler.go
package api

import (
	"net/http"

	"github.com/arclight-qa/weldcheck/internal/common"
)

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	providerName := "none"
	if s.provider != nil {
		providerName = s.provider.Name()
	}
	writeJSON(w, http.StatusOK, statusResponse{
		Provider:         providerName,
		OCRAvailable:     s.ocr.Available(),
		GraphAvailable:   s.requirements.Available(),
		CatalogAvailable: s.store != nil,
	})
}

func (s *Server) handleLogs(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"logs":     common.LogEntries(),
		"workflow": s.workflow.Logs(),
	})
}
