// File path: internal/api/types.go
package api

type compareUploadResponse struct {
	JobID  string `json:"job_id"`
	Status string `json:"status"`
}

type agentAnalyzeRequest struct {
	JobID string `json:"job_id"`
}

type agentAnalyzeResponse struct {
	JobID    string `json:"job_id"`
	Analysis string `json:"analysis"`
}

type statusResponse struct {
	Provider         string `json:"provider"`
	OCRAvailable     bool   `json:"ocr_available"`
	GraphAvailable   bool   `json:"graph_available"`
	CatalogAvailable bool   `json:"catalog_available"`
}
