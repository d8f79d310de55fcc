// File path: internal/workflow/pipeline.go
package workflow

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/arclight-qa/weldcheck/internal/common/telemetry"
	"github.com/arclight-qa/weldcheck/internal/extract"
	"github.com/arclight-qa/weldcheck/internal/sqlite"
	"github.com/arclight-qa/weldcheck/internal/weld"
)

func (m *Manager) runJob(ctx context.Context, jobID string, req Request) {
	spanCtx, finish := telemetry.StartSpan(ctx, "workflow.job")
	var runErr error
	defer func() {
		finish("job", jobID, "failed", runErr != nil)
		m.finishJob(spanCtx, jobID, runErr)
	}()

	wpsDoc, err := m.runExtractStep(spanCtx, jobID, StepExtractWPS, extract.DocTypeWPS, req.WPSPath)
	if err != nil {
		runErr = err
		return
	}
	pqrDoc, err := m.runExtractStep(spanCtx, jobID, StepExtractPQR, extract.DocTypePQR, req.PQRPath)
	if err != nil {
		runErr = err
		return
	}

	if err := m.runNormalizeStep(spanCtx, jobID, wpsDoc, pqrDoc); err != nil {
		runErr = err
		return
	}

	report, err := m.runCompareStep(spanCtx, jobID, wpsDoc, pqrDoc)
	if err != nil {
		runErr = err
		return
	}

	if err := m.runPersistStep(spanCtx, jobID, report); err != nil {
		runErr = err
		return
	}
}

func (m *Manager) runExtractStep(ctx context.Context, jobID, stepName string, docType extract.DocType, path string) (weld.Document, error) {
	m.markStep(jobID, stepName, StepRunning, "")
	text, err := m.readDocumentText(ctx, path)
	if err != nil {
		m.markStep(jobID, stepName, StepError, err.Error())
		return nil, fmt.Errorf("%s: %w", stepName, err)
	}
	doc, err := m.extractor.Extract(ctx, text, docType)
	if err != nil {
		m.markStep(jobID, stepName, StepError, err.Error())
		return nil, fmt.Errorf("%s: %w", stepName, err)
	}
	if m.store != nil {
		payload, err := json.Marshal(doc)
		if err != nil {
			m.AppendLog("warn", "Serialize %s document failed for job %s: %v", docType, jobID, err)
		} else if err := m.store.SaveDocument(ctx, sqlite.Document{
			JobID:      jobID,
			DocType:    string(docType),
			Content:    string(payload),
			TextLength: len(text),
		}); err != nil {
			m.AppendLog("warn", "Catalog save of %s document failed for job %s: %v", docType, jobID, err)
		}
	}
	m.markStep(jobID, stepName, StepCompleted, fmt.Sprintf("%d sections", len(doc)))
	m.AppendLog("info", "Extracted %s document for job %s (%d sections)", docType, jobID, len(doc))
	return doc, nil
}

// readDocumentText loads a document from disk, routing PDFs through the OCR
// client. Plain text and layout dumps pass straight through.
func (m *Manager) readDocumentText(ctx context.Context, path string) (string, error) {
	trimmed := strings.TrimSpace(path)
	if trimmed == "" {
		return "", errors.New("document path required")
	}
	ext := strings.ToLower(filepath.Ext(trimmed))
	if ext == ".pdf" {
		if !m.ocr.Available() {
			return "", errors.New("pdf input requires the OCR client; set WHISPER_API_KEY or upload extracted text")
		}
		data, err := os.ReadFile(trimmed)
		if err != nil {
			return "", fmt.Errorf("read document: %w", err)
		}
		return m.ocr.ExtractText(ctx, data)
	}
	data, err := os.ReadFile(trimmed)
	if err != nil {
		return "", fmt.Errorf("read document: %w", err)
	}
	return string(data), nil
}

func (m *Manager) runNormalizeStep(ctx context.Context, jobID string, wpsDoc, pqrDoc weld.Document) error {
	m.markStep(jobID, StepMergeNormalize, StepRunning, "")
	if len(wpsDoc) == 0 && len(pqrDoc) == 0 {
		err := errors.New("no content extracted from either document")
		m.markStep(jobID, StepMergeNormalize, StepError, err.Error())
		return fmt.Errorf("%s: %w", StepMergeNormalize, err)
	}
	wpsScore := extract.AssessCompleteness(wpsDoc)
	pqrScore := extract.AssessCompleteness(pqrDoc)
	m.updateState(jobID, func(state *State) {
		state.Completeness = map[string]int{
			string(extract.DocTypeWPS): wpsScore.Overall,
			string(extract.DocTypePQR): pqrScore.Overall,
		}
	})
	m.markStep(jobID, StepMergeNormalize, StepCompleted,
		fmt.Sprintf("wps %d%%, pqr %d%% complete", wpsScore.Overall, pqrScore.Overall))
	return nil
}

func (m *Manager) runCompareStep(ctx context.Context, jobID string, wpsDoc, pqrDoc weld.Document) (*weld.Report, error) {
	m.markStep(jobID, StepCompare, StepRunning, "")
	start := time.Now()
	report := weld.Compare(wpsDoc, pqrDoc, weld.DefaultCatalog())
	telemetry.RecordComparison(time.Since(start))
	m.updateState(jobID, func(state *State) {
		state.Report = report
	})
	m.markStep(jobID, StepCompare, StepCompleted,
		fmt.Sprintf("score %d, compliant %t", report.OverallScore, report.OverallCompliance))
	m.AppendLog("info", "Comparison finished for job %s: score %d, compliant %t", jobID, report.OverallScore, report.OverallCompliance)
	return report, nil
}

func (m *Manager) runPersistStep(ctx context.Context, jobID string, report *weld.Report) error {
	m.markStep(jobID, StepPersist, StepRunning, "")
	if m.store == nil {
		m.markStep(jobID, StepPersist, StepCompleted, "catalog disabled")
		return nil
	}
	payload, err := json.Marshal(report)
	if err != nil {
		m.markStep(jobID, StepPersist, StepError, err.Error())
		return fmt.Errorf("%s: %w", StepPersist, err)
	}
	row := sqlite.ReportRow{
		JobID:        jobID,
		OverallScore: report.OverallScore,
		Compliant:    report.OverallCompliance,
		Payload:      string(payload),
	}
	if err := m.store.SaveReport(ctx, row); err != nil {
		m.markStep(jobID, StepPersist, StepError, err.Error())
		return fmt.Errorf("%s: %w", StepPersist, err)
	}
	m.markStep(jobID, StepPersist, StepCompleted, "")
	return nil
}

func (m *Manager) finishJob(ctx context.Context, jobID string, runErr error) {
	now := time.Now().UTC()
	status := "completed"
	message := ""
	if runErr != nil {
		message = runErr.Error()
		if errors.Is(runErr, context.Canceled) {
			status = "canceled"
		} else {
			status = "failed"
		}
	}
	var failedStep string
	m.updateState(jobID, func(state *State) {
		state.Status = status
		state.Running = false
		state.CompletedAt = &now
		state.Error = message
		for i := range state.Steps {
			if state.Steps[i].Status == StepError {
				failedStep = state.Steps[i].Name
			}
		}
	})
	if m.store != nil {
		// Catalog update runs on a fresh context: the job context is already
		// canceled on the cancellation path.
		dbCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := m.store.UpdateJobStatus(dbCtx, jobID, status, failedStep, message); err != nil {
			m.AppendLog("warn", "Catalog status update failed for job %s: %v", jobID, err)
		}
	}
	if runErr != nil {
		m.AppendLog("error", "Job %s %s: %s", jobID, status, message)
	} else {
		m.AppendLog("info", "Job %s completed", jobID)
	}
}

func decodeReport(payload string) (*weld.Report, error) {
	var report weld.Report
	if err := json.Unmarshal([]byte(payload), &report); err != nil {
		return nil, err
	}
	return &report, nil
}
