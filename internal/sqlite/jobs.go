// File path: internal/sqlite/jobs.go
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"
)

// ErrJobNotFound signals a lookup for a job id the catalog never recorded.
var ErrJobNotFound = errors.New("job not found")

// InsertJob records a freshly accepted comparison job.
func (s *Store) InsertJob(ctx context.Context, job Job) error {
	if s == nil || s.db == nil {
		return errors.New("sqlite store not initialised")
	}
	if strings.TrimSpace(job.ID) == "" {
		return errors.New("job id required")
	}
	if strings.TrimSpace(job.Status) == "" {
		job.Status = "pending"
	}
	return withTx(ctx, s.db, func(tx *sqlx.Tx) error {
		if _, err := tx.ExecContext(ctx, `INSERT INTO jobs(id, status, step, wps_filename, pqr_filename)
                        VALUES(?, ?, ?, ?, ?)`,
			job.ID, job.Status, job.Step, job.WPSFilename, job.PQRFilename); err != nil {
			return fmt.Errorf("insert job: %w", err)
		}
		return recordAudit(ctx, tx, job.ID, "job_accepted", fmt.Sprintf("wps=%s pqr=%s", job.WPSFilename, job.PQRFilename))
	})
}

// UpdateJobStatus moves a job to a new status/step, recording the failure
// message when one is provided.
func (s *Store) UpdateJobStatus(ctx context.Context, jobID, status, step, errMsg string) error {
	if s == nil || s.db == nil {
		return errors.New("sqlite store not initialised")
	}
	return withTx(ctx, s.db, func(tx *sqlx.Tx) error {
		res, err := tx.ExecContext(ctx, `UPDATE jobs SET status = ?, step = ?, error = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`,
			status, step, errMsg, jobID)
		if err != nil {
			return fmt.Errorf("update job: %w", err)
		}
		affected, err := res.RowsAffected()
		if err != nil {
			return fmt.Errorf("update job: %w", err)
		}
		if affected == 0 {
			return ErrJobNotFound
		}
		detail := step
		if errMsg != "" {
			detail = fmt.Sprintf("%s: %s", step, errMsg)
		}
		return recordAudit(ctx, tx, jobID, "status_"+status, detail)
	})
}

// GetJob loads one job row by id.
func (s *Store) GetJob(ctx context.Context, jobID string) (*Job, error) {
	if s == nil || s.db == nil {
		return nil, errors.New("sqlite store not initialised")
	}
	var job Job
	err := s.db.GetContext(ctx, &job, `SELECT * FROM jobs WHERE id = ?`, jobID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrJobNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("select job: %w", err)
	}
	return &job, nil
}

// SaveDocument upserts the normalized extraction for one document type.
func (s *Store) SaveDocument(ctx context.Context, doc Document) error {
	if s == nil || s.db == nil {
		return errors.New("sqlite store not initialised")
	}
	if strings.TrimSpace(doc.JobID) == "" {
		return errors.New("document job id required")
	}
	if strings.TrimSpace(doc.DocType) == "" {
		return errors.New("document type required")
	}
	return withTx(ctx, s.db, func(tx *sqlx.Tx) error {
		if _, err := tx.ExecContext(ctx, `INSERT INTO documents(job_id, doc_type, content, text_length)
                        VALUES(?, ?, ?, ?)
                        ON CONFLICT(job_id, doc_type) DO UPDATE SET
                                content = excluded.content,
                                text_length = excluded.text_length`,
			doc.JobID, doc.DocType, doc.Content, doc.TextLength); err != nil {
			return fmt.Errorf("upsert document: %w", err)
		}
		return recordAudit(ctx, tx, doc.JobID, "document_saved", doc.DocType)
	})
}

// DocumentsForJob returns the stored extractions for a job ordered by type.
func (s *Store) DocumentsForJob(ctx context.Context, jobID string) ([]Document, error) {
	if s == nil || s.db == nil {
		return nil, errors.New("sqlite store not initialised")
	}
	docs := []Document{}
	if err := s.db.SelectContext(ctx, &docs, `SELECT * FROM documents WHERE job_id = ? ORDER BY doc_type`, jobID); err != nil {
		return nil, fmt.Errorf("select documents: %w", err)
	}
	return docs, nil
}

// SaveReport upserts the serialized comparison report for a job.
func (s *Store) SaveReport(ctx context.Context, report ReportRow) error {
	if s == nil || s.db == nil {
		return errors.New("sqlite store not initialised")
	}
	if strings.TrimSpace(report.JobID) == "" {
		return errors.New("report job id required")
	}
	return withTx(ctx, s.db, func(tx *sqlx.Tx) error {
		if _, err := tx.ExecContext(ctx, `INSERT INTO reports(job_id, overall_score, compliant, payload)
                        VALUES(?, ?, ?, ?)
                        ON CONFLICT(job_id) DO UPDATE SET
                                overall_score = excluded.overall_score,
                                compliant = excluded.compliant,
                                payload = excluded.payload`,
			report.JobID, report.OverallScore, report.Compliant, report.Payload); err != nil {
			return fmt.Errorf("upsert report: %w", err)
		}
		return recordAudit(ctx, tx, report.JobID, "report_saved", fmt.Sprintf("score=%d compliant=%t", report.OverallScore, report.Compliant))
	})
}

// GetReport loads the stored report for a job.
func (s *Store) GetReport(ctx context.Context, jobID string) (*ReportRow, error) {
	if s == nil || s.db == nil {
		return nil, errors.New("sqlite store not initialised")
	}
	var report ReportRow
	err := s.db.GetContext(ctx, &report, `SELECT * FROM reports WHERE job_id = ?`, jobID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrJobNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("select report: %w", err)
	}
	return &report, nil
}

// ListJobs returns recent jobs with their report summaries, newest first.
func (s *Store) ListJobs(ctx context.Context, limit int) ([]JobSummary, error) {
	if s == nil || s.db == nil {
		return nil, errors.New("sqlite store not initialised")
	}
	if limit <= 0 {
		limit = 50
	}
	summaries := []JobSummary{}
	if err := s.db.SelectContext(ctx, &summaries, `SELECT * FROM job_report_summary ORDER BY created_at DESC LIMIT ?`, limit); err != nil {
		return nil, fmt.Errorf("select job summaries: %w", err)
	}
	return summaries, nil
}

// AuditForJob returns the audit trail for a job, oldest first.
func (s *Store) AuditForJob(ctx context.Context, jobID string) ([]AuditRow, error) {
	if s == nil || s.db == nil {
		return nil, errors.New("sqlite store not initialised")
	}
	rows := []AuditRow{}
	if err := s.db.SelectContext(ctx, &rows, `SELECT * FROM audit WHERE job_id = ? ORDER BY created_at, id`, jobID); err != nil {
		return nil, fmt.Errorf("select audit: %w", err)
	}
	return rows, nil
}

func recordAudit(ctx context.Context, tx *sqlx.Tx, jobID, action, detail string) error {
	if _, err := tx.ExecContext(ctx, `INSERT INTO audit(job_id, action, detail) VALUES(?, ?, ?)`,
		nullIfEmpty(jobID), action, detail); err != nil {
		return fmt.Errorf("insert audit: %w", err)
	}
	return nil
}

func withTx(ctx context.Context, db *sqlx.DB, fn func(*sqlx.Tx) error) error {
	tx, err := db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	if err := fn(tx); err != nil {
		tx.Rollback()
		return err
	}
	return tx.Commit()
}

func nullIfEmpty(value string) interface{} {
	if strings.TrimSpace(value) == "" {
		return nil
	}
	return value
}
