// File path: internal/sqlite/types.go
package sqlite

import "time"

// Job represents one comparison run through the pipeline.
type Job struct {
	ID          string    `db:"id"`
	Status      string    `db:"status"`
	Step        string    `db:"step"`
	Error       string    `db:"error"`
	WPSFilename string    `db:"wps_filename"`
	PQRFilename string    `db:"pqr_filename"`
	CreatedAt   time.Time `db:"created_at"`
	UpdatedAt   time.Time `db:"updated_at"`
}

// Document represents a stored normalized extraction for a job, one row per
// document type (wps or pqr). Content is the normalized document as JSON.
type Document struct {
	ID         int64     `db:"id"`
	JobID      string    `db:"job_id"`
	DocType    string    `db:"doc_type"`
	Content    string    `db:"content"`
	TextLength int       `db:"text_length"`
	CreatedAt  time.Time `db:"created_at"`
}

// ReportRow stores the serialized comparison report for a job.
type ReportRow struct {
	ID           int64     `db:"id"`
	JobID        string    `db:"job_id"`
	OverallScore int       `db:"overall_score"`
	Compliant    bool      `db:"compliant"`
	Payload      string    `db:"payload"`
	CreatedAt    time.Time `db:"created_at"`
}

// JobSummary is the job_report_summary view row returned by listings.
type JobSummary struct {
	JobID        string    `db:"job_id" json:"job_id"`
	Status       string    `db:"status" json:"status"`
	WPSFilename  string    `db:"wps_filename" json:"wps_filename,omitempty"`
	PQRFilename  string    `db:"pqr_filename" json:"pqr_filename,omitempty"`
	OverallScore *int      `db:"overall_score" json:"overall_score,omitempty"`
	Compliant    *bool     `db:"compliant" json:"compliant,omitempty"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time `db:"updated_at" json:"updated_at"`
}

// AuditRow represents an audit entry.
type AuditRow struct {
	ID        int64     `db:"id"`
	JobID     *string   `db:"job_id"`
	Action    string    `db:"action"`
	Detail    string    `db:"detail"`
	CreatedAt time.Time `db:"created_at"`
}
