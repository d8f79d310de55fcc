// File path: internal/sqlite/store_test.go
package sqlite

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	cfg := Config{Path: filepath.Join(t.TempDir(), "catalog.db")}
	cfg.applyDefaults()
	store, err := OpenWithConfig(cfg)
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func TestJobLifecycle(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	job := Job{ID: "job-1", WPSFilename: "wps.pdf", PQRFilename: "pqr.pdf"}
	if err := store.InsertJob(ctx, job); err != nil {
		t.Fatalf("insert job: %v", err)
	}

	loaded, err := store.GetJob(ctx, "job-1")
	if err != nil {
		t.Fatalf("get job: %v", err)
	}
	if loaded.Status != "pending" {
		t.Fatalf("expected pending status, got %q", loaded.Status)
	}

	if err := store.UpdateJobStatus(ctx, "job-1", "running", "extract-wps", ""); err != nil {
		t.Fatalf("update status: %v", err)
	}
	loaded, err = store.GetJob(ctx, "job-1")
	if err != nil {
		t.Fatalf("get job: %v", err)
	}
	if loaded.Status != "running" || loaded.Step != "extract-wps" {
		t.Fatalf("unexpected job state %q/%q", loaded.Status, loaded.Step)
	}

	if err := store.UpdateJobStatus(ctx, "job-1", "failed", "compare", "boom"); err != nil {
		t.Fatalf("update status: %v", err)
	}
	loaded, err = store.GetJob(ctx, "job-1")
	if err != nil {
		t.Fatalf("get job: %v", err)
	}
	if loaded.Error != "boom" {
		t.Fatalf("expected error recorded, got %q", loaded.Error)
	}

	audit, err := store.AuditForJob(ctx, "job-1")
	if err != nil {
		t.Fatalf("audit: %v", err)
	}
	if len(audit) != 3 {
		t.Fatalf("expected 3 audit rows, got %d", len(audit))
	}
	if audit[0].Action != "job_accepted" {
		t.Fatalf("unexpected first audit action %q", audit[0].Action)
	}
}

func TestOpenSetsJournalModeAndReopens(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "catalog.db")

	store, err := OpenWithConfig(Config{Path: path})
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	var mode string
	if err := store.db.GetContext(ctx, &mode, `PRAGMA journal_mode`); err != nil {
		t.Fatalf("query journal mode: %v", err)
	}
	if mode != "wal" {
		t.Fatalf("expected wal journal mode, got %q", mode)
	}
	if err := store.InsertJob(ctx, Job{ID: "job-reopen"}); err != nil {
		t.Fatalf("insert job: %v", err)
	}
	if err := store.Close(); err != nil {
		t.Fatalf("close store: %v", err)
	}

	reopened, err := OpenWithConfig(Config{Path: path})
	if err != nil {
		t.Fatalf("reopen store: %v", err)
	}
	defer reopened.Close()
	loaded, err := reopened.GetJob(ctx, "job-reopen")
	if err != nil {
		t.Fatalf("get job after reopen: %v", err)
	}
	if loaded.Error != "" || loaded.Step != "" {
		t.Fatalf("expected empty step and error on fresh job, got %q/%q", loaded.Step, loaded.Error)
	}
}

func TestUpdateJobStatusUnknownJob(t *testing.T) {
	store := openTestStore(t)
	err := store.UpdateJobStatus(context.Background(), "missing", "running", "", "")
	if !errors.Is(err, ErrJobNotFound) {
		t.Fatalf("expected ErrJobNotFound, got %v", err)
	}
}

func TestSaveDocumentUpserts(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()
	if err := store.InsertJob(ctx, Job{ID: "job-2"}); err != nil {
		t.Fatalf("insert job: %v", err)
	}

	first := Document{JobID: "job-2", DocType: "wps", Content: `{"a":1}`, TextLength: 10}
	if err := store.SaveDocument(ctx, first); err != nil {
		t.Fatalf("save document: %v", err)
	}
	second := first
	second.Content = `{"a":2}`
	second.TextLength = 20
	if err := store.SaveDocument(ctx, second); err != nil {
		t.Fatalf("save document: %v", err)
	}

	docs, err := store.DocumentsForJob(ctx, "job-2")
	if err != nil {
		t.Fatalf("documents: %v", err)
	}
	if len(docs) != 1 {
		t.Fatalf("expected upsert to keep one row, got %d", len(docs))
	}
	if docs[0].Content != `{"a":2}` || docs[0].TextLength != 20 {
		t.Fatalf("unexpected stored document %+v", docs[0])
	}
}

func TestSaveReportAndListJobs(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()
	if err := store.InsertJob(ctx, Job{ID: "job-3", WPSFilename: "w.pdf", PQRFilename: "p.pdf"}); err != nil {
		t.Fatalf("insert job: %v", err)
	}

	report := ReportRow{JobID: "job-3", OverallScore: 87, Compliant: false, Payload: `{"overall_score":87}`}
	if err := store.SaveReport(ctx, report); err != nil {
		t.Fatalf("save report: %v", err)
	}
	loaded, err := store.GetReport(ctx, "job-3")
	if err != nil {
		t.Fatalf("get report: %v", err)
	}
	if loaded.OverallScore != 87 || loaded.Compliant {
		t.Fatalf("unexpected report %+v", loaded)
	}

	summaries, err := store.ListJobs(ctx, 10)
	if err != nil {
		t.Fatalf("list jobs: %v", err)
	}
	if len(summaries) != 1 {
		t.Fatalf("expected 1 summary, got %d", len(summaries))
	}
	if summaries[0].OverallScore == nil || *summaries[0].OverallScore != 87 {
		t.Fatalf("summary missing report score: %+v", summaries[0])
	}

	if _, err := store.GetReport(ctx, "missing"); !errors.Is(err, ErrJobNotFound) {
		t.Fatalf("expected ErrJobNotFound, got %v", err)
	}
}
