// File path: internal/workflow/manager.go
package workflow

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/arclight-qa/weldcheck/internal/common"
	"github.com/arclight-qa/weldcheck/internal/extract"
	"github.com/arclight-qa/weldcheck/internal/sqlite"
	"github.com/arclight-qa/weldcheck/internal/weld"
	"github.com/arclight-qa/weldcheck/internal/whisper"
)

const maxLogEntries = 500

var (
	ErrJobRunning     = errors.New("job already running")
	ErrJobNotFound    = errors.New("job not found")
	ErrJobNotRunning  = errors.New("job not running")
	ErrReportNotReady = errors.New("report not available")
)

type StepStatus string

const (
	StepPending   StepStatus = "pending"
	StepRunning   StepStatus = "running"
	StepCompleted StepStatus = "completed"
	StepError     StepStatus = "error"
)

// Step names in pipeline order.
const (
	StepExtractWPS     = "extract-wps"
	StepExtractPQR     = "extract-pqr"
	StepMergeNormalize = "merge-normalize"
	StepCompare        = "compare"
	StepPersist        = "persist"
)

type LogEntry struct {
	Time    time.Time `json:"time"`
	Level   string    `json:"level"`
	Message string    `json:"message"`
}

type Step struct {
	Name        string     `json:"name"`
	Status      StepStatus `json:"status"`
	Message     string     `json:"message,omitempty"`
	StartedAt   *time.Time `json:"started_at,omitempty"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
}

// Request describes one comparison job: the uploaded document locations and
// their original filenames.
type Request struct {
	JobID       string `json:"job_id,omitempty"`
	WPSPath     string `json:"wps_path"`
	PQRPath     string `json:"pqr_path"`
	WPSFilename string `json:"wps_filename,omitempty"`
	PQRFilename string `json:"pqr_filename,omitempty"`
}

// State is a point-in-time snapshot of one job.
type State struct {
	JobID        string         `json:"job_id"`
	Status       string         `json:"status"`
	Running      bool           `json:"running"`
	StartedAt    *time.Time     `json:"started_at,omitempty"`
	CompletedAt  *time.Time     `json:"completed_at,omitempty"`
	Steps        []Step         `json:"steps"`
	Error        string         `json:"error,omitempty"`
	Completeness map[string]int `json:"completeness,omitempty"`
	Report       *weld.Report   `json:"report,omitempty"`
	Request      Request        `json:"request"`
}

type session struct {
	state  State
	cancel context.CancelFunc
}

// Manager drives comparison jobs through the extraction, comparison, and
// persistence pipeline. One goroutine per job; snapshots are served from an
// in-memory session table with the SQLite catalog as durable history.
type Manager struct {
	store     *sqlite.Store
	extractor *extract.Extractor
	ocr       *whisper.Client

	logMu sync.Mutex
	logs  []LogEntry

	jobMu sync.Mutex
	jobs  map[string]*session
}

func NewManager(store *sqlite.Store, extractor *extract.Extractor, ocr *whisper.Client) *Manager {
	return &Manager{
		store:     store,
		extractor: extractor,
		ocr:       ocr,
		logs:      make([]LogEntry, 0, 32),
		jobs:      make(map[string]*session),
	}
}

func (m *Manager) AppendLog(level, format string, args ...interface{}) {
	text := fmt.Sprintf(format, args...)
	entry := LogEntry{Time: time.Now().UTC(), Level: level, Message: text}
	m.logMu.Lock()
	m.logs = append(m.logs, entry)
	if len(m.logs) > maxLogEntries {
		m.logs = m.logs[len(m.logs)-maxLogEntries:]
	}
	m.logMu.Unlock()
	logger := common.Logger()
	switch level {
	case "error":
		logger.Error(text)
	case "warn":
		logger.Warn(text)
	case "debug":
		logger.Debug(text)
	default:
		logger.Info(text)
	}
}

func (m *Manager) Logs() []LogEntry {
	m.logMu.Lock()
	defer m.logMu.Unlock()
	entries := make([]LogEntry, len(m.logs))
	copy(entries, m.logs)
	return entries
}

// Start accepts a job and launches the pipeline goroutine. The returned id
// identifies the job for status and report lookups.
func (m *Manager) Start(req Request) (string, error) {
	if strings.TrimSpace(req.WPSPath) == "" {
		return "", errors.New("wps document path required")
	}
	if strings.TrimSpace(req.PQRPath) == "" {
		return "", errors.New("pqr document path required")
	}
	jobID := strings.TrimSpace(req.JobID)
	if jobID == "" {
		jobID = uuid.NewString()
	}
	req.JobID = jobID

	now := time.Now().UTC()
	state := State{
		JobID:     jobID,
		Status:    "running",
		Running:   true,
		StartedAt: &now,
		Steps:     newSteps(),
		Request:   req,
	}
	ctx, cancel := context.WithCancel(context.Background())
	m.jobMu.Lock()
	if existing, ok := m.jobs[jobID]; ok && existing.state.Running {
		m.jobMu.Unlock()
		cancel()
		return "", ErrJobRunning
	}
	m.jobs[jobID] = &session{state: state, cancel: cancel}
	m.jobMu.Unlock()

	if m.store != nil {
		record := sqlite.Job{
			ID:          jobID,
			Status:      "running",
			WPSFilename: req.WPSFilename,
			PQRFilename: req.PQRFilename,
		}
		if err := m.store.InsertJob(ctx, record); err != nil {
			m.AppendLog("warn", "Catalog insert failed for job %s: %v", jobID, err)
		}
	}

	go m.runJob(ctx, jobID, req)
	m.AppendLog("info", "Comparison started for job %s (wps=%s pqr=%s)", jobID, req.WPSFilename, req.PQRFilename)
	return jobID, nil
}

// Stop cancels a running job.
func (m *Manager) Stop(jobID string) error {
	jobID = strings.TrimSpace(jobID)
	if jobID == "" {
		return errors.New("job id required")
	}
	m.jobMu.Lock()
	sess, ok := m.jobs[jobID]
	if !ok {
		m.jobMu.Unlock()
		return ErrJobNotFound
	}
	if !sess.state.Running || sess.cancel == nil {
		m.jobMu.Unlock()
		return ErrJobNotRunning
	}
	sess.state.Status = "canceling"
	cancel := sess.cancel
	m.jobMu.Unlock()
	cancel()
	m.AppendLog("info", "Cancellation requested for job %s", jobID)
	return nil
}

// Status returns a snapshot of one job, falling back to the catalog for jobs
// that predate this process.
func (m *Manager) Status(ctx context.Context, jobID string) (State, error) {
	jobID = strings.TrimSpace(jobID)
	if jobID == "" {
		return State{}, errors.New("job id required")
	}
	m.jobMu.Lock()
	sess, ok := m.jobs[jobID]
	if ok {
		snapshot := cloneState(sess.state)
		m.jobMu.Unlock()
		return snapshot, nil
	}
	m.jobMu.Unlock()

	if m.store == nil {
		return State{}, ErrJobNotFound
	}
	record, err := m.store.GetJob(ctx, jobID)
	if err != nil {
		if errors.Is(err, sqlite.ErrJobNotFound) {
			return State{}, ErrJobNotFound
		}
		return State{}, err
	}
	state := State{
		JobID:   record.ID,
		Status:  record.Status,
		Running: record.Status == "running",
		Error:   record.Error,
		Request: Request{
			JobID:       record.ID,
			WPSFilename: record.WPSFilename,
			PQRFilename: record.PQRFilename,
		},
	}
	return state, nil
}

// Report returns the finished comparison report for a job.
func (m *Manager) Report(ctx context.Context, jobID string) (*weld.Report, error) {
	state, err := m.Status(ctx, jobID)
	if err != nil {
		return nil, err
	}
	if state.Report != nil {
		return state.Report, nil
	}
	if m.store == nil {
		return nil, ErrReportNotReady
	}
	row, err := m.store.GetReport(ctx, jobID)
	if err != nil {
		if errors.Is(err, sqlite.ErrJobNotFound) {
			return nil, ErrReportNotReady
		}
		return nil, err
	}
	report, err := decodeReport(row.Payload)
	if err != nil {
		return nil, fmt.Errorf("decode stored report: %w", err)
	}
	return report, nil
}

// ListJobs returns recent jobs with report summaries from the catalog.
func (m *Manager) ListJobs(ctx context.Context, limit int) ([]sqlite.JobSummary, error) {
	if m.store == nil {
		return nil, errors.New("catalog unavailable")
	}
	return m.store.ListJobs(ctx, limit)
}

func newSteps() []Step {
	names := []string{StepExtractWPS, StepExtractPQR, StepMergeNormalize, StepCompare, StepPersist}
	steps := make([]Step, len(names))
	for i, name := range names {
		steps[i] = Step{Name: name, Status: StepPending}
	}
	return steps
}

func cloneState(src State) State {
	out := src
	out.Steps = make([]Step, len(src.Steps))
	copy(out.Steps, src.Steps)
	if src.Completeness != nil {
		out.Completeness = make(map[string]int, len(src.Completeness))
		for k, v := range src.Completeness {
			out.Completeness[k] = v
		}
	}
	return out
}

func (m *Manager) updateState(jobID string, fn func(*State)) {
	m.jobMu.Lock()
	defer m.jobMu.Unlock()
	sess, ok := m.jobs[jobID]
	if !ok {
		return
	}
	fn(&sess.state)
}

func (m *Manager) markStep(jobID, name string, status StepStatus, message string) {
	now := time.Now().UTC()
	m.updateState(jobID, func(state *State) {
		for i := range state.Steps {
			if state.Steps[i].Name != name {
				continue
			}
			state.Steps[i].Status = status
			state.Steps[i].Message = message
			switch status {
			case StepRunning:
				state.Steps[i].StartedAt = &now
			case StepCompleted, StepError:
				state.Steps[i].CompletedAt = &now
			}
			return
		}
	})
}
