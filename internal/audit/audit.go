package audit

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/spigell/resume-tailor/internal/task"

	"github.com/google/uuid"
)

// Record captures one task's execution for one submission. Records are
// append-only: the engine writes exactly one per finalized task per
// invocation and never edits or deletes entries.
type Record struct {
	SubmissionID uuid.UUID       `json:"submission_id"`
	TaskName     string          `json:"task_name"`
	Mode         task.Mode       `json:"mode"`
	Status       task.Status     `json:"status"`
	Timestamp    time.Time       `json:"timestamp"`
	RawOutput    json.RawMessage `json:"raw_output"`
}

// TaskMode is one entry of the diagnostics view: execution mode per task for
// an invocation.
type TaskMode struct {
	TaskName string      `json:"task_name"`
	Mode     task.Mode   `json:"mode"`
	Status   task.Status `json:"status"`
}

// Store persists audit records. Append must be durable before returning;
// LatestModes serves the external status page with the per-task execution
// modes of the most recent invocation.
type Store interface {
	Append(ctx context.Context, rec Record) error
	LatestModes(ctx context.Context) ([]TaskMode, error)
}

// NewRecord builds a record from a finalized result, serializing its output.
func NewRecord(submissionID uuid.UUID, res *task.Result) Record {
	raw, err := json.Marshal(res.Output)
	if err != nil {
		raw = json.RawMessage(`null`)
	}
	return Record{
		SubmissionID: submissionID,
		TaskName:     res.Name,
		Mode:         res.Mode,
		Status:       res.Status,
		Timestamp:    time.Now().UTC(),
		RawOutput:    raw,
	}
}

// MemoryStore is an in-process append-only store, used in tests and as the
// default when no durable driver is configured.
type MemoryStore struct {
	mu      sync.Mutex
	records []Record
}

// NewMemoryStore returns an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

// Append adds the record. It never overwrites: re-running a submission adds
// a new set of records.
func (m *MemoryStore) Append(_ context.Context, rec Record) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.records = append(m.records, rec)
	return nil
}

// LatestModes returns the per-task modes of the submission appended last.
func (m *MemoryStore) LatestModes(_ context.Context) ([]TaskMode, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.records) == 0 {
		return []TaskMode{}, nil
	}
	latest := m.records[len(m.records)-1].SubmissionID
	return modesFor(m.records, latest), nil
}

// Records returns a copy of everything appended so far.
func (m *MemoryStore) Records() []Record {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Record, len(m.records))
	copy(out, m.records)
	return out
}

func modesFor(records []Record, submission uuid.UUID) []TaskMode {
	out := []TaskMode{}
	for _, rec := range records {
		if rec.SubmissionID != submission {
			continue
		}
		out = append(out, TaskMode{TaskName: rec.TaskName, Mode: rec.Mode, Status: rec.Status})
	}
	return out
}
