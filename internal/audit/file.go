package audit

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sync"
)

// FileStore appends records as JSON lines to a single file. The file is only
// ever opened in append mode, so existing records are never rewritten.
type FileStore struct {
	mu   sync.Mutex
	path string
}

// NewFileStore creates the file when missing and verifies it is writable.
func NewFileStore(path string) (*FileStore, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("opening audit file %q: %w", path, err)
	}
	if err := f.Close(); err != nil {
		return nil, err
	}
	return &FileStore{path: path}, nil
}

// Append writes one JSON line and syncs before returning.
func (s *FileStore) Append(_ context.Context, rec Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	f, err := os.OpenFile(s.path, os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("opening audit file: %w", err)
	}
	defer f.Close()

	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("encoding audit record: %w", err)
	}
	if _, err := f.Write(append(data, '\n')); err != nil {
		return fmt.Errorf("appending audit record: %w", err)
	}
	return f.Sync()
}

// LatestModes scans the file and reports the per-task execution modes of the
// most recently appended submission.
func (s *FileStore) LatestModes(_ context.Context) ([]TaskMode, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	f, err := os.Open(s.path)
	if err != nil {
		return nil, fmt.Errorf("opening audit file: %w", err)
	}
	defer f.Close()

	var records []Record
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		var rec Record
		if err := json.Unmarshal(line, &rec); err != nil {
			return nil, fmt.Errorf("decoding audit record: %w", err)
		}
		records = append(records, rec)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading audit file: %w", err)
	}

	if len(records) == 0 {
		return []TaskMode{}, nil
	}
	latest := records[len(records)-1].SubmissionID
	return modesFor(records, latest), nil
}
