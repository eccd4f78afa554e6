package storage

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"ammcore/internal/model"
)

// JsonlStorage appends journal records to a JSONL file. The file is opened
// lazily and kept open until Close.
type JsonlStorage struct {
	path  string
	fsync bool

	mu   sync.Mutex
	file *os.File
}

// JsonlOption configures a JsonlStorage.
type JsonlOption func(*JsonlStorage)

// WithSync fsyncs the file after every batch.
func WithSync() JsonlOption {
	return func(s *JsonlStorage) { s.fsync = true }
}

func NewJsonlStorage(path string, opts ...JsonlOption) *JsonlStorage {
	s := &JsonlStorage{path: path}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Path returns the journal location.
func (s *JsonlStorage) Path() string {
	return s.path
}

// PutLogBatch appends a batch of records as JSON lines.
func (s *JsonlStorage) PutLogBatch(logs []model.LogRecord) error {
	if len(logs) == 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.open(); err != nil {
		return err
	}

	writer := bufio.NewWriter(s.file)
	for _, record := range logs {
		line, err := json.Marshal(record)
		if err != nil {
			return fmt.Errorf("marshal log record: %w", err)
		}
		if _, err := writer.Write(line); err != nil {
			return fmt.Errorf("write log record: %w", err)
		}
		if err := writer.WriteByte('\n'); err != nil {
			return fmt.Errorf("write newline: %w", err)
		}
	}
	if err := writer.Flush(); err != nil {
		return fmt.Errorf("flush journal: %w", err)
	}
	if s.fsync {
		if err := s.file.Sync(); err != nil {
			return fmt.Errorf("sync journal: %w", err)
		}
	}
	return nil
}

// Close releases the file handle.
func (s *JsonlStorage) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.file == nil {
		return nil
	}
	err := s.file.Close()
	s.file = nil
	return err
}

func (s *JsonlStorage) open() error {
	if s.file != nil {
		return nil
	}
	dir := filepath.Dir(s.path)
	if dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create journal dir: %w", err)
		}
	}
	file, err := os.OpenFile(s.path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("open journal: %w", err)
	}
	s.file = file
	return nil
}
