package runlog

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"storyrank/internal/ports"
)

var _ ports.RecordSink = (*Writer)(nil)

// Writer is an append-only JSONL sink backed by a file opened in append
// mode. It is safe for concurrent use.
type Writer struct {
	mu   sync.Mutex
	file *os.File
	enc  *json.Encoder
}

// NewWriter opens (or creates) the file at path for appending.
// Parent directories must already exist.
func NewWriter(path string) (*Writer, error) {
	// #nosec G304 - path comes from operator configuration
	file, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("failed to open log %s: %w", path, err)
	}
	return &Writer{
		file: file,
		enc:  json.NewEncoder(file),
	}, nil
}

// NewWriterInDir opens the named log file inside dir, creating the
// directory if needed.
func NewWriterInDir(dir, name string) (*Writer, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create output directory %s: %w", dir, err)
	}
	return NewWriter(filepath.Join(dir, name))
}

// Append serializes the record as one JSON object followed by a newline.
func (w *Writer) Append(record any) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if err := w.enc.Encode(record); err != nil {
		return fmt.Errorf("failed to append record: %w", err)
	}
	return nil
}

// Close flushes and closes the underlying file.
func (w *Writer) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.file.Close()
}
