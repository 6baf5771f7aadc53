package export

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
)

// FileSink appends encoded records to a file that is never truncated.
type FileSink struct {
	Path string
}

// NewFileSink returns a sink writing to path.
func NewFileSink(path string) *FileSink {
	return &FileSink{Path: path}
}

// Append encodes records and appends them in a single write.
func (s *FileSink) Append(records []Record) error {
	if s.Path == "" {
		return fmt.Errorf("export: empty sink path")
	}
	var buf bytes.Buffer
	if err := Encode(&buf, records); err != nil {
		return err
	}
	if buf.Len() == 0 {
		return nil
	}

	if dir := filepath.Dir(s.Path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("export: ensure dir: %w", err)
		}
	}
	f, err := os.OpenFile(s.Path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("export: open %s: %w", s.Path, err)
	}
	if _, err := f.Write(buf.Bytes()); err != nil {
		_ = f.Close()
		return fmt.Errorf("export: write %s: %w", s.Path, err)
	}
	return f.Close()
}
