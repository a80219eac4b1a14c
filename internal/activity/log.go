// Package activity owns the append-only activity log. The log is the source
// of truth for everything the tracker derives; nothing in it is ever edited.
package activity

import (
	"bufio"
	"encoding/json"
	"fmt"
	"iter"
	"os"
	"path/filepath"
)

// FileName is the log's name inside the state directory.
const FileName = "activity.jsonl"

// maxLineSize bounds a single log line during scans. Longer lines are
// treated like any other malformed line and skipped.
const maxLineSize = 1 << 20

// Log is a newline-delimited JSON file of Records.
type Log struct {
	path string
}

// NewLog returns a Log stored at dir/activity.jsonl. The directory is not
// created until the first Append.
func NewLog(dir string) *Log {
	return &Log{path: filepath.Join(dir, FileName)}
}

// Path returns the log file location.
func (l *Log) Path() string { return l.path }

// Append writes rec as a single line. The line goes out in one write on an
// O_APPEND descriptor so concurrent appenders never interleave within a line.
func (l *Log) Append(rec Record) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("encode activity record: %w", err)
	}
	data = append(data, '\n')

	if err := os.MkdirAll(filepath.Dir(l.path), 0o755); err != nil {
		return fmt.Errorf("create activity log directory: %w", err)
	}
	f, err := os.OpenFile(l.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open activity log: %w", err)
	}
	if _, err := f.Write(data); err != nil {
		f.Close()
		return fmt.Errorf("append activity record: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close activity log: %w", err)
	}
	return nil
}

// Scan yields every record matching match, in log order. Each iteration
// reopens the file from the start; no cursor survives between calls.
// Unparseable lines are skipped. A missing log yields nothing.
func (l *Log) Scan(match func(Record) bool) iter.Seq[Record] {
	if match == nil {
		match = All
	}
	return func(yield func(Record) bool) {
		f, err := os.Open(l.path)
		if err != nil {
			return
		}
		defer f.Close()

		r := bufio.NewReader(f)
		for {
			line, err := readLine(r)
			if len(line) > 0 {
				var rec Record
				if json.Unmarshal(line, &rec) == nil && match(rec) {
					if !yield(rec) {
						return
					}
				}
			}
			if err != nil {
				return
			}
		}
	}
}

// readLine returns the next newline-terminated line without its terminator.
// Lines longer than maxLineSize are consumed and returned empty. A trailing
// line with no newline is a write still in flight and is not returned.
func readLine(r *bufio.Reader) ([]byte, error) {
	var buf []byte
	oversize := false
	for {
		chunk, err := r.ReadSlice('\n')
		if !oversize {
			if len(buf)+len(chunk) > maxLineSize {
				oversize = true
				buf = nil
			} else {
				buf = append(buf, chunk...)
			}
		}
		switch err {
		case nil:
			if oversize {
				return nil, nil
			}
			return buf[:len(buf)-1], nil
		case bufio.ErrBufferFull:
			continue
		default:
			return nil, err
		}
	}
}
