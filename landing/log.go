package landing

import (
	"fmt"
	"io"
	"os"

	"gopkg.in/natefinch/lumberjack.v2"
)

// Log writes landing coordinates to w, one "x, y" line per landing.
type Log struct {
	w io.Writer
}

// NewLog creates new Log writing to w.
func NewLog(w io.Writer) *Log {
	return &Log{w: w}
}

// OpenLog opens the landing log file at path for appending.
// When maxSizeMB is positive the file is rotated once it grows over maxSizeMB megabytes.
func OpenLog(path string, maxSizeMB int) (*Log, error) {
	if path == "" {
		return nil, fmt.Errorf("empty landing log path")
	}

	if maxSizeMB > 0 {
		return NewLog(&lumberjack.Logger{
			Filename:  path,
			MaxSize:   maxSizeMB,
			LocalTime: true,
		}), nil
	}

	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("failed to open landing log: %w", err)
	}

	return NewLog(f), nil
}

// WriteLanding writes the landing coordinates x and y.
func (l *Log) WriteLanding(x, y float64) error {
	if _, err := fmt.Fprintf(l.w, "%.2f, %.2f\n", x, y); err != nil {
		return fmt.Errorf("failed to write landing: %w", err)
	}
	return nil
}

// Close closes the underlying writer if it can be closed.
func (l *Log) Close() error {
	if c, ok := l.w.(io.Closer); ok {
		return c.Close()
	}
	return nil
}
