package loadgen

import (
	"fmt"
	"io"
	"os"
)

// OpenLogFile opens path for appending run logs next to stdout. An empty
// path returns stdout alone.
func OpenLogFile(path string) (io.Writer, func() error, error) {
	if path == "" {
		return os.Stdout, func() error { return nil }, nil
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
	if err != nil {
		return nil, nil, fmt.Errorf("open log file: %w", err)
	}
	return io.MultiWriter(os.Stdout, f), f.Close, nil
}
