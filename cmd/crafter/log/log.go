package log

import (
	"bufio"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"
)

var (
	mu         sync.Mutex
	logFile    *os.File
	fileWriter *bufio.Writer
)

// lockedWriter serialises writes to the buffered file, the buffer is shared
// with FlushLog.
type lockedWriter struct{}

func (lockedWriter) Write(p []byte) (int, error) {
	mu.Lock()
	defer mu.Unlock()
	if fileWriter == nil {
		return len(p), nil
	}
	return fileWriter.Write(p)
}

// NewLogger logs to stdout and to a timestamped file in dir. An empty name
// falls back to "Crafter".
func NewLogger(debug bool, dir, name string) (*slog.Logger, error) {
	if name == "" {
		name = "Crafter"
	}

	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("error creating log directory: %w", err)
	}

	fileName := fmt.Sprintf("%s-%s.txt", name, time.Now().Format("2006-01-02-15-04-05"))
	f, err := os.OpenFile(filepath.Join(dir, fileName), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, fmt.Errorf("error opening log file: %w", err)
	}

	mu.Lock()
	logFile = f
	fileWriter = bufio.NewWriterSize(f, 32*1024)
	mu.Unlock()

	level := slog.LevelInfo
	if debug {
		level = slog.LevelDebug
	}

	handler := slog.NewTextHandler(io.MultiWriter(os.Stdout, lockedWriter{}), &slog.HandlerOptions{
		Level: level,
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			if a.Key == slog.TimeKey && len(groups) == 0 {
				return slog.String(slog.TimeKey, a.Value.Time().Format("15:04:05.000"))
			}
			return a
		},
	})

	return slog.New(handler), nil
}

func FlushLog() {
	mu.Lock()
	defer mu.Unlock()
	if fileWriter != nil {
		_ = fileWriter.Flush()
	}
}

func FlushAndClose() error {
	mu.Lock()
	defer mu.Unlock()
	if fileWriter == nil {
		return nil
	}

	_ = fileWriter.Flush()
	err := logFile.Close()
	fileWriter = nil
	logFile = nil

	return err
}
