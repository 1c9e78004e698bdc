package adapters

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"rankscout/internal/logging/types"
)

// FileAdapter implements the LogAdapter interface for append-only file output.
// A long batch run leaves its full trail in one file per run.
type FileAdapter struct {
	name string
	cfg  FileConfig
	file *os.File
	mu   sync.Mutex
}

// FileConfig represents configuration for the file adapter
type FileConfig struct {
	FilePath    string `yaml:"file_path"`     // path to log file
	Format      string `yaml:"format"`        // json or text
	Truncate    bool   `yaml:"truncate"`      // start each run with a fresh file
	CreateDirs  bool   `yaml:"create_dirs"`   // create parent directories if missing
	SyncOnWrite bool   `yaml:"sync_on_write"` // fsync after each write
}

// NewFileAdapter creates a new file adapter
func NewFileAdapter(name string, cfg FileConfig) (*FileAdapter, error) {
	if cfg.Format == "" {
		cfg.Format = "text"
	}

	if cfg.CreateDirs {
		if err := os.MkdirAll(filepath.Dir(cfg.FilePath), 0755); err != nil {
			return nil, fmt.Errorf("failed to create directories: %w", err)
		}
	}

	flags := os.O_CREATE | os.O_WRONLY | os.O_APPEND
	if cfg.Truncate {
		flags = os.O_CREATE | os.O_WRONLY | os.O_TRUNC
	}

	file, err := os.OpenFile(cfg.FilePath, flags, 0644)
	if err != nil {
		return nil, fmt.Errorf("failed to open log file: %w", err)
	}

	return &FileAdapter{
		name: name,
		cfg:  cfg,
		file: file,
	}, nil
}

// Write writes a log entry to the file
func (a *FileAdapter) Write(entry *types.LogEntry) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	var line string

	switch strings.ToLower(a.cfg.Format) {
	case "json":
		data, err := json.Marshal(map[string]interface{}{
			"level":   entry.Level.String(),
			"message": entry.Message,
			"time":    entry.Timestamp,
			"fields":  entry.Fields,
		})
		if err != nil {
			return err
		}
		line = string(data)
	default:
		line = fmt.Sprintf("%s - %s - %s",
			entry.Timestamp.Format("2006-01-02 15:04:05"),
			strings.ToUpper(entry.Level.String()),
			entry.Message)
		if len(entry.Fields) > 0 {
			var fields []string
			for k, v := range entry.Fields {
				fields = append(fields, fmt.Sprintf("%s=%v", k, v))
			}
			line += " " + strings.Join(fields, " ")
		}
	}

	if _, err := fmt.Fprintln(a.file, line); err != nil {
		return err
	}

	if a.cfg.SyncOnWrite {
		return a.file.Sync()
	}
	return nil
}

// Close flushes and closes the file
func (a *FileAdapter) Close() error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.file == nil {
		return nil
	}
	err := a.file.Close()
	a.file = nil
	return err
}

// Name returns the name of the adapter
func (a *FileAdapter) Name() string {
	return a.name
}
