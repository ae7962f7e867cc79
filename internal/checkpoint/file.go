// Package checkpoint persists the last delivered cursor between runs
// as a single plain-text integer.
package checkpoint

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/BartekS5/zabbix-audit/pkg/models"
)

// DefaultPath matches the location used by earlier deployments.
const DefaultPath = "/tmp/zabbixaudit"

var (
	ErrNotFound = errors.New("checkpoint file not found")
	ErrCorrupt  = errors.New("checkpoint file content is not a cursor")
)

// FileStore keeps the cursor in one file. It does no locking; a scheduler
// must guarantee a single running instance per file.
type FileStore struct {
	path string
}

func New(path string) *FileStore {
	if path == "" {
		path = DefaultPath
	}
	return &FileStore{path: path}
}

func (s *FileStore) Path() string {
	return s.path
}

// Load returns the persisted cursor. On any failure the cursor is 0 and the
// error tells the caller why: ErrNotFound, ErrCorrupt or the wrapped I/O error.
func (s *FileStore) Load() (models.Cursor, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return 0, fmt.Errorf("%w: %s", ErrNotFound, s.path)
		}
		return 0, fmt.Errorf("failed to read checkpoint '%s': %w", s.path, err)
	}

	text := strings.TrimSpace(string(data))
	n, err := strconv.ParseInt(text, 10, 64)
	if err != nil || n < 0 {
		return 0, fmt.Errorf("%w: %q in %s", ErrCorrupt, text, s.path)
	}
	return models.Cursor(n), nil
}

// Save overwrites the stored cursor. The value is written to a temporary
// file and renamed into place so a crash never leaves a torn checkpoint.
func (s *FileStore) Save(c models.Cursor) error {
	dir := filepath.Dir(s.path)
	tmp, err := os.CreateTemp(dir, filepath.Base(s.path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to write checkpoint '%s': %w", s.path, err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.WriteString(c.String()); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("failed to write checkpoint '%s': %w", s.path, err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("failed to sync checkpoint '%s': %w", s.path, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to write checkpoint '%s': %w", s.path, err)
	}
	if err := os.Chmod(tmpName, 0644); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to write checkpoint '%s': %w", s.path, err)
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to replace checkpoint '%s': %w", s.path, err)
	}
	return nil
}
