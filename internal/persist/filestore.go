package persist

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"
)

const progressFile = "progress.json"

// FileStore keeps step data as one JSON document per step under a
// session directory, plus a progress file alongside them.
type FileStore struct {
	dir string
	mu  sync.Mutex
}

// NewFileStore creates the session directory and returns a store rooted
// there.
func NewFileStore(dir string) (*FileStore, error) {
	trimmed := strings.TrimSpace(dir)
	if trimmed == "" {
		return nil, fmt.Errorf("persist: store directory is required")
	}
	if err := os.MkdirAll(trimmed, 0o755); err != nil {
		return nil, fmt.Errorf("persist: create %s: %w", trimmed, err)
	}
	return &FileStore{dir: trimmed}, nil
}

// Dir returns the directory backing this store.
func (s *FileStore) Dir() string {
	return s.dir
}

// SaveStepData writes the step's data document, replacing any previous one.
func (s *FileStore) SaveStepData(step string, data map[string]any) error {
	key, err := stepKey(step)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.writeJSON(key+".json", data)
}

// LoadStepData reads the step's data document. A step that was never
// saved returns ok=false with no error.
func (s *FileStore) LoadStepData(step string) (map[string]any, bool, error) {
	key, err := stepKey(step)
	if err != nil {
		return nil, false, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	var data map[string]any
	ok, err := s.readJSON(key+".json", &data)
	if err != nil || !ok {
		return nil, false, err
	}
	return data, true, nil
}

// SaveProgress writes the session progress marker, stamping UpdatedAt.
func (s *FileStore) SaveProgress(p Progress) error {
	p.UpdatedAt = time.Now().UTC()
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.writeJSON(progressFile, p)
}

// LoadProgress reads the session progress marker.
func (s *FileStore) LoadProgress() (Progress, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var p Progress
	ok, err := s.readJSON(progressFile, &p)
	if err != nil || !ok {
		return Progress{}, false, err
	}
	return p, true, nil
}

func (s *FileStore) writeJSON(name string, payload any) error {
	data, err := json.MarshalIndent(payload, "", "  ")
	if err != nil {
		return fmt.Errorf("persist: encode %s: %w", name, err)
	}
	path := filepath.Join(s.dir, name)
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("persist: write %s: %w", name, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("persist: commit %s: %w", name, err)
	}
	return nil
}

func (s *FileStore) readJSON(name string, out any) (bool, error) {
	data, err := os.ReadFile(filepath.Join(s.dir, name))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return false, nil
		}
		return false, fmt.Errorf("persist: read %s: %w", name, err)
	}
	if err := json.Unmarshal(data, out); err != nil {
		return false, fmt.Errorf("persist: decode %s: %w", name, err)
	}
	return true, nil
}

func stepKey(step string) (string, error) {
	key := strings.TrimSpace(strings.ToLower(step))
	if key == "" {
		return "", fmt.Errorf("persist: step name is required")
	}
	for _, r := range key {
		if r >= 'a' && r <= 'z' || r >= '0' && r <= '9' || r == '-' || r == '_' {
			continue
		}
		return "", fmt.Errorf("persist: invalid step name %q", step)
	}
	return key, nil
}
