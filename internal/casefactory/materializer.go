// Package casefactory expands a variable specification into an ordered
// sequence of cases and materializes each case's directory on disk.
package casefactory

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// Materializer creates case directories under a run's root directory,
// lazily and idempotently: a directory is created the first time it is
// requested and never removed afterward, even if the case later fails, so a
// failed case's artifacts remain for inspection.
type Materializer struct {
	runRoot string
	mu      sync.Mutex
	made    map[string]bool
}

func NewMaterializer(runRoot string) (*Materializer, error) {
	abs, err := filepath.Abs(runRoot)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve run root: %w", err)
	}
	if err := os.MkdirAll(abs, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create run root: %w", err)
	}
	return &Materializer{runRoot: abs, made: make(map[string]bool)}, nil
}

// Materialize returns the absolute path for a case directory named dirName
// (the empty string for the no-variables case, meaning the run root itself),
// creating it on first use. Safe for concurrent use by multiple scheduler
// workers.
func (m *Materializer) Materialize(dirName string) (string, error) {
	path := m.runRoot
	if dirName != "" {
		path = filepath.Join(m.runRoot, dirName)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.made[path] {
		return path, nil
	}
	if err := os.MkdirAll(path, 0o755); err != nil {
		return "", fmt.Errorf("failed to materialize case directory %s: %w", dirName, err)
	}
	m.made[path] = true
	return path, nil
}

// Path reports the path a case directory would occupy without creating it.
func (m *Materializer) Path(dirName string) string {
	if dirName == "" {
		return m.runRoot
	}
	return filepath.Join(m.runRoot, dirName)
}
