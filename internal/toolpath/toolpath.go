// Package toolpath resolves executable names against a configured search
// list: a process-wide memoizing lookup with thread-safe reads and
// single-writer initialization.
package toolpath

import (
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
	"sync"
)

var (
	mu        sync.RWMutex
	searchDir []string
	cache     = map[string]string{}
)

// Init sets the configured search list (from the shell-path environment
// variable), taking priority over the platform default. Safe to call once
// at startup; a later call invalidates the memoized cache.
func Init(searchPath string) {
	mu.Lock()
	defer mu.Unlock()
	sep := string(os.PathListSeparator)
	searchDir = nil
	if searchPath != "" {
		searchDir = strings.Split(searchPath, sep)
	}
	cache = map[string]string{}
}

// Resolve returns the absolute path for name, consulting the configured
// search list first and falling back to the platform default (PATH) via
// exec.LookPath. On platforms where executables carry a suffix (".exe" on
// Windows), both spellings are tried. Results are memoized per name.
func Resolve(name string) (string, bool) {
	mu.RLock()
	if p, ok := cache[name]; ok {
		mu.RUnlock()
		return p, p != ""
	}
	mu.RUnlock()

	mu.Lock()
	defer mu.Unlock()
	if p, ok := cache[name]; ok {
		return p, p != ""
	}

	names := []string{name}
	if runtime.GOOS == "windows" && !strings.HasSuffix(name, ".exe") {
		names = append(names, name+".exe")
	}

	for _, dir := range searchDir {
		for _, n := range names {
			candidate := filepath.Join(dir, n)
			if info, err := os.Stat(candidate); err == nil && !info.IsDir() {
				cache[name] = candidate
				return candidate, true
			}
		}
	}

	for _, n := range names {
		if p, err := exec.LookPath(n); err == nil {
			cache[name] = p
			return p, true
		}
	}

	cache[name] = ""
	return "", false
}
