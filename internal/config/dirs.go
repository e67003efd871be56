// Package config (this file) resolves the `.fz/` project+user
// directory layout: models/<name>, calculators/<name>, algorithms/<name>,
// one descriptor per file, with a project-level entry winning over a
// user-level one of the same name.
package config

import (
	"os"
	"path/filepath"

	"github.com/fz-run/fz/pkg/cerr"
)

// Dirs is the resolved pair of `.fz/` roots searched in project-then-user
// order: project wins over user.
type Dirs struct {
	Project string // "./.fz"
	User    string // "~/.fz"
}

// DefaultDirs resolves the standard `.fz/` locations relative to the
// current working directory and the user's home directory.
func DefaultDirs() (*Dirs, error) {
	cwd, err := os.Getwd()
	if err != nil {
		return nil, cerr.New(cerr.KindConfig, cerr.Internal, "resolve working directory", err)
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return nil, cerr.New(cerr.KindConfig, cerr.Internal, "resolve home directory", err)
	}
	return &Dirs{
		Project: filepath.Join(cwd, ".fz"),
		User:    filepath.Join(home, ".fz"),
	}, nil
}

// find locates a named file under subdir ("models", "calculators",
// "algorithms") in project-then-user order, trying each recognized
// extension. Returns "" if not found in either tier.
func (d *Dirs) find(subdir, name string, exts []string) string {
	for _, root := range []string{d.Project, d.User} {
		if root == "" {
			continue
		}
		for _, ext := range exts {
			candidate := filepath.Join(root, subdir, name+ext)
			if info, err := os.Stat(candidate); err == nil && !info.IsDir() {
				return candidate
			}
		}
		// Also accept an extensionless file (the name given exactly).
		candidate := filepath.Join(root, subdir, name)
		if info, err := os.Stat(candidate); err == nil && !info.IsDir() {
			return candidate
		}
	}
	return ""
}

// FindModel locates a model descriptor file by name.
func (d *Dirs) FindModel(name string) string {
	return d.find("models", name, []string{".yaml", ".yml"})
}

// FindCalculator locates a calculator alias descriptor file by name.
func (d *Dirs) FindCalculator(name string) string {
	return d.find("calculators", name, []string{".yaml", ".yml", ".json"})
}

// FindAlgorithm locates an algorithm plug-in file by name.
func (d *Dirs) FindAlgorithm(name string) string {
	return d.find("algorithms", name, []string{".go", ".fz"})
}

// ListNames lists the base names (extension stripped) of every file
// present under subdir across both tiers, project entries shadowing user
// entries of the same name (used by `list --models`/`--calculators`).
func (d *Dirs) ListNames(subdir string) []string {
	seen := map[string]bool{}
	var names []string
	for _, root := range []string{d.Project, d.User} {
		if root == "" {
			continue
		}
		entries, err := os.ReadDir(filepath.Join(root, subdir))
		if err != nil {
			continue
		}
		for _, e := range entries {
			if e.IsDir() {
				continue
			}
			name := e.Name()
			base := name[:len(name)-len(filepath.Ext(name))]
			if !seen[base] {
				seen[base] = true
				names = append(names, base)
			}
		}
	}
	return names
}
