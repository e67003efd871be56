// Package cache implements per-case content fingerprints and the
// cache-hit predicate, layered on top of internal/cache/store's storage
// abstraction.
package cache

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/fz-run/fz/internal/cache/store"
	"github.com/fz-run/fz/pkg/cerr"
)

// sidecarName is the per-case fingerprint file, lowercase hex digests.
const sidecarName = ".fz_hash"

// Fingerprint is a case's content fingerprint: a digest per compiled input
// filename, relative to the case directory.
type Fingerprint map[string]string

// Compute digests every regular file under caseDir (recursively, filenames
// relative to caseDir) with MD5 — a 128-bit content digest used purely for
// change detection, not a security boundary, so MD5's cryptographic
// weaknesses are immaterial here.
func Compute(caseDir string) (Fingerprint, error) {
	fp := Fingerprint{}
	err := filepath.Walk(caseDir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(caseDir, path)
		if err != nil {
			return err
		}
		if rel == sidecarName {
			return nil
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		sum := md5.Sum(data)
		fp[rel] = hex.EncodeToString(sum[:])
		return nil
	})
	if err != nil {
		return nil, cerr.New(cerr.KindFatal, cerr.Internal, fmt.Sprintf("compute fingerprint for %s", caseDir), err)
	}
	return fp, nil
}

// Equal reports whether two fingerprints have the same filename set with
// equal digests for every file.
func (fp Fingerprint) Equal(other Fingerprint) bool {
	if len(fp) != len(other) {
		return false
	}
	for name, digest := range fp {
		if other[name] != digest {
			return false
		}
	}
	return true
}

// Render produces the sidecar file's deterministic text form: one
// "<digest>\t<name>" line per file, sorted by name.
func (fp Fingerprint) Render() string {
	names := make([]string, 0, len(fp))
	for name := range fp {
		names = append(names, name)
	}
	sort.Strings(names)
	out := ""
	for _, name := range names {
		out += fmt.Sprintf("%s\t%s\n", fp[name], name)
	}
	return out
}

// ParseFingerprint reads back a sidecar file rendered by Render.
func ParseFingerprint(data []byte) Fingerprint {
	fp := Fingerprint{}
	start := 0
	for i := 0; i <= len(data); i++ {
		if i == len(data) || data[i] == '\n' {
			line := string(data[start:i])
			start = i + 1
			if line == "" {
				continue
			}
			sep := strings.IndexByte(line, '\t')
			if sep < 0 {
				continue
			}
			digest, name := line[:sep], line[sep+1:]
			fp[name] = digest
		}
	}
	return fp
}

// Write computes caseDir's fingerprint and writes it to the sidecar file.
func Write(caseDir string) (Fingerprint, error) {
	fp, err := Compute(caseDir)
	if err != nil {
		return nil, err
	}
	if err := os.WriteFile(filepath.Join(caseDir, sidecarName), []byte(fp.Render()), 0o644); err != nil {
		return nil, cerr.New(cerr.KindFatal, cerr.Internal, fmt.Sprintf("write sidecar fingerprint for %s", caseDir), err)
	}
	return fp, nil
}

// Read loads a case directory's stored sidecar fingerprint via s, relative
// to root (so both local and s3-backed cache roots work identically).
func Read(ctx context.Context, s store.Storage, caseDir string) (Fingerprint, error) {
	data, err := s.Read(ctx, filepath.Join(caseDir, sidecarName))
	if err != nil {
		return nil, err
	}
	return ParseFingerprint(data), nil
}
