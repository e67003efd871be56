// Package cachebackend implements the content-addressed cache calculator:
// `cache://<glob>` enumerates candidate case directories under a cache
// root, matches by fingerprint equality and non-null extraction, and
// imports a hit's artifacts. It never runs user code.
package cachebackend

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fz-run/fz/internal/cache"
	"github.com/fz-run/fz/internal/cache/store"
	"github.com/fz-run/fz/internal/calculator"
	"github.com/fz-run/fz/internal/extractor"
	"github.com/fz-run/fz/internal/model"
	"github.com/fz-run/fz/pkg/cerr"
)

type Backend struct {
	uri     string
	root    string
	region  string
	pattern string
	model   *model.Model
}

func New(uri, root, region, pattern string, m *model.Model) *Backend {
	return &Backend{uri: uri, root: root, region: region, pattern: pattern, model: m}
}

func (b *Backend) URI() string { return b.uri }

// Run never executes command: it ignores it entirely.
func (b *Backend) Run(ctx context.Context, caseDir, _ string, _ time.Duration) (*calculator.CaseOutcome, error) {
	target, err := cache.Compute(caseDir)
	if err != nil {
		return nil, err
	}

	s, err := store.Open(ctx, b.root, b.region)
	if err != nil {
		return nil, cerr.New(cerr.KindTransport, cerr.Unavailable, "open cache root", err)
	}

	candidates, err := store.Candidates(ctx, s, "", b.pattern)
	if err != nil {
		return nil, cerr.New(cerr.KindTransport, cerr.Unavailable, "enumerate cache candidates", err)
	}

	for _, candidate := range candidates {
		hit, err := b.checkCandidate(ctx, s, candidate, target)
		if err != nil {
			continue // unreadable or malformed candidate: not a hit, try the next one
		}
		if !hit {
			continue
		}
		if err := importCandidate(ctx, s, candidate, caseDir); err != nil {
			return nil, cerr.New(cerr.KindFatal, cerr.Internal, "import cache hit artifacts", err)
		}
		return &calculator.CaseOutcome{
			Status:     calculator.StatusCached,
			Cached:     true,
			StdoutPath: caseDir + "/out.txt",
			StderrPath: caseDir + "/err.txt",
			LogPath:    caseDir + "/log.txt",
		}, nil
	}

	// No candidate matched: a transparent miss, not a failure.
	return &calculator.CaseOutcome{Status: calculator.StatusMiss}, nil
}

// checkCandidate reports whether candidate is a valid cache hit: equal
// fingerprint and every declared output field currently non-null under the
// candidate directory.
func (b *Backend) checkCandidate(ctx context.Context, s store.Storage, candidate string, target cache.Fingerprint) (bool, error) {
	fp, err := cache.Read(ctx, s, candidate)
	if err != nil {
		return false, err
	}
	if !fp.Equal(target) {
		return false, nil
	}

	if b.model == nil || len(b.model.Output) == 0 {
		return true, nil
	}

	candidateDir := filepath.Join(b.root, candidate)
	results := extractor.Extract(ctx, candidateDir, b.model)
	for _, r := range results {
		if r.Err != nil || r.Value == nil {
			return false, nil
		}
	}
	return true, nil
}

// importCandidate copies every file under candidate into caseDir,
// preserving the candidate-relative tree — the fingerprint keys on relative
// paths, so a flattened import would stop matching on re-fingerprint. No
// hard-linking, since the copy must also work against an s3-backed cache
// root.
func importCandidate(ctx context.Context, s store.Storage, candidate, caseDir string) error {
	files, err := listRecursive(ctx, s, candidate)
	if err != nil {
		return err
	}
	for _, f := range files {
		data, err := s.Read(ctx, f)
		if err != nil {
			return err
		}
		rel := strings.TrimPrefix(strings.TrimPrefix(f, candidate), "/")
		dest := filepath.Join(caseDir, rel)
		if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
			return err
		}
		if err := os.WriteFile(dest, data, 0o644); err != nil {
			return err
		}
	}
	return nil
}

// listRecursive enumerates every file under prefix, descending into child
// directories (Storage.List alone only sees one level).
func listRecursive(ctx context.Context, s store.Storage, prefix string) ([]string, error) {
	files, err := s.List(ctx, prefix)
	if err != nil {
		return nil, err
	}
	dirs, err := s.ListDirs(ctx, prefix)
	if err != nil {
		return nil, err
	}
	for _, d := range dirs {
		nested, err := listRecursive(ctx, s, d)
		if err != nil {
			return nil, err
		}
		files = append(files, nested...)
	}
	return files, nil
}
