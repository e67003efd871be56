// Package store provides the read-only view of a cache root the cache
// probe works against: roots may be a local directory or an s3:// prefix,
// both behind the same Storage interface. The engine never writes into or
// deletes from a cache root; hit artifacts are imported into the case
// directory, not the other way round.
package store

import (
	"context"
	"errors"
	"path"
	"strings"
)

// ErrNotFound is returned when a requested path does not exist in storage.
var ErrNotFound = errors.New("not found")

// Storage is a read-only file view over a cache root.
type Storage interface {
	// Read returns the content of the file at path, or ErrNotFound.
	Read(ctx context.Context, path string) ([]byte, error)

	// List enumerates the files directly under prefix (no recursion). A
	// missing prefix yields an empty listing, not an error — a cache root
	// that does not exist yet is simply empty: zero matches is a miss,
	// not an error.
	List(ctx context.Context, prefix string) ([]string, error)

	// ListDirs enumerates the immediate child directories (for s3-backed
	// roots, common prefixes) under prefix: the candidate case directories
	// a cache probe walks.
	ListDirs(ctx context.Context, prefix string) ([]string, error)
}

// Candidates enumerates cache candidate directory names directly under root
// whose base name matches the glob pattern (per path.Match semantics, no
// recursion beyond the literal pattern), as required when resolving a
// cache://<glob> calculator URI.
func Candidates(ctx context.Context, s Storage, root, pattern string) ([]string, error) {
	dirs, err := s.ListDirs(ctx, root)
	if err != nil {
		return nil, err
	}
	var out []string
	for _, d := range dirs {
		base := path.Base(d)
		ok, err := path.Match(pattern, base)
		if err != nil {
			return nil, err
		}
		if ok {
			out = append(out, d)
		}
	}
	return out, nil
}

// Open resolves a cache root (a filesystem path or an s3://bucket/prefix URI)
// into a Storage. The region is only consulted for s3:// roots; pass "" to
// fall back to the AWS SDK's default region resolution chain.
func Open(ctx context.Context, root, region string) (Storage, error) {
	if strings.HasPrefix(root, "s3://") {
		rest := strings.TrimPrefix(root, "s3://")
		bucket, prefix, _ := strings.Cut(rest, "/")
		return NewS3Storage(ctx, bucket, prefix, region)
	}
	return NewLocalStorage(root)
}
