package store

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seedFile(t *testing.T, root string, rel, content string) {
	t.Helper()
	path := filepath.Join(root, rel)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func TestLocalStorage_Read(t *testing.T) {
	root := t.TempDir()
	seedFile(t, root, "a/b.txt", "hello")
	s, err := NewLocalStorage(root)
	require.NoError(t, err)

	data, err := s.Read(context.Background(), "a/b.txt")
	require.NoError(t, err)
	assert.Equal(t, "hello", string(data))
}

func TestLocalStorage_ReadMissingReturnsErrNotFound(t *testing.T) {
	s, err := NewLocalStorage(t.TempDir())
	require.NoError(t, err)

	_, err = s.Read(context.Background(), "nope.txt")
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestLocalStorage_ListOnlyReturnsFiles(t *testing.T) {
	root := t.TempDir()
	seedFile(t, root, "dir/f1.txt", "x")
	seedFile(t, root, "dir/sub/f2.txt", "x")
	s, err := NewLocalStorage(root)
	require.NoError(t, err)

	paths, err := s.List(context.Background(), "dir")
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"dir/f1.txt"}, paths)
}

func TestLocalStorage_ListDirsOnlyReturnsDirs(t *testing.T) {
	root := t.TempDir()
	seedFile(t, root, "root/case1/output.txt", "x")
	seedFile(t, root, "root/case2/output.txt", "x")
	seedFile(t, root, "root/loose.txt", "x")
	s, err := NewLocalStorage(root)
	require.NoError(t, err)

	dirs, err := s.ListDirs(context.Background(), "root")
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"root/case1", "root/case2"}, dirs)
}

func TestLocalStorage_MissingPrefixIsEmptyNotError(t *testing.T) {
	s, err := NewLocalStorage(t.TempDir())
	require.NoError(t, err)

	paths, err := s.List(context.Background(), "nowhere")
	require.NoError(t, err)
	assert.Empty(t, paths)

	dirs, err := s.ListDirs(context.Background(), "nowhere")
	require.NoError(t, err)
	assert.Empty(t, dirs)
}

func TestLocalStorage_MissingRootIsEmptyNotError(t *testing.T) {
	s, err := NewLocalStorage(filepath.Join(t.TempDir(), "never-created"))
	require.NoError(t, err)

	dirs, err := s.ListDirs(context.Background(), "")
	require.NoError(t, err)
	assert.Empty(t, dirs)
}

func TestCandidates_MatchesGlobAgainstImmediateChildDirs(t *testing.T) {
	root := t.TempDir()
	seedFile(t, root, "root/x=1,y=2/out.txt", "x")
	seedFile(t, root, "root/x=1,y=3/out.txt", "x")
	seedFile(t, root, "root/x=2,y=2/out.txt", "x")
	s, err := NewLocalStorage(root)
	require.NoError(t, err)

	matches, err := Candidates(context.Background(), s, "root", "x=1,*")
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"root/x=1,y=2", "root/x=1,y=3"}, matches)
}

func TestOpen_LocalPath(t *testing.T) {
	s, err := Open(context.Background(), t.TempDir(), "")
	require.NoError(t, err)
	_, ok := s.(*LocalStorage)
	assert.True(t, ok)
}
