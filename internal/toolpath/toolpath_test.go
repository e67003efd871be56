package toolpath

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolve_FindsInConfiguredSearchDir(t *testing.T) {
	dir := t.TempDir()
	exe := filepath.Join(dir, "mytool")
	require.NoError(t, os.WriteFile(exe, []byte("#!/bin/sh\n"), 0o755))

	Init(dir)
	t.Cleanup(func() { Init("") })

	path, ok := Resolve("mytool")
	assert.True(t, ok)
	assert.Equal(t, exe, path)
}

func TestResolve_NotFound(t *testing.T) {
	Init(t.TempDir())
	t.Cleanup(func() { Init("") })

	_, ok := Resolve("definitely-not-a-real-tool-xyz")
	assert.False(t, ok)
}

func TestResolve_Memoizes(t *testing.T) {
	dir := t.TempDir()
	exe := filepath.Join(dir, "cached")
	require.NoError(t, os.WriteFile(exe, []byte("x"), 0o755))
	Init(dir)
	t.Cleanup(func() { Init("") })

	p1, _ := Resolve("cached")
	require.NoError(t, os.Remove(exe))
	p2, ok := Resolve("cached")
	assert.Equal(t, p1, p2)
	assert.True(t, ok)
}
