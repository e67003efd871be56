package casefactory

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMaterializer_CreatesOnFirstUse(t *testing.T) {
	root := t.TempDir()
	mat, err := NewMaterializer(filepath.Join(root, "run1"))
	require.NoError(t, err)

	path, err := mat.Materialize("T=20,P=1")
	require.NoError(t, err)
	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.True(t, info.IsDir())
}

func TestMaterializer_Idempotent(t *testing.T) {
	root := t.TempDir()
	mat, err := NewMaterializer(root)
	require.NoError(t, err)

	p1, err := mat.Materialize("case1")
	require.NoError(t, err)
	p2, err := mat.Materialize("case1")
	require.NoError(t, err)
	assert.Equal(t, p1, p2)
}

func TestMaterializer_EmptyDirNameIsRunRoot(t *testing.T) {
	root := t.TempDir()
	mat, err := NewMaterializer(root)
	require.NoError(t, err)
	path, err := mat.Materialize("")
	require.NoError(t, err)
	abs, _ := filepath.Abs(root)
	assert.Equal(t, abs, path)
}

func TestMaterializer_Path_DoesNotCreate(t *testing.T) {
	root := t.TempDir()
	mat, err := NewMaterializer(root)
	require.NoError(t, err)
	p := mat.Path("not-yet")
	_, err = os.Stat(p)
	assert.True(t, os.IsNotExist(err))
}
