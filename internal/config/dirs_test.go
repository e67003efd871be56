package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFindModel_ProjectWinsOverUser(t *testing.T) {
	project := t.TempDir()
	user := t.TempDir()
	dirs := &Dirs{Project: project, User: user}

	require.NoError(t, os.MkdirAll(filepath.Join(project, "models"), 0o755))
	require.NoError(t, os.MkdirAll(filepath.Join(user, "models"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(user, "models", "water.yaml"), []byte("varprefix: \"$\""), 0o644))

	assert.Equal(t, filepath.Join(user, "models", "water.yaml"), dirs.FindModel("water"))

	require.NoError(t, os.WriteFile(filepath.Join(project, "models", "water.yaml"), []byte("varprefix: \"%\""), 0o644))
	assert.Equal(t, filepath.Join(project, "models", "water.yaml"), dirs.FindModel("water"))
}

func TestFindModel_NotFound(t *testing.T) {
	dirs := &Dirs{Project: t.TempDir(), User: t.TempDir()}
	assert.Equal(t, "", dirs.FindModel("missing"))
}

func TestListNames_DedupsAcrossTiers(t *testing.T) {
	project := t.TempDir()
	user := t.TempDir()
	dirs := &Dirs{Project: project, User: user}

	require.NoError(t, os.MkdirAll(filepath.Join(project, "calculators"), 0o755))
	require.NoError(t, os.MkdirAll(filepath.Join(user, "calculators"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(project, "calculators", "cluster.yaml"), []byte("uri: sh://\nmodels: {}"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(user, "calculators", "cluster.yaml"), []byte("uri: sh://\nmodels: {}"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(user, "calculators", "laptop.yaml"), []byte("uri: sh://\nmodels: {}"), 0o644))

	names := dirs.ListNames("calculators")
	assert.ElementsMatch(t, []string{"cluster", "laptop"}, names)
}

func TestFindAlgorithm_Extensions(t *testing.T) {
	project := t.TempDir()
	dirs := &Dirs{Project: project}
	require.NoError(t, os.MkdirAll(filepath.Join(project, "algorithms"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(project, "algorithms", "grid.go"), []byte("package main"), 0o644))
	assert.Equal(t, filepath.Join(project, "algorithms", "grid.go"), dirs.FindAlgorithm("grid"))
}
