package cliapp

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fz-run/fz/internal/config"
)

func testDirs(t *testing.T) *config.Dirs {
	t.Helper()
	return &config.Dirs{Project: filepath.Join(t.TempDir(), ".fz"), User: filepath.Join(t.TempDir(), ".fz")}
}

func TestResolveModel_DefaultWhenUnset(t *testing.T) {
	m, err := ResolveModel(testDirs(t), "", Overrides{})
	require.NoError(t, err)
	assert.Equal(t, "$", m.VarPrefix)
}

func TestResolveModel_AppliesOverrides(t *testing.T) {
	ov := Overrides{
		VarPrefixSet:     true,
		VarPrefix:        "%",
		DelimSet:         true,
		DelimLeft:        "[",
		DelimRight:       "]",
		FormulaPrefixSet: true,
		FormulaPrefix:    "!",
		CommentLineSet:   true,
		CommentLine:      "//",
		OutputCmds:       []string{"energy=cat energy.txt"},
	}
	m, err := ResolveModel(testDirs(t), "", ov)
	require.NoError(t, err)
	assert.Equal(t, "%", m.VarPrefix)
	assert.Equal(t, "[", m.DelimLeft)
	assert.Equal(t, "]", m.DelimRight)
	assert.Equal(t, "!", m.FormulaPrefix)
	assert.Equal(t, "//", m.CommentLine)
	assert.Equal(t, "cat energy.txt", m.Output["energy"])
}

func TestResolveModel_BadOutputCmd(t *testing.T) {
	ov := Overrides{OutputCmds: []string{"no-equals-sign"}}
	_, err := ResolveModel(testDirs(t), "", ov)
	assert.Error(t, err)
}

func TestParseDelim(t *testing.T) {
	left, right, err := ParseDelim("{,}")
	require.NoError(t, err)
	assert.Equal(t, "{", left)
	assert.Equal(t, "}", right)

	_, _, err = ParseDelim("no-comma")
	assert.Error(t, err)
}
