package model

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	m := Default()
	assert.Equal(t, "$", m.VarPrefix)
	assert.Equal(t, "{", m.DelimLeft)
	assert.Equal(t, "}", m.DelimRight)
	assert.Equal(t, InterpreterPrimary, m.Interpreter)
}

func TestLoadInline_OverridesDefaults(t *testing.T) {
	m, err := LoadInline("varprefix: \"%\"\ndelim_left: \"[\"\ndelim_right: \"]\"\n")
	require.NoError(t, err)
	assert.Equal(t, "%", m.VarPrefix)
	assert.Equal(t, "[", m.DelimLeft)
	assert.Equal(t, "]", m.DelimRight)
}

func TestLoad_File(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "m.yaml")
	require.NoError(t, os.WriteFile(path, []byte("varprefix: \"$\"\ntimeout: 60\n"), 0o644))

	m, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 60*time.Second, m.Timeout())
}

func TestTimeout_ZeroWhenUnset(t *testing.T) {
	m := Default()
	assert.Equal(t, time.Duration(0), m.Timeout())
}

func TestValidate_EmptyVarPrefix(t *testing.T) {
	m := Default()
	m.VarPrefix = ""
	assert.Error(t, m.Validate())
}

func TestValidate_MismatchedDelim(t *testing.T) {
	m := Default()
	m.DelimLeft = "["
	m.DelimRight = ""
	assert.Error(t, m.Validate())
}

func TestValidate_UnknownInterpreter(t *testing.T) {
	m := Default()
	m.Interpreter = InterpreterClass("bogus")
	assert.Error(t, m.Validate())
}

func TestLoadInline_InvalidYAML(t *testing.T) {
	_, err := LoadInline("not: valid: yaml: [")
	assert.Error(t, err)
}
