package extractor

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fz-run/fz/internal/model"
)

func writeScript(t *testing.T, dir, name, body string) {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(body), 0o755))
}

func TestExtract_CoercesIntFromStdout(t *testing.T) {
	dir := t.TempDir()
	m := model.Default()
	m.Output = map[string]string{"n": "echo 42"}

	results := Extract(context.Background(), dir, m)
	require.Len(t, results, 1)
	assert.Equal(t, "n", results[0].Name)
	assert.Equal(t, int64(42), results[0].Value)
	assert.NoError(t, results[0].Err)
}

func TestExtract_CoercesJSON(t *testing.T) {
	dir := t.TempDir()
	m := model.Default()
	m.Output = map[string]string{"obj": `echo '{"a": 1}'`}

	results := Extract(context.Background(), dir, m)
	require.Len(t, results, 1)
	assert.Equal(t, map[string]any{"a": int64(1)}, results[0].Value)
}

func TestExtract_NonZeroExitRecordsErrorWithoutPanicking(t *testing.T) {
	dir := t.TempDir()
	m := model.Default()
	m.Output = map[string]string{"bad": "exit 1"}

	results := Extract(context.Background(), dir, m)
	require.Len(t, results, 1)
	assert.Nil(t, results[0].Value)
	assert.Error(t, results[0].Err)
}

func TestExtract_EmptyOutputCoercesToNil(t *testing.T) {
	dir := t.TempDir()
	m := model.Default()
	m.Output = map[string]string{"empty": "true"}

	results := Extract(context.Background(), dir, m)
	require.Len(t, results, 1)
	assert.Nil(t, results[0].Value)
}

func TestCoerce_PythonLiteralList(t *testing.T) {
	v := coerce("[1, 2, 3]")
	assert.Equal(t, []any{int64(1), int64(2), int64(3)}, v)
}

func TestCoerce_SingleElementListCollapses(t *testing.T) {
	v := coerce("[42]")
	assert.Equal(t, int64(42), v)
}

func TestCoerce_PlainString(t *testing.T) {
	assert.Equal(t, "hello world", coerce("hello world"))
}

func TestCoerce_Float(t *testing.T) {
	assert.Equal(t, 3.5, coerce("3.5"))
}

func TestResolveFirstTokens_LeavesUnknownCommandsUnchanged(t *testing.T) {
	assert.Equal(t, "grep foo | wc -l", resolveFirstTokens("grep foo | wc -l"))
}
