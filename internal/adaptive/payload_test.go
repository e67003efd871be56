package adaptive

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSniff_HTML(t *testing.T) {
	kind, ext := Sniff("<html><body>hi</body></html>")
	assert.Equal(t, KindHTML, kind)
	assert.Equal(t, ".html", ext)
}

func TestSniff_JSON(t *testing.T) {
	kind, ext := Sniff(`{"a": 1}`)
	assert.Equal(t, KindJSON, kind)
	assert.Equal(t, ".json", ext)
}

func TestSniff_Markdown(t *testing.T) {
	kind, ext := Sniff("## Summary\nsome text")
	assert.Equal(t, KindMarkdown, kind)
	assert.Equal(t, ".md", ext)
}

func TestSniff_KeyValue(t *testing.T) {
	kind, ext := Sniff("result = 42\nerror = none\n")
	assert.Equal(t, KindKeyValue, kind)
	assert.Equal(t, ".txt", ext)
}

func TestSniff_PlainText(t *testing.T) {
	kind, ext := Sniff("just some prose about the run")
	assert.Equal(t, KindText, kind)
	assert.Equal(t, "", ext)
}

func TestDispatch_StructuredDataWins(t *testing.T) {
	dir := t.TempDir()
	d, err := Dispatch(dir, "analysis", Payload{Text: "ignored prose", Data: map[string]any{"x": 1.0}})
	require.NoError(t, err)
	assert.Equal(t, KindJSON, d.Kind)
	assert.Equal(t, map[string]any{"x": 1.0}, d.Parsed)
	assert.FileExists(t, filepath.Join(dir, "analysis.json"))
}

func TestDispatch_SniffedJSON(t *testing.T) {
	dir := t.TempDir()
	d, err := Dispatch(dir, "analysis", Payload{Text: `{"energy": -1.5}`})
	require.NoError(t, err)
	assert.Equal(t, KindJSON, d.Kind)
	assert.Equal(t, map[string]any{"energy": -1.5}, d.Parsed)
	data, err := os.ReadFile(filepath.Join(dir, "analysis.json"))
	require.NoError(t, err)
	assert.Equal(t, `{"energy": -1.5}`, string(data))
}

func TestDispatch_PlainTextNotSaved(t *testing.T) {
	dir := t.TempDir()
	d, err := Dispatch(dir, "analysis", Payload{Text: "nothing structured here"})
	require.NoError(t, err)
	assert.Equal(t, KindText, d.Kind)
	assert.Equal(t, "", d.Path)
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}
