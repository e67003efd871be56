package template

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fz-run/fz/internal/model"
	"github.com/fz-run/fz/internal/value"
)

func writeTree(t *testing.T, files map[string][]byte) string {
	t.Helper()
	dir := t.TempDir()
	for name, data := range files {
		path := filepath.Join(dir, name)
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, data, 0o644))
	}
	return dir
}

func readFile(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	return string(data)
}

func TestDiscover_SimpleAndDelimitedReferences(t *testing.T) {
	in := writeTree(t, map[string][]byte{
		"input.txt": []byte("x=$x\ny=${y~3}\nagain=$x\n"),
	})
	names, err := Discover(in, model.Default())
	require.NoError(t, err)
	assert.Len(t, names, 2)
	assert.True(t, names["x"])
	assert.True(t, names["y"])
}

func TestDiscover_MergesAcrossFiles(t *testing.T) {
	in := writeTree(t, map[string][]byte{
		"a.txt":       []byte("$shared $onlyA\n"),
		"sub/b.txt":   []byte("$shared $onlyB\n"),
		"sub/c.unset": []byte("no references here\n"),
	})
	names, err := Discover(in, model.Default())
	require.NoError(t, err)
	assert.Len(t, names, 3)
	assert.True(t, names["shared"])
	assert.True(t, names["onlyA"])
	assert.True(t, names["onlyB"])
}

func TestDiscover_SkipsBinaryFiles(t *testing.T) {
	in := writeTree(t, map[string][]byte{
		"input.txt": []byte("$x\n"),
		"blob.bin":  {0x00, 0x24, 0x79, 0x00, 0xff}, // contains "$y" bytes but is binary
	})
	names, err := Discover(in, model.Default())
	require.NoError(t, err)
	assert.Len(t, names, 1)
	assert.True(t, names["x"])
}

func TestDiscover_UnreadablePathIsError(t *testing.T) {
	_, err := Discover(filepath.Join(t.TempDir(), "missing"), model.Default())
	assert.Error(t, err)
}

func TestCompile_IdentitySubstitution(t *testing.T) {
	in := writeTree(t, map[string][]byte{"input.txt": []byte("x=$x\n")})
	out := t.TempDir()

	warnings, err := Compile(in, map[string]value.Scalar{"x": value.Int(42)}, model.Default(), out, nil)
	require.NoError(t, err)
	assert.Empty(t, warnings)
	assert.Equal(t, "x=42\n", readFile(t, filepath.Join(out, "input.txt")))
}

func TestCompile_MirrorsInputTree(t *testing.T) {
	in := writeTree(t, map[string][]byte{
		"top.txt":      []byte("$a\n"),
		"sub/deep.txt": []byte("$a\n"),
	})
	out := t.TempDir()

	_, err := Compile(in, map[string]value.Scalar{"a": value.Int(1)}, model.Default(), out, nil)
	require.NoError(t, err)
	assert.Equal(t, "1\n", readFile(t, filepath.Join(out, "top.txt")))
	assert.Equal(t, "1\n", readFile(t, filepath.Join(out, "sub", "deep.txt")))
}

func TestCompile_DefaultSubstitutionWarnsOncePerSite(t *testing.T) {
	in := writeTree(t, map[string][]byte{"input.txt": []byte("a=${y~3}\nb=${y~3}\n")})
	out := t.TempDir()

	warnings, err := Compile(in, map[string]value.Scalar{}, model.Default(), out, nil)
	require.NoError(t, err)
	assert.Len(t, warnings, 2)
	assert.Equal(t, "a=3\nb=3\n", readFile(t, filepath.Join(out, "input.txt")))
}

func TestCompile_SuppliedValueBeatsDefault(t *testing.T) {
	in := writeTree(t, map[string][]byte{"input.txt": []byte("y=${y~3}\n")})
	out := t.TempDir()

	warnings, err := Compile(in, map[string]value.Scalar{"y": value.Int(7)}, model.Default(), out, nil)
	require.NoError(t, err)
	assert.Empty(t, warnings)
	assert.Equal(t, "y=7\n", readFile(t, filepath.Join(out, "input.txt")))
}

func TestCompile_MissingVariableWithoutDefaultLeftInPlace(t *testing.T) {
	in := writeTree(t, map[string][]byte{"input.txt": []byte("z=$z\n")})
	out := t.TempDir()

	_, err := Compile(in, map[string]value.Scalar{}, model.Default(), out, nil)
	require.NoError(t, err)
	assert.Equal(t, "z=$z\n", readFile(t, filepath.Join(out, "input.txt")))
}

func TestCompile_NormalizesLegacySpelling(t *testing.T) {
	in := writeTree(t, map[string][]byte{"input.txt": []byte("old=?x\nuntouched=??x\n")})
	out := t.TempDir()

	_, err := Compile(in, map[string]value.Scalar{"x": value.Int(5)}, model.Default(), out, nil)
	require.NoError(t, err)
	assert.Equal(t, "old=5\nuntouched=??x\n", readFile(t, filepath.Join(out, "input.txt")))
}

func TestCompile_ExpressionEvaluation(t *testing.T) {
	in := writeTree(t, map[string][]byte{"input.txt": []byte("T=$T\n#@ k = $T + 273.15\nTK=@{k}\n")})
	out := t.TempDir()

	warnings, err := Compile(in, map[string]value.Scalar{"T": value.Int(25)}, model.Default(), out, NewYaegi())
	require.NoError(t, err)
	assert.Empty(t, warnings)
	assert.Equal(t, "T=25\nTK=298.15\n", readFile(t, filepath.Join(out, "input.txt")))
}

func TestCompile_FailedExpressionLeavesTextAndWarns(t *testing.T) {
	in := writeTree(t, map[string][]byte{"input.txt": []byte("v=@{no_such_fn(}\n")})
	out := t.TempDir()

	warnings, err := Compile(in, map[string]value.Scalar{}, model.Default(), out, NewYaegi())
	require.NoError(t, err)
	require.Len(t, warnings, 1)
	assert.Equal(t, "v=@{no_such_fn(}\n", readFile(t, filepath.Join(out, "input.txt")))
}

func TestCompile_CopiesBinaryFilesUnchanged(t *testing.T) {
	blob := []byte{0x00, 0x01, '$', 'x', 0xff}
	in := writeTree(t, map[string][]byte{"blob.bin": blob})
	out := t.TempDir()

	_, err := Compile(in, map[string]value.Scalar{"x": value.Int(1)}, model.Default(), out, nil)
	require.NoError(t, err)
	got, err := os.ReadFile(filepath.Join(out, "blob.bin"))
	require.NoError(t, err)
	assert.Equal(t, blob, got)
}

func TestCompile_RoundTripWithoutReferences(t *testing.T) {
	text := "plain text\nno references at all\n"
	in := writeTree(t, map[string][]byte{"input.txt": []byte(text)})
	out := t.TempDir()

	warnings, err := Compile(in, map[string]value.Scalar{}, model.Default(), out, nil)
	require.NoError(t, err)
	assert.Empty(t, warnings)
	assert.Equal(t, text, readFile(t, filepath.Join(out, "input.txt")))
}
