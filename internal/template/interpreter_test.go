package template

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fz-run/fz/internal/value"
)

func TestYaegi_EvaluatesArithmetic(t *testing.T) {
	y := NewYaegi()
	out, err := y.Run(nil, "", "1 + 2")
	require.NoError(t, err)
	assert.Equal(t, "3", out)
}

func TestYaegi_SeedsScopeVariables(t *testing.T) {
	y := NewYaegi()
	out, err := y.Run(map[string]value.Scalar{"T": value.Float(25)}, "", "T + 273.15")
	require.NoError(t, err)
	assert.Equal(t, "298.15", out)
}

func TestYaegi_StringScopeVariable(t *testing.T) {
	y := NewYaegi()
	out, err := y.Run(map[string]value.Scalar{"name": value.String("case1")}, "", `name + "-out"`)
	require.NoError(t, err)
	assert.Equal(t, "case1-out", out)
}

func TestYaegi_ContextScriptDeclaresBareAssignments(t *testing.T) {
	y := NewYaegi()
	out, err := y.Run(map[string]value.Scalar{"T": value.Int(10)}, "k = T * 2\nk = k + 1", "k")
	require.NoError(t, err)
	assert.Equal(t, "21", out)
}

func TestYaegi_MathFunctions(t *testing.T) {
	y := NewYaegi()
	out, err := y.Run(nil, `import "math"`, "math.Sqrt(16)")
	require.NoError(t, err)
	assert.Equal(t, "4", out)
}

func TestYaegi_NoStateLeaksBetweenRuns(t *testing.T) {
	y := NewYaegi()
	_, err := y.Run(nil, "leaky = 1", "leaky")
	require.NoError(t, err)

	_, err = y.Run(nil, "", "leaky")
	assert.Error(t, err)
}

func TestYaegi_BadExpressionIsError(t *testing.T) {
	y := NewYaegi()
	_, err := y.Run(nil, "", "no_such_fn(")
	assert.Error(t, err)
}

func TestDeclareFirstAssign(t *testing.T) {
	script := "a = 1\nb = a + 1\na = 2"
	got := declareFirstAssign(script, map[string]bool{})
	assert.Equal(t, "a := 1\nb := a + 1\na = 2", got)
}

func TestDeclareFirstAssign_PredeclaredKeepsAssign(t *testing.T) {
	got := declareFirstAssign("T = 5", map[string]bool{"T": true})
	assert.Equal(t, "T = 5", got)
}
