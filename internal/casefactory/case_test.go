package casefactory

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fz-run/fz/internal/value"
)

func TestExpand_CartesianProduct_LastVariesFastest(t *testing.T) {
	specs := []VarSpec{
		{Name: "T", Values: []value.Scalar{value.Int(1), value.Int(2)}},
		{Name: "P", Values: []value.Scalar{value.Int(10), value.Int(20)}},
	}
	cases, err := Expand(specs)
	require.NoError(t, err)
	require.Len(t, cases, 4)
	assert.Equal(t, "1", cases[0].Values["T"].Canonical())
	assert.Equal(t, "10", cases[0].Values["P"].Canonical())
	assert.Equal(t, "1", cases[1].Values["T"].Canonical())
	assert.Equal(t, "20", cases[1].Values["P"].Canonical())
	assert.Equal(t, "2", cases[2].Values["T"].Canonical())
	assert.Equal(t, "10", cases[2].Values["P"].Canonical())
}

func TestExpand_Empty(t *testing.T) {
	cases, err := Expand(nil)
	require.NoError(t, err)
	require.Len(t, cases, 1)
	assert.Empty(t, cases[0].Values)
}

func TestExpand_NoValuesIsError(t *testing.T) {
	_, err := Expand([]VarSpec{{Name: "T", Values: nil}})
	assert.Error(t, err)
}

func TestExpandRows_PreservesOrder(t *testing.T) {
	rows := []map[string]value.Scalar{
		{"x": value.Int(1)},
		{"x": value.Int(2)},
	}
	cases, err := ExpandRows(rows)
	require.NoError(t, err)
	require.Len(t, cases, 2)
	assert.Equal(t, "1", cases[0].Values["x"].Canonical())
	assert.Equal(t, "2", cases[1].Values["x"].Canonical())
}

func TestExpandRows_EmptyIsError(t *testing.T) {
	_, err := ExpandRows(nil)
	assert.Error(t, err)
}

func TestCase_Key(t *testing.T) {
	c := Case{Values: map[string]value.Scalar{"T": value.Int(20), "P": value.Int(1)}, Keys: []string{"T", "P"}}
	assert.Equal(t, "T=20,P=1", c.Key())
}

func TestCase_Key_Empty(t *testing.T) {
	c := Case{}
	assert.Equal(t, "", c.Key())
}

func TestValidateUnique_DuplicateDetected(t *testing.T) {
	seq := []Case{
		{Values: map[string]value.Scalar{"T": value.Int(1)}, Keys: []string{"T"}},
		{Values: map[string]value.Scalar{"T": value.Int(1)}, Keys: []string{"T"}},
	}
	assert.Error(t, ValidateUnique(seq))
}

func TestValidateUnique_NoDuplicates(t *testing.T) {
	seq := []Case{
		{Values: map[string]value.Scalar{"T": value.Int(1)}, Keys: []string{"T"}},
		{Values: map[string]value.Scalar{"T": value.Int(2)}, Keys: []string{"T"}},
	}
	assert.NoError(t, ValidateUnique(seq))
}
