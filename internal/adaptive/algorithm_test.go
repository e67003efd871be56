package adaptive

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const gridPlugin = `#stop_after=2
package main

var calls int

func InitialDesign(ranges map[string][2]float64, outputs []string) []map[string]float64 {
	lo := ranges["T"][0]
	hi := ranges["T"][1]
	return []map[string]float64{{"T": lo}, {"T": hi}}
}

func NextDesign(historyX []map[string]float64, historyY []*float64) []map[string]float64 {
	calls++
	if calls > 1 {
		return nil
	}
	return []map[string]float64{{"T": 5}}
}

func Analysis(historyX []map[string]float64, historyY []*float64) (string, map[string]any) {
	return "done", map[string]any{"n": len(historyX)}
}
`

func TestLoad_ParsesHeaderAndBody(t *testing.T) {
	algo, err := Load("grid", []byte(gridPlugin), nil)
	require.NoError(t, err)
	assert.Equal(t, "2", algo.Header["stop_after"])
	assert.False(t, algo.HasAnalysisIntermediate())
}

func TestLoad_OptionsOverrideHeader(t *testing.T) {
	algo, err := Load("grid", []byte(gridPlugin), map[string]string{"stop_after": "5"})
	require.NoError(t, err)
	assert.Equal(t, "5", algo.Header["stop_after"])
}

func TestAlgorithm_InitialDesign(t *testing.T) {
	algo, err := Load("grid", []byte(gridPlugin), nil)
	require.NoError(t, err)

	points, err := algo.InitialDesign(map[string][2]float64{"T": {0, 100}}, []string{"y"})
	require.NoError(t, err)
	require.Len(t, points, 2)
	assert.Equal(t, 0.0, points[0]["T"])
	assert.Equal(t, 100.0, points[1]["T"])
}

func TestAlgorithm_NextDesignStopsWhenEmpty(t *testing.T) {
	algo, err := Load("grid", []byte(gridPlugin), nil)
	require.NoError(t, err)

	first, err := algo.NextDesign(nil, nil)
	require.NoError(t, err)
	assert.Len(t, first, 1)

	second, err := algo.NextDesign(nil, nil)
	require.NoError(t, err)
	assert.Empty(t, second)
}

func TestAlgorithm_Analysis(t *testing.T) {
	algo, err := Load("grid", []byte(gridPlugin), nil)
	require.NoError(t, err)

	payload, err := algo.Analysis([]map[string]float64{{"T": 1}}, []*float64{nil})
	require.NoError(t, err)
	assert.Equal(t, "done", payload.Text)
	assert.Equal(t, 1, payload.Data["n"])
}

func TestLoad_MissingOperationIsError(t *testing.T) {
	_, err := Load("broken", []byte("package main\nfunc InitialDesign(r map[string][2]float64, o []string) []map[string]float64 { return nil }\n"), nil)
	assert.Error(t, err)
}
