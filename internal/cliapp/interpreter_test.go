package cliapp

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fz-run/fz/internal/config"
	"github.com/fz-run/fz/internal/model"
)

func TestNewInterpreter_PrimaryByDefault(t *testing.T) {
	interp, err := NewInterpreter(model.Default(), nil)
	require.NoError(t, err)
	assert.NotNil(t, interp)
}

func TestNewInterpreter_StatisticalIsNotInstalled(t *testing.T) {
	m := model.Default()
	m.Interpreter = model.InterpreterStatistical
	_, err := NewInterpreter(m, nil)
	assert.Error(t, err)
}

func TestNewInterpreter_EnvFallback(t *testing.T) {
	m := model.Default()
	m.Interpreter = ""
	_, err := NewInterpreter(m, &config.Env{Interpreter: "statistical"})
	assert.Error(t, err)

	interp, err := NewInterpreter(m, &config.Env{Interpreter: "primary"})
	require.NoError(t, err)
	assert.NotNil(t, interp)
}
