package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestEffectiveTimeout_Precedence(t *testing.T) {
	assert.Equal(t, 5*time.Second, EffectiveTimeout(5*time.Second, 10*time.Second, 20*time.Second))
	assert.Equal(t, 10*time.Second, EffectiveTimeout(0, 10*time.Second, 20*time.Second))
	assert.Equal(t, 20*time.Second, EffectiveTimeout(0, 0, 20*time.Second))
	assert.Equal(t, time.Duration(0), EffectiveTimeout(0, 0, 0))
}

func TestLoadEnv_Defaults(t *testing.T) {
	e, err := LoadEnv()
	assert.NoError(t, err)
	assert.Equal(t, "info", e.LogLevel)
	assert.Equal(t, 3, e.MaxRetries)
}
