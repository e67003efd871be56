package clog

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/fz-run/fz/pkg/cerr"
)

func TestKindToLevel_RetryableKindsWarn(t *testing.T) {
	assert.Equal(t, LevelWarn, KindToLevel(cerr.KindTransport))
	assert.Equal(t, LevelWarn, KindToLevel(cerr.KindExec))
	assert.Equal(t, LevelWarn, KindToLevel(cerr.KindTimeout))
	assert.Equal(t, LevelWarn, KindToLevel(cerr.KindExprWarning))
}

func TestKindToLevel_CancellationIsInfo(t *testing.T) {
	assert.Equal(t, LevelInfo, KindToLevel(cerr.KindCancellation))
}

func TestKindToLevel_FatalKindsError(t *testing.T) {
	assert.Equal(t, LevelError, KindToLevel(cerr.KindConfig))
	assert.Equal(t, LevelError, KindToLevel(cerr.KindTemplate))
	assert.Equal(t, LevelError, KindToLevel(cerr.KindExtraction))
	assert.Equal(t, LevelError, KindToLevel(cerr.KindFatal))
}

func TestKindToLevel_UnknownDefaultsToError(t *testing.T) {
	assert.Equal(t, LevelError, KindToLevel(cerr.Kind("bogus")))
}
