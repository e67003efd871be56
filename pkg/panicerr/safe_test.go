package panicerr

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fz-run/fz/pkg/cerr"
)

func TestSafe_PassesThroughReturnedError(t *testing.T) {
	wrapped := Safe(func() error { return errors.New("boom") })
	err := wrapped()
	require.Error(t, err)
	assert.Equal(t, "boom", err.Error())
}

func TestSafe_RecoversPanic(t *testing.T) {
	wrapped := Safe(func() error { panic("oh no") })
	err := wrapped()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "oh no")
}

func TestSafe_NoPanicNoError(t *testing.T) {
	wrapped := Safe(func() error { return nil })
	assert.NoError(t, wrapped())
}

func TestSafeContext_RecoversPanic(t *testing.T) {
	wrapped := SafeContext(func(ctx context.Context) error { panic("boom") })
	err := wrapped(context.Background())
	require.Error(t, err)
}

func TestSafeCase_WrapsPlainPanicAsFatalCerr(t *testing.T) {
	wrapped := SafeCase("x=1", func(ctx context.Context) error { panic("worker died") })
	err := wrapped(context.Background())
	require.Error(t, err)

	var ce *cerr.Error
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, cerr.KindFatal, ce.Kind)
	assert.Equal(t, "x=1", ce.Context["case"])
}

func TestSafeCase_PreservesExistingCerrKind(t *testing.T) {
	wrapped := SafeCase("x=2", func(ctx context.Context) error {
		return cerr.New(cerr.KindExec, cerr.Unknown, "run failed", nil)
	})
	err := wrapped(context.Background())
	require.Error(t, err)

	var ce *cerr.Error
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, cerr.KindExec, ce.Kind)
	assert.Equal(t, "x=2", ce.Context["case"])
}

func TestSafeCase_NoErrorPassesThrough(t *testing.T) {
	wrapped := SafeCase("x=3", func(ctx context.Context) error { return nil })
	assert.NoError(t, wrapped(context.Background()))
}
