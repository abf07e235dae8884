package errors

import (
	stderrors "errors"
	"fmt"
	"io/fs"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestErrorString(t *testing.T) {
	tests := []struct {
		name     string
		err      *Error
		expected string
	}{
		{
			name:     "message only",
			err:      New("boom"),
			expected: "boom",
		},
		{
			name:     "message with context",
			err:      New("boom").WithOperation("load").WithComponent("dataset"),
			expected: "boom: operation=load, component=dataset",
		},
		{
			name:     "wrapped",
			err:      Wrap(fs.ErrNotExist, "open data.csv").WithOperation("load"),
			expected: "open data.csv: operation=load: file does not exist",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.err.Error())
			assert.NotEmpty(t, tt.err.StackTrace())
		})
	}
}

func TestWrapPreservesChain(t *testing.T) {
	sentinel := stderrors.New("sentinel")
	inner := Wrapf(sentinel, "inner %d", 1)
	outer := Wrap(inner, "outer")

	assert.True(t, Is(outer, sentinel))
	assert.Equal(t, inner, stderrors.Unwrap(outer))

	var target *Error
	require.True(t, As(outer, &target))
	assert.Equal(t, "outer", target.Message)
}

func TestWrapNil(t *testing.T) {
	assert.Nil(t, Wrap(nil, "nothing"))
	assert.Nil(t, Wrapf(nil, "nothing %s", "here"))
}

func TestRecover(t *testing.T) {
	run := func() (err error) {
		defer Recover(zap.NewNop(), &err)
		panic("exploded")
	}

	err := run()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "exploded")

	cause := stderrors.New("cause")
	runErr := func() (err error) {
		defer Recover(nil, &err)
		panic(cause)
	}
	assert.True(t, Is(runErr(), cause))
}

func TestRecoverWithoutPanic(t *testing.T) {
	run := func() (err error) {
		defer Recover(zap.NewNop(), &err)
		return nil
	}
	assert.NoError(t, run())
}

func TestStack(t *testing.T) {
	tests := []struct {
		name  string
		err   error
		empty bool
	}{
		{name: "nil", err: nil, empty: true},
		{name: "plain error", err: fs.ErrNotExist, empty: true},
		{name: "contextual error", err: New("boom")},
		{name: "wrapped by fmt", err: fmt.Errorf("run: %w", Wrap(fs.ErrNotExist, "open"))},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			stack := Stack(tt.err)
			if tt.empty {
				assert.Empty(t, stack)
				return
			}
			assert.NotEmpty(t, stack)
		})
	}
}

func TestRecoverLogsCapturedStack(t *testing.T) {
	core, logs := observer.New(zapcore.ErrorLevel)
	run := func() (err error) {
		defer Recover(zap.New(core), &err)
		panic("exploded")
	}

	err := run()
	require.Error(t, err)

	entries := logs.FilterMessage("Recovered from panic").All()
	require.Len(t, entries, 1)
	stack, ok := entries[0].ContextMap()["stack"].([]interface{})
	require.True(t, ok)
	assert.NotEmpty(t, stack)
	assert.Equal(t, len(Stack(err)), len(stack))
}
