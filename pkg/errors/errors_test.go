package errors

import (
	stderrors "errors"
	"fmt"
	"io"
	"testing"

	"github.com/pingcap/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestErrorClassEqual(t *testing.T) {
	err := ErrUnknownTarget.GenWithStackByArgs("worker-1")
	assert.True(t, ErrUnknownTarget.Equal(err))
	assert.False(t, ErrPoolClosed.Equal(err))
	assert.Contains(t, err.Error(), "worker-1")
	assert.Contains(t, err.Error(), "ARBITER:ErrUnknownTarget")
}

func TestWrapCallable(t *testing.T) {
	assert.NoError(t, WrapCallable(nil))

	orig := stderrors.New("boom")
	err := WrapCallable(orig)
	require.Error(t, err)
	assert.True(t, IsCallableFailure(err))
	assert.True(t, stderrors.Is(err, orig))
	assert.Equal(t, orig, errors.Cause(err))

	// 重复包装保持不变
	assert.Same(t, err, WrapCallable(err))
}

func TestWrapCallableKeepsErrorClass(t *testing.T) {
	err := WrapCallable(ErrUnknownTarget.GenWithStackByArgs("gone"))
	assert.True(t, IsCallableFailure(err))
	assert.True(t, ErrUnknownTarget.Equal(err))
}

func TestWrapTaskControlSignal(t *testing.T) {
	cases := map[string]error{
		"bare":    io.EOF,
		"traced":  errors.Trace(io.EOF),
		"wrapped": fmt.Errorf("next: %w", io.EOF),
		"panic":   FromPanic(io.EOF),
	}
	for name, orig := range cases {
		err := WrapTask(orig)

		var ce *CallableError
		require.True(t, stderrors.As(err, &ce), name)
		assert.True(t, ce.IsControlSignal(), name)
		assert.False(t, stderrors.Is(err, io.EOF), name)
		assert.Equal(t, io.EOF, errors.Cause(ce.Cause()), name)
		assert.Contains(t, err.Error(), "control signal", name)
	}

	// 已标记的信号不再变化
	err := WrapTask(io.EOF)
	assert.Same(t, err, WrapTask(err))
}

func TestWrapTaskPlainError(t *testing.T) {
	assert.NoError(t, WrapTask(nil))

	orig := stderrors.New("boom")
	err := WrapTask(orig)
	assert.True(t, stderrors.Is(err, orig))

	var ce *CallableError
	require.True(t, stderrors.As(err, &ce))
	assert.False(t, ce.IsControlSignal())
}

func TestWrapCallableKeepsEOF(t *testing.T) {
	err := WrapCallable(io.EOF)

	var ce *CallableError
	require.True(t, stderrors.As(err, &ce))
	assert.False(t, ce.IsControlSignal())
	assert.True(t, stderrors.Is(err, io.EOF))
}

func TestFromPanic(t *testing.T) {
	err := FromPanic("intentional panic")
	var ce *CallableError
	require.True(t, stderrors.As(err, &ce))
	assert.Equal(t, "intentional panic", ce.Panic())
	assert.NotEmpty(t, ce.Stack())
	assert.False(t, ce.IsControlSignal())

	// 非 error 的 panic 值生成带堆栈的 cause
	assert.True(t, errors.HasStack(ce.Cause()))
	assert.Contains(t, ce.Cause().Error(), "intentional panic")

	orig := stderrors.New("panic with error")
	err = FromPanic(orig)
	assert.True(t, stderrors.Is(err, orig))
}
