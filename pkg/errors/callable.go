package errors

import (
	stderrors "errors"
	"fmt"
	"io"
	"runtime/debug"

	"github.com/pingcap/errors"
)

// CallableError 用户代码（Fiber 中提交的函数或 Actor 的消息处理器）失败
//
// 原始错误通过 Cause() 保留。普通错误同时支持 Unwrap，
// 因此 errors.Is / errors.As 可以直接穿透；
// Fiber 任务泄漏的控制信号（io.EOF）只通过 Cause() 暴露，不参与 Unwrap，
// 等待方不会把它误认为正常的迭代结束。
type CallableError struct {
	cause  error
	panic  any
	stack  []byte
	signal bool
}

// Error 实现 error 接口
func (e *CallableError) Error() string {
	switch {
	case e.signal:
		return fmt.Sprintf("callable leaked control signal: %v", e.cause)
	case e.panic != nil:
		return fmt.Sprintf("callable panicked: %v", e.panic)
	default:
		return fmt.Sprintf("callable failed: %v", e.cause)
	}
}

// Cause 返回原始错误，兼容 pingcap/errors.Cause
func (e *CallableError) Cause() error {
	return e.cause
}

// Unwrap 控制信号不参与错误链
func (e *CallableError) Unwrap() error {
	if e.signal {
		return nil
	}
	return e.cause
}

// Panic 返回 recover 得到的值，非 panic 失败时为 nil
func (e *CallableError) Panic() any {
	return e.panic
}

// Stack 返回 panic 时的调用栈
func (e *CallableError) Stack() []byte {
	return e.stack
}

// IsControlSignal 是否为泄漏的迭代结束信号
func (e *CallableError) IsControlSignal() bool {
	return e.signal
}

// WrapCallable 把用户代码返回的错误包装为 CallableError
// nil 返回 nil，已经是 CallableError 的错误原样返回。
// Actor 处理器返回的 io.EOF 是普通错误，仍可通过 errors.Is 识别。
func WrapCallable(err error) error {
	if err == nil {
		return nil
	}
	var ce *CallableError
	if stderrors.As(err, &ce) {
		return err
	}
	return &CallableError{cause: err}
}

// WrapTask 包装 Fiber 任务的错误
//
// 错误链中含有 io.EOF 时（直接返回、经 errors.Trace 或 %w 包装、由 panic 抛出），
// 结果标记为控制信号，Unwrap 不再暴露 io.EOF，Cause() 仍返回原始错误。
func WrapTask(err error) error {
	if err == nil {
		return nil
	}
	if ce, ok := err.(*CallableError); ok && ce.signal {
		return err
	}
	if !isEOF(err) {
		return WrapCallable(err)
	}
	if ce, ok := err.(*CallableError); ok {
		cp := *ce
		cp.signal = true
		return &cp
	}
	return &CallableError{cause: err, signal: true}
}

func isEOF(err error) bool {
	return stderrors.Is(err, io.EOF) || errors.Cause(err) == io.EOF
}

// FromPanic 把 recover 得到的值转换为 CallableError
func FromPanic(r any) error {
	cause, ok := r.(error)
	if !ok {
		cause = errors.Errorf("panic: %v", r)
	}
	return &CallableError{
		cause: cause,
		panic: r,
		stack: debug.Stack(),
	}
}

// IsCallableFailure 判断错误是否来自用户代码
func IsCallableFailure(err error) bool {
	var ce *CallableError
	return stderrors.As(err, &ce)
}
