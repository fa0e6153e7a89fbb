package reactor

import (
	"sync"

	cerrors "github.com/lwmacct/251216-go-pkg-arbiter/pkg/errors"
)

type futureState int

const (
	futurePending futureState = iota
	futureResolved
	futureFailed
)

// Future 单次赋值的异步结果
//
// 状态只能从 pending 转换一次，到 resolved 或 failed。
// 回调按注册顺序各执行一次，并且总是通过 CallSoon 在循环 goroutine 上执行。
type Future struct {
	loop *Loop

	mu        sync.Mutex
	state     futureState
	value     any
	err       error
	callbacks []func(*Future)
}

// NewFuture 创建绑定到 loop 的 Future
func NewFuture(loop *Loop) *Future {
	return &Future{loop: loop}
}

// Resolved 创建已成功完成的 Future
func Resolved(loop *Loop, value any) *Future {
	f := NewFuture(loop)
	_ = f.Resolve(value)
	return f
}

// Failed 创建已失败的 Future
func Failed(loop *Loop, err error) *Future {
	f := NewFuture(loop)
	_ = f.Fail(err)
	return f
}

// Loop 返回 Future 所属的循环
func (f *Future) Loop() *Loop {
	return f.loop
}

// Resolve 以 value 完成 Future，已完成时返回 ErrInvalidState
func (f *Future) Resolve(value any) error {
	return f.settle(futureResolved, value, nil)
}

// Fail 以 err 完成 Future，已完成时返回 ErrInvalidState
func (f *Future) Fail(err error) error {
	if err == nil {
		return cerrors.ErrUsage.GenWithStackByArgs("future failed with nil error")
	}
	return f.settle(futureFailed, nil, err)
}

func (f *Future) settle(state futureState, value any, err error) error {
	f.mu.Lock()
	if f.state != futurePending {
		f.mu.Unlock()
		return cerrors.ErrInvalidState.GenWithStackByArgs("future already settled")
	}
	f.state = state
	f.value = value
	f.err = err
	callbacks := f.callbacks
	f.callbacks = nil
	f.mu.Unlock()

	for _, cb := range callbacks {
		f.schedule(cb)
	}
	return nil
}

// AddCallback 注册完成回调
// 已完成的 Future 会在下一轮循环中执行回调，不会丢失唤醒。
func (f *Future) AddCallback(fn func(*Future)) {
	f.mu.Lock()
	if f.state == futurePending {
		f.callbacks = append(f.callbacks, fn)
		f.mu.Unlock()
		return
	}
	f.mu.Unlock()
	f.schedule(fn)
}

func (f *Future) schedule(fn func(*Future)) {
	f.loop.CallSoon(func() {
		fn(f)
	})
}

// Done 是否已完成
func (f *Future) Done() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.state != futurePending
}

// Failed 是否以失败完成
func (f *Future) Failed() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.state == futureFailed
}

// Result 返回结果或错误，未完成时返回 ErrInvalidState
func (f *Future) Result() (any, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	switch f.state {
	case futureResolved:
		return f.value, nil
	case futureFailed:
		return nil, f.err
	default:
		return nil, cerrors.ErrInvalidState.GenWithStackByArgs("future is still pending")
	}
}
